package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApplyMovement(t *testing.T) {
	cases := []struct {
		name      string
		onHand    string
		typ       string
		qty       string
		wantQty   string
		wantDelta string
		wantErr   error
	}{
		{"in suma", "5", entity.MovementTypeIn, "3", "8", "3", nil},
		{"out resta", "5", entity.MovementTypeOut, "2", "3", "-2", nil},
		{"out exacto deja cero", "5", entity.MovementTypeOut, "5", "0", "-5", nil},
		{"out sin stock", "1", entity.MovementTypeOut, "2", "", "", domain.ErrInsufficientStock},
		{"adjust positivo", "1", entity.MovementTypeAdjust, "4", "5", "4", nil},
		{"adjust negativo", "5", entity.MovementTypeAdjust, "-1.5", "3.5", "-1.5", nil},
		{"adjust deja negativo", "1", entity.MovementTypeAdjust, "-2", "", "", domain.ErrInsufficientStock},
		{"in cero", "1", entity.MovementTypeIn, "0", "", "", domain.ErrInvalidInput},
		{"out negativo", "1", entity.MovementTypeOut, "-1", "", "", domain.ErrInvalidInput},
		{"tipo desconocido", "1", "transfer", "1", "", "", domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			newQty, delta, err := inventory.ApplyMovement(d(tc.onHand), tc.typ, d(tc.qty))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, d(tc.wantQty).Equal(newQty), "qty=%s", newQty)
			assert.True(t, d(tc.wantDelta).Equal(delta), "delta=%s", delta)
		})
	}
}

func TestShortfall(t *testing.T) {
	assert.True(t, inventory.Shortfall(d("5"), d("3")).IsZero())
	assert.True(t, inventory.Shortfall(d("3"), d("3")).IsZero())
	assert.True(t, d("2").Equal(inventory.Shortfall(d("1"), d("3"))))
}
