package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-api/internal/domain"
)

func TestValidationError_IsInvalidInput(t *testing.T) {
	err := domain.NewValidationError("items", "el carrito está vacío")
	wrapped := fmt.Errorf("crear venta: %w", err)

	assert.True(t, errors.Is(wrapped, domain.ErrInvalidInput))

	var ve *domain.ValidationError
	assert.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "el carrito está vacío", ve.Fields["items"])
}

func TestValidationError_MessageIsStable(t *testing.T) {
	err := (&domain.ValidationError{}).Add("b", "dos").Add("a", "uno")
	assert.Equal(t, "validación: a: uno; b: dos", err.Error())
	assert.True(t, err.HasErrors())
}

func TestStockError_IsInsufficientStock(t *testing.T) {
	err := fmt.Errorf("línea 1: %w", &domain.StockError{ProductID: "p1", Available: "1", Requested: "3"})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "p1")
}
