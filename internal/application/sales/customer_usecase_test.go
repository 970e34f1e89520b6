package sales_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/sales"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/testutil/memstore"
)

func TestCustomerUseCase_ListAndGetScoped(t *testing.T) {
	st := memstore.New()
	st.Customers["c1"] = &entity.Customer{ID: "c1", ShopID: shopID, Name: "Aziz", Phone: "1", TotalDebt: d("2500")}
	st.Customers["c2"] = &entity.Customer{ID: "c2", ShopID: otherShop, Name: "Bek", Phone: "2", TotalDebt: d("1")}
	uc := sales.NewCustomerUseCase(memstore.NewCustomerRepo(st))
	ctx := context.Background()

	list, err := uc.List(ctx, shopID, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Aziz", list[0].FullName)
	assert.True(t, d("2500").Equal(list[0].TotalDebt))

	_, err = uc.GetByID(ctx, shopID, "c2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := uc.GetByID(ctx, shopID, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
}
