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
)

func TestHistory_ListsSessionUserSales(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := e.uc.Create(ctx, shopID, userID, dto.CreateTransactionRequest{
			PaymentType: entity.PaymentTypeCash,
			Items:       cart(line(p1, "1")),
		})
		require.NoError(t, err)
	}

	out, err := e.uc.History(ctx, userID, dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, 2, out.Page.Limit)
	assert.Equal(t, 1, out.Items[0].ItemsCount)

	other, err := e.uc.History(ctx, "otro-usuario", dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestGet_OtherShopIsNotFound(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	out, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p1, "1")),
	})
	require.NoError(t, err)

	_, err = e.uc.Get(context.Background(), otherShop, out.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRefund_RestocksAndReversesDebt(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	ctx := context.Background()
	out, err := e.uc.Create(ctx, shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeDebt,
		Items:       cart(line(p1, "4")),
		Debtor:      &dto.DebtorRequest{Phone: "998907654321", FullName: "Malika"},
	})
	require.NoError(t, err)
	require.True(t, d("6").Equal(e.store.Products[p1].Quantity))
	require.True(t, d("4000").Equal(e.store.Customers[out.CustomerID].TotalDebt))

	refunded, err := e.uc.Refund(ctx, shopID, userID, out.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusRefunded, refunded.Status)
	assert.True(t, d("10").Equal(e.store.Products[p1].Quantity))
	assert.True(t, e.store.Customers[out.CustomerID].TotalDebt.IsZero())

	movs := e.store.ProductMovements(p1)
	last := movs[len(movs)-1]
	assert.Equal(t, entity.MovementTypeIn, last.Type)
	assert.Equal(t, "refund:"+out.ID, last.Reason)

	_, err = e.uc.Refund(ctx, shopID, userID, out.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "una venta devuelta no se devuelve dos veces")
}

func TestReceipt_RendersPDF(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	out, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p1, "2")),
	})
	require.NoError(t, err)

	pdf, name, err := e.uc.Receipt(context.Background(), shopID, out.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, e.renderer.calls)
	assert.Contains(t, string(pdf), "2000")
	assert.Equal(t, "recibo-"+out.ID[:8]+".pdf", name)
}
