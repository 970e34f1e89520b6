package sales_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/sales"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/testutil/memstore"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixtures
// ──────────────────────────────────────────────────────────────────────────────

const (
	shopID    = "00000000-0000-0000-0000-0000000000a1"
	otherShop = "00000000-0000-0000-0000-0000000000a2"
	userID    = "00000000-0000-0000-0000-0000000000b1"
	p1        = "00000000-0000-0000-0000-0000000000c1"
	p2        = "00000000-0000-0000-0000-0000000000c2"
	pForeign  = "00000000-0000-0000-0000-0000000000c3"
	pMissing  = "00000000-0000-0000-0000-0000000000cf"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeRenderer struct {
	calls int
}

func (f *fakeRenderer) RenderReceipt(_ context.Context, shop *entity.Shop, tx *entity.Transaction) ([]byte, error) {
	f.calls++
	return []byte("%PDF " + shop.Name + " " + tx.TotalPrice.String()), nil
}

type env struct {
	store    *memstore.Store
	runner   *memstore.TxRunner
	uc       *sales.TransactionUseCase
	renderer *fakeRenderer
}

func newEnv(t *testing.T, policy sales.Policy) *env {
	t.Helper()
	s := memstore.New()
	now := time.Now()
	s.Shops[shopID] = &entity.Shop{ID: shopID, OwnerID: userID, Name: "Do'kon", IsActive: true, CreatedAt: now}
	s.Shops[otherShop] = &entity.Shop{ID: otherShop, Name: "Otra", IsActive: true, CreatedAt: now}
	s.Users[userID] = &entity.User{ID: userID, Phone: "998900000001", FullName: "Vendedor", IsActive: true, IsShop: true, ShopID: shopID}
	s.Products[p1] = &entity.Product{ID: p1, ShopID: shopID, Name: "Non", Price: d("1000"), CostPrice: d("600"), Quantity: d("10"), IsActive: true}
	s.Products[p2] = &entity.Product{ID: p2, ShopID: shopID, Name: "Sut", Price: d("3000"), CostPrice: d("2000"), Quantity: d("1"), IsActive: true}
	s.Products[pForeign] = &entity.Product{ID: pForeign, ShopID: otherShop, Name: "Ajeno", Price: d("1"), Quantity: d("100"), IsActive: true}

	runner := memstore.NewTxRunner(s)
	r := &fakeRenderer{}
	uc := sales.NewTransactionUseCase(
		runner,
		memstore.NewTransactionRepo(s),
		memstore.NewCustomerRepo(s),
		memstore.NewShopRepo(s),
		r,
		policy,
		zerolog.Nop(),
	)
	return &env{store: s, runner: runner, uc: uc, renderer: r}
}

func cart(lines ...dto.CartItemRequest) []dto.CartItemRequest { return lines }

func line(productID, qty string) dto.CartItemRequest {
	return dto.CartItemRequest{ProductID: productID, Quantity: d(qty)}
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_CashSaleTwoUnits(t *testing.T) {
	e := newEnv(t, sales.Policy{})

	out, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p1, "2")),
	})
	require.NoError(t, err)

	assert.True(t, d("2000").Equal(out.TotalPrice), "total=%s", out.TotalPrice)
	assert.True(t, d("1200").Equal(out.CostTotal))
	assert.True(t, d("800").Equal(out.Profit))
	assert.Equal(t, entity.TransactionStatusCompleted, out.Status)
	assert.True(t, d("8").Equal(e.store.Products[p1].Quantity), "el stock baja exactamente 2")

	stored := e.store.Transactions[out.ID]
	require.NotNil(t, stored)
	assert.True(t, d("2000").Equal(stored.TotalPrice), "los totales se rellenan en la cabecera")

	movs := e.store.ProductMovements(p1)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeOut, movs[0].Type)
	assert.True(t, d("-2").Equal(movs[0].Quantity))
	assert.Equal(t, "sale:"+out.ID, movs[0].Reason)
}

func TestCreate_TotalEqualsSumOfLinesAndStockDecrements(t *testing.T) {
	e := newEnv(t, sales.Policy{})

	out, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCard,
		Items:       cart(line(p1, "3"), line(p2, "1"), line(p1, "1.5")),
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, it := range e.store.Items {
		sum = sum.Add(it.Quantity.Mul(it.PriceAtSale))
	}
	assert.True(t, sum.Equal(out.TotalPrice), "Σ qty*price_at_sale == total_price")
	assert.Len(t, out.Items, 3)
	assert.True(t, d("5.5").Equal(e.store.Products[p1].Quantity))
	assert.True(t, d("0").Equal(e.store.Products[p2].Quantity))
}

func TestCreate_SnapshotsPriceAtSale(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	out, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p1, "1")),
	})
	require.NoError(t, err)

	e.store.Products[p1].Price = d("5000")
	got, err := e.uc.Get(context.Background(), shopID, out.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, d("1000").Equal(got.Items[0].PriceAtSale))
	assert.True(t, d("600").Equal(got.Items[0].CostAtSale))
}

func TestCreate_DiscountReducesProfitNotTotal(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	l := line(p1, "2")
	l.Discount = d("150")

	out, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(l),
	})
	require.NoError(t, err)
	assert.True(t, d("2000").Equal(out.TotalPrice))
	assert.True(t, d("150").Equal(out.Discount))
	assert.True(t, d("650").Equal(out.Profit))
	assert.True(t, d("1850").Equal(out.Items[0].LineTotal))
}

func TestCreate_DiscountAboveLineAmountRejected(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	l := line(p1, "1")
	l.Discount = d("1000.01")

	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(l),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, e.store.Transactions)
	assert.True(t, d("10").Equal(e.store.Products[p1].Quantity))
}

// ──────────────────────────────────────────────────────────────────────────────
// Rechazos antes de escribir
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_EmptyCartRejected(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{PaymentType: entity.PaymentTypeCash})

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "items")
	assert.Zero(t, e.runner.Runs, "no se abre ninguna transacción")
}

func TestCreate_ZeroQuantityRejectedBeforeAnyWrite(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p1, "1"), line(p2, "0")),
	})

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "items[1].quantity")
	assert.Zero(t, e.runner.Runs)
	assert.Empty(t, e.store.Transactions)
	assert.True(t, d("10").Equal(e.store.Products[p1].Quantity))
}

func TestCreate_QuantityAndDiscountScaleRejected(t *testing.T) {
	cases := []struct {
		name  string
		item  dto.CartItemRequest
		field string
	}{
		{"cuatro decimales", line(p1, "1.2345"), "items[0].quantity"},
		{"redondea a cero", line(p1, "0.0001"), "items[0].quantity"},
		{"descuento con tres decimales", dto.CartItemRequest{ProductID: p1, Quantity: d("1"), Discount: d("0.005")}, "items[0].discount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, sales.Policy{})
			_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
				PaymentType: entity.PaymentTypeCash,
				Items:       cart(tc.item),
			})

			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "err=%v", err)
			assert.Contains(t, ve.Fields, tc.field)
			assert.Zero(t, e.runner.Runs)
			assert.True(t, d("10").Equal(e.store.Products[p1].Quantity))
		})
	}
}

func TestCreate_ThreeDecimalQuantityKeepsTotalInvariant(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	e.store.Products[p2].Price = d("1000.01")
	e.store.Products[p2].Quantity = d("5")

	out, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p1, "1.235"), line(p2, "1.235"), line(p1, "1.2000")),
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, it := range e.store.Items {
		sum = sum.Add(it.Quantity.Mul(it.PriceAtSale).Round(2))
	}
	assert.True(t, sum.Equal(out.TotalPrice), "Σ qty*price_at_sale=%s total=%s", sum, out.TotalPrice)
	// 1235 + round(1235.01235, 2) + 1200
	assert.True(t, d("3670.01").Equal(out.TotalPrice), "total=%s", out.TotalPrice)
	assert.True(t, d("7.565").Equal(e.store.Products[p1].Quantity))
}

func TestCreate_InvalidPaymentType(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: "crypto",
		Items:       cart(line(p1, "1")),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_ClientShopMismatchRejected(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		ShopID:      otherShop,
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p1, "1")),
	})
	assert.ErrorIs(t, err, domain.ErrScopeMismatch)
	assert.Zero(t, e.runner.Runs)
}

func TestCreate_MatchingClientShopAccepted(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		ShopID:      shopID,
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p1, "1")),
	})
	assert.NoError(t, err)
}

func TestCreate_UserWithoutShop(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	_, err := e.uc.Create(context.Background(), "", userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p1, "1")),
	})
	assert.ErrorIs(t, err, domain.ErrNoShop)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rollback completo
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_MissingProductRollsBackEverything(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p1, "2"), line(pMissing, "1")),
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Empty(t, e.store.Transactions)
	assert.Empty(t, e.store.Items)
	assert.Empty(t, e.store.Movements)
	assert.True(t, d("10").Equal(e.store.Products[p1].Quantity))
}

func TestCreate_ForeignProductRejected(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(pForeign, "1")),
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.True(t, d("100").Equal(e.store.Products[pForeign].Quantity))
}

func TestCreate_ItemInsertFailureRollsBack(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	e.store.FailCreateItem = memstore.ErrInjected()

	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p1, "2")),
	})
	assert.ErrorIs(t, err, memstore.ErrInjected())
	assert.Empty(t, e.store.Transactions)
	assert.Empty(t, e.store.Movements)
	assert.True(t, d("10").Equal(e.store.Products[p1].Quantity))
}

// ──────────────────────────────────────────────────────────────────────────────
// Política de faltante de stock
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_InsufficientStockRejectedByDefault(t *testing.T) {
	e := newEnv(t, sales.Policy{AllowNegativeStockAutofill: false})
	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p1, "1"), line(p2, "3")),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	var se *domain.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, p2, se.ProductID)
	assert.True(t, d("10").Equal(e.store.Products[p1].Quantity), "la primera línea también se revierte")
	assert.True(t, d("1").Equal(e.store.Products[p2].Quantity))
	assert.Empty(t, e.store.Transactions)
}

func TestCreate_AutofillTopsUpShortfall(t *testing.T) {
	e := newEnv(t, sales.Policy{AllowNegativeStockAutofill: true})
	out, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p2, "3")),
	})
	require.NoError(t, err)
	assert.True(t, e.store.Products[p2].Quantity.IsZero(), "nunca queda negativo")
	assert.True(t, d("9000").Equal(out.TotalPrice))

	movs := e.store.ProductMovements(p2)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeAdjust, movs[0].Type)
	assert.True(t, d("2").Equal(movs[0].Quantity))
	assert.Equal(t, "autofill:"+out.ID, movs[0].Reason)
	assert.Equal(t, entity.MovementTypeOut, movs[1].Type)
	assert.True(t, d("-3").Equal(movs[1].Quantity))
}

func TestCreate_RepeatedLinesShareLockedStock(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeCash,
		Items:       cart(line(p2, "1"), line(p2, "1")),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "la segunda línea ve el stock ya descontado")
	assert.True(t, d("1").Equal(e.store.Products[p2].Quantity))
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas a crédito
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_DebtRequiresDebtor(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeDebt,
		Items:       cart(line(p1, "1")),
		Debtor:      &dto.DebtorRequest{Phone: "998901112233"},
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "debtor.full_name")
	assert.Zero(t, e.runner.Runs)
	assert.Empty(t, e.store.Customers)
}

func TestCreate_DebtAccruesOnExistingCustomer(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	e.store.Customers["cust-1"] = &entity.Customer{ID: "cust-1", ShopID: shopID, Name: "Aziz", Phone: "998901112233", TotalDebt: d("500")}

	out, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeDebt,
		Items:       cart(line(p1, "2")),
		Debtor:      &dto.DebtorRequest{Phone: "998901112233", FullName: "Aziz"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cust-1", out.CustomerID)
	assert.Len(t, e.store.Customers, 1, "no se duplica el cliente")
	assert.True(t, d("2500").Equal(e.store.Customers["cust-1"].TotalDebt), "deuda previa + total_price")
}

func TestCreate_DebtCreatesCustomerPerShop(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	e.store.Customers["cust-x"] = &entity.Customer{ID: "cust-x", ShopID: otherShop, Name: "Aziz", Phone: "998901112233", TotalDebt: d("0")}

	out, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeDebt,
		Items:       cart(line(p1, "1")),
		Debtor:      &dto.DebtorRequest{Phone: "998901112233", FullName: "Aziz"},
	})
	require.NoError(t, err)
	require.NotEqual(t, "cust-x", out.CustomerID)
	c := e.store.Customers[out.CustomerID]
	require.NotNil(t, c)
	assert.Equal(t, shopID, c.ShopID)
	assert.True(t, d("1000").Equal(c.TotalDebt))
	assert.True(t, e.store.Customers["cust-x"].TotalDebt.IsZero())
}

func TestCreate_DebtNotAccruedWhenSaleFails(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	e.store.Customers["cust-1"] = &entity.Customer{ID: "cust-1", ShopID: shopID, Name: "Aziz", Phone: "998901112233", TotalDebt: d("500")}

	_, err := e.uc.Create(context.Background(), shopID, userID, dto.CreateTransactionRequest{
		PaymentType: entity.PaymentTypeDebt,
		Items:       cart(line(p2, "5")),
		Debtor:      &dto.DebtorRequest{Phone: "998901112233", FullName: "Aziz"},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, d("500").Equal(e.store.Customers["cust-1"].TotalDebt))
}
