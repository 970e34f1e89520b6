package sales_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/sales"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTotals_SingleLineNoDiscount(t *testing.T) {
	var tot sales.Totals
	tot.Add(entity.TransactionItem{Quantity: d("2"), PriceAtSale: d("1000"), CostAtSale: d("600")})

	assert.True(t, d("2000").Equal(tot.Total))
	assert.True(t, d("1200").Equal(tot.Cost))
	assert.True(t, d("800").Equal(tot.Profit))
	assert.True(t, tot.Discount.IsZero())
	assert.True(t, d("2000").Equal(tot.AmountDue()))
}

func TestTotals_MultipleLinesWithDiscount(t *testing.T) {
	var tot sales.Totals
	tot.Add(entity.TransactionItem{Quantity: d("2"), PriceAtSale: d("1000"), CostAtSale: d("600"), Discount: d("100")})
	tot.Add(entity.TransactionItem{Quantity: d("0.5"), PriceAtSale: d("3000"), CostAtSale: d("2000")})

	assert.True(t, d("3500").Equal(tot.Total))
	assert.True(t, d("2200").Equal(tot.Cost))
	assert.True(t, d("100").Equal(tot.Discount))
	// (2000-1200) + (1500-1000) - 100
	assert.True(t, d("1200").Equal(tot.Profit))
	assert.True(t, d("3400").Equal(tot.AmountDue()))

	var tx entity.Transaction
	tot.Apply(&tx)
	assert.True(t, tx.TotalPrice.Equal(tot.Total))
	assert.True(t, tx.Profit.Equal(tot.Profit))
}

func TestValidDiscount(t *testing.T) {
	assert.True(t, sales.ValidDiscount(d("0"), d("10"), d("2")))
	assert.True(t, sales.ValidDiscount(d("20"), d("10"), d("2")))
	assert.False(t, sales.ValidDiscount(d("20.01"), d("10"), d("2")))
	assert.False(t, sales.ValidDiscount(d("-1"), d("10"), d("2")))
}

func TestTotals_LineAmountsRoundToCents(t *testing.T) {
	var tot sales.Totals
	tot.Add(entity.TransactionItem{Quantity: d("1.235"), PriceAtSale: d("1000.01"), CostAtSale: d("0.33")})

	assert.True(t, d("1235.01").Equal(tot.Total), "total=%s", tot.Total)
	assert.True(t, d("0.41").Equal(tot.Cost), "cost=%s", tot.Cost)
	assert.True(t, d("1234.6").Equal(tot.Profit))
}

func TestExceedsScale(t *testing.T) {
	assert.False(t, sales.ExceedsScale(d("1.235"), sales.QuantityScale))
	assert.False(t, sales.ExceedsScale(d("1.2000"), sales.QuantityScale))
	assert.True(t, sales.ExceedsScale(d("1.2345"), sales.QuantityScale))
	assert.True(t, sales.ExceedsScale(d("0.0001"), sales.QuantityScale))
	assert.True(t, sales.ExceedsScale(d("0.005"), sales.MoneyScale))
}
