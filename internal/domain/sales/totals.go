package sales

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// Escalas de las columnas NUMERIC: cantidades con 3 decimales, dinero con 2.
const (
	QuantityScale = 3
	MoneyScale    = 2
)

// Totals acumula los montos de una venta línea por línea.
//
//	Total    = Σ round(price*qty, 2) (bruto, antes de descuentos)
//	Cost     = Σ cost*qty
//	Discount = Σ descuento de línea
//	Profit   = Σ (price-cost)*qty - Discount
type Totals struct {
	Total    decimal.Decimal
	Cost     decimal.Decimal
	Discount decimal.Decimal
	Profit   decimal.Decimal
}

// Add incorpora una línea con precio y costo ya congelados.
func (t *Totals) Add(item entity.TransactionItem) {
	gross := LineAmount(item.PriceAtSale, item.Quantity)
	cost := LineAmount(item.CostAtSale, item.Quantity)
	t.Total = t.Total.Add(gross)
	t.Cost = t.Cost.Add(cost)
	t.Discount = t.Discount.Add(item.Discount)
	t.Profit = t.Profit.Add(gross.Sub(cost)).Sub(item.Discount)
}

// AmountDue es lo que paga el cliente: Total - Discount. Es el monto que se acumula como deuda.
func (t Totals) AmountDue() decimal.Decimal {
	return t.Total.Sub(t.Discount)
}

// Apply copia los totales a la cabecera.
func (t Totals) Apply(tx *entity.Transaction) {
	tx.TotalPrice = t.Total
	tx.CostTotal = t.Cost
	tx.Discount = t.Discount
	tx.Profit = t.Profit
}

// LineAmount es price*qty redondeado a la escala de dinero, igual que lo guarda la base.
func LineAmount(price, qty decimal.Decimal) decimal.Decimal {
	return price.Mul(qty).Round(MoneyScale)
}

// ExceedsScale indica si v tiene más decimales significativos que scale.
func ExceedsScale(v decimal.Decimal, scale int32) bool {
	return !v.Equal(v.Truncate(scale))
}

// ValidDiscount indica si el descuento de una línea está en [0, price*qty].
func ValidDiscount(discount, price, qty decimal.Decimal) bool {
	return !discount.IsNegative() && discount.LessThanOrEqual(LineAmount(price, qty))
}
