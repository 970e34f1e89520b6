package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medios de pago de una venta.
const (
	PaymentTypeCash  = "cash"
	PaymentTypeCard  = "card"
	PaymentTypeDebt  = "debt"
	PaymentTypeMixed = "mixed"
)

// Estados de una venta.
const (
	TransactionStatusCompleted = "completed"
	TransactionStatusRefunded  = "refunded"
	TransactionStatusCancelled = "cancelled"
)

// ValidPaymentType indica si t es un medio de pago aceptado.
func ValidPaymentType(t string) bool {
	switch t {
	case PaymentTypeCash, PaymentTypeCard, PaymentTypeDebt, PaymentTypeMixed:
		return true
	}
	return false
}

// Transaction cabecera de una venta. Los totales se rellenan después de insertar las líneas,
// dentro de la misma transacción de base de datos.
type Transaction struct {
	ID          string
	ShopID      string
	UserID      string
	CustomerID  string // solo para ventas a crédito
	PaymentType string
	Status      string
	TotalPrice  decimal.Decimal
	CostTotal   decimal.Decimal
	Discount    decimal.Decimal
	Profit      decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []TransactionItem
}

// TransactionItem línea de venta con precio y costo congelados al momento de vender.
type TransactionItem struct {
	ID            string
	TransactionID string
	ProductID     string
	ProductName   string // solo lectura, para listados y recibos
	Quantity      decimal.Decimal
	PriceAtSale   decimal.Decimal
	CostAtSale    decimal.Decimal
	Discount      decimal.Decimal // monto absoluto de la línea
}

// LineTotal devuelve price*qty (a 2 decimales) - discount.
func (i TransactionItem) LineTotal() decimal.Decimal {
	return i.PriceAtSale.Mul(i.Quantity).Round(2).Sub(i.Discount)
}
