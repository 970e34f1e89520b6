package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados y medios de un cobro de suscripción.
const (
	PaymentStatusPaid   = "paid"
	PaymentStatusFailed = "failed"

	PaymentMethodBalance = "balance"
	PaymentMethodTopUp   = "topup"
)

// Payment registro de un cobro periódico (o de una recarga) sobre el saldo del usuario.
type Payment struct {
	ID        string
	UserID    string
	Amount    decimal.Decimal
	Method    string
	Status    string
	PaidUntil *time.Time // nil en cobros fallidos y recargas
	CreatedAt time.Time
}
