package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TopUpRequest recarga de saldo del usuario de la sesión.
type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

// PaymentResponse un cobro de suscripción o recarga.
type PaymentResponse struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Status    string          `json:"status"`
	PaidUntil *time.Time      `json:"paid_until,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// TopUpResponse saldo resultante tras la recarga.
type TopUpResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	IsActive bool            `json:"is_active"`
	Payment  PaymentResponse `json:"payment"`
}

// BillingCycleResult resumen de una corrida del cobro periódico.
type BillingCycleResult struct {
	Charged      int `json:"charged"`
	Deactivated  int `json:"deactivated"`
	Chunks       int `json:"chunks"`
	FailedChunks int `json:"failed_chunks"`
}
