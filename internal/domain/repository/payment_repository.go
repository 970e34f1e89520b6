package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// PaymentRepository guarda el historial de cobros de suscripción y recargas.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Payment, error)
}
