package billing

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción que incluye usuarios y pagos.
// Cada bloque del cobro periódico corre en su propia transacción.
type TxRunner interface {
	RunBilling(ctx context.Context, fn func(
		userRepo repository.UserRepository,
		paymentRepo repository.PaymentRepository,
	) error) error
}
