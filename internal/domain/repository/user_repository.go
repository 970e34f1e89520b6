package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Los métodos Get* devuelven (nil, nil) si no existe.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByPhone(ctx context.Context, phone string) (*entity.User, error)
	InvoiceCodeExists(ctx context.Context, code string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	AttachShop(ctx context.Context, id, shopID string) error

	// GetForUpdate bloquea la fila del usuario (SELECT ... FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.User, error)
	// ListDueForUpdate devuelve hasta limit usuarios activos con id > afterID cuyo período pagado
	// terminó antes de now (o nunca se cobró), ordenados por id y con sus filas bloqueadas.
	ListDueForUpdate(ctx context.Context, afterID string, now time.Time, limit int) ([]*entity.User, error)
	// ChargeSubscription fija el saldo tras el cobro y extiende paid_until.
	ChargeSubscription(ctx context.Context, id string, balance decimal.Decimal, paidUntil time.Time) error
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
	SetActive(ctx context.Context, id string, active bool) error
}
