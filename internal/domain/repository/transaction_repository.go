package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// TransactionRepository define el puerto de persistencia para ventas y sus líneas.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	CreateItem(ctx context.Context, item *entity.TransactionItem) error
	// UpdateTotals rellena total_price, cost_total, discount y profit de la cabecera.
	UpdateTotals(ctx context.Context, tx *entity.Transaction) error
	UpdateStatus(ctx context.Context, id, status string) error
	// GetByID devuelve la venta con sus líneas.
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	// GetForUpdate bloquea la cabecera (sin cargar líneas).
	GetForUpdate(ctx context.Context, id string) (*entity.Transaction, error)
	ListItems(ctx context.Context, transactionID string) ([]entity.TransactionItem, error)
	// ListByUser devuelve las ventas del usuario más recientes primero, con sus líneas.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, error)
}
