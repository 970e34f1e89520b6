package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// MovementFilter acota el listado de movimientos. ShopID o UserID define el ámbito.
type MovementFilter struct {
	ShopID    string
	UserID    string // se usa solo si ShopID está vacío
	ProductID string
	Limit     int
}

// StockMovementRepository es el log de auditoría de stock: solo inserta y lista.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovementView, error)
}
