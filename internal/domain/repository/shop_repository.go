package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// ShopRepository define el puerto de persistencia para Shop.
type ShopRepository interface {
	Create(ctx context.Context, shop *entity.Shop) error
	GetByID(ctx context.Context, id string) (*entity.Shop, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Shop, error)
}
