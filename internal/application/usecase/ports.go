package usecase

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// ShopTxRunner crea la tienda y la asocia al usuario en una sola transacción.
type ShopTxRunner interface {
	RunShop(ctx context.Context, fn func(
		shopRepo repository.ShopRepository,
		userRepo repository.UserRepository,
	) error) error
}
