package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// ShopUseCase aplica reglas de negocio para tiendas (casos de uso).
type ShopUseCase struct {
	txRunner ShopTxRunner
	repo     repository.ShopRepository
}

// NewShopUseCase construye el caso de uso con el puerto de persistencia.
func NewShopUseCase(txRunner ShopTxRunner, repo repository.ShopRepository) *ShopUseCase {
	return &ShopUseCase{txRunner: txRunner, repo: repo}
}

// Create crea una tienda cuyo dueño es el usuario de la sesión. El usuario queda con is_shop=true
// y la nueva tienda como tienda activa de su sesión.
func (uc *ShopUseCase) Create(ctx context.Context, ownerID string, in dto.CreateShopRequest) (*dto.ShopResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "campo obligatorio")
	}
	now := time.Now()
	shop := &entity.Shop{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      name,
		Location:  strings.TrimSpace(in.Location),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.txRunner.RunShop(ctx, func(shopRepo repository.ShopRepository, userRepo repository.UserRepository) error {
		owner, err := userRepo.GetForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		if owner == nil {
			return domain.ErrUserNotFound
		}
		if err := shopRepo.Create(ctx, shop); err != nil {
			return err
		}
		return userRepo.AttachShop(ctx, ownerID, shop.ID)
	})
	if err != nil {
		return nil, err
	}
	return toShopResponse(shop), nil
}

// ListMine lista las tiendas del usuario.
func (uc *ShopUseCase) ListMine(ctx context.Context, ownerID string) ([]dto.ShopResponse, error) {
	list, err := uc.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ShopResponse, 0, len(list))
	for _, s := range list {
		out = append(out, *toShopResponse(s))
	}
	return out, nil
}

func toShopResponse(s *entity.Shop) *dto.ShopResponse {
	return &dto.ShopResponse{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		Name:      s.Name,
		Location:  s.Location,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
	}
}
