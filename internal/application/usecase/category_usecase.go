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

// CategoryUseCase casos de uso CRUD para categorías de la tienda.
type CategoryUseCase struct {
	repo repository.CategoryRepository
}

// NewCategoryUseCase construye el caso de uso.
func NewCategoryUseCase(repo repository.CategoryRepository) *CategoryUseCase {
	return &CategoryUseCase{repo: repo}
}

// Create crea una categoría en la tienda de la sesión.
func (uc *CategoryUseCase) Create(ctx context.Context, shopID string, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	if shopID == "" {
		return nil, domain.ErrNoShop
	}
	c := &entity.Category{
		ID:        uuid.New().String(),
		ShopID:    shopID,
		Name:      strings.TrimSpace(in.Name),
		CreatedAt: time.Now(),
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return toCategoryResponse(c), nil
}

// GetByID obtiene una categoría de la tienda de la sesión.
func (uc *CategoryUseCase) GetByID(ctx context.Context, shopID, id string) (*dto.CategoryResponse, error) {
	c, err := uc.load(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	return toCategoryResponse(c), nil
}

// List lista las categorías de la tienda.
func (uc *CategoryUseCase) List(ctx context.Context, shopID string) ([]dto.CategoryResponse, error) {
	if shopID == "" {
		return []dto.CategoryResponse{}, nil
	}
	list, err := uc.repo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toCategoryResponse(c))
	}
	return out, nil
}

// Update renombra una categoría.
func (uc *CategoryUseCase) Update(ctx context.Context, shopID, id string, in dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	c, err := uc.load(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(in.Name)
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toCategoryResponse(c), nil
}

func (uc *CategoryUseCase) load(ctx context.Context, shopID, id string) (*entity.Category, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || shopID == "" || c.ShopID != shopID {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func toCategoryResponse(c *entity.Category) *dto.CategoryResponse {
	return &dto.CategoryResponse{ID: c.ID, ShopID: c.ShopID, Name: c.Name, CreatedAt: c.CreatedAt}
}

// UnitUseCase catálogo global de unidades de medida.
type UnitUseCase struct {
	repo repository.UnitRepository
}

// NewUnitUseCase construye el caso de uso.
func NewUnitUseCase(repo repository.UnitRepository) *UnitUseCase {
	return &UnitUseCase{repo: repo}
}

// Create crea una unidad. El nombre es único (domain.ErrDuplicate).
func (uc *UnitUseCase) Create(ctx context.Context, in dto.CreateUnitRequest) (*dto.UnitResponse, error) {
	u := &entity.Unit{ID: uuid.New().String(), Name: strings.TrimSpace(in.Name)}
	if err := uc.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return &dto.UnitResponse{ID: u.ID, Name: u.Name}, nil
}

// List lista todas las unidades.
func (uc *UnitUseCase) List(ctx context.Context) ([]dto.UnitResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UnitResponse, 0, len(list))
	for _, u := range list {
		out = append(out, dto.UnitResponse{ID: u.ID, Name: u.Name})
	}
	return out, nil
}
