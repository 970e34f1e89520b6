package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/inventory"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

const defaultSearchLimit = 20

// ProductUseCase casos de uso CRUD para productos. La cantidad solo cambia vía movimientos:
// la inicial se registra como entrada en la misma tx de la creación.
type ProductUseCase struct {
	txRunner     inventory.TxRunner
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	unitRepo     repository.UnitRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	txRunner inventory.TxRunner,
	repo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	unitRepo repository.UnitRepository,
) *ProductUseCase {
	return &ProductUseCase{txRunner: txRunner, repo: repo, categoryRepo: categoryRepo, unitRepo: unitRepo}
}

// Create crea un producto en la tienda de la sesión. Devuelve domain.ErrDuplicate si el código de barras ya existe.
func (uc *ProductUseCase) Create(ctx context.Context, shopID, userID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if shopID == "" {
		return nil, domain.ErrNoShop
	}
	ve := &domain.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		ve.Add("name", "campo obligatorio")
	}
	checkNonNegative(ve, "price", in.Price)
	checkNonNegative(ve, "cost_price", in.CostPrice)
	checkNonNegative(ve, "initial_quantity", in.InitialQuantity)
	if ve.HasErrors() {
		return nil, ve
	}
	barcode := strings.TrimSpace(in.Barcode)
	if err := uc.checkBarcode(ctx, barcode, ""); err != nil {
		return nil, err
	}
	if err := uc.checkRefs(ctx, shopID, in.CategoryID, in.UnitID); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		ShopID:      shopID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		CostPrice:   in.CostPrice,
		UnitID:      in.UnitID,
		CategoryID:  in.CategoryID,
		Barcode:     barcode,
		ImageURL:    in.ImageURL,
		Quantity:    in.InitialQuantity,
		IsActive:    true,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := uc.txRunner.RunStock(ctx, func(productRepo repository.ProductRepository, movementRepo repository.StockMovementRepository) error {
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		return inventory.RecordInitial(ctx, movementRepo, product, userID, now)
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto de la tienda de la sesión.
func (uc *ProductUseCase) GetByID(ctx context.Context, shopID, id string) (*dto.ProductResponse, error) {
	p, err := uc.load(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(p), nil
}

// GetByBarcode busca por código de barras dentro de la tienda de la sesión.
func (uc *ProductUseCase) GetByBarcode(ctx context.Context, shopID, barcode string) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByBarcode(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return nil, err
	}
	if p == nil || shopID == "" || p.ShopID != shopID {
		return nil, domain.ErrProductNotFound
	}
	return toProductResponse(p), nil
}

// Update actualiza un producto. No permite modificar la cantidad (se maneja vía movimientos).
func (uc *ProductUseCase) Update(ctx context.Context, shopID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.load(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	ve := &domain.ValidationError{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			ve.Add("name", "no puede estar vacío")
		}
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		checkNonNegative(ve, "price", *in.Price)
		product.Price = *in.Price
	}
	if in.CostPrice != nil {
		checkNonNegative(ve, "cost_price", *in.CostPrice)
		product.CostPrice = *in.CostPrice
	}
	if ve.HasErrors() {
		return nil, ve
	}
	if in.Barcode != nil {
		barcode := strings.TrimSpace(*in.Barcode)
		if err := uc.checkBarcode(ctx, barcode, product.ID); err != nil {
			return nil, err
		}
		product.Barcode = barcode
	}
	if in.CategoryID != nil || in.UnitID != nil {
		var categoryID, unitID string
		if in.CategoryID != nil {
			categoryID = *in.CategoryID
			product.CategoryID = categoryID
		}
		if in.UnitID != nil {
			unitID = *in.UnitID
			product.UnitID = unitID
		}
		if err := uc.checkRefs(ctx, shopID, categoryID, unitID); err != nil {
			return nil, err
		}
	}
	if in.ImageURL != nil {
		product.ImageURL = *in.ImageURL
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos de la tienda con paginación.
func (uc *ProductUseCase) List(ctx context.Context, shopID string, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	resp := &dto.ProductListResponse{
		Items: []dto.ProductResponse{},
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	if shopID == "" {
		return resp, nil
	}
	list, err := uc.repo.ListByShop(ctx, shopID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		resp.Items = append(resp.Items, *toProductResponse(p))
	}
	return resp, nil
}

// Search busca por nombre sin distinguir mayúsculas dentro de la tienda.
func (uc *ProductUseCase) Search(ctx context.Context, shopID, query string, limit int) ([]dto.ProductSearchItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("q", "campo obligatorio")
	}
	if shopID == "" {
		return []dto.ProductSearchItem{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = defaultSearchLimit
	}
	list, err := uc.repo.SearchByName(ctx, shopID, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductSearchItem, 0, len(list))
	for _, p := range list {
		out = append(out, dto.ProductSearchItem{ID: p.ID, Name: p.Name, Price: p.Price})
	}
	return out, nil
}

// Delete elimina un producto de la tienda de la sesión.
func (uc *ProductUseCase) Delete(ctx context.Context, shopID, id string) error {
	if _, err := uc.load(ctx, shopID, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *ProductUseCase) load(ctx context.Context, shopID, id string) (*entity.Product, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || shopID == "" || p.ShopID != shopID {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

// checkBarcode rechaza un código de barras ya usado por otro producto (el índice es global).
func (uc *ProductUseCase) checkBarcode(ctx context.Context, barcode, selfID string) error {
	if barcode == "" {
		return nil
	}
	existing, err := uc.repo.GetByBarcode(ctx, barcode)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return domain.ErrDuplicate
	}
	return nil
}

// checkRefs verifica que la categoría sea de la tienda y que la unidad exista.
func (uc *ProductUseCase) checkRefs(ctx context.Context, shopID, categoryID, unitID string) error {
	if categoryID != "" {
		c, err := uc.categoryRepo.GetByID(ctx, categoryID)
		if err != nil {
			return err
		}
		if c == nil || c.ShopID != shopID {
			return domain.NewValidationError("category_id", "la categoría no existe en la tienda")
		}
	}
	if unitID != "" {
		u, err := uc.unitRepo.GetByID(ctx, unitID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.NewValidationError("unit_id", "la unidad no existe")
		}
	}
	return nil
}

func checkNonNegative(ve *domain.ValidationError, field string, v decimal.Decimal) {
	if v.IsNegative() {
		ve.Add(field, "no puede ser negativo")
	}
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		ShopID:      p.ShopID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CostPrice:   p.CostPrice,
		UnitID:      p.UnitID,
		CategoryID:  p.CategoryID,
		Barcode:     p.Barcode,
		ImageURL:    p.ImageURL,
		Quantity:    p.Quantity,
		IsActive:    p.IsActive,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
