package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateShopRequest entrada para crear una tienda.
type CreateShopRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Location string `json:"location" validate:"omitempty,max=255"`
}

// ShopResponse salida de una tienda.
type ShopResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCategoryRequest / UpdateCategoryRequest entrada de categorías.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type UpdateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shop_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUnitRequest entrada para crear una unidad de medida.
type CreateUnitRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

// UnitResponse salida de una unidad.
type UnitResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateProductRequest entrada para crear un producto.
// InitialQuantity > 0 registra un movimiento de entrada.
type CreateProductRequest struct {
	Name            string          `json:"name" validate:"required,min=1,max=200"`
	Description     string          `json:"description" validate:"omitempty,max=2000"`
	Price           decimal.Decimal `json:"price" validate:"gte=0"`
	CostPrice       decimal.Decimal `json:"cost_price" validate:"gte=0"`
	UnitID          string          `json:"unit_id" validate:"omitempty,uuid"`
	CategoryID      string          `json:"category_id" validate:"omitempty,uuid"`
	Barcode         string          `json:"barcode" validate:"omitempty,max=64"`
	ImageURL        string          `json:"image_url" validate:"omitempty,url"`
	InitialQuantity decimal.Decimal `json:"initial_quantity" validate:"gte=0"`
}

// UpdateProductRequest entrada para actualizar un producto (sin cantidad: el stock cambia solo por movimientos).
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	UnitID      *string          `json:"unit_id" validate:"omitempty,uuid"`
	CategoryID  *string          `json:"category_id" validate:"omitempty,uuid"`
	Barcode     *string          `json:"barcode" validate:"omitempty,max=64"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,url"`
	IsActive    *bool            `json:"is_active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	ShopID      string          `json:"shop_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	UnitID      string          `json:"unit_id,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	Barcode     string          `json:"barcode,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	IsActive    bool            `json:"is_active"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ProductSearchItem resultado compacto de la búsqueda por nombre.
type ProductSearchItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}
