package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un artículo vendible de una tienda.
// Quantity es la fuente de verdad del stock disponible; solo cambia dentro de una transacción
// de base de datos con la fila bloqueada.
type Product struct {
	ID          string
	ShopID      string
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta
	CostPrice   decimal.Decimal // costo de compra
	UnitID      string          // vacío si no aplica
	CategoryID  string          // vacío si no aplica
	Barcode     string          // único global; vacío si no tiene
	ImageURL    string
	Quantity    decimal.Decimal
	IsActive    bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
