package dto

import "github.com/shopspring/decimal"

// RegisterMovementRequest entrada para registrar un movimiento manual de stock.
// Para adjust, Quantity es un delta con signo.
type RegisterMovementRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Type      string          `json:"type" validate:"required,oneof=in out adjust"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason" validate:"omitempty,max=255"`
}

// MovementListRequest filtros del historial de movimientos.
type MovementListRequest struct {
	ShopID    string `query:"shop_id" validate:"omitempty,uuid"`
	ProductID string `query:"product_id" validate:"omitempty,uuid"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// StockMovementResponse fila del historial. Date con formato "YYYY-MM-DD HH:MM".
type StockMovementResponse struct {
	ID        string          `json:"id"`
	Date      string          `json:"date"`
	ProductID string          `json:"product_id"`
	Product   string          `json:"product"`
	Quantity  decimal.Decimal `json:"quantity"`
	Type      string          `json:"type"`
	Reason    string          `json:"reason"`
	User      string          `json:"user"`
	Shop      string          `json:"shop,omitempty"`
}

// StockLevelResponse resultado de un movimiento: cantidad en mano después de aplicarlo.
type StockLevelResponse struct {
	ProductID string                `json:"product_id"`
	Quantity  decimal.Decimal       `json:"quantity"`
	Movement  StockMovementResponse `json:"movement"`
}
