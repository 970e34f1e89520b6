package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItemRequest línea del carrito. Discount es un monto absoluto de la línea.
type CartItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"`
}

// DebtorRequest datos del deudor para ventas a crédito.
type DebtorRequest struct {
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
}

// CreateTransactionRequest entrada para registrar una venta.
// ShopID es opcional: si se envía debe coincidir con la tienda de la sesión.
type CreateTransactionRequest struct {
	ShopID      string            `json:"shop_id" validate:"omitempty,uuid"`
	PaymentType string            `json:"payment_type" validate:"required,oneof=cash card debt mixed"`
	Items       []CartItemRequest `json:"items" validate:"required,min=1,dive"`
	Debtor      *DebtorRequest    `json:"debtor"`
}

// TransactionItemResponse línea de venta.
type TransactionItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	PriceAtSale decimal.Decimal `json:"price_at_sale"`
	CostAtSale  decimal.Decimal `json:"cost_at_sale"`
	Discount    decimal.Decimal `json:"discount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// TransactionResponse venta con sus líneas.
type TransactionResponse struct {
	ID          string                    `json:"id"`
	ShopID      string                    `json:"shop_id,omitempty"`
	UserID      string                    `json:"user_id"`
	CustomerID  string                    `json:"customer_id,omitempty"`
	PaymentType string                    `json:"payment_type"`
	Status      string                    `json:"status"`
	TotalPrice  decimal.Decimal           `json:"total_price"`
	CostTotal   decimal.Decimal           `json:"cost_total"`
	Discount    decimal.Decimal           `json:"discount"`
	Profit      decimal.Decimal           `json:"profit"`
	ItemsCount  int                       `json:"items_count"`
	Items       []TransactionItemResponse `json:"items"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// TransactionListResponse historial paginado.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// CustomerResponse deudor de la tienda.
type CustomerResponse struct {
	ID        string          `json:"id"`
	ShopID    string          `json:"shop_id"`
	FullName  string          `json:"full_name"`
	Phone     string          `json:"phone"`
	TotalDebt decimal.Decimal `json:"total_debt"`
	CreatedAt time.Time       `json:"created_at"`
}
