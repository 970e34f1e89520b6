package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer deudor de una tienda, identificado por (Phone, ShopID).
// TotalDebt solo aumenta con ventas a crédito y se revierte con su devolución.
type Customer struct {
	ID        string
	ShopID    string
	Name      string
	Phone     string
	TotalDebt decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
