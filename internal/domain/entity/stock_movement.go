package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeIn     = "in"     // entrada
	MovementTypeOut    = "out"    // salida
	MovementTypeAdjust = "adjust" // ajuste (delta con signo)
)

// ValidMovementType indica si t es un tipo de movimiento conocido.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjust:
		return true
	}
	return false
}

// StockMovement es un registro de auditoría inmutable de un cambio de Product.Quantity.
// Quantity es el delta con signo aplicado: positivo para in, negativo para out.
type StockMovement struct {
	ID        string
	ProductID string
	ShopID    string
	UserID    string
	Type      string
	Quantity  decimal.Decimal
	Reason    string // sale:<id>, refund:<id>, autofill:<id>, texto libre
	CreatedAt time.Time
}

// StockMovementView es la fila enriquecida que se devuelve al listar el historial.
type StockMovementView struct {
	StockMovement
	ProductName string
	UserName    string
	ShopName    string
}
