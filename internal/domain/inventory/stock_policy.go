package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// ApplyMovement calcula la nueva cantidad en mano para un movimiento manual (servicio de dominio).
// in suma qty, out resta qty, adjust aplica qty con signo. Devuelve el delta con signo a registrar.
// Nunca deja el stock en negativo.
func ApplyMovement(onHand decimal.Decimal, movementType string, qty decimal.Decimal) (newQty, delta decimal.Decimal, err error) {
	switch movementType {
	case entity.MovementTypeIn:
		if !qty.IsPositive() {
			return onHand, decimal.Zero, domain.NewValidationError("quantity", "debe ser mayor que cero")
		}
		delta = qty
	case entity.MovementTypeOut:
		if !qty.IsPositive() {
			return onHand, decimal.Zero, domain.NewValidationError("quantity", "debe ser mayor que cero")
		}
		delta = qty.Neg()
	case entity.MovementTypeAdjust:
		if qty.IsZero() {
			return onHand, decimal.Zero, domain.NewValidationError("quantity", "el ajuste no puede ser cero")
		}
		delta = qty
	default:
		return onHand, decimal.Zero, domain.NewValidationError("type", "debe ser in, out o adjust")
	}

	newQty = onHand.Add(delta)
	if newQty.IsNegative() {
		return onHand, decimal.Zero, domain.ErrInsufficientStock
	}
	return newQty, delta, nil
}

// Shortfall devuelve cuánto falta en mano para cubrir requested (cero si alcanza).
func Shortfall(onHand, requested decimal.Decimal) decimal.Decimal {
	if onHand.GreaterThanOrEqual(requested) {
		return decimal.Zero
	}
	return requested.Sub(onHand)
}
