package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Roles válidos para User.
const (
	RoleOwner  = "owner"
	RoleSeller = "seller"
)

// User representa una cuenta identificada por teléfono.
// IsActive pasa a false cuando el cobro de la suscripción falla por saldo insuficiente.
type User struct {
	ID           string
	Phone        string
	FullName     string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Role         string
	IsActive     bool
	IsShop       bool
	ShopID       string // vacío si aún no creó tienda
	Balance      decimal.Decimal
	InvoiceCode  string     // 6 dígitos, único; referencia para recargas de saldo
	PaidUntil    *time.Time // fin del período de suscripción pagado; nil si nunca se cobró
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasShop indica si la sesión del usuario opera en ámbito de tienda.
func (u *User) HasShop() bool {
	return u.IsShop && u.ShopID != ""
}
