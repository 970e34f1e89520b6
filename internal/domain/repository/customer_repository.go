package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer (deudores por tienda).
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	GetByPhone(ctx context.Context, shopID, phone string) (*entity.Customer, error)
	ListByShop(ctx context.Context, shopID string, limit, offset int) ([]*entity.Customer, error)
	// AddDebt suma delta (puede ser negativo) a total_debt de forma atómica en la fila.
	AddDebt(ctx context.Context, id string, delta decimal.Decimal) error
}
