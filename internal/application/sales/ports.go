package sales

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback de todo (cabecera, líneas, stock y deuda).
type TxRunner interface {
	RunSales(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
		transactionRepo repository.TransactionRepository,
		customerRepo repository.CustomerRepository,
	) error) error
}

// ReceiptRenderer genera el recibo imprimible de una venta.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, shop *entity.Shop, tx *entity.Transaction) ([]byte, error)
}

// Policy políticas configurables del motor de ventas.
type Policy struct {
	// AllowNegativeStockAutofill: ante faltante, repone la diferencia con un movimiento adjust
	// en lugar de rechazar la venta con stock insuficiente.
	AllowNegativeStockAutofill bool
}
