package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/inventory"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	domainsales "github.com/jhoicas/pos-api/internal/domain/sales"
)

// TransactionUseCase registra ventas y consulta su historial.
// Toda venta se escribe en una sola transacción de BD con las filas de producto bloqueadas.
type TransactionUseCase struct {
	txRunner     TxRunner
	txRepo       repository.TransactionRepository
	customerRepo repository.CustomerRepository
	shopRepo     repository.ShopRepository
	renderer     ReceiptRenderer
	policy       Policy
	log          zerolog.Logger
	now          func() time.Time
}

// NewTransactionUseCase construye el caso de uso.
func NewTransactionUseCase(
	txRunner TxRunner,
	txRepo repository.TransactionRepository,
	customerRepo repository.CustomerRepository,
	shopRepo repository.ShopRepository,
	renderer ReceiptRenderer,
	policy Policy,
	log zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		txRunner:     txRunner,
		txRepo:       txRepo,
		customerRepo: customerRepo,
		shopRepo:     shopRepo,
		renderer:     renderer,
		policy:       policy,
		log:          log,
		now:          time.Now,
	}
}

// Create valida el carrito y registra la venta.
//
// El ámbito (tienda y usuario) sale de la sesión; si el cliente envía shop_id distinto se rechaza.
// Para ventas a crédito el deudor se obtiene o crea por (teléfono, tienda) antes de abrir la tx.
// Dentro de la tx: cabecera con totales en cero, bloqueo de productos en orden de ID, descuento de
// stock (o reposición según la política), líneas con precio y costo congelados, totales y deuda.
func (uc *TransactionUseCase) Create(ctx context.Context, shopID, userID string, in dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "el carrito está vacío")
	}
	if in.ShopID != "" && in.ShopID != shopID {
		return nil, domain.ErrScopeMismatch
	}
	if shopID == "" {
		return nil, domain.ErrNoShop
	}
	if err := validateCart(in); err != nil {
		return nil, err
	}

	var customer *entity.Customer
	if in.PaymentType == entity.PaymentTypeDebt {
		c, err := uc.getOrCreateDebtor(ctx, shopID, in.Debtor)
		if err != nil {
			return nil, err
		}
		customer = c
	}

	now := uc.now()
	header := &entity.Transaction{
		ID:          uuid.New().String(),
		ShopID:      shopID,
		UserID:      userID,
		PaymentType: in.PaymentType,
		Status:      entity.TransactionStatusCompleted,
		TotalPrice:  decimal.Zero,
		CostTotal:   decimal.Zero,
		Discount:    decimal.Zero,
		Profit:      decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if customer != nil {
		header.CustomerID = customer.ID
	}

	err := uc.txRunner.RunSales(ctx, func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
		transactionRepo repository.TransactionRepository,
		customerRepo repository.CustomerRepository,
	) error {
		if err := transactionRepo.Create(ctx, header); err != nil {
			return err
		}

		products, err := lockProducts(ctx, productRepo, cartProductIDs(in.Items))
		if err != nil {
			return err
		}

		var totals domainsales.Totals
		items := make([]entity.TransactionItem, 0, len(in.Items))
		for i, line := range in.Items {
			product := products[line.ProductID]
			if product.ShopID != shopID {
				return domain.ErrProductNotFound
			}
			if !product.IsActive {
				return domain.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "producto inactivo")
			}
			if !domainsales.ValidDiscount(line.Discount, product.Price, line.Quantity) {
				return domain.NewValidationError(fmt.Sprintf("items[%d].discount", i), "el descuento supera el importe de la línea")
			}

			if err := uc.takeStock(ctx, productRepo, movementRepo, product, line.Quantity, header, now); err != nil {
				return err
			}

			item := entity.TransactionItem{
				ID:            uuid.New().String(),
				TransactionID: header.ID,
				ProductID:     product.ID,
				ProductName:   product.Name,
				Quantity:      line.Quantity,
				PriceAtSale:   product.Price,
				CostAtSale:    product.CostPrice,
				Discount:      line.Discount,
			}
			if err := transactionRepo.CreateItem(ctx, &item); err != nil {
				return err
			}
			totals.Add(item)
			items = append(items, item)
		}

		totals.Apply(header)
		header.Items = items
		if err := transactionRepo.UpdateTotals(ctx, header); err != nil {
			return err
		}

		if customer != nil {
			if err := customerRepo.AddDebt(ctx, customer.ID, totals.AmountDue()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("transaction_id", header.ID).
		Str("shop_id", shopID).
		Str("payment_type", header.PaymentType).
		Str("total", header.TotalPrice.String()).
		Int("items", len(header.Items)).
		Msg("venta registrada")

	out := toTransactionResponse(header)
	return &out, nil
}

// takeStock descuenta qty del producto bloqueado. Si falta stock y la política lo permite,
// primero repone el faltante con un movimiento adjust.
func (uc *TransactionUseCase) takeStock(
	ctx context.Context,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	product *entity.Product,
	qty decimal.Decimal,
	header *entity.Transaction,
	now time.Time,
) error {
	shortfall := inventory.Shortfall(product.Quantity, qty)
	if shortfall.IsPositive() {
		if !uc.policy.AllowNegativeStockAutofill {
			return &domain.StockError{ProductID: product.ID, Available: product.Quantity.String(), Requested: qty.String()}
		}
		product.Quantity = product.Quantity.Add(shortfall)
		if err := movementRepo.Create(ctx, &entity.StockMovement{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			ShopID:    header.ShopID,
			UserID:    header.UserID,
			Type:      entity.MovementTypeAdjust,
			Quantity:  shortfall,
			Reason:    "autofill:" + header.ID,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		uc.log.Warn().
			Str("product_id", product.ID).
			Str("shortfall", shortfall.String()).
			Msg("stock repuesto automáticamente para cubrir la venta")
	}

	product.Quantity = product.Quantity.Sub(qty)
	if err := productRepo.UpdateQuantity(ctx, product.ID, product.Quantity); err != nil {
		return err
	}
	return movementRepo.Create(ctx, &entity.StockMovement{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		ShopID:    header.ShopID,
		UserID:    header.UserID,
		Type:      entity.MovementTypeOut,
		Quantity:  qty.Neg(),
		Reason:    "sale:" + header.ID,
		CreatedAt: now,
	})
}

// getOrCreateDebtor busca el cliente por (teléfono, tienda) o lo crea.
// Si otra petición lo crea en paralelo, se relee tras el ErrDuplicate.
func (uc *TransactionUseCase) getOrCreateDebtor(ctx context.Context, shopID string, debtor *dto.DebtorRequest) (*entity.Customer, error) {
	ve := &domain.ValidationError{}
	if debtor == nil || strings.TrimSpace(debtor.Phone) == "" {
		ve.Add("debtor.phone", "obligatorio para ventas a crédito")
	}
	if debtor == nil || strings.TrimSpace(debtor.FullName) == "" {
		ve.Add("debtor.full_name", "obligatorio para ventas a crédito")
	}
	if ve.HasErrors() {
		return nil, ve
	}
	phone := strings.TrimSpace(debtor.Phone)

	c, err := uc.customerRepo.GetByPhone(ctx, shopID, phone)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	now := uc.now()
	c = &entity.Customer{
		ID:        uuid.New().String(),
		ShopID:    shopID,
		Name:      strings.TrimSpace(debtor.FullName),
		Phone:     phone,
		TotalDebt: decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.customerRepo.Create(ctx, c); err != nil {
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, err
		}
		c, err = uc.customerRepo.GetByPhone(ctx, shopID, phone)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, domain.ErrConflict
		}
	}
	return c, nil
}

// validateCart rechaza antes de cualquier escritura: medio de pago, cantidades y descuentos.
func validateCart(in dto.CreateTransactionRequest) error {
	ve := &domain.ValidationError{}
	if !entity.ValidPaymentType(in.PaymentType) {
		ve.Add("payment_type", "debe ser cash, card, debt o mixed")
	}
	for i, line := range in.Items {
		if line.ProductID == "" {
			ve.Add(fmt.Sprintf("items[%d].product_id", i), "campo obligatorio")
		}
		switch {
		case !line.Quantity.IsPositive():
			ve.Add(fmt.Sprintf("items[%d].quantity", i), "debe ser mayor que cero")
		case domainsales.ExceedsScale(line.Quantity, domainsales.QuantityScale):
			ve.Add(fmt.Sprintf("items[%d].quantity", i), "máximo 3 decimales")
		}
		switch {
		case line.Discount.IsNegative():
			ve.Add(fmt.Sprintf("items[%d].discount", i), "no puede ser negativo")
		case domainsales.ExceedsScale(line.Discount, domainsales.MoneyScale):
			ve.Add(fmt.Sprintf("items[%d].discount", i), "máximo 2 decimales")
		}
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func cartProductIDs(items []dto.CartItemRequest) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// lockProducts bloquea cada producto una sola vez y en orden de ID, para que dos ventas
// concurrentes sobre los mismos productos no se bloqueen mutuamente.
func lockProducts(ctx context.Context, productRepo repository.ProductRepository, ids []string) (map[string]*entity.Product, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Strings(unique)

	out := make(map[string]*entity.Product, len(unique))
	for _, id := range unique {
		p, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrProductNotFound
		}
		out[id] = p
	}
	return out, nil
}
