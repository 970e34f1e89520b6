package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// History lista las ventas del usuario de la sesión, más recientes primero.
func (uc *TransactionUseCase) History(ctx context.Context, userID string, page dto.PageRequest) (*dto.TransactionListResponse, error) {
	page.DefaultPage()
	list, err := uc.txRepo.ListByUser(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransactionResponse, 0, len(list))
	for _, t := range list {
		items = append(items, toTransactionResponse(t))
	}
	return &dto.TransactionListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Get devuelve una venta de la tienda de la sesión con sus líneas.
func (uc *TransactionUseCase) Get(ctx context.Context, shopID, id string) (*dto.TransactionResponse, error) {
	t, err := uc.load(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	out := toTransactionResponse(t)
	return &out, nil
}

// Refund marca una venta completada como devuelta: repone el stock de cada línea con un
// movimiento in y, si fue a crédito, descuenta la deuda del cliente. Todo en una tx.
func (uc *TransactionUseCase) Refund(ctx context.Context, shopID, userID, id string) (*dto.TransactionResponse, error) {
	if shopID == "" {
		return nil, domain.ErrNoShop
	}
	now := uc.now()
	err := uc.txRunner.RunSales(ctx, func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
		transactionRepo repository.TransactionRepository,
		customerRepo repository.CustomerRepository,
	) error {
		header, err := transactionRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if header == nil || header.ShopID != shopID {
			return domain.ErrNotFound
		}
		if header.Status != entity.TransactionStatusCompleted {
			return fmt.Errorf("solo se puede devolver una venta completada (estado %s): %w", header.Status, domain.ErrConflict)
		}

		items, err := transactionRepo.ListItems(ctx, header.ID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ProductID)
		}
		products, err := lockProducts(ctx, productRepo, ids)
		if err != nil {
			return err
		}

		for _, it := range items {
			p := products[it.ProductID]
			p.Quantity = p.Quantity.Add(it.Quantity)
			if err := productRepo.UpdateQuantity(ctx, p.ID, p.Quantity); err != nil {
				return err
			}
			if err := movementRepo.Create(ctx, &entity.StockMovement{
				ID:        uuid.New().String(),
				ProductID: p.ID,
				ShopID:    header.ShopID,
				UserID:    userID,
				Type:      entity.MovementTypeIn,
				Quantity:  it.Quantity,
				Reason:    "refund:" + header.ID,
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}

		if header.PaymentType == entity.PaymentTypeDebt && header.CustomerID != "" {
			due := header.TotalPrice.Sub(header.Discount)
			if err := customerRepo.AddDebt(ctx, header.CustomerID, due.Neg()); err != nil {
				return err
			}
		}
		return transactionRepo.UpdateStatus(ctx, header.ID, entity.TransactionStatusRefunded)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("transaction_id", id).Str("shop_id", shopID).Msg("venta devuelta")
	return uc.Get(ctx, shopID, id)
}

// Receipt genera el PDF del recibo de una venta de la tienda de la sesión.
func (uc *TransactionUseCase) Receipt(ctx context.Context, shopID, id string) (pdf []byte, filename string, err error) {
	t, err := uc.load(ctx, shopID, id)
	if err != nil {
		return nil, "", err
	}
	shop, err := uc.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		return nil, "", fmt.Errorf("recibo: obtener tienda: %w", err)
	}
	if shop == nil {
		return nil, "", domain.ErrNotFound
	}
	pdf, err = uc.renderer.RenderReceipt(ctx, shop, t)
	if err != nil {
		return nil, "", fmt.Errorf("recibo: %w", err)
	}
	return pdf, "recibo-" + shortID(t.ID) + ".pdf", nil
}

func (uc *TransactionUseCase) load(ctx context.Context, shopID, id string) (*entity.Transaction, error) {
	t, err := uc.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || shopID == "" || t.ShopID != shopID {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func toTransactionResponse(t *entity.Transaction) dto.TransactionResponse {
	items := make([]dto.TransactionItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, dto.TransactionItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			PriceAtSale: it.PriceAtSale,
			CostAtSale:  it.CostAtSale,
			Discount:    it.Discount,
			LineTotal:   it.LineTotal(),
		})
	}
	return dto.TransactionResponse{
		ID:          t.ID,
		ShopID:      t.ShopID,
		UserID:      t.UserID,
		CustomerID:  t.CustomerID,
		PaymentType: t.PaymentType,
		Status:      t.Status,
		TotalPrice:  t.TotalPrice,
		CostTotal:   t.CostTotal,
		Discount:    t.Discount,
		Profit:      t.Profit,
		ItemsCount:  len(items),
		Items:       items,
		CreatedAt:   t.CreatedAt.In(time.UTC),
	}
}
