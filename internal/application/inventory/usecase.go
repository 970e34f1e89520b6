package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/inventory"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

const (
	defaultMovementLimit = 5
	maxMovementLimit     = 100
	movementDateLayout   = "2006-01-02 15:04"
)

// StockUseCase registra movimientos manuales de stock y consulta el historial.
// Product.Quantity es la fuente de verdad; cada cambio deja un StockMovement en la misma tx.
type StockUseCase struct {
	txRunner     TxRunner
	movementRepo repository.StockMovementRepository
	loc          *time.Location
	log          zerolog.Logger
	now          func() time.Time
}

// NewStockUseCase construye el caso de uso. loc es la zona horaria de las fechas del historial.
func NewStockUseCase(txRunner TxRunner, movementRepo repository.StockMovementRepository, loc *time.Location, log zerolog.Logger) *StockUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &StockUseCase{
		txRunner:     txRunner,
		movementRepo: movementRepo,
		loc:          loc,
		log:          log,
		now:          time.Now,
	}
}

// RegisterMovement bloquea la fila del producto (SELECT FOR UPDATE), aplica el delta y
// guarda el movimiento. Un out o adjust que dejaría el stock en negativo se rechaza.
func (uc *StockUseCase) RegisterMovement(ctx context.Context, shopID, userID string, in dto.RegisterMovementRequest) (*dto.StockLevelResponse, error) {
	if shopID == "" {
		return nil, domain.ErrNoShop
	}
	if !entity.ValidMovementType(in.Type) {
		return nil, domain.NewValidationError("type", "debe ser in, out o adjust")
	}
	if in.Quantity.IsZero() {
		return nil, domain.NewValidationError("quantity", "no puede ser cero")
	}

	now := uc.now()
	var (
		product  *entity.Product
		movement *entity.StockMovement
	)
	err := uc.txRunner.RunStock(ctx, func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
	) error {
		p, err := productRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if p == nil || p.ShopID != shopID {
			return domain.ErrProductNotFound
		}

		newQty, delta, err := inventory.ApplyMovement(p.Quantity, in.Type, in.Quantity)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return &domain.StockError{ProductID: p.ID, Available: p.Quantity.String(), Requested: in.Quantity.Abs().String()}
			}
			return err
		}
		if err := productRepo.UpdateQuantity(ctx, p.ID, newQty); err != nil {
			return err
		}
		p.Quantity = newQty

		movement = &entity.StockMovement{
			ID:        uuid.New().String(),
			ProductID: p.ID,
			ShopID:    shopID,
			UserID:    userID,
			Type:      in.Type,
			Quantity:  delta,
			Reason:    in.Reason,
			CreatedAt: now,
		}
		product = p
		return movementRepo.Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("product_id", product.ID).
		Str("type", movement.Type).
		Str("delta", movement.Quantity.String()).
		Str("on_hand", product.Quantity.String()).
		Msg("movimiento de stock registrado")

	return &dto.StockLevelResponse{
		ProductID: product.ID,
		Quantity:  product.Quantity,
		Movement: uc.toResponse(&entity.StockMovementView{
			StockMovement: *movement,
			ProductName:   product.Name,
		}),
	}, nil
}

// ListMovements devuelve los movimientos más recientes primero.
// shop_id en la consulta debe coincidir con la tienda de la sesión; sin tienda se listan
// los movimientos del propio usuario.
func (uc *StockUseCase) ListMovements(ctx context.Context, shopID, userID string, in dto.MovementListRequest) ([]dto.StockMovementResponse, error) {
	if in.ShopID != "" && in.ShopID != shopID {
		return nil, domain.ErrScopeMismatch
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	if limit > maxMovementLimit {
		limit = maxMovementLimit
	}

	filter := repository.MovementFilter{ShopID: shopID, ProductID: in.ProductID, Limit: limit}
	if shopID == "" {
		filter.UserID = userID
	}
	list, err := uc.movementRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, uc.toResponse(m))
	}
	return out, nil
}

// RecordInitial guarda el movimiento in de la cantidad inicial de un producto recién creado,
// dentro de la tx del caller.
func RecordInitial(ctx context.Context, movementRepo repository.StockMovementRepository, p *entity.Product, userID string, now time.Time) error {
	if !p.Quantity.GreaterThan(decimal.Zero) {
		return nil
	}
	return movementRepo.Create(ctx, &entity.StockMovement{
		ID:        uuid.New().String(),
		ProductID: p.ID,
		ShopID:    p.ShopID,
		UserID:    userID,
		Type:      entity.MovementTypeIn,
		Quantity:  p.Quantity,
		Reason:    "initial",
		CreatedAt: now,
	})
}

func (uc *StockUseCase) toResponse(m *entity.StockMovementView) dto.StockMovementResponse {
	return dto.StockMovementResponse{
		ID:        m.ID,
		Date:      m.CreatedAt.In(uc.loc).Format(movementDateLayout),
		ProductID: m.ProductID,
		Product:   m.ProductName,
		Quantity:  m.Quantity,
		Type:      m.Type,
		Reason:    m.Reason,
		User:      m.UserName,
		Shop:      m.ShopName,
	}
}
