// Package billing cobra la suscripción mensual de los usuarios contra su saldo.
package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// Config parámetros del cobro.
type Config struct {
	MonthlyFee decimal.Decimal
	ChunkSize  int
	PeriodDays int
}

// SubscriptionUseCase cobro periódico, recargas de saldo e historial de pagos.
type SubscriptionUseCase struct {
	txRunner    TxRunner
	userRepo    repository.UserRepository
	paymentRepo repository.PaymentRepository
	cfg         Config
	log         zerolog.Logger
	now         func() time.Time
}

// NewSubscriptionUseCase construye el caso de uso.
func NewSubscriptionUseCase(
	txRunner TxRunner,
	userRepo repository.UserRepository,
	paymentRepo repository.PaymentRepository,
	cfg Config,
	log zerolog.Logger,
) *SubscriptionUseCase {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if cfg.PeriodDays <= 0 {
		cfg.PeriodDays = 30
	}
	return &SubscriptionUseCase{
		txRunner:    txRunner,
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

// RunCycle recorre por bloques los usuarios activos con el período vencido.
// Con saldo suficiente se descuenta la cuota y se extiende paid_until; sin saldo el usuario
// queda inactivo. Cada bloque es una transacción: si falla se revierte solo ese bloque y se sigue.
func (uc *SubscriptionUseCase) RunCycle(ctx context.Context) (*dto.BillingCycleResult, error) {
	now := uc.now()
	paidUntil := now.AddDate(0, 0, uc.cfg.PeriodDays)
	res := &dto.BillingCycleResult{}

	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		var (
			lastID      string
			size        int
			charged     int
			deactivated int
		)
		err := uc.txRunner.RunBilling(ctx, func(userRepo repository.UserRepository, paymentRepo repository.PaymentRepository) error {
			users, err := userRepo.ListDueForUpdate(ctx, afterID, now, uc.cfg.ChunkSize)
			if err != nil {
				return err
			}
			size = len(users)
			if size == 0 {
				return nil
			}
			lastID = users[size-1].ID

			for _, u := range users {
				if u.Balance.GreaterThanOrEqual(uc.cfg.MonthlyFee) {
					if err := uc.charge(ctx, userRepo, paymentRepo, u, now, paidUntil); err != nil {
						return err
					}
					charged++
					continue
				}
				if err := userRepo.SetActive(ctx, u.ID, false); err != nil {
					return err
				}
				if err := paymentRepo.Create(ctx, &entity.Payment{
					ID:        uuid.New().String(),
					UserID:    u.ID,
					Amount:    uc.cfg.MonthlyFee,
					Method:    entity.PaymentMethodBalance,
					Status:    entity.PaymentStatusFailed,
					CreatedAt: now,
				}); err != nil {
					return err
				}
				deactivated++
			}
			return nil
		})
		if err != nil && lastID == "" {
			return res, err
		}
		if size == 0 {
			break
		}

		res.Chunks++
		if err != nil {
			res.FailedChunks++
			uc.log.Error().Err(err).Str("after_id", afterID).Int("size", size).Msg("bloque de cobro revertido")
		} else {
			res.Charged += charged
			res.Deactivated += deactivated
		}
		afterID = lastID
		if size < uc.cfg.ChunkSize {
			break
		}
	}

	uc.log.Info().
		Int("charged", res.Charged).
		Int("deactivated", res.Deactivated).
		Int("chunks", res.Chunks).
		Int("failed_chunks", res.FailedChunks).
		Msg("ciclo de cobro terminado")
	return res, nil
}

// TopUp suma amount al saldo del usuario. Si el usuario estaba inactivo y el saldo cubre la
// cuota, se cobra el período en el acto y se reactiva.
func (uc *SubscriptionUseCase) TopUp(ctx context.Context, userID string, in dto.TopUpRequest) (*dto.TopUpResponse, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "debe ser mayor que cero")
	}
	now := uc.now()
	var (
		user    *entity.User
		payment *entity.Payment
	)
	err := uc.txRunner.RunBilling(ctx, func(userRepo repository.UserRepository, paymentRepo repository.PaymentRepository) error {
		u, err := userRepo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrUserNotFound
		}
		u.Balance = u.Balance.Add(in.Amount)
		if err := userRepo.UpdateBalance(ctx, u.ID, u.Balance); err != nil {
			return err
		}
		payment = &entity.Payment{
			ID:        uuid.New().String(),
			UserID:    u.ID,
			Amount:    in.Amount,
			Method:    entity.PaymentMethodTopUp,
			Status:    entity.PaymentStatusPaid,
			CreatedAt: now,
		}
		if err := paymentRepo.Create(ctx, payment); err != nil {
			return err
		}

		if !u.IsActive && u.Balance.GreaterThanOrEqual(uc.cfg.MonthlyFee) {
			if err := uc.charge(ctx, userRepo, paymentRepo, u, now, now.AddDate(0, 0, uc.cfg.PeriodDays)); err != nil {
				return err
			}
			if err := userRepo.SetActive(ctx, u.ID, true); err != nil {
				return err
			}
			u.IsActive = true
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("user_id", userID).Str("amount", in.Amount.String()).Bool("active", user.IsActive).Msg("saldo recargado")
	return &dto.TopUpResponse{
		Balance:  user.Balance,
		IsActive: user.IsActive,
		Payment:  toPaymentResponse(payment),
	}, nil
}

// ListPayments historial de cobros y recargas del usuario, más recientes primero.
func (uc *SubscriptionUseCase) ListPayments(ctx context.Context, userID string, page dto.PageRequest) ([]dto.PaymentResponse, error) {
	page.DefaultPage()
	list, err := uc.paymentRepo.ListByUser(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PaymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPaymentResponse(p))
	}
	return out, nil
}

// charge descuenta la cuota del saldo (u se actualiza en memoria) y registra el pago.
func (uc *SubscriptionUseCase) charge(
	ctx context.Context,
	userRepo repository.UserRepository,
	paymentRepo repository.PaymentRepository,
	u *entity.User,
	now, paidUntil time.Time,
) error {
	u.Balance = u.Balance.Sub(uc.cfg.MonthlyFee)
	if err := userRepo.ChargeSubscription(ctx, u.ID, u.Balance, paidUntil); err != nil {
		return err
	}
	u.PaidUntil = &paidUntil
	return paymentRepo.Create(ctx, &entity.Payment{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		Amount:    uc.cfg.MonthlyFee,
		Method:    entity.PaymentMethodBalance,
		Status:    entity.PaymentStatusPaid,
		PaidUntil: &paidUntil,
		CreatedAt: now,
	})
}

func toPaymentResponse(p *entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:        p.ID,
		Amount:    p.Amount,
		Method:    p.Method,
		Status:    p.Status,
		PaidUntil: p.PaidUntil,
		CreatedAt: p.CreatedAt,
	}
}
