// Package scheduler ejecuta el cobro periódico de suscripciones.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/application/dto"
)

// CycleRunner una corrida de cobro (billing.SubscriptionUseCase).
type CycleRunner interface {
	RunCycle(ctx context.Context) (*dto.BillingCycleResult, error)
}

// BillingScheduler corre RunCycle cada interval hasta que se cancele el contexto o se llame Stop.
type BillingScheduler struct {
	runner   CycleRunner
	interval time.Duration
	log      zerolog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewBillingScheduler construye el scheduler.
func NewBillingScheduler(runner CycleRunner, interval time.Duration, log zerolog.Logger) *BillingScheduler {
	return &BillingScheduler{runner: runner, interval: interval, log: log}
}

// Start lanza la goroutine. La primera corrida ocurre al cumplirse el primer intervalo.
func (s *BillingScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runOnce(ctx)
			case <-ctx.Done():
				s.log.Debug().Msg("scheduler de cobro detenido")
				return
			}
		}
	}()
	s.log.Info().Dur("interval", s.interval).Msg("scheduler de cobro iniciado")
}

// Stop cancela y espera a que termine la corrida en curso.
func (s *BillingScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *BillingScheduler) runOnce(ctx context.Context) {
	start := time.Now()
	res, err := s.runner.RunCycle(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("ciclo de cobro fallido")
		return
	}
	s.log.Info().
		Int("charged", res.Charged).
		Int("deactivated", res.Deactivated).
		Int("chunks", res.Chunks).
		Int("failed_chunks", res.FailedChunks).
		Dur("elapsed", time.Since(start)).
		Msg("ciclo de cobro completado")
}
