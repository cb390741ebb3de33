package service

import (
	"context"
	"log/slog"

	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolLifecycleService runs a LifecycleController on a bounded goroutine pool
type WorkerPoolLifecycleService struct {
	base   LifecycleController
	pool   *ants.Pool
	logger *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolLifecycleService(
	base LifecycleController,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolLifecycleService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolLifecycleService{
		base:   base,
		pool:   pool,
		logger: logger,
	}, nil
}

type result struct {
	outcome Outcome
	err     error
}

// HandleChange submits the event to the pool and waits for its outcome
func (s *WorkerPoolLifecycleService) HandleChange(ctx context.Context, event transaction.ChangeEvent) (Outcome, error) {
	done := make(chan result, 1)

	err := s.pool.Submit(func() {
		outcome, err := s.base.HandleChange(ctx, event)
		done <- result{outcome: outcome, err: err}
	})
	if err != nil {
		s.logger.Error("Failed to submit change event to worker pool",
			"event_id", event.EventID.String(),
			"business_id", event.BusinessID,
			"error", err)
		return Outcome{}, err
	}

	select {
	case r := <-done:
		return r.outcome, r.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolLifecycleService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolLifecycleService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolLifecycleService) Capacity() int {
	return s.pool.Cap()
}
