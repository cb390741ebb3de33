package components

import (
	"log/slog"

	"github.com/cashday-ledger/internal/aggregation"
	"github.com/cashday-ledger/internal/config"
	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/cashday-ledger/internal/streak"
	"github.com/cashday-ledger/internal/summary_processor/service"
)

// CreateLifecycleController wires the lifecycle controller and runs it on a worker pool
func CreateLifecycleController(
	businesses business.Repository,
	transactions transaction.Repository,
	summaries summary.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) service.LifecycleController {
	resolver := businessday.NewResolver()
	aggregator := aggregation.NewService(logger, resolver, transactions)
	tracker := streak.NewTracker(logger, businesses, cfg.Streak)

	baseService := service.NewLifecycleService(
		businesses,
		resolver,
		aggregator,
		summaries,
		tracker,
		cfg.Cache.BusinessTTL,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolLifecycleService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool lifecycle service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
