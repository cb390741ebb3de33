package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cashday-ledger/internal/aggregation"
	"github.com/cashday-ledger/internal/config"
	"github.com/cashday-ledger/internal/data/bigquery"
	"github.com/cashday-ledger/internal/data/mongo"
	"github.com/cashday-ledger/internal/data/postgres"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/ledger"
	"github.com/cashday-ledger/internal/logger"
	"github.com/cashday-ledger/internal/platform/lock"
	"github.com/cashday-ledger/internal/platform/persistence"
	"github.com/cashday-ledger/internal/scheduler"
	"github.com/cashday-ledger/internal/streak"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("auto_close_scheduler")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Auto Close Scheduler",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"cron", cfg.Scheduler.Cron,
		"timezone", cfg.Scheduler.Timezone,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisClient, err := lock.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	businessRepo := postgres.NewBusinessRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	summaryRepo := mongo.NewSummaryRepository(log, mongoDB.Database())
	executionRepo := mongo.NewExecutionRepository(log, mongoDB.Database())

	resolver := businessday.NewResolver()

	deps := scheduler.Deps{
		Businesses: businessRepo,
		Aggregator: aggregation.NewService(log, resolver, transactionRepo),
		Closures:   transactionRepo,
		Writer:     ledger.NewWriter(postgresDB, transactionRepo, outboxRepo, log),
		Summaries:  summaryRepo,
		Streak:     streak.NewTracker(log, businessRepo, cfg.Streak),
		Locker:     lock.NewLocker(log, redisClient, cfg.Scheduler.LockTTL, "cashday:scheduler:"),
		Sink:       executionRepo,
		Resolver:   resolver,
	}

	var exporter *bigquery.RunExporter
	if cfg.BigQuery.Enabled() {
		exporter, err = bigquery.NewRunExporter(appCtx, log, cfg.BigQuery)
		if err != nil {
			log.Error("Failed to initialize BigQuery exporter", "error", err)
			os.Exit(1)
		}
		deps.Exporter = exporter
	}

	sched := scheduler.New(log.With("component", "scheduler"), cfg.Scheduler, deps)

	trigger, err := scheduler.NewTrigger(log.With("component", "trigger"), cfg.Scheduler, sched)
	if err != nil {
		log.Error("Failed to initialize scheduler trigger", "error", err)
		os.Exit(1)
	}

	done := make(chan error, 1)
	go func() {
		done <- trigger.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var triggerErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
		cancelAppCtx()
		triggerErr = <-done
	case triggerErr = <-done:
		log.Error("Scheduler trigger exited", "error", triggerErr)
	}

	log.Info("Starting graceful shutdown...")

	var shutdownErr error
	if exporter != nil {
		if err := exporter.Close(); err != nil {
			log.Error("Error closing BigQuery client", "error", err)
			shutdownErr = err
		}
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Error closing Redis client", "error", err)
		shutdownErr = err
	}

	postgresDB.Close()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if triggerErr != nil || shutdownErr != nil {
		log.Error("Auto Close Scheduler shutdown completed with errors")
	} else {
		log.Info("Auto Close Scheduler shutdown completed successfully")
	}
}
