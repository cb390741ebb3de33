package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cashday-ledger/internal/aggregation"
	"github.com/cashday-ledger/internal/api_gateway"
	"github.com/cashday-ledger/internal/api_gateway/service"
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
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

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

	// Repositories
	businessRepo := postgres.NewBusinessRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	summaryRepo := mongo.NewSummaryRepository(log, mongoDB.Database())
	executionRepo := mongo.NewExecutionRepository(log, mongoDB.Database())

	resolver := businessday.NewResolver()
	writer := ledger.NewWriter(postgresDB, transactionRepo, outboxRepo, log)
	aggregator := aggregation.NewService(log, resolver, transactionRepo)

	deps := scheduler.Deps{
		Businesses: businessRepo,
		Aggregator: aggregator,
		Closures:   transactionRepo,
		Writer:     writer,
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

	automation := scheduler.New(log.With("component", "scheduler"), cfg.Scheduler, deps)

	services := api_gateway.Services{
		Transactions: service.NewTransactionService(log, writer, businessRepo, resolver),
		Summaries:    service.NewSummaryService(log, businessRepo, aggregator, summaryRepo, resolver),
		Register:     service.NewRegisterService(log, automation, executionRepo),
	}

	server := api_gateway.NewServer(log, cfg, services)
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before the stores go away
	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}

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

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if shutdownErr != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
