package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cashday-ledger/internal/config"
	"github.com/cashday-ledger/internal/data/mongo"
	"github.com/cashday-ledger/internal/data/postgres"
	"github.com/cashday-ledger/internal/logger"
	"github.com/cashday-ledger/internal/platform/messaging/consumers"
	"github.com/cashday-ledger/internal/platform/messaging/producers"
	"github.com/cashday-ledger/internal/platform/persistence"
	"github.com/cashday-ledger/internal/summary_processor/components"
	"github.com/cashday-ledger/internal/summary_processor/consumer"
	"github.com/cashday-ledger/internal/summary_processor/outbox_poller"
	"github.com/cashday-ledger/internal/summary_processor/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("summary_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Summary Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
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
	if err := mongoDB.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure MongoDB indexes", "error", err)
		os.Exit(1)
	}

	businessRepo := postgres.NewBusinessRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	summaryRepo := mongo.NewSummaryRepository(log, mongoDB.Database())

	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	changeProducer, err := producers.NewChangeEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize change event Kafka producer", "error", err)
		os.Exit(1)
	}

	// nil when no DLQ topic is configured. Its methods are nil-safe.
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	lifecycle := components.CreateLifecycleController(
		businessRepo,
		transactionRepo,
		summaryRepo,
		log,
		cfg,
	)

	changeEventHandler := consumer.NewChangeEventHandler(log, lifecycle, dlqProducer)

	relay := outbox_poller.NewEventRelay(outboxRepo, changeProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, relay, log)

	errChan := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.TransactionEventsTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, changeEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	if wpService, ok := lifecycle.(*service.WorkerPoolLifecycleService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	var shutdownErr error
	if dlqProducer != nil {
		if err := dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
			shutdownErr = err
		}
	}

	if err := changeProducer.Close(); err != nil {
		log.Error("Error closing change event Kafka producer", "error", err)
		shutdownErr = err
	}

	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
		shutdownErr = err
	}

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if serviceErr != nil {
		log.Error("Summary Processor shutdown with errors", "error", serviceErr)
	}
	if shutdownErr != nil {
		log.Error("Summary Processor shutdown completed with errors")
	} else {
		log.Info("Summary Processor shutdown completed successfully")
	}
}
