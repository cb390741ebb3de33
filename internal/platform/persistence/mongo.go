package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cashday-ledger/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names
const (
	CollectionDailySummaries      = "daily_summaries"
	CollectionScheduledExecutions = "scheduled_executions"
	CollectionSystemLogs          = "system_logs"
	CollectionAutoCloseLogs       = "auto_close_logs"
)

type MongoDB struct {
	logger   *slog.Logger
	client   *mongo.Client
	database *mongo.Database
}

func NewMongoDB(ctx context.Context, logger *slog.Logger, cfg *config.MongoDBConfig) (*MongoDB, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetRegistry(NewRegistry())

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)
	logger.Info("Connected to MongoDB", "database", cfg.Database)

	return &MongoDB{
		logger:   logger,
		client:   client,
		database: database,
	}, nil
}

// EnsureIndexes creates the indexes the repositories rely on
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionDailySummaries: {
			{Keys: bson.D{{Key: "businessId", Value: 1}, {Key: "day", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "businessId", Value: 1}, {Key: "hasTxn", Value: 1}, {Key: "day", Value: 1}}},
		},
		CollectionScheduledExecutions: {
			{Keys: bson.D{{Key: "anchor", Value: -1}}},
		},
		CollectionAutoCloseLogs: {
			{Keys: bson.D{{Key: "businessId", Value: 1}, {Key: "day", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := m.database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

func (m *MongoDB) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	m.logger.Info("Closed MongoDB connection")
	return nil
}
