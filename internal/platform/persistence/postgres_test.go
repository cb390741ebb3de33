package persistence

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/cashday-ledger/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestPostgresDB_Pool(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Using nil pool since pgxpool requires real DB connection
	var nilPool *pgxpool.Pool
	db := &PostgresDB{
		pool:   nilPool,
		logger: logger,
	}
	assert.Equal(t, nilPool, db.Pool(), "Pool() should return the initialized pool")
}

func TestNewPostgresDB_RequiresMigrationsPath(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewPostgresDB(context.Background(), logger, &config.PostgresConfig{URL: "postgres://localhost/cashday"})

	assert.EqualError(t, err, "migrations path cannot be empty")
}
