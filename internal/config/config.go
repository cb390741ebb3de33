// Package config provides configuration structures and validation for the application.
// Every binary loads its own env file, then environment variables override it.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration with settings for all components.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Scheduler   SchedulerConfig
	Streak      StreakConfig
	Cache       CacheConfig
	BigQuery    BigQueryConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or text
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers                string
	TransactionEventsTopic string // Change events emitted for every transaction write
	NumPartitions          int
	ReplicationFactor      int
	ConsumerGroup          string
	MinBytes               int
	MaxBytes               int
	MaxWait                time.Duration
	DLQTopic               string
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains the Redis connection used for scheduler run locks
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// SchedulerConfig drives the daily auto-open / auto-close run
type SchedulerConfig struct {
	Cron        string        // Standard 5-field spec, evaluated in Timezone
	Timezone    string        // IANA zone the cron spec is expressed in
	RunDeadline time.Duration // Hard wall-clock limit for one run
	Concurrency int           // Businesses processed in parallel
	LockTTL     time.Duration
}

// StreakConfig contains streak tracker settings
type StreakConfig struct {
	MaxRetries int // Optimistic update attempts before giving up
}

// CacheConfig contains in-process cache settings
type CacheConfig struct {
	BusinessTTL time.Duration
}

// BigQueryConfig enables exporting run summaries when ProjectID is set
type BigQueryConfig struct {
	ProjectID       string
	Dataset         string
	Table           string
	CredentialsFile string
}

// Enabled reports whether run summaries should also be exported to BigQuery
func (c BigQueryConfig) Enabled() bool {
	return c.ProjectID != ""
}

// validate performs validation of all configuration values
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Kafka config
	if c.Kafka.Brokers == "" {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.TransactionEventsTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_TRANSACTION_EVENTS_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate MongoDB config
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate Redis config
	if c.Redis.Addr == "" {
		validationErrors = append(validationErrors, "REDIS_ADDR is required")
	}

	// Validate Outbox config
	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	// Validate Scheduler config
	if c.Scheduler.Cron == "" {
		validationErrors = append(validationErrors, "SCHEDULER_CRON is required")
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil || c.Scheduler.Timezone == "" {
		validationErrors = append(validationErrors, "SCHEDULER_TIMEZONE must be a valid IANA timezone")
	}
	if c.Scheduler.RunDeadline <= 0 {
		validationErrors = append(validationErrors, "SCHEDULER_RUN_DEADLINE must be greater than 0")
	}
	if c.Scheduler.Concurrency <= 0 {
		validationErrors = append(validationErrors, "SCHEDULER_CONCURRENCY must be greater than 0")
	}
	if c.Scheduler.LockTTL < c.Scheduler.RunDeadline {
		validationErrors = append(validationErrors, "SCHEDULER_LOCK_TTL must not be shorter than SCHEDULER_RUN_DEADLINE")
	}

	if c.Streak.MaxRetries <= 0 {
		validationErrors = append(validationErrors, "STREAK_MAX_RETRIES must be greater than 0")
	}
	if c.Cache.BusinessTTL <= 0 {
		validationErrors = append(validationErrors, "CACHE_BUSINESS_TTL must be greater than 0")
	}

	if c.BigQuery.Enabled() && (c.BigQuery.Dataset == "" || c.BigQuery.Table == "") {
		validationErrors = append(validationErrors, "BIGQUERY_DATASET and BIGQUERY_TABLE are required when BIGQUERY_PROJECT_ID is set")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
