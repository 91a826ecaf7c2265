// Package config provides configuration structures and validation for the
// payment ledger. It handles environment-based configuration for the HTTP
// server, databases, Kafka, chain RPC access, and the fee/withdrawal policy.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field represents
// a major subsystem and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Chain       ChainConfig
	Fees        FeesConfig
	Withdrawals WithdrawalsConfig
	RateFeed    RateFeedConfig
	Custody     CustodyConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
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

// MongoDBConfig contains MongoDB configuration for the earnings history store
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains Redis configuration for the exchange-rate cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig contains Kafka configuration for payment event publishing
type KafkaConfig struct {
	Brokers           string
	PaymentEventTopic string
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	DLQTopic          string
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig sizes the notification dispatch pool
type WorkerPoolConfig struct {
	Size int
}

// NetworkConfig holds per-network chain access settings
type NetworkConfig struct {
	RPCURL                string
	RequiredConfirmations int64
	// TokenContracts maps a currency symbol to its token contract address on
	// this network
	TokenContracts map[string]string
}

// ChainConfig contains blockchain RPC configuration
type ChainConfig struct {
	Networks       map[string]NetworkConfig // keyed by network name
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

// FeesConfig contains the fee policy
type FeesConfig struct {
	// PlatformFeePercent is the platform's cut of the base fee, in percent,
	// as a decimal string (e.g. "10")
	PlatformFeePercent string
}

// WithdrawalsConfig contains the withdrawal policy
type WithdrawalsConfig struct {
	// MinimumAmounts maps a currency symbol to the minimum withdrawable
	// amount as a decimal string
	MinimumAmounts map[string]string
	Cooldown       time.Duration
}

// RateFeedConfig configures the exchange-rate provider and its Redis cache
type RateFeedConfig struct {
	URL      string
	Source   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// CustodyConfig points at the external custody service that signs and
// broadcasts outbound transfers
type CustodyConfig struct {
	URL     string
	Timeout time.Duration
}

// validate checks all configuration values meet minimum requirements
func (c *Config) validate() error {
	var validationErrors []string

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

	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}

	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}

	if c.Redis.Addr == "" {
		validationErrors = append(validationErrors, "REDIS_ADDR is required")
	}

	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.PaymentEventTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_PAYMENT_EVENT_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}

	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	for name, network := range c.Chain.Networks {
		if network.RPCURL == "" {
			validationErrors = append(validationErrors, "RPC URL is required for network "+name)
		}
		if network.RequiredConfirmations < 0 {
			validationErrors = append(validationErrors, "required confirmations must not be negative for network "+name)
		}
	}
	if len(c.Chain.Networks) == 0 {
		validationErrors = append(validationErrors, "at least one chain network must be configured")
	}
	if c.Chain.MaxRetries <= 0 {
		validationErrors = append(validationErrors, "CHAIN_MAX_RETRIES must be greater than 0")
	}

	if c.Fees.PlatformFeePercent == "" {
		validationErrors = append(validationErrors, "FEES_PLATFORM_FEE_PERCENT is required")
	}

	if c.Withdrawals.Cooldown < 0 {
		validationErrors = append(validationErrors, "WITHDRAWALS_COOLDOWN must not be negative")
	}

	if c.RateFeed.URL == "" {
		validationErrors = append(validationErrors, "RATE_FEED_URL is required")
	}
	if c.RateFeed.CacheTTL <= 0 {
		validationErrors = append(validationErrors, "RATE_FEED_CACHE_TTL must be greater than 0")
	}

	if c.Custody.URL == "" {
		validationErrors = append(validationErrors, "CUSTODY_URL is required")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
