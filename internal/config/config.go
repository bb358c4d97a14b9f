// Package config provides configuration structures and validation for the application.
// It handles environment-based configuration for the gateway and the transfer processor,
// covering server settings, storage, messaging, lockout policy and transfer retry budgets.
package config

import (
	"errors"
	"strings"
	"time"
)

// Storage drivers understood by the binaries.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds the complete application configuration with settings for all components.
// Each field represents a major subsystem's configuration and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Storage     StorageConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	WorkerPool  WorkerPoolConfig
	Lockout     LockoutConfig
	Transfer    TransferConfig
	Security    SecurityConfig
	Redis       RedisConfig
	Sentry      SentryConfig
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
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// StorageConfig selects the account store and transfer log backends
type StorageConfig struct {
	Driver string // postgres (accounts) + mongo (transfers), or memory for both
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	TransferTopic     string
	NumPartitions     int // Number of partitions for topics
	ReplicationFactor int // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for Dead Letter Queue
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
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

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// LockoutConfig controls the login lockout policy
type LockoutConfig struct {
	Threshold         int           // Consecutive failures that trigger a lock
	Duration          time.Duration // How long a triggered lock lasts
	MaxUpdateAttempts int           // Evaluations before giving up on version conflicts
}

// TransferConfig controls retry budgets of the transfer engine
type TransferConfig struct {
	MaxRetryAttempts          int // Conditional update attempts per debit/credit leg
	CompensationRetryAttempts int // Attempts to credit a debited source back
}

// SecurityConfig contains password hashing and session token settings
type SecurityConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// RedisConfig configures login throttling. An empty URL disables it.
type RedisConfig struct {
	URL             string
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// SentryConfig configures error reporting. An empty DSN disables it.
type SentryConfig struct {
	DSN string
}

// UsesMemoryStorage reports whether both stores run in-process
func (c *Config) UsesMemoryStorage() bool {
	return strings.EqualFold(c.Storage.Driver, StorageDriverMemory)
}

// validate performs comprehensive validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
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

	switch strings.ToLower(c.Storage.Driver) {
	case StorageDriverPostgres:
		validationErrors = append(validationErrors, c.validateDatabases()...)
	case StorageDriverMemory:
	default:
		validationErrors = append(validationErrors, "STORAGE_DRIVER must be one of: postgres, memory")
	}

	// Validate Kafka config
	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.TransferTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_TRANSFER_TOPIC is required")
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
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	// Validate Lockout config
	if c.Lockout.Threshold <= 0 {
		validationErrors = append(validationErrors, "LOCKOUT_THRESHOLD must be greater than 0")
	}
	if c.Lockout.Duration <= 0 {
		validationErrors = append(validationErrors, "LOCKOUT_DURATION must be greater than 0")
	}
	if c.Lockout.MaxUpdateAttempts <= 0 {
		validationErrors = append(validationErrors, "LOCKOUT_MAX_UPDATE_ATTEMPTS must be greater than 0")
	}

	// Validate Transfer config
	if c.Transfer.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "TRANSFER_MAX_RETRY_ATTEMPTS must be greater than 0")
	}
	if c.Transfer.CompensationRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "TRANSFER_COMPENSATION_RETRY_ATTEMPTS must be greater than 0")
	}

	// Validate Security config
	if len(c.Security.JWTSecret) < 16 {
		validationErrors = append(validationErrors, "JWT_SECRET must be at least 16 characters")
	}
	if c.Security.TokenTTL <= 0 {
		validationErrors = append(validationErrors, "JWT_TOKEN_TTL must be greater than 0")
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		validationErrors = append(validationErrors, "BCRYPT_COST must be between 4 and 31")
	}

	// Redis is optional, but a configured limiter needs a usable budget
	if c.Redis.URL != "" {
		if c.Redis.LoginRateLimit <= 0 {
			validationErrors = append(validationErrors, "REDIS_LOGIN_RATE_LIMIT must be greater than 0")
		}
		if c.Redis.LoginRateWindow <= 0 {
			validationErrors = append(validationErrors, "REDIS_LOGIN_RATE_WINDOW must be greater than 0")
		}
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}

func (c *Config) validateDatabases() []string {
	var validationErrors []string

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
	if c.MongoDB.MinPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	return validationErrors
}
