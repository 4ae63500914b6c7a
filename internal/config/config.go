package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Runner  RunnerConfig  `mapstructure:"runner"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StorageConfig selects and configures the Store backend that persists
// job records. Only the fields relevant to the selected backend are used.
type StorageConfig struct {
	// Backend selects the Store implementation.
	Backend string `mapstructure:"backend" validate:"required,oneof=memory fs badger postgres redis"`

	// Dir is the data directory for the fs and badger backends.
	Dir string `mapstructure:"dir"`

	// DatabaseURL is the connection string for the postgres backend.
	DatabaseURL string `mapstructure:"database_url" validate:"omitempty,url"`

	// RedisAddr is the host:port of the Redis server for the redis backend.
	RedisAddr string `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`

	// RedisTTL is the retention period for records in the redis backend.
	// Zero keeps records forever. Retention is a backend policy; the job
	// core never deletes records itself.
	RedisTTL time.Duration `mapstructure:"redis_ttl"`
}

// RunnerConfig contains the job runner's tuning knobs.
type RunnerConfig struct {
	// MaxConcurrent caps how many submitted jobs execute at the same time.
	// Zero or negative means no cap.
	MaxConcurrent int `mapstructure:"max_concurrent"`

	// SaveRetries is how many times a failed terminal-status save is retried
	// before the failure is given up on and logged.
	SaveRetries int `mapstructure:"save_retries" validate:"gte=0"`

	// RetryBackoff is the pause between terminal-save retries.
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}
