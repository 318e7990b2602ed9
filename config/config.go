// Package config loads engine settings from JOBPOOL_* environment
// variables, for hosts that prefer deployment-time configuration over
// hardcoded options.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tickforge/jobpool/core"
)

// Config holds engine settings sourced from the environment.
type Config struct {
	// Workers is the fixed worker count.
	Workers int `env:"JOBPOOL_WORKERS" envDefault:"4"`
	// QueueCapacity bounds each worker's inbound queue.
	QueueCapacity int `env:"JOBPOOL_QUEUE_CAPACITY" envDefault:"1000"`
	// ShutdownTimeout bounds the graceful shutdown wait.
	ShutdownTimeout time.Duration `env:"JOBPOOL_SHUTDOWN_TIMEOUT" envDefault:"3s"`
	// DrainBatch caps callbacks invoked per worker per drain call.
	DrainBatch int `env:"JOBPOOL_DRAIN_BATCH" envDefault:"10"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"JOBPOOL_LOG_LEVEL" envDefault:"info"`
}

// Load parses and validates configuration from the environment.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue capacity must be positive, got %d", c.QueueCapacity)
	}
	if c.DrainBatch <= 0 {
		return fmt.Errorf("drain batch must be positive, got %d", c.DrainBatch)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// PoolOptions translates the configuration into core options.
func (c Config) PoolOptions() []core.Option {
	return []core.Option{
		core.WithWorkers(c.Workers),
		core.WithQueueCapacity(c.QueueCapacity),
		core.WithShutdownTimeout(c.ShutdownTimeout),
	}
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
