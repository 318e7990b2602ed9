package core

import (
	"time"
)

// Config holds pool configuration
type Config struct {
	// Workers is the fixed number of dedicated workers.
	Workers int
	// QueueCapacity bounds each worker's inbound queue.
	QueueCapacity int
	// ShutdownTimeout bounds Close's wait for workers to exit.
	ShutdownTimeout time.Duration
	// Observer, if set, receives every terminal job outcome. It is
	// called from worker goroutines and must be concurrency-safe.
	Observer func(JobEvent)
}

// Option is a function that modifies pool configuration
type Option func(*Config)

// defaultConfig returns default configuration
func defaultConfig() *Config {
	return &Config{
		Workers:         4,
		QueueCapacity:   1000,
		ShutdownTimeout: 3 * time.Second,
	}
}

// WithWorkers sets the fixed worker count
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithQueueCapacity sets the per-worker queue capacity
func WithQueueCapacity(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.QueueCapacity = n
		}
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout used by Close
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ShutdownTimeout = d
	}
}

// WithObserver sets the terminal-outcome observer
func WithObserver(fn func(JobEvent)) Option {
	return func(c *Config) {
		c.Observer = fn
	}
}
