package starfield

import (
	"errors"
	"log/slog"
	"time"
)

// sfConfig holds mutable state during Starfield construction.
type sfConfig struct {
	title            string
	port             int
	keepAlive        time.Duration
	seedCount        int
	seed             *uint64
	subscriberBuffer int
	logger           *slog.Logger
	updateCallbacks  []func(Update)
}

// Option is a function that configures a [Starfield] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*sfConfig) error

// WithPort sets the HTTP port for the star map server.
//
// Defaults to 8000 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *sfConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Starfield instance.
//
// If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	sf, err := starfield.New(starfield.WithLogger(logger))
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *sfConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the page title displayed in the browser tab and header.
//
// If not specified, defaults to "Starfield".
func WithTitle(title string) Option {
	return func(cfg *sfConfig) error {
		cfg.title = title
		return nil
	}
}

// WithSeedCount sets how many random stars the store starts with.
// Zero starts with an empty map. Defaults to 150.
//
// Returns an error if n is negative.
func WithSeedCount(n int) Option {
	return func(cfg *sfConfig) error {
		if n < 0 {
			return errors.New("seed count cannot be negative")
		}
		cfg.seedCount = n
		return nil
	}
}

// WithSeed makes the initial stars reproducible: two instances created with
// the same seed and seed count start with identical stars.
func WithSeed(seed uint64) Option {
	return func(cfg *sfConfig) error {
		cfg.seed = &seed
		return nil
	}
}

// WithKeepAlive sets how long a stream may stay idle before a keep-alive
// is written. Defaults to 15 seconds.
//
// Returns an error if the duration is zero or negative.
func WithKeepAlive(d time.Duration) Option {
	return func(cfg *sfConfig) error {
		if d <= 0 {
			return errors.New("keep-alive interval must be positive")
		}
		cfg.keepAlive = d
		return nil
	}
}

// WithSubscriberBuffer sets how many pending updates each stream may hold.
// A stream that falls further behind is disconnected so its client can
// reconnect and reload. Defaults to 256.
//
// Returns an error if n is zero or negative.
func WithSubscriberBuffer(n int) Option {
	return func(cfg *sfConfig) error {
		if n <= 0 {
			return errors.New("subscriber buffer must be positive")
		}
		cfg.subscriberBuffer = n
		return nil
	}
}

// WithUpdateCallback registers a function to be called on every store
// mutation, in publication order.
//
// Multiple callbacks may be registered; they execute in registration order
// from a single goroutine. Callbacks must be non-blocking: a callback that
// falls more than the subscriber buffer behind misses updates. Panics within
// callbacks are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithUpdateCallback(cb func(Update)) Option {
	return func(cfg *sfConfig) error {
		if cb == nil {
			return nil
		}
		cfg.updateCallbacks = append(cfg.updateCallbacks, cb)
		return nil
	}
}
