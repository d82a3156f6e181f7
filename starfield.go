package starfield

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jpalmerr/starfield/dashboard"
	"github.com/jpalmerr/starfield/internal/server"
	"github.com/jpalmerr/starfield/internal/store"
)

const (
	defaultPort      = 8000
	defaultKeepAlive = server.DefaultKeepAlive
)

// Starfield is the main orchestrator for the star store and its HTTP server.
//
// A Starfield is created using [New] with functional options and started
// with [Starfield.Start]. The store is created and seeded by [New], so stars
// can be added or inspected programmatically before the server starts.
//
// The typical lifecycle is:
//
//	sf, err := starfield.New(starfield.WithPort(8000))
//	if err != nil {
//	    slog.Error("failed to create starfield", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	sf.Start(ctx) // blocks until context cancelled
type Starfield struct {
	title           string
	port            int
	keepAlive       time.Duration
	logger          *slog.Logger
	updateCallbacks []func(Update)
	store           *store.MemoryStore
}

// New creates a new [Starfield] instance with the given options.
//
// Options have sensible defaults:
//   - Port: 8000
//   - Seed count: 150 random stars
//   - Keep-alive: 15 seconds
//   - Subscriber buffer: 256 updates
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Starfield, error) {
	cfg := &sfConfig{
		port:             defaultPort,
		keepAlive:        defaultKeepAlive,
		seedCount:        store.DefaultSeedCount,
		subscriberBuffer: store.DefaultSubscriberBuffer,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	var rng *rand.Rand
	if cfg.seed != nil {
		rng = rand.New(rand.NewPCG(*cfg.seed, *cfg.seed))
	}

	st := store.NewMemoryStore(cfg.subscriberBuffer)
	seeded := store.Seed(st, cfg.seedCount, rng)
	logger.Debug("store seeded", "star_count", len(seeded))

	return &Starfield{
		title:           cfg.title,
		port:            cfg.port,
		keepAlive:       cfg.keepAlive,
		logger:          logger,
		updateCallbacks: cfg.updateCallbacks,
		store:           st,
	}, nil
}

// Start serves the star map until the provided context is cancelled.
//
// Start is a blocking call. During execution:
//
//   - The HTTP server starts on the configured port
//   - Every store mutation is delivered to the registered update callbacks
//   - The page is available at http://localhost:<port>
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails to start.
func (sf *Starfield) Start(ctx context.Context) error {
	sf.logger.Info("starfield starting", "star_count", sf.store.Len())
	sf.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", sf.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var wg sync.WaitGroup
	if len(sf.updateCallbacks) > 0 {
		sub := sf.store.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			sf.dispatchUpdates(runCtx, sub)
		}()
	}

	httpServer := server.NewServer(sf.store, sf.port, dashboard.Assets, sf.title, sf.keepAlive, sf.logger)
	if err := httpServer.Start(runCtx); err != nil {
		stop()
		wg.Wait()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	wg.Wait()
	sf.logger.Info("starfield stopped")
	return nil
}

// dispatchUpdates feeds every update from sub to the update callbacks until
// ctx is done. An evicted subscription is replaced so callbacks keep running,
// although the updates published while it was full are lost.
func (sf *Starfield) dispatchUpdates(ctx context.Context, sub *store.Subscription) {
	defer func() { sf.store.Unsubscribe(sub) }()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-sub.Updates():
			if !ok {
				if !sub.Dropped() {
					return
				}
				sf.logger.Warn("update callbacks fell behind, resubscribing", "subscriber_id", sub.ID())
				sub = sf.store.Subscribe()
				continue
			}
			update := fromStoreUpdate(u)
			for _, cb := range sf.updateCallbacks {
				invokeCallbackSafe(cb, update, sf.logger)
			}
		}
	}
}

// AddStar inserts a star and notifies every stream.
//
// Returns [ErrNonFiniteCoordinate] if x or y is NaN or infinite.
func (sf *Starfield) AddStar(x, y float64, message string) (Star, error) {
	if !isFinite(x) || !isFinite(y) {
		return Star{}, fmt.Errorf("%w: (%g, %g)", ErrNonFiniteCoordinate, x, y)
	}
	return fromStoreStar(sf.store.Insert(x, y, message)), nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RemoveStar removes the star with the given id. Returns false if no such
// star exists.
func (sf *Starfield) RemoveStar(id int64) (Star, bool) {
	s, ok := sf.store.Remove(id)
	return fromStoreStar(s), ok
}

// Stars returns a snapshot of every star in insertion order.
func (sf *Starfield) Stars() []Star {
	return fromStoreStars(sf.store.All())
}

// Query returns the stars inside the inclusive rectangle
// [xMin, xMax] x [yMin, yMax].
func (sf *Starfield) Query(xMin, xMax, yMin, yMax float64) []Star {
	return fromStoreStars(sf.store.Query(store.Viewport{XMin: xMin, XMax: xMax, YMin: yMin, YMax: yMax}))
}

// Port returns the configured HTTP port.
func (sf *Starfield) Port() int {
	return sf.port
}

// KeepAlive returns the idle interval after which streams emit a keep-alive.
func (sf *Starfield) KeepAlive() time.Duration {
	return sf.keepAlive
}

// invokeCallbackSafe calls an update callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Update), u Update, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update callback panicked",
				"panic", r,
				"event", u.Event,
				"star_id", u.Star.ID,
			)
		}
	}()
	cb(u)
}
