// Package starfield provides an embeddable star map server: an in-memory
// set of point markers ("stars") that clients query by viewport and watch
// through a live update stream.
//
// # Quick Start
//
//	sf, _ := starfield.New()
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	sf.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// Starfield uses the functional options pattern for configuration:
//
//	sf, err := starfield.New(
//	    starfield.WithPort(9090),
//	    starfield.WithSeedCount(500),
//	    starfield.WithKeepAlive(30 * time.Second),
//	    starfield.WithUpdateCallback(func(u starfield.Update) {
//	        slog.Info("star changed", "event", u.Event, "star_id", u.Star.ID)
//	    }),
//	)
//
// # Streams
//
// Every stream connection owns its own subscription to the store, so each
// client sees every mutation that falls inside its viewport:
//
//   - GET /stars/stream?viewport=xMin,xMax,yMin,yMax: Server-Sent Events
//   - GET /stars/ws?viewport=xMin,xMax,yMin,yMax: WebSocket text messages
//
// A mutation and its notification happen atomically, so a client that
// loads GET /stars and then opens a stream misses nothing published after
// the snapshot was taken.
//
// # Architecture
//
// Starfield consists of several internal packages (under internal/):
//
//   - internal/store: In-memory star storage with pub/sub fan-out
//   - internal/server: HTTP server with JSON API, SSE and WebSocket streams
//   - internal/audio: Companion audio service with per-user cooldowns
//   - internal/metrics: Prometheus collectors
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package starfield
