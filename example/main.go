package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/starfield"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sf, err := starfield.New(
		starfield.WithPort(8000),
		starfield.WithTitle("Starfield Demo"),
		starfield.WithSeedCount(50),
		starfield.WithLogger(logger),
		starfield.WithUpdateCallback(func(u starfield.Update) {
			logger.Info("star changed",
				"event", u.Event,
				"star_id", u.Star.ID,
				"x", u.Star.X,
				"y", u.Star.Y,
			)
		}),
	)
	if err != nil {
		slog.Error("failed to create starfield", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Starfield Demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8000 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   A simulator adds and retires a star every few       ║")
	fmt.Println("  ║   seconds; click the map to add your own.             ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go RunSkySimulator(ctx, sf, 60)

	if err := sf.Start(ctx); err != nil {
		slog.Error("starfield error", "error", err)
		os.Exit(1)
	}
}
