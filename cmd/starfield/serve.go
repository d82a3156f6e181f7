package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/starfield"
	"github.com/jpalmerr/starfield/config"
	"github.com/jpalmerr/starfield/internal/audio"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// loadConfig reads the --config flag, falling back to defaults when unset.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// serveCmd starts the star map server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the star map server",
	Long: `Start the Starfield server.

The server will:
  - Load configuration from the specified YAML file, or use defaults
  - Seed the map with random stars
  - Serve the page, JSON API and update streams on the configured port
  - With --audio, also serve the audio API on the audio port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  starfield serve
  starfield serve -c config.yaml --audio`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (defaults are used when omitted)")
	serveCmd.Flags().Bool("audio", false, "also run the audio service")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	withAudio, _ := cmd.Flags().GetBool("audio")

	logger.Info("starting server",
		"port", cfg.Port,
		"seed_count", *cfg.SeedCount,
		"keep_alive", cfg.KeepAlive.Duration().String(),
		"audio", withAudio,
	)

	opts := append(config.BuildOptions(cfg), starfield.WithLogger(logger))
	sf, err := starfield.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create Starfield: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runUntilShutdown(ctx, logger, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return sf.Start(gctx) })
		if withAudio {
			g.Go(func() error { return audio.Run(gctx, config.BuildAudioConfig(cfg), logger) })
		}
		return g.Wait()
	})
}

// runUntilShutdown runs fn and waits for it to return, giving up
// shutdownTimeout after ctx is cancelled.
func runUntilShutdown(ctx context.Context, logger *slog.Logger, fn func(context.Context) error) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- fn(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
