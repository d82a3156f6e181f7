package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// janitorInterval is how often expired cooldown keys are purged.
const janitorInterval = time.Minute

// Run opens the event log, serves the audio API on cfg.Port and blocks until
// ctx is cancelled and the server has shut down.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	cfg = cfg.withDefaults()

	events, err := OpenSQLiteLog(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := events.Close(); err != nil {
			logger.Error("failed to close event log", "error", err)
		}
	}()

	cooldown := NewCooldown(cfg.Cooldown, janitorInterval)
	defer cooldown.Close()

	srv := NewServer(NewService(cfg, cooldown, events, logger), cfg.Port, logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start audio server: %w", err)
	}
	logger.Info("audio service available",
		"url", fmt.Sprintf("http://localhost:%d/api/audio", cfg.Port),
		"cooldown", cfg.Cooldown.String(),
		"db_path", cfg.DBPath,
	)

	<-srv.Done()
	logger.Info("audio service stopped")
	return nil
}
