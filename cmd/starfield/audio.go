package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/starfield/config"
	"github.com/jpalmerr/starfield/internal/audio"
)

// audioCmd starts the audio service on its own.
var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Start the audio service",
	Long: `Start the Starfield audio service without the star map.

The service answers star triggers with a sound effect, limits each user to
one trigger per cooldown, and logs accepted triggers to SQLite.

Example:
  starfield audio
  starfield audio -c config.yaml`,
	RunE: runAudio,
}

func init() {
	rootCmd.AddCommand(audioCmd)

	audioCmd.Flags().StringP("config", "c", "", "path to config file (defaults are used when omitted)")
}

func runAudio(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	audioCfg := config.BuildAudioConfig(cfg)
	return runUntilShutdown(ctx, logger, func(ctx context.Context) error {
		return audio.Run(ctx, audioCfg, logger)
	})
}
