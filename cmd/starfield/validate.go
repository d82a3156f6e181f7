package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/starfield/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a Starfield configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  starfield validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:          %d\n", cfg.Port)
	fmt.Printf("  Seed count:    %d\n", *cfg.SeedCount)
	fmt.Printf("  Keep-alive:    %s\n", cfg.KeepAlive.Duration())
	fmt.Printf("  Audio port:    %d\n", cfg.Audio.Port)
	fmt.Printf("  Cooldown:      %s\n", cfg.Audio.Cooldown.Duration())
	fmt.Printf("  Event log:     %s\n", cfg.Audio.DBPath)

	return nil
}
