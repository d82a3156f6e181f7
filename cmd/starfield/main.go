// Package main is the entry point for the starfield CLI.
//
// Starfield can be run either as a library (SDK) or as a standalone binary
// with optional YAML configuration. This CLI provides the standalone binary.
//
// Usage:
//
//	starfield serve [-c config.yaml] [--audio] # Start the star map
//	starfield audio [-c config.yaml]           # Start the audio service
//	starfield validate -c config.yaml          # Validate configuration
//	starfield version                          # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "starfield",
	Short: "A shared, live-updating star map",
	Long: `Starfield serves a shared map of stars that anyone can add to.

Clients load the stars inside their viewport and keep a Server-Sent Events
or WebSocket stream open to see stars appear and disappear in real time.
A companion audio service plays a sound when a star is placed.

Quick start:
  1. Run: starfield serve --audio
  2. Open http://localhost:8000 in your browser

Example config:
  port: 8000
  seed_count: 150
  keep_alive: 15s
  audio:
    port: 8001
    cooldown: 1s`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this starfield binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("starfield %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
