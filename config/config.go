// Package config provides YAML configuration parsing for Starfield.
//
// This package enables running Starfield as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Starfield
//	port: 8000
//	seed_count: 150
//	keep_alive: 15s
//	subscriber_buffer: 256
//
//	audio:
//	  port: 8001
//	  cooldown: 1s
//	  db_path: ${STARFIELD_DATA:-./data}/audio.db
//	  effect_url: /static/sounds/star-twinkle.mp3
//	  effect_volume: 0.7
//	  music:
//	    track_id: spotify:track:xxx
//	    volume: 0.5
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort             = 8000
	defaultSeedCount        = 150
	defaultKeepAlive        = 15 * time.Second
	defaultSubscriberBuffer = 256

	defaultAudioPort     = 8001
	defaultAudioCooldown = 1 * time.Second
	defaultAudioDBPath   = "./data/audio.db"
	defaultEffectURL     = "/static/sounds/star-twinkle.mp3"
	defaultEffectVolume  = 0.7
	defaultTrackID       = "spotify:track:xxx"
	defaultMusicVolume   = 0.5
)

// minKeepAlive keeps streams from flooding clients with keep-alive comments.
const minKeepAlive = 1 * time.Second

// Config is the root configuration structure for Starfield.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the page title. Defaults to "Starfield" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8000.
	Port int `yaml:"port"`

	// SeedCount is the number of random stars created at startup.
	// Defaults to 150; an explicit 0 starts with an empty map.
	SeedCount *int `yaml:"seed_count"`

	// Seed makes the startup stars reproducible when set.
	Seed *uint64 `yaml:"seed"`

	// KeepAlive is how long a stream may be idle before a keep-alive is sent.
	// Defaults to 15s.
	KeepAlive Duration `yaml:"keep_alive"`

	// SubscriberBuffer is the number of pending updates a stream may hold
	// before it is disconnected. Defaults to 256.
	SubscriberBuffer int `yaml:"subscriber_buffer"`

	// Audio configures the companion audio service.
	Audio AudioConfig `yaml:"audio"`
}

// AudioConfig configures the audio service.
type AudioConfig struct {
	// Port is the audio HTTP server port. Defaults to 8001.
	Port int `yaml:"port"`

	// Cooldown is the minimum time between two accepted triggers of one user.
	// Defaults to 1s.
	Cooldown Duration `yaml:"cooldown"`

	// DBPath is the SQLite event log file. Use ":memory:" for a log that is
	// discarded on exit. Supports environment variable substitution.
	DBPath string `yaml:"db_path"`

	// EffectURL is the sound returned for accepted triggers.
	EffectURL string `yaml:"effect_url"`

	// EffectVolume is the volume returned with the effect, in [0, 1].
	// Defaults to 0.7 when unset; 0 mutes.
	EffectVolume *float64 `yaml:"effect_volume"`

	// Music is the background track reported by the music endpoint.
	Music MusicConfig `yaml:"music"`
}

// MusicConfig describes the background track.
type MusicConfig struct {
	TrackID string   `yaml:"track_id"`
	Volume  *float64 `yaml:"volume"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in Title, Audio.DBPath, Audio.EffectURL
// and Audio.Music.TrackID. Defaults are applied to every unset field.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	// checked on effective values so a default port counts as taken
	if cfg.Port == cfg.Audio.Port {
		return nil, fmt.Errorf("audio.port must differ from port, both are %d", cfg.Port)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.SeedCount == nil {
		n := defaultSeedCount
		c.SeedCount = &n
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = Duration(defaultKeepAlive)
	}
	if c.SubscriberBuffer == 0 {
		c.SubscriberBuffer = defaultSubscriberBuffer
	}

	a := &c.Audio
	if a.Port == 0 {
		a.Port = defaultAudioPort
	}
	if a.Cooldown == 0 {
		a.Cooldown = Duration(defaultAudioCooldown)
	}
	if a.DBPath == "" {
		a.DBPath = defaultAudioDBPath
	}
	if a.EffectURL == "" {
		a.EffectURL = defaultEffectURL
	}
	if a.EffectVolume == nil {
		v := defaultEffectVolume
		a.EffectVolume = &v
	}
	if a.Music.TrackID == "" {
		a.Music.TrackID = defaultTrackID
	}
	if a.Music.Volume == nil {
		v := defaultMusicVolume
		a.Music.Volume = &v
	}
}

// expandAndValidate expands environment variables and validates the config.
// Zero values are accepted here; they are replaced by defaults afterwards.
func (c *Config) expandAndValidate() error {
	expand := func(field string, s *string) error {
		expanded, err := expandEnvVars(*s)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		*s = expanded
		return nil
	}

	if err := expand("title", &c.Title); err != nil {
		return err
	}
	if err := validatePort("port", c.Port); err != nil {
		return err
	}
	if c.SeedCount != nil && *c.SeedCount < 0 {
		return fmt.Errorf("seed_count cannot be negative, got %d", *c.SeedCount)
	}
	if c.KeepAlive != 0 && c.KeepAlive.Duration() < minKeepAlive {
		return fmt.Errorf("keep_alive must be at least %s, got %s", minKeepAlive, c.KeepAlive.Duration())
	}
	if c.SubscriberBuffer < 0 {
		return fmt.Errorf("subscriber_buffer cannot be negative, got %d", c.SubscriberBuffer)
	}

	a := &c.Audio
	if err := validatePort("audio.port", a.Port); err != nil {
		return err
	}
	if a.Cooldown < 0 {
		return fmt.Errorf("audio.cooldown cannot be negative, got %s", a.Cooldown.Duration())
	}
	if err := expand("audio.db_path", &a.DBPath); err != nil {
		return err
	}
	if err := expand("audio.effect_url", &a.EffectURL); err != nil {
		return err
	}
	if err := validateVolume("audio.effect_volume", a.EffectVolume); err != nil {
		return err
	}
	if err := expand("audio.music.track_id", &a.Music.TrackID); err != nil {
		return err
	}
	if err := validateVolume("audio.music.volume", a.Music.Volume); err != nil {
		return err
	}

	return nil
}

func validatePort(field string, port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", field, port)
	}
	return nil
}

func validateVolume(field string, v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return fmt.Errorf("%s must be between 0 and 1, got %g", field, *v)
	}
	return nil
}
