package config

import (
	"github.com/jpalmerr/starfield"
	"github.com/jpalmerr/starfield/internal/audio"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The logger is not part of the file format; callers append
// [starfield.WithLogger] themselves.
func BuildOptions(cfg *Config) []starfield.Option {
	opts := []starfield.Option{
		starfield.WithTitle(cfg.Title),
		starfield.WithPort(cfg.Port),
		starfield.WithKeepAlive(cfg.KeepAlive.Duration()),
		starfield.WithSubscriberBuffer(cfg.SubscriberBuffer),
	}

	if cfg.SeedCount != nil {
		opts = append(opts, starfield.WithSeedCount(*cfg.SeedCount))
	}
	if cfg.Seed != nil {
		opts = append(opts, starfield.WithSeed(*cfg.Seed))
	}

	return opts
}

// BuildAudioConfig converts the audio section into an [audio.Config].
func BuildAudioConfig(cfg *Config) audio.Config {
	a := cfg.Audio
	return audio.Config{
		Port:         a.Port,
		Cooldown:     a.Cooldown.Duration(),
		DBPath:       a.DBPath,
		EffectURL:    a.EffectURL,
		EffectVolume: a.EffectVolume,
		TrackID:      a.Music.TrackID,
		MusicVolume:  a.Music.Volume,
	}
}
