package audio

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jpalmerr/starfield/internal/metrics"
)

var (
	// ErrRateLimited is returned when a user triggers again within the cooldown.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUserRequired is returned when a trigger carries no user ID.
	ErrUserRequired = errors.New("user_id is required")
)

// Defaults used by [Config.withDefaults].
const (
	DefaultPort         = 8001
	DefaultCooldown     = 1 * time.Second
	DefaultEffectURL    = "/static/sounds/star-twinkle.mp3"
	DefaultEffectVolume = 0.7
	DefaultTrackID      = "spotify:track:xxx"
	DefaultMusicVolume  = 0.5
)

// Effect is the sound to play for an accepted trigger.
type Effect struct {
	EffectURL string  `json:"effect_url"`
	Volume    float64 `json:"volume"`
}

// Track describes the current background music.
type Track struct {
	TrackID string  `json:"track_id"`
	Volume  float64 `json:"volume"`
}

// Config holds the audio service settings. Zero fields take defaults.
// A nil volume takes the default; an explicit 0 mutes.
type Config struct {
	Port         int
	Cooldown     time.Duration
	DBPath       string
	EffectURL    string
	EffectVolume *float64
	TrackID      string
	MusicVolume  *float64
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Cooldown == 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.EffectURL == "" {
		c.EffectURL = DefaultEffectURL
	}
	if c.EffectVolume == nil {
		v := DefaultEffectVolume
		c.EffectVolume = &v
	}
	if c.TrackID == "" {
		c.TrackID = DefaultTrackID
	}
	if c.MusicVolume == nil {
		v := DefaultMusicVolume
		c.MusicVolume = &v
	}
	return c
}

// Service implements star triggers and music lookup.
type Service struct {
	effect   Effect
	music    Track
	cooldown *Cooldown
	events   EventLog
	logger   *slog.Logger
}

// NewService creates a [Service]. The cooldown and event log are owned by
// the caller.
func NewService(cfg Config, cooldown *Cooldown, events EventLog, logger *slog.Logger) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		effect:   Effect{EffectURL: cfg.EffectURL, Volume: *cfg.EffectVolume},
		music:    Track{TrackID: cfg.TrackID, Volume: *cfg.MusicVolume},
		cooldown: cooldown,
		events:   events,
		logger:   logger,
	}
}

// Trigger returns the star effect for userID, or [ErrRateLimited] if the
// user triggered within the cooldown.
//
// The event log is secondary: a failed write is logged and counted but the
// effect is still returned.
func (s *Service) Trigger(ctx context.Context, userID string, starID int64) (Effect, error) {
	if strings.TrimSpace(userID) == "" {
		metrics.AudioTriggers.WithLabelValues("invalid").Inc()
		return Effect{}, ErrUserRequired
	}

	if !s.cooldown.Acquire("star_sound:" + userID) {
		metrics.AudioTriggers.WithLabelValues("rate_limited").Inc()
		s.logger.Debug("star trigger rate limited", "user_id", userID, "star_id", starID)
		return Effect{}, ErrRateLimited
	}

	_, err := s.events.Record(ctx, Event{
		EventType: EventStarPlace,
		UserID:    userID,
		Metadata:  map[string]any{"star_id": starID},
	})
	if err != nil {
		metrics.AudioEventLogErrors.Inc()
		s.logger.Error("failed to log audio event", "user_id", userID, "star_id", starID, "error", err)
	}

	metrics.AudioTriggers.WithLabelValues("accepted").Inc()
	return s.effect, nil
}

// CurrentMusic returns the configured background track.
func (s *Service) CurrentMusic() Track {
	return s.music
}

// RecentEvents returns up to limit logged events, newest first.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	return s.events.Recent(ctx, limit)
}
