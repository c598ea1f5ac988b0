// Package config defines service configuration and how it is loaded.
//
// Conventions:
// - New(ctx) builds a Config with defaults; Load layers file and env on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// QueueSize bounds the in-memory tasting queue.
	QueueSize int `koanf:"queue_size" validate:"gt=0"`

	// WorkerCount sets the number of scoring workers. Zero picks a CPU multiple.
	WorkerCount int `koanf:"worker_count" validate:"gte=0"`

	// DedupeSize bounds remembered submission ids. Zero means unbounded.
	DedupeSize int `koanf:"dedupe_size" validate:"gte=0"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit" validate:"gt=0"`

	// TerpeneData points at a JSON dataset replacing the embedded one.
	TerpeneData string `koanf:"terpene_data"`

	// SessionTTLSeconds is how long an idle training session is kept.
	SessionTTLSeconds int `koanf:"session_ttl_seconds" validate:"gt=0"`

	// MaxSessions bounds stored training sessions. Zero means unbounded.
	MaxSessions int `koanf:"max_sessions" validate:"gte=0"`

	// CORSAllowedOrigins lists origins allowed by the CORS middleware.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// RateLimitRequests per RateLimitWindowSeconds per client IP. Zero disables.
	RateLimitRequests      int `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindowSeconds int `koanf:"rate_limit_window_seconds" validate:"gt=0"`
}

// New creates a Config populated with defaults. Context is accepted first to
// follow the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		QueueSize:              10_000,
		WorkerCount:            runtime.NumCPU() * 2,
		DedupeSize:             50_000,
		MaxLeaderboardLimit:    100,
		SessionTTLSeconds:      1800,
		MaxSessions:            10_000,
		CORSAllowedOrigins:     []string{"*"},
		RateLimitRequests:      300,
		RateLimitWindowSeconds: 60,
	}
}

// SessionTTL returns SessionTTLSeconds as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// RateLimitWindow returns RateLimitWindowSeconds as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}
