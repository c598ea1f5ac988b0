package api

import (
	"net/http"
	"time"

	"github.com/okian/terptaster/pkg/logger"
)

const defaultMaxLimit = 100

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps GET /leaderboard?limit.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithRateLimit limits each client IP to requests per window on the API
// routes. A non-positive count disables limiting.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimit = requests
		if window > 0 {
			s.rateLimitEvery = window
		}
	}
}

// WithDocs mounts the OpenAPI document and viewer handler.
func WithDocs(h http.Handler) Option {
	return func(s *Server) {
		s.docs = h
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
