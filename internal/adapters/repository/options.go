package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithSeed fixes the treap priority source, for reproducible shapes in tests.
func WithSeed(seed uint64) Option {
	return func(s *TreapStore) {
		s.seed = seed
	}
}

// SessionOption applies a configuration option to the SessionStore.
type SessionOption func(*SessionStore)

// WithTTL sets how long an untouched session is kept.
func WithTTL(ttl time.Duration) SessionOption {
	return func(s *SessionStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxSessions bounds the number of stored sessions. Zero means unbounded.
func WithMaxSessions(n int) SessionOption {
	return func(s *SessionStore) {
		if n >= 0 {
			s.max = n
		}
	}
}

// WithClock replaces time.Now, for expiry tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}
