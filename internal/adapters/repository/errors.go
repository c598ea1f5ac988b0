package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound       = errors.New("taster not found")
	ErrInvalidLimit   = errors.New("invalid leaderboard limit")
	ErrInvalidEntry   = errors.New("invalid leaderboard entry")
	ErrSessionMissing = errors.New("training session not found")
)
