// Package repository holds the in-memory palate leaderboard and the training
// session store.
package repository

import (
	"context"

	"github.com/okian/terptaster/internal/domain/types"
)

// Entry represents a leaderboard row.
type Entry = types.Entry

// Store provides read/write access to the ranking state.
type Store interface {
	// UpdateBest records e when its percentage is strictly higher than the
	// taster's current best. Returns true if the store changed.
	UpdateBest(ctx context.Context, e Entry) (bool, error)

	// Rank returns the competition rank and best entry for a taster.
	// Returns ErrNotFound if the taster is unknown.
	Rank(ctx context.Context, tasterID string) (Entry, error)

	// TopN returns the top-N entries ordered by percentage desc, tasterID asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of tasters on the leaderboard.
	Count(ctx context.Context) int
}
