package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/okian/terptaster/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: percentage DESC, then tasterID ASC (deterministic). "less" means
// ranks earlier, so in-order traversal yields the leaderboard best to worst.
// Node sizes make rank lookups O(log n).

type node struct {
	id    string
	pct   int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aPct, aID) should appear before (bPct, bID).
func less(aPct int, aID string, bPct int, bID string) bool {
	if aPct != bPct {
		return aPct > bPct
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, pct int, prio uint64) *node {
	if n == nil {
		return &node{id: id, pct: pct, prio: prio, size: 1}
	}
	if less(pct, id, n.pct, n.id) {
		n.left = insert(n.left, id, pct, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, pct, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, pct int) *node {
	if n == nil {
		return nil
	}
	switch {
	case pct == n.pct && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, pct)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, pct)
		}
	case less(pct, id, n.pct, n.id):
		n.left = deleteNode(n.left, id, pct)
	default:
		n.right = deleteNode(n.right, id, pct)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes hold a percentage strictly above pct.
func countAbove(n *node, pct int) int {
	count := 0
	for n != nil {
		if n.pct > pct {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, byID map[string]Entry, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, byID, out)
	if len(*out) < limit {
		*out = append(*out, byID[n.id])
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, byID, out)
	}
}

// assignCompetitionRanks numbers entries 1,1,3 style. Entries must start at
// the top of the leaderboard and be in rank order.
func assignCompetitionRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Percentage == entries[i-1].Percentage {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// TreapStore keeps each taster's best entry ordered for ranking.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]Entry
	seed uint64
	rng  *rand.Rand
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]Entry),
		seed: uint64(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15)) //nolint:gosec // treap balance only
	metrics.UpdateTotalTasters(0)
	return s
}

// UpdateBest implements Store.UpdateBest with O(log n) expected time.
func (s *TreapStore) UpdateBest(_ context.Context, e Entry) (bool, error) {
	const op = "repository.update_best"

	e.TasterID = strings.TrimSpace(e.TasterID)
	if e.TasterID == "" || e.Percentage < 0 || e.Percentage > 100 {
		metrics.RecordErrorByComponent("repository", "invalid_entry")
		return false, fmt.Errorf("%s: %w", op, ErrInvalidEntry)
	}
	e.Rank = 0

	s.mu.Lock()
	if old, ok := s.byID[e.TasterID]; ok {
		if e.Percentage <= old.Percentage {
			s.mu.Unlock()
			return false, nil
		}
		s.root = deleteNode(s.root, old.TasterID, old.Percentage)
	}
	s.byID[e.TasterID] = e
	s.root = insert(s.root, e.TasterID, e.Percentage, s.rng.Uint64())
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateTotalTasters(count)
	return true, nil
}

// Rank returns the competition rank and best entry for a taster in O(log n).
func (s *TreapStore) Rank(_ context.Context, tasterID string) (Entry, error) {
	const op = "repository.rank"
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[tasterID]
	if !ok {
		return Entry{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	e.Rank = countAbove(s.root, e.Percentage) + 1
	return e, nil
}

// TopN returns the top N entries ordered by percentage desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	const op = "repository.top_n"
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidLimit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	assignCompetitionRanks(out)
	return out, nil
}

// Count returns the total number of tasters.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
