package tastingsim

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/terptaster/pkg/logger"
)

// ErrMismatch reports that the service disagrees with the locally computed scores.
var ErrMismatch = errors.New("leaderboard mismatch")

// verifyRankings compares each taster's served percentage with the expected best.
func verifyRankings(ctx context.Context, expected map[string]int, rankings map[string]Entry, stats *Stats) error {
	var mismatches []string
	for id, want := range expected {
		got, ok := rankings[id]
		switch {
		case !ok:
			mismatches = append(mismatches, fmt.Sprintf("%s missing", id))
		case got.Percentage != want:
			mismatches = append(mismatches, fmt.Sprintf("%s: got %d want %d", id, got.Percentage, want))
		}
	}
	stats.RankMismatches = len(mismatches)
	if len(mismatches) == 0 {
		logger.Named("tastingsim").Info(ctx, "rankings verified", logger.Int("tasters", len(expected)))
		return nil
	}
	sort.Strings(mismatches)
	return fmt.Errorf("%w: %d tasters differ, first: %s", ErrMismatch, len(mismatches), mismatches[0])
}

// verifyLeaderboard checks ordering and competition ranks of a top-N page
// against the expected best scores.
func verifyLeaderboard(expected map[string]int, board []Entry) error {
	want := make([]Entry, 0, len(expected))
	for id, pct := range expected {
		want = append(want, Entry{TasterID: id, Percentage: pct})
	}
	sort.Slice(want, func(i, j int) bool {
		if want[i].Percentage != want[j].Percentage {
			return want[i].Percentage > want[j].Percentage
		}
		return want[i].TasterID < want[j].TasterID
	})
	for i := range want {
		want[i].Rank = i + 1
		if i > 0 && want[i].Percentage == want[i-1].Percentage {
			want[i].Rank = want[i-1].Rank
		}
	}

	if len(board) > len(want) {
		return fmt.Errorf("%w: leaderboard has %d entries, only %d tasters", ErrMismatch, len(board), len(want))
	}
	for i, got := range board {
		w := want[i]
		if got.TasterID != w.TasterID || got.Percentage != w.Percentage || got.Rank != w.Rank {
			return fmt.Errorf("%w: position %d got %s/%d/#%d want %s/%d/#%d", ErrMismatch, i,
				got.TasterID, got.Percentage, got.Rank, w.TasterID, w.Percentage, w.Rank)
		}
	}
	return nil
}
