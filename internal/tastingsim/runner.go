package tastingsim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/terptaster/internal/domain/terpene"
	"github.com/okian/terptaster/pkg/logger"
)

const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run generates tastings, submits them, waits for the pipeline to drain and
// verifies ranks and the leaderboard against locally computed scores.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Named("tastingsim")
	stats := &Stats{StartTime: time.Now()}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano()) //nolint:gosec // non-negative wall clock
	}

	log.Info(ctx, "starting tasting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("tastings", cfg.NumTastings),
		logger.Int("tasters", cfg.NumTasters),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if _, err := c.get(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	tastings, expected := NewGenerator(terpene.Default(), cfg.Seed).Generate(cfg.NumTastings, cfg.NumTasters)
	stats.TastingsGenerated = len(tastings)

	submitTastings(ctx, cfg, c, tastings, stats)
	if stats.TastingsFailed > 0 {
		return stats, fmt.Errorf("%d tastings failed to submit", stats.TastingsFailed)
	}
	if err := waitForDrain(ctx, cfg, c, stats.TastingsAccepted); err != nil {
		return stats, err
	}

	tasterIDs := make([]string, 0, len(expected))
	for id := range expected {
		tasterIDs = append(tasterIDs, id)
	}
	sort.Strings(tasterIDs)
	rankings := retrieveRankings(ctx, cfg, c, tasterIDs, stats)
	if err := verifyRankings(ctx, expected, rankings, stats); err != nil {
		return stats, err
	}

	board, err := getLeaderboard(ctx, cfg, c, stats)
	if err != nil {
		return stats, err
	}
	if err := verifyLeaderboard(expected, board); err != nil {
		return stats, err
	}

	if cfg.OutputFile != "" {
		if err := saveTastings(cfg.OutputFile, tastings); err != nil {
			log.Warn(ctx, "failed to save tastings", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func saveTastings(filename string, tastings []Tasting) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	raw, err := json.MarshalIndent(tastings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tastings: %w", err)
	}
	if err := os.WriteFile(filename, raw, filePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.TastingsSubmitted) / stats.Duration.Seconds()
	}
	logger.Named("tastingsim").Info(ctx, "final statistics",
		logger.Int("generated", stats.TastingsGenerated),
		logger.Int("submitted", stats.TastingsSubmitted),
		logger.Int("accepted", stats.TastingsAccepted),
		logger.Int("duplicate", stats.TastingsDuplicate),
		logger.Int("failed", stats.TastingsFailed),
		logger.Int("retries", stats.Retries),
		logger.Int("rankings", stats.RankingsRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("tastingsPerSecond", perSecond),
	)
}
