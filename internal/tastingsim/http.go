package tastingsim

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/terptaster/pkg/logger"
)

const (
	maxRetries     = 5
	retryBaseDelay = 50 * time.Millisecond
)

type result int

const (
	resultAccepted result = iota
	resultDuplicate
	resultFailed
)

// client wraps http.Client with JSON helpers.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *client) get(ctx context.Context, path string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, v)
}

func (c *client) post(ctx context.Context, path string, body, v any) (int, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

// do sends req and decodes a 2xx body into v when v is not nil.
func (c *client) do(req *http.Request, v any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if v != nil {
		if err := json.Unmarshal(body, v); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// submitTastings posts tastings concurrently. Backpressure responses are
// retried with exponential backoff.
func submitTastings(ctx context.Context, cfg *Config, c *client, tastings []Tasting, stats *Stats) {
	log := logger.Named("tastingsim")
	log.Info(ctx, "submitting tastings", logger.Int("count", len(tastings)), logger.Int("workers", cfg.Workers))

	var accepted, duplicate, failed, submitted, retries atomic.Int64
	work := make(chan Tasting, cfg.Workers*2)
	var wg sync.WaitGroup

	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range work {
				res, tries := submitOne(ctx, c, t)
				submitted.Add(1)
				retries.Add(int64(tries))
				switch res {
				case resultAccepted:
					accepted.Add(1)
				case resultDuplicate:
					duplicate.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, t := range tastings {
			select {
			case <-ctx.Done():
				return
			case work <- t:
			}
		}
	}()
	wg.Wait()

	stats.TastingsSubmitted = int(submitted.Load())
	stats.TastingsAccepted = int(accepted.Load())
	stats.TastingsDuplicate = int(duplicate.Load())
	stats.TastingsFailed = int(failed.Load())
	stats.Retries = int(retries.Load())
	log.Info(ctx, "tasting submission completed",
		logger.Int("accepted", stats.TastingsAccepted),
		logger.Int("duplicate", stats.TastingsDuplicate),
		logger.Int("failed", stats.TastingsFailed),
		logger.Int("retries", stats.Retries),
	)
}

func submitOne(ctx context.Context, c *client, t Tasting) (result, int) { //nolint:gocritic // hugeParam: copied per worker
	delay := retryBaseDelay
	for attempt := 0; ; attempt++ {
		var ack AckResponse
		status, err := c.post(ctx, "/tastings", t, &ack)
		switch {
		case err == nil && status == http.StatusAccepted:
			return resultAccepted, attempt
		case err == nil && ack.Duplicate:
			return resultDuplicate, attempt
		case status == http.StatusTooManyRequests && attempt < maxRetries:
			select {
			case <-ctx.Done():
				return resultFailed, attempt
			case <-time.After(delay):
			}
			delay *= 2
		default:
			logger.Named("tastingsim").Debug(ctx, "tasting failed",
				logger.String("submissionId", t.SubmissionID),
				logger.Int("status", status),
				logger.Error(err),
			)
			return resultFailed, attempt
		}
	}
}

// retrieveRankings fetches /rank for every taster concurrently. Tasters the
// service does not know are left out of the result.
func retrieveRankings(ctx context.Context, cfg *Config, c *client, tasterIDs []string, stats *Stats) map[string]Entry {
	log := logger.Named("tastingsim")
	log.Info(ctx, "retrieving rankings", logger.Int("tasters", len(tasterIDs)))

	var (
		mu  sync.Mutex
		out = make(map[string]Entry, len(tasterIDs))
		wg  sync.WaitGroup
	)
	ids := make(chan string)
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				var e Entry
				if _, err := c.get(ctx, "/rank/"+url.PathEscape(id), &e); err != nil {
					log.Debug(ctx, "rank lookup failed", logger.String("tasterId", id), logger.Error(err))
					continue
				}
				mu.Lock()
				out[id] = e
				mu.Unlock()
			}
		}()
	}
	for _, id := range tasterIDs {
		ids <- id
	}
	close(ids)
	wg.Wait()

	stats.RankingsRetrieved = len(out)
	log.Info(ctx, "ranking retrieval completed", logger.Int("retrieved", len(out)))
	return out
}

// getLeaderboard fetches the top N entries.
func getLeaderboard(ctx context.Context, cfg *Config, c *client, stats *Stats) ([]Entry, error) {
	var entries []Entry
	if _, err := c.get(ctx, fmt.Sprintf("/leaderboard?limit=%d", cfg.TopN), &entries); err != nil {
		return nil, fmt.Errorf("leaderboard request failed: %w", err)
	}
	stats.LeaderboardEntries = len(entries)
	return entries, nil
}

// waitForDrain polls /stats until the service has processed accepted
// tastings or the settle window passes.
func waitForDrain(ctx context.Context, cfg *Config, c *client, accepted int) error {
	deadline := time.Now().Add(cfg.SettleWait)
	for {
		var stats struct {
			QueueLength int   `json:"queueLength"`
			Processed   int64 `json:"processed"`
		}
		if _, err := c.get(ctx, "/stats", &stats); err != nil {
			return fmt.Errorf("stats request failed: %w", err)
		}
		if stats.QueueLength == 0 && stats.Processed >= int64(accepted) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("pipeline did not drain within %s: queue=%d processed=%d accepted=%d",
				cfg.SettleWait, stats.QueueLength, stats.Processed, accepted)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
