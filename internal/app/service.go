// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"strings"
	"sync"
	"time"

	tastingqueue "github.com/okian/terptaster/internal/adapters/mq/queue"
	workerpool "github.com/okian/terptaster/internal/adapters/mq/worker"
	"github.com/okian/terptaster/internal/adapters/repository"
	"github.com/okian/terptaster/internal/domain/dedupe"
	"github.com/okian/terptaster/internal/domain/model"
	"github.com/okian/terptaster/internal/domain/scoring"
	"github.com/okian/terptaster/internal/domain/terpene"
	"github.com/okian/terptaster/internal/domain/training"
	"github.com/okian/terptaster/internal/domain/types"
	"github.com/okian/terptaster/pkg/logger"
	"github.com/okian/terptaster/pkg/metrics"
)

// ErrNotStarted is returned by pipeline calls made before Start.
var ErrNotStarted = errors.New("service not started")

// scoringAdapter adapts scoring.Scorer to worker.Scorer.
type scoringAdapter struct {
	scorer *scoring.Scorer
}

func (a scoringAdapter) Score(_ context.Context, t model.Tasting) (scoring.ScoreCard, error) { //nolint:gocritic // hugeParam: matches worker.Scorer
	return a.scorer.ScoreTerpenes(t.ScoringInput()), nil
}

// Service implements the API dependencies for the scorer, catalog,
// palate leaderboard and training game.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog     *terpene.Catalog
	scorer      *scoring.Scorer
	game        *training.Game
	sessions    *repository.SessionStore
	leaderboard repository.Store
	deduper     dedupe.Deduper
	queue       tastingqueue.Queue
	workerPool  *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	terpeneData string
	sessionTTL  time.Duration
	maxSessions int
	rng         *rand.Rand

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the tasting queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache. Zero means unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithTerpeneData loads the catalog from a JSON file instead of the embedded dataset.
func WithTerpeneData(path string) Option {
	return func(s *Service) {
		s.terpeneData = strings.TrimSpace(path)
	}
}

// WithCatalog uses an already built catalog. It takes precedence over WithTerpeneData.
func WithCatalog(c *terpene.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithSessionTTL sets how long an idle training session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithMaxSessions bounds the number of live training sessions. Zero means unbounded.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSessions = n
		}
	}
}

// WithRand fixes the random source used to deal training rounds.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   10_000,
		dedupeSize:  50_000,
		sessionTTL:  30 * time.Minute,
		maxSessions: 10_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the catalog and starts the tasting pipeline.
func (s *Service) Start(ctx context.Context) error {
	const op = "service.start"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting terptaster service...")

	if s.catalog == nil {
		c, err := terpene.LoadCatalog(ctx, s.terpeneData)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.catalog = c
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // game dealing, not security
	}

	s.scorer = scoring.New(s.catalog)
	s.game = training.NewGame(s.catalog, s.rng)
	s.sessions = repository.NewSessionStore(
		repository.WithTTL(s.sessionTTL),
		repository.WithMaxSessions(s.maxSessions),
	)
	s.leaderboard = repository.NewTreapStore()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = tastingqueue.NewInMemoryQueue(tastingqueue.WithCapacity(s.queueSize))

	// Workers outlive the caller's context so Stop can drain the queue.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, scoringAdapter{scorer: s.scorer}, s.leaderboard)
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "terptaster service started",
		logger.Int("terpenes", s.catalog.Len()),
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue, waits for workers to drain it and releases the
// pipeline. Tastings still queued when ctx expires are dropped.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping terptaster service...")

	err := s.workerPool.Shutdown(ctx)
	s.cancel()
	s.started = false
	s.logger.Info(ctx, "terptaster service stopped",
		logger.Any("processed", s.workerPool.Processed()),
	)
	if err != nil {
		return fmt.Errorf("service.stop: %w", err)
	}
	return nil
}

// ScoreTerpenes applies the per-terpene formula.
func (s *Service) ScoreTerpenes(_ context.Context, in scoring.Input) scoring.ScoreCard {
	start := time.Now()
	defer func() { metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds())) }()
	return s.scorer.ScoreTerpenes(in)
}

// ScorePalate applies the per-flavor formula.
func (s *Service) ScorePalate(_ context.Context, in scoring.Input) scoring.PalateCard {
	start := time.Now()
	defer func() { metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds())) }()
	return s.scorer.ScorePalate(in)
}

// Terpenes returns the catalog in dataset order.
func (s *Service) Terpenes(context.Context) []terpene.Terpene { return s.catalog.Terpenes() }

// Terpene looks up one terpene by exact name.
func (s *Service) Terpene(_ context.Context, name string) (terpene.Terpene, error) {
	t, ok := s.catalog.Lookup(strings.TrimSpace(name))
	if !ok {
		return terpene.Terpene{}, fmt.Errorf("service.terpene: %w: %q", terpene.ErrUnknownTerpene, name)
	}
	return t, nil
}

// Flavors returns every distinct flavor, sorted.
func (s *Service) Flavors(context.Context) []string { return s.catalog.Flavors() }

// TerpenesForFlavor returns the terpenes that list flavor.
func (s *Service) TerpenesForFlavor(_ context.Context, flavor string) ([]string, error) {
	names := s.catalog.TerpenesForFlavor(strings.TrimSpace(flavor))
	if len(names) == 0 {
		return nil, fmt.Errorf("service.terpenes_for_flavor: %w: %q", terpene.ErrUnknownFlavor, flavor)
	}
	return names, nil
}

// ExpectedFlavors returns the flavors a selection should produce.
func (s *Service) ExpectedFlavors(_ context.Context, selected []string) []string {
	return s.catalog.ExpectedFlavors(selected)
}

// SeenAndRecord atomically checks if a submission id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a submission id so it can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a tasting for asynchronous scoring. The error wraps
// queue.ErrQueueFull on backpressure and queue.ErrClosed after Stop.
func (s *Service) Enqueue(ctx context.Context, t model.Tasting) error { //nolint:gocritic // hugeParam: passed by value like the queue
	const op = "service.enqueue"
	if s.queue == nil {
		return fmt.Errorf("%s: %w", op, ErrNotStarted)
	}
	s.logger.Debug(ctx, "enqueueing tasting",
		logger.String("submissionId", t.SubmissionID),
		logger.String("tasterId", t.TasterID),
		logger.Int("selected", len(t.SelectedTerpenes)),
	)
	if err := s.queue.Enqueue(ctx, t); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.leaderboard.TopN(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("service.top_n: %w", err)
	}
	return entries, nil
}

// Rank returns the leaderboard entry for a taster.
func (s *Service) Rank(ctx context.Context, tasterID string) (types.Entry, error) {
	entry, err := s.leaderboard.Rank(ctx, tasterID)
	if err != nil {
		return types.Entry{}, fmt.Errorf("service.rank: %w", err)
	}
	return entry, nil
}

// StartSession opens a training session at difficulty d.
func (s *Service) StartSession(ctx context.Context, d training.Difficulty) (training.View, error) {
	const op = "service.start_session"
	sess, err := training.NewSession(s.game, d)
	if err != nil {
		return training.View{}, fmt.Errorf("%s: %w", op, err)
	}
	stored, err := s.sessions.Create(ctx, sess)
	if err != nil {
		return training.View{}, fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordTrainingSessionStarted(string(d))
	s.logger.Debug(ctx, "training session started",
		logger.String("sessionId", stored.ID),
		logger.String("difficulty", string(d)),
	)
	return stored.View(), nil
}

// Session returns the current state of a training session.
func (s *Service) Session(ctx context.Context, id string) (training.View, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return training.View{}, fmt.Errorf("service.session: %w", err)
	}
	return sess.View(), nil
}

// Guess answers the current round.
func (s *Service) Guess(ctx context.Context, id, guess string) (training.View, error) {
	var correct bool
	sess, err := s.sessions.Update(ctx, id, func(cur *training.Session) error {
		ok, err := cur.Guess(guess)
		correct = ok
		return err
	})
	if err != nil {
		return training.View{}, fmt.Errorf("service.guess: %w", err)
	}
	outcome := "wrong"
	if correct {
		outcome = "correct"
	}
	metrics.RecordTrainingGuess(string(sess.Difficulty), outcome)
	return sess.View(), nil
}

// Hint reveals the next clue of the current round.
func (s *Service) Hint(ctx context.Context, id string) (training.View, error) {
	sess, err := s.sessions.Update(ctx, id, func(cur *training.Session) error {
		_, err := cur.Hint()
		return err
	})
	if err != nil {
		return training.View{}, fmt.Errorf("service.hint: %w", err)
	}
	metrics.RecordTrainingHint()
	return sess.View(), nil
}

// NextRound deals the next round once the current one is revealed.
func (s *Service) NextRound(ctx context.Context, id string) (training.View, error) {
	sess, err := s.sessions.Update(ctx, id, func(cur *training.Session) error {
		return cur.Next(s.game)
	})
	if err != nil {
		return training.View{}, fmt.Errorf("service.next_round: %w", err)
	}
	return sess.View(), nil
}

// RestartSession clears strikes and streak and deals a new round.
func (s *Service) RestartSession(ctx context.Context, id string) (training.View, error) {
	sess, err := s.sessions.Update(ctx, id, func(cur *training.Session) error {
		cur.Restart(s.game)
		return nil
	})
	if err != nil {
		return training.View{}, fmt.Errorf("service.restart_session: %w", err)
	}
	return sess.View(), nil
}

// EndSession discards a training session.
func (s *Service) EndSession(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.end_session: %w", err)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if s.catalog != nil {
		stats["terpenes"] = s.catalog.Len()
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		totalTasters := s.leaderboard.Count(ctx)
		activeSessions := s.sessions.Len(ctx)

		stats["queueLength"] = queueLen
		stats["queueCapacity"] = s.queue.Capacity()
		stats["processed"] = s.workerPool.Processed()
		stats["totalTasters"] = totalTasters
		stats["activeSessions"] = activeSessions
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateQueueCapacity(s.queue.Capacity())
		metrics.UpdateTotalTasters(totalTasters)
		metrics.UpdateTrainingSessionsActive(activeSessions)
		metrics.UpdateWorkerCount(s.workerPool.Size())
	}
	return stats
}
