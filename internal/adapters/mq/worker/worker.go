// Package worker scores queued tastings and feeds the palate leaderboard.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/terptaster/internal/domain/model"
	"github.com/okian/terptaster/internal/domain/scoring"
	"github.com/okian/terptaster/internal/domain/types"
	"github.com/okian/terptaster/pkg/logger"
	"github.com/okian/terptaster/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Tasting abstracts what workers read off the queue.
type Tasting = model.Tasting

// Updater records a leaderboard entry when it beats the taster's best.
type Updater interface {
	UpdateBest(ctx context.Context, e types.Entry) (bool, error)
}

// Scorer computes the score card for a tasting.
type Scorer interface {
	Score(ctx context.Context, t Tasting) (scoring.ScoreCard, error)
}

// Queue defines how workers receive tastings.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Tasting
}

// Worker processes tastings and writes score updates using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing tastings.
type InMemoryWorker struct {
	queue       Queue
	scorer      Scorer
	updater     Updater
	name        string
	onProcessed func()

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, scorer Scorer, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       queue,
		scorer:      scorer,
		updater:     updater,
		name:        "worker",
		onProcessed: func() {},
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tastings := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-tastings:
			if !ok {
				return
			}
			if err := w.process(ctx, t); err != nil {
				w.logger.Error(ctx, "error processing tasting", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for its loop to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, t Tasting) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	scoreStart := time.Now()
	card, err := w.scorer.Score(ctx, t)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		metrics.RecordErrorByType("scoring_error", "high")
		w.logger.Error(ctx, "scoring failed for tasting",
			logger.String("submissionId", t.SubmissionID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to score tasting %s: %w", t.SubmissionID, err)
	}

	updated, err := w.updater.UpdateBest(ctx, types.Entry{
		TasterID:     t.TasterID,
		Percentage:   card.Percentage,
		Grade:        string(card.Grade),
		SubmissionID: t.SubmissionID,
		Strain:       t.Strain,
	})
	if err != nil {
		metrics.RecordLeaderboardError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "leaderboard_error")
		metrics.RecordErrorByType("leaderboard_error", "high")
		w.logger.Error(ctx, "leaderboard update failed for tasting",
			logger.String("submissionId", t.SubmissionID),
			logger.Error(err),
		)
		return fmt.Errorf("leaderboard update failed: %w", err)
	}

	metrics.RecordTastingProcessed()
	if updated {
		metrics.RecordLeaderboardUpdate()
	}
	w.onProcessed()
	w.logger.Debug(ctx, "tasting scored",
		logger.String("submissionId", t.SubmissionID),
		logger.String("tasterId", t.TasterID),
		logger.Int("percentage", card.Percentage),
		logger.Bool("improved", updated),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	processed atomic.Int64
	logger    logger.Logger
}

// NewPool creates a new worker pool. A workerCount below one selects a
// multiple of the CPU count.
func NewPool(workerCount int, queue Queue, scorer Scorer, updater Updater) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			scorer,
			updater,
			WithName("worker-"+strconv.Itoa(i)),
			WithOnProcessed(func() { pool.processed.Add(1) }),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of tastings scored since start.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Shutdown closes the queue and lets workers drain what is buffered. Workers
// still running when ctx or the pool timeout expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			w.stop()
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
