// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"github.com/okian/terptaster/internal/domain/dedupe"
	"github.com/okian/terptaster/internal/domain/model"
	"github.com/okian/terptaster/internal/domain/scoring"
	"github.com/okian/terptaster/internal/domain/terpene"
	"github.com/okian/terptaster/internal/domain/training"
	"github.com/okian/terptaster/internal/domain/types"
	"github.com/okian/terptaster/pkg/logger"
)

const maxBodyBytes = 64 << 10

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// ScoringService scores a tasting synchronously.
type ScoringService interface {
	ScoreTerpenes(ctx context.Context, in scoring.Input) scoring.ScoreCard
	ScorePalate(ctx context.Context, in scoring.Input) scoring.PalateCard
}

// CatalogService exposes the terpene reference data.
type CatalogService interface {
	Terpenes(ctx context.Context) []terpene.Terpene
	Terpene(ctx context.Context, name string) (terpene.Terpene, error)
	Flavors(ctx context.Context) []string
	TerpenesForFlavor(ctx context.Context, flavor string) ([]string, error)
	ExpectedFlavors(ctx context.Context, selected []string) []string
}

// TastingService accepts tastings for asynchronous leaderboard scoring.
type TastingService interface {
	dedupe.Deduper

	// Enqueue pushes a tasting for async processing. Returns an error
	// wrapping queue.ErrQueueFull on backpressure.
	Enqueue(ctx context.Context, t model.Tasting) error
}

// LeaderboardService exposes leaderboard reads.
type LeaderboardService interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, tasterID string) (Entry, error)
}

// TrainingService drives training sessions by id.
type TrainingService interface {
	StartSession(ctx context.Context, d training.Difficulty) (training.View, error)
	Session(ctx context.Context, id string) (training.View, error)
	Guess(ctx context.Context, id, guess string) (training.View, error)
	Hint(ctx context.Context, id string) (training.View, error)
	NextRound(ctx context.Context, id string) (training.View, error)
	RestartSession(ctx context.Context, id string) (training.View, error)
	EndSession(ctx context.Context, id string) error
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScoringService
	CatalogService
	TastingService
	LeaderboardService
	TrainingService
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoreHandler       *ScoreHandler
	catalogHandler     *CatalogHandler
	tastingsHandler    *TastingsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	trainingHandler    *TrainingHandler

	docs           http.Handler
	corsOrigins    []string
	rateLimit      int
	rateLimitEvery time.Duration
	maxLimit       int
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		corsOrigins:    []string{"*"},
		rateLimitEvery: time.Minute,
		maxLimit:       defaultMaxLimit,
		logger:         logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.scoreHandler = NewScoreHandler(deps)
	s.catalogHandler = NewCatalogHandler(deps)
	s.tastingsHandler = NewTastingsHandler(deps, s.logger)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.rankHandler = NewRankHandler(deps)
	s.trainingHandler = NewTrainingHandler(deps)
	return s
}

// Router builds the chi router with middleware and every route attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(RequestMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, NewKind("api.route", ErrNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "method_not_allowed", Message: http.StatusText(http.StatusMethodNotAllowed)})
	})

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)
	if s.docs != nil {
		r.Handle("/openapi.yaml", s.docs)
		r.Handle("/api-docs", s.docs)
	}

	r.Group(func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.Limit(s.rateLimit, s.rateLimitEvery,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, NewKind("api.rate_limit", ErrBackpressure))
				}),
			))
		}

		r.Post("/score/terpenes", s.scoreHandler.HandleScoreTerpenes)
		r.Post("/score/palate", s.scoreHandler.HandleScorePalate)

		r.Get("/terpenes", s.catalogHandler.HandleListTerpenes)
		r.Get("/terpenes/{name}", s.catalogHandler.HandleGetTerpene)
		r.Post("/terpenes/expected-flavors", s.catalogHandler.HandleExpectedFlavors)
		r.Get("/flavors", s.catalogHandler.HandleListFlavors)
		r.Get("/flavors/{flavor}/terpenes", s.catalogHandler.HandleFlavorTerpenes)

		r.Post("/tastings", s.tastingsHandler.HandlePostTasting)
		r.Get("/leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
		r.Get("/rank/{tasterId}", s.rankHandler.HandleGetRank)

		r.Route("/training/sessions", func(r chi.Router) {
			r.Post("/", s.trainingHandler.HandleStart)
			r.Get("/{id}", s.trainingHandler.HandleGet)
			r.Delete("/{id}", s.trainingHandler.HandleEnd)
			r.Post("/{id}/guess", s.trainingHandler.HandleGuess)
			r.Post("/{id}/hint", s.trainingHandler.HandleHint)
			r.Post("/{id}/next", s.trainingHandler.HandleNext)
			r.Post("/{id}/restart", s.trainingHandler.HandleRestart)
		})
	})
	return r
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(op string, r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
