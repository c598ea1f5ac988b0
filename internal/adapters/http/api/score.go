package api

import (
	"net/http"

	"github.com/okian/terptaster/internal/domain/scoring"
	"github.com/okian/terptaster/pkg/metrics"
)

// scoreRequest mirrors the OpenAPI schema for POST /score/*.
type scoreRequest struct {
	SelectedTerpenes []string `json:"selectedTerpenes" validate:"max=64,dive,max=64"`
	InhaleFlavors    []string `json:"inhaleFlavors" validate:"max=64,dive,max=64"`
	ExhaleFlavors    []string `json:"exhaleFlavors" validate:"max=64,dive,max=64"`
}

func (r scoreRequest) input() scoring.Input {
	return scoring.Input{
		SelectedTerpenes: r.SelectedTerpenes,
		InhaleFlavors:    r.InhaleFlavors,
		ExhaleFlavors:    r.ExhaleFlavors,
	}
}

type scoreResponse struct {
	scoring.ScoreCard
	Feedback string `json:"feedback"`
}

type palateResponse struct {
	scoring.PalateCard
	Feedback string `json:"feedback"`
}

// ScoreHandler serves the synchronous scoring endpoints.
type ScoreHandler struct {
	deps ScoringService
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoringService) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandleScoreTerpenes handles POST /score/terpenes.
func (h *ScoreHandler) HandleScoreTerpenes(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_terpenes"
	req, ok := h.decode(op, w, r)
	if !ok {
		return
	}
	card := h.deps.ScoreTerpenes(r.Context(), req.input())
	metrics.RecordScore("terpene", string(card.Grade), card.Percentage)
	writeJSON(w, http.StatusOK, scoreResponse{ScoreCard: card, Feedback: scoring.FeedbackFor(card.Percentage)})
}

// HandleScorePalate handles POST /score/palate.
func (h *ScoreHandler) HandleScorePalate(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_palate"
	req, ok := h.decode(op, w, r)
	if !ok {
		return
	}
	card := h.deps.ScorePalate(r.Context(), req.input())
	metrics.RecordScore("palate", string(card.Grade), card.Percentage)
	writeJSON(w, http.StatusOK, palateResponse{PalateCard: card, Feedback: scoring.FeedbackFor(card.Percentage)})
}

func (h *ScoreHandler) decode(op string, w http.ResponseWriter, r *http.Request) (scoreRequest, bool) {
	var req scoreRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeError(w, err)
		return req, false
	}
	if err := validateRequest(op, req); err != nil {
		writeError(w, err)
		return req, false
	}
	return req, true
}
