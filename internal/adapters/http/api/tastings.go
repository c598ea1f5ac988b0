package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/terptaster/internal/domain/model"
	"github.com/okian/terptaster/pkg/logger"
	"github.com/okian/terptaster/pkg/metrics"
)

// tastingRequest mirrors the OpenAPI schema for POST /tastings.
type tastingRequest struct {
	SubmissionID     string   `json:"submissionId" validate:"required,max=128"`
	TasterID         string   `json:"tasterId" validate:"required,max=128"`
	Strain           string   `json:"strain" validate:"max=128"`
	SelectedTerpenes []string `json:"selectedTerpenes" validate:"max=64,dive,max=64"`
	InhaleFlavors    []string `json:"inhaleFlavors" validate:"max=64,dive,max=64"`
	ExhaleFlavors    []string `json:"exhaleFlavors" validate:"max=64,dive,max=64"`
	TS               string   `json:"ts" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func (t tastingRequest) tasting(now time.Time) model.Tasting {
	ts := now.UTC()
	if t.TS != "" {
		if parsed, err := time.Parse(time.RFC3339, t.TS); err == nil {
			ts = parsed
		}
	}
	return model.Tasting{
		SubmissionID:     strings.TrimSpace(t.SubmissionID),
		TasterID:         strings.TrimSpace(t.TasterID),
		Strain:           strings.TrimSpace(t.Strain),
		SelectedTerpenes: t.SelectedTerpenes,
		InhaleFlavors:    t.InhaleFlavors,
		ExhaleFlavors:    t.ExhaleFlavors,
		TS:               ts,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// TastingsHandler accepts tastings for the leaderboard pipeline.
type TastingsHandler struct {
	deps   TastingService
	logger logger.Logger
}

// NewTastingsHandler creates a new tastings handler.
func NewTastingsHandler(deps TastingService, l logger.Logger) *TastingsHandler {
	return &TastingsHandler{deps: deps, logger: l}
}

// HandlePostTasting handles POST /tastings.
func (h *TastingsHandler) HandlePostTasting(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_tasting"
	var req tastingRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateRequest(op, req); err != nil {
		writeError(w, err)
		return
	}
	t := req.tasting(time.Now())
	if t.SubmissionID == "" || t.TasterID == "" {
		writeError(w, NewKind(op, ErrValidation))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), t.SubmissionID) {
		metrics.RecordTastingDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if err := h.deps.Enqueue(r.Context(), t); err != nil {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), t.SubmissionID)
		h.logger.Warn(r.Context(), "tasting rejected",
			logger.String("submissionId", t.SubmissionID),
			logger.Error(err),
		)
		writeError(w, Wrap(op, err))
		return
	}
	metrics.RecordTastingAccepted()
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
