package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/terptaster/internal/domain/training"
)

type startSessionRequest struct {
	Difficulty string `json:"difficulty" validate:"required,oneof=just_learning multiple_choice expert"`
}

type guessRequest struct {
	Guess string `json:"guess" validate:"required,max=64"`
}

// TrainingHandler serves the flavor guessing game.
type TrainingHandler struct {
	deps TrainingService
}

// NewTrainingHandler creates a new training handler.
func NewTrainingHandler(deps TrainingService) *TrainingHandler {
	return &TrainingHandler{deps: deps}
}

// HandleStart handles POST /training/sessions.
func (h *TrainingHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.training_start"
	var req startSessionRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateRequest(op, req); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.deps.StartSession(r.Context(), training.Difficulty(req.Difficulty))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /training/sessions/{id}.
func (h *TrainingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "api.training_get", h.deps.Session)
}

// HandleGuess handles POST /training/sessions/{id}/guess.
func (h *TrainingHandler) HandleGuess(w http.ResponseWriter, r *http.Request) {
	const op = "api.training_guess"
	var req guessRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateRequest(op, req); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, op, func(ctx context.Context, id string) (training.View, error) {
		return h.deps.Guess(ctx, id, req.Guess)
	})
}

// HandleHint handles POST /training/sessions/{id}/hint.
func (h *TrainingHandler) HandleHint(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "api.training_hint", h.deps.Hint)
}

// HandleNext handles POST /training/sessions/{id}/next.
func (h *TrainingHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "api.training_next", h.deps.NextRound)
}

// HandleRestart handles POST /training/sessions/{id}/restart.
func (h *TrainingHandler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "api.training_restart", h.deps.RestartSession)
}

// HandleEnd handles DELETE /training/sessions/{id}.
func (h *TrainingHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, Wrap("api.training_end", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TrainingHandler) respond(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, string) (training.View, error)) {
	view, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
