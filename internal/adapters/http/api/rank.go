package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// RankHandler handles rank requests.
type RankHandler struct {
	deps LeaderboardService
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps LeaderboardService) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{tasterId} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	tasterID := strings.TrimSpace(chi.URLParam(r, "tasterId"))
	if tasterID == "" {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.Rank(r.Context(), tasterID)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
