package api

import (
	"fmt"
	"net/http"
	"strconv"
)

const defaultLeaderboardLimit = 10

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardService
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardService, maxLimit int) *LeaderboardHandler {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &LeaderboardHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N requests. A missing
// limit selects the default page size.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n := min(defaultLeaderboardLimit, h.maxLimit)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be a positive integer, got %q", limitStr)))
			return
		}
		n = parsed
	}
	if n > h.maxLimit {
		writeError(w, WrapKind(op, ErrLimitExceeded, fmt.Errorf("limit %d exceeds maximum %d", n, h.maxLimit)))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
