package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/arkilian/reloader/internal/observability"
)

// defaultRecentPasses bounds the recent list when no limit is given.
const defaultRecentPasses = 20

// StatsResponse represents the pass statistics response.
type StatsResponse struct {
	Summary   observability.Summary      `json:"summary"`
	Recent    []observability.PassRecord `json:"recent"`
	RequestID string                     `json:"request_id"`
}

// StatsHandler handles GET /v1/stats requests.
type StatsHandler struct {
	history *observability.PassHistory
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(history *observability.PassHistory) *StatsHandler {
	return &StatsHandler{history: history}
}

// ServeHTTP handles the stats HTTP request.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	limit := defaultRecentPasses
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q", raw), requestID)
			return
		}
		limit = n
	}

	resp := StatsResponse{
		Summary:   h.history.Summary(),
		Recent:    h.history.Recent(limit),
		RequestID: requestID,
	}

	writeJSON(w, http.StatusOK, resp)
}
