package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arkilian/reloader/internal/event"
	"github.com/arkilian/reloader/internal/reconcile"
)

// Reconciler runs a reconciliation pass for a parsed trigger.
type Reconciler interface {
	Reconcile(ctx context.Context, trigger event.Trigger) (*reconcile.Stats, error)
}

// ReconcileResponse represents the outcome of a reconciliation pass.
type ReconcileResponse struct {
	Trigger      string   `json:"trigger"`
	Regions      []string `json:"regions,omitempty"`
	Added        int64    `json:"added"`
	Skipped      int64    `json:"skipped"`
	Dropped      int64    `json:"dropped"`
	DropFailures int64    `json:"drop_failures"`
	DurationMs   int64    `json:"duration_ms"`
	RequestID    string   `json:"request_id"`
}

// ReconcileHandler handles POST /v1/reconcile requests.
type ReconcileHandler struct {
	reconciler Reconciler
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(reconciler Reconciler) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler}
}

// ServeHTTP handles the reconcile HTTP request.
func (h *ReconcileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read request body: %v", err), requestID)
		return
	}

	trigger, err := resolveTrigger(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid trigger: %v", err), requestID)
		return
	}

	stats, err := h.reconciler.Reconcile(r.Context(), trigger)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("reconciliation failed: %v", err), requestID)
		return
	}

	resp := ReconcileResponse{
		Trigger:      stats.Trigger,
		Regions:      stats.Regions,
		Added:        stats.Added,
		Skipped:      stats.Skipped,
		Dropped:      stats.Dropped,
		DropFailures: stats.DropFailures,
		DurationMs:   stats.Duration.Milliseconds(),
		RequestID:    requestID,
	}

	writeJSON(w, http.StatusOK, resp)
}

// resolveTrigger interprets the request body. An empty body (or a bare
// empty object) requests a timer-style pass for the current time;
// anything else must be a timer or object-created trigger document.
func resolveTrigger(body []byte) (event.Trigger, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) {
		return event.TimerEvent{Time: time.Now().UTC()}, nil
	}
	return event.ParseTrigger(trimmed)
}
