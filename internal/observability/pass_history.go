// Package observability provides pass statistics tracking for monitoring
// recent reconciliation activity.
package observability

import (
	"sync"
	"time"
)

// PassRecord summarizes one completed reconciliation pass.
type PassRecord struct {
	Trigger      string    `json:"trigger"`
	Regions      int       `json:"regions"`
	Added        int64     `json:"added"`
	Skipped      int64     `json:"skipped"`
	Dropped      int64     `json:"dropped"`
	DropFailures int64     `json:"drop_failures"`
	DurationMs   int64     `json:"duration_ms"`
	Error        string    `json:"error,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Summary aggregates pass outcomes since the process started.
type Summary struct {
	TotalPasses     int64     `json:"total_passes"`
	FailedPasses    int64     `json:"failed_passes"`
	PartitionsAdded int64     `json:"partitions_added"`
	LastSuccess     time.Time `json:"last_success,omitempty"`
	LastFailure     time.Time `json:"last_failure,omitempty"`
}

// PassHistory keeps a bounded record of recent reconciliation passes
// together with running totals. All methods are thread-safe.
type PassHistory struct {
	mu       sync.RWMutex
	records  []PassRecord
	capacity int
	summary  Summary
}

// NewPassHistory creates a history that retains the most recent capacity
// passes.
func NewPassHistory(capacity int) *PassHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &PassHistory{
		capacity: capacity,
	}
}

// Record appends a pass outcome, evicting the oldest record when the
// history is full.
func (h *PassHistory) Record(record PassRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if record.CompletedAt.IsZero() {
		record.CompletedAt = time.Now().UTC()
	}

	h.records = append(h.records, record)
	if len(h.records) > h.capacity {
		h.records = h.records[len(h.records)-h.capacity:]
	}

	h.summary.TotalPasses++
	if record.Error != "" {
		h.summary.FailedPasses++
		h.summary.LastFailure = record.CompletedAt
	} else {
		h.summary.PartitionsAdded += record.Added
		h.summary.LastSuccess = record.CompletedAt
	}
}

// Recent returns up to n passes, newest first.
func (h *PassHistory) Recent(n int) []PassRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || len(h.records) == 0 {
		return []PassRecord{}
	}
	if n > len(h.records) {
		n = len(h.records)
	}

	out := make([]PassRecord, n)
	for i := 0; i < n; i++ {
		out[i] = h.records[len(h.records)-1-i]
	}
	return out
}

// Summary returns the running totals.
func (h *PassHistory) Summary() Summary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.summary
}

// Len returns the number of retained records.
func (h *PassHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}
