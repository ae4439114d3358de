package observability

import (
	"sync"
	"testing"
	"time"
)

func TestPassHistory_RecordAndRecent(t *testing.T) {
	h := NewPassHistory(10)

	h.Record(PassRecord{Trigger: "timer", Regions: 3, Added: 12})
	h.Record(PassRecord{Trigger: "object", Added: 1})
	h.Record(PassRecord{Trigger: "timer", Error: "region discovery failed"})

	recent := h.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].Trigger != "timer" || recent[0].Error == "" {
		t.Errorf("expected newest record first, got %+v", recent[0])
	}
	if recent[1].Trigger != "object" {
		t.Errorf("expected object pass second, got %+v", recent[1])
	}

	if h.Len() != 3 {
		t.Errorf("expected 3 retained records, got %d", h.Len())
	}
}

func TestPassHistory_EvictsOldestAtCapacity(t *testing.T) {
	h := NewPassHistory(2)

	h.Record(PassRecord{Trigger: "timer", Added: 1})
	h.Record(PassRecord{Trigger: "timer", Added: 2})
	h.Record(PassRecord{Trigger: "timer", Added: 3})

	if h.Len() != 2 {
		t.Fatalf("expected 2 retained records, got %d", h.Len())
	}
	recent := h.Recent(2)
	if recent[0].Added != 3 || recent[1].Added != 2 {
		t.Errorf("expected records 3,2 after eviction, got %d,%d", recent[0].Added, recent[1].Added)
	}

	// Totals still count evicted passes
	summary := h.Summary()
	if summary.TotalPasses != 3 {
		t.Errorf("expected 3 total passes, got %d", summary.TotalPasses)
	}
	if summary.PartitionsAdded != 6 {
		t.Errorf("expected 6 partitions added, got %d", summary.PartitionsAdded)
	}
}

func TestPassHistory_SummaryTracksOutcomes(t *testing.T) {
	h := NewPassHistory(5)

	h.Record(PassRecord{Trigger: "timer", Added: 4})
	h.Record(PassRecord{Trigger: "timer", Error: "add failed"})

	summary := h.Summary()
	if summary.TotalPasses != 2 {
		t.Errorf("expected 2 total passes, got %d", summary.TotalPasses)
	}
	if summary.FailedPasses != 1 {
		t.Errorf("expected 1 failed pass, got %d", summary.FailedPasses)
	}
	if summary.PartitionsAdded != 4 {
		t.Errorf("expected 4 partitions added, got %d", summary.PartitionsAdded)
	}
	if summary.LastSuccess.IsZero() {
		t.Error("expected last success to be set")
	}
	if summary.LastFailure.IsZero() {
		t.Error("expected last failure to be set")
	}
}

func TestPassHistory_RecentBounds(t *testing.T) {
	h := NewPassHistory(5)
	if got := h.Recent(3); len(got) != 0 {
		t.Errorf("expected empty history, got %d records", len(got))
	}

	h.Record(PassRecord{Trigger: "timer"})
	if got := h.Recent(0); len(got) != 0 {
		t.Errorf("expected no records for n=0, got %d", len(got))
	}
	if got := h.Recent(10); len(got) != 1 {
		t.Errorf("expected 1 record for n beyond length, got %d", len(got))
	}
}

func TestPassHistory_ConcurrentRecording(t *testing.T) {
	h := NewPassHistory(16)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Record(PassRecord{Trigger: "timer", Added: 1, CompletedAt: time.Now()})
				h.Recent(5)
				h.Summary()
			}
		}()
	}
	wg.Wait()

	if got := h.Summary().TotalPasses; got != 400 {
		t.Errorf("expected 400 total passes, got %d", got)
	}
	if h.Len() != 16 {
		t.Errorf("expected history at capacity 16, got %d", h.Len())
	}
}
