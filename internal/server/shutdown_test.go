package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestShutdownManager_ClosersRunInReverseOrder(t *testing.T) {
	sm := NewShutdownManager(DefaultShutdownConfig())

	var order []string
	sm.RegisterCloser(CloserFunc(func() error {
		order = append(order, "first")
		return nil
	}))
	sm.RegisterCloser(CloserFunc(func() error {
		order = append(order, "second")
		return nil
	}))

	if err := sm.Shutdown(context.Background(), "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("expected closers in reverse order, got %v", order)
	}
}

func TestShutdownManager_RejectsRequestsDuringShutdown(t *testing.T) {
	sm := NewShutdownManager(DefaultShutdownConfig())

	if !sm.TrackRequest() {
		t.Fatal("expected request to be accepted before shutdown")
	}
	sm.UntrackRequest()

	if err := sm.Shutdown(context.Background(), "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sm.TrackRequest() {
		t.Error("expected request to be rejected after shutdown")
	}
	if !sm.IsShuttingDown() {
		t.Error("expected IsShuttingDown to be true")
	}
}

func TestShutdownManager_DrainWaitsForInFlight(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{
		ShutdownTimeout: 2 * time.Second,
		DrainTimeout:    time.Second,
	})

	if !sm.TrackRequest() {
		t.Fatal("expected request to be accepted")
	}
	go func() {
		time.Sleep(150 * time.Millisecond)
		sm.UntrackRequest()
	}()

	start := time.Now()
	if err := sm.Shutdown(context.Background(), "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 100*time.Millisecond {
		t.Error("expected shutdown to wait for in-flight request")
	}
	if sm.InFlightCount() != 0 {
		t.Errorf("expected 0 in-flight requests, got %d", sm.InFlightCount())
	}
}

func TestShutdownManager_ShutdownIsIdempotent(t *testing.T) {
	sm := NewShutdownManager(DefaultShutdownConfig())

	calls := 0
	sm.RegisterCloser(CloserFunc(func() error {
		calls++
		return nil
	}))

	if err := sm.Shutdown(context.Background(), "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sm.Shutdown(context.Background(), "second"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected closer to run once, got %d", calls)
	}
}

func TestShutdownMiddleware_Returns503DuringShutdown(t *testing.T) {
	sm := NewShutdownManager(DefaultShutdownConfig())
	handler := ShutdownMiddleware(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 before shutdown, got %d", w.Code)
	}

	if err := sm.Shutdown(context.Background(), "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 during shutdown, got %d", w.Code)
	}
}
