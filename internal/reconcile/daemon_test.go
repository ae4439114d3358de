package reconcile

import (
	"context"
	"testing"
	"time"
)

func TestDaemon_StartStop(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeStore{regions: []string{"us-east-1"}}
	daemon := NewDaemon(newTestOrchestrator(runner, store, Config{}), 10*time.Millisecond)

	if err := daemon.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := daemon.Start(context.Background()); err == nil {
		t.Error("expected error on double start")
	}

	// The first pass runs immediately on start
	deadline := time.Now().Add(time.Second)
	for len(runner.recorded()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if len(runner.recorded()) == 0 {
		t.Fatal("expected at least one pass to run")
	}

	if err := daemon.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Stop is idempotent
	if err := daemon.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDaemon_StopWithoutStart(t *testing.T) {
	daemon := NewDaemon(newTestOrchestrator(&fakeRunner{}, &fakeStore{}, Config{}), time.Minute)
	if err := daemon.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDaemon_ContextCancellationStopsLoop(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeStore{regions: []string{"us-east-1"}}
	daemon := NewDaemon(newTestOrchestrator(runner, store, Config{}), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	if err := daemon.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cancel()

	// Stop returns once the loop has drained
	if err := daemon.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
