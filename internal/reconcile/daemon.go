package reconcile

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/arkilian/reloader/internal/event"
)

// Reconciler runs one reconciliation pass for a trigger.
type Reconciler interface {
	Reconcile(ctx context.Context, trigger event.Trigger) (*Stats, error)
}

// Daemon runs timer-triggered reconciliation passes at a fixed interval.
type Daemon struct {
	reconciler Reconciler
	interval   time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewDaemon creates a reconciliation daemon.
func NewDaemon(reconciler Reconciler, interval time.Duration) *Daemon {
	return &Daemon{
		reconciler: reconciler,
		interval:   interval,
	}
}

// Start begins the reconciliation loop. It runs until the context is
// cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("reconcile: daemon is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.done = make(chan struct{})
	d.mu.Unlock()

	go d.run(ctx)
	return nil
}

// Stop gracefully stops the daemon.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.cancel()
	<-d.done
	d.running = false
	return nil
}

// run is the main reconciliation loop.
func (d *Daemon) run(ctx context.Context) {
	defer close(d.done)

	// Run immediately on start
	d.runOnce(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

// runOnce performs a single timer-triggered pass.
func (d *Daemon) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	stats, err := d.reconciler.Reconcile(ctx, event.TimerEvent{Time: time.Now().UTC()})
	if err != nil {
		log.Printf("reconcile: pass failed: %v", err)
		return
	}

	log.Printf("reconcile: pass complete regions=%d added=%d skipped=%d dropped=%d drop_failures=%d duration=%s",
		len(stats.Regions), stats.Added, stats.Skipped, stats.Dropped, stats.DropFailures, stats.Duration)
}
