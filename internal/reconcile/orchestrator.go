// Package reconcile drives reconciliation passes: deriving candidate
// partition keys from a trigger, registering them in the catalog, and
// dropping partitions that have aged out of the log bucket.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arkilian/reloader/internal/errors"
	"github.com/arkilian/reloader/internal/event"
	"github.com/arkilian/reloader/internal/index"
	"github.com/arkilian/reloader/internal/metrics"
	"github.com/arkilian/reloader/internal/objectstore"
	"github.com/arkilian/reloader/internal/partition"
	"github.com/arkilian/reloader/pkg/types"
)

// Config holds the orchestrator's pass behavior.
type Config struct {
	// PathIgnoreSegments is the number of leading object-key segments
	// before the region segment.
	PathIgnoreSegments int

	// RegionConcurrency bounds how many adds run in parallel.
	RegionConcurrency int

	// RetentionDays overrides the bucket lifecycle policy when positive.
	RetentionDays int

	// CheckExistence scans the catalog before adding so already
	// registered partitions are skipped without a DDL round trip.
	CheckExistence bool
}

// Orchestrator runs reconciliation passes against injected
// collaborators. It holds no state between passes.
type Orchestrator struct {
	mutator *partition.Mutator
	store   objectstore.Store
	schema  types.PartitionSchema
	cfg     Config
}

// New creates an Orchestrator.
func New(mutator *partition.Mutator, store objectstore.Store, schema types.PartitionSchema, cfg Config) *Orchestrator {
	if cfg.RegionConcurrency < 1 {
		cfg.RegionConcurrency = 1
	}
	return &Orchestrator{
		mutator: mutator,
		store:   store,
		schema:  schema,
		cfg:     cfg,
	}
}

// Stats summarizes one reconciliation pass.
type Stats struct {
	// Trigger names the trigger kind that started the pass.
	Trigger string

	// Regions lists the region codes the pass covered.
	Regions []string

	// Added is the number of partitions registered.
	Added int64

	// Skipped is the number of adds short-circuited by the existence
	// index.
	Skipped int64

	// Dropped is the number of expired partitions removed.
	Dropped int64

	// DropFailures is the number of retention drops that failed.
	DropFailures int64

	// Duration is the pass wall-clock time.
	Duration time.Duration
}

// Reconcile runs one pass for the trigger. The pass succeeds iff every
// add succeeded; drop failures are reported in Stats only.
func (o *Orchestrator) Reconcile(ctx context.Context, trigger event.Trigger) (*Stats, error) {
	start := time.Now()

	var (
		stats *Stats
		err   error
	)
	switch ev := trigger.(type) {
	case event.TimerEvent:
		stats, err = o.reconcileTimer(ctx, ev)
	case event.ObjectCreatedEvent:
		stats, err = o.reconcileObject(ctx, ev)
	default:
		stats = &Stats{Trigger: "unknown"}
		err = errors.NewInternalError(fmt.Sprintf("unsupported trigger type %T", trigger), nil)
	}

	stats.Duration = time.Since(start)
	o.record(stats, err)
	return stats, err
}

// reconcileTimer covers every discovered region for the trigger's date
// and applies retention.
func (o *Orchestrator) reconcileTimer(ctx context.Context, ev event.TimerEvent) (*Stats, error) {
	stats := &Stats{Trigger: "timer"}

	regions, err := o.store.ListRegions(ctx)
	if err != nil {
		log.Printf("reconcile: region discovery failed, proceeding with none: %v", err)
		regions = nil
	}
	stats.Regions = regions
	if len(regions) == 0 {
		return stats, nil
	}

	keys, err := event.KeysFromTime(o.schema, ev.Time, regions)
	if err != nil {
		return stats, err
	}

	idx := o.maybeScanIndex(ctx)
	if err := o.addAll(ctx, keys, idx, stats); err != nil {
		return stats, err
	}

	o.dropExpired(ctx, ev.Time, regions, stats)
	return stats, nil
}

// reconcileObject registers the single partition the created object
// belongs to.
func (o *Orchestrator) reconcileObject(ctx context.Context, ev event.ObjectCreatedEvent) (*Stats, error) {
	stats := &Stats{Trigger: "object_created"}

	key, err := event.KeyFromObjectPath(o.schema, ev.Key, o.cfg.PathIgnoreSegments)
	if err != nil {
		return stats, err
	}

	idx := o.maybeScanIndex(ctx)
	if idx != nil && idx.Contains(key) {
		stats.Skipped = 1
		return stats, nil
	}

	if _, err := o.mutator.Add(ctx, key); err != nil {
		return stats, fmt.Errorf("add %s: %w", key, err)
	}
	stats.Added = 1
	return stats, nil
}

// addAll registers the candidate keys with bounded parallelism. The
// first add failure fails the pass.
func (o *Orchestrator) addAll(ctx context.Context, keys []types.PartitionKey, idx *index.Index, stats *Stats) error {
	var added, skipped atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.RegionConcurrency)

	for _, key := range keys {
		if idx != nil && idx.Contains(key) {
			skipped.Add(1)
			continue
		}
		g.Go(func() error {
			if _, err := o.mutator.Add(ctx, key); err != nil {
				return fmt.Errorf("add %s: %w", key, err)
			}
			added.Add(1)
			return nil
		})
	}

	err := g.Wait()
	stats.Added = added.Load()
	stats.Skipped = skipped.Load()
	return err
}

// maybeScanIndex builds the existence index when the short-circuit is
// enabled. A failed scan degrades to unconditional adds.
func (o *Orchestrator) maybeScanIndex(ctx context.Context) *index.Index {
	if !o.cfg.CheckExistence {
		return nil
	}

	pages, err := o.mutator.ShowPartitions(ctx)
	if err != nil {
		log.Printf("reconcile: partition scan failed, adding unconditionally: %v", err)
		return nil
	}
	return index.Build(o.schema, pages)
}

// dropExpired removes partitions older than the retention policy. Drops
// are best effort; failures are logged and counted, never escalated.
func (o *Orchestrator) dropExpired(ctx context.Context, now time.Time, regions []string, stats *Stats) {
	policy := o.resolveRetention(ctx)
	if policy == nil {
		return
	}

	cutoff := now.AddDate(0, 0, -policy.ExpirationDays)
	keys, err := event.KeysFromTime(o.schema, cutoff, regions)
	if err != nil {
		log.Printf("reconcile: failed to derive expired keys: %v", err)
		return
	}

	for _, key := range keys {
		if ctx.Err() != nil {
			return
		}
		if _, err := o.mutator.Drop(ctx, key); err != nil {
			stats.DropFailures++
			log.Printf("reconcile: failed to drop expired partition %s: %v", key, err)
			continue
		}
		stats.Dropped++
	}
}

// resolveRetention prefers the configured override, then the bucket
// lifecycle. Lookup failures read as no policy.
func (o *Orchestrator) resolveRetention(ctx context.Context) *types.RetentionPolicy {
	if o.cfg.RetentionDays > 0 {
		return &types.RetentionPolicy{ExpirationDays: o.cfg.RetentionDays}
	}

	policy, err := o.store.RetentionPolicy(ctx)
	if err != nil {
		log.Printf("reconcile: lifecycle lookup failed, skipping retention: %v", err)
		return nil
	}
	return policy
}

// record publishes the pass outcome to the process metrics.
func (o *Orchestrator) record(stats *Stats, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.PassesTotal.WithLabelValues(stats.Trigger, outcome).Inc()
	metrics.PartitionsAdded.Add(float64(stats.Added))
	metrics.PartitionsSkipped.Add(float64(stats.Skipped))
	metrics.PartitionsDropped.Add(float64(stats.Dropped))
	metrics.DropFailures.Add(float64(stats.DropFailures))
	metrics.PassDuration.Observe(stats.Duration.Seconds())
}
