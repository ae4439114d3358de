// Package metrics holds the process's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PassesTotal counts reconciliation passes by trigger kind and outcome.
var PassesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "reloader",
	Name:      "reconcile_passes_total",
	Help:      "Total number of reconciliation passes, labeled by trigger and outcome.",
}, []string{"trigger", "outcome"})

// PartitionsAdded counts partitions registered in the catalog.
var PartitionsAdded = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "reloader",
	Name:      "partitions_added_total",
	Help:      "Total number of partitions added to the catalog.",
})

// PartitionsSkipped counts adds short-circuited by the existence index.
var PartitionsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "reloader",
	Name:      "partitions_skipped_total",
	Help:      "Total number of adds skipped because the partition already existed.",
})

// PartitionsDropped counts partitions dropped by retention.
var PartitionsDropped = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "reloader",
	Name:      "partitions_dropped_total",
	Help:      "Total number of expired partitions dropped from the catalog.",
})

// DropFailures counts retention drops that failed and were skipped.
var DropFailures = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "reloader",
	Name:      "partition_drop_failures_total",
	Help:      "Total number of retention drops that failed.",
})

// PassDuration observes wall-clock duration of reconciliation passes.
var PassDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "reloader",
	Name:      "reconcile_pass_duration_seconds",
	Help:      "Duration of reconciliation passes in seconds.",
	Buckets:   prometheus.DefBuckets,
})

// Init registers all metrics with the default Prometheus registry.
func Init() {
	prometheus.MustRegister(
		PassesTotal,
		PartitionsAdded,
		PartitionsSkipped,
		PartitionsDropped,
		DropFailures,
		PassDuration,
	)
}
