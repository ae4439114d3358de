// Package app provides the unified application lifecycle management for reloader.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	httpapi "github.com/arkilian/reloader/internal/api/http"
	"github.com/arkilian/reloader/internal/catalog"
	"github.com/arkilian/reloader/internal/config"
	"github.com/arkilian/reloader/internal/event"
	"github.com/arkilian/reloader/internal/executor"
	"github.com/arkilian/reloader/internal/notify"
	"github.com/arkilian/reloader/internal/objectstore"
	"github.com/arkilian/reloader/internal/observability"
	"github.com/arkilian/reloader/internal/partition"
	"github.com/arkilian/reloader/internal/reconcile"
	"github.com/arkilian/reloader/internal/server"
	"github.com/arkilian/reloader/pkg/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// passHistoryCapacity is the number of recent passes retained for /v1/stats.
const passHistoryCapacity = 64

// App manages the reloader service lifecycle.
type App struct {
	cfg *config.Config

	// Shared resources
	service    catalog.QueryService
	store      objectstore.Store
	reconciler reconcile.Reconciler
	history    *observability.PassHistory
	shutdown   *server.ShutdownManager

	// Service components
	daemon     *reconcile.Daemon
	receiver   *notify.Receiver
	httpServer *http.Server

	// Lifecycle
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	// Resolve paths and validate
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Ensure directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return &App{
		cfg: cfg,
	}, nil
}

// Start initializes shared resources and starts all configured services.
// In once mode no background services are started; callers run a single
// pass through RunOnce instead.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	// Initialize shared resources
	if err := a.initSharedResources(ctx); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to initialize shared resources: %w", err)
	}

	// Start services based on mode
	if a.cfg.ShouldRunDaemon() {
		if err := a.daemon.Start(ctx); err != nil {
			a.cleanup()
			return fmt.Errorf("failed to start reconcile daemon: %w", err)
		}
		log.Printf("Reconcile daemon started: interval=%s", a.cfg.Reconcile.Interval)
	}

	if a.cfg.ShouldServeHTTP() {
		a.startHTTPServer()
	}

	if a.cfg.ShouldRunNotifier() {
		if err := a.startNotifier(ctx); err != nil {
			a.cleanup()
			return fmt.Errorf("failed to start notification receiver: %w", err)
		}
	}

	log.Printf("Reloader started in %s mode", a.cfg.Mode)
	return nil
}

// initSharedResources initializes the query service, object store,
// orchestrator, and shutdown manager.
func (a *App) initSharedResources(ctx context.Context) error {
	var err error

	// Initialize the catalog query service
	switch a.cfg.Catalog.Backend {
	case "local":
		a.service, err = catalog.NewLocalService(a.cfg.Catalog.LocalPath, a.cfg.Catalog.OutputLocation)
	case "athena":
		a.service, err = catalog.NewAthenaService(ctx, catalog.AthenaConfig{
			Region:         a.cfg.ObjectStore.Region,
			Database:       a.cfg.Catalog.Database,
			Workgroup:      a.cfg.Catalog.Workgroup,
			OutputLocation: a.cfg.Catalog.OutputLocation,
		})
	default:
		return fmt.Errorf("unknown catalog backend: %s", a.cfg.Catalog.Backend)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize %s catalog service: %w", a.cfg.Catalog.Backend, err)
	}
	log.Printf("Catalog service initialized: backend=%s table=%s", a.cfg.Catalog.Backend, a.cfg.Catalog.Table)

	// Initialize the object store for region discovery and retention lookup
	switch a.cfg.ObjectStore.Backend {
	case "local":
		a.store = objectstore.NewLocalStore(a.cfg.ObjectStore.LocalPath,
			a.cfg.ObjectStore.AccountID, a.cfg.ObjectStore.LogPrefix, 0)
	case "s3":
		a.store, err = objectstore.NewS3Store(ctx, a.cfg.ObjectStore.Bucket,
			a.cfg.ObjectStore.AccountID, a.cfg.ObjectStore.LogPrefix, objectstore.S3Config{
				Region:       a.cfg.ObjectStore.Region,
				Endpoint:     a.cfg.ObjectStore.Endpoint,
				UsePathStyle: a.cfg.ObjectStore.UsePathStyle,
			})
	default:
		return fmt.Errorf("unknown object store backend: %s", a.cfg.ObjectStore.Backend)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize %s object store: %w", a.cfg.ObjectStore.Backend, err)
	}

	// Wire the query pipeline into the orchestrator
	exec := executor.New(a.service, a.cfg.Reconcile.PollInterval, a.cfg.Reconcile.QueryDeadline)
	mutator := partition.NewMutator(a.cfg.Catalog.Table, a.cfg.Catalog.BaseLocation, exec)
	orchestrator := reconcile.New(mutator, a.store, types.DefaultPartitionSchema(), reconcile.Config{
		PathIgnoreSegments: pathIgnoreSegments(a.cfg.ObjectStore.LogPrefix, a.cfg.ObjectStore.AccountID),
		RegionConcurrency:  a.cfg.Reconcile.RegionConcurrency,
		RetentionDays:      a.cfg.Reconcile.RetentionDays,
		CheckExistence:     a.cfg.Reconcile.CheckExistence,
	})

	// Every pass flows through the history so /v1/stats reflects daemon,
	// HTTP, and notification triggers alike
	a.history = observability.NewPassHistory(passHistoryCapacity)
	a.reconciler = &recordingReconciler{reconciler: orchestrator, history: a.history}
	a.daemon = reconcile.NewDaemon(a.reconciler, a.cfg.Reconcile.Interval)

	// Initialize shutdown manager
	a.shutdown = server.NewShutdownManager(server.DefaultShutdownConfig())
	if closer, ok := a.service.(io.Closer); ok {
		a.shutdown.RegisterCloser(closer)
	}

	return nil
}

// startHTTPServer starts the HTTP trigger/stats/health/metrics server.
func (a *App) startHTTPServer() {
	reconcileHandler := httpapi.NewReconcileHandler(a.reconciler)
	statsHandler := httpapi.NewStatsHandler(a.history)

	// Setup HTTP server with middleware
	mux := http.NewServeMux()
	middleware := httpapi.ChainMiddleware(
		server.ShutdownMiddleware(a.shutdown),
		httpapi.RecoveryMiddleware,
		httpapi.RequestIDMiddleware,
		httpapi.CorrelationIDMiddleware,
		httpapi.ContentTypeMiddleware,
	)
	mux.Handle("/v1/reconcile", middleware(reconcileHandler))
	mux.Handle("/v1/stats", middleware(statsHandler))
	mux.HandleFunc("/health", a.healthHandler("reloader"))
	mux.Handle("/metrics", promhttp.Handler())

	a.httpServer = &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      mux,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}

	// Start HTTP server
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		log.Printf("HTTP server listening on %s", a.cfg.HTTP.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()
}

// startNotifier starts the object-created notification receiver.
func (a *App) startNotifier(ctx context.Context) error {
	client, err := notify.NewClient(ctx, a.cfg.ObjectStore.Region)
	if err != nil {
		return fmt.Errorf("failed to initialize queue client: %w", err)
	}
	a.receiver = notify.NewReceiver(client, a.cfg.Notify.QueueURL, int32(a.cfg.Notify.WaitSeconds), a.reconciler)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.receiver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Notification receiver error: %v", err)
		}
	}()

	return nil
}

// RunOnce runs a single timer-style reconciliation pass for the current time.
func (a *App) RunOnce(ctx context.Context) (*reconcile.Stats, error) {
	a.mu.Lock()
	reconciler := a.reconciler
	a.mu.Unlock()
	if reconciler == nil {
		return nil, fmt.Errorf("app is not started")
	}

	return reconciler.Reconcile(ctx, event.TimerEvent{Time: time.Now().UTC()})
}

// Stop gracefully stops all services and releases resources.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	log.Printf("Initiating graceful shutdown...")

	// Cancel context to signal all services
	if a.cancel != nil {
		a.cancel()
	}

	// Stop the reconcile daemon first
	if a.daemon != nil {
		if err := a.daemon.Stop(); err != nil {
			log.Printf("Reconcile daemon stop error: %v", err)
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}

	// Wait for all goroutines to finish
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// All goroutines finished
	case <-shutdownCtx.Done():
		log.Printf("Shutdown timeout, some goroutines may not have finished")
	}

	// Cleanup resources
	a.cleanup()

	log.Printf("Reloader stopped")
	return nil
}

// cleanup releases shared resources.
func (a *App) cleanup() {
	if closer, ok := a.service.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Printf("Catalog service close error: %v", err)
		}
	}
}

// healthHandler returns a health check handler for the given service.
func (a *App) healthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":"%s","mode":"%s"}`, service, a.cfg.Mode)
	}
}

// WaitForShutdown blocks until a shutdown signal is received.
func (a *App) WaitForShutdown(ctx context.Context) error {
	return a.shutdown.ListenForSignals(ctx)
}

// pathIgnoreSegments counts the path segments that precede the region in an
// object key, based on the configured log path layout.
func pathIgnoreSegments(logPrefix, accountID string) int {
	prefix := strings.Trim(objectstore.TrailPrefix(logPrefix, accountID), "/")
	if prefix == "" {
		return 0
	}
	return len(strings.Split(prefix, "/"))
}

// recordingReconciler adapts a reconciler so every pass outcome lands in the
// pass history.
type recordingReconciler struct {
	reconciler reconcile.Reconciler
	history    *observability.PassHistory
}

func (r *recordingReconciler) Reconcile(ctx context.Context, trigger event.Trigger) (*reconcile.Stats, error) {
	stats, err := r.reconciler.Reconcile(ctx, trigger)

	record := observability.PassRecord{CompletedAt: time.Now().UTC()}
	if stats != nil {
		record.Trigger = stats.Trigger
		record.Regions = len(stats.Regions)
		record.Added = stats.Added
		record.Skipped = stats.Skipped
		record.Dropped = stats.Dropped
		record.DropFailures = stats.DropFailures
		record.DurationMs = stats.Duration.Milliseconds()
	}
	if err != nil {
		record.Error = err.Error()
	}
	r.history.Record(record)

	return stats, err
}
