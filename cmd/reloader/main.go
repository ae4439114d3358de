// Package main implements the unified reloader binary.
// It runs a single reconciliation pass, the periodic daemon, or the daemon
// plus the HTTP trigger endpoints based on the --mode flag.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/arkilian/reloader/internal/app"
	"github.com/arkilian/reloader/internal/config"
	"github.com/arkilian/reloader/internal/metrics"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Load .env if present; real environment takes precedence
	_ = godotenv.Load()

	// Parse command line flags
	var (
		configFile  string
		dataDir     string
		mode        string
		httpAddr    string
		table       string
		bucket      string
		queueURL    string
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for local backend data files")
	flag.StringVar(&mode, "mode", "", "Run mode: once, daemon, serve")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP server address (serve mode)")
	flag.StringVar(&table, "table", "", "Partitioned table to reconcile")
	flag.StringVar(&bucket, "bucket", "", "Log bucket name")
	flag.StringVar(&queueURL, "queue-url", "", "Object-created notification queue URL")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Reloader - Partition Reconciliation for CloudTrail Tables\n\n")
		fmt.Fprintf(os.Stderr, "Usage: reloader [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  reloader --mode once --bucket trail-logs --table cloudtrail_logs\n")
		fmt.Fprintf(os.Stderr, "  reloader --mode daemon --config /etc/reloader/config.yaml\n")
		fmt.Fprintf(os.Stderr, "  reloader --mode serve --http-addr :8080\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  RELOADER_MODE               Run mode (once, daemon, serve)\n")
		fmt.Fprintf(os.Stderr, "  RELOADER_DATA_DIR           Base directory for local data files\n")
		fmt.Fprintf(os.Stderr, "  RELOADER_CATALOG_BACKEND    Catalog backend (local, athena)\n")
		fmt.Fprintf(os.Stderr, "  RELOADER_CATALOG_TABLE      Partitioned table to reconcile\n")
		fmt.Fprintf(os.Stderr, "  RELOADER_BUCKET             Log bucket name\n")
		fmt.Fprintf(os.Stderr, "  RELOADER_QUEUE_URL          Notification queue URL\n")
		fmt.Fprintf(os.Stderr, "  RELOADER_RETENTION_DAYS     Retention override in days\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("reloader version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := loadConfig(configFile, dataDir, mode, httpAddr, table, bucket, queueURL)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Print startup banner
	printBanner(cfg)

	// Register metrics
	metrics.Init()

	// Create and start the application
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	if cfg.Mode == config.ModeOnce {
		runOnce(ctx, application)
		return
	}

	// Wait for shutdown signal
	if err := application.WaitForShutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	// Graceful shutdown
	if err := application.Stop(context.Background()); err != nil {
		log.Printf("Shutdown error: %v", err)
		os.Exit(1)
	}
}

// runOnce runs a single reconciliation pass and exits.
func runOnce(ctx context.Context, application *app.App) {
	stats, err := application.RunOnce(ctx)

	if stopErr := application.Stop(context.Background()); stopErr != nil {
		log.Printf("Shutdown error: %v", stopErr)
	}

	if err != nil {
		log.Fatalf("Reconciliation pass failed: %v", err)
	}
	log.Printf("Reconciliation pass complete: regions=%d added=%d skipped=%d dropped=%d drop_failures=%d duration=%s",
		len(stats.Regions), stats.Added, stats.Skipped, stats.Dropped, stats.DropFailures, stats.Duration)
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, dataDir, mode, httpAddr, table, bucket, queueURL string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	// Start with defaults or load from file
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// Apply environment variables
	config.LoadFromEnv(cfg)

	// Apply command line flags (highest priority)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if mode != "" {
		cfg.Mode = config.Mode(mode)
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	if table != "" {
		cfg.Catalog.Table = table
	}
	if bucket != "" {
		cfg.ObjectStore.Bucket = bucket
	}
	if queueURL != "" {
		cfg.Notify.QueueURL = queueURL
	}

	return cfg, nil
}

// printBanner prints the startup banner with configuration summary.
func printBanner(cfg *config.Config) {
	log.Printf("╔═══════════════════════════════════════════════════════════╗")
	log.Printf("║                       RELOADER                            ║")
	log.Printf("║     Partition Reconciliation for CloudTrail Tables        ║")
	log.Printf("╚═══════════════════════════════════════════════════════════╝")
	log.Printf("")
	log.Printf("Configuration:")
	log.Printf("  Mode:         %s", cfg.Mode)
	log.Printf("  Catalog:      %s (table %s)", cfg.Catalog.Backend, cfg.Catalog.Table)
	log.Printf("  Object Store: %s", cfg.ObjectStore.Backend)
	if cfg.ObjectStore.Bucket != "" {
		log.Printf("  Bucket:       %s", cfg.ObjectStore.Bucket)
	}
	log.Printf("")

	if cfg.ShouldRunDaemon() {
		log.Printf("Reconcile Daemon:")
		log.Printf("  Interval:       %s", cfg.Reconcile.Interval)
		log.Printf("  Query Deadline: %s", cfg.Reconcile.QueryDeadline)
		if cfg.Reconcile.RetentionDays > 0 {
			log.Printf("  Retention:      %d days (override)", cfg.Reconcile.RetentionDays)
		}
	}

	if cfg.ShouldServeHTTP() {
		log.Printf("HTTP Endpoints:")
		log.Printf("  Addr: %s", cfg.HTTP.Addr)
	}

	if cfg.ShouldRunNotifier() {
		log.Printf("Notification Receiver:")
		log.Printf("  Queue: %s", cfg.Notify.QueueURL)
	}

	log.Printf("")
}
