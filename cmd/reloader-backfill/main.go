// Package main implements the reloader-backfill tool.
// It registers partitions for a historical date range in bulk, one ADD
// statement per region and day, without waiting for the reconcile daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/arkilian/reloader/internal/catalog"
	"github.com/arkilian/reloader/internal/config"
	"github.com/arkilian/reloader/internal/event"
	"github.com/arkilian/reloader/internal/executor"
	"github.com/arkilian/reloader/internal/objectstore"
	"github.com/arkilian/reloader/internal/partition"
	"github.com/arkilian/reloader/pkg/types"
)

const dateLayout = "2006-01-02"

func main() {
	// Load .env if present; real environment takes precedence
	_ = godotenv.Load()

	var (
		configFile string
		dataDir    string
		table      string
		bucket     string
		startDate  string
		endDate    string
		regionList string
		dryRun     bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for local backend data files")
	flag.StringVar(&table, "table", "", "Partitioned table to backfill")
	flag.StringVar(&bucket, "bucket", "", "Log bucket name")
	flag.StringVar(&startDate, "start", "", "First day to register (YYYY-MM-DD)")
	flag.StringVar(&endDate, "end", "", "Last day to register, inclusive (defaults to start)")
	flag.StringVar(&regionList, "regions", "", "Comma-separated regions (discovered from the bucket when empty)")
	flag.BoolVar(&dryRun, "dry-run", false, "Print the DDL instead of executing it")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "reloader-backfill - Bulk partition registration for a date range\n\n")
		fmt.Fprintf(os.Stderr, "Usage: reloader-backfill --start 2020-01-01 --end 2020-03-31 [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if startDate == "" {
		fmt.Fprintf(os.Stderr, "error: --start is required\n\n")
		flag.Usage()
		os.Exit(2)
	}
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		log.Fatalf("Invalid --start date %q: %v", startDate, err)
	}
	end := start
	if endDate != "" {
		end, err = time.Parse(dateLayout, endDate)
		if err != nil {
			log.Fatalf("Invalid --end date %q: %v", endDate, err)
		}
	}
	if end.Before(start) {
		log.Fatalf("End date %s is before start date %s", end.Format(dateLayout), start.Format(dateLayout))
	}

	cfg, err := loadConfig(configFile, dataDir, table, bucket)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Resolve the region list, discovering from the store when not given
	regions := splitRegions(regionList)
	if len(regions) == 0 {
		regions, err = discoverRegions(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to discover regions: %v", err)
		}
	}
	if len(regions) == 0 {
		log.Fatalf("No regions to backfill; pass --regions or point at a populated bucket")
	}
	log.Printf("Backfilling %s through %s for regions: %s",
		start.Format(dateLayout), end.Format(dateLayout), strings.Join(regions, ", "))

	schema := types.DefaultPartitionSchema()

	if dryRun {
		if err := printStatements(cfg, schema, start, end, regions); err != nil {
			log.Fatalf("Backfill failed: %v", err)
		}
		return
	}

	mutator, closeService, err := buildMutator(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize catalog service: %v", err)
	}
	defer closeService()

	added, failed := 0, 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		keys, err := event.KeysFromTime(schema, day, regions)
		if err != nil {
			log.Fatalf("Failed to derive keys for %s: %v", day.Format(dateLayout), err)
		}
		for _, key := range keys {
			if _, err := mutator.Add(ctx, key); err != nil {
				log.Printf("Add failed for %s: %v", key, err)
				failed++
				continue
			}
			added++
		}
	}

	log.Printf("Backfill complete: added=%d failed=%d", added, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, dataDir, table, bucket string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if table != "" {
		cfg.Catalog.Table = table
	}
	if bucket != "" {
		cfg.ObjectStore.Bucket = bucket
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return cfg, nil
}

// buildMutator wires the configured catalog backend into a partition mutator.
func buildMutator(ctx context.Context, cfg *config.Config) (*partition.Mutator, func(), error) {
	var service catalog.QueryService
	var err error

	switch cfg.Catalog.Backend {
	case "local":
		service, err = catalog.NewLocalService(cfg.Catalog.LocalPath, cfg.Catalog.OutputLocation)
	case "athena":
		service, err = catalog.NewAthenaService(ctx, catalog.AthenaConfig{
			Region:         cfg.ObjectStore.Region,
			Database:       cfg.Catalog.Database,
			Workgroup:      cfg.Catalog.Workgroup,
			OutputLocation: cfg.Catalog.OutputLocation,
		})
	default:
		return nil, nil, fmt.Errorf("unknown catalog backend: %s", cfg.Catalog.Backend)
	}
	if err != nil {
		return nil, nil, err
	}

	closeService := func() {
		if closer, ok := service.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				log.Printf("Catalog service close error: %v", err)
			}
		}
	}

	exec := executor.New(service, cfg.Reconcile.PollInterval, cfg.Reconcile.QueryDeadline)
	return partition.NewMutator(cfg.Catalog.Table, cfg.Catalog.BaseLocation, exec), closeService, nil
}

// discoverRegions lists the regions present under the configured log path.
func discoverRegions(ctx context.Context, cfg *config.Config) ([]string, error) {
	var store objectstore.Store
	var err error

	switch cfg.ObjectStore.Backend {
	case "local":
		store = objectstore.NewLocalStore(cfg.ObjectStore.LocalPath,
			cfg.ObjectStore.AccountID, cfg.ObjectStore.LogPrefix, 0)
	case "s3":
		store, err = objectstore.NewS3Store(ctx, cfg.ObjectStore.Bucket,
			cfg.ObjectStore.AccountID, cfg.ObjectStore.LogPrefix, objectstore.S3Config{
				Region:       cfg.ObjectStore.Region,
				Endpoint:     cfg.ObjectStore.Endpoint,
				UsePathStyle: cfg.ObjectStore.UsePathStyle,
			})
	default:
		return nil, fmt.Errorf("unknown object store backend: %s", cfg.ObjectStore.Backend)
	}
	if err != nil {
		return nil, err
	}

	return store.ListRegions(ctx)
}

// printStatements prints the ADD statements the backfill would execute.
func printStatements(cfg *config.Config, schema types.PartitionSchema, start, end time.Time, regions []string) error {
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		keys, err := event.KeysFromTime(schema, day, regions)
		if err != nil {
			return fmt.Errorf("failed to derive keys for %s: %w", day.Format(dateLayout), err)
		}
		for _, key := range keys {
			query, err := partition.BuildQuery(cfg.Catalog.Table, cfg.Catalog.BaseLocation, key, partition.ActionAdd)
			if err != nil {
				return err
			}
			fmt.Println(query)
		}
	}
	return nil
}

// splitRegions splits a comma-separated region list, dropping empty entries.
func splitRegions(list string) []string {
	if list == "" {
		return nil
	}
	var regions []string
	for _, r := range strings.Split(list, ",") {
		if r = strings.TrimSpace(r); r != "" {
			regions = append(regions, r)
		}
	}
	return regions
}
