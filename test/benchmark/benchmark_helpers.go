package benchmark

import (
	"context"
	"os"
	"path"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/arkilian/reloader/internal/catalog"
	"github.com/arkilian/reloader/internal/executor"
	"github.com/arkilian/reloader/internal/partition"
)

// getBenchmarkMutator returns a partition mutator wired to a catalog backend
// and a cleanup function. It respects RELOADER_CATALOG_BACKEND=athena from
// .env or environment; the default is a local SQLite catalog in a temp dir.
//
// For Athena the table named by RELOADER_BENCH_TABLE takes the mutations, so
// point it at a scratch table rather than a production one.
func getBenchmarkMutator(b *testing.B, benchName string) (*partition.Mutator, func()) {
	// Try loading .env from project root (../../.env relative to test/benchmark)
	_ = godotenv.Load("../../.env")

	backend := os.Getenv("RELOADER_CATALOG_BACKEND")

	if backend == "athena" {
		table := os.Getenv("RELOADER_BENCH_TABLE")
		if table == "" {
			b.Fatal("RELOADER_BENCH_TABLE is required for athena benchmarks")
		}
		baseLocation := os.Getenv("RELOADER_BASE_LOCATION")
		if baseLocation == "" {
			b.Fatal("RELOADER_BASE_LOCATION is required for athena benchmarks")
		}

		svc, err := catalog.NewAthenaService(context.Background(), catalog.AthenaConfig{
			Region:         os.Getenv("RELOADER_S3_REGION"),
			Database:       os.Getenv("RELOADER_CATALOG_DATABASE"),
			Workgroup:      os.Getenv("RELOADER_CATALOG_WORKGROUP"),
			OutputLocation: os.Getenv("RELOADER_CATALOG_OUTPUT_LOCATION"),
		})
		if err != nil {
			b.Fatalf("Failed to initialize Athena service: %v", err)
		}

		exec := executor.New(svc, 250*time.Millisecond, 5*time.Minute)

		b.Logf("Running benchmark against Athena table: %s", table)
		return partition.NewMutator(table, baseLocation, exec), func() {}
	}

	// Default to local
	dir, err := os.MkdirTemp("", "reloader-bench-"+benchName+"-*")
	if err != nil {
		b.Fatal(err)
	}
	resultsDir := path.Join(dir, "results")
	os.MkdirAll(resultsDir, 0755)

	svc, err := catalog.NewLocalService(path.Join(dir, "catalog.db"), resultsDir)
	if err != nil {
		b.Fatalf("Failed to initialize local catalog: %v", err)
	}

	exec := executor.New(svc, time.Millisecond, 30*time.Second)
	mutator := partition.NewMutator(
		"bench_cloudtrail_logs",
		"s3://bench-trail-logs/AWSLogs/123456789012/CloudTrail",
		exec,
	)

	cleanup := func() {
		svc.Close()
		os.RemoveAll(dir)
	}

	return mutator, cleanup
}
