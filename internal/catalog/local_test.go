package catalog

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/arkilian/reloader/pkg/types"
)

func newTestService(t *testing.T) *LocalService {
	t.Helper()

	dir := t.TempDir()
	if err := os.MkdirAll(dir+"/results", 0755); err != nil {
		t.Fatalf("failed to create results dir: %v", err)
	}

	svc, err := NewLocalService(dir+"/catalog.db", dir+"/results")
	if err != nil {
		t.Fatalf("failed to create local service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// run submits a statement and returns its execution ID and terminal status.
func run(t *testing.T, svc *LocalService, query string) (string, types.ExecutionStatusInfo) {
	t.Helper()

	ctx := context.Background()
	id, err := svc.StartQuery(ctx, query)
	if err != nil {
		t.Fatalf("failed to start query %q: %v", query, err)
	}

	info, err := svc.GetExecutionStatus(ctx, id)
	if err != nil {
		t.Fatalf("failed to get execution status: %v", err)
	}
	if !info.Status.IsTerminal() {
		t.Fatalf("expected terminal status, got %s", info.Status)
	}
	return id, info
}

func TestLocalService_AddAndScan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, info := run(t, svc, "ALTER TABLE cloudtrail_logs ADD IF NOT EXISTS PARTITION (region='us-east-1',year='2020',month='03',day='30') LOCATION 's3://trail-logs/AWSLogs/123456789012/CloudTrail/us-east-1/2020/03/30/'")
	if info.Status != types.StatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s (%s)", info.Status, info.Reason)
	}

	id, info := run(t, svc, "SHOW PARTITIONS cloudtrail_logs")
	if info.Status != types.StatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s (%s)", info.Status, info.Reason)
	}

	page, err := svc.GetResultPage(ctx, id, "")
	if err != nil {
		t.Fatalf("failed to get result page: %v", err)
	}

	if len(page.Rows) != 2 {
		t.Fatalf("expected header plus 1 row, got %d rows", len(page.Rows))
	}
	if page.Rows[0][0] != "partition" {
		t.Errorf("expected header row, got %q", page.Rows[0][0])
	}
	if page.Rows[1][0] != "region=us-east-1/year=2020/month=03/day=30" {
		t.Errorf("unexpected partition tuple: %q", page.Rows[1][0])
	}
	if page.NextToken != "" {
		t.Errorf("expected no next token, got %q", page.NextToken)
	}
}

func TestLocalService_GuardedAddIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	query := "ALTER TABLE logs ADD IF NOT EXISTS PARTITION (region='us-east-1',year='2020',month='03',day='30')"
	for i := 0; i < 2; i++ {
		_, info := run(t, svc, query)
		if info.Status != types.StatusSucceeded {
			t.Fatalf("attempt %d: expected SUCCEEDED, got %s (%s)", i, info.Status, info.Reason)
		}
	}

	id, _ := run(t, svc, "SHOW PARTITIONS logs")
	page, err := svc.GetResultPage(ctx, id, "")
	if err != nil {
		t.Fatalf("failed to get result page: %v", err)
	}
	if len(page.Rows) != 2 {
		t.Errorf("expected header plus 1 row, got %d rows", len(page.Rows))
	}
}

func TestLocalService_UnguardedAddFailsOnDuplicate(t *testing.T) {
	svc := newTestService(t)

	query := "ALTER TABLE logs ADD PARTITION (region='us-east-1',year='2020',month='03',day='30')"
	_, info := run(t, svc, query)
	if info.Status != types.StatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s (%s)", info.Status, info.Reason)
	}

	_, info = run(t, svc, query)
	if info.Status != types.StatusFailed {
		t.Fatalf("expected FAILED, got %s", info.Status)
	}
	if !strings.Contains(info.Reason, "already exists") {
		t.Errorf("unexpected failure reason: %q", info.Reason)
	}
}

func TestLocalService_Drop(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, info := run(t, svc, "ALTER TABLE logs ADD IF NOT EXISTS PARTITION (region='us-east-1',year='2019',month='12',day='31')")
	if info.Status != types.StatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s (%s)", info.Status, info.Reason)
	}

	_, info = run(t, svc, "ALTER TABLE logs DROP IF EXISTS PARTITION (region='us-east-1',year='2019',month='12',day='31')")
	if info.Status != types.StatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s (%s)", info.Status, info.Reason)
	}

	id, _ := run(t, svc, "SHOW PARTITIONS logs")
	page, err := svc.GetResultPage(ctx, id, "")
	if err != nil {
		t.Fatalf("failed to get result page: %v", err)
	}
	if len(page.Rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(page.Rows))
	}

	// Guarded drop of a missing partition is a no-op
	_, info = run(t, svc, "ALTER TABLE logs DROP IF EXISTS PARTITION (region='us-east-1',year='2019',month='12',day='31')")
	if info.Status != types.StatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s (%s)", info.Status, info.Reason)
	}

	// Unguarded drop of a missing partition fails
	_, info = run(t, svc, "ALTER TABLE logs DROP PARTITION (region='us-east-1',year='2019',month='12',day='31')")
	if info.Status != types.StatusFailed {
		t.Errorf("expected FAILED, got %s", info.Status)
	}
}

func TestLocalService_ParseErrorFailsExecution(t *testing.T) {
	svc := newTestService(t)

	_, info := run(t, svc, "ALTER TABLE logs ADD PARTITION region='x'")
	if info.Status != types.StatusFailed {
		t.Fatalf("expected FAILED, got %s", info.Status)
	}
	if info.Reason == "" {
		t.Error("expected failure reason")
	}
	if info.CompletedAt.IsZero() {
		t.Error("expected completion time on terminal execution")
	}
}

func TestLocalService_ResultPagination(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewLocalServiceWithPageSize(dir+"/catalog.db", "", 2)
	if err != nil {
		t.Fatalf("failed to create local service: %v", err)
	}
	defer svc.Close()

	ctx := context.Background()
	days := []string{"01", "02", "03"}
	for _, day := range days {
		query := "ALTER TABLE logs ADD IF NOT EXISTS PARTITION (region='us-east-1',year='2020',month='03',day='" + day + "')"
		if _, err := svc.StartQuery(ctx, query); err != nil {
			t.Fatalf("failed to start query: %v", err)
		}
	}

	id, err := svc.StartQuery(ctx, "SHOW PARTITIONS logs")
	if err != nil {
		t.Fatalf("failed to start scan: %v", err)
	}

	// Header plus 3 tuples paged 2 at a time
	first, err := svc.GetResultPage(ctx, id, "")
	if err != nil {
		t.Fatalf("failed to get first page: %v", err)
	}
	if len(first.Rows) != 2 {
		t.Fatalf("expected 2 rows on first page, got %d", len(first.Rows))
	}
	if first.NextToken == "" {
		t.Fatal("expected next token on first page")
	}

	second, err := svc.GetResultPage(ctx, id, first.NextToken)
	if err != nil {
		t.Fatalf("failed to get second page: %v", err)
	}
	if len(second.Rows) != 2 {
		t.Fatalf("expected 2 rows on second page, got %d", len(second.Rows))
	}
	if second.NextToken != "" {
		t.Errorf("expected no token on last page, got %q", second.NextToken)
	}

	if first.Rows[0][0] != "partition" {
		t.Errorf("expected header row first, got %q", first.Rows[0][0])
	}
	if second.Rows[1][0] != "region=us-east-1/year=2020/month=03/day=03" {
		t.Errorf("unexpected last tuple: %q", second.Rows[1][0])
	}
}

func TestLocalService_ResultFile(t *testing.T) {
	svc := newTestService(t)

	id, info := run(t, svc, "SHOW PARTITIONS empty_table")
	if info.Status != types.StatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s (%s)", info.Status, info.Reason)
	}

	path := svc.ResultLocation(id)
	if !strings.HasSuffix(path, "/"+id+".txt") {
		t.Errorf("unexpected result location: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read result file: %v", err)
	}
	if string(data) != "partition\n" {
		t.Errorf("unexpected result file contents: %q", string(data))
	}
}

func TestLocalService_ExecutionNotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetExecutionStatus(ctx, "no-such-execution"); err == nil {
		t.Error("expected error for unknown execution")
	}
	if _, err := svc.GetResultPage(ctx, "no-such-execution", ""); err == nil {
		t.Error("expected error for unknown execution")
	}
}

func TestLocalService_InvalidPageToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, _ := run(t, svc, "SHOW PARTITIONS logs")
	if _, err := svc.GetResultPage(ctx, id, "not-a-number"); err == nil {
		t.Error("expected error for invalid page token")
	}
}
