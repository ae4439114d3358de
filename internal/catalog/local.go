package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/arkilian/reloader/internal/errors"
	"github.com/arkilian/reloader/pkg/types"
)

// defaultPageSize is the number of result rows returned per page.
const defaultPageSize = 1000

// LocalService is a file-backed QueryService used for local development
// and testing. Partition state and execution history live in a SQLite
// database, and statements complete synchronously inside StartQuery so
// the first status poll already observes a terminal state.
type LocalService struct {
	db             *sql.DB // Single writer connection
	readDB         *sql.DB // Read-only connection pool
	path           string
	outputLocation string
	pageSize       int
}

// NewLocalService creates a local catalog backed by the SQLite database
// at path. Result files are written under outputLocation when it is
// non-empty.
func NewLocalService(path, outputLocation string) (*LocalService, error) {
	return newLocalService(path, outputLocation, defaultPageSize)
}

// NewLocalServiceWithPageSize creates a local catalog with a custom
// result page size. Used by tests to exercise pagination.
func NewLocalServiceWithPageSize(path, outputLocation string, pageSize int) (*LocalService, error) {
	if pageSize < 1 {
		return nil, errors.NewInternalError(fmt.Sprintf("invalid page size: %d", pageSize), nil)
	}
	return newLocalService(path, outputLocation, pageSize)
}

func newLocalService(path, outputLocation string, pageSize int) (*LocalService, error) {
	// Single writer connection with WAL mode
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.NewCatalogError(errors.CodeCatalogIO, "failed to open catalog database", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer

	// Read-only connection pool
	readDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&mode=ro")
	if err != nil {
		db.Close()
		return nil, errors.NewCatalogError(errors.CodeCatalogIO, "failed to open catalog read pool", err)
	}
	readDB.SetMaxOpenConns(4)

	s := &LocalService{
		db:             db,
		readDB:         readDB,
		path:           path,
		outputLocation: strings.TrimRight(outputLocation, "/"),
		pageSize:       pageSize,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		readDB.Close()
		return nil, err
	}

	return s, nil
}

// initSchema creates the catalog tables if they don't exist.
func (s *LocalService) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS partitions (
		table_name TEXT NOT NULL,
		tuple      TEXT NOT NULL,
		location   TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		PRIMARY KEY (table_name, tuple)
	);

	CREATE TABLE IF NOT EXISTS query_executions (
		id           TEXT PRIMARY KEY,
		query        TEXT NOT NULL,
		status       TEXT NOT NULL,
		reason       TEXT NOT NULL DEFAULT '',
		submitted_at INTEGER NOT NULL,
		completed_at INTEGER,
		result_rows  TEXT NOT NULL DEFAULT '[]'
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.NewCatalogError(errors.CodeCatalogIO, "failed to initialize catalog schema", err)
	}
	return nil
}

// Close closes the underlying database connections.
func (s *LocalService) Close() error {
	if err := s.db.Close(); err != nil {
		s.readDB.Close()
		return errors.NewCatalogError(errors.CodeCatalogIO, "failed to close catalog database", err)
	}
	return s.readDB.Close()
}

// StartQuery submits a statement for execution and returns its
// execution ID. The statement runs to completion before StartQuery
// returns; parse and apply failures surface as a FAILED execution, not
// as an error from StartQuery.
func (s *LocalService) StartQuery(ctx context.Context, query string) (string, error) {
	id := uuid.New().String()
	submitted := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_executions (id, query, status, submitted_at) VALUES (?, ?, ?, ?)`,
		id, query, string(types.StatusQueued), submitted.UnixNano())
	if err != nil {
		return "", errors.NewSubmissionError("failed to record query execution", err)
	}

	rows, execErr := s.execute(ctx, query)
	if execErr != nil {
		if err := s.complete(ctx, id, types.StatusFailed, execErr.Error(), nil); err != nil {
			return "", err
		}
		return id, nil
	}

	if err := s.writeResultFile(id, rows); err != nil {
		if cerr := s.complete(ctx, id, types.StatusFailed, err.Error(), nil); cerr != nil {
			return "", cerr
		}
		return id, nil
	}

	if err := s.complete(ctx, id, types.StatusSucceeded, "", rows); err != nil {
		return "", err
	}
	return id, nil
}

// execute parses and applies one statement, returning its result rows.
func (s *LocalService) execute(ctx context.Context, query string) ([][]string, error) {
	stmt, err := Parse(query)
	if err != nil {
		return nil, err
	}

	switch st := stmt.(type) {
	case *AlterPartitionStatement:
		if st.Drop {
			return nil, s.applyDrop(ctx, st)
		}
		return nil, s.applyAdd(ctx, st)
	case *ShowPartitionsStatement:
		return s.scanPartitions(ctx, st.Table)
	default:
		return nil, fmt.Errorf("unsupported statement")
	}
}

// applyAdd registers a partition. A guarded add is idempotent; an
// unguarded add of an existing partition fails the way the real
// catalog does.
func (s *LocalService) applyAdd(ctx context.Context, st *AlterPartitionStatement) error {
	tuple := renderTuple(st.Pairs)

	if st.Guarded {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO partitions (table_name, tuple, location, created_at) VALUES (?, ?, ?, ?)`,
			st.Table, tuple, st.Location, time.Now().UTC().UnixNano())
		if err != nil {
			return fmt.Errorf("failed to add partition: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO partitions (table_name, tuple, location, created_at) VALUES (?, ?, ?, ?)`,
		st.Table, tuple, st.Location, time.Now().UTC().UnixNano())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("partition already exists: %s", tuple)
		}
		return fmt.Errorf("failed to add partition: %w", err)
	}
	return nil
}

// applyDrop removes a partition. A guarded drop of a missing partition
// is a no-op; an unguarded one fails.
func (s *LocalService) applyDrop(ctx context.Context, st *AlterPartitionStatement) error {
	tuple := renderTuple(st.Pairs)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM partitions WHERE table_name = ? AND tuple = ?`,
		st.Table, tuple)
	if err != nil {
		return fmt.Errorf("failed to drop partition: %w", err)
	}

	if !st.Guarded {
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to drop partition: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("partition does not exist: %s", tuple)
		}
	}
	return nil
}

// scanPartitions returns the SHOW PARTITIONS result rows: a header row
// followed by one tuple per registered partition, in insert order.
func (s *LocalService) scanPartitions(ctx context.Context, table string) ([][]string, error) {
	rows, err := s.readDB.QueryContext(ctx,
		`SELECT tuple FROM partitions WHERE table_name = ? ORDER BY rowid`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to scan partitions: %w", err)
	}
	defer rows.Close()

	result := [][]string{{"partition"}}
	for rows.Next() {
		var tuple string
		if err := rows.Scan(&tuple); err != nil {
			return nil, fmt.Errorf("failed to scan partitions: %w", err)
		}
		result = append(result, []string{tuple})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan partitions: %w", err)
	}
	return result, nil
}

// complete marks an execution terminal and stores its result rows.
func (s *LocalService) complete(ctx context.Context, id string, status types.ExecutionStatus, reason string, rows [][]string) error {
	if rows == nil {
		rows = [][]string{}
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return errors.NewCatalogError(errors.CodeCatalogIO, "failed to encode result rows", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE query_executions SET status = ?, reason = ?, completed_at = ?, result_rows = ? WHERE id = ?`,
		string(status), reason, time.Now().UTC().UnixNano(), string(encoded), id)
	if err != nil {
		return errors.NewCatalogError(errors.CodeCatalogIO, "failed to record execution result", err)
	}
	return nil
}

// writeResultFile writes the execution's result rows to the output
// location, one tab-separated row per line.
func (s *LocalService) writeResultFile(id string, rows [][]string) error {
	if s.outputLocation == "" {
		return nil
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(strings.Join(row, "\t"))
		sb.WriteByte('\n')
	}

	path := s.outputLocation + "/" + id + ".txt"
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}

// GetExecutionStatus returns the current status of an execution.
func (s *LocalService) GetExecutionStatus(ctx context.Context, executionID string) (types.ExecutionStatusInfo, error) {
	var (
		status      string
		reason      string
		submittedNs int64
		completedNs sql.NullInt64
	)
	err := s.readDB.QueryRowContext(ctx,
		`SELECT status, reason, submitted_at, completed_at FROM query_executions WHERE id = ?`,
		executionID).Scan(&status, &reason, &submittedNs, &completedNs)
	if err == sql.ErrNoRows {
		return types.ExecutionStatusInfo{}, errors.New(errors.ErrCategoryPolling, errors.CodeExecutionNotFound,
			fmt.Sprintf("execution %s not found", executionID))
	}
	if err != nil {
		return types.ExecutionStatusInfo{}, errors.NewPollingError(errors.CodeStatusCheckFailed, "failed to read execution status", err)
	}

	info := types.ExecutionStatusInfo{
		Status:      types.ExecutionStatus(status),
		Reason:      reason,
		SubmittedAt: time.Unix(0, submittedNs).UTC(),
	}
	if completedNs.Valid {
		info.CompletedAt = time.Unix(0, completedNs.Int64).UTC()
	}
	return info, nil
}

// GetResultPage returns one page of an execution's result rows. An
// empty pageToken requests the first page; the returned NextToken is
// empty on the last page.
func (s *LocalService) GetResultPage(ctx context.Context, executionID, pageToken string) (types.ResultPage, error) {
	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 {
			return types.ResultPage{}, errors.NewResultFetchError(fmt.Sprintf("invalid page token: %q", pageToken), err)
		}
		offset = n
	}

	var encoded string
	err := s.readDB.QueryRowContext(ctx,
		`SELECT result_rows FROM query_executions WHERE id = ?`, executionID).Scan(&encoded)
	if err == sql.ErrNoRows {
		return types.ResultPage{}, errors.New(errors.ErrCategoryResultFetch, errors.CodeExecutionNotFound,
			fmt.Sprintf("execution %s not found", executionID))
	}
	if err != nil {
		return types.ResultPage{}, errors.NewResultFetchError("failed to read execution results", err)
	}

	var rows [][]string
	if err := json.Unmarshal([]byte(encoded), &rows); err != nil {
		return types.ResultPage{}, errors.NewResultFetchError("failed to decode execution results", err)
	}

	if offset >= len(rows) {
		return types.ResultPage{Rows: [][]string{}}, nil
	}

	end := offset + s.pageSize
	if end > len(rows) {
		end = len(rows)
	}

	page := types.ResultPage{Rows: rows[offset:end]}
	if end < len(rows) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

// ResultLocation returns the path of the execution's result file.
func (s *LocalService) ResultLocation(executionID string) string {
	return s.outputLocation + "/" + executionID + ".txt"
}

// renderTuple renders partition pairs in the catalog's scan format.
func renderTuple(pairs []KeyValue) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.Name + "=" + p.Value
	}
	return strings.Join(parts, "/")
}
