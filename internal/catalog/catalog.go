// Package catalog defines the asynchronous catalog/query service the
// reconciler drives, with an Athena-backed implementation and a local
// SQLite-backed one for development and tests.
package catalog

import (
	"context"

	"github.com/arkilian/reloader/pkg/types"
)

// QueryService is the execution surface of the catalog. Submissions run
// against a database and result-output location fixed at construction.
type QueryService interface {
	// StartQuery submits a statement and returns the execution id.
	StartQuery(ctx context.Context, query string) (string, error)

	// GetExecutionStatus returns one status observation for an execution.
	GetExecutionStatus(ctx context.Context, executionID string) (types.ExecutionStatusInfo, error)

	// GetResultPage returns one page of a completed execution's results.
	// An empty pageToken requests the first page; the returned page's
	// NextToken is empty on the last page.
	GetResultPage(ctx context.Context, executionID, pageToken string) (types.ResultPage, error)

	// ResultLocation returns the derived path of an execution's result
	// object under the configured output location.
	ResultLocation(executionID string) string
}
