package types

import "time"

// ExecutionStatus is the lifecycle state of an asynchronous query execution.
// The wire values mirror the catalog service's own status strings.
type ExecutionStatus string

const (
	// StatusQueued means the execution has been accepted but not started
	StatusQueued ExecutionStatus = "QUEUED"

	// StatusRunning means the execution is in progress
	StatusRunning ExecutionStatus = "RUNNING"

	// StatusSucceeded means the execution completed and results are available
	StatusSucceeded ExecutionStatus = "SUCCEEDED"

	// StatusFailed means the execution completed with an error
	StatusFailed ExecutionStatus = "FAILED"

	// StatusCancelled means the execution was cancelled before completing
	StatusCancelled ExecutionStatus = "CANCELLED"
)

// IsTerminal reports whether no further status transition can occur.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Known reports whether the status is one of the defined lifecycle states.
func (s ExecutionStatus) Known() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// QueryExecution tracks one submitted query through its lifecycle. The
// executor owns it exclusively: created on submit, mutated only by the
// polling loop, terminal once Status leaves the running states.
type QueryExecution struct {
	// ID is the opaque execution identifier assigned by the catalog service
	ID string `json:"id"`

	// Query is the submitted statement text, retained for failure logs
	Query string `json:"query"`

	// ResultLocation is the derived path of the execution's result object
	ResultLocation string `json:"result_location"`

	// Status is the last observed lifecycle state
	Status ExecutionStatus `json:"status"`

	// SubmittedAt is when the catalog service accepted the execution
	SubmittedAt time.Time `json:"submitted_at"`

	// CompletedAt is when the execution reached a terminal state
	CompletedAt time.Time `json:"completed_at"`

	// RequestID is the upstream request identifier, for operator tracing
	RequestID string `json:"request_id"`
}

// ExecutionStatusInfo is one polled status observation.
type ExecutionStatusInfo struct {
	// Status is the lifecycle state at observation time
	Status ExecutionStatus `json:"status"`

	// Reason is the service's explanation for a failed or cancelled
	// execution, empty otherwise
	Reason string `json:"reason,omitempty"`

	// SubmittedAt is when the catalog service accepted the execution
	SubmittedAt time.Time `json:"submitted_at"`

	// CompletedAt is when the execution terminated; zero while in flight
	CompletedAt time.Time `json:"completed_at"`

	// RequestID is the upstream request identifier
	RequestID string `json:"request_id"`
}

// ResultPage is one page of query results. Each row is an ordered list of
// single-column text values; the first row of the first page of a
// SHOW PARTITIONS scan is a header.
type ResultPage struct {
	// Rows holds the page's rows as ordered column values
	Rows [][]string `json:"rows"`

	// NextToken is the continuation token for the following page, empty on
	// the last page
	NextToken string `json:"next_token"`
}
