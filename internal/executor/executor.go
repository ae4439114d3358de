// Package executor drives catalog query executions from submission to
// terminal state. It owns the polling loop and the mapping from terminal
// states to typed errors; callers see either result pages or a
// categorized failure.
package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/arkilian/reloader/internal/catalog"
	"github.com/arkilian/reloader/internal/errors"
	"github.com/arkilian/reloader/pkg/types"
)

// Executor submits statements to a catalog service and polls them to
// completion.
type Executor struct {
	service      catalog.QueryService
	pollInterval time.Duration
	deadline     time.Duration
}

// New creates an Executor polling at pollInterval, giving up on any
// single execution after deadline.
func New(service catalog.QueryService, pollInterval, deadline time.Duration) *Executor {
	return &Executor{
		service:      service,
		pollInterval: pollInterval,
		deadline:     deadline,
	}
}

// Submit starts a query execution and returns its tracking record.
func (e *Executor) Submit(ctx context.Context, query string) (*types.QueryExecution, error) {
	id, err := e.service.StartQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	return &types.QueryExecution{
		ID:             id,
		Query:          query,
		ResultLocation: e.service.ResultLocation(id),
		Status:         types.StatusQueued,
		SubmittedAt:    time.Now().UTC(),
	}, nil
}

// AwaitCompletion polls the execution until it reaches a terminal state.
// It returns nil only for SUCCEEDED; FAILED and CANCELLED map to query
// errors carrying the execution ID, and an execution still running at
// the deadline maps to a polling error. The execution record is updated
// with each observation.
func (e *Executor) AwaitCompletion(ctx context.Context, exec *types.QueryExecution) error {
	deadline := time.NewTimer(e.deadline)
	defer deadline.Stop()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		info, err := e.service.GetExecutionStatus(ctx, exec.ID)
		if err != nil {
			return err
		}

		exec.Status = info.Status
		if !info.SubmittedAt.IsZero() {
			exec.SubmittedAt = info.SubmittedAt
		}
		if !info.CompletedAt.IsZero() {
			exec.CompletedAt = info.CompletedAt
		}
		if info.RequestID != "" {
			exec.RequestID = info.RequestID
		}

		if !info.Status.Known() {
			return errors.New(errors.ErrCategoryInternal, errors.CodeUnexpectedStatus,
				fmt.Sprintf("execution %s reported unknown status %q", exec.ID, info.Status))
		}

		if info.Status.IsTerminal() {
			switch info.Status {
			case types.StatusSucceeded:
				return nil
			case types.StatusFailed:
				log.Printf("executor: query failed id=%s request_id=%s submitted=%s completed=%s reason=%q query=%q",
					exec.ID, exec.RequestID, exec.SubmittedAt.Format(time.RFC3339),
					exec.CompletedAt.Format(time.RFC3339), info.Reason, exec.Query)
				details := map[string]interface{}{"execution_id": exec.ID}
				if info.Reason != "" {
					details["reason"] = info.Reason
				}
				return errors.NewQueryFailedError(exec.ID).WithDetails(details)
			case types.StatusCancelled:
				log.Printf("executor: query cancelled id=%s request_id=%s submitted=%s completed=%s query=%q",
					exec.ID, exec.RequestID, exec.SubmittedAt.Format(time.RFC3339),
					exec.CompletedAt.Format(time.RFC3339), exec.Query)
				return errors.NewQueryCancelledError(exec.ID)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			log.Printf("executor: poll deadline exceeded id=%s status=%s submitted=%s query=%q",
				exec.ID, exec.Status, exec.SubmittedAt.Format(time.RFC3339), exec.Query)
			return errors.NewPollingError(errors.CodePollDeadlineExceeded,
				fmt.Sprintf("execution %s still %s after %s", exec.ID, exec.Status, e.deadline), nil).
				WithDetails(map[string]interface{}{"execution_id": exec.ID})
		case <-ticker.C:
		}
	}
}

// FetchResults retrieves every result page of a completed execution in
// order.
func (e *Executor) FetchResults(ctx context.Context, exec *types.QueryExecution) ([]types.ResultPage, error) {
	var pages []types.ResultPage

	token := ""
	for {
		page, err := e.service.GetResultPage(ctx, exec.ID, token)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)

		if page.NextToken == "" {
			return pages, nil
		}
		token = page.NextToken
	}
}

// Run submits a query, waits for it to complete, and returns its result
// pages. It satisfies the query runner contract of the partition
// mutator.
func (e *Executor) Run(ctx context.Context, query string) ([]types.ResultPage, error) {
	exec, err := e.Submit(ctx, query)
	if err != nil {
		log.Printf("executor: submission failed query=%q: %v", query, err)
		return nil, err
	}

	if err := e.AwaitCompletion(ctx, exec); err != nil {
		return nil, err
	}

	log.Printf("executor: query succeeded id=%s elapsed=%s", exec.ID, time.Since(exec.SubmittedAt))
	return e.FetchResults(ctx, exec)
}
