package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestReloaderError_Error(t *testing.T) {
	err := New(ErrCategorySubmission, CodeSubmitRejected, "submit rejected")
	expected := "[SUBMISSION:SUBMIT_REJECTED] submit rejected"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestReloaderError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCategoryPolling, CodeStatusCheckFailed, "status check failed", cause)
	expected := "[POLLING:STATUS_CHECK_FAILED] status check failed: connection refused"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestReloaderError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryResultFetch, CodeResultFetchFailed, "fetch failed", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestReloaderError_Is(t *testing.T) {
	err1 := New(ErrCategoryQuery, CodeQueryFailed, "first")
	err2 := New(ErrCategoryQuery, CodeQueryFailed, "second")
	err3 := New(ErrCategoryQuery, CodeQueryCancelled, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{ErrCategorySubmission, CodeSubmitRejected, true},
		{ErrCategoryPolling, CodeStatusCheckFailed, true},
		{ErrCategoryPolling, CodePollDeadlineExceeded, false},
		{ErrCategoryResultFetch, CodeResultFetchFailed, true},
		{ErrCategoryQuery, CodeQueryFailed, false},
		{ErrCategoryQuery, CodeQueryCancelled, false},
		{ErrCategoryStorage, CodeRegionListFailed, true},
		{ErrCategoryStorage, CodeLifecycleLookupFailed, true},
		{ErrCategoryValidation, CodeInvalidAction, false},
		{ErrCategoryEvent, CodeEventParse, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRetryable(err) != tt.retryable {
			t.Errorf("%s:%s retryable=%v, want %v", tt.category, tt.code, IsRetryable(err), tt.retryable)
		}
	}
}

func TestGetCategory(t *testing.T) {
	err := New(ErrCategoryEvent, CodeEventParse, "bad trigger")
	if GetCategory(err) != ErrCategoryEvent {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryEvent)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-ReloaderError should return empty category")
	}
}

func TestGetCode(t *testing.T) {
	err := New(ErrCategoryCatalog, CodeStatementParse, "bad ddl")
	if GetCode(err) != CodeStatementParse {
		t.Errorf("got %q, want %q", GetCode(err), CodeStatementParse)
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-ReloaderError should return empty code")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrCategoryValidation, CodeInvalidPartitionKey, "bad key")
	detailed := err.WithDetails(map[string]interface{}{"dimension": "region"})

	if detailed.Details["dimension"] != "region" {
		t.Error("WithDetails should set details")
	}
	// Original should be unmodified
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}

func TestExecutionID(t *testing.T) {
	err := NewQueryFailedError("abc-123")
	if ExecutionID(err) != "abc-123" {
		t.Errorf("got %q, want %q", ExecutionID(err), "abc-123")
	}

	wrapped := fmt.Errorf("pass failed: %w", err)
	if ExecutionID(wrapped) != "abc-123" {
		t.Error("ExecutionID should traverse the error chain")
	}

	if ExecutionID(fmt.Errorf("plain error")) != "" {
		t.Error("plain error should return empty execution id")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := fmt.Errorf("io error")

	s := NewSubmissionError("service rejected query", cause)
	if s.Category != ErrCategorySubmission || !errors.Is(s, cause) {
		t.Error("NewSubmissionError mismatch")
	}

	p := NewPollingError(CodeStatusCheckFailed, "status call failed", cause)
	if p.Category != ErrCategoryPolling {
		t.Error("NewPollingError mismatch")
	}

	f := NewResultFetchError("page fetch failed", cause)
	if f.Category != ErrCategoryResultFetch || f.Code != CodeResultFetchFailed {
		t.Error("NewResultFetchError mismatch")
	}

	q := NewQueryFailedError("exec-1")
	if !IsQueryFailed(q) {
		t.Error("NewQueryFailedError should satisfy IsQueryFailed")
	}
	if IsQueryCancelled(q) {
		t.Error("failed outcome should not satisfy IsQueryCancelled")
	}

	c := NewQueryCancelledError("exec-2")
	if !IsQueryCancelled(c) {
		t.Error("NewQueryCancelledError should satisfy IsQueryCancelled")
	}

	a := NewInvalidActionError("TRUNCATE")
	if !IsInvalidAction(a) {
		t.Error("NewInvalidActionError should satisfy IsInvalidAction")
	}

	e := NewEventParseError("unknown trigger shape", nil)
	if !IsEventParse(e) {
		t.Error("NewEventParseError should satisfy IsEventParse")
	}

	i := NewInternalError("unexpected", cause)
	if i.Category != ErrCategoryInternal || i.Code != CodeUnexpected {
		t.Error("NewInternalError mismatch")
	}
}
