package types

import (
	"errors"
	"testing"
)

func TestNewPartitionKey(t *testing.T) {
	schema := DefaultPartitionSchema()

	key, err := NewPartitionKey(schema, "us-east-1", "2020", "03", "30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if key.Arity() != 4 {
		t.Errorf("expected arity 4, got %d", key.Arity())
	}

	dim, val := key.Pair(0)
	if dim != "region" || val != "us-east-1" {
		t.Errorf("expected (region, us-east-1), got (%s, %s)", dim, val)
	}
}

func TestNewPartitionKeyArityMismatch(t *testing.T) {
	schema := DefaultPartitionSchema()

	_, err := NewPartitionKey(schema, "us-east-1", "2020")
	if !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("expected ErrArityMismatch, got %v", err)
	}
}

func TestNewPartitionKeyEmptyValue(t *testing.T) {
	schema := DefaultPartitionSchema()

	_, err := NewPartitionKey(schema, "us-east-1", "2020", "", "30")
	if !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("expected ErrEmptyValue, got %v", err)
	}
}

func TestNewPartitionKeyCopiesValues(t *testing.T) {
	schema := DefaultPartitionSchema()
	values := []string{"us-east-1", "2020", "03", "30"}

	key, err := NewPartitionKey(schema, values...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	values[0] = "mutated"
	if key.Values[0] != "us-east-1" {
		t.Errorf("key values aliased caller slice: got %s", key.Values[0])
	}
}

func TestPartitionKeyString(t *testing.T) {
	schema := DefaultPartitionSchema()

	key, err := NewPartitionKey(schema, "us-east-1", "2020", "03", "30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "region=us-east-1/year=2020/month=03/day=30"
	if key.String() != expected {
		t.Errorf("expected %q, got %q", expected, key.String())
	}
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  PartitionSchema
		wantErr error
	}{
		{"default", DefaultPartitionSchema(), nil},
		{"single dimension", PartitionSchema{Dimensions: []string{"dt"}}, nil},
		{"empty", PartitionSchema{}, ErrEmptySchema},
		{"blank name", PartitionSchema{Dimensions: []string{"region", ""}}, ErrEmptyDimension},
		{"duplicate", PartitionSchema{Dimensions: []string{"year", "year"}}, ErrDuplicateDimension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExecutionStatusIsTerminal(t *testing.T) {
	terminal := []ExecutionStatus{StatusSucceeded, StatusFailed, StatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	for _, s := range []ExecutionStatus{StatusQueued, StatusRunning, ExecutionStatus("BOGUS")} {
		if s.IsTerminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestExecutionStatusKnown(t *testing.T) {
	if !StatusRunning.Known() {
		t.Error("expected RUNNING to be known")
	}
	if ExecutionStatus("EXPLODED").Known() {
		t.Error("expected EXPLODED to be unknown")
	}
}
