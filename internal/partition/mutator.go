package partition

import (
	"context"

	"github.com/arkilian/reloader/pkg/types"
)

// QueryRunner executes one statement through the asynchronous query
// lifecycle and returns its result pages.
type QueryRunner interface {
	Run(ctx context.Context, query string) ([]types.ResultPage, error)
}

// Mutator issues catalog DDL for single partition keys against one table.
// Both mutations are idempotent: repeating an add or a drop for the same
// key is safe.
type Mutator struct {
	table        string
	baseLocation string
	runner       QueryRunner
}

// NewMutator creates a mutator for the given table and base data location.
func NewMutator(table, baseLocation string, runner QueryRunner) *Mutator {
	return &Mutator{
		table:        table,
		baseLocation: baseLocation,
		runner:       runner,
	}
}

// Add registers the key's partition in the catalog, pointing it at the
// key's storage path under the base location.
func (m *Mutator) Add(ctx context.Context, key types.PartitionKey) ([]types.ResultPage, error) {
	query, err := BuildQuery(m.table, m.baseLocation, key, ActionAdd)
	if err != nil {
		return nil, err
	}
	return m.runner.Run(ctx, query)
}

// Drop removes the key's partition entry from the catalog.
func (m *Mutator) Drop(ctx context.Context, key types.PartitionKey) ([]types.ResultPage, error) {
	query, err := BuildQuery(m.table, m.baseLocation, key, ActionDrop)
	if err != nil {
		return nil, err
	}
	return m.runner.Run(ctx, query)
}

// ShowPartitions scans the table's full partition listing.
func (m *Mutator) ShowPartitions(ctx context.Context) ([]types.ResultPage, error) {
	return m.runner.Run(ctx, ShowPartitionsQuery(m.table))
}

// Table returns the table the mutator operates on.
func (m *Mutator) Table() string {
	return m.table
}

// BaseLocation returns the base data location add statements point at.
func (m *Mutator) BaseLocation() string {
	return m.baseLocation
}
