// Package index builds the in-memory partition-existence model from a
// full catalog scan and answers point-membership queries against it.
package index

import (
	"strings"

	"github.com/arkilian/reloader/pkg/types"
)

// Index is the existence set for one catalog scan. It is scoped to a
// single reconciliation pass and read-only after construction; a flat set
// keyed by the full ordered value tuple answers membership exactly.
type Index struct {
	schema types.PartitionSchema
	tuples map[string]struct{}
	order  []string
}

// Build parses scan result pages into an index. Each row carries a single
// text column in storage-path form (dim=value segments joined by '/');
// the first row of the scan is a header and is always skipped, so a
// header-only scan yields an empty index. Rows that do not parse as
// dim=value segments are ignored.
func Build(schema types.PartitionSchema, pages []types.ResultPage) *Index {
	idx := &Index{
		schema: schema,
		tuples: make(map[string]struct{}),
	}

	header := true
	for _, page := range pages {
		for _, row := range page.Rows {
			if header {
				header = false
				continue
			}
			values, ok := parseRow(row)
			if !ok {
				continue
			}
			idx.insert(values)
		}
	}
	return idx
}

// parseRow extracts the ordered value tuple from one scan row.
func parseRow(row []string) ([]string, bool) {
	if len(row) == 0 || row[0] == "" {
		return nil, false
	}
	segments := strings.Split(row[0], "/")
	values := make([]string, 0, len(segments))
	for _, seg := range segments {
		eq := strings.Index(seg, "=")
		if eq < 0 {
			return nil, false
		}
		values = append(values, seg[eq+1:])
	}
	return values, true
}

func (idx *Index) insert(values []string) {
	tuple := strings.Join(values, "/")
	if _, exists := idx.tuples[tuple]; exists {
		return
	}
	idx.tuples[tuple] = struct{}{}
	idx.order = append(idx.order, tuple)
}

// Contains reports whether the key's exact ordered value tuple appeared
// in the scan. A key of arity 1 degenerates to a direct membership test.
func (idx *Index) Contains(key types.PartitionKey) bool {
	_, exists := idx.tuples[strings.Join(key.Values, "/")]
	return exists
}

// Len returns the number of distinct partitions in the index.
func (idx *Index) Len() int {
	return len(idx.tuples)
}

// Tuples returns the indexed value tuples in scan order, one string per
// partition with values joined by '/'.
func (idx *Index) Tuples() []string {
	out := make([]string, len(idx.order))
	copy(out, idx.order)
	return out
}
