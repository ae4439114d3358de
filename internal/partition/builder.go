// Package partition builds and executes the catalog DDL for single
// partition keys.
package partition

import (
	"strings"

	"github.com/arkilian/reloader/internal/errors"
	"github.com/arkilian/reloader/pkg/types"
)

// Action is a catalog mutation kind.
type Action string

const (
	// ActionAdd registers a partition together with its storage location
	ActionAdd Action = "ADD"

	// ActionDrop removes a partition entry from the catalog
	ActionDrop Action = "DROP"
)

// BuildQuery produces the ALTER TABLE statement for one partition key.
// ADD statements carry IF NOT EXISTS and a LOCATION clause pointing at
// the key's storage path; DROP statements carry IF EXISTS and no
// location. Value order follows key order exactly.
//
// Values are substituted literally between single quotes. ValidateKey
// rejects quoting and separator characters up front; beyond that, values
// are trusted to be path-safe strings.
func BuildQuery(table, baseLocation string, key types.PartitionKey, action Action) (string, error) {
	if action != ActionAdd && action != ActionDrop {
		return "", errors.NewInvalidActionError(string(action))
	}
	if err := ValidateKey(key); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("ALTER TABLE ")
	sb.WriteString(table)

	switch action {
	case ActionAdd:
		sb.WriteString(" ADD IF NOT EXISTS PARTITION (")
	case ActionDrop:
		sb.WriteString(" DROP IF EXISTS PARTITION (")
	}

	for i := 0; i < key.Arity(); i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		dim, val := key.Pair(i)
		sb.WriteString(dim)
		sb.WriteString("='")
		sb.WriteString(val)
		sb.WriteString("'")
	}
	sb.WriteByte(')')

	if action == ActionAdd {
		sb.WriteString(" LOCATION '")
		sb.WriteString(Location(baseLocation, key))
		sb.WriteString("'")
	}

	return sb.String(), nil
}

// Location joins the base location and the key's values into the
// partition's storage path, with a trailing separator. The segment order
// must match the physical layout the table was defined against.
func Location(baseLocation string, key types.PartitionKey) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(baseLocation, "/"))
	for _, v := range key.Values {
		sb.WriteByte('/')
		sb.WriteString(v)
	}
	sb.WriteByte('/')
	return sb.String()
}

// ShowPartitionsQuery produces the full catalog scan statement for a table.
func ShowPartitionsQuery(table string) string {
	return "SHOW PARTITIONS " + table
}
