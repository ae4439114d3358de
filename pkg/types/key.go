package types

import "strings"

// PartitionSchema defines the ordered set of partition dimensions for a table.
// Order is significant: it determines both DDL column order and the order of
// storage-path segments under the table's base location.
type PartitionSchema struct {
	// Dimensions lists the partition column names in declaration order
	Dimensions []string `json:"dimensions"`
}

// DefaultPartitionSchema returns the CloudTrail log table schema.
func DefaultPartitionSchema() PartitionSchema {
	return PartitionSchema{
		Dimensions: []string{"region", "year", "month", "day"},
	}
}

// Arity returns the number of dimensions in the schema.
func (s PartitionSchema) Arity() int {
	return len(s.Dimensions)
}

// Validate checks that the schema has at least one uniquely named dimension.
func (s PartitionSchema) Validate() error {
	if len(s.Dimensions) == 0 {
		return ErrEmptySchema
	}
	seen := make(map[string]bool, len(s.Dimensions))
	for _, dim := range s.Dimensions {
		if dim == "" {
			return ErrEmptyDimension
		}
		if seen[dim] {
			return ErrDuplicateDimension
		}
		seen[dim] = true
	}
	return nil
}

// PartitionKey binds one ordered value per schema dimension. A key always has
// the same arity and dimension order as the schema it was built against.
type PartitionKey struct {
	// Schema is the partition schema the key conforms to
	Schema PartitionSchema `json:"schema"`

	// Values holds one value per schema dimension, in schema order
	Values []string `json:"values"`
}

// NewPartitionKey builds a key from ordered values, enforcing the arity
// invariant against the schema.
func NewPartitionKey(schema PartitionSchema, values ...string) (PartitionKey, error) {
	if err := schema.Validate(); err != nil {
		return PartitionKey{}, err
	}
	if len(values) != schema.Arity() {
		return PartitionKey{}, ErrArityMismatch
	}
	for _, v := range values {
		if v == "" {
			return PartitionKey{}, ErrEmptyValue
		}
	}
	key := PartitionKey{Schema: schema, Values: make([]string, len(values))}
	copy(key.Values, values)
	return key, nil
}

// Arity returns the number of dimension values in the key.
func (k PartitionKey) Arity() int {
	return len(k.Values)
}

// Pair returns the dimension name and value at position i.
func (k PartitionKey) Pair(i int) (string, string) {
	return k.Schema.Dimensions[i], k.Values[i]
}

// String renders the key in storage-path form, e.g.
// "region=us-east-1/year=2020/month=03/day=30".
func (k PartitionKey) String() string {
	var sb strings.Builder
	for i, v := range k.Values {
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(k.Schema.Dimensions[i])
		sb.WriteByte('=')
		sb.WriteString(v)
	}
	return sb.String()
}

// RetentionPolicy describes how long partition data is kept before the
// catalog entry is eligible for removal. A nil policy means never drop.
type RetentionPolicy struct {
	// ExpirationDays is the age in days after which data expires
	ExpirationDays int `json:"expiration_days"`
}
