package types

import "errors"

// Partition key construction errors
var (
	// ErrEmptySchema is returned when a schema declares no dimensions
	ErrEmptySchema = errors.New("partition schema has no dimensions")

	// ErrEmptyDimension is returned when a schema dimension name is empty
	ErrEmptyDimension = errors.New("partition schema dimension name is empty")

	// ErrDuplicateDimension is returned when a dimension name repeats
	ErrDuplicateDimension = errors.New("partition schema dimension name repeated")

	// ErrArityMismatch is returned when key values do not cover the schema
	ErrArityMismatch = errors.New("partition key arity does not match schema")

	// ErrEmptyValue is returned when a key value is empty
	ErrEmptyValue = errors.New("partition key value is empty")
)
