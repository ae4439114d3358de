package partition

import (
	"fmt"
	"strings"

	"github.com/arkilian/reloader/internal/errors"
	"github.com/arkilian/reloader/pkg/types"
)

// unsafeValueChars are characters that would break out of the quoted DDL
// value or change the storage path shape.
const unsafeValueChars = "'\"`/\\=,()"

// ValidateKey checks that every key value is safe to substitute into a
// quoted DDL literal and a storage path segment.
func ValidateKey(key types.PartitionKey) error {
	if key.Arity() == 0 {
		return errors.New(errors.ErrCategoryValidation, errors.CodeInvalidPartitionKey,
			"partition key has no values")
	}
	if key.Arity() != key.Schema.Arity() {
		return errors.New(errors.ErrCategoryValidation, errors.CodeInvalidPartitionKey,
			fmt.Sprintf("partition key has %d values for %d dimensions", key.Arity(), key.Schema.Arity()))
	}

	for i, v := range key.Values {
		dim := key.Schema.Dimensions[i]
		if v == "" {
			return invalidValue(dim, v, "value is empty")
		}
		if strings.ContainsAny(v, unsafeValueChars) {
			return invalidValue(dim, v, "value contains quoting or separator characters")
		}
		for _, r := range v {
			if r < 0x20 || r == 0x7f {
				return invalidValue(dim, v, "value contains control characters")
			}
			if r == ' ' {
				return invalidValue(dim, v, "value contains whitespace")
			}
		}
	}
	return nil
}

func invalidValue(dimension, value, reason string) error {
	e := errors.New(errors.ErrCategoryValidation, errors.CodeInvalidPartitionKey,
		fmt.Sprintf("dimension %q: %s", dimension, reason))
	return e.WithDetails(map[string]interface{}{
		"dimension": dimension,
		"value":     value,
	})
}
