package event

import (
	"fmt"
	"strings"
	"time"

	"github.com/arkilian/reloader/internal/errors"
	"github.com/arkilian/reloader/pkg/types"
)

// TimeParts formats a timestamp into the year/month/day dimension values:
// 4-digit year, 2-digit zero-padded month and day, all in UTC.
func TimeParts(t time.Time) (year, month, day string) {
	u := t.UTC()
	return u.Format("2006"), u.Format("01"), u.Format("02")
}

// KeysFromTime derives one partition key per region from a timer tick.
// Values follow the schema's dimension order: region first, then the
// date parts of the tick in UTC.
func KeysFromTime(schema types.PartitionSchema, t time.Time, regions []string) ([]types.PartitionKey, error) {
	year, month, day := TimeParts(t)

	keys := make([]types.PartitionKey, 0, len(regions))
	for _, region := range regions {
		key, err := types.NewPartitionKey(schema, region, year, month, day)
		if err != nil {
			return nil, errors.NewEventParseError(
				fmt.Sprintf("cannot derive key for region %q from tick %s", region, t.Format(time.RFC3339)), err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// KeyFromObjectPath derives a partition key from an object key path by
// slicing fixed-position segments. The first ignoreSegments path segments
// are the static layout prefix; the following segments map positionally
// onto the schema's dimensions. No key=value parsing is involved.
func KeyFromObjectPath(schema types.PartitionSchema, objectKey string, ignoreSegments int) (types.PartitionKey, error) {
	parts := strings.Split(strings.Trim(objectKey, "/"), "/")
	need := ignoreSegments + schema.Arity()
	if len(parts) < need {
		return types.PartitionKey{}, errors.NewEventParseError(
			fmt.Sprintf("object key %q has %d segments, need at least %d", objectKey, len(parts), need), nil)
	}

	values := parts[ignoreSegments : ignoreSegments+schema.Arity()]
	key, err := types.NewPartitionKey(schema, values...)
	if err != nil {
		return types.PartitionKey{}, errors.NewEventParseError(
			fmt.Sprintf("object key %q yields an invalid partition key", objectKey), err)
	}
	return key, nil
}
