// Package objectstore answers the two questions reconciliation asks of
// the log bucket: which regions ship logs into it, and how long the
// bucket keeps them.
package objectstore

import (
	"context"
	"strings"

	"github.com/arkilian/reloader/pkg/types"
)

// Store provides layout discovery over the trail log bucket.
type Store interface {
	// ListRegions returns the region codes observed one level below the
	// trail prefix, in listing order.
	ListRegions(ctx context.Context) ([]string, error)

	// RetentionPolicy returns the bucket's object expiration policy, or
	// nil when no lifecycle rule sets one.
	RetentionPolicy(ctx context.Context) (*types.RetentionPolicy, error)
}

// TrailPrefix returns the key prefix region listings run under, with a
// trailing slash: <logPrefix>/<accountID>/CloudTrail/.
func TrailPrefix(logPrefix, accountID string) string {
	return strings.TrimRight(logPrefix, "/") + "/" + accountID + "/CloudTrail/"
}

// regionFromPrefix extracts the region code from one common prefix,
// e.g. AWSLogs/123456789012/CloudTrail/us-east-1/ yields us-east-1.
func regionFromPrefix(prefix string) (string, bool) {
	trimmed := strings.TrimRight(prefix, "/")
	if trimmed == "" {
		return "", false
	}
	segments := strings.Split(trimmed, "/")
	region := segments[len(segments)-1]
	if region == "" {
		return "", false
	}
	return region, true
}
