// Package event defines the trigger shapes that start a reconciliation
// pass and the derivation of partition keys from them.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/arkilian/reloader/internal/errors"
)

// Trigger is one of the two inbound notification shapes: a timer tick
// carrying a timestamp, or an object-created notification carrying a key
// path. No other shape is accepted.
type Trigger interface {
	trigger()
}

// TimerEvent is a scheduled tick. Key derivation uses the event's own
// clock, not the wall clock at processing time.
type TimerEvent struct {
	// Time is the tick timestamp from the event envelope
	Time time.Time `json:"time"`
}

func (TimerEvent) trigger() {}

// ObjectCreatedEvent is an object-store creation notification.
type ObjectCreatedEvent struct {
	// Bucket is the bucket the object was written to
	Bucket string `json:"bucket"`

	// Key is the full object key path
	Key string `json:"key"`

	// ETag is the created object's entity tag
	ETag string `json:"etag"`
}

func (ObjectCreatedEvent) trigger() {}

// envelope covers both wire shapes; exactly one of the two field sets is
// populated in a well-formed trigger.
type envelope struct {
	Time    string `json:"time"`
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key  string `json:"key"`
				ETag string `json:"eTag"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// ParseTrigger decodes a raw trigger payload into exactly one of the two
// known shapes. Anything else fails with an event parse error.
func ParseTrigger(raw []byte) (Trigger, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.NewEventParseError("trigger payload is not valid JSON", err)
	}

	if len(env.Records) > 0 {
		rec := env.Records[0].S3
		if rec.Object.Key == "" {
			return nil, errors.NewEventParseError("object record is missing the key path", nil)
		}
		return ObjectCreatedEvent{
			Bucket: rec.Bucket.Name,
			Key:    rec.Object.Key,
			ETag:   rec.Object.ETag,
		}, nil
	}

	if env.Time != "" {
		t, err := time.Parse(time.RFC3339, env.Time)
		if err != nil {
			return nil, errors.NewEventParseError(fmt.Sprintf("malformed trigger timestamp %q", env.Time), err)
		}
		return TimerEvent{Time: t}, nil
	}

	return nil, errors.NewEventParseError("trigger payload matches neither timer nor object shape", nil)
}
