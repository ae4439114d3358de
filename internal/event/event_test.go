package event

import (
	"testing"
	"time"

	"github.com/arkilian/reloader/internal/errors"
)

func TestParseTriggerTimer(t *testing.T) {
	raw := []byte(`{"time": "2020-09-15T10:00:00.000Z"}`)

	trigger, err := ParseTrigger(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	timer, ok := trigger.(TimerEvent)
	if !ok {
		t.Fatalf("expected TimerEvent, got %T", trigger)
	}

	expected := time.Date(2020, 9, 15, 10, 0, 0, 0, time.UTC)
	if !timer.Time.Equal(expected) {
		t.Errorf("expected %s, got %s", expected, timer.Time)
	}
}

func TestParseTriggerObjectCreated(t *testing.T) {
	raw := []byte(`{
		"Records": [
			{
				"s3": {
					"bucket": {"name": "trail-logs"},
					"object": {
						"key": "AWSLogs/123456789012/CloudTrail/us-west-2/2020/03/01/file.json.gz",
						"eTag": "d41d8cd98f00b204e9800998ecf8427e"
					}
				}
			}
		]
	}`)

	trigger, err := ParseTrigger(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obj, ok := trigger.(ObjectCreatedEvent)
	if !ok {
		t.Fatalf("expected ObjectCreatedEvent, got %T", trigger)
	}

	if obj.Bucket != "trail-logs" {
		t.Errorf("expected bucket trail-logs, got %q", obj.Bucket)
	}
	if obj.Key != "AWSLogs/123456789012/CloudTrail/us-west-2/2020/03/01/file.json.gz" {
		t.Errorf("unexpected key %q", obj.Key)
	}
	if obj.ETag != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("unexpected etag %q", obj.ETag)
	}
}

func TestParseTriggerMalformedTimestamp(t *testing.T) {
	raw := []byte(`{"time": "yesterday-ish"}`)

	_, err := ParseTrigger(raw)
	if !errors.IsEventParse(err) {
		t.Fatalf("expected event parse error, got %v", err)
	}
}

func TestParseTriggerUnknownShape(t *testing.T) {
	for _, raw := range []string{`{}`, `{"detail": "something else"}`, `not json`} {
		_, err := ParseTrigger([]byte(raw))
		if !errors.IsEventParse(err) {
			t.Errorf("payload %q: expected event parse error, got %v", raw, err)
		}
	}
}

func TestParseTriggerRecordWithoutKey(t *testing.T) {
	raw := []byte(`{"Records": [{"s3": {"bucket": {"name": "b"}, "object": {}}}]}`)

	_, err := ParseTrigger(raw)
	if !errors.IsEventParse(err) {
		t.Fatalf("expected event parse error, got %v", err)
	}
}
