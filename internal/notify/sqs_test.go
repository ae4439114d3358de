package notify

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/arkilian/reloader/internal/errors"
	"github.com/arkilian/reloader/internal/event"
	"github.com/arkilian/reloader/internal/reconcile"
)

const objectCreatedBody = `{"Records":[{"s3":{"bucket":{"name":"trail-logs"},"object":{"key":"AWSLogs/123456789012/CloudTrail/us-west-2/2020/03/01/a.json.gz","eTag":"abc"}}}]}`

type fakeQueue struct {
	received [][]sqstypes.Message
	deleted  []string
	onEmpty  func()
}

func (f *fakeQueue) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if len(f.received) == 0 {
		if f.onEmpty != nil {
			f.onEmpty()
		}
		return &sqs.ReceiveMessageOutput{}, nil
	}
	batch := f.received[0]
	f.received = f.received[1:]
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (f *fakeQueue) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeReconciler struct {
	err      error
	triggers []event.Trigger
}

func (f *fakeReconciler) Reconcile(ctx context.Context, trigger event.Trigger) (*reconcile.Stats, error) {
	f.triggers = append(f.triggers, trigger)
	if f.err != nil {
		return &reconcile.Stats{}, f.err
	}
	return &reconcile.Stats{Trigger: "object_created", Added: 1}, nil
}

func message(id, receipt, body string) sqstypes.Message {
	return sqstypes.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String(receipt),
		Body:          aws.String(body),
	}
}

func TestReceiver_DeletesAfterSuccessfulPass(t *testing.T) {
	queue := &fakeQueue{}
	rec := &fakeReconciler{}
	receiver := newReceiver(queue, "https://sqs/queue", 20, rec)

	receiver.handle(context.Background(), message("m1", "r1", objectCreatedBody))

	if len(rec.triggers) != 1 {
		t.Fatalf("expected 1 pass, got %d", len(rec.triggers))
	}
	ev, ok := rec.triggers[0].(event.ObjectCreatedEvent)
	if !ok {
		t.Fatalf("expected ObjectCreatedEvent, got %T", rec.triggers[0])
	}
	if ev.Bucket != "trail-logs" {
		t.Errorf("unexpected bucket: %s", ev.Bucket)
	}

	if len(queue.deleted) != 1 || queue.deleted[0] != "r1" {
		t.Errorf("expected receipt r1 deleted, got %v", queue.deleted)
	}
}

func TestReceiver_KeepsMessageOnFailedPass(t *testing.T) {
	queue := &fakeQueue{}
	rec := &fakeReconciler{err: errors.NewQueryFailedError("exec-1")}
	receiver := newReceiver(queue, "https://sqs/queue", 20, rec)

	receiver.handle(context.Background(), message("m1", "r1", objectCreatedBody))

	if len(queue.deleted) != 0 {
		t.Errorf("expected no deletes, got %v", queue.deleted)
	}
}

func TestReceiver_KeepsUnparseableMessage(t *testing.T) {
	queue := &fakeQueue{}
	rec := &fakeReconciler{}
	receiver := newReceiver(queue, "https://sqs/queue", 20, rec)

	receiver.handle(context.Background(), message("m1", "r1", `{"unexpected":true}`))

	if len(rec.triggers) != 0 {
		t.Errorf("expected no passes, got %d", len(rec.triggers))
	}
	if len(queue.deleted) != 0 {
		t.Errorf("expected no deletes, got %v", queue.deleted)
	}
}

func TestReceiver_RunDrainsBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := &fakeQueue{
		received: [][]sqstypes.Message{
			{
				message("m1", "r1", objectCreatedBody),
				message("m2", "r2", objectCreatedBody),
			},
		},
		onEmpty: cancel,
	}
	rec := &fakeReconciler{}
	receiver := newReceiver(queue, "https://sqs/queue", 0, rec)

	if err := receiver.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if len(rec.triggers) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(rec.triggers))
	}
	if len(queue.deleted) != 2 {
		t.Errorf("expected 2 deletes, got %v", queue.deleted)
	}
}
