// Package notify feeds queued S3 notifications into the reconciler.
// Messages are deleted only after a successful pass; everything else is
// left for redelivery so the queue's redrive policy decides their fate.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/arkilian/reloader/internal/event"
	"github.com/arkilian/reloader/internal/reconcile"
)

// receiveBatchSize is the maximum number of messages fetched per poll.
const receiveBatchSize = 10

// receiveErrorDelay is how long the loop pauses after a failed poll.
const receiveErrorDelay = 5 * time.Second

// Reconciler runs one pass for a parsed trigger.
type Reconciler interface {
	Reconcile(ctx context.Context, trigger event.Trigger) (*reconcile.Stats, error)
}

// queueAPI is the slice of the SQS client the receiver uses.
type queueAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Receiver long-polls one queue and reconciles each notification.
type Receiver struct {
	client      queueAPI
	queueURL    string
	waitSeconds int32
	reconciler  Reconciler
}

// NewReceiver creates a Receiver over an existing SQS client.
func NewReceiver(client *sqs.Client, queueURL string, waitSeconds int32, reconciler Reconciler) *Receiver {
	return newReceiver(client, queueURL, waitSeconds, reconciler)
}

func newReceiver(client queueAPI, queueURL string, waitSeconds int32, reconciler Reconciler) *Receiver {
	return &Receiver{
		client:      client,
		queueURL:    queueURL,
		waitSeconds: waitSeconds,
		reconciler:  reconciler,
	}
}

// NewClient creates an SQS client for the given region.
func NewClient(ctx context.Context, region string) (*sqs.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return sqs.NewFromConfig(awsCfg), nil
}

// Run polls until the context is cancelled.
func (r *Receiver) Run(ctx context.Context) error {
	log.Printf("notify: receiving queue=%s wait=%ds", r.queueURL, r.waitSeconds)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := r.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(r.queueURL),
			MaxNumberOfMessages: receiveBatchSize,
			WaitTimeSeconds:     r.waitSeconds,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("notify: receive failed: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(receiveErrorDelay):
			}
			continue
		}

		for _, msg := range out.Messages {
			r.handle(ctx, msg)
		}
	}
}

// handle reconciles one message and deletes it on success.
func (r *Receiver) handle(ctx context.Context, msg sqstypes.Message) {
	trigger, err := event.ParseTrigger([]byte(aws.ToString(msg.Body)))
	if err != nil {
		log.Printf("notify: unparseable message %s left for redelivery: %v", aws.ToString(msg.MessageId), err)
		return
	}

	stats, err := r.reconciler.Reconcile(ctx, trigger)
	if err != nil {
		log.Printf("notify: pass failed for message %s, left for redelivery: %v", aws.ToString(msg.MessageId), err)
		return
	}

	log.Printf("notify: pass complete message=%s added=%d skipped=%d",
		aws.ToString(msg.MessageId), stats.Added, stats.Skipped)

	if _, err := r.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(r.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		log.Printf("notify: failed to delete message %s: %v", aws.ToString(msg.MessageId), err)
	}
}
