package objectstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	relerrors "github.com/arkilian/reloader/internal/errors"
	"github.com/arkilian/reloader/pkg/types"
)

// S3Store implements Store against AWS S3.
type S3Store struct {
	client     *s3.Client
	bucket     string
	accountID  string
	logPrefix  string
	maxRetries int
}

// S3Config holds configuration for the S3 object store.
type S3Config struct {
	// Region is the AWS region for the S3 bucket.
	Region string
	// Endpoint is an optional custom endpoint (for MinIO, LocalStack, etc.).
	Endpoint string
	// UsePathStyle enables path-style addressing (required for MinIO).
	UsePathStyle bool
}

// NewS3Store creates a new S3 store client.
func NewS3Store(ctx context.Context, bucket, accountID, logPrefix string, cfg S3Config) (*S3Store, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewS3StoreWithClient(s3.NewFromConfig(awsCfg, s3Opts...), bucket, accountID, logPrefix), nil
}

// NewS3StoreWithClient creates an S3 store with a pre-configured client.
func NewS3StoreWithClient(client *s3.Client, bucket, accountID, logPrefix string) *S3Store {
	return &S3Store{
		client:     client,
		bucket:     bucket,
		accountID:  accountID,
		logPrefix:  logPrefix,
		maxRetries: 3,
	}
}

// ListRegions lists the common prefixes one level below the trail
// prefix and extracts their region codes.
func (s *S3Store) ListRegions(ctx context.Context) ([]string, error) {
	prefix := TrailPrefix(s.logPrefix, s.accountID)

	var regions []string
	err := s.retryWithBackoff(ctx, func() error {
		regions = regions[:0]

		paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket:    aws.String(s.bucket),
			Prefix:    aws.String(prefix),
			Delimiter: aws.String("/"),
		})

		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, cp := range page.CommonPrefixes {
				if region, ok := regionFromPrefix(aws.ToString(cp.Prefix)); ok {
					regions = append(regions, region)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, relerrors.NewStorageError(relerrors.CodeRegionListFailed,
			fmt.Sprintf("failed to list regions under %s", prefix), err)
	}
	return regions, nil
}

// RetentionPolicy reads the bucket lifecycle configuration and returns
// the expiration of the first rule that sets one. A bucket without a
// lifecycle configuration has no retention policy.
func (s *S3Store) RetentionPolicy(ctx context.Context) (*types.RetentionPolicy, error) {
	out, err := s.client.GetBucketLifecycleConfiguration(ctx, &s3.GetBucketLifecycleConfigurationInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchLifecycleConfiguration" {
			return nil, nil
		}
		return nil, relerrors.NewStorageError(relerrors.CodeLifecycleLookupFailed,
			fmt.Sprintf("failed to read lifecycle configuration of bucket %s", s.bucket), err)
	}

	for _, rule := range out.Rules {
		if rule.Expiration != nil && rule.Expiration.Days != nil && *rule.Expiration.Days > 0 {
			return &types.RetentionPolicy{ExpirationDays: int(*rule.Expiration.Days)}, nil
		}
	}
	return nil, nil
}

// retryWithBackoff executes the operation with exponential backoff retry.
func (s *S3Store) retryWithBackoff(ctx context.Context, operation func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if attempt < s.maxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
