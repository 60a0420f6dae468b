package storage

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultRegion is the only region where CreateBucket must not carry a location constraint.
const DefaultRegion = "us-east-1"

var ErrBucketNotFound = errors.New("bucket not found")

// S3API is the subset of the S3 client used by Bucket.
type S3API interface {
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
}

// Bucket manages a single S3 bucket of the data lake.
type Bucket struct {
	client S3API
	logger zerolog.Logger

	name   string
	region string
}

func NewBucket(client S3API, logger zerolog.Logger, name string, region string) *Bucket {
	return &Bucket{
		client: client,
		logger: logger.With().Str("bucket", name).Logger(),
		name:   name,
		region: region,
	}
}

func (b *Bucket) Name() string {
	return b.name
}

// Create creates the bucket. A bucket that already belongs to the caller is not an error.
func (b *Bucket) Create(ctx context.Context) error {
	_, err := b.client.CreateBucket(ctx, CreateBucketInput(b.name, b.region))
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			b.logger.Info().Msg("bucket already exists")
			return nil
		}

		return errors.Wrap(err, "create bucket failed")
	}

	b.logger.Info().Str("region", b.region).Msg("bucket has been created")

	return nil
}

// CreateBucketInput builds a region-conditional create request: the default
// region is addressed without a location constraint, any other region with
// a constraint equal to the region.
func CreateBucketInput(name string, region string) *s3.CreateBucketInput {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(name),
	}
	if region != "" && region != DefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}

	return input
}

// WaitExists polls the bucket until it is visible or maxWait elapses.
func (b *Bucket) WaitExists(ctx context.Context, maxWait time.Duration) error {
	startedAt := time.Now()

	waiter := s3.NewBucketExistsWaiter(b.client, func(o *s3.BucketExistsWaiterOptions) {
		o.MinDelay = time.Second
		o.MaxDelay = 5 * time.Second
	})

	err := waiter.Wait(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.name)}, maxWait)
	if err != nil {
		return errors.Wrap(err, "bucket did not become available")
	}

	b.logger.Debug().Dur("elapsed", time.Since(startedAt)).Msg("bucket is available")

	return nil
}

// Put uploads body under the given key.
func (b *Bucket) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.name),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return errors.Wrap(b.classify(err), "put failed")
	}

	b.logger.Info().Str("key", key).Int("size", len(body)).Msg("object has been uploaded")

	return nil
}

// ListKeys returns keys under the prefix.
// Only the first page is fetched, so at most 1000 keys are returned.
func (b *Bucket) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	out, err := b.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, errors.Wrap(b.classify(err), "list failed")
	}

	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}

	return keys, nil
}

// DeletePrefix deletes every object ListKeys finds under the prefix, one call per object.
// It returns the number of deleted objects.
func (b *Bucket) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := b.ListKeys(ctx, prefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.name),
			Key:    aws.String(key),
		})
		if err != nil {
			return deleted, errors.Wrapf(b.classify(err), "delete %s failed", key)
		}

		deleted++
		b.logger.Debug().Str("key", key).Msg("object has been deleted")
	}

	return deleted, nil
}

// Delete deletes the bucket itself. The bucket must be empty.
func (b *Bucket) Delete(ctx context.Context) error {
	_, err := b.client.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(b.name),
	})
	if err != nil {
		return errors.Wrap(b.classify(err), "delete bucket failed")
	}

	b.logger.Info().Msg("bucket has been deleted")

	return nil
}

// classify maps "bucket does not exist" responses to ErrBucketNotFound.
// Only some S3 operations model NoSuchBucket, the rest report it by code.
func (b *Bucket) classify(err error) error {
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket" {
		return ErrBucketNotFound
	}

	return err
}

// ParseURI splits an s3://bucket/prefix uri.
func ParseURI(uri string) (bucket string, prefix string, err error) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", errors.Errorf("%q is not an s3 uri", uri)
	}

	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", errors.Errorf("%q has no bucket", uri)
	}

	return bucket, prefix, nil
}
