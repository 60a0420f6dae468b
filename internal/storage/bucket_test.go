package storage

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	S3API

	createErr error
	listErr   error
	deleteErr error

	created []*s3.CreateBucketInput
	puts    map[string][]byte
	objects []string

	calls []string
}

func (f *fakeS3) CreateBucket(_ context.Context, params *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.calls = append(f.calls, "CreateBucket")
	f.created = append(f.created, params)

	return &s3.CreateBucketOutput{}, f.createErr
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.calls = append(f.calls, "HeadBucket")

	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.calls = append(f.calls, "PutObject")

	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	if f.puts == nil {
		f.puts = make(map[string][]byte)
	}
	f.puts[aws.ToString(params.Key)] = body

	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.calls = append(f.calls, "ListObjectsV2")
	if f.listErr != nil {
		return nil, f.listErr
	}

	out := &s3.ListObjectsV2Output{}
	for _, key := range f.objects {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}

	return out, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, _ *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.calls = append(f.calls, "DeleteObject")

	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) DeleteBucket(_ context.Context, _ *s3.DeleteBucketInput, _ ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	f.calls = append(f.calls, "DeleteBucket")

	return &s3.DeleteBucketOutput{}, f.deleteErr
}

func TestCreateBucketInput_DefaultRegion(t *testing.T) {
	input := CreateBucketInput("lake", "us-east-1")

	assert.Equal(t, "lake", aws.ToString(input.Bucket))
	assert.Nil(t, input.CreateBucketConfiguration)
}

func TestCreateBucketInput_OtherRegion(t *testing.T) {
	for _, region := range []string{"eu-west-1", "us-west-2", "ap-southeast-2"} {
		input := CreateBucketInput("lake", region)

		require.NotNil(t, input.CreateBucketConfiguration, region)
		assert.Equal(t, types.BucketLocationConstraint(region), input.CreateBucketConfiguration.LocationConstraint)
	}
}

func TestBucket_Create_AlreadyOwned(t *testing.T) {
	cli := &fakeS3{createErr: &types.BucketAlreadyOwnedByYou{}}
	b := NewBucket(cli, zerolog.Nop(), "lake", "eu-central-1")

	require.NoError(t, b.Create(context.Background()))
	require.Len(t, cli.created, 1)
	assert.Equal(t, types.BucketLocationConstraint("eu-central-1"), cli.created[0].CreateBucketConfiguration.LocationConstraint)
}

func TestBucket_Create_AlreadyExistsElsewhere(t *testing.T) {
	cli := &fakeS3{createErr: &types.BucketAlreadyExists{}}
	b := NewBucket(cli, zerolog.Nop(), "lake", "us-east-1")

	assert.Error(t, b.Create(context.Background()))
}

func TestBucket_WaitExists(t *testing.T) {
	cli := &fakeS3{}
	b := NewBucket(cli, zerolog.Nop(), "lake", "us-east-1")

	require.NoError(t, b.WaitExists(context.Background(), 10*time.Second))
	assert.Equal(t, []string{"HeadBucket"}, cli.calls)
}

func TestBucket_Put(t *testing.T) {
	cli := &fakeS3{}
	b := NewBucket(cli, zerolog.Nop(), "lake", "us-east-1")

	require.NoError(t, b.Put(context.Background(), "raw-data/a.jsonl", []byte(`{"a": 1}`), "application/x-ndjson"))
	assert.Equal(t, `{"a": 1}`, string(cli.puts["raw-data/a.jsonl"]))
}

func TestBucket_DeletePrefix(t *testing.T) {
	cli := &fakeS3{objects: []string{"a", "b", "c"}}
	b := NewBucket(cli, zerolog.Nop(), "lake", "us-east-1")

	deleted, err := b.DeletePrefix(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.Equal(t, []string{"ListObjectsV2", "DeleteObject", "DeleteObject", "DeleteObject"}, cli.calls)
}

func TestBucket_MissingBucket(t *testing.T) {
	cli := &fakeS3{
		listErr:   &types.NoSuchBucket{},
		deleteErr: &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "The specified bucket does not exist"},
	}
	b := NewBucket(cli, zerolog.Nop(), "lake", "us-east-1")

	_, err := b.DeletePrefix(context.Background(), "")
	assert.True(t, errors.Is(err, ErrBucketNotFound))

	err = b.Delete(context.Background())
	assert.True(t, errors.Is(err, ErrBucketNotFound))
}

func TestParseURI(t *testing.T) {
	bucket, prefix, err := ParseURI("s3://lake/athena-results/")
	require.NoError(t, err)
	assert.Equal(t, "lake", bucket)
	assert.Equal(t, "athena-results/", prefix)

	bucket, prefix, err = ParseURI("s3://lake")
	require.NoError(t, err)
	assert.Equal(t, "lake", bucket)
	assert.Empty(t, prefix)

	_, _, err = ParseURI("https://lake/results")
	assert.Error(t, err)

	_, _, err = ParseURI("s3:///results")
	assert.Error(t, err)
}
