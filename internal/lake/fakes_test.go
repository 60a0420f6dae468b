package lake

import (
	"context"
	"encoding/json"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// cloud is an in-memory stand-in for S3, Glue and Athena that records every call.
type cloud struct {
	calls []string

	objects map[string][]byte
	tables  []string

	createBucketErr   error
	createDatabaseErr error
	listObjectsErr    error
	deleteBucketErr   error
	getTablesErr      error

	createdBuckets []*s3.CreateBucketInput
	createdTables  []*glue.CreateTableInput
	queries        []*athena.StartQueryExecutionInput
}

func newCloud() *cloud {
	return &cloud{objects: make(map[string][]byte)}
}

func (c *cloud) count(call string) int {
	n := 0
	for _, cl := range c.calls {
		if cl == call {
			n++
		}
	}

	return n
}

func (c *cloud) CreateBucket(_ context.Context, params *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	c.calls = append(c.calls, "CreateBucket")
	c.createdBuckets = append(c.createdBuckets, params)

	return &s3.CreateBucketOutput{}, c.createBucketErr
}

func (c *cloud) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	c.calls = append(c.calls, "HeadBucket")

	return &s3.HeadBucketOutput{}, nil
}

func (c *cloud) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	c.calls = append(c.calls, "PutObject")

	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	c.objects[aws.ToString(params.Key)] = body

	return &s3.PutObjectOutput{}, nil
}

func (c *cloud) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	c.calls = append(c.calls, "ListObjectsV2")
	if c.listObjectsErr != nil {
		return nil, c.listObjectsErr
	}

	out := &s3.ListObjectsV2Output{}
	for key := range c.objects {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
	}

	return out, nil
}

func (c *cloud) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	c.calls = append(c.calls, "DeleteObject")
	delete(c.objects, aws.ToString(params.Key))

	return &s3.DeleteObjectOutput{}, nil
}

func (c *cloud) DeleteBucket(_ context.Context, _ *s3.DeleteBucketInput, _ ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	c.calls = append(c.calls, "DeleteBucket")

	return &s3.DeleteBucketOutput{}, c.deleteBucketErr
}

func (c *cloud) CreateDatabase(_ context.Context, _ *glue.CreateDatabaseInput, _ ...func(*glue.Options)) (*glue.CreateDatabaseOutput, error) {
	c.calls = append(c.calls, "CreateDatabase")

	return &glue.CreateDatabaseOutput{}, c.createDatabaseErr
}

func (c *cloud) CreateTable(_ context.Context, params *glue.CreateTableInput, _ ...func(*glue.Options)) (*glue.CreateTableOutput, error) {
	c.calls = append(c.calls, "CreateTable")
	c.createdTables = append(c.createdTables, params)

	return &glue.CreateTableOutput{}, nil
}

func (c *cloud) GetTables(_ context.Context, _ *glue.GetTablesInput, _ ...func(*glue.Options)) (*glue.GetTablesOutput, error) {
	c.calls = append(c.calls, "GetTables")
	if c.getTablesErr != nil {
		return nil, c.getTablesErr
	}

	out := &glue.GetTablesOutput{}
	for _, name := range c.tables {
		out.TableList = append(out.TableList, gluetypes.Table{Name: aws.String(name)})
	}

	return out, nil
}

func (c *cloud) DeleteTable(_ context.Context, _ *glue.DeleteTableInput, _ ...func(*glue.Options)) (*glue.DeleteTableOutput, error) {
	c.calls = append(c.calls, "DeleteTable")

	return &glue.DeleteTableOutput{}, nil
}

func (c *cloud) DeleteDatabase(_ context.Context, _ *glue.DeleteDatabaseInput, _ ...func(*glue.Options)) (*glue.DeleteDatabaseOutput, error) {
	c.calls = append(c.calls, "DeleteDatabase")

	return &glue.DeleteDatabaseOutput{}, nil
}

func (c *cloud) StartQueryExecution(_ context.Context, params *athena.StartQueryExecutionInput, _ ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error) {
	c.calls = append(c.calls, "StartQueryExecution")
	c.queries = append(c.queries, params)

	return &athena.StartQueryExecutionOutput{QueryExecutionId: aws.String("q-1")}, nil
}

func (c *cloud) GetQueryExecution(_ context.Context, _ *athena.GetQueryExecutionInput, _ ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error) {
	c.calls = append(c.calls, "GetQueryExecution")

	return &athena.GetQueryExecutionOutput{
		QueryExecution: &athenatypes.QueryExecution{
			Status: &athenatypes.QueryExecutionStatus{State: athenatypes.QueryExecutionStateSucceeded},
		},
	}, nil
}

type stubSource struct {
	players []json.RawMessage
	err     error
}

func (s *stubSource) GetPlayers(_ context.Context) ([]json.RawMessage, error) {
	return s.players, s.err
}
