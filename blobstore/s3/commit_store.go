package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/biglist/blobstore"
)

// PointerName is the base name of blobs that CommitStore keeps in DynamoDB
// instead of the data store, e.g. "numbers/CURRENT".
const PointerName = "CURRENT"

// ErrConcurrentModification is returned when a concurrent pointer update won
// the race for the next version.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// CommitStore implements blobstore.BlobStore on top of a data store
// (normally a Store) with DynamoDB as the log of commit pointers.
//
// Blobs whose base name is PointerName never reach the data store. Writing
// one appends the next version to DynamoDB with a conditional put, so of two
// writers that read the same latest version only one succeeds; the other
// gets ErrConcurrentModification. Reading one returns the latest version.
//
// Table schema:
//   - Partition key: base_uri (string) - baseURI plus the pointer's directory
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name biglist-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	data      blobstore.BlobStore
	ddbClient DDBClient
	tableName string
	baseURI   string
}

var _ blobstore.BlobStore = (*CommitStore)(nil)

// NewCommitStore creates a new S3+DynamoDB commit store.
// baseURI, e.g. "s3://bucket/prefix", namespaces the pointers in the table.
func NewCommitStore(data blobstore.BlobStore, ddbClient DDBClient, tableName, baseURI string) *CommitStore {
	return &CommitStore{
		data:      data,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   strings.TrimSuffix(baseURI, "/"),
	}
}

func isPointer(name string) bool {
	return path.Base(name) == PointerName
}

func (s *CommitStore) partition(name string) string {
	return s.baseURI + "/" + path.Dir(path.Clean("/"+name))[1:]
}

// Open opens a blob for reading. For a pointer it returns the target of the
// latest committed version.
func (s *CommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if !isPointer(name) {
		return s.data.Open(ctx, name)
	}
	version, target, err := s.latest(ctx, s.partition(name))
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return &pointerBlob{content: []byte(target)}, nil
}

// Put writes a blob. For a pointer it commits the next version.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if !isPointer(name) {
		return s.data.Put(ctx, name, data)
	}
	_, err := s.commit(ctx, s.partition(name), string(data))
	return err
}

// Create creates a writable blob. A pointer is buffered and committed on
// Close.
func (s *CommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if !isPointer(name) {
		return s.data.Create(ctx, name)
	}
	return &pointerWriter{ctx: ctx, store: s, name: name}, nil
}

// Delete deletes a blob. Pointers are append-only and cannot be deleted.
func (s *CommitStore) Delete(ctx context.Context, name string) error {
	if isPointer(name) {
		return fmt.Errorf("delete %s: %w", name, errors.ErrUnsupported)
	}
	return s.data.Delete(ctx, name)
}

// List lists data blobs with prefix. Pointers are not listed.
func (s *CommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.data.List(ctx, prefix)
}

// Version returns the latest committed version of a pointer, or 0 if none.
func (s *CommitStore) Version(ctx context.Context, name string) (uint64, error) {
	version, _, err := s.latest(ctx, s.partition(name))
	return version, err
}

// Resolve returns the target a pointer had at the given version.
func (s *CommitStore) Resolve(ctx context.Context, name string, version uint64) (string, error) {
	resp, err := s.ddbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.partition(name)},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read version %d from DynamoDB: %w", version, err)
	}
	if len(resp.Item) == 0 {
		return "", fmt.Errorf("%s@%d: %w", name, version, blobstore.ErrNotFound)
	}
	_, target, err := decodeItem(resp.Item)
	return target, err
}

// latest queries DynamoDB for the latest committed version.
func (s *CommitStore) latest(ctx context.Context, partition string) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: partition},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}
	return decodeItem(resp.Items[0])
}

func decodeItem(item map[string]types.AttributeValue) (uint64, string, error) {
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	targetAttr, ok := item["target"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid target attribute in DynamoDB")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}
	return version, targetAttr.Value, nil
}

// commit appends the next version with a conditional write.
func (s *CommitStore) commit(ctx context.Context, partition, target string) (uint64, error) {
	current, _, err := s.latest(ctx, partition)
	if err != nil {
		return 0, err
	}
	next := current + 1

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: partition},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"target":   &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrConcurrentModification
		}
		return 0, fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}
	return next, nil
}

// pointerBlob is an in-memory blob holding a pointer target.
type pointerBlob struct {
	content []byte
}

func (b *pointerBlob) Close() error {
	return nil
}

func (b *pointerBlob) Size() int64 {
	return int64(len(b.content))
}

func (b *pointerBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return bytes.NewReader(b.content).ReadAt(p, off)
}

func (b *pointerBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || length < 0 {
		return nil, errNegativeRange
	}
	r := io.NewSectionReader(bytes.NewReader(b.content), off, length)
	return io.NopCloser(r), nil
}

// pointerWriter buffers a pointer target until Close.
type pointerWriter struct {
	ctx    context.Context
	store  *CommitStore
	name   string
	buf    bytes.Buffer
	closed bool
}

func (w *pointerWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, blobstore.ErrClosed
	}
	return w.buf.Write(p)
}

func (w *pointerWriter) Sync() error {
	return nil
}

// Abort drops the buffered target without committing it.
func (w *pointerWriter) Abort() error {
	w.closed = true
	return nil
}

func (w *pointerWriter) Close() error {
	if w.closed {
		return blobstore.ErrClosed
	}
	w.closed = true
	return w.store.Put(w.ctx, w.name, w.buf.Bytes())
}
