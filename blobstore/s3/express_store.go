package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/hupe1980/biglist/blobstore"
)

// ExpressStore implements blobstore.BlobStore for S3 Express One Zone
// directory buckets (bucket names end with --azid--x-s3).
//
// Unlike Store it implements blobstore.ConditionalPutter through
// If-None-Match writes, so a publisher can claim a version name atomically
// without a separate commit table.
type ExpressStore struct {
	client   Client
	bucket   string
	prefix   string
	uploader *manager.Uploader
}

var (
	_ blobstore.BlobStore         = (*ExpressStore)(nil)
	_ blobstore.ConditionalPutter = (*ExpressStore)(nil)
)

// NewExpressStore creates a new S3 Express One Zone blob store.
func NewExpressStore(client Client, bucket, rootPrefix string) *ExpressStore {
	return &ExpressStore{
		client:   client,
		bucket:   bucket,
		prefix:   rootPrefix,
		uploader: newUploader(client, DefaultUploadConfig()),
	}
}

func (s *ExpressStore) key(name string) string {
	return objectKey(s.prefix, name)
}

// Open stats the object and returns a handle for ranged reads.
func (s *ExpressStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	return openBlob(ctx, s.client, s.bucket, s.key(name))
}

// Put writes a blob with a single request.
func (s *ExpressStore) Put(ctx context.Context, name string, data []byte) error {
	return putPlain(ctx, s.client, s.bucket, s.key(name), data)
}

// PutIfNotExists writes a blob only if it doesn't already exist.
// A lost race returns an error matching blobstore.ErrExists.
func (s *ExpressStore) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("%w: %s", blobstore.ErrExists, name)
		}
		return err
	}
	return nil
}

// isPreconditionFailed reports whether err is the S3 response to a failed
// If-None-Match condition.
func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

// Create starts a streaming upload.
func (s *ExpressStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newStreamingWritableBlob(ctx, s.uploader, s.bucket, s.key(name), true), nil
}

// Delete removes a blob.
func (s *ExpressStore) Delete(ctx context.Context, name string) error {
	return deleteObject(ctx, s.client, s.bucket, s.key(name))
}

// List returns all blob names with the given prefix.
func (s *ExpressStore) List(ctx context.Context, prefix string) ([]string, error) {
	return listObjects(ctx, s.client, s.bucket, s.prefix, prefix)
}
