// Package blobstore provides the storage abstraction that persisted lists
// are written to and read from.
//
// BlobStore is the interface for reading and writing named immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral data
//   - LocalStore: local filesystem with mmap reads and atomic renames
//   - CachingStore: block cache in front of any other store
//   - s3.Store, s3.CommitStore: Amazon S3, optionally with a DynamoDB commit pointer
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Blob.ReadRange lets remote backends serve a byte range with one request,
// which is how persistence fetches large lists in parallel.
package blobstore
