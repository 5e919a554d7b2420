// Package s3 provides S3 implementations of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	client := awss3.NewFromConfig(cfg)
//
//	store := s3.NewStore(client, "my-bucket", "lists/")
//	commits := s3.NewCommitStore(store, dynamodb.NewFromConfig(cfg), "biglist-commits", "s3://my-bucket/lists")
//
//	ps := persistence.NewStore(commits)
//	version, err := persistence.Publish(ctx, ps, "numbers", list)
//
// # Stores
//
//   - Store: general purpose buckets, streaming multipart uploads
//   - ExpressStore: directory buckets with If-None-Match conditional puts
//   - CommitStore: keeps CURRENT pointers in DynamoDB with optimistic versioning
//
// # Features
//
//   - Range reads for partial fetches
//   - CRC32C checksums on uploads
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
