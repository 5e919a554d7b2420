// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client and also works against other S3-compatible
// services such as Ceph, SeaweedFS and Garage.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "lists/")
//	err = persistence.Save(ctx, persistence.NewStore(store), "numbers/000001.bgl", list)
//
// # Features
//
//   - Range reads for partial loads
//   - Streaming uploads for large lists
//   - Air-gap friendly (no AWS dependencies required)
package minio
