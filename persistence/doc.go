// Package persistence converts lists to and from a linear element stream and
// stores them in a blobstore.BlobStore.
//
// # Stream Format
//
// An encoded list is a 16-byte FileHeader (magic "BGL0", version, element
// kind and width, element count), the elements in logical order as
// little-endian values, and a CRC32C over both. Segment boundaries are not
// part of the format; a decoded list picks its own layout.
//
//	var buf bytes.Buffer
//	_, err := persistence.Encode[int64](&buf, list)
//	copy, err := persistence.Decode[int64](&buf)
//
// # Blob Storage
//
// A Store saves and loads lists as named blobs. Remote blobs are fetched with
// concurrent ranged reads; memory-mapped local blobs are decoded in place.
//
//	store := persistence.NewStore(blobstore.NewLocalStore(dir), func(o *persistence.Options) {
//	    o.Controller = resource.NewController(resource.Config{IOLimitBytesPerSec: 64 << 20})
//	})
//	err := persistence.Save(ctx, store, "numbers.bgl", list)
//	list, err := persistence.Load[int64](ctx, store, "numbers.bgl")
//
// # Versions
//
// Publish writes the next numbered version of a list below its name and
// points name/CURRENT at it. LoadCurrent follows the pointer. With an
// s3.CommitStore the pointer lives in DynamoDB and concurrent publishers are
// serialized by conditional writes.
package persistence
