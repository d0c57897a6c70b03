// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("datasets/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	ds, err := dataset.Load(ctx, store, "points.bin")
//
// Reads use ranged GetObject requests. Writes stream through the multipart
// upload manager and become visible when the blob is closed.
package s3
