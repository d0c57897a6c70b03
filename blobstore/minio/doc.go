// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client and works with any S3-compatible store (Ceph,
// SeaweedFS, Garage) without pulling in the AWS SDK.
//
// # Basic Usage
//
//	store, err := minio.New("localhost:9000", "datasets",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ds, err := dataset.Load(ctx, store, "points.bin")
package minio
