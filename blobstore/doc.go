// Package blobstore provides the storage abstraction kcombo reads datasets from
// and writes result tables to.
//
// A BlobStore opens named blobs for reading and creates new ones for writing.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem; reads are memory mapped, writes land in a
//     temporary file that is renamed into place on Close
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 (and compatible endpoints) via aws-sdk-go-v2
//   - minio.Store: MinIO and other S3-compatible object stores via minio-go
//
// Written blobs become visible only when Close succeeds. Abort discards a
// partially written blob, so an interrupted run never leaves a truncated
// result table under the final name.
package blobstore
