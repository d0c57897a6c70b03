// Package dataset reads and writes the binary point format kcombo consumes.
//
// Layout, all integers big-endian:
//
//	dim   uint32
//	count uint64
//	count × dim int64 coordinates, point after point
//
// Load fetches a dataset from any blobstore.BlobStore.
package dataset
