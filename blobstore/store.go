package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore opens and creates named blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create starts a new blob. It replaces any existing blob of the same name
	// once the returned WritableBlob is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer

	// ReadAt reads len(p) bytes starting at off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadRange returns a reader over length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)

	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written. Close commits it, Abort discards it.
type WritableBlob interface {
	io.WriteCloser

	// Abort discards everything written so far. It is safe to call after Close.
	Abort() error
}

// Mappable is an optional interface for Blobs that are backed by memory.
type Mappable interface {
	// Bytes returns the blob contents without copying.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// NewReader returns a sequential reader over the whole blob. Mappable blobs are
// read in place; others stream a single range request.
func NewReader(ctx context.Context, b Blob) (io.ReadCloser, error) {
	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	if b.Size() == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return b.ReadRange(ctx, 0, b.Size())
}
