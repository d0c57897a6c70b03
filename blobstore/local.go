package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/hupe1980/kcombo/internal/fs"
	"github.com/hupe1980/kcombo/internal/mmap"
)

// LocalStore implements BlobStore using the local file system.
type LocalStore struct {
	root string
	fsys fs.FileSystem
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
// Names may be absolute paths, in which case root is ignored.
func NewLocalStore(root string) *LocalStore {
	return newLocalStore(root, fs.Default)
}

func newLocalStore(root string, fsys fs.FileSystem) *LocalStore {
	return &LocalStore{root: root, fsys: fsys}
}

func (s *LocalStore) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.root, name)
}

// Open maps the named file for reading.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	// Datasets are decoded in a single forward pass.
	_ = m.Advise(mmap.AccessSequential)

	return &localBlob{m: m}, nil
}

// Create writes to a temporary file next to the target and renames it into
// place on Close.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := s.path(name)
	dir := filepath.Dir(target)
	if err := s.fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	f, err := s.fsys.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return nil, err
	}

	return &localWritableBlob{fsys: s.fsys, f: f, target: target}, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return b.m.ReadAt(p, off)
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	data := b.m.Bytes()
	if off >= int64(len(data)) {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	end := min(off+length, int64(len(data)))
	return io.NopCloser(bytes.NewReader(data[off:end])), nil
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Size())
}

func (b *localBlob) Bytes() ([]byte, error) {
	data := b.m.Bytes()
	if data == nil && b.m.Size() > 0 {
		return nil, mmap.ErrClosed
	}
	return data, nil
}

type localWritableBlob struct {
	fsys   fs.FileSystem
	f      fs.File
	target string
	closed atomic.Bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, os.ErrClosed
	}
	return w.f.Write(p)
}

func (w *localWritableBlob) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return os.ErrClosed
	}

	tmp := w.f.Name()
	err := errors.Join(w.f.Sync(), w.f.Close())
	if err == nil {
		err = w.fsys.Rename(tmp, w.target)
	}
	if err != nil {
		_ = w.fsys.Remove(tmp)
	}
	return err
}

func (w *localWritableBlob) Abort() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	tmp := w.f.Name()
	return errors.Join(w.f.Close(), w.fsys.Remove(tmp))
}
