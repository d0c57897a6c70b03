package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/kcombo/blobstore"
	"github.com/hupe1980/kcombo/blobstore/minio"
	"github.com/hupe1980/kcombo/blobstore/s3"
	"github.com/hupe1980/kcombo/dataset"
	"github.com/hupe1980/kcombo/output"
)

// ErrInvalidLocation is returned for object URIs without a bucket or key.
var ErrInvalidLocation = errors.New("location must look like scheme://bucket/key")

const (
	schemeS3    = "s3://"
	schemeMinio = "minio://"
)

// resolve maps a location to the store that holds it and the name inside that
// store. Plain paths use the local file system.
func resolve(ctx context.Context, cfg *Config, location string) (blobstore.BlobStore, string, error) {
	switch {
	case strings.HasPrefix(location, schemeS3):
		bucket, key, err := splitBucket(strings.TrimPrefix(location, schemeS3))
		if err != nil {
			return nil, "", err
		}
		var opts []s3.Option
		if cfg.S3Region != "" {
			opts = append(opts, s3.WithRegion(cfg.S3Region))
		}
		if cfg.S3Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(cfg.S3Endpoint))
		}
		store, err := s3.New(ctx, bucket, opts...)
		if err != nil {
			return nil, "", err
		}
		return store, key, nil

	case strings.HasPrefix(location, schemeMinio):
		bucket, key, err := splitBucket(strings.TrimPrefix(location, schemeMinio))
		if err != nil {
			return nil, "", err
		}
		opts := []minio.Option{minio.WithSecure(cfg.MinioSecure)}
		if cfg.MinioAccessKey != "" {
			opts = append(opts, minio.WithCredentials(cfg.MinioAccessKey, cfg.MinioSecretKey))
		}
		store, err := minio.New(cfg.MinioEndpoint, bucket, opts...)
		if err != nil {
			return nil, "", err
		}
		return store, key, nil

	default:
		return blobstore.NewLocalStore(""), location, nil
	}
}

func splitBucket(s string) (bucket, key string, err error) {
	bucket, key, ok := strings.Cut(s, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}
	return bucket, key, nil
}

// loadInput decodes the dataset at location, decompressing by extension.
func loadInput(ctx context.Context, cfg *Config, location string) (*dataset.Dataset, error) {
	store, name, err := resolve(ctx, cfg, location)
	if err != nil {
		return nil, err
	}

	c := output.CompressionFromName(name)
	if c == output.CompressionNone {
		return dataset.Load(ctx, store, name)
	}

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer blob.Close()

	r, err := blobstore.NewReader(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer r.Close()

	dr, err := output.NewDecompressedReader(r, c)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", c, name, err)
	}
	defer dr.Close()

	ds, err := dataset.Decode(dr)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return ds, nil
}

// sink is the output stream of a run. Commit finishes the stream and keeps it;
// Abort discards it where the backend allows.
type sink struct {
	io.Writer
	compressor io.WriteCloser
	blob       blobstore.WritableBlob
}

// openSink creates the output at location. An empty location or "-" writes to
// stdout uncompressed.
func openSink(ctx context.Context, cfg *Config, location string, stdout io.Writer) (*sink, error) {
	if location == "" || location == "-" {
		return &sink{Writer: stdout}, nil
	}

	store, name, err := resolve(ctx, cfg, location)
	if err != nil {
		return nil, err
	}
	blob, err := store.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	cw, err := output.NewCompressedWriter(blob, output.CompressionFromName(name))
	if err != nil {
		_ = blob.Abort()
		return nil, err
	}
	return &sink{Writer: cw, compressor: cw, blob: blob}, nil
}

func (s *sink) Commit() error {
	if s.blob == nil {
		return nil
	}
	if err := s.compressor.Close(); err != nil {
		_ = s.blob.Abort()
		return err
	}
	return s.blob.Close()
}

func (s *sink) Abort() {
	if s.blob == nil {
		return
	}
	_ = s.compressor.Close()
	_ = s.blob.Abort()
}
