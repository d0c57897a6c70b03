package output

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects a stream codec for the sink.
type Compression int

const (
	// CompressionNone writes the table as is.
	CompressionNone Compression = iota
	// CompressionZstd uses zstd at the default level.
	CompressionZstd
	// CompressionGzip uses gzip at the default level.
	CompressionGzip
	// CompressionLZ4 uses the lz4 frame format.
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionGzip:
		return "gzip"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// CompressionFromName picks a codec from the file extension.
func CompressionFromName(name string) Compression {
	switch strings.ToLower(path.Ext(name)) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".gz":
		return CompressionGzip
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewCompressedWriter wraps w with codec c. Closing the returned writer ends
// the compressed stream but leaves w open.
func NewCompressedWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case CompressionGzip:
		return gzip.NewWriterLevel(w, gzip.DefaultCompression)
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("output: unknown compression %s", c)
	}
}

// NewDecompressedReader is the reading counterpart of NewCompressedWriter.
func NewDecompressedReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompressionGzip:
		return gzip.NewReader(r)
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("output: unknown compression %s", c)
	}
}
