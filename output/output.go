package output

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/hupe1980/kcombo/model"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("output: unknown format")

// Format selects the table encoding.
type Format int

const (
	// FormatCSV is the quoted text table.
	FormatCSV Format = iota
	// FormatParquet is a columnar Parquet file.
	FormatParquet
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatParquet:
		return "parquet"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// ParseFormat parses "csv" or "parquet". The empty string means csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "csv":
		return FormatCSV, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromName infers the format from a file name, ignoring a trailing
// compression extension.
func FormatFromName(name string) Format {
	ext := path.Ext(name)
	if CompressionFromName(name) != CompressionNone {
		ext = path.Ext(strings.TrimSuffix(name, ext))
	}
	if strings.EqualFold(ext, ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

// Encoder writes results as table rows. It is not safe for concurrent use.
type Encoder interface {
	// WriteHeader writes whatever precedes the first row.
	WriteHeader() error

	// Encode appends one row.
	Encode(r *model.Result) error

	// Flush pushes buffered rows to the underlying writer.
	Flush() error

	// Close flushes and finishes the table. It does not close the
	// underlying writer.
	Close() error

	// BytesWritten reports how many bytes reached the underlying writer.
	BytesWritten() int64
}

// Options configures an Encoder.
type Options struct {
	// Clusters adds the cluster membership column.
	Clusters bool
}

// Option configures an Encoder.
type Option func(*Options)

// WithClusters enables or disables the clusters column.
func WithClusters(on bool) Option {
	return func(o *Options) { o.Clusters = on }
}

// NewEncoder returns an encoder for format writing to w. The clusters column
// is on unless disabled.
func NewEncoder(format Format, w io.Writer, optFns ...Option) (Encoder, error) {
	opts := Options{Clusters: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	switch format {
	case FormatCSV:
		return newCSVEncoder(w, opts), nil
	case FormatParquet:
		return newParquetEncoder(w, opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
