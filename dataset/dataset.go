package dataset

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"

	"github.com/hupe1980/kcombo/blobstore"
	"github.com/hupe1980/kcombo/internal/conv"
	"github.com/hupe1980/kcombo/model"
)

const headerSize = 4 + 8

// maxPrealloc bounds the up-front allocation so a corrupt count cannot
// exhaust memory before the data runs out.
const maxPrealloc = 1 << 16

var (
	// ErrTruncated is returned when the input ends early.
	ErrTruncated = errors.New("dataset: truncated input")

	// ErrInvalidDimension is returned for a zero dimension header.
	ErrInvalidDimension = errors.New("dataset: dimension must be positive")
)

// Dataset is a decoded point file.
type Dataset struct {
	Dim    int
	Points []model.Point
}

// New returns a dataset over points, which must all share one dimension.
func New(points []model.Point) (*Dataset, error) {
	if len(points) == 0 {
		return &Dataset{}, nil
	}
	dim := points[0].Dim()
	if dim == 0 {
		return nil, ErrInvalidDimension
	}
	for i, p := range points {
		if p.Dim() != dim {
			return nil, fmt.Errorf("dataset: point %d has dimension %d, want %d", i, p.Dim(), dim)
		}
	}
	return &Dataset{Dim: dim, Points: points}, nil
}

// Len returns the number of points.
func (ds *Dataset) Len() int { return len(ds.Points) }

// SizeBytes is the encoded size.
func (ds *Dataset) SizeBytes() int64 {
	return headerSize + int64(len(ds.Points))*int64(ds.Dim)*8
}

// Decode reads a dataset from r.
func Decode(r io.Reader) (*Dataset, error) {
	return decode(r, -1)
}

// decode reads a dataset from r. A non-negative size is the exact input
// length; a header that promises a different length fails before any point
// is read.
func decode(r io.Reader, size int64) (*Dataset, error) {
	br := bufio.NewReader(r)

	var header [headerSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrTruncated, err)
	}

	rawDim := binary.BigEndian.Uint32(header[0:4])
	rawCount := binary.BigEndian.Uint64(header[4:12])
	if rawDim == 0 {
		return nil, ErrInvalidDimension
	}
	if size >= 0 {
		if err := checkSize(rawDim, rawCount, size); err != nil {
			return nil, err
		}
	}

	dim, err := conv.To[int](rawDim)
	if err != nil {
		return nil, fmt.Errorf("dataset: dimension: %w", err)
	}
	count, err := conv.To[int](rawCount)
	if err != nil {
		return nil, fmt.Errorf("dataset: point count: %w", err)
	}

	ds := &Dataset{
		Dim:    dim,
		Points: make([]model.Point, 0, min(count, maxPrealloc)),
	}

	// Coordinates are read one at a time so a corrupt dimension cannot
	// force a huge allocation before the data runs out.
	var buf [8]byte
	for i := 0; i < count; i++ {
		values := make([]int64, 0, min(dim, maxPrealloc))
		for j := 0; j < dim; j++ {
			if _, err := io.ReadFull(br, buf[:]); err != nil {
				return nil, fmt.Errorf("%w: point %d of %d: %w", ErrTruncated, i, count, err)
			}
			values = append(values, int64(binary.BigEndian.Uint64(buf[:])))
		}
		ds.Points = append(ds.Points, model.Point{Values: values})
	}

	return ds, nil
}

// checkSize compares the length promised by the header with the input size.
func checkSize(dim uint32, count uint64, size int64) error {
	hi, body := bits.Mul64(count, uint64(dim)*8)
	want, carry := bits.Add64(body, headerSize, 0)
	if hi != 0 || carry != 0 || want != uint64(size) {
		return fmt.Errorf("%w: header describes %d points of dimension %d, input has %d bytes",
			ErrTruncated, count, dim, size)
	}
	return nil
}

// Encode writes ds to w.
func Encode(w io.Writer, ds *Dataset) error {
	if ds.Dim <= 0 {
		return ErrInvalidDimension
	}

	dim, err := conv.To[uint32](ds.Dim)
	if err != nil {
		return fmt.Errorf("dataset: dimension: %w", err)
	}

	bw := bufio.NewWriter(w)

	var header [headerSize]byte
	binary.BigEndian.PutUint32(header[0:4], dim)
	binary.BigEndian.PutUint64(header[4:12], uint64(len(ds.Points)))
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}

	buf := make([]byte, 0, ds.Dim*8)
	for i, p := range ds.Points {
		if p.Dim() != ds.Dim {
			return fmt.Errorf("dataset: point %d has dimension %d, want %d", i, p.Dim(), ds.Dim)
		}
		buf = buf[:0]
		for _, v := range p.Values {
			buf = binary.BigEndian.AppendUint64(buf, uint64(v))
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Load opens name in store and decodes it.
func Load(ctx context.Context, store blobstore.BlobStore, name string) (*Dataset, error) {
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

	ds, err := decode(r, blob.Size())
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return ds, nil
}

// Save encodes ds into a new blob called name.
func Save(ctx context.Context, store blobstore.BlobStore, name string, ds *Dataset) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := Encode(w, ds); err != nil {
		_ = w.Abort()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return w.Close()
}
