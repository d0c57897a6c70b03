package output

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/hupe1980/kcombo/model"
)

// Row is the Parquet schema of one result.
type Row struct {
	Seq              int64  `parquet:"seq"`
	InitialCentroids string `parquet:"initialization_centroids"`
	Distortion       int64  `parquet:"distortion"`
	Centroids        string `parquet:"centroids"`
	Clusters         string `parquet:"clusters,optional"`
	Iterations       int32  `parquet:"iterations"`
}

// NewRow converts a result. The clusters column is left empty unless
// withClusters is set.
func NewRow(r *model.Result, withClusters bool) Row {
	row := Row{
		Seq:              int64(r.Seq),
		InitialCentroids: r.Initial.String(),
		Distortion:       r.Distortion,
		Centroids:        r.Final.String(),
		Iterations:       int32(r.Iterations),
	}
	if withClusters {
		row.Clusters = r.Clusters.String()
	}
	return row
}

type parquetEncoder struct {
	cw   *countingWriter
	pw   *parquet.GenericWriter[Row]
	opts Options
	rows [1]Row
}

func newParquetEncoder(w io.Writer, opts Options) *parquetEncoder {
	cw := &countingWriter{w: w}
	return &parquetEncoder{
		cw:   cw,
		pw:   parquet.NewGenericWriter[Row](cw, parquet.Compression(&parquet.Zstd)),
		opts: opts,
	}
}

// WriteHeader is a no-op; the schema is written with the first page.
func (e *parquetEncoder) WriteHeader() error {
	return nil
}

func (e *parquetEncoder) Encode(r *model.Result) error {
	e.rows[0] = NewRow(r, e.opts.Clusters)
	_, err := e.pw.Write(e.rows[:])
	return err
}

func (e *parquetEncoder) Flush() error {
	return e.pw.Flush()
}

func (e *parquetEncoder) Close() error {
	return e.pw.Close()
}

func (e *parquetEncoder) BytesWritten() int64 {
	return e.cw.n
}

// ReadRows decodes a Parquet table written by this package.
func ReadRows(r io.ReaderAt, size int64) ([]Row, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, err
	}

	pr := parquet.NewGenericReader[Row](f)
	defer pr.Close()

	rows := make([]Row, pr.NumRows())
	n, err := pr.Read(rows)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return rows[:n], nil
}
