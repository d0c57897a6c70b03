package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/kcombo/model"
)

const (
	csvHeader         = "initialization centroids,distortion,centroids"
	csvClustersColumn = ",clusters"
)

type csvEncoder struct {
	cw   *countingWriter
	bw   *bufio.Writer
	opts Options
	row  strings.Builder
}

func newCSVEncoder(w io.Writer, opts Options) *csvEncoder {
	cw := &countingWriter{w: w}
	return &csvEncoder{
		cw:   cw,
		bw:   bufio.NewWriter(cw),
		opts: opts,
	}
}

func (e *csvEncoder) WriteHeader() error {
	header := csvHeader
	if e.opts.Clusters {
		header += csvClustersColumn
	}
	_, err := e.bw.WriteString(header + "\n")
	return err
}

func (e *csvEncoder) Encode(r *model.Result) error {
	e.row.Reset()

	writeQuoted(&e.row, r.Initial)
	e.row.WriteByte(',')
	e.row.WriteString(strconv.FormatInt(r.Distortion, 10))
	e.row.WriteByte(',')
	writeQuoted(&e.row, r.Final)
	if e.opts.Clusters {
		e.row.WriteString(",\"")
		r.Clusters.AppendTo(&e.row)
		e.row.WriteByte('"')
	}
	e.row.WriteByte('\n')

	_, err := e.bw.WriteString(e.row.String())
	return err
}

func writeQuoted(sb *strings.Builder, cs model.CentroidSet) {
	sb.WriteByte('"')
	model.Cluster(cs).AppendTo(sb)
	sb.WriteByte('"')
}

func (e *csvEncoder) Flush() error {
	return e.bw.Flush()
}

func (e *csvEncoder) Close() error {
	return e.bw.Flush()
}

func (e *csvEncoder) BytesWritten() int64 {
	return e.cw.n
}
