package eventlog

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/logflow/alphaminer/pkg/errors"
)

const parquetBatchSize = 8192

// ReadParquet reads a Parquet log. Readers that cannot seek are buffered in memory.
func ReadParquet(ctx context.Context, r io.Reader, opts Options) (*Log, error) {
	src, ok := r.(parquet.ReaderAtSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeReadFailed, "failed to buffer parquet input")
		}
		src = bytes.NewReader(data)
	}

	pr, err := file.NewParquetReader(src)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReadFailed, "failed to open parquet")
	}
	defer pr.Close()

	fr, err := pqarrow.NewFileReader(pr, pqarrow.ArrowReadProperties{BatchSize: parquetBatchSize}, memory.DefaultAllocator)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReadFailed, "failed to create arrow reader")
	}

	table, err := fr.ReadTable(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.ContextCanceled("read parquet")
		}
		return nil, errors.Wrap(err, errors.CodeReadFailed, "failed to read parquet table")
	}
	defer table.Release()

	fields := table.Schema().Fields()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	cols, err := resolveColumns(header, opts)
	if err != nil {
		return nil, err
	}

	b := NewBuilder()
	tr := array.NewTableReader(table, parquetBatchSize)
	defer tr.Release()

	row := 1
	for tr.Next() {
		if ctx.Err() != nil {
			return nil, errors.ContextCanceled("read parquet")
		}
		rec := tr.Record()
		for i := 0; i < int(rec.NumRows()); i++ {
			row++
			caseID := arrowString(rec.Column(cols.caseIdx), i)
			activity := arrowString(rec.Column(cols.activityIdx), i)

			var ts time.Time
			if cols.timestampIdx >= 0 {
				parsed, ok := arrowTime(rec.Column(cols.timestampIdx), i, opts.TimestampLayout)
				if !ok {
					return nil, errors.InvalidTimestamp(arrowString(rec.Column(cols.timestampIdx), i), row)
				}
				ts = parsed
			}
			b.Add(caseID, activity, ts)
		}
	}
	return b.Build(), nil
}

func arrowString(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}
	switch a := col.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Int64:
		return strconv.FormatInt(a.Value(i), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(i)), 10)
	default:
		return col.ValueStr(i)
	}
}

func arrowTime(col arrow.Array, i int, layout string) (time.Time, bool) {
	if col.IsNull(i) {
		return time.Time{}, true
	}
	switch a := col.(type) {
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit), true
	case *array.Date32:
		return a.Value(i).ToTime(), true
	case *array.Int64:
		return time.UnixMilli(a.Value(i)).UTC(), true
	default:
		return parseTimestamp(arrowString(col, i), layout)
	}
}
