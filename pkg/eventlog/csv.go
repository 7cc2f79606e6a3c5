package eventlog

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/logflow/alphaminer/pkg/errors"
)

const ctxCheckEvery = 1024

// ReadCSV reads a delimited log with a header row.
func ReadCSV(ctx context.Context, r io.Reader, opts Options) (*Log, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return New(nil), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReadFailed, "failed to read csv header")
	}

	cols, err := resolveColumns(header, opts)
	if err != nil {
		return nil, err
	}

	b := NewBuilder()
	for row := 2; ; row++ {
		if row%ctxCheckEvery == 0 && ctx.Err() != nil {
			return nil, errors.ContextCanceled("read csv")
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeReadFailed, "failed to read csv row %d", row)
		}
		if err := addRow(b, record, cols, opts.TimestampLayout, row); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
