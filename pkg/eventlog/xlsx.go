package eventlog

import (
	"context"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/logflow/alphaminer/pkg/errors"
)

// ReadXLSX reads a worksheet whose first row is the header.
func ReadXLSX(ctx context.Context, r io.Reader, opts Options) (*Log, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReadFailed, "failed to open xlsx")
	}
	defer xl.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := xl.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New(errors.CodeEmptyLog, "no sheets found in xlsx")
		}
		sheet = sheets[0]
	}

	rows, err := xl.Rows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeReadFailed, "failed to read sheet %q", sheet)
	}
	defer rows.Close()

	if !rows.Next() {
		return New(nil), nil
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReadFailed, "failed to read xlsx header")
	}
	cols, err := resolveColumns(header, opts)
	if err != nil {
		return nil, err
	}

	b := NewBuilder()
	for row := 2; rows.Next(); row++ {
		if row%ctxCheckEvery == 0 && ctx.Err() != nil {
			return nil, errors.ContextCanceled("read xlsx")
		}
		record, err := rows.Columns()
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeReadFailed, "failed to read xlsx row %d", row)
		}
		if len(record) == 0 {
			continue
		}
		if err := addRow(b, record, cols, opts.TimestampLayout, row); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
