package eventlog

import (
	"context"
	"io"
	"os"

	"github.com/logflow/alphaminer/pkg/errors"
)

// Read decodes a log of the given format from r.
func Read(ctx context.Context, r io.Reader, format Format, opts Options) (*Log, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(ctx, r, opts)
	case FormatJSONL:
		return ReadJSONL(ctx, r, opts)
	case FormatXLSX:
		return ReadXLSX(ctx, r, opts)
	case FormatParquet:
		return ReadParquet(ctx, r, opts)
	default:
		return nil, errors.New(errors.CodeUnsupportedFormat, "unsupported event log format").
			WithContext("format", format.String())
	}
}

// Open reads a local file, choosing the format from its extension.
func Open(ctx context.Context, path string, opts Options) (*Log, error) {
	format := FormatFromPath(path)
	if format == FormatUnknown {
		return nil, errors.UnsupportedFormat(path)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound(path)
		}
		return nil, errors.Wrap(err, errors.CodeReadFailed, "cannot stat event log")
	}

	if opts.Engine == EngineDuckDB && format != FormatXLSX {
		return ReadWithDuckDB(ctx, path, format, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReadFailed, "cannot open event log").WithContext("path", path)
	}
	defer f.Close()

	return Read(ctx, f, format, opts)
}
