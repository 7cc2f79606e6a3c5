package eventlog

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/logflow/alphaminer/pkg/errors"
)

// Format is a supported event log encoding.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatJSONL
	FormatXLSX
	FormatParquet
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSONL:
		return "jsonl"
	case FormatXLSX:
		return "xlsx"
	case FormatParquet:
		return "parquet"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "csv", "tsv":
		return FormatCSV
	case "jsonl", "ndjson", "json":
		return FormatJSONL
	case "xlsx", "excel":
		return FormatXLSX
	case "parquet", "pq":
		return FormatParquet
	default:
		return FormatUnknown
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return ParseFormat(ext)
}

// Engine selects how tabular logs are read.
type Engine uint8

const (
	// EngineNative uses the in-process readers of this package.
	EngineNative Engine = iota
	// EngineDuckDB reads the file through an embedded DuckDB query.
	EngineDuckDB
)

func (e Engine) String() string {
	if e == EngineDuckDB {
		return "duckdb"
	}
	return "native"
}

// ParseEngine parses an engine name; anything other than "duckdb" is native.
func ParseEngine(s string) Engine {
	if strings.EqualFold(s, "duckdb") {
		return EngineDuckDB
	}
	return EngineNative
}

// Options controls how tabular rows map onto cases, activities and timestamps.
type Options struct {
	// CaseColumn names the case identifier column.
	CaseColumn string

	// ActivityColumn names the event class column.
	ActivityColumn string

	// TimestampColumn names the timestamp column. When it cannot be found the
	// input row order is used.
	TimestampColumn string

	// TimestampLayout is tried before the built-in layouts.
	TimestampLayout string

	// Delimiter is the CSV field separator.
	Delimiter rune

	// Sheet selects the XLSX worksheet; empty means the first sheet.
	Sheet string

	Engine Engine
}

// DefaultOptions uses the XES attribute names as column names.
func DefaultOptions() Options {
	return Options{
		CaseColumn:      "case:concept:name",
		ActivityColumn:  "concept:name",
		TimestampColumn: "time:timestamp",
		Delimiter:       ',',
	}
}

var (
	caseAliases      = []string{"case:concept:name", "case_id", "case", "caseid", "case id"}
	activityAliases  = []string{"concept:name", "activity", "event", "task"}
	timestampAliases = []string{"time:timestamp", "timestamp", "time", "start_time"}

	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.000",
		"2006-01-02",
		"02/01/2006 15:04",
		"01/02/2006 15:04:05",
	}
)

// columns holds resolved positions; timestamp is -1 when absent.
type columns struct {
	caseIdx      int
	activityIdx  int
	timestampIdx int
}

func findColumn(header []string, preferred string, aliases []string) int {
	candidates := append([]string{preferred}, aliases...)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		for i, h := range header {
			if h == c {
				return i
			}
		}
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), c) {
				return i
			}
		}
	}
	return -1
}

func resolveColumns(header []string, opts Options) (columns, error) {
	cols := columns{
		caseIdx:      findColumn(header, opts.CaseColumn, caseAliases),
		activityIdx:  findColumn(header, opts.ActivityColumn, activityAliases),
		timestampIdx: findColumn(header, opts.TimestampColumn, timestampAliases),
	}
	if cols.caseIdx < 0 {
		return cols, errors.MissingColumn(opts.CaseColumn, header)
	}
	if cols.activityIdx < 0 {
		return cols, errors.MissingColumn(opts.ActivityColumn, header)
	}
	return cols, nil
}

func parseTimestamp(raw, layout string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	if layout != "" {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	for _, l := range timestampLayouts {
		if ts, err := time.Parse(l, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// addRow feeds one raw row into b, resolving its timestamp.
func addRow(b *Builder, record []string, cols columns, layout string, row int) error {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var ts time.Time
	if cols.timestampIdx >= 0 {
		raw := field(cols.timestampIdx)
		parsed, ok := parseTimestamp(raw, layout)
		if !ok {
			return errors.InvalidTimestamp(raw, row)
		}
		ts = parsed
	}
	b.Add(field(cols.caseIdx), field(cols.activityIdx), ts)
	return nil
}
