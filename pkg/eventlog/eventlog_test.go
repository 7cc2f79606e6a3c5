package eventlog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/logflow/alphaminer/pkg/errors"
)

func traceNames(l *Log) [][]string {
	var out [][]string
	for _, t := range l.Traces() {
		out = append(out, t.Names())
	}
	return out
}

func TestBuilder_OrdersByTimestamp(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	b := NewBuilder()
	b.Add("c2", "register", base)
	b.Add("c1", "check", base.Add(2*time.Minute))
	b.Add("c1", "register", base)
	b.Add("c1", "decide", base.Add(2*time.Minute))
	b.Add("", "ignored", base)
	b.Add("c2", "", base)

	l := b.Build()

	assert.Equal(t, 4, b.Len())
	assert.Equal(t, [][]string{{"register"}, {"register", "check", "decide"}}, traceNames(l))
	assert.Equal(t, "c2", l.Traces()[0].CaseID())
	assert.Equal(t, []string{"check", "decide", "register"}, l.Classes())
	assert.Equal(t, 4, l.EventCount())
}

func TestFromNames(t *testing.T) {
	l := FromNames([][]string{{"A", "B"}, {"A", "B"}, {"A"}})

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, "case-1", l.Traces()[0].CaseID())
	assert.Equal(t, 2, l.Variants()["A\x1fB"])
	assert.Equal(t, 1, l.Variants()["A"])
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"Case ID;Activity;Timestamp",
		"1;A;2024-01-01 10:00:00",
		"2;A;2024-01-01 10:05:00",
		"1;C;2024-01-01 10:20:00",
		"1;B;2024-01-01 10:10:00",
		"2;D;2024-01-01 10:06:00",
	}, "\n")

	opts := DefaultOptions()
	opts.Delimiter = ';'

	l, err := ReadCSV(context.Background(), strings.NewReader(input), opts)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B", "C"}, {"A", "D"}}, traceNames(l))
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"missing activity", "case,ts\n1,2024-01-01\n", errors.CodeMissingColumn},
		{"bad timestamp", "case,activity,timestamp\n1,A,yesterday\n", errors.CodeInvalidTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(context.Background(), strings.NewReader(tt.input), DefaultOptions())
			require.Error(t, err)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestReadCSV_Empty(t *testing.T) {
	l, err := ReadCSV(context.Background(), strings.NewReader(""), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestReadJSONL(t *testing.T) {
	input := `{"case_id": 7, "activity": "A", "timestamp": 1700000000000}
{"case_id": 7, "activity": "B", "timestamp": 1700000001000}

{"case_id": 8, "activity": "A", "timestamp": "2024-01-01T10:00:00Z"}
`
	l, err := ReadJSONL(context.Background(), strings.NewReader(input), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}, {"A"}}, traceNames(l))
	assert.Equal(t, "7", l.Traces()[0].CaseID())
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"case:concept:name", "concept:name", "time:timestamp"},
		{"c1", "A", "2024-01-01T10:00:00Z"},
		{"c1", "B", "2024-01-01T11:00:00Z"},
		{"c2", "A", "2024-01-01T10:30:00Z"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	l, err := ReadXLSX(context.Background(), bytes.NewReader(buf.Bytes()), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}, {"A"}}, traceNames(l))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.csv")
	require.NoError(t, os.WriteFile(path, []byte("case,activity\n1,A\n1,B\n"), 0o644))

	l, err := Open(context.Background(), path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}}, traceNames(l))

	_, err = Open(context.Background(), filepath.Join(dir, "missing.csv"), DefaultOptions())
	assert.True(t, errors.IsCode(err, errors.CodeFileNotFound))

	_, err = Open(context.Background(), filepath.Join(dir, "log.xes"), DefaultOptions())
	assert.True(t, errors.IsCode(err, errors.CodeUnsupportedFormat))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"csv", FormatCSV},
		{"NDJSON", FormatJSONL},
		{"excel", FormatXLSX},
		{"pq", FormatParquet},
		{"xes", FormatUnknown},
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.input); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
	assert.Equal(t, FormatParquet, FormatFromPath("/data/events.parquet"))
	assert.Equal(t, EngineDuckDB, ParseEngine("DuckDB"))
}
