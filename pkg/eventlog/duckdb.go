package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/logflow/alphaminer/pkg/errors"
)

// ReadSQL builds a log from a query returning (case, activity, timestamp)
// rows. The timestamp column may be NULL.
func ReadSQL(ctx context.Context, db *sql.DB, query string, args ...interface{}) (*Log, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeQueryFailed, "event log query failed")
	}
	defer rows.Close()

	b := NewBuilder()
	for rows.Next() {
		var (
			caseID, activity sql.NullString
			ts               sql.NullTime
		)
		if err := rows.Scan(&caseID, &activity, &ts); err != nil {
			return nil, errors.Wrap(err, errors.CodeQueryFailed, "failed to scan event row")
		}
		b.Add(caseID.String, activity.String, ts.Time)
	}
	if err := rows.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.ContextCanceled("read sql")
		}
		return nil, errors.Wrap(err, errors.CodeQueryFailed, "event log query failed")
	}
	return b.Build(), nil
}

// ReadWithDuckDB reads a CSV, JSONL or Parquet file through an in-memory
// DuckDB instance. Column names are taken from opts without alias resolution.
func ReadWithDuckDB(ctx context.Context, path string, format Format, opts Options) (*Log, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageInit, "failed to open duckdb")
	}
	defer db.Close()

	var from string
	switch format {
	case FormatCSV:
		delim := opts.Delimiter
		if delim == 0 {
			delim = ','
		}
		from = fmt.Sprintf("read_csv_auto('%s', header=true, delim='%s')", escapeLiteral(path), escapeLiteral(string(delim)))
	case FormatJSONL:
		from = fmt.Sprintf("read_json_auto('%s', format='newline_delimited')", escapeLiteral(path))
	case FormatParquet:
		from = fmt.Sprintf("read_parquet('%s')", escapeLiteral(path))
	default:
		return nil, errors.UnsupportedFormat(path).WithContext("engine", "duckdb")
	}

	tsExpr := "NULL::TIMESTAMP"
	if opts.TimestampColumn != "" {
		tsExpr = fmt.Sprintf("TRY_CAST(%s AS TIMESTAMP)", quoteIdent(opts.TimestampColumn))
	}
	query := fmt.Sprintf("SELECT CAST(%s AS VARCHAR), CAST(%s AS VARCHAR), %s FROM %s",
		quoteIdent(opts.CaseColumn), quoteIdent(opts.ActivityColumn), tsExpr, from)

	return ReadSQL(ctx, db, query)
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
