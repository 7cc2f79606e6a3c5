package eventlog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/logflow/alphaminer/pkg/errors"
)

// ReadJSONL reads one JSON object per line. Numeric timestamps are taken as
// Unix milliseconds.
func ReadJSONL(ctx context.Context, r io.Reader, opts Options) (*Log, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		keys   []string
		cols   columns
		b      = NewBuilder()
		lineNo = 0
	)

	for sc.Scan() {
		lineNo++
		if lineNo%ctxCheckEvery == 0 && ctx.Err() != nil {
			return nil, errors.ContextCanceled("read jsonl")
		}

		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var obj map[string]interface{}
		if err := json.Unmarshal(line, &obj); err != nil {
			return nil, errors.Wrapf(err, errors.CodeReadFailed, "invalid json on line %d", lineNo)
		}

		// Columns are resolved against the keys of the first object.
		if keys == nil {
			for k := range obj {
				keys = append(keys, k)
			}
			var err error
			if cols, err = resolveColumns(keys, opts); err != nil {
				return nil, err
			}
		}

		caseID := jsonString(obj[keys[cols.caseIdx]])
		activity := jsonString(obj[keys[cols.activityIdx]])

		var ts time.Time
		if cols.timestampIdx >= 0 {
			switch v := obj[keys[cols.timestampIdx]].(type) {
			case float64:
				ts = time.UnixMilli(int64(v)).UTC()
			case string:
				parsed, ok := parseTimestamp(v, opts.TimestampLayout)
				if !ok {
					return nil, errors.InvalidTimestamp(v, lineNo)
				}
				ts = parsed
			}
		}
		b.Add(caseID, activity, ts)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeReadFailed, "failed to scan jsonl")
	}
	return b.Build(), nil
}

func jsonString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
