// Package record reads loosely shaped rows coming back from the data
// gateway. Rows written by different clients disagree on field naming
// (role_tags vs roleTags), so every accessor takes a list of aliases in
// priority order and returns the first one that is present and non-nil.
//
// Nothing in this package fails: missing fields yield zero values and
// unexpected value types are stringified on a best-effort basis.
package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Row map[string]any

func (r Row) lookup(aliases []string) (any, bool) {
	for _, a := range aliases {
		if v, ok := r[a]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the first present alias, stringified.
func String(r Row, aliases ...string) (string, bool) {
	v, ok := r.lookup(aliases)
	if !ok {
		return "", false
	}
	return Stringify(v), true
}

// StringOr is String with a default for when no alias is present.
func StringOr(r Row, def string, aliases ...string) string {
	if s, ok := String(r, aliases...); ok {
		return s
	}
	return def
}

// Stringify converts scalar gateway values to text.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case [16]byte:
		return uuid.UUID(t).String()
	case time.Time:
		u := t.UTC()
		if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
			return u.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// Strings returns the first alias whose value is a sequence. A present alias
// holding a non-sequence is skipped, not coerced.
func Strings(r Row, aliases ...string) []string {
	for _, a := range aliases {
		switch t := r[a].(type) {
		case []string:
			out := make([]string, len(t))
			copy(out, t)
			return out
		case []any:
			out := make([]string, 0, len(t))
			for _, v := range t {
				out = append(out, Stringify(v))
			}
			return out
		}
	}
	return []string{}
}

// Rows returns the first alias whose value is a sequence of objects. JSON
// text is decoded first since json columns may come back undecoded.
func Rows(r Row, aliases ...string) []Row {
	for _, a := range aliases {
		v, ok := r[a]
		if !ok || v == nil {
			continue
		}
		if rows, ok := toRows(v); ok {
			return rows
		}
	}
	return []Row{}
}

func toRows(v any) ([]Row, bool) {
	switch t := v.(type) {
	case string:
		return decodeRows([]byte(t))
	case []byte:
		return decodeRows(t)
	case []Row:
		return t, true
	case []map[string]any:
		out := make([]Row, len(t))
		for i, m := range t {
			out[i] = Row(m)
		}
		return out, true
	case []any:
		out := make([]Row, 0, len(t))
		for _, item := range t {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, Row(m))
			case Row:
				out = append(out, m)
			}
		}
		return out, true
	}
	return nil, false
}

func decodeRows(b []byte) ([]Row, bool) {
	var out []Row
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false
	}
	if out == nil {
		out = []Row{}
	}
	return out, true
}

// Int64 returns the first alias that holds a number or numeric text.
func Int64(r Row, aliases ...string) (int64, bool) {
	for _, a := range aliases {
		switch t := r[a].(type) {
		case int:
			return int64(t), true
		case int32:
			return int64(t), true
		case int64:
			return t, true
		case float64:
			return int64(t), true
		case json.Number:
			if n, err := t.Int64(); err == nil {
				return n, true
			}
		case string:
			if n, err := strconv.ParseInt(t, 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
