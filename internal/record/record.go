// Package record holds the cell conversions shared by the input, filter,
// cleaning, stats, and output packages.
//
// A record is a map keyed by column name. Numeric cells are float64, missing
// cells are nil, and anything else is kept as a string.
package record

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Record is one row of the dataset.
type Record = map[string]interface{}

// missingTokens are the cell spellings treated as missing values.
var missingTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"null": {},
	"none": {},
	"na":   {},
	"n/a":  {},
	"#n/a": {},
}

// IsMissingToken reports whether s spells a missing value.
func IsMissingToken(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseCell converts a raw text cell into its record value.
func ParseCell(s string) interface{} {
	if IsMissingToken(s) {
		return nil
	}
	trimmed := strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if math.IsNaN(f) {
			return nil
		}
		return f
	}
	return s
}

// Float extracts a number from a cell.
// It returns false for nil, NaN, and non-numeric values.
func Float(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case bool:
		return 0, false
	case string:
		if IsMissingToken(n) {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FormatCell renders a value for text output.
// Floats use the shortest representation that round-trips; nil is empty.
func FormatCell(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(n) {
			return ""
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case bool:
		return strconv.FormatBool(n)
	case string:
		return n
	case []byte:
		return string(n)
	default:
		return fmt.Sprint(n)
	}
}

// Columns returns the column order for records: the given header first,
// then any extra keys in first-seen order with sorted keys per record.
func Columns(header []string, records []Record) []string {
	seen := make(map[string]struct{}, len(header))
	cols := make([]string, 0, len(header))
	for _, h := range header {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		cols = append(cols, h)
	}
	for _, r := range records {
		var extra []string
		for k := range r {
			if _, ok := seen[k]; !ok {
				extra = append(extra, k)
			}
		}
		slices.Sort(extra)
		for _, k := range extra {
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	return cols
}

// Copy returns a shallow copy of records so filters can drop rows without
// touching the caller's slice.
func Copy(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
