// Package stats computes descriptive statistics over record columns.
package stats

import (
	"github.com/Molly503/paid-media/internal/record"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// Describe summarizes the numeric values of a column.
// Values that are not numbers count as missing.
func Describe(records []map[string]interface{}, column string) adclean.MetricSummary {
	s := adclean.MetricSummary{Column: column}
	sum := 0.0
	for _, rec := range records {
		v, ok := record.Float(rec[column])
		if !ok {
			s.Missing++
			continue
		}
		if s.Count == 0 || v < s.Min {
			s.Min = v
		}
		if s.Count == 0 || v > s.Max {
			s.Max = v
		}
		sum += v
		s.Count++
	}
	if s.Count > 0 {
		s.Mean = sum / float64(s.Count)
	}
	return s
}

// DescribeAll summarizes each column in order.
func DescribeAll(records []map[string]interface{}, columns []string) []adclean.MetricSummary {
	out := make([]adclean.MetricSummary, 0, len(columns))
	for _, col := range columns {
		out = append(out, Describe(records, col))
	}
	return out
}

// OutlierProfile counts the values of a column falling outside [Min, Max].
type OutlierProfile struct {
	Column  string  `json:"column"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	High    int     `json:"high"`
	Low     int     `json:"low"`
	Missing int     `json:"missing"`
	Total   int     `json:"total"`
}

// Outside returns every record the range check would drop.
func (p OutlierProfile) Outside() int {
	return p.High + p.Low + p.Missing
}

// Profile counts values above max, below min, and missing.
func Profile(records []map[string]interface{}, column string, min, max float64) OutlierProfile {
	p := OutlierProfile{Column: column, Min: min, Max: max, Total: len(records)}
	for _, rec := range records {
		v, ok := record.Float(rec[column])
		switch {
		case !ok:
			p.Missing++
		case v > max:
			p.High++
		case v < min:
			p.Low++
		}
	}
	return p
}

// ProfileThresholds profiles the four range metrics against the thresholds.
func ProfileThresholds(records []map[string]interface{}, cols adclean.Columns, th adclean.Thresholds) []OutlierProfile {
	return []OutlierProfile{
		Profile(records, cols.ROAS, th.ROASMin, th.ROASMax),
		Profile(records, cols.CPA, th.CPAMin, th.CPAMax),
		Profile(records, cols.CPC, th.CPCMin, th.CPCMax),
		Profile(records, cols.CPM, th.CPMMin, th.CPMMax),
	}
}

// MetricColumns returns the cleaned metric columns of a mapping.
func MetricColumns(cols adclean.Columns) []string {
	return []string{cols.ROAS, cols.CPA, cols.CPC, cols.CPM, cols.Spend, cols.Conversions}
}
