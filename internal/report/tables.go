package report

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Molly503/paid-media/internal/stats"
	"github.com/Molly503/paid-media/pkg/adclean"
)

func newTable(title string) table.Writer {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.SetTitle(title)
	return w
}

func rightAligned(from, to int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, 0, to-from+1)
	for n := from; n <= to; n++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	return cfgs
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func number(f float64) string {
	return humanize.CommafWithDigits(f, 2)
}

// StepsTable renders per-step removals with a totals footer.
func StepsTable(result *adclean.ExecutionResult) string {
	w := newTable("Cleaning steps")
	w.AppendHeader(table.Row{"Step", "Column", "Before", "After", "Removed"})
	for _, s := range result.Steps {
		w.AppendRow(table.Row{s.Name, s.Column, count(s.Before), count(s.After), count(s.Removed)})
	}
	w.AppendFooter(table.Row{
		"Total", "", count(result.InitialCount), count(result.FinalCount),
		count(result.TotalRemoved()) + " (" + strconv.FormatFloat(result.RemovalRate(), 'f', 1, 64) + "%)",
	})
	w.SetColumnConfigs(rightAligned(3, 5))
	return w.Render()
}

// MetricsTable compares column statistics before and after cleaning.
// Columns are matched by position.
func MetricsTable(before, after []adclean.MetricSummary) string {
	w := newTable("Metrics before / after")
	w.AppendHeader(table.Row{"Column", "Count", "Mean", "Min", "Max", "Count'", "Mean'", "Min'", "Max'"})
	for i, b := range before {
		row := table.Row{b.Column, count(b.Count), number(b.Mean), number(b.Min), number(b.Max)}
		if i < len(after) {
			a := after[i]
			row = append(row, count(a.Count), number(a.Mean), number(a.Min), number(a.Max))
		} else {
			row = append(row, "", "", "", "")
		}
		w.AppendRow(row)
	}
	w.SetColumnConfigs(rightAligned(2, 9))
	return w.Render()
}

// ProfileTable renders outlier counts per metric.
func ProfileTable(profiles []stats.OutlierProfile) string {
	w := newTable("Outlier profile")
	w.AppendHeader(table.Row{"Column", "Range", "Low", "High", "Missing", "Outside"})
	for _, p := range profiles {
		rng := "[" + adclean.Threshold{Value: p.Min}.String() + ", " + adclean.Threshold{Value: p.Max}.String() + "]"
		w.AppendRow(table.Row{p.Column, rng, count(p.Low), count(p.High), count(p.Missing), count(p.Outside())})
	}
	w.SetColumnConfigs(rightAligned(3, 6))
	return w.Render()
}

// SummaryTable renders descriptive statistics for a set of columns.
func SummaryTable(summaries []adclean.MetricSummary) string {
	w := newTable("Column statistics")
	w.AppendHeader(table.Row{"Column", "Count", "Missing", "Mean", "Min", "Max"})
	for _, s := range summaries {
		w.AppendRow(table.Row{s.Column, count(s.Count), count(s.Missing), number(s.Mean), number(s.Min), number(s.Max)})
	}
	w.SetColumnConfigs(rightAligned(2, 6))
	return w.Render()
}
