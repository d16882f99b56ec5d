// Package report renders the cleaning summary log and console tables.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/Molly503/paid-media/internal/pathutil"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// TimestampLayout is the layout of the cleaning time line.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Locale selects the label set of the summary log.
type Locale string

// Supported locales.
const (
	LocaleZH Locale = "zh"
	LocaleEN Locale = "en"
)

// ParseLocale returns the locale for s, defaulting to zh.
func ParseLocale(s string) (Locale, error) {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case "", LocaleZH:
		return LocaleZH, nil
	case LocaleEN:
		return LocaleEN, nil
	default:
		return "", fmt.Errorf("unsupported report locale %q (expected zh or en)", s)
	}
}

type labels struct {
	Title      string
	Time       string
	Initial    string
	Final      string
	Unit       string
	Rate       string
	Config     string
	Fallback   string
	Steps      string
	StepFormat string
	Output     string
	StepNames  map[string]string
}

var localeLabels = map[Locale]labels{
	LocaleZH: {
		Title:      "Facebook广告数据异常值清洗日志",
		Time:       "清洗时间",
		Initial:    "原始数据量",
		Final:      "最终数据量",
		Unit:       " 条",
		Rate:       "清洗率",
		Config:     "清洗配置参数",
		Fallback:   "备选清洗配置",
		Steps:      "清洗步骤详情",
		StepFormat: "%s: 移除 %d 条记录",
		Output:     "最终输出文件",
		StepNames: map[string]string{
			"ROAS":    "ROAS清洗",
			"CPA":     "CPA清洗",
			"CPC":     "CPC清洗",
			"CPM":     "CPM清洗",
			"minimum": "最小阈值清洗",
		},
	},
	LocaleEN: {
		Title:      "Facebook Ads Outlier Cleaning Log",
		Time:       "Cleaned at",
		Initial:    "Initial records",
		Final:      "Final records",
		Unit:       "",
		Rate:       "Removal rate",
		Config:     "Cleaning thresholds",
		Fallback:   "Fallback thresholds",
		Steps:      "Cleaning steps",
		StepFormat: "%s: removed %d records",
		Output:     "Final output file",
		StepNames: map[string]string{
			"ROAS":    "ROAS cleaning",
			"CPA":     "CPA cleaning",
			"CPC":     "CPC cleaning",
			"CPM":     "CPM cleaning",
			"minimum": "Minimum threshold cleaning",
		},
	},
}

const logTemplate = `{{.L.Title}}
{{rule}}
{{.L.Time}}: {{.Timestamp}}
{{.L.Initial}}: {{.Initial}}{{.L.Unit}}
{{.L.Final}}: {{.Final}}{{.L.Unit}}
{{.L.Rate}}: {{printf "%.1f" .Rate}}%

{{.L.Config}}:
{{range .Thresholds}}  {{.Key}}: {{.}}
{{end}}
{{if .Fallback}}{{.L.Fallback}}:
{{range .Fallback}}  {{.Key}}: {{.}}
{{end}}
{{end}}{{.L.Steps}}:
{{range .Steps}}  - {{step .}}
{{end}}
{{.L.Output}}: {{.OutputFile}}
`

// Summary is the content of one summary log. Thresholds are the configured
// bounds; Fallback is set when the relaxed rerun produced the result.
type Summary struct {
	Timestamp  time.Time
	Initial    int
	Final      int
	Rate       float64
	Thresholds adclean.Thresholds
	Fallback   *adclean.Thresholds
	Steps      []adclean.StepResult
	OutputFile string
}

// NewSummary builds a summary from an execution result.
func NewSummary(result *adclean.ExecutionResult, ts time.Time) Summary {
	return Summary{
		Timestamp:  ts,
		Initial:    result.InitialCount,
		Final:      result.FinalCount,
		Rate:       result.RemovalRate(),
		Thresholds: result.Thresholds,
		Fallback:   result.FallbackThresholds,
		Steps:      result.Steps,
		OutputFile: result.OutputPath,
	}
}

type view struct {
	L          labels
	Timestamp  string
	Initial    int
	Final      int
	Rate       float64
	Thresholds []adclean.Threshold
	Fallback   []adclean.Threshold
	Steps      []adclean.StepResult
	OutputFile string
}

// Render writes the summary log for the locale to w.
func Render(w io.Writer, s Summary, locale Locale) error {
	l, ok := localeLabels[locale]
	if !ok {
		return fmt.Errorf("unsupported report locale %q", locale)
	}

	tmpl, err := template.New("log").Funcs(template.FuncMap{
		"rule": func() string { return strings.Repeat("=", 50) },
		"step": func(st adclean.StepResult) string {
			name, ok := l.StepNames[st.Name]
			if !ok {
				name = st.Name
			}
			return fmt.Sprintf(l.StepFormat, name, st.Removed)
		},
	}).Parse(logTemplate)
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}

	v := view{
		L:          l,
		Timestamp:  s.Timestamp.Format(TimestampLayout),
		Initial:    s.Initial,
		Final:      s.Final,
		Rate:       s.Rate,
		Thresholds: s.Thresholds.Ordered(),
		Steps:      s.Steps,
		OutputFile: s.OutputFile,
	}
	if s.Fallback != nil {
		v.Fallback = s.Fallback.Ordered()
	}
	return tmpl.Execute(w, v)
}

// Write renders the summary log into path, replacing the file atomically.
func Write(path string, s Summary, locale Locale) error {
	if err := pathutil.ValidateFilePath(path); err != nil {
		return fmt.Errorf("invalid report path: %w", err)
	}
	return pathutil.WriteFileAtomic(path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		if err := Render(w, s, locale); err != nil {
			return err
		}
		return w.Flush()
	})
}
