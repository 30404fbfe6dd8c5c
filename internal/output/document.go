package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/panbanda/wcc/pkg/complexity"
	"github.com/panbanda/wcc/pkg/config"
	"github.com/panbanda/wcc/pkg/coverage"
	"github.com/panbanda/wcc/pkg/engine"
	"github.com/panbanda/wcc/pkg/metrics"
)

// DefaultTop is the number of complex units listed in text and markdown
// output.
const DefaultTop = 20

// ReasonCount is the number of units ignored for one reason.
type ReasonCount struct {
	Reason engine.Reason `json:"reason" yaml:"reason"`
	Count  int           `json:"count" yaml:"count"`
}

// Document is everything a scan produced, in the shape every writer
// renders. In functions mode rows are nested per file in Files; in files
// mode they are listed in Metrics.
type Document struct {
	Project         string                 `json:"project" yaml:"project"`
	Report          string                 `json:"report" yaml:"report"`
	ReportFormat    coverage.Format        `json:"json_format" yaml:"json_format"`
	ReportDigest    string                 `json:"report_digest" yaml:"report_digest"`
	Mode            config.Mode            `json:"mode" yaml:"mode"`
	Complexity      complexity.Kind        `json:"complexity" yaml:"complexity"`
	Sort            metrics.SortKey        `json:"sort" yaml:"sort"`
	Thresholds      metrics.Thresholds     `json:"thresholds" yaml:"thresholds"`
	ProjectCoverage engine.ProjectCoverage `json:"project_coverage" yaml:"project_coverage"`
	Summary         metrics.Summary        `json:"summary" yaml:"summary"`
	Metrics         []metrics.Result       `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Files           []engine.FileGroup     `json:"files,omitempty" yaml:"files,omitempty"`
	Ignored         []engine.Ignored       `json:"ignored" yaml:"ignored"`
	IgnoredByReason []ReasonCount          `json:"ignored_by_reason" yaml:"ignored_by_reason"`
	Complex         []metrics.Result       `json:"complex" yaml:"complex"`

	// Top limits the complex rows in text and markdown; 0 lists all.
	Top int `json:"-" yaml:"-"`
}

var _ Renderable = (*Document)(nil)

// NewDocument builds a Document from a scan outcome.
func NewDocument(out *engine.Outcome, run config.Run, digest string) *Document {
	d := &Document{
		Project:         run.Project,
		Report:          run.Report,
		ReportFormat:    run.Format,
		ReportDigest:    digest,
		Mode:            run.Mode,
		Complexity:      run.Complexity,
		Sort:            run.Sort,
		Thresholds:      run.Thresholds,
		ProjectCoverage: out.ProjectCoverage,
		Summary:         metrics.Summarize(out.Metrics),
		Ignored:         out.Ignored,
		Complex:         out.Complex,
		Top:             DefaultTop,
	}
	if run.Mode == config.ModeFunctions {
		d.Files = engine.GroupByFile(out.Metrics)
	} else {
		d.Metrics = out.Metrics
	}
	if d.Ignored == nil {
		d.Ignored = []engine.Ignored{}
	}
	if d.Complex == nil {
		d.Complex = []metrics.Result{}
	}

	counts := out.IgnoredByReason()
	d.IgnoredByReason = []ReasonCount{}
	for _, r := range engine.Reasons() {
		if n := counts[r]; n > 0 {
			d.IgnoredByReason = append(d.IgnoredByReason, ReasonCount{Reason: r, Count: n})
		}
	}
	return d
}

// Rows returns every metrics row, flattening Files in functions mode.
func (d *Document) Rows() []metrics.Result {
	if d.Files == nil {
		return d.Metrics
	}
	var rows []metrics.Result
	for _, g := range d.Files {
		rows = append(rows, g.Functions...)
	}
	return rows
}

// unit names the scored unit kind in headings.
func (d *Document) unit() string {
	if d.Mode == config.ModeFunctions {
		return "functions"
	}
	return "files"
}

func (d *Document) RenderData() any { return d }

func (d *Document) RenderText(w io.Writer, colored bool) error {
	return d.report(colored).RenderText(w, colored)
}

func (d *Document) RenderMarkdown(w io.Writer) error {
	return d.report(false).RenderMarkdown(w)
}

// report lays the document out as sections and tables.
func (d *Document) report(colored bool) *Report {
	r := &Report{Title: "Weighted Code Coverage", Data: d}

	r.Sections = append(r.Sections, &Section{
		Title: "Project",
		Content: strings.Join([]string{
			"Project:    " + d.Project,
			"Report:     " + d.Report + " (" + d.ReportFormat.String() + ")",
			fmt.Sprintf("Coverage:   %.2f%% (%d/%d lines)", d.ProjectCoverage.Percent(), d.ProjectCoverage.Covered, d.ProjectCoverage.Coverable),
			fmt.Sprintf("Analyzed:   %d %s, %d complex, %d ignored", d.Summary.Count, d.unit(), d.Summary.Complex, len(d.Ignored)),
			"Settings:   " + d.Complexity.String() + " complexity, sorted by " + d.Sort.String(),
			"Thresholds: " + d.Thresholds.String(),
		}, "\n"),
	})

	r.Sections = append(r.Sections, d.statsTable())

	if len(d.IgnoredByReason) > 0 {
		rows := make([][]string, 0, len(d.IgnoredByReason))
		for _, rc := range d.IgnoredByReason {
			rows = append(rows, []string{rc.Reason.String(), strconv.Itoa(rc.Count)})
		}
		r.Sections = append(r.Sections, NewTable("Ignored", []string{"Reason", "Count"}, rows, nil, d.IgnoredByReason))
	}

	if len(d.Complex) == 0 {
		r.Sections = append(r.Sections, &Section{
			Title:   "Complex " + d.unit(),
			Content: "No complex " + d.unit() + " found.",
		})
		return r
	}
	r.Sections = append(r.Sections, d.complexTable(colored))
	return r
}

func (d *Document) statsTable() *Table {
	row := func(name string, s metrics.Stat, limit float64) []string {
		return []string{name, formatScore(s.Mean), formatScore(s.P90), formatScore(s.Max), formatScore(limit)}
	}
	t := d.Thresholds
	return NewTable("Scores", []string{"Metric", "Mean", "P90", "Max", "Threshold"}, [][]string{
		row("wcc_plain", d.Summary.WccPlain, t.WccPlain),
		row("wcc_quantized", d.Summary.WccQuantized, t.WccQuantized),
		row("crap", d.Summary.Crap, t.Crap),
		row("skunk", d.Summary.Skunk, t.Skunk),
	}, nil, d.Summary)
}

func (d *Document) complexTable(colored bool) *Table {
	shown := d.Complex
	if d.Top > 0 && len(shown) > d.Top {
		shown = shown[:d.Top]
	}

	t := d.Thresholds
	cell := func(v, limit float64) string {
		s := formatScore(v)
		if colored {
			return RiskColor(v, limit, s)
		}
		return s
	}

	rows := make([][]string, 0, len(shown))
	for i, r := range shown {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Name(),
			formatScore(r.Complexity),
			formatPercent(r.Coverage),
			cell(r.WccPlain, t.WccPlain),
			cell(r.WccQuantized, t.WccQuantized),
			cell(r.Crap, t.Crap),
			cell(r.Skunk, t.Skunk),
		})
	}

	var footer []string
	if len(shown) < len(d.Complex) {
		footer = []string{"", fmt.Sprintf("showing %d of %d", len(shown), len(d.Complex)), "", "", "", "", "", ""}
	}

	return NewTable("Complex "+d.unit()+" (by "+d.Sort.String()+")",
		[]string{"#", "Unit", "Complexity", "Coverage", "WCC plain", "WCC quantized", "CRAP", "SKUNK"},
		rows, footer, shown)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatPercent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 2, 64) + "%"
}
