package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/panbanda/wcc/pkg/metrics"
)

// metricsHeader is the column layout of the metrics and complex blocks.
var metricsHeader = []string{
	"path", "function", "start_line", "end_line", "sloc", "ploc", "covered",
	"complexity", "coverage", "wcc_plain", "wcc_quantized", "crap", "skunk", "is_complex",
}

// RenderCSV writes four blocks separated by blank lines: every metrics
// row, the ignored units, the complex units in rank order and the project
// coverage.
func (d *Document) RenderCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	write := func(rec ...string) {
		_ = cw.Write(rec)
	}

	write(metricsHeader...)
	for _, r := range d.Rows() {
		write(resultRecord(r)...)
	}

	write()
	write("ignored_path", "function", "start_line", "reason", "detail")
	for _, ig := range d.Ignored {
		write(ig.Path, ig.Function, optionalInt(ig.StartLine), ig.Reason.String(), ig.Detail)
	}

	write()
	write(append([]string{"rank"}, metricsHeader...)...)
	for i, r := range d.Complex {
		write(append([]string{strconv.Itoa(i + 1)}, resultRecord(r)...)...)
	}

	write()
	write("project_coverage", "covered", "coverable")
	write(formatFloat(d.ProjectCoverage.Ratio), strconv.Itoa(d.ProjectCoverage.Covered), strconv.Itoa(d.ProjectCoverage.Coverable))

	cw.Flush()
	return cw.Error()
}

func resultRecord(r metrics.Result) []string {
	return []string{
		r.Path,
		r.Function,
		optionalInt(r.StartLine),
		optionalInt(r.EndLine),
		strconv.Itoa(r.SLOC),
		strconv.Itoa(r.PLOC),
		strconv.Itoa(r.Covered),
		formatFloat(r.Complexity),
		formatFloat(r.Coverage),
		formatFloat(r.WccPlain),
		formatFloat(r.WccQuantized),
		formatFloat(r.Crap),
		formatFloat(r.Skunk),
		strconv.FormatBool(r.IsComplex),
	}
}

func optionalInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
