package output

import (
	"embed"
	"html/template"
	"io"

	"github.com/panbanda/wcc/pkg/metrics"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"score":   formatScore,
	"percent": formatPercent,
	"over": func(v, limit float64) bool {
		return v > limit
	},
	"rank": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/report.html.tmpl"))

// htmlView is the data handed to the page template.
type htmlView struct {
	*Document
	Unit string
	Rows []metrics.Result
}

// RenderHTML writes a standalone HTML page with the project summary, the
// complex units, every metrics row and the ignored units.
func (d *Document) RenderHTML(w io.Writer) error {
	return htmlTemplate.Execute(w, htmlView{Document: d, Unit: d.unit(), Rows: d.Rows()})
}
