package output

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
)

// HTMLFormatter renders a standalone HTML page.
type HTMLFormatter struct{}

func (h HTMLFormatter) Name() string { return "html" }

//go:embed templates/report.html.tmpl
var htmlTemplateSource string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"curr":  FormatCurrency,
	"whole": FormatWholeCurrency,
	"rate":  FormatRate,
}).Parse(htmlTemplateSource))

func (h HTMLFormatter) Format(r *Report) ([]byte, error) {
	if r == nil || r.Empty() {
		return nil, fmt.Errorf("nothing to report")
	}
	var buf bytes.Buffer
	data := struct {
		*Report
		DefaultAssumptions []string
	}{r, DefaultAssumptions}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
