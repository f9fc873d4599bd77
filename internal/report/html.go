package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sara-ai/checkin-service/internal/store/model"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Daily Check-in Report</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1f2937; max-width: 760px; margin: 2em auto; }
h1 { color: #4f46e5; border-bottom: 2px solid #4f46e5; padding-bottom: .3em; }
h2 { color: #374151; margin-top: 1.6em; }
table.info td { padding: .3em 1em .3em 0; }
table.info td:first-child { font-weight: bold; }
blockquote { font-style: italic; border-left: 3px solid #a5b4fc; padding-left: 1em; color: #4b5563; }
footer { margin-top: 3em; font-size: .8em; color: #6b7280; }
</style>
</head>
<body>
<h1>Daily Check-in Report</h1>

<h2>Employee Information</h2>
<table class="info">
<tr><td>Name:</td><td>{{ .Name }}</td></tr>
<tr><td>Email:</td><td>{{ .Email }}</td></tr>
<tr><td>Check-in Date:</td><td>{{ .Date }}</td></tr>
<tr><td>Check-in Time:</td><td>{{ .Time }}</td></tr>
</table>
{{ range .Sections }}
<h2>{{ .Title }}</h2>
<p>{{ .Body }}</p>
{{ end }}
{{- if .Transcript }}
<h2>What Was Said</h2>
<blockquote>"{{ .Transcript }}"</blockquote>
{{ end }}
{{- if .Recommendations }}
<h2>{{ .RecommendationsTitle }}</h2>
<ul>
{{- range .Recommendations }}
<li>{{ . }}</li>
{{- end }}
</ul>
{{ end }}
{{- if .Notes }}
<h2>Employee Notes</h2>
<p style="white-space: pre-line">{{ .Notes }}</p>
{{ end }}
<footer>
<p>Generated: {{ .GeneratedAt }}</p>
<p>This report was automatically generated based on qualitative analysis. For questions or concerns, please contact your supervisor.</p>
</footer>
</body>
</html>
`

type htmlTemplateData struct {
	Name                 string
	Email                string
	Date                 string
	Time                 string
	Sections             []section
	Transcript           string
	RecommendationsTitle string
	Recommendations      []string
	Notes                string
	GeneratedAt          string
}

type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{tmpl: template.Must(template.New("report").Parse(htmlTemplate))}
}

func (r *HTMLRenderer) SupportedFormat() Format {
	return FormatHTML
}

func (r *HTMLRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *HTMLRenderer) Render(data Data) ([]byte, error) {
	title := "Recommendations"
	if data.insights().Shape == model.ShapeSummary {
		title = "Action Items"
	}

	td := htmlTemplateData{
		Name:                 data.EmployeeName,
		Email:                data.EmployeeEmail,
		Date:                 data.CheckIn.CreatedAt.Format("January 02, 2006"),
		Time:                 data.CheckIn.CreatedAt.Format("03:04 PM"),
		Sections:             data.sections(),
		Transcript:           data.transcript(),
		RecommendationsTitle: title,
		Recommendations:      data.recommendations(),
		Notes:                data.CheckIn.Notes,
		GeneratedAt:          data.GeneratedAt.Format("2006-01-02 15:04"),
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, td); err != nil {
		return nil, fmt.Errorf("failed to execute html template: %w", err)
	}
	return buf.Bytes(), nil
}
