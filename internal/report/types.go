package report

import (
	"time"

	"github.com/sara-ai/checkin-service/internal/store/model"
)

type Format string

const (
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// Renderer turns a check-in into a document of one format.
type Renderer interface {
	Render(data Data) ([]byte, error)
	SupportedFormat() Format
	ContentType() string
}

// Data is the input of a renderer. CheckIn is a copy, renderers never see
// the caller's value.
type Data struct {
	CheckIn       model.CheckIn
	EmployeeName  string
	EmployeeEmail string
	GeneratedAt   time.Time
}

func (d Data) metrics() model.Metrics {
	return d.CheckIn.Metrics.Data()
}

func (d Data) insights() model.Insights {
	return d.CheckIn.Insights.Data()
}

// section is a titled paragraph of the narrative report.
type section struct {
	Title string
	Body  string
}

// sections lists the narrative blocks in display order. Empty fields are skipped.
func (d Data) sections() []section {
	in := d.insights()
	if in.Shape == model.ShapeSummary {
		return []section{{Title: "Summary", Body: in.Summary}}
	}

	all := []section{
		{Title: "Overall Experience", Body: in.OverallExperience},
		{Title: "Emotional State & Well-being", Body: in.EmotionalState},
		{Title: "Work Motivation & Engagement", Body: in.WorkMotivation},
		{Title: "Professional Appearance & Office Ethics", Body: in.ProfessionalAppearance},
		{Title: "AI Analysis & Observations", Body: in.AIObservations},
	}
	out := make([]section, 0, len(all))
	for _, s := range all {
		if s.Body != "" {
			out = append(out, s)
		}
	}
	return out
}

func (d Data) recommendations() []string {
	in := d.insights()
	if in.Shape == model.ShapeSummary {
		return in.ActionItems
	}
	return in.Recommendations
}

func (d Data) transcript() string {
	a := d.metrics().Audio
	if !a.HasAudio {
		return ""
	}
	return a.Transcript
}
