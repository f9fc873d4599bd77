package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/sara-ai/checkin-service/internal/store/model"
)

const (
	pdfFont       = "Helvetica"
	pdfLineHeight = 6.0
)

// PDFRenderer lays the report out on A4 pages with the core Helvetica font.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) SupportedFormat() Format {
	return FormatPDF
}

func (r *PDFRenderer) ContentType() string {
	return "application/pdf"
}

func (r *PDFRenderer) Render(data Data) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Daily Check-in Report", true)
	pdf.SetCreationDate(data.GeneratedAt)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(pdfFont, "B", 20)
	pdf.SetTextColor(79, 70, 229)
	pdf.CellFormat(0, 12, "Daily Check-in Report", "B", 1, "L", false, 0, "")
	pdf.Ln(4)

	heading := func(title string) {
		pdf.Ln(3)
		pdf.SetFont(pdfFont, "B", 13)
		pdf.SetTextColor(55, 65, 81)
		pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 11)
		pdf.SetTextColor(31, 41, 55)
	}

	heading("Employee Information")
	for _, row := range [][2]string{
		{"Name:", data.EmployeeName},
		{"Email:", data.EmployeeEmail},
		{"Check-in Date:", data.CheckIn.CreatedAt.Format("January 02, 2006")},
		{"Check-in Time:", data.CheckIn.CreatedAt.Format("03:04 PM")},
	} {
		pdf.SetFont(pdfFont, "B", 11)
		pdf.CellFormat(40, pdfLineHeight, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 11)
		pdf.CellFormat(0, pdfLineHeight, tr(row[1]), "", 1, "L", false, 0, "")
	}

	for _, s := range data.sections() {
		heading(s.Title)
		pdf.MultiCell(0, pdfLineHeight, tr(s.Body), "", "L", false)
	}

	if t := data.transcript(); t != "" {
		heading("What Was Said")
		pdf.SetFont(pdfFont, "I", 11)
		pdf.SetTextColor(75, 85, 99)
		pdf.MultiCell(0, pdfLineHeight, tr(fmt.Sprintf("%q", t)), "L", "L", false)
	}

	if recs := data.recommendations(); len(recs) > 0 {
		title := "Recommendations"
		if data.insights().Shape == model.ShapeSummary {
			title = "Action Items"
		}
		heading(title)
		for _, rec := range recs {
			pdf.MultiCell(0, pdfLineHeight, tr("- "+rec), "", "L", false)
		}
	}

	if data.CheckIn.Notes != "" {
		heading("Employee Notes")
		pdf.MultiCell(0, pdfLineHeight, tr(data.CheckIn.Notes), "", "L", false)
	}

	pdf.Ln(10)
	pdf.SetFont(pdfFont, "", 8)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(0, 5, "Generated: "+data.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.MultiCell(0, 5, "This report was automatically generated based on qualitative analysis. For questions or concerns, please contact your supervisor.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
