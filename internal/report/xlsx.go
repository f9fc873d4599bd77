package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Check-in"
	metricsSheet = "Metrics"
)

// XLSXRenderer writes a workbook with the narrative on the first sheet and
// the raw signals on the second.
type XLSXRenderer struct{}

func NewXLSXRenderer() *XLSXRenderer {
	return &XLSXRenderer{}
}

func (r *XLSXRenderer) SupportedFormat() Format {
	return FormatXLSX
}

func (r *XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *XLSXRenderer) Render(data Data) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	rows := [][]any{
		{"Daily Check-in Report"},
		{},
		{"Name", data.EmployeeName},
		{"Email", data.EmployeeEmail},
		{"Check-in Date", data.CheckIn.CreatedAt.Format("January 02, 2006 03:04 PM")},
		{},
	}
	for _, s := range data.sections() {
		rows = append(rows, []any{s.Title, s.Body})
	}
	if t := data.transcript(); t != "" {
		rows = append(rows, []any{"What Was Said", t})
	}
	for i, rec := range data.recommendations() {
		rows = append(rows, []any{fmt.Sprintf("Recommendation %d", i+1), rec})
	}
	if data.CheckIn.Notes != "" {
		rows = append(rows, []any{"Employee Notes", data.CheckIn.Notes})
	}
	rows = append(rows, []any{}, []any{"Generated", data.GeneratedAt.Format("2006-01-02 15:04")})

	if err := writeRows(f, summarySheet, rows); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 36); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 100); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(metricsSheet); err != nil {
		return nil, fmt.Errorf("failed to create metrics sheet: %w", err)
	}
	if err := writeRows(f, metricsSheet, metricRows(data)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func metricRows(data Data) [][]any {
	m := data.metrics()
	rows := [][]any{
		{"Metric", "Value"},
		{"Stress (average)", m.StressAvg},
		{"Stress (max)", m.StressMax},
		{"Stress (min)", m.StressMin},
		{"Engagement score", m.EngagementScore},
		{"Fatigue events", m.YawnsCount},
		{"Head pose variance", m.HeadPoseVariance},
		{"Duration (seconds)", m.DurationSeconds},
		{"Face detected", m.FaceDetected},
	}
	if a := m.Audio; a.HasAudio {
		rows = append(rows,
			[]any{"Word count", a.WordCount},
			[]any{"Speaking pace (wpm)", a.SpeakingPaceWPM},
			[]any{"Voice energy", a.VoiceEnergy},
			[]any{"Pitch variance", a.PitchVariance},
			[]any{"Pauses", a.PausesCount},
			[]any{"Sentiment", string(a.Sentiment)},
			[]any{"Dominant emotion", a.DominantEmotion},
		)
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
