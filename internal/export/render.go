package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ovaphlow/cellgroup/internal/meetingnote"
	noteentity "github.com/ovaphlow/cellgroup/internal/meetingnote/entity"
	"github.com/ovaphlow/cellgroup/internal/report/entity"
)

// Sheet names used in the workbooks.
const (
	ReportsSheet = "Reports"
	SummarySheet = "Summary"
)

var reportHeader = []string{"Week", "Cell Group", "Member", "Present", "Bible Chapters", "Prayers", "Notes"}

var reportWidths = []float64{12, 20, 20, 10, 15, 10, 40}

var summaryHeader = []string{
	"Cell Group", "Leader", "Members", "Total Attendance",
	"Total Bible Chapters", "Total Prayers", "Avg Bible/Member", "Avg Prayer/Member",
}

var summaryWidths = []float64{20, 20, 10, 16, 20, 14, 18, 18}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func notesOf(r entity.Joined) string {
	if r.Notes == nil {
		return ""
	}
	return *r.Notes
}

// ReportsXLSX writes one sheet of report rows with a bold header.
func ReportsXLSX(w io.Writer, rows []entity.Joined) error {
	f := excelize.NewFile()
	defer f.Close()

	values := make([][]any, 0, len(rows))
	for _, r := range rows {
		values = append(values, []any{
			r.WeekStart.String(),
			r.Member.CellGroup.Name,
			r.Member.Name,
			yesNo(r.Present()),
			r.BibleChaptersRead,
			r.PrayerCount,
			notesOf(r),
		})
	}
	if err := writeSheet(f, ReportsSheet, reportHeader, reportWidths, values); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

// SummaryXLSX writes the per group aggregate sheet. Averages have one decimal.
func SummaryXLSX(w io.Writer, groups []GroupSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	values := make([][]any, 0, len(groups))
	for _, g := range groups {
		values = append(values, []any{
			g.CellGroup,
			g.Leader,
			g.Members,
			g.TotalAttendance,
			g.TotalBibleChapters,
			g.TotalPrayers,
			fmt.Sprintf("%.1f", g.AvgBible()),
			fmt.Sprintf("%.1f", g.AvgPrayer()),
		})
	}
	if err := writeSheet(f, SummarySheet, summaryHeader, summaryWidths, values); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, sheet string, header []string, widths []float64, rows [][]any) error {
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return err
	}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

var csvNotes = strings.NewReplacer(",", ";", "\r\n", " ", "\n", " ", "\r", " ")

// ReportsCSV writes the same columns as ReportsXLSX. Commas and line breaks
// in notes are replaced so each report stays on one line.
func ReportsCSV(w io.Writer, rows []entity.Joined) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.WeekStart.String(),
			r.Member.CellGroup.Name,
			r.Member.Name,
			yesNo(r.Present()),
			fmt.Sprint(r.BibleChaptersRead),
			fmt.Sprint(r.PrayerCount),
			csvNotes.Replace(notesOf(r)),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var noteTemplate = template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Georgia, "Times New Roman", serif; max-width: 720px; margin: 40px auto; color: #222; line-height: 1.6; }
  h1 { font-size: 24px; margin-bottom: 4px; }
  .week { color: #666; margin-bottom: 24px; }
  .content { border-top: 1px solid #ddd; padding-top: 16px; }
  footer { margin-top: 48px; font-size: 12px; color: #999; border-top: 1px solid #eee; padding-top: 8px; }
  @media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="week">Week of {{.Week}}</div>
<div class="content">{{.Content}}</div>
<footer>Generated on {{.Generated}}</footer>
</body>
</html>
`))

// NoteHTML renders a standalone, print ready document for n.
func NoteHTML(w io.Writer, n *noteentity.MeetingNote, generated time.Time) error {
	var buf bytes.Buffer
	err := noteTemplate.Execute(&buf, struct {
		Title     string
		Week      string
		Content   template.HTML
		Generated string
	}{
		Title:     n.Title,
		Week:      n.WeekDate.Long(),
		Content:   meetingnote.SanitizeToHTML(n.Content),
		Generated: generated.Format("January 2, 2006 3:04 PM"),
	})
	if err != nil {
		return fmt.Errorf("render note: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}
