package service

import (
	"bytes"
	"time"

	"carelog/backend/internal/repository/postgres/attendance"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/pkg/errors"
)

var reportColumns = []struct {
	title string
	width float64
}{
	{"Name", 38},
	{"Role", 25},
	{"Shift", 25},
	{"Time", 18},
	{"Notes", 84},
}

// AttendanceReportPDF renders the approved-attendance report: one section
// per calendar day (days descending, as grouped upstream), one row per
// record in store order.
func AttendanceReportPDF(title string, groups []attendance.DayGroup) ([]byte, error) {
	if len(groups) == 0 {
		return nil, errors.New("no approved records to export")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, "Report generated on: "+time.Now().Format("January 2, 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, group := range groups {
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 9, "Date: "+group.Day.Format("Monday, January 2, 2006"), "", 1, "L", false, 0, "")

		writeHeaderRow(pdf)

		pdf.SetFont("Helvetica", "", 10)
		for _, row := range group.Rows {
			writeRow(pdf, row)
		}

		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "writing attendance report pdf")
	}

	return buf.Bytes(), nil
}

func writeHeaderRow(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range reportColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func writeRow(pdf *gofpdf.Fpdf, row attendance.Row) {
	notes := row.Notes
	if len(notes) > 90 {
		notes = notes[:87] + "..."
	}

	cells := []string{row.Name, row.Role, row.Shift, row.Time, notes}
	for i, col := range reportColumns {
		pdf.CellFormat(col.width, 7, cells[i], "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}
