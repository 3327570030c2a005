// internal/reports/monthly-report/pdf.go
package monthlyreport

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"hrms-dispatch/internal/store"
)

// renderAttendancePDF lays out one employee's month as a day/flag table with
// a summary row.
func renderAttendancePDF(emp store.Employee, monthYear string, days []dayEntry, stats AttendanceStats) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("Attendance Report - %s", monthYear), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Employee: %s (%s)", emp.Name, emp.Code), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(30, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Status", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "In", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Out", "1", 0, "C", true, 0, "")
	pdf.CellFormat(85, 7, "Location", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, day := range days {
		pdf.CellFormat(30, 6, day.date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, flagLabel(day.flag), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, day.inTime, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, day.outTime, "1", 0, "C", false, 0, "")
		pdf.CellFormat(85, 6, day.location, "1", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, fmt.Sprintf(
		"Present: %d   Absent: %d   Delayed: %d   Leave: %d   Visit: %d",
		stats.Present, stats.Absent, stats.Delayed, stats.Leave, stats.Visit,
	), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func flagLabel(flag string) string {
	switch flag {
	case store.FlagPresent:
		return "Present"
	case store.FlagAbsent:
		return "Absent"
	case store.FlagDelayed:
		return "Delayed"
	case store.FlagLeave:
		return "Leave"
	case store.FlagVisit:
		return "Visit"
	case "":
		return "-"
	default:
		return flag
	}
}
