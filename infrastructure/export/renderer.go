// Package export renders aggregated reports into downloadable artifacts
// and manages the on-disk archive of exported files.
package export

import (
	"bytes"
	"fmt"
	"sort"

	"prosorter/domain/entities"
	"prosorter/domain/interfaces"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

// Renderer produces spreadsheet (xlsx) and document (pdf) renditions of a
// report.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

var _ interfaces.ReportRenderer = (*Renderer)(nil)

// Render turns the report into the requested format.
func (r *Renderer) Render(report *entities.Report, format entities.ReportFormat) ([]byte, error) {
	switch format {
	case entities.FormatSpreadsheet:
		return r.renderSpreadsheet(report)
	case entities.FormatDocument:
		return r.renderDocument(report)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// sortedActions returns the report's action counts in a stable order.
func sortedActions(report *entities.Report) []entities.ActivityAction {
	actions := make([]entities.ActivityAction, 0, len(report.ActionCounts))
	for action := range report.ActionCounts {
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

func (r *Renderer) renderSpreadsheet(report *entities.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to set up summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"ProSorter Activity Report"},
		{"Period", report.Window.Start.Format("2006-01-02"), report.Window.End.Format("2006-01-02")},
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05")},
		{},
		{"Coin Inventory"},
		{"Denomination", "Count", "Value"},
	}
	for _, d := range entities.Denominations {
		rows = append(rows, []interface{}{
			fmt.Sprintf("Rs. %d", d), report.Inventory.Count(d), report.Inventory.Value(d),
		})
	}
	rows = append(rows,
		[]interface{}{"Total", "", report.Inventory.TotalAmount},
		[]interface{}{},
		[]interface{}{"Actions", report.TotalActions},
	)
	for _, action := range sortedActions(report) {
		rows = append(rows, []interface{}{string(action), report.ActionCounts[action]})
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		return nil, err
	}

	const userSheet = "User Activity"
	if _, err := f.NewSheet(userSheet); err != nil {
		return nil, fmt.Errorf("failed to create user sheet: %w", err)
	}
	userRows := [][]interface{}{
		{"User", "Total Actions", "Logins", "Withdrawals", "Last Activity"},
	}
	for _, u := range report.UserBreakdown {
		userRows = append(userRows, []interface{}{
			u.Actor, u.TotalActions, u.Logins, u.Withdrawals,
			u.LastActivity.Format("2006-01-02 15:04:05"),
		})
	}
	if err := writeRows(f, userSheet, userRows); err != nil {
		return nil, err
	}

	const dailySheet = "Daily Breakdown"
	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, fmt.Errorf("failed to create daily sheet: %w", err)
	}
	dailyRows := [][]interface{}{
		{"Date", "Total Activities", "Logins", "Withdrawals", "Unique Users"},
	}
	for _, day := range report.DailyBreakdown {
		dailyRows = append(dailyRows, []interface{}{
			day.Date, day.TotalActivities, day.Logins, day.Withdrawals, day.UniqueUsers,
		})
	}
	if err := writeRows(f, dailySheet, dailyRows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d on %s: %w", i+1, sheet, err)
		}
	}
	return nil
}

func (r *Renderer) renderDocument(report *entities.Report) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "ProSorter Activity Report")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s",
		report.Window.Start.Format("2006-01-02"),
		report.Window.End.Format("2006-01-02")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Coin Inventory")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	for _, d := range entities.Denominations {
		pdf.Cell(0, 6, fmt.Sprintf("Rs. %d  x %d  =  Rs. %d",
			d, report.Inventory.Count(d), report.Inventory.Value(d)))
		pdf.Ln(6)
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total: Rs. %d", report.Inventory.TotalAmount))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Activity (%d actions)", report.TotalActions))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	for _, action := range sortedActions(report) {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %d", action, report.ActionCounts[action]))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Most Active Users")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	for _, u := range topUsers(report.UserBreakdown, 5) {
		pdf.Cell(0, 6, fmt.Sprintf("%s - %d actions (%d logins, %d withdrawals)",
			u.Actor, u.TotalActions, u.Logins, u.Withdrawals))
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return buf.Bytes(), nil
}

// topUsers returns up to n users ordered by activity volume, busiest first.
func topUsers(users []entities.UserActivityStats, n int) []entities.UserActivityStats {
	sorted := make([]entities.UserActivityStats, len(users))
	copy(sorted, users)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalActions > sorted[j].TotalActions
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
