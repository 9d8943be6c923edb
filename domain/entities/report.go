package entities

import "time"

// ReportFormat selects the rendered artifact type.
type ReportFormat string

const (
	FormatSpreadsheet ReportFormat = "spreadsheet"
	FormatDocument    ReportFormat = "document"
)

// ReportWindow is the half-open interval [Start, End) a report covers.
type ReportWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w ReportWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// UserActivityStats is the per-actor slice of a report.
type UserActivityStats struct {
	Actor        string    `json:"actor"`
	TotalActions int       `json:"total_actions"`
	Logins       int       `json:"logins"`
	Withdrawals  int       `json:"withdrawals"`
	LastActivity time.Time `json:"last_activity"`
}

// DailyActivityStats is the per-calendar-day slice of a report. Date is
// formatted as 2006-01-02 in the report's reference time zone.
type DailyActivityStats struct {
	Date            string `json:"date"`
	TotalActivities int    `json:"total_activities"`
	Logins          int    `json:"logins"`
	Withdrawals     int    `json:"withdrawals"`
	UniqueUsers     int    `json:"unique_users"`
}

// Report is the aggregated statistics for one window, built fresh per
// request and never persisted. Breakdown slices are sorted (actors by name,
// days by date) so identical inputs always produce identical reports.
type Report struct {
	Window         ReportWindow           `json:"window"`
	GeneratedAt    time.Time              `json:"generated_at"`
	Inventory      CoinSnapshot           `json:"inventory"`
	ActionCounts   map[ActivityAction]int `json:"action_counts"`
	TotalActions   int                    `json:"total_actions"`
	UserBreakdown  []UserActivityStats    `json:"user_breakdown"`
	DailyBreakdown []DailyActivityStats   `json:"daily_breakdown"`
}
