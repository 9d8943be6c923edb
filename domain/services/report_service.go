package services

import (
	"sort"
	"time"

	"prosorter/domain/entities"
	"prosorter/domain/interfaces"
)

// reportService implements the ReportService interface. Aggregation is pure:
// given the same activities and window it produces an identical report
// regardless of input ordering.
type reportService struct {
	renderer interfaces.ReportRenderer
	location *time.Location
	now      func() time.Time
}

// NewReportService creates a report aggregator. Calendar-day grouping and
// the canned windows are computed in the given reference time zone.
func NewReportService(renderer interfaces.ReportRenderer, location *time.Location) interfaces.ReportService {
	if location == nil {
		location = time.Local
	}
	return &reportService{renderer: renderer, location: location, now: time.Now}
}

// BuildReport filters activities to the half-open window and aggregates
// per-action totals, a per-actor breakdown, and a per-day breakdown.
func (s *reportService) BuildReport(activities []*entities.ActivityEntry, snapshot entities.CoinSnapshot, window entities.ReportWindow) *entities.Report {
	report := &entities.Report{
		Window:       window,
		GeneratedAt:  s.now().In(s.location),
		Inventory:    snapshot,
		ActionCounts: make(map[entities.ActivityAction]int),
	}

	users := make(map[string]*entities.UserActivityStats)
	days := make(map[string]*entities.DailyActivityStats)
	dayActors := make(map[string]map[string]struct{})

	for _, activity := range activities {
		if activity == nil || !window.Contains(activity.Timestamp) {
			continue
		}

		report.TotalActions++
		report.ActionCounts[activity.Action]++

		user, ok := users[activity.Actor]
		if !ok {
			user = &entities.UserActivityStats{Actor: activity.Actor}
			users[activity.Actor] = user
		}
		user.TotalActions++
		// Strictly-after keeps equal timestamps from depending on input
		// order: a tie leaves the identical value in place.
		if activity.Timestamp.After(user.LastActivity) {
			user.LastActivity = activity.Timestamp
		}

		date := activity.Timestamp.In(s.location).Format("2006-01-02")
		day, ok := days[date]
		if !ok {
			day = &entities.DailyActivityStats{Date: date}
			days[date] = day
			dayActors[date] = make(map[string]struct{})
		}
		day.TotalActivities++
		dayActors[date][activity.Actor] = struct{}{}

		switch activity.Action {
		case entities.ActionLogin:
			user.Logins++
			day.Logins++
		case entities.ActionWithdrawal:
			user.Withdrawals++
			day.Withdrawals++
		}
	}

	report.UserBreakdown = make([]entities.UserActivityStats, 0, len(users))
	for _, user := range users {
		report.UserBreakdown = append(report.UserBreakdown, *user)
	}
	sort.Slice(report.UserBreakdown, func(i, j int) bool {
		return report.UserBreakdown[i].Actor < report.UserBreakdown[j].Actor
	})

	report.DailyBreakdown = make([]entities.DailyActivityStats, 0, len(days))
	for date, day := range days {
		day.UniqueUsers = len(dayActors[date])
		report.DailyBreakdown = append(report.DailyBreakdown, *day)
	}
	sort.Slice(report.DailyBreakdown, func(i, j int) bool {
		return report.DailyBreakdown[i].Date < report.DailyBreakdown[j].Date
	})

	return report
}

// Render turns a report into an export-ready artifact. Purely a
// presentation transform; all aggregation happens in BuildReport.
func (s *reportService) Render(report *entities.Report, format entities.ReportFormat) ([]byte, error) {
	return s.renderer.Render(report, format)
}

// Daily returns [midnight today, midnight tomorrow) in the reference zone.
func (s *reportService) Daily(now time.Time) entities.ReportWindow {
	now = now.In(s.location)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	return entities.ReportWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// Weekly returns [most recent Sunday midnight, +7 days).
func (s *reportService) Weekly(now time.Time) entities.ReportWindow {
	now = now.In(s.location)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	start = start.AddDate(0, 0, -int(start.Weekday()))
	return entities.ReportWindow{Start: start, End: start.AddDate(0, 0, 7)}
}

// Monthly returns [first of this month, first of next month).
func (s *reportService) Monthly(now time.Time) entities.ReportWindow {
	now = now.In(s.location)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location)
	return entities.ReportWindow{Start: start, End: start.AddDate(0, 1, 0)}
}
