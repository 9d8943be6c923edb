package entities

import "time"

// ActivityAction identifies the kind of operator action being recorded.
type ActivityAction string

const (
	ActionLogin             ActivityAction = "login"
	ActionLogout            ActivityAction = "logout"
	ActionFailedLogin       ActivityAction = "failed_login"
	ActionWithdrawal        ActivityAction = "coin_withdrawal"
	ActionReset             ActivityAction = "system_reset"
	ActionEnrollment        ActivityAction = "fingerprint_enrollment"
	ActionSettingsChange    ActivityAction = "notification_settings_update"
	ActionReportExport      ActivityAction = "report_export"
	ActionReportDelete      ActivityAction = "report_delete"
	ActionActivitiesCleared ActivityAction = "activities_cleared"
)

// ActivityEntry is a single row of the append-only audit trail. Entries are
// immutable once appended.
type ActivityEntry struct {
	ID        int64          `json:"id"`
	Actor     string         `json:"actor"`
	Action    ActivityAction `json:"action"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// ActivityFilter narrows an activity query. Zero values mean "no filter";
// a zero Limit returns all matching rows.
type ActivityFilter struct {
	Actor      string
	Action     ActivityAction
	SearchText string
	From       time.Time
	To         time.Time
	Limit      int
}
