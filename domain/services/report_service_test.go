package services

import (
	"math/rand"
	"testing"
	"time"

	"prosorter/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReportService(t *testing.T) *reportService {
	t.Helper()
	return NewReportService(nil, time.UTC).(*reportService)
}

func activityAt(actor string, action entities.ActivityAction, ts string) *entities.ActivityEntry {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return &entities.ActivityEntry{Actor: actor, Action: action, Timestamp: parsed}
}

func TestReportService_CannedWindows(t *testing.T) {
	t.Parallel()

	svc := newTestReportService(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) // a Friday

	tests := []struct {
		name      string
		window    entities.ReportWindow
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "daily",
			window:    svc.Daily(now),
			wantStart: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "weekly starts on sunday",
			window:    svc.Weekly(now),
			wantStart: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "monthly",
			window:    svc.Monthly(now),
			wantStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantStart, tt.window.Start)
			assert.Equal(t, tt.wantEnd, tt.window.End)
		})
	}
}

func TestReportService_BuildReport(t *testing.T) {
	t.Parallel()

	svc := newTestReportService(t)
	window := entities.ReportWindow{
		Start: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
	}

	activities := []*entities.ActivityEntry{
		activityAt("alice", entities.ActionLogin, "2024-03-10T08:00:00Z"),
		activityAt("alice", entities.ActionWithdrawal, "2024-03-10T08:05:00Z"),
		activityAt("bob", entities.ActionLogin, "2024-03-10T09:00:00Z"),
		activityAt("alice", entities.ActionLogout, "2024-03-11T17:00:00Z"),
		activityAt("bob", entities.ActionWithdrawal, "2024-03-11T12:00:00Z"),
		// Outside the window: start is inclusive, end is exclusive.
		activityAt("carol", entities.ActionLogin, "2024-03-09T23:59:59Z"),
		activityAt("carol", entities.ActionLogin, "2024-03-12T00:00:00Z"),
	}

	snapshot := entities.CoinSnapshot{Coin1: 10, Coin5: 2, TotalAmount: 20}
	report := svc.BuildReport(activities, snapshot, window)

	assert.Equal(t, 5, report.TotalActions)
	assert.Equal(t, 2, report.ActionCounts[entities.ActionLogin])
	assert.Equal(t, 2, report.ActionCounts[entities.ActionWithdrawal])
	assert.Equal(t, 1, report.ActionCounts[entities.ActionLogout])
	assert.Equal(t, snapshot, report.Inventory)

	require.Len(t, report.UserBreakdown, 2)
	alice, bob := report.UserBreakdown[0], report.UserBreakdown[1]
	assert.Equal(t, "alice", alice.Actor)
	assert.Equal(t, 3, alice.TotalActions)
	assert.Equal(t, 1, alice.Logins)
	assert.Equal(t, 1, alice.Withdrawals)
	assert.Equal(t, time.Date(2024, 3, 11, 17, 0, 0, 0, time.UTC), alice.LastActivity)
	assert.Equal(t, "bob", bob.Actor)
	assert.Equal(t, 2, bob.TotalActions)

	require.Len(t, report.DailyBreakdown, 2)
	day1, day2 := report.DailyBreakdown[0], report.DailyBreakdown[1]
	assert.Equal(t, "2024-03-10", day1.Date)
	assert.Equal(t, 3, day1.TotalActivities)
	assert.Equal(t, 2, day1.Logins)
	assert.Equal(t, 1, day1.Withdrawals)
	assert.Equal(t, 2, day1.UniqueUsers)
	assert.Equal(t, "2024-03-11", day2.Date)
	assert.Equal(t, 2, day2.TotalActivities)
	assert.Equal(t, 2, day2.UniqueUsers)
}

func TestReportService_BuildReport_Deterministic(t *testing.T) {
	t.Parallel()

	svc := newTestReportService(t)
	window := entities.ReportWindow{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	actors := []string{"alice", "bob", "carol", "dave"}
	actions := []entities.ActivityAction{
		entities.ActionLogin, entities.ActionWithdrawal, entities.ActionLogout, entities.ActionReset,
	}

	rng := rand.New(rand.NewSource(42))
	activities := make([]*entities.ActivityEntry, 0, 200)
	for i := 0; i < 200; i++ {
		activities = append(activities, &entities.ActivityEntry{
			Actor:     actors[rng.Intn(len(actors))],
			Action:    actions[rng.Intn(len(actions))],
			Timestamp: window.Start.Add(time.Duration(rng.Intn(31*24)) * time.Hour),
		})
	}

	// Pin the clock so GeneratedAt cannot differ between builds and the
	// reports can be compared whole.
	generated := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return generated }

	snapshot := entities.CoinSnapshot{Coin2: 50, TotalAmount: 100}
	baseline := svc.BuildReport(activities, snapshot, window)
	assert.Equal(t, generated, baseline.GeneratedAt)

	shuffled := make([]*entities.ActivityEntry, len(activities))
	copy(shuffled, activities)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	got := svc.BuildReport(shuffled, snapshot, window)
	assert.Equal(t, baseline, got)
}

func TestReportService_LastActivityIgnoresTimestampTieOrder(t *testing.T) {
	t.Parallel()

	svc := newTestReportService(t)
	svc.now = func() time.Time { return time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC) }
	window := entities.ReportWindow{
		Start: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
	}

	login := activityAt("alice", entities.ActionLogin, "2024-03-10T08:00:00Z")
	logout := activityAt("alice", entities.ActionLogout, "2024-03-10T08:00:00Z")

	forward := svc.BuildReport([]*entities.ActivityEntry{login, logout}, entities.CoinSnapshot{}, window)
	backward := svc.BuildReport([]*entities.ActivityEntry{logout, login}, entities.CoinSnapshot{}, window)

	assert.Equal(t, forward, backward)
	require.Len(t, forward.UserBreakdown, 1)
	assert.Equal(t, login.Timestamp, forward.UserBreakdown[0].LastActivity)
}

func TestReportService_DayGroupingUsesReferenceZone(t *testing.T) {
	t.Parallel()

	colombo, err := time.LoadLocation("Asia/Colombo")
	require.NoError(t, err)
	svc := NewReportService(nil, colombo).(*reportService)

	window := entities.ReportWindow{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	// 20:00 UTC on March 10 is already March 11 in Colombo (UTC+5:30).
	report := svc.BuildReport([]*entities.ActivityEntry{
		activityAt("alice", entities.ActionLogin, "2024-03-10T20:00:00Z"),
	}, entities.CoinSnapshot{}, window)

	require.Len(t, report.DailyBreakdown, 1)
	assert.Equal(t, "2024-03-11", report.DailyBreakdown[0].Date)
}

func TestReportService_EmptyWindow(t *testing.T) {
	t.Parallel()

	svc := newTestReportService(t)
	report := svc.BuildReport(nil, entities.CoinSnapshot{}, entities.ReportWindow{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	})

	assert.Zero(t, report.TotalActions)
	assert.Empty(t, report.UserBreakdown)
	assert.Empty(t, report.DailyBreakdown)
	assert.Empty(t, report.ActionCounts)
}
