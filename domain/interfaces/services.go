package interfaces

import (
	"context"
	"time"

	"prosorter/domain/entities"
	"prosorter/domain/events"
)

// LedgerService owns the coin inventory. All mutations go through its
// commit operations; concurrent commits are serialized against the backing
// store so no update is lost.
type LedgerService interface {
	// GetSnapshot returns the current counts and total. It is served from
	// the ledger's in-memory copy and never fails.
	GetSnapshot() entities.CoinSnapshot

	// CommitWithdrawal removes the requested coins, clamping each
	// denomination at zero, and returns the committed snapshot and the
	// value actually withdrawn.
	CommitWithdrawal(ctx context.Context, actor string, req entities.WithdrawalRequest) (entities.CoinSnapshot, int64, error)

	// CommitReset zeroes all counts and the total.
	CommitReset(ctx context.Context, actor string) (entities.CoinSnapshot, error)

	// NextEnrollmentID issues the next fingerprint enrollment ID. IDs are
	// consecutive and never reused, even under concurrent calls.
	NextEnrollmentID(ctx context.Context, actor string) (int64, error)

	// SnapshotBackup persists the current snapshot under a date-stamped key.
	SnapshotBackup(ctx context.Context) error
}

// Channel is a notification transport capable of delivering one message to
// one target. Unconfigured channels return entities.ErrChannelUnconfigured
// without making external calls.
type Channel interface {
	Kind() entities.ChannelKind
	Send(ctx context.Context, target, message string) error
}

// NotificationService evaluates ledger snapshots against the configured
// thresholds and fans alerts out to the enabled channels.
type NotificationService interface {
	// EvaluateAndAlert returns one alert per denomination below threshold,
	// with per-target send outcomes. Send failures never abort other sends.
	EvaluateAndAlert(ctx context.Context, snapshot entities.CoinSnapshot) []entities.Alert

	// Settings returns the active configuration.
	Settings() entities.AlertSettings

	// UpdateSettings atomically replaces the configuration and persists it.
	UpdateSettings(ctx context.Context, settings entities.AlertSettings) error

	// TestChannel sends a test message through one channel.
	TestChannel(ctx context.Context, kind entities.ChannelKind, target string) error
}

// DeviceClient mirrors ledger state to the physical sorting device.
type DeviceClient interface {
	// PushUpdate sends the snapshot to the device. Failures are logged by
	// the caller and never retried; the device re-syncs on its own cycle.
	PushUpdate(ctx context.Context, snapshot entities.CoinSnapshot) error

	// Enroll starts fingerprint enrollment for the given ID on the device.
	Enroll(ctx context.Context, fingerID int64) error
}

// ReportRenderer turns an aggregated report into an export-ready artifact.
type ReportRenderer interface {
	Render(report *entities.Report, format entities.ReportFormat) ([]byte, error)
}

// ReportService computes windowed statistics and renders them.
type ReportService interface {
	BuildReport(activities []*entities.ActivityEntry, snapshot entities.CoinSnapshot, window entities.ReportWindow) *entities.Report
	Render(report *entities.Report, format entities.ReportFormat) ([]byte, error)
	Daily(now time.Time) entities.ReportWindow
	Weekly(now time.Time) entities.ReportWindow
	Monthly(now time.Time) entities.ReportWindow
}

// EventPublisher delivers domain events to interested handlers. Publishing
// happens only after a successful commit and is best-effort.
type EventPublisher interface {
	Publish(event events.Event) error
}
