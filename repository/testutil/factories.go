package testutil

import (
	"time"

	"prosorter/domain/entities"
)

// CreateTestActivity creates an audit entry with default values
func CreateTestActivity(actor string, action entities.ActivityAction) *entities.ActivityEntry {
	return &entities.ActivityEntry{
		Actor:     actor,
		Action:    action,
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// CreateTestActivityAt creates an audit entry with a specific timestamp
func CreateTestActivityAt(actor string, action entities.ActivityAction, at time.Time) *entities.ActivityEntry {
	entry := CreateTestActivity(actor, action)
	entry.Timestamp = at
	return entry
}

// CreateTestWithdrawal creates a coin withdrawal entry with detail metadata
func CreateTestWithdrawal(actor string, withdrawnValue int64) *entities.ActivityEntry {
	entry := CreateTestActivity(actor, entities.ActionWithdrawal)
	entry.Details = map[string]any{
		"withdrawn_value": withdrawnValue,
	}
	return entry
}
