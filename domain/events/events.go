package events

import "prosorter/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeCoinsUpdated EventType = "coins_updated"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// CoinsUpdatedEvent is published after every successful ledger commit
// (withdrawal or reset). Snapshot is the committed state.
type CoinsUpdatedEvent struct {
	Actor          string
	Snapshot       entities.CoinSnapshot
	WithdrawnValue int64
	Reset          bool
}

func (e CoinsUpdatedEvent) Type() EventType {
	return EventTypeCoinsUpdated
}
