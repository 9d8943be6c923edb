package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"prosorter/domain/entities"
	"prosorter/domain/events"
	"prosorter/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Store keys owned by the ledger. The enrollment counter is serialized
// independently of the coin state.
const (
	coinStateKey     = "coins"
	enrollCounterKey = "finger:id"
	backupKeyPrefix  = "backup:"
)

// ledgerService implements the LedgerService interface. It exclusively owns
// the in-memory snapshot; the key-value store is the durable source of
// truth, read at startup and written on every commit.
type ledgerService struct {
	store        interfaces.KeyValueStore
	activityRepo interfaces.ActivityRepository
	publisher    interfaces.EventPublisher
	now          func() time.Time

	// commitMu serializes the store write and the snapshot swap. Without
	// it, a commit that wins the store CAS first can still swap the cache
	// last and leave GetSnapshot serving the older state. The CAS alone
	// only guards cross-process writers.
	commitMu sync.Mutex

	mu       sync.RWMutex
	snapshot entities.CoinSnapshot
}

// NewLedgerService creates a ledger seeded from persisted state. A missing
// coin state key means a fresh install and yields an empty inventory.
func NewLedgerService(
	ctx context.Context,
	store interfaces.KeyValueStore,
	activityRepo interfaces.ActivityRepository,
	publisher interfaces.EventPublisher,
) (interfaces.LedgerService, error) {
	s := &ledgerService{
		store:        store,
		activityRepo: activityRepo,
		publisher:    publisher,
		now:          time.Now,
	}

	raw, err := store.Get(ctx, coinStateKey)
	if err != nil && err != entities.ErrKeyNotFound {
		return nil, fmt.Errorf("failed to load coin state: %w", err)
	}
	if raw != nil {
		snapshot, err := decodeSnapshot(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode persisted coin state: %w", err)
		}
		s.snapshot = snapshot
	}

	return s, nil
}

// GetSnapshot returns the ledger's in-memory copy of the committed state.
func (s *ledgerService) GetSnapshot() entities.CoinSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// CommitWithdrawal removes the requested coins atomically. Requests
// exceeding on-hand stock are clamped at zero rather than rejected, so the
// returned withdrawn value reflects only the coins actually removed.
func (s *ledgerService) CommitWithdrawal(ctx context.Context, actor string, req entities.WithdrawalRequest) (entities.CoinSnapshot, int64, error) {
	if err := req.Validate(); err != nil {
		return entities.CoinSnapshot{}, 0, fmt.Errorf("invalid withdrawal request: %w", err)
	}

	var committed entities.CoinSnapshot
	var withdrawn int64

	s.commitMu.Lock()
	err := s.store.Update(ctx, coinStateKey, func(old []byte) ([]byte, error) {
		current, err := currentOrEmpty(old)
		if err != nil {
			return nil, err
		}

		next := entities.CoinSnapshot{}
		withdrawn = 0
		for _, d := range entities.Denominations {
			have := current.Count(d)
			take := req.Count(d)
			if take > have {
				take = have
			}
			setCount(&next, d, have-take)
			withdrawn += take * int64(d)
		}
		next.TotalAmount = next.ComputedTotal()

		committed = next
		return json.Marshal(next)
	})
	if err != nil {
		s.commitMu.Unlock()
		return entities.CoinSnapshot{}, 0, err
	}

	s.applyCommit(committed)
	s.commitMu.Unlock()

	s.logActivity(ctx, actor, entities.ActionWithdrawal, map[string]any{
		"amount": withdrawn,
		"coins": map[string]int64{
			"coin1": req.Coin1, "coin2": req.Coin2, "coin5": req.Coin5, "coin10": req.Coin10,
		},
	})
	s.publishUpdate(actor, committed, withdrawn, false)

	return committed, withdrawn, nil
}

// CommitReset atomically zeroes all counts and the total.
func (s *ledgerService) CommitReset(ctx context.Context, actor string) (entities.CoinSnapshot, error) {
	zero := entities.CoinSnapshot{}

	s.commitMu.Lock()
	err := s.store.Update(ctx, coinStateKey, func([]byte) ([]byte, error) {
		return json.Marshal(zero)
	})
	if err != nil {
		s.commitMu.Unlock()
		return entities.CoinSnapshot{}, err
	}

	s.applyCommit(zero)
	s.commitMu.Unlock()

	s.logActivity(ctx, actor, entities.ActionReset, nil)
	s.publishUpdate(actor, zero, 0, true)

	return zero, nil
}

// NextEnrollmentID issues the next fingerprint ID via an atomic increment.
// IDs are consecutive with no gaps or duplicates; an ID is consumed even if
// the subsequent device enrollment fails.
func (s *ledgerService) NextEnrollmentID(ctx context.Context, actor string) (int64, error) {
	id, err := s.store.Increment(ctx, enrollCounterKey)
	if err != nil {
		return 0, fmt.Errorf("failed to increment enrollment counter: %w", err)
	}

	s.logActivity(ctx, actor, entities.ActionEnrollment, map[string]any{"finger_id": id})
	return id, nil
}

// SnapshotBackup writes the current snapshot under a date-stamped key.
func (s *ledgerService) SnapshotBackup(ctx context.Context) error {
	snapshot := s.GetSnapshot()
	now := s.now()

	payload, err := json.Marshal(map[string]any{
		"date":      now.Format("2006-01-02"),
		"coins":     snapshot,
		"timestamp": now,
	})
	if err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	key := backupKeyPrefix + now.Format("2006-01-02")
	if err := s.store.Put(ctx, key, payload); err != nil {
		return fmt.Errorf("failed to write backup %s: %w", key, err)
	}
	return nil
}

// applyCommit replaces the in-memory snapshot after the store accepted it.
func (s *ledgerService) applyCommit(snapshot entities.CoinSnapshot) {
	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()
}

// logActivity appends an audit entry. Append failures must not abort the
// committed business action, so they are logged and swallowed.
func (s *ledgerService) logActivity(ctx context.Context, actor string, action entities.ActivityAction, details map[string]any) {
	entry := &entities.ActivityEntry{
		Actor:     actor,
		Action:    action,
		Timestamp: s.now(),
		Details:   details,
	}
	if _, err := s.activityRepo.Append(ctx, entry); err != nil {
		logrus.WithFields(logrus.Fields{
			"actor":  actor,
			"action": action,
		}).WithError(err).Error("failed to append activity entry")
	}
}

// publishUpdate hands the committed snapshot to the async fan-out. Event
// delivery is best-effort after commit.
func (s *ledgerService) publishUpdate(actor string, snapshot entities.CoinSnapshot, withdrawn int64, reset bool) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(events.CoinsUpdatedEvent{
		Actor:          actor,
		Snapshot:       snapshot,
		WithdrawnValue: withdrawn,
		Reset:          reset,
	})
	if err != nil {
		logrus.WithError(err).Error("failed to publish coins updated event")
	}
}

func currentOrEmpty(raw []byte) (entities.CoinSnapshot, error) {
	if raw == nil {
		return entities.CoinSnapshot{}, nil
	}
	return decodeSnapshot(raw)
}

func decodeSnapshot(raw []byte) (entities.CoinSnapshot, error) {
	var snapshot entities.CoinSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return entities.CoinSnapshot{}, fmt.Errorf("malformed coin state: %w", err)
	}
	return snapshot, nil
}

func setCount(s *entities.CoinSnapshot, d entities.Denomination, count int64) {
	switch d {
	case entities.DenomOne:
		s.Coin1 = count
	case entities.DenomTwo:
		s.Coin2 = count
	case entities.DenomFive:
		s.Coin5 = count
	case entities.DenomTen:
		s.Coin10 = count
	}
}
