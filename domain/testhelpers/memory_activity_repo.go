package testhelpers

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"prosorter/domain/entities"
)

// MemoryActivityRepo is an in-memory ActivityRepository for tests that need
// real query behavior rather than canned mock returns.
type MemoryActivityRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []*entities.ActivityEntry
}

func NewMemoryActivityRepo() *MemoryActivityRepo {
	return &MemoryActivityRepo{nextID: 1}
}

func (r *MemoryActivityRepo) Append(ctx context.Context, entry *entities.ActivityEntry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *entry
	stored.ID = r.nextID
	r.nextID++
	r.entries = append(r.entries, &stored)
	entry.ID = stored.ID
	return stored.ID, nil
}

func (r *MemoryActivityRepo) Query(ctx context.Context, filter entities.ActivityFilter) ([]*entities.ActivityEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*entities.ActivityEntry
	for _, entry := range r.entries {
		if filter.Actor != "" && entry.Actor != filter.Actor {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.SearchText != "" && !matchesSearch(entry, filter.SearchText) {
			continue
		}
		if !filter.From.IsZero() && entry.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !entry.Timestamp.Before(filter.To) {
			continue
		}
		copied := *entry
		matched = append(matched, &copied)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID > matched[j].ID
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *MemoryActivityRepo) Clear(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := int64(len(r.entries))
	r.entries = nil
	return removed, nil
}

func matchesSearch(entry *entities.ActivityEntry, needle string) bool {
	needle = strings.ToLower(needle)
	if strings.Contains(strings.ToLower(entry.Actor), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(string(entry.Action)), needle) {
		return true
	}
	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)
		if err == nil && strings.Contains(strings.ToLower(string(raw)), needle) {
			return true
		}
	}
	return false
}
