package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"prosorter/database"
	"prosorter/domain/entities"
	"prosorter/domain/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryable abstracts over a pool or transaction
type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ActivityRepository implements the append-only audit trail on Postgres.
type ActivityRepository struct {
	q queryable
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{q: db.Pool}
}

var _ interfaces.ActivityRepository = (*ActivityRepository)(nil)

// Append records one audit entry and returns its assigned ID.
func (r *ActivityRepository) Append(ctx context.Context, entry *entities.ActivityEntry) (int64, error) {
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal activity details: %w", err)
	}

	query := `
		INSERT INTO activities (actor, action, details, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err = r.q.QueryRow(ctx, query,
		entry.Actor,
		entry.Action,
		detailsJSON,
		entry.Timestamp,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append activity for %s: %w", entry.Actor, err)
	}

	entry.ID = id
	return id, nil
}

// Query returns matching entries newest first (created_at desc, id desc on
// ties). A zero-limit filter returns all matching rows.
func (r *ActivityRepository) Query(ctx context.Context, filter entities.ActivityFilter) ([]*entities.ActivityEntry, error) {
	var conditions []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Actor != "" {
		conditions = append(conditions, "actor = "+arg(filter.Actor))
	}
	if filter.Action != "" {
		conditions = append(conditions, "action = "+arg(string(filter.Action)))
	}
	if filter.SearchText != "" {
		p := arg("%" + filter.SearchText + "%")
		conditions = append(conditions, fmt.Sprintf("(actor ILIKE %s OR action ILIKE %s OR details::text ILIKE %s)", p, p, p))
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "created_at >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "created_at < "+arg(filter.To))
	}

	query := "SELECT id, actor, action, details, created_at FROM activities"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []*entities.ActivityEntry
	for rows.Next() {
		var entry entities.ActivityEntry
		var detailsJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.Actor,
			&entry.Action,
			&detailsJSON,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}

		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal activity details: %w", err)
			}
		}
		if len(entry.Details) == 0 {
			entry.Details = nil
		}

		activities = append(activities, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	return activities, nil
}

// Clear deletes all entries and returns the number removed.
func (r *ActivityRepository) Clear(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, "DELETE FROM activities")
	if err != nil {
		return 0, fmt.Errorf("failed to clear activities: %w", err)
	}
	return tag.RowsAffected(), nil
}
