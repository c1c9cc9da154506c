package activity

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository handles activity log persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new activity repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create appends an event to the activity log
func (r *Repository) Create(ctx context.Context, groupID, actorMembership uuid.UUID, eventType string, subjectID uuid.UUID) (*Event, error) {
	query := `
		INSERT INTO activity_log (group_id, actor_membership, event_type, subject_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, group_id, actor_membership, event_type, subject_id, created_at
	`

	event := &Event{}
	err := r.db.QueryRowContext(ctx, query, groupID, actorMembership, eventType, subjectID).Scan(
		&event.ID,
		&event.GroupID,
		&event.ActorMembership,
		&event.EventType,
		&event.SubjectID,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity event: %w", err)
	}

	return event, nil
}

// ListByGroupID retrieves activity events for a group, newest first
func (r *Repository) ListByGroupID(ctx context.Context, groupID uuid.UUID, limit int) ([]*Event, error) {
	query := `
		SELECT id, group_id, actor_membership, event_type, subject_id, created_at
		FROM activity_log
		WHERE group_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.GroupID, &e.ActorMembership, &e.EventType, &e.SubjectID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
