package idempotency

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository is the postgres implementation of Cache, backed by the
// idempotency_keys table and its unique (endpoint, user_id, request_hash)
// constraint.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new idempotency repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Cache = (*Repository)(nil)

// Lookup returns the stored record for the key, or nil on a miss
func (r *Repository) Lookup(ctx context.Context, endpoint string, userID uuid.UUID, requestHash string) (*Record, error) {
	query := `
		SELECT endpoint, user_id, request_hash, status_code, response_body, created_at
		FROM idempotency_keys
		WHERE endpoint = $1 AND user_id = $2 AND request_hash = $3
	`

	record := &Record{}
	err := r.db.QueryRowContext(ctx, query, endpoint, userID, requestHash).Scan(
		&record.Endpoint,
		&record.UserID,
		&record.RequestHash,
		&record.StatusCode,
		&record.ResponseBody,
		&record.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lookup idempotency key: %w", err)
	}

	return record, nil
}

// Store persists the record, keeping the first one on conflict
func (r *Repository) Store(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO idempotency_keys (endpoint, user_id, request_hash, status_code, response_body)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (endpoint, user_id, request_hash) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		record.Endpoint, record.UserID, record.RequestHash,
		record.StatusCode, record.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}

	return nil
}
