package idempotency

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is a stored response for a deduplicated request. The body is the
// exact JSON the first request produced, replayed verbatim on retries.
type Record struct {
	Endpoint     string    `json:"endpoint"`
	UserID       uuid.UUID `json:"user_id"`
	RequestHash  string    `json:"request_hash"`
	StatusCode   int       `json:"status_code"`
	ResponseBody []byte    `json:"response_body"`
	CreatedAt    time.Time `json:"created_at"`
}

// Cache stores responses keyed by (endpoint, user, request hash).
type Cache interface {
	// Lookup returns the stored record, or nil on a miss.
	Lookup(ctx context.Context, endpoint string, userID uuid.UUID, requestHash string) (*Record, error)

	// Store persists the record. Storing the same key twice keeps the
	// first record.
	Store(ctx context.Context, record *Record) error
}
