package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryCache is an in-process Cache for tests and single-instance
// deployments without postgres or redis at hand.
type MemoryCache struct {
	mu      sync.RWMutex
	records map[memoryKey]*Record
}

type memoryKey struct {
	endpoint    string
	userID      uuid.UUID
	requestHash string
}

// NewMemoryCache creates a new in-memory idempotency cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{records: make(map[memoryKey]*Record)}
}

var _ Cache = (*MemoryCache)(nil)

// Lookup returns the stored record for the key, or nil on a miss
func (c *MemoryCache) Lookup(_ context.Context, endpoint string, userID uuid.UUID, requestHash string) (*Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, ok := c.records[memoryKey{endpoint, userID, requestHash}]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

// Store persists the record, keeping the first one when the key exists
func (c *MemoryCache) Store(_ context.Context, record *Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := memoryKey{record.Endpoint, record.UserID, record.RequestHash}
	if _, ok := c.records[key]; ok {
		return nil
	}

	copied := *record
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	c.records[key] = &copied
	return nil
}
