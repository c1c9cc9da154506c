package activity

import (
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the other features
const (
	EventExpenseCreated = "expense.created"
	EventBatchComputed  = "settlement.batch_computed"
	EventSettlementPaid = "settlement.marked_paid"
)

// Event is one append-only activity log entry for a group
type Event struct {
	ID              uuid.UUID `json:"id"`
	GroupID         uuid.UUID `json:"group_id"`
	ActorMembership uuid.UUID `json:"actor_membership"`
	EventType       string    `json:"event_type"`
	SubjectID       uuid.UUID `json:"subject_id"`
	CreatedAt       time.Time `json:"created_at"`
}
