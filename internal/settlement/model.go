package settlement

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the status of a settlement or batch
type Status string

const (
	StatusSuggested Status = "suggested"
	StatusPaid      Status = "paid"
	StatusVoided    Status = "voided"
)

// Transfer is one computed (debtor, creditor, amount) triple before it is
// persisted as a Settlement row
type Transfer struct {
	From        uuid.UUID
	To          uuid.UUID
	AmountCents int64
}

// Batch is an immutable snapshot of computed transfers for a group at a
// point in time. Once created, its settlement set never changes; computing
// again always produces a new batch.
type Batch struct {
	ID               uuid.UUID     `json:"id"`
	GroupID          uuid.UUID     `json:"group_id"`
	Status           Status        `json:"status"`
	TotalSettlements int           `json:"total_settlements"`
	Version          int           `json:"version"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	VoidedReason     *string       `json:"voided_reason,omitempty"`
	Settlements      []*Settlement `json:"settlements"`
}

// Settlement is one directed transfer instruction within a batch: the
// debtor (FromMembership) pays the creditor (ToMembership)
type Settlement struct {
	ID             uuid.UUID `json:"id"`
	BatchID        uuid.UUID `json:"batch_id"`
	GroupID        uuid.UUID `json:"group_id"`
	FromMembership uuid.UUID `json:"from_membership"`
	ToMembership   uuid.UUID `json:"to_membership"`
	AmountCents    int64     `json:"amount_cents"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}
