package settlement

import (
	"context"

	"github.com/google/uuid"
)

// Ledger is a snapshot of a group's ledger: every membership id of the
// group plus the paid/owed totals per membership, all read within one
// transaction. Memberships with no activity are present in MemberIDs but
// absent from the total maps.
type Ledger struct {
	MemberIDs []uuid.UUID
	Paid      map[uuid.UUID]int64
	Owed      map[uuid.UUID]int64
}

// Store defines the persistence operations the settlement service needs.
// The postgres Repository is the production implementation; tests use an
// in-memory one.
type Store interface {
	// MembershipForUser returns the membership id of the user in the group,
	// or (uuid.Nil, nil) if the user is not a member.
	MembershipForUser(ctx context.Context, groupID, userID uuid.UUID) (uuid.UUID, error)

	// ComputeBatch reads the group's ledger and persists the transfers fn
	// derives from it as a new batch, all inside a single transaction: the
	// ledger snapshot and the batch write are consistent with each other,
	// and an error from fn rolls everything back with nothing persisted.
	// The batch and its settlement rows are created with status suggested;
	// the returned batch carries its settlements sorted by
	// (from_membership, to_membership, amount_cents, id) ascending.
	ComputeBatch(ctx context.Context, groupID uuid.UUID, fn func(Ledger) ([]Transfer, error)) (*Batch, error)

	// LatestBatch returns the most recently created batch for the group with
	// its settlements attached (same ordering as ComputeBatch), or nil if no
	// batch exists.
	LatestBatch(ctx context.Context, groupID uuid.UUID) (*Batch, error)

	// GetBatch returns a batch by id with its settlements attached, or nil
	// if it does not exist.
	GetBatch(ctx context.Context, batchID uuid.UUID) (*Batch, error)

	// GetSettlement returns a settlement by id, or nil if it does not exist.
	GetSettlement(ctx context.Context, settlementID uuid.UUID) (*Settlement, error)

	// MarkSettlementPaid transitions the settlement to paid only if it is
	// currently suggested, returning the row after the attempt and whether
	// this call performed the transition. Concurrent callers serialize on
	// the row: exactly one observes updated == true.
	MarkSettlementPaid(ctx context.Context, settlementID uuid.UUID) (*Settlement, bool, error)
}
