package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/obadran/settleup/internal/activity"
)

var (
	ErrNoMemberships       = errors.New("group has no memberships")
	ErrNoBatches           = errors.New("no settlement batches exist for group")
	ErrBatchNotFound       = errors.New("settlement batch not found")
	ErrSettlementNotFound  = errors.New("settlement not found")
	ErrNotGroupMember      = errors.New("user is not a member of the group")
	ErrNotDebtor           = errors.New("only the debtor can mark a settlement paid")
	ErrInvalidStatusChange = errors.New("settlement status does not allow this change")
	ErrUnbalancedLedger    = errors.New("group balances do not sum to zero")
)

// ActivityRecorder records group events. Recording is best-effort; failures
// never fail the operation that triggered them.
type ActivityRecorder interface {
	Record(ctx context.Context, groupID, actorMembership uuid.UUID, eventType string, subjectID uuid.UUID)
}

// Service handles settlement business logic
type Service struct {
	store    Store
	activity ActivityRecorder
}

// NewService creates a new settlement service with dependencies injected
func NewService(store Store, activity ActivityRecorder) *Service {
	return &Service{
		store:    store,
		activity: activity,
	}
}

// Compute derives current balances from the group's full expense history,
// minimizes them into transfers and persists the result as a new immutable
// batch. Earlier batches are never modified; callers always get a fresh one,
// even when the group is already settled and the batch is empty.
func (s *Service) Compute(ctx context.Context, groupID, userID uuid.UUID) (*Batch, error) {
	actor, err := s.requireMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	// Ledger reads and the batch write share one transaction, so the batch
	// always reflects a consistent expense snapshot.
	batch, err := s.store.ComputeBatch(ctx, groupID, func(ledger Ledger) ([]Transfer, error) {
		if len(ledger.MemberIDs) == 0 {
			return nil, ErrNoMemberships
		}

		balances := Balances(ledger.MemberIDs, ledger.Paid, ledger.Owed)

		var sum int64
		for _, b := range balances {
			sum += b
		}
		if sum != 0 {
			// Splits are constrained to sum to their expense amount, so a
			// non-zero total means corrupted data. Refuse to persist anything.
			return nil, fmt.Errorf("%w: sum is %d cents", ErrUnbalancedLedger, sum)
		}

		return MinimizeTransfers(balances), nil
	})
	if err != nil {
		return nil, err
	}

	batchesComputed.Inc()
	settlementsSuggested.Add(float64(len(batch.Settlements)))
	slog.Info("computed settlement batch",
		"group_id", groupID,
		"batch_id", batch.ID,
		"settlements", len(batch.Settlements),
	)
	s.activity.Record(ctx, groupID, actor, activity.EventBatchComputed, batch.ID)

	return batch, nil
}

// Latest returns the most recent batch for the group
func (s *Service) Latest(ctx context.Context, groupID, userID uuid.UUID) (*Batch, error) {
	if _, err := s.requireMembership(ctx, groupID, userID); err != nil {
		return nil, err
	}

	batch, err := s.store.LatestBatch(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, ErrNoBatches
	}

	return batch, nil
}

// GetBatch returns a batch by id with its settlements, in their persisted
// order. The requester must be a member of the batch's group.
func (s *Service) GetBatch(ctx context.Context, batchID, userID uuid.UUID) (*Batch, error) {
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, ErrBatchNotFound
	}

	if _, err := s.requireMembership(ctx, batch.GroupID, userID); err != nil {
		return nil, err
	}

	return batch, nil
}

// MarkPaid transitions a settlement from suggested to paid on behalf of its
// debtor. Marking an already-paid settlement again succeeds without effect;
// any other starting status is rejected.
func (s *Service) MarkPaid(ctx context.Context, settlementID, userID uuid.UUID) (*Settlement, error) {
	settlement, err := s.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}

	membership, err := s.store.MembershipForUser(ctx, settlement.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if membership == uuid.Nil {
		return nil, ErrNotGroupMember
	}
	if membership != settlement.FromMembership {
		return nil, ErrNotDebtor
	}

	if settlement.Status == StatusPaid {
		return settlement, nil
	}
	if settlement.Status != StatusSuggested {
		return nil, fmt.Errorf("%w: settlement is %s", ErrInvalidStatusChange, settlement.Status)
	}

	updated, didUpdate, err := s.store.MarkSettlementPaid(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrSettlementNotFound
	}
	if !didUpdate {
		// Lost a race. Paid is the idempotent outcome we wanted anyway;
		// anything else means the row left suggested under us.
		if updated.Status == StatusPaid {
			return updated, nil
		}
		return nil, fmt.Errorf("%w: settlement is %s", ErrInvalidStatusChange, updated.Status)
	}

	settlementsPaid.Inc()
	slog.Info("settlement marked paid",
		"settlement_id", updated.ID,
		"group_id", updated.GroupID,
		"amount_cents", updated.AmountCents,
	)
	s.activity.Record(ctx, updated.GroupID, membership, activity.EventSettlementPaid, updated.ID)

	return updated, nil
}

func (s *Service) requireMembership(ctx context.Context, groupID, userID uuid.UUID) (uuid.UUID, error) {
	membership, err := s.store.MembershipForUser(ctx, groupID, userID)
	if err != nil {
		return uuid.Nil, err
	}
	if membership == uuid.Nil {
		return uuid.Nil, ErrNotGroupMember
	}
	return membership, nil
}
