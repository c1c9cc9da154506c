package settlement

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository is the postgres implementation of Store
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// querier is the query surface shared by *sql.DB and *sql.Tx
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MembershipForUser returns the user's membership id in the group, if any
func (r *Repository) MembershipForUser(ctx context.Context, groupID, userID uuid.UUID) (uuid.UUID, error) {
	query := `
		SELECT id
		FROM memberships
		WHERE group_id = $1 AND user_id = $2
	`

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("failed to get membership for user: %w", err)
	}

	return id, nil
}

// ComputeBatch reads the ledger and persists the batch fn derives from it in
// one repeatable-read transaction. Repeatable read pins a single snapshot, so
// the membership, paid and owed reads cannot interleave with a committing
// expense, and an error from fn rolls the whole thing back.
func (r *Repository) ComputeBatch(ctx context.Context, groupID uuid.UUID, fn func(Ledger) ([]Transfer, error)) (*Batch, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ledger := Ledger{}
	ledger.MemberIDs, err = membershipIDs(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	ledger.Paid, err = queryTotals(ctx, tx, `
		SELECT paid_by, COALESCE(SUM(amount_cents), 0)
		FROM expenses
		WHERE group_id = $1
		GROUP BY paid_by
	`, groupID, "paid totals")
	if err != nil {
		return nil, err
	}
	ledger.Owed, err = queryTotals(ctx, tx, `
		SELECT membership_id, COALESCE(SUM(share_cents), 0)
		FROM expense_splits
		WHERE group_id = $1
		GROUP BY membership_id
	`, groupID, "owed totals")
	if err != nil {
		return nil, err
	}

	transfers, err := fn(ledger)
	if err != nil {
		return nil, err
	}

	batch := &Batch{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO settlement_batches (group_id, status, total_settlements)
		VALUES ($1, $2, $3)
		RETURNING id, group_id, status, total_settlements, version, created_at, updated_at, voided_reason
	`, groupID, StatusSuggested, len(transfers)).Scan(
		&batch.ID,
		&batch.GroupID,
		&batch.Status,
		&batch.TotalSettlements,
		&batch.Version,
		&batch.CreatedAt,
		&batch.UpdatedAt,
		&batch.VoidedReason,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	for _, t := range transfers {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO settlements (batch_id, group_id, from_membership, to_membership, amount_cents, status)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, batch.ID, groupID, t.From, t.To, t.AmountCents, StatusSuggested)
		if err != nil {
			return nil, fmt.Errorf("failed to create settlement: %w", err)
		}
	}

	batch.Settlements, err = settlementsForBatch(ctx, tx, batch.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch creation: %w", err)
	}

	return batch, nil
}

// membershipIDs returns every membership id of the group
func membershipIDs(ctx context.Context, q querier, groupID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM memberships
		WHERE group_id = $1
		ORDER BY id
	`

	rows, err := q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list membership ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan membership id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func queryTotals(ctx context.Context, q querier, query string, groupID uuid.UUID, what string) (map[uuid.UUID]int64, error) {
	rows, err := q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	defer rows.Close()

	totals := make(map[uuid.UUID]int64)
	for rows.Next() {
		var id uuid.UUID
		var total int64
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		totals[id] = total
	}

	return totals, rows.Err()
}

// LatestBatch returns the most recent batch for the group with settlements
func (r *Repository) LatestBatch(ctx context.Context, groupID uuid.UUID) (*Batch, error) {
	query := `
		SELECT id, group_id, status, total_settlements, version, created_at, updated_at, voided_reason
		FROM settlement_batches
		WHERE group_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	batch, err := r.scanBatch(r.db.QueryRowContext(ctx, query, groupID))
	if err != nil || batch == nil {
		return batch, err
	}

	batch.Settlements, err = settlementsForBatch(ctx, r.db, batch.ID)
	if err != nil {
		return nil, err
	}

	return batch, nil
}

// GetBatch returns a batch by id with settlements
func (r *Repository) GetBatch(ctx context.Context, batchID uuid.UUID) (*Batch, error) {
	query := `
		SELECT id, group_id, status, total_settlements, version, created_at, updated_at, voided_reason
		FROM settlement_batches
		WHERE id = $1
	`

	batch, err := r.scanBatch(r.db.QueryRowContext(ctx, query, batchID))
	if err != nil || batch == nil {
		return batch, err
	}

	batch.Settlements, err = settlementsForBatch(ctx, r.db, batch.ID)
	if err != nil {
		return nil, err
	}

	return batch, nil
}

func (r *Repository) scanBatch(row *sql.Row) (*Batch, error) {
	batch := &Batch{}
	err := row.Scan(
		&batch.ID,
		&batch.GroupID,
		&batch.Status,
		&batch.TotalSettlements,
		&batch.Version,
		&batch.CreatedAt,
		&batch.UpdatedAt,
		&batch.VoidedReason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return batch, nil
}

// settlementsForBatch reads a batch's settlements in the authoritative
// client-visible order
func settlementsForBatch(ctx context.Context, q querier, batchID uuid.UUID) ([]*Settlement, error) {
	query := `
		SELECT id, batch_id, group_id, from_membership, to_membership, amount_cents, status, created_at
		FROM settlements
		WHERE batch_id = $1
		ORDER BY from_membership, to_membership, amount_cents, id
	`

	rows, err := q.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*Settlement
	for rows.Next() {
		s := &Settlement{}
		if err := rows.Scan(
			&s.ID, &s.BatchID, &s.GroupID, &s.FromMembership, &s.ToMembership,
			&s.AmountCents, &s.Status, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}

	return settlements, rows.Err()
}

// GetSettlement returns a settlement by id
func (r *Repository) GetSettlement(ctx context.Context, settlementID uuid.UUID) (*Settlement, error) {
	query := `
		SELECT id, batch_id, group_id, from_membership, to_membership, amount_cents, status, created_at
		FROM settlements
		WHERE id = $1
	`

	s := &Settlement{}
	err := r.db.QueryRowContext(ctx, query, settlementID).Scan(
		&s.ID, &s.BatchID, &s.GroupID, &s.FromMembership, &s.ToMembership,
		&s.AmountCents, &s.Status, &s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return s, nil
}

// MarkSettlementPaid performs the conditional suggested -> paid transition.
// The WHERE clause makes concurrent callers serialize on the row lock: only
// one of them updates, the rest observe updated == false and the current row.
func (r *Repository) MarkSettlementPaid(ctx context.Context, settlementID uuid.UUID) (*Settlement, bool, error) {
	query := `
		UPDATE settlements
		SET status = $2
		WHERE id = $1 AND status = $3
		RETURNING id, batch_id, group_id, from_membership, to_membership, amount_cents, status, created_at
	`

	s := &Settlement{}
	err := r.db.QueryRowContext(ctx, query, settlementID, StatusPaid, StatusSuggested).Scan(
		&s.ID, &s.BatchID, &s.GroupID, &s.FromMembership, &s.ToMembership,
		&s.AmountCents, &s.Status, &s.CreatedAt,
	)
	if err == nil {
		return s, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("failed to mark settlement paid: %w", err)
	}

	// No row matched: either the settlement does not exist or it already
	// left the suggested state. Re-read and let the service decide.
	current, err := r.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}
