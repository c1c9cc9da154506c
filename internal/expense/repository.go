package expense

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/obadran/settleup/internal/expense/split"
)

// Repository handles expense data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithSplits inserts an expense and all of its splits in one
// transaction. Before committing it re-checks that the shares sum to the
// expense amount; a mismatch rolls the whole write back. The database carries
// the same check as a deferred trigger.
func (r *Repository) CreateWithSplits(
	ctx context.Context,
	groupID uuid.UUID,
	title string,
	amountCents int64,
	currency string,
	paidBy uuid.UUID,
	expenseDate time.Time,
	memo *string,
	shares []split.Output,
) (*ExpenseWithSplits, error) {
	var total int64
	for _, s := range shares {
		total += s.ShareCents
	}
	if total != amountCents {
		return nil, fmt.Errorf("splits total %d does not equal expense amount %d", total, amountCents)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expense := &Expense{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO expenses (group_id, title, amount_cents, currency, paid_by, expense_date, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, group_id, title, amount_cents, currency, paid_by, expense_date, memo, version, created_at, updated_at
	`, groupID, title, amountCents, currency, paidBy, expenseDate, memo).Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.Title,
		&expense.AmountCents,
		&expense.Currency,
		&expense.PaidBy,
		&expense.ExpenseDate,
		&expense.Memo,
		&expense.Version,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	splits := make([]*Split, len(shares))
	for i, share := range shares {
		s := &Split{}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO expense_splits (expense_id, group_id, membership_id, share_cents)
			VALUES ($1, $2, $3, $4)
			RETURNING id, expense_id, group_id, membership_id, share_cents, created_at
		`, expense.ID, groupID, share.MembershipID, share.ShareCents).Scan(
			&s.ID, &s.ExpenseID, &s.GroupID, &s.MembershipID, &s.ShareCents, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create split: %w", err)
		}
		splits[i] = s
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense creation: %w", err)
	}

	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

// GetByID retrieves an expense by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Expense, error) {
	query := `
		SELECT id, group_id, title, amount_cents, currency, paid_by, expense_date, memo, version, created_at, updated_at
		FROM expenses
		WHERE id = $1
	`

	expense := &Expense{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.Title,
		&expense.AmountCents,
		&expense.Currency,
		&expense.PaidBy,
		&expense.ExpenseDate,
		&expense.Memo,
		&expense.Version,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// GetSplitsByExpenseID retrieves the splits of an expense
func (r *Repository) GetSplitsByExpenseID(ctx context.Context, expenseID uuid.UUID) ([]*Split, error) {
	query := `
		SELECT id, expense_id, group_id, membership_id, share_cents, created_at
		FROM expense_splits
		WHERE expense_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	var splits []*Split
	for rows.Next() {
		s := &Split{}
		if err := rows.Scan(&s.ID, &s.ExpenseID, &s.GroupID, &s.MembershipID, &s.ShareCents, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, s)
	}

	return splits, rows.Err()
}

// ListByGroupID retrieves all expenses for a group, newest first
func (r *Repository) ListByGroupID(ctx context.Context, groupID uuid.UUID) ([]*Expense, error) {
	query := `
		SELECT id, group_id, title, amount_cents, currency, paid_by, expense_date, memo, version, created_at, updated_at
		FROM expenses
		WHERE group_id = $1
		ORDER BY expense_date DESC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		e := &Expense{}
		if err := rows.Scan(
			&e.ID, &e.GroupID, &e.Title, &e.AmountCents, &e.Currency, &e.PaidBy,
			&e.ExpenseDate, &e.Memo, &e.Version, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}
