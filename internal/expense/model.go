package expense

import (
	"time"

	"github.com/google/uuid"
)

// Expense represents a group expense. The amount is in minor currency units
// (cents); its splits always sum to the amount exactly.
type Expense struct {
	ID          uuid.UUID `json:"id"`
	GroupID     uuid.UUID `json:"group_id"`
	Title       string    `json:"title"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	PaidBy      uuid.UUID `json:"paid_by"` // membership id of the payer
	ExpenseDate time.Time `json:"expense_date"`
	Memo        *string   `json:"memo,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Split is one membership's share of an expense
type Split struct {
	ID           uuid.UUID `json:"id"`
	ExpenseID    uuid.UUID `json:"expense_id"`
	GroupID      uuid.UUID `json:"group_id"`
	MembershipID uuid.UUID `json:"membership_id"`
	ShareCents   int64     `json:"share_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

// ExpenseWithSplits combines an expense with its splits
type ExpenseWithSplits struct {
	Expense *Expense
	Splits  []*Split
}
