package expense

import (
	"github.com/google/uuid"

	"github.com/obadran/settleup/internal/expense/split"
)

// CreateExpenseRequest represents the request body for creating an expense
type CreateExpenseRequest struct {
	Title       string        `json:"title" validate:"required,min=1,max=255"`
	AmountCents int64         `json:"amount_cents" validate:"required,gt=0"`
	Currency    string        `json:"currency" validate:"omitempty,len=3"`
	PaidBy      uuid.UUID     `json:"paid_by" validate:"required"` // membership id
	ExpenseDate string        `json:"expense_date"`                // YYYY-MM-DD, defaults to today
	Memo        *string       `json:"memo,omitempty"`
	SplitType   string        `json:"split_type" validate:"omitempty,oneof=EVEN EXACT PERCENTAGE"`
	Splits      []split.Input `json:"splits"` // empty = EVEN across the whole group
}

// SplitResponse represents one split of an expense
type SplitResponse struct {
	ID           uuid.UUID `json:"id"`
	MembershipID uuid.UUID `json:"membership_id"`
	ShareCents   int64     `json:"share_cents"`
}

// ExpenseResponse represents an expense with its splits
type ExpenseResponse struct {
	ID          uuid.UUID        `json:"id"`
	GroupID     uuid.UUID        `json:"group_id"`
	Title       string           `json:"title"`
	AmountCents int64            `json:"amount_cents"`
	Currency    string           `json:"currency"`
	PaidBy      uuid.UUID        `json:"paid_by"`
	ExpenseDate string           `json:"expense_date"`
	Memo        *string          `json:"memo,omitempty"`
	Splits      []*SplitResponse `json:"splits,omitempty"`
	CreatedAt   string           `json:"created_at"`
}

// ToResponse converts a bare Expense (no splits loaded) to an
// ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	return &ExpenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Title:       e.Title,
		AmountCents: e.AmountCents,
		Currency:    e.Currency,
		PaidBy:      e.PaidBy,
		ExpenseDate: e.ExpenseDate.Format("2006-01-02"),
		Memo:        e.Memo,
		CreatedAt:   e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts an ExpenseWithSplits to an ExpenseResponse DTO
func (e *ExpenseWithSplits) ToResponse() *ExpenseResponse {
	resp := e.Expense.ToResponse()
	for _, s := range e.Splits {
		resp.Splits = append(resp.Splits, &SplitResponse{
			ID:           s.ID,
			MembershipID: s.MembershipID,
			ShareCents:   s.ShareCents,
		})
	}
	return resp
}
