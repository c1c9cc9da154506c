package expense

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/obadran/settleup/internal/activity"
	"github.com/obadran/settleup/internal/expense/split"
	"github.com/obadran/settleup/internal/group"
)

// Common errors
var (
	ErrExpenseNotFound       = errors.New("expense not found")
	ErrInvalidAmount         = errors.New("expense amount must be positive")
	ErrInvalidExpenseDate    = errors.New("invalid expense date, expected YYYY-MM-DD")
	ErrPayerNotInGroup       = errors.New("payer membership not found in group")
	ErrParticipantNotInGroup = errors.New("participant membership not found in group")
)

// ActivityRecorder records group events. Recording is best-effort; failures
// never fail the operation that triggered them.
type ActivityRecorder interface {
	Record(ctx context.Context, groupID, actorMembership uuid.UUID, eventType string, subjectID uuid.UUID)
}

// Service handles expense business logic
type Service struct {
	repo         *Repository
	groups       *group.Service
	splitFactory *split.Factory
	activity     ActivityRecorder
}

// NewService creates a new expense service with dependencies injected
func NewService(repo *Repository, groups *group.Service, splitFactory *split.Factory, activity ActivityRecorder) *Service {
	return &Service{
		repo:         repo,
		groups:       groups,
		splitFactory: splitFactory,
		activity:     activity,
	}
}

// Create creates an expense and its splits. The acting user must be a group
// member; the payer and every split participant must be memberships of the
// group. With no splits given the amount is split evenly across the whole
// group.
func (s *Service) Create(ctx context.Context, userID, groupID uuid.UUID, req *CreateExpenseRequest) (*ExpenseWithSplits, error) {
	actor, err := s.groups.RequireMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	expenseDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.ExpenseDate != "" {
		expenseDate, err = time.Parse("2006-01-02", req.ExpenseDate)
		if err != nil {
			return nil, ErrInvalidExpenseDate
		}
	}

	roster, err := s.groups.Roster(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members := make(map[uuid.UUID]struct{}, len(roster))
	for _, m := range roster {
		members[m.ID] = struct{}{}
	}

	if _, ok := members[req.PaidBy]; !ok {
		return nil, ErrPayerNotInGroup
	}

	participants := req.Splits
	if len(participants) == 0 {
		// Default: even split across every membership of the group.
		participants = make([]split.Input, len(roster))
		for i, m := range roster {
			participants[i] = split.Input{MembershipID: m.ID}
		}
	}
	for _, p := range participants {
		if _, ok := members[p.MembershipID]; !ok {
			return nil, ErrParticipantNotInGroup
		}
	}

	splitType := req.SplitType
	if splitType == "" {
		splitType = string(split.TypeEven)
	}
	strategy, err := s.splitFactory.CreateFromString(splitType)
	if err != nil {
		return nil, err
	}

	shares, err := strategy.Calculate(req.AmountCents, participants)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	created, err := s.repo.CreateWithSplits(
		ctx, groupID, req.Title, req.AmountCents, currency, req.PaidBy, expenseDate, req.Memo, shares,
	)
	if err != nil {
		return nil, err
	}

	slog.Info("expense created",
		"expense_id", created.Expense.ID,
		"group_id", groupID,
		"amount_cents", created.Expense.AmountCents,
		"splits", len(created.Splits),
	)
	s.activity.Record(ctx, groupID, actor.ID, activity.EventExpenseCreated, created.Expense.ID)

	return created, nil
}

// GetByID retrieves an expense with its splits; the requester must be a
// member of the expense's group
func (s *Service) GetByID(ctx context.Context, userID, expenseID uuid.UUID) (*ExpenseWithSplits, error) {
	expense, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, ErrExpenseNotFound
	}

	if _, err := s.groups.RequireMembership(ctx, expense.GroupID, userID); err != nil {
		return nil, err
	}

	splits, err := s.repo.GetSplitsByExpenseID(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

// ListByGroup retrieves all expenses of a group (members only)
func (s *Service) ListByGroup(ctx context.Context, userID, groupID uuid.UUID) ([]*Expense, error) {
	if _, err := s.groups.RequireMembership(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByGroupID(ctx, groupID)
}
