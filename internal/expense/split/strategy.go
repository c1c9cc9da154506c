// Package split implements expense split strategies over integer cents.
//
// Every strategy allocates the FULL expense amount across the listed
// participants, payer included: the sum of the produced shares always equals
// the expense amount exactly. This is the invariant the settlement engine
// relies on.
package split

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Type defines the type of split strategy
type Type string

const (
	TypeEven       Type = "EVEN"
	TypeExact      Type = "EXACT"
	TypePercentage Type = "PERCENTAGE"
)

// Input represents a participant in a split with optional per-strategy values
type Input struct {
	MembershipID uuid.UUID `json:"membership_id"`
	AmountCents  *int64    `json:"amount_cents,omitempty"` // For EXACT split
	BasisPoints  *int64    `json:"basis_points,omitempty"` // For PERCENTAGE split (10000 = 100%)
}

// Output represents the calculated share for a single participant
type Output struct {
	MembershipID uuid.UUID `json:"membership_id"`
	ShareCents   int64     `json:"share_cents"`
}

// Strategy is the interface that all split strategies implement
type Strategy interface {
	// Calculate allocates amountCents across all participants.
	// The returned shares sum to amountCents exactly.
	Calculate(amountCents int64, participants []Input) ([]Output, error)

	// Type returns the type identifier for this strategy
	Type() Type

	// Validate checks if the inputs are valid for this strategy
	Validate(amountCents int64, participants []Input) error
}

// Factory creates split strategies based on the requested type
type Factory struct{}

// NewFactory creates a new factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy implementation for the given type
func (f *Factory) Create(splitType Type) (Strategy, error) {
	switch splitType {
	case TypeEven:
		return &EvenStrategy{}, nil
	case TypeExact:
		return &ExactStrategy{}, nil
	case TypePercentage:
		return &PercentageStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown split type: %s", splitType)
	}
}

// CreateFromString creates a strategy from a string type (useful for API requests)
func (f *Factory) CreateFromString(splitType string) (Strategy, error) {
	return f.Create(Type(splitType))
}

var (
	ErrNoParticipants      = errors.New("at least one participant is required")
	ErrNonPositiveAmount   = errors.New("amount must be positive")
	ErrNegativeShare       = errors.New("shares cannot be negative")
	ErrMissingExactAmount  = errors.New("exact amount required for all participants")
	ErrExactSumMismatch    = errors.New("exact shares must sum to the expense amount")
	ErrMissingBasisPoints  = errors.New("basis points required for all participants")
	ErrBasisPointsSum      = errors.New("basis points must sum to 10000")
	ErrDuplicateMembership = errors.New("duplicate membership in participants")
)

// validateCommon runs the checks shared by all strategies
func validateCommon(amountCents int64, participants []Input) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	if amountCents <= 0 {
		return ErrNonPositiveAmount
	}
	seen := make(map[uuid.UUID]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.MembershipID]; dup {
			return ErrDuplicateMembership
		}
		seen[p.MembershipID] = struct{}{}
	}
	return nil
}
