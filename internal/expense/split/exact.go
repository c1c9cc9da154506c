package split

// ExactStrategy uses caller-provided share amounts. The shares must be
// non-negative and sum to the expense amount exactly.
type ExactStrategy struct{}

// Type returns the split type identifier
func (s *ExactStrategy) Type() Type {
	return TypeExact
}

// Validate checks that every participant has a share and the shares add up
func (s *ExactStrategy) Validate(amountCents int64, participants []Input) error {
	if err := validateCommon(amountCents, participants); err != nil {
		return err
	}

	var sum int64
	for _, p := range participants {
		if p.AmountCents == nil {
			return ErrMissingExactAmount
		}
		if *p.AmountCents < 0 {
			return ErrNegativeShare
		}
		sum += *p.AmountCents
	}
	if sum != amountCents {
		return ErrExactSumMismatch
	}

	return nil
}

// Calculate passes through the provided shares
func (s *ExactStrategy) Calculate(amountCents int64, participants []Input) ([]Output, error) {
	if err := s.Validate(amountCents, participants); err != nil {
		return nil, err
	}

	outputs := make([]Output, len(participants))
	for i, p := range participants {
		outputs[i] = Output{
			MembershipID: p.MembershipID,
			ShareCents:   *p.AmountCents,
		}
	}

	return outputs, nil
}
