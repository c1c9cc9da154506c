package split

const fullShareBasisPoints = 10000

// PercentageStrategy allocates by basis points (1/100th of a percent, so
// 10000 = 100%). Shares are rounded down and leftover cents are distributed
// to the earliest participants, keeping the total exact.
type PercentageStrategy struct{}

// Type returns the split type identifier
func (s *PercentageStrategy) Type() Type {
	return TypePercentage
}

// Validate checks that basis points are present, non-negative and sum to 10000
func (s *PercentageStrategy) Validate(amountCents int64, participants []Input) error {
	if err := validateCommon(amountCents, participants); err != nil {
		return err
	}

	var sum int64
	for _, p := range participants {
		if p.BasisPoints == nil {
			return ErrMissingBasisPoints
		}
		if *p.BasisPoints < 0 {
			return ErrNegativeShare
		}
		sum += *p.BasisPoints
	}
	if sum != fullShareBasisPoints {
		return ErrBasisPointsSum
	}

	return nil
}

// Calculate computes each share as floor(amount * bps / 10000) and then
// assigns the remaining cents one at a time from the first participant
func (s *PercentageStrategy) Calculate(amountCents int64, participants []Input) ([]Output, error) {
	if err := s.Validate(amountCents, participants); err != nil {
		return nil, err
	}

	outputs := make([]Output, len(participants))
	var allocated int64
	for i, p := range participants {
		share := amountCents * *p.BasisPoints / fullShareBasisPoints
		outputs[i] = Output{
			MembershipID: p.MembershipID,
			ShareCents:   share,
		}
		allocated += share
	}

	// Flooring can leave a few cents unallocated; hand them out front to back.
	remainder := amountCents - allocated
	for i := 0; remainder > 0 && i < len(outputs); i++ {
		outputs[i].ShareCents++
		remainder--
	}

	return outputs, nil
}
