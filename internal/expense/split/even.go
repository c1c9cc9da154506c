package split

// EvenStrategy divides the expense equally among all participants.
// Remainder cents go to the earliest participants: 1000 over 3 people
// produces shares 334, 333, 333.
type EvenStrategy struct{}

// Type returns the split type identifier
func (s *EvenStrategy) Type() Type {
	return TypeEven
}

// Validate checks if the inputs are valid for an even split
func (s *EvenStrategy) Validate(amountCents int64, participants []Input) error {
	return validateCommon(amountCents, participants)
}

// Calculate divides the total amount evenly, distributing the remainder
// one cent at a time starting with the first participant
func (s *EvenStrategy) Calculate(amountCents int64, participants []Input) ([]Output, error) {
	if err := s.Validate(amountCents, participants); err != nil {
		return nil, err
	}

	n := int64(len(participants))
	base := amountCents / n
	remainder := amountCents % n

	outputs := make([]Output, len(participants))
	for i, p := range participants {
		share := base
		if int64(i) < remainder {
			share++
		}
		outputs[i] = Output{
			MembershipID: p.MembershipID,
			ShareCents:   share,
		}
	}

	return outputs, nil
}
