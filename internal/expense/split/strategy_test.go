package split

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func participants(n int) []Input {
	list := make([]Input, n)
	for i := range list {
		list[i] = Input{MembershipID: uuid.New()}
	}
	return list
}

func shareSum(outputs []Output) int64 {
	var sum int64
	for _, o := range outputs {
		sum += o.ShareCents
	}
	return sum
}

func TestFactory(t *testing.T) {
	factory := NewFactory()

	for _, splitType := range []Type{TypeEven, TypeExact, TypePercentage} {
		strategy, err := factory.Create(splitType)
		require.NoError(t, err)
		assert.Equal(t, splitType, strategy.Type())
	}

	_, err := factory.CreateFromString("HALFSIES")
	assert.Error(t, err)
}

func TestEvenStrategy(t *testing.T) {
	s := &EvenStrategy{}

	t.Run("remainder goes to the earliest participants", func(t *testing.T) {
		outputs, err := s.Calculate(1000, participants(3))

		require.NoError(t, err)
		require.Len(t, outputs, 3)
		assert.Equal(t, int64(334), outputs[0].ShareCents)
		assert.Equal(t, int64(333), outputs[1].ShareCents)
		assert.Equal(t, int64(333), outputs[2].ShareCents)
		assert.Equal(t, int64(1000), shareSum(outputs))
	})

	t.Run("divides evenly when possible", func(t *testing.T) {
		outputs, err := s.Calculate(900, participants(3))

		require.NoError(t, err)
		for _, o := range outputs {
			assert.Equal(t, int64(300), o.ShareCents)
		}
	})

	t.Run("single participant gets everything", func(t *testing.T) {
		outputs, err := s.Calculate(777, participants(1))

		require.NoError(t, err)
		require.Len(t, outputs, 1)
		assert.Equal(t, int64(777), outputs[0].ShareCents)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := s.Calculate(1000, nil)
		assert.ErrorIs(t, err, ErrNoParticipants)

		_, err = s.Calculate(0, participants(2))
		assert.ErrorIs(t, err, ErrNonPositiveAmount)

		dup := participants(1)
		dup = append(dup, dup[0])
		_, err = s.Calculate(1000, dup)
		assert.ErrorIs(t, err, ErrDuplicateMembership)
	})
}

func TestExactStrategy(t *testing.T) {
	s := &ExactStrategy{}

	t.Run("passes through provided shares", func(t *testing.T) {
		in := participants(3)
		in[0].AmountCents = ptr(500)
		in[1].AmountCents = ptr(300)
		in[2].AmountCents = ptr(200)

		outputs, err := s.Calculate(1000, in)

		require.NoError(t, err)
		assert.Equal(t, int64(500), outputs[0].ShareCents)
		assert.Equal(t, int64(300), outputs[1].ShareCents)
		assert.Equal(t, int64(200), outputs[2].ShareCents)
	})

	t.Run("zero shares are allowed", func(t *testing.T) {
		in := participants(2)
		in[0].AmountCents = ptr(1000)
		in[1].AmountCents = ptr(0)

		outputs, err := s.Calculate(1000, in)

		require.NoError(t, err)
		assert.Equal(t, int64(0), outputs[1].ShareCents)
	})

	t.Run("sum mismatch is rejected", func(t *testing.T) {
		in := participants(2)
		in[0].AmountCents = ptr(600)
		in[1].AmountCents = ptr(300)

		_, err := s.Calculate(1000, in)

		assert.ErrorIs(t, err, ErrExactSumMismatch)
	})

	t.Run("missing share is rejected", func(t *testing.T) {
		in := participants(2)
		in[0].AmountCents = ptr(1000)

		_, err := s.Calculate(1000, in)

		assert.ErrorIs(t, err, ErrMissingExactAmount)
	})

	t.Run("negative share is rejected", func(t *testing.T) {
		in := participants(2)
		in[0].AmountCents = ptr(1100)
		in[1].AmountCents = ptr(-100)

		_, err := s.Calculate(1000, in)

		assert.ErrorIs(t, err, ErrNegativeShare)
	})
}

func TestPercentageStrategy(t *testing.T) {
	s := &PercentageStrategy{}

	t.Run("allocates by basis points", func(t *testing.T) {
		in := participants(2)
		in[0].BasisPoints = ptr(7500)
		in[1].BasisPoints = ptr(2500)

		outputs, err := s.Calculate(1000, in)

		require.NoError(t, err)
		assert.Equal(t, int64(750), outputs[0].ShareCents)
		assert.Equal(t, int64(250), outputs[1].ShareCents)
	})

	t.Run("rounding leftovers go to the earliest participants", func(t *testing.T) {
		in := participants(3)
		in[0].BasisPoints = ptr(3333)
		in[1].BasisPoints = ptr(3333)
		in[2].BasisPoints = ptr(3334)

		outputs, err := s.Calculate(100, in)

		require.NoError(t, err)
		// Floors are 33, 33, 33; the leftover cent lands on the first.
		assert.Equal(t, int64(34), outputs[0].ShareCents)
		assert.Equal(t, int64(33), outputs[1].ShareCents)
		assert.Equal(t, int64(33), outputs[2].ShareCents)
		assert.Equal(t, int64(100), shareSum(outputs))
	})

	t.Run("basis points must sum to 10000", func(t *testing.T) {
		in := participants(2)
		in[0].BasisPoints = ptr(5000)
		in[1].BasisPoints = ptr(4000)

		_, err := s.Calculate(1000, in)

		assert.ErrorIs(t, err, ErrBasisPointsSum)
	})

	t.Run("missing basis points are rejected", func(t *testing.T) {
		in := participants(2)
		in[0].BasisPoints = ptr(10000)

		_, err := s.Calculate(1000, in)

		assert.ErrorIs(t, err, ErrMissingBasisPoints)
	})
}
