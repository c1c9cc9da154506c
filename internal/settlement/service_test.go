package settlement

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory Store used to exercise the service without
// postgres. It mirrors the Repository contract, including the authoritative
// settlement ordering and the conditional paid transition.
type memoryStore struct {
	mu          sync.Mutex
	members     map[uuid.UUID][]uuid.UUID               // group -> membership ids
	users       map[uuid.UUID]map[uuid.UUID]uuid.UUID   // group -> user -> membership
	paid        map[uuid.UUID]map[uuid.UUID]int64       // group -> membership -> cents
	owed        map[uuid.UUID]map[uuid.UUID]int64       // group -> membership -> cents
	batches     map[uuid.UUID]*Batch
	settlements map[uuid.UUID]*Settlement
	latest      map[uuid.UUID]uuid.UUID // group -> batch id

	// beforeMark runs at the start of MarkSettlementPaid, letting tests
	// interleave a concurrent transition between read and update.
	beforeMark func()

	// midCompute runs inside ComputeBatch after the ledger snapshot is
	// taken, letting tests interleave a concurrent ledger write.
	midCompute func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		members:     make(map[uuid.UUID][]uuid.UUID),
		users:       make(map[uuid.UUID]map[uuid.UUID]uuid.UUID),
		paid:        make(map[uuid.UUID]map[uuid.UUID]int64),
		owed:        make(map[uuid.UUID]map[uuid.UUID]int64),
		batches:     make(map[uuid.UUID]*Batch),
		settlements: make(map[uuid.UUID]*Settlement),
		latest:      make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *memoryStore) addMember(groupID, userID, membershipID uuid.UUID) {
	m.members[groupID] = append(m.members[groupID], membershipID)
	if m.users[groupID] == nil {
		m.users[groupID] = make(map[uuid.UUID]uuid.UUID)
	}
	m.users[groupID][userID] = membershipID
}

func (m *memoryStore) addExpense(groupID, payer uuid.UUID, amount int64, shares map[uuid.UUID]int64) {
	if m.paid[groupID] == nil {
		m.paid[groupID] = make(map[uuid.UUID]int64)
	}
	if m.owed[groupID] == nil {
		m.owed[groupID] = make(map[uuid.UUID]int64)
	}
	m.paid[groupID][payer] += amount
	for membership, share := range shares {
		m.owed[groupID][membership] += share
	}
}

func (m *memoryStore) MembershipForUser(_ context.Context, groupID, userID uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[groupID][userID], nil
}

func copyTotals(src map[uuid.UUID]int64) map[uuid.UUID]int64 {
	dst := make(map[uuid.UUID]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// ComputeBatch snapshots the ledger, derives transfers via fn and persists
// them as one operation, mirroring the repository's single transaction.
func (m *memoryStore) ComputeBatch(_ context.Context, groupID uuid.UUID, fn func(Ledger) ([]Transfer, error)) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ledger := Ledger{
		MemberIDs: append([]uuid.UUID(nil), m.members[groupID]...),
		Paid:      copyTotals(m.paid[groupID]),
		Owed:      copyTotals(m.owed[groupID]),
	}

	if m.midCompute != nil {
		m.midCompute()
	}

	transfers, err := fn(ledger)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	batch := &Batch{
		ID:               uuid.New(),
		GroupID:          groupID,
		Status:           StatusSuggested,
		TotalSettlements: len(transfers),
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	for _, t := range transfers {
		s := &Settlement{
			ID:             uuid.New(),
			BatchID:        batch.ID,
			GroupID:        groupID,
			FromMembership: t.From,
			ToMembership:   t.To,
			AmountCents:    t.AmountCents,
			Status:         StatusSuggested,
			CreatedAt:      now,
		}
		m.settlements[s.ID] = s
		batch.Settlements = append(batch.Settlements, s)
	}
	sortSettlements(batch.Settlements)

	m.batches[batch.ID] = batch
	m.latest[groupID] = batch.ID
	return batch, nil
}

func sortSettlements(list []*Settlement) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if c := bytes.Compare(a.FromMembership[:], b.FromMembership[:]); c != 0 {
			return c < 0
		}
		if c := bytes.Compare(a.ToMembership[:], b.ToMembership[:]); c != 0 {
			return c < 0
		}
		if a.AmountCents != b.AmountCents {
			return a.AmountCents < b.AmountCents
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
}

func (m *memoryStore) LatestBatch(_ context.Context, groupID uuid.UUID) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.latest[groupID]
	if !ok {
		return nil, nil
	}
	return m.batches[id], nil
}

func (m *memoryStore) GetBatch(_ context.Context, batchID uuid.UUID) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches[batchID], nil
}

func (m *memoryStore) GetSettlement(_ context.Context, settlementID uuid.UUID) (*Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.settlements[settlementID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *memoryStore) MarkSettlementPaid(_ context.Context, settlementID uuid.UUID) (*Settlement, bool, error) {
	if m.beforeMark != nil {
		m.beforeMark()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.settlements[settlementID]
	if !ok {
		return nil, false, nil
	}
	if s.Status != StatusSuggested {
		copied := *s
		return &copied, false, nil
	}
	s.Status = StatusPaid
	copied := *s
	return &copied, true, nil
}

// noopRecorder satisfies ActivityRecorder in tests
type noopRecorder struct{}

func (noopRecorder) Record(context.Context, uuid.UUID, uuid.UUID, string, uuid.UUID) {}

// fixture wires a three-member group: Alice paid 3000 split evenly, so Bob
// and Carol each owe her 1000.
type fixture struct {
	store   *memoryStore
	service *Service
	groupID uuid.UUID

	alice, bob, carol          uuid.UUID // user ids
	aliceMem, bobMem, carolMem uuid.UUID // membership ids
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    newMemoryStore(),
		groupID:  uuid.New(),
		alice:    uuid.New(),
		bob:      uuid.New(),
		carol:    uuid.New(),
		aliceMem: uuid.MustParse("00000000-0000-0000-0000-0000000000a1"),
		bobMem:   uuid.MustParse("00000000-0000-0000-0000-0000000000b2"),
		carolMem: uuid.MustParse("00000000-0000-0000-0000-0000000000c3"),
	}
	f.store.addMember(f.groupID, f.alice, f.aliceMem)
	f.store.addMember(f.groupID, f.bob, f.bobMem)
	f.store.addMember(f.groupID, f.carol, f.carolMem)
	f.store.addExpense(f.groupID, f.aliceMem, 3000, map[uuid.UUID]int64{
		f.aliceMem: 1000,
		f.bobMem:   1000,
		f.carolMem: 1000,
	})
	f.service = NewService(f.store, noopRecorder{})
	return f
}

func TestServiceCompute(t *testing.T) {
	ctx := context.Background()

	t.Run("creates batch with sorted suggested settlements", func(t *testing.T) {
		f := newFixture(t)

		batch, err := f.service.Compute(ctx, f.groupID, f.alice)

		require.NoError(t, err)
		assert.Equal(t, StatusSuggested, batch.Status)
		assert.Equal(t, 2, batch.TotalSettlements)
		require.Len(t, batch.Settlements, 2)

		// bobMem sorts before carolMem, both pay alice 1000.
		first, second := batch.Settlements[0], batch.Settlements[1]
		assert.Equal(t, f.bobMem, first.FromMembership)
		assert.Equal(t, f.aliceMem, first.ToMembership)
		assert.Equal(t, int64(1000), first.AmountCents)
		assert.Equal(t, f.carolMem, second.FromMembership)
		assert.Equal(t, int64(1000), second.AmountCents)
		for _, s := range batch.Settlements {
			assert.Equal(t, StatusSuggested, s.Status)
		}
	})

	t.Run("overlapping expenses net out before minimizing", func(t *testing.T) {
		f := newFixture(t)
		// Bob pays 1500 split 750/750 between Bob and Carol. Net balances:
		// Alice +2000, Bob -250, Carol -1750.
		f.store.addExpense(f.groupID, f.bobMem, 1500, map[uuid.UUID]int64{
			f.bobMem:   750,
			f.carolMem: 750,
		})

		batch, err := f.service.Compute(ctx, f.groupID, f.alice)

		require.NoError(t, err)
		require.Len(t, batch.Settlements, 2)
		first, second := batch.Settlements[0], batch.Settlements[1]
		assert.Equal(t, f.bobMem, first.FromMembership)
		assert.Equal(t, f.aliceMem, first.ToMembership)
		assert.Equal(t, int64(250), first.AmountCents)
		assert.Equal(t, f.carolMem, second.FromMembership)
		assert.Equal(t, f.aliceMem, second.ToMembership)
		assert.Equal(t, int64(1750), second.AmountCents)
	})

	t.Run("non member is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Compute(ctx, f.groupID, uuid.New())

		assert.ErrorIs(t, err, ErrNotGroupMember)
	})

	t.Run("empty group has no batch to compute", func(t *testing.T) {
		f := newFixture(t)
		emptyGroup := uuid.New()
		f.store.users[emptyGroup] = map[uuid.UUID]uuid.UUID{f.alice: uuid.New()}

		_, err := f.service.Compute(ctx, emptyGroup, f.alice)

		assert.ErrorIs(t, err, ErrNoMemberships)
	})

	t.Run("settled group yields an empty batch", func(t *testing.T) {
		f := newFixture(t)
		// Bob and Carol pay Alice back as recorded expenses.
		f.store.addExpense(f.groupID, f.bobMem, 1000, map[uuid.UUID]int64{f.aliceMem: 1000})
		f.store.addExpense(f.groupID, f.carolMem, 1000, map[uuid.UUID]int64{f.aliceMem: 1000})

		batch, err := f.service.Compute(ctx, f.groupID, f.alice)

		require.NoError(t, err)
		assert.Zero(t, batch.TotalSettlements)
		assert.Empty(t, batch.Settlements)
	})

	t.Run("recompute creates a new batch and leaves the old one intact", func(t *testing.T) {
		f := newFixture(t)

		first, err := f.service.Compute(ctx, f.groupID, f.alice)
		require.NoError(t, err)

		f.store.addExpense(f.groupID, f.bobMem, 600, map[uuid.UUID]int64{
			f.aliceMem: 200, f.bobMem: 200, f.carolMem: 200,
		})

		second, err := f.service.Compute(ctx, f.groupID, f.bob)
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)

		stored, err := f.service.GetBatch(ctx, first.ID, f.alice)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, first.TotalSettlements, stored.TotalSettlements)
		for i, s := range stored.Settlements {
			assert.Equal(t, first.Settlements[i].ID, s.ID)
			assert.Equal(t, first.Settlements[i].AmountCents, s.AmountCents)
		}

		latest, err := f.service.Latest(ctx, f.groupID, f.carol)
		require.NoError(t, err)
		assert.Equal(t, second.ID, latest.ID)
	})

	t.Run("ledger write during compute does not skew the snapshot", func(t *testing.T) {
		f := newFixture(t)
		// An expense lands after the ledger snapshot is taken but before
		// the batch is persisted. It must not unbalance this compute and
		// must not appear in this batch.
		f.store.midCompute = func() {
			f.store.paid[f.groupID][f.bobMem] += 600
			f.store.owed[f.groupID][f.aliceMem] += 200
			f.store.owed[f.groupID][f.bobMem] += 200
			f.store.owed[f.groupID][f.carolMem] += 200
		}

		batch, err := f.service.Compute(ctx, f.groupID, f.alice)

		require.NoError(t, err)
		require.Len(t, batch.Settlements, 2)
		assert.Equal(t, int64(1000), batch.Settlements[0].AmountCents)
		assert.Equal(t, int64(1000), batch.Settlements[1].AmountCents)

		// The next compute sees the new expense.
		f.store.midCompute = nil
		next, err := f.service.Compute(ctx, f.groupID, f.alice)
		require.NoError(t, err)
		require.Len(t, next.Settlements, 2)
		assert.Equal(t, int64(600), next.Settlements[0].AmountCents)  // bob
		assert.Equal(t, int64(1200), next.Settlements[1].AmountCents) // carol
	})

	t.Run("unbalanced ledger aborts before persisting", func(t *testing.T) {
		f := newFixture(t)
		// Corrupt the totals: owed no longer matches paid.
		f.store.owed[f.groupID][f.carolMem] += 7

		_, err := f.service.Compute(ctx, f.groupID, f.alice)

		require.ErrorIs(t, err, ErrUnbalancedLedger)
		batch, storeErr := f.store.LatestBatch(ctx, f.groupID)
		require.NoError(t, storeErr)
		assert.Nil(t, batch, "no batch may be persisted from corrupt balances")
	})
}

func TestServiceLatest(t *testing.T) {
	ctx := context.Background()

	t.Run("no batches yet", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Latest(ctx, f.groupID, f.alice)

		assert.ErrorIs(t, err, ErrNoBatches)
	})

	t.Run("non member is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Compute(ctx, f.groupID, f.alice)
		require.NoError(t, err)

		_, err = f.service.Latest(ctx, f.groupID, uuid.New())

		assert.ErrorIs(t, err, ErrNotGroupMember)
	})
}

func TestServiceGetBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown batch", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.GetBatch(ctx, uuid.New(), f.alice)

		assert.ErrorIs(t, err, ErrBatchNotFound)
	})

	t.Run("non member is rejected", func(t *testing.T) {
		f := newFixture(t)
		batch, err := f.service.Compute(ctx, f.groupID, f.alice)
		require.NoError(t, err)

		_, err = f.service.GetBatch(ctx, batch.ID, uuid.New())

		assert.ErrorIs(t, err, ErrNotGroupMember)
	})
}

func TestServiceMarkPaid(t *testing.T) {
	ctx := context.Background()

	compute := func(t *testing.T, f *fixture) *Batch {
		t.Helper()
		batch, err := f.service.Compute(ctx, f.groupID, f.alice)
		require.NoError(t, err)
		require.NotEmpty(t, batch.Settlements)
		return batch
	}

	// settlementFor returns the settlement owed by the given debtor.
	settlementFor := func(t *testing.T, batch *Batch, debtor uuid.UUID) *Settlement {
		t.Helper()
		for _, s := range batch.Settlements {
			if s.FromMembership == debtor {
				return s
			}
		}
		t.Fatalf("no settlement from %s", debtor)
		return nil
	}

	t.Run("debtor marks their settlement paid", func(t *testing.T) {
		f := newFixture(t)
		batch := compute(t, f)
		target := settlementFor(t, batch, f.bobMem)

		updated, err := f.service.MarkPaid(ctx, target.ID, f.bob)

		require.NoError(t, err)
		assert.Equal(t, StatusPaid, updated.Status)
		assert.Equal(t, target.ID, updated.ID)
	})

	t.Run("marking again is idempotent", func(t *testing.T) {
		f := newFixture(t)
		batch := compute(t, f)
		target := settlementFor(t, batch, f.bobMem)

		_, err := f.service.MarkPaid(ctx, target.ID, f.bob)
		require.NoError(t, err)

		again, err := f.service.MarkPaid(ctx, target.ID, f.bob)

		require.NoError(t, err)
		assert.Equal(t, StatusPaid, again.Status)
	})

	t.Run("unknown settlement", func(t *testing.T) {
		f := newFixture(t)
		compute(t, f)

		_, err := f.service.MarkPaid(ctx, uuid.New(), f.bob)

		assert.ErrorIs(t, err, ErrSettlementNotFound)
	})

	t.Run("non member is rejected", func(t *testing.T) {
		f := newFixture(t)
		batch := compute(t, f)
		target := settlementFor(t, batch, f.bobMem)

		_, err := f.service.MarkPaid(ctx, target.ID, uuid.New())

		assert.ErrorIs(t, err, ErrNotGroupMember)
	})

	t.Run("creditor cannot mark it paid", func(t *testing.T) {
		f := newFixture(t)
		batch := compute(t, f)
		target := settlementFor(t, batch, f.bobMem)

		_, err := f.service.MarkPaid(ctx, target.ID, f.alice)

		assert.ErrorIs(t, err, ErrNotDebtor)
	})

	t.Run("another debtor cannot mark it paid", func(t *testing.T) {
		f := newFixture(t)
		batch := compute(t, f)
		target := settlementFor(t, batch, f.bobMem)

		_, err := f.service.MarkPaid(ctx, target.ID, f.carol)

		assert.ErrorIs(t, err, ErrNotDebtor)
	})

	t.Run("voided settlement cannot become paid", func(t *testing.T) {
		f := newFixture(t)
		batch := compute(t, f)
		target := settlementFor(t, batch, f.bobMem)
		f.store.settlements[target.ID].Status = StatusVoided

		_, err := f.service.MarkPaid(ctx, target.ID, f.bob)

		assert.ErrorIs(t, err, ErrInvalidStatusChange)
	})

	t.Run("lost race against a concurrent paid transition still succeeds", func(t *testing.T) {
		f := newFixture(t)
		batch := compute(t, f)
		target := settlementFor(t, batch, f.bobMem)

		// The row flips to paid between the service's read and its update.
		f.store.beforeMark = func() {
			f.store.mu.Lock()
			f.store.settlements[target.ID].Status = StatusPaid
			f.store.mu.Unlock()
		}
		updated, err := f.service.MarkPaid(ctx, target.ID, f.bob)

		require.NoError(t, err)
		assert.Equal(t, StatusPaid, updated.Status)
	})
}
