package settlement

import "github.com/google/uuid"

// Balances combines per-membership paid and owed totals into net balances:
// balance = paid - owed. Every membership in memberIDs gets an entry, with
// missing totals defaulting to zero. Positive means the membership is owed
// money, negative means it owes.
//
// Given the split-sum invariant (each expense's splits sum to its amount),
// the returned balances always sum to zero.
func Balances(memberIDs []uuid.UUID, paid, owed map[uuid.UUID]int64) map[uuid.UUID]int64 {
	balances := make(map[uuid.UUID]int64, len(memberIDs))
	for _, id := range memberIDs {
		balances[id] = paid[id] - owed[id]
	}
	return balances
}
