package settlement

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// MinimizeTransfers converts net balances into a small set of transfers that
// zero every balance: creditors and debtors are each sorted descending by
// magnitude, and the largest remaining debtor repeatedly pays the largest
// remaining creditor min(owed, credit).
//
// Ties in magnitude break by membership id ascending, so the output is fully
// deterministic for identical balances regardless of map iteration order.
//
// Properties: no transfer has From == To, every amount is strictly positive,
// each debtor's outgoing total equals the magnitude of its negative balance,
// each creditor's incoming total equals its positive balance, and at most
// len(debtors)+len(creditors)-1 transfers are produced. Zero-balance
// memberships participate in no transfer.
func MinimizeTransfers(balances map[uuid.UUID]int64) []Transfer {
	type entry struct {
		id     uuid.UUID
		amount int64 // always positive: credit for creditors, owed for debtors
	}

	var creditors, debtors []entry
	for id, net := range balances {
		switch {
		case net > 0:
			creditors = append(creditors, entry{id: id, amount: net})
		case net < 0:
			debtors = append(debtors, entry{id: id, amount: -net})
		}
	}

	byAmountDesc := func(list []entry) func(i, j int) bool {
		return func(i, j int) bool {
			if list[i].amount != list[j].amount {
				return list[i].amount > list[j].amount
			}
			return bytes.Compare(list[i].id[:], list[j].id[:]) < 0
		}
	}
	sort.Slice(creditors, byAmountDesc(creditors))
	sort.Slice(debtors, byAmountDesc(debtors))

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		owed := debtors[i].amount
		credit := creditors[j].amount

		amount := owed
		if credit < amount {
			amount = credit
		}
		transfers = append(transfers, Transfer{
			From:        debtors[i].id,
			To:          creditors[j].id,
			AmountCents: amount,
		})

		debtors[i].amount -= amount
		creditors[j].amount -= amount

		if debtors[i].amount == 0 {
			i++
		}
		if creditors[j].amount == 0 {
			j++
		}
	}

	return transfers
}
