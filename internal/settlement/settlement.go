// Package settlement computes who owes whom.
//
// Everything here is a pure function over already-fetched data: integer
// currency amounts in, integer amounts out. Floating point never appears;
// proportional shares use integer floor division with largest-remainder
// correction so every distribution sums exactly to its input.
package settlement

import (
	"fmt"
	"sort"
)

// Participant is one person in the settlement roster.
type Participant struct {
	// ID is the contributor id the ledger knows this person by: a
	// platform user id, "manual:<name>", or empty for a padded
	// placeholder that never paid anything.
	ID string

	// Name is the display name used in replies and transfers.
	Name string

	// Paid is the participant's summed in-range expense.
	Paid int64
}

// Position is a participant's computed net standing.
type Position struct {
	Participant

	// Reimbursed is the share of the shared-fund pool covering this
	// participant's outlays.
	Reimbursed int64

	// Share is this participant's even share of the residual expense.
	Share int64

	// Adjustment is the net of recorded settlement payments: amounts
	// already paid out minus amounts already received.
	Adjustment int64

	// Net is the final position. Positive: owed money (creditor).
	// Negative: owes money (debtor).
	Net int64
}

// Transfer is one suggested payment in the plan.
type Transfer struct {
	From   string
	To     string
	Amount int64
}

// Result is the full settlement computation output.
type Result struct {
	Positions    []Position
	Transfers    []Transfer
	TotalExpense int64
	Pool         int64
}

// AllocateProportional splits pool across participants proportionally to
// their paid amounts using largest-remainder rounding: floor every exact
// share, then hand the rounding shortfall out one unit at a time to the
// largest fractional remainders, ties broken by original order. The
// returned values always sum exactly to pool.
func AllocateProportional(paid []int64, pool int64) []int64 {
	allocations := make([]int64, len(paid))
	var totalPaid int64
	for _, p := range paid {
		totalPaid += p
	}
	if totalPaid == 0 || pool == 0 {
		return allocations
	}

	remainders := make([]int64, len(paid))
	var allocated int64
	for i, p := range paid {
		allocations[i] = pool * p / totalPaid
		remainders[i] = (pool * p) % totalPaid
		allocated += allocations[i]
	}

	order := make([]int, len(paid))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})

	for shortfall := pool - allocated; shortfall > 0; shortfall-- {
		allocations[order[0]]++
		order = order[1:]
	}
	return allocations
}

// SplitEven divides total across n participants: floor division, with the
// remainder given one unit each to the first participants in roster order.
// The returned values always sum exactly to total.
func SplitEven(total int64, n int) []int64 {
	shares := make([]int64, n)
	if n == 0 {
		return shares
	}
	base := total / int64(n)
	remainder := total % int64(n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares
}

// Compute derives every participant's net position and a transfer plan.
// pool is the shared-fund reimbursement amount and must not exceed the
// total expense; adjustments[i] is participant i's net of recorded
// settlement payments (paid out minus received).
func Compute(participants []Participant, totalExpense, pool int64, adjustments []int64) (*Result, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("no participants to settle")
	}
	if pool < 0 || pool > totalExpense {
		return nil, fmt.Errorf("reimbursement pool %d outside [0, %d]", pool, totalExpense)
	}
	if len(adjustments) != 0 && len(adjustments) != len(participants) {
		return nil, fmt.Errorf("adjustments length %d != participants length %d", len(adjustments), len(participants))
	}

	paid := make([]int64, len(participants))
	for i, p := range participants {
		paid[i] = p.Paid
	}
	reimbursed := AllocateProportional(paid, pool)
	shares := SplitEven(totalExpense-pool, len(participants))

	result := &Result{TotalExpense: totalExpense, Pool: pool}
	for i, p := range participants {
		pos := Position{
			Participant: p,
			Reimbursed:  reimbursed[i],
			Share:       shares[i],
		}
		if len(adjustments) != 0 {
			pos.Adjustment = adjustments[i]
		}
		pos.Net = (p.Paid - pos.Reimbursed) - pos.Share + pos.Adjustment
		result.Positions = append(result.Positions, pos)
	}

	result.Transfers = plan(result.Positions)
	return result, nil
}

// plan matches debtors against creditors with a greedy two-pointer sweep in
// source order. When total credits equal total debits (guaranteed by the
// exact-sum distributions above when adjustments net to zero), every
// position is driven to exactly zero.
func plan(positions []Position) []Transfer {
	var creditors, debtors []Position
	for _, pos := range positions {
		if pos.Net > 0 {
			creditors = append(creditors, pos)
		} else if pos.Net < 0 {
			pos.Net = -pos.Net
			debtors = append(debtors, pos)
		}
	}

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].Net
		if creditors[j].Net < amount {
			amount = creditors[j].Net
		}
		if amount > 0 {
			transfers = append(transfers, Transfer{
				From:   debtors[i].Name,
				To:     creditors[j].Name,
				Amount: amount,
			})
		}
		debtors[i].Net -= amount
		creditors[j].Net -= amount
		if debtors[i].Net == 0 {
			i++
		}
		if creditors[j].Net == 0 {
			j++
		}
	}
	return transfers
}
