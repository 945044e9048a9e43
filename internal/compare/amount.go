// Package compare provides the low-level comparators the matching engine
// is built on: sign/status-aware amount comparison, token-sorted string
// similarity and timestamp distance.
package compare

import (
	"payout-reconciliation-service/internal/models"
)

// AmountComparator decides amount-level match eligibility between a
// payout and a ledger candidate, honoring payout status semantics:
//
//   - FAILED payouts never match: no money moved.
//   - SUCCESS payouts match ledger DEBIT entries whose negative amount
//     mirrors the payout outflow.
//   - REVERSED payouts match ledger CREDIT entries with a positive
//     amount equal to the payout.
//   - Unknown statuses fall back to a plain signed-amount comparison.
type AmountComparator struct {
	ToleranceCents int64
}

// NewAmountComparator creates a comparator with the given tolerance in cents.
func NewAmountComparator(toleranceCents int64) *AmountComparator {
	return &AmountComparator{ToleranceCents: toleranceCents}
}

// Eligible reports whether the ledger candidate is an acceptable amount
// match for the payout.
func (ac *AmountComparator) Eligible(payout, ledger *models.TransactionRecord) bool {
	_, ok := ac.diff(payout, ledger)
	return ok
}

// Score returns a graded amount score in [0,1]: 1 for an exact match,
// decaying linearly to 0 at the tolerance edge, 0 when ineligible.
// A zero tolerance means exact-only.
func (ac *AmountComparator) Score(payout, ledger *models.TransactionRecord) float64 {
	diff, ok := ac.diff(payout, ledger)
	if !ok {
		return 0
	}

	if ac.ToleranceCents == 0 {
		if diff == 0 {
			return 1
		}
		return 0
	}

	score := 1 - float64(diff)/float64(ac.ToleranceCents)
	if score < 0 {
		return 0
	}
	return score
}

// diff computes the absolute cent difference on the branch selected by
// the payout status, and whether the candidate is eligible at all.
func (ac *AmountComparator) diff(payout, ledger *models.TransactionRecord) (int64, bool) {
	switch payout.Status() {
	case models.StatusFailed:
		return 0, false

	case models.StatusSuccess:
		// The ledger records the outflow as a negative DEBIT mirror.
		if ledger.EntryType() != models.EntryDebit || ledger.AmountCents >= 0 {
			return 0, false
		}
		diff := abs64(payout.AmountCents + ledger.AmountCents)
		return diff, diff <= ac.ToleranceCents

	case models.StatusReversed:
		// Money came back: the ledger books a positive CREDIT.
		if ledger.EntryType() != models.EntryCredit || ledger.AmountCents <= 0 {
			return 0, false
		}
		diff := abs64(payout.AmountCents - ledger.AmountCents)
		return diff, diff <= ac.ToleranceCents

	default:
		diff := abs64(payout.AmountCents - ledger.AmountCents)
		return diff, diff <= ac.ToleranceCents
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
