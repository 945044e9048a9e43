package cluster

import (
	"strings"

	"payout-reconciliation-service/internal/models"
)

// residualFeeCeilingCents: unclustered TXN- ledger entries below this
// absolute amount are treated as residual fee noise and excluded from the
// unmatched total.
const residualFeeCeilingCents = 10000

// TotalUnmatchedCents derives the true cash-impact total of a run: the
// signed sum over cash-impact clusters, plus any unmatched record no
// cluster captured, minus known artifacts (failed payouts and small TXN-
// ledger residue). The result reflects only genuine, uninvestigated cash
// imbalance.
func TotalUnmatchedCents(clusters []*ClusterData, unmatched []*models.TransactionRecord) int64 {
	clustered := make(map[string]bool)
	var total int64

	for _, c := range clusters {
		for _, r := range c.Records {
			clustered[r.ID] = true
		}
		if c.Status.HasCashImpact() {
			total += c.AmountCents
		}
	}

	for _, r := range unmatched {
		if clustered[r.ID] {
			continue
		}

		if r.Source == models.SourcePayout && r.Status() == models.StatusFailed {
			continue
		}

		if r.Source == models.SourceLedger &&
			r.AbsAmountCents() < residualFeeCeilingCents &&
			strings.HasPrefix(r.Reference, txnPrefix) {
			continue
		}

		total += r.AmountCents
	}

	return total
}
