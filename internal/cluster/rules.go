package cluster

import (
	"sort"
	"strings"

	"payout-reconciliation-service/internal/models"
)

// Reference prefixes with classification meaning. NOISE- marks records
// injected by internal systems that never settle; TXN- marks provider
// transaction references eligible for fee/reversal grouping.
const (
	noisePrefix = "NOISE-"
	txnPrefix   = "TXN-"
)

// Fee heuristics relative to the comparison base amount.
const (
	feeMinRatio = 0.001
	feeMaxRatio = 0.05
)

// classificationRule is one tagged step of the classifier. Rules run in
// slice order over the records no earlier rule consumed; consumption is
// implicit in the returned clusters' membership.
type classificationRule struct {
	name  string
	apply func(cb *ClusterBuilder, remaining []*models.TransactionRecord) []*ClusterData
}

// classificationRules is the ordered rule list. First applicable rule
// wins per record group.
var classificationRules = []classificationRule{
	{name: "failed_payouts", apply: failedPayoutRule},
	{name: "noise_records", apply: noiseRule},
	{name: "reference_groups", apply: referenceGroupRule},
	{name: "remainder", apply: remainderRule},
}

// failedPayoutRule collects payouts whose provider status is FAILED into
// a single no-cash-impact cluster.
func failedPayoutRule(cb *ClusterBuilder, remaining []*models.TransactionRecord) []*ClusterData {
	var members []*models.TransactionRecord
	for _, r := range remaining {
		if r.Source == models.SourcePayout && r.Status() == models.StatusFailed {
			members = append(members, r)
		}
	}

	if len(members) == 0 {
		return nil
	}
	return []*ClusterData{newCluster(StatusFailed, members)}
}

// noiseRule collects records whose reference carries the internal noise
// prefix. They never settle, but the money is genuinely unaccounted, so
// the cluster keeps cash impact.
func noiseRule(cb *ClusterBuilder, remaining []*models.TransactionRecord) []*ClusterData {
	var members []*models.TransactionRecord
	for _, r := range remaining {
		if strings.HasPrefix(r.Reference, noisePrefix) {
			members = append(members, r)
		}
	}

	if len(members) == 0 {
		return nil
	}
	return []*ClusterData{newCluster(StatusUnmatched, members)}
}

// referenceGroupRule groups remaining TXN- records by reference value and
// classifies each group via the fee/reversal/partial heuristics.
func referenceGroupRule(cb *ClusterBuilder, remaining []*models.TransactionRecord) []*ClusterData {
	groups := make(map[string][]*models.TransactionRecord)
	var order []string
	for _, r := range remaining {
		if !strings.HasPrefix(r.Reference, txnPrefix) {
			continue
		}
		if _, seen := groups[r.Reference]; !seen {
			order = append(order, r.Reference)
		}
		groups[r.Reference] = append(groups[r.Reference], r)
	}

	// Deterministic group order regardless of input interleaving.
	sort.Strings(order)

	var clusters []*ClusterData
	for _, ref := range order {
		clusters = append(clusters, cb.classifyReferenceGroup(ref, groups[ref]))
	}
	return clusters
}

// classifyReferenceGroup applies the ordered group heuristics: fee group,
// single trailing fee, reversal echo, then partial/unmatched.
func (cb *ClusterBuilder) classifyReferenceGroup(ref string, members []*models.TransactionRecord) *ClusterData {
	sortByAbsAmountDesc(members)
	main := members[0]

	// Comparison base: the matched transaction with this reference if one
	// exists, otherwise the group's own largest member.
	base := main.AbsAmountCents()
	matched, hasMatched := cb.matchedByRef[ref]
	if hasMatched {
		base = abs64(matched.AmountCents)
	}

	if len(members) > 1 && allTrailingFees(members[1:], base) {
		return newCluster(StatusFee, members)
	}

	if len(members) == 1 {
		if hasMatched && isFeeSized(main.AbsAmountCents(), base) {
			return newCluster(StatusFee, members)
		}

		if main.Source == models.SourceLedger &&
			main.EntryType() == models.EntryDebit &&
			main.AmountCents < 0 &&
			cb.reversedRefs[ref] {
			return newCluster(StatusReversed, members)
		}

		return newCluster(StatusUnmatched, members)
	}

	return newCluster(StatusPartial, members)
}

// remainderRule classifies every record no earlier rule captured: fee if
// it trails a matched transaction at fee size, otherwise unmatched. Each
// record forms its own singleton cluster.
func remainderRule(cb *ClusterBuilder, remaining []*models.TransactionRecord) []*ClusterData {
	var clusters []*ClusterData
	for _, r := range remaining {
		status := StatusUnmatched
		if matched, ok := cb.matchedByRef[r.Reference]; ok && r.Reference != "" {
			if isFeeSized(r.AbsAmountCents(), abs64(matched.AmountCents)) {
				status = StatusFee
			}
		}
		clusters = append(clusters, newCluster(status, []*models.TransactionRecord{r}))
	}
	return clusters
}

// allTrailingFees reports whether every non-main group member sits in the
// fee band (0.1%–5%) relative to the comparison base.
func allTrailingFees(rest []*models.TransactionRecord, base int64) bool {
	if base <= 0 {
		return false
	}

	for _, r := range rest {
		ratio := float64(r.AbsAmountCents()) / float64(base)
		if ratio < feeMinRatio || ratio > feeMaxRatio {
			return false
		}
	}
	return true
}

// isFeeSized reports whether a single amount is below the 5% fee ceiling
// relative to the matched base amount.
func isFeeSized(amount, base int64) bool {
	if base <= 0 {
		return false
	}
	return float64(amount)/float64(base) < feeMaxRatio
}
