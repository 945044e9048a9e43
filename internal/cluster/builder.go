// Package cluster categorizes leftover records from a reconciliation run
// into labeled exception clusters, separating genuine cash-flow
// discrepancies from artifacts (fees, reversals, failed payouts, noise).
//
// Classification is an ordered list of rules (see rules.go); the first
// applicable rule wins for each record group. Matched-record context is
// used to recognize fees and reversals hanging off settled transactions.
package cluster

import (
	"fmt"
	"sort"

	"payout-reconciliation-service/internal/models"
)

// Status labels the exception category of a cluster.
type Status string

const (
	StatusUnmatched Status = "unmatched"
	StatusPartial   Status = "partial"
	StatusResolved  Status = "resolved"
	StatusReversed  Status = "reversed"
	StatusFee       Status = "fee"
	StatusFailed    Status = "failed"
)

// HasCashImpact reports whether a cluster of this status represents
// genuinely unaccounted money. Fees, reversals and failed payouts are
// matched-transaction artifacts needing no further investigation.
func (s Status) HasCashImpact() bool {
	switch s {
	case StatusFailed, StatusFee, StatusReversed:
		return false
	default:
		return true
	}
}

// statusPriority orders clusters for presentation: resolved categories
// first, genuine discrepancies last.
var statusPriority = map[Status]int{
	StatusFailed:    0,
	StatusReversed:  1,
	StatusFee:       2,
	StatusPartial:   3,
	StatusUnmatched: 4,
}

var statusLabels = map[Status]string{
	StatusFailed:    "Failed payouts",
	StatusReversed:  "Reversal",
	StatusFee:       "Fee artifacts",
	StatusPartial:   "Partial group",
	StatusUnmatched: "Unmatched",
}

// ClusterData is one group of unmatched records sharing an exception
// pattern. Records are disjoint across clusters; AmountCents is the
// signed sum of member amounts.
type ClusterData struct {
	PivotID     string                      `json:"pivot_id"`
	PivotType   models.Source               `json:"pivot_type"`
	Records     []*models.TransactionRecord `json:"records"`
	AmountCents int64                       `json:"amount"`
	Status      Status                      `json:"status"`
	Notes       string                      `json:"notes"`
	Size        int                         `json:"size"`
}

// newCluster builds a cluster from its member records, using the
// largest-|amount| member as the pivot.
func newCluster(status Status, records []*models.TransactionRecord) *ClusterData {
	sortByAbsAmountDesc(records)

	var total int64
	for _, r := range records {
		total += r.AmountCents
	}

	c := &ClusterData{
		Records:     records,
		AmountCents: total,
		Status:      status,
		Size:        len(records),
	}

	if len(records) > 0 {
		c.PivotID = records[0].ID
		c.PivotType = records[0].Source
	}

	return c
}

// ClusterBuilder classifies unmatched records using context from the
// matched set of the same run.
type ClusterBuilder struct {
	matchedByRef map[string]*models.TransactionRecord
	reversedRefs map[string]bool
}

// NewClusterBuilder creates a builder with visibility into the matched
// records of the run. For references matched more than once, the first
// matched record in input order provides the comparison amount.
func NewClusterBuilder(matched []*models.TransactionRecord) *ClusterBuilder {
	cb := &ClusterBuilder{
		matchedByRef: make(map[string]*models.TransactionRecord),
		reversedRefs: make(map[string]bool),
	}

	for _, r := range matched {
		if r.Reference == "" {
			continue
		}
		if _, ok := cb.matchedByRef[r.Reference]; !ok {
			cb.matchedByRef[r.Reference] = r
		}
		if r.Source == models.SourcePayout && r.Status() == models.StatusReversed {
			cb.reversedRefs[r.Reference] = true
		}
	}

	return cb
}

// Build applies the classification rules in priority order to the full
// unmatched set (payouts and ledger entries together) and returns the
// resulting clusters, sorted and labeled.
func (cb *ClusterBuilder) Build(unmatched []*models.TransactionRecord) []*ClusterData {
	remaining := make([]*models.TransactionRecord, len(unmatched))
	copy(remaining, unmatched)

	var clusters []*ClusterData
	for _, rule := range classificationRules {
		produced := rule.apply(cb, remaining)
		if len(produced) == 0 {
			continue
		}

		clusters = append(clusters, produced...)
		remaining = withoutClustered(remaining, produced)
	}

	sortClusters(clusters)
	labelClusters(clusters)
	return clusters
}

// withoutClustered removes records consumed by the produced clusters,
// preserving input order for the remaining ones.
func withoutClustered(records []*models.TransactionRecord, produced []*ClusterData) []*models.TransactionRecord {
	consumed := make(map[string]bool)
	for _, c := range produced {
		for _, r := range c.Records {
			consumed[r.ID] = true
		}
	}

	var rest []*models.TransactionRecord
	for _, r := range records {
		if !consumed[r.ID] {
			rest = append(rest, r)
		}
	}
	return rest
}

// sortClusters orders by status priority, then |amount| descending, with
// pivot id as a deterministic final tie-break.
func sortClusters(clusters []*ClusterData) {
	sort.SliceStable(clusters, func(i, j int) bool {
		pi, pj := statusPriority[clusters[i].Status], statusPriority[clusters[j].Status]
		if pi != pj {
			return pi < pj
		}

		ai, aj := abs64(clusters[i].AmountCents), abs64(clusters[j].AmountCents)
		if ai != aj {
			return ai > aj
		}

		return clusters[i].PivotID < clusters[j].PivotID
	})
}

// labelClusters assigns sequential human-readable labels per status group.
func labelClusters(clusters []*ClusterData) {
	counters := make(map[Status]int)
	for _, c := range clusters {
		counters[c.Status]++
		c.Notes = fmt.Sprintf("%s #%d", statusLabels[c.Status], counters[c.Status])
	}
}

// sortByAbsAmountDesc orders records largest-|amount| first, breaking
// ties by id so repeated runs produce identical output.
func sortByAbsAmountDesc(records []*models.TransactionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ai, aj := records[i].AbsAmountCents(), records[j].AbsAmountCents()
		if ai != aj {
			return ai > aj
		}
		return records[i].ID < records[j].ID
	})
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
