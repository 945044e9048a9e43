package cluster

import (
	"testing"

	"payout-reconciliation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unmatchedPayout(id string, amountCents int64, ref, status string) *models.TransactionRecord {
	r := models.NewTransactionRecord(id, amountCents, "USD", models.SourcePayout)
	r.Reference = ref
	if status != "" {
		r.Raw["status"] = status
	}
	return r
}

func unmatchedLedger(id string, amountCents int64, ref, entryType string) *models.TransactionRecord {
	r := models.NewTransactionRecord(id, amountCents, "USD", models.SourceLedger)
	r.Reference = ref
	if entryType != "" {
		r.Raw["type"] = entryType
	}
	return r
}

func findByStatus(clusters []*ClusterData, status Status) *ClusterData {
	for _, c := range clusters {
		if c.Status == status {
			return c
		}
	}
	return nil
}

func TestClusterBuilder_FailedPayouts(t *testing.T) {
	cb := NewClusterBuilder(nil)
	clusters := cb.Build([]*models.TransactionRecord{
		unmatchedPayout("P1", 5000, "", "FAILED"),
		unmatchedPayout("P2", 9000, "", "FAILED"),
		unmatchedPayout("P3", 1000, "", "SUCCESS"),
	})

	failed := findByStatus(clusters, StatusFailed)
	require.NotNil(t, failed)
	assert.Equal(t, 2, failed.Size)
	assert.Equal(t, int64(14000), failed.AmountCents)
	assert.Equal(t, "P2", failed.PivotID, "pivot should be the largest member")
	assert.False(t, failed.Status.HasCashImpact())

	// The successful payout falls through to a singleton.
	unmatched := findByStatus(clusters, StatusUnmatched)
	require.NotNil(t, unmatched)
	assert.Equal(t, "P3", unmatched.PivotID)
}

func TestClusterBuilder_NoiseRecords(t *testing.T) {
	cb := NewClusterBuilder(nil)
	clusters := cb.Build([]*models.TransactionRecord{
		unmatchedLedger("L1", -300, "NOISE-abc", ""),
		unmatchedLedger("L2", 450, "NOISE-def", ""),
	})

	require.Len(t, clusters, 1)
	noise := clusters[0]
	assert.Equal(t, StatusUnmatched, noise.Status)
	assert.Equal(t, 2, noise.Size)
	assert.Equal(t, int64(150), noise.AmountCents)
	assert.True(t, noise.Status.HasCashImpact(), "noise money is genuinely unaccounted")
}

func TestClusterBuilder_FeeGroup(t *testing.T) {
	matched := unmatchedPayout("MP1", 100000, "TXN-600", "SUCCESS")
	cb := NewClusterBuilder([]*models.TransactionRecord{matched})

	clusters := cb.Build([]*models.TransactionRecord{
		unmatchedLedger("L1", -100000, "TXN-600", "DEBIT"),
		unmatchedLedger("L2", -200, "TXN-600", "DEBIT"),
	})

	require.Len(t, clusters, 1)
	fee := clusters[0]
	assert.Equal(t, StatusFee, fee.Status)
	assert.Equal(t, 2, fee.Size)
	assert.Equal(t, int64(-100200), fee.AmountCents)
	assert.False(t, fee.Status.HasCashImpact())
}

func TestClusterBuilder_FeeGroupWithoutMatchedContext(t *testing.T) {
	// No matched transaction shares the reference, so the group's largest
	// member provides the comparison base.
	cb := NewClusterBuilder(nil)
	clusters := cb.Build([]*models.TransactionRecord{
		unmatchedLedger("L1", 10000, "TXN-100", ""),
		unmatchedLedger("L2", 150, "TXN-100", ""),
	})

	require.Len(t, clusters, 1)
	assert.Equal(t, StatusFee, clusters[0].Status)
	assert.Equal(t, 2, clusters[0].Size)
	assert.Equal(t, "L1", clusters[0].PivotID)
}

func TestClusterBuilder_SingleTrailingFee(t *testing.T) {
	matched := unmatchedPayout("MP1", 50000, "TXN-700", "SUCCESS")
	cb := NewClusterBuilder([]*models.TransactionRecord{matched})

	clusters := cb.Build([]*models.TransactionRecord{
		unmatchedLedger("L1", -150, "TXN-700", "DEBIT"),
	})

	require.Len(t, clusters, 1)
	assert.Equal(t, StatusFee, clusters[0].Status)
	assert.Equal(t, 1, clusters[0].Size)
}

func TestClusterBuilder_ReversalEcho(t *testing.T) {
	matched := unmatchedPayout("MP1", 5000, "TXN-500", "REVERSED")
	cb := NewClusterBuilder([]*models.TransactionRecord{matched})

	clusters := cb.Build([]*models.TransactionRecord{
		unmatchedLedger("L1", -5000, "TXN-500", "DEBIT"),
	})

	require.Len(t, clusters, 1)
	rev := clusters[0]
	assert.Equal(t, StatusReversed, rev.Status)
	assert.False(t, rev.Status.HasCashImpact())
}

func TestClusterBuilder_PartialGroup(t *testing.T) {
	cb := NewClusterBuilder(nil)
	clusters := cb.Build([]*models.TransactionRecord{
		unmatchedLedger("L1", -40000, "TXN-800", "DEBIT"),
		unmatchedLedger("L2", -30000, "TXN-800", "DEBIT"),
	})

	require.Len(t, clusters, 1)
	partial := clusters[0]
	assert.Equal(t, StatusPartial, partial.Status)
	assert.Equal(t, int64(-70000), partial.AmountCents)
	assert.Equal(t, "L1", partial.PivotID)
	assert.True(t, partial.Status.HasCashImpact())
}

func TestClusterBuilder_RemainderFee(t *testing.T) {
	matched := unmatchedPayout("MP1", 10000, "INV-9", "SUCCESS")
	cb := NewClusterBuilder([]*models.TransactionRecord{matched})

	clusters := cb.Build([]*models.TransactionRecord{
		unmatchedLedger("L1", -300, "INV-9", "DEBIT"),
		unmatchedLedger("L2", -8000, "INV-9", "DEBIT"),
	})

	require.Len(t, clusters, 2)
	fee := findByStatus(clusters, StatusFee)
	require.NotNil(t, fee)
	assert.Equal(t, "L1", fee.PivotID)

	unmatched := findByStatus(clusters, StatusUnmatched)
	require.NotNil(t, unmatched)
	assert.Equal(t, "L2", unmatched.PivotID)
}

func TestClusterBuilder_OrderingAndLabels(t *testing.T) {
	matched := unmatchedPayout("MP1", 5000, "TXN-500", "REVERSED")
	cb := NewClusterBuilder([]*models.TransactionRecord{matched})

	clusters := cb.Build([]*models.TransactionRecord{
		unmatchedPayout("P1", 2000, "", ""),
		unmatchedLedger("L1", -5000, "TXN-500", "DEBIT"),
		unmatchedPayout("P2", 9000, "", "FAILED"),
		unmatchedPayout("P3", 8000, "", ""),
	})

	require.Len(t, clusters, 4)
	assert.Equal(t, StatusFailed, clusters[0].Status)
	assert.Equal(t, StatusReversed, clusters[1].Status)
	assert.Equal(t, StatusUnmatched, clusters[2].Status)
	assert.Equal(t, StatusUnmatched, clusters[3].Status)

	// Same-status clusters sort by |amount| descending.
	assert.Equal(t, "P3", clusters[2].PivotID)
	assert.Equal(t, "P1", clusters[3].PivotID)

	assert.Equal(t, "Failed payouts #1", clusters[0].Notes)
	assert.Equal(t, "Reversal #1", clusters[1].Notes)
	assert.Equal(t, "Unmatched #1", clusters[2].Notes)
	assert.Equal(t, "Unmatched #2", clusters[3].Notes)
}

func TestClusterBuilder_RecordsAreDisjoint(t *testing.T) {
	cb := NewClusterBuilder(nil)
	input := []*models.TransactionRecord{
		unmatchedPayout("P1", 5000, "NOISE-1", "FAILED"),
		unmatchedLedger("L1", -40000, "TXN-800", "DEBIT"),
		unmatchedLedger("L2", -30000, "TXN-800", "DEBIT"),
		unmatchedPayout("P2", 100, "", ""),
	}

	clusters := cb.Build(input)

	seen := make(map[string]int)
	total := 0
	for _, c := range clusters {
		for _, r := range c.Records {
			seen[r.ID]++
			total++
		}
	}

	assert.Equal(t, len(input), total, "every record belongs to exactly one cluster")
	for id, count := range seen {
		assert.Equal(t, 1, count, "record %s appears in more than one cluster", id)
	}
}
