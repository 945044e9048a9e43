package reconciler

import (
	"testing"

	"payout-reconciliation-service/internal/cluster"
	"payout-reconciliation-service/internal/models"
	apperrors "payout-reconciliation-service/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payoutRecord(id string, amountCents int64, txID, ref, status string) *models.TransactionRecord {
	r := models.NewTransactionRecord(id, amountCents, "USD", models.SourcePayout)
	r.TxID = txID
	r.Reference = ref
	if status != "" {
		r.Raw["status"] = status
	}
	return r
}

func ledgerRecord(id string, amountCents int64, txID, ref, entryType string) *models.TransactionRecord {
	r := models.NewTransactionRecord(id, amountCents, "USD", models.SourceLedger)
	r.TxID = txID
	r.Reference = ref
	if entryType != "" {
		r.Raw["type"] = entryType
	}
	return r
}

func TestNewOrchestrator_InvalidSettings(t *testing.T) {
	settings := models.DefaultJobSettings()
	settings.FuzzyThreshold = 150

	_, err := NewOrchestrator(settings)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfiguration))
}

func TestOrchestrator_Reconcile(t *testing.T) {
	payouts := []*models.TransactionRecord{
		payoutRecord("P1", 10000, "TX-1", "TXN-100", "SUCCESS"),
		payoutRecord("P2", 5000, "", "TXN-200", "SUCCESS"),
		payoutRecord("P3", 7000, "", "", "FAILED"),
	}
	ledgers := []*models.TransactionRecord{
		ledgerRecord("L1", -10000, "TX-1", "TXN-100", "DEBIT"),
		ledgerRecord("L2", -5000, "", "TXN-200", "DEBIT"),
		ledgerRecord("L3", -42000, "", "TXN-999", "DEBIT"),
	}

	o, err := NewOrchestrator(models.DefaultJobSettings())
	require.NoError(t, err)

	result, err := o.Reconcile(payouts, ledgers)
	require.NoError(t, err)

	assert.NotEmpty(t, result.JobID)
	assert.Equal(t, 2, result.MatchedCount)
	assert.Equal(t, 2, result.UnmatchedCount)
	assert.InDelta(t, 2.0/3.0, result.MatchRate, 1e-9)
	assert.False(t, result.ProcessedAt.IsZero())

	require.Len(t, result.UnmatchedPayouts, 1)
	assert.Equal(t, "P3", result.UnmatchedPayouts[0].ID)
	require.Len(t, result.UnmatchedLedger, 1)
	assert.Equal(t, "L3", result.UnmatchedLedger[0].ID)

	// The failed payout clusters without cash impact; the stray ledger
	// debit carries the full discrepancy.
	require.Len(t, result.Clusters, 2)
	assert.Equal(t, cluster.StatusFailed, result.Clusters[0].Status)
	assert.Equal(t, cluster.StatusUnmatched, result.Clusters[1].Status)
	assert.Equal(t, int64(-42000), result.TotalUnmatchedAmountCents)

	// The corrected total can never exceed the gross unmatched volume.
	var gross int64
	for _, r := range result.UnmatchedPayouts {
		gross += r.AbsAmountCents()
	}
	for _, r := range result.UnmatchedLedger {
		gross += r.AbsAmountCents()
	}
	total := result.TotalUnmatchedAmountCents
	if total < 0 {
		total = -total
	}
	assert.LessOrEqual(t, total, gross)
}

func TestOrchestrator_Reconcile_NoPayouts(t *testing.T) {
	o, err := NewOrchestrator(nil)
	require.NoError(t, err)

	result, err := o.Reconcile(nil, []*models.TransactionRecord{
		ledgerRecord("L1", -5000, "", "", "DEBIT"),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.MatchedCount)
	assert.Equal(t, 0.0, result.MatchRate)
	assert.Equal(t, 1, result.UnmatchedCount)
	assert.Equal(t, int64(-5000), result.TotalUnmatchedAmountCents)
}

func TestOrchestrator_Reconcile_Deterministic(t *testing.T) {
	build := func() ([]*models.TransactionRecord, []*models.TransactionRecord) {
		payouts := []*models.TransactionRecord{
			payoutRecord("P1", 10000, "TX-1", "", "SUCCESS"),
			payoutRecord("P2", 5000, "", "TXN-200", "SUCCESS"),
		}
		ledgers := []*models.TransactionRecord{
			ledgerRecord("L1", -10000, "TX-1", "", "DEBIT"),
			ledgerRecord("L2", -5000, "", "TXN-200", "DEBIT"),
			ledgerRecord("L3", 333, "", "", ""),
		}
		return payouts, ledgers
	}

	o, err := NewOrchestrator(models.DefaultJobSettings())
	require.NoError(t, err)

	p1, l1 := build()
	first, err := o.Reconcile(p1, l1)
	require.NoError(t, err)

	p2, l2 := build()
	second, err := o.Reconcile(p2, l2)
	require.NoError(t, err)

	// Same inputs, same outcome; only the job id and timestamp differ.
	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, first.MatchedCount, second.MatchedCount)
	assert.Equal(t, first.TotalUnmatchedAmountCents, second.TotalUnmatchedAmountCents)
	require.Len(t, second.Clusters, len(first.Clusters))
	for i := range first.Clusters {
		assert.Equal(t, first.Clusters[i].PivotID, second.Clusters[i].PivotID)
		assert.Equal(t, first.Clusters[i].Status, second.Clusters[i].Status)
		assert.Equal(t, first.Clusters[i].Notes, second.Clusters[i].Notes)
	}
}

func TestOrchestrator_Settings_ReturnsCopy(t *testing.T) {
	settings := models.DefaultJobSettings()
	o, err := NewOrchestrator(settings)
	require.NoError(t, err)

	copy := o.Settings()
	copy.FuzzyThreshold = 1
	assert.Equal(t, 85, o.Settings().FuzzyThreshold)
}
