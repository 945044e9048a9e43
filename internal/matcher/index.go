package matcher

import (
	"payout-reconciliation-service/internal/models"
)

// LedgerIndex provides hash lookups over ledger entries for the exact-id
// and exact-reference passes, so those passes avoid full scans. Slices
// preserve input order; the first unmatched candidate in input order wins.
type LedgerIndex struct {
	ByTxID      map[string][]*models.TransactionRecord
	ByReference map[string][]*models.TransactionRecord
	All         []*models.TransactionRecord
}

// NewLedgerIndex builds an index from a slice of ledger entries.
func NewLedgerIndex(ledgers []*models.TransactionRecord) *LedgerIndex {
	index := &LedgerIndex{
		ByTxID:      make(map[string][]*models.TransactionRecord),
		ByReference: make(map[string][]*models.TransactionRecord),
		All:         ledgers,
	}

	for _, entry := range ledgers {
		if entry.TxID != "" {
			index.ByTxID[entry.TxID] = append(index.ByTxID[entry.TxID], entry)
		}
		if entry.Reference != "" {
			index.ByReference[entry.Reference] = append(index.ByReference[entry.Reference], entry)
		}
	}

	return index
}

// Stats reports index sizes, useful for debug logging at the boundary.
type IndexStats struct {
	TotalEntries  int `json:"total_entries"`
	DistinctTxIDs int `json:"distinct_tx_ids"`
	DistinctRefs  int `json:"distinct_refs"`
}

// GetStats returns statistics about the index
func (li *LedgerIndex) GetStats() IndexStats {
	return IndexStats{
		TotalEntries:  len(li.All),
		DistinctTxIDs: len(li.ByTxID),
		DistinctRefs:  len(li.ByReference),
	}
}

// matchState tracks which record ids have been claimed by earlier passes.
// It is threaded explicitly through the pass functions so the engine
// stays a pure function of its inputs.
type matchState struct {
	payouts map[string]bool
	ledgers map[string]bool
}

func newMatchState() *matchState {
	return &matchState{
		payouts: make(map[string]bool),
		ledgers: make(map[string]bool),
	}
}

func (ms *matchState) claim(payoutID, ledgerID string) {
	ms.payouts[payoutID] = true
	ms.ledgers[ledgerID] = true
}

func (ms *matchState) payoutMatched(id string) bool { return ms.payouts[id] }
func (ms *matchState) ledgerMatched(id string) bool { return ms.ledgers[id] }
