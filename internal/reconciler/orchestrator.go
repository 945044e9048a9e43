// Package reconciler provides the top-level entry point for a
// reconciliation run: it composes the matching engine, the exception
// clustering and the unmatched-amount calculation into one result set.
//
// A run is a pure, synchronous function of its inputs: two record slices
// and a settings value in, one Result out. Nothing is persisted, no
// network is touched, and no input slice is mutated, so concurrent runs
// on different jobs are safe.
package reconciler

import (
	"time"

	"payout-reconciliation-service/internal/cluster"
	"payout-reconciliation-service/internal/matcher"
	"payout-reconciliation-service/internal/models"
	"payout-reconciliation-service/pkg/errors"
	"payout-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
)

// Result is the complete output of one reconciliation run.
type Result struct {
	JobID                     string                      `json:"job_id"`
	Matches                   []*matcher.MatchResult      `json:"matches"`
	Clusters                  []*cluster.ClusterData      `json:"clusters"`
	UnmatchedPayouts          []*models.TransactionRecord `json:"unmatched_payouts"`
	UnmatchedLedger           []*models.TransactionRecord `json:"unmatched_ledger"`
	TotalUnmatchedAmountCents int64                       `json:"total_unmatched_amount_cents"`
	MatchedCount              int                         `json:"matched_count"`
	UnmatchedCount            int                         `json:"unmatched_count"`
	MatchRate                 float64                     `json:"match_rate"`
	ProcessedAt               time.Time                   `json:"processed_at"`
}

// Orchestrator runs reconciliation jobs. It holds only configuration and
// a logger; all per-run state is local to Reconcile.
type Orchestrator struct {
	settings *models.JobSettings
	logger   logger.Logger
}

// NewOrchestrator creates an orchestrator for the given job settings.
// Settings are validated here, at the caller boundary; the engine and
// cluster builder assume valid values.
func NewOrchestrator(settings *models.JobSettings) (*Orchestrator, error) {
	if settings == nil {
		settings = models.DefaultJobSettings()
	}

	if err := settings.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "job_settings", err).
			WithSuggestion("Check tolerance, time window, fuzzy threshold and max rows values")
	}

	return &Orchestrator{
		settings: settings.Clone(),
		logger:   logger.GetGlobalLogger().WithComponent("reconciliation_orchestrator"),
	}, nil
}

// Reconcile runs the four-pass matcher over the two lists, partitions the
// inputs into matched and unmatched, builds exception clusters with
// matched-record context, and computes the corrected unmatched total.
func (o *Orchestrator) Reconcile(payouts, ledgers []*models.TransactionRecord) (*Result, error) {
	jobID := uuid.NewString()

	log := o.logger.WithFields(logger.Fields{
		"job_id":  jobID,
		"payouts": len(payouts),
		"ledgers": len(ledgers),
	})
	log.Info("Starting reconciliation run")

	engine := matcher.NewMatchingEngine(o.settings)
	matches, matchedIDs := engine.RunWithState(payouts, ledgers)

	unmatchedPayouts := filterUnmatched(payouts, matchedIDs)
	unmatchedLedger := filterUnmatched(ledgers, matchedIDs)

	matchedRecords := make([]*models.TransactionRecord, 0, len(matchedIDs))
	for _, r := range payouts {
		if matchedIDs[r.ID] {
			matchedRecords = append(matchedRecords, r)
		}
	}
	for _, r := range ledgers {
		if matchedIDs[r.ID] {
			matchedRecords = append(matchedRecords, r)
		}
	}

	builder := cluster.NewClusterBuilder(matchedRecords)
	unmatched := make([]*models.TransactionRecord, 0, len(unmatchedPayouts)+len(unmatchedLedger))
	unmatched = append(unmatched, unmatchedPayouts...)
	unmatched = append(unmatched, unmatchedLedger...)

	clusters := builder.Build(unmatched)
	totalUnmatched := cluster.TotalUnmatchedCents(clusters, unmatched)

	result := &Result{
		JobID:                     jobID,
		Matches:                   matches,
		Clusters:                  clusters,
		UnmatchedPayouts:          unmatchedPayouts,
		UnmatchedLedger:           unmatchedLedger,
		TotalUnmatchedAmountCents: totalUnmatched,
		MatchedCount:              len(matches),
		UnmatchedCount:            len(unmatchedPayouts) + len(unmatchedLedger),
		MatchRate:                 matchRate(len(matches), len(payouts)),
		ProcessedAt:               time.Now().UTC(),
	}

	log.WithFields(logger.Fields{
		"matched":         result.MatchedCount,
		"unmatched":       result.UnmatchedCount,
		"clusters":        len(clusters),
		"unmatched_cents": totalUnmatched,
	}).Info("Reconciliation run completed")

	return result, nil
}

// Settings returns a copy of the orchestrator's job settings.
func (o *Orchestrator) Settings() *models.JobSettings {
	return o.settings.Clone()
}

func filterUnmatched(records []*models.TransactionRecord, matchedIDs map[string]bool) []*models.TransactionRecord {
	var unmatched []*models.TransactionRecord
	for _, r := range records {
		if !matchedIDs[r.ID] {
			unmatched = append(unmatched, r)
		}
	}
	return unmatched
}

// matchRate guards the zero-payout case: no payouts means rate 0.
func matchRate(matched, totalPayouts int) float64 {
	if totalPayouts == 0 {
		return 0
	}
	return float64(matched) / float64(totalPayouts)
}
