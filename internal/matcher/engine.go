// Package matcher implements the four-pass deterministic matching
// pipeline between payout records and ledger entries.
//
// Passes run in order, each only considering records no earlier pass has
// claimed; within a pass a payout matches at most one ledger entry:
//
//  1. Exact transaction id
//  2. Exact reference string, amount-eligible
//  3. Deterministic weighted scoring over amount/time/reference
//  4. Fuzzy reference similarity as the deciding factor
//
// Scores are a weighted sum of four components with fixed weights
// (exact 40, amount 25, time 20, fuzzy 15), normalized to [0,1].
package matcher

import (
	"payout-reconciliation-service/internal/compare"
	"payout-reconciliation-service/internal/models"
)

// MatchType classifies how a match was established.
type MatchType string

const (
	MatchExact         MatchType = "exact"
	MatchDeterministic MatchType = "deterministic"
	MatchFuzzy         MatchType = "fuzzy"
)

// ConfidenceLevel buckets the overall score for reviewers.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Fixed component weights. The weighted score is
// sum(component*weight)/sum(weights).
const (
	weightExact  = 40.0
	weightAmount = 25.0
	weightTime   = 20.0
	weightFuzzy  = 15.0
	weightTotal  = weightExact + weightAmount + weightTime + weightFuzzy
)

// Acceptance thresholds per pass, and confidence boundaries.
const (
	exactReferenceThreshold = 0.5
	deterministicThreshold  = 0.5
	fuzzyThreshold          = 0.4

	confidenceHighMin   = 0.85
	confidenceMediumMin = 0.6
)

// ScoreBreakdown records the four component scores and their fixed
// weights for a match, so reviewers can see why a pair was accepted.
type ScoreBreakdown struct {
	ExactScore   float64 `json:"exact_score"`
	AmountScore  float64 `json:"amount_score"`
	TimeScore    float64 `json:"time_score"`
	FuzzyScore   float64 `json:"fuzzy_score"`
	ExactWeight  float64 `json:"exact_weight"`
	AmountWeight float64 `json:"amount_weight"`
	TimeWeight   float64 `json:"time_weight"`
	FuzzyWeight  float64 `json:"fuzzy_weight"`
}

// MatchResult pairs one payout with one ledger entry. Each record id
// appears in at most one MatchResult, in one role.
type MatchResult struct {
	PayoutID   string          `json:"payout_id"`
	LedgerID   string          `json:"ledger_id"`
	Score      float64         `json:"score"`
	Breakdown  ScoreBreakdown  `json:"score_breakdown"`
	MatchType  MatchType       `json:"match_type"`
	Confidence ConfidenceLevel `json:"confidence_level"`
}

// MatchingEngine runs the four-pass pipeline for a single job. It holds
// no mutable state between runs; concurrent runs on different inputs are
// safe.
type MatchingEngine struct {
	settings *models.JobSettings
	amounts  *compare.AmountComparator
}

// NewMatchingEngine creates an engine for the given job settings.
func NewMatchingEngine(settings *models.JobSettings) *MatchingEngine {
	if settings == nil {
		settings = models.DefaultJobSettings()
	}

	return &MatchingEngine{
		settings: settings,
		amounts:  compare.NewAmountComparator(settings.AmountToleranceCents),
	}
}

// Run executes all four passes and returns the accepted matches in pass
// order. The returned match state is discarded; use RunWithState when the
// caller needs to partition the inputs afterwards.
func (e *MatchingEngine) Run(payouts, ledgers []*models.TransactionRecord) []*MatchResult {
	matches, _ := e.RunWithState(payouts, ledgers)
	return matches
}

// RunWithState executes the pipeline and also returns the id sets of
// matched payouts and ledger entries.
func (e *MatchingEngine) RunWithState(payouts, ledgers []*models.TransactionRecord) ([]*MatchResult, map[string]bool) {
	index := NewLedgerIndex(ledgers)
	state := newMatchState()

	var matches []*MatchResult
	matches = append(matches, e.exactIDPass(payouts, index, state)...)
	matches = append(matches, e.exactReferencePass(payouts, index, state)...)
	matches = append(matches, e.deterministicPass(payouts, ledgers, state)...)
	matches = append(matches, e.fuzzyPass(payouts, ledgers, state)...)

	matched := make(map[string]bool, len(matches)*2)
	for _, m := range matches {
		matched[m.PayoutID] = true
		matched[m.LedgerID] = true
	}

	return matches, matched
}

// exactIDPass matches payouts to ledger entries sharing a transaction id.
// The transaction id is treated as authoritative: the match is recorded
// even when the amount comparator disagrees, with the amount component
// scoring 0.
func (e *MatchingEngine) exactIDPass(payouts []*models.TransactionRecord, index *LedgerIndex, state *matchState) []*MatchResult {
	var matches []*MatchResult

	for _, payout := range payouts {
		if payout.TxID == "" || state.payoutMatched(payout.ID) {
			continue
		}

		for _, entry := range index.ByTxID[payout.TxID] {
			if state.ledgerMatched(entry.ID) {
				continue
			}

			amountScore := 0.0
			if e.amounts.Eligible(payout, entry) {
				amountScore = 1.0
			}

			match := e.buildResult(payout, entry, MatchExact, ScoreBreakdown{
				ExactScore:  1,
				AmountScore: amountScore,
				TimeScore:   1,
				FuzzyScore:  1,
			})

			matches = append(matches, match)
			state.claim(payout.ID, entry.ID)
			break
		}
	}

	return matches
}

// exactReferencePass matches payouts to ledger entries with an identical
// non-empty reference, requiring amount eligibility. Unknown time
// distance scores 0 here; this pass is stricter than the scan passes.
func (e *MatchingEngine) exactReferencePass(payouts []*models.TransactionRecord, index *LedgerIndex, state *matchState) []*MatchResult {
	var matches []*MatchResult

	for _, payout := range payouts {
		if payout.Reference == "" || state.payoutMatched(payout.ID) {
			continue
		}
		if payout.Status() == models.StatusFailed {
			continue
		}

		for _, entry := range index.ByReference[payout.Reference] {
			if state.ledgerMatched(entry.ID) {
				continue
			}
			if !e.amounts.Eligible(payout, entry) {
				continue
			}

			timeScore := 0.0
			if hours, ok := compare.HourDistance(payout.Timestamp, entry.Timestamp); ok && hours <= e.settings.TimeWindowHours {
				timeScore = 1
			}

			breakdown := ScoreBreakdown{
				ExactScore:  1,
				AmountScore: e.amounts.Score(payout, entry),
				TimeScore:   timeScore,
				FuzzyScore:  1,
			}

			if weightedScore(breakdown) < exactReferenceThreshold {
				continue
			}

			matches = append(matches, e.buildResult(payout, entry, MatchExact, breakdown))
			state.claim(payout.ID, entry.ID)
			break
		}
	}

	return matches
}

// deterministicPass scans remaining ledger entries for each remaining
// payout, keeping the strictly-highest-scoring amount-eligible candidate
// inside the time window. Unknown time distance passes the window check
// and scores a neutral 0.5.
func (e *MatchingEngine) deterministicPass(payouts, ledgers []*models.TransactionRecord, state *matchState) []*MatchResult {
	return e.scanPass(payouts, ledgers, state, MatchDeterministic, deterministicThreshold, 0)
}

// fuzzyPass repeats the deterministic scan but only considers candidates
// whose reference similarity clears the configured threshold, accepting
// at a lower overall score.
func (e *MatchingEngine) fuzzyPass(payouts, ledgers []*models.TransactionRecord, state *matchState) []*MatchResult {
	minFuzzy := float64(e.settings.FuzzyThreshold) / 100
	return e.scanPass(payouts, ledgers, state, MatchFuzzy, fuzzyThreshold, minFuzzy)
}

// scanPass implements the shared candidate scan of passes 3 and 4.
// minFuzzy = 0 disables the similarity gate.
func (e *MatchingEngine) scanPass(payouts, ledgers []*models.TransactionRecord, state *matchState, matchType MatchType, threshold, minFuzzy float64) []*MatchResult {
	var matches []*MatchResult

	for _, payout := range payouts {
		if state.payoutMatched(payout.ID) {
			continue
		}
		if payout.Status() == models.StatusFailed {
			continue
		}

		var best *MatchResult
		for _, entry := range ledgers {
			if state.ledgerMatched(entry.ID) {
				continue
			}
			if !e.amounts.Eligible(payout, entry) {
				continue
			}

			timeScore := 0.5
			if hours, ok := compare.HourDistance(payout.Timestamp, entry.Timestamp); ok {
				if hours > e.settings.TimeWindowHours {
					continue
				}
				timeScore = timeDecay(hours, e.settings.TimeWindowHours)
			}

			fuzzyScore := float64(compare.TokenSortRatio(payout.Reference, entry.Reference)) / 100
			if minFuzzy > 0 && fuzzyScore < minFuzzy {
				continue
			}

			candidate := e.buildResult(payout, entry, matchType, ScoreBreakdown{
				AmountScore: e.amounts.Score(payout, entry),
				TimeScore:   timeScore,
				FuzzyScore:  fuzzyScore,
			})

			// First candidate wins ties.
			if best == nil || candidate.Score > best.Score {
				best = candidate
			}
		}

		if best != nil && best.Score >= threshold {
			matches = append(matches, best)
			state.claim(best.PayoutID, best.LedgerID)
		}
	}

	return matches
}

// timeDecay scores a known hour distance linearly inside the window.
// A zero window admits only zero-distance candidates, which score 1.
func timeDecay(hours, window float64) float64 {
	if window == 0 {
		return 1
	}

	score := 1 - hours/window
	if score < 0 {
		return 0
	}
	return score
}

func (e *MatchingEngine) buildResult(payout, ledger *models.TransactionRecord, matchType MatchType, breakdown ScoreBreakdown) *MatchResult {
	breakdown.ExactWeight = weightExact
	breakdown.AmountWeight = weightAmount
	breakdown.TimeWeight = weightTime
	breakdown.FuzzyWeight = weightFuzzy

	score := weightedScore(breakdown)

	return &MatchResult{
		PayoutID:   payout.ID,
		LedgerID:   ledger.ID,
		Score:      score,
		Breakdown:  breakdown,
		MatchType:  matchType,
		Confidence: confidenceFor(score),
	}
}

func weightedScore(b ScoreBreakdown) float64 {
	return (b.ExactScore*weightExact +
		b.AmountScore*weightAmount +
		b.TimeScore*weightTime +
		b.FuzzyScore*weightFuzzy) / weightTotal
}

func confidenceFor(score float64) ConfidenceLevel {
	switch {
	case score >= confidenceHighMin:
		return ConfidenceHigh
	case score >= confidenceMediumMin:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
