// Package models defines the transaction records, enums and job settings
// shared by the matching engine, the exception clustering and the
// ingestion/reporting boundaries.
//
// Amounts are always signed integer minor-currency units (cents); no
// floating-point money anywhere in the core. Decimal parsing happens only
// at the ingestion boundary via ParseAmountCents.
package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Source identifies which of the two reconciled lists a record came from.
type Source string

const (
	// SourcePayout marks outbound-payment records from the provider export.
	SourcePayout Source = "payout"
	// SourceLedger marks internal bookkeeping records.
	SourceLedger Source = "ledger"
)

// IsValid checks if the source is valid
func (s Source) IsValid() bool {
	return s == SourcePayout || s == SourceLedger
}

// PayoutStatus is the provider-reported state of a payout. Unrecognized
// values fold to StatusUnknown, which the amount comparator handles with
// its generic sign-agnostic branch.
type PayoutStatus string

const (
	StatusSuccess  PayoutStatus = "SUCCESS"
	StatusFailed   PayoutStatus = "FAILED"
	StatusReversed PayoutStatus = "REVERSED"
	StatusUnknown  PayoutStatus = ""
)

// EntryType is the bookkeeping direction of a ledger entry.
type EntryType string

const (
	EntryDebit   EntryType = "DEBIT"
	EntryCredit  EntryType = "CREDIT"
	EntryUnknown EntryType = ""
)

// ParsePayoutStatus parses a provider status string, folding case and
// common aliases. Unknown values do not fail; they map to StatusUnknown.
func ParsePayoutStatus(s string) PayoutStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUCCESS", "SUCCEEDED", "PAID", "SETTLED":
		return StatusSuccess
	case "FAILED", "FAILURE", "ERROR":
		return StatusFailed
	case "REVERSED", "REVERSAL", "REFUNDED":
		return StatusReversed
	default:
		return StatusUnknown
	}
}

// ParseEntryType parses a ledger entry type string, folding case and
// common bookkeeping abbreviations.
func ParseEntryType(s string) EntryType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBIT", "D", "DR":
		return EntryDebit
	case "CREDIT", "C", "CR":
		return EntryCredit
	default:
		return EntryUnknown
	}
}

// TransactionRecord is a single entry from either reconciled list.
// The Raw payload carries provider-specific fields ("status", "type")
// that are not first-class columns in every export.
type TransactionRecord struct {
	ID          string            `json:"id"`
	TxID        string            `json:"tx_id,omitempty"`
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Timestamp   string            `json:"timestamp"`
	Source      Source            `json:"source"`
	Reference   string            `json:"reference,omitempty"`
	MerchantID  string            `json:"merchant_id,omitempty"`
	Raw         map[string]string `json:"raw,omitempty"`
}

// NewTransactionRecord creates a record with an initialized raw payload.
func NewTransactionRecord(id string, amountCents int64, currency string, source Source) *TransactionRecord {
	return &TransactionRecord{
		ID:          id,
		AmountCents: amountCents,
		Currency:    currency,
		Source:      source,
		Raw:         make(map[string]string),
	}
}

// Status returns the parsed payout status from the raw payload.
func (r *TransactionRecord) Status() PayoutStatus {
	if r.Raw == nil {
		return StatusUnknown
	}
	return ParsePayoutStatus(r.Raw["status"])
}

// EntryType returns the parsed ledger entry type from the raw payload.
func (r *TransactionRecord) EntryType() EntryType {
	if r.Raw == nil {
		return EntryUnknown
	}
	return ParseEntryType(r.Raw["type"])
}

// AbsAmountCents returns the absolute value of the record amount.
func (r *TransactionRecord) AbsAmountCents() int64 {
	if r.AmountCents < 0 {
		return -r.AmountCents
	}
	return r.AmountCents
}

// Validate performs basic validation on the record
func (r *TransactionRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("record ID cannot be empty")
	}

	if !r.Source.IsValid() {
		return fmt.Errorf("invalid record source: %s", r.Source)
	}

	return nil
}

// String returns a string representation of the record
func (r *TransactionRecord) String() string {
	return fmt.Sprintf("TransactionRecord{ID: %s, TxID: %s, Amount: %d, Source: %s, Ref: %s}",
		r.ID, r.TxID, r.AmountCents, r.Source, r.Reference)
}

// JobSettings controls matching tolerances for a single reconciliation
// run. Settings are validated at the caller boundary; the engine itself
// assumes a valid value.
type JobSettings struct {
	AmountToleranceCents int64   `json:"amount_tolerance_cents"`
	TimeWindowHours      float64 `json:"time_window_hours"`
	FuzzyThreshold       int     `json:"fuzzy_threshold"`
	MaxRows              int     `json:"max_rows"`
}

// DefaultJobSettings returns settings with sensible defaults.
func DefaultJobSettings() *JobSettings {
	return &JobSettings{
		AmountToleranceCents: 100,
		TimeWindowHours:      72,
		FuzzyThreshold:       85,
		MaxRows:              10000,
	}
}

// Validate checks that the job settings are usable.
func (s *JobSettings) Validate() error {
	if s.AmountToleranceCents < 0 {
		return fmt.Errorf("amount tolerance cannot be negative: %d", s.AmountToleranceCents)
	}

	if s.TimeWindowHours < 0 {
		return fmt.Errorf("time window cannot be negative: %f", s.TimeWindowHours)
	}

	if s.FuzzyThreshold < 0 || s.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy threshold must be between 0 and 100: %d", s.FuzzyThreshold)
	}

	if s.MaxRows <= 0 {
		return fmt.Errorf("max rows must be positive: %d", s.MaxRows)
	}

	return nil
}

// Clone creates a copy of the job settings
func (s *JobSettings) Clone() *JobSettings {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// ParseAmountCents parses a decimal amount string ("123.45", "-1,200.00",
// "$15") into signed integer cents. Fractional sub-cent digits are
// rejected rather than rounded away.
func ParseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	cents := d.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount '%s' has sub-cent precision", s)
	}

	return cents.IntPart(), nil
}

// FormatCents renders integer cents as a decimal currency string.
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
