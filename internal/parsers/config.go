package parsers

import (
	"fmt"
	"strings"
)

// Canonical column names used internally by both parsers.
const (
	colID         = "id"
	colTxID       = "tx_id"
	colAmount     = "amount"
	colCurrency   = "currency"
	colTimestamp  = "timestamp"
	colReference  = "reference"
	colMerchantID = "merchant_id"
	colStatus     = "status"
	colType       = "type"
)

// RecordParserConfig describes one CSV layout: which canonical columns
// are required and how provider-specific header names map onto them.
type RecordParserConfig struct {
	Name            string            `json:"name"`
	RequiredColumns []string          `json:"required_columns"`
	ColumnAliases   map[string]string `json:"column_aliases"`
	Parse           *ParseConfig      `json:"-"`
}

// Validate checks that the parser configuration is usable.
func (c *RecordParserConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("parser name cannot be empty")
	}

	if len(c.RequiredColumns) == 0 {
		return fmt.Errorf("at least one required column must be configured")
	}

	for alias, canonical := range c.ColumnAliases {
		if strings.TrimSpace(alias) == "" || strings.TrimSpace(canonical) == "" {
			return fmt.Errorf("column alias entries cannot be empty")
		}
	}

	if c.Parse != nil && c.Parse.MaxRows < 0 {
		return fmt.Errorf("max rows cannot be negative: %d", c.Parse.MaxRows)
	}

	return nil
}

// DefaultPayoutParserConfig returns the layout of a typical payout
// provider export.
func DefaultPayoutParserConfig() *RecordParserConfig {
	return &RecordParserConfig{
		Name:            "payout",
		RequiredColumns: []string{colID, colAmount},
		ColumnAliases: map[string]string{
			"payout_id":      colID,
			"record_id":      colID,
			"transaction_id": colTxID,
			"txn_id":         colTxID,
			"trx_id":         colTxID,
			"amt":            colAmount,
			"value":          colAmount,
			"ccy":            colCurrency,
			"currency_code":  colCurrency,
			"time":           colTimestamp,
			"datetime":       colTimestamp,
			"created_at":     colTimestamp,
			"date":           colTimestamp,
			"ref":            colReference,
			"description":    colReference,
			"merchant":       colMerchantID,
			"payout_status":  colStatus,
			"state":          colStatus,
		},
		Parse: DefaultParseConfig(),
	}
}

// DefaultLedgerParserConfig returns the layout of a typical internal
// ledger dump.
func DefaultLedgerParserConfig() *RecordParserConfig {
	return &RecordParserConfig{
		Name:            "ledger",
		RequiredColumns: []string{colID, colAmount},
		ColumnAliases: map[string]string{
			"entry_id":       colID,
			"ledger_id":      colID,
			"transaction_id": colTxID,
			"txn_id":         colTxID,
			"trx_id":         colTxID,
			"amt":            colAmount,
			"value":          colAmount,
			"ccy":            colCurrency,
			"currency_code":  colCurrency,
			"time":           colTimestamp,
			"datetime":       colTimestamp,
			"booked_at":      colTimestamp,
			"date":           colTimestamp,
			"ref":            colReference,
			"description":    colReference,
			"merchant":       colMerchantID,
			"entry_type":     colType,
			"debit_credit":   colType,
			"direction":      colType,
		},
		Parse: DefaultParseConfig(),
	}
}
