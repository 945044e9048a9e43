// Package config translates CLI flag values into the component
// configurations the reconciliation pipeline consumes.
package config

import (
	"payout-reconciliation-service/internal/models"
	"payout-reconciliation-service/internal/parsers"
	"payout-reconciliation-service/internal/reporter"
)

// CreateJobSettings builds job settings from CLI flag values.
func CreateJobSettings(amountToleranceCents int64, timeWindowHours float64, fuzzyThreshold, maxRows int) *models.JobSettings {
	settings := models.DefaultJobSettings()

	settings.AmountToleranceCents = amountToleranceCents
	settings.TimeWindowHours = timeWindowHours
	settings.FuzzyThreshold = fuzzyThreshold
	settings.MaxRows = maxRows

	return settings
}

// CreatePayoutParserConfig builds the payout parser configuration with
// the CLI row cap applied.
func CreatePayoutParserConfig(maxRows int) *parsers.RecordParserConfig {
	config := parsers.DefaultPayoutParserConfig()
	config.Parse.MaxRows = maxRows
	return config
}

// CreateLedgerParserConfig builds the ledger parser configuration with
// the CLI row cap applied.
func CreateLedgerParserConfig(maxRows int) *parsers.RecordParserConfig {
	config := parsers.DefaultLedgerParserConfig()
	config.Parse.MaxRows = maxRows
	return config
}

// CreateReportConfig creates a report configuration for the specified
// output format.
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
		config.IncludeClusters = true
		config.IncludeUnmatchedRecords = true
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	}

	return config
}
