// Package reporter renders reconciliation results for people and
// machines. Three formats are supported: console (human-readable
// tables), JSON (full result for programmatic consumers) and CSV
// (match rows for spreadsheet review).
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"payout-reconciliation-service/internal/matcher"
	"payout-reconciliation-service/internal/models"
	"payout-reconciliation-service/internal/reconciler"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Console detail options
	IncludeMatches          bool `json:"include_matches"`
	IncludeClusters         bool `json:"include_clusters"`
	IncludeUnmatchedRecords bool `json:"include_unmatched_records"`
	MaxListedRecords        int  `json:"max_listed_records"`

	// CSV options. CSV output always contains the match rows; clusters
	// and unmatched records are console/JSON concerns.
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:                  FormatConsole,
		IncludeMatches:          false,
		IncludeClusters:         true,
		IncludeUnmatchedRecords: true,
		MaxListedRecords:        50,
		CSVDelimiter:            ',',
		CSVHeaders:              true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.MaxListedRecords < 0 {
		return fmt.Errorf("max listed records cannot be negative: %d", c.MaxListedRecords)
	}

	return nil
}

// ReportGenerator renders reconciliation results in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders the result to the writer.
func (rg *ReportGenerator) GenerateReport(result *reconciler.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("reconciliation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(result *reconciler.Result, writer io.Writer) error {
	fmt.Fprintf(writer, "PAYOUT RECONCILIATION REPORT\n")
	fmt.Fprintf(writer, "Job: %s\n", result.JobID)
	fmt.Fprintf(writer, "Generated: %s\n\n", result.ProcessedAt.Format(time.RFC3339))

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "Matched pairs:        %d\n", result.MatchedCount)
	fmt.Fprintf(writer, "Unmatched records:    %d\n", result.UnmatchedCount)
	fmt.Fprintf(writer, "  payouts:            %d\n", len(result.UnmatchedPayouts))
	fmt.Fprintf(writer, "  ledger entries:     %d\n", len(result.UnmatchedLedger))
	fmt.Fprintf(writer, "Match rate:           %.1f%%\n", result.MatchRate*100)
	fmt.Fprintf(writer, "Unmatched cash total: %s\n\n", models.FormatCents(result.TotalUnmatchedAmountCents))

	fmt.Fprintf(writer, "=== MATCH QUALITY ===\n")
	rg.printMatchQuality(result.Matches, writer)
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeClusters && len(result.Clusters) > 0 {
		fmt.Fprintf(writer, "=== EXCEPTION CLUSTERS ===\n")
		for _, c := range result.Clusters {
			impact := "cash impact"
			if !c.Status.HasCashImpact() {
				impact = "no cash impact"
			}
			fmt.Fprintf(writer, "%-24s %-10s %3d record(s)  %12s  (%s)\n",
				c.Notes, c.Status, c.Size, models.FormatCents(c.AmountCents), impact)
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeMatches && len(result.Matches) > 0 {
		fmt.Fprintf(writer, "=== MATCHES ===\n")
		for i, m := range result.Matches {
			if rg.config.MaxListedRecords > 0 && i >= rg.config.MaxListedRecords {
				fmt.Fprintf(writer, "... %d more\n", len(result.Matches)-i)
				break
			}
			fmt.Fprintf(writer, "%-16s -> %-16s score=%.3f type=%-13s confidence=%s\n",
				m.PayoutID, m.LedgerID, m.Score, m.MatchType, m.Confidence)
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeUnmatchedRecords {
		rg.printUnmatched(writer, "UNMATCHED PAYOUTS", result.UnmatchedPayouts)
		rg.printUnmatched(writer, "UNMATCHED LEDGER ENTRIES", result.UnmatchedLedger)
	}

	return nil
}

func (rg *ReportGenerator) printMatchQuality(matches []*matcher.MatchResult, writer io.Writer) {
	byType := make(map[matcher.MatchType]int)
	byConfidence := make(map[matcher.ConfidenceLevel]int)
	for _, m := range matches {
		byType[m.MatchType]++
		byConfidence[m.Confidence]++
	}

	fmt.Fprintf(writer, "Exact:         %d\n", byType[matcher.MatchExact])
	fmt.Fprintf(writer, "Deterministic: %d\n", byType[matcher.MatchDeterministic])
	fmt.Fprintf(writer, "Fuzzy:         %d\n", byType[matcher.MatchFuzzy])
	fmt.Fprintf(writer, "High / medium / low confidence: %d / %d / %d\n",
		byConfidence[matcher.ConfidenceHigh],
		byConfidence[matcher.ConfidenceMedium],
		byConfidence[matcher.ConfidenceLow])
}

func (rg *ReportGenerator) printUnmatched(writer io.Writer, title string, records []*models.TransactionRecord) {
	if len(records) == 0 {
		return
	}

	fmt.Fprintf(writer, "=== %s ===\n", title)
	for i, r := range records {
		if rg.config.MaxListedRecords > 0 && i >= rg.config.MaxListedRecords {
			fmt.Fprintf(writer, "... %d more\n", len(records)-i)
			break
		}
		fmt.Fprintf(writer, "%-16s %12s  ref=%s\n", r.ID, models.FormatCents(r.AmountCents), r.Reference)
	}
	fmt.Fprintf(writer, "\n")
}

func (rg *ReportGenerator) generateJSONReport(result *reconciler.Result, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (rg *ReportGenerator) generateCSVReport(result *reconciler.Result, writer io.Writer) error {
	w := csv.NewWriter(writer)
	w.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		if err := w.Write([]string{"payout_id", "ledger_id", "score", "match_type", "confidence_level"}); err != nil {
			return err
		}
	}

	for _, m := range result.Matches {
		row := []string{
			m.PayoutID,
			m.LedgerID,
			strconv.FormatFloat(m.Score, 'f', 4, 64),
			string(m.MatchType),
			string(m.Confidence),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
