package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"payout-reconciliation-service/cmd/reconciler/config"
	"payout-reconciliation-service/internal/parsers"
	"payout-reconciliation-service/internal/reconciler"
	"payout-reconciliation-service/internal/reporter"
	apperrors "payout-reconciliation-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	payoutFile      string
	ledgerFile      string
	outputFormat    string
	outputFile      string
	amountTolerance int64
	timeWindow      float64
	fuzzyThreshold  int
	maxRows         int
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a payout export against the internal ledger",
	Long: `Reconcile matches outbound-payment records against internal ledger
entries using the four-pass pipeline (exact id, exact reference,
deterministic scoring, fuzzy reference similarity), then groups the
leftovers into labeled exception clusters.

Examples:
  # Basic reconciliation
  reconciler reconcile --payout-file payouts.csv --ledger-file ledger.csv

  # Custom tolerances and JSON output
  reconciler reconcile -p payouts.csv -l ledger.csv \
    --amount-tolerance 100 --time-window 48 --fuzzy-threshold 85 \
    --output-format json --output-file result.json`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&payoutFile, "payout-file", "p", "", "path to payout export CSV file (required)")
	reconcileCmd.Flags().StringVarP(&ledgerFile, "ledger-file", "l", "", "path to internal ledger CSV file (required)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Matching configuration flags
	reconcileCmd.Flags().Int64VarP(&amountTolerance, "amount-tolerance", "a", 100, "amount matching tolerance in cents")
	reconcileCmd.Flags().Float64VarP(&timeWindow, "time-window", "w", 72, "time matching window in hours")
	reconcileCmd.Flags().IntVarP(&fuzzyThreshold, "fuzzy-threshold", "t", 85, "minimum reference similarity for fuzzy matches (0-100)")
	reconcileCmd.Flags().IntVar(&maxRows, "max-rows", 10000, "maximum accepted rows per input file")

	reconcileCmd.MarkFlagRequired("payout-file")
	reconcileCmd.MarkFlagRequired("ledger-file")

	viper.BindPFlag("payout-file", reconcileCmd.Flags().Lookup("payout-file"))
	viper.BindPFlag("ledger-file", reconcileCmd.Flags().Lookup("ledger-file"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("amount-tolerance", reconcileCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("time-window", reconcileCmd.Flags().Lookup("time-window"))
	viper.BindPFlag("fuzzy-threshold", reconcileCmd.Flags().Lookup("fuzzy-threshold"))
	viper.BindPFlag("max-rows", reconcileCmd.Flags().Lookup("max-rows"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Viper values win so config files and env vars can override.
	payoutFile = viper.GetString("payout-file")
	ledgerFile = viper.GetString("ledger-file")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	amountTolerance = viper.GetInt64("amount-tolerance")
	timeWindow = viper.GetFloat64("time-window")
	fuzzyThreshold = viper.GetInt("fuzzy-threshold")
	maxRows = viper.GetInt("max-rows")

	if payoutFile == "" {
		return fmt.Errorf("payout-file is required")
	}
	if ledgerFile == "" {
		return fmt.Errorf("ledger-file is required")
	}

	if err := validateFileExists(payoutFile, "payout export file"); err != nil {
		return err
	}
	if err := validateFileExists(ledgerFile, "ledger file"); err != nil {
		return err
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	settings := config.CreateJobSettings(amountTolerance, timeWindow, fuzzyThreshold, maxRows)
	if err := settings.Validate(); err != nil {
		return apperrors.ValidationError(apperrors.CodeOutOfRange, "job_settings", nil, err).
			WithSuggestion("Check the amount-tolerance, time-window, fuzzy-threshold and max-rows flags")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	settings := config.CreateJobSettings(amountTolerance, timeWindow, fuzzyThreshold, maxRows)

	payoutParser, err := parsers.NewPayoutParser(config.CreatePayoutParserConfig(maxRows))
	if err != nil {
		return err
	}

	ledgerParser, err := parsers.NewLedgerParser(config.CreateLedgerParserConfig(maxRows))
	if err != nil {
		return err
	}

	payouts, payoutStats, err := payoutParser.ParseFileWithContext(ctx, payoutFile)
	if err != nil {
		return fmt.Errorf("failed to parse payout export: %w", err)
	}

	ledgers, ledgerStats, err := ledgerParser.ParseFileWithContext(ctx, ledgerFile)
	if err != nil {
		return fmt.Errorf("failed to parse ledger file: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Parsed %d payouts (%d row errors), %d ledger entries (%d row errors)\n",
			len(payouts), len(payoutStats.Errors), len(ledgers), len(ledgerStats.Errors))
	}

	orchestrator, err := reconciler.NewOrchestrator(settings)
	if err != nil {
		return err
	}

	result, err := orchestrator.Reconcile(payouts, ledgers)
	if err != nil {
		return apperrors.ReconciliationError(apperrors.CodeProcessingError, "matching", err)
	}

	reportConfig := config.CreateReportConfig(outputFormat)
	reportGenerator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := reportGenerator.GenerateReport(result, output); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryInternal, apperrors.CodeUnexpectedError, "failed to generate report")
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nReconciliation completed: %d matches, %d unmatched, match rate %.1f%%\n",
			result.MatchedCount, result.UnmatchedCount, result.MatchRate*100)
	}

	return nil
}
