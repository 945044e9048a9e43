package parsers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"payout-reconciliation-service/internal/models"
	"payout-reconciliation-service/pkg/errors"
	"payout-reconciliation-service/pkg/logger"
)

// RecordParser reads one CSV layout into TransactionRecords for a given
// source. PayoutParser and LedgerParser are thin constructors around it.
type RecordParser struct {
	*BaseParser
	config *RecordParserConfig
	source models.Source
	logger logger.Logger
}

// NewPayoutParser creates a parser for payout-provider exports.
func NewPayoutParser(config *RecordParserConfig) (*RecordParser, error) {
	if config == nil {
		config = DefaultPayoutParserConfig()
	}
	return newRecordParser(config, models.SourcePayout)
}

// NewLedgerParser creates a parser for internal ledger dumps.
func NewLedgerParser(config *RecordParserConfig) (*RecordParser, error) {
	if config == nil {
		config = DefaultLedgerParserConfig()
	}
	return newRecordParser(config, models.SourceLedger)
}

func newRecordParser(config *RecordParserConfig, source models.Source) (*RecordParser, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, config.Name+"_parser_config", err).
			WithSuggestion("Check the parser column configuration")
	}

	return &RecordParser{
		BaseParser: NewBaseParser(config.Parse),
		config:     config,
		source:     source,
		logger:     logger.GetGlobalLogger().WithComponent(config.Name + "_parser"),
	}, nil
}

// ParseFile parses a CSV file into transaction records.
func (rp *RecordParser) ParseFile(path string) ([]*models.TransactionRecord, *ParseStats, error) {
	return rp.ParseFileWithContext(context.Background(), path)
}

// ParseFileWithContext parses a CSV file with cancellation support.
func (rp *RecordParser) ParseFileWithContext(ctx context.Context, path string) ([]*models.TransactionRecord, *ParseStats, error) {
	rp.logger.WithFields(logger.Fields{
		"file_path": path,
		"source":    rp.source,
	}).Info("Starting record parsing")

	file, reader, err := rp.OpenFile(path)
	if err != nil {
		rp.logger.WithError(err).WithField("file_path", path).Error("Failed to open input file")
		return nil, nil, err
	}
	defer file.Close()

	records, stats, err := rp.parse(ctx, reader, path)
	if err != nil {
		return records, stats, err
	}

	rp.logger.WithFields(logger.Fields{
		"file_path":        path,
		"records_accepted": stats.RecordsAccepted,
		"row_errors":       len(stats.Errors),
	}).Info("Completed record parsing")

	return records, stats, nil
}

// ParseReader parses CSV content from any stream, mainly for tests and
// piped input.
func (rp *RecordParser) ParseReader(ctx context.Context, r io.Reader, name string) ([]*models.TransactionRecord, *ParseStats, error) {
	return rp.parse(ctx, rp.NewReader(r), name)
}

func (rp *RecordParser) parse(ctx context.Context, reader *csv.Reader, path string) ([]*models.TransactionRecord, *ParseStats, error) {
	stats := NewParseStats()
	line := 0

	header, err := reader.Read()
	if err != nil {
		return nil, stats, errors.ParseError(errors.CodeInvalidFormat, path, 1, "header", err)
	}
	line++

	positions, err := rp.ResolveHeaders(header, rp.config.RequiredColumns, rp.config.ColumnAliases)
	if err != nil {
		return nil, stats, errors.ParseError(errors.CodeMissingColumn, path, 1, "header", err).
			WithSuggestion(fmt.Sprintf("Ensure the CSV has the required columns: %v", rp.config.RequiredColumns))
	}

	var records []*models.TransactionRecord
	for {
		select {
		case <-ctx.Done():
			return records, stats, errors.InternalError(errors.CodeUnexpectedError, "record_parsing", ctx.Err())
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			stats.AddError(&ParseError{Line: line, Message: "malformed CSV row", Err: err})
			continue
		}

		stats.RecordsParsed++

		record, rowErr := rp.recordFromRow(row, positions)
		if rowErr != nil {
			rp.logger.WithError(rowErr).WithField("line", line).Warn("Skipping invalid row")
			stats.AddError(&ParseError{Line: line, Message: rowErr.Error(), Err: rowErr})
			continue
		}

		records = append(records, record)
		stats.RecordsAccepted++

		if max := rp.MaxRows(); max > 0 && stats.RecordsAccepted > max {
			return records, stats, rowLimitError(path, max)
		}
	}

	return records, stats, nil
}

// recordFromRow maps one CSV row onto a TransactionRecord, converting the
// amount to integer cents and stashing provider fields in the raw payload.
func (rp *RecordParser) recordFromRow(row []string, positions map[string]int) (*models.TransactionRecord, error) {
	rawAmount := Field(row, positions, colAmount)
	amountCents, err := models.ParseAmountCents(rawAmount)
	if err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidAmount, colAmount, rawAmount, err)
	}

	record := models.NewTransactionRecord(Field(row, positions, colID), amountCents, Field(row, positions, colCurrency), rp.source)
	record.TxID = Field(row, positions, colTxID)
	record.Timestamp = Field(row, positions, colTimestamp)
	record.Reference = Field(row, positions, colReference)
	record.MerchantID = Field(row, positions, colMerchantID)

	if status := Field(row, positions, colStatus); status != "" {
		record.Raw["status"] = status
		if models.ParsePayoutStatus(status) == models.StatusUnknown {
			rp.logger.WithField("status", status).Warn("Unrecognized payout status, using generic amount comparison")
		}
	}

	if entryType := Field(row, positions, colType); entryType != "" {
		record.Raw["type"] = entryType
		if models.ParseEntryType(entryType) == models.EntryUnknown {
			rp.logger.WithField("type", entryType).Warn("Unrecognized ledger entry type")
		}
	}

	if err := record.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidData, colID, record.ID, err)
	}

	return record, nil
}
