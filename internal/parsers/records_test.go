package parsers

import (
	"context"
	"strings"
	"testing"

	"payout-reconciliation-service/internal/models"
	apperrors "payout-reconciliation-service/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordParser_ParseReader_Payouts(t *testing.T) {
	csvData := strings.Join([]string{
		"payout_id,transaction_id,amt,ccy,created_at,ref,payout_status",
		"P1,TX-1,150.00,USD,2024-01-15T10:00:00Z,TXN-100,SUCCESS",
		"P2,,25.50,USD,2024-01-16,TXN-200,failed",
	}, "\n")

	parser, err := NewPayoutParser(nil)
	require.NoError(t, err)

	records, stats, err := parser.ParseReader(context.Background(), strings.NewReader(csvData), "payouts.csv")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, stats.RecordsAccepted)
	assert.False(t, stats.HasErrors())

	first := records[0]
	assert.Equal(t, "P1", first.ID)
	assert.Equal(t, "TX-1", first.TxID)
	assert.Equal(t, int64(15000), first.AmountCents)
	assert.Equal(t, "USD", first.Currency)
	assert.Equal(t, "TXN-100", first.Reference)
	assert.Equal(t, models.SourcePayout, first.Source)
	assert.Equal(t, models.StatusSuccess, first.Status())

	assert.Equal(t, models.StatusFailed, records[1].Status())
}

func TestRecordParser_ParseReader_Ledger(t *testing.T) {
	csvData := strings.Join([]string{
		"entry_id,amount,entry_type,booked_at",
		"L1,-150.00,DR,2024-01-15T10:05:00Z",
		"L2,3.00,credit,2024-01-15T11:00:00Z",
	}, "\n")

	parser, err := NewLedgerParser(nil)
	require.NoError(t, err)

	records, _, err := parser.ParseReader(context.Background(), strings.NewReader(csvData), "ledger.csv")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.SourceLedger, records[0].Source)
	assert.Equal(t, int64(-15000), records[0].AmountCents)
	assert.Equal(t, models.EntryDebit, records[0].EntryType())
	assert.Equal(t, models.EntryCredit, records[1].EntryType())
}

func TestRecordParser_RowErrorsAccumulate(t *testing.T) {
	csvData := strings.Join([]string{
		"id,amount",
		"P1,100.00",
		"P2,not-a-number",
		",50.00",
		"P4,75.25",
	}, "\n")

	parser, err := NewPayoutParser(nil)
	require.NoError(t, err)

	records, stats, err := parser.ParseReader(context.Background(), strings.NewReader(csvData), "payouts.csv")
	require.NoError(t, err, "row failures must not abort the file")
	require.Len(t, records, 2)
	assert.Equal(t, "P1", records[0].ID)
	assert.Equal(t, "P4", records[1].ID)

	assert.Equal(t, 4, stats.RecordsParsed)
	assert.Equal(t, 2, stats.RecordsAccepted)
	require.True(t, stats.HasErrors())
	assert.Len(t, stats.Errors, 2)
	assert.Equal(t, 3, stats.Errors[0].Line)
	assert.Equal(t, 4, stats.Errors[1].Line)

	// Row failures carry structured validation errors.
	var badAmount *apperrors.ReconcilerError
	require.ErrorAs(t, stats.Errors[0], &badAmount)
	assert.Equal(t, apperrors.CategoryValidation, badAmount.Category)
	assert.Equal(t, apperrors.CodeInvalidAmount, badAmount.Code)

	var badRecord *apperrors.ReconcilerError
	require.ErrorAs(t, stats.Errors[1], &badRecord)
	assert.Equal(t, apperrors.CodeInvalidData, badRecord.Code)
}

func TestRecordParser_MissingRequiredColumn(t *testing.T) {
	csvData := "id,currency\nP1,USD\n"

	parser, err := NewPayoutParser(nil)
	require.NoError(t, err)

	_, _, err = parser.ParseReader(context.Background(), strings.NewReader(csvData), "payouts.csv")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryParse))
}

func TestRecordParser_RowLimit(t *testing.T) {
	config := DefaultPayoutParserConfig()
	config.Parse.MaxRows = 2

	parser, err := NewPayoutParser(config)
	require.NoError(t, err)

	csvData := strings.Join([]string{
		"id,amount",
		"P1,1.00",
		"P2,2.00",
		"P3,3.00",
	}, "\n")

	_, _, err = parser.ParseReader(context.Background(), strings.NewReader(csvData), "payouts.csv")
	require.Error(t, err)

	var re *apperrors.ReconcilerError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, apperrors.CodeRowLimit, re.Code)
	assert.Equal(t, apperrors.CategoryParse, re.Category)
}

func TestRecordParser_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	parser, err := NewPayoutParser(nil)
	require.NoError(t, err)

	csvData := "id,amount\nP1,1.00\n"
	_, _, err = parser.ParseReader(ctx, strings.NewReader(csvData), "payouts.csv")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryInternal))
}

func TestBaseParser_OpenFile_NotFound(t *testing.T) {
	parser, err := NewPayoutParser(nil)
	require.NoError(t, err)

	_, _, err = parser.ParseFile("/nonexistent/payouts.csv")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryFile))
}

func TestRecordParserConfig_Validate(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		config := DefaultPayoutParserConfig()
		config.Name = ""
		_, err := NewPayoutParser(config)
		assert.Error(t, err)
	})

	t.Run("no required columns", func(t *testing.T) {
		config := DefaultLedgerParserConfig()
		config.RequiredColumns = nil
		_, err := NewLedgerParser(config)
		assert.Error(t, err)
	})
}
