// Package parsers reads payout-provider exports and internal ledger
// dumps from CSV into TransactionRecord slices. Column layouts are
// configurable with alias support, amounts are converted to integer
// cents at this boundary, and row-level failures are accumulated in
// ParseStats instead of aborting the file.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"payout-reconciliation-service/pkg/errors"
)

// ParseConfig holds low-level CSV reading options shared by both parsers.
type ParseConfig struct {
	HasHeader        bool
	Delimiter        rune
	TrimLeadingSpace bool
	// MaxRows caps accepted records per file. Zero means no cap.
	MaxRows int
}

// DefaultParseConfig returns CSV reading defaults.
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:        true,
		Delimiter:        ',',
		TrimLeadingSpace: true,
		MaxRows:          10000,
	}
}

// ParseError describes a failure on a single row.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (pe *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", pe.Line, pe.Message)
}

func (pe *ParseError) Unwrap() error {
	return pe.Err
}

// ParseStats accumulates per-file parsing outcomes.
type ParseStats struct {
	RecordsParsed   int           `json:"records_parsed"`
	RecordsAccepted int           `json:"records_accepted"`
	Errors          []*ParseError `json:"errors,omitempty"`
}

// NewParseStats creates empty stats.
func NewParseStats() *ParseStats {
	return &ParseStats{}
}

// AddError records a row-level failure.
func (ps *ParseStats) AddError(err *ParseError) {
	ps.Errors = append(ps.Errors, err)
}

// HasErrors reports whether any row failed.
func (ps *ParseStats) HasErrors() bool {
	return len(ps.Errors) > 0
}

// BaseParser provides CSV plumbing shared by the payout and ledger
// parsers: file opening, header resolution and row iteration.
type BaseParser struct {
	config *ParseConfig
}

// NewBaseParser creates a base parser with the given options.
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}
	return &BaseParser{config: config}
}

// OpenFile opens a CSV file and returns the file handle plus a
// configured reader. The caller closes the file.
func (bp *BaseParser) OpenFile(path string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return nil, nil, errors.FileError(errors.CodeFilePermission, path, err)
	}

	return file, bp.NewReader(file), nil
}

// NewReader configures a csv.Reader over any input stream.
func (bp *BaseParser) NewReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1
	return reader
}

// ResolveHeaders maps configured column names (with aliases folded) to
// field positions. Required columns missing from the header fail loudly.
func (bp *BaseParser) ResolveHeaders(header []string, required []string, aliases map[string]string) (map[string]int, error) {
	positions := make(map[string]int)

	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		if _, taken := positions[name]; !taken {
			positions[name] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := positions[col]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return positions, nil
}

// Field returns the value of a mapped column in a row, or "" when the
// column is absent or the row is short.
func Field(row []string, positions map[string]int, name string) string {
	idx, ok := positions[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// MaxRows exposes the configured row cap.
func (bp *BaseParser) MaxRows() int {
	return bp.config.MaxRows
}

// rowLimitError builds the error returned when a file exceeds the cap.
func rowLimitError(path string, max int) error {
	return errors.ParseError(errors.CodeRowLimit, path, max+1, "", fmt.Errorf("file exceeds %d rows", max)).
		WithSuggestion("Raise max_rows or split the input file")
}
