package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcilerError_ExitCodes(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryReconciliation, 5},
		{CategoryInternal, 5},
		{ErrorCategory("other"), 1},
	}

	for _, tt := range tests {
		err := New(tt.category, CodeUnexpectedError, "boom")
		assert.Equal(t, tt.want, err.GetExitCode(), "category %s", tt.category)
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, 0, GetExitCode(nil))
	assert.Equal(t, 1, GetExitCode(fmt.Errorf("plain error")))
	assert.Equal(t, 2, GetExitCode(FileError(CodeFileNotFound, "/tmp/x.csv", nil)))

	wrapped := fmt.Errorf("outer: %w", ConfigurationError(CodeInvalidConfig, "tolerance", nil))
	assert.Equal(t, 4, GetExitCode(wrapped))
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, CategoryFile, CodeFilePermission, "cannot write output")

	require.NotNil(t, err)
	assert.Equal(t, cause, err.Unwrap())
	assert.Equal(t, CategoryFile, err.Category)

	assert.Nil(t, Wrap(nil, CategoryFile, CodeFilePermission, "no-op"))
}

func TestReconcilerError_ContextAndSuggestion(t *testing.T) {
	err := ParseError(CodeInvalidData, "payouts.csv", 7, "amount", fmt.Errorf("bad number")).
		WithSuggestion("Check the amount column formatting")

	assert.Equal(t, "payouts.csv", err.Context["path"])
	assert.Equal(t, 7, err.Context["line"])
	assert.Equal(t, "amount", err.Context["field"])
	assert.Contains(t, err.Error(), "suggestion: Check the amount column formatting")
}

func TestIsCategory(t *testing.T) {
	err := ValidationError(CodeOutOfRange, "fuzzy_threshold", 150, nil)

	assert.True(t, IsCategory(err, CategoryValidation))
	assert.False(t, IsCategory(err, CategoryFile))
	assert.False(t, IsCategory(fmt.Errorf("plain"), CategoryValidation))
	assert.False(t, IsCategory(nil, CategoryValidation))
}
