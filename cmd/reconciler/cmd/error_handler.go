package cmd

import (
	"fmt"
	"os"

	apperrors "payout-reconciliation-service/pkg/errors"

	pkgerrors "github.com/pkg/errors"
)

// HandleError prints a user-facing error message and returns the exit
// code the process should terminate with. Structured application errors
// carry their own category-based exit codes and suggestions.
func HandleError(err error) int {
	if err == nil {
		return 0
	}

	var re *apperrors.ReconcilerError
	if pkgerrors.As(err, &re) {
		fmt.Fprintf(os.Stderr, "Error [%s/%s]: %s\n", re.Category, re.Code, re.Message)
		if re.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "Suggestion: %s\n", re.Suggestion)
		}
		if re.Cause != nil {
			fmt.Fprintf(os.Stderr, "Cause: %v\n", re.Cause)
		}
		return re.GetExitCode()
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}
