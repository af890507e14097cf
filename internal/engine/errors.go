package engine

import (
	"errors"
	"fmt"
)

// Category classifies run-level failures for exit-code mapping.
type Category string

const (
	// CategoryConfig: invalid configuration, nothing ran.
	CategoryConfig Category = "config"
	// CategoryDatabase: database generation failed; the run aborted
	// before upload.
	CategoryDatabase Category = "database"
	// CategoryTransport: a listing, fetch or push failed beyond retry.
	CategoryTransport Category = "transport"
)

// Process exit codes.
const (
	ExitSuccess        = 0
	ExitBuildFailure   = 1
	ExitConfigError    = 2
	ExitTransportError = 3
	ExitPackageFailure = 4
)

// RunError is a fatal, run-level failure.
type RunError struct {
	Category Category
	Err      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// ExitCode maps a run outcome to the process exit code. A fatal error
// wins over degraded package results; a completed run with failed
// packages is a degraded success.
func ExitCode(summary *RunSummary, err error) int {
	if err != nil {
		var re *RunError
		if errors.As(err, &re) {
			switch re.Category {
			case CategoryConfig:
				return ExitConfigError
			case CategoryDatabase:
				return ExitBuildFailure
			case CategoryTransport:
				return ExitTransportError
			}
		}
		return ExitBuildFailure
	}

	if summary != nil {
		if _, _, failed := summary.Counts(); failed > 0 {
			return ExitPackageFailure
		}
	}
	return ExitSuccess
}
