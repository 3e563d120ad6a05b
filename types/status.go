package types

import "errors"

// Status is the process exit status taxonomy of the surrounding engine.
//
// The numeric values are the engine's exit codes and must not be reordered.
type Status int

const (
	// StatusSuccess indicates the run completed without error.
	StatusSuccess Status = 0

	// StatusParserError indicates configuration or script parsing failed
	// before any compilation or execution took place.
	StatusParserError Status = 1

	// StatusPassError indicates a compilation pass failed.
	StatusPassError Status = 2

	// StatusExecutionError indicates runtime execution failed, including
	// scheduling invariant violations, local processing failures and fatal
	// remote worker failures.
	StatusExecutionError Status = 3
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusParserError:
		return "ParserError"
	case StatusPassError:
		return "PassError"
	case StatusExecutionError:
		return "ExecutionError"
	default:
		return "Unknown"
	}
}

// ExitCode returns the numeric process exit code for the status.
func (s Status) ExitCode() int {
	return int(s)
}

// StatusFromError classifies an error into the exit status taxonomy.
//
// Classification rules, checked in order:
//   - nil → StatusSuccess
//   - configuration errors (anything wrapping ErrInvalidConfig) → StatusParserError
//   - compilation pass errors (wrapping ErrCompilationPass) → StatusPassError
//   - everything else, including scheduling invariant violations, local
//     processing failures and remote execution failures → StatusExecutionError
//
// Parameters:
//   - err: Error to classify (may be nil)
//
// Returns:
//   - Status: Exit status for the error
func StatusFromError(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrInvalidConfig):
		return StatusParserError
	case errors.Is(err, ErrCompilationPass):
		return StatusPassError
	default:
		return StatusExecutionError
	}
}
