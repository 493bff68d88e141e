package core

import "fmt"

// Status represents the execution status of a test case
type Status int

const (
	StatusPending Status = iota // Not yet started
	StatusRunning               // Currently executing
	StatusPassed                // Every command resolved successfully
	StatusFailed                // A command failed and was not handled
	StatusErrored               // Configuration fault or unexpected error
	StatusSkipped               // Document missing/invalid or run cancelled
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status as its string form.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status written by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	for st := StatusPending; st <= StatusSkipped; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// IsTerminal returns true if the status is a final state
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status indicates success
func (s Status) IsSuccess() bool {
	return s == StatusPassed
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryConfig                          // Unknown action type, missing operation, fragment cycle
	ErrCategoryValidation                      // Malformed test case / group document
	ErrCategoryAction                          // Handler returned a failing outcome
	ErrCategoryUnhandled                       // Panic or unexpected error inside a handler
	ErrCategoryConnection                      // Device/server connection lost
	ErrCategoryTimeout                         // Operation timed out
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryValidation:
		return "validation"
	case ErrCategoryAction:
		return "action"
	case ErrCategoryUnhandled:
		return "unhandled"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}
