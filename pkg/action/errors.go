package action

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"github.com/mohanavadivelu2/automation-framework/pkg/core"
)

// Message tags for failures surfaced by handlers.
const (
	TagValue       = "VALUE_ERROR"
	TagConnection  = "CONNECTION_ERROR"
	TagTimeout     = "TIMEOUT_ERROR"
	TagUnexpected  = "UNEXPECTED_ERROR"
	MissingFields  = "MISSING_REQUIRED_FIELDS"
	DriverNotFound = "DRIVER_INSTANCE_NOT_FOUND"
)

// ErrInvalidValue marks a bad command value (wrong type, out of range).
var ErrInvalidValue = errors.New("invalid value")

// Fail converts err into a failing Outcome tagged by category.
func Fail(err error) core.Outcome {
	if err == nil {
		return core.Fail(TagUnexpected)
	}
	return core.Fail(fmt.Sprintf("%s: %v", Tag(err), err))
}

// Tag classifies err into one of the message tags.
func Tag(err error) string {
	var execErr *core.ExecutionError
	if errors.As(err, &execErr) {
		switch execErr.Category {
		case core.ErrCategoryConnection:
			return TagConnection
		case core.ErrCategoryTimeout:
			return TagTimeout
		case core.ErrCategoryConfig, core.ErrCategoryValidation:
			return TagValue
		}
	}

	var numErr *strconv.NumError
	var netErr net.Error
	switch {
	case errors.Is(err, ErrInvalidValue), errors.As(err, &numErr):
		return TagValue
	case errors.Is(err, context.DeadlineExceeded):
		return TagTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return TagTimeout
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET), errors.As(err, &netErr):
		return TagConnection
	default:
		return TagUnexpected
	}
}

// Invalid returns an ErrInvalidValue-wrapping error.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidValue, fmt.Sprintf(format, args...))
}
