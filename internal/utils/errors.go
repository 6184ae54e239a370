package utils

import (
	"errors"
	"fmt"
)

// Error kinds callers can match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrOperationFailed = errors.New("operation failed")
)

// AppError wraps an operation, human-facing message, error kind and underlying error.
type AppError struct {
	Op   string
	Msg  string
	Kind error
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

// Unwrap exposes both the kind and the cause.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewAppError constructs an AppError of the operation-failure kind.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Kind: ErrOperationFailed, Err: err}
}

// NotFound reports a missing snapshot, aggregate or report input.
func NotFound(op, msg string) error {
	return &AppError{Op: op, Msg: msg, Kind: ErrNotFound}
}

// InvalidFormat reports input that failed validation, such as a malformed date.
func InvalidFormat(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Kind: ErrInvalidFormat, Err: err}
}

// OperationFailed reports a store, query or rendering failure.
func OperationFailed(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Kind: ErrOperationFailed, Err: err}
}

// IsKind reports whether err carries an AppError kind (or wraps one).
func IsKind(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidFormat) || errors.Is(err, ErrOperationFailed)
}
