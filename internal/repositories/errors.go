package repositories

import "fmt"

// ErrorCode enumerates persistence failure categories.
type ErrorCode string

const (
	// ErrorUnknown represents an unspecified failure.
	ErrorUnknown ErrorCode = "unknown"
	// ErrorNotFound indicates the requested row does not exist.
	ErrorNotFound ErrorCode = "not_found"
	// ErrorConflict indicates a uniqueness or concurrency violation.
	ErrorConflict ErrorCode = "conflict"
	// ErrorUnavailable indicates the backing store could not be reached.
	ErrorUnavailable ErrorCode = "unavailable"
	// ErrorInsufficientStock indicates a conditional stock decrement matched no rows.
	ErrorInsufficientStock ErrorCode = "insufficient_stock"
)

// Error is the concrete RepositoryError carried out of the gorm layer.
type Error struct {
	Op      string
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsNotFound implements RepositoryError.
func (e *Error) IsNotFound() bool {
	return e != nil && e.Code == ErrorNotFound
}

// IsConflict implements RepositoryError.
func (e *Error) IsConflict() bool {
	return e != nil && (e.Code == ErrorConflict || e.Code == ErrorInsufficientStock)
}

// IsUnavailable implements RepositoryError.
func (e *Error) IsUnavailable() bool {
	return e != nil && e.Code == ErrorUnavailable
}

// NewError constructs a typed repository error.
func NewError(op string, code ErrorCode, message string, err error) *Error {
	if message == "" {
		message = string(code)
	}
	return &Error{Op: op, Code: code, Message: message, Err: err}
}
