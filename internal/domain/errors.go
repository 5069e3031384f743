package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUpstream     = errors.New("upstream dependency failed")
)

// Error carries a client-facing message and one of the sentinel kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ValidationError(format string, args ...any) error {
	return Errorf(ErrValidation, format, args...)
}

func NotFoundError(format string, args ...any) error {
	return Errorf(ErrNotFound, format, args...)
}

func UnauthorizedError(format string, args ...any) error {
	return Errorf(ErrUnauthorized, format, args...)
}

func ForbiddenError(format string, args ...any) error {
	return Errorf(ErrForbidden, format, args...)
}

func ConflictError(format string, args ...any) error {
	return Errorf(ErrConflict, format, args...)
}

func UpstreamError(format string, args ...any) error {
	return Errorf(ErrUpstream, format, args...)
}

// InsufficientStockError is returned both by the pre-check and by the
// conditional decrement inside the order transaction.
func InsufficientStockError(productName string) error {
	return ValidationError("insufficient stock for %s", productName)
}
