package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to callers of the order workflow.
type ErrorKind string

const (
	KindProductNotFound         ErrorKind = "PRODUCT_NOT_FOUND"
	KindCustomerNotFound        ErrorKind = "CUSTOMER_NOT_FOUND"
	KindGrowerNotFound          ErrorKind = "GROWER_NOT_FOUND"
	KindOrderNotFound           ErrorKind = "ORDER_NOT_FOUND"
	KindInvalidOrder            ErrorKind = "INVALID_ORDER"
	KindInvalidTransition       ErrorKind = "INVALID_TRANSITION"
	KindInsufficientStock       ErrorKind = "INSUFFICIENT_STOCK"
	KindDuplicateRequest        ErrorKind = "DUPLICATE_REQUEST"
	KindAllocationInconsistency ErrorKind = "ALLOCATION_INCONSISTENCY"
	KindPersistenceFailure      ErrorKind = "PERSISTENCE_FAILURE"
)

// OrderError is the structured failure returned by core services: a kind the
// adapters switch on plus a human-readable message.
type OrderError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *OrderError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, format string, args ...any) *OrderError {
	return &OrderError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// persistenceError wraps a storage failure unless it already carries a kind.
func persistenceError(err error, format string, args ...any) error {
	var oe *OrderError
	if errors.As(err, &oe) {
		return err
	}
	return &OrderError{Kind: KindPersistenceFailure, Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrorKindOf returns the kind of err, or "" when err is not an OrderError.
func ErrorKindOf(err error) ErrorKind {
	var oe *OrderError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	return ErrorKindOf(err) == kind
}
