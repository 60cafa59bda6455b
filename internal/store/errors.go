package store

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the requested transaction does not exist for the
// requesting owner. Callers must not learn whether the id exists under a
// different owner.
var ErrNotFound = errors.New("transaction not found")

// Error wraps a backend fault so callers can distinguish storage trouble
// from validation and auth failures without inspecting driver errors.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// WrapErr returns err wrapped as a storage fault, or nil. Sentinels like
// ErrNotFound pass through untouched so errors.Is keeps working.
func WrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// IsStoreErr reports whether err originated in a persistence backend.
func IsStoreErr(err error) bool {
	var se *Error
	return errors.As(err, &se)
}
