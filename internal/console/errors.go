package console

import (
	"errors"
	"fmt"
)

// InvalidCredentials is the only message a failed sign-in ever shows.
const InvalidCredentials = "Invalid credentials"

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrOverlayClosed = errors.New("overlay is not open")
	// ErrSubmitInProgress rejects a submit while the previous one is running.
	ErrSubmitInProgress = errors.New("submit already in progress")
)

// AuthError is returned by every failed sign-in regardless of cause.
type AuthError struct {
	cause error
}

func (e *AuthError) Error() string { return InvalidCredentials }

func (e *AuthError) Unwrap() error { return e.cause }

// Store operations reported in StoreError.Op.
const (
	OpRefresh = "refresh"
	OpCreate  = "create"
	OpDelete  = "delete"
)

// StoreError wraps a failed document-store call.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s students: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreOp reports whether err is a StoreError for op.
func IsStoreOp(err error, op string) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Op == op
}
