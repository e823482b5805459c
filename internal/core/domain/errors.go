package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrForbidden          = errors.New("access forbidden")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrStudentNotFound    = errors.New("student not found")
	ErrInvalidStudentID   = errors.New("invalid student id")
	ErrRequestInFlight    = errors.New("a request with this idempotency key is still in progress")
)
