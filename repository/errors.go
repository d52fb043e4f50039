package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidCredentials covers every failed login. Callers must not
	// tell an unknown user apart from a wrong password or inactive account.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
