// Package common defines sentinel errors shared by the repositories and
// stores of the photo diary. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrNoRowsAffected = errors.New("no rows affected")
	ErrAlreadyExists  = errors.New("already exists")

	// Store-level errors.
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidDocument   = errors.New("invalid document")
)
