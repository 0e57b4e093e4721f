// Package postgres holds the sentinel errors shared by the repositories.
// Local, predictable conditions carry their own sentinel so workflows can
// surface a plain user-facing message instead of a storage failure.
package postgres

import "github.com/pkg/errors"

var (
	ErrNotFound = errors.New("row not found")

	ErrInvalidPin   = errors.New("no worker matches that PIN")
	ErrNotScheduled = errors.New("worker is not scheduled to work today")
	ErrDuplicatePin = errors.New("PIN is already in use by another worker")
)
