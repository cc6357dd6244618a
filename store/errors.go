package store

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrReadOnly indicates a write inside a read-only transaction.
	ErrReadOnly = errors.New("store: read-only transaction")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("store: required parameter is nil")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store: closed")
)
