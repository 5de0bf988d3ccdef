// Package common defines shared constants and sentinel errors used across
// the diary storage, services and CLI layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// ErrNotFound is returned when an entry or media row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for contract violations such as a
	// non-positive chunk size or an update of a never-persisted row.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPersistence wraps failures of the underlying store (transaction
	// abort, disk I/O). These are surfaced once and never retried.
	ErrPersistence = errors.New("persistence failure")

	// ErrInconsistentState reports stored data that breaks a structural
	// invariant, e.g. a chunk without its media row.
	ErrInconsistentState = errors.New("inconsistent state")

	// ErrClosed is returned by components used after Close.
	ErrClosed = errors.New("closed")
)
