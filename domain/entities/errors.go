package entities

import "errors"

// Error taxonomy for ledger commits and downstream fan-out. Storage and
// conflict errors are authoritative for the triggering operation; channel
// and device errors are collected or logged, never propagated into a commit
// outcome.
var (
	// ErrStorageUnavailable means the backing store could not serve the
	// operation. No partial state change is visible.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrConflictRetryExhausted means an optimistic commit lost the race on
	// every attempt. The caller may retry.
	ErrConflictRetryExhausted = errors.New("commit conflict retries exhausted")

	// ErrKeyNotFound is returned by store reads for missing keys.
	ErrKeyNotFound = errors.New("key not found")

	// ErrChannelUnconfigured marks a notification channel with missing
	// credentials. Such channels never make external calls.
	ErrChannelUnconfigured = errors.New("channel not configured")

	// ErrDeviceUnreachable means the sorting device could not be reached or
	// its address is unknown.
	ErrDeviceUnreachable = errors.New("device unreachable")
)
