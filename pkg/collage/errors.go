package collage

import "errors"

// Failure conditions in this package degrade to a skipped cycle or a
// fallback path; none of them are fatal to the engine.
var (
	// ErrPoolExhausted means no candidate photo is available anywhere,
	// including the clone fallback. Callers skip rather than fail.
	ErrPoolExhausted = errors.New("photo pool exhausted")

	// ErrNoEligibleSlot means no on-screen slot has been displayed long
	// enough to replace. The swap cycle is skipped.
	ErrNoEligibleSlot = errors.New("no eligible slot to replace")

	// ErrInsufficientSpace means a row cannot free enough adjacent columns.
	// The swap is aborted and retried on the next cycle.
	ErrInsufficientSpace = errors.New("row cannot free enough columns")

	// ErrCollectionTooSmall means a fetched collection has too few photos
	// to transition to.
	ErrCollectionTooSmall = errors.New("collection below transition minimum")
)
