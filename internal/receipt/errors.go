package receipt

import "errors"

// Domain errors for the receipt package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, receipt.ErrBatchActive) {
//	    // handle re-entrant submission
//	}
var (
	// ErrBatchActive is returned when Run is called while a previous batch
	// has not reached a terminal state.
	ErrBatchActive = errors.New("receipt: batch already active")

	// ErrSectionNotFound is returned when a section index does not exist
	// on the line.
	ErrSectionNotFound = errors.New("receipt: section not found")

	// ErrNothingToReceive is returned when no section on any line passes
	// the validity predicate, so there is nothing to stage.
	ErrNothingToReceive = errors.New("receipt: nothing to receive")

	// ErrInvalidKind is returned when an order kind is not recognised.
	ErrInvalidKind = errors.New("receipt: invalid order kind")

	// ErrBatchNotFound is returned when a batch id does not exist in the
	// history repository.
	ErrBatchNotFound = errors.New("receipt: batch not found")
)
