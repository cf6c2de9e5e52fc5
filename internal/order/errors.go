package order

import "errors"

// Domain errors for the order package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, order.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when an order number does not exist.
	ErrNotFound = errors.New("order: not found")

	// ErrNoShipment is returned when a transfer order has no expected
	// shipment to receive against.
	ErrNoShipment = errors.New("order: no shipment found")

	// ErrNoLines is returned when an order has no receivable lines.
	ErrNoLines = errors.New("order: no lines")
)
