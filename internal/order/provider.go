package order

import "context"

// Provider fetches order data from the ERP.
//
// Implementations must return ErrNotFound when the order number does not
// exist and ErrNoShipment when a transfer order has nothing in transit.
type Provider interface {
	// FetchHeader retrieves the order header by order number.
	FetchHeader(ctx context.Context, kind Kind, number string) (*Header, error)

	// FetchLines retrieves the receivable lines for a header.
	FetchLines(ctx context.Context, kind Kind, headerID string) ([]Line, error)

	// FetchGTIN looks up the barcode for an item code. An empty result with
	// nil error means the item has no barcode on file.
	FetchGTIN(ctx context.Context, itemCode string) (string, error)

	// FetchShipment retrieves the expected shipment for a transfer order.
	FetchShipment(ctx context.Context, number string) (*ShipmentRef, error)
}
