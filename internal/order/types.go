package order

import "github.com/shopspring/decimal"

// Kind distinguishes the receiving flows an order can go through.
type Kind string

// Order kinds.
const (
	// KindPurchase receives against a vendor purchase order.
	KindPurchase Kind = "purchase"

	// KindTransfer receives against an inter-organization transfer order.
	KindTransfer Kind = "transfer"

	// KindAddToExisting adds lines to a previously created receipt.
	KindAddToExisting Kind = "add_to_existing"
)

// Valid reports whether k is a recognised order kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPurchase, KindTransfer, KindAddToExisting:
		return true
	}
	return false
}

// Header identifies an order. Immutable once fetched.
type Header struct {
	// Number is the order number as entered by the operator (e.g. "PO-100").
	Number string `json:"number"`

	// ID is the ERP's internal header identifier.
	ID string `json:"id"`

	// Counterparty is the vendor (purchase) or source organization (transfer).
	Counterparty string `json:"counterparty"`

	// BusinessUnit is the procurement business unit.
	BusinessUnit string `json:"business_unit"`

	// LegalEntity is the sold-to legal entity.
	LegalEntity string `json:"legal_entity"`
}

// Line is one receivable order line. Unique per (header, line number).
type Line struct {
	// Number is the line number within the order, starting at 1.
	Number int `json:"number"`

	// ItemCode is the ERP item code.
	ItemCode string `json:"item_code"`

	// Description is the item description used for slip matching.
	Description string `json:"description"`

	// Ordered is the ordered quantity.
	Ordered decimal.Decimal `json:"ordered"`

	// Unit is the unit of measure code.
	Unit string `json:"unit"`

	// GTIN is the item's barcode, filled by enrichment. Empty when the
	// item master has no barcode or the lookup failed.
	GTIN string `json:"gtin,omitempty"`
}

// ShipmentRef identifies the in-transit shipment a transfer order is
// received against.
type ShipmentRef struct {
	// Number is the shipment number.
	Number string `json:"number"`

	// HeaderID is the ERP's shipment header identifier.
	HeaderID string `json:"header_id"`
}

// ExtractedItem is one line of raw slip-extraction output. All fields are
// unnormalized free text produced by the external OCR collaborator.
type ExtractedItem struct {
	Description  string `json:"description"`
	QuantityText string `json:"quantity_text"`
	ExpiryText   string `json:"expiry_text"`
	BatchText    string `json:"batch_text"`
}
