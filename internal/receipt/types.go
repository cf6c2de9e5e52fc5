package receipt

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warelogic/grn-core/internal/order"
)

// Section is one discrete partial-receive entry recorded against a single
// order line. Indices are dense 1..N within the line.
type Section struct {
	Index  int             `json:"index"`
	Qty    decimal.Decimal `json:"qty"`
	Lot    string          `json:"lot"`
	Expiry string          `json:"expiry"` // canonical YYYY-MM-DD, or empty
}

// LineEntry pairs an order line with its partial-receive sections.
// The section list is never empty; a line starts with one blank section.
type LineEntry struct {
	Line     order.Line `json:"line"`
	Sections []Section  `json:"sections"`
}

// SectionPatch carries a partial update for one section. Nil fields are
// left untouched.
type SectionPatch struct {
	Qty    *decimal.Decimal `json:"qty,omitempty"`
	Lot    *string          `json:"lot,omitempty"`
	Expiry *string          `json:"expiry,omitempty"`
}

// HeaderInfo carries the receipt header fields that are constant across all
// parts of one batch.
type HeaderInfo struct {
	OrderNumber      string `json:"order_number"`
	Vendor           string `json:"vendor"`
	OrganizationCode string `json:"organization_code"`
	BusinessUnit     string `json:"business_unit"`
	LegalEntity      string `json:"legal_entity"`
	EmployeeID       string `json:"employee_id"`
}

// PayloadLine is one receipt line within a submittable payload.
type PayloadLine struct {
	// DocumentNumber references the source document: the order number for
	// vendor receipts, the shipment number for transfer receipts.
	DocumentNumber string `json:"document_number"`

	LineNumber int             `json:"line_number"`
	ItemCode   string          `json:"item_code"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`

	// Lot and Expiry form the lot/expiry sub-record.
	Lot    string `json:"lot"`
	Expiry string `json:"expiry,omitempty"`
}

// Payload is one complete, backend-submittable receipt request.
type Payload struct {
	Kind order.Kind `json:"kind"`

	// ReceiptHeaderID correlates this part with an existing receipt
	// transaction. Empty on the first part of a new receipt; the
	// orchestrator overwrites it on later parts with the id minted by the
	// first success.
	ReceiptHeaderID string `json:"receipt_header_id,omitempty"`

	Header HeaderInfo `json:"header"`

	// InvoiceReference is the digits-only invoice reference, attached to
	// the first request of a batch only.
	InvoiceReference string `json:"invoice_reference,omitempty"`

	Lines []PayloadLine `json:"lines"`
}

// StagedRequest is a payload bound to the section index it was built from.
type StagedRequest struct {
	SectionIndex int     `json:"section_index"`
	Payload      Payload `json:"payload"`
}

// PartState is the submission state of one staged part.
type PartState string

// Part states. Success and Failed are terminal.
const (
	PartPending    PartState = "pending"
	PartSubmitting PartState = "submitting"
	PartSuccess    PartState = "success"
	PartFailed     PartState = "failed"
)

// Terminal reports whether the state is Success or Failed.
func (s PartState) Terminal() bool {
	return s == PartSuccess || s == PartFailed
}

// PartProgress is the submission outcome of one staged part. Mutated only
// by the orchestrator; observers receive copies.
type PartProgress struct {
	SectionIndex int       `json:"section_index"`
	State        PartState `json:"state"`

	// Lines is the number of payload lines in the part.
	Lines int `json:"lines"`

	// ReceiptNumber and ReceiptHeaderID are captured from a successful
	// response.
	ReceiptNumber   string `json:"receipt_number,omitempty"`
	ReceiptHeaderID string `json:"receipt_header_id,omitempty"`

	// ReturnStatus is the backend's business status field.
	ReturnStatus string `json:"return_status,omitempty"`

	// Messages collects business errors, line-level processing errors, and
	// diagnostic notes, in the order they were observed.
	Messages []string `json:"messages,omitempty"`

	// Transport diagnostics, populated on transport failure.
	StatusCode int    `json:"status_code,omitempty"`
	URL        string `json:"url,omitempty"`

	// ElapsedMS is the wall time the submission took, for telemetry.
	ElapsedMS int64 `json:"elapsed_ms,omitempty"`
}

// SubmitResultLine is one line of a backend submission response.
type SubmitResultLine struct {
	InterfaceTransactionID string `json:"interface_transaction_id"`
}

// SubmitResult is the backend's response to one part submission.
type SubmitResult struct {
	ReturnStatus      string             `json:"return_status"`
	Message           string             `json:"message"`
	ReceiptNumber     string             `json:"receipt_number"`
	ReceiptHeaderID   string             `json:"receipt_header_id"`
	HeaderInterfaceID string             `json:"header_interface_id"`
	Lines             []SubmitResultLine `json:"lines"`
}

// ProcessingError is one line-level processing error reported by the
// backend after a submission was accepted.
type ProcessingError struct {
	Description string `json:"description"`
	Message     string `json:"message"`
}

// BatchResult is the outcome of one submission batch: the ordered per-part
// progress plus the most recent successful response. There is no aggregate
// pass/fail flag; callers inspect per-part state.
type BatchResult struct {
	BatchID           string         `json:"batch_id"`
	OrderNumber       string         `json:"order_number"`
	Kind              order.Kind     `json:"kind"`
	Parts             []PartProgress `json:"parts"`
	ReceiptNumber     string         `json:"receipt_number,omitempty"`
	ReceiptHeaderID   string         `json:"receipt_header_id,omitempty"`
	HeaderInterfaceID string         `json:"header_interface_id,omitempty"`
	LastSuccess       *SubmitResult  `json:"last_success,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Snapshot is an immutable copy of in-flight batch progress published to
// observers.
type Snapshot struct {
	BatchID     string         `json:"batch_id"`
	OrderNumber string         `json:"order_number"`
	Parts       []PartProgress `json:"parts"`
}
