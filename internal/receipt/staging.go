package receipt

import (
	"github.com/warelogic/grn-core/internal/normalize"
	"github.com/warelogic/grn-core/internal/order"
)

// StagingInput is everything the staging builder needs to turn section
// lists into submittable requests.
type StagingInput struct {
	Kind    order.Kind
	Header  HeaderInfo
	Entries []LineEntry

	// InvoiceRef is a free-text invoice reference. It is sanitized to
	// digits and attached to the first request only.
	InvoiceRef string

	// ShipmentNumber is the document reference for transfer-order lines.
	ShipmentNumber string

	// ExistingHeaderID pins the batch to an already-created receipt for
	// add-to-existing flows. It is placed on every payload up front; for
	// new receipts the orchestrator fills later parts instead.
	ExistingHeaderID string
}

// BuildStagedRequests groups sections by section index across all lines and
// emits one request per index that has at least one valid section.
//
// Grouping is by index, not by line: section 1 of every line forms part 1,
// section 2 of every line forms part 2, and so on. An index with no valid
// sections is silently skipped; that is a validation gap, not an error.
// The result is ordered by ascending section index.
func BuildStagedRequests(in StagingInput) []StagedRequest {
	var staged []StagedRequest

	maxIndex := MaxSectionIndex(in.Entries)
	for idx := 1; idx <= maxIndex; idx++ {
		lines := collectPayloadLines(in, idx)
		if len(lines) == 0 {
			continue
		}

		payload := Payload{
			Kind:            in.Kind,
			ReceiptHeaderID: in.ExistingHeaderID,
			Header:          in.Header,
			Lines:           lines,
		}
		if len(staged) == 0 {
			payload.InvoiceReference = normalize.DigitsOnly(in.InvoiceRef)
		}

		staged = append(staged, StagedRequest{SectionIndex: idx, Payload: payload})
	}

	return staged
}

// collectPayloadLines gathers every line's valid section at the given index.
func collectPayloadLines(in StagingInput, index int) []PayloadLine {
	var lines []PayloadLine
	for i := range in.Entries {
		entry := &in.Entries[i]
		sec := entry.Section(index)
		if sec == nil || !sectionValid(*sec, in.Kind) {
			continue
		}

		lines = append(lines, PayloadLine{
			DocumentNumber: documentRef(in),
			LineNumber:     entry.Line.Number,
			ItemCode:       entry.Line.ItemCode,
			Quantity:       sec.Qty,
			Unit:           entry.Line.Unit,
			Lot:            sec.Lot,
			Expiry:         sec.Expiry,
		})
	}
	return lines
}

// documentRef resolves the source-document reference for a payload line:
// transfer receipts reference the in-transit shipment, everything else the
// order itself.
func documentRef(in StagingInput) string {
	if in.Kind == order.KindTransfer {
		return in.ShipmentNumber
	}
	return in.Header.OrderNumber
}
