package receipt

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/warelogic/grn-core/internal/infrastructure/logging"
	"github.com/warelogic/grn-core/internal/match"
	"github.com/warelogic/grn-core/internal/normalize"
	"github.com/warelogic/grn-core/internal/order"
)

// WorkflowConfig carries the operator identity stamped onto every receipt
// header. It is immutable after construction; there is no ambient fallback.
type WorkflowConfig struct {
	OrganizationCode string
	BusinessUnit     string
	LegalEntity      string
	EmployeeID       string
}

// AttachmentUploader pushes cached attachments for a completed batch. The
// concrete implementation lives in the attachment package.
type AttachmentUploader interface {
	Upload(ctx context.Context, req UploadRequest) (uploaded int, err error)
}

// UploadRequest identifies the receipt an upload belongs to and the tokens
// used to build attachment filenames.
type UploadRequest struct {
	OrderNumber       string
	Vendor            string
	InvoiceReference  string
	HeaderInterfaceID string
}

// History persists completed batches for post-submission review.
type History interface {
	SaveBatch(ctx context.Context, result BatchResult) error
}

// Workflow drives one goods-receipt flow end to end: load and enrich the
// order, prefill sections from extracted slip items, stage, submit, upload
// attachments, and persist the outcome.
//
// A single Workflow handles every order kind; the kind travels with each
// call rather than being baked into separate per-kind flows.
type Workflow struct {
	cfg      WorkflowConfig
	provider order.Provider
	orch     *Orchestrator
	uploader AttachmentUploader // optional
	history  History            // optional
	logger   *logging.Logger
}

// NewWorkflow wires a workflow. Uploader and history may be nil; the
// corresponding steps are skipped.
func NewWorkflow(
	cfg WorkflowConfig,
	provider order.Provider,
	orch *Orchestrator,
	uploader AttachmentUploader,
	history History,
	logger *logging.Logger,
) *Workflow {
	return &Workflow{
		cfg:      cfg,
		provider: provider,
		orch:     orch,
		uploader: uploader,
		history:  history,
		logger:   logger,
	}
}

// LoadOrder fetches an order's header and lines, enriches line GTINs, and
// wraps each line in its initial blank section.
func (w *Workflow) LoadOrder(ctx context.Context, kind order.Kind, number string) (*order.Header, []LineEntry, error) {
	if !kind.Valid() {
		return nil, nil, ErrInvalidKind
	}

	header, err := w.provider.FetchHeader(ctx, kind, number)
	if err != nil {
		return nil, nil, fmt.Errorf("receipt: fetch order %s: %w", number, err)
	}
	lines, err := w.provider.FetchLines(ctx, kind, header.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("receipt: fetch lines for %s: %w", number, err)
	}
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("receipt: order %s: %w", number, order.ErrNoLines)
	}

	order.EnrichGTINs(ctx, w.provider, lines)

	entries := make([]LineEntry, len(lines))
	for i, line := range lines {
		entries[i] = NewLineEntry(line)
	}
	return header, entries, nil
}

// PrefillResult is the outcome of matching extracted slip items onto order
// lines.
type PrefillResult struct {
	Header    *order.Header         `json:"header"`
	Entries   []LineEntry           `json:"entries"`
	Matched   int                   `json:"matched"`
	Unmatched []order.ExtractedItem `json:"unmatched,omitempty"`
}

// Prefill loads an order and fills each line's first section from the best
// matching extracted item. Matching is greedy with a permissive threshold;
// items that match no line are reported back, not dropped silently.
func (w *Workflow) Prefill(ctx context.Context, kind order.Kind, number string, items []order.ExtractedItem) (*PrefillResult, error) {
	header, entries, err := w.LoadOrder(ctx, kind, number)
	if err != nil {
		return nil, err
	}

	candidates := make([]match.Candidate, len(entries))
	for i := range entries {
		candidates[i] = match.Candidate{
			Description: entries[i].Line.Description,
			ItemCode:    entries[i].Line.ItemCode,
		}
	}

	result := &PrefillResult{Header: header, Entries: entries}
	used := make(map[int]bool)
	for _, item := range items {
		idx, ok := match.BestMatch(item.Description, candidates, used, match.ThresholdPrefill)
		if !ok {
			result.Unmatched = append(result.Unmatched, item)
			continue
		}
		used[idx] = true
		fillSection(&result.Entries[idx], item)
		result.Matched++
	}

	return result, nil
}

// fillSection writes an extracted item's normalized values into the line's
// first section.
func fillSection(entry *LineEntry, item order.ExtractedItem) {
	sec := entry.Section(1)
	if sec == nil {
		return
	}
	if qty, ok := normalize.Quantity(item.QuantityText); ok {
		sec.Qty = qty
	}
	if lot := strings.TrimSpace(item.BatchText); lot != "" {
		sec.Lot = lot
	}
	if expiry := normalize.Date(item.ExpiryText); expiry != "" {
		sec.Expiry = expiry
	}
}

// SubmitInput is everything one submission batch needs from the caller.
type SubmitInput struct {
	Kind        order.Kind  `json:"kind"`
	OrderNumber string      `json:"order_number"`
	Entries     []LineEntry `json:"entries"`

	// InvoiceRef is the free-text invoice reference for vendor receipts.
	InvoiceRef string `json:"invoice_ref,omitempty"`

	// ExistingHeaderID targets an already-created receipt when Kind is
	// add-to-existing.
	ExistingHeaderID string `json:"existing_header_id,omitempty"`
}

// Submit stages the caller's sections and runs the submission batch.
// Prerequisite failures (unknown order, missing transfer shipment, nothing
// valid to receive) abort before any part is submitted. Attachment upload
// and history persistence run after the batch and never fail it.
func (w *Workflow) Submit(ctx context.Context, in SubmitInput) (*BatchResult, error) {
	if !in.Kind.Valid() {
		return nil, ErrInvalidKind
	}

	header, err := w.provider.FetchHeader(ctx, in.Kind, in.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("receipt: fetch order %s: %w", in.OrderNumber, err)
	}

	var shipmentNumber string
	if in.Kind == order.KindTransfer {
		shipment, err := w.provider.FetchShipment(ctx, in.OrderNumber)
		if err != nil {
			return nil, fmt.Errorf("receipt: fetch shipment for %s: %w", in.OrderNumber, err)
		}
		shipmentNumber = shipment.Number
	}

	staged := BuildStagedRequests(StagingInput{
		Kind: in.Kind,
		Header: HeaderInfo{
			OrderNumber:      header.Number,
			Vendor:           header.Counterparty,
			OrganizationCode: w.cfg.OrganizationCode,
			BusinessUnit:     w.cfg.BusinessUnit,
			LegalEntity:      w.cfg.LegalEntity,
			EmployeeID:       w.cfg.EmployeeID,
		},
		Entries:          in.Entries,
		InvoiceRef:       in.InvoiceRef,
		ShipmentNumber:   shipmentNumber,
		ExistingHeaderID: in.ExistingHeaderID,
	})
	if len(staged) == 0 {
		return nil, ErrNothingToReceive
	}

	batchID := uuid.NewString()
	if w.logger != nil {
		w.logger.Info("submitting receipt batch",
			"batch_id", batchID,
			"order_number", header.Number,
			"kind", in.Kind,
			"parts", len(staged),
		)
	}

	result, err := w.orch.Run(ctx, BatchInput{
		BatchID:     batchID,
		OrderNumber: header.Number,
		Staged:      staged,
	})
	if err != nil {
		return nil, err
	}

	w.uploadAttachments(ctx, header, in.InvoiceRef, result)

	if w.history != nil {
		if err := w.history.SaveBatch(ctx, *result); err != nil && w.logger != nil {
			w.logger.Error("persist batch history", "batch_id", batchID, "error", err)
		}
	}

	return result, nil
}

// uploadAttachments best-effort pushes cached attachments once the batch
// resolved a header-interface id.
func (w *Workflow) uploadAttachments(ctx context.Context, header *order.Header, invoiceRef string, result *BatchResult) {
	if w.uploader == nil || result.HeaderInterfaceID == "" {
		return
	}

	uploaded, err := w.uploader.Upload(ctx, UploadRequest{
		OrderNumber:       header.Number,
		Vendor:            header.Counterparty,
		InvoiceReference:  invoiceRef,
		HeaderInterfaceID: result.HeaderInterfaceID,
	})
	if err != nil && w.logger != nil {
		w.logger.Error("attachment upload incomplete",
			"batch_id", result.BatchID,
			"uploaded", uploaded,
			"error", err,
		)
	}
}
