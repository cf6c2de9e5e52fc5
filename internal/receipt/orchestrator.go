package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/warelogic/grn-core/internal/infrastructure/logging"
	"github.com/warelogic/grn-core/internal/order"
)

// returnStatusSuccess is the backend's business status for an accepted
// submission. Compared case-insensitively.
const returnStatusSuccess = "SUCCESS"

// Submitter sends staged payloads to the backend receipt API.
type Submitter interface {
	// Submit posts one receipt payload. A non-2xx response or transport
	// failure is returned as a *TransportError; a 2xx response is returned
	// as a SubmitResult regardless of its business status.
	Submit(ctx context.Context, payload Payload) (*SubmitResult, error)

	// FetchProcessingErrors retrieves line-level processing errors for an
	// accepted submission.
	FetchProcessingErrors(ctx context.Context, headerInterfaceID, interfaceTransactionID string) ([]ProcessingError, error)
}

// TransportError describes a failed HTTP exchange with the backend.
type TransportError struct {
	StatusCode int
	URL        string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("receipt: transport error calling %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("receipt: unexpected status %d from %s", e.StatusCode, e.URL)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Observer receives immutable progress snapshots as parts change state and
// the final result when the batch completes. Implementations must not
// block; they are invoked synchronously between state transitions.
type Observer interface {
	BatchProgress(snapshot Snapshot)
	BatchFinished(result BatchResult)
}

// Orchestrator submits staged requests strictly sequentially, tracking
// per-part state and propagating the resolved receipt-header id into every
// part after the first success.
//
// The orchestrator is the sole owner and mutator of its progress state.
// One batch runs at a time; Run rejects re-entrant calls with
// ErrBatchActive.
type Orchestrator struct {
	submitter Submitter
	logger    *logging.Logger
	observers []Observer

	mu      sync.Mutex
	running bool

	// Per-batch state, reset on every Run. Guarded by the run itself:
	// only the running goroutine touches these while running is true.
	batchID     string
	orderNumber string
	parts       []PartProgress

	headerID          string // pinned by the first success, never overwritten
	headerInterfaceID string
	receiptNumber     string
	lastSuccess       *SubmitResult
}

// NewOrchestrator creates an orchestrator submitting through the given
// Submitter. Observers are optional.
func NewOrchestrator(submitter Submitter, logger *logging.Logger, observers ...Observer) *Orchestrator {
	return &Orchestrator{
		submitter: submitter,
		logger:    logger,
		observers: observers,
	}
}

// Run submits every staged request in ascending section order and returns
// the ordered per-part progress plus the most recent successful response.
//
// Run is best-effort: a failed part (transport or business) is recorded
// and the next part is still attempted. Run itself returns an error only
// for re-entrant invocation; partial failure is expressed in the result.
func (o *Orchestrator) Run(ctx context.Context, batch BatchInput) (*BatchResult, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrBatchActive
	}
	o.running = true
	o.resetLocked(batch)
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	for i := range batch.Staged {
		o.submitPart(ctx, i, batch.Staged[i])
	}

	result := o.result(batch)
	for _, obs := range o.observers {
		obs.BatchFinished(result)
	}
	return &result, nil
}

// BatchInput identifies one batch and its staged parts.
type BatchInput struct {
	BatchID     string
	OrderNumber string
	Staged      []StagedRequest
}

// resetLocked initialises per-batch state. Caller holds o.mu.
func (o *Orchestrator) resetLocked(batch BatchInput) {
	o.batchID = batch.BatchID
	o.orderNumber = batch.OrderNumber
	o.headerID = ""
	o.headerInterfaceID = ""
	o.receiptNumber = ""
	o.lastSuccess = nil

	o.parts = make([]PartProgress, len(batch.Staged))
	for i, req := range batch.Staged {
		o.parts[i] = PartProgress{
			SectionIndex: req.SectionIndex,
			State:        PartPending,
			Lines:        len(req.Payload.Lines),
		}
	}
}

// submitPart drives one staged request to a terminal state.
func (o *Orchestrator) submitPart(ctx context.Context, i int, req StagedRequest) {
	part := &o.parts[i]
	part.State = PartSubmitting
	o.publish()

	payload := req.Payload
	// Every part after the first resolved header id must carry that id so
	// the backend appends to the same receipt instead of minting a new one.
	if i > 0 && o.headerID != "" {
		payload.ReceiptHeaderID = o.headerID
	}

	start := time.Now()
	res, err := o.submitter.Submit(ctx, payload)
	part.ElapsedMS = time.Since(start).Milliseconds()

	switch {
	case err != nil:
		o.recordTransportFailure(part, err)
	case strings.EqualFold(res.ReturnStatus, returnStatusSuccess):
		o.recordSuccess(ctx, part, res)
	default:
		o.recordDomainFailure(part, res)
	}

	o.publish()
}

// recordSuccess marks the part successful and pins the batch's shared
// header identifiers on first success.
func (o *Orchestrator) recordSuccess(ctx context.Context, part *PartProgress, res *SubmitResult) {
	part.State = PartSuccess
	part.ReturnStatus = res.ReturnStatus
	part.ReceiptNumber = res.ReceiptNumber
	part.ReceiptHeaderID = res.ReceiptHeaderID

	// First success wins; later successes must not overwrite the pinned id.
	if o.headerID == "" && res.ReceiptHeaderID != "" {
		o.headerID = res.ReceiptHeaderID
	}
	if o.headerInterfaceID == "" && res.HeaderInterfaceID != "" {
		o.headerInterfaceID = res.HeaderInterfaceID
	}
	if res.ReceiptNumber != "" {
		o.receiptNumber = res.ReceiptNumber
	}
	o.lastSuccess = res

	o.appendProcessingErrors(ctx, part, res)

	if o.logger != nil {
		o.logger.Info("receipt part submitted",
			"batch_id", o.batchID,
			"section", part.SectionIndex,
			"receipt_number", res.ReceiptNumber,
		)
	}
}

// appendProcessingErrors best-effort fetches line-level processing errors
// for an accepted part. Diagnostic failure is itself only a note, never a
// part failure.
func (o *Orchestrator) appendProcessingErrors(ctx context.Context, part *PartProgress, res *SubmitResult) {
	if res.HeaderInterfaceID == "" || len(res.Lines) == 0 {
		return
	}
	txID := res.Lines[0].InterfaceTransactionID
	if txID == "" {
		return
	}

	procErrs, err := o.submitter.FetchProcessingErrors(ctx, res.HeaderInterfaceID, txID)
	if err != nil {
		part.Messages = append(part.Messages,
			fmt.Sprintf("processing-error lookup unavailable: %v", err))
		return
	}
	for _, pe := range procErrs {
		msg := pe.Message
		if pe.Description != "" {
			msg = pe.Description + ": " + pe.Message
		}
		part.Messages = append(part.Messages, msg)
	}
}

// recordDomainFailure marks the part failed on a non-SUCCESS business
// status. The batch still proceeds to the next part.
func (o *Orchestrator) recordDomainFailure(part *PartProgress, res *SubmitResult) {
	part.State = PartFailed
	part.ReturnStatus = res.ReturnStatus
	if res.Message != "" {
		part.Messages = append(part.Messages, res.Message)
	}

	if o.logger != nil {
		o.logger.Warn("receipt part rejected by backend",
			"batch_id", o.batchID,
			"section", part.SectionIndex,
			"return_status", res.ReturnStatus,
		)
	}
}

// recordTransportFailure marks the part failed on a transport error,
// capturing status code, URL, and whatever structure can be pulled out of
// the raw response body.
func (o *Orchestrator) recordTransportFailure(part *PartProgress, err error) {
	part.State = PartFailed

	var te *TransportError
	if errors.As(err, &te) {
		part.StatusCode = te.StatusCode
		part.URL = te.URL
		part.Messages = append(part.Messages, te.Error())

		// Best-effort: error bodies sometimes carry the structured
		// ReturnStatus/Message fields of a normal response.
		if parsed := parseErrorBody(te.Body); parsed != nil {
			if parsed.ReturnStatus != "" {
				part.ReturnStatus = parsed.ReturnStatus
			}
			if parsed.Message != "" {
				part.Messages = append(part.Messages, parsed.Message)
			}
		}
	} else {
		part.Messages = append(part.Messages, err.Error())
	}

	if o.logger != nil {
		o.logger.Error("receipt part submission failed",
			"batch_id", o.batchID,
			"section", part.SectionIndex,
			"error", err,
		)
	}
}

// parseErrorBody attempts to decode a raw error body as a SubmitResult.
func parseErrorBody(body string) *SubmitResult {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	var res SubmitResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil
	}
	if res.ReturnStatus == "" && res.Message == "" {
		return nil
	}
	return &res
}

// publish sends an immutable snapshot of current progress to all observers.
func (o *Orchestrator) publish() {
	if len(o.observers) == 0 {
		return
	}
	snap := Snapshot{
		BatchID:     o.batchID,
		OrderNumber: o.orderNumber,
		Parts:       copyParts(o.parts),
	}
	for _, obs := range o.observers {
		obs.BatchProgress(snap)
	}
}

// result assembles the final batch result.
func (o *Orchestrator) result(batch BatchInput) BatchResult {
	return BatchResult{
		BatchID:           o.batchID,
		OrderNumber:       o.orderNumber,
		Kind:              batchKind(batch),
		Parts:             copyParts(o.parts),
		ReceiptNumber:     o.receiptNumber,
		ReceiptHeaderID:   o.headerID,
		HeaderInterfaceID: o.headerInterfaceID,
		LastSuccess:       o.lastSuccess,
		CreatedAt:         time.Now().UTC(),
	}
}

// batchKind reads the order kind off the first staged payload.
func batchKind(batch BatchInput) (k order.Kind) {
	if len(batch.Staged) > 0 {
		return batch.Staged[0].Payload.Kind
	}
	return k
}

// copyParts deep-copies the progress list so observers and callers never
// alias the orchestrator's internal state.
func copyParts(parts []PartProgress) []PartProgress {
	out := make([]PartProgress, len(parts))
	copy(out, parts)
	for i := range out {
		if len(parts[i].Messages) > 0 {
			out[i].Messages = append([]string(nil), parts[i].Messages...)
		}
	}
	return out
}
