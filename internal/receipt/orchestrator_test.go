package receipt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warelogic/grn-core/internal/order"
)

// mockSubmitter scripts per-call responses and records submitted payloads.
type mockSubmitter struct {
	mu        sync.Mutex
	responses []submitResponse
	submitted []Payload

	processingErrors []ProcessingError
	processingErr    error
	processingCalls  int
}

type submitResponse struct {
	result *SubmitResult
	err    error
}

func (m *mockSubmitter) Submit(_ context.Context, payload Payload) (*SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.submitted = append(m.submitted, payload)
	if len(m.responses) == 0 {
		return nil, errors.New("mock: no scripted response")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp.result, resp.err
}

func (m *mockSubmitter) FetchProcessingErrors(_ context.Context, _, _ string) ([]ProcessingError, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processingCalls++
	return m.processingErrors, m.processingErr
}

// captureObserver records every snapshot and the final result.
type captureObserver struct {
	mu        sync.Mutex
	snapshots []Snapshot
	finished  []BatchResult
}

func (c *captureObserver) BatchProgress(snapshot Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = append(c.snapshots, snapshot)
}

func (c *captureObserver) BatchFinished(result BatchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished = append(c.finished, result)
}

func stagedParts(n int) []StagedRequest {
	staged := make([]StagedRequest, n)
	for i := range staged {
		staged[i] = StagedRequest{
			SectionIndex: i + 1,
			Payload: Payload{
				Kind:   order.KindPurchase,
				Header: HeaderInfo{OrderNumber: "PO-1001"},
				Lines: []PayloadLine{{
					DocumentNumber: "PO-1001",
					LineNumber:     1,
					ItemCode:       "ITEM-1",
					Quantity:       decimal.NewFromInt(int64(i + 1)),
					Lot:            "LOT-A",
					Expiry:         "2026-01-01",
				}},
			},
		}
	}
	return staged
}

func successResult(headerID string) *SubmitResult {
	return &SubmitResult{
		ReturnStatus:    "SUCCESS",
		ReceiptNumber:   "RCV-7",
		ReceiptHeaderID: headerID,
	}
}

func TestRunPinsHeaderIDFromFirstSuccess(t *testing.T) {
	sub := &mockSubmitter{responses: []submitResponse{
		{result: successResult("HDR-1")},
		{result: successResult("HDR-2")},
		{result: successResult("HDR-3")},
	}}
	orch := NewOrchestrator(sub, nil)

	result, err := orch.Run(context.Background(), BatchInput{
		BatchID: "b1", OrderNumber: "PO-1001", Staged: stagedParts(3),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sub.submitted[0].ReceiptHeaderID != "" {
		t.Errorf("first payload header id = %q, want empty", sub.submitted[0].ReceiptHeaderID)
	}
	for i := 1; i < 3; i++ {
		if sub.submitted[i].ReceiptHeaderID != "HDR-1" {
			t.Errorf("payload %d header id = %q, want HDR-1 from first success",
				i+1, sub.submitted[i].ReceiptHeaderID)
		}
	}
	if result.ReceiptHeaderID != "HDR-1" {
		t.Errorf("batch header id = %q, want HDR-1", result.ReceiptHeaderID)
	}
}

func TestRunContinuesAfterFailedPart(t *testing.T) {
	sub := &mockSubmitter{responses: []submitResponse{
		{result: successResult("HDR-1")},
		{err: &TransportError{StatusCode: 500, URL: "http://erp/receipts", Body: `{"message":"oracle hiccup"}`}},
		{result: successResult("HDR-1")},
	}}
	orch := NewOrchestrator(sub, nil)

	result, err := orch.Run(context.Background(), BatchInput{
		BatchID: "b1", OrderNumber: "PO-1001", Staged: stagedParts(3),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sub.submitted) != 3 {
		t.Fatalf("expected all 3 parts attempted, got %d", len(sub.submitted))
	}
	states := []PartState{PartSuccess, PartFailed, PartSuccess}
	for i, want := range states {
		if got := result.Parts[i].State; got != want {
			t.Errorf("part %d state = %q, want %q", i+1, got, want)
		}
		if !result.Parts[i].State.Terminal() {
			t.Errorf("part %d not terminal", i+1)
		}
	}

	failed := result.Parts[1]
	if failed.StatusCode != 500 {
		t.Errorf("failed part status = %d, want 500", failed.StatusCode)
	}
	if failed.URL != "http://erp/receipts" {
		t.Errorf("failed part url = %q", failed.URL)
	}
	found := false
	for _, msg := range failed.Messages {
		if strings.Contains(msg, "oracle hiccup") {
			found = true
		}
	}
	if !found {
		t.Errorf("error body message not surfaced: %v", failed.Messages)
	}
}

func TestRunFirstPartFailsHeaderPinnedBySecond(t *testing.T) {
	sub := &mockSubmitter{responses: []submitResponse{
		{err: &TransportError{StatusCode: 503, URL: "http://erp/receipts"}},
		{result: successResult("HDR-2")},
		{result: successResult("HDR-2")},
	}}
	orch := NewOrchestrator(sub, nil)

	result, err := orch.Run(context.Background(), BatchInput{
		BatchID: "b1", OrderNumber: "PO-1001", Staged: stagedParts(3),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Part 2 had no pinned header yet; part 3 carries part 2's.
	if sub.submitted[1].ReceiptHeaderID != "" {
		t.Errorf("second payload header id = %q, want empty", sub.submitted[1].ReceiptHeaderID)
	}
	if sub.submitted[2].ReceiptHeaderID != "HDR-2" {
		t.Errorf("third payload header id = %q, want HDR-2", sub.submitted[2].ReceiptHeaderID)
	}
	if result.ReceiptHeaderID != "HDR-2" {
		t.Errorf("batch header id = %q, want HDR-2", result.ReceiptHeaderID)
	}
}

func TestRunDomainFailureRecordsMessage(t *testing.T) {
	sub := &mockSubmitter{responses: []submitResponse{
		{result: &SubmitResult{ReturnStatus: "ERROR", Message: "quantity exceeds ordered"}},
	}}
	orch := NewOrchestrator(sub, nil)

	result, err := orch.Run(context.Background(), BatchInput{
		BatchID: "b1", OrderNumber: "PO-1001", Staged: stagedParts(1),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	part := result.Parts[0]
	if part.State != PartFailed {
		t.Fatalf("part state = %q, want failed", part.State)
	}
	if part.ReturnStatus != "ERROR" {
		t.Errorf("return status = %q, want ERROR", part.ReturnStatus)
	}
	if len(part.Messages) != 1 || part.Messages[0] != "quantity exceeds ordered" {
		t.Errorf("messages = %v", part.Messages)
	}
}

func TestRunFetchesProcessingErrorsOnSuccess(t *testing.T) {
	sub := &mockSubmitter{
		responses: []submitResponse{{result: &SubmitResult{
			ReturnStatus:      "SUCCESS",
			ReceiptNumber:     "RCV-7",
			ReceiptHeaderID:   "HDR-1",
			HeaderInterfaceID: "IFC-1",
			Lines:             []SubmitResultLine{{InterfaceTransactionID: "TX-1"}},
		}}},
		processingErrors: []ProcessingError{{Description: "LINE 1", Message: "lot not on file"}},
	}
	orch := NewOrchestrator(sub, nil)

	result, err := orch.Run(context.Background(), BatchInput{
		BatchID: "b1", OrderNumber: "PO-1001", Staged: stagedParts(1),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sub.processingCalls != 1 {
		t.Fatalf("expected 1 processing-error lookup, got %d", sub.processingCalls)
	}
	part := result.Parts[0]
	if part.State != PartSuccess {
		t.Fatalf("part state = %q, want success", part.State)
	}
	if len(part.Messages) != 1 || part.Messages[0] != "LINE 1: lot not on file" {
		t.Errorf("messages = %v", part.Messages)
	}
	if result.HeaderInterfaceID != "IFC-1" {
		t.Errorf("header interface id = %q, want IFC-1", result.HeaderInterfaceID)
	}
}

func TestRunProcessingErrorLookupFailureIsNote(t *testing.T) {
	sub := &mockSubmitter{
		responses: []submitResponse{{result: &SubmitResult{
			ReturnStatus:      "SUCCESS",
			ReceiptHeaderID:   "HDR-1",
			HeaderInterfaceID: "IFC-1",
			Lines:             []SubmitResultLine{{InterfaceTransactionID: "TX-1"}},
		}}},
		processingErr: errors.New("timeout"),
	}
	orch := NewOrchestrator(sub, nil)

	result, err := orch.Run(context.Background(), BatchInput{
		BatchID: "b1", OrderNumber: "PO-1001", Staged: stagedParts(1),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	part := result.Parts[0]
	if part.State != PartSuccess {
		t.Fatalf("diagnostic failure must not fail the part, state = %q", part.State)
	}
	if len(part.Messages) == 0 || !strings.Contains(part.Messages[0], "timeout") {
		t.Errorf("lookup failure not noted: %v", part.Messages)
	}
}

func TestRunRejectsReentrantCall(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	sub := &blockingSubmitter{started: started, release: release}
	orch := NewOrchestrator(sub, nil)

	done := make(chan error, 1)
	go func() {
		_, err := orch.Run(context.Background(), BatchInput{
			BatchID: "b1", OrderNumber: "PO-1001", Staged: stagedParts(1),
		})
		done <- err
	}()

	<-started
	_, err := orch.Run(context.Background(), BatchInput{
		BatchID: "b2", OrderNumber: "PO-1001", Staged: stagedParts(1),
	})
	if !errors.Is(err, ErrBatchActive) {
		t.Errorf("expected ErrBatchActive, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Once the first batch finishes a new one is accepted.
	if _, err := orch.Run(context.Background(), BatchInput{
		BatchID: "b3", OrderNumber: "PO-1001", Staged: nil,
	}); err != nil {
		t.Errorf("run after completion: %v", err)
	}
}

// blockingSubmitter parks Submit until released, for re-entrancy tests.
type blockingSubmitter struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSubmitter) Submit(_ context.Context, _ Payload) (*SubmitResult, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return successResult("HDR-1"), nil
}

func (b *blockingSubmitter) FetchProcessingErrors(_ context.Context, _, _ string) ([]ProcessingError, error) {
	return nil, nil
}

func TestRunPublishesSnapshotsAndFinalResult(t *testing.T) {
	obs := &captureObserver{}
	sub := &mockSubmitter{responses: []submitResponse{
		{result: successResult("HDR-1")},
		{result: successResult("HDR-1")},
	}}
	orch := NewOrchestrator(sub, nil, obs)

	if _, err := orch.Run(context.Background(), BatchInput{
		BatchID: "b1", OrderNumber: "PO-1001", Staged: stagedParts(2),
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Two transitions per part: submitting, then terminal.
	if len(obs.snapshots) != 4 {
		t.Fatalf("expected 4 snapshots, got %d", len(obs.snapshots))
	}
	first := obs.snapshots[0]
	if first.Parts[0].State != PartSubmitting || first.Parts[1].State != PartPending {
		t.Errorf("first snapshot states = %q, %q; want submitting, pending",
			first.Parts[0].State, first.Parts[1].State)
	}
	last := obs.snapshots[3]
	if last.Parts[0].State != PartSuccess || last.Parts[1].State != PartSuccess {
		t.Errorf("last snapshot states = %q, %q; want success, success",
			last.Parts[0].State, last.Parts[1].State)
	}

	if len(obs.finished) != 1 {
		t.Fatalf("expected 1 finished callback, got %d", len(obs.finished))
	}
	if obs.finished[0].BatchID != "b1" {
		t.Errorf("finished batch id = %q, want b1", obs.finished[0].BatchID)
	}
}
