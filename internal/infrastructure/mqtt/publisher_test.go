package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/warelogic/grn-core/internal/receipt"
)

// fakePublisher records PublishJSON calls.
type fakePublisher struct {
	topics   []string
	payloads [][]byte
}

func (f *fakePublisher) PublishJSON(topic string, payload []byte) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return nil
}

func snapshot(batchID string, states ...receipt.PartState) receipt.Snapshot {
	snap := receipt.Snapshot{BatchID: batchID, OrderNumber: "PO-1001"}
	for i, s := range states {
		snap.Parts = append(snap.Parts, receipt.PartProgress{SectionIndex: i + 1, State: s})
	}
	return snap
}

func TestBatchProgressPublishesOnlyChangedParts(t *testing.T) {
	fake := &fakePublisher{}
	pub := NewProgressPublisher(fake, nil)

	pub.BatchProgress(snapshot("b1", receipt.PartSubmitting, receipt.PartPending))
	pub.BatchProgress(snapshot("b1", receipt.PartSuccess, receipt.PartPending))

	want := []string{
		"grncore/receipt/b1/part/1",
		"grncore/receipt/b1/part/2",
		"grncore/receipt/b1/part/1",
	}
	if len(fake.topics) != len(want) {
		t.Fatalf("published %d events, want %d: %v", len(fake.topics), len(want), fake.topics)
	}
	for i, topic := range want {
		if fake.topics[i] != topic {
			t.Errorf("event %d topic = %q, want %q", i, fake.topics[i], topic)
		}
	}

	var part receipt.PartProgress
	if err := json.Unmarshal(fake.payloads[2], &part); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if part.State != receipt.PartSuccess {
		t.Errorf("payload state = %q, want success", part.State)
	}
}

func TestBatchFinishedPublishesResultAndResets(t *testing.T) {
	fake := &fakePublisher{}
	pub := NewProgressPublisher(fake, nil)

	pub.BatchProgress(snapshot("b1", receipt.PartSuccess))
	pub.BatchFinished(receipt.BatchResult{
		BatchID: "b1",
		Parts:   []receipt.PartProgress{{SectionIndex: 1, State: receipt.PartSuccess}},
	})

	last := fake.topics[len(fake.topics)-1]
	if last != "grncore/receipt/b1/result" {
		t.Errorf("result topic = %q", last)
	}

	// A new batch reusing the id publishes fresh transitions.
	fake.topics = nil
	pub.BatchProgress(snapshot("b1", receipt.PartSuccess))
	if len(fake.topics) != 1 {
		t.Errorf("expected state republished after reset, got %v", fake.topics)
	}
}
