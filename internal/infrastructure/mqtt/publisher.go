package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/warelogic/grn-core/internal/infrastructure/logging"
	"github.com/warelogic/grn-core/internal/receipt"
)

// jsonPublisher is the slice of Client the progress publisher needs.
type jsonPublisher interface {
	PublishJSON(topic string, payload []byte) error
}

// ProgressPublisher bridges receipt batch progress onto MQTT topics. It
// implements receipt.Observer: each part state change is published to that
// part's topic, and the final result to the batch's result topic.
type ProgressPublisher struct {
	client jsonPublisher
	logger *logging.Logger

	// lastStates deduplicates snapshots so each part transition publishes
	// exactly once.
	mu         sync.Mutex
	lastStates map[string]receipt.PartState
}

// NewProgressPublisher creates a publisher over a connected client.
func NewProgressPublisher(client jsonPublisher, logger *logging.Logger) *ProgressPublisher {
	return &ProgressPublisher{
		client:     client,
		logger:     logger,
		lastStates: make(map[string]receipt.PartState),
	}
}

// BatchProgress publishes every part whose state changed since the last
// snapshot. Publish failures are logged and dropped; progress events are
// advisory.
func (p *ProgressPublisher) BatchProgress(snapshot receipt.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, part := range snapshot.Parts {
		key := fmt.Sprintf("%s/%d", snapshot.BatchID, part.SectionIndex)
		if p.lastStates[key] == part.State {
			continue
		}
		p.lastStates[key] = part.State

		payload, err := json.Marshal(part)
		if err != nil {
			continue
		}
		topic := Topics{}.ReceiptPart(snapshot.BatchID, part.SectionIndex)
		if err := p.client.PublishJSON(topic, payload); err != nil && p.logger != nil {
			p.logger.Warn("publishing part progress", "topic", topic, "error", err)
		}
	}
}

// BatchFinished publishes the final batch result and forgets the batch's
// per-part state.
func (p *ProgressPublisher) BatchFinished(result receipt.BatchResult) {
	p.mu.Lock()
	for _, part := range result.Parts {
		delete(p.lastStates, fmt.Sprintf("%s/%d", result.BatchID, part.SectionIndex))
	}
	p.mu.Unlock()

	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	topic := Topics{}.ReceiptResult(result.BatchID)
	if err := p.client.PublishJSON(topic, payload); err != nil && p.logger != nil {
		p.logger.Warn("publishing batch result", "topic", topic, "error", err)
	}
}
