package influxdb

import (
	"github.com/warelogic/grn-core/internal/receipt"
)

// submissionWriter is the slice of Client the telemetry observer needs.
type submissionWriter interface {
	WriteSubmissionMetric(kind, outcome string, durationMS int64, lines int)
}

// Telemetry records receipt batch outcomes as time-series points. It
// implements receipt.Observer; in-flight snapshots are ignored, only
// terminal results are written.
type Telemetry struct {
	writer submissionWriter
}

// NewTelemetry creates a telemetry observer over a connected client.
func NewTelemetry(writer submissionWriter) *Telemetry {
	return &Telemetry{writer: writer}
}

// BatchProgress is a no-op; telemetry only records terminal outcomes.
func (t *Telemetry) BatchProgress(receipt.Snapshot) {}

// BatchFinished writes one submission point per part.
func (t *Telemetry) BatchFinished(result receipt.BatchResult) {
	for _, part := range result.Parts {
		t.writer.WriteSubmissionMetric(
			string(result.Kind),
			string(part.State),
			part.ElapsedMS,
			part.Lines,
		)
	}
}
