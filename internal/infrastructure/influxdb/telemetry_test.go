package influxdb

import (
	"testing"

	"github.com/warelogic/grn-core/internal/order"
	"github.com/warelogic/grn-core/internal/receipt"
)

type recordedMetric struct {
	kind       string
	outcome    string
	durationMS int64
	lines      int
}

type fakeWriter struct {
	metrics []recordedMetric
}

func (f *fakeWriter) WriteSubmissionMetric(kind, outcome string, durationMS int64, lines int) {
	f.metrics = append(f.metrics, recordedMetric{kind, outcome, durationMS, lines})
}

func TestBatchFinishedWritesOnePointPerPart(t *testing.T) {
	writer := &fakeWriter{}
	tel := NewTelemetry(writer)

	tel.BatchFinished(receipt.BatchResult{
		BatchID: "b1",
		Kind:    order.KindPurchase,
		Parts: []receipt.PartProgress{
			{SectionIndex: 1, State: receipt.PartSuccess, ElapsedMS: 120, Lines: 3},
			{SectionIndex: 2, State: receipt.PartFailed, ElapsedMS: 45, Lines: 1},
		},
	})

	if len(writer.metrics) != 2 {
		t.Fatalf("expected 2 points, got %d", len(writer.metrics))
	}
	if writer.metrics[0] != (recordedMetric{"purchase", "success", 120, 3}) {
		t.Errorf("point 1 = %+v", writer.metrics[0])
	}
	if writer.metrics[1] != (recordedMetric{"purchase", "failed", 45, 1}) {
		t.Errorf("point 2 = %+v", writer.metrics[1])
	}
}

func TestBatchProgressIgnored(t *testing.T) {
	writer := &fakeWriter{}
	tel := NewTelemetry(writer)

	tel.BatchProgress(receipt.Snapshot{BatchID: "b1"})

	if len(writer.metrics) != 0 {
		t.Errorf("expected no points, got %d", len(writer.metrics))
	}
}
