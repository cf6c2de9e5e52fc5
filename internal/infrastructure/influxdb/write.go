package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSubmissionMetric records the outcome of one receipt part submission.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - kind: Order kind ("purchase", "transfer", "add_to_existing")
//   - outcome: Terminal part state ("success", "failed")
//   - durationMS: Wall time the submission took
//   - lines: Number of payload lines in the part
func (c *Client) WriteSubmissionMetric(kind, outcome string, durationMS int64, lines int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"receipt_submission",
		map[string]string{
			"kind":    kind,
			"outcome": outcome,
		},
		map[string]interface{}{
			"duration_ms": durationMS,
			"lines":       lines,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteUploadMetric records the outcome of one attachment upload pass.
//
// Parameters:
//   - outcome: "success" when every file uploaded, "partial" otherwise
//   - uploaded: Files successfully uploaded
//   - failed: Files that failed to upload
func (c *Client) WriteUploadMetric(outcome string, uploaded, failed int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"attachment_upload",
		map[string]string{
			"outcome": outcome,
		},
		map[string]interface{}{
			"uploaded": uploaded,
			"failed":   failed,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes an arbitrary pre-built point. Exposed for callers with
// measurements this package does not model.
func (c *Client) WritePoint(point *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(point)
}
