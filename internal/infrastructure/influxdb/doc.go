// Package influxdb provides InfluxDB connectivity for GRN Core.
//
// It wraps the official influxdb-client-go v2 library with patterns for
// connection management, metric writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series telemetry for:
//   - Receipt submission outcomes (per-part duration, state, line counts)
//   - Attachment upload outcomes
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "warehouse",
//	    Bucket: "grncore",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteSubmissionMetric("purchase", "success", 412, 3)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via a
// callback. Connection and health check errors are returned directly.
package influxdb
