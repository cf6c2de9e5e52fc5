// Package mqtt publishes receipt progress events to an MQTT broker.
//
// The publisher is optional. When enabled, warehouse dashboards and label
// stations can follow submission progress without polling the HTTP API:
// each part state transition and each completed batch is published as a
// JSON event.
//
// Topic hierarchy:
//
//	grncore/receipt/{batch_id}/part/{section_index}   part state transitions
//	grncore/receipt/{batch_id}/result                 final batch result
//	grncore/system/status                             online/offline status (LWT)
//
// The client wraps paho.mqtt.golang with auto-reconnect and a Last Will
// and Testament so consumers can detect an unexpected shutdown.
package mqtt
