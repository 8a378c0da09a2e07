// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

// Wire payloads for the telemetry topics, matching the JSON schema the
// device firmware publishes. Timestamps are Unix seconds.

type (
	// DataPayload is the raw sensor reading published on the data topic.
	DataPayload struct {
		Temperature   float64 `json:"temperature"`
		Humidity      float64 `json:"humidity"`
		Pressure      float64 `json:"pressure"`
		GasResistance float64 `json:"gas_resistance"`
		GasValid      bool    `json:"gas_valid"`
		Timestamp     int64   `json:"timestamp"`
	}

	// IAQPayload is the air quality result published on the iaq topic.
	IAQPayload struct {
		Score         float64 `json:"iaq_score"`
		Level         int     `json:"iaq_level"`
		Text          string  `json:"iaq_text"`
		Accuracy      int     `json:"accuracy"`
		CO2Equivalent float64 `json:"co2_equivalent"`
		VOCEquivalent float64 `json:"voc_equivalent"`
		Calibrated    bool    `json:"is_calibrated"`
		Timestamp     int64   `json:"timestamp"`
	}

	// StatusPayload is the device availability published on the status topic,
	// retained so subscribers always see the latest. The timestamp is omitted
	// in the last-will variant, which is composed before the outage it
	// reports.
	StatusPayload struct {
		Status    string `json:"status"`
		ClientID  string `json:"client_id"`
		Timestamp int64  `json:"timestamp,omitempty"`
	}

	// AlertPayload is an alert event published on the alert topic. The event
	// ID is unique per event so downstream consumers can deduplicate
	// at-least-once delivery.
	AlertPayload struct {
		Type      string `json:"type"`
		Message   string `json:"message"`
		ClientID  string `json:"client_id"`
		EventID   string `json:"event_id"`
		Timestamp int64  `json:"timestamp"`
	}
)

const (
	// StatusOnline marks the device connected and publishing.
	StatusOnline = "online"

	// StatusOffline marks the device disconnected.
	StatusOffline = "offline"
)
