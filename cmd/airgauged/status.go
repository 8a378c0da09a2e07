// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"encoding/json"
	"net/http"
)

type statusReading struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	GasResistance float64 `json:"gas_resistance"`
	GasValid      bool    `json:"gas_valid"`
}

type statusResponse struct {
	Device      string         `json:"device"`
	Connected   bool           `json:"mqtt_connected"`
	AlertActive bool           `json:"alert_active"`
	Reads       uint64         `json:"reads"`
	UpdatedAt   int64          `json:"updated_at,omitempty"`
	Reading     *statusReading `json:"reading,omitempty"`
	Score       float64        `json:"iaq_score"`
	Text        string         `json:"iaq_text"`
	Calibrated  bool           `json:"is_calibrated"`
	Progress    int            `json:"calibration_progress"`
}

// handleStatus reports the last reading and result as JSON, in the wire
// payload's field names.
func (a *Application) handleStatus(w http.ResponseWriter, r *http.Request) {
	result, err := a.engine.LastResult(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	status := statusResponse{
		Device:      a.client.ID(),
		Connected:   a.client.Connected(),
		AlertActive: a.alerts.Active(),
		Reads:       a.monitor.Reads(),
		Score:       result.Score,
		Text:        result.Level.String(),
		Calibrated:  result.Calibrated,
		Progress:    a.engine.CalibrationProgress(),
	}
	if reading, ok := a.monitor.Last(); ok {
		status.Reading = &statusReading{
			Temperature:   reading.Temperature,
			Humidity:      reading.Humidity,
			Pressure:      reading.Pressure,
			GasResistance: reading.GasResistance,
			GasValid:      reading.GasValid,
		}
		status.UpdatedAt = a.monitor.UpdatedAt().Unix()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		a.log.Debug("status encode failed", "error", err)
	}
}
