// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package bme680 defines the acquisition boundary for BME680-class
// environmental sensors: the reading the rest of the system consumes, the
// narrow Source interface drivers implement, and host-side helpers (a cached
// monitor and a synthetic source). Bus protocol and timing live behind Source
// implementations and are out of scope here.
package bme680

import "context"

type (
	// Reading is one environmental sample. Field layout matches the engine's
	// input so a Reading converts directly.
	Reading struct {
		Temperature   float64 // degC
		Humidity      float64 // %RH
		Pressure      float64 // Pa
		GasResistance float64 // Ohms
		GasValid      bool
	}

	// Source produces readings. Read blocks until a sample is available or
	// the context ends. Implementations need not be safe for concurrent use;
	// one acquisition loop owns the source.
	Source interface {
		Read(ctx context.Context) (Reading, error)
	}
)

// Valid reports whether the values sit inside the sensor's operating ranges
// (-40..85 degC, 0..100 %RH, 300..1100 hPa). It is a plausibility check for
// transport and display; gas validity is the sensor's own flag and is judged
// by the engine.
func (r Reading) Valid() bool {
	const (
		minTemperature = -40.0
		maxTemperature = 85.0
		minHumidity    = 0.0
		maxHumidity    = 100.0
		minPressure    = 30000.0
		maxPressure    = 110000.0
	)

	if r.Temperature < minTemperature || r.Temperature > maxTemperature {
		return false
	}
	if r.Humidity < minHumidity || r.Humidity > maxHumidity {
		return false
	}
	if r.Pressure < minPressure || r.Pressure > maxPressure {
		return false
	}
	return true
}
