// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iaq

import "time"

type (
	// Reading is one raw sensor sample. Pressure is carried through for
	// consumers but does not participate in the algorithm.
	Reading struct {
		Temperature   float64 // degC
		Humidity      float64 // %RH
		Pressure      float64 // Pa
		GasResistance float64 // Ohms
		GasValid      bool
	}

	// Result is a complete estimation produced by one Calculate call.
	Result struct {
		// Primary outputs.
		Score    float64
		Level    Level
		Accuracy Accuracy

		// Derived estimates. These are approximations remapped from the gas
		// resistance channel, not independent measurements.
		CO2Equivalent float64 // ppm
		VOCEquivalent float64 // ppm

		// StaticScore mirrors Score; reserved for a slower-moving variant.
		StaticScore float64

		// Offset-adjusted sensor values.
		Temperature float64 // degC
		Humidity    float64 // %RH

		// Calibration state at the time of calculation.
		Baseline   float64 // Ohms
		Samples    uint32
		Calibrated bool

		Timestamp time.Time
	}
)
