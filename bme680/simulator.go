// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package bme680

import (
	"context"
	"math"
	"math/rand"
)

// Nominal indoor climate for the synthetic signal.
const (
	simTemperature = 24.0     // degC
	simHumidity    = 42.0     // %RH
	simPressure    = 101325.0 // Pa
	simCleanGas    = 320000.0 // Ohms

	// Pollution episodes start rarely and decay a few percent per read, so
	// at a seconds-scale cadence one lasts minutes.
	episodeRate  = 0.02
	episodeDecay = 0.97
)

// Simulator is a deterministic synthetic Source for development hosts and
// tests: a calm indoor climate with slow drift, occasional pollution
// episodes that depress the gas resistance, and optional gas-invalid
// readings. Identical seed and call count yield identical readings.
type Simulator struct {
	// Seed fixes the random sequence. The zero seed is as good as any.
	Seed int64

	// InvalidRate is the probability in [0, 1] that a reading is flagged
	// gas-invalid, simulating heater instability.
	InvalidRate float64

	rng     *rand.Rand
	phase   float64
	episode float64
}

// Read produces the next synthetic reading. Never fails; the context is
// accepted to satisfy Source.
func (s *Simulator) Read(context.Context) (Reading, error) {
	if s.rng == nil {
		// #nosec G404
		s.rng = rand.New(rand.NewSource(s.Seed))
	}

	s.phase += 0.01

	if s.episode == 0 && s.rng.Float64() < episodeRate {
		s.episode = 0.5 + 0.5*s.rng.Float64()
	} else if s.episode > 0 {
		s.episode *= episodeDecay
		if s.episode < 0.01 {
			s.episode = 0
		}
	}

	r := Reading{
		Temperature: simTemperature +
			1.5*math.Sin(s.phase) +
			0.2*s.rng.NormFloat64(),
		Humidity: simHumidity +
			5*math.Sin(s.phase/3) +
			0.5*s.rng.NormFloat64(),
		Pressure: simPressure + 40*s.rng.NormFloat64(),
		GasResistance: simCleanGas *
			(1 - 0.85*s.episode) *
			(1 + 0.02*s.rng.NormFloat64()),
		GasValid: true,
	}

	if s.InvalidRate > 0 && s.rng.Float64() < s.InvalidRate {
		r.GasValid = false
	}
	return r, nil
}
