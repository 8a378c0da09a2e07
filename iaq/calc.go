// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iaq

import "math"

// Clean-air reference resistance assumed until calibration supplies a better
// one, calibrated at 25degC and 40% RH.
const DefaultBaseline = 250000.0 // Ohms

const (
	tempReference = 25.0  // degC
	tempCompCoeff = 0.003 // per degC of deviation
	humReference  = 40.0  // %RH
	humCompCoeff  = 0.015 // per %RH of deviation
)

// CO2/VOC equivalents are heuristic affine remaps of the single gas
// resistance channel, not calibrated multi-gas measurements. The constants
// match the established scale and are kept for output compatibility.
const (
	co2Base  = 400.0 // ppm, outdoor baseline
	co2Max   = 2000.0
	co2Slope = 5.0

	vocBase  = 0.0 // ppm
	vocMax   = 10.0
	vocSlope = 1.5
)

// compensate scales a raw gas resistance to reference conditions. Higher
// temperature raises apparent resistance and higher humidity lowers it, each
// as an independent linear factor. No clamping; garbage in, garbage out.
func compensate(gasResistance, temperature, humidity float64) float64 {
	tempFactor := 1 + tempCompCoeff*(temperature-tempReference)
	humFactor := 1 + humCompCoeff*(humidity-humReference)
	return gasResistance * tempFactor / humFactor
}

// scoreFor converts a compensated resistance into the 0-500 IAQ index via a
// piecewise map on the ratio against the clean-air baseline. A ratio at or
// above 1 means air at least as clean as the baseline; lower ratios indicate
// increasing pollution.
func scoreFor(compensated, baseline float64) float64 {
	if baseline <= 0 {
		baseline = DefaultBaseline
	}
	ratio := compensated / baseline

	var score float64
	switch {
	case ratio >= 1.0:
		score = 50 * (2 - math.Min(ratio, 2))
	case ratio >= 0.5:
		score = 50 + 200*(1-ratio)
	case ratio >= 0.2:
		score = 150 + 100*(0.5-ratio)/0.3
	case ratio >= 0.1:
		score = 250 + 100*(0.2-ratio)/0.1
	default:
		score = 350 + 150*math.Min((0.1-ratio)/0.1, 1)
	}

	return math.Min(math.Max(score, 0), 500)
}

// co2Equivalent estimates CO2 concentration from the IAQ score: 400ppm for
// perfectly clean air, saturating at 2000ppm.
func co2Equivalent(score float64) float64 {
	return math.Min(math.Max(co2Base+score*co2Slope, co2Base), co2Max)
}

// vocEquivalent estimates VOC concentration inversely to gas resistance.
func vocEquivalent(resistance, baseline float64) float64 {
	if resistance <= 0 || baseline <= 0 {
		return 0
	}
	voc := vocBase + (baseline/resistance-1)*vocSlope
	return math.Min(math.Max(voc, vocBase), vocMax)
}
