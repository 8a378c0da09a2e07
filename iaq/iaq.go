// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package iaq implements a self-calibrating indoor air quality estimation
// engine for BME680-class gas sensors. It derives a 0-500 IAQ index (lower is
// cleaner) from temperature/humidity-compensated gas resistance measured
// against a drift-resistant clean-air baseline, along with CO2 and VOC
// equivalent estimates comparable to the Bosch BSEC outputs.
package iaq

// Level classifies an IAQ score into the standard six severity bands.
type Level byte

const (
	LevelExcellent          Level = iota // 0-50
	LevelGood                            // 51-100
	LevelLightlyPolluted                 // 101-150
	LevelModeratelyPolluted              // 151-200
	LevelHeavilyPolluted                 // 201-300
	LevelSeverelyPolluted                // 301-500
	LevelUnknown                         // invalid reading or not yet calculated
)

// Accuracy indicates how far baseline calibration has progressed.
type Accuracy byte

const (
	AccuracyUnreliable Accuracy = iota // below a quarter of the burn-in target
	AccuracyLow                        // below half of the burn-in target
	AccuracyMedium                     // burn-in still in progress
	AccuracyHigh                       // fully calibrated
)

// LevelForScore maps a score to its severity band. Scores are expected to be
// within [0, 500]; anything above the top band classifies as severely
// polluted.
func LevelForScore(score float64) Level {
	switch {
	case score <= 50:
		return LevelExcellent
	case score <= 100:
		return LevelGood
	case score <= 150:
		return LevelLightlyPolluted
	case score <= 200:
		return LevelModeratelyPolluted
	case score <= 300:
		return LevelHeavilyPolluted
	default:
		return LevelSeverelyPolluted
	}
}

func (l Level) String() string {
	switch l {
	case LevelExcellent:
		return "Excellent"
	case LevelGood:
		return "Good"
	case LevelLightlyPolluted:
		return "Lightly Polluted"
	case LevelModeratelyPolluted:
		return "Moderately Polluted"
	case LevelHeavilyPolluted:
		return "Heavily Polluted"
	case LevelSeverelyPolluted:
		return "Severely Polluted"
	default:
		return "Unknown"
	}
}

// Color returns the 0xRRGGBB display color conventionally associated with the
// level.
func (l Level) Color() uint32 {
	switch l {
	case LevelExcellent:
		return 0x00E400 // green
	case LevelGood:
		return 0x92D050 // light green
	case LevelLightlyPolluted:
		return 0xFFFF00 // yellow
	case LevelModeratelyPolluted:
		return 0xFF8000 // orange
	case LevelHeavilyPolluted:
		return 0xFF0000 // red
	case LevelSeverelyPolluted:
		return 0x800080 // purple
	default:
		return 0x808080 // gray
	}
}

// accuracyFor stages calibration confidence by quarters of the burn-in
// target, using integer division so the tier boundaries land on whole sample
// counts.
func accuracyFor(samples, burnIn uint32) Accuracy {
	switch {
	case samples < burnIn/4:
		return AccuracyUnreliable
	case samples < burnIn/2:
		return AccuracyLow
	case samples < burnIn:
		return AccuracyMedium
	default:
		return AccuracyHigh
	}
}

func (a Accuracy) String() string {
	switch a {
	case AccuracyUnreliable:
		return "Unreliable (Stabilizing)"
	case AccuracyLow:
		return "Low (Calibrating)"
	case AccuracyMedium:
		return "Medium"
	case AccuracyHigh:
		return "High (Calibrated)"
	default:
		return "Unknown"
	}
}
