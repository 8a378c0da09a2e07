// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iaq_test

import (
	"testing"

	"github.com/airgauge/airgauge/iaq"
	"github.com/stretchr/testify/require"
)

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score    float64
		expected iaq.Level
	}{
		{0, iaq.LevelExcellent},
		{50, iaq.LevelExcellent},
		{50.5, iaq.LevelGood},
		{100, iaq.LevelGood},
		{100.5, iaq.LevelLightlyPolluted},
		{150, iaq.LevelLightlyPolluted},
		{151, iaq.LevelModeratelyPolluted},
		{200, iaq.LevelModeratelyPolluted},
		{250, iaq.LevelHeavilyPolluted},
		{300, iaq.LevelHeavilyPolluted},
		{301, iaq.LevelSeverelyPolluted},
		{500, iaq.LevelSeverelyPolluted},
	}

	for _, test := range tests {
		require.Equal(
			t,
			test.expected,
			iaq.LevelForScore(test.score),
			"score %v",
			test.score,
		)
	}
}

func TestLevelStrings(t *testing.T) {
	tests := []struct {
		level    iaq.Level
		expected string
	}{
		{iaq.LevelExcellent, "Excellent"},
		{iaq.LevelGood, "Good"},
		{iaq.LevelLightlyPolluted, "Lightly Polluted"},
		{iaq.LevelModeratelyPolluted, "Moderately Polluted"},
		{iaq.LevelHeavilyPolluted, "Heavily Polluted"},
		{iaq.LevelSeverelyPolluted, "Severely Polluted"},
		{iaq.LevelUnknown, "Unknown"},
		{iaq.Level(42), "Unknown"},
	}

	for _, test := range tests {
		require.Equal(t, test.expected, test.level.String())
	}
}

func TestLevelColors(t *testing.T) {
	tests := []struct {
		level    iaq.Level
		expected uint32
	}{
		{iaq.LevelExcellent, 0x00E400},
		{iaq.LevelGood, 0x92D050},
		{iaq.LevelLightlyPolluted, 0xFFFF00},
		{iaq.LevelModeratelyPolluted, 0xFF8000},
		{iaq.LevelHeavilyPolluted, 0xFF0000},
		{iaq.LevelSeverelyPolluted, 0x800080},
		{iaq.LevelUnknown, 0x808080},
		{iaq.Level(42), 0x808080},
	}

	for _, test := range tests {
		require.Equal(t, test.expected, test.level.Color())
	}
}

func TestAccuracyStrings(t *testing.T) {
	tests := []struct {
		accuracy iaq.Accuracy
		expected string
	}{
		{iaq.AccuracyUnreliable, "Unreliable (Stabilizing)"},
		{iaq.AccuracyLow, "Low (Calibrating)"},
		{iaq.AccuracyMedium, "Medium"},
		{iaq.AccuracyHigh, "High (Calibrated)"},
		{iaq.Accuracy(9), "Unknown"},
	}

	for _, test := range tests {
		require.Equal(t, test.expected, test.accuracy.String())
	}
}
