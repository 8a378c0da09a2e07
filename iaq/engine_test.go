// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iaq_test

import (
	"context"
	"testing"

	"github.com/airgauge/airgauge/iaq"
	"github.com/stretchr/testify/require"
)

// reading builds a valid sample at reference conditions, where compensation
// leaves the gas resistance unchanged.
func reading(gas float64) iaq.Reading {
	return iaq.Reading{
		Temperature:   25,
		Humidity:      40,
		Pressure:      101325,
		GasResistance: gas,
		GasValid:      true,
	}
}

func calculate(t *testing.T, e *iaq.Engine, gas float64) *iaq.Result {
	t.Helper()
	res, err := e.Calculate(context.Background(), reading(gas))
	require.NoError(t, err)
	return res
}

func TestOperationsRequireInit(t *testing.T) {
	ctx := context.Background()
	e := iaq.New()

	_, err := e.Calculate(ctx, reading(100000))
	require.ErrorIs(t, err, iaq.ErrNotInitialized)

	_, err = e.LastResult(ctx)
	require.ErrorIs(t, err, iaq.ErrNotInitialized)

	require.ErrorIs(t, e.Reset(ctx), iaq.ErrNotInitialized)
	require.ErrorIs(t, e.SaveState(ctx), iaq.ErrNotInitialized)
	require.ErrorIs(t, e.LoadState(ctx), iaq.ErrNotInitialized)
}

func TestInitValidatesOptions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		opt  iaq.EngineOption
	}{
		{"RateAtOne", iaq.WithRecalibrationRate(1.0)},
		{"RateAboveOne", iaq.WithRecalibrationRate(1.5)},
		{"NegativeRate", iaq.WithRecalibrationRate(-0.1)},
		{"NegativeLockTimeout", iaq.WithLockTimeout(-1)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := iaq.New(test.opt).Init(ctx)
			require.ErrorIs(t, err, iaq.ErrArgument)
		})
	}

	require.NoError(t, iaq.New(iaq.WithRecalibrationRate(0.5)).Init(ctx))
}

func TestFirstSampleScoresClean(t *testing.T) {
	e := iaq.New(iaq.WithBurnInSamples(4))
	require.NoError(t, e.Init(context.Background()))

	// With one sample the baseline is that sample, so the ratio is exactly 1.
	res := calculate(t, e, 123456)
	require.InDelta(t, 50.0, res.Score, 1e-9)
	require.Equal(t, res.Score, res.StaticScore)
	require.Equal(t, iaq.LevelExcellent, res.Level)
	require.InDelta(t, 123456.0, res.Baseline, 1e-9)
	require.InDelta(t, 650.0, res.CO2Equivalent, 1e-9)
	require.InDelta(t, 0.0, res.VOCEquivalent, 1e-9)
	require.Equal(t, uint32(1), res.Samples)
	require.False(t, res.Calibrated)
	require.False(t, res.Timestamp.IsZero())
}

func TestBurnInRunningMean(t *testing.T) {
	e := iaq.New(iaq.WithBurnInSamples(4))
	require.NoError(t, e.Init(context.Background()))

	steps := []struct {
		gas        float64
		baseline   float64
		accuracy   iaq.Accuracy
		calibrated bool
	}{
		{100000, 100000, iaq.AccuracyLow, false},
		{200000, 150000, iaq.AccuracyMedium, false},
		{150000, 150000, iaq.AccuracyMedium, false},
		{50000, 125000, iaq.AccuracyHigh, true},
	}

	for i, step := range steps {
		res := calculate(t, e, step.gas)
		require.InDelta(t, step.baseline, res.Baseline, 1e-6, "step %d", i)
		require.Equal(t, step.accuracy, res.Accuracy, "step %d", i)
		require.Equal(t, step.calibrated, res.Calibrated, "step %d", i)
		require.Equal(t, uint32(i+1), res.Samples, "step %d", i)
	}

	require.True(t, e.IsCalibrated())
}

func TestBaselineAdaptsOnlyTowardCleanerAir(t *testing.T) {
	e := iaq.New(
		iaq.WithBurnInSamples(2),
		iaq.WithRecalibrationRate(0.1),
	)
	require.NoError(t, e.Init(context.Background()))

	// Burn-in: mean of the first two samples.
	calculate(t, e, 100000)
	res := calculate(t, e, 150000)
	require.InDelta(t, 125000.0, res.Baseline, 1e-6)

	// A cleaner reading pulls the baseline up by the adaptation rate.
	res = calculate(t, e, 200000)
	require.InDelta(t, 132500.0, res.Baseline, 1e-6)

	// A dirtier reading must not drag the baseline down.
	res = calculate(t, e, 50000)
	require.InDelta(t, 132500.0, res.Baseline, 1e-6)
}

func TestInvalidReadingLeavesCalibrationUntouched(t *testing.T) {
	ctx := context.Background()
	e := iaq.New(iaq.WithBurnInSamples(4))
	require.NoError(t, e.Init(ctx))

	calculate(t, e, 100000)
	calculate(t, e, 200000)
	require.Equal(t, 50, e.CalibrationProgress())

	res, err := e.Calculate(ctx, iaq.Reading{
		Temperature:   25,
		Humidity:      40,
		GasResistance: 300000,
		GasValid:      false,
	})
	require.ErrorIs(t, err, iaq.ErrInput)
	require.NotNil(t, res)
	require.Equal(t, iaq.LevelUnknown, res.Level)
	require.Equal(t, iaq.AccuracyUnreliable, res.Accuracy)

	// The rejection is visible to readers but the calibration is intact.
	last, err := e.LastResult(ctx)
	require.NoError(t, err)
	require.Equal(t, iaq.LevelUnknown, last.Level)
	require.Equal(t, 50, e.CalibrationProgress())

	res = calculate(t, e, 150000)
	require.Equal(t, uint32(3), res.Samples)
	require.InDelta(t, 150000.0, res.Baseline, 1e-6)
}

func TestNonPositiveGasRejected(t *testing.T) {
	ctx := context.Background()
	e := iaq.New()
	require.NoError(t, e.Init(ctx))

	for _, gas := range []float64{0, -10} {
		res, err := e.Calculate(ctx, reading(gas))
		require.ErrorIs(t, err, iaq.ErrInput)
		require.NotNil(t, res)
		require.Equal(t, iaq.LevelUnknown, res.Level)
	}
	require.Equal(t, 0, e.CalibrationProgress())
}

func TestCalibrationProgress(t *testing.T) {
	e := iaq.New(iaq.WithBurnInSamples(10))
	require.NoError(t, e.Init(context.Background()))
	require.Equal(t, 0, e.CalibrationProgress())
	require.False(t, e.IsCalibrated())

	for range 5 {
		calculate(t, e, 100000)
	}
	require.Equal(t, 50, e.CalibrationProgress())
	require.False(t, e.IsCalibrated())

	for range 5 {
		calculate(t, e, 100000)
	}
	require.Equal(t, 100, e.CalibrationProgress())
	require.True(t, e.IsCalibrated())

	// Progress saturates once the burn-in target is reached.
	var res *iaq.Result
	for range 3 {
		res = calculate(t, e, 100000)
	}
	require.Equal(t, 100, e.CalibrationProgress())
	require.Equal(t, uint32(13), res.Samples)
}

func TestResetRestartsCalibration(t *testing.T) {
	ctx := context.Background()
	e := iaq.New(
		iaq.WithBurnInSamples(3),
		iaq.WithRecalibrationRate(0.1),
	)
	require.NoError(t, e.Init(ctx))

	sequence := []float64{100000, 150000, 50000, 250000, 30000}

	first := make([]*iaq.Result, len(sequence))
	for i, gas := range sequence {
		first[i] = calculate(t, e, gas)
	}
	require.True(t, e.IsCalibrated())

	require.NoError(t, e.Reset(ctx))
	require.False(t, e.IsCalibrated())
	require.Equal(t, 0, e.CalibrationProgress())

	last, err := e.LastResult(ctx)
	require.NoError(t, err)
	require.Equal(t, iaq.LevelUnknown, last.Level)

	// Replaying the same readings reproduces the same trajectory.
	for i, gas := range sequence {
		res := calculate(t, e, gas)
		require.InDelta(t, first[i].Score, res.Score, 1e-9, "step %d", i)
		require.InDelta(
			t,
			first[i].Baseline,
			res.Baseline,
			1e-9,
			"step %d",
			i,
		)
		require.Equal(t, first[i].Samples, res.Samples, "step %d", i)
	}
}

func TestOffsetsShiftReportedValuesOnly(t *testing.T) {
	ctx := context.Background()
	raw := iaq.Reading{
		Temperature:   30,
		Humidity:      50,
		GasResistance: 80000,
		GasValid:      true,
	}

	plain := iaq.New()
	require.NoError(t, plain.Init(ctx))
	offset := iaq.New(
		iaq.WithTemperatureOffset(-2.5),
		iaq.WithHumidityOffset(3),
	)
	require.NoError(t, offset.Init(ctx))

	plainRes, err := plain.Calculate(ctx, raw)
	require.NoError(t, err)
	offsetRes, err := offset.Calculate(ctx, raw)
	require.NoError(t, err)

	require.InDelta(t, 27.5, offsetRes.Temperature, 1e-9)
	require.InDelta(t, 53.0, offsetRes.Humidity, 1e-9)

	// Offsets adjust the reported values, not the compensation inputs.
	require.Equal(t, plainRes.Score, offsetRes.Score)
	require.Equal(t, plainRes.Baseline, offsetRes.Baseline)
}

func TestLastResultBeforeFirstSample(t *testing.T) {
	ctx := context.Background()
	e := iaq.New()
	require.NoError(t, e.Init(ctx))

	res, err := e.LastResult(ctx)
	require.NoError(t, err)
	require.Equal(t, iaq.LevelUnknown, res.Level)
	require.Equal(t, iaq.AccuracyUnreliable, res.Accuracy)
	require.Zero(t, res.Score)
	require.Zero(t, res.Samples)
	require.False(t, res.Calibrated)
	require.False(t, res.Timestamp.IsZero())
}

func TestResultsAreCopies(t *testing.T) {
	ctx := context.Background()
	e := iaq.New()
	require.NoError(t, e.Init(ctx))

	res := calculate(t, e, 100000)
	res.Score = -1

	last, err := e.LastResult(ctx)
	require.NoError(t, err)
	require.InDelta(t, 50.0, last.Score, 1e-9)

	last.Score = -1
	again, err := e.LastResult(ctx)
	require.NoError(t, err)
	require.InDelta(t, 50.0, again.Score, 1e-9)
}
