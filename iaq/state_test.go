// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iaq_test

import (
	"context"
	"testing"

	"github.com/airgauge/airgauge/iaq"
	"github.com/airgauge/airgauge/store/memory"
	"github.com/stretchr/testify/require"
)

func TestSaveAndRestoreContinuesCalibration(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	a := iaq.New(
		iaq.WithBurnInSamples(2),
		iaq.WithRecalibrationRate(0.1),
		iaq.WithStore(s),
	)
	require.NoError(t, a.Init(ctx))
	calculate(t, a, 100000)
	calculate(t, a, 150000)
	require.NoError(t, a.SaveState(ctx))

	// A new engine on the same store picks up where the first left off.
	b := iaq.New(
		iaq.WithBurnInSamples(2),
		iaq.WithRecalibrationRate(0.1),
		iaq.WithStore(s),
	)
	require.NoError(t, b.Init(ctx))
	require.True(t, b.IsCalibrated())
	require.Equal(t, 100, b.CalibrationProgress())

	res := calculate(t, b, 200000)
	require.InDelta(t, 132500.0, res.Baseline, 1e-6)
}

func TestSavedBaselineIsWholeOhms(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	e := iaq.New(iaq.WithBurnInSamples(2), iaq.WithStore(s))
	require.NoError(t, e.Init(ctx))
	calculate(t, e, 100001)
	res := calculate(t, e, 100002)
	require.InDelta(t, 100001.5, res.Baseline, 1e-6)
	require.NoError(t, e.SaveState(ctx))

	baseline, err := s.Get(ctx, "gas_base")
	require.NoError(t, err)
	require.Equal(t, uint32(100001), baseline)

	samples, err := s.Get(ctx, "samples")
	require.NoError(t, err)
	require.Equal(t, uint32(2), samples)
}

func TestRestoreMidBurnInContinuesMean(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	a := iaq.New(iaq.WithBurnInSamples(10), iaq.WithStore(s))
	require.NoError(t, a.Init(ctx))
	for range 4 {
		calculate(t, a, 100000)
	}
	require.NoError(t, a.SaveState(ctx))

	b := iaq.New(iaq.WithBurnInSamples(10), iaq.WithStore(s))
	require.NoError(t, b.Init(ctx))
	require.Equal(t, 40, b.CalibrationProgress())

	// The restored mean must weight the next sample as one of five, not
	// collapse because the pre-restart readings are gone.
	res := calculate(t, b, 200000)
	require.InDelta(t, 120000.0, res.Baseline, 1e-6)
}

func TestInitWithEmptyStoreStartsFresh(t *testing.T) {
	ctx := context.Background()
	e := iaq.New(iaq.WithStore(memory.New()))
	require.NoError(t, e.Init(ctx))
	require.Equal(t, 0, e.CalibrationProgress())

	res := calculate(t, e, 100000)
	require.InDelta(t, 100000.0, res.Baseline, 1e-6)
}

func TestLoadStateMissing(t *testing.T) {
	ctx := context.Background()
	e := iaq.New(iaq.WithStore(memory.New()))
	require.NoError(t, e.Init(ctx))

	err := e.LoadState(ctx)
	require.Error(t, err)
	require.True(t, iaq.IsStateMissing(err))
}

func TestLoadStateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Set(ctx, "gas_base", 132500))
	// No samples key; the half-written state must not be applied.

	e := iaq.New(iaq.WithBurnInSamples(4), iaq.WithStore(s))
	require.NoError(t, e.Init(ctx))
	require.True(t, iaq.IsStateMissing(e.LoadState(ctx)))

	res := calculate(t, e, 100000)
	require.InDelta(t, 100000.0, res.Baseline, 1e-6)
	require.Equal(t, uint32(1), res.Samples)
}

func TestLoadStateRejectsZeroBaseline(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Set(ctx, "gas_base", 0))
	require.NoError(t, s.Set(ctx, "samples", 10))

	e := iaq.New(iaq.WithStore(s))
	require.NoError(t, e.Init(ctx))
	require.ErrorIs(t, e.LoadState(ctx), iaq.ErrState)
	require.Equal(t, 0, e.CalibrationProgress())
}

func TestStateWithoutStore(t *testing.T) {
	ctx := context.Background()
	e := iaq.New()
	require.NoError(t, e.Init(ctx))

	require.ErrorIs(t, e.SaveState(ctx), iaq.ErrNoStore)
	require.ErrorIs(t, e.LoadState(ctx), iaq.ErrNoStore)
}

func TestSaveAfterResetStoresDefaults(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	e := iaq.New(iaq.WithBurnInSamples(2), iaq.WithStore(s))
	require.NoError(t, e.Init(ctx))
	calculate(t, e, 100000)
	calculate(t, e, 150000)
	require.NoError(t, e.Reset(ctx))
	require.NoError(t, e.SaveState(ctx))

	baseline, err := s.Get(ctx, "gas_base")
	require.NoError(t, err)
	require.Equal(t, uint32(250000), baseline)

	samples, err := s.Get(ctx, "samples")
	require.NoError(t, err)
	require.Zero(t, samples)
}

func TestReInitReloadsSavedState(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	e := iaq.New(
		iaq.WithBurnInSamples(2),
		iaq.WithRecalibrationRate(0.1),
		iaq.WithStore(s),
	)
	require.NoError(t, e.Init(ctx))
	calculate(t, e, 100000)
	calculate(t, e, 150000)
	require.NoError(t, e.SaveState(ctx))

	require.NoError(t, e.Init(ctx))
	require.True(t, e.IsCalibrated())

	res := calculate(t, e, 200000)
	require.InDelta(t, 132500.0, res.Baseline, 1e-6)
}
