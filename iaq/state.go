// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iaq

import (
	"context"
	"errors"
	"fmt"

	"github.com/airgauge/airgauge/store"
)

// StateNamespace is the store namespace under which engine calibration is
// persisted.
const StateNamespace = "iaq_state"

const (
	stateKeyBaseline = "gas_base"
	stateKeySamples  = "samples"
)

// SaveState persists the current baseline and sample count. The calibration
// state is snapshotted under the guard but written outside it, so a slow
// store never stalls Calculate. The baseline is rounded down to whole ohms.
func (e *Engine) SaveState(ctx context.Context) error {
	if !e.started.Load() {
		return ErrNotInitialized
	}
	if e.config.Store == nil {
		return ErrNoStore
	}

	if err := e.acquire(ctx); err != nil {
		return err
	}
	baseline := uint32(e.baseline)
	samples := e.samples.Load()
	e.release()

	if err := e.config.Store.Set(ctx, stateKeyBaseline, baseline); err != nil {
		return err
	}
	if err := e.config.Store.Set(ctx, stateKeySamples, samples); err != nil {
		return err
	}

	e.log.saved(ctx, float64(baseline), samples)
	return nil
}

// LoadState replaces the calibration state with a previously saved one. The
// load is all or nothing: both values are fetched and validated before either
// is applied, so a failure leaves the engine exactly as it was. A missing
// state surfaces as an error wrapping store.ErrNotFound.
func (e *Engine) LoadState(ctx context.Context) error {
	if !e.started.Load() {
		return ErrNotInitialized
	}
	if e.config.Store == nil {
		return ErrNoStore
	}

	baseline, err := e.config.Store.Get(ctx, stateKeyBaseline)
	if err != nil {
		return err
	}
	samples, err := e.config.Store.Get(ctx, stateKeySamples)
	if err != nil {
		return err
	}
	if baseline == 0 {
		return fmt.Errorf("%w: baseline is zero", ErrState)
	}

	if err := e.acquire(ctx); err != nil {
		return err
	}
	e.baseline = float64(baseline)
	e.samples.Store(samples)

	// Seed the running sum so a restart mid burn-in continues the mean from
	// the restored baseline instead of collapsing toward zero.
	e.sum = float64(baseline) * float64(samples)
	e.release()

	e.log.loaded(ctx, float64(baseline), samples)
	return nil
}

// IsStateMissing reports whether err indicates that no saved calibration
// exists, as opposed to a store failure.
func IsStateMissing(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
