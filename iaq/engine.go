// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iaq

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/airgauge/airgauge/internal/log"
	"github.com/airgauge/airgauge/internal/wallclock"
)

const (
	// DefaultBurnInSamples is the number of accepted samples collected before
	// the baseline switches from a running mean to slow adaptation.
	DefaultBurnInSamples = 50

	// DefaultRecalibrationRate is the steady-state baseline adaptation rate.
	DefaultRecalibrationRate = 0.001

	defaultLockTimeout = 100 * time.Millisecond

	historySize = 10
)

// Engine estimates air quality from a stream of sensor readings while
// continuously calibrating its clean-air baseline. One producer feeds
// Calculate serially; any number of goroutines may read LastResult
// concurrently. All state access waits at most the configured lock timeout
// and fails with ErrTimeout rather than blocking the sensor cadence.
type Engine struct {
	// Used to ensure Init() has completed before user operations run.
	started atomic.Bool

	// Single-token channel guarding the calibration state. Held only for
	// bounded in-memory work, never across storage I/O.
	guard chan struct{}

	// Accepted sample count, mirrored atomically so calibration progress can
	// be read without taking the guard. Mutated only while holding the guard.
	samples atomic.Uint32

	config EngineOptions
	log    logger

	// Calibration state, guarded.
	baseline   float64
	history    [historySize]float64
	historyIdx int
	sum        float64
	minimum    float64
	maximum    float64
	last       Result
}

// New constructs an engine with the given options. Call Init before use.
func New(opt ...EngineOption) *Engine {
	e := &Engine{guard: make(chan struct{}, 1)}
	e.config.Apply(opt)

	if e.config.BurnInSamples == 0 {
		e.config.BurnInSamples = DefaultBurnInSamples
	}
	if e.config.RecalibrationRate == 0 {
		e.config.RecalibrationRate = DefaultRecalibrationRate
	}
	if e.config.LockTimeout == 0 {
		e.config.LockTimeout = defaultLockTimeout
	}

	e.log.Logger = log.Wrap(e.config.Logger)
	e.guard <- struct{}{}
	return e
}

// Init validates the configuration, resets the calibration state to its
// defaults, and attempts to restore a previously saved calibration if a store
// is configured. A missing saved state is not an error; the engine starts a
// fresh calibration. Re-initializing an engine overwrites its state.
func (e *Engine) Init(ctx context.Context) error {
	if r := e.config.RecalibrationRate; r < 0 || r >= 1 {
		return Argument{Name: "RecalibrationRate", Value: r}
	}
	if e.config.LockTimeout < 0 {
		return Argument{Name: "LockTimeout", Value: e.config.LockTimeout}
	}

	if err := e.acquire(ctx); err != nil {
		return err
	}
	e.resetLocked()
	e.release()

	e.started.Store(true)

	if e.config.Store != nil {
		if err := e.LoadState(ctx); err != nil {
			// Load failure is non-fatal; the defaults stand.
			e.log.fresh(ctx, err)
		}
	}

	e.log.initialized(ctx, e.config.BurnInSamples, e.config.RecalibrationRate)
	return nil
}

// Calculate processes one raw reading: compensation, baseline update, scoring
// and classification. Readings with invalid gas data leave the calibration
// untouched but replace the cached result with an unready record (score 0,
// level unknown), returned alongside an error wrapping ErrInput.
func (e *Engine) Calculate(ctx context.Context, raw Reading) (*Result, error) {
	if !e.started.Load() {
		return nil, ErrNotInitialized
	}

	var rejection Input
	switch {
	case !raw.GasValid:
		rejection = GasInvalid
	case raw.GasResistance <= 0:
		rejection = GasNotPositive
	}
	if rejection != "" {
		if err := e.acquire(ctx); err != nil {
			return nil, err
		}
		e.last = unreadyResult()
		res := e.last
		e.release()

		e.log.rejected(ctx, rejection)
		return &res, rejection
	}

	if err := e.acquire(ctx); err != nil {
		return nil, err
	}
	defer e.release()

	comp := compensate(raw.GasResistance, raw.Temperature, raw.Humidity)
	e.track(comp)

	score := scoreFor(comp, e.baseline)
	samples := e.samples.Load()

	e.last = Result{
		Score:         score,
		Level:         LevelForScore(score),
		Accuracy:      accuracyFor(samples, e.config.BurnInSamples),
		CO2Equivalent: co2Equivalent(score),
		VOCEquivalent: vocEquivalent(comp, e.baseline),
		StaticScore:   score,
		Temperature:   raw.Temperature + e.config.TemperatureOffset,
		Humidity:      raw.Humidity + e.config.HumidityOffset,
		Baseline:      e.baseline,
		Samples:       samples,
		Calibrated:    samples >= e.config.BurnInSamples,
		Timestamp:     wallclock.Instance.Now(),
	}

	res := e.last
	return &res, nil
}

// LastResult returns a copy of the most recently cached result. Safe to call
// from any goroutine.
func (e *Engine) LastResult(ctx context.Context) (*Result, error) {
	if !e.started.Load() {
		return nil, ErrNotInitialized
	}

	if err := e.acquire(ctx); err != nil {
		return nil, err
	}
	res := e.last
	e.release()

	return &res, nil
}

// Reset restarts calibration from the default baseline. Configuration is
// untouched.
func (e *Engine) Reset(ctx context.Context) error {
	if !e.started.Load() {
		return ErrNotInitialized
	}

	if err := e.acquire(ctx); err != nil {
		return err
	}
	e.resetLocked()
	e.release()

	e.log.reset(ctx)
	return nil
}

// IsCalibrated reports whether the burn-in target has been reached.
func (e *Engine) IsCalibrated() bool {
	return e.samples.Load() >= e.config.BurnInSamples
}

// CalibrationProgress reports burn-in completion as a percentage in [0, 100].
func (e *Engine) CalibrationProgress() int {
	burnIn := e.config.BurnInSamples
	if burnIn == 0 {
		return 100
	}

	progress := uint64(e.samples.Load()) * 100 / uint64(burnIn)
	if progress > 100 {
		progress = 100
	}
	return int(progress)
}

// track folds one compensated resistance into the calibration state. During
// burn-in the baseline is the running mean; afterwards it adapts only toward
// cleaner readings so pollution events are never absorbed into the reference.
func (e *Engine) track(compensated float64) {
	e.history[e.historyIdx] = compensated
	e.historyIdx = (e.historyIdx + 1) % historySize

	e.sum += compensated
	if compensated > e.maximum {
		e.maximum = compensated
	}
	if compensated < e.minimum || e.minimum == 0 {
		e.minimum = compensated
	}

	samples := e.samples.Add(1)

	if samples <= e.config.BurnInSamples {
		e.baseline = e.sum / float64(samples)
	} else if compensated > e.baseline {
		rate := e.config.RecalibrationRate
		e.baseline = e.baseline*(1-rate) + compensated*rate
	}
}

// resetLocked restores the just-initialized calibration state. Callers must
// hold the guard.
func (e *Engine) resetLocked() {
	e.baseline = DefaultBaseline
	e.history = [historySize]float64{}
	e.historyIdx = 0
	e.sum = 0
	e.minimum = 0
	e.maximum = 0
	e.samples.Store(0)
	e.last = unreadyResult()
}

func (e *Engine) acquire(ctx context.Context) error {
	timeout := wallclock.Instance.NewTimer(e.config.LockTimeout)
	defer timeout.Stop()

	select {
	case <-e.guard:
		return nil
	case <-timeout.C():
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) release() {
	e.guard <- struct{}{}
}

func unreadyResult() Result {
	return Result{
		Level:     LevelUnknown,
		Accuracy:  AccuracyUnreliable,
		Timestamp: wallclock.Instance.Now(),
	}
}
