// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iaq

import (
	"log/slog"
	"time"

	"github.com/airgauge/airgauge/store"
)

type (
	// EngineOption represents a single option for the engine.
	EngineOption interface{ engine(*EngineOptions) }

	// EngineOptions are the resolved options for the engine.
	EngineOptions struct {
		// TemperatureOffset is added to the raw temperature in results, to
		// correct for sensor self-heating.
		TemperatureOffset float64

		// HumidityOffset is added to the raw humidity in results.
		HumidityOffset float64

		// BurnInSamples is the number of accepted samples required for full
		// calibration. Defaults to 50.
		BurnInSamples uint32

		// RecalibrationRate controls how fast the baseline adapts after
		// burn-in, in [0, 1). Defaults to 0.001.
		RecalibrationRate float64

		// LockTimeout bounds the wait for the engine state lock. Defaults to
		// 100ms.
		LockTimeout time.Duration

		// Store persists the calibration scalars across restarts. If unset,
		// calibration is process-local.
		Store store.Store

		// Logger enables logging with the provided slog logger.
		Logger *slog.Logger
	}

	// WithTemperatureOffset sets the temperature offset in degC.
	WithTemperatureOffset float64

	// WithHumidityOffset sets the humidity offset in %RH.
	WithHumidityOffset float64

	// WithBurnInSamples sets the burn-in sample target.
	WithBurnInSamples uint32

	// WithRecalibrationRate sets the baseline adaptation rate.
	WithRecalibrationRate float64

	// WithLockTimeout sets the bound on waiting for the state lock.
	WithLockTimeout time.Duration

	// These options are not used directly; see WithStore and WithLogger.
	withStore  struct{ store.Store }
	withLogger struct{ *slog.Logger }
)

// Apply resolves the provided list of options.
func (o *EngineOptions) Apply(
	opts []EngineOption,
	rest ...EngineOption,
) {
	for _, opt := range opts {
		if opt != nil {
			opt.engine(o)
		}
	}
	for _, opt := range rest {
		if opt != nil {
			opt.engine(o)
		}
	}
}

func (o *EngineOptions) engine(opt *EngineOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithTemperatureOffset) engine(opt *EngineOptions) {
	opt.TemperatureOffset = float64(o)
}

func (o WithHumidityOffset) engine(opt *EngineOptions) {
	opt.HumidityOffset = float64(o)
}

func (o WithBurnInSamples) engine(opt *EngineOptions) {
	opt.BurnInSamples = uint32(o)
}

func (o WithRecalibrationRate) engine(opt *EngineOptions) {
	opt.RecalibrationRate = float64(o)
}

func (o WithLockTimeout) engine(opt *EngineOptions) {
	opt.LockTimeout = time.Duration(o)
}

// WithStore persists the calibration scalars to the provided store.
func WithStore(s store.Store) EngineOption {
	return withStore{s}
}

func (o withStore) engine(opt *EngineOptions) {
	opt.Store = o.Store
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return withLogger{logger}
}

func (o withLogger) engine(opt *EngineOptions) {
	opt.Logger = o.Logger
}
