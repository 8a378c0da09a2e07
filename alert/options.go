// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package alert

import (
	"log/slog"
	"time"

	"github.com/airgauge/airgauge/iaq"
)

type (
	// ControllerOption represents a single option for the controller.
	ControllerOption interface{ controller(*ControllerOptions) }

	// ControllerOptions are the resolved options for the controller.
	ControllerOptions struct {
		// TemperatureLimit raises the temperature alert at or above this
		// many degC. Defaults to 100.
		TemperatureLimit float64

		// TemperatureWarnBand logs a warning within this many degC below
		// the limit. Defaults to 20.
		TemperatureWarnBand float64

		// IAQLevel raises the air quality alert at or above this severity
		// once the engine is calibrated. Defaults to LevelHeavilyPolluted.
		IAQLevel iaq.Level

		// OnInterval and OffInterval shape the actuator duty cycle while an
		// alert is active. Default to 3s on, 2s off.
		OnInterval  time.Duration
		OffInterval time.Duration

		// Logger enables logging with the provided slog logger.
		Logger *slog.Logger
	}

	// WithTemperatureLimit sets the temperature alert limit in degC.
	WithTemperatureLimit float64

	// WithTemperatureWarnBand sets the warning band in degC below the limit.
	WithTemperatureWarnBand float64

	// WithIAQLevel sets the severity that raises the air quality alert.
	WithIAQLevel iaq.Level

	// WithOnInterval sets the duty cycle on interval.
	WithOnInterval time.Duration

	// WithOffInterval sets the duty cycle off interval.
	WithOffInterval time.Duration

	// This option is not used directly; see WithLogger.
	withLogger struct{ *slog.Logger }
)

// Apply resolves the provided list of options.
func (o *ControllerOptions) Apply(
	opts []ControllerOption,
	rest ...ControllerOption,
) {
	for _, opt := range opts {
		if opt != nil {
			opt.controller(o)
		}
	}
	for _, opt := range rest {
		if opt != nil {
			opt.controller(o)
		}
	}
}

func (o *ControllerOptions) controller(opt *ControllerOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithTemperatureLimit) controller(opt *ControllerOptions) {
	opt.TemperatureLimit = float64(o)
}

func (o WithTemperatureWarnBand) controller(opt *ControllerOptions) {
	opt.TemperatureWarnBand = float64(o)
}

func (o WithIAQLevel) controller(opt *ControllerOptions) {
	opt.IAQLevel = iaq.Level(o)
}

func (o WithOnInterval) controller(opt *ControllerOptions) {
	opt.OnInterval = time.Duration(o)
}

func (o WithOffInterval) controller(opt *ControllerOptions) {
	opt.OffInterval = time.Duration(o)
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return withLogger{logger}
}

func (o withLogger) controller(opt *ControllerOptions) {
	opt.Logger = o.Logger
}
