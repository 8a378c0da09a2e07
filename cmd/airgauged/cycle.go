// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/airgauge/airgauge/iaq"
	"github.com/airgauge/airgauge/internal/wallclock"
)

func (a *Application) run(ctx context.Context) {
	defer close(a.done)

	ticker := wallclock.Instance.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			a.cycle(ctx)
		case <-ctx.Done():
			a.log.Info("sample loop stopped")
			return
		}
	}
}

// cycle runs one read-calculate-publish pass.
func (a *Application) cycle(ctx context.Context) {
	reading, err := a.source.Read(ctx)
	if err != nil {
		a.log.Error("sensor read failed", "error", err)
		return
	}
	a.monitor.Update(reading)
	a.recorder.ObserveReading(reading)

	if err := a.publisher.PublishReading(ctx, reading); err != nil {
		a.log.Debug("reading not published", "error", err)
	}

	result, err := a.engine.Calculate(ctx, iaq.Reading(reading))
	a.recorder.RecordCalculation(err)
	if err != nil {
		// The engine logs input rejections itself; they clear on the
		// next heater-stable cycle.
		if !errors.Is(err, iaq.ErrInput) {
			a.log.Warn("calculation failed", "error", err)
		}
		return
	}
	a.recorder.ObserveResult(result)
	a.alerts.Evaluate(ctx, reading, result)

	if err := a.publisher.PublishResult(ctx, result); err != nil {
		a.log.Debug("result not published", "error", err)
	}

	a.observeProgress(result)
	a.logResult(ctx, result)

	if *saveEvery > 0 && result.Samples%uint32(*saveEvery) == 0 {
		if err := a.engine.SaveState(ctx); err != nil {
			a.log.Warn("failed to save calibration", "error", err)
		}
	}
}

func (a *Application) observeProgress(result *iaq.Result) {
	progress := a.engine.CalibrationProgress()
	a.recorder.SetCalibrationProgress(progress)
	if !result.Calibrated && progress != a.progress {
		a.log.Info("calibrating",
			"progress", progress,
			"samples", result.Samples,
		)
	}
	a.progress = progress
}

// logResult summarizes every cycle at debug and once a minute at info.
func (a *Application) logResult(ctx context.Context, result *iaq.Result) {
	level := slog.LevelDebug
	if time.Since(a.summaryAt) >= time.Minute {
		level = slog.LevelInfo
		a.summaryAt = time.Now()
	}
	a.log.Log(ctx, level, "air quality",
		"score", result.Score,
		"level", result.Level.String(),
		"accuracy", result.Accuracy.String(),
		"co2", result.CO2Equivalent,
		"voc", result.VOCEquivalent,
		"baseline", result.Baseline,
	)
}
