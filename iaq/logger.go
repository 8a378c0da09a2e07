// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iaq

import (
	"context"
	"log/slog"

	"github.com/airgauge/airgauge/internal/log"
)

type logger struct{ log.Logger }

func (l *logger) initialized(
	ctx context.Context,
	burnIn uint32,
	rate float64,
) {
	l.Log(ctx, slog.LevelInfo, "engine initialized",
		slog.Uint64("burn_in_samples", uint64(burnIn)),
		slog.Float64("recalibration_rate", rate),
	)
}

func (l *logger) loaded(
	ctx context.Context,
	baseline float64,
	samples uint32,
) {
	l.Log(ctx, slog.LevelInfo, "calibration restored",
		slog.Float64("baseline", baseline),
		slog.Uint64("samples", uint64(samples)),
	)
}

func (l *logger) fresh(ctx context.Context, err error) {
	l.Log(ctx, slog.LevelInfo, "starting fresh calibration",
		slog.String("reason", err.Error()),
	)
}

func (l *logger) saved(
	ctx context.Context,
	baseline float64,
	samples uint32,
) {
	l.Log(ctx, slog.LevelDebug, "calibration saved",
		slog.Float64("baseline", baseline),
		slog.Uint64("samples", uint64(samples)),
	)
}

func (l *logger) rejected(ctx context.Context, rejection Input) {
	l.Log(ctx, slog.LevelWarn, "reading rejected",
		slog.String("reason", string(rejection)),
	)
}

func (l *logger) reset(ctx context.Context) {
	l.Log(ctx, slog.LevelInfo, "calibration reset")
}
