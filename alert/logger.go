// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package alert

import (
	"context"
	"log/slog"

	"github.com/airgauge/airgauge/internal/log"
)

type logger struct{ log.Logger }

func (l *logger) raised(ctx context.Context, alertType, message string) {
	l.Log(ctx, slog.LevelWarn, "alert raised",
		slog.String("type", alertType),
		slog.String("message", message),
	)
}

func (l *logger) cleared(ctx context.Context, alertType string) {
	l.Log(ctx, slog.LevelInfo, "alert cleared",
		slog.String("type", alertType),
	)
}

func (l *logger) approaching(
	ctx context.Context,
	temperature, limit float64,
) {
	l.Log(ctx, slog.LevelWarn, "temperature approaching limit",
		slog.Float64("temperature", temperature),
		slog.Float64("limit", limit),
	)
}
