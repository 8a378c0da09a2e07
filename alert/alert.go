// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package alert evaluates threshold rules over sensor readings and air
// quality results, driving a boolean actuator (the device's buzzer) with a
// duty cycle and publishing transitions on the alert topic.
package alert

import (
	"context"
	"errors"
	"log/slog"

	"github.com/airgauge/airgauge/internal/log"
)

// Alert types carried in the published payload.
const (
	// TypeTemperature is raised when the temperature reaches the limit.
	TypeTemperature = "temperature"

	// TypeAirQuality is raised when the calibrated IAQ level reaches the
	// configured severity.
	TypeAirQuality = "air_quality"
)

// ErrStarted is returned by Start when the controller is already running.
var ErrStarted = errors.New("alert controller already started")

type (
	// Actuator is the boolean alarm output. Implementations must tolerate
	// repeated calls with the same value.
	Actuator interface {
		Set(active bool) error
	}

	// Notifier publishes alert transitions; *mqttpub.Publisher satisfies it.
	Notifier interface {
		PublishAlert(ctx context.Context, alertType, message string) error
	}
)

// LogActuator logs state changes instead of driving hardware, for hosts
// without a buzzer GPIO.
type LogActuator struct {
	Logger *slog.Logger
}

func (a LogActuator) Set(active bool) error {
	l := log.Wrap(a.Logger)
	l.Log(context.Background(), slog.LevelInfo, "buzzer",
		slog.Bool("active", active),
	)
	return nil
}
