// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package alert

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/airgauge/airgauge/bme680"
	"github.com/airgauge/airgauge/iaq"
	"github.com/airgauge/airgauge/internal/log"
	"github.com/airgauge/airgauge/internal/wallclock"
)

// Controller applies the alert rules each evaluation cycle and drives the
// actuator duty cycle from a background goroutine while any rule is raised.
type Controller struct {
	actuator Actuator
	notifier Notifier
	options  ControllerOptions
	log      logger

	started atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	wake    chan struct{}

	mu     sync.Mutex
	raised map[string]string
}

// NewController constructs a controller. A nil actuator falls back to
// LogActuator; a nil notifier disables alert publications.
func NewController(
	actuator Actuator,
	notifier Notifier,
	opt ...ControllerOption,
) *Controller {
	c := &Controller{
		actuator: actuator,
		notifier: notifier,
		wake:     make(chan struct{}, 1),
		raised:   map[string]string{},
	}

	c.options.Apply(opt)

	if c.options.TemperatureLimit == 0 {
		c.options.TemperatureLimit = 100
	}
	if c.options.TemperatureWarnBand == 0 {
		c.options.TemperatureWarnBand = 20
	}
	if c.options.IAQLevel == 0 {
		c.options.IAQLevel = iaq.LevelHeavilyPolluted
	}
	if c.options.OnInterval == 0 {
		c.options.OnInterval = 3 * time.Second
	}
	if c.options.OffInterval == 0 {
		c.options.OffInterval = 2 * time.Second
	}

	if c.actuator == nil {
		c.actuator = LogActuator{Logger: c.options.Logger}
	}
	c.log.Logger = log.Wrap(c.options.Logger)
	return c
}

// Start launches the duty-cycle goroutine. The actuator is forced off when
// the controller stops or the context ends.
func (c *Controller) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrStarted
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		c.run(ctx)
	}()
	return nil
}

// Stop halts the duty cycle, forcing the actuator off. It is a no-op if the
// controller was never started.
func (c *Controller) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

// Active reports whether any alert is currently raised.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.raised) > 0
}

// Evaluate applies the alert rules to one cycle. Publications happen only on
// rule transitions; the duty cycle runs for as long as any rule is raised.
func (c *Controller) Evaluate(
	ctx context.Context,
	reading bme680.Reading,
	result *iaq.Result,
) {
	c.apply(ctx, TypeTemperature, c.temperatureMessage(ctx, reading))
	c.apply(ctx, TypeAirQuality, c.airQualityMessage(result))
}

// temperatureMessage returns the alert message, or empty when the rule is
// not raised. Inside the warn band below the limit it only logs.
func (c *Controller) temperatureMessage(
	ctx context.Context,
	reading bme680.Reading,
) string {
	limit := c.options.TemperatureLimit
	switch {
	case reading.Temperature >= limit:
		return fmt.Sprintf(
			"temperature %.1f degC at or above limit %.1f degC",
			reading.Temperature,
			limit,
		)
	case reading.Temperature >= limit-c.options.TemperatureWarnBand:
		c.log.approaching(ctx, reading.Temperature, limit)
	}
	return ""
}

// airQualityMessage returns the alert message, or empty when the rule is not
// raised. Uncalibrated or unknown results never raise.
func (c *Controller) airQualityMessage(result *iaq.Result) string {
	if result == nil || !result.Calibrated ||
		result.Level == iaq.LevelUnknown {
		return ""
	}
	if result.Level >= c.options.IAQLevel {
		return fmt.Sprintf(
			"air quality %s (score %.0f)",
			result.Level,
			result.Score,
		)
	}
	return ""
}

// apply records one rule's outcome, publishing and logging only when the
// raised state flips.
func (c *Controller) apply(ctx context.Context, alertType, message string) {
	now := message != ""

	c.mu.Lock()
	_, was := c.raised[alertType]
	if now {
		c.raised[alertType] = message
	} else {
		delete(c.raised, alertType)
	}
	c.mu.Unlock()

	if now == was {
		return
	}

	if now {
		c.log.raised(ctx, alertType, message)
		select {
		case c.wake <- struct{}{}:
		default:
		}
	} else {
		c.log.cleared(ctx, alertType)
		message = "cleared"
	}

	if c.notifier != nil {
		if err := c.notifier.PublishAlert(ctx, alertType, message); err != nil {
			c.log.Err(ctx, err)
		}
	}
}

func (c *Controller) run(ctx context.Context) {
	defer c.set(ctx, false)

	for {
		if !c.Active() {
			select {
			case <-ctx.Done():
				return
			case <-c.wake:
				continue
			}
		}

		c.set(ctx, true)
		if !c.sleep(ctx, c.options.OnInterval) {
			return
		}
		c.set(ctx, false)
		if !c.sleep(ctx, c.options.OffInterval) {
			return
		}
	}
}

func (c *Controller) set(ctx context.Context, active bool) {
	if err := c.actuator.Set(active); err != nil {
		c.log.Err(ctx, err)
	}
}

// sleep waits for the duration, returning false when the context ends first.
func (c *Controller) sleep(ctx context.Context, d time.Duration) bool {
	timer := wallclock.Instance.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C():
		return true
	}
}
