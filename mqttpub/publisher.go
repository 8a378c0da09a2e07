// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/airgauge/airgauge/bme680"
	"github.com/airgauge/airgauge/iaq"
	"github.com/airgauge/airgauge/internal/log"
	"github.com/airgauge/airgauge/internal/wallclock"
	"github.com/airgauge/airgauge/mqttpub/internal"
	"github.com/google/uuid"
)

const (
	// DefaultTopicPrefix is the topic namespace the device firmware
	// publishes under.
	DefaultTopicPrefix = "sensor/bme680"

	topicData   = "data"
	topicIAQ    = "iaq"
	topicStatus = "status"
	topicAlert  = "alert"

	// At-least-once for telemetry; consumers tolerate duplicate readings.
	telemetryQoS = 1

	contentTypeJSON = "application/json"
)

type (
	// Publisher publishes sensor readings, air quality results, device
	// status, and alerts as JSON on the device telemetry topics. The retained
	// status topic is reannounced "online" on every reconnection.
	Publisher struct {
		client  *Client
		options PublisherOptions
		log     internal.Logger

		started         atomic.Bool
		removeOnConnect func()
	}

	// PublisherOption represents a single option for the publisher.
	PublisherOption interface{ publisher(*PublisherOptions) }

	// PublisherOptions are the resolved options for the publisher.
	PublisherOptions struct {
		// TopicPrefix is the topic namespace. Defaults to DefaultTopicPrefix.
		TopicPrefix string

		// Logger enables logging with the provided slog logger. Defaults to
		// the client's logger.
		Logger *slog.Logger
	}

	// WithTopicPrefix sets the topic namespace.
	WithTopicPrefix string
)

// Apply resolves the provided list of options.
func (o *PublisherOptions) Apply(
	opts []PublisherOption,
	rest ...PublisherOption,
) {
	for opt := range internal.Apply[PublisherOption](opts, rest...) {
		opt.publisher(o)
	}
}

// Assign non-nil options.
func (o *PublisherOptions) publisher(opt *PublisherOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithTopicPrefix) publisher(opt *PublisherOptions) {
	opt.TopicPrefix = string(o)
}

// NewPublisher constructs a publisher on top of the session client.
func NewPublisher(client *Client, opt ...PublisherOption) *Publisher {
	p := &Publisher{client: client}

	p.options.Apply(opt)

	if p.options.TopicPrefix == "" {
		p.options.TopicPrefix = DefaultTopicPrefix
	}

	if p.options.Logger == nil {
		p.options.Logger = client.options.Logger
	}

	p.log.Logger = log.Wrap(p.options.Logger)

	return p
}

// StatusWill builds the retained last-will message that marks the device
// offline if the connection drops without a clean disconnect. Register it on
// the client with WithWill so the status topic stays accurate on crashes.
func StatusWill(clientID string, opt ...PublisherOption) *WillMessage {
	var opts PublisherOptions
	opts.Apply(opt)

	prefix := opts.TopicPrefix
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}

	payload, _ := json.Marshal(StatusPayload{
		Status:   StatusOffline,
		ClientID: clientID,
	})
	return &WillMessage{
		Retain:  true,
		QoS:     telemetryQoS,
		Topic:   prefix + "/" + topicStatus,
		Payload: payload,
	}
}

// Start announces the device online and keeps reannouncing it on every
// reconnection until Stop is called.
func (p *Publisher) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return &ClientStateError{State: Started}
	}

	p.removeOnConnect = p.client.RegisterConnectEventHandler(
		func(*ConnectEvent) {
			go func() {
				err := p.publishStatus(context.Background(), StatusOnline)
				if err != nil {
					p.log.Err(context.Background(), err)
				}
			}()
		},
	)

	// Announce immediately when already connected; errors here are not
	// fatal since the connect handler reannounces on the next connection.
	if p.client.Connected() {
		if err := p.publishStatus(ctx, StatusOnline); err != nil {
			p.log.Err(ctx, err)
		}
	}
	return nil
}

// Stop announces the device offline. The given context bounds the final
// publish.
func (p *Publisher) Stop(ctx context.Context) error {
	if !p.started.Load() {
		return &ClientStateError{State: NotStarted}
	}

	if p.removeOnConnect != nil {
		p.removeOnConnect()
		p.removeOnConnect = nil
	}

	return p.publishStatus(ctx, StatusOffline)
}

// PublishReading publishes a raw sensor reading on the data topic.
func (p *Publisher) PublishReading(
	ctx context.Context,
	reading bme680.Reading,
) error {
	return p.publish(ctx, topicData, DataPayload{
		Temperature:   reading.Temperature,
		Humidity:      reading.Humidity,
		Pressure:      reading.Pressure,
		GasResistance: reading.GasResistance,
		GasValid:      reading.GasValid,
		Timestamp:     wallclock.Instance.Now().Unix(),
	})
}

// PublishResult publishes an air quality result on the iaq topic.
func (p *Publisher) PublishResult(
	ctx context.Context,
	result *iaq.Result,
) error {
	return p.publish(ctx, topicIAQ, IAQPayload{
		Score:         result.Score,
		Level:         int(result.Level),
		Text:          result.Level.String(),
		Accuracy:      int(result.Accuracy),
		CO2Equivalent: result.CO2Equivalent,
		VOCEquivalent: result.VOCEquivalent,
		Calibrated:    result.Calibrated,
		Timestamp:     result.Timestamp.Unix(),
	})
}

// PublishAlert publishes an alert event on the alert topic with a unique
// event ID.
func (p *Publisher) PublishAlert(
	ctx context.Context,
	alertType string,
	message string,
) error {
	return p.publish(ctx, topicAlert, AlertPayload{
		Type:      alertType,
		Message:   message,
		ClientID:  p.client.ID(),
		EventID:   uuid.NewString(),
		Timestamp: wallclock.Instance.Now().Unix(),
	})
}

func (p *Publisher) publishStatus(ctx context.Context, status string) error {
	return p.publish(ctx, topicStatus, StatusPayload{
		Status:    status,
		ClientID:  p.client.ID(),
		Timestamp: wallclock.Instance.Now().Unix(),
	}, WithRetain(true))
}

func (p *Publisher) publish(
	ctx context.Context,
	suffix string,
	payload any,
	opt ...PublishOption,
) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &InvalidArgumentError{
			message: "error encoding payload",
			wrapped: err,
		}
	}

	opts := []PublishOption{
		WithQoS(telemetryQoS),
		WithContentType(contentTypeJSON),
	}
	return p.client.Publish(
		ctx,
		p.options.TopicPrefix+"/"+suffix,
		body,
		append(opts, opt...)...,
	)
}
