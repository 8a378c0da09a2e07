// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

import (
	"context"
	"log/slog"

	"github.com/eclipse/paho.golang/paho"
)

// Publish sends a message to the given topic, waiting for the acknowledgment
// on QoS 1. If the client is not currently connected the message is dropped
// and NotConnectedError returned; periodic telemetry is expected to simply
// send the next sample once the connection recovers.
func (c *Client) Publish(
	ctx context.Context,
	topic string,
	payload []byte,
	opt ...PublishOption,
) error {
	var opts PublishOptions
	opts.Apply(opt)

	if err := c.operational(); err != nil {
		return err
	}
	if opts.QoS >= 2 {
		return &InvalidArgumentError{message: "unsupported QoS"}
	}
	if topic == "" {
		return &InvalidArgumentError{message: "topic must not be empty"}
	}

	packet := &paho.Publish{
		QoS:     opts.QoS,
		Retain:  opts.Retain,
		Topic:   topic,
		Payload: payload,
		Properties: &paho.PublishProperties{
			ContentType: opts.ContentType,
		},
	}
	if opts.MessageExpiry > 0 {
		expiry := opts.MessageExpiry
		packet.Properties.MessageExpiry = &expiry
	}

	current := c.conn.Current()
	if current.Client == nil {
		c.log.Log(ctx, slog.LevelWarn, "publish dropped while disconnected",
			slog.String("topic", topic),
		)
		return &NotConnectedError{}
	}

	ctx, cancel := current.Down.With(ctx)
	defer cancel()

	c.log.Packet(ctx, "publish", packet)
	res, err := current.Client.Publish(ctx, packet)

	// Paho returns an error for failed MQTT results as well as the result;
	// check the reason code first so those surface as PUBACK errors.
	if res != nil && res.ReasonCode >= 0x80 {
		return &PubackError{res.ReasonCode}
	}
	if err != nil {
		return &ConnectionError{message: "error publishing", wrapped: err}
	}
	return nil
}
