// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

import (
	"context"

	"github.com/eclipse/paho.golang/paho"
)

// Subscribe registers interest in a topic filter. It waits for a connection
// if one is not currently up, and the subscription is replayed if the server
// loses the session across a reconnection.
func (c *Client) Subscribe(
	ctx context.Context,
	topic string,
	opt ...SubscribeOption,
) error {
	var opts SubscribeOptions
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

	sub := paho.SubscribeOptions{
		Topic:             topic,
		QoS:               opts.QoS,
		NoLocal:           opts.NoLocal,
		RetainAsPublished: opts.Retain,
		RetainHandling:    opts.RetainHandling,
	}
	packet := &paho.Subscribe{Subscriptions: []paho.SubscribeOptions{sub}}

	ctx, cancel := c.shutdown.With(ctx)
	defer cancel()

	for ctx, client := range c.conn.Client(ctx) {
		c.log.Packet(ctx, "subscribe", packet)
		suback, err := client.Subscribe(ctx, packet)

		// Paho returns an error for failed MQTT results as well as the
		// result; check the reason code first so those surface as SUBACK
		// errors.
		if suback != nil && len(suback.Reasons) > 0 &&
			suback.Reasons[0] >= 0x80 {
			return &SubackError{suback.Reasons[0]}
		}
		if err == nil {
			c.subscriptionsMu.Lock()
			c.subscriptions[topic] = sub
			c.subscriptionsMu.Unlock()
			return nil
		}
		if ctx.Err() == nil {
			return &ConnectionError{message: "error subscribing", wrapped: err}
		}
		// The connection dropped mid-request; wait for the next one.
	}
	return context.Cause(ctx)
}

// Unsubscribe removes a subscription previously made with Subscribe.
func (c *Client) Unsubscribe(ctx context.Context, topic string) error {
	if err := c.operational(); err != nil {
		return err
	}
	if topic == "" {
		return &InvalidArgumentError{message: "topic must not be empty"}
	}

	packet := &paho.Unsubscribe{Topics: []string{topic}}

	ctx, cancel := c.shutdown.With(ctx)
	defer cancel()

	for ctx, client := range c.conn.Client(ctx) {
		c.log.Packet(ctx, "unsubscribe", packet)
		unsuback, err := client.Unsubscribe(ctx, packet)

		if unsuback != nil && len(unsuback.Reasons) > 0 &&
			unsuback.Reasons[0] >= 0x80 {
			return &UnsubackError{unsuback.Reasons[0]}
		}
		if err == nil {
			c.subscriptionsMu.Lock()
			delete(c.subscriptions, topic)
			c.subscriptionsMu.Unlock()
			return nil
		}
		if ctx.Err() == nil {
			return &ConnectionError{
				message: "error unsubscribing",
				wrapped: err,
			}
		}
		// The connection dropped mid-request; wait for the next one.
	}
	return context.Cause(ctx)
}

// resubscribe replays the tracked subscriptions on the current connection
// after the server reported the session lost.
func (c *Client) resubscribe(ctx context.Context) error {
	c.subscriptionsMu.Lock()
	subs := make([]paho.SubscribeOptions, 0, len(c.subscriptions))
	for _, sub := range c.subscriptions {
		subs = append(subs, sub)
	}
	c.subscriptionsMu.Unlock()

	if len(subs) == 0 {
		return nil
	}

	current := c.conn.Current()
	if current.Client == nil {
		return &NotConnectedError{}
	}

	ctx, cancel := current.Down.With(ctx)
	defer cancel()

	for _, sub := range subs {
		packet := &paho.Subscribe{Subscriptions: []paho.SubscribeOptions{sub}}
		c.log.Packet(ctx, "resubscribe", packet)
		suback, err := current.Client.Subscribe(ctx, packet)
		if suback != nil && len(suback.Reasons) > 0 &&
			suback.Reasons[0] >= 0x80 {
			return &SubackError{suback.Reasons[0]}
		}
		if err != nil {
			return &ConnectionError{
				message: "error resubscribing",
				wrapped: err,
			}
		}
	}
	return nil
}

// onPublishReceived dispatches an incoming message to the registered
// handlers in order until one consumes it.
func (c *Client) onPublishReceived(pb paho.PublishReceived) (bool, error) {
	msg := &Message{
		Topic:   pb.Packet.Topic,
		Payload: pb.Packet.Payload,
		QoS:     pb.Packet.QoS,
		Retain:  pb.Packet.Retain,
	}

	ctx, cancel := c.shutdown.With(context.Background())
	defer cancel()

	c.log.Packet(ctx, "received publish", pb.Packet)
	for handler := range c.messageHandlers.All() {
		if handler(ctx, msg) {
			return true, nil
		}
	}
	return false, nil
}
