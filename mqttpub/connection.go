// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

import (
	"context"
	"log/slog"

	"github.com/airgauge/airgauge/internal/wallclock"
	"github.com/eclipse/paho.golang/paho"
)

// Start spawns the background goroutine that maintains the connection,
// reconnecting with backoff when it drops. It returns immediately; Publish
// reports NotConnectedError until the first connection is up.
func (c *Client) Start() error {
	if !c.started.CompareAndSwap(false, true) {
		return &ClientStateError{State: Started}
	}

	ctx, cancel := c.shutdown.With(context.Background())
	go func() {
		defer cancel()
		defer c.shutdown.Close()

		if err := c.manageConnection(ctx); err != nil {
			c.log.Err(context.Background(), err)
			for handler := range c.fatalErrorHandlers.All() {
				go handler(err)
			}
		}
	}()
	return nil
}

// Stop shuts the client down, sending a DISCONNECT packet to the server if
// currently connected. The client cannot be restarted afterwards.
func (c *Client) Stop() error {
	if err := c.operational(); err != nil {
		return err
	}

	c.shutdown.Close()

	current := c.conn.Current()
	if current.Client != nil {
		disconn := buildDisconnectPacket()
		c.log.Packet(context.Background(), "disconnect", disconn)
		_ = current.Client.Disconnect(disconn)
		c.conn.Disconnect(current.Attempt, &ClientStateError{State: ShutDown})
	}

	c.log.Log(context.Background(), slog.LevelInfo, "client stopped",
		slog.String("client_id", c.options.ClientID),
	)
	return nil
}

// manageConnection maintains the connection until shutdown, returning a
// non-nil error only when the client terminates due to a fatal error.
func (c *Client) manageConnection(ctx context.Context) error {
	var connCount uint64
	needResubscribe := false

	for {
		var connack *paho.Connack
		err := c.options.ConnectionRetry.Start(ctx, "connect",
			func(ctx context.Context) (bool, error) {
				var err error
				connack, err = c.connect(ctx, connCount == 0)
				return retryableConnectError(err), err
			},
		)
		if ctx.Err() != nil {
			// Shutdown was requested while connecting.
			return nil
		}
		if err != nil {
			return err
		}

		connCount++
		c.log.Log(ctx, slog.LevelInfo, "connected",
			slog.String("client_id", c.options.ClientID),
			slog.Bool("session_present", connack.SessionPresent),
		)

		// Replay subscriptions discarded with the server-side session. The
		// flag stays set on a failed replay so the next connection tries
		// again.
		if connCount > 1 && !connack.SessionPresent {
			c.log.Log(ctx, slog.LevelWarn, "server lost the session")
			needResubscribe = true
		}
		if needResubscribe {
			if err := c.resubscribe(ctx); err != nil {
				c.log.Err(ctx, err)
			} else {
				needResubscribe = false
			}
		}

		event := &ConnectEvent{SessionPresent: connack.SessionPresent}
		for handler := range c.connectEventHandlers.All() {
			handler(event)
		}

		current := c.conn.Current()
		select {
		case <-ctx.Done():
			return nil
		case <-current.Down.Done():
		}
		if ctx.Err() != nil {
			return nil
		}

		cause := c.conn.Current().Error
		c.log.Log(ctx, slog.LevelWarn, "connection lost",
			slog.Any("error", cause),
		)
		for handler := range c.disconnectEventHandlers.All() {
			handler(&DisconnectEvent{Error: cause})
		}
		if cause != nil && !retryableConnectError(cause) {
			return cause
		}
	}
}

// connect runs a single connection attempt.
func (c *Client) connect(
	ctx context.Context,
	initial bool,
) (*paho.Connack, error) {
	attempt := c.conn.Attempt()

	if c.options.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = wallclock.Instance.WithTimeoutCause(
			ctx,
			c.options.ConnectionTimeout,
			&ConnectionError{message: "connection attempt timed out"},
		)
		defer cancel()
	}

	packet, err := c.buildConnectPacket(ctx, initial)
	if err != nil {
		return nil, err
	}

	conn, err := c.connectionProvider(ctx)
	if err != nil {
		return nil, err
	}

	client := paho.NewClient(paho.ClientConfig{
		ClientID: c.options.ClientID,
		Conn:     conn,
		Session:  c.session,
		OnClientError: func(err error) {
			c.conn.Disconnect(attempt, &ConnectionError{
				message: "MQTT client error",
				wrapped: err,
			})
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			c.log.Packet(context.Background(), "server disconnect", d)
			if isFatalDisconnectReasonCode(d.ReasonCode) {
				c.conn.Disconnect(attempt, &FatalDisconnectError{d.ReasonCode})
			} else {
				c.conn.Disconnect(attempt, &DisconnectError{d.ReasonCode})
			}
		},
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			c.onPublishReceived,
		},
	})

	c.log.Packet(ctx, "connect", packet)
	connack, err := client.Connect(ctx, packet)
	if connack != nil {
		c.log.Packet(ctx, "connack", connack)
		if connack.ReasonCode >= 0x80 {
			if isFatalConnackReasonCode(connack.ReasonCode) {
				return nil, &FatalConnackError{connack.ReasonCode}
			}
			return nil, &ConnackError{connack.ReasonCode}
		}
	}
	if err != nil {
		return nil, &ConnectionError{
			message: "error establishing MQTT connection",
			wrapped: err,
		}
	}

	if err := c.conn.Connect(client); err != nil {
		// The connection dropped between attempt and connect.
		return nil, err
	}
	return connack, nil
}

func (c *Client) buildConnectPacket(
	ctx context.Context,
	initial bool,
) (*paho.Connect, error) {
	sessionExpiryInterval := c.options.SessionExpiry
	receiveMaximum := c.options.ReceiveMaximum
	packet := &paho.Connect{
		ClientID:  c.options.ClientID,
		KeepAlive: c.options.KeepAlive,

		// Only the first connection honors the user setting; reconnections
		// must resume the session.
		CleanStart: initial && c.options.CleanStart,

		Properties: &paho.ConnectProperties{
			SessionExpiryInterval: &sessionExpiryInterval,
			ReceiveMaximum:        &receiveMaximum,
		},
	}

	if c.options.Username != nil {
		username, flag, err := c.options.Username(ctx)
		if err != nil {
			return nil, &ConnectionError{
				message: "error getting MQTT username",
				wrapped: err,
			}
		}
		packet.Username = username
		packet.UsernameFlag = flag
	}

	if c.options.Password != nil {
		password, flag, err := c.options.Password(ctx)
		if err != nil {
			return nil, &ConnectionError{
				message: "error getting MQTT password",
				wrapped: err,
			}
		}
		packet.Password = password
		packet.PasswordFlag = flag
	}

	if will := c.options.Will; will != nil {
		packet.WillMessage = &paho.WillMessage{
			Retain:  will.Retain,
			QoS:     will.QoS,
			Topic:   will.Topic,
			Payload: will.Payload,
		}
	}

	return packet, nil
}

func buildDisconnectPacket() *paho.Disconnect {
	endSession := uint32(0)
	return &paho.Disconnect{
		ReasonCode: disconnectNormalDisconnection,
		Properties: &paho.DisconnectProperties{
			// Informs the server that the session is complete and can be
			// safely deleted on the server's end.
			SessionExpiryInterval: &endSession,
		},
	}
}
