// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package mqttpub provides the MQTT v5 session client and the JSON telemetry
// publisher used to report sensor readings, air quality results, device
// status, and alerts.
package mqttpub

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/airgauge/airgauge/internal/log"
	"github.com/airgauge/airgauge/internal/retry"
	"github.com/airgauge/airgauge/mqttpub/internal"
	"github.com/eclipse/paho.golang/paho"
	"github.com/eclipse/paho.golang/paho/session"
	"github.com/eclipse/paho.golang/paho/session/state"
)

type (
	// Client implements an MQTT session client supporting MQTT v5 with QoS 0
	// and QoS 1. It maintains the connection in the background and resumes
	// the session after reconnecting; publishes attempted while disconnected
	// are dropped with NotConnectedError rather than queued.
	Client struct {
		// Used to ensure Start() is called only once and that user operations
		// are only started after Start() is called.
		started atomic.Bool

		// Used to signal client shutdown for cleaning up background
		// goroutines and inflight operations.
		shutdown *internal.Background

		// Tracker for the connection.
		conn *internal.ConnectionTracker[*paho.Client]

		// A list of functions that listen for incoming messages.
		messageHandlers *internal.HandlerList[MessageHandler]

		// A list of functions that are called in order to notify the user of
		// successful MQTT connections.
		connectEventHandlers *internal.HandlerList[ConnectEventHandler]

		// A list of functions that are called in order to notify the user of
		// a disconnection from the MQTT server.
		disconnectEventHandlers *internal.HandlerList[DisconnectEventHandler]

		// A list of functions that are called in goroutines to notify the
		// user of a client termination due to a fatal error.
		fatalErrorHandlers *internal.HandlerList[func(error)]

		// Topics subscribed so far, for replay when the server reports that
		// the session was lost. Guarded by subscriptionsMu.
		subscriptions   map[string]paho.SubscribeOptions
		subscriptionsMu sync.Mutex

		// Paho's internal MQTT session tracker.
		session session.SessionManager

		connectionProvider ConnectionProvider
		options            ClientOptions

		log internal.Logger
	}

	// Message represents a received message.
	Message struct {
		Topic   string
		Payload []byte
		QoS     byte
		Retain  bool
	}

	// MessageHandler is a user-defined callback for incoming messages. It
	// returns whether the message was consumed; a consumed message is not
	// offered to any later handler.
	MessageHandler = func(context.Context, *Message) bool

	// ConnectEvent contains the relevant metadata provided to the handler
	// when the MQTT connection comes up.
	ConnectEvent struct {
		// Whether the server resumed an existing session.
		SessionPresent bool
	}

	// ConnectEventHandler is a user-defined callback for connect events.
	ConnectEventHandler = func(*ConnectEvent)

	// DisconnectEvent contains the relevant metadata provided to the handler
	// when the MQTT connection goes down.
	DisconnectEvent struct {
		// The error that caused the disconnection.
		Error error
	}

	// DisconnectEventHandler is a user-defined callback for disconnect
	// events.
	DisconnectEventHandler = func(*DisconnectEvent)
)

// New constructs a new session client with user options.
func New(connectionProvider ConnectionProvider, opt ...ClientOption) *Client {
	client := &Client{
		connectionProvider: connectionProvider,

		shutdown: internal.NewBackground(&ClientStateError{State: ShutDown}),
		conn:     internal.NewConnectionTracker[*paho.Client](),

		messageHandlers:         internal.NewHandlerList[MessageHandler](),
		connectEventHandlers:    internal.NewHandlerList[ConnectEventHandler](),
		disconnectEventHandlers: internal.NewHandlerList[DisconnectEventHandler](),
		fatalErrorHandlers:      internal.NewHandlerList[func(error)](),

		subscriptions: map[string]paho.SubscribeOptions{},

		session: state.NewInMemory(),
	}

	client.options.Apply(opt)

	if client.options.ClientID == "" {
		client.options.ClientID = internal.RandomClientID()
	}

	if client.options.KeepAlive == 0 {
		client.options.KeepAlive = 60
	}

	if client.options.SessionExpiry == 0 {
		client.options.SessionExpiry = math.MaxUint32
	}

	if client.options.ReceiveMaximum == 0 {
		client.options.ReceiveMaximum = math.MaxUint16
	}

	if client.options.ConnectionRetry == nil {
		client.options.ConnectionRetry = &retry.ExponentialBackoff{
			Logger: client.options.Logger,
		}
	}

	client.log.Logger = log.Wrap(client.options.Logger)

	return client
}

// ID returns the MQTT client ID for this client.
func (c *Client) ID() string {
	return c.options.ClientID
}

// Connected reports whether the client currently has a connection to the
// server.
func (c *Client) Connected() bool {
	return c.conn.Current().Client != nil
}

// RegisterMessageHandler registers a handler for incoming messages. Returns a
// function to remove the handler.
func (c *Client) RegisterMessageHandler(handler MessageHandler) func() {
	return c.messageHandlers.Add(handler)
}

// RegisterConnectEventHandler registers a handler called whenever the
// connection comes up. Returns a function to remove the handler.
func (c *Client) RegisterConnectEventHandler(
	handler ConnectEventHandler,
) func() {
	return c.connectEventHandlers.Add(handler)
}

// RegisterDisconnectEventHandler registers a handler called whenever the
// connection goes down. Returns a function to remove the handler.
func (c *Client) RegisterDisconnectEventHandler(
	handler DisconnectEventHandler,
) func() {
	return c.disconnectEventHandlers.Add(handler)
}

// RegisterFatalErrorHandler registers a handler called in its own goroutine
// if the client terminates due to a fatal error. Returns a function to remove
// the handler.
func (c *Client) RegisterFatalErrorHandler(handler func(error)) func() {
	return c.fatalErrorHandlers.Add(handler)
}

// operational checks that the client has been started and not shut down.
func (c *Client) operational() error {
	if !c.started.Load() {
		return &ClientStateError{State: NotStarted}
	}
	select {
	case <-c.shutdown.Done():
		return &ClientStateError{State: ShutDown}
	default:
		return nil
	}
}
