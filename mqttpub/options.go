// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

import (
	"log/slog"
	"time"

	"github.com/airgauge/airgauge/internal/retry"
	"github.com/airgauge/airgauge/mqttpub/internal"
)

type (
	// ClientOption represents a single option for the client.
	ClientOption interface{ client(*ClientOptions) }

	// ClientOptions are the resolved options for the client.
	ClientOptions struct {
		// ClientID is the MQTT client ID. Defaults to a random 23-byte
		// alphanumeric ID.
		ClientID string

		// CleanStart discards any existing server-side session on the first
		// connection. Reconnections always resume the session.
		CleanStart bool

		// KeepAlive is the keep-alive interval in seconds. Defaults to 60.
		KeepAlive uint16

		// SessionExpiry is the session expiry interval in seconds requested
		// from the server. Defaults to the maximum.
		SessionExpiry uint32

		// ReceiveMaximum is the maximum number of unacknowledged QoS 1
		// publishes accepted from the server. Defaults to the maximum.
		ReceiveMaximum uint16

		// Username optionally provides the MQTT username per connection.
		Username UsernameProvider

		// Password optionally provides the MQTT password per connection.
		Password PasswordProvider

		// Will is the last-will message registered with the server.
		Will *WillMessage

		// ConnectionRetry is the retry policy for reconnection. Defaults to
		// exponential backoff without a time limit.
		ConnectionRetry retry.Policy

		// ConnectionTimeout bounds a single connection attempt, including
		// opening the network connection and the CONNECT handshake.
		ConnectionTimeout time.Duration

		// Logger enables logging with the provided slog logger.
		Logger *slog.Logger
	}

	// WillMessage is registered with the server when connecting and is
	// published by the server if the connection drops without a clean
	// disconnect.
	WillMessage struct {
		Retain  bool
		QoS     byte
		Topic   string
		Payload []byte
	}

	// PublishOption represents a single publish option.
	PublishOption interface{ publish(*PublishOptions) }

	// PublishOptions are the resolved publish options.
	PublishOptions struct {
		ContentType   string
		MessageExpiry uint32
		QoS           byte
		Retain        bool
	}

	// SubscribeOption represents a single subscribe option.
	SubscribeOption interface{ subscribe(*SubscribeOptions) }

	// SubscribeOptions are the resolved subscribe options.
	SubscribeOptions struct {
		NoLocal        bool
		QoS            byte
		Retain         bool
		RetainHandling byte
	}

	// WithClientID sets the MQTT client ID.
	WithClientID string

	// WithCleanStart discards any existing session on the first connection.
	WithCleanStart bool

	// WithKeepAlive sets the keep-alive interval in seconds.
	WithKeepAlive uint16

	// WithSessionExpiry sets the session expiry interval in seconds.
	WithSessionExpiry uint32

	// WithReceiveMaximum sets the receive maximum.
	WithReceiveMaximum uint16

	// WithConnectionTimeout bounds a single connection attempt.
	WithConnectionTimeout time.Duration

	// WithContentType sets the content type for the publish.
	WithContentType string

	// WithMessageExpiry sets the message expiry interval for the publish.
	WithMessageExpiry uint32

	// WithNoLocal sets the no local flag for the subscription.
	WithNoLocal bool

	// WithQoS sets the QoS level for the publish or subscribe.
	WithQoS byte

	// WithRetain sets the retain flag for the publish or the
	// retain-as-published flag for the subscribe.
	WithRetain bool

	// WithRetainHandling specifies the handling of retained messages on the
	// subscribe.
	WithRetainHandling byte

	// These options are not used directly; see their constructors.
	withUsername        struct{ UsernameProvider }
	withPassword        struct{ PasswordProvider }
	withWill            struct{ *WillMessage }
	withConnectionRetry struct{ retry.Policy }
	withLogger          struct{ *slog.Logger }
)

// Apply resolves the provided list of options.
func (o *ClientOptions) Apply(opts []ClientOption, rest ...ClientOption) {
	for opt := range internal.Apply[ClientOption](opts, rest...) {
		opt.client(o)
	}
}

// Assign non-nil options.
func (o *ClientOptions) client(opt *ClientOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithClientID) client(opt *ClientOptions) {
	opt.ClientID = string(o)
}

func (o WithCleanStart) client(opt *ClientOptions) {
	opt.CleanStart = bool(o)
}

func (o WithKeepAlive) client(opt *ClientOptions) {
	opt.KeepAlive = uint16(o)
}

func (o WithSessionExpiry) client(opt *ClientOptions) {
	opt.SessionExpiry = uint32(o)
}

func (o WithReceiveMaximum) client(opt *ClientOptions) {
	opt.ReceiveMaximum = uint16(o)
}

func (o WithConnectionTimeout) client(opt *ClientOptions) {
	opt.ConnectionTimeout = time.Duration(o)
}

// WithUsername provides the MQTT username per connection.
func WithUsername(provider UsernameProvider) ClientOption {
	return withUsername{provider}
}

func (o withUsername) client(opt *ClientOptions) {
	opt.Username = o.UsernameProvider
}

// WithPassword provides the MQTT password per connection.
func WithPassword(provider PasswordProvider) ClientOption {
	return withPassword{provider}
}

func (o withPassword) client(opt *ClientOptions) {
	opt.Password = o.PasswordProvider
}

// WithWill registers a last-will message with the server.
func WithWill(will *WillMessage) ClientOption {
	return withWill{will}
}

func (o withWill) client(opt *ClientOptions) {
	opt.Will = o.WillMessage
}

// WithConnectionRetry sets the retry policy for reconnection.
func WithConnectionRetry(policy retry.Policy) ClientOption {
	return withConnectionRetry{policy}
}

func (o withConnectionRetry) client(opt *ClientOptions) {
	opt.ConnectionRetry = o.Policy
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) interface {
	ClientOption
	PublisherOption
} {
	return withLogger{logger}
}

func (o withLogger) client(opt *ClientOptions) {
	opt.Logger = o.Logger
}

func (o withLogger) publisher(opt *PublisherOptions) {
	opt.Logger = o.Logger
}

// Apply resolves the provided list of options.
func (o *PublishOptions) Apply(opts []PublishOption, rest ...PublishOption) {
	for opt := range internal.Apply[PublishOption](opts, rest...) {
		opt.publish(o)
	}
}

// Assign non-nil options.
func (o *PublishOptions) publish(opt *PublishOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithContentType) publish(opt *PublishOptions) {
	opt.ContentType = string(o)
}

func (o WithMessageExpiry) publish(opt *PublishOptions) {
	opt.MessageExpiry = uint32(o)
}

func (o WithQoS) publish(opt *PublishOptions) {
	opt.QoS = byte(o)
}

func (o WithRetain) publish(opt *PublishOptions) {
	opt.Retain = bool(o)
}

// Apply resolves the provided list of options.
func (o *SubscribeOptions) Apply(
	opts []SubscribeOption,
	rest ...SubscribeOption,
) {
	for opt := range internal.Apply[SubscribeOption](opts, rest...) {
		opt.subscribe(o)
	}
}

// Assign non-nil options.
func (o *SubscribeOptions) subscribe(opt *SubscribeOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithNoLocal) subscribe(opt *SubscribeOptions) {
	opt.NoLocal = bool(o)
}

func (o WithQoS) subscribe(opt *SubscribeOptions) {
	opt.QoS = byte(o)
}

func (o WithRetain) subscribe(opt *SubscribeOptions) {
	opt.Retain = bool(o)
}

func (o WithRetainHandling) subscribe(opt *SubscribeOptions) {
	opt.RetainHandling = byte(o)
}
