// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/airgauge/airgauge/internal/durations"
)

type connectionProviderBuilder struct {
	hostname  string
	port      uint16
	useTLS    *bool
	websocket bool
	wsPath    string
	caFile    string
	certFile  string
	keyFile   string
	passFile  string
}

// ConfigFromEnv parses a client configuration from well-known environment
// variables. Note that this will only return an error if the environment
// variables parse incorrectly; it will not return an error if required
// parameters (e.g. for the connection provider) are missing, to allow
// optional parameters to be specified from environment independently.
func ConfigFromEnv() (ConnectionProvider, *ClientOptions, error) {
	opts := &ClientOptions{}
	conn := connectionProviderBuilder{}

	for _, env := range os.Environ() {
		idx := strings.IndexByte(env, '=')
		key := env[:idx]
		val := env[idx+1:]
		switch key {
		case "AIRGAUGE_MQTT_HOSTNAME":
			conn.hostname = val

		case "AIRGAUGE_MQTT_TCP_PORT":
			port, err := strconv.ParseUint(val, 10, 16)
			if err != nil {
				return nil, nil, &InvalidArgumentError{
					message: "could not parse broker TCP port",
					wrapped: err,
				}
			}
			conn.port = uint16(port)

		case "AIRGAUGE_MQTT_USE_TLS":
			useTLS, err := strconv.ParseBool(val)
			if err != nil {
				return nil, nil, &InvalidArgumentError{
					message: "could not parse MQTT use TLS",
					wrapped: err,
				}
			}
			conn.useTLS = &useTLS

		case "AIRGAUGE_MQTT_WEBSOCKET":
			websocket, err := strconv.ParseBool(val)
			if err != nil {
				return nil, nil, &InvalidArgumentError{
					message: "could not parse MQTT WebSocket flag",
					wrapped: err,
				}
			}
			conn.websocket = websocket

		case "AIRGAUGE_MQTT_WEBSOCKET_PATH":
			conn.wsPath = val

		case "AIRGAUGE_MQTT_CLEAN_START":
			cleanStart, err := strconv.ParseBool(val)
			if err != nil {
				return nil, nil, &InvalidArgumentError{
					message: "could not parse MQTT clean start",
					wrapped: err,
				}
			}
			opts.CleanStart = cleanStart

		case "AIRGAUGE_MQTT_KEEP_ALIVE":
			keepAlive, err := durations.Parse(val)
			seconds := uint64(keepAlive.Seconds())
			if err != nil || seconds > math.MaxUint16 {
				return nil, nil, &InvalidArgumentError{
					message: "could not parse MQTT keep-alive",
					wrapped: err,
				}
			}
			opts.KeepAlive = uint16(seconds)

		case "AIRGAUGE_MQTT_SESSION_EXPIRY":
			sessionExpiry, err := durations.Parse(val)
			seconds := uint64(sessionExpiry.Seconds())
			if err != nil || seconds > math.MaxUint32 {
				return nil, nil, &InvalidArgumentError{
					message: "could not parse MQTT session expiry",
					wrapped: err,
				}
			}
			opts.SessionExpiry = uint32(seconds)

		case "AIRGAUGE_MQTT_CONNECTION_TIMEOUT":
			timeout, err := durations.Parse(val)
			if err != nil {
				return nil, nil, &InvalidArgumentError{
					message: "could not parse MQTT connection timeout",
					wrapped: err,
				}
			}
			opts.ConnectionTimeout = timeout

		case "AIRGAUGE_MQTT_CLIENT_ID":
			opts.ClientID = val

		case "AIRGAUGE_MQTT_USERNAME":
			opts.Username = ConstantUsername(val)

		case "AIRGAUGE_MQTT_PASSWORD_FILE":
			opts.Password = FilePassword(val)

		case "AIRGAUGE_MQTT_TLS_CA_FILE":
			conn.caFile = val

		case "AIRGAUGE_MQTT_TLS_CERT_FILE":
			conn.certFile = val

		case "AIRGAUGE_MQTT_TLS_KEY_FILE":
			conn.keyFile = val

		case "AIRGAUGE_MQTT_TLS_KEY_PASSWORD_FILE":
			conn.passFile = val
		}
	}

	connectionProvider, err := conn.build()
	if err != nil {
		return nil, nil, err
	}
	return connectionProvider, opts, nil
}

// NewFromEnv is a shorthand for constructing a client using ConfigFromEnv.
func NewFromEnv(opt ...ClientOption) (*Client, error) {
	connectionProvider, opts, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if connectionProvider == nil {
		return nil, &InvalidArgumentError{
			message: "connection must be configured",
		}
	}
	opts.Apply(opt)
	return New(connectionProvider, opts), nil
}

func (b *connectionProviderBuilder) build() (ConnectionProvider, error) {
	if b.hostname == "" {
		if b.port != 0 || b.useTLS != nil || b.websocket || b.hasTLS() {
			return nil, &InvalidArgumentError{
				message: "connection configuration provided without hostname",
			}
		}
		return nil, nil
	}

	if b.port == 0 {
		b.port = 8883
	}

	if b.useTLS != nil && !*b.useTLS {
		if b.hasTLS() {
			return nil, &InvalidArgumentError{
				message: "TLS configuration provided but not using TLS",
			}
		}
		if b.websocket {
			return WebSocketConnection(b.url("ws")), nil
		}
		return TCPConnection(b.hostname, b.port), nil
	}

	if (b.certFile != "") != (b.keyFile != "") {
		return nil, &InvalidArgumentError{
			message: "certificate file and key file must be provided together",
		}
	}

	var tlsOpts []TLSOption

	// Bypasses hostname check in the TLS config when deliberately connecting
	// to localhost.
	if b.hostname == "localhost" {
		tlsOpts = append(tlsOpts, func(
			_ context.Context,
			cfg *tls.Config,
		) error {
			cfg.InsecureSkipVerify = true // #nosec G402
			return nil
		})
	}

	if b.certFile != "" {
		if b.passFile != "" {
			tlsOpts = append(tlsOpts, WithEncryptedX509(
				b.certFile,
				b.keyFile,
				b.passFile,
			))
		} else {
			tlsOpts = append(tlsOpts, WithX509(
				b.certFile,
				b.keyFile,
			))
		}
	}

	if b.caFile != "" {
		tlsOpts = append(tlsOpts, WithCA(b.caFile))
	}

	if b.websocket {
		return WebSocketConnection(b.url("wss"), tlsOpts...), nil
	}

	return TLSConnection(b.hostname, b.port, tlsOpts...), nil
}

func (b *connectionProviderBuilder) hasTLS() bool {
	return b.caFile != "" || b.certFile != "" ||
		b.keyFile != "" || b.passFile != ""
}

func (b *connectionProviderBuilder) url(scheme string) string {
	path := b.wsPath
	if path == "" {
		path = "/mqtt"
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, b.hostname, b.port, path)
}
