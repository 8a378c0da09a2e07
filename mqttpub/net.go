// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/eclipse/paho.golang/packets"
	"github.com/gorilla/websocket"
)

type (
	// ConnectionProvider is a function that returns a net.Conn connected to
	// an MQTT server that is ready to read from and write to. Note that the
	// returned net.Conn must be thread-safe (i.e., concurrent Write calls
	// must not interleave).
	ConnectionProvider func(context.Context) (net.Conn, error)

	// TLSOption modifies the TLS configuration used when opening a TLS
	// connection to an MQTT server.
	TLSOption func(context.Context, *tls.Config) error
)

// TCPConnection is a ConnectionProvider that connects to an MQTT server over
// TCP.
func TCPConnection(hostname string, port uint16) ConnectionProvider {
	return func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(
			ctx,
			"tcp",
			fmt.Sprintf("%s:%d", hostname, port),
		)
		if err != nil {
			return nil, &ConnectionError{
				message: "error opening TCP connection",
				wrapped: err,
			}
		}
		return conn, nil
	}
}

// TLSConnection is a ConnectionProvider that connects to an MQTT server with
// TLS over TCP. The provided options are applied to a default TLS
// configuration on each connection, so that certificates read from files are
// refreshed when the connection is reopened.
func TLSConnection(
	hostname string,
	port uint16,
	opt ...TLSOption,
) ConnectionProvider {
	return func(ctx context.Context) (net.Conn, error) {
		config, err := resolveTLSConfig(ctx, opt)
		if err != nil {
			return nil, err
		}

		d := tls.Dialer{Config: config}
		conn, err := d.DialContext(
			ctx,
			"tcp",
			fmt.Sprintf("%s:%d", hostname, port),
		)
		if err != nil {
			return nil, &ConnectionError{
				message: "error opening TLS connection",
				wrapped: err,
			}
		}
		return packets.NewThreadSafeConn(conn), nil
	}
}

// WebSocketConnection is a ConnectionProvider that connects to an MQTT server
// over WebSockets. The URL scheme selects between ws and wss; the TLS options
// only apply to the latter.
func WebSocketConnection(url string, opt ...TLSOption) ConnectionProvider {
	return func(ctx context.Context) (net.Conn, error) {
		dialer := websocket.Dialer{
			Proxy:        http.ProxyFromEnvironment,
			Subprotocols: []string{"mqtt"},
		}

		config, err := resolveTLSConfig(ctx, opt)
		if err != nil {
			return nil, err
		}
		dialer.TLSClientConfig = config

		ws, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, &ConnectionError{
				message: "error opening WebSocket connection",
				wrapped: err,
			}
		}
		return packets.NewThreadSafeConn(&webSocketConn{ws: ws}), nil
	}
}

func resolveTLSConfig(
	ctx context.Context,
	opts []TLSOption,
) (*tls.Config, error) {
	config := &tls.Config{MinVersion: tls.VersionTLS12}
	for _, opt := range opts {
		if err := opt(ctx, config); err != nil {
			return nil, &ConnectionError{
				message: "error building TLS configuration",
				wrapped: err,
			}
		}
	}
	return config, nil
}

// WithX509 loads a client certificate and key from the given PEM files for
// mutual TLS.
func WithX509(certFile, keyFile string) TLSOption {
	return func(_ context.Context, config *tls.Config) error {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return err
		}
		config.Certificates = append(config.Certificates, cert)
		return nil
	}
}

// WithEncryptedX509 loads a client certificate and password-protected key
// from the given PEM files for mutual TLS. The password is read from its own
// file.
func WithEncryptedX509(certFile, keyFile, passwordFile string) TLSOption {
	return func(_ context.Context, config *tls.Config) error {
		cert, err := loadX509KeyPairWithPassword(
			certFile,
			keyFile,
			passwordFile,
		)
		if err != nil {
			return err
		}
		config.Certificates = append(config.Certificates, cert)
		return nil
	}
}

// WithCA trusts the CA certificates in the given PEM file instead of the
// host's root pool.
func WithCA(caFile string) TLSOption {
	return func(_ context.Context, config *tls.Config) error {
		pool, err := loadCACertPool(caFile)
		if err != nil {
			return err
		}
		config.RootCAs = pool
		return nil
	}
}

// webSocketConn adapts a WebSocket connection carrying binary frames to the
// net.Conn the MQTT client reads packets from. Read is only safe from a
// single goroutine; writes are serialized by the thread-safe wrapper.
type webSocketConn struct {
	ws     *websocket.Conn
	reader io.Reader
}

func (c *webSocketConn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			_, reader, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			c.reader = reader
		}

		n, err := c.reader.Read(p)
		if errors.Is(err, io.EOF) {
			// Frame exhausted; continue with the next one.
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *webSocketConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *webSocketConn) Close() error {
	return c.ws.Close()
}

func (c *webSocketConn) LocalAddr() net.Addr {
	return c.ws.LocalAddr()
}

func (c *webSocketConn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

func (c *webSocketConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *webSocketConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

func (c *webSocketConn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}
