// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

import (
	"context"
	"crypto/tls"
	"encoding/pem"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestTCPConnection(t *testing.T) {
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	port := uint16(listener.Addr().(*net.TCPAddr).Port)
	conn, err := TCPConnection("localhost", port)(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	var connErr *ConnectionError
	_, err = TCPConnection("localhost", 1)(context.Background())
	require.ErrorAs(t, err, &connErr)
}

func TestResolveTLSConfig(t *testing.T) {
	ctx := context.Background()

	config, err := resolveTLSConfig(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, uint16(tls.VersionTLS12), config.MinVersion)

	config, err = resolveTLSConfig(ctx, []TLSOption{
		func(_ context.Context, c *tls.Config) error {
			c.ServerName = "airgauge.example.com"
			return nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, "airgauge.example.com", config.ServerName)

	var connErr *ConnectionError
	_, err = resolveTLSConfig(ctx, []TLSOption{
		func(context.Context, *tls.Config) error {
			return errors.New("bad option")
		},
	})
	require.ErrorAs(t, err, &connErr)
}

func TestTLSOptions(t *testing.T) {
	ctx := context.Background()
	certPEM, keyDER := generateTestCertificate(t)
	password := []byte("gas-baseline")
	dir := t.TempDir()

	certFile := filepath.Join(dir, "client.pem")
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o600))

	keyFile := filepath.Join(dir, "client.key")
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(
		&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER},
	), 0o600))

	encryptedKeyFile := filepath.Join(dir, "client.enc.key")
	encrypted := encryptPEMBlock(t, "EC PRIVATE KEY", keyDER, password)
	require.NoError(t, os.WriteFile(
		encryptedKeyFile,
		pem.EncodeToMemory(encrypted),
		0o600,
	))

	passwordFile := filepath.Join(dir, "client.pass")
	require.NoError(t, os.WriteFile(passwordFile, password, 0o600))

	t.Run("WithX509", func(t *testing.T) {
		config, err := resolveTLSConfig(ctx, []TLSOption{
			WithX509(certFile, keyFile),
		})
		require.NoError(t, err)
		require.Len(t, config.Certificates, 1)
	})

	t.Run("WithEncryptedX509", func(t *testing.T) {
		config, err := resolveTLSConfig(ctx, []TLSOption{
			WithEncryptedX509(certFile, encryptedKeyFile, passwordFile),
		})
		require.NoError(t, err)
		require.Len(t, config.Certificates, 1)
	})

	t.Run("WithCA", func(t *testing.T) {
		config, err := resolveTLSConfig(ctx, []TLSOption{WithCA(certFile)})
		require.NoError(t, err)
		require.NotNil(t, config.RootCAs)
	})

	t.Run("MissingFiles", func(t *testing.T) {
		missing := filepath.Join(dir, "missing.pem")

		var connErr *ConnectionError
		_, err := resolveTLSConfig(ctx, []TLSOption{
			WithX509(missing, missing),
		})
		require.ErrorAs(t, err, &connErr)

		_, err = resolveTLSConfig(ctx, []TLSOption{WithCA(missing)})
		require.ErrorAs(t, err, &connErr)
	})
}

// The MQTT packet reader sees the WebSocket as a byte stream, so reads must
// continue seamlessly across frame boundaries.
func TestWebSocketConnFraming(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			ws, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer ws.Close()

			_ = ws.WriteMessage(websocket.BinaryMessage, []byte("hello "))
			_ = ws.WriteMessage(websocket.BinaryMessage, []byte("airgauge"))

			if _, data, err := ws.ReadMessage(); err == nil {
				received <- data
			}
		},
	))
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(srv.URL, "http"),
		nil,
	)
	require.NoError(t, err)
	conn := &webSocketConn{ws: ws}
	t.Cleanup(func() { _ = conn.Close() })

	var got []byte
	buf := make([]byte, 4)
	for len(got) < len("hello airgauge") {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	require.Equal(t, "hello airgauge", string(got))

	n, err := conn.Write([]byte("ack"))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	select {
	case data := <-received:
		require.Equal(t, []byte("ack"), data)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the echoed write")
	}
}
