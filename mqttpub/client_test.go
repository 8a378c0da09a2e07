// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Port 1 is never listening, so clients built on it keep retrying the
// connection in the background until stopped.
func deadEndClient(opt ...ClientOption) *Client {
	return New(TCPConnection("localhost", 1), opt...)
}

func TestNewDefaults(t *testing.T) {
	c := deadEndClient()

	require.Regexp(t, "^[0-9a-zA-Z]{23}$", c.ID())
	require.Equal(t, uint16(60), c.options.KeepAlive)
	require.Equal(t, uint32(math.MaxUint32), c.options.SessionExpiry)
	require.Equal(t, uint16(math.MaxUint16), c.options.ReceiveMaximum)
	require.False(t, c.options.CleanStart)
	require.NotNil(t, c.options.ConnectionRetry)
}

func TestNewAppliesOptions(t *testing.T) {
	c := deadEndClient(
		WithClientID("airgauge-1"),
		WithCleanStart(true),
		WithKeepAlive(30),
		WithSessionExpiry(3600),
		WithReceiveMaximum(8),
		WithConnectionTimeout(5*time.Second),
	)

	require.Equal(t, "airgauge-1", c.ID())
	require.True(t, c.options.CleanStart)
	require.Equal(t, uint16(30), c.options.KeepAlive)
	require.Equal(t, uint32(3600), c.options.SessionExpiry)
	require.Equal(t, uint16(8), c.options.ReceiveMaximum)
	require.Equal(t, 5*time.Second, c.options.ConnectionTimeout)
}

func TestOptionsActAsOption(t *testing.T) {
	opts := &ClientOptions{ClientID: "from-options", KeepAlive: 10}
	c := deadEndClient(opts, WithKeepAlive(20))

	require.Equal(t, "from-options", c.ID())

	// Later options override the materialized struct.
	require.Equal(t, uint16(20), c.options.KeepAlive)
}

func TestClientStateErrorText(t *testing.T) {
	require.Equal(t,
		"the client has not yet been started",
		(&ClientStateError{State: NotStarted}).Error(),
	)
	require.Equal(t,
		"the client has already been started",
		(&ClientStateError{State: Started}).Error(),
	)
	require.Equal(t,
		"the client has been shut down",
		(&ClientStateError{State: ShutDown}).Error(),
	)
}

func TestOperationsRequireStart(t *testing.T) {
	ctx := context.Background()
	c := deadEndClient()

	var stateErr *ClientStateError
	for _, err := range []error{
		c.Publish(ctx, "airgauge/test", nil),
		c.Subscribe(ctx, "airgauge/test"),
		c.Unsubscribe(ctx, "airgauge/test"),
		c.Stop(),
	} {
		require.ErrorAs(t, err, &stateErr)
		require.Equal(t, NotStarted, stateErr.State)
	}
}

func TestStopShutsDown(t *testing.T) {
	ctx := context.Background()
	c := deadEndClient()
	require.NoError(t, c.Start())

	var stateErr *ClientStateError
	require.ErrorAs(t, c.Start(), &stateErr)
	require.Equal(t, Started, stateErr.State)

	require.NoError(t, c.Stop())

	require.ErrorAs(t, c.Publish(ctx, "airgauge/test", nil), &stateErr)
	require.Equal(t, ShutDown, stateErr.State)

	require.ErrorAs(t, c.Stop(), &stateErr)
	require.Equal(t, ShutDown, stateErr.State)
}

func TestPublishValidation(t *testing.T) {
	ctx := context.Background()
	c := deadEndClient()
	require.NoError(t, c.Start())
	t.Cleanup(func() { _ = c.Stop() })

	var invalidArg *InvalidArgumentError
	require.ErrorAs(t, c.Publish(ctx, "airgauge/test", nil, WithQoS(2)), &invalidArg)
	require.ErrorAs(t, c.Publish(ctx, "", nil), &invalidArg)
	require.ErrorAs(t, c.Subscribe(ctx, "airgauge/test", WithQoS(2)), &invalidArg)
	require.ErrorAs(t, c.Subscribe(ctx, ""), &invalidArg)
	require.ErrorAs(t, c.Unsubscribe(ctx, ""), &invalidArg)
}

func TestPublishDroppedWhileDisconnected(t *testing.T) {
	c := deadEndClient()
	require.NoError(t, c.Start())
	t.Cleanup(func() { _ = c.Stop() })

	var notConnected *NotConnectedError
	err := c.Publish(context.Background(), "sensor/bme680/data", []byte("{}"))
	require.ErrorAs(t, err, &notConnected)
}

func TestRetryableConnectError(t *testing.T) {
	require.True(t, retryableConnectError(&ConnectionError{
		message: "connection refused",
	}))
	require.True(t, retryableConnectError(&ConnackError{
		ReasonCode: connackServerBusy,
	}))
	require.True(t, retryableConnectError(&DisconnectError{
		ReasonCode: disconnectServerShuttingDown,
	}))
	require.False(t, retryableConnectError(&FatalConnackError{
		ReasonCode: connackBadUserNameOrPassword,
	}))
	require.False(t, retryableConnectError(&FatalDisconnectError{
		ReasonCode: disconnectSessionTakenOver,
	}))
	require.False(t, retryableConnectError(&InvalidArgumentError{
		message: "unsupported QoS",
	}))
}
