// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"context"
	"iter"
	"sync"
)

type (
	// ConnectionTracker tracks the connection state of the client and provides
	// access to the currently connected underlying client instance.
	ConnectionTracker[Client comparable] struct {
		current   CurrentConnection[Client]
		currentMu sync.RWMutex
	}

	// CurrentConnection is a snapshot of the tracked connection data.
	CurrentConnection[Client comparable] struct {
		// Current instance of the client. Zero when disconnected.
		Client Client

		// Error that caused the last disconnection.
		Error error

		// Channel that is closed when the connection is up (i.e., a new
		// client instance is connected to the server with a successful
		// CONNACK), used to wake goroutines waiting on a connection.
		up chan struct{}

		// Background state that is stopped when the connection is down. Used
		// to notify goroutines that expect the connection to go down that the
		// disconnection has been detected and a reconnect is underway.
		Down *Background

		// Counter for the current connection attempt. This is independent
		// from the client, since it also records unsuccessful attempts.
		Attempt uint64
	}
)

func NewConnectionTracker[Client comparable]() *ConnectionTracker[Client] {
	c := &ConnectionTracker[Client]{}
	c.current.up = make(chan struct{})
	c.current.Down = NewBackground(context.Canceled)

	// Immediately close down to maintain the invariant that down is closed
	// iff the client is disconnected.
	c.current.Down.Close()

	return c
}

func (c *ConnectionTracker[Client]) Attempt() uint64 {
	c.currentMu.Lock()
	defer c.currentMu.Unlock()

	c.current.Error = nil
	c.current.Attempt++
	return c.current.Attempt
}

func (c *ConnectionTracker[Client]) Connect(client Client) error {
	c.currentMu.Lock()
	defer c.currentMu.Unlock()

	// A disconnect was encountered between attempt and connect. Don't connect
	// and return the error.
	if c.current.Error != nil {
		return c.current.Error
	}

	c.current.Client = client
	close(c.current.up)
	c.current.Down = NewBackground(context.Canceled)
	return nil
}

func (c *ConnectionTracker[Client]) Disconnect(attempt uint64, err error) {
	c.currentMu.Lock()
	defer c.currentMu.Unlock()

	// This disconnect is for another attempt; don't change state.
	if c.current.Attempt != attempt {
		return
	}

	// Record the error if there isn't already one recorded.
	if c.current.Error == nil {
		c.current.Error = err
	}

	// An error was encountered before connect. Record it but don't
	// disconnect.
	var zero Client
	if c.current.Client == zero {
		return
	}

	c.current.Client = zero
	c.current.up = make(chan struct{})
	c.current.Down.Close()
}

func (c *ConnectionTracker[Client]) Current() CurrentConnection[Client] {
	c.currentMu.RLock()
	defer c.currentMu.RUnlock()

	return c.current
}

// Client iterates the underlying client across reconnections. Since the
// client instance is replaced on reconnect, this is an iterator; the caller
// should return from the loop once the call they are making has completed, or
// continue the loop to wait for a reconnect and try again. The loop only
// terminates on its own via the context. The yielded context is cancelled if
// the yielded client disconnects, to terminate in-flight requests.
func (c *ConnectionTracker[Client]) Client(
	ctx context.Context,
) iter.Seq2[context.Context, Client] {
	return func(yield func(context.Context, Client) bool) {
		for {
			current := c.Current()

			var zero Client
			if current.Client == zero {
				select {
				case <-ctx.Done():
					return
				case <-current.up:
					continue
				}
			}

			if !func() bool {
				ctx, cancel := current.Down.With(ctx)
				defer cancel()
				return yield(ctx, current.Client)
			}() {
				return
			}

			// If we get here, the request failed because the connection went
			// down or because ctx was cancelled.
			select {
			case <-ctx.Done():
				return
			case <-current.Down.Done():
				// Wait for the connection to come back up and retry.
			}
		}
	}
}
