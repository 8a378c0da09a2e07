// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iaq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireTimesOutWhenGuardHeld(t *testing.T) {
	ctx := context.Background()
	e := New(WithLockTimeout(5 * time.Millisecond))
	require.NoError(t, e.Init(ctx))

	// Steal the guard token to simulate a stuck holder.
	<-e.guard

	_, err := e.Calculate(ctx, Reading{GasResistance: 100000, GasValid: true})
	require.ErrorIs(t, err, ErrTimeout)

	_, err = e.LastResult(ctx)
	require.ErrorIs(t, err, ErrTimeout)

	require.ErrorIs(t, e.Reset(ctx), ErrTimeout)

	// Returning the token restores normal operation.
	e.guard <- struct{}{}
	_, err = e.Calculate(ctx, Reading{
		Temperature:   25,
		Humidity:      40,
		GasResistance: 100000,
		GasValid:      true,
	})
	require.NoError(t, err)
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	e := New(WithLockTimeout(time.Minute))
	require.NoError(t, e.Init(context.Background()))

	<-e.guard
	defer func() { e.guard <- struct{}{} }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Calculate(ctx, Reading{GasResistance: 100000, GasValid: true})
	require.ErrorIs(t, err, context.Canceled)
}
