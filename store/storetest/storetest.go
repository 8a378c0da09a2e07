// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package storetest provides a conformance suite run against every store
// backend.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/airgauge/airgauge/store"
)

// Run exercises the store.Store contract against the given implementation.
func Run(t *testing.T, s store.Store) {
	ctx := context.Background()

	t.Run("MissingKey", func(t *testing.T) {
		_, err := s.Get(ctx, "never_set")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("SetGet", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "gas_base", 250000))
		value, err := s.Get(ctx, "gas_base")
		require.NoError(t, err)
		require.Equal(t, uint32(250000), value)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "samples", 10))
		require.NoError(t, s.Set(ctx, "samples", 50))
		value, err := s.Get(ctx, "samples")
		require.NoError(t, err)
		require.Equal(t, uint32(50), value)
	})

	t.Run("ZeroValueIsNotMissing", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "zeroed", 0))
		value, err := s.Get(ctx, "zeroed")
		require.NoError(t, err)
		require.Equal(t, uint32(0), value)
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "first", 1))
		require.NoError(t, s.Set(ctx, "second", 2))
		first, err := s.Get(ctx, "first")
		require.NoError(t, err)
		second, err := s.Get(ctx, "second")
		require.NoError(t, err)
		require.Equal(t, uint32(1), first)
		require.Equal(t, uint32(2), second)
	})

	t.Run("MaxUint32", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "max", 0xFFFFFFFF))
		value, err := s.Get(ctx, "max")
		require.NoError(t, err)
		require.Equal(t, uint32(0xFFFFFFFF), value)
	})
}
