// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/airgauge/airgauge/store/postgres"
	"github.com/airgauge/airgauge/store/storetest"
)

// Integration test; requires a reachable server, e.g.
// AIRGAUGE_TEST_POSTGRES_DSN=postgres://localhost/airgauge_test?sslmode=disable
func open(t *testing.T) *postgres.Store {
	dsn := os.Getenv("AIRGAUGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AIRGAUGE_TEST_POSTGRES_DSN not set")
	}

	// Random namespace so parallel runs don't collide.
	s, err := postgres.Open(context.Background(), dsn, uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, open(t))
}

func TestPersistsAcrossReconnect(t *testing.T) {
	ctx := context.Background()
	dsn := os.Getenv("AIRGAUGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AIRGAUGE_TEST_POSTGRES_DSN not set")
	}

	namespace := uuid.NewString()
	s, err := postgres.Open(ctx, dsn, namespace)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "gas_base", 132500))
	require.NoError(t, s.Close())

	s, err = postgres.Open(ctx, dsn, namespace)
	require.NoError(t, err)
	defer s.Close()

	value, err := s.Get(ctx, "gas_base")
	require.NoError(t, err)
	require.Equal(t, uint32(132500), value)
}
