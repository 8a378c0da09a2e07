// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package memory provides a process-local store implementation, used in tests
// and as the fallback when no durable backend is configured.
package memory

import (
	"context"
	"sync"

	"github.com/airgauge/airgauge/store"
)

// Store is an in-memory store.Store implementation.
type Store struct {
	mu     sync.RWMutex
	values map[string]uint32
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{values: make(map[string]uint32)}
}

// Get returns the value for the key.
func (s *Store) Get(_ context.Context, key string) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return 0, store.NewError("memory", "get", key, store.ErrNotFound)
	}
	return value, nil
}

// Set writes the value for the key.
func (s *Store) Set(_ context.Context, key string, value uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Close is a no-op for the in-memory store.
func (*Store) Close() error {
	return nil
}
