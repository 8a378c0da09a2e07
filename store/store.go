// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package store defines the key-value persistence contract used to carry
// calibration scalars across process restarts, in the shape of the ESP32 NVS
// API they were originally kept in: unsigned 32-bit values addressed by a
// short key within a namespace.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Store persists uint32 values by key. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value for the key, or an error wrapping ErrNotFound if
	// the key has never been set.
	Get(ctx context.Context, key string) (uint32, error)

	// Set writes the value for the key, creating or overwriting it.
	Set(ctx context.Context, key string, value uint32) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrNotFound indicates a key that has never been set.
var ErrNotFound = errors.New("key not found")

// Error wraps a backend failure with the operation and key that produced it.
type Error struct {
	Backend string
	Op      string
	Key     string

	wrapped error
}

// NewError constructs a backend error for the given operation.
func NewError(backend, op, key string, wrapped error) *Error {
	return &Error{Backend: backend, Op: op, Key: key, wrapped: wrapped}
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.wrapped)
	}
	return fmt.Sprintf("%s %s %q: %v", e.Backend, e.Op, e.Key, e.wrapped)
}

func (e *Error) Unwrap() error {
	return e.wrapped
}
