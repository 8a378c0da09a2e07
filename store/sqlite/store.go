// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package sqlite provides a SQLite-backed store for single-node deployments.
// The pure Go driver keeps the binary free of cgo, which matters on the small
// ARM boards this typically runs on.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/airgauge/airgauge/store"
)

const defaultPath = "airgauge.db"

var _ store.Store = (*Store)(nil)

// Store persists values to a single SQLite table keyed by namespace and key.
type Store struct {
	db        *sql.DB
	namespace string
}

// Open opens (creating if necessary) a SQLite-backed store at path, scoping
// all keys to the given namespace.
func Open(path, namespace string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if namespace == "" {
		return nil, store.NewError(
			"sqlite", "open", "", errors.New("namespace must not be empty"),
		)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, store.NewError(
				"sqlite", "open", "", fmt.Errorf("create dirs: %w", err),
			)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, store.NewError("sqlite", "open", "", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value INTEGER NOT NULL,
		PRIMARY KEY (namespace, key)
	)`); err != nil {
		_ = db.Close()
		return nil, store.NewError(
			"sqlite", "open", "", fmt.Errorf("create kv table: %w", err),
		)
	}

	return &Store{db: db, namespace: namespace}, nil
}

// Get returns the value for the key.
func (s *Store) Get(ctx context.Context, key string) (uint32, error) {
	var value uint32
	err := s.db.QueryRowContext(
		ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.NewError("sqlite", "get", key, store.ErrNotFound)
	}
	if err != nil {
		return 0, store.NewError("sqlite", "get", key, err)
	}
	return value, nil
}

// Set writes the value for the key.
func (s *Store) Set(ctx context.Context, key string, value uint32) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO kv(namespace, key, value) VALUES(?, ?, ?)
			ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value`,
		s.namespace, key, value,
	)
	if err != nil {
		return store.NewError("sqlite", "set", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
