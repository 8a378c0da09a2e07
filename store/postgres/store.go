// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package postgres provides a Postgres-backed store for fleets that
// centralize per-device calibration instead of keeping it on local disk.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/airgauge/airgauge/store"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/airgauge?sslmode=disable"
)

var _ store.Store = (*Store)(nil)

// Store persists values to a Postgres table keyed by namespace and key.
type Store struct {
	db        *sql.DB
	namespace string
}

// Open connects to Postgres using the provided DSN (falling back to a local
// default), verifies the connection, and ensures the kv table exists.
func Open(ctx context.Context, dsn, namespace string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	if namespace == "" {
		return nil, store.NewError(
			"postgres", "open", "", errors.New("namespace must not be empty"),
		)
	}

	db, err := sql.Open(defaultDriver, dsn)
	if err != nil {
		return nil, store.NewError("postgres", "open", "", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, store.NewError(
			"postgres", "open", "", fmt.Errorf("ping: %w", err),
		)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value BIGINT NOT NULL,
		PRIMARY KEY (namespace, key)
	)`); err != nil {
		_ = db.Close()
		return nil, store.NewError(
			"postgres", "open", "", fmt.Errorf("create kv table: %w", err),
		)
	}

	return &Store{db: db, namespace: namespace}, nil
}

// Get returns the value for the key.
func (s *Store) Get(ctx context.Context, key string) (uint32, error) {
	var value int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT value FROM kv WHERE namespace = $1 AND key = $2`,
		s.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.NewError("postgres", "get", key, store.ErrNotFound)
	}
	if err != nil {
		return 0, store.NewError("postgres", "get", key, err)
	}
	return uint32(value), nil
}

// Set writes the value for the key.
func (s *Store) Set(ctx context.Context, key string, value uint32) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO kv(namespace, key, value) VALUES($1, $2, $3)
			ON CONFLICT(namespace, key) DO UPDATE SET value = EXCLUDED.value`,
		s.namespace, key, int64(value),
	)
	if err != nil {
		return store.NewError("postgres", "set", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
