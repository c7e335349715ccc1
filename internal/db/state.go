package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is the subset of *pgxpool.Pool used by StateStore.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StateStore keeps client state key-value pairs in the client_state table.
// Rows are scoped by namespace so several API backends can share a database.
type StateStore struct {
	pool      querier
	namespace string
}

// Get retrieves the value stored under key.
func (r *StateStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `
		SELECT value
		FROM client_state
		WHERE namespace = $1 AND key = $2
	`
	var value string
	err := r.pool.QueryRow(ctx, query, r.namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying state %q: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value stored under key.
func (r *StateStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO client_state (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, r.namespace, key, value); err != nil {
		return fmt.Errorf("upserting state %q: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (r *StateStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query := `DELETE FROM client_state WHERE namespace = $1 AND key = ANY($2)`
	if _, err := r.pool.Exec(ctx, query, r.namespace, keys); err != nil {
		return fmt.Errorf("deleting state: %w", err)
	}
	return nil
}

// Namespace returns the scope of this store.
func (r *StateStore) Namespace() string {
	return r.namespace
}
