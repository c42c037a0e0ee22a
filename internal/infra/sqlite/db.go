// Package sqlite provides SQLite-based persistent storage for Citadel.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/citadel-app/citadel/internal/domain"
)

// Compile-time check that DB satisfies the key-value provider contract.
var _ domain.KVStore = (*DB)(nil)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode and a 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Key-value store holding every persisted progression record as JSON
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Key-Value ──────────────────────────────────────────────────────────────

const upsertKV = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, strftime('%s','now'))
	ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`

// Get retrieves a value by key. ok is false if the key is absent.
func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores a key-value pair.
func (d *DB) Set(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx, upsertKV, key, value)
	return err
}

// SetMany stores all pairs inside one transaction.
func (d *DB) SetMany(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertKV)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for k, v := range pairs {
		if _, err := stmt.ExecContext(ctx, k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Remove deletes a key. Missing keys are ignored.
func (d *DB) Remove(ctx context.Context, key string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Keys lists every stored key in lexical order.
func (d *DB) Keys(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
