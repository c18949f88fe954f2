// Package sqlite is a store.Backend persisting session values in a SQLite
// database, one row per key. Several named sessions can share a file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// DefaultSession is the session name used when none is configured.
const DefaultSession = "default"

type Store struct {
	db      *sql.DB
	session string
}

// NewStore opens the database at dsn. Call ApplyMigrations before first use.
func NewStore(dsn, session string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection serialises writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	if session == "" {
		session = DefaultSession
	}

	return &Store{db: db, session: session}, nil
}

// Open is NewStore followed by ApplyMigrations.
func Open(dsn, session string) (*Store, error) {
	s, err := NewStore(dsn, session)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyMigrations(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_values WHERE session = ? AND key = ?`,
		s.session, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, values map[string]string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for key, value := range values {
			if value == "" {
				if _, err := tx.ExecContext(ctx,
					`DELETE FROM session_values WHERE session = ? AND key = ?`,
					s.session, key,
				); err != nil {
					return err
				}
				continue
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO session_values (session, key, value, updated_at)
				 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
				 ON CONFLICT (session, key) DO UPDATE
				 SET value = excluded.value, updated_at = excluded.updated_at`,
				s.session, key, value,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_values WHERE session = ?`, s.session)
	return err
}

// withTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
