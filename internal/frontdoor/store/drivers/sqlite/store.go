package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	_ "modernc.org/sqlite"
)

// Store keeps every scope in one kv table of a local sqlite file.
type Store struct {
	db  *sql.DB
	dsn string
}

var (
	_ store.ScopedStore = (*Store)(nil)
	_ store.TabPurger   = (*Store)(nil)
)

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection keeps the pragma in force and serialises writers in
	// this process. Two CLI processes may still share the file.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
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

func (s *Store) Bucket(scope string) store.Bucket {
	return &bucket{s: s, scope: scope}
}

// PurgeTabScopes drops tab scopes whose newest key is older than idleSince.
// Tab ids are per process, so abandoned scopes would otherwise accumulate.
func (s *Store) PurgeTabScopes(ctx context.Context, idleSince time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM kv
		WHERE scope LIKE ? || '%'
		  AND scope IN (
			SELECT scope FROM kv GROUP BY scope HAVING MAX(updated_at) < ?
		  )`,
		store.TabScopePrefix, idleSince.UTC().Format(time.DateTime))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type bucket struct {
	s     *Store
	scope string
}

func (b *bucket) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := b.s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE scope = ? AND key = ?`, b.scope, key).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return v, true, nil
}

func (b *bucket) Put(ctx context.Context, values map[string]string) error {
	return b.s.WithTx(ctx, func(tx *sql.Tx) error {
		for k, v := range values {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO kv (scope, key, value, updated_at)
				VALUES (?, ?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT (scope, key) DO UPDATE
				SET value = excluded.value, updated_at = excluded.updated_at`,
				b.scope, k, v)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *bucket) Delete(ctx context.Context, keys ...string) error {
	return b.s.WithTx(ctx, func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM kv WHERE scope = ? AND key = ?`, b.scope, k); err != nil {
				return err
			}
		}
		return nil
	})
}
