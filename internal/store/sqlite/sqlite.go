// Package sqlite is a durable, single-host store backend on mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"dashboard-cache/internal/common/errors"
	"dashboard-cache/internal/store"
)

type Store struct {
	db     *sql.DB
	config *Config
}

var _ store.Store = (*Store)(nil)

func New(config *Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite config: %w", err)
	}

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return nil, errors.ConnectionError("failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.ConnectionError("failed to ping database", err)
	}

	s := &Store{
		db:     db,
		config: config,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cache_entries WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", store.NotFound(key)
	}
	if err != nil {
		return "", errors.StoreError("sqlite get failed", err).WithContext("key", key)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.writeError(key, err)
	}
	defer tx.Rollback()

	if s.config.QuotaBytes > 0 {
		var used int64
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0)
			 FROM cache_entries WHERE key <> ?`, key).Scan(&used)
		if err != nil {
			return s.writeError(key, err)
		}
		if used+int64(len(key)+len(value)) > s.config.QuotaBytes {
			return store.QuotaExceeded(key, nil)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return s.writeError(key, err)
	}

	if err := tx.Commit(); err != nil {
		return s.writeError(key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return errors.StoreError("sqlite delete failed", err).WithContext("key", key)
	}
	return nil
}

// Keys compares a byte prefix with substr so LIKE wildcards in prefix stay literal.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM cache_entries WHERE substr(CAST(key AS BLOB), 1, ?) = CAST(? AS BLOB)`,
		len(prefix), prefix)
	if err != nil {
		return nil, errors.StoreError("sqlite key scan failed", err).WithContext("prefix", prefix)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.StoreError("sqlite key scan failed", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) writeError(key string, err error) error {
	if isQuotaError(err) {
		return store.QuotaExceeded(key, err)
	}
	return errors.StoreError("sqlite set failed", err).WithContext("key", key)
}

// isQuotaError matches SQLITE_FULL, raised when the disk or max_page_count is exhausted.
func isQuotaError(err error) bool {
	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrFull
	}
	return false
}

// Factory creates SQLite stores from a generic configuration.
type Factory struct{}

func (f *Factory) Create(config store.GenericConfig) (store.Store, error) {
	return New(&Config{
		DatabasePath: config.String("database_path", DefaultConfig().DatabasePath),
		QuotaBytes:   config.Int64("quota_bytes", 0),
	})
}

func (f *Factory) GetType() string {
	return "sqlite"
}
