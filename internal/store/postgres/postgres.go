// Package postgres is a shared, durable store backend on a pgx connection pool.
package postgres

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dashboard-cache/internal/common/errors"
	"dashboard-cache/internal/store"
)

type Store struct {
	pool   *pgxpool.Pool
	config *Config
}

var _ store.Store = (*Store)(nil)

func New(ctx context.Context, config *Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL config: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, config.GetConnectionString())
	if err != nil {
		return nil, errors.ConnectionError("failed to connect to PostgreSQL database", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, errors.ConnectionError("failed to ping PostgreSQL database", err)
	}

	s := &Store{pool: pool, config: config}
	if err := s.migrate(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM cache_entries WHERE key = $1`, key).Scan(&value)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return "", store.NotFound(key)
	}
	if err != nil {
		return "", errors.StoreError("postgres get failed", err).WithContext("key", key)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return s.writeError(key, err)
	}
	defer tx.Rollback(ctx)

	if s.config.QuotaBytes > 0 {
		var used int64
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(octet_length(key) + octet_length(value)), 0)::BIGINT
			 FROM cache_entries WHERE key <> $1`, key).Scan(&used)
		if err != nil {
			return s.writeError(key, err)
		}
		if used+int64(len(key)+len(value)) > s.config.QuotaBytes {
			return store.QuotaExceeded(key, nil)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO cache_entries (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value)
	if err != nil {
		return s.writeError(key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return s.writeError(key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM cache_entries WHERE key = $1`, key); err != nil {
		return errors.StoreError("postgres delete failed", err).WithContext("key", key)
	}
	return nil
}

// Keys uses left() rather than LIKE so wildcard characters in prefix stay literal.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM cache_entries WHERE left(key, char_length($1::TEXT)) = $1::TEXT`, prefix)
	if err != nil {
		return nil, errors.StoreError("postgres key scan failed", err).WithContext("prefix", prefix)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.StoreError("postgres key scan failed", err).WithContext("prefix", prefix)
	}
	return keys, nil
}

func (s *Store) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) writeError(key string, err error) error {
	if isQuotaError(err) {
		return store.QuotaExceeded(key, err)
	}
	return errors.StoreError("postgres set failed", err).WithContext("key", key)
}

// SQLSTATE classes that mean the server has no room for the write.
var quotaCodes = map[string]bool{
	"53100": true, // disk_full
	"53200": true, // out_of_memory
	"54000": true, // program_limit_exceeded
}

func isQuotaError(err error) bool {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return quotaCodes[pgErr.Code]
	}
	return false
}

// Factory creates PostgreSQL stores from a generic configuration.
type Factory struct{}

func (f *Factory) Create(config store.GenericConfig) (store.Store, error) {
	return New(context.Background(), &Config{
		Host:       config.String("host", "localhost"),
		Port:       config.String("port", "5432"),
		Database:   config.String("database", "dashboard_cache"),
		Username:   config.String("username", "postgres"),
		Password:   config.String("password", ""),
		SSLMode:    config.String("sslmode", "disable"),
		QuotaBytes: config.Int64("quota_bytes", 0),
		ConnString: config.String("connection_string", ""),
	})
}

func (f *Factory) GetType() string {
	return "postgres"
}
