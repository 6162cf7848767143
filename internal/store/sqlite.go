package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the durable Store backend. Single kv table with optional
// unix-millisecond expiry; expired rows are filtered on read and reaped
// opportunistically on write.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv_entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER DEFAULT 0,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_kv_expires ON kv_entries(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	var expiresAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if expiresAt > 0 && expiresAt < time.Now().UnixMilli() {
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixMilli()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv_entries (key, value, expires_at, updated_at) VALUES (?, ?, ?, ?)`,
		key, value, expiresAt, now.UnixMilli(),
	)
	if err != nil {
		return err
	}

	s.reapExpired(ctx, now)
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key)
	return err
}

func (s *SQLiteStore) ListPrefix(ctx context.Context, prefix string) (map[string][]byte, error) {
	// '￿' sorts after every printable key suffix.
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, expires_at FROM kv_entries WHERE key >= ? AND key < ?`,
		prefix, prefix+"￿",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nowMs := time.Now().UnixMilli()
	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		var expiresAt int64
		if err := rows.Scan(&key, &value, &expiresAt); err != nil {
			return nil, err
		}
		if expiresAt > 0 && expiresAt < nowMs {
			continue
		}
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out[key] = value
	}
	return out, rows.Err()
}

// reapExpired is best effort; failures are ignored since reads already
// filter dead rows.
func (s *SQLiteStore) reapExpired(ctx context.Context, now time.Time) {
	_, _ = s.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE expires_at > 0 AND expires_at < ?`, now.UnixMilli())
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
