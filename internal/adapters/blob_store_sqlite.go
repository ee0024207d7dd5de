package adapters

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	_ "modernc.org/sqlite"

	"block-manifests/internal/ports"
)

const sqliteBlobSchema = `
CREATE TABLE IF NOT EXISTS manifest_blobs (
	key        TEXT PRIMARY KEY,
	data       BLOB,
	expires_at INTEGER NOT NULL DEFAULT 0,
	timestamp  INTEGER
)`

// SQLiteBlobStore is an options-table style store in a local sqlite file.
// Blob and timestamp share a row; every write replaces the column whole.
type SQLiteBlobStore struct {
	db    *sql.DB
	Clock func() time.Time
}

func NewSQLiteBlobStore(path string) (*SQLiteBlobStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create sqlite store directory").
			WithCause(err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open sqlite store").
			WithCause(err)
	}
	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		sqliteBlobSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to initialize sqlite store").
				WithCause(err)
		}
	}
	return &SQLiteBlobStore{db: db, Clock: time.Now}, nil
}

func (s *SQLiteBlobStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteBlobStore) GetBlob(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT data, expires_at FROM manifest_blobs WHERE key = ? AND data IS NOT NULL", key,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeError("get", key, err)
	}
	if expiresAt > 0 && s.Clock().UnixNano() >= expiresAt {
		if _, err := s.db.ExecContext(ctx, "UPDATE manifest_blobs SET data = NULL, expires_at = 0 WHERE key = ?", key); err != nil {
			return nil, false, storeError("expire", key, err)
		}
		return nil, false, nil
	}
	return data, true, nil
}

// SetBlob stores data; ttl <= 0 means no expiry.
func (s *SQLiteBlobStore) SetBlob(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.Clock().Add(ttl).UnixNano()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO manifest_blobs (key, data, expires_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		key, data, expiresAt)
	if err != nil {
		return storeError("set", key, err)
	}
	return nil
}

func (s *SQLiteBlobStore) DeleteBlob(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM manifest_blobs WHERE key = ?", key); err != nil {
		return storeError("delete", key, err)
	}
	return nil
}

func (s *SQLiteBlobStore) GetTimestamp(ctx context.Context, key string) (int64, bool, error) {
	var value sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT timestamp FROM manifest_blobs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storeError("get timestamp", key, err)
	}
	return value.Int64, value.Valid, nil
}

func (s *SQLiteBlobStore) SetTimestamp(ctx context.Context, key string, value int64) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO manifest_blobs (key, timestamp) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET timestamp = excluded.timestamp`,
		key, value)
	if err != nil {
		return storeError("set timestamp", key, err)
	}
	return nil
}

var _ ports.BlobStorePort = (*SQLiteBlobStore)(nil)
