package artifact

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
	kind       TEXT      NOT NULL,
	id         TEXT      NOT NULL,
	payload    BLOB      NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (kind, id)
)`

// SQLiteBackend keeps artifacts in a single SQLite table keyed by kind and id.
type SQLiteBackend struct {
	db   *sqlx.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create artifacts table: %w", err)
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) Location(kind Kind, id string) string {
	return fmt.Sprintf("sqlite://%s#%s/%s", b.path, kind, id)
}

func (b *SQLiteBackend) Put(ctx context.Context, kind Kind, id string, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO artifacts (kind, id, payload) VALUES (?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		string(kind), id, data)
	return err
}

func (b *SQLiteBackend) Get(ctx context.Context, kind Kind, id string) ([]byte, error) {
	var payload []byte
	err := b.db.GetContext(ctx, &payload, `SELECT payload FROM artifacts WHERE kind = ? AND id = ?`, string(kind), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return payload, err
}
