package entitystore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"time"

	apperrors "worklens/internal/platform/errors"
	"worklens/internal/platform/tx"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store keeps JSON documents grouped by collection in a single SQLite table.
// It also implements tx.Manager: operations called with a context returned
// by Within share that transaction.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ tx.Manager = (*Store)(nil)

type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Within(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := tx.From(ctx); ok {
		return fn(ctx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", apperrors.ErrStorage, err)
	}
	if err := fn(tx.Bind(ctx, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx: %v", apperrors.ErrStorage, err)
	}
	return nil
}

func (s *Store) conn(ctx context.Context) conn {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

// Add inserts a new document and fails with ErrStorageConflict when the id
// is already taken in the collection.
func (s *Store) Add(ctx context.Context, collection, id string, doc any) error {
	if collection == "" || id == "" {
		return fmt.Errorf("%w: collection and id are required", apperrors.ErrInvalidInput)
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encode %s/%s: %v", apperrors.ErrInvalidInput, collection, id, err)
	}
	stamp := s.now().Format(time.RFC3339Nano)
	res, err := s.conn(ctx).ExecContext(ctx, `
INSERT INTO entities(collection, id, data, created_at, updated_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(collection, id) DO NOTHING
`, collection, id, string(payload), stamp, stamp)
	if err != nil {
		return fmt.Errorf("%w: insert %s/%s: %v", apperrors.ErrStorage, collection, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: insert %s/%s: %v", apperrors.ErrStorage, collection, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s/%s", apperrors.ErrStorageConflict, collection, id)
	}
	return nil
}

// Update merges the top-level fields of patch into the stored document.
func (s *Store) Update(ctx context.Context, collection, id string, patch any) error {
	return s.Within(ctx, func(ctx context.Context) error {
		var current string
		err := s.conn(ctx).QueryRowContext(ctx, `SELECT data FROM entities WHERE collection = ? AND id = ?`, collection, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s/%s", apperrors.ErrNotFound, collection, id)
		}
		if err != nil {
			return fmt.Errorf("%w: load %s/%s: %v", apperrors.ErrStorage, collection, id, err)
		}
		merged, err := mergeShallow([]byte(current), patch)
		if err != nil {
			return err
		}
		_, err = s.conn(ctx).ExecContext(ctx, `UPDATE entities SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
			string(merged), s.now().Format(time.RFC3339Nano), collection, id)
		if err != nil {
			return fmt.Errorf("%w: update %s/%s: %v", apperrors.ErrStorage, collection, id, err)
		}
		return nil
	})
}

// Upsert inserts doc or merges it into the existing document with the same
// id. The returned flag reports whether a new document was created.
func (s *Store) Upsert(ctx context.Context, collection, id string, doc any) (bool, error) {
	created := false
	err := s.Within(ctx, func(ctx context.Context) error {
		err := s.Add(ctx, collection, id, doc)
		if err == nil {
			created = true
			return nil
		}
		if !errors.Is(err, apperrors.ErrStorageConflict) {
			return err
		}
		return s.Update(ctx, collection, id, doc)
	})
	return created, err
}

func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	var raw string
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT data FROM entities WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s/%s", apperrors.ErrNotFound, collection, id)
	}
	if err != nil {
		return fmt.Errorf("%w: get %s/%s: %v", apperrors.ErrStorage, collection, id, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: decode %s/%s: %v", apperrors.ErrStorage, collection, id, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q Query) ([]json.RawMessage, error) {
	stmt, args, err := q.build(collection)
	if err != nil {
		return nil, err
	}
	rows, err := s.conn(ctx).QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", apperrors.ErrStorage, collection, err)
	}
	defer rows.Close()
	out := []json.RawMessage{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", apperrors.ErrStorage, collection, err)
		}
		out = append(out, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s: %v", apperrors.ErrStorage, collection, err)
	}
	return out, nil
}

// QueryAs decodes every matching document into T.
func QueryAs[T any](ctx context.Context, s *Store, collection string, q Query) ([]T, error) {
	raws, err := s.Query(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", apperrors.ErrStorage, collection, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func mergeShallow(current []byte, patch any) ([]byte, error) {
	base := map[string]json.RawMessage{}
	if err := json.Unmarshal(current, &base); err != nil {
		return nil, fmt.Errorf("%w: decode stored document: %v", apperrors.ErrStorage, err)
	}
	encoded, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("%w: encode patch: %v", apperrors.ErrInvalidInput, err)
	}
	overlay := map[string]json.RawMessage{}
	if err := json.Unmarshal(encoded, &overlay); err != nil {
		return nil, fmt.Errorf("%w: patch must be an object: %v", apperrors.ErrInvalidInput, err)
	}
	maps.Copy(base, overlay)
	merged, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("%w: encode merged document: %v", apperrors.ErrStorage, err)
	}
	return merged, nil
}
