// Package sqlite is a local workspace backend: collections and records live
// in an embedded SQLite database instead of a Notion workspace.
//
// The database runs in WAL mode so `cardsync show` and other readers can
// open it while a sync is writing. Record values are stored one row per
// field, so an update only touches the fields it names.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/arcanaland/cardsync/internal/workspace"
)

const defaultTitleField = "Name"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS collections (
	id TEXT PRIMARY KEY,
	parent_id TEXT NOT NULL,
	title TEXT NOT NULL,
	title_field TEXT NOT NULL DEFAULT 'Name',
	created_at TEXT NOT NULL,
	UNIQUE (parent_id, title)
);

CREATE TABLE IF NOT EXISTS fields (
	collection_id TEXT NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	target TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL,
	PRIMARY KEY (collection_id, name),
	FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	collection_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS record_values (
	record_id TEXT NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	text TEXT NOT NULL DEFAULT '',
	items TEXT,  -- JSON array
	number REAL,
	PRIMARY KEY (record_id, name),
	FOREIGN KEY (record_id) REFERENCES records(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_records_collection ON records(collection_id);
CREATE INDEX IF NOT EXISTS idx_values_lookup ON record_values(name, text);
`

// Store is a workspace.Backend backed by a SQLite file.
type Store struct {
	conn   *sql.DB
	path   string
	logger *log.Logger
	now    func() time.Time
}

var _ workspace.Backend = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the schema.
// The caller must Close the store.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// A single connection keeps PRAGMAs and transactions on one handle.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn, path: path, logger: logger, now: time.Now}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	logger.Debug("opened workspace database", "path", path)
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Warn("failed to checkpoint WAL", "err", err)
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// Verify checks the database is reachable.
func (s *Store) Verify(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", workspace.ErrUnauthorized, err)
	}
	return nil
}

// CheckParent accepts any non-empty parent; collections are namespaced by it.
func (s *Store) CheckParent(ctx context.Context, parentID string) error {
	if parentID == "" {
		return fmt.Errorf("empty parent: %w", workspace.ErrNotFound)
	}
	return nil
}

// OpenCollection finds the collection titled title under parentID, creating
// it when missing, and ensures its schema.
func (s *Store) OpenCollection(ctx context.Context, parentID, title string, schema workspace.Schema) (workspace.Collection, error) {
	col := workspace.Collection{Title: title}
	err := s.conn.QueryRowContext(ctx,
		`SELECT id FROM collections WHERE parent_id = ? AND title = ?`, parentID, title,
	).Scan(&col.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		col.ID = uuid.NewString()
		if _, err := s.conn.ExecContext(ctx,
			`INSERT INTO collections (id, parent_id, title, title_field, created_at) VALUES (?, ?, ?, ?, ?)`,
			col.ID, parentID, title, defaultTitleField, s.timestamp(),
		); err != nil {
			return col, fmt.Errorf("create collection %q: %w", title, err)
		}
		s.logger.Info("created collection", "title", title, "id", col.ID)
	case err != nil:
		return col, fmt.Errorf("find collection %q: %w", title, err)
	}
	col.URL = "sqlite://" + s.path + "#" + col.ID

	if err := s.EnsureSchema(ctx, col.ID, schema); err != nil {
		return col, err
	}
	return col, nil
}

func (s *Store) collectionExists(ctx context.Context, collectionID string) error {
	var n int
	if err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collections WHERE id = ?`, collectionID,
	).Scan(&n); err != nil {
		return fmt.Errorf("look up collection %s: %w", collectionID, err)
	}
	if n == 0 {
		return fmt.Errorf("collection %s: %w", collectionID, workspace.ErrNotFound)
	}
	return nil
}

// EnsureSchema adds missing fields; existing fields keep their kind.
func (s *Store) EnsureSchema(ctx context.Context, collectionID string, schema workspace.Schema) error {
	if err := s.collectionExists(ctx, collectionID); err != nil {
		return err
	}
	existing, err := s.schema(ctx, collectionID)
	if err != nil {
		return err
	}
	added := 0
	for _, f := range schema {
		if _, ok := existing.Lookup(f.Name); ok {
			continue
		}
		if _, err := s.conn.ExecContext(ctx,
			`INSERT INTO fields (collection_id, name, kind, target, position) VALUES (?, ?, ?, ?, ?)`,
			collectionID, f.Name, string(f.Kind), f.Target, len(existing)+added,
		); err != nil {
			return fmt.Errorf("add field %q: %w", f.Name, err)
		}
		added++
	}
	if added > 0 {
		s.logger.Debug("added collection fields", "collection", collectionID, "count", added)
	}
	return nil
}

// schema returns the collection's fields in creation order.
func (s *Store) schema(ctx context.Context, collectionID string) (workspace.Schema, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT name, kind, target FROM fields WHERE collection_id = ? ORDER BY position`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	defer rows.Close()

	var out workspace.Schema
	for rows.Next() {
		var f workspace.Field
		var kind string
		if err := rows.Scan(&f.Name, &kind, &f.Target); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		f.Kind = workspace.Kind(kind)
		out = append(out, f)
	}
	return out, rows.Err()
}

// TitleFieldName returns the collection's title field.
func (s *Store) TitleFieldName(ctx context.Context, collectionID string) (string, error) {
	var name string
	err := s.conn.QueryRowContext(ctx,
		`SELECT title_field FROM collections WHERE id = ?`, collectionID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("collection %s: %w", collectionID, workspace.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read title field: %w", err)
	}
	return name, nil
}

// FindByExternalID returns the first record in the collection whose field equals externalID.
func (s *Store) FindByExternalID(ctx context.Context, collectionID, field, externalID string) (string, bool, error) {
	var id string
	err := s.conn.QueryRowContext(ctx, `
		SELECT r.id FROM records r
		JOIN record_values v ON v.record_id = r.id
		WHERE r.collection_id = ? AND v.name = ? AND v.text = ?
		ORDER BY r.created_at, r.id
		LIMIT 1`, collectionID, field, externalID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query %s=%s: %w", field, externalID, err)
	}
	return id, true, nil
}

// CreateRecord inserts a record with the given fields.
func (s *Store) CreateRecord(ctx context.Context, collectionID string, fields workspace.Fields) (string, error) {
	if err := s.checkFields(ctx, collectionID, fields); err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := s.timestamp()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (id, collection_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			id, collectionID, now, now,
		); err != nil {
			return err
		}
		return putValues(ctx, tx, id, fields)
	})
	if err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}
	return id, nil
}

// UpdateRecord overwrites the named fields and leaves the others untouched.
func (s *Store) UpdateRecord(ctx context.Context, recordID string, fields workspace.Fields) error {
	var collectionID string
	err := s.conn.QueryRowContext(ctx,
		`SELECT collection_id FROM records WHERE id = ?`, recordID,
	).Scan(&collectionID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("record %s: %w", recordID, workspace.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("look up record %s: %w", recordID, err)
	}
	if err := s.checkFields(ctx, collectionID, fields); err != nil {
		return err
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE records SET updated_at = ? WHERE id = ?`, s.timestamp(), recordID,
		); err != nil {
			return err
		}
		return putValues(ctx, tx, recordID, fields)
	})
	if err != nil {
		return fmt.Errorf("update record %s: %w", recordID, err)
	}
	return nil
}

// record returns every stored field of a record.
func (s *Store) record(ctx context.Context, recordID string) (workspace.Fields, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT name, kind, text, items, number FROM record_values WHERE record_id = ?`, recordID)
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", recordID, err)
	}
	defer rows.Close()

	out := workspace.Fields{}
	for rows.Next() {
		var (
			name, kind, text string
			items            sql.NullString
			number           sql.NullFloat64
		)
		if err := rows.Scan(&name, &kind, &text, &items, &number); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		v := workspace.Value{Kind: workspace.Kind(kind), Text: text}
		if items.Valid {
			if err := json.Unmarshal([]byte(items.String), &v.Items); err != nil {
				return nil, fmt.Errorf("decode %s items: %w", name, err)
			}
		}
		if number.Valid {
			n := number.Float64
			v.Number = &n
		}
		out[name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("record %s: %w", recordID, workspace.ErrNotFound)
	}
	return out, nil
}

// Count returns the number of records in a collection.
func (s *Store) Count(ctx context.Context, collectionID string) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE collection_id = ?`, collectionID,
	).Scan(&n)
	return n, err
}

// checkFields rejects values for fields the collection does not define.
func (s *Store) checkFields(ctx context.Context, collectionID string, fields workspace.Fields) error {
	schema, err := s.schema(ctx, collectionID)
	if err != nil {
		return err
	}
	title, err := s.TitleFieldName(ctx, collectionID)
	if err != nil {
		return err
	}
	for _, name := range fields.Names() {
		if name == title {
			continue
		}
		if _, ok := schema.Lookup(name); !ok {
			return fmt.Errorf("field %q is not defined on collection %s", name, collectionID)
		}
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func putValues(ctx context.Context, tx *sql.Tx, recordID string, fields workspace.Fields) error {
	for _, name := range fields.Names() {
		v := fields[name]
		var items any
		if v.Items != nil {
			data, err := json.Marshal(v.Items)
			if err != nil {
				return err
			}
			items = string(data)
		}
		var number any
		if v.Number != nil {
			number = *v.Number
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO record_values (record_id, name, kind, text, items, number)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (record_id, name) DO UPDATE SET
				kind = excluded.kind,
				text = excluded.text,
				items = excluded.items,
				number = excluded.number`,
			recordID, name, string(v.Kind), v.Text, items, number,
		); err != nil {
			return fmt.Errorf("write field %q: %w", name, err)
		}
	}
	return nil
}
