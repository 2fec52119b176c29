package cms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// sharedLocale is the locale key non-localized field values are stored under.
const sharedLocale = ""

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE TABLE IF NOT EXISTS field_values (
	collection TEXT NOT NULL,
	doc_id     TEXT NOT NULL,
	locale     TEXT NOT NULL,
	name       TEXT NOT NULL,
	value      TEXT NOT NULL,
	PRIMARY KEY (collection, doc_id, locale, name)
);`

// SQLiteStore is a Store backed by SQLite. Field values are kept as JSON
// text, one row per (document, locale, field).
type SQLiteStore struct {
	db          *sql.DB
	collections map[string]Collection
	logger      *logrus.Logger
}

// NewSQLiteStore opens (or creates) the database at path and prepares the
// schema. Use ":memory:" for a throwaway store.
func NewSQLiteStore(path string, collections []Collection, logger *logrus.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logrus.New()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases intact and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	byslug := make(map[string]Collection, len(collections))
	for _, c := range collections {
		byslug[c.Slug] = c
	}

	logger.WithFields(logrus.Fields{
		"path":        path,
		"collections": len(byslug),
	}).Info("Opened document store")

	return &SQLiteStore{db: db, collections: byslug, logger: logger}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FindByID returns the document as seen from locale: shared fields plus the
// localized fields stored for that locale.
func (s *SQLiteStore) FindByID(ctx context.Context, collection, id, locale string) (Document, error) {
	if _, ok := s.collections[collection]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup document: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT locale, name, value FROM field_values
		 WHERE collection = ? AND doc_id = ? AND locale IN (?, ?)`,
		collection, id, sharedLocale, locale,
	)
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()

	doc := Document{"id": id, "createdAt": createdAt}
	for rows.Next() {
		var loc, name, raw string
		if err := rows.Scan(&loc, &name, &raw); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		// Rows left behind by a schema change (localized ↔ shared) are ignored.
		if (loc == sharedLocale) == s.localized(collection, name) {
			continue
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("decode field %q: %w", name, err)
		}
		doc[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fields: %w", err)
	}

	return doc, nil
}

// Update applies data as a delta to the document in locale. A nil value
// removes the field.
func (s *SQLiteStore) Update(ctx context.Context, collection, id, locale string, data map[string]any) error {
	if _, ok := s.collections[collection]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE documents SET updated_at = ? WHERE collection = ? AND id = ?`,
		now(), collection, id,
	)
	if err != nil {
		return fmt.Errorf("touch document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := s.writeFields(ctx, tx, collection, id, locale, data); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"collection": collection,
		"doc_id":     id,
		"locale":     locale,
		"fields":     len(data),
	}).Debug("Updated document")
	return nil
}

// Create inserts a new document with data written in locale and returns its id.
func (s *SQLiteStore) Create(ctx context.Context, collection, locale string, data map[string]any) (string, error) {
	if _, ok := s.collections[collection]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	id, _ := data["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (collection, id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		collection, id, ts, ts,
	); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}

	fields := make(map[string]any, len(data))
	for k, v := range data {
		if k != "id" {
			fields[k] = v
		}
	}
	if err := s.writeFields(ctx, tx, collection, id, locale, fields); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit create: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"collection": collection,
		"doc_id":     id,
		"locale":     locale,
	}).Info("Created document")
	return id, nil
}

func (s *SQLiteStore) writeFields(ctx context.Context, tx *sql.Tx, collection, id, locale string, data map[string]any) error {
	for name, value := range data {
		loc := sharedLocale
		if s.localized(collection, name) {
			loc = locale
		}

		if value == nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM field_values WHERE collection = ? AND doc_id = ? AND locale = ? AND name = ?`,
				collection, id, loc, name,
			); err != nil {
				return fmt.Errorf("delete field %q: %w", name, err)
			}
			continue
		}

		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode field %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO field_values (collection, doc_id, locale, name, value) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (collection, doc_id, locale, name) DO UPDATE SET value = excluded.value`,
			collection, id, loc, name, string(raw),
		); err != nil {
			return fmt.Errorf("write field %q: %w", name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) localized(collection, field string) bool {
	f, ok := s.collections[collection].Field(field)
	return ok && f.Localized
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
