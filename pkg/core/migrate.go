package core

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// ftsTableSQL is the expected definition of the full-text index. Changing it
// bumps the index out of date on existing stores; ensureFTS detects the diff
// against sqlite_master and rebuilds from the document table.
const ftsTableSQL = `CREATE VIRTUAL TABLE words_fts USING fts5(word, one_line_desc, details, tags, synonyms, antonyms, word_id UNINDEXED, tokenize='unicode61')`

const (
	schemaVersionKey = "schema_version"

	// ftsDirtyKey marks an index that fell behind the document table after a
	// mid-session write failure. A set marker forces a rebuild on open even
	// when the index definition is current.
	ftsDirtyKey = "fts_dirty"
)

type migration struct {
	version int
	name    string
	// required migrations abort Init on failure; optional ones only degrade
	// the feature they serve.
	required bool
	apply    func(ctx context.Context, tx *sql.Tx) error
}

var migrations = []migration{
	{version: 1, name: "base tables", required: true, apply: applyBaseTables},
	{version: 2, name: "full-text index", required: false, apply: applyFullTextIndex},
}

func applyBaseTables(ctx context.Context, tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		doc_type TEXT NOT NULL,
		name TEXT,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_type_name ON documents(doc_type, name) WHERE name IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_documents_type_created ON documents(doc_type, created_at, updated_at);

	CREATE TABLE IF NOT EXISTS word_vectors (
		word_id TEXT PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
		vector BLOB NOT NULL,
		model_used TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create base tables: %w", err)
	}
	return nil
}

func applyFullTextIndex(ctx context.Context, tx *sql.Tx) error {
	// A retried migration may find the table already created out-of-band by
	// the index repair path; start from scratch either way.
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS words_fts`); err != nil {
		return fmt.Errorf("failed to drop existing full-text index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, ftsTableSQL); err != nil {
		return fmt.Errorf("failed to create full-text index: %w", err)
	}
	if err := loadFTSFromDocuments(ctx, tx); err != nil {
		return err
	}
	return clearFTSDirty(ctx, tx)
}

// migrate applies pending migrations sequentially, each in its own
// transaction, advancing the stored schema version marker. Idempotent: safe
// to run on every open.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_meta: %w", err)
	}

	version, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}

		err := s.applyMigration(ctx, m)
		if err == nil {
			version = m.version
			s.logger.Info("applied schema migration", "version", m.version, "name", m.name)
			continue
		}

		if m.required {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		// Optional migration: the store stays available, the marker stays
		// behind, and the next open retries.
		s.logger.Warn("optional migration failed", "version", m.version, "name", m.name, "error", err)
	}

	return nil
}

func (s *Store) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := m.apply(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := setSchemaVersion(ctx, tx, m.version); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM schema_meta WHERE key = ?`, schemaVersionKey).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	version, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("malformed schema version %q: %w", value, err)
	}
	return version, nil
}

func setSchemaVersion(ctx context.Context, tx *sql.Tx, version int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO schema_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, schemaVersionKey, strconv.Itoa(version))
	if err != nil {
		return fmt.Errorf("failed to store schema version: %w", err)
	}
	return nil
}

// ensureFTS verifies the live full-text index matches the expected
// definition and has not been marked dirty, rebuilding it from the document
// table otherwise. Never fails Init: an unusable index only demotes search
// to the fallback.
func (s *Store) ensureFTS(ctx context.Context) {
	current, err := s.ftsDefinition(ctx)
	if err != nil {
		s.ftsReady.Store(false)
		s.logger.Warn("full-text index unavailable, search degraded", "error", err)
		return
	}

	dirty := s.ftsDirty(ctx)
	if !dirty && ftsDefinitionsEqual(current, ftsTableSQL) {
		s.ftsReady.Store(true)
		return
	}

	switch {
	case dirty:
		s.logger.Info("full-text index is behind the document table, rebuilding")
	case current != "":
		s.logger.Info("full-text index definition is stale, rebuilding")
	}

	if err := s.rebuildFTS(ctx); err != nil {
		s.ftsReady.Store(false)
		s.logger.Warn("full-text index rebuild failed, search degraded", "error", err)
		return
	}

	s.ftsReady.Store(true)
}

// ftsDirty reports whether the dirty marker is set. A read failure counts
// as dirty; rebuilding is the safe answer to an unreadable marker.
func (s *Store) ftsDirty(ctx context.Context) bool {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM schema_meta WHERE key = ?`, ftsDirtyKey).Scan(&value)
	if err == sql.ErrNoRows {
		return false
	}
	return true
}

func clearFTSDirty(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_meta WHERE key = ?`, ftsDirtyKey); err != nil {
		return fmt.Errorf("failed to clear index dirty marker: %w", err)
	}
	return nil
}

// ftsDefinition returns the stored CREATE statement of the live index, or
// "" when the table does not exist.
func (s *Store) ftsDefinition(ctx context.Context) (string, error) {
	var def string
	err := s.db.QueryRowContext(ctx, `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'words_fts'`).Scan(&def)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to inspect full-text index: %w", err)
	}
	return def, nil
}

// ftsDefinitionsEqual compares CREATE statements ignoring whitespace and
// letter case, the only variance sqlite_master introduces.
func ftsDefinitionsEqual(a, b string) bool {
	normalize := func(sql string) string {
		return strings.ToLower(strings.Join(strings.Fields(sql), " "))
	}
	return a != "" && normalize(a) == normalize(b)
}

// rebuildFTS drops and recreates the index, then bulk-loads every word
// document, as one transaction.
func (s *Store) rebuildFTS(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS words_fts`); err != nil {
		return fmt.Errorf("failed to drop stale index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, ftsTableSQL); err != nil {
		return fmt.Errorf("failed to create full-text index: %w", err)
	}
	if err := loadFTSFromDocuments(ctx, tx); err != nil {
		return err
	}
	if err := clearFTSDirty(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

// loadFTSFromDocuments bulk-loads all current word documents into the
// full-text index.
func loadFTSFromDocuments(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT payload FROM documents WHERE doc_type = ?`, DocTypeWord)
	if err != nil {
		return fmt.Errorf("failed to query word documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*WordDocument
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("failed to scan word payload: %w", err)
		}
		doc, err := decodeWordDocument(payload)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating word documents: %w", err)
	}

	for _, doc := range docs {
		if err := insertFTSTx(ctx, tx, doc); err != nil {
			return err
		}
	}
	return nil
}
