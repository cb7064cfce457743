package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// The generic document table: typed JSON payloads keyed by id and a type
// discriminator, with an optional indexed name for lookup without a scan.
// All higher layers read and write through these operations.

// Put stores a typed JSON payload. An existing id keeps its created_at; the
// payload, name and updated_at are replaced.
func (s *Store) Put(ctx context.Context, id string, docType DocType, name, payload string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard("put"); err != nil {
		return err
	}
	if id == "" {
		return wrapError("put", fmt.Errorf("id cannot be empty"))
	}

	return s.withTx(ctx, "put", func(tx *sql.Tx) error {
		return putDocumentTx(ctx, tx, id, docType, name, payload, time.Now())
	})
}

// Get returns the document with the given id and type, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string, docType DocType) (*RawDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard("get"); err != nil {
		return nil, err
	}

	doc, err := getDocument(ctx, s.db, id, docType)
	if err != nil {
		return nil, wrapError("get", err)
	}
	return doc, nil
}

// GetByName returns the document of the given type whose name matches
// exactly (case-sensitive), or ErrNotFound. Served by the name index, not a
// scan.
func (s *Store) GetByName(ctx context.Context, docType DocType, name string) (*RawDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard("get_by_name"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, doc_type, name, payload, created_at, updated_at
		FROM documents WHERE doc_type = ? AND name = ?
	`, docType, name)

	doc, err := scanDocument(row)
	if err != nil {
		return nil, wrapError("get_by_name", err)
	}
	return doc, nil
}

// Delete removes the document with the given id and type. Returns false,
// not an error, when no such document exists.
func (s *Store) Delete(ctx context.Context, id string, docType DocType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard("delete"); err != nil {
		return false, err
	}

	var deleted bool
	err := s.withTx(ctx, "delete", func(tx *sql.Tx) error {
		var err error
		deleted, err = deleteDocumentTx(ctx, tx, id, docType)
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// ListByType returns one page of documents of the given type in
// chronological order, along with the total count for that type.
func (s *Store) ListByType(ctx context.Context, docType DocType, offset, limit int, order ListOrder) ([]RawDocument, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard("list_by_type"); err != nil {
		return nil, 0, err
	}

	offset, limit = clampPage(offset, limit)

	total, err := countByType(ctx, s.db, docType)
	if err != nil {
		return nil, 0, wrapError("list_by_type", err)
	}

	dir := "ASC"
	if order == OrderDesc {
		dir = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, doc_type, name, payload, created_at, updated_at
		FROM documents WHERE doc_type = ?
		ORDER BY created_at %s, updated_at %s
		LIMIT ? OFFSET ?
	`, dir, dir)

	rows, err := s.db.QueryContext(ctx, query, docType, limit, offset)
	if err != nil {
		return nil, 0, wrapError("list_by_type", fmt.Errorf("failed to query documents: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var docs []RawDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, wrapError("list_by_type", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapError("list_by_type", fmt.Errorf("error iterating documents: %w", err))
	}

	return docs, total, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putDocumentTx(ctx context.Context, tx queryer, id string, docType DocType, name, payload string, now time.Time) error {
	// A put on an existing (type, name) pair updates that row: the original
	// id and created_at survive, the caller's id is discarded.
	if name != "" {
		existing, err := getDocumentByNameTx(ctx, tx, docType, name)
		if err == nil {
			id = existing.ID
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	var nameVal sql.NullString
	if name != "" {
		nameVal = sql.NullString{String: name, Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, doc_type, name, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, id, docType, nameVal, payload, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

func getDocument(ctx context.Context, q queryer, id string, docType DocType) (*RawDocument, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, doc_type, name, payload, created_at, updated_at
		FROM documents WHERE id = ? AND doc_type = ?
	`, id, docType)
	return scanDocument(row)
}

func getDocumentByNameTx(ctx context.Context, tx queryer, docType DocType, name string) (*RawDocument, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, doc_type, name, payload, created_at, updated_at
		FROM documents WHERE doc_type = ? AND name = ?
	`, docType, name)
	return scanDocument(row)
}

func deleteDocumentTx(ctx context.Context, tx queryer, id string, docType DocType) (bool, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND doc_type = ?`, id, docType)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func countByType(ctx context.Context, q queryer, docType DocType) (int, error) {
	var total int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE doc_type = ?`, docType).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return total, nil
}

// scannable is satisfied by *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (*RawDocument, error) {
	var doc RawDocument
	var name sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&doc.ID, &doc.Type, &name, &doc.Payload, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	doc.Name = name.String
	doc.CreatedAt = fromMillis(createdAt)
	doc.UpdatedAt = fromMillis(updatedAt)
	return &doc, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	return offset, limit
}
