package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/wordvault/wordvault/internal/encoding"
)

// ListWords returns one page of word summaries in chronological order
// (created_at, then updated_at). Only summary fields leave the database;
// full document bodies are never fetched for listing.
func (s *Store) ListWords(ctx context.Context, offset, limit int, order ListOrder) (*Page[WordSummary], error) {
	const op = "list_words"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(op); err != nil {
		return nil, err
	}

	offset, limit = clampPage(offset, limit)

	total, err := countByType(ctx, s.db, DocTypeWord)
	if err != nil {
		return nil, wrapError(op, err)
	}

	dir := "ASC"
	if order == OrderDesc {
		dir = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, name,
			COALESCE(json_extract(payload, '$.one_line_desc'), ''),
			COALESCE(json_extract(payload, '$.tags'), '[]'),
			created_at, updated_at
		FROM documents WHERE doc_type = ?
		ORDER BY created_at %s, updated_at %s
		LIMIT ? OFFSET ?
	`, dir, dir)

	rows, err := s.db.QueryContext(ctx, query, DocTypeWord, limit, offset)
	if err != nil {
		return nil, wrapError(op, fmt.Errorf("failed to query word summaries: %w", err))
	}
	defer func() { _ = rows.Close() }()

	items := []WordSummary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, wrapError(op, err)
		}
		items = append(items, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(op, fmt.Errorf("error iterating word summaries: %w", err))
	}

	return newPage(items, offset, limit, total), nil
}

// WordCount returns the number of word documents in the store.
func (s *Store) WordCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard("word_count"); err != nil {
		return 0, err
	}

	total, err := countByType(ctx, s.db, DocTypeWord)
	if err != nil {
		return 0, wrapError("word_count", err)
	}
	return total, nil
}

// fetchSummaries loads summaries for the given ids, preserving the given
// order. Used by search, which ranks before fetching.
func (s *Store) fetchSummaries(ctx context.Context, ids []string) ([]WordSummary, error) {
	if len(ids) == 0 {
		return []WordSummary{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, name,
			COALESCE(json_extract(payload, '$.one_line_desc'), ''),
			COALESCE(json_extract(payload, '$.tags'), '[]'),
			created_at, updated_at
		FROM documents WHERE id IN (%s)
	`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query word summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[string]WordSummary, len(ids))
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		byID[summary.ID] = summary
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating word summaries: %w", err)
	}

	items := make([]WordSummary, 0, len(ids))
	for _, id := range ids {
		if summary, ok := byID[id]; ok {
			items = append(items, summary)
		}
	}
	return items, nil
}

func scanSummary(row scannable) (WordSummary, error) {
	var summary WordSummary
	var tagsJSON string
	var createdAt, updatedAt int64

	if err := row.Scan(&summary.ID, &summary.Word, &summary.OneLineDesc, &tagsJSON, &createdAt, &updatedAt); err != nil {
		return WordSummary{}, fmt.Errorf("failed to scan word summary: %w", err)
	}

	if err := encoding.DecodePayload(tagsJSON, &summary.Tags); err != nil {
		return WordSummary{}, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}

	summary.CreatedAt = fromMillis(createdAt)
	summary.UpdatedAt = fromMillis(updatedAt)
	return summary, nil
}

func summaryFromDoc(doc *WordDocument) WordSummary {
	return WordSummary{
		ID:          doc.ID,
		Word:        doc.Word,
		OneLineDesc: doc.OneLineDesc,
		Tags:        doc.Tags,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}
