package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// errFTSWrite marks an index-write failure inside a composite operation so
// the coordinator can demote the index and retry without it.
var errFTSWrite = errors.New("full-text index write failed")

// SearchWords performs ranked lexical search over word documents. Ranking
// precedence: exact case-insensitive match on the word, then prefix match
// on the word, then relevance over all indexed fields, then substring-only
// hits, with ties broken by word ascending. Total is the full match-set
// size. When the full-text index is unavailable the substring fallback
// serves the query in the same shape.
func (s *Store) SearchWords(ctx context.Context, query string, offset, limit int) (*Page[WordSummary], error) {
	const op = "search_words"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(op); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	offset, limit = clampPage(offset, limit)
	if limit == 0 || limit > s.config.SearchLimit {
		limit = s.config.SearchLimit
	}

	if query == "" {
		return newPage([]WordSummary{}, offset, limit, 0), nil
	}

	if s.ftsReady.Load() {
		page, err := s.searchFTS(ctx, query, offset, limit)
		if err == nil {
			return page, nil
		}
		if isDomainError(err) {
			return nil, wrapError(op, err)
		}
		s.demoteFTS(ctx, err)
	}

	page, err := s.searchFallback(ctx, query, offset, limit)
	if err != nil {
		return nil, wrapError(op, err)
	}
	return page, nil
}

// Ranking tiers, in precedence order.
const (
	tierExact     = 0
	tierPrefix    = 1
	tierRelevance = 2
	tierSubstring = 3
)

type searchHit struct {
	id    string
	word  string
	tier  int
	score float64 // bm25, lower is better; only meaningful in tierRelevance
}

// searchFTS serves a query from the full-text index. A LIKE pass over the
// same index table merges in substring hits that FTS tokenization cannot
// produce, so "cat" still finds "concatenate".
func (s *Store) searchFTS(ctx context.Context, query string, offset, limit int) (*Page[WordSummary], error) {
	hits := make(map[string]*searchHit)

	match := buildMatchExpr(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT word_id, word, bm25(words_fts, 8.0, 4.0, 1.0, 3.0, 3.0, 3.0, 0.0)
		FROM words_fts WHERE words_fts MATCH ?
	`, match)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	for rows.Next() {
		var hit searchHit
		if err := rows.Scan(&hit.id, &hit.word, &hit.score); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
		}
		hit.tier = rankTier(hit.word, query, tierRelevance)
		hits[hit.id] = &hit
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err = s.db.QueryContext(ctx, `
		SELECT word_id, word FROM words_fts
		WHERE lower(word) LIKE ? ESCAPE '\'
		   OR lower(one_line_desc) LIKE ? ESCAPE '\'
		   OR lower(details) LIKE ? ESCAPE '\'
		   OR lower(tags) LIKE ? ESCAPE '\'
		   OR lower(synonyms) LIKE ? ESCAPE '\'
		   OR lower(antonyms) LIKE ? ESCAPE '\'
	`, pattern, pattern, pattern, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	for rows.Next() {
		var id, word string
		if err := rows.Scan(&id, &word); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
		}
		if _, seen := hits[id]; seen {
			continue
		}
		hits[id] = &searchHit{id: id, word: word, tier: rankTier(word, query, tierSubstring)}
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	ranked := make([]*searchHit, 0, len(hits))
	for _, hit := range hits {
		ranked = append(ranked, hit)
	}
	sortHits(ranked)

	total := len(ranked)
	ranked = pageSlice(ranked, offset, limit)

	ids := make([]string, len(ranked))
	for i, hit := range ranked {
		ids[i] = hit.id
	}

	items, err := s.fetchSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	return newPage(items, offset, limit, total), nil
}

// searchFallback is the degraded path: a case-insensitive substring scan
// over word documents, grouped exact > prefix > other with lexical ordering
// inside groups, no relevance score.
func (s *Store) searchFallback(ctx context.Context, query string, offset, limit int) (*Page[WordSummary], error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM documents WHERE doc_type = ?`, DocTypeWord)
	if err != nil {
		return nil, fmt.Errorf("failed to query word documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	needle := strings.ToLower(query)

	type fallbackHit struct {
		doc  *WordDocument
		tier int
	}

	var matched []fallbackHit
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan word payload: %w", err)
		}
		doc, err := decodeWordDocument(payload)
		if err != nil {
			return nil, err
		}

		tier, ok := fallbackTier(doc, needle)
		if !ok {
			continue
		}
		matched = append(matched, fallbackHit{doc: doc, tier: tier})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating word documents: %w", err)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].tier != matched[j].tier {
			return matched[i].tier < matched[j].tier
		}
		return strings.ToLower(matched[i].doc.Word) < strings.ToLower(matched[j].doc.Word)
	})

	total := len(matched)
	matched = pageSlice(matched, offset, limit)

	items := make([]WordSummary, len(matched))
	for i, hit := range matched {
		items[i] = summaryFromDoc(hit.doc)
	}
	return newPage(items, offset, limit, total), nil
}

// fallbackTier classifies a document against the query, mirroring the
// primary ranking without a relevance score.
func fallbackTier(doc *WordDocument, needle string) (int, bool) {
	word := strings.ToLower(doc.Word)
	if word == needle {
		return tierExact, true
	}
	if strings.HasPrefix(word, needle) {
		return tierPrefix, true
	}

	fields := []string{doc.Word, doc.OneLineDesc, doc.Details}
	fields = append(fields, doc.Tags...)
	fields = append(fields, doc.Synonyms...)
	fields = append(fields, doc.Antonyms...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return tierSubstring, true
		}
	}
	return 0, false
}

// rankTier classifies a primary-path hit; fallthrough is the tier of the
// pass that produced it.
func rankTier(word, query string, fallthroughTier int) int {
	if strings.EqualFold(word, query) {
		return tierExact
	}
	if strings.HasPrefix(strings.ToLower(word), strings.ToLower(query)) {
		return tierPrefix
	}
	return fallthroughTier
}

func sortHits(hits []*searchHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].tier != hits[j].tier {
			return hits[i].tier < hits[j].tier
		}
		if hits[i].tier == tierRelevance && hits[i].score != hits[j].score {
			return hits[i].score < hits[j].score // bm25: lower is better
		}
		return strings.ToLower(hits[i].word) < strings.ToLower(hits[j].word)
	})
}

func pageSlice[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// buildMatchExpr turns free text into an FTS5 query: each token becomes a
// quoted prefix phrase, all tokens required.
func buildMatchExpr(query string) string {
	tokens := strings.Fields(query)
	parts := make([]string, len(tokens))
	for i, token := range tokens {
		parts[i] = `"` + strings.ReplaceAll(token, `"`, `""`) + `"*`
	}
	return strings.Join(parts, " ")
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

func closeRows(rows interface{ Close() error; Err() error }) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	return rows.Close()
}

// demoteFTS flips search to the fallback path and marks the index dirty,
// so the next open rebuilds it even when its definition still matches:
// writes made while demoted never reached the index.
func (s *Store) demoteFTS(ctx context.Context, err error) {
	if !s.ftsReady.CompareAndSwap(true, false) {
		return
	}
	s.logger.Warn("full-text index unavailable, search degraded to substring fallback", "error", err)

	if _, markErr := s.db.ExecContext(ctx, `
		INSERT INTO schema_meta (key, value) VALUES (?, '1')
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, ftsDirtyKey); markErr != nil {
		s.logger.Error("failed to mark full-text index dirty", "error", markErr)
	}
}

// Index sync. These run inside the same transaction as the document
// mutation they mirror; there is no background reindex pass.

func insertFTSTx(ctx context.Context, tx queryer, doc *WordDocument) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO words_fts (word_id, word, one_line_desc, details, tags, synonyms, antonyms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Word, doc.OneLineDesc, doc.Details,
		strings.Join(doc.Tags, " "), strings.Join(doc.Synonyms, " "), strings.Join(doc.Antonyms, " "))
	if err != nil {
		return fmt.Errorf("failed to index word: %w", err)
	}
	return nil
}

func removeFTSTx(ctx context.Context, tx queryer, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM words_fts WHERE word_id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove word from index: %w", err)
	}
	return nil
}

func replaceFTSTx(ctx context.Context, tx queryer, doc *WordDocument) error {
	if err := removeFTSTx(ctx, tx, doc.ID); err != nil {
		return err
	}
	return insertFTSTx(ctx, tx, doc)
}
