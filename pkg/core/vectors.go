package core

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/wordvault/wordvault/internal/encoding"
)

// The vector index: one embedding record per word, keyed by word id with a
// foreign-key cascade so no record outlives its document.

// UpsertEmbedding replaces the embedding for a word, bumping the document's
// updated_at in the same transaction. Returns ErrNotFound when the word
// does not exist and ErrEmbeddingDisabled when cfg does not allow
// embeddings.
func (s *Store) UpsertEmbedding(ctx context.Context, wordID string, vector []float32, cfg EmbeddingConfig) error {
	const op = "upsert_embedding"

	if !cfg.Enabled || cfg.Model == "" {
		return wrapError(op, ErrEmbeddingDisabled)
	}
	if err := encoding.ValidateVector(vector); err != nil {
		return wrapError(op, ErrInvalidVector)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(op); err != nil {
		return err
	}

	return s.withTx(ctx, op, func(tx *sql.Tx) error {
		raw, err := getDocument(ctx, tx, wordID, DocTypeWord)
		if err != nil {
			return err
		}
		doc, err := decodeWordDocument(raw.Payload)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := upsertEmbeddingTx(ctx, tx, wordID, vector, cfg.Model, now); err != nil {
			return err
		}

		// An embedding-only update still advances the document clock.
		doc.UpdatedAt = now
		return storeWordTx(ctx, tx, doc)
	})
}

// DeleteEmbedding removes the embedding for a word. A missing record is a
// no-op, not an error: a word may legitimately have no embedding.
func (s *Store) DeleteEmbedding(ctx context.Context, wordID string) error {
	const op = "delete_embedding"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(op); err != nil {
		return err
	}

	return s.withTx(ctx, op, func(tx *sql.Tx) error {
		return deleteEmbeddingTx(ctx, tx, wordID)
	})
}

// GetEmbedding returns the embedding record for a word, or ErrNotFound.
func (s *Store) GetEmbedding(ctx context.Context, wordID string) (*EmbeddingRecord, error) {
	const op = "get_embedding"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(op); err != nil {
		return nil, err
	}

	var blob []byte
	var record EmbeddingRecord
	var updatedAt int64

	err := s.db.QueryRowContext(ctx, `
		SELECT word_id, vector, model_used, updated_at FROM word_vectors WHERE word_id = ?
	`, wordID).Scan(&record.WordID, &blob, &record.ModelUsed, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, wrapError(op, ErrNotFound)
	}
	if err != nil {
		return nil, wrapError(op, fmt.Errorf("failed to query embedding: %w", err))
	}

	record.Vector, err = encoding.DecodeVector(blob)
	if err != nil {
		return nil, wrapError(op, fmt.Errorf("%w: %v", ErrCorruptPayload, err))
	}
	record.UpdatedAt = fromMillis(updatedAt)
	return &record, nil
}

// EmbeddingCount returns the number of embedding records in the store.
func (s *Store) EmbeddingCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard("embedding_count"); err != nil {
		return 0, err
	}

	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM word_vectors`).Scan(&total)
	if err != nil {
		return 0, wrapError("embedding_count", fmt.Errorf("failed to count embeddings: %w", err))
	}
	return total, nil
}

// SemanticSearch returns the top-k words nearest to the query vector,
// scored by the configured similarity function and filtered by threshold.
func (s *Store) SemanticSearch(ctx context.Context, query []float32, k int, threshold float64) ([]SemanticMatch, error) {
	const op = "semantic_search"

	if err := encoding.ValidateVector(query); err != nil {
		return nil, wrapError(op, ErrInvalidVector)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(op); err != nil {
		return nil, err
	}

	if k <= 0 {
		k = 10
	}

	rows, err := s.db.QueryContext(ctx, `SELECT word_id, vector FROM word_vectors`)
	if err != nil {
		return nil, wrapError(op, fmt.Errorf("failed to query embeddings: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var matches []SemanticMatch
	for rows.Next() {
		var wordID string
		var blob []byte
		if err := rows.Scan(&wordID, &blob); err != nil {
			return nil, wrapError(op, fmt.Errorf("failed to scan embedding: %w", err))
		}

		vector, err := encoding.DecodeVector(blob)
		if err != nil {
			return nil, wrapError(op, fmt.Errorf("%w: %v", ErrCorruptPayload, err))
		}

		similarity := s.similarityFn(query, vector)
		if similarity < threshold {
			continue
		}
		matches = append(matches, SemanticMatch{WordID: wordID, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(op, fmt.Errorf("error iterating embeddings: %w", err))
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func upsertEmbeddingTx(ctx context.Context, tx queryer, wordID string, vector []float32, model string, now time.Time) error {
	blob, err := encoding.EncodeVector(vector)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVector, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO word_vectors (word_id, vector, model_used, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(word_id) DO UPDATE SET
			vector = excluded.vector,
			model_used = excluded.model_used,
			updated_at = excluded.updated_at
	`, wordID, blob, model, now.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

func deleteEmbeddingTx(ctx context.Context, tx queryer, wordID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM word_vectors WHERE word_id = ?`, wordID); err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	return nil
}
