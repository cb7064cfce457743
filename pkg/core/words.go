package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wordvault/wordvault/internal/encoding"
)

// Word operations. Every mutation here is a composite operation: the
// document row, the full-text index and (when requested) the vector index
// move inside one transaction, so a partial failure leaves the store as if
// the operation never ran.

// AddOrUpdateWord inserts a word document, or updates the existing one when
// a document with the same word already exists (preserving its id and
// created_at). No vector index involvement.
func (s *Store) AddOrUpdateWord(ctx context.Context, data WordData) (*WordDocument, error) {
	return s.addOrUpdateWord(ctx, "add_or_update_word", data, nil, "")
}

// AddOrUpdateWordWithEmbedding performs the word upsert and the embedding
// upsert as one atomic unit. Fails fast, before any mutation, when the
// embedding config is disabled or the vector is empty or non-finite.
func (s *Store) AddOrUpdateWordWithEmbedding(ctx context.Context, data WordData, vector []float32, cfg EmbeddingConfig) (*WordDocument, error) {
	const op = "add_or_update_word_with_embedding"

	if !cfg.Enabled || cfg.Model == "" {
		return nil, wrapError(op, ErrEmbeddingDisabled)
	}
	if err := encoding.ValidateVector(vector); err != nil {
		return nil, wrapError(op, ErrInvalidVector)
	}

	return s.addOrUpdateWord(ctx, op, data, vector, cfg.Model)
}

func (s *Store) addOrUpdateWord(ctx context.Context, op string, data WordData, vector []float32, model string) (*WordDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(op); err != nil {
		return nil, err
	}
	if strings.TrimSpace(data.Word) == "" {
		return nil, wrapError(op, ErrEmptyWord)
	}

	var doc *WordDocument
	run := func(withFTS bool) error {
		return s.withTx(ctx, op, func(tx *sql.Tx) error {
			d, err := upsertWordTx(ctx, tx, data, time.Now())
			if err != nil {
				return err
			}
			if withFTS {
				if err := replaceFTSTx(ctx, tx, d); err != nil {
					return fmt.Errorf("%w: %v", errFTSWrite, err)
				}
			}
			if vector != nil {
				if err := upsertEmbeddingTx(ctx, tx, d.ID, vector, model, d.UpdatedAt); err != nil {
					return err
				}
			}
			doc = d
			return nil
		})
	}

	err := run(s.ftsReady.Load())
	if err != nil && errors.Is(err, errFTSWrite) {
		s.demoteFTS(ctx, err)
		err = run(false)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateWord merges the patch into the existing word document and bumps
// updated_at. Returns ErrNotFound when the id does not exist.
func (s *Store) UpdateWord(ctx context.Context, id string, patch WordPatch) (*WordDocument, error) {
	const op = "update_word"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(op); err != nil {
		return nil, err
	}

	var doc *WordDocument
	run := func(withFTS bool) error {
		return s.withTx(ctx, op, func(tx *sql.Tx) error {
			raw, err := getDocument(ctx, tx, id, DocTypeWord)
			if err != nil {
				return err
			}
			d, err := decodeWordDocument(raw.Payload)
			if err != nil {
				return err
			}

			applyPatch(d, patch)
			if strings.TrimSpace(d.Word) == "" {
				return ErrEmptyWord
			}
			d.TagColors = normalizeTagColors(d.Tags, d.TagColors)
			d.UpdatedAt = time.Now()

			if err := storeWordTx(ctx, tx, d); err != nil {
				return err
			}
			if withFTS {
				if err := replaceFTSTx(ctx, tx, d); err != nil {
					return fmt.Errorf("%w: %v", errFTSWrite, err)
				}
			}
			doc = d
			return nil
		})
	}

	err := run(s.ftsReady.Load())
	if err != nil && errors.Is(err, errFTSWrite) {
		s.demoteFTS(ctx, err)
		err = run(false)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteWord removes a word document. Returns false, not an error, when the
// id does not exist. The embedding row, if any, goes with it via the
// foreign-key cascade, so no orphan records survive.
func (s *Store) DeleteWord(ctx context.Context, id string) (bool, error) {
	const op = "delete_word"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(op); err != nil {
		return false, err
	}

	var deleted bool
	run := func(withFTS bool) error {
		return s.withTx(ctx, op, func(tx *sql.Tx) error {
			var err error
			deleted, err = deleteDocumentTx(ctx, tx, id, DocTypeWord)
			if err != nil {
				return err
			}
			if deleted && withFTS {
				if err := removeFTSTx(ctx, tx, id); err != nil {
					return fmt.Errorf("%w: %v", errFTSWrite, err)
				}
			}
			return nil
		})
	}

	err := run(s.ftsReady.Load())
	if err != nil && errors.Is(err, errFTSWrite) {
		s.demoteFTS(ctx, err)
		err = run(false)
	}
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// DeleteWordWithEmbeddingCleanup removes a word document together with its
// embedding record. Returns the deleted document, or ErrNotFound when the
// id does not exist; in that case no embedding mutation occurs. Document
// delete, index removal and embedding delete commit together or not at all
// — an embedding cleanup failure rolls back the document delete rather
// than being swallowed.
func (s *Store) DeleteWordWithEmbeddingCleanup(ctx context.Context, id string) (*WordDocument, error) {
	const op = "delete_word_with_embedding_cleanup"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(op); err != nil {
		return nil, err
	}

	var doc *WordDocument
	run := func(withFTS bool) error {
		return s.withTx(ctx, op, func(tx *sql.Tx) error {
			raw, err := getDocument(ctx, tx, id, DocTypeWord)
			if err != nil {
				return err
			}
			d, err := decodeWordDocument(raw.Payload)
			if err != nil {
				return err
			}

			if err := deleteEmbeddingTx(ctx, tx, id); err != nil {
				return err
			}
			if _, err := deleteDocumentTx(ctx, tx, id, DocTypeWord); err != nil {
				return err
			}
			if withFTS {
				if err := removeFTSTx(ctx, tx, id); err != nil {
					return fmt.Errorf("%w: %v", errFTSWrite, err)
				}
			}
			doc = d
			return nil
		})
	}

	err := run(s.ftsReady.Load())
	if err != nil && errors.Is(err, errFTSWrite) {
		s.demoteFTS(ctx, err)
		err = run(false)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetWord returns the full word document, or ErrNotFound.
func (s *Store) GetWord(ctx context.Context, id string) (*WordDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard("get_word"); err != nil {
		return nil, err
	}

	raw, err := getDocument(ctx, s.db, id, DocTypeWord)
	if err != nil {
		return nil, wrapError("get_word", err)
	}

	doc, err := decodeWordDocument(raw.Payload)
	if err != nil {
		return nil, wrapError("get_word", err)
	}
	return doc, nil
}

// GetWordByName returns the word document whose word matches exactly
// (case-sensitive), or ErrNotFound.
func (s *Store) GetWordByName(ctx context.Context, word string) (*WordDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard("get_word_by_name"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT payload FROM documents WHERE doc_type = ? AND name = ?
	`, DocTypeWord, word)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, wrapError("get_word_by_name", ErrNotFound)
	}
	if err != nil {
		return nil, wrapError("get_word_by_name", fmt.Errorf("failed to scan document: %w", err))
	}

	doc, err := decodeWordDocument(payload)
	if err != nil {
		return nil, wrapError("get_word_by_name", err)
	}
	return doc, nil
}

// upsertWordTx routes to update semantics when a document with the same
// word already exists: the id and created_at survive, everything else is
// replaced.
func upsertWordTx(ctx context.Context, tx *sql.Tx, data WordData, now time.Time) (*WordDocument, error) {
	doc := &WordDocument{
		ID:          uuid.NewString(),
		Word:        data.Word,
		OneLineDesc: data.OneLineDesc,
		Details:     data.Details,
		Tags:        data.Tags,
		TagColors:   normalizeTagColors(data.Tags, data.TagColors),
		Synonyms:    data.Synonyms,
		Antonyms:    data.Antonyms,
		Remark:      data.Remark,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	existing, err := getDocumentByNameTx(ctx, tx, DocTypeWord, data.Word)
	if err == nil {
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := storeWordTx(ctx, tx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func storeWordTx(ctx context.Context, tx *sql.Tx, doc *WordDocument) error {
	payload, err := encoding.EncodePayload(doc)
	if err != nil {
		return err
	}

	var nameVal sql.NullString
	if doc.Word != "" {
		nameVal = sql.NullString{String: doc.Word, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, doc_type, name, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, doc.ID, DocTypeWord, nameVal, payload, doc.CreatedAt.UnixMilli(), doc.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store word document: %w", err)
	}
	return nil
}

func applyPatch(doc *WordDocument, patch WordPatch) {
	if patch.Word != nil {
		doc.Word = *patch.Word
	}
	if patch.OneLineDesc != nil {
		doc.OneLineDesc = *patch.OneLineDesc
	}
	if patch.Details != nil {
		doc.Details = *patch.Details
	}
	if patch.Tags != nil {
		doc.Tags = patch.Tags
	}
	if patch.TagColors != nil {
		doc.TagColors = patch.TagColors
	}
	if patch.Synonyms != nil {
		doc.Synonyms = patch.Synonyms
	}
	if patch.Antonyms != nil {
		doc.Antonyms = patch.Antonyms
	}
	if patch.Remark != nil {
		doc.Remark = *patch.Remark
	}
}

// normalizeTagColors drops color entries whose tag is not present in tags.
// Missing colors are left to the caller.
func normalizeTagColors(tags []string, colors map[string]string) map[string]string {
	if len(colors) == 0 {
		return nil
	}

	known := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		known[tag] = struct{}{}
	}

	normalized := make(map[string]string, len(colors))
	for tag, color := range colors {
		if _, ok := known[tag]; ok {
			normalized[tag] = color
		}
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}

func decodeWordDocument(payload string) (*WordDocument, error) {
	var doc WordDocument
	if err := encoding.DecodePayload(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return &doc, nil
}
