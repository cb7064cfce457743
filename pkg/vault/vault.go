// Package vault is the application-facing surface of the vocabulary store:
// it owns per-profile store handles and exposes the word, search and
// configuration operations the surrounding application calls.
package vault

import (
	"context"

	"github.com/wordvault/wordvault/pkg/core"
)

// DB is one open profile store.
type DB struct {
	store *core.Store
}

// Option configures an opened profile store.
type Option func(*core.Config)

// WithLogger routes store diagnostics to the given logger.
func WithLogger(logger core.Logger) Option {
	return func(cfg *core.Config) { cfg.Logger = logger }
}

// WithSimilarityFunc overrides the similarity metric for semantic search.
func WithSimilarityFunc(fn core.SimilarityFunc) Option {
	return func(cfg *core.Config) { cfg.SimilarityFn = fn }
}

// WithSearchLimit caps the page size of lexical search results.
func WithSearchLimit(limit int) Option {
	return func(cfg *core.Config) { cfg.SearchLimit = limit }
}

// Open opens (creating if needed) the profile store at path and brings its
// schema and indexes up to date.
func Open(ctx context.Context, path string, opts ...Option) (*DB, error) {
	cfg := core.DefaultConfig(path)
	for _, opt := range opts {
		opt(&cfg)
	}

	store, err := core.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}

	return &DB{store: store}, nil
}

// Close closes the profile store. In-flight operations complete first.
func (db *DB) Close() error {
	return db.store.Close()
}

// Store exposes the underlying store for advanced callers.
func (db *DB) Store() *core.Store {
	return db.store
}

// Path returns the SQLite file backing this profile.
func (db *DB) Path() string {
	return db.store.Path()
}

// AddOrUpdateWord upserts a word by name: an existing word keeps its id and
// created_at and gets its fields replaced.
func (db *DB) AddOrUpdateWord(ctx context.Context, data core.WordData) (*core.WordDocument, error) {
	return db.store.AddOrUpdateWord(ctx, data)
}

// AddOrUpdateWordWithEmbedding upserts a word together with its embedding
// as one atomic unit, gated by the profile's embedding configuration.
func (db *DB) AddOrUpdateWordWithEmbedding(ctx context.Context, data core.WordData, vector []float32) (*core.WordDocument, error) {
	cfg := db.embeddingConfig(ctx)
	return db.store.AddOrUpdateWordWithEmbedding(ctx, data, vector, cfg)
}

// UpdateWord merges partial fields into the word with the given id.
func (db *DB) UpdateWord(ctx context.Context, id string, patch core.WordPatch) (*core.WordDocument, error) {
	return db.store.UpdateWord(ctx, id, patch)
}

// DeleteWord removes a word; false means the id did not exist.
func (db *DB) DeleteWord(ctx context.Context, id string) (bool, error) {
	return db.store.DeleteWord(ctx, id)
}

// DeleteWordWithEmbeddingCleanup removes a word and its embedding
// atomically, returning the deleted document or ErrNotFound.
func (db *DB) DeleteWordWithEmbeddingCleanup(ctx context.Context, id string) (*core.WordDocument, error) {
	return db.store.DeleteWordWithEmbeddingCleanup(ctx, id)
}

// GetWord returns the full word document by id.
func (db *DB) GetWord(ctx context.Context, id string) (*core.WordDocument, error) {
	return db.store.GetWord(ctx, id)
}

// GetWordByName returns the full word document by exact word.
func (db *DB) GetWordByName(ctx context.Context, word string) (*core.WordDocument, error) {
	return db.store.GetWordByName(ctx, word)
}

// ListWordsPaginated returns one page of word summaries in chronological
// order.
func (db *DB) ListWordsPaginated(ctx context.Context, offset, limit int, order core.ListOrder) (*core.Page[core.WordSummary], error) {
	return db.store.ListWords(ctx, offset, limit, order)
}

// SearchWords performs ranked lexical search, serving from the full-text
// index with a transparent substring fallback.
func (db *DB) SearchWords(ctx context.Context, query string, offset, limit int) (*core.Page[core.WordSummary], error) {
	return db.store.SearchWords(ctx, query, offset, limit)
}

// SemanticSearch returns the top-k nearest words to the query vector using
// the profile's similarity threshold. Requires embeddings to be enabled for
// the profile.
func (db *DB) SemanticSearch(ctx context.Context, query []float32, k int) ([]core.SemanticMatch, error) {
	cfg, err := db.GetProfileConfig(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.EmbeddingEnabled {
		return nil, core.ErrEmbeddingDisabled
	}
	return db.store.SemanticSearch(ctx, query, k, cfg.SimilarityThreshold)
}

// UpsertEmbedding replaces a word's embedding, gated by the profile's
// embedding configuration.
func (db *DB) UpsertEmbedding(ctx context.Context, wordID string, vector []float32) error {
	return db.store.UpsertEmbedding(ctx, wordID, vector, db.embeddingConfig(ctx))
}

// DeleteEmbedding removes a word's embedding; missing records are a no-op.
func (db *DB) DeleteEmbedding(ctx context.Context, wordID string) error {
	return db.store.DeleteEmbedding(ctx, wordID)
}

// GetProfileConfig returns the profile configuration, or core.ErrNotFound
// when the profile has not been configured yet.
func (db *DB) GetProfileConfig(ctx context.Context) (*core.ProfileConfig, error) {
	return db.store.GetProfileConfig(ctx)
}

// SetProfileConfig replaces the profile configuration wholesale.
func (db *DB) SetProfileConfig(ctx context.Context, cfg core.ProfileConfig) error {
	return db.store.SetProfileConfig(ctx, cfg)
}

// embeddingConfig derives the embedding gate from the stored profile
// config. An unconfigured profile yields a disabled gate; the store rejects
// the operation with a configuration error before any mutation.
func (db *DB) embeddingConfig(ctx context.Context) core.EmbeddingConfig {
	cfg, err := db.store.GetProfileConfig(ctx)
	if err != nil {
		return core.EmbeddingConfig{}
	}
	return cfg.Embedding()
}

// ValidateStoreFile reports whether the file at path is a usable profile
// store.
func ValidateStoreFile(path string) bool {
	return core.ValidateStoreFile(path)
}
