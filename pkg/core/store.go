package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store is one profile's embedded vocabulary store: a typed JSON document
// table, a full-text index and a vector index, all inside a single SQLite
// file. A Store value is safe for concurrent use; the engine serializes
// writes while reads interleave freely.
type Store struct {
	db           *sql.DB
	config       Config
	logger       Logger
	similarityFn SimilarityFunc
	mu           sync.RWMutex
	closed       bool
	ftsReady     atomic.Bool
}

// New creates a store for the SQLite file at path with default configuration.
// Call Init before use.
func New(path string) (*Store, error) {
	return NewWithConfig(DefaultConfig(path))
}

// NewWithConfig creates a store with custom configuration. Call Init before use.
func NewWithConfig(config Config) (*Store, error) {
	if config.Path == "" {
		return nil, wrapError("init", fmt.Errorf("database path cannot be empty"))
	}

	if config.SimilarityFn == nil {
		config.SimilarityFn = CosineSimilarity
	}
	if config.SearchLimit <= 0 {
		config.SearchLimit = DefaultConfig(config.Path).SearchLimit
	}
	if config.Logger == nil {
		config.Logger = NopLogger()
	}

	return &Store{
		config:       config,
		logger:       config.Logger,
		similarityFn: config.SimilarityFn,
	}, nil
}

// Init opens the database, applies pending schema migrations and brings the
// full-text index up to date. Safe to call on every open; a full-text index
// failure degrades search to the substring fallback instead of failing Init.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return wrapError("init", ErrStoreClosed)
	}
	if s.db != nil {
		return nil
	}

	// journal_mode=WAL: single writer, concurrent readers
	// busy_timeout=5000: wait up to 5s for the write lock instead of failing
	// foreign_keys=1: required for the word_vectors cascade
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", s.config.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return wrapError("init", fmt.Errorf("failed to open database: %w", err))
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(2 * time.Hour)

	s.db = db

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		s.db = nil
		return wrapError("init", err)
	}

	s.ensureFTS(ctx)

	return nil
}

// Close closes the store. In-flight operations complete before the handle
// shuts down; subsequent calls return ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	if err != nil {
		return wrapError("close", err)
	}
	return nil
}

// Path returns the SQLite file backing this store.
func (s *Store) Path() string {
	return s.config.Path
}

// FTSAvailable reports whether search is currently served by the full-text
// index rather than the substring fallback.
func (s *Store) FTSAvailable() bool {
	return s.ftsReady.Load()
}

// guard validates the handle state. Callers hold s.mu.
func (s *Store) guard(op string) error {
	if s.closed {
		return wrapError(op, ErrStoreClosed)
	}
	if s.db == nil {
		return wrapError(op, ErrNotInitialized)
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on any error. Domain
// errors (not found, validation, configuration) pass through unchanged;
// anything else reports as a transaction failure.
func (s *Store) withTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapError(op, fmt.Errorf("failed to begin transaction: %w", err))
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("failed to rollback transaction", "op", op, "error", rbErr)
		}
		if isDomainError(err) {
			return wrapError(op, err)
		}
		return wrapError(op, fmt.Errorf("%w: %v", ErrTxFailed, err))
	}

	if err := tx.Commit(); err != nil {
		return wrapError(op, fmt.Errorf("%w: commit: %v", ErrTxFailed, err))
	}
	return nil
}

// isDomainError reports whether err should reach the caller as-is instead of
// being reclassified as a transaction failure.
func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrEmptyWord) ||
		errors.Is(err, ErrInvalidVector) ||
		errors.Is(err, ErrEmbeddingDisabled) ||
		errors.Is(err, ErrCorruptPayload) ||
		errors.Is(err, errFTSWrite)
}

// ValidateStoreFile reports whether the file at path is a usable profile
// store: a SQLite database containing the required tables. Used before
// accepting an externally supplied file (import, restore) as a profile.
func ValidateStoreFile(path string) bool {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return false
	}
	defer func() { _ = db.Close() }()

	for _, table := range []string{"documents", "word_vectors", "schema_meta"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			return false
		}
	}
	return true
}
