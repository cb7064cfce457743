package core

// Config holds store configuration.
type Config struct {
	// Path is the SQLite file backing this profile. Required.
	Path string

	// SimilarityFn scores vector pairs for semantic search. Defaults to
	// cosine similarity.
	SimilarityFn SimilarityFunc

	// SearchLimit caps the number of items a single search page may return.
	SearchLimit int

	// Logger receives store diagnostics. Defaults to a no-op logger.
	Logger Logger
}

// DefaultConfig returns the default configuration for the given path.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		SimilarityFn: CosineSimilarity,
		SearchLimit:  50,
		Logger:       NopLogger(),
	}
}
