package core

import "time"

// DocType discriminates document payloads in the generic document table.
// Adding a future document type needs no table migration, only a new tag.
type DocType string

const (
	// DocTypeWord tags vocabulary entries.
	DocTypeWord DocType = "word"
	// DocTypeProfileConfig tags the per-profile configuration singleton.
	DocTypeProfileConfig DocType = "profile_config"
)

// ProfileConfigID is the fixed id of the profile configuration singleton.
const ProfileConfigID = "profile-config"

// WordDocument is a vocabulary entry. ID and CreatedAt are set once at
// creation; UpdatedAt advances on every successful mutation, including
// embedding-only updates.
type WordDocument struct {
	ID          string            `json:"id"`
	Word        string            `json:"word"`
	OneLineDesc string            `json:"one_line_desc"`
	Details     string            `json:"details"`
	Tags        []string          `json:"tags"`
	TagColors   map[string]string `json:"tag_colors,omitempty"`
	Synonyms    []string          `json:"synonyms"`
	Antonyms    []string          `json:"antonyms"`
	Remark      string            `json:"remark,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// WordData carries the caller-supplied fields of a word document. The store
// owns id and timestamps.
type WordData struct {
	Word        string
	OneLineDesc string
	Details     string
	Tags        []string
	TagColors   map[string]string
	Synonyms    []string
	Antonyms    []string
	Remark      string
}

// WordPatch is a partial update for an existing word document. Nil fields
// are left untouched.
type WordPatch struct {
	Word        *string
	OneLineDesc *string
	Details     *string
	Tags        []string
	TagColors   map[string]string
	Synonyms    []string
	Antonyms    []string
	Remark      *string
}

// WordSummary holds the fields needed for list display. Listing queries
// fetch only these, never full document bodies.
type WordSummary struct {
	ID          string    `json:"id"`
	Word        string    `json:"word"`
	OneLineDesc string    `json:"one_line_desc"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileConfig is the per-profile configuration singleton. It is replaced
// wholesale on update; the storage layer never merges partial configs.
type ProfileConfig struct {
	EmbeddingEnabled    bool    `json:"embedding_enabled"`
	EmbeddingModel      string  `json:"embedding_model"`
	VectorDim           int     `json:"vector_dim"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	AIProvider          string  `json:"ai_provider,omitempty"`
	AIModel             string  `json:"ai_model,omitempty"`
}

// Embedding returns the embedding gate derived from the profile config.
func (c ProfileConfig) Embedding() EmbeddingConfig {
	return EmbeddingConfig{Enabled: c.EmbeddingEnabled, Model: c.EmbeddingModel}
}

// EmbeddingConfig gates composite operations that touch the vector index.
type EmbeddingConfig struct {
	Enabled bool
	Model   string
}

// EmbeddingRecord maps a word to its embedding vector. Its lifecycle is
// strictly subordinate to the word document it references.
type EmbeddingRecord struct {
	WordID    string    `json:"word_id"`
	Vector    []float32 `json:"vector"`
	ModelUsed string    `json:"model_used"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SemanticMatch is a single nearest-neighbor result.
type SemanticMatch struct {
	WordID     string  `json:"word_id"`
	Similarity float64 `json:"similarity"`
}

// ListOrder selects chronological listing direction.
type ListOrder string

const (
	// OrderAsc lists oldest first.
	OrderAsc ListOrder = "asc"
	// OrderDesc lists newest first.
	OrderDesc ListOrder = "desc"
)

// Page is one page of an offset/limit result set. Total is the full match
// set size, not the page size.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

func newPage[T any](items []T, offset, limit, total int) *Page[T] {
	return &Page[T]{
		Items:   items,
		Total:   total,
		HasMore: offset+limit < total,
	}
}

// RawDocument is a row of the generic document table: an opaque typed JSON
// payload plus the indexed lookup name and timestamps.
type RawDocument struct {
	ID        string
	Type      DocType
	Name      string
	Payload   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
