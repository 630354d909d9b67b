package store

import (
	"github.com/pkg/errors"
)

// EmbeddingDimensions is the fixed vector dimensionality for user embeddings.
// all-MiniLM-L6-v2 class models produce 384-dimensional vectors.
const EmbeddingDimensions = 384

const (
	maxMetadataPreferences = 5
	maxMetadataConstraints = 3
)

// EmbeddingMetadata is the lightweight snapshot stored alongside a vector so
// that retrieval results carry enough context without a user-table lookup.
type EmbeddingMetadata struct {
	Summary     string   `json:"summary"`
	TopCategory string   `json:"top_category"`
	LastUpdated string   `json:"last_updated"`
	Preferences []string `json:"preferences"`
	Constraints []string `json:"constraints"`
}

// UserEmbedding is one embedding record. Records are replaced whole on every
// profile re-analysis, never partially updated.
type UserEmbedding struct {
	UserID    string            `json:"user_id"`
	Embedding []float32         `json:"embedding"`
	Metadata  EmbeddingMetadata `json:"metadata"`
	UpdatedTs int64             `json:"updated_ts"`
}

// Validate checks the record before it reaches a driver.
func (e *UserEmbedding) Validate() error {
	if e.UserID == "" {
		return errors.New("user id cannot be empty")
	}
	if len(e.Embedding) != EmbeddingDimensions {
		return errors.Errorf("invalid vector dimension: got %d, want %d", len(e.Embedding), EmbeddingDimensions)
	}
	return nil
}

// Truncate caps the metadata lists to the stored snapshot sizes:
// first 5 preferences and first 3 constraints.
func (m *EmbeddingMetadata) Truncate() {
	if len(m.Preferences) > maxMetadataPreferences {
		m.Preferences = m.Preferences[:maxMetadataPreferences]
	}
	if len(m.Constraints) > maxMetadataConstraints {
		m.Constraints = m.Constraints[:maxMetadataConstraints]
	}
}

// FindUserEmbedding holds filters for listing embeddings.
type FindUserEmbedding struct {
	UserID *string
}
