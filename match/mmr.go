package match

import (
	"context"
	"log/slog"

	"github.com/hrygo/amity/internal/profile"
	"github.com/hrygo/amity/store"
	"github.com/hrygo/amity/vectordb"
)

// Relationship classifies a candidate's declared goal relative to the
// requester's: complementary goals are primary, identical goals under a
// bidirectional pairing are peer.
type Relationship string

const (
	RelationshipPrimary Relationship = "primary"
	RelationshipPeer    Relationship = "peer"
)

// Candidate is one pipeline-internal match candidate. It exists only for the
// duration of a single matching request.
type Candidate struct {
	UserID       string
	Relevance    float64
	Metadata     store.EmbeddingMetadata
	Relationship Relationship
	Loose        bool
}

// VectorSource resolves stored vectors by user id. A missing vector is
// (nil, nil), not an error.
type VectorSource interface {
	GetVector(ctx context.Context, userID string) ([]float32, error)
}

// MMRSelector re-ranks a candidate pool with Maximal Marginal Relevance:
// each pick balances relevance to the query user against dissimilarity to
// the already-selected results.
type MMRSelector struct {
	vectors VectorSource
	lambda  float64
}

// NewMMRSelector creates a selector. Lambda in [0,1] trades relevance
// against diversity; higher favors relevance.
func NewMMRSelector(vectors VectorSource, lambda float64) *MMRSelector {
	if lambda < 0 || lambda > 1 {
		lambda = profile.DefaultMMRLambda
	}
	return &MMRSelector{vectors: vectors, lambda: lambda}
}

// Diversity is 1 minus the maximum similarity to any already-selected
// vector. With nothing selected yet the first pick is maximally diverse.
func Diversity(candidate []float32, selected [][]float32) float64 {
	if len(selected) == 0 {
		return 1.0
	}
	maxSimilarity := -1.0
	for _, s := range selected {
		if sim := vectordb.CosineSimilarity(candidate, s); sim > maxSimilarity {
			maxSimilarity = sim
		}
	}
	return 1.0 - maxSimilarity
}

// SelectDiverse greedily picks topN candidates maximizing
// lambda*relevance + (1-lambda)*diversity. Ties go to the first candidate
// encountered, so input order is the deterministic tie-break. Candidates
// whose vector cannot be resolved are silently dropped.
func (s *MMRSelector) SelectDiverse(ctx context.Context, queryUserID string, candidates []Candidate, topN int) []Candidate {
	if len(candidates) <= topN {
		return candidates
	}

	queryVector, err := s.vectors.GetVector(ctx, queryUserID)
	if err != nil || queryVector == nil {
		if err != nil {
			slog.Warn("mmr selection degraded to relevance order", "user", queryUserID, "error", err)
		}
		return candidates[:topN]
	}

	type scored struct {
		candidate Candidate
		vector    []float32
	}
	remaining := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		vector, err := s.vectors.GetVector(ctx, candidate.UserID)
		if err != nil || vector == nil {
			continue
		}
		remaining = append(remaining, scored{candidate: candidate, vector: vector})
	}

	selected := make([]Candidate, 0, topN)
	selectedVectors := make([][]float32, 0, topN)
	rounds := topN
	if len(remaining) < rounds {
		rounds = len(remaining)
	}
	for round := 0; round < rounds; round++ {
		bestScore := -1.0
		bestIdx := -1
		for idx, entry := range remaining {
			score := s.lambda*entry.candidate.Relevance + (1-s.lambda)*Diversity(entry.vector, selectedVectors)
			if score > bestScore {
				bestScore = score
				bestIdx = idx
			}
		}
		if bestIdx < 0 {
			break
		}
		selected = append(selected, remaining[bestIdx].candidate)
		selectedVectors = append(selectedVectors, remaining[bestIdx].vector)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}
