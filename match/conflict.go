package match

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/amity/ai"
	"github.com/hrygo/amity/internal/profile"
	"github.com/hrygo/amity/store"
	"github.com/hrygo/amity/vectordb"
)

const (
	maxSemanticConstraints = 3
	maxSemanticPreferences = 5
)

// ConflictPair is a pair of keyword sets whose co-occurrence across a
// constraint and a preference signals incompatibility: the constraint must
// contain a negative keyword and the preference a positive keyword of the
// same pair.
type ConflictPair struct {
	Negative []string
	Positive []string
}

// DefaultConflictPairs returns the built-in conflict table.
func DefaultConflictPairs() []ConflictPair {
	return []ConflictPair{
		{
			Negative: []string{"no alcohol", "don't drink", "sober", "no drinking"},
			Positive: []string{"alcohol", "drinking", "bar", "wine", "beer"},
		},
		{
			Negative: []string{"quiet", "peaceful", "introvert", "small groups"},
			Positive: []string{"party", "loud", "club", "social events"},
		},
		{
			Negative: []string{"vegetarian", "vegan", "no meat"},
			Positive: []string{"meat", "steak", "bbq"},
		},
		{
			Negative: []string{"no smoking", "non-smoker", "don't smoke"},
			Positive: []string{"smoke", "smoking", "cigarette"},
		},
	}
}

// ConflictDetector decides whether one user's constraints semantically clash
// with another's preferences. A keyword rule pass runs first; when no rule
// fires, an embedding-similarity fallback catches avoidances that are
// near-identical in meaning to an interest.
type ConflictDetector struct {
	embedder  ai.EmbeddingService
	pairs     []ConflictPair
	threshold float64
}

// ConflictDetectorOption customizes a ConflictDetector.
type ConflictDetectorOption func(*ConflictDetector)

// WithConflictPairs replaces the built-in conflict table.
func WithConflictPairs(pairs []ConflictPair) ConflictDetectorOption {
	return func(d *ConflictDetector) { d.pairs = pairs }
}

// WithConflictThreshold sets the semantic-similarity threshold.
func WithConflictThreshold(threshold float64) ConflictDetectorOption {
	return func(d *ConflictDetector) { d.threshold = threshold }
}

// NewConflictDetector creates a detector. The embedder may be nil, in which
// case only the rule pass runs.
func NewConflictDetector(embedder ai.EmbeddingService, opts ...ConflictDetectorOption) *ConflictDetector {
	d := &ConflictDetector{
		embedder:  embedder,
		pairs:     DefaultConflictPairs(),
		threshold: profile.DefaultConflictThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HasConflict checks whether any of constraints clashes with any of
// preferences. Either list being empty means no conflict. The returned
// reason is empty when no conflict was found.
func (d *ConflictDetector) HasConflict(ctx context.Context, constraints, preferences []string) (bool, string) {
	if len(constraints) == 0 || len(preferences) == 0 {
		return false, ""
	}

	for _, constraint := range constraints {
		constraintLower := strings.ToLower(constraint)
		for _, preference := range preferences {
			preferenceLower := strings.ToLower(preference)
			for _, pair := range d.pairs {
				if containsAny(constraintLower, pair.Negative) && containsAny(preferenceLower, pair.Positive) {
					return true, fmt.Sprintf("conflict: %q vs %q", constraint, preference)
				}
			}
		}
	}

	return d.semanticConflict(ctx, constraints, preferences)
}

// semanticConflict embeds the leading constraints and preferences and flags a
// conflict when any cross-pair similarity exceeds the threshold. Any
// embedding failure degrades to "no conflict found via this path".
func (d *ConflictDetector) semanticConflict(ctx context.Context, constraints, preferences []string) (bool, string) {
	if d.embedder == nil {
		return false, ""
	}
	if len(constraints) > maxSemanticConstraints {
		constraints = constraints[:maxSemanticConstraints]
	}
	if len(preferences) > maxSemanticPreferences {
		preferences = preferences[:maxSemanticPreferences]
	}

	prefVectors := make([][]float32, len(preferences))
	for i, preference := range preferences {
		vec, err := d.embedder.Embed(ctx, preference)
		if err != nil {
			slog.Warn("semantic conflict check degraded", "error", err)
			return false, ""
		}
		prefVectors[i] = vec
	}

	for _, constraint := range constraints {
		constraintVec, err := d.embedder.Embed(ctx, constraint)
		if err != nil {
			slog.Warn("semantic conflict check degraded", "error", err)
			return false, ""
		}
		for i, prefVec := range prefVectors {
			similarity := vectordb.CosineSimilarity(constraintVec, prefVec)
			if similarity > d.threshold {
				return true, fmt.Sprintf("semantic conflict: %q vs %q (sim: %.2f)", constraint, preferences[i], similarity)
			}
		}
	}
	return false, ""
}

// MutualCompatibility is true only if neither direction conflicts: A's
// constraints against B's preferences, and B's constraints against A's
// preferences. A missing analyzed profile on either side counts as empty
// lists, which is compatible by default.
func (d *ConflictDetector) MutualCompatibility(ctx context.Context, userA, userB *store.UserProfile) bool {
	aProfile := userA.NlpProfile
	bProfile := userB.NlpProfile

	if conflict, _ := d.HasConflict(ctx, aProfile.GetConstraints(), bProfile.GetPreferences()); conflict {
		return false
	}
	if conflict, _ := d.HasConflict(ctx, bProfile.GetConstraints(), aProfile.GetPreferences()); conflict {
		return false
	}
	return true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
