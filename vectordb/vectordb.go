// Package vectordb maps user profiles into fixed-length embedding vectors
// and answers nearest-neighbor queries over the stored collection by cosine
// similarity.
package vectordb

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/amity/ai"
	"github.com/hrygo/amity/store"
)

const (
	maxProfilePreferences = 5
	maxProfileInterests   = 5
)

// CosineSimilarity returns dot(a,b) / (norm(a)*norm(b)).
// A zero-norm vector yields similarity 0 rather than NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// BuildProfileText concatenates the user's profile into the text that gets
// embedded. Section order and separators are fixed; empty sections are
// omitted. Identical inputs always yield identical text.
func BuildProfileText(user *store.UserProfile, nlp *store.NlpProfile) string {
	parts := []string{}

	if nlp != nil {
		if nlp.Summary != "" {
			parts = append(parts, nlp.Summary)
		}
		if len(nlp.Preferences) > 0 {
			prefs := nlp.Preferences
			if len(prefs) > maxProfilePreferences {
				prefs = prefs[:maxProfilePreferences]
			}
			parts = append(parts, "Interested in: "+strings.Join(prefs, " "))
		}
		if len(nlp.ExtractedInterests) > 0 {
			interests := nlp.ExtractedInterests
			if len(interests) > maxProfileInterests {
				interests = interests[:maxProfileInterests]
			}
			parts = append(parts, "Topics: "+strings.Join(interests, " "))
		}
		if len(nlp.PersonalityTraits) > 0 {
			parts = append(parts, "Personality: "+strings.Join(nlp.PersonalityTraits, " "))
		}
	}

	if user.Country != "" || user.Location != "" {
		parts = append(parts, "From "+user.Country+" in "+user.Location)
	}
	if user.Status != "" {
		parts = append(parts, "Status: "+user.Status)
	}
	if user.TopCategory != "" {
		parts = append(parts, "Main need: "+strings.ReplaceAll(user.TopCategory, "_", " "))
	}

	return strings.Join(parts, ". ")
}

// SearchResult is one nearest-neighbor hit.
type SearchResult struct {
	UserID     string
	Similarity float64
	Metadata   store.EmbeddingMetadata
}

// Index is the embedding store facade: it owns profile-text construction,
// embedding calls, and similarity queries over the persisted collection.
type Index struct {
	store    *store.Store
	embedder ai.EmbeddingService
}

// NewIndex creates an Index over the given store and embedding service.
func NewIndex(s *store.Store, embedder ai.EmbeddingService) *Index {
	return &Index{store: s, embedder: embedder}
}

// Upsert computes the profile text, embeds it, and atomically replaces any
// existing record for the user with the new vector and metadata snapshot.
func (i *Index) Upsert(ctx context.Context, user *store.UserProfile, nlp *store.NlpProfile) error {
	text := BuildProfileText(user, nlp)
	vector, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return errors.Wrapf(err, "failed to embed profile for user %s", user.ID)
	}

	embedding := &store.UserEmbedding{
		UserID:    user.ID,
		Embedding: vector,
		Metadata: store.EmbeddingMetadata{
			Summary:     nlpSummary(nlp),
			TopCategory: user.TopCategory,
			Preferences: nlp.GetPreferences(),
			Constraints: nlp.GetConstraints(),
			LastUpdated: time.Now().UTC().Format(time.RFC3339),
		},
	}
	if _, err := i.store.UpsertUserEmbedding(ctx, embedding); err != nil {
		return errors.Wrapf(err, "failed to store embedding for user %s", user.ID)
	}
	slog.Debug("upserted user embedding", "user", user.ID, "text_len", len(text))
	return nil
}

// GetVector returns the stored vector for a user, or nil when absent.
func (i *Index) GetVector(ctx context.Context, userID string) ([]float32, error) {
	embedding, err := i.store.GetUserEmbedding(ctx, userID)
	if err != nil {
		return nil, err
	}
	if embedding == nil {
		return nil, nil
	}
	return embedding.Embedding, nil
}

// Search returns up to topK stored users ordered by descending cosine
// similarity to the query user. An unknown query user yields an empty
// result, never an error.
func (i *Index) Search(ctx context.Context, userID string, topK int, excludeSelf bool) ([]SearchResult, error) {
	query, err := i.store.GetUserEmbedding(ctx, userID)
	if err != nil {
		return nil, err
	}
	if query == nil {
		return []SearchResult{}, nil
	}

	all, err := i.store.ListUserEmbeddings(ctx, &store.FindUserEmbedding{})
	if err != nil {
		return nil, err
	}

	results := []SearchResult{}
	for _, candidate := range all {
		if excludeSelf && candidate.UserID == userID {
			continue
		}
		results = append(results, SearchResult{
			UserID:     candidate.UserID,
			Similarity: CosineSimilarity(query.Embedding, candidate.Embedding),
			Metadata:   candidate.Metadata,
		})
	}

	// Stable sort keeps listing order as the tie-break.
	sort.SliceStable(results, func(a, b int) bool { return results[a].Similarity > results[b].Similarity })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Rebuild re-embeds every user that has a completed assessment. Useful after
// bulk imports or an embedding model change.
func (i *Index) Rebuild(ctx context.Context, users []*store.UserProfile) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	count := 0
	for _, user := range users {
		if !user.AssessmentCompleted || user.NlpProfile == nil {
			continue
		}
		count++
		user := user
		g.Go(func() error {
			return i.Upsert(gctx, user, user.NlpProfile)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("rebuilt embedding index", "users", count)
	return nil
}

// Stats describes the current state of the index.
type Stats struct {
	TotalUsers int `json:"total_users"`
	Dimensions int `json:"embedding_dimension"`
}

func (i *Index) Stats(ctx context.Context) (*Stats, error) {
	all, err := i.store.ListUserEmbeddings(ctx, &store.FindUserEmbedding{})
	if err != nil {
		return nil, err
	}
	return &Stats{TotalUsers: len(all), Dimensions: i.embedder.Dimensions()}, nil
}

func nlpSummary(nlp *store.NlpProfile) string {
	if nlp == nil {
		return ""
	}
	return nlp.Summary
}
