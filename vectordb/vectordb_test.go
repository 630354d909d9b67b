package vectordb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/amity/internal/profile"
	"github.com/hrygo/amity/store"
	"github.com/hrygo/amity/store/db/jsonfile"
)

// stubEmbedder returns canned vectors per text, falling back to a fixed
// vector so any text embeds without a network call.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return pad(1, 0, 0), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return store.EmbeddingDimensions }

// pad builds a 384-dimensional vector from a 3-dimensional prefix.
func pad(x, y, z float32) []float32 {
	v := make([]float32, store.EmbeddingDimensions)
	v[0], v[1], v[2] = x, y, z
	return v
}

func newTestIndex(t *testing.T, embedder *stubEmbedder) (*Index, *store.Store) {
	t.Helper()
	p := &profile.Profile{Mode: "dev", Driver: "jsonfile", DSN: filepath.Join(t.TempDir(), "amity.json")}
	driver, err := jsonfile.NewDB(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	return NewIndex(s, embedder), s
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", pad(1, 2, 3), pad(1, 2, 3), 1.0},
		{"opposite vectors", pad(1, 0, 0), pad(-1, 0, 0), -1.0},
		{"orthogonal vectors", pad(1, 0, 0), pad(0, 1, 0), 0.0},
		{"zero norm left", make([]float32, store.EmbeddingDimensions), pad(1, 2, 3), 0.0},
		{"zero norm right", pad(1, 2, 3), make([]float32, store.EmbeddingDimensions), 0.0},
		{"empty vectors", nil, nil, 0.0},
		{"length mismatch", []float32{1, 2}, []float32{1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-6)
			assert.False(t, got < -1.0001 || got > 1.0001, "similarity out of [-1,1]: %v", got)
		})
	}
}

func TestBuildProfileText_AllSections(t *testing.T) {
	user := &store.UserProfile{
		Country:     "Estonia",
		Location:    "Tallinn",
		Status:      "student",
		TopCategory: "legal_support",
	}
	nlp := &store.NlpProfile{
		Summary:            "Friendly newcomer looking for hiking buddies",
		Preferences:        []string{"hiking", "board games", "cooking", "museums", "cycling", "swimming"},
		ExtractedInterests: []string{"outdoors", "strategy"},
		PersonalityTraits:  []string{"open", "curious"},
	}

	want := "Friendly newcomer looking for hiking buddies. " +
		"Interested in: hiking board games cooking museums cycling. " +
		"Topics: outdoors strategy. " +
		"Personality: open curious. " +
		"From Estonia in Tallinn. " +
		"Status: student. " +
		"Main need: legal support"

	got := BuildProfileText(user, nlp)
	assert.Equal(t, want, got)

	// Determinism: identical inputs yield identical text.
	assert.Equal(t, got, BuildProfileText(user, nlp))
}

func TestBuildProfileText_MissingSectionsOmitted(t *testing.T) {
	user := &store.UserProfile{Country: "Spain"}
	got := BuildProfileText(user, nil)
	assert.Equal(t, "From Spain in ", got)

	assert.Equal(t, "", BuildProfileText(&store.UserProfile{}, nil))
	assert.Equal(t, "Status: working", BuildProfileText(&store.UserProfile{Status: "working"}, &store.NlpProfile{}))
}

func TestIndexUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	index, _ := newTestIndex(t, embedder)

	users := map[string][]float32{
		"query": pad(1, 0, 0),
		"close": pad(0.9, 0.1, 0),
		"mid":   pad(0.5, 0.5, 0),
		"far":   pad(0, 1, 0),
	}
	for id, vec := range users {
		user := &store.UserProfile{ID: id, Status: "status " + id}
		embedder.vectors[BuildProfileText(user, nil)] = vec
		require.NoError(t, index.Upsert(ctx, user, nil))
	}

	results, err := index.Search(ctx, "query", 10, true)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "close", results[0].UserID)
	assert.Equal(t, "mid", results[1].UserID)
	assert.Equal(t, "far", results[2].UserID)
	for _, r := range results {
		assert.NotEqual(t, "query", r.UserID, "self must be excluded")
	}

	// topK caps the result set.
	results, err = index.Search(ctx, "query", 2, true)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestIndexSearchUnknownUser(t *testing.T) {
	ctx := context.Background()
	index, _ := newTestIndex(t, &stubEmbedder{})

	results, err := index.Search(ctx, "nobody", 10, true)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndexUpsertSnapshotsMetadata(t *testing.T) {
	ctx := context.Background()
	index, s := newTestIndex(t, &stubEmbedder{})

	user := &store.UserProfile{ID: "u1", TopCategory: "social_connection"}
	nlp := &store.NlpProfile{
		Summary:     "summary text",
		Preferences: []string{"a", "b", "c", "d", "e", "f", "g"},
		Constraints: []string{"w", "x", "y", "z"},
	}
	require.NoError(t, index.Upsert(ctx, user, nlp))

	embedding, err := s.GetUserEmbedding(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, embedding)
	assert.Equal(t, "summary text", embedding.Metadata.Summary)
	assert.Equal(t, "social_connection", embedding.Metadata.TopCategory)
	assert.Len(t, embedding.Metadata.Preferences, 5)
	assert.Len(t, embedding.Metadata.Constraints, 3)
	assert.NotEmpty(t, embedding.Metadata.LastUpdated)
}

func TestIndexRebuildSkipsIncompleteUsers(t *testing.T) {
	ctx := context.Background()
	index, s := newTestIndex(t, &stubEmbedder{})

	users := []*store.UserProfile{
		{ID: "done", AssessmentCompleted: true, NlpProfile: &store.NlpProfile{Summary: "x"}},
		{ID: "pending", AssessmentCompleted: false, NlpProfile: &store.NlpProfile{Summary: "y"}},
		{ID: "no-profile", AssessmentCompleted: true},
	}
	require.NoError(t, index.Rebuild(ctx, users))

	stats, err := index.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, store.EmbeddingDimensions, stats.Dimensions)

	for _, id := range []string{"pending", "no-profile"} {
		embedding, err := s.GetUserEmbedding(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, embedding)
	}
}
