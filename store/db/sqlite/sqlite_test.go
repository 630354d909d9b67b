package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/amity/internal/profile"
	"github.com/hrygo/amity/store"
)

func newTestDB(t *testing.T) store.Driver {
	t.Helper()
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "amity_dev.db")}
	driver, err := NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.Migrate(context.Background()))
	return driver
}

func testVector(lead float32) []float32 {
	v := make([]float32, store.EmbeddingDimensions)
	v[0] = lead
	return v
}

func TestUserProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	driver := newTestDB(t)

	created, err := driver.CreateUserProfile(ctx, &store.UserProfile{
		ID:        "u1",
		Name:      "Ada",
		Email:     "ada@example.com",
		Country:   "UK",
		Location:  "London",
		Status:    "working",
		Goal:      store.GoalSocialConnection,
		Languages: []string{"en", "fr"},
		NlpProfile: &store.NlpProfile{
			Summary:     "analytical, outdoorsy",
			Preferences: []string{"hiking"},
			Constraints: []string{"no alcohol"},
		},
		CreatedTs: 100,
		UpdatedTs: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", created.ID)

	got, err := driver.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, []string{"en", "fr"}, got.Languages)
	require.NotNil(t, got.NlpProfile)
	assert.Equal(t, []string{"no alcohol"}, got.NlpProfile.Constraints)
	assert.False(t, got.AssessmentCompleted)

	missing, err := driver.GetUserProfile(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserProfileUpdate(t *testing.T) {
	ctx := context.Background()
	driver := newTestDB(t)

	_, err := driver.CreateUserProfile(ctx, &store.UserProfile{ID: "u1", Name: "Ada", CreatedTs: 100, UpdatedTs: 100})
	require.NoError(t, err)

	completed := true
	topCategory := "mental_health"
	updated, err := driver.UpdateUserProfile(ctx, &store.UpdateUserProfile{
		ID:                  "u1",
		NlpProfile:          &store.NlpProfile{Summary: "calm"},
		TopCategory:         &topCategory,
		AssessmentCompleted: &completed,
	})
	require.NoError(t, err)
	assert.True(t, updated.AssessmentCompleted)
	assert.Equal(t, "mental_health", updated.TopCategory)
	require.NotNil(t, updated.NlpProfile)
	assert.Equal(t, "calm", updated.NlpProfile.Summary)

	_, err = driver.UpdateUserProfile(ctx, &store.UpdateUserProfile{ID: "nope", AssessmentCompleted: &completed})
	assert.Error(t, err)
}

func TestUserProfileListFilters(t *testing.T) {
	ctx := context.Background()
	driver := newTestDB(t)

	completed := true
	seekers := store.GoalLegalSupport
	for i, u := range []*store.UserProfile{
		{ID: "a", Goal: store.GoalLegalSupport},
		{ID: "b", Goal: store.GoalProvideLegalSupport},
		{ID: "c", Goal: store.GoalLegalSupport},
	} {
		u.CreatedTs = int64(i)
		u.UpdatedTs = int64(i)
		_, err := driver.CreateUserProfile(ctx, u)
		require.NoError(t, err)
	}
	_, err := driver.UpdateUserProfile(ctx, &store.UpdateUserProfile{ID: "a", AssessmentCompleted: &completed})
	require.NoError(t, err)

	byGoal, err := driver.ListUserProfiles(ctx, &store.FindUserProfile{Goal: &seekers})
	require.NoError(t, err)
	assert.Len(t, byGoal, 2)

	byCompletion, err := driver.ListUserProfiles(ctx, &store.FindUserProfile{AssessmentCompleted: &completed})
	require.NoError(t, err)
	require.Len(t, byCompletion, 1)
	assert.Equal(t, "a", byCompletion[0].ID)
}

func TestUserEmbeddingRoundTrip(t *testing.T) {
	ctx := context.Background()
	driver := newTestDB(t)

	embedding := &store.UserEmbedding{
		UserID:    "u1",
		Embedding: testVector(0.5),
		Metadata: store.EmbeddingMetadata{
			Summary:     "keen hiker",
			TopCategory: "social_connection",
			Preferences: []string{"hiking"},
		},
		UpdatedTs: 100,
	}
	_, err := driver.UpsertUserEmbedding(ctx, embedding)
	require.NoError(t, err)

	got, err := driver.GetUserEmbedding(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, embedding.Embedding, got.Embedding)
	assert.Equal(t, "keen hiker", got.Metadata.Summary)

	// Upsert replaces the whole record.
	embedding.Embedding = testVector(0.9)
	embedding.Metadata.Summary = "trail regular"
	_, err = driver.UpsertUserEmbedding(ctx, embedding)
	require.NoError(t, err)

	got, err = driver.GetUserEmbedding(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, float64(got.Embedding[0]), 1e-6)
	assert.Equal(t, "trail regular", got.Metadata.Summary)

	missing, err := driver.GetUserEmbedding(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestVectorBlobEncoding(t *testing.T) {
	vector := testVector(0.25)
	vector[383] = -1.5

	blob, err := float32ArrayToBLOB(vector)
	require.NoError(t, err)
	assert.Len(t, blob, store.EmbeddingDimensions*4)

	decoded, err := blobToFloat32Array(blob)
	require.NoError(t, err)
	assert.Equal(t, vector, decoded)

	_, err = blobToFloat32Array(blob[:7])
	assert.Error(t, err)
}
