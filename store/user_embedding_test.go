package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVector(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(i) * 0.01
	}
	return v
}

func TestUserEmbedding_Validate(t *testing.T) {
	tests := []struct {
		name      string
		embedding *UserEmbedding
		wantErr   bool
		errMsg    string
	}{
		{"valid record", &UserEmbedding{UserID: "u1", Embedding: testVector(EmbeddingDimensions)}, false, ""},
		{"empty user id", &UserEmbedding{UserID: "", Embedding: testVector(EmbeddingDimensions)}, true, "user id"},
		{"nil vector", &UserEmbedding{UserID: "u1", Embedding: nil}, true, "invalid vector dimension"},
		{"short vector", &UserEmbedding{UserID: "u1", Embedding: testVector(10)}, true, "invalid vector dimension"},
		{"long vector", &UserEmbedding{UserID: "u1", Embedding: testVector(EmbeddingDimensions + 1)}, true, "invalid vector dimension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.embedding.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestEmbeddingMetadata_Truncate(t *testing.T) {
	m := EmbeddingMetadata{
		Preferences: []string{"a", "b", "c", "d", "e", "f", "g"},
		Constraints: []string{"x", "y", "z", "w"},
	}
	m.Truncate()

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, m.Preferences)
	assert.Equal(t, []string{"x", "y", "z"}, m.Constraints)
}

func TestEmbeddingMetadata_TruncateShortLists(t *testing.T) {
	m := EmbeddingMetadata{Preferences: []string{"a"}, Constraints: nil}
	m.Truncate()

	assert.Equal(t, []string{"a"}, m.Preferences)
	assert.Nil(t, m.Constraints)
}

func TestGoal_Complement(t *testing.T) {
	got, ok := GoalLegalSupport.Complement()
	require.True(t, ok)
	assert.Equal(t, GoalProvideLegalSupport, got)

	got, ok = GoalProvideLegalSupport.Complement()
	require.True(t, ok)
	assert.Equal(t, GoalLegalSupport, got)

	_, ok = GoalSocialConnection.Complement()
	assert.False(t, ok)
}

func TestNlpProfile_NilAccessors(t *testing.T) {
	var p *NlpProfile
	assert.Empty(t, p.GetPreferences())
	assert.Empty(t, p.GetConstraints())
}
