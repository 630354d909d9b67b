package match

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/hrygo/amity/internal/profile"
)

// stubVectors resolves candidate vectors from a map. Unknown ids resolve to
// (nil, nil), matching the stored-vector contract.
type stubVectors struct {
	vectors map[string][]float32
	err     error
}

func (s *stubVectors) GetVector(_ context.Context, userID string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[userID], nil
}

func TestNewMMRSelectorLambdaRange(t *testing.T) {
	vectors := &stubVectors{}

	assert.Equal(t, 0.3, NewMMRSelector(vectors, 0.3).lambda)
	assert.Equal(t, profile.DefaultMMRLambda, NewMMRSelector(vectors, -0.1).lambda)
	assert.Equal(t, profile.DefaultMMRLambda, NewMMRSelector(vectors, 1.5).lambda)
}

func TestDiversity(t *testing.T) {
	assert.Equal(t, 1.0, Diversity(pad(1, 0, 0), nil))

	identical := Diversity(pad(1, 0, 0), [][]float32{pad(1, 0, 0)})
	assert.InDelta(t, 0.0, identical, 1e-6)

	orthogonal := Diversity(pad(1, 0, 0), [][]float32{pad(0, 1, 0)})
	assert.InDelta(t, 1.0, orthogonal, 1e-6)

	// Only the closest selected vector counts.
	mixed := Diversity(pad(1, 0, 0), [][]float32{pad(0, 1, 0), pad(1, 0, 0)})
	assert.InDelta(t, 0.0, mixed, 1e-6)
}

func TestSelectDiverseShortCircuit(t *testing.T) {
	// With no more candidates than slots no ranking runs, so even an
	// erroring vector source must not be consulted.
	selector := NewMMRSelector(&stubVectors{err: errors.New("store down")}, 0.7)

	candidates := []Candidate{{UserID: "a", Relevance: 0.9}, {UserID: "b", Relevance: 0.1}}
	selected := selector.SelectDiverse(context.Background(), "query", candidates, 3)
	assert.Equal(t, candidates, selected)
}

func TestSelectDiverseCardinality(t *testing.T) {
	vectors := &stubVectors{vectors: map[string][]float32{
		"query": pad(1, 0, 0),
		"a":     pad(1, 0, 0),
		"b":     pad(0.9, 0.1, 0),
		"c":     pad(0, 1, 0),
		"d":     pad(0, 0, 1),
		"e":     pad(0.5, 0.5, 0),
	}}
	selector := NewMMRSelector(vectors, 0.7)

	candidates := []Candidate{
		{UserID: "a", Relevance: 0.95},
		{UserID: "b", Relevance: 0.90},
		{UserID: "c", Relevance: 0.50},
		{UserID: "d", Relevance: 0.40},
		{UserID: "e", Relevance: 0.30},
	}
	selected := selector.SelectDiverse(context.Background(), "query", candidates, 3)

	assert.Len(t, selected, 3)
	input := map[string]struct{}{"a": {}, "b": {}, "c": {}, "d": {}, "e": {}}
	seen := map[string]struct{}{}
	for _, c := range selected {
		assert.Contains(t, input, c.UserID)
		assert.NotContains(t, seen, c.UserID)
		seen[c.UserID] = struct{}{}
	}
}

func TestSelectDiverseSuppressesNearDuplicates(t *testing.T) {
	// Two candidates share the query user's vector; three are distinct.
	// The second near-duplicate outscores every distinct candidate on raw
	// relevance, yet diversity must rank a distinct candidate above it.
	vectors := &stubVectors{vectors: map[string][]float32{
		"query": pad(1, 0, 0),
		"dup1":  pad(1, 0, 0),
		"dup2":  pad(1, 0, 0),
		"distA": pad(0, 1, 0),
		"distB": pad(0, 0, 1),
		"distC": pad(0, 1, 1),
	}}
	selector := NewMMRSelector(vectors, 0.7)

	candidates := []Candidate{
		{UserID: "dup1", Relevance: 0.99},
		{UserID: "dup2", Relevance: 0.98},
		{UserID: "distA", Relevance: 0.60},
		{UserID: "distB", Relevance: 0.45},
		{UserID: "distC", Relevance: 0.30},
	}
	selected := selector.SelectDiverse(context.Background(), "query", candidates, 3)

	// dup1 wins round one on relevance. In round two dup2's diversity
	// collapses to zero (0.7*0.98 = 0.686) while distA keeps full
	// diversity (0.7*0.60 + 0.3 = 0.72), so distA jumps ahead.
	assert.Len(t, selected, 3)
	assert.Equal(t, "dup1", selected[0].UserID)
	assert.Equal(t, "distA", selected[1].UserID)
	assert.Equal(t, "dup2", selected[2].UserID)
}

func TestSelectDiverseDropsUnresolvableCandidates(t *testing.T) {
	vectors := &stubVectors{vectors: map[string][]float32{
		"query": pad(1, 0, 0),
		"a":     pad(1, 0, 0),
		"c":     pad(0, 1, 0),
		"d":     pad(0, 0, 1),
	}}
	selector := NewMMRSelector(vectors, 0.7)

	candidates := []Candidate{
		{UserID: "a", Relevance: 0.9},
		{UserID: "ghost", Relevance: 0.8},
		{UserID: "c", Relevance: 0.5},
		{UserID: "d", Relevance: 0.4},
	}
	selected := selector.SelectDiverse(context.Background(), "query", candidates, 3)

	assert.Len(t, selected, 3)
	for _, c := range selected {
		assert.NotEqual(t, "ghost", c.UserID)
	}
}

func TestSelectDiverseMissingQueryVector(t *testing.T) {
	vectors := &stubVectors{vectors: map[string][]float32{
		"a": pad(1, 0, 0),
		"b": pad(0, 1, 0),
	}}
	selector := NewMMRSelector(vectors, 0.7)

	candidates := []Candidate{
		{UserID: "a", Relevance: 0.9},
		{UserID: "b", Relevance: 0.8},
		{UserID: "c", Relevance: 0.7},
		{UserID: "d", Relevance: 0.6},
	}
	selected := selector.SelectDiverse(context.Background(), "query", candidates, 2)

	// Degrades to relevance order.
	assert.Equal(t, candidates[:2], selected)
}
