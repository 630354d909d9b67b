package match

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/hrygo/amity/ai"
	"github.com/hrygo/amity/store"
)

// stubLLM replays canned responses per call.
type stubLLM struct {
	replies []string
	err     error
	calls   int
}

func (s *stubLLM) Chat(_ context.Context, _ []ai.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if s.calls <= len(s.replies) {
		return s.replies[s.calls-1], nil
	}
	return "", nil
}

func enrichTestUsers() (*store.UserProfile, *store.UserProfile) {
	requester := &store.UserProfile{
		ID:   "a",
		Goal: store.GoalSocialConnection,
		NlpProfile: &store.NlpProfile{
			Preferences: []string{"hiking"},
			KeyFacts:    []string{"recently moved"},
		},
	}
	candidate := &store.UserProfile{
		ID:   "b",
		Goal: store.GoalSocialConnection,
		NlpProfile: &store.NlpProfile{
			Preferences: []string{"hiking trails"},
		},
	}
	return requester, candidate
}

func TestEnrichedIcebreakerUsesLLMOutput(t *testing.T) {
	requester, candidate := enrichTestUsers()
	llm := &stubLLM{replies: []string{`"You could ask about their favorite trail."`}}
	enricher := NewEnrichedIceBreaker(llm, NewIceBreakerGenerator())

	got := enricher.Icebreaker(context.Background(), requester, candidate, false)
	assert.Equal(t, "You could ask about their favorite trail.", got)
	assert.Equal(t, 1, llm.calls)
}

func TestEnrichedIcebreakerLoosePrefix(t *testing.T) {
	requester, candidate := enrichTestUsers()
	llm := &stubLLM{replies: []string{"You could ask about their favorite trail."}}
	enricher := NewEnrichedIceBreaker(llm, NewIceBreakerGenerator())

	got := enricher.Icebreaker(context.Background(), requester, candidate, true)
	assert.Equal(t, loosePrefix+"You could ask about their favorite trail.", got)
}

func TestEnrichedIcebreakerRetriesThenFallsBack(t *testing.T) {
	requester, candidate := enrichTestUsers()
	llm := &stubLLM{err: errors.New("provider unavailable")}
	enricher := NewEnrichedIceBreaker(llm, NewIceBreakerGenerator())

	got := enricher.Icebreaker(context.Background(), requester, candidate, false)
	assert.Equal(t, 2, llm.calls)
	// Deterministic template output.
	assert.Equal(t, NewIceBreakerGenerator().Icebreaker(context.Background(), requester, candidate, false), got)
}

func TestEnrichedIcebreakerRejectsGenericAnswers(t *testing.T) {
	requester, candidate := enrichTestUsers()
	llm := &stubLLM{replies: []string{"Introduce yourself and say hi.", "Introduce yourself politely."}}
	enricher := NewEnrichedIceBreaker(llm, NewIceBreakerGenerator())

	got := enricher.Icebreaker(context.Background(), requester, candidate, false)
	assert.Equal(t, 2, llm.calls)
	assert.NotContains(t, got, "say hi")
	// Falls back to the template, which may itself be generic but is
	// deterministic.
	assert.Contains(t, got, "You're both here for social connection")
}
