package match

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/amity/ai"
	"github.com/hrygo/amity/store"
)

const icebreakerSystemPrompt = "You are an expert in building social connections and helping people start friendly conversations."

// EnrichedIceBreaker layers an LLM call over the template generator. The LLM
// output is best-effort: any failure, empty answer, or generic answer falls
// back to the deterministic template, so the ranking path never depends on
// the network.
type EnrichedIceBreaker struct {
	llm  ai.LLMService
	base *IceBreakerGenerator
}

// NewEnrichedIceBreaker wraps base with llm-backed generation.
func NewEnrichedIceBreaker(llm ai.LLMService, base *IceBreakerGenerator) *EnrichedIceBreaker {
	return &EnrichedIceBreaker{llm: llm, base: base}
}

func (e *EnrichedIceBreaker) Icebreaker(ctx context.Context, requester, candidate *store.UserProfile, loose bool) string {
	prompt := buildIcebreakerPrompt(requester, candidate)

	for attempt := 0; attempt < 2; attempt++ {
		result, err := e.llm.Chat(ctx, []ai.Message{
			ai.SystemPrompt(icebreakerSystemPrompt),
			ai.UserMessage(prompt),
		})
		if err != nil {
			slog.Warn("icebreaker generation failed", "attempt", attempt+1, "error", err)
			continue
		}
		result = strings.Trim(strings.TrimSpace(result), `"`)
		if result != "" && !strings.Contains(result, "Introduce yourself") {
			if loose {
				return loosePrefix + result
			}
			return result
		}
	}
	return e.base.Icebreaker(ctx, requester, candidate, loose)
}

func (e *EnrichedIceBreaker) Explanation(similarity float64, sharedInterests []string) string {
	return e.base.Explanation(similarity, sharedInterests)
}

func buildIcebreakerPrompt(requester, candidate *store.UserProfile) string {
	return fmt.Sprintf(`TASK: Suggest how User 1 can start a conversation with User 2.

User 1 (The Searcher):
Facts: %s
Interests: %s

User 2 (The Match):
Facts: %s
Interests: %s

Write ONE specific, friendly suggestion on how User 1 can start a conversation with User 2.
Focus on specific details they both mentioned or compatible interests.

IMPORTANT:
- Write from the second person ("You could...", "Suggest...")
- Be specific and practical
- One sentence only
- Write in English`,
		joinOrNone(keyFacts(requester)), joinOrNone(requester.NlpProfile.GetPreferences()),
		joinOrNone(keyFacts(candidate)), joinOrNone(candidate.NlpProfile.GetPreferences()))
}

func keyFacts(user *store.UserProfile) []string {
	if user.NlpProfile == nil {
		return nil
	}
	return user.NlpProfile.KeyFacts
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None explicit"
	}
	return strings.Join(items, ", ")
}
