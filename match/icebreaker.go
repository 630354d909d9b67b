package match

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/amity/store"
)

// IcebreakerService produces conversation starters and match explanations.
// The template generator is the mandated deterministic core; an LLM-backed
// enricher can be layered on top.
type IcebreakerService interface {
	Icebreaker(ctx context.Context, requester, candidate *store.UserProfile, loose bool) string
	Explanation(similarity float64, sharedInterests []string) string
}

// loosePrefix softens an icebreaker when the pairing failed the
// compatibility check but is shown anyway as a fallback.
const loosePrefix = "Even though you might have different viewpoints... "

// IceBreakerGenerator produces conversation starters and match explanations
// from templates. It is fully deterministic and needs no external calls.
type IceBreakerGenerator struct{}

// NewIceBreakerGenerator creates a template-based generator.
func NewIceBreakerGenerator() *IceBreakerGenerator {
	return &IceBreakerGenerator{}
}

// Icebreaker suggests how the requester can open a conversation with the
// candidate. Same-goal pairings get "same boat" framing, complementary-goal
// pairings reference what the candidate offers, and loose pairings get a
// softening prefix. Shared topics are found by word-level intersection of
// lower-cased preference tokens, a deliberately looser test than the exact
// string match used for the shared-interest list.
func (*IceBreakerGenerator) Icebreaker(_ context.Context, requester, candidate *store.UserProfile, loose bool) string {
	goal := humanizeGoal(candidate.Goal)
	topics := sharedTopics(requester.NlpProfile.GetPreferences(), candidate.NlpProfile.GetPreferences(), 2)

	var text string
	sameGoal := candidate.Goal == requester.Goal
	switch {
	case len(topics) > 0 && sameGoal:
		text = fmt.Sprintf("You're both here for %s - you're in the same boat! You both mentioned %s, so that's a great topic to start with.",
			goal, joinTopics(topics))
	case len(topics) > 0:
		text = fmt.Sprintf("They can help with %s, and you both mentioned %s - that's a great topic to start with.",
			goal, joinTopics(topics))
	case sameGoal:
		text = fmt.Sprintf("You're both here for %s - you're in the same boat! Introduce yourself and ask what brought them here.", goal)
	default:
		text = fmt.Sprintf("They can help with %s. Introduce yourself and ask about their experience.", goal)
	}

	if loose {
		return loosePrefix + text
	}
	return text
}

// Explanation explains why this is a good match, combining the similarity
// percentage with up to two shared interests.
func (*IceBreakerGenerator) Explanation(similarity float64, sharedInterests []string) string {
	percentage := int(similarity * 100)

	if len(sharedInterests) > 0 {
		interests := sharedInterests
		if len(interests) > 2 {
			interests = interests[:2]
		}
		return fmt.Sprintf("%d%% compatible - You both share interests in %s", percentage, strings.Join(interests, ", "))
	}
	return fmt.Sprintf("%d%% compatible based on your profiles", percentage)
}

// sharedTopics returns up to limit of a's preference labels whose lower-cased
// word sets intersect any of b's. Labels are lower-cased for sentence flow
// and deduplicated, preserving a's order.
func sharedTopics(aPrefs, bPrefs []string, limit int) []string {
	seen := map[string]struct{}{}
	topics := []string{}
	for _, p1 := range aPrefs {
		words1 := tokenSet(p1)
		for _, p2 := range bPrefs {
			if intersects(words1, tokenSet(p2)) {
				label := strings.ToLower(p1)
				if _, dup := seen[label]; !dup {
					seen[label] = struct{}{}
					topics = append(topics, label)
				}
				break
			}
		}
		if len(topics) == limit {
			break
		}
	}
	return topics
}

// sharedInterests returns the exact-string intersection of the two
// preference lists, preserving a's order.
func sharedInterests(aPrefs, bPrefs []string) []string {
	inB := map[string]struct{}{}
	for _, p := range bPrefs {
		inB[p] = struct{}{}
	}
	shared := []string{}
	for _, p := range aPrefs {
		if _, ok := inB[p]; ok {
			shared = append(shared, p)
		}
	}
	return shared
}

func tokenSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}

func intersects(a, b map[string]struct{}) bool {
	for w := range a {
		if _, ok := b[w]; ok {
			return true
		}
	}
	return false
}

func joinTopics(topics []string) string {
	return strings.Join(topics, " and ")
}

func humanizeGoal(goal store.Goal) string {
	if goal == "" {
		goal = store.GoalSocialConnection
	}
	return strings.ReplaceAll(string(goal), "_", " ")
}
