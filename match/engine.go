// Package match implements the matching pipeline: nearest-neighbor
// retrieval, goal and compatibility partitioning, diversity-aware
// re-ranking, and presentation of the final match cards.
package match

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hrygo/amity/internal/profile"
	"github.com/hrygo/amity/store"
	"github.com/hrygo/amity/vectordb"
)

var (
	// ErrUserNotFound signals an unknown requester id.
	ErrUserNotFound = errors.New("user not found")

	// ErrAssessmentNotCompleted signals a requester without a completed
	// assessment; callers translate this into a user-facing message.
	ErrAssessmentNotCompleted = errors.New("assessment not completed")
)

// MatchProfile is the denormalized profile snippet on a match card.
type MatchProfile struct {
	Country   string   `json:"country"`
	Location  string   `json:"location"`
	Status    string   `json:"status"`
	Phone     string   `json:"phone"`
	Languages []string `json:"languages"`
}

// MatchCard is one recommendation, built fresh per request and never
// persisted.
type MatchCard struct {
	UserID                  string       `json:"user_id"`
	Name                    string       `json:"name"`
	Email                   string       `json:"email"`
	Summary                 string       `json:"summary"`
	Icebreaker              string       `json:"icebreaker"`
	MatchExplanation        string       `json:"match_explanation"`
	Relationship            Relationship `json:"relationship"`
	SharedInterests         []string     `json:"shared_interests"`
	SimilarityScore         float64      `json:"similarity_score"`
	CompatibilityPercentage int          `json:"compatibility_percentage"`
	LooseMatch              bool         `json:"loose_match"`
	Profile                 MatchProfile `json:"profile"`
}

// Engine composes retrieval, compatibility partitioning, diversity
// selection, and presentation into a request-scoped pipeline. It is
// stateless across requests.
type Engine struct {
	index       *vectordb.Index
	conflicts   *ConflictDetector
	selector    *MMRSelector
	icebreakers IcebreakerService
	topK        int
	topN        int
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithRetrieveTopK sets the nearest-neighbor pool size.
func WithRetrieveTopK(topK int) EngineOption {
	return func(e *Engine) {
		if topK > 0 {
			e.topK = topK
		}
	}
}

// WithMatchTopN sets the default number of returned cards.
func WithMatchTopN(topN int) EngineOption {
	return func(e *Engine) {
		if topN > 0 {
			e.topN = topN
		}
	}
}

// WithIcebreakers replaces the deterministic template generator, e.g. with
// an LLM-backed enricher.
func WithIcebreakers(svc IcebreakerService) EngineOption {
	return func(e *Engine) {
		if svc != nil {
			e.icebreakers = svc
		}
	}
}

// NewEngine creates a matching engine.
func NewEngine(index *vectordb.Index, conflicts *ConflictDetector, selector *MMRSelector, opts ...EngineOption) *Engine {
	e := &Engine{
		index:       index,
		conflicts:   conflicts,
		selector:    selector,
		icebreakers: NewIceBreakerGenerator(),
		topK:        profile.DefaultRetrieveTopK,
		topN:        profile.DefaultMatchTopN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// classifyRelationship tags a candidate's goal relative to the requester's.
// The legal support pairing is bidirectional: seekers are primary matches
// for providers and vice versa, and a same-goal candidate under that pairing
// is a peer. Every other goal matches primary-to-self.
func classifyRelationship(requesterGoal, candidateGoal store.Goal) Relationship {
	if complement, ok := requesterGoal.Complement(); ok {
		if candidateGoal == complement {
			return RelationshipPrimary
		}
		return RelationshipPeer
	}
	if candidateGoal == requesterGoal {
		return RelationshipPrimary
	}
	return RelationshipPeer
}

// FindMatches runs the full pipeline for one requester. An empty candidate
// pool is a normal zero-result outcome. The only hard errors are an unknown
// requester and a requester without a completed assessment.
func (e *Engine) FindMatches(ctx context.Context, userID string, users []*store.UserProfile, topN int) ([]*MatchCard, error) {
	if topN <= 0 {
		topN = e.topN
	}

	usersByID := make(map[string]*store.UserProfile, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}
	requester, ok := usersByID[userID]
	if !ok {
		matchRequests.WithLabelValues("not_found").Inc()
		return nil, ErrUserNotFound
	}
	if !requester.AssessmentCompleted {
		matchRequests.WithLabelValues("incomplete").Inc()
		return nil, ErrAssessmentNotCompleted
	}

	hits, err := e.index.Search(ctx, userID, e.topK, true)
	if err != nil {
		matchRequests.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, "failed to retrieve candidates")
	}
	candidatesRetrieved.Observe(float64(len(hits)))
	if len(hits) == 0 {
		matchRequests.WithLabelValues("ok").Inc()
		cardsReturned.Observe(0)
		return []*MatchCard{}, nil
	}

	// Partition into priority buckets. Conflicted candidates are demoted to
	// loose matches rather than discarded, so a thin pool still fills up.
	var primarySafe, peerSafe, primaryLoose, peerLoose []Candidate
	for _, hit := range hits {
		candidateUser, ok := usersByID[hit.UserID]
		if !ok {
			// Present in the embedding index but unknown to the caller.
			continue
		}
		relationship := classifyRelationship(requester.Goal, candidateUser.Goal)
		safe := e.conflicts.MutualCompatibility(ctx, requester, candidateUser)
		if !safe {
			conflictsFiltered.Inc()
		}

		candidate := Candidate{
			UserID:       hit.UserID,
			Relevance:    hit.Similarity,
			Metadata:     hit.Metadata,
			Relationship: relationship,
			Loose:        !safe,
		}
		switch {
		case relationship == RelationshipPrimary && safe:
			primarySafe = append(primarySafe, candidate)
		case relationship == RelationshipPeer && safe:
			peerSafe = append(peerSafe, candidate)
		case relationship == RelationshipPrimary:
			primaryLoose = append(primaryLoose, candidate)
		default:
			peerLoose = append(peerLoose, candidate)
		}
	}

	// Bucket priority doubles as the tie-break for equal MMR scores.
	pool := make([]Candidate, 0, len(hits))
	pool = append(pool, primarySafe...)
	pool = append(pool, peerSafe...)
	pool = append(pool, primaryLoose...)
	pool = append(pool, peerLoose...)

	selected := e.selector.SelectDiverse(ctx, userID, pool, topN)

	cards := make([]*MatchCard, 0, len(selected))
	for _, candidate := range selected {
		matchedUser := usersByID[candidate.UserID]
		shared := sharedInterests(requester.NlpProfile.GetPreferences(), matchedUser.NlpProfile.GetPreferences())

		card := &MatchCard{
			UserID:                  candidate.UserID,
			Name:                    matchedUser.Name,
			Email:                   matchedUser.Email,
			Summary:                 candidate.Metadata.Summary,
			Icebreaker:              e.icebreakers.Icebreaker(ctx, requester, matchedUser, candidate.Loose),
			MatchExplanation:        e.icebreakers.Explanation(candidate.Relevance, shared),
			Relationship:            candidate.Relationship,
			SharedInterests:         capStrings(shared, 3),
			SimilarityScore:         candidate.Relevance,
			CompatibilityPercentage: int(candidate.Relevance * 100),
			LooseMatch:              candidate.Loose,
			Profile: MatchProfile{
				Country:   matchedUser.Country,
				Location:  matchedUser.Location,
				Status:    matchedUser.Status,
				Phone:     matchedUser.Phone,
				Languages: matchedUser.Languages,
			},
		}
		cards = append(cards, card)
	}

	slog.Debug("matching pipeline complete",
		"user", userID,
		"retrieved", len(hits),
		"pooled", len(pool),
		"returned", len(cards),
	)
	matchRequests.WithLabelValues("ok").Inc()
	cardsReturned.Observe(float64(len(cards)))
	return cards, nil
}

func capStrings(list []string, limit int) []string {
	if len(list) > limit {
		return list[:limit]
	}
	return list
}
