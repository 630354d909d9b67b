package store

// Goal is the declared reason a user joined, chosen at registration.
type Goal string

const (
	GoalSocialConnection    Goal = "social_connection"
	GoalLegalSupport        Goal = "legal_support"
	GoalProvideLegalSupport Goal = "provide_legal_support"
	GoalMentalHealth        Goal = "mental_health"
	GoalLanguageSupport     Goal = "language_support"
)

func (g Goal) IsValid() bool {
	switch g {
	case GoalSocialConnection, GoalLegalSupport, GoalProvideLegalSupport, GoalMentalHealth, GoalLanguageSupport:
		return true
	}
	return false
}

// Complement returns the goal whose holders are primary matches for g when
// the pairing is cross-goal rather than goal-to-self. Only the legal support
// pair is bidirectional: seekers match providers and vice versa.
func (g Goal) Complement() (Goal, bool) {
	switch g {
	case GoalLegalSupport:
		return GoalProvideLegalSupport, true
	case GoalProvideLegalSupport:
		return GoalLegalSupport, true
	}
	return "", false
}

// NlpProfile is the analyzed profile produced by the external
// profile-analysis step after the questionnaire completes. Any field may be
// empty; consumers must treat absent fields as empty containers.
type NlpProfile struct {
	Summary            string   `json:"summary"`
	Preferences        []string `json:"preferences"`
	Constraints        []string `json:"constraints"`
	KeyFacts           []string `json:"key_facts"`
	ExtractedInterests []string `json:"extracted_interests"`
	PersonalityTraits  []string `json:"personality_traits"`
}

// GetPreferences returns the preference list, empty when the profile is nil.
func (p *NlpProfile) GetPreferences() []string {
	if p == nil {
		return nil
	}
	return p.Preferences
}

// GetConstraints returns the constraint list, empty when the profile is nil.
func (p *NlpProfile) GetConstraints() []string {
	if p == nil {
		return nil
	}
	return p.Constraints
}

// UserProfile is the authoritative user record.
type UserProfile struct {
	NlpProfile          *NlpProfile `json:"nlp_profile,omitempty"`
	ID                  string      `json:"user_id"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	Phone               string      `json:"phone"`
	Country             string      `json:"country"`
	Location            string      `json:"location"`
	Status              string      `json:"status"`
	TopCategory         string      `json:"top_category"`
	Goal                Goal        `json:"goal"`
	Languages           []string    `json:"languages"`
	CreatedTs           int64       `json:"created_ts"`
	UpdatedTs           int64       `json:"updated_ts"`
	AssessmentCompleted bool        `json:"assessment_completed"`
}

// FindUserProfile holds filters for listing users.
type FindUserProfile struct {
	ID                  *string
	Goal                *Goal
	AssessmentCompleted *bool
}

// UpdateUserProfile holds a partial update. Nil fields are left unchanged.
type UpdateUserProfile struct {
	ID                  string
	NlpProfile          *NlpProfile
	TopCategory         *string
	AssessmentCompleted *bool
}
