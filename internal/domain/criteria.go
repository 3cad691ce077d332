// Package domain contains the core evaluation types for charbench:
// the fixed criterion set, per-judge evaluation records, and the
// consensus analysis computed across judges. Everything in this
// package is pure data and computation with no I/O dependencies.
package domain

// Criterion identifies one of the six fixed evaluation dimensions
// a judge scores a character conversation against.
type Criterion string

// The six evaluation criteria. The set is closed; records missing any
// of these are rejected during normalization.
const (
	CriterionCharacterImmersion    Criterion = "character_immersion"
	CriterionStoryProgression      Criterion = "story_progression"
	CriterionInteractiveAgency     Criterion = "interactive_agency"
	CriterionEmotionalJourney      Criterion = "emotional_journey"
	CriterionFantasyFulfillment    Criterion = "fantasy_fulfillment"
	CriterionCharacterAuthenticity Criterion = "character_authenticity"
)

// Score bounds judges are instructed to stay within. The normalizer does
// not clamp out-of-range values; the judge prompt enforces the range.
const (
	MinCriterionScore = 1
	MaxCriterionScore = 10
)

// criteria holds the canonical ordering used for prompts, display,
// and deterministic iteration over score maps.
var criteria = []Criterion{
	CriterionCharacterImmersion,
	CriterionStoryProgression,
	CriterionInteractiveAgency,
	CriterionEmotionalJourney,
	CriterionFantasyFulfillment,
	CriterionCharacterAuthenticity,
}

// criteriaDescriptions are the rubric definitions rendered into the
// evaluation prompt for each criterion.
var criteriaDescriptions = map[Criterion]string{
	CriterionCharacterImmersion:    "World-building richness, immersive storytelling capability, fantasy fulfillment effectiveness",
	CriterionStoryProgression:      "Plot advancement naturally introduced, mystery building and intrigue creation, narrative hooks",
	CriterionInteractiveAgency:     "Response adaptation to user input, user influence on character decisions, collaborative storytelling",
	CriterionEmotionalJourney:      "Emotional range and variation, emotional escalation appropriateness, cathartic moments",
	CriterionFantasyFulfillment:    "Wish fulfillment provision, novelty factor and surprises, deeper emotional need satisfaction",
	CriterionCharacterAuthenticity: "Internal consistency and believability, realistic complexity and depth, genuine emotional reactions",
}

// Criteria returns the six evaluation criteria in canonical order.
// The returned slice is a copy; callers may reorder it freely.
func Criteria() []Criterion {
	out := make([]Criterion, len(criteria))
	copy(out, criteria)
	return out
}

// CriterionCount is the size of the fixed criterion set.
func CriterionCount() int { return len(criteria) }

// Description returns the rubric definition for a criterion, or the
// empty string for an unknown criterion.
func (c Criterion) Description() string { return criteriaDescriptions[c] }

// Valid reports whether c is one of the six recognized criteria.
func (c Criterion) Valid() bool {
	_, ok := criteriaDescriptions[c]
	return ok
}

func (c Criterion) String() string { return string(c) }
