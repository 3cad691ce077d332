package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInsightsWeaknesses(t *testing.T) {
	scores := map[Criterion]float64{
		CriterionCharacterImmersion:    4.2,
		CriterionStoryProgression:      7.0,
		CriterionInteractiveAgency:     5.9,
		CriterionEmotionalJourney:      6.0,
		CriterionFantasyFulfillment:    7.5,
		CriterionCharacterAuthenticity: 7.0,
	}

	insights := GenerateInsights(scores, nil)
	require.Len(t, insights, 2)
	assert.Equal(t,
		"Character immersion needs improvement (score: 4.2) - enhance world-building and environmental details",
		insights[0])
	assert.Equal(t,
		"Interactive agency needs improvement (score: 5.9) - make character more responsive to user input",
		insights[1])
}

func TestGenerateInsightsStrengths(t *testing.T) {
	scores := map[Criterion]float64{
		CriterionCharacterImmersion:    9.0,
		CriterionStoryProgression:      7.0,
		CriterionInteractiveAgency:     7.0,
		CriterionEmotionalJourney:      8.5,
		CriterionFantasyFulfillment:    7.0,
		CriterionCharacterAuthenticity: 8.0,
	}

	insights := GenerateInsights(scores, nil)
	require.Len(t, insights, 1)
	assert.Equal(t,
		"Character excels at: character immersion, emotional journey - leverage these strengths",
		insights[0])
}

func TestGenerateInsightsMiddleBandSilent(t *testing.T) {
	scores := map[Criterion]float64{}
	for _, c := range Criteria() {
		scores[c] = 7.0
	}
	assert.Empty(t, GenerateInsights(scores, nil))
}

func TestGenerateInsightsDisagreements(t *testing.T) {
	scores := map[Criterion]float64{}
	for _, c := range Criteria() {
		scores[c] = 7.0
	}
	disagreements := []Disagreement{
		{Criterion: CriterionStoryProgression, Range: 3.0},
		{Criterion: CriterionEmotionalJourney, Range: 2.5},
	}

	insights := GenerateInsights(scores, disagreements)
	require.Len(t, insights, 1)
	assert.Equal(t,
		"Evaluator disagreement on: story_progression (range: 3.0), emotional_journey (range: 2.5) - may need human review",
		insights[0])
}

func TestGenerateInsightsOrdering(t *testing.T) {
	scores := map[Criterion]float64{
		CriterionCharacterImmersion:    3.0,
		CriterionStoryProgression:      9.0,
		CriterionInteractiveAgency:     7.0,
		CriterionEmotionalJourney:      7.0,
		CriterionFantasyFulfillment:    7.0,
		CriterionCharacterAuthenticity: 7.0,
	}
	disagreements := []Disagreement{{Criterion: CriterionCharacterImmersion, Range: 4.0}}

	insights := GenerateInsights(scores, disagreements)
	require.Len(t, insights, 3)
	assert.Contains(t, insights[0], "needs improvement")
	assert.Contains(t, insights[1], "Character excels at:")
	assert.Contains(t, insights[2], "Evaluator disagreement on:")
}
