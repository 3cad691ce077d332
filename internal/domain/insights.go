package domain

import (
	"fmt"
	"strings"
)

// Score bands for insight generation. Criteria below the weakness band
// get a remediation sentence, criteria above the strength band are
// called out collectively, and the middle band produces nothing.
const (
	weaknessScoreCeiling = 6.0
	strengthScoreFloor   = 8.0
)

// remediationHints maps each criterion to the fixed improvement advice
// appended to its weakness insight.
var remediationHints = map[Criterion]string{
	CriterionCharacterImmersion:    "enhance world-building and environmental details",
	CriterionStoryProgression:      "add more narrative hooks and plot advancement",
	CriterionInteractiveAgency:     "make character more responsive to user input",
	CriterionEmotionalJourney:      "expand emotional range and authentic reactions",
	CriterionFantasyFulfillment:    "enhance wish fulfillment and escapism elements",
	CriterionCharacterAuthenticity: "improve consistency and believability",
}

// GenerateInsights turns consensus scores and disagreements into
// human-readable findings. Output order is deterministic: one weakness
// sentence per low-scoring criterion in canonical order, one strengths
// sentence when any criterion scores high, and one review sentence when
// evaluators disagreed.
func GenerateInsights(scores map[Criterion]float64, disagreements []Disagreement) []string {
	var insights []string

	for _, c := range criteria {
		score, ok := scores[c]
		if !ok || score >= weaknessScoreCeiling {
			continue
		}
		insights = append(insights, fmt.Sprintf("%s needs improvement (score: %.1f) - %s",
			displayName(c), score, remediationHints[c]))
	}

	var strengths []string
	for _, c := range criteria {
		if scores[c] > strengthScoreFloor {
			strengths = append(strengths, strings.ReplaceAll(string(c), "_", " "))
		}
	}
	if len(strengths) > 0 {
		insights = append(insights, fmt.Sprintf("Character excels at: %s - leverage these strengths",
			strings.Join(strengths, ", ")))
	}

	if len(disagreements) > 0 {
		rendered := make([]string, len(disagreements))
		for i, d := range disagreements {
			rendered[i] = d.String()
		}
		insights = append(insights, fmt.Sprintf("Evaluator disagreement on: %s - may need human review",
			strings.Join(rendered, ", ")))
	}

	return insights
}

// displayName renders a criterion for prose: underscores become spaces
// and the first letter is capitalized.
func displayName(c Criterion) string {
	s := strings.ReplaceAll(string(c), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
