package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charbench/internal/domain"
)

const validResponse = `{
	"scores": {
		"character_immersion": 8,
		"story_progression": 7,
		"interactive_agency": 8,
		"emotional_journey": 9,
		"fantasy_fulfillment": 8,
		"character_authenticity": 8
	},
	"reasoning": {
		"character_immersion": "Rich sensory detail throughout the grove scenes.",
		"story_progression": "The hidden door subplot advanced each exchange.",
		"interactive_agency": "User choices redirected the ritual twice.",
		"emotional_journey": "Built from unease to catharsis convincingly.",
		"fantasy_fulfillment": "Delivered on the promise of secret knowledge.",
		"character_authenticity": "Voice stayed consistent with the oracle persona."
	},
	"overall_assessment": "A strong, immersive performance.",
	"key_strengths": ["world-building", "voice"],
	"key_weaknesses": ["pacing"],
	"improvement_recommendations": ["tighten mid-conversation beats"]
}`

func TestNormalizeValidResponse(t *testing.T) {
	record, err := NewNormalizer().Normalize("deepseek", validResponse)
	require.NoError(t, err)

	assert.Equal(t, "deepseek", record.Evaluator)
	assert.Equal(t, 8, record.Scores[domain.CriterionCharacterImmersion])
	assert.Equal(t, 9, record.Scores[domain.CriterionEmotionalJourney])
	assert.InDelta(t, 8.0, record.OverallScore, 0.001)
	assert.Equal(t, "A strong, immersive performance.", record.OverallAssessment)
	assert.Equal(t, []string{"world-building", "voice"}, record.KeyStrengths)
	assert.Equal(t, validResponse, record.RawResponse)
	assert.Positive(t, record.Confidence)
}

func TestNormalizeFencedResponse(t *testing.T) {
	fenced := "Here is my evaluation:\n```json\n" + validResponse + "\n```\nDone."
	record, err := NewNormalizer().Normalize("gpt", fenced)
	require.NoError(t, err)
	assert.Equal(t, 7, record.Scores[domain.CriterionStoryProgression])
}

func TestNormalizeGenericFence(t *testing.T) {
	fenced := "```\n" + validResponse + "\n```"
	record, err := NewNormalizer().Normalize("gpt", fenced)
	require.NoError(t, err)
	assert.Equal(t, 8, record.Scores[domain.CriterionFantasyFulfillment])
}

func TestNormalizeEmbeddedJSON(t *testing.T) {
	embedded := "My thinking: the scores follow.\n\n" + validResponse + "\n\nThat concludes the evaluation."
	record, err := NewNormalizer().Normalize("claude", embedded)
	require.NoError(t, err)
	assert.Equal(t, 8, record.Scores[domain.CriterionCharacterAuthenticity])
}

func TestNormalizeRoundsFractionalScores(t *testing.T) {
	response := strings.Replace(validResponse, `"character_immersion": 8`, `"character_immersion": 7.6`, 1)
	record, err := NewNormalizer().Normalize("gpt", response)
	require.NoError(t, err)
	assert.Equal(t, 8, record.Scores[domain.CriterionCharacterImmersion])
}

func TestNormalizeNoJSON(t *testing.T) {
	_, err := NewNormalizer().Normalize("gpt", "I cannot evaluate this conversation.")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "gpt", parseErr.Evaluator)
	assert.Contains(t, parseErr.Error(), "no JSON object found")
}

func TestNormalizeMissingSections(t *testing.T) {
	_, err := NewNormalizer().Normalize("gpt", `{"scores": {"character_immersion": 8}}`)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Reason, "missing scores or reasoning")
}

func TestNormalizeMissingCriteria(t *testing.T) {
	response := strings.Replace(validResponse, `"emotional_journey": 9`, `"emotionl_journey": 9`, 1)
	_, err := NewNormalizer().Normalize("gpt", response)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, []domain.Criterion{domain.CriterionEmotionalJourney}, parseErr.MissingCriteria)
	assert.Equal(t, "emotionl_journey", parseErr.Suggestions[domain.CriterionEmotionalJourney])
	assert.Contains(t, parseErr.Error(), "missing emotional_journey")
}

func TestNormalizeTruncatedResponse(t *testing.T) {
	// Cut off mid-way through the reasoning section, as long responses
	// sometimes are.
	idx := strings.Index(validResponse, `"emotional_journey": "Built`)
	require.Positive(t, idx)
	truncated := validResponse[:idx]

	record, err := NewNormalizer().Normalize("deepseek", truncated)
	require.NoError(t, err)

	assert.Equal(t, 8, record.Scores[domain.CriterionCharacterImmersion])
	assert.Equal(t, 8, record.Scores[domain.CriterionCharacterAuthenticity])
	assert.Empty(t, record.Reasoning[domain.CriterionEmotionalJourney])
}

func TestNormalizeHookRepairsResponse(t *testing.T) {
	n := NewNormalizer()
	n.RegisterHook("quirky", func(raw string) string {
		return strings.TrimPrefix(raw, "EVALUATION>>>")
	})

	record, err := n.Normalize("quirky", "EVALUATION>>>"+validResponse)
	require.NoError(t, err)
	assert.Equal(t, 8, record.Scores[domain.CriterionInteractiveAgency])
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "plain object",
			response: `{"a": 1}`,
			want:     `{"a": 1}`,
		},
		{
			name:     "nested object",
			response: `prefix {"a": {"b": 2}} suffix`,
			want:     `{"a": {"b": 2}}`,
		},
		{
			name:     "braces inside strings",
			response: `{"a": "open { and close }"}`,
			want:     `{"a": "open { and close }"}`,
		},
		{
			name:     "escaped quotes",
			response: `{"a": "say \"hi\" {"}`,
			want:     `{"a": "say \"hi\" {"}`,
		},
		{
			name:     "json fence",
			response: "```json\n{\"a\": 1}\n```",
			want:     `{"a": 1}`,
		},
		{
			name:     "generic fence with language line",
			response: "```javascript\n{\"a\": 1}\n```",
			want:     `{"a": 1}`,
		},
		{
			name:     "no object",
			response: "nothing here",
			want:     "",
		},
		{
			name:     "unbalanced returns fragment",
			response: `{"a": 1, "b":`,
			want:     `{"a": 1, "b":`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.response))
		})
	}
}

func TestRepairTruncatedJSON(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{
			name:     "balanced unchanged",
			fragment: `{"a": 1}`,
			want:     `{"a": 1}`,
		},
		{
			name:     "dangling key",
			fragment: `{"a": 1, "b"`,
			want:     `{"a": 1}`,
		},
		{
			name:     "dangling nested member",
			fragment: `{"a": {"b": 2, "c": 3, "d`,
			want:     `{"a": {"b": 2, "c": 3}}`,
		},
		{
			name:     "cut inside string value",
			fragment: `{"a": "unterminat`,
			want:     `{"a": "unterminat}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairTruncatedJSON(tt.fragment))
		})
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	normalizer := NewNormalizer()

	first, err := normalizer.Normalize("deepseek", validResponse)
	require.NoError(t, err)
	second, err := normalizer.Normalize("deepseek", validResponse)
	require.NoError(t, err)

	// Same raw text always yields an identical record.
	assert.Equal(t, first, second)
}
