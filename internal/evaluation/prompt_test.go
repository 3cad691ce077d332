package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charbench/internal/characters"
	"charbench/internal/domain"
	"charbench/internal/scenarios"
)

func sampleTranscript() *domain.Transcript {
	t := &domain.Transcript{
		ID:          "conv-1",
		CharacterID: "luna",
		ScenarioID:  "seeking_guidance",
		Provider:    "gpt",
	}
	t.Append(domain.RoleUser, "I need your advice.")
	t.Append(domain.RoleAssistant, "*Luna looks up from the pool.* \"Speak freely.\"")
	return t
}

func TestBuildEvaluationPrompt(t *testing.T) {
	character := characters.Character{
		Name:            "Luna",
		Description:     "A moonlit oracle",
		GreetingContext: "Keeper of the silver grove",
		Personality:     "Serene and cryptic",
		ResponseStyle:   "Poetic narration",
		Category:        "fantasy",
	}
	scenario, ok := scenarios.NewCatalog().Get("seeking_guidance")
	require.True(t, ok)

	prompt := BuildEvaluationPrompt(sampleTranscript(), character, scenario)

	assert.True(t, strings.HasPrefix(prompt, "You are an expert evaluator of character-based conversational AI."))

	// All six criteria headings appear numbered in order.
	assert.Contains(t, prompt, "1. CHARACTER IMMERSION QUALITY (1-10)")
	assert.Contains(t, prompt, "2. STORY PROGRESSION & DEVELOPMENT (1-10)")
	assert.Contains(t, prompt, "3. INTERACTIVE AGENCY & USER IMPACT (1-10)")
	assert.Contains(t, prompt, "4. EMOTIONAL JOURNEY CREATION (1-10)")
	assert.Contains(t, prompt, "5. FANTASY FULFILLMENT & ESCAPISM (1-10)")
	assert.Contains(t, prompt, "6. CHARACTER AUTHENTICITY WITHIN FANTASY (1-10)")

	// Each heading is followed by its rubric description.
	assert.Contains(t, prompt, "World-building richness, immersive storytelling capability")

	assert.Contains(t, prompt, "Name: Luna")
	assert.Contains(t, prompt, "Background: Keeper of the silver grove")
	assert.Contains(t, prompt, "Response Style: Poetic narration")
	assert.Contains(t, prompt, "Scenario: Seeking Guidance")
	assert.Contains(t, prompt, "Primary Criteria Focus: Character Authenticity Within Fantasy, Emotional Journey Creation")
	assert.Contains(t, prompt, "Target: 12 exchanges")

	assert.Contains(t, prompt, "USER: I need your advice.")
	assert.Contains(t, prompt, "CHARACTER: *Luna looks up from the pool.*")

	assert.Contains(t, prompt, `"scores": {`)
	assert.Contains(t, prompt, `"character_authenticity": [1-10 score]`)
	assert.True(t, strings.HasSuffix(prompt, "Evaluate thoroughly and provide specific, actionable feedback."))
}

func TestBuildEvaluationPromptFallbacks(t *testing.T) {
	prompt := BuildEvaluationPrompt(sampleTranscript(), characters.Character{}, scenarios.Scenario{})

	assert.Contains(t, prompt, "Name: Unknown")
	assert.Contains(t, prompt, "Description: No description")
	assert.Contains(t, prompt, "Background: No background")
	assert.Contains(t, prompt, "Personality: No personality defined")
	assert.Contains(t, prompt, "Response Style: No style defined")
	assert.Contains(t, prompt, "Scenario: Unknown scenario")
}

func TestFormatConversation(t *testing.T) {
	transcript := sampleTranscript()
	got := FormatConversation(transcript)

	assert.Equal(t,
		"USER: I need your advice.\n\nCHARACTER: *Luna looks up from the pool.* \"Speak freely.\"",
		got)
}

func TestFormatConversationUnknownRole(t *testing.T) {
	transcript := &domain.Transcript{}
	transcript.Append(domain.Role("system"), "setup")

	assert.Equal(t, "SYSTEM: setup", FormatConversation(transcript))
}
