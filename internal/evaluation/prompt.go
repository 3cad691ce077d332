// Package evaluation renders judge prompts, normalizes judge responses
// into evaluation records, and fans a transcript out to a panel of
// judge models.
package evaluation

import (
	"fmt"
	"strings"

	"charbench/internal/characters"
	"charbench/internal/domain"
	"charbench/internal/scenarios"
)

// JudgeSystemPrompt is the system prompt sent to every judge model.
const JudgeSystemPrompt = "You are an expert AI conversation evaluator. Follow instructions precisely and return valid JSON."

// BuildEvaluationPrompt renders the unified judge prompt covering all
// six criteria: criterion descriptions, character and scenario context,
// the transcript, and the required JSON output shape.
func BuildEvaluationPrompt(
	transcript *domain.Transcript,
	character characters.Character,
	scenario scenarios.Scenario,
) string {
	var b strings.Builder

	b.WriteString("You are an expert evaluator of character-based conversational AI. Your task is to assess how well this AI character performed across 6 specific criteria during a conversation.\n\n")

	b.WriteString("EVALUATION CRITERIA (Rate each 1-10):\n\n")
	headings := []string{
		"CHARACTER IMMERSION QUALITY",
		"STORY PROGRESSION & DEVELOPMENT",
		"INTERACTIVE AGENCY & USER IMPACT",
		"EMOTIONAL JOURNEY CREATION",
		"FANTASY FULFILLMENT & ESCAPISM",
		"CHARACTER AUTHENTICITY WITHIN FANTASY",
	}
	for i, criterion := range domain.Criteria() {
		fmt.Fprintf(&b, "%d. %s (1-10)\n   %s\n\n", i+1, headings[i], criterion.Description())
	}

	b.WriteString("CHARACTER CONTEXT:\n")
	fmt.Fprintf(&b, "Name: %s\n", valueOr(character.Name, "Unknown"))
	fmt.Fprintf(&b, "Description: %s\n", valueOr(character.Description, "No description"))
	fmt.Fprintf(&b, "Background: %s\n", valueOr(character.GreetingContext, "No background"))
	fmt.Fprintf(&b, "Personality: %s\n", valueOr(character.Personality, "No personality defined"))
	fmt.Fprintf(&b, "Response Style: %s\n", valueOr(character.ResponseStyle, "No style defined"))
	fmt.Fprintf(&b, "Category: %s\n\n", valueOr(character.Category, "Unknown"))

	b.WriteString("SCENARIO CONTEXT:\n")
	fmt.Fprintf(&b, "Scenario: %s\n", valueOr(scenario.Name, "Unknown scenario"))
	fmt.Fprintf(&b, "Description: %s\n", valueOr(scenario.Description, "No description"))
	fmt.Fprintf(&b, "Primary Criteria Focus: %s\n", strings.Join(scenario.PrimaryCriteria, ", "))
	fmt.Fprintf(&b, "Target: %d exchanges\n\n", scenario.TargetExchanges)

	b.WriteString("CONVERSATION TO EVALUATE:\n")
	b.WriteString(FormatConversation(transcript))
	b.WriteString("\n\n")

	b.WriteString(`EVALUATION INSTRUCTIONS:
1. Rate each criterion from 1-10 (1=terrible, 5=adequate, 10=exceptional)
2. Consider the character's background and personality when evaluating authenticity
3. Assess whether the character fulfilled the scenario's objectives
4. Look for specific examples in the conversation to support your scores

REQUIRED OUTPUT FORMAT:
Provide your evaluation in exactly this JSON structure:

{
    "scores": {
        "character_immersion": [1-10 score],
        "story_progression": [1-10 score],
        "interactive_agency": [1-10 score],
        "emotional_journey": [1-10 score],
        "fantasy_fulfillment": [1-10 score],
        "character_authenticity": [1-10 score]
    },
    "reasoning": {
        "character_immersion": "[2-3 sentences explaining this score with specific examples]",
        "story_progression": "[2-3 sentences explaining this score with specific examples]",
        "interactive_agency": "[2-3 sentences explaining this score with specific examples]",
        "emotional_journey": "[2-3 sentences explaining this score with specific examples]",
        "fantasy_fulfillment": "[2-3 sentences explaining this score with specific examples]",
        "character_authenticity": "[2-3 sentences explaining this score with specific examples]"
    },
    "overall_assessment": "[3-4 sentences summarizing the character's performance]",
    "key_strengths": ["strength 1", "strength 2", "strength 3"],
    "key_weaknesses": ["weakness 1", "weakness 2", "weakness 3"],
    "improvement_recommendations": ["specific recommendation 1", "specific recommendation 2"]
}

Evaluate thoroughly and provide specific, actionable feedback.`)

	return b.String()
}

// FormatConversation renders a transcript as alternating USER and
// CHARACTER turns separated by blank lines.
func FormatConversation(transcript *domain.Transcript) string {
	lines := make([]string, 0, len(transcript.Messages))
	for _, msg := range transcript.Messages {
		switch msg.Role {
		case domain.RoleUser:
			lines = append(lines, "USER: "+msg.Content)
		case domain.RoleAssistant:
			lines = append(lines, "CHARACTER: "+msg.Content)
		default:
			lines = append(lines, strings.ToUpper(string(msg.Role))+": "+msg.Content)
		}
	}
	return strings.Join(lines, "\n\n")
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
