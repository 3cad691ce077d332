// Package conversation generates character conversations for
// evaluation. A simulated user, always driven by the gpt provider,
// follows the scenario's flow beats while the character under test
// replies through the chosen chat provider.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"charbench/internal/characters"
	"charbench/internal/domain"
	"charbench/internal/ports"
	"charbench/internal/scenarios"
)

// DefaultUserName is the simulated user's name when none is configured.
const DefaultUserName = "TestUser"

// simulatorSystemPrompt steers the model that plays the user.
const simulatorSystemPrompt = "You are helping generate realistic user responses for character evaluation conversations. Be natural and engaging."

// recentHistoryWindow is how many trailing messages the user simulator
// sees, two full exchanges.
const recentHistoryWindow = 4

// Generator produces complete transcripts for a character and scenario.
type Generator struct {
	userClient ports.ModelClient
	logger     *slog.Logger
	rng        *rand.Rand
	userName   string
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithUserName overrides the simulated user's name.
func WithUserName(name string) GeneratorOption {
	return func(g *Generator) {
		if name != "" {
			g.userName = name
		}
	}
}

// WithRand injects the random source used for follow-up selection.
func WithRand(r *rand.Rand) GeneratorOption {
	return func(g *Generator) {
		if r != nil {
			g.rng = r
		}
	}
}

// NewGenerator creates a generator. userClient drives the simulated
// user and must always be the gpt provider.
func NewGenerator(userClient ports.ModelClient, logger *slog.Logger, opts ...GeneratorOption) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		userClient: userClient,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		userName:   DefaultUserName,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs a full conversation: the scenario's opening message,
// the character's first reply, then alternating simulated-user and
// character turns until the exchange target is reached or a quality
// check fails. characterClient answers as the character through the
// named provider.
func (g *Generator) Generate(
	ctx context.Context,
	character characters.Character,
	scenario scenarios.Scenario,
	characterClient ports.ModelClient,
	provider string,
) (*domain.Transcript, error) {
	transcript := &domain.Transcript{
		ID:          uuid.NewString(),
		CharacterID: character.ID,
		ScenarioID:  scenario.ID,
		Provider:    provider,
		CreatedAt:   time.Now().UTC(),
	}

	transcript.Append(domain.RoleUser, scenario.InitialUserMessage)

	systemPrompt := character.SystemPrompt(g.userName, "other", "")
	reply, _, err := characterClient.Complete(ctx, systemPrompt, scenario.InitialUserMessage, nil)
	if err != nil {
		return nil, fmt.Errorf("generating opening character response: %w", err)
	}
	transcript.Append(domain.RoleAssistant, reply)

	// Each exchange is one user message plus one character reply; the
	// target counts individual turns.
	maxExchanges := scenario.TargetExchanges / 2
	exchanges := 1

	for exchangeNum := 2; exchangeNum <= maxExchanges; exchangeNum++ {
		userMessage := g.generateUserMessage(ctx, transcript, scenario, exchangeNum)
		if userMessage == "" {
			break
		}
		transcript.Append(domain.RoleUser, userMessage)

		systemPrompt = character.SystemPrompt(g.userName, "other", g.formattedHistory(transcript, character.Name))
		reply, _, err = characterClient.Complete(ctx, systemPrompt, userMessage, nil)
		if err != nil {
			return nil, fmt.Errorf("generating character response at exchange %d: %w", exchangeNum, err)
		}
		transcript.Append(domain.RoleAssistant, reply)
		exchanges++

		if !lastExchangePassesQuality(transcript) {
			g.logger.Warn("conversation quality check failed",
				"conversation", transcript.ID,
				"exchange", exchangeNum)
			break
		}
	}

	g.logger.Info("generated conversation",
		"conversation", transcript.ID,
		"character", character.ID,
		"scenario", scenario.ID,
		"provider", provider,
		"exchanges", exchanges,
		"messages", len(transcript.Messages))
	return transcript, nil
}

// generateUserMessage asks the simulator for the next user turn. Model
// failures fall back to a random scenario follow-up prompt; an empty
// result ends the conversation.
func (g *Generator) generateUserMessage(
	ctx context.Context,
	transcript *domain.Transcript,
	scenario scenarios.Scenario,
	exchangeNum int,
) string {
	guidance := ""
	if exchangeNum-1 < len(scenario.ConversationFlow) {
		guidance = scenario.ConversationFlow[exchangeNum-1]
	} else if len(scenario.FollowUpPrompts) > 0 {
		guidance = scenario.FollowUp(g.rng)
	}

	prompt := g.buildSimulatorPrompt(transcript, scenario, guidance)

	response, _, err := g.userClient.Complete(ctx, simulatorSystemPrompt, prompt, nil)
	if err != nil {
		g.logger.Warn("user simulation failed, using scenario follow-up",
			"conversation", transcript.ID,
			"error", err)
		return scenario.FollowUp(g.rng)
	}

	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, `"`) && strings.HasSuffix(response, `"`) && len(response) >= 2 {
		response = response[1 : len(response)-1]
	}
	return response
}

func (g *Generator) buildSimulatorPrompt(
	transcript *domain.Transcript, scenario scenarios.Scenario, guidance string,
) string {
	var history strings.Builder
	messages := transcript.Messages
	if len(messages) > recentHistoryWindow {
		messages = messages[len(messages)-recentHistoryWindow:]
	}
	for _, msg := range messages {
		if msg.Role == domain.RoleUser {
			fmt.Fprintf(&history, "User: %s\n", msg.Content)
		} else {
			fmt.Fprintf(&history, "Character: %s\n", msg.Content)
		}
	}

	return fmt.Sprintf(`You are a user having a conversation with an AI character in the %q scenario.

Scenario Description: %s

Recent conversation:
%s
Your role: Continue this conversation naturally as a user who %s.

Guidance for this response: %s

Generate a natural user response that:
1. Follows the conversation flow naturally
2. Shows genuine engagement with the character
3. Advances the scenario objectives
4. Feels like a real person's response (not robotic)
5. Is 1-3 sentences long

Respond only with the user message, no quotes or formatting.`,
		scenario.Name, scenario.Description, history.String(), strings.ToLower(scenario.Description), guidance)
}

// formattedHistory renders all but the latest message as named turns
// for the character's system prompt.
func (g *Generator) formattedHistory(transcript *domain.Transcript, characterName string) string {
	if len(transcript.Messages) == 0 {
		return ""
	}

	lines := make([]string, 0, len(transcript.Messages)-1)
	for _, msg := range transcript.Messages[:len(transcript.Messages)-1] {
		if msg.Role == domain.RoleUser {
			lines = append(lines, fmt.Sprintf("%s: %s", g.userName, msg.Content))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %s", characterName, msg.Content))
		}
	}
	return strings.Join(lines, "\n\n")
}

// lastExchangePassesQuality applies five substance checks to the most
// recent exchange and passes when at least four hold.
func lastExchangePassesQuality(transcript *domain.Transcript) bool {
	n := len(transcript.Messages)
	if n < 2 {
		return true
	}

	var userMsg, charMsg string
	for _, msg := range transcript.Messages[n-2:] {
		if msg.Role == domain.RoleUser {
			userMsg = msg.Content
		} else {
			charMsg = msg.Content
		}
	}

	checks := []bool{
		len(userMsg) > 10,
		len(charMsg) > 20,
		!strings.HasPrefix(strings.ToLower(userMsg), "error"),
		!strings.HasPrefix(strings.ToLower(charMsg), "error"),
		strings.Count(userMsg, "...") < 3,
	}

	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	return passed >= 4
}
