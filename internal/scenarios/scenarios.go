// Package scenarios defines the built-in conversation scenarios used to
// exercise characters. Each scenario works for any character category
// while stressing a different mix of the evaluation criteria.
package scenarios

import (
	"math/rand"
	"sort"
)

// Scenario describes one conversation setup: the opening user message,
// exchange targets, the criteria it stresses, the beat-by-beat flow the
// user simulator follows, and fallback follow-up prompts.
type Scenario struct {
	ID                 string
	Name               string
	Description        string
	InitialUserMessage string

	// TargetExchanges is the intended conversation length in exchanges
	// (one user message plus one character reply). Min and Max bound
	// acceptable lengths.
	TargetExchanges int
	MinExchanges    int
	MaxExchanges    int

	// PrimaryCriteria and SecondaryCriteria name the evaluation focus
	// in display form, rendered into the judge prompt.
	PrimaryCriteria   []string
	SecondaryCriteria []string

	// ConversationFlow lists the intended beats in order. The user
	// simulator is steered by the beat matching the current exchange.
	ConversationFlow []string

	// FollowUpPrompts are fallback user messages when the flow runs out
	// of beats.
	FollowUpPrompts []string
}

// FollowUp returns a follow-up prompt chosen with r, or the empty
// string when the scenario has none.
func (s Scenario) FollowUp(r *rand.Rand) string {
	if len(s.FollowUpPrompts) == 0 {
		return ""
	}
	return s.FollowUpPrompts[r.Intn(len(s.FollowUpPrompts))]
}

// Catalog serves the built-in scenarios by ID.
type Catalog struct {
	scenarios map[string]Scenario
}

// NewCatalog returns a catalog with the five built-in scenarios.
func NewCatalog() *Catalog {
	c := &Catalog{scenarios: make(map[string]Scenario, len(builtin))}
	for _, s := range builtin {
		c.scenarios[s.ID] = s
	}
	return c
}

// Get returns the scenario with the given ID.
func (c *Catalog) Get(id string) (Scenario, bool) {
	s, ok := c.scenarios[id]
	return s, ok
}

// List returns all scenarios sorted by ID.
func (c *Catalog) List() []Scenario {
	out := make([]Scenario, 0, len(c.scenarios))
	for _, s := range c.scenarios {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns all scenario IDs sorted alphabetically.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.scenarios))
	for id := range c.scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of scenarios in the catalog.
func (c *Catalog) Len() int { return len(c.scenarios) }

var builtin = []Scenario{
	{
		ID:                 "seeking_guidance",
		Name:               "Seeking Guidance",
		Description:        "User approaches character with a personal dilemma needing wisdom and perspective",
		InitialUserMessage: "I'm facing a difficult decision in my life and I'm not sure what path to take. I could really use some guidance from someone with wisdom.",
		TargetExchanges:    12,
		MinExchanges:       10,
		MaxExchanges:       15,
		PrimaryCriteria: []string{
			"Character Authenticity Within Fantasy",
			"Emotional Journey Creation",
		},
		SecondaryCriteria: []string{
			"Interactive Agency & User Impact",
			"Character Immersion Quality",
		},
		ConversationFlow: []string{
			"User presents personal dilemma/decision",
			"Character responds with authentic reaction based on their nature",
			"User provides more specific context about the situation",
			"Character offers perspective/guidance drawing from their background",
			"User asks follow-up questions or seeks clarification",
			"Character deepens engagement, maybe shares relevant experience",
			"User explores implications of the advice",
			"Character reinforces support while maintaining their authentic voice",
			"Natural conclusion with user feeling genuinely helped",
		},
		FollowUpPrompts: []string{
			"Can you help me think through the potential consequences?",
			"Have you ever faced something similar?",
			"What would you do in my position?",
			"I'm worried about making the wrong choice...",
			"How do I know if I'm being too cautious or too reckless?",
		},
	},
	{
		ID:                 "emotional_support",
		Name:               "Emotional Support",
		Description:        "User seeks comfort and understanding during emotional distress",
		InitialUserMessage: "I've been going through a really tough time lately and I'm feeling overwhelmed. Everything seems to be falling apart and I don't know how to cope.",
		TargetExchanges:    14,
		MinExchanges:       12,
		MaxExchanges:       16,
		PrimaryCriteria: []string{
			"Emotional Journey Creation",
			"Character Authenticity Within Fantasy",
		},
		SecondaryCriteria: []string{
			"Character Immersion Quality",
			"Fantasy Fulfillment & Escapism",
		},
		ConversationFlow: []string{
			"User expresses emotional distress and vulnerability",
			"Character responds with immediate empathy and authentic concern",
			"User elaborates on what's troubling them",
			"Character provides comfort in their unique style/voice",
			"User opens up more about specific fears or pain",
			"Character offers perspective while validating emotions",
			"User seeks reassurance or practical comfort",
			"Character provides support drawing from their nature/background",
			"User begins to feel heard and less alone",
			"Character reinforces their availability and care",
			"Natural conclusion with user feeling emotionally supported",
		},
		FollowUpPrompts: []string{
			"I just feel so alone in this...",
			"How do you stay strong when everything is hard?",
			"Will things really get better?",
			"I'm scared I won't be able to handle this...",
			"Sometimes I wonder if I'm just not strong enough...",
		},
	},
	{
		ID:                 "character_introduction",
		Name:               "Character Introduction",
		Description:        "First meeting where character establishes their world, personality, and creates initial engagement",
		InitialUserMessage: "Hello there! I'm new to these parts and I couldn't help but notice you. You seem... interesting. Mind if I introduce myself?",
		TargetExchanges:    10,
		MinExchanges:       8,
		MaxExchanges:       12,
		PrimaryCriteria: []string{
			"Character Immersion Quality",
			"Story Progression & Development",
		},
		SecondaryCriteria: []string{
			"Character Authenticity Within Fantasy",
			"Fantasy Fulfillment & Escapism",
		},
		ConversationFlow: []string{
			"User approaches with friendly, curious introduction",
			"Character responds with authentic first impression/greeting",
			"User shows interest in character's background or current activity",
			"Character shares something about themselves or their world",
			"User asks follow-up questions about character's life/profession",
			"Character elaborates while maintaining mystery/intrigue",
			"User expresses fascination or curiosity about character's world",
			"Character invites deeper engagement or hints at adventures",
			"Natural conclusion that leaves user wanting to know more",
		},
		FollowUpPrompts: []string{
			"That sounds fascinating! Tell me more about what you do.",
			"I've never met anyone quite like you before...",
			"Your life sounds so different from anything I know.",
			"What's the most interesting thing that's happened to you recently?",
			"I feel like there's so much more to your story...",
		},
	},
	{
		ID:                 "crisis_response",
		Name:               "Crisis Response",
		Description:        "Character faces unexpected urgent situation requiring quick thinking and authentic concern",
		InitialUserMessage: "Something terrible has happened! I was just walking by and saw what looked like an accident. People might be hurt and I don't know what to do. Can you help?",
		TargetExchanges:    11,
		MinExchanges:       9,
		MaxExchanges:       13,
		PrimaryCriteria: []string{
			"Interactive Agency & User Impact",
			"Character Authenticity Within Fantasy",
		},
		SecondaryCriteria: []string{
			"Emotional Journey Creation",
			"Story Progression & Development",
		},
		ConversationFlow: []string{
			"User presents urgent crisis/emergency situation",
			"Character responds with immediate authentic concern and action",
			"User provides more details about the emergency",
			"Character takes charge or offers specific help based on their nature",
			"User looks to character for guidance on next steps",
			"Character demonstrates competence while showing genuine care",
			"User follows character's lead or asks about their capabilities",
			"Character adapts to situation while maintaining authenticity",
			"Crisis resolves with character having made meaningful impact",
			"User expresses gratitude for character's help",
		},
		FollowUpPrompts: []string{
			"I'm so glad you're here to help!",
			"How did you know exactly what to do?",
			"I was so scared - thank you for taking charge.",
			"Have you dealt with situations like this before?",
			"I don't know what I would have done without you...",
		},
	},
	{
		ID:                 "curiosity_exploration",
		Name:               "Curiosity & Exploration",
		Description:        "User's curiosity leads to character revealing mysteries, stories, and deeper world-building",
		InitialUserMessage: "I've been wondering about something ever since I met you. There's clearly more to your story than meets the eye. Would you mind sharing something about your world that most people never get to see?",
		TargetExchanges:    13,
		MinExchanges:       11,
		MaxExchanges:       15,
		PrimaryCriteria: []string{
			"Fantasy Fulfillment & Escapism",
			"Story Progression & Development",
		},
		SecondaryCriteria: []string{
			"Character Immersion Quality",
			"Interactive Agency & User Impact",
		},
		ConversationFlow: []string{
			"User expresses curiosity about character's hidden depths/secrets",
			"Character decides to share something intriguing about their world",
			"User becomes fascinated and asks for more details",
			"Character reveals deeper layer while building mystery",
			"User's questions guide the direction of revelations",
			"Character shares personal story or secret knowledge",
			"User expresses amazement and asks about implications",
			"Character invites user deeper into their world/story",
			"User feels privileged to learn these secrets",
			"Character hints at even greater mysteries beyond",
			"Natural conclusion leaving user craving more adventures",
		},
		FollowUpPrompts: []string{
			"That's incredible! How is that even possible?",
			"I had no idea your world was so complex...",
			"What else haven't you told me?",
			"I feel like I'm getting a glimpse into something extraordinary.",
			"Could you teach me more about this?",
		},
	},
}
