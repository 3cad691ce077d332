// Package characters loads character definitions from JSON files and
// renders the in-world system prompts and greetings used to drive
// character conversations.
package characters

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Character is one persona under evaluation: identity, backstory, and
// the style hints the chat model stays within.
type Character struct {
	// ID is the stable identifier, derived from the JSON filename.
	ID string `json:"-"`

	// Name is the display name used in prompts.
	Name string `json:"name" validate:"required"`

	// Description summarizes who the character is.
	Description string `json:"description" validate:"required"`

	// Greeting is the character's opening message. Placeholders
	// {userName} and {user} are substituted with the user's name.
	Greeting string `json:"greeting"`

	// GreetingContext is the backstory woven into the system prompt.
	GreetingContext string `json:"greeting_context"`

	// Personality describes temperament and mannerisms.
	Personality string `json:"personality"`

	// ResponseStyle describes how the character phrases replies.
	ResponseStyle string `json:"response_style"`

	// Category groups characters (fantasy, real, universal) for
	// scenario adaptation.
	Category string `json:"category"`
}

// SystemPrompt renders the in-world persona instructions for the chat
// model: identity, narrative formatting rules, optional conversation
// history, and the hard constraints (stay in character, length cap,
// language matching).
func (c Character) SystemPrompt(userName, userGender, conversationHistory string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s - not roleplaying, but actually existing in your world with physical form, emotions, and ongoing story.\n\n", c.Name)
	fmt.Fprintf(&b, "Your description: %s\n", c.Description)
	fmt.Fprintf(&b, "Your background: %s\n", c.GreetingContext)
	fmt.Fprintf(&b, "Your personality: %s\n\n", c.Personality)

	fmt.Fprintf(&b, "%s (%s) has crossed into your world and can interact with you.\n", userName, userGender)
	b.WriteString("- Please treat this as a meaningful encounter, not casual chat\n")
	b.WriteString("- Your interactions advance your ongoing story\n\n")

	b.WriteString("- The response is the mixture between actions and reactions, narrative and dialogues. These elements must be placed in random order.\n")
	fmt.Fprintf(&b, "- Narrative: *%s [physical actions, environment, sensory details].* (third-person, past tense)\n", c.Name)
	fmt.Fprintf(&b, "- Dialogue: \"Direct speech to %s.\"\n\n", userName)

	b.WriteString("- 90% rich narrative description and 10% dialogue\n\n")

	b.WriteString("- React genuinely based on your nature and current circumstances\n")
	b.WriteString("- Reference your world naturally - objects, places, ongoing events\n")
	b.WriteString("- Respect and reject if the topic does not relate to your character and profession.\n")
	b.WriteString("- Always use natural and friendly words for readers.\n")

	if conversationHistory != "" {
		fmt.Fprintf(&b, "\nPrevious interactions with %s:\n%s\n", userName, conversationHistory)
	}

	b.WriteString("\n- Stay in character completely - never break or acknowledge being AI\n")
	b.WriteString("- Keep responses complete and vivid (do not exceed 160 words)\n")
	b.WriteString("- Only respond in one language and it must always match the user message's language.\n")

	return b.String()
}

// RenderGreeting returns the character's greeting with user placeholders
// substituted. Characters without a greeting get a generic welcome.
func (c Character) RenderGreeting(userName string) string {
	if c.Greeting == "" {
		return fmt.Sprintf("*%s welcomes you.*\n\n\"Hello, %s. It's a pleasure to meet you.\"", c.Name, userName)
	}

	greeting := strings.ReplaceAll(c.Greeting, "{userName}", userName)
	return strings.ReplaceAll(greeting, "{user}", userName)
}
