package domain

import "time"

// Role identifies the speaker of a transcript message.
type Role string

// Transcript speaker roles. The user role covers both real users and
// the simulated user in generated conversations.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a character conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Transcript is an ordered character conversation plus the identifiers
// needed to tie it back to its character, scenario, and chat provider.
type Transcript struct {
	ID          string    `json:"conversation_id"`
	CharacterID string    `json:"character_id"`
	ScenarioID  string    `json:"scenario_id"`
	Provider    string    `json:"provider"`
	Messages    []Message `json:"messages"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Append adds a message to the transcript.
func (t *Transcript) Append(role Role, content string) {
	t.Messages = append(t.Messages, Message{Role: role, Content: content, Timestamp: time.Now().UTC()})
}

// TranscriptStats summarizes a transcript for persistence and reports.
type TranscriptStats struct {
	MessageCount      int `json:"message_count"`
	TotalLength       int `json:"total_length"`
	UserMessages      int `json:"user_messages"`
	AssistantMessages int `json:"assistant_messages"`
}

// Stats computes message counts and total content length.
func (t *Transcript) Stats() TranscriptStats {
	stats := TranscriptStats{MessageCount: len(t.Messages)}
	for _, m := range t.Messages {
		stats.TotalLength += len(m.Content)
		switch m.Role {
		case RoleUser:
			stats.UserMessages++
		case RoleAssistant:
			stats.AssistantMessages++
		}
	}
	return stats
}
