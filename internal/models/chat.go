package models

import (
	"encoding/json"
	"time"
)

// UserClass distinguishes entitlement tiers.
type UserClass string

const (
	UserClassGuest   UserClass = "guest"
	UserClassRegular UserClass = "regular"
)

// Visibility controls who can read a chat.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Chat is one conversation owned by a user. LastContext holds the usage
// summary of the most recent turn as written by the stream merger.
type Chat struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Title       string          `json:"title"`
	Visibility  Visibility      `json:"visibility"`
	LastContext json.RawMessage `json:"lastContext,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartType tags one element of a message body.
type PartType string

const (
	PartText       PartType = "text"
	PartReasoning  PartType = "reasoning"
	PartAttachment PartType = "attachment"
	PartToolCall   PartType = "tool-call"
	PartToolResult PartType = "tool-result"
)

// Part is one typed element of a message body.
type Part struct {
	Type PartType `json:"type"`

	Text string `json:"text,omitempty"`

	// Attachment reference.
	URL       string `json:"url,omitempty"`
	MediaType string `json:"mediaType,omitempty"`

	// Tool call/result payloads.
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
}

// Message is one entry in a conversation. History is immutable input to
// classification and generation; the newest element of a turn is always
// the just-submitted user message.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"createdAt"`
}

// TextContent concatenates the text parts of a message.
func (m Message) TextContent() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// APICallsUsage is the quota display payload for the companion read endpoint.
type APICallsUsage struct {
	Used      int       `json:"used"`
	Max       int       `json:"max"`
	UserClass UserClass `json:"userType"`
}
