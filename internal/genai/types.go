package genai

import (
	"encoding/json"

	"interview-agent/internal/models"
)

// ChatMessage is one wire-level message sent to the generation backend.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a backend-issued request to run a registered tool.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// EventType tags one element of a generation stream.
type EventType string

const (
	EventTextDelta      EventType = "text-delta"
	EventReasoningDelta EventType = "reasoning-delta"
	EventToolCall       EventType = "tool-call"
	EventToolResult     EventType = "tool-result"
)

// Event is one output element emitted by a strategy's generation stream,
// delivered in the exact order the backend produced it.
type Event struct {
	Type EventType `json:"type"`

	Text string `json:"text,omitempty"`

	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
}

// ConvertMessages flattens conversation history into backend wire messages.
// Attachment parts are represented by their URL; tool parts from history
// are dropped since the backend only needs the dialogue itself.
func ConvertMessages(history []models.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		var content string
		for _, p := range m.Parts {
			switch p.Type {
			case models.PartText, models.PartReasoning:
				content += p.Text
			case models.PartAttachment:
				content += "\n[attachment] " + p.URL
			}
		}
		if content == "" {
			continue
		}
		out = append(out, ChatMessage{Role: string(m.Role), Content: content})
	}
	return out
}
