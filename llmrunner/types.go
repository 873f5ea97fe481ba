package llmrunner

import (
	"github.com/atirut-w/gpt-code/harness"
)

// Role identifies who produced a provider-facing message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a provider request. The harness transcript is
// flattened into these before each model call.
type Message struct {
	Role       Role               `json:"role"`
	Content    string             `json:"content,omitempty"`
	ToolCalls  []harness.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string             `json:"tool_call_id,omitempty"`
	IsError    bool               `json:"is_error,omitempty"`
}

// Request is the input to a provider call.
type Request struct {
	Model    string               `json:"model"`
	Messages []Message            `json:"messages"`
	Tools    []harness.Definition `json:"tools,omitempty"`
}

// Usage tracks token consumption for one call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response is the output of a provider call.
type Response struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Provider  string             `json:"provider"`
	Text      string             `json:"text"`
	ToolCalls []harness.ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage              `json:"usage"`
}

// historyToMessages flattens the harness transcript into provider messages.
func historyToMessages(systemPrompt string, history []harness.Item) []Message {
	messages := make([]Message, 0, len(history)+1)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	for _, item := range history {
		switch item.Role {
		case harness.RoleUser:
			messages = append(messages, Message{Role: RoleUser, Content: item.Content})
		case harness.RoleAssistant:
			messages = append(messages, Message{
				Role:      RoleAssistant,
				Content:   item.Content,
				ToolCalls: item.ToolCalls,
			})
		case harness.RoleTool:
			if item.Tool != nil {
				messages = append(messages, Message{
					Role:       RoleTool,
					Content:    item.Tool.Content,
					ToolCallID: item.Tool.ToolCallID,
					IsError:    item.Tool.IsError,
				})
			}
		}
	}
	return messages
}
