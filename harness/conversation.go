package harness

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a conversation item.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall records a model-initiated tool invocation carried on an
// assistant item.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolPayload is the structured content of a tool item: the rendered result
// of one tool call, keyed back to the call that produced it.
type ToolPayload struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// Item is one message or tool-call record in the session transcript.
// Every item carries a unique identity token; replaying an item with a
// duplicate identity into a Context is rejected.
type Item struct {
	ID        string       `json:"id"`
	Role      Role         `json:"role"`
	Timestamp time.Time    `json:"timestamp"`
	Content   string       `json:"content,omitempty"`
	ToolCalls []ToolCall   `json:"tool_calls,omitempty"` // assistant items only
	Tool      *ToolPayload `json:"tool,omitempty"`       // tool items only
}

// NewUserItem creates a user Item with a fresh identity token.
func NewUserItem(content string) Item {
	return Item{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Timestamp: time.Now(),
		Content:   content,
	}
}

// NewAssistantItem creates an assistant Item wrapping response text and any
// tool calls the model requested.
func NewAssistantItem(content string, toolCalls []ToolCall) Item {
	return Item{
		ID:        uuid.New().String(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Content:   content,
		ToolCalls: toolCalls,
	}
}

// NewToolItem creates a tool Item holding the result of one tool call.
func NewToolItem(toolCallID, name, content string, isError bool) Item {
	return Item{
		ID:        uuid.New().String(),
		Role:      RoleTool,
		Timestamp: time.Now(),
		Tool: &ToolPayload{
			ToolCallID: toolCallID,
			Name:       name,
			Content:    content,
			IsError:    isError,
		},
	}
}

// Context is the ordered conversation transcript, replayed verbatim to the
// agent runner on every prompt. Insertion order is significant. The context
// is owned by the REPL loop; it is replaced wholesale after a model turn and
// by the /clear command, never merged.
type Context struct {
	items []Item
	seen  map[string]struct{}
}

// NewContext creates an empty conversation context.
func NewContext() *Context {
	return &Context{seen: make(map[string]struct{})}
}

// NewContextFromHistory builds a context from a complete history, validating
// the identity-uniqueness invariant. It is used to adopt the transcript a
// runner returns after a turn.
func NewContextFromHistory(items []Item) (*Context, error) {
	c := NewContext()
	for _, item := range items {
		if err := c.Append(item); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Append adds an item to the end of the transcript. An item whose identity
// token is already present is rejected.
func (c *Context) Append(item Item) error {
	if item.ID == "" {
		return fmt.Errorf("conversation item has no identity token")
	}
	if _, dup := c.seen[item.ID]; dup {
		return fmt.Errorf("duplicate conversation item identity %s", item.ID)
	}
	c.seen[item.ID] = struct{}{}
	c.items = append(c.items, item)
	return nil
}

// Items returns a copy of the transcript in insertion order.
func (c *Context) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items in the transcript.
func (c *Context) Len() int { return len(c.items) }

// Clone returns an independent copy of the context.
func (c *Context) Clone() *Context {
	clone := NewContext()
	clone.items = make([]Item, len(c.items))
	copy(clone.items, c.items)
	for id := range c.seen {
		clone.seen[id] = struct{}{}
	}
	return clone
}
