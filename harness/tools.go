package harness

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// ResultKind discriminates tool result shapes. The runner's tool-result
// channel is string-typed, so every kind renders to text, but consumers that
// care about shape (e.g. list_dir and glob returning sequences) can
// pattern-match on the kind instead of sniffing strings.
type ResultKind string

const (
	ResultText     ResultKind = "text"
	ResultTextList ResultKind = "text_list"
	ResultError    ResultKind = "error"
)

// Result is the tagged result of a tool execution.
type Result struct {
	Kind ResultKind
	Text string
	List []string
}

// TextResult wraps plain text output.
func TextResult(text string) Result {
	return Result{Kind: ResultText, Text: text}
}

// ListResult wraps a sequence of text tokens (directory entries, file paths).
func ListResult(items []string) Result {
	return Result{Kind: ResultTextList, List: items}
}

// ErrorResult wraps a failure message. Rendered with an "Error: " prefix so
// resource failures surface as strings rather than crashing the turn.
func ErrorResult(message string) Result {
	return Result{Kind: ResultError, Text: message}
}

// ErrorResultf formats a failure message.
func ErrorResultf(format string, args ...interface{}) Result {
	return ErrorResult(fmt.Sprintf(format, args...))
}

// IsError reports whether the result is a failure.
func (r Result) IsError() bool { return r.Kind == ResultError }

// Render flattens the result to the string form sent back to the runner.
func (r Result) Render() string {
	switch r.Kind {
	case ResultTextList:
		return strings.Join(r.List, "\n")
	case ResultError:
		return "Error: " + r.Text
	default:
		return r.Text
	}
}

// Executor is the function signature for tool execution. It receives the
// raw JSON arguments from the runner and returns a tagged Result. Executors
// report resource failures through ErrorResult; a non-nil error is reserved
// for malformed arguments.
type Executor func(arguments json.RawMessage) (Result, error)

// Definition describes a tool for the model (serializable metadata).
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// RegisteredTool pairs a tool definition with its executor.
type RegisteredTool struct {
	Definition Definition
	Executor   Executor
}

// Registry manages tool registration and lookup. It is the fixed catalog
// handed to the agent runner at session start; tools are registered once at
// startup and never removed at runtime.
type Registry struct {
	tools map[string]*RegisteredTool
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates an empty tool Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*RegisteredTool)}
}

// Register adds or replaces a tool in the registry.
func (r *Registry) Register(tool RegisteredTool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := tool.Definition.Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = &tool
}

// Get returns a registered tool by name, or nil if not found.
func (r *Registry) Get(name string) *RegisteredTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Definitions returns all tool definitions in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Names returns the names of all registered tools in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// ParseArguments unmarshals tool call arguments into a map for validation
// and access.
func ParseArguments(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

// GetStringArg extracts a string argument from parsed tool arguments.
func GetStringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetIntArg extracts an integer argument from parsed tool arguments.
func GetIntArg(args map[string]interface{}, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
