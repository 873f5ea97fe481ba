package harness

import (
	"fmt"
	"io"
	"sync"
)

// OutcomeKind discriminates what a command handler asked the REPL to do.
type OutcomeKind string

const (
	// OutcomeContinue means no state change; the loop continues.
	OutcomeContinue OutcomeKind = "continue"
	// OutcomeExit means the REPL must terminate with the carried code.
	OutcomeExit OutcomeKind = "exit"
	// OutcomeReplace means the carried context replaces the current one.
	OutcomeReplace OutcomeKind = "replace"
)

// Outcome is the tagged result of a command handler.
type Outcome struct {
	Kind    OutcomeKind
	Code    int
	Context *Context
}

// Continue reports no state change.
func Continue() Outcome { return Outcome{Kind: OutcomeContinue} }

// Exit asks the REPL to terminate with the given process exit code.
func Exit(code int) Outcome { return Outcome{Kind: OutcomeExit, Code: code} }

// Replace swaps the conversation context for ctx.
func Replace(ctx *Context) Outcome { return Outcome{Kind: OutcomeReplace, Context: ctx} }

// Handler receives the current conversation context and decides the outcome.
// Handlers never retain the context beyond the call.
type Handler func(ctx *Context) Outcome

// Command is an immutable slash command: name, description, handler.
type Command struct {
	Name        string
	Description string
	Handler     Handler
}

// CommandRegistry maps a leading-slash token to its handler. Commands are
// registered once at startup and never removed at runtime; they bypass the
// model entirely so the session can always be reset or terminated without a
// network call.
type CommandRegistry struct {
	commands map[string]Command
	order    []string
	mu       sync.RWMutex
}

// NewCommandRegistry creates an empty CommandRegistry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]Command)}
}

// Register adds a command. Registering a duplicate name is an error.
func (r *CommandRegistry) Register(name, description string, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s is already registered", name)
	}
	r.commands[name] = Command{Name: name, Description: description, Handler: handler}
	r.order = append(r.order, name)
	return nil
}

// Get returns a command by name.
func (r *CommandRegistry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// List returns all registered commands in registration order.
func (r *CommandRegistry) List() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}

// RegisterBuiltins registers the built-in session commands: /help, /clear,
// /exit and /quit. Help text is written to out.
func RegisterBuiltins(r *CommandRegistry, out io.Writer) {
	_ = r.Register("/help", "List available commands", func(*Context) Outcome {
		for _, cmd := range r.List() {
			fmt.Fprintf(out, "%-8s %s\n", cmd.Name, cmd.Description)
		}
		return Continue()
	})
	_ = r.Register("/clear", "Clear the conversation history", func(*Context) Outcome {
		return Replace(NewContext())
	})
	exit := func(*Context) Outcome { return Exit(0) }
	_ = r.Register("/exit", "Exit the session", exit)
	_ = r.Register("/quit", "Exit the session", exit)
}
