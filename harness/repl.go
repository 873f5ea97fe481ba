package harness

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"
)

// REPLConfig holds optional REPL dependencies. Zero values fall back to
// standard streams and a no-op logger. When the session also uses a
// StdinConfirmer, Input should be the same *bufio.Reader handed to the
// confirmer so the two never buffer past each other.
type REPLConfig struct {
	Input   io.Reader
	Output  io.Writer
	Prompt  string
	Logger  *zap.Logger
	Emitter *Emitter
}

// REPL drives one interactive session: it reads a line of input, routes it
// to the command registry or the agent runner, and reconciles the returned
// state into the persisted conversation context. The loop is single-threaded
// and strictly sequential; no concurrent turns are possible.
type REPL struct {
	commands *CommandRegistry
	tools    *Registry
	runner   Runner
	context  *Context
	in       *bufio.Reader
	out      io.Writer
	prompt   string
	logger   *zap.Logger
	emitter  *Emitter
}

// NewREPL creates a REPL over the given registries and runner.
func NewREPL(commands *CommandRegistry, tools *Registry, runner Runner, cfg *REPLConfig) *REPL {
	if cfg == nil {
		cfg = &REPLConfig{}
	}
	in := cfg.Input
	if in == nil {
		in = os.Stdin
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = "> "
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &REPL{
		commands: commands,
		tools:    tools,
		runner:   runner,
		context:  NewContext(),
		in:       bufio.NewReader(in),
		out:      out,
		prompt:   prompt,
		logger:   logger,
		emitter:  cfg.Emitter,
	}
}

// Context returns the current conversation context.
func (r *REPL) Context() *Context { return r.context }

// readResult carries one input line, or the error that ended the stream.
type readResult struct {
	line string
	err  error
}

// Run executes the loop until /exit, /quit, or end of input, and returns the
// process exit code. An interrupt at the prompt discards it and re-prompts;
// an interrupt during a turn aborts only that turn. No error during a turn
// is fatal to the session.
func (r *REPL) Run(ctx context.Context) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	// Input is read on demand in a helper goroutine so the loop can keep
	// servicing interrupts while blocked at the prompt. At most one read is
	// outstanding; it survives an interrupt and is consumed next iteration.
	var pending chan readResult
	for {
		fmt.Fprint(r.out, r.prompt)
		if pending == nil {
			pending = make(chan readResult, 1)
			go func(ch chan<- readResult) {
				line, err := r.in.ReadString('\n')
				ch <- readResult{line: line, err: err}
			}(pending)
		}

		select {
		case <-sigCh:
			fmt.Fprintln(r.out)
			continue

		case res := <-pending:
			pending = nil
			line := strings.TrimSpace(res.line)
			if line != "" {
				if exit, code := r.handleLine(ctx, line); exit {
					return code
				}
				// An interrupt already consumed by the turn handler must
				// not produce a phantom re-prompt.
				select {
				case <-sigCh:
				default:
				}
			}
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					return 0
				}
				fmt.Fprintf(r.out, "Error: reading input: %v\n", res.err)
				r.logger.Error("input read failed", zap.Error(res.err))
				return 1
			}
		}
	}
}

// handleLine routes one non-empty input line and reports whether the session
// should end, and with what code.
func (r *REPL) handleLine(ctx context.Context, line string) (exit bool, code int) {
	if strings.HasPrefix(line, "/") {
		return r.dispatchCommand(line)
	}
	r.runTurn(ctx, line)
	return false, 0
}

// dispatchCommand resolves a slash command by its first whitespace-delimited
// token and applies the handler's outcome.
func (r *REPL) dispatchCommand(line string) (exit bool, code int) {
	token := strings.Fields(line)[0]
	cmd, ok := r.commands.Get(token)
	if !ok {
		fmt.Fprintf(r.out, "Unknown command: %s\n", token)
		return false, 0
	}

	r.emitter.Emit(EventCommand, map[string]interface{}{"name": token})
	r.logger.Debug("dispatching command", zap.String("command", token))

	outcome := cmd.Handler(r.context)
	switch outcome.Kind {
	case OutcomeExit:
		return true, outcome.Code
	case OutcomeReplace:
		r.context = outcome.Context
	}
	return false, 0
}

// runTurn sends one prompt through the agent runner. The new user item is
// appended to the history handed to the runner, and on success the stored
// context is swapped for the runner's returned history, never merged, so no
// identity can appear twice. On any failure the context is left exactly as
// it was before the turn.
func (r *REPL) runTurn(ctx context.Context, input string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	history := append(r.context.Items(), NewUserItem(input))

	r.emitter.Emit(EventTurnStart, nil)
	result, err := r.runner.RunTurn(turnCtx, history, r.tools.Definitions())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(r.out, "Interrupted. The turn was aborted; the conversation is unchanged.")
			r.logger.Info("turn interrupted")
			return
		}
		fmt.Fprintf(r.out, "Error: %v\n", err)
		r.emitter.Emit(EventError, map[string]interface{}{"error": err.Error()})
		r.logger.Warn("turn failed", zap.Error(err))
		return
	}

	updated, err := NewContextFromHistory(result.History)
	if err != nil {
		// A runner that hands back duplicate identities is a correctness
		// bug; discard the turn rather than corrupt the transcript.
		fmt.Fprintf(r.out, "Error: %v\n", err)
		r.logger.Error("runner returned inconsistent history", zap.Error(err))
		return
	}
	r.context = updated
	r.emitter.Emit(EventTurnEnd, map[string]interface{}{"items": updated.Len()})

	fmt.Fprintln(r.out, result.FinalOutput)
}
