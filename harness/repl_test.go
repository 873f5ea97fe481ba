package harness

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner appends a canned assistant item to whatever history it receives,
// or fails with a fixed error.
type fakeRunner struct {
	output string
	err    error
	calls  int
	seen   [][]Item
}

func (f *fakeRunner) RunTurn(ctx context.Context, history []Item, tools []Definition) (*TurnResult, error) {
	f.calls++
	f.seen = append(f.seen, history)
	if f.err != nil {
		return nil, f.err
	}
	extended := append(history, NewAssistantItem(f.output, nil))
	return &TurnResult{History: extended, FinalOutput: f.output}, nil
}

func newTestREPL(runner Runner, input string) (*REPL, *strings.Builder) {
	var out strings.Builder
	commands := NewCommandRegistry()
	RegisterBuiltins(commands, &out)
	repl := NewREPL(commands, NewRegistry(), runner, &REPLConfig{
		Input:  strings.NewReader(input),
		Output: &out,
	})
	return repl, &out
}

func TestREPLExitsOnEOF(t *testing.T) {
	repl, _ := newTestREPL(&fakeRunner{output: "hi"}, "")
	code := repl.Run(context.Background())
	assert.Equal(t, 0, code)
}

func TestREPLSkipsBlankLines(t *testing.T) {
	runner := &fakeRunner{output: "hi"}
	repl, _ := newTestREPL(runner, "\n   \n\n")
	repl.Run(context.Background())
	assert.Equal(t, 0, runner.calls)
}

func TestREPLRunsTurnAndAdoptsHistory(t *testing.T) {
	runner := &fakeRunner{output: "model says hi"}
	repl, out := newTestREPL(runner, "hello\n")
	repl.Run(context.Background())

	require.Equal(t, 1, runner.calls)
	// Runner received the user item appended to the (empty) context.
	require.Len(t, runner.seen[0], 1)
	assert.Equal(t, RoleUser, runner.seen[0][0].Role)
	assert.Equal(t, "hello", runner.seen[0][0].Content)

	// Context was swapped for the returned history: user + assistant.
	assert.Equal(t, 2, repl.Context().Len())
	assert.Contains(t, out.String(), "model says hi")
}

func TestREPLContextGrowsAcrossTurns(t *testing.T) {
	runner := &fakeRunner{output: "ok"}
	repl, _ := newTestREPL(runner, "one\ntwo\n")
	repl.Run(context.Background())

	assert.Equal(t, 2, runner.calls)
	// Two turns, each adding a user and an assistant item.
	assert.Equal(t, 4, repl.Context().Len())
	// The second turn saw the full prior transcript plus its own user item.
	require.Len(t, runner.seen[1], 3)
}

func TestREPLTurnErrorLeavesContextUnchanged(t *testing.T) {
	runner := &fakeRunner{err: errors.New("provider exploded")}
	repl, out := newTestREPL(runner, "hello\n")
	repl.Run(context.Background())

	assert.Equal(t, 0, repl.Context().Len())
	assert.Contains(t, out.String(), "Error: provider exploded")
}

func TestREPLInterruptedTurnLeavesContextUnchanged(t *testing.T) {
	runner := &fakeRunner{err: context.Canceled}
	repl, out := newTestREPL(runner, "hello\n")
	repl.Run(context.Background())

	assert.Equal(t, 0, repl.Context().Len())
	assert.Contains(t, out.String(), "Interrupted. The turn was aborted; the conversation is unchanged.")
	assert.NotContains(t, out.String(), "Error:")
}

func TestREPLRejectsInconsistentRunnerHistory(t *testing.T) {
	item := NewUserItem("dup")
	runner := &dupRunner{item: item}
	repl, out := newTestREPL(runner, "hello\n")
	repl.Run(context.Background())

	// The duplicate transcript is discarded, not adopted.
	assert.Equal(t, 0, repl.Context().Len())
	assert.Contains(t, out.String(), "Error:")
}

// dupRunner returns a history containing the same item twice.
type dupRunner struct{ item Item }

func (d *dupRunner) RunTurn(ctx context.Context, history []Item, tools []Definition) (*TurnResult, error) {
	return &TurnResult{History: []Item{d.item, d.item}, FinalOutput: "x"}, nil
}

func TestREPLUnknownCommand(t *testing.T) {
	runner := &fakeRunner{output: "hi"}
	repl, out := newTestREPL(runner, "/frobnicate\n")
	repl.Run(context.Background())

	assert.Contains(t, out.String(), "Unknown command: /frobnicate")
	assert.Equal(t, 0, runner.calls, "commands must never reach the model")
}

func TestREPLCommandTokenIgnoresArguments(t *testing.T) {
	runner := &fakeRunner{output: "hi"}
	repl, out := newTestREPL(runner, "/help me please\n")
	repl.Run(context.Background())

	assert.Contains(t, out.String(), "/clear")
	assert.Equal(t, 0, runner.calls)
}

func TestREPLQuitReturnsExitCode(t *testing.T) {
	runner := &fakeRunner{output: "hi"}
	repl, _ := newTestREPL(runner, "/quit\nhello\n")
	code := repl.Run(context.Background())

	assert.Equal(t, 0, code)
	assert.Equal(t, 0, runner.calls, "input after /quit must not run")
}

func TestREPLClearCommand(t *testing.T) {
	runner := &fakeRunner{output: "ok"}
	repl, _ := newTestREPL(runner, "hello\n/clear\n")
	repl.Run(context.Background())

	assert.Equal(t, 0, repl.Context().Len())
}

func TestREPLPromptWritten(t *testing.T) {
	repl, out := newTestREPL(&fakeRunner{}, "")
	repl.Run(context.Background())
	assert.Equal(t, "> ", out.String())
}

func TestREPLInterruptAtPromptContinues(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix signal delivery")
	}

	pr, pw := io.Pipe()
	var out strings.Builder
	commands := NewCommandRegistry()
	RegisterBuiltins(commands, &out)
	repl := NewREPL(commands, NewRegistry(), &fakeRunner{output: "ok"}, &REPLConfig{
		Input:  pr,
		Output: &out,
	})

	done := make(chan int, 1)
	go func() { done <- repl.Run(context.Background()) }()

	// Let the loop block at the prompt, then interrupt while idle.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))
	time.Sleep(50 * time.Millisecond)

	// The session must still be alive and accept input.
	_, err := pw.Write([]byte("/quit\n"))
	require.NoError(t, err)

	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not survive an interrupt at the prompt")
	}
	// Re-prompted after the interrupt: two prompts total.
	assert.Equal(t, 2, strings.Count(out.String(), "> "))
}

func TestREPLHandlesLongInputLine(t *testing.T) {
	runner := &fakeRunner{output: "ok"}
	long := strings.Repeat("a", 100_000)
	repl, _ := newTestREPL(runner, long+"\n")

	code := repl.Run(context.Background())
	assert.Equal(t, 0, code)
	require.Equal(t, 1, runner.calls)
	assert.Equal(t, long, runner.seen[0][0].Content)
}

// brokenReader fails every read with a fixed error.
type brokenReader struct{ err error }

func (b brokenReader) Read([]byte) (int, error) { return 0, b.err }

func TestREPLReportsInputReadError(t *testing.T) {
	var out strings.Builder
	commands := NewCommandRegistry()
	RegisterBuiltins(commands, &out)
	repl := NewREPL(commands, NewRegistry(), &fakeRunner{}, &REPLConfig{
		Input:  brokenReader{err: errors.New("device gone")},
		Output: &out,
	})

	code := repl.Run(context.Background())
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Error: reading input: device gone")
}

// confirmingRunner asks the injected confirmer once, on its first turn.
type confirmingRunner struct {
	confirm Confirmer
	asked   []bool
	calls   int
	inputs  []string
}

func (c *confirmingRunner) RunTurn(ctx context.Context, history []Item, tools []Definition) (*TurnResult, error) {
	c.calls++
	c.inputs = append(c.inputs, history[len(history)-1].Content)
	if c.calls == 1 {
		c.asked = append(c.asked, c.confirm("Run? [y/N] "))
	}
	extended := append(history, NewAssistantItem("done", nil))
	return &TurnResult{History: extended, FinalOutput: "done"}, nil
}

func TestREPLSharesInputWithConfirmer(t *testing.T) {
	// One buffered reader feeds both the REPL and the confirmer: the "y"
	// line must reach the confirmer, and the line after it must still
	// reach the REPL.
	shared := bufio.NewReader(strings.NewReader("run it\ny\nnext\n"))
	var out strings.Builder
	confirm := StdinConfirmer(shared, &out)
	runner := &confirmingRunner{confirm: confirm}
	commands := NewCommandRegistry()
	RegisterBuiltins(commands, &out)
	repl := NewREPL(commands, NewRegistry(), runner, &REPLConfig{
		Input:  shared,
		Output: &out,
	})

	code := repl.Run(context.Background())
	assert.Equal(t, 0, code)
	require.Equal(t, []bool{true}, runner.asked)
	require.Equal(t, 2, runner.calls)
	assert.Equal(t, "next", runner.inputs[1])
}
