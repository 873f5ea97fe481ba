package harness

import "context"

// TurnResult is what a Runner returns after one model turn. History is the
// complete, self-consistent transcript for the session: it already contains
// the user item that started the turn and every tool-call/result item
// produced during it. The REPL adopts it wholesale; merging would risk
// duplicate identities.
type TurnResult struct {
	History     []Item
	FinalOutput string
}

// Runner is the external collaborator that drives the model's reasoning and
// tool-call loop. It receives the ordered conversation history and the tool
// catalog, executes zero or more tool calls through the harness, and returns
// the extended history plus the final textual answer.
type Runner interface {
	RunTurn(ctx context.Context, history []Item, tools []Definition) (*TurnResult, error)
}
