package llmrunner

import "context"

// Provider is a model backend. Complete blocks until the model returns a
// full response; the REPL turn it serves is synchronous, so streaming is not
// part of the contract.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic").
	Name() string

	// Complete sends a blocking request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)
}
