// Package llmrunner implements the default agent runner for gpt-code.
//
// The runner drives the model's reasoning and tool-call loop behind the
// harness.Runner interface: it converts the conversation history into a
// provider request, calls the model through a gollm-backed Provider, executes
// the tool calls it asks for through the harness tool registry, folds the
// results back into the history, and repeats until the model produces a final
// answer (or a round limit / loop detector stops it).
//
// Provider calls are retried with exponential backoff for transient failures;
// error classification decides which failures are safe to retry.
//
// # Quick Start
//
//	provider, err := llmrunner.NewGollmProvider("openai", "",
//	    llmrunner.WithModel("gpt-4o-mini"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	runner := llmrunner.New(provider, tools)
//
//	repl := harness.NewREPL(commands, tools, runner, nil)
//	repl.Run(ctx)
package llmrunner
