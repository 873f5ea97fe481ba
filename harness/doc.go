// Package harness implements the local execution harness behind the
// gpt-code interactive coding assistant.
//
// It supplies the model-side orchestrator (the "agent runner") with a fixed
// catalog of callable tools (shell execution, file reads and writes, and
// content/file search) and owns the turn-by-turn conversation state that is
// replayed into the model on every prompt. The runner itself lives behind the
// Runner interface; the reference implementation is in package llmrunner.
//
// # Architecture
//
// The package is organized around these core concepts:
//
//   - Context: the ordered conversation transcript. Items carry unique
//     identity tokens; the context rejects duplicates on append and is
//     replaced wholesale after every model turn.
//   - Registry: registration and dispatch of tool definitions. Tool
//     executors return a tagged Result (text, text list, or error message)
//     that always renders to the string-shaped channel the runner expects.
//   - CommandRegistry: slash commands intercepted before input reaches the
//     model. Handlers return an Outcome: continue, replace the context, or
//     terminate with an exit code.
//   - REPL: the single-threaded loop that reads input, routes it to the
//     command registry or the runner, and reconciles the returned state.
//   - Emitter: typed event stream for host application integration.
//
// # Quick Start
//
//	tools := harness.NewRegistry()
//	harness.RegisterFileTools(tools)
//	harness.RegisterSearchTools(tools)
//	harness.RegisterShellTool(tools, harness.StdinConfirmer(os.Stdin, os.Stdout))
//
//	commands := harness.NewCommandRegistry()
//	harness.RegisterBuiltins(commands, os.Stdout)
//
//	repl := harness.NewREPL(commands, tools, runner, nil)
//	os.Exit(repl.Run(context.Background()))
package harness
