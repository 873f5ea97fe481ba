package harness

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
)

// Confirmer asks the operator to approve an action before it happens and
// reports the decision. Cancellation or EOF at the prompt must read as a
// refusal, never an ambiguous state.
type Confirmer func(prompt string) bool

// StdinConfirmer returns a Confirmer that writes the prompt to w and reads
// one line from r. Only an exact, case-insensitive "y" is affirmative.
func StdinConfirmer(r io.Reader, w io.Writer) Confirmer {
	reader := bufio.NewReader(r)
	return func(prompt string) bool {
		fmt.Fprint(w, prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(line), "y")
	}
}

// AlwaysConfirm approves every prompt. Intended for non-interactive use
// where the operator has opted out of the gate up front.
func AlwaysConfirm(string) bool { return true }

// ShellResult holds the outcome of a shell command execution. It is not
// persisted beyond being rendered into a tool result string.
type ShellResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// RunShell spawns command through the platform shell, captures stdout and
// stderr independently, and waits for completion. There is no timeout: a
// hung child hangs the turn, which is accepted rather than worked around.
func RunShell(command string) (*ShellResult, error) {
	shell, shellArg := "/bin/sh", "-c"
	if runtime.GOOS == "windows" {
		shell, shellArg = "cmd.exe", "/c"
	}

	cmd := exec.Command(shell, shellArg, command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &ShellResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("run_command: %w", err)
		}
		result.ExitCode = exitErr.ExitCode()
	}
	return result, nil
}

// RegisterShellTool registers the confirmation-gated shell execution tool.
// The gate is the sole safety control for arbitrary command execution; every
// code path that runs a command goes through confirm.
func RegisterShellTool(reg *Registry, confirm Confirmer) {
	reg.Register(RegisteredTool{
		Definition: Definition{
			Name:        "run_command",
			Description: "Run a command in the shell and return the output. The operator is asked to confirm before the command is executed.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"command": map[string]interface{}{
						"type":        "string",
						"description": "The command to run.",
					},
				},
				"required": []string{"command"},
			},
		},
		Executor: func(arguments json.RawMessage) (Result, error) {
			args, err := ParseArguments(arguments)
			if err != nil {
				return Result{}, err
			}
			command, ok := GetStringArg(args, "command")
			if !ok || command == "" {
				return Result{}, fmt.Errorf("command is required")
			}

			if !confirm(fmt.Sprintf("Run command %q? [y/N] ", command)) {
				return TextResult("Command execution canceled by user."), nil
			}

			result, err := RunShell(command)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			if result.ExitCode != 0 {
				// A non-zero exit is a normal result, not a tool failure;
				// interpretation is left to the model.
				return TextResult(fmt.Sprintf("Process exited with code %d.\n%s", result.ExitCode, result.Stderr)), nil
			}
			return TextResult(result.Stdout), nil
		},
	})
}
