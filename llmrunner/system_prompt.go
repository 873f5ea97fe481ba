package llmrunner

import (
	"fmt"
	"os"
	"strings"
)

// BuildSystemPrompt constructs the session system prompt. It anchors the
// model in the working directory and its top-level contents so that relative
// paths in tool calls resolve predictably.
func BuildSystemPrompt(workdir string) string {
	var sb strings.Builder
	sb.WriteString("You are a coding assistant. Your job is to process user requests and ")
	sb.WriteString("determine the best way to handle them, using the available tools to ")
	sb.WriteString("read, search, and modify files and to run shell commands when needed. ")
	sb.WriteString("Prefer tool calls over guessing about the state of the filesystem.\n\n")

	fmt.Fprintf(&sb, "Current working directory: %s\n", workdir)

	entries, err := os.ReadDir(workdir)
	if err != nil {
		return sb.String()
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	fmt.Fprintf(&sb, "Directory contents: %s\n", strings.Join(names, ", "))
	return sb.String()
}
