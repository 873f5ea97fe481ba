package llmrunner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildSystemPrompt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "internal"), 0755); err != nil {
		t.Fatal(err)
	}

	prompt := BuildSystemPrompt(dir)
	if !strings.Contains(prompt, dir) {
		t.Error("prompt must name the working directory")
	}
	if !strings.Contains(prompt, "main.go") {
		t.Error("prompt must list files")
	}
	if !strings.Contains(prompt, "internal/") {
		t.Error("directories must carry a trailing slash")
	}
}

func TestBuildSystemPromptUnreadableDir(t *testing.T) {
	prompt := BuildSystemPrompt(filepath.Join(t.TempDir(), "missing"))
	if !strings.Contains(prompt, "Current working directory") {
		t.Error("prompt must degrade gracefully when the listing fails")
	}
	if strings.Contains(prompt, "Directory contents") {
		t.Error("no listing line expected when the directory cannot be read")
	}
}
