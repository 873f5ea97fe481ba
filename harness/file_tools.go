package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RegisterFileTools registers the filesystem read/write/patch tools.
//
// The file tools hold no lock or transaction: concurrent external edits
// between a tool's read and write race freely (last write wins).
func RegisterFileTools(reg *Registry) {
	registerListDir(reg)
	registerReadFile(reg)
	registerWriteFile(reg)
	registerEditFile(reg)
}

func registerListDir(reg *Registry) {
	reg.Register(RegisteredTool{
		Definition: Definition{
			Name:        "list_dir",
			Description: "List the entries of a directory.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"directory": map[string]interface{}{
						"type":        "string",
						"description": "Path of the directory to list.",
					},
				},
				"required": []string{"directory"},
			},
		},
		Executor: func(arguments json.RawMessage) (Result, error) {
			args, err := ParseArguments(arguments)
			if err != nil {
				return Result{}, err
			}
			directory, ok := GetStringArg(args, "directory")
			if !ok || directory == "" {
				return Result{}, fmt.Errorf("directory is required")
			}
			entries, err := os.ReadDir(directory)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			names := make([]string, 0, len(entries))
			for _, entry := range entries {
				names = append(names, entry.Name())
			}
			return ListResult(names), nil
		},
	})
}

func registerReadFile(reg *Registry) {
	reg.Register(RegisteredTool{
		Definition: Definition{
			Name:        "read_file",
			Description: "Read a file from the filesystem. Returns line-numbered content.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the file to read.",
					},
					"offset": map[string]interface{}{
						"type":        "integer",
						"description": "Number of leading lines to skip. 0 or absent starts at line 1.",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of lines to return. Absent returns the whole file.",
					},
				},
				"required": []string{"path"},
			},
		},
		Executor: func(arguments json.RawMessage) (Result, error) {
			args, err := ParseArguments(arguments)
			if err != nil {
				return Result{}, err
			}
			path, ok := GetStringArg(args, "path")
			if !ok || path == "" {
				return Result{}, fmt.Errorf("path is required")
			}
			offset, _ := GetIntArg(args, "offset")
			limit, _ := GetIntArg(args, "limit")
			content, err := ReadFileNumbered(path, offset, limit)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			return TextResult(content), nil
		},
	})
}

// ReadFileNumbered reads path as text (invalid byte sequences replaced, not
// rejected), drops the first offset lines, truncates to limit lines if limit
// is positive, and renders each remaining line with a 6-digit right-aligned
// 1-based line number and a tab, preserving the line's trailing newline.
// An offset beyond EOF yields an empty result, not an error.
func ReadFileNumbered(path string, offset, limit int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	lines := splitKeepNewlines(strings.ToValidUTF8(string(data), "�"))

	start := 0
	if offset > 0 {
		start = offset
	}
	if start >= len(lines) {
		return "", nil
	}
	end := len(lines)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&sb, "%6d\t%s", i+1, lines[i])
	}
	return sb.String(), nil
}

// splitKeepNewlines splits content into lines, each keeping its trailing
// newline if it had one. A trailing newline does not produce an empty final
// line.
func splitKeepNewlines(content string) []string {
	var lines []string
	for start := 0; start < len(content); {
		idx := strings.IndexByte(content[start:], '\n')
		if idx < 0 {
			lines = append(lines, content[start:])
			break
		}
		lines = append(lines, content[start:start+idx+1])
		start += idx + 1
	}
	return lines
}

func registerWriteFile(reg *Registry) {
	reg.Register(RegisteredTool{
		Definition: Definition{
			Name:        "write_file",
			Description: "Write content to a file verbatim, overwriting any prior content. Creates the file and parent directories if needed.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to write to.",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "The full file content to write.",
					},
				},
				"required": []string{"path", "content"},
			},
		},
		Executor: func(arguments json.RawMessage) (Result, error) {
			args, err := ParseArguments(arguments)
			if err != nil {
				return Result{}, err
			}
			path, ok := GetStringArg(args, "path")
			if !ok || path == "" {
				return Result{}, fmt.Errorf("path is required")
			}
			content, ok := GetStringArg(args, "content")
			if !ok {
				return Result{}, fmt.Errorf("content is required")
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return ErrorResult(err.Error()), nil
				}
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return ErrorResult(err.Error()), nil
			}
			return TextResult(fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path)), nil
		},
	})
}

func registerEditFile(reg *Registry) {
	reg.Register(RegisteredTool{
		Definition: Definition{
			Name: "edit_file",
			Description: "Replace an exact string occurrence in a file. Only the first " +
				"occurrence of old_string is replaced; the match is byte-for-byte, not a regex.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the file to edit.",
					},
					"old_string": map[string]interface{}{
						"type":        "string",
						"description": "Exact text to find in the file.",
					},
					"new_string": map[string]interface{}{
						"type":        "string",
						"description": "Replacement text.",
					},
				},
				"required": []string{"path", "old_string", "new_string"},
			},
		},
		Executor: func(arguments json.RawMessage) (Result, error) {
			args, err := ParseArguments(arguments)
			if err != nil {
				return Result{}, err
			}
			path, ok := GetStringArg(args, "path")
			if !ok || path == "" {
				return Result{}, fmt.Errorf("path is required")
			}
			oldString, ok := GetStringArg(args, "old_string")
			if !ok {
				return Result{}, fmt.Errorf("old_string is required")
			}
			newString, _ := GetStringArg(args, "new_string")

			data, err := os.ReadFile(path)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			content := string(data)
			if !strings.Contains(content, oldString) {
				return ErrorResultf("The specified text was not found in %s", path), nil
			}
			// First occurrence only; multiple occurrences are not an error.
			updated := strings.Replace(content, oldString, newString, 1)
			if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
				return ErrorResult(err.Error()), nil
			}
			return TextResult(fmt.Sprintf("Successfully edited %s", path)), nil
		},
	})
}
