package harness

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// RegisterSearchTools registers the regex content search and glob file
// search tools.
func RegisterSearchTools(reg *Registry) {
	registerGrep(reg)
	registerGlob(reg)
}

func registerGrep(reg *Registry) {
	reg.Register(RegisteredTool{
		Definition: Definition{
			Name:        "grep",
			Description: "Search file contents for a regex pattern. Returns matching lines as path:line_number: text, scanning the most recently modified files first.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pattern": map[string]interface{}{
						"type":        "string",
						"description": "Regex pattern to search for.",
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Directory to search. Default: current directory.",
					},
					"include": map[string]interface{}{
						"type":        "string",
						"description": "Filename glob filter (e.g. \"*.go\").",
					},
				},
				"required": []string{"pattern"},
			},
		},
		Executor: func(arguments json.RawMessage) (Result, error) {
			args, err := ParseArguments(arguments)
			if err != nil {
				return Result{}, err
			}
			pattern, ok := GetStringArg(args, "pattern")
			if !ok || pattern == "" {
				return Result{}, fmt.Errorf("pattern is required")
			}
			root, _ := GetStringArg(args, "path")
			include, _ := GetStringArg(args, "include")
			return Grep(pattern, root, include), nil
		},
	})
}

// Grep compiles pattern and scans every file under root (default: current
// directory), most recently modified first, optionally restricted to
// filenames matching the include glob. Each matching line is emitted as
// "path:line_number: line_text". Files that cannot be opened are silently
// skipped; an invalid pattern is a reported error, not a crash.
func Grep(pattern, root, include string) Result {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ErrorResultf("invalid pattern %q: %v", pattern, err)
	}
	if root == "" {
		root = "."
	}

	candidates := collectFiles(root, func(name string) bool {
		if include == "" {
			return true
		}
		matched, _ := path.Match(include, name)
		return matched
	})
	sortByModTimeDesc(candidates)

	var matches []string
	for _, cand := range candidates {
		data, err := os.ReadFile(cand.path)
		if err != nil {
			continue // permission denied, vanished, etc.
		}
		// Best-effort decode: drop undecodable bytes rather than failing.
		text := strings.ToValidUTF8(string(data), "")
		if text == "" {
			continue
		}
		// A trailing newline terminates the last line, it does not open a
		// phantom empty one.
		text = strings.TrimSuffix(text, "\n")
		for i, line := range strings.Split(text, "\n") {
			line = strings.TrimSuffix(line, "\r")
			if re.MatchString(line) {
				matches = append(matches, fmt.Sprintf("%s:%d: %s", cand.path, i+1, line))
			}
		}
	}

	if len(matches) == 0 {
		return TextResult(fmt.Sprintf("No matches found for pattern '%s'", pattern))
	}
	return TextResult(strings.Join(matches, "\n"))
}

func registerGlob(reg *Registry) {
	reg.Register(RegisteredTool{
		Definition: Definition{
			Name:        "glob",
			Description: "Find files matching a glob pattern (supports ** for recursive matching). Returns paths sorted by modification time, newest first.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pattern": map[string]interface{}{
						"type":        "string",
						"description": "Glob pattern (e.g. \"**/*.go\").",
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Base directory. Default: current directory.",
					},
				},
				"required": []string{"pattern"},
			},
		},
		Executor: func(arguments json.RawMessage) (Result, error) {
			args, err := ParseArguments(arguments)
			if err != nil {
				return Result{}, err
			}
			pattern, ok := GetStringArg(args, "pattern")
			if !ok || pattern == "" {
				return Result{}, fmt.Errorf("pattern is required")
			}
			base, _ := GetStringArg(args, "path")
			return Glob(pattern, base), nil
		},
	})
}

// Glob resolves pattern relative to base (default: current directory) with
// recursive ** support and returns matching file paths sorted by
// modification time, newest first. Zero matches yield a descriptive string
// rather than an empty sequence so callers can distinguish the shapes.
func Glob(pattern, base string) Result {
	if base == "" {
		base = "."
	}

	matched := collectFiles(base, nil)
	var hits []fileInfo
	for _, cand := range matched {
		rel, err := filepath.Rel(base, cand.path)
		if err != nil {
			continue
		}
		if matchGlob(pattern, filepath.ToSlash(rel)) {
			hits = append(hits, cand)
		}
	}

	if len(hits) == 0 {
		return TextResult(fmt.Sprintf("No files matching pattern '%s' found in %s", pattern, base))
	}
	sortByModTimeDesc(hits)
	paths := make([]string, len(hits))
	for i, h := range hits {
		paths[i] = h.path
	}
	return ListResult(paths)
}

// matchGlob matches a slash-separated relative path against a glob pattern
// where "**" spans any number of path segments. No glob library appears in
// the module's dependency graph, so the expansion is done by hand.
func matchGlob(pattern, relPath string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(relPath, "/"))
}

func matchSegments(pat, segs []string) bool {
	if len(pat) == 0 {
		return len(segs) == 0
	}
	if pat[0] == "**" {
		if matchSegments(pat[1:], segs) {
			return true
		}
		return len(segs) > 0 && matchSegments(pat, segs[1:])
	}
	if len(segs) == 0 {
		return false
	}
	ok, err := path.Match(pat[0], segs[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pat[1:], segs[1:])
}

type fileInfo struct {
	path    string
	modTime time.Time
}

// collectFiles walks the tree rooted at root and returns every regular file
// whose base name passes the filter. Unreadable directories and files are
// skipped, not reported.
func collectFiles(root string, filter func(name string) bool) []fileInfo {
	var files []fileInfo
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filter != nil && !filter(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, fileInfo{path: p, modTime: info.ModTime()})
		return nil
	})
	return files
}

// sortByModTimeDesc orders files most recently modified first, so results
// surface recent work before stale files. Ties keep path order for
// determinism.
func sortByModTimeDesc(files []fileInfo) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path < files[j].path
		}
		return files[i].modTime.After(files[j].modTime)
	})
}
