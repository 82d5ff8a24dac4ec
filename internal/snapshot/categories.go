package snapshot

import (
	"path/filepath"
	"strings"
)

// extensionCategories is the fixed extension to category table.
// Files with any other extension are not tracked.
var extensionCategories = map[string]string{
	".go":    "go",
	".rs":    "rust",
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".proto": "protobuf",
	".sql":   "sql",
	".toml":  "toml",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".md":    "markdown",
	".sh":    "shell",
	".txt":   "text",
	".lisp":  "lisp",
	".cbu":   "cbu-dsl",
}

// CategoryForPath returns the category for a file path based on its
// extension (case-insensitive), and whether the file is tracked at all.
func CategoryForPath(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	cat, ok := extensionCategories[ext]
	return cat, ok
}

// Categories returns all known category names.
func Categories() []string {
	seen := make(map[string]struct{}, len(extensionCategories))
	out := make([]string, 0, len(extensionCategories))
	for _, cat := range extensionCategories {
		if _, dup := seen[cat]; dup {
			continue
		}
		seen[cat] = struct{}{}
		out = append(out, cat)
	}
	return out
}
