// Package search re-reads snapshot files from disk and extracts
// context-windowed line matches for a substring query.
package search

// Match window and result caps.
const (
	// ContextBefore is the number of raw lines kept before a match.
	ContextBefore = 2
	// ContextAfter is the number of raw lines kept after a match.
	ContextAfter = 3
	// MaxMatchesPerFile caps matches emitted for a single file.
	MaxMatchesPerFile = 10
	// DefaultWorkers is the per-query file read concurrency.
	DefaultWorkers = 8
)

// Options configures one search.
type Options struct {
	// Query is the substring to look for. Must be non-empty after
	// trimming.
	Query string
	// Category restricts candidates to one category (empty = all).
	Category string
	// CaseSensitive disables case folding of query and content.
	CaseSensitive bool
	// Workers overrides the file read concurrency (0 = default).
	Workers int
}

// Match is one matching line with its surrounding context window.
// Derived transiently per query, never persisted.
type Match struct {
	// LineNumber is 1-based.
	LineNumber int `json:"line_number"`
	// Content is the matching line, trimmed.
	Content string `json:"content"`
	// ContextBefore holds up to 2 preceding raw lines.
	ContextBefore []string `json:"context_before"`
	// ContextAfter holds up to 3 following raw lines.
	ContextAfter []string `json:"context_after"`
}

// FileResult groups the matches of one file.
type FileResult struct {
	Path     string  `json:"file"`
	Category string  `json:"category"`
	Matches  []Match `json:"matches"`
}

// Results is the aggregate outcome of one search.
type Results struct {
	Query string `json:"query"`
	// Files holds per-file matches in snapshot order.
	Files []FileResult `json:"results"`
	// FilesSearched counts candidates considered (after the category
	// filter), including files that vanished or turned binary.
	FilesSearched int `json:"total_files_searched"`
	// FilesMatched counts files with at least one match.
	FilesMatched int `json:"files_with_matches"`
}
