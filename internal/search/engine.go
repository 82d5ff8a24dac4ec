package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	coderr "github.com/codescope-dev/codescope/internal/errors"
	"github.com/codescope-dev/codescope/internal/snapshot"
)

// Engine searches the files of a snapshot.
// File bytes are re-read from disk at query time, not taken from the
// snapshot, so results reflect live content even when a file changed
// after the last scan. Searches carry no shared mutable state; any
// number may run concurrently.
type Engine struct {
	root string
}

// NewEngine creates an engine reading files under root.
func NewEngine(root string) *Engine {
	return &Engine{root: root}
}

// Search runs one query over the snapshot's files.
// Returns InvalidQuery if the query is empty after trimming. Files that
// are unreadable or vanished since the scan are silently excluded.
func (e *Engine) Search(ctx context.Context, snap *snapshot.Snapshot, opts Options) (*Results, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return nil, coderr.InvalidQuery("query must not be empty")
	}

	needle := query
	if !opts.CaseSensitive {
		needle = strings.ToLower(needle)
	}

	var candidates []snapshot.FileRecord
	for _, f := range snap.Files {
		if opts.Category != "" && f.Category != opts.Category {
			continue
		}
		candidates = append(candidates, f)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	slots := make([]*FileResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range candidates {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			slots[i] = e.searchFile(f, needle, opts.CaseSensitive)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := &Results{
		Query:         query,
		FilesSearched: len(candidates),
	}
	for _, r := range slots {
		if r != nil {
			results.Files = append(results.Files, *r)
			results.FilesMatched++
		}
	}
	return results, nil
}

// searchFile reads one file and collects up to MaxMatchesPerFile
// matches in ascending line order. Returns nil when the file has no
// match, cannot be read, or is not text.
func (e *Engine) searchFile(f snapshot.FileRecord, needle string, caseSensitive bool) *FileResult {
	data, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(f.Path)))
	if err != nil || !utf8.Valid(data) {
		return nil
	}

	content := string(data)
	haystack := content
	if !caseSensitive {
		haystack = strings.ToLower(haystack)
	}
	if !strings.Contains(haystack, needle) {
		return nil
	}

	lines := splitLines(content)

	var matches []Match
	for i, line := range lines {
		probe := line
		if !caseSensitive {
			probe = strings.ToLower(probe)
		}
		if !strings.Contains(probe, needle) {
			continue
		}

		matches = append(matches, Match{
			LineNumber:    i + 1,
			Content:       strings.TrimSpace(line),
			ContextBefore: window(lines, i-ContextBefore, i),
			ContextAfter:  window(lines, i+1, i+1+ContextAfter),
		})
		if len(matches) >= MaxMatchesPerFile {
			break
		}
	}

	if len(matches) == 0 {
		return nil
	}
	return &FileResult{Path: f.Path, Category: f.Category, Matches: matches}
}

// window returns lines[lo:hi] clipped to the file's bounds.
func window(lines []string, lo, hi int) []string {
	if lo < 0 {
		lo = 0
	}
	if hi > len(lines) {
		hi = len(lines)
	}
	if lo >= hi {
		return nil
	}
	out := make([]string, hi-lo)
	copy(out, lines[lo:hi])
	return out
}

// splitLines splits content into lines with the same semantics the
// scanner uses for line counting: a trailing newline does not produce
// an empty final line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
