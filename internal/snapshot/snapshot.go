// Package snapshot defines the immutable point-in-time index of a
// source tree and the cache that publishes the current one to readers.
package snapshot

import (
	"fmt"
	"time"
)

// FileRecord describes one tracked file at scan time.
// Records are created fresh on each scan and never mutated; the next
// scan's record for the same path supersedes this one.
type FileRecord struct {
	// Path is the tree-relative path, unique within a snapshot.
	Path string `json:"path"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
	// Modified is the file's last modification time.
	Modified time.Time `json:"modified"`
	// ContentHash is the xxh3-128 hex digest of the file's text, or of
	// the path itself when the content is not valid UTF-8.
	ContentHash string `json:"content_hash"`
	// Category is the coarse language tag derived from the extension.
	Category string `json:"category"`
	// LineCount is the number of lines, 0 for binary content.
	LineCount int `json:"line_count"`
}

// Snapshot is an immutable point-in-time index of all tracked files.
// Files appear in tree-walk order; the order is not guaranteed stable
// across scans.
type Snapshot struct {
	// ID uniquely identifies this scan.
	ID string `json:"id"`
	// TakenAt is the scan start time.
	TakenAt time.Time `json:"taken_at"`
	// FileCount equals len(Files).
	FileCount int `json:"file_count"`
	// TotalLines is the sum of LineCount over Files.
	TotalLines int `json:"total_lines"`
	// Categories is the histogram of Files[*].Category.
	Categories map[string]int `json:"category_counts"`
	// Files holds one record per tracked file.
	Files []FileRecord `json:"files"`
}

// Age returns how long ago the snapshot was taken.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.TakenAt)
}

// Validate checks the snapshot's internal invariants.
func (s *Snapshot) Validate() error {
	if s.FileCount != len(s.Files) {
		return fmt.Errorf("file_count %d != len(files) %d", s.FileCount, len(s.Files))
	}

	lines := 0
	counts := make(map[string]int, len(s.Categories))
	for _, f := range s.Files {
		lines += f.LineCount
		counts[f.Category]++
	}
	if lines != s.TotalLines {
		return fmt.Errorf("total_lines %d != sum of line counts %d", s.TotalLines, lines)
	}
	if len(counts) != len(s.Categories) {
		return fmt.Errorf("category histogram mismatch: %v vs %v", s.Categories, counts)
	}
	for cat, n := range counts {
		if s.Categories[cat] != n {
			return fmt.Errorf("category %q count %d != %d", cat, s.Categories[cat], n)
		}
	}
	return nil
}
