package scanner

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	coderr "github.com/codescope-dev/codescope/internal/errors"
	"github.com/codescope-dev/codescope/internal/snapshot"
)

// Scanner discovers and fingerprints tracked files in a project tree.
type Scanner struct {
	root    string
	ignored map[string]struct{}
	opts    Options
}

// candidate is a file selected during the walk, before fingerprinting.
type candidate struct {
	relPath  string
	absPath  string
	size     int64
	modTime  time.Time
	category string
}

// New creates a Scanner for the given options.
func New(opts Options) (*Scanner, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	ignored := make(map[string]struct{}, len(opts.IgnoreDirs))
	for _, name := range opts.IgnoreDirs {
		ignored[name] = struct{}{}
	}

	return &Scanner{root: absRoot, ignored: ignored, opts: opts}, nil
}

// Root returns the absolute project root being scanned.
func (s *Scanner) Root() string {
	return s.root
}

// Scan performs one full tree walk and returns the resulting snapshot.
// TakenAt is the scan start time. A single unreadable file never aborts
// the scan: it is logged and skipped. Scanning an unchanged tree twice
// yields identical counts, histograms, and per-file digests.
func (s *Scanner) Scan(ctx context.Context) (*snapshot.Snapshot, error) {
	start := time.Now()

	cands, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.fingerprintAll(ctx, cands)
	if err != nil {
		return nil, err
	}

	snap := &snapshot.Snapshot{
		ID:         uuid.NewString(),
		TakenAt:    start,
		FileCount:  len(records),
		Categories: make(map[string]int),
		Files:      records,
	}
	for _, rec := range records {
		snap.TotalLines += rec.LineCount
		snap.Categories[rec.Category]++
	}

	slog.Info("scan_complete",
		slog.String("scan_id", snap.ID),
		slog.Int("file_count", snap.FileCount),
		slog.Int("total_lines", snap.TotalLines),
		slog.Duration("elapsed", time.Since(start)))

	return snap, nil
}

// discover walks the tree once and collects tracked candidates in walk
// order. Ignored names are skipped at any depth, whether they name a
// directory or a file, so nothing under or matching them becomes a
// candidate.
func (s *Scanner) discover(ctx context.Context) ([]candidate, error) {
	var cands []candidate

	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			slog.Warn("scan_entry_inaccessible", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil || relPath == "." {
			return nil
		}

		if d.IsDir() {
			if _, skip := s.ignored[d.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		// Ignore names apply to every path segment, files included.
		if _, skip := s.ignored[d.Name()]; skip {
			return nil
		}

		category, tracked := snapshot.CategoryForPath(relPath)
		if !tracked {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			slog.Warn("scan_stat_failed", slog.String("path", relPath), slog.String("error", err.Error()))
			return nil
		}
		if info.Size() > s.opts.maxFileSize() {
			slog.Debug("scan_file_too_large", slog.String("path", relPath), slog.Int64("size", info.Size()))
			return nil
		}

		cands = append(cands, candidate{
			relPath:  filepath.ToSlash(relPath),
			absPath:  path,
			size:     info.Size(),
			modTime:  info.ModTime(),
			category: category,
		})
		return nil
	})

	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, walkErr)
	}
	return cands, nil
}

// fingerprintAll hashes candidates concurrently while preserving walk
// order. Unreadable files are dropped, never fatal.
func (s *Scanner) fingerprintAll(ctx context.Context, cands []candidate) ([]snapshot.FileRecord, error) {
	slots := make([]*snapshot.FileRecord, len(cands))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.workers())

	for i, c := range cands {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			rec, err := fingerprint(c)
			if err != nil {
				slog.Warn("scan_file_skipped",
					slog.String("path", c.relPath),
					slog.String("code", coderr.GetCode(err)),
					slog.String("error", err.Error()))
				return nil
			}
			slots[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]snapshot.FileRecord, 0, len(cands))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, nil
}

// fingerprint reads one candidate and produces its record.
// Valid UTF-8 content is digested and line-counted; anything else is
// treated as binary: the digest covers the path instead and the line
// count is zero. The file still counts toward totals either way.
func fingerprint(c candidate) (*snapshot.FileRecord, error) {
	data, err := os.ReadFile(c.absPath)
	if err != nil {
		return nil, coderr.ScanIO(c.relPath, err)
	}

	rec := &snapshot.FileRecord{
		Path:     c.relPath,
		Size:     c.size,
		Modified: c.modTime,
		Category: c.category,
	}

	if utf8.Valid(data) {
		rec.ContentHash = digest(data)
		rec.LineCount = countLines(data)
	} else {
		rec.ContentHash = digest([]byte(c.relPath))
		rec.LineCount = 0
	}

	return rec, nil
}

// digest returns the xxh3-128 hex fingerprint of b.
func digest(b []byte) string {
	sum := xxh3.Hash128(b).Bytes()
	return hex.EncodeToString(sum[:])
}

// countLines counts lines with splitlines semantics: a trailing line
// terminator does not start an empty final line, and empty content has
// zero lines.
func countLines(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	n := bytes.Count(b, []byte{'\n'})
	if b[len(b)-1] != '\n' {
		n++
	}
	return n
}
