package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	coderr "github.com/codescope-dev/codescope/internal/errors"
	"github.com/codescope-dev/codescope/internal/history"
	"github.com/codescope-dev/codescope/internal/search"
	"github.com/codescope-dev/codescope/internal/snapshot"
	"github.com/codescope-dev/codescope/internal/stats"
)

// handleHealth reports liveness, the project root, and the last scan.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var lastScan *time.Time
	if t, ok := s.coord.LastScan(); ok {
		lastScan = &t
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"timestamp":    time.Now(),
		"project_root": s.cfg.Root,
		"last_scan":    lastScan,
		"uptime":       time.Since(s.started).Seconds(),
	})
}

// handleCurrent returns the current snapshot, bootstrapping a scan if
// none exists yet.
func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	snap, err := s.coord.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var revision *string
	if rev := s.coord.Revision(r.Context()); rev != "" {
		revision = &rev
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot":   snap,
		"git_commit": revision,
		"scan_age":   snap.Age(time.Now()).Seconds(),
	})
}

// handleFiles lists the snapshot's files with optional category and
// path-substring filters.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	snap, err := s.coord.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	category := r.URL.Query().Get("type")
	pathQuery := strings.ToLower(r.URL.Query().Get("search"))

	files := make([]snapshot.FileRecord, 0, len(snap.Files))
	for _, f := range snap.Files {
		if category != "" && f.Category != category {
			continue
		}
		if pathQuery != "" && !strings.Contains(strings.ToLower(f.Path), pathQuery) {
			continue
		}
		files = append(files, f)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"files":          files,
		"total_count":    len(snap.Files),
		"filtered_count": len(files),
	})
}

// handleFile returns one file's text content by tree-relative path.
// 404 when missing, 400 when the content is not valid text.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	relPath := r.PathValue("path")
	if relPath == "" || !filepath.IsLocal(filepath.FromSlash(relPath)) {
		writeError(w, coderr.NotFound(relPath))
		return
	}

	absPath := filepath.Join(s.cfg.Root, filepath.FromSlash(relPath))
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		writeError(w, coderr.NotFound(relPath))
		return
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		writeError(w, coderr.NotFound(relPath))
		return
	}
	if !utf8.Valid(data) {
		writeError(w, coderr.Decode(relPath))
		return
	}

	content := string(data)
	lines := 0
	if len(content) > 0 {
		lines = strings.Count(content, "\n")
		if content[len(content)-1] != '\n' {
			lines++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"path":     relPath,
		"content":  content,
		"size":     info.Size(),
		"modified": info.ModTime(),
		"lines":    lines,
	})
}

// handleSearch runs a live content search over the snapshot's files.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("q")) == "" {
		writeError(w, coderr.InvalidQuery("search query must not be empty"))
		return
	}

	snap, err := s.coord.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	results, err := s.engine.Search(r.Context(), snap, search.Options{
		Query:         q.Get("q"),
		Category:      q.Get("type"),
		CaseSensitive: strings.EqualFold(q.Get("case_sensitive"), "true"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// handleHistory returns persisted scan summaries within a day window.
// With ?path= it returns the fingerprint trail of one file instead.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	if path := r.URL.Query().Get("path"); path != "" {
		records := []snapshot.FileRecord{}
		if s.store != nil {
			got, err := s.store.FileHistory(r.Context(), path, since)
			if err != nil {
				writeError(w, err)
				return
			}
			if got != nil {
				records = got
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"path":    path,
			"history": records,
			"days":    days,
		})
		return
	}

	entries := []history.Entry{}
	if s.store != nil {
		got, err := s.store.History(r.Context(), since)
		if err != nil {
			writeError(w, err)
			return
		}
		if got != nil {
			entries = got
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"history": entries,
		"days":    days,
	})
}

// handleStats combines the snapshot, best-effort git info, and the
// derived aggregate views.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.coord.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	gitInfo := map[string]any{
		"commit": nil,
		"branch": nil,
		"status": nil,
	}
	if s.git != nil {
		if commit, ok := s.git.Commit(r.Context()); ok {
			gitInfo["commit"] = commit
		}
		if branch, ok := s.git.Branch(r.Context()); ok {
			gitInfo["branch"] = branch
		}
		if st, ok := s.git.WorkingStatus(r.Context()); ok {
			gitInfo["status"] = st
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"current_snapshot":       snap,
		"git_info":               gitInfo,
		"file_size_distribution": stats.Distribution(snap),
		"recent_changes":         stats.RecentChanges(snap, time.Now(), stats.DefaultRecentWindow),
	})
}

// handleContext serves static descriptive metadata plus the current
// snapshot, without forcing a bootstrap scan.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	current, _ := s.coord.Cached()

	writeJSON(w, http.StatusOK, map[string]any{
		"project_name": filepath.Base(s.cfg.Root),
		"description":  "codescope keeps a periodically refreshed, queryable index of this source tree",
		"capabilities": []string{
			"periodic full-tree snapshots with per-file fingerprints",
			"live content search with context windows",
			"append-only scan history with revision ids",
			"size-distribution and recent-change statistics",
		},
		"categories":    snapshot.Categories(),
		"scan_interval": s.cfg.Scan.Interval,
		"current_state": current,
	})
}

