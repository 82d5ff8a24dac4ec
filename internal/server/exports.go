package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	coderr "github.com/codescope-dev/codescope/internal/errors"
)

// exportEntry describes one downloadable artifact.
type exportEntry struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
	URL      string `json:"url"`
}

// handleExports lists the .txt artifacts in the export directory.
// The core never writes there; this is a read-only passthrough.
func (s *Server) handleExports(w http.ResponseWriter, r *http.Request) {
	entries := []exportEntry{}

	dirEntries, err := os.ReadDir(s.cfg.ExportPath())
	if err != nil {
		// A missing export directory means no artifacts, not an error.
		writeJSON(w, http.StatusOK, map[string]any{"exports": entries})
		return
	}

	for _, de := range dirEntries {
		if de.IsDir() || !strings.EqualFold(filepath.Ext(de.Name()), ".txt") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, exportEntry{
			Name:     strings.TrimSuffix(de.Name(), filepath.Ext(de.Name())),
			Filename: de.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().Format(time.RFC3339),
			URL:      fmt.Sprintf("/api/codebase/exports/%s", de.Name()),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"exports": entries})
}

// handleExportDownload serves one artifact as an attachment.
func (s *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	// Artifacts live directly in the export directory; reject anything
	// that is not a bare file name.
	if name == "" || name != filepath.Base(name) || !filepath.IsLocal(name) {
		writeError(w, coderr.NotFound(name))
		return
	}

	path := filepath.Join(s.cfg.ExportPath(), name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, coderr.NotFound(name))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}
