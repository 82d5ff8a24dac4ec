package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope-dev/codescope/internal/config"
	"github.com/codescope-dev/codescope/internal/history"
	"github.com/codescope-dev/codescope/internal/index"
	"github.com/codescope-dev/codescope/internal/scanner"
	"github.com/codescope-dev/codescope/internal/search"
	"github.com/codescope-dev/codescope/internal/snapshot"
)

// newTestServer builds a server over a temp tree with an in-memory
// history store and no git client.
func newTestServer(t *testing.T, files map[string]string) (*Server, string) {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := config.Default(root)

	sc, err := scanner.New(scanner.Options{
		Root:       root,
		IgnoreDirs: cfg.Scan.IgnoreDirs,
	})
	require.NoError(t, err)

	store, err := history.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	coord := index.NewCoordinator(sc, snapshot.NewCache(), store, nil)
	return New(cfg, coord, search.NewEngine(root), store, nil), root
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	// Given a server that has not scanned yet
	srv, root := newTestServer(t, map[string]string{"main.py": "print('hi')\n"})
	h := srv.Handler()

	// When /health is requested
	rec, body := get(t, h, "/health")

	// Then it reports healthy with a null last scan
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, root, body["project_root"])
	assert.Nil(t, body["last_scan"])
}

func TestCurrent_BootstrapsFirstScan(t *testing.T) {
	// Given a tree with two indexable files and one ignored extension
	srv, _ := newTestServer(t, map[string]string{
		"main.py":   "a\nb\nc\n",
		"lib/x.go":  "package x\n",
		"image.png": "not indexed",
	})
	h := srv.Handler()

	// When the current snapshot is requested
	rec, body := get(t, h, "/api/codebase/current")

	// Then a scan ran and the snapshot covers the indexable files
	require.Equal(t, http.StatusOK, rec.Code)
	snap := body["snapshot"].(map[string]any)
	assert.Equal(t, float64(2), snap["file_count"])
	assert.Equal(t, float64(4), snap["total_lines"])
	assert.Nil(t, body["git_commit"])

	// And /health now reports the scan
	_, health := get(t, h, "/health")
	assert.NotNil(t, health["last_scan"])
}

func TestFiles_Filters(t *testing.T) {
	// Given a snapshot with mixed categories
	srv, _ := newTestServer(t, map[string]string{
		"main.py":      "x\n",
		"util/help.py": "y\n",
		"schema.sql":   "select 1;\n",
	})
	h := srv.Handler()

	// When filtering by category
	rec, body := get(t, h, "/api/codebase/files?type=python")

	// Then only python files remain, with both counts reported
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["total_count"])
	assert.Equal(t, float64(2), body["filtered_count"])

	// When filtering by path substring, case-insensitively
	_, body = get(t, h, "/api/codebase/files?search=HELP")
	assert.Equal(t, float64(1), body["filtered_count"])
	files := body["files"].([]any)
	assert.Equal(t, "util/help.py", files[0].(map[string]any)["path"])
}

func TestFile_Content(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"src/app.py": "line one\nline two\n",
	})
	h := srv.Handler()

	rec, body := get(t, h, "/api/codebase/file/src/app.py")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "src/app.py", body["path"])
	assert.Equal(t, "line one\nline two\n", body["content"])
	assert.Equal(t, float64(2), body["lines"])
}

func TestFile_MissingAndTraversal(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"a.py": "x\n"})
	h := srv.Handler()

	rec, _ := get(t, h, "/api/codebase/file/nope.py")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Path escapes are rejected rather than resolved.
	rec, _ = get(t, h, "/api/codebase/file/..%2F..%2Fetc%2Fpasswd")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFile_BinaryContentRejected(t *testing.T) {
	srv, root := newTestServer(t, map[string]string{"a.py": "x\n"})
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.py"), []byte{0xff, 0xfe, 0x00, 0x01}, 0o644))
	h := srv.Handler()

	rec, body := get(t, h, "/api/codebase/file/blob.py")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "ERR_202_DECODE")
}

func TestSearch_ContextWindows(t *testing.T) {
	// Given a file with a match far from both edges
	srv, _ := newTestServer(t, map[string]string{
		"doc.md": "l1\nl2\nl3\nl4\nneedle here\nl6\nl7\nl8\nl9\n",
	})
	h := srv.Handler()

	rec, body := get(t, h, "/api/codebase/search?q=needle")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "needle", body["query"])
	assert.Equal(t, float64(1), body["files_with_matches"])

	results := body["results"].([]any)
	require.Len(t, results, 1)
	matches := results[0].(map[string]any)["matches"].([]any)
	require.Len(t, matches, 1)

	m := matches[0].(map[string]any)
	assert.Equal(t, float64(5), m["line_number"])
	assert.Len(t, m["context_before"].([]any), 2)
	assert.Len(t, m["context_after"].([]any), 3)
}

func TestSearch_EmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"a.py": "x\n"})
	h := srv.Handler()

	rec, body := get(t, h, "/api/codebase/search?q=%20%20")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "ERR_401_INVALID_QUERY")
}

func TestSearch_EmptyQuerySkipsScan(t *testing.T) {
	// Given a server that has never scanned
	srv, _ := newTestServer(t, map[string]string{"a.py": "x\n"})
	h := srv.Handler()

	// When a search with no query arrives
	rec, _ := get(t, h, "/api/codebase/search?q=")

	// Then it is rejected before any snapshot is built
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, ok := srv.coord.LastScan()
	assert.False(t, ok, "an invalid query must not force a scan")
}

func TestHistory_ReflectsScans(t *testing.T) {
	// Given two completed scans
	srv, _ := newTestServer(t, map[string]string{"a.py": "x\n"})
	h := srv.Handler()
	_, err := srv.coord.Rescan(context.Background())
	require.NoError(t, err)
	_, err = srv.coord.Rescan(context.Background())
	require.NoError(t, err)

	// When history is requested with a custom window
	rec, body := get(t, h, "/api/codebase/history?days=3")

	// Then both entries are returned
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["days"])
	assert.Len(t, body["history"].([]any), 2)
}

func TestHistory_SingleFile(t *testing.T) {
	// Given scans before and after a file changed
	srv, root := newTestServer(t, map[string]string{"a.py": "x\n"})
	h := srv.Handler()
	_, err := srv.coord.Rescan(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("x\ny\n"), 0o644))
	_, err = srv.coord.Rescan(context.Background())
	require.NoError(t, err)

	// When the file's history is requested
	rec, body := get(t, h, "/api/codebase/history?path=a.py")

	// Then both fingerprints come back, newest first
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a.py", body["path"])
	records := body["history"].([]any)
	require.Len(t, records, 2)
	assert.Equal(t, float64(2), records[0].(map[string]any)["line_count"])
	assert.Equal(t, float64(1), records[1].(map[string]any)["line_count"])
}

func TestStats_Shape(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"a.py": "x\n"})
	h := srv.Handler()

	rec, body := get(t, h, "/api/codebase/stats")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "current_snapshot")
	assert.Contains(t, body, "file_size_distribution")
	assert.Contains(t, body, "recent_changes")

	// No git client is wired, so every git field is null.
	gitInfo := body["git_info"].(map[string]any)
	assert.Nil(t, gitInfo["commit"])
	assert.Nil(t, gitInfo["branch"])

	dist := body["file_size_distribution"].(map[string]any)
	assert.Equal(t, float64(1), dist["tiny"])
}

func TestExports_EmptyWhenDirAbsent(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"a.py": "x\n"})
	h := srv.Handler()

	rec, body := get(t, h, "/api/codebase/exports")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["exports"])
}

func TestExports_ListAndDownload(t *testing.T) {
	// Given an export directory with one artifact and one non-artifact
	srv, root := newTestServer(t, map[string]string{"a.py": "x\n"})
	exportDir := filepath.Join(root, "export")
	require.NoError(t, os.MkdirAll(exportDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(exportDir, "context.txt"), []byte("payload"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(exportDir, "notes.json"), []byte("{}"), 0o644))
	h := srv.Handler()

	// When the listing is requested
	rec, body := get(t, h, "/api/codebase/exports")

	// Then only the .txt artifact is listed
	require.Equal(t, http.StatusOK, rec.Code)
	exports := body["exports"].([]any)
	require.Len(t, exports, 1)
	entry := exports[0].(map[string]any)
	assert.Equal(t, "context", entry["name"])
	assert.Equal(t, "context.txt", entry["filename"])
	assert.Equal(t, "/api/codebase/exports/context.txt", entry["url"])

	// And the download URL serves the artifact bytes
	dl := httptest.NewRecorder()
	h.ServeHTTP(dl, httptest.NewRequest(http.MethodGet, entry["url"].(string), nil))
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, "payload", dl.Body.String())
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "context.txt")
}

func TestExportDownload_Missing(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"a.py": "x\n"})
	h := srv.Handler()

	rec, _ := get(t, h, "/api/codebase/exports/nope.txt")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContext_NoBootstrap(t *testing.T) {
	// Given a server that has never scanned
	srv, root := newTestServer(t, map[string]string{"a.py": "x\n"})
	h := srv.Handler()

	// When the context endpoint is requested
	rec, body := get(t, h, "/api/ai/context")

	// Then it answers without triggering a scan
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, filepath.Base(root), body["project_name"])
	assert.Nil(t, body["current_state"])
	assert.NotEmpty(t, body["capabilities"])

	_, ok := srv.coord.LastScan()
	assert.False(t, ok, "context endpoint must not force a scan")
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"a.py": "x\n"})
	h := srv.Handler()

	rec, _ := get(t, h, "/health")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	preflight := httptest.NewRecorder()
	h.ServeHTTP(preflight, httptest.NewRequest(http.MethodOptions, "/api/codebase/current", nil))
	assert.Equal(t, http.StatusNoContent, preflight.Code)
}

func TestConcurrentReadsDuringRescan(t *testing.T) {
	// Given an initial snapshot
	srv, root := newTestServer(t, map[string]string{"a.py": "x\n"})
	h := srv.Handler()
	_, err := srv.coord.Rescan(context.Background())
	require.NoError(t, err)

	// When readers hammer the API while the tree changes and rescans run
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			os.WriteFile(filepath.Join(root, "b.py"), []byte("y\n"), 0o644)
			srv.coord.Rescan(context.Background())
			time.Sleep(time.Millisecond)
		}
	}()

	for i := 0; i < 50; i++ {
		rec, body := get(t, h, "/api/codebase/current")
		if !assert.Equal(t, http.StatusOK, rec.Code) {
			break
		}
		snap := body["snapshot"].(map[string]any)
		files := snap["files"].([]any)
		// Every response is a coherent snapshot.
		assert.Equal(t, snap["file_count"], float64(len(files)))
	}
	<-done
}
