// Package server exposes the snapshot engine over an HTTP API.
//
// Endpoints:
//   - GET /health                        - health and last scan time
//   - GET /api/codebase/current          - current snapshot (+revision, scan age)
//   - GET /api/codebase/files            - file list with filters
//   - GET /api/codebase/file/{path}      - one file's content
//   - GET /api/codebase/search           - content search with context windows
//   - GET /api/codebase/exports          - export artifact listing
//   - GET /api/codebase/exports/{name}   - export artifact download
//   - GET /api/codebase/history          - persisted scan history (?path= for one file)
//   - GET /api/codebase/stats            - snapshot + git + aggregate stats
//   - GET /api/ai/context                - static project context
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/codescope-dev/codescope/internal/config"
	coderr "github.com/codescope-dev/codescope/internal/errors"
	"github.com/codescope-dev/codescope/internal/gitinfo"
	"github.com/codescope-dev/codescope/internal/history"
	"github.com/codescope-dev/codescope/internal/index"
	"github.com/codescope-dev/codescope/internal/search"
	"github.com/codescope-dev/codescope/internal/snapshot"
)

// HistoryReader queries persisted scan summaries and per-file
// fingerprint trails.
type HistoryReader interface {
	History(ctx context.Context, since time.Time) ([]history.Entry, error)
	FileHistory(ctx context.Context, path string, since time.Time) ([]snapshot.FileRecord, error)
}

// Server is the HTTP boundary around the snapshot engine.
// It owns no snapshot state itself; every read goes through the
// coordinator's cache.
type Server struct {
	cfg    *config.Config
	coord  *index.Coordinator
	engine *search.Engine
	store  HistoryReader   // may be nil: history disabled
	git    *gitinfo.Client // may be nil: no revision control

	httpServer *http.Server
	started    time.Time
}

// New wires the server. store and git may be nil.
func New(cfg *config.Config, coord *index.Coordinator, engine *search.Engine, store HistoryReader, git *gitinfo.Client) *Server {
	s := &Server{
		cfg:     cfg,
		coord:   coord,
		engine:  engine,
		store:   store,
		git:     git,
		started: time.Now(),
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table with the middleware chain applied.
// Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/codebase/current", s.handleCurrent)
	mux.HandleFunc("GET /api/codebase/files", s.handleFiles)
	mux.HandleFunc("GET /api/codebase/file/{path...}", s.handleFile)
	mux.HandleFunc("GET /api/codebase/search", s.handleSearch)
	mux.HandleFunc("GET /api/codebase/exports", s.handleExports)
	mux.HandleFunc("GET /api/codebase/exports/{name}", s.handleExportDownload)
	mux.HandleFunc("GET /api/codebase/history", s.handleHistory)
	mux.HandleFunc("GET /api/codebase/stats", s.handleStats)
	mux.HandleFunc("GET /api/ai/context", s.handleContext)

	return withRecovery(withLogging(withCORS(mux)))
}

// Start listens until Shutdown or a listener error.
func (s *Server) Start() error {
	slog.Info("server_listening",
		slog.String("addr", s.httpServer.Addr),
		slog.String("root", s.cfg.Root))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", slog.String("error", err.Error()))
	}
}

// writeError maps an error to a JSON error payload.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}

// statusForError maps error codes to HTTP statuses. Only validation
// and missing-resource errors cross the boundary as client errors;
// everything else is a 500.
func statusForError(err error) int {
	switch coderr.GetCode(err) {
	case coderr.ErrCodeInvalidQuery, coderr.ErrCodeDecode:
		return http.StatusBadRequest
	case coderr.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
