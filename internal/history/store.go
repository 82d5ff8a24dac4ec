// Package history persists append-only scan snapshots to SQLite.
//
// The store is best-effort: the live snapshot cache stays authoritative
// for current state, and a persistence failure never fails the scan
// that triggered it.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	coderr "github.com/codescope-dev/codescope/internal/errors"
	"github.com/codescope-dev/codescope/internal/snapshot"
)

// MaxEntries caps the number of entries a history query returns.
const MaxEntries = 100

// Entry is a persisted summary of one past snapshot plus the repository
// revision active at that time (empty if revision control was
// unavailable). Rows are immutable once written; the store only appends.
type Entry struct {
	TakenAt    time.Time      `json:"taken_at"`
	FileCount  int            `json:"file_count"`
	TotalLines int            `json:"total_lines"`
	Categories map[string]int `json:"category_counts"`
	Revision   string         `json:"revision,omitempty"`
}

// Store is the append-only fingerprint store.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS scan_snapshots (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_id     TEXT NOT NULL,
	taken_at    INTEGER NOT NULL,
	file_count  INTEGER NOT NULL,
	total_lines INTEGER NOT NULL,
	categories  TEXT NOT NULL,
	revision    TEXT
);
CREATE INDEX IF NOT EXISTS idx_scan_snapshots_taken_at ON scan_snapshots(taken_at);

CREATE TABLE IF NOT EXISTS file_snapshots (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_id      TEXT NOT NULL,
	taken_at     INTEGER NOT NULL,
	path         TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	size         INTEGER NOT NULL,
	modified_at  INTEGER NOT NULL,
	line_count   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_file_snapshots_taken_at ON file_snapshots(taken_at);
CREATE INDEX IF NOT EXISTS idx_file_snapshots_path ON file_snapshots(path);
`

// Open opens (or creates) the history database at path.
// An empty path opens an in-memory store for testing.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, coderr.Persistence(fmt.Sprintf("cannot create %s", filepath.Dir(path)), err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, coderr.Persistence("cannot open history database", err)
	}

	// Single writer keeps SQLite lock contention away; readers go
	// through the same connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode must be set via PRAGMA for modernc.org/sqlite.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, coderr.Persistence("cannot set pragma", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, coderr.Persistence("cannot initialize schema", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records one completed scan: a summary row plus one row per
// file. Exactly one summary row is written per snapshot.
func (s *Store) Append(ctx context.Context, snap *snapshot.Snapshot, revision string) error {
	categories, err := json.Marshal(snap.Categories)
	if err != nil {
		return coderr.Persistence("cannot encode category histogram", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return coderr.Persistence("cannot begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	takenAt := snap.TakenAt.UnixMilli()

	var rev sql.NullString
	if revision != "" {
		rev = sql.NullString{String: revision, Valid: true}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scan_snapshots (scan_id, taken_at, file_count, total_lines, categories, revision)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, takenAt, snap.FileCount, snap.TotalLines, string(categories), rev,
	); err != nil {
		return coderr.Persistence("cannot insert scan summary", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO file_snapshots (scan_id, taken_at, path, content_hash, size, modified_at, line_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return coderr.Persistence("cannot prepare file insert", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, f := range snap.Files {
		if _, err := stmt.ExecContext(ctx,
			snap.ID, takenAt, f.Path, f.ContentHash, f.Size, f.Modified.UnixMilli(), f.LineCount,
		); err != nil {
			return coderr.Persistence(fmt.Sprintf("cannot insert file row for %s", f.Path), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return coderr.Persistence("cannot commit snapshot", err)
	}
	return nil
}

// History returns scan summaries with taken_at strictly after since,
// newest first, capped at MaxEntries.
func (s *Store) History(ctx context.Context, since time.Time) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT taken_at, file_count, total_lines, categories, revision
		 FROM scan_snapshots
		 WHERE taken_at > ?
		 ORDER BY taken_at DESC, id DESC
		 LIMIT ?`,
		since.UnixMilli(), MaxEntries)
	if err != nil {
		return nil, coderr.Persistence("history query failed", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			takenAt    int64
			categories string
			revision   sql.NullString
			e          Entry
		)
		if err := rows.Scan(&takenAt, &e.FileCount, &e.TotalLines, &categories, &revision); err != nil {
			return nil, coderr.Persistence("history row scan failed", err)
		}
		e.TakenAt = time.UnixMilli(takenAt)
		e.Revision = revision.String
		if categories != "" {
			if err := json.Unmarshal([]byte(categories), &e.Categories); err != nil {
				return nil, coderr.Persistence("cannot decode category histogram", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, coderr.Persistence("history iteration failed", err)
	}
	return entries, nil
}

// FileHistory returns the persisted fingerprints for one path, newest
// first, capped at MaxEntries. Useful for change tracing of a single
// file across scans.
func (s *Store) FileHistory(ctx context.Context, path string, since time.Time) ([]snapshot.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, content_hash, size, modified_at, line_count
		 FROM file_snapshots
		 WHERE path = ? AND taken_at > ?
		 ORDER BY taken_at DESC, id DESC
		 LIMIT ?`,
		path, since.UnixMilli(), MaxEntries)
	if err != nil {
		return nil, coderr.Persistence("file history query failed", err)
	}
	defer func() { _ = rows.Close() }()

	var records []snapshot.FileRecord
	for rows.Next() {
		var (
			rec      snapshot.FileRecord
			modified int64
		)
		if err := rows.Scan(&rec.Path, &rec.ContentHash, &rec.Size, &modified, &rec.LineCount); err != nil {
			return nil, coderr.Persistence("file history row scan failed", err)
		}
		rec.Modified = time.UnixMilli(modified)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, coderr.Persistence("file history iteration failed", err)
	}
	return records, nil
}
