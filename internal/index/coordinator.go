// Package index coordinates scans: it owns the scanner, the snapshot
// cache, and the best-effort history append, and schedules periodic
// rescans.
package index

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/codescope-dev/codescope/internal/snapshot"
)

// TreeScanner performs one full tree scan.
type TreeScanner interface {
	Scan(ctx context.Context) (*snapshot.Snapshot, error)
}

// HistoryAppender persists one completed scan.
type HistoryAppender interface {
	Append(ctx context.Context, snap *snapshot.Snapshot, revision string) error
}

// RevisionReader reads the best-effort revision control id.
type RevisionReader interface {
	Commit(ctx context.Context) (string, bool)
}

// Coordinator runs scans and publishes their snapshots.
//
// Scans are serialized: Rescan never overlaps another Rescan. Readers
// are never blocked; they see the previous snapshot until the replace.
// The cache replace and the history append both reflect the same
// snapshot instance, though the pair is not atomic (the append is
// best-effort).
type Coordinator struct {
	scanner TreeScanner
	cache   *snapshot.Cache
	store   HistoryAppender // may be nil: history disabled
	rev     RevisionReader  // may be nil: no revision control

	scanMu   sync.Mutex
	group    singleflight.Group
	lastScan atomic.Int64 // unix nanos of last completed scan, 0 = never
}

// NewCoordinator wires a coordinator. store and rev may be nil.
func NewCoordinator(sc TreeScanner, cache *snapshot.Cache, store HistoryAppender, rev RevisionReader) *Coordinator {
	return &Coordinator{scanner: sc, cache: cache, store: store, rev: rev}
}

// Current returns the current snapshot, bootstrapping with a
// synchronous scan when none exists yet. Concurrent first readers
// share a single bootstrap scan.
func (c *Coordinator) Current(ctx context.Context) (*snapshot.Snapshot, error) {
	if snap, ok := c.cache.Current(); ok {
		return snap, nil
	}

	v, err, _ := c.group.Do("bootstrap", func() (any, error) {
		// Another caller may have finished the bootstrap while we
		// queued on the group.
		if snap, ok := c.cache.Current(); ok {
			return snap, nil
		}
		return c.Rescan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot.Snapshot), nil
}

// Rescan runs one full scan cycle: scan, atomically replace the cache,
// then append to history best-effort. The cache is only replaced on
// success, so readers keep the previous snapshot when a scan fails.
func (c *Coordinator) Rescan(ctx context.Context) (*snapshot.Snapshot, error) {
	c.scanMu.Lock()
	defer c.scanMu.Unlock()

	snap, err := c.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.Replace(snap)
	c.lastScan.Store(time.Now().UnixNano())

	revision := c.Revision(ctx)
	if c.store != nil {
		if err := c.store.Append(ctx, snap, revision); err != nil {
			slog.Error("history_append_failed",
				slog.String("scan_id", snap.ID),
				slog.String("error", err.Error()))
		}
	}

	return snap, nil
}

// Cached returns the current snapshot without triggering a bootstrap
// scan.
func (c *Coordinator) Cached() (*snapshot.Snapshot, bool) {
	return c.cache.Current()
}

// Revision returns the best-effort revision id, empty when revision
// control is unavailable.
func (c *Coordinator) Revision(ctx context.Context) string {
	if c.rev == nil {
		return ""
	}
	commit, ok := c.rev.Commit(ctx)
	if !ok {
		return ""
	}
	return commit
}

// LastScan reports when the last scan completed.
func (c *Coordinator) LastScan() (time.Time, bool) {
	ns := c.lastScan.Load()
	if ns == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}
