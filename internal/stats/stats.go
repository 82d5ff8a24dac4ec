// Package stats derives size-distribution and recent-change views from
// a snapshot. Pure functions: no I/O beyond what the snapshot captured.
package stats

import (
	"sort"
	"time"

	"github.com/codescope-dev/codescope/internal/snapshot"
)

// Size bucket edges.
const (
	tinyMax   = 1 << 10  // 1KiB
	smallMax  = 10 << 10 // 10KiB
	mediumMax = 100 << 10
	largeMax  = 1 << 20 // 1MiB
)

// Recent-change view defaults.
const (
	// DefaultRecentWindow is the lookback for recently changed files.
	DefaultRecentWindow = 24 * time.Hour
	// MaxRecentChanges caps the recently changed list.
	MaxRecentChanges = 20
)

// SizeDistribution is a fixed-bucket histogram over file sizes.
type SizeDistribution struct {
	Tiny   int `json:"tiny"`   // < 1KiB
	Small  int `json:"small"`  // 1KiB - 10KiB
	Medium int `json:"medium"` // 10KiB - 100KiB
	Large  int `json:"large"`  // 100KiB - 1MiB
	Huge   int `json:"huge"`   // > 1MiB
}

// Distribution buckets the snapshot's files by size.
func Distribution(snap *snapshot.Snapshot) SizeDistribution {
	var d SizeDistribution
	for _, f := range snap.Files {
		switch {
		case f.Size < tinyMax:
			d.Tiny++
		case f.Size < smallMax:
			d.Small++
		case f.Size < mediumMax:
			d.Medium++
		case f.Size < largeMax:
			d.Large++
		default:
			d.Huge++
		}
	}
	return d
}

// RecentChanges returns files modified after now minus window, newest
// first, capped at MaxRecentChanges.
func RecentChanges(snap *snapshot.Snapshot, now time.Time, window time.Duration) []snapshot.FileRecord {
	cutoff := now.Add(-window)

	var recent []snapshot.FileRecord
	for _, f := range snap.Files {
		if f.Modified.After(cutoff) {
			recent = append(recent, f)
		}
	}

	sort.Slice(recent, func(i, j int) bool {
		return recent[i].Modified.After(recent[j].Modified)
	})

	if len(recent) > MaxRecentChanges {
		recent = recent[:MaxRecentChanges]
	}
	return recent
}
