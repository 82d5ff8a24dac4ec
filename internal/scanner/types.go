// Package scanner walks a project tree and builds snapshots.
// Each scan is a full walk: candidate files are discovered in tree
// order, fingerprinted, and aggregated into an immutable snapshot.
package scanner

import (
	"runtime"
)

// DefaultMaxFileSize is the default fingerprint size cap (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// Options configures the scanner.
type Options struct {
	// Root is the project root directory to scan.
	Root string

	// IgnoreDirs are directory names skipped anywhere in the tree.
	// A name matches whole path segments only.
	IgnoreDirs []string

	// MaxFileSize is the largest file fingerprinted in bytes
	// (0 = 10MB default).
	MaxFileSize int64

	// Workers is the number of concurrent fingerprint workers
	// (0 = NumCPU).
	Workers int
}

func (o *Options) maxFileSize() int64 {
	if o.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return o.MaxFileSize
}

func (o *Options) workers() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}
