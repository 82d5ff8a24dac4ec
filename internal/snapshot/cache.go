package snapshot

import (
	"sync/atomic"
)

// Cache holds the single current snapshot behind an atomic pointer.
// Replace swaps the whole snapshot at once, so a concurrent Current
// call returns either the prior snapshot or the new one, never a mix.
// No lock is held while a scan builds the next snapshot.
type Cache struct {
	current atomic.Pointer[Snapshot]
}

// NewCache creates an empty cache. Current returns false until the
// first Replace.
func NewCache() *Cache {
	return &Cache{}
}

// Current returns the current snapshot, if any.
func (c *Cache) Current() (*Snapshot, bool) {
	s := c.current.Load()
	return s, s != nil
}

// Replace atomically publishes a new snapshot.
func (c *Cache) Replace(s *Snapshot) {
	c.current.Store(s)
}
