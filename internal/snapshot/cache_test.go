package snapshot

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_EmptyUntilFirstReplace(t *testing.T) {
	c := NewCache()

	_, ok := c.Current()
	assert.False(t, ok)

	snap := testSnapshot(nil)
	c.Replace(snap)

	got, ok := c.Current()
	require.True(t, ok)
	assert.Same(t, snap, got)
}

// Readers racing a writer must always observe a fully-formed snapshot:
// FileCount equal to len(Files), never a mix of two snapshots' fields.
func TestCache_ConcurrentReadersNeverSeeTornSnapshot(t *testing.T) {
	c := NewCache()
	c.Replace(testSnapshot([]FileRecord{{Path: "seed.go", Category: "go", LineCount: 1}}))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Writer: keep replacing with snapshots of varying sizes.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			files := make([]FileRecord, i%7)
			for j := range files {
				files[j] = FileRecord{
					Path:      fmt.Sprintf("f%d_%d.py", i, j),
					Category:  "python",
					LineCount: j,
				}
			}
			c.Replace(testSnapshot(files))
		}
	}()

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deadline := time.Now().Add(200 * time.Millisecond)
			for time.Now().Before(deadline) {
				snap, ok := c.Current()
				if !ok {
					t.Error("snapshot vanished after first replace")
					return
				}
				if err := snap.Validate(); err != nil {
					t.Errorf("torn snapshot observed: %v", err)
					return
				}
			}
		}()
	}

	time.Sleep(220 * time.Millisecond)
	close(stop)
	wg.Wait()
}
