package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newScanner(t *testing.T, root string, ignore ...string) *Scanner {
	t.Helper()
	s, err := New(Options{Root: root, IgnoreDirs: ignore, Workers: 2})
	require.NoError(t, err)
	return s
}

func TestScan_ExampleFromIgnoredDirectory(t *testing.T) {
	// Given: a.py with 10 lines plus a file under an ignored directory
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":                strings.Repeat("print('x')\n", 10),
		"b/ignored_dir/c.py":  "print('hidden')\n",
		"b/ignored_dir/d.txt": "hidden too\n",
	})

	snap, err := newScanner(t, root, "ignored_dir").Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, snap.FileCount)
	assert.Equal(t, 10, snap.TotalLines)
	assert.Equal(t, map[string]int{"python": 1}, snap.Categories)
	require.NoError(t, snap.Validate())
}

func TestScan_IgnoredDirAtAnyDepth(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.md":                          "# hi\n",
		"node_modules/x.js":                "nope",
		"a/node_modules/y.js":              "nope",
		"a/b/c/node_modules/deep/z.js":     "nope",
		"not_node_modules_suffix/inner.js": "kept",
	})

	snap, err := newScanner(t, root, "node_modules").Scan(context.Background())
	require.NoError(t, err)

	paths := make([]string, 0, len(snap.Files))
	for _, f := range snap.Files {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"keep.md", "not_node_modules_suffix/inner.js"}, paths)
}

func TestScan_IgnoredNameMatchesFiles(t *testing.T) {
	// Given: an ignore entry that matches a plain file, not a directory
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.py":        "print('kept')\n",
		"generated.py":   "print('skipped')\n",
		"a/generated.py": "print('skipped too')\n",
	})

	snap, err := newScanner(t, root, "generated.py").Scan(context.Background())
	require.NoError(t, err)

	paths := make([]string, 0, len(snap.Files))
	for _, f := range snap.Files {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"keep.py"}, paths)
}

func TestScan_ExtensionFilter(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.rs":    "fn main() {}\n",
		"schema.SQL": "SELECT 1;\n",
		"photo.png":  "\x89PNG",
		"binary.exe": "MZ",
		"README":     "no extension",
	})

	snap, err := newScanner(t, root).Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, snap.FileCount)
	assert.Equal(t, 1, snap.Categories["rust"])
	assert.Equal(t, 1, snap.Categories["sql"], "extension match is case-insensitive")
}

func TestScan_BinaryContentIsFingerprintedByPath(t *testing.T) {
	// Given: a .py file whose bytes are not valid UTF-8
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.py"), []byte{0xff, 0xfe, 0x00, 0x41}, 0o644))
	writeTree(t, root, map[string]string{"ok.py": "x = 1\n"})

	snap, err := newScanner(t, root).Scan(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, snap.FileCount)
	var blob, ok *string
	for i := range snap.Files {
		switch snap.Files[i].Path {
		case "blob.py":
			assert.Equal(t, 0, snap.Files[i].LineCount)
			blob = &snap.Files[i].ContentHash
		case "ok.py":
			ok = &snap.Files[i].ContentHash
		}
	}
	require.NotNil(t, blob)
	require.NotNil(t, ok)

	// The binary digest covers the path, so it differs from content digests
	// and is stable across scans.
	assert.Len(t, *blob, 32)
	assert.NotEqual(t, *blob, *ok)
	assert.Equal(t, digest([]byte("blob.py")), *blob)
	assert.Equal(t, 1, snap.TotalLines, "binary files contribute zero lines")
	assert.Equal(t, 2, snap.Categories["python"], "binary files still count in the histogram")
}

func TestScan_IdempotentOnUnchangedTree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.go":      "package a\n\nfunc A() {}\n",
		"b/b.ts":    "export const b = 1;\n",
		"c/c.toml":  "[section]\nkey = 1\n",
		"d/blob.py": "line1\nline2",
	})

	s := newScanner(t, root)
	first, err := s.Scan(context.Background())
	require.NoError(t, err)
	second, err := s.Scan(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.FileCount, second.FileCount)
	assert.Equal(t, first.TotalLines, second.TotalLines)
	assert.Equal(t, first.Categories, second.Categories)

	firstHashes := make(map[string]string)
	for _, f := range first.Files {
		firstHashes[f.Path] = f.ContentHash
	}
	for _, f := range second.Files {
		assert.Equal(t, firstHashes[f.Path], f.ContentHash, f.Path)
	}
}

func TestScan_TakenAtWithinScanInterval(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.md": "# a\n"})

	before := time.Now()
	snap, err := newScanner(t, root).Scan(context.Background())
	after := time.Now()
	require.NoError(t, err)

	assert.False(t, snap.TakenAt.Before(before))
	assert.False(t, snap.TakenAt.After(after))
}

func TestScan_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.md": "# a\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanner(t, root).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RejectsBadRoot(t *testing.T) {
	_, err := New(Options{Root: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = New(Options{Root: file})
	assert.Error(t, err)
}

func TestCountLines(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one line no terminator", 1},
		{"one line\n", 1},
		{"a\nb\nc", 3},
		{"a\nb\nc\n", 3},
		{"\n", 1},
		{"\n\n", 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, countLines([]byte(tc.content)), "%q", tc.content)
	}
}
