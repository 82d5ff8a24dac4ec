//go:build ignore

// Package main generates a synthetic source tree for scan and search
// benchmarking.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench
//
// The generated tree mixes the tracked categories (python, go,
// markdown, sql, yaml) with ignored directories and untracked
// extensions, so a scan over it exercises the same filtering paths as
// a real project. Every 50th file contains the marker string
// "CORPUS_NEEDLE" for search benchmarks.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of files to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
	avgLines  = flag.Int("lines", 80, "Average lines per file")
)

// needleEvery controls how many files carry the search marker.
const needleEvery = 50

var words = []string{
	"snapshot", "scan", "index", "search", "history", "fingerprint",
	"category", "revision", "worker", "cache", "replace", "schedule",
	"interval", "match", "context", "window", "record", "store",
	"config", "server", "handler", "route", "query", "result",
}

type category struct {
	dir  string
	ext  string
	line func(i int) string
}

var categories = []category{
	{"src", ".py", func(i int) string {
		return fmt.Sprintf("def %s_%d():\n    return %q", pick(), i, pick())
	}},
	{"pkg", ".go", func(i int) string {
		return fmt.Sprintf("func %s%d() string {\n\treturn %q\n}", export(pick()), i, pick())
	}},
	{"docs", ".md", func(i int) string {
		return fmt.Sprintf("## %s %d\n\nThe %s layer feeds the %s layer.", pick(), i, pick(), pick())
	}},
	{"db", ".sql", func(i int) string {
		return fmt.Sprintf("select %s from %s_%d;", pick(), pick(), i)
	}},
	{"conf", ".yaml", func(i int) string {
		return fmt.Sprintf("%s_%d: %s", pick(), i, pick())
	}},
}

func pick() string {
	return words[rand.Intn(len(words))]
}

func export(w string) string {
	return strings.ToUpper(w[:1]) + w[1:]
}

func main() {
	flag.Parse()
	rand.Seed(*seed)

	// Ignored and untracked content, to make the walk realistic.
	for _, dir := range []string{"node_modules/dep", "build"} {
		path := filepath.Join(*outputDir, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			fatal(err)
		}
		if err := os.WriteFile(filepath.Join(path, "skipped.py"), []byte("ignored\n"), 0o644); err != nil {
			fatal(err)
		}
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fatal(err)
	}
	if err := os.WriteFile(filepath.Join(*outputDir, "image.bin"), []byte{0x00, 0xff, 0x00}, 0o644); err != nil {
		fatal(err)
	}

	for i := 0; i < *numFiles; i++ {
		cat := categories[i%len(categories)]
		dir := filepath.Join(*outputDir, cat.dir, fmt.Sprintf("mod%d", i%10))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(err)
		}

		var sb strings.Builder
		lines := *avgLines/2 + rand.Intn(*avgLines)
		for l := 0; l < lines; l++ {
			sb.WriteString(cat.line(l))
			sb.WriteByte('\n')
		}
		if i%needleEvery == 0 {
			sb.WriteString("CORPUS_NEEDLE\n")
		}

		name := fmt.Sprintf("%s_%d%s", pick(), i, cat.ext)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(sb.String()), 0o644); err != nil {
			fatal(err)
		}
	}

	fmt.Printf("Generated %d files in %s\n", *numFiles, *outputDir)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
