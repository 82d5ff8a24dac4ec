// Package output formats human-readable CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Writer formats CLI output for one-shot commands. Write errors on
// console output are ignored.
type Writer struct {
	out io.Writer
}

// New creates a Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Line prints one line.
func (w *Writer) Line(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

// Linef prints one formatted line.
func (w *Writer) Linef(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format+"\n", args...)
}

// Indent prints an indented detail line.
func (w *Writer) Indent(msg string) {
	_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
}

// Field prints an aligned name/value pair.
func (w *Writer) Field(name string, value any) {
	_, _ = fmt.Fprintf(w.out, "  %-16s %v\n", name, value)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON pretty-prints v.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Snippet prints up to n lines of content, indented, dropping trailing
// blank lines.
func (w *Writer) Snippet(content string, n int) {
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	for _, line := range lines {
		w.Indent(line)
	}
}
