// Package errors renders the five diagnostic kinds a compile or interpret
// run can produce as either a compact one-line message or, when the output
// is a terminal, an rustc-style snippet with a source excerpt and a caret
// underline.
package errors

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/rbscript-lang/rbscript/pkg/token"
)

// Kind identifies the category of a Diagnostic.
type Kind int

const (
	SyntaxErrorKind Kind = iota
	RuntimeErrorKind
	ImportErrorKind
	FFIErrorKind
	CompilerInvocationErrorKind
)

func (k Kind) label() string {
	switch k {
	case SyntaxErrorKind:
		return "Syntax error"
	case RuntimeErrorKind:
		return "Runtime error"
	case ImportErrorKind:
		return "Import error"
	case FFIErrorKind:
		return "FFI error"
	case CompilerInvocationErrorKind:
		return "Compiler error"
	default:
		return "Error"
	}
}

// Diagnostic is a single reportable error, carrying enough context to
// render either a plain one-liner or a source-snippet view.
type Diagnostic struct {
	Kind    Kind
	Pos     token.Position
	Message string

	// Annotation, when set, is printed after the caret underline, e.g.
	// "expected ')' here".
	Annotation string
	// Suggestion, when set, is printed as a follow-up hint line.
	Suggestion string

	// ContextLines is how many source lines of context surround Pos.Line
	// in the snippet view. Zero uses the package default.
	ContextLines int
}

// New builds a Diagnostic of the given kind at pos.
func New(kind Kind, pos token.Position, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// WithAnnotation sets the annotation and returns the receiver for chaining.
func (d *Diagnostic) WithAnnotation(s string) *Diagnostic {
	d.Annotation = s
	return d
}

// WithSuggestion sets the suggestion and returns the receiver for chaining.
func (d *Diagnostic) WithSuggestion(s string) *Diagnostic {
	d.Suggestion = s
	return d
}

// Error satisfies the error interface with the plain one-line rendering.
func (d *Diagnostic) Error() string { return d.Plain() }

// Plain renders the compact, non-TTY form:
//
//	Syntax error: <msg> at <file>:<line>:<col>
//	Runtime error: <msg> at <file>:<line>
//
// Import errors are reported by file and line like runtime errors; FFI and
// compiler-invocation errors usually have no meaningful source position and
// fall back to "<kind>: <msg>".
func (d *Diagnostic) Plain() string {
	if !d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", d.Kind.label(), d.Message)
	}
	switch d.Kind {
	case SyntaxErrorKind:
		return fmt.Sprintf("%s: %s at %s:%d:%d", d.Kind.label(), d.Message, d.Pos.File, d.Pos.Line, d.Pos.Column)
	case RuntimeErrorKind, ImportErrorKind:
		return fmt.Sprintf("%s: %s at %s:%d", d.Kind.label(), d.Message, d.Pos.File, d.Pos.Line)
	default:
		return fmt.Sprintf("%s: %s", d.Kind.label(), d.Message)
	}
}

const defaultContextLines = 2

var (
	snippetHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B9D"))
	snippetLoc    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	snippetGutter = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	snippetCaret  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7DC6F"))
	snippetHint   = lipgloss.NewStyle().Foreground(lipgloss.Color("#56C3F4"))
)

// Format renders the rustc-style view: a coloured header, the offending
// line (with a couple of lines of surrounding context) and a caret pointing
// at the column, followed by the optional annotation and suggestion.
func (d *Diagnostic) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s\n", snippetHeader.Render(d.Kind.label()), d.Message)

	if !d.Pos.IsValid() || d.Pos.File == "" {
		return b.String()
	}
	fmt.Fprintf(&b, "  %s %s\n", snippetLoc.Render("-->"), d.Pos.String())

	context := d.ContextLines
	if context <= 0 {
		context = defaultContextLines
	}
	lines, highlight, err := sourceLines(d.Pos.File, d.Pos.Line, context)
	if err != nil || len(lines) == 0 {
		return b.String()
	}

	gutterWidth := len(fmt.Sprintf("%d", d.Pos.Line+context))
	firstLine := d.Pos.Line - highlight
	for i, text := range lines {
		lineNo := firstLine + i
		gutter := snippetGutter.Render(fmt.Sprintf("%*d |", gutterWidth, lineNo))
		fmt.Fprintf(&b, " %s %s\n", gutter, text)
		if i == highlight {
			col := d.Pos.Column
			if col < 1 {
				col = 1
			}
			underline := strings.Repeat(" ", col-1) + snippetCaret.Render("^")
			pad := strings.Repeat(" ", gutterWidth)
			fmt.Fprintf(&b, " %s %s\n", snippetGutter.Render(pad+" |"), underline)
			if d.Annotation != "" {
				fmt.Fprintf(&b, " %s %s%s\n", snippetGutter.Render(pad+" |"), strings.Repeat(" ", col-1), snippetCaret.Render(d.Annotation))
			}
		}
	}

	if d.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n", snippetHint.Render("hint:"), d.Suggestion)
	}

	return b.String()
}

// Fprint writes the diagnostic to w, choosing the snippet form when w is a
// terminal and the plain one-liner otherwise.
func Fprint(w io.Writer, d *Diagnostic) {
	if isTerminalWriter(w) {
		fmt.Fprint(w, d.Format())
		return
	}
	fmt.Fprintln(w, d.Plain())
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// sourceCache caches file contents (split into lines) to avoid re-reading
// the same source file for every diagnostic emitted against it, bounded by
// sourceCacheLimit with FIFO eviction.
var (
	sourceCacheMu    sync.Mutex
	sourceCache      = make(map[string][]string)
	sourceCacheKeys  []string
	sourceCacheLimit = 64
)

func readSourceLines(filename string) ([]string, error) {
	sourceCacheMu.Lock()
	if lines, ok := sourceCache[filename]; ok {
		sourceCacheMu.Unlock()
		return lines, nil
	}
	sourceCacheMu.Unlock()

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sourceCacheMu.Lock()
	sourceCache[filename] = lines
	sourceCacheKeys = append(sourceCacheKeys, filename)
	if len(sourceCacheKeys) > sourceCacheLimit {
		evict := sourceCacheKeys[0]
		sourceCacheKeys = sourceCacheKeys[1:]
		delete(sourceCache, evict)
	}
	sourceCacheMu.Unlock()

	return lines, nil
}

// sourceLines returns the window of lines around targetLine (1-indexed)
// with the given context on either side, plus the index within that window
// that corresponds to targetLine.
func sourceLines(filename string, targetLine, context int) ([]string, int, error) {
	all, err := readSourceLines(filename)
	if err != nil {
		return nil, 0, err
	}
	if targetLine < 1 || targetLine > len(all) {
		return nil, 0, fmt.Errorf("line %d out of range for %s", targetLine, filename)
	}

	start := targetLine - context
	if start < 1 {
		start = 1
	}
	end := targetLine + context
	if end > len(all) {
		end = len(all)
	}

	return all[start-1 : end], targetLine - start, nil
}

// ClearSourceCache drops all cached file contents. Tests use this to force
// a fresh read after rewriting a fixture file on disk.
func ClearSourceCache() {
	sourceCacheMu.Lock()
	defer sourceCacheMu.Unlock()
	sourceCache = make(map[string][]string)
	sourceCacheKeys = nil
}
