// Package repl implements an interactive rbscript shell: a read-eval-print
// loop that feeds each line (or block) typed at the prompt straight through
// the lexer, parser, and tree-walking interpreter, sharing one interpreter
// instance and environment across the whole session.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	rberrors "github.com/rbscript-lang/rbscript/pkg/errors"
	"github.com/rbscript-lang/rbscript/pkg/ffi"
	"github.com/rbscript-lang/rbscript/pkg/interp"
	"github.com/rbscript-lang/rbscript/pkg/iosink"
	"github.com/rbscript-lang/rbscript/pkg/lexer"
	"github.com/rbscript-lang/rbscript/pkg/parser"
)

var (
	stylePrompt   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#56C3F4"))
	styleContinue = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	styleBanner   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
)

const replFile = "<repl>"

// Run starts an interactive session reading from in and writing to out,
// looping until EOF or an "exit"/"quit" line.
func Run(in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, styleBanner.Render("rbscript")+" interactive shell — type \"exit\" to quit")

	sink := iosink.NewConsole()
	loader := ffi.NewPluginLoader()
	defer loader.Close()

	engine := interp.New(sink, loader, time.Now().UnixNano())

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, stylePrompt.Render("rb> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "exit" || trimmed == "quit" {
			return nil
		}
		if trimmed == "" {
			continue
		}

		source, ok := readUntilBalanced(scanner, out, line)
		if !ok {
			continue
		}

		evalLine(engine, source, out)
	}
}

// readUntilBalanced keeps reading continuation lines while the brace depth
// of what's been typed so far is positive, so a multi-line function or
// block can be entered one line at a time. Returns false if input ends
// before the braces balance.
func readUntilBalanced(scanner *bufio.Scanner, out io.Writer, first string) (string, bool) {
	var b strings.Builder
	b.WriteString(first)

	for depth := braceDepth(first); depth > 0; depth = braceDepth(b.String()) {
		fmt.Fprint(out, styleContinue.Render("... "))
		if !scanner.Scan() {
			return "", false
		}
		b.WriteByte('\n')
		b.WriteString(scanner.Text())
	}
	return b.String(), true
}

func braceDepth(s string) int {
	depth := 0
	for _, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depth
}

// evalLine tokenizes, parses, and runs one REPL entry against the shared
// interpreter, printing diagnostics instead of aborting the session.
func evalLine(engine *interp.Interp, source string, out io.Writer) {
	toks, err := lexer.Tokenize(replFile, source)
	if err != nil {
		fmt.Fprintln(out, err.Error())
		return
	}

	prog, errs := parser.Parse(toks)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(out, e.Error())
		}
		return
	}

	if err := engine.Run(prog); err != nil {
		if rerr, ok := err.(*interp.RuntimeError); ok {
			rberrors.Fprint(out, rberrors.New(rberrors.RuntimeErrorKind, rerr.Pos, "%s", rerr.Msg))
		} else {
			fmt.Fprintln(out, err.Error())
		}
	}
}
