package errors

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbscript-lang/rbscript/pkg/token"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "source.rb")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	ClearSourceCache()
	return path
}

func TestPlainSyntaxErrorIncludesLineAndColumn(t *testing.T) {
	d := New(SyntaxErrorKind, token.Position{File: "a.rb", Line: 3, Column: 5}, "unexpected token %q", ";")
	assert.Equal(t, `Syntax error: unexpected token ";" at a.rb:3:5`, d.Plain())
}

func TestPlainRuntimeErrorOmitsColumn(t *testing.T) {
	d := New(RuntimeErrorKind, token.Position{File: "a.rb", Line: 7}, "division by zero")
	assert.Equal(t, "Runtime error: division by zero at a.rb:7", d.Plain())
}

func TestPlainImportErrorUsesFileAndLine(t *testing.T) {
	d := New(ImportErrorKind, token.Position{File: "a.rb", Line: 1}, "circular import of %q", "b.rb")
	assert.Equal(t, `Import error: circular import of "b.rb" at a.rb:1`, d.Plain())
}

func TestPlainFallsBackWithoutPosition(t *testing.T) {
	d := New(FFIErrorKind, token.Position{}, "could not open library")
	assert.Equal(t, "FFI error: could not open library", d.Plain())
}

func TestErrorSatisfiesErrorInterface(t *testing.T) {
	var err error = New(CompilerInvocationErrorKind, token.Position{}, "go build failed")
	assert.Equal(t, "Compiler error: go build failed", err.Error())
}

func TestFormatIncludesSourceSnippetAndCaret(t *testing.T) {
	path := writeFixture(t, "var x = 1\nvar y = ;\nprint x;\n")
	d := New(SyntaxErrorKind, token.Position{File: path, Line: 2, Column: 9}, "expected expression")

	out := d.Format()
	assert.Contains(t, out, "expected expression")
	assert.Contains(t, out, "var y = ;")
	assert.Contains(t, out, path)
	assert.Contains(t, out, "^")
}

func TestFormatWithAnnotationAndSuggestion(t *testing.T) {
	path := writeFixture(t, "dim nums(5) as integer;\nnums[10] = 1;\n")
	d := New(RuntimeErrorKind, token.Position{File: path, Line: 2, Column: 1}, "index out of range").
		WithAnnotation("index 10 is out of bounds for size 5").
		WithSuggestion("check the array bound before indexing")

	out := d.Format()
	assert.Contains(t, out, "index 10 is out of bounds for size 5")
	assert.Contains(t, out, "check the array bound before indexing")
}

func TestFormatWithoutPositionSkipsSnippet(t *testing.T) {
	d := New(FFIErrorKind, token.Position{}, "symbol not found")
	out := d.Format()
	assert.Contains(t, out, "symbol not found")
	assert.NotContains(t, out, "-->")
}

func TestSourceLinesClampsToFileBounds(t *testing.T) {
	path := writeFixture(t, "one\ntwo\nthree\n")
	lines, idx, err := sourceLines(path, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, lines)
	assert.Equal(t, 0, idx)
}

func TestSourceLinesWindowsAroundTarget(t *testing.T) {
	path := writeFixture(t, "one\ntwo\nthree\nfour\nfive\n")
	lines, idx, err := sourceLines(path, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "three", "four"}, lines)
	assert.Equal(t, 1, idx)
}

func TestSourceLinesCachesFileContent(t *testing.T) {
	path := writeFixture(t, "alpha\nbeta\n")
	_, _, err := sourceLines(path, 1, 0)
	require.NoError(t, err)

	sourceCacheMu.Lock()
	_, cached := sourceCache[path]
	sourceCacheMu.Unlock()
	assert.True(t, cached)
}

func TestSourceLinesMissingFileIsError(t *testing.T) {
	_, _, err := sourceLines("/nonexistent/source.rb", 1, 0)
	assert.Error(t, err)
}

func TestFprintWritesPlainFormToNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	d := New(RuntimeErrorKind, token.Position{File: "a.rb", Line: 4}, "unknown function %q", "nope")
	Fprint(&buf, d)
	assert.Equal(t, "Runtime error: unknown function \"nope\" at a.rb:4\n", buf.String())
}
