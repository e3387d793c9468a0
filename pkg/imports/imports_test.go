package imports

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbscript-lang/rbscript/pkg/token"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveNoImports(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "main.rb", "print \"hi\";\n")

	r := NewResolver("")
	out, order, origins, err := r.Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, "print \"hi\";\n", out)
	assert.Empty(t, order)
	require.Len(t, origins, 1)
	assert.Equal(t, root, origins[0].File)
	assert.Equal(t, 1, origins[0].Line)
}

func TestResolveInlinesImport(t *testing.T) {
	dir := t.TempDir()
	util := writeFile(t, dir, "util.rb", "var x = 1;\n")
	root := writeFile(t, dir, "main.rb", "import \"util.rb\";\nprint x;\n")

	r := NewResolver("")
	out, order, origins, err := r.Resolve(root)
	require.NoError(t, err)
	require.Len(t, order, 1)
	assert.Contains(t, out, "// BEGIN IMPORT: util.rb")
	assert.Contains(t, out, "// END IMPORT: util.rb")
	assert.Contains(t, out, "var x = 1;")
	assert.Contains(t, out, "print x;")

	lines := strings.Split(out, "\n")
	require.Len(t, origins, len(lines)-1)
	for i, line := range lines[:len(lines)-1] {
		switch strings.TrimSpace(line) {
		case "var x = 1;":
			assert.Equal(t, util, origins[i].File)
			assert.Equal(t, 1, origins[i].Line)
		case "print x;":
			assert.Equal(t, root, origins[i].File)
			assert.Equal(t, 2, origins[i].Line)
		default:
			assert.Equal(t, root, origins[i].File, "annotation line %d should attribute to importing file", i)
			assert.Equal(t, 1, origins[i].Line)
		}
	}
}

func TestResolveElidesDuplicateImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.rb", "var x = 1;\n")
	writeFile(t, dir, "a.rb", "import \"util.rb\";\n")
	root := writeFile(t, dir, "main.rb", "import \"util.rb\";\nimport \"a.rb\";\n")

	r := NewResolver("")
	out, order, _, err := r.Resolve(root)
	require.NoError(t, err)
	assert.Len(t, order, 2)
	assert.Contains(t, out, "// util.rb (already imported)")
}

func TestResolveCircularImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rb", "import \"b.rb\";\n")
	writeFile(t, dir, "b.rb", "import \"a.rb\";\n")
	root := filepath.Join(dir, "a.rb")

	r := NewResolver("")
	_, _, _, err := r.Resolve(root)
	require.Error(t, err)
	ie, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CircularImport, ie.Kind)
}

func TestResolveMissingImport(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "main.rb", "import \"nope.rb\";\n")

	r := NewResolver("")
	_, _, _, err := r.Resolve(root)
	require.Error(t, err)
	ie, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, NotFound, ie.Kind)
}

func TestRemapPositions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.rb", "var x = 1;\nvar y = 2;\n")
	root := writeFile(t, dir, "main.rb", "import \"util.rb\";\nprint x;\n")

	r := NewResolver("")
	_, _, origins, err := r.Resolve(root)
	require.NoError(t, err)

	toks := []token.Token{
		{Pos: token.Position{File: root, Line: 2, Column: 1}},
		{Pos: token.Position{File: root, Line: 5, Column: 1}},
	}
	RemapPositions(toks, origins)

	assert.Equal(t, filepath.Join(dir, "util.rb"), toks[0].Pos.File)
	assert.Equal(t, 1, toks[0].Pos.Line)
	assert.Equal(t, root, toks[1].Pos.File)
	assert.Equal(t, 2, toks[1].Pos.Line)
}
