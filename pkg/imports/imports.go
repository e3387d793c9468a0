// Package imports implements rbscript's source loader & import resolver: a
// line-oriented inliner with search-path resolution and cycle detection
// (cycle detection via a recursion-stack DFS, dependency bookkeeping keyed
// by canonical path), working at single-statement `import "path";`
// granularity rather than whole-package granularity.
package imports

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbscript-lang/rbscript/pkg/token"
)

// Kind classifies the resolver's failure modes.
type Kind int

const (
	NotFound Kind = iota
	ReadError
	SyntaxError
	CircularImport
)

// Error is an import-time error: it carries the file and line of the
// failing directive.
type Error struct {
	Kind Kind
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Import error: %s at %s:%d", e.Msg, e.File, e.Line)
}

// searchNames are the bare directory names tried relative to the current
// working directory when a quoted import path is not found next to the
// importing file.
var searchNames = []string{"lib", "stdlib", "library"}

// Resolver inlines import directives into a single resolved source string.
// It is stateless between calls to Resolve; inlined/stack bookkeeping lives
// per call so concurrent resolutions never interfere.
type Resolver struct {
	// BinaryDir is the running binary's directory, used as a search root.
	// Callers normally pass filepath.Dir(os.Args[0]).
	BinaryDir string
	// ExtraSearchDirs are additional directories, relative to the current
	// working directory, tried after the cwd itself and before BinaryDir
	// and searchNames.
	// Populated from config.Config.Imports.SearchPath.
	ExtraSearchDirs []string
}

// NewResolver builds a Resolver rooted at the current binary's directory,
// with extraDirs as additional configured search roots.
func NewResolver(binaryDir string, extraDirs ...string) *Resolver {
	return &Resolver{BinaryDir: binaryDir, ExtraSearchDirs: extraDirs}
}

// resolution is the per-call state of one Resolve invocation.
type resolution struct {
	inlined map[string]bool // canonical path -> already emitted in full
	stack   []string        // canonical paths currently being processed
	order   []string        // canonical paths in the order first inlined
}

// Origin records which original file and line a line of a resolved buffer
// came from, so diagnostics raised against a token inside an inlined
// import can still point at the file the programmer actually wrote rather
// than the merged buffer's own line count.
type Origin struct {
	File string
	Line int
}

// Resolve reads rootPath, inlines every `import "path";` directive it and
// its transitive imports contain, and returns the fully resolved source,
// the ordered list of canonical paths that were inlined, and a line map
// (index i holds the origin of resolved source line i+1).
func (r *Resolver) Resolve(rootPath string) (string, []string, []Origin, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return "", nil, nil, &Error{Kind: ReadError, File: rootPath, Line: 0, Msg: err.Error()}
	}
	res := &resolution{inlined: make(map[string]bool)}
	out, origins, err := r.resolveFile(abs, res)
	if err != nil {
		return "", nil, nil, err
	}
	return out, res.order, origins, nil
}

func (r *Resolver) resolveFile(canonical string, res *resolution) (string, []Origin, error) {
	src, err := os.ReadFile(canonical)
	if err != nil {
		return "", nil, &Error{Kind: ReadError, File: canonical, Line: 0, Msg: err.Error()}
	}

	res.stack = append(res.stack, canonical)
	defer func() { res.stack = res.stack[:len(res.stack)-1] }()

	var out strings.Builder
	var origins []Origin
	scanner := bufio.NewScanner(strings.NewReader(string(src)))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		path, isImport := importPath(text)
		if !isImport {
			out.WriteString(text)
			out.WriteByte('\n')
			origins = append(origins, Origin{File: canonical, Line: line})
			continue
		}

		resolved, err := r.locate(path, filepath.Dir(canonical))
		if err != nil {
			return "", nil, &Error{Kind: NotFound, File: canonical, Line: line, Msg: fmt.Sprintf("cannot find import %q", path)}
		}

		if contains(res.stack, resolved) {
			return "", nil, &Error{Kind: CircularImport, File: canonical, Line: line, Msg: fmt.Sprintf("circular import of %q", path)}
		}
		if res.inlined[resolved] {
			out.WriteString(fmt.Sprintf("// %s (already imported)\n", path))
			origins = append(origins, Origin{File: canonical, Line: line})
			continue
		}

		res.inlined[resolved] = true
		res.order = append(res.order, resolved)

		body, bodyOrigins, err := r.resolveFile(resolved, res)
		if err != nil {
			return "", nil, err
		}

		out.WriteString(fmt.Sprintf("// BEGIN IMPORT: %s\n", path))
		origins = append(origins, Origin{File: canonical, Line: line})
		out.WriteString(body)
		origins = append(origins, bodyOrigins...)
		out.WriteString(fmt.Sprintf("// END IMPORT: %s\n", path))
		origins = append(origins, Origin{File: canonical, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return "", nil, &Error{Kind: ReadError, File: canonical, Line: line, Msg: err.Error()}
	}

	return out.String(), origins, nil
}

// RemapPositions rewrites each token's position to the original file and
// line its merged-buffer line came from, per origins (as returned by
// Resolve), undoing the shift that inserted BEGIN/END IMPORT annotations
// and inlined bodies introduce into the merged buffer's own line count.
// Tokens past the mapped range (practically only a trailing EOF token)
// are left as the lexer produced them.
func RemapPositions(toks []token.Token, origins []Origin) {
	for i := range toks {
		line := toks[i].Pos.Line
		if line < 1 || line > len(origins) {
			continue
		}
		o := origins[line-1]
		toks[i].Pos.File = o.File
		toks[i].Pos.Line = o.Line
	}
}

// locate resolves a quoted import path against the search list, in order:
// the importing file's directory; the current working directory; the
// configured extra search directories; the running binary's directory;
// then lib/stdlib/library relative to the cwd.
func (r *Resolver) locate(path, fileDir string) (string, error) {
	candidates := []string{filepath.Join(fileDir, path)}

	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, path))
		for _, dir := range r.ExtraSearchDirs {
			candidates = append(candidates, filepath.Join(cwd, dir, path))
		}
	}
	if r.BinaryDir != "" {
		candidates = append(candidates, filepath.Join(r.BinaryDir, path))
	}
	if cwd, err := os.Getwd(); err == nil {
		for _, dir := range searchNames {
			candidates = append(candidates, filepath.Join(cwd, dir, path))
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(c)
			if err != nil {
				return "", err
			}
			return abs, nil
		}
	}
	return "", fmt.Errorf("not found")
}

// importPath reports whether a line's first non-whitespace token is the
// word "import" followed by a double-quoted path, returning the path with
// quotes stripped.
func importPath(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "import") {
		return "", false
	}
	rest := strings.TrimSpace(trimmed[len("import"):])
	if len(rest) < 2 || rest[0] != '"' {
		return "", false
	}
	end := strings.IndexByte(rest[1:], '"')
	if end < 0 {
		return "", false
	}
	return rest[1 : 1+end], true
}

func contains(stack []string, path string) bool {
	for _, s := range stack {
		if s == path {
			return true
		}
	}
	return false
}
