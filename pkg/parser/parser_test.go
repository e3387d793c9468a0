package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbscript-lang/rbscript/pkg/ast"
	"github.com/rbscript-lang/rbscript/pkg/lexer"
)

func parseSrc(t *testing.T, src string) (*ast.Program, []error) {
	t.Helper()
	toks, err := lexer.Tokenize("t.rb", src)
	require.NoError(t, err)
	return Parse(toks)
}

func TestParseVarDecl(t *testing.T) {
	prog, errs := parseSrc(t, `var x = 1 + 2;`)
	require.Empty(t, errs)
	require.Len(t, prog.Statements, 1)
	va, ok := prog.Statements[0].(*ast.VarAssign)
	require.True(t, ok)
	assert.Equal(t, "x", va.Name)
}

func TestParseOperatorPrecedence(t *testing.T) {
	prog, errs := parseSrc(t, `var x = 1 + 2 * 3;`)
	require.Empty(t, errs)
	va := prog.Statements[0].(*ast.VarAssign)
	bin, ok := va.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Operator.String())
	_, ok = bin.Right.(*ast.Binary)
	assert.True(t, ok, "the multiplication should bind tighter and nest on the right")
}

func TestParseRightAssociativeAssignment(t *testing.T) {
	prog, errs := parseSrc(t, `x = y = 1;`)
	require.Empty(t, errs)
	assign, ok := prog.Statements[0].(*ast.ExpressionStatement).Expr.(*ast.Assign)
	require.True(t, ok)
	assert.Equal(t, "x", assign.Name)
	_, ok = assign.Value.(*ast.Assign)
	assert.True(t, ok)
}

func TestParseIfElseIfChain(t *testing.T) {
	prog, errs := parseSrc(t, `
		if (x == 1) { print 1; }
		else if (x == 2) { print 2; }
		else { print 3; }
	`)
	require.Empty(t, errs)
	top, ok := prog.Statements[0].(*ast.If)
	require.True(t, ok)
	require.Len(t, top.Else, 1)
	_, ok = top.Else[0].(*ast.If)
	assert.True(t, ok)
}

func TestParseFunctionDeclAndCall(t *testing.T) {
	prog, errs := parseSrc(t, `
		function add(a, b) as integer {
			return a + b;
		}
		print add(1, 2);
	`)
	require.Empty(t, errs)
	fn, ok := prog.Statements[0].(*ast.FunctionDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, "integer", fn.ReturnType)

	printStmt := prog.Statements[1].(*ast.Print)
	call, ok := printStmt.Args[0].(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "add", call.Name)
	assert.Len(t, call.Arguments, 2)
}

func TestParseStructDeclAndLiteral(t *testing.T) {
	prog, errs := parseSrc(t, `
		struct Point { x, y };
		var p = Point { 1, 2 };
	`)
	require.Empty(t, errs)
	_, ok := prog.Statements[0].(*ast.StructDecl)
	require.True(t, ok)
	va := prog.Statements[1].(*ast.VarAssign)
	_, ok = va.Value.(*ast.StructLiteral)
	assert.True(t, ok)
}

func TestParseInvalidAssignmentTargetIsError(t *testing.T) {
	_, errs := parseSrc(t, `1 + 2 = 3;`)
	assert.NotEmpty(t, errs)
}

func TestParseSyntaxErrorRecoversAtNextStatement(t *testing.T) {
	prog, errs := parseSrc(t, `
		var x = ;
		var y = 2;
	`)
	assert.NotEmpty(t, errs)
	// Recovery should still surface the statement after the error.
	found := false
	for _, stmt := range prog.Statements {
		if va, ok := stmt.(*ast.VarAssign); ok && va.Name == "y" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestParseDeclareFFI(t *testing.T) {
	prog, errs := parseSrc(t, `declare ffi function sqrtc from "libm.so" (x as double) as double;`)
	require.Empty(t, errs)
	decl, ok := prog.Statements[0].(*ast.FFIFunctionDecl)
	require.True(t, ok)
	assert.Equal(t, "sqrtc", decl.Name)
	assert.Equal(t, "libm.so", decl.Library)
	assert.Equal(t, "double", decl.ReturnType)
}

func TestParseImport(t *testing.T) {
	prog, errs := parseSrc(t, `import "util.rb";`)
	require.Empty(t, errs)
	imp, ok := prog.Statements[0].(*ast.Import)
	require.True(t, ok)
	assert.Equal(t, "util.rb", imp.Path)
}
