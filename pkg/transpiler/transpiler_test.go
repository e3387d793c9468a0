package transpiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbscript-lang/rbscript/pkg/ast"
	"github.com/rbscript-lang/rbscript/pkg/lexer"
	"github.com/rbscript-lang/rbscript/pkg/parser"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, err := lexer.Tokenize("test.rb", src)
	require.NoError(t, err)
	prog, errs := parser.Parse(toks)
	require.Empty(t, errs)
	return prog
}

func TestTranspileEmitsPrintCall(t *testing.T) {
	prog := parseProgram(t, `print "hi";`)
	res, err := New().Transpile(prog, "test.rb", "test.go")
	require.NoError(t, err)
	assert.Contains(t, res.GoSource, "rbrt.Print(sink, rbrt.ToStringValue(\"hi\"))")
	assert.Contains(t, res.GoSource, "package main")
}

func TestTranspileFunctionCallsGeneratedGoFunc(t *testing.T) {
	prog := parseProgram(t, `
function add(a as integer, b as integer) as integer {
	return a + b;
}
dim result as integer;
result = add(1, 2);
`)
	res, err := New().Transpile(prog, "test.rb", "test.go")
	require.NoError(t, err)
	assert.Contains(t, res.GoSource, "func rbFn_add(caller *rbrt.Env, arg_a rbrt.Value, arg_b rbrt.Value) rbrt.Value {")
	assert.Contains(t, res.GoSource, "rbrt.Add(sc.Get(\"a\"), sc.Get(\"b\"))")
	assert.Contains(t, res.GoSource, "sc.Assign(\"result\", rbFn_add(sc, rbrt.IntValue(1), rbrt.IntValue(2)))")
}

func TestTranspileStructDimUsesCollectedFields(t *testing.T) {
	prog := parseProgram(t, `
struct Point { x, y };
dim p as Point;
p.x = 3;
`)
	res, err := New().Transpile(prog, "test.rb", "test.go")
	require.NoError(t, err)
	assert.Contains(t, res.GoSource, `rbrt.NewRecord("Point", "x", "y")`)
	assert.Contains(t, res.GoSource, `sc.ComponentAssign("p", "x", rbrt.IntValue(3))`)
}

func TestTranspileDimArrayUsesRuntimeShape(t *testing.T) {
	prog := parseProgram(t, `dim nums(5) as integer;`)
	res, err := New().Transpile(prog, "test.rb", "test.go")
	require.NoError(t, err)
	assert.Contains(t, res.GoSource, `rbrt.NewArray("integer", int(rbrt.ToInt(rbrt.IntValue(5))))`)
}

func TestTranspileFFICallCoercesArguments(t *testing.T) {
	prog := parseProgram(t, `
declare function sqrtc from "libm.so" (x as double) as double;
print sqrtc(4);
`)
	res, err := New().Transpile(prog, "test.rb", "test.go")
	require.NoError(t, err)
	assert.Contains(t, res.GoSource, "var ffiLoader ffi.Loader")
	assert.Contains(t, res.GoSource, "ffiLoader = ffi.NewPluginLoader()")
	assert.Contains(t, res.GoSource, `ffiLoader.Declare("sqrtc", ffi.Signature{Library: "libm.so", ReturnType: "double", Params: []ffi.Param{{Name: "x", Type: "double"}}})`)
	assert.Contains(t, res.GoSource, `rbrt.CallFFI(ffiLoader, "sqrtc", []rbrt.Value{rbrt.CoerceTo(rbrt.IntValue(4), "double")})`)
}

func TestTranspileUnknownCallFallsBackToMustFail(t *testing.T) {
	prog := parseProgram(t, `print mystery(1);`)
	res, err := New().Transpile(prog, "test.rb", "test.go")
	require.NoError(t, err)
	assert.Contains(t, res.GoSource, `rbrt.MustFail("unknown function \"mystery\"")`)
}

func TestTranspileProducesSourceMapWithEntries(t *testing.T) {
	prog := parseProgram(t, "print 1;\nprint 2;\n")
	res, err := New().Transpile(prog, "test.rb", "test.go")
	require.NoError(t, err)
	assert.Equal(t, 3, res.SourceMap.Version)
	assert.Equal(t, "test.go", res.SourceMap.File)
	assert.Contains(t, res.SourceMap.Sources, "test.rb")
	assert.NotEmpty(t, res.SourceMap.Mappings)
}

func TestTranspileIfElseAndWhileNest(t *testing.T) {
	prog := parseProgram(t, `
dim i as integer;
while (i < 3) {
	if (i == 1) {
		print "one";
	} else {
		print "other";
	}
	i = i + 1;
}
`)
	res, err := New().Transpile(prog, "test.rb", "test.go")
	require.NoError(t, err)
	assert.Contains(t, res.GoSource, "for rbrt.ToBool(rbrt.BoolValue(rbrt.LessThan(sc.Get(\"i\"), rbrt.IntValue(3)))) {")
	assert.Contains(t, res.GoSource, "} else {")
}
