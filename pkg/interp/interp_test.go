package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbscript-lang/rbscript/pkg/lexer"
	"github.com/rbscript-lang/rbscript/pkg/parser"
)

func run(t *testing.T, src string) (*memSink, error) {
	t.Helper()
	toks, err := lexer.Tokenize("test.rb", src)
	require.NoError(t, err)

	prog, errs := parser.Parse(toks)
	require.Empty(t, errs)

	sink := newMemSink("")
	in := New(sink, nil, 1)
	return sink, in.Run(prog)
}

func TestIntegerArithmetic(t *testing.T) {
	sink, err := run(t, `print 6 + 8;`)
	require.NoError(t, err)
	assert.Equal(t, "14\n", sink.out.String())
}

func TestStringConcatWinsOverNumericAdd(t *testing.T) {
	sink, err := run(t, `print "value=" + 3;`)
	require.NoError(t, err)
	assert.Equal(t, "value=3\n", sink.out.String())
}

func TestCountedLoopSum(t *testing.T) {
	sink, err := run(t, `
		var total = 0;
		for (var i = 1; i <= 10; i = i + 1) {
			total = total + i;
		}
		print total;
	`)
	require.NoError(t, err)
	assert.Equal(t, "55\n", sink.out.String())
}

func TestRecursiveFibonacci(t *testing.T) {
	sink, err := run(t, `
		function fib(n) {
			if (n < 2) {
				return n;
			}
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	require.NoError(t, err)
	assert.Equal(t, "55\n", sink.out.String())
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := run(t, `print 1 / 0;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Division by zero")
}

func TestModDivisionByZero(t *testing.T) {
	_, err := run(t, `print 5 mod 0;`)
	require.Error(t, err)
}

func TestScopeHygieneAfterFunctionCall(t *testing.T) {
	sink, err := run(t, `
		function bump(x) {
			var x = x + 1;
			return x;
		}
		var x = 10;
		var y = bump(x);
		print x;
		print y;
	`)
	require.NoError(t, err)
	assert.Equal(t, "10\n11\n", sink.out.String())
}

func TestWhileLoop(t *testing.T) {
	sink, err := run(t, `
		var n = 0;
		var acc = 1;
		while (n < 5) {
			acc = acc * 2;
			n = n + 1;
		}
		print acc;
	`)
	require.NoError(t, err)
	assert.Equal(t, "32\n", sink.out.String())
}

func TestStructLiteralAndFieldAccess(t *testing.T) {
	sink, err := run(t, `
		struct Point { x, y };
		var p = Point { 3, 4 };
		print p.x + p.y;
	`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", sink.out.String())
}

func TestVectorComponentAccessAndArithmetic(t *testing.T) {
	sink, err := run(t, `
		var a = vec3(1, 2, 3);
		var b = vec3(4, 5, 6);
		var c = a + b;
		print c.x;
		print length(vec2(3, 4));
	`)
	require.NoError(t, err)
	assert.Equal(t, "5\n5\n", sink.out.String())
}

func TestArrayAssignmentAndIndexing(t *testing.T) {
	sink, err := run(t, `
		dim nums(5) as integer;
		nums[0] = 42;
		print nums[0];
		print nums[1];
	`)
	require.NoError(t, err)
	assert.Equal(t, "42\n0\n", sink.out.String())
}

func TestUnknownFunctionIsRuntimeError(t *testing.T) {
	_, err := run(t, `print nope();`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown function")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `
		function add(a, b) { return a + b; }
		print add(1);
	`)
	require.Error(t, err)
}

func TestLogOnNonPositiveIsRuntimeError(t *testing.T) {
	_, err := run(t, `print log(0);`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log")
}

func TestSqrtOfNegativeIsNaNNotError(t *testing.T) {
	sink, err := run(t, `print sqrt(-1);`)
	require.NoError(t, err)
	assert.Contains(t, sink.out.String(), "NaN")
}
