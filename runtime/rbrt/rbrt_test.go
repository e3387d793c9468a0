package rbrt

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbscript-lang/rbscript/pkg/iosink"
	"github.com/rbscript-lang/rbscript/pkg/value"
)

type bufSink struct {
	iosink.Sink
	out strings.Builder
	in  *bufio.Reader
}

func newBufSink(input string) *bufSink {
	return &bufSink{in: bufio.NewReader(strings.NewReader(input))}
}

func (b *bufSink) Print(s string)   { b.out.WriteString(s) }
func (b *bufSink) Println(s string) { b.out.WriteString(s + "\n") }
func (b *bufSink) Newline()         { b.out.WriteString("\n") }
func (b *bufSink) Input() (string, error) {
	line, err := b.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

func TestAddStringConcatWinsOverNumericAdd(t *testing.T) {
	v := Add(value.Str("x="), value.Int(3))
	assert.Equal(t, "x=3", v.S)
}

func TestDivideByZeroPanicsWithRuntimeError(t *testing.T) {
	assert.PanicsWithValue(t, &RuntimeError{Msg: "Division by zero"}, func() {
		Divide(value.Int(1), value.Int(0))
	})
}

func TestArrayGetSetRoundTrips(t *testing.T) {
	arr := NewArray("integer", 3, 3)
	ArraySet(&arr, value.Int(42), 1, 2)
	assert.Equal(t, int64(42), ArrayGet(arr, 1, 2).I)
	assert.Equal(t, int64(0), ArrayGet(arr, 0, 0).I)
}

func TestArrayOutOfBoundsPanics(t *testing.T) {
	arr := NewArray("integer", 2)
	assert.Panics(t, func() { ArrayGet(arr, 5) })
}

func TestRecordFieldAccess(t *testing.T) {
	r := NewRecord("Point", "x", "y")
	FieldSet(&r, "x", value.Int(3))
	assert.Equal(t, int64(3), FieldGet(r, "x").I)
	assert.Equal(t, int64(0), FieldGet(r, "y").I)
}

func TestPrintJoinsArgsWithSpaces(t *testing.T) {
	sink := newBufSink("")
	Print(sink, value.Str("value="), value.Int(3))
	assert.Equal(t, "value= 3\n", sink.out.String())
}

func TestInputReadsLine(t *testing.T) {
	sink := newBufSink("hello\n")
	v := Input(sink)
	require.Equal(t, value.String, v.Kind)
	assert.Equal(t, "hello", v.S)
}

func TestLogOnNonPositivePanics(t *testing.T) {
	assert.Panics(t, func() { Log(value.Int(0)) })
}

func TestLengthOfVector(t *testing.T) {
	v := Length(value.NewVec(2, 3, 4))
	assert.InDelta(t, 5.0, v.F, 1e-9)
}

func TestEnvGetFallsBackToOuterFrame(t *testing.T) {
	e := NewEnv()
	e.Declare("x", value.Int(1))
	e.Push()
	assert.Equal(t, int64(1), e.Get("x").I)
	e.Pop()
}

func TestEnvSetWritesInnermostDeclaringFrame(t *testing.T) {
	e := NewEnv()
	e.Declare("x", value.Int(1))
	e.Push()
	e.Set("x", value.Int(2))
	e.Pop()
	assert.Equal(t, int64(2), e.Get("x").I)
}

func TestEnvDeclareShadowsOuterFrame(t *testing.T) {
	e := NewEnv()
	e.Declare("x", value.Int(1))
	e.Push()
	e.Declare("x", value.Int(9))
	assert.Equal(t, int64(9), e.Get("x").I)
	e.Pop()
	assert.Equal(t, int64(1), e.Get("x").I)
}

func TestEnvComponentAssignFallsBackToVector(t *testing.T) {
	e := NewEnv()
	e.Declare("v", value.NewVec(2, 1, 2))
	e.ComponentAssign("v", "x", value.Dbl(9))
	assert.InDelta(t, 9.0, e.Get("v").Components[0], 1e-9)
}

func TestEnvFieldAssignRejectsNonRecord(t *testing.T) {
	e := NewEnv()
	e.Declare("n", value.Int(1))
	assert.Panics(t, func() { e.FieldAssign("n", "x", value.Int(1)) })
}
