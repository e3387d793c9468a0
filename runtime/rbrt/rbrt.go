// Package rbrt is the runtime support library linked into Go code emitted
// by the transpiler. It mirrors the interpreter's value semantics
// (package value) so that a transpiled program and an interpreted one
// agree on arithmetic, comparison, and coercion behaviour, exposing them
// as flat package-level functions convenient for generated call sites.
package rbrt

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rbscript-lang/rbscript/pkg/ffi"
	"github.com/rbscript-lang/rbscript/pkg/iosink"
	"github.com/rbscript-lang/rbscript/pkg/value"
)

// Value re-exports the interpreter's tagged-union value type so generated
// code has a single name to import for both engines.
type Value = value.Value

var rng = rand.New(rand.NewSource(time.Now().Unix()))

// SeedRandom reseeds the package-level generator used by Rnd. The
// transpiler does not emit a call to it, so a generated program uses the
// clock-based seed set at package initialisation.
func SeedRandom(seed int64) {
	if seed == 0 {
		seed = time.Now().Unix()
	}
	rng = rand.New(rand.NewSource(seed))
}

// Arithmetic and comparison, delegating to package value so both engines
// share one set of coercion rules.

func Add(a, b Value) Value      { return must(value.Add(a, b)) }
func Subtract(a, b Value) Value { return must(value.Sub(a, b)) }
func Multiply(a, b Value) Value { return must(value.Mul(a, b)) }
func Divide(a, b Value) Value   { return must(value.Div(a, b)) }
func Modulo(a, b Value) Value   { return must(value.Mod(a, b)) }
func Power(a, b Value) Value    { return must(value.Pow(a, b)) }
func Negate(a Value) Value      { return must(value.Neg(a)) }
func Not(a Value) Value         { return value.Not(a) }

func Equal(a, b Value) bool        { return value.Equal(a, b).B }
func NotEqual(a, b Value) bool     { return value.NotEqual(a, b).B }
func LessThan(a, b Value) bool     { return value.Less(a, b).B }
func LessEqual(a, b Value) bool    { return value.LessEq(a, b).B }
func GreaterThan(a, b Value) bool  { return value.Greater(a, b).B }
func GreaterEqual(a, b Value) bool { return value.GreaterEq(a, b).B }

// ToBool implements spec's truthiness rule for generated `if`/`while`
// conditions.
func ToBool(v Value) bool { return v.Truthy() }

// IntValue, DoubleValue, ToStringValue, BoolValue and NullValue are
// generated-code-friendly names for package value's literal constructors,
// used by the transpiler so call sites never need to import value
// directly.
func IntValue(i int64) Value      { return value.Int(i) }
func DoubleValue(f float64) Value { return value.Dbl(f) }
func ToStringValue(s string) Value { return value.Str(s) }
func BoolValue(b bool) Value      { return value.Bool(b) }
func NullValue() Value            { return value.NullPtr() }

// MustFail panics with a RuntimeError carrying msg, used by generated code
// for a call name that resolved to nothing at transpile time.
func MustFail(msg string) Value { panic(&RuntimeError{Msg: msg}) }

func ToInt(v Value) int64     { return v.ToInt() }
func ToDouble(v Value) float64 { return v.ToFloat() }
func ToString(v Value) string  { return v.String() }

// must panics on the arithmetic errors that package value reports (division
// by zero from Div and Mod); a transpiled program that reaches one of these
// has a bug the source interpreter would also have rejected at runtime, so
// this mirrors the interpreter's "Runtime error" semantics via a panic that
// main's recover turns back into one.
func must(v Value, err error) Value {
	if err != nil {
		panic(&RuntimeError{Msg: err.Error()})
	}
	return v
}

// RuntimeError is the panic value generated code raises for an arithmetic
// or indexing fault; main wraps a recover() around the program body and
// reports it the same way the interpreter reports a runtime-error.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string { return e.Msg }

// NewArray allocates a `dim` array of the given shape, using the same
// dense/sparse representation the interpreter's value package does:
// "integer"/"double"/"byte" select a dense typed array, anything else a
// sparse dynamic array.
func NewArray(elemKind string, shape ...int) Value {
	switch elemKind {
	case "integer":
		return value.NewIntArray(shape)
	case "double":
		return value.NewDoubleArray(shape)
	case "byte":
		return value.NewByteArray(shape)
	default:
		return value.NewDynArray(shape)
	}
}

func flatIndex(shape []int, indices []int64) int {
	if len(indices) != len(shape) {
		panic(&RuntimeError{Msg: fmt.Sprintf("expected %d array indices, got %d", len(shape), len(indices))})
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || int(idx) >= shape[i] {
			panic(&RuntimeError{Msg: fmt.Sprintf("array index %d out of range for dimension of size %d", idx, shape[i])})
		}
		offset = offset*shape[i] + int(idx)
	}
	return offset
}

// ArrayGet reads the element at the 0-based indices from an array Value,
// dispatching on its Kind the same way the interpreter's getArrayElement
// does.
func ArrayGet(v Value, indices ...int64) Value {
	switch v.Kind {
	case value.DynArray:
		return v.GetSparse(indices)
	case value.ByteArray:
		return value.Int(int64(v.Bytes[flatIndex(v.Shape, indices)]))
	case value.IntArray:
		return value.Int(v.Ints[flatIndex(v.Shape, indices)])
	case value.DoubleArray:
		return value.Dbl(v.Doubles[flatIndex(v.Shape, indices)])
	default:
		panic(&RuntimeError{Msg: "value is not an array"})
	}
}

// ArraySet writes elem at the 0-based indices into an array Value in
// place; callers must hold the array through an addressable variable slot
// (see env.Get/Set in the generated code), mirroring the interpreter's
// read-mutate-writeback value semantics for array assignment.
func ArraySet(v *Value, elem Value, indices ...int64) {
	switch v.Kind {
	case value.DynArray:
		if err := v.SetSparse(indices, elem); err != nil {
			panic(&RuntimeError{Msg: err.Error()})
		}
	case value.ByteArray:
		v.Bytes[flatIndex(v.Shape, indices)] = byte(elem.ToInt())
	case value.IntArray:
		v.Ints[flatIndex(v.Shape, indices)] = elem.ToInt()
	case value.DoubleArray:
		v.Doubles[flatIndex(v.Shape, indices)] = elem.ToFloat()
	default:
		panic(&RuntimeError{Msg: "value is not an array"})
	}
}

// NewRecord creates a record of the named type with every declared field
// defaulted to the integer zero value, matching the interpreter's `dim`
// and struct-literal defaulting rule.
func NewRecord(typeName string, fieldNames ...string) Value {
	r := value.NewRecord(typeName)
	for _, n := range fieldNames {
		r.Fields[n] = value.Int(0)
	}
	return r
}

// FieldGet reads a record field by name.
func FieldGet(v Value, field string) Value {
	fv, ok := v.Fields[field]
	if !ok {
		panic(&RuntimeError{Msg: fmt.Sprintf("%s has no field %q", v.TypeName, field)})
	}
	return fv
}

// FieldSet writes a record field by name in place.
func FieldSet(v *Value, field string, fv Value) { v.Fields[field] = fv }

// I/O helpers bind the generated program's print/input statements to an
// iosink.Sink, the same collaborator interface the interpreter uses.

// Print writes args space-separated followed by a newline, exactly as the
// interpreter's `print` statement does.
func Print(sink iosink.Sink, args ...Value) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	sink.Println(strings.Join(parts, " "))
}

// Input reads one line and returns it as a string value.
func Input(sink iosink.Sink) Value {
	line, _ := sink.Input()
	return value.Str(line)
}

// Built-in math functions, mirroring the interpreter's single/two-argument
// tiers (see pkg/interp/builtins.go) so transpiled and interpreted
// programs produce identical results bit-for-bit where IEEE-754 allows.

func Sqr(v Value) Value  { x := v.ToFloat(); return value.Dbl(x * x) }
func Sqrt(v Value) Value { return value.Dbl(math.Sqrt(v.ToFloat())) }
func Abs(v Value) Value {
	if v.Kind == value.Double {
		return value.Dbl(math.Abs(v.F))
	}
	return value.Int(int64(math.Abs(float64(v.ToInt()))))
}
func Sin(v Value) Value   { return value.Dbl(math.Sin(v.ToFloat())) }
func Cos(v Value) Value   { return value.Dbl(math.Cos(v.ToFloat())) }
func Tan(v Value) Value   { return value.Dbl(math.Tan(v.ToFloat())) }
func Asin(v Value) Value  { return value.Dbl(math.Asin(v.ToFloat())) }
func Acos(v Value) Value  { return value.Dbl(math.Acos(v.ToFloat())) }
func Atan(v Value) Value  { return value.Dbl(math.Atan(v.ToFloat())) }
func Atan2(y, x Value) Value { return value.Dbl(math.Atan2(y.ToFloat(), x.ToFloat())) }
func Exp(v Value) Value   { return value.Dbl(math.Exp(v.ToFloat())) }
func Floor(v Value) Value { return value.Int(int64(math.Floor(v.ToFloat()))) }
func Ceil(v Value) Value  { return value.Int(int64(math.Ceil(v.ToFloat()))) }
func Round(v Value) Value { return value.Int(int64(math.Round(v.ToFloat()))) }
func IntOf(v Value) Value { return value.Int(v.ToInt()) }

func Log(v Value) Value {
	x := v.ToFloat()
	if x <= 0 {
		panic(&RuntimeError{Msg: fmt.Sprintf("log of non-positive value %g", x)})
	}
	return value.Dbl(math.Log(x))
}

func Log10(v Value) Value {
	x := v.ToFloat()
	if x <= 0 {
		panic(&RuntimeError{Msg: fmt.Sprintf("log10 of non-positive value %g", x)})
	}
	return value.Dbl(math.Log10(x))
}

func Rnd() Value { return value.Dbl(rng.Float64()) }
func Pi() Value  { return value.Dbl(math.Pi) }

// Env is the transpiled program's variable environment: a stack of frames
// plus one global frame, adapted directly from the interpreter's env (see
// pkg/interp/env.go) so both engines resolve a name the same way — the
// innermost frame that declares it wins, falling back to the global frame.
// Generated code threads a single *Env through every call instead of using
// native Go local variables, so that a name looked up inside a user
// function body can still find a variable set by an enclosing caller, the
// same dynamic-scoping rule the interpreter applies.
type Env struct {
	frames []map[string]Value
}

// NewEnv creates a fresh environment with just the global frame, used once
// at program start.
func NewEnv() *Env {
	return &Env{frames: []map[string]Value{make(map[string]Value)}}
}

// Push enters a new frame, called on user-function entry.
func (e *Env) Push() { e.frames = append(e.frames, make(map[string]Value)) }

// Pop exits the current frame, called on user-function return.
func (e *Env) Pop() { e.frames = e.frames[:len(e.frames)-1] }

func (e *Env) top() map[string]Value { return e.frames[len(e.frames)-1] }

// Get reads a variable, innermost frame wins, panicking with a RuntimeError
// if no frame declares it.
func (e *Env) Get(name string) Value {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if v, ok := e.frames[i][name]; ok {
			return v
		}
	}
	panic(&RuntimeError{Msg: fmt.Sprintf("unknown variable %q", name)})
}

// Set writes a variable into whichever frame already declares it, or the
// innermost frame if none does.
func (e *Env) Set(name string, v Value) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if _, ok := e.frames[i][name]; ok {
			e.frames[i][name] = v
			return
		}
	}
	e.top()[name] = v
}

// Declare forces name into the innermost frame, used for function
// parameters and `dim` declarations.
func (e *Env) Declare(name string, v Value) { e.top()[name] = v }

// Assign is Set as an expression, returning v, so generated code can lower
// `x = expr` (and chained `x = y = expr`) to a single Go expression.
func (e *Env) Assign(name string, v Value) Value {
	e.Set(name, v)
	return v
}

// IndexAssign reads the named array, writes elem at indices and stores the
// mutated array back, mirroring the interpreter's read-mutate-writeback
// assignment of an indexed target.
func (e *Env) IndexAssign(name string, elem Value, indices ...int64) Value {
	base := e.Get(name)
	ArraySet(&base, elem, indices...)
	e.Set(name, base)
	return elem
}

// ComponentAssign writes a record field or vector component by name,
// mirroring the interpreter's setComponent (record first, vector
// component fallback).
func (e *Env) ComponentAssign(name, component string, v Value) Value {
	base := e.Get(name)
	SetComponent(&base, component, v)
	e.Set(name, base)
	return v
}

// FieldAssign writes a record field through a `name.field = expr` target,
// requiring name to already hold a record (the interpreter's stricter
// assignTo member path, which does not fall back to vector components).
func (e *Env) FieldAssign(name, field string, v Value) Value {
	base := e.Get(name)
	if base.Kind != value.Record {
		panic(&RuntimeError{Msg: fmt.Sprintf("%q is not a record", name)})
	}
	FieldSet(&base, field, v)
	e.Set(name, base)
	return v
}

// ComponentOf reads a record field or vector component by name, mirroring
// the interpreter's componentOf.
func ComponentOf(v Value, name string) Value {
	if v.Kind == value.Record {
		return FieldGet(v, name)
	}
	idx, ok := componentIndex(name)
	if !ok || idx >= len(v.Components) {
		panic(&RuntimeError{Msg: fmt.Sprintf("no component %q", name)})
	}
	return value.Dbl(v.Components[idx])
}

// SetComponent writes a record field or vector component by name in place.
func SetComponent(v *Value, name string, val Value) {
	if v.Kind == value.Record {
		FieldSet(v, name, val)
		return
	}
	idx, ok := componentIndex(name)
	if !ok || idx >= len(v.Components) {
		panic(&RuntimeError{Msg: fmt.Sprintf("no component %q", name)})
	}
	v.Components[idx] = val.ToFloat()
}

func componentIndex(name string) (int, bool) {
	switch name {
	case "x":
		return 0, true
	case "y":
		return 1, true
	case "z":
		return 2, true
	case "w":
		return 3, true
	default:
		return 0, false
	}
}

// BuildVector constructs a GLM value from its literal component form,
// mirroring the interpreter's buildVector dispatch over VEC2/VEC3/VEC4/
// MAT3/MAT4/QUAT literals.
func BuildVector(kind string, comps ...float64) Value {
	switch kind {
	case "vec2":
		return value.NewVec(2, comps...)
	case "vec3":
		return value.NewVec(3, comps...)
	case "vec4":
		return value.NewVec(4, comps...)
	case "mat3":
		return value.NewMat3(comps)
	case "mat4":
		return value.NewMat4(comps)
	case "quat":
		if len(comps) < 4 {
			panic(&RuntimeError{Msg: "quat() requires 4 arguments"})
		}
		return value.NewQuat(comps[0], comps[1], comps[2], comps[3])
	default:
		panic(&RuntimeError{Msg: fmt.Sprintf("unknown vector constructor %q", kind)})
	}
}

// InputPrompt writes prompt then reads one line, for `input "prompt" x;`.
func InputPrompt(sink iosink.Sink, prompt string) Value {
	line, _ := sink.InputPrompt(prompt)
	return value.Str(line)
}

// PrintExpr is Print usable as a sub-expression (the call-form `print(...)`
// tier of the call dispatch order), returning the same zero value the
// interpreter's evalCall returns for a print statement used as a call.
func PrintExpr(sink iosink.Sink, args ...Value) Value {
	Print(sink, args...)
	return value.Int(0)
}

// CoerceTo converts v to the FFI parameter type tag declared for it,
// mirroring the interpreter's coerceToTag.
func CoerceTo(v Value, tag string) Value {
	switch tag {
	case "integer":
		return value.Int(v.ToInt())
	case "double":
		return value.Dbl(v.ToFloat())
	case "string":
		return value.Str(v.String())
	case "boolean":
		return value.Bool(v.Truthy())
	default:
		return v
	}
}

// CallFFI invokes a declared foreign function through loader, panicking
// with a RuntimeError on failure the same way a failed arithmetic
// operation does, so main's single recover reports it uniformly.
func CallFFI(loader ffi.Loader, name string, args []Value) Value {
	if loader == nil {
		panic(&RuntimeError{Msg: "no FFI loader configured"})
	}
	v, err := loader.Call(name, args)
	if err != nil {
		panic(&RuntimeError{Msg: err.Error()})
	}
	return v
}

// Vector helpers, mirroring pkg/interp/builtins.go's glmHelpers.

func Length(v Value) Value {
	sum := 0.0
	for _, c := range v.Components {
		sum += c * c
	}
	return value.Dbl(math.Sqrt(sum))
}

func Normalize(v Value) Value {
	sum := 0.0
	for _, c := range v.Components {
		sum += c * c
	}
	l := math.Sqrt(sum)
	if l == 0 {
		panic(&RuntimeError{Msg: "cannot normalize a zero-length vector"})
	}
	out := make([]float64, len(v.Components))
	for i, c := range v.Components {
		out[i] = c / l
	}
	return Value{Kind: v.Kind, Components: out}
}

func Dot(a, b Value) Value {
	sum := 0.0
	for i := range a.Components {
		sum += a.Components[i] * b.Components[i]
	}
	return value.Dbl(sum)
}

func Cross(a, b Value) Value {
	ac, bc := a.Components, b.Components
	return value.NewVec(3,
		ac[1]*bc[2]-ac[2]*bc[1],
		ac[2]*bc[0]-ac[0]*bc[2],
		ac[0]*bc[1]-ac[1]*bc[0],
	)
}

// Graphics/window sink helpers, lowering the I/O sink's extended surface
// (pkg/iosink.Sink) to single-call-site helpers the transpiler emits one
// call for, the same way Print/Input above wrap the sink's core methods.
// A failure other than iosink.ErrUnsupported panics with a RuntimeError so
// main's single recover reports it uniformly; ErrUnsupported itself (no
// window backend wired into the console adapter) is swallowed and reported
// back to the rbscript program as a false/zero result instead of a crash.

// NewGraphicsSink constructs the sink a transpiled program uses when its
// feature-flag scan found a GLM/graphics call: still the console adapter,
// since no real window backend is wired into this tree (the graphics sink
// is an external collaborator, spec §6), but a distinct entry point from
// iosink.NewConsole() that a native windowing backend would later replace.
func NewGraphicsSink() iosink.Sink { return iosink.NewConsole() }

func sinkOK(err error) Value {
	if err != nil && err != iosink.ErrUnsupported {
		panic(&RuntimeError{Msg: err.Error()})
	}
	return value.Bool(err == nil)
}

func GraphicsMode(sink iosink.Sink, w, h Value) Value {
	return sinkOK(sink.GraphicsMode(int(w.ToInt()), int(h.ToInt())))
}
func TextMode(sink iosink.Sink) Value    { return sinkOK(sink.TextMode()) }
func ClearScreen(sink iosink.Sink) Value { return sinkOK(sink.ClearScreen()) }
func SetColour(sink iosink.Sink, r, g, b Value) Value {
	return sinkOK(sink.SetColour(int(r.ToInt()), int(g.ToInt()), int(b.ToInt())))
}
func DrawPixel(sink iosink.Sink, x, y Value) Value {
	return sinkOK(sink.DrawPixel(int(x.ToInt()), int(y.ToInt())))
}
func DrawLine(sink iosink.Sink, x1, y1, x2, y2 Value) Value {
	return sinkOK(sink.DrawLine(int(x1.ToInt()), int(y1.ToInt()), int(x2.ToInt()), int(y2.ToInt())))
}
func DrawRect(sink iosink.Sink, x, y, w, h, filled Value) Value {
	return sinkOK(sink.DrawRect(int(x.ToInt()), int(y.ToInt()), int(w.ToInt()), int(h.ToInt()), filled.Truthy()))
}
func DrawCircle(sink iosink.Sink, x, y, r, filled Value) Value {
	return sinkOK(sink.DrawCircle(int(x.ToInt()), int(y.ToInt()), int(r.ToInt()), filled.Truthy()))
}
func DrawText(sink iosink.Sink, x, y, s Value) Value {
	return sinkOK(sink.DrawText(int(x.ToInt()), int(y.ToInt()), s.String()))
}
func RefreshScreen(sink iosink.Sink) Value { return sinkOK(sink.RefreshScreen()) }

func KeyPressed(sink iosink.Sink, name Value) Value {
	ok, err := sink.KeyPressed(name.String())
	return sinkBool(ok, err)
}
func MouseClicked(sink iosink.Sink) Value {
	ok, err := sink.MouseClicked()
	return sinkBool(ok, err)
}
func GetMousePos(sink iosink.Sink) Value {
	x, y, err := sink.GetMousePos()
	if err != nil && err != iosink.ErrUnsupported {
		panic(&RuntimeError{Msg: err.Error()})
	}
	return BuildVector("vec2", float64(x), float64(y))
}
func QuitRequested(sink iosink.Sink) Value {
	ok, err := sink.QuitRequested()
	return sinkBool(ok, err)
}
func SleepMs(sink iosink.Sink, n Value) Value {
	sink.SleepMs(int(n.ToInt()))
	return value.Int(0)
}
func GetTicks(sink iosink.Sink) Value { return value.Int(sink.GetTicks()) }

func sinkBool(ok bool, err error) Value {
	if err != nil && err != iosink.ErrUnsupported {
		panic(&RuntimeError{Msg: err.Error()})
	}
	return value.Bool(ok)
}

// Database calls (db-open/db-exec/db-query/db-close) are not lowered to
// this package: they live in runtime/rbrtdb, imported only by a generated
// program that actually uses the SQL collaborator, so a program with no
// database calls never links sqlstore/gorm/sqlite. See
// runtime/rbrtdb.Handle.
