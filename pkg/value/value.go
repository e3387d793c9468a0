// Package value implements rbscript's tagged-union Value model: coercion,
// arithmetic, comparison, and truthiness rules shared by the interpreter
// and the transpiler's emitted runtime support package.
//
// Go has no native sum type, so Value is a single struct carrying a Kind
// discriminant plus the payload fields relevant to that Kind, rather than
// a hierarchy of variant types dispatched through an interface.
package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the Value variants.
type Kind int

const (
	Integer Kind = iota
	Double
	String
	Boolean
	NullPointer
	OpaquePointer
	DynArray
	ByteArray
	IntArray
	DoubleArray
	Record
	Vector2
	Vector3
	Vector4
	Matrix3
	Matrix4
	Quaternion
)

// Value is the uniform runtime representation of an rbscript value.
type Value struct {
	Kind Kind

	I int64
	F float64
	S string
	B bool

	// OpaquePointer
	PtrTypeName string
	Ptr         any

	// DynArray: sparse index (canonical key, see indexKey) -> element.
	// Mixed element types are permitted; nested arrays are rejected by SetSparse.
	Sparse map[string]Value
	Shape  []int

	// ByteArray / IntArray / DoubleArray: dense, single element type.
	Bytes   []byte
	Ints    []int64
	Doubles []float64

	// Record
	TypeName string
	Fields   map[string]Value

	// Vector2/3/4, Matrix3/4 (row-major), Quaternion (w,x,y,z)
	Components []float64
}

// Constructors ---------------------------------------------------------

func Int(i int64) Value    { return Value{Kind: Integer, I: i} }
func Dbl(f float64) Value  { return Value{Kind: Double, F: f} }
func Str(s string) Value   { return Value{Kind: String, S: s} }
func Bool(b bool) Value    { return Value{Kind: Boolean, B: b} }
func NullPtr() Value       { return Value{Kind: NullPointer} }

func NewDynArray(shape []int) Value {
	return Value{Kind: DynArray, Sparse: make(map[string]Value), Shape: append([]int(nil), shape...)}
}

func NewByteArray(shape []int) Value {
	return Value{Kind: ByteArray, Bytes: make([]byte, product(shape)), Shape: append([]int(nil), shape...)}
}

func NewIntArray(shape []int) Value {
	return Value{Kind: IntArray, Ints: make([]int64, product(shape)), Shape: append([]int(nil), shape...)}
}

func NewDoubleArray(shape []int) Value {
	return Value{Kind: DoubleArray, Doubles: make([]float64, product(shape)), Shape: append([]int(nil), shape...)}
}

func NewRecord(typeName string) Value {
	return Value{Kind: Record, TypeName: typeName, Fields: make(map[string]Value)}
}

func NewVec(n int, comps ...float64) Value {
	k := Vector2
	switch n {
	case 3:
		k = Vector3
	case 4:
		k = Vector4
	}
	c := make([]float64, n)
	copy(c, comps)
	return Value{Kind: k, Components: c}
}

func NewMat3(comps []float64) Value {
	c := make([]float64, 9)
	copy(c, comps)
	return Value{Kind: Matrix3, Components: c}
}

func NewMat4(comps []float64) Value {
	c := make([]float64, 16)
	copy(c, comps)
	return Value{Kind: Matrix4, Components: c}
}

func NewQuat(w, x, y, z float64) Value {
	return Value{Kind: Quaternion, Components: []float64{w, x, y, z}}
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n < 0 {
		n = 0
	}
	return n
}

func indexKey(indices []int64) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.FormatInt(idx, 10)
	}
	return strings.Join(parts, ",")
}

// IsArray reports whether v is any of the array-shaped Kinds.
func (v Value) IsArray() bool {
	switch v.Kind {
	case DynArray, ByteArray, IntArray, DoubleArray:
		return true
	}
	return false
}

// SetSparse stores val at indices in a DynArray, rejecting nested arrays.
func (v *Value) SetSparse(indices []int64, val Value) error {
	if v.Kind != DynArray {
		return fmt.Errorf("SetSparse called on non-array value")
	}
	if val.IsArray() {
		return fmt.Errorf("dynamic arrays cannot store nested arrays")
	}
	if v.Sparse == nil {
		v.Sparse = make(map[string]Value)
	}
	v.Sparse[indexKey(indices)] = val
	return nil
}

// GetSparse reads an element, returning the null pointer default for
// unset indices (dynamic arrays are sparse by design).
func (v Value) GetSparse(indices []int64) Value {
	if val, ok := v.Sparse[indexKey(indices)]; ok {
		return val
	}
	return NullPtr()
}

// Truthy reports whether v is considered true in a boolean context.
func (v Value) Truthy() bool {
	switch v.Kind {
	case Boolean:
		return v.B
	case Integer:
		return v.I != 0
	case Double:
		return v.F != 0
	case String:
		return v.S != ""
	case NullPointer:
		return false
	case DynArray:
		return len(v.Sparse) != 0
	case ByteArray:
		return len(v.Bytes) != 0
	case IntArray:
		return len(v.Ints) != 0
	case DoubleArray:
		return len(v.Doubles) != 0
	case Record:
		return len(v.Fields) != 0
	default:
		return true
	}
}

// ToFloat coerces v to a float64.
func (v Value) ToFloat() float64 {
	switch v.Kind {
	case Integer:
		return float64(v.I)
	case Double:
		return v.F
	case Boolean:
		if v.B {
			return 1
		}
		return 0
	case String:
		if f, err := ParseNumeric(v.S); err == nil {
			return f
		}
		return 0
	case NullPointer:
		return 0
	default:
		return 0
	}
}

// ToInt truncates ToFloat toward zero.
func (v Value) ToInt() int64 { return int64(v.ToFloat()) }

// ParseNumeric parses a string as an integer when the literal has no dot,
// otherwise as a double.
func ParseNumeric(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return float64(i), nil
		}
	}
	return strconv.ParseFloat(s, 64)
}

// IsNumeric reports whether v coerces via numeric rules without the
// string/boolean fallback paths mattering structurally (used for
// arithmetic dispatch).
func (v Value) IsNumeric() bool { return v.Kind == Integer || v.Kind == Double }

// String renders v in its canonical string form.
func (v Value) String() string {
	switch v.Kind {
	case Integer:
		return strconv.FormatInt(v.I, 10)
	case Double:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case String:
		return v.S
	case Boolean:
		if v.B {
			return "true"
		}
		return "false"
	case NullPointer:
		return ""
	case OpaquePointer:
		if v.PtrTypeName != "" {
			return fmt.Sprintf("<pointer:%s>", v.PtrTypeName)
		}
		return "<pointer>"
	case DynArray:
		return "<array>"
	case ByteArray:
		return "<bytearray>"
	case IntArray:
		return "<intarray>"
	case DoubleArray:
		return "<doublearray>"
	case Record:
		return fmt.Sprintf("<%s>", v.TypeName)
	case Vector2, Vector3, Vector4:
		parts := make([]string, len(v.Components))
		for i, c := range v.Components {
			parts[i] = strconv.FormatFloat(c, 'g', -1, 64)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Matrix3, Matrix4:
		return "<matrix>"
	case Quaternion:
		return "<quat>"
	default:
		return ""
	}
}

// Arithmetic -------------------------------------------------------------

// ArithError is a *runtime-error* raised by arithmetic/comparison helpers.
type ArithError struct {
	Msg string
}

func (e *ArithError) Error() string { return e.Msg }

func isVec(k Kind) bool { return k == Vector2 || k == Vector3 || k == Vector4 }

// Add implements "+": string concatenation wins over numeric addition;
// matching vectors add component-wise; otherwise numeric promotion
// (double if either side is double, else integer).
func Add(a, b Value) (Value, error) {
	if a.Kind == String || b.Kind == String {
		return Str(a.String() + b.String()), nil
	}
	if isVec(a.Kind) && a.Kind == b.Kind {
		return vecOp(a, b, func(x, y float64) float64 { return x + y }), nil
	}
	if a.Kind == Double || b.Kind == Double {
		return Dbl(a.ToFloat() + b.ToFloat()), nil
	}
	return Int(a.ToInt() + b.ToInt()), nil
}

func vecOp(a, b Value, op func(x, y float64) float64) Value {
	out := make([]float64, len(a.Components))
	for i := range out {
		out[i] = op(a.Components[i], b.Components[i])
	}
	return Value{Kind: a.Kind, Components: out}
}

// Sub implements binary "-".
func Sub(a, b Value) (Value, error) {
	if isVec(a.Kind) && a.Kind == b.Kind {
		return vecOp(a, b, func(x, y float64) float64 { return x - y }), nil
	}
	if a.Kind == Double || b.Kind == Double {
		return Dbl(a.ToFloat() - b.ToFloat()), nil
	}
	return Int(a.ToInt() - b.ToInt()), nil
}

// Mul implements "*", including vector*scalar / scalar*vector.
func Mul(a, b Value) (Value, error) {
	if isVec(a.Kind) && b.IsNumeric() {
		s := b.ToFloat()
		return vecOp(a, Value{Kind: a.Kind, Components: scalarFill(len(a.Components), s)}, func(x, y float64) float64 { return x * y }), nil
	}
	if isVec(b.Kind) && a.IsNumeric() {
		s := a.ToFloat()
		return vecOp(b, Value{Kind: b.Kind, Components: scalarFill(len(b.Components), s)}, func(x, y float64) float64 { return x * y }), nil
	}
	if a.Kind == Double || b.Kind == Double {
		return Dbl(a.ToFloat() * b.ToFloat()), nil
	}
	return Int(a.ToInt() * b.ToInt()), nil
}

func scalarFill(n int, s float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// Div implements "/": always promotes to double, fails with
// *division-by-zero* when the right operand coerces to 0.
func Div(a, b Value) (Value, error) {
	rhs := b.ToFloat()
	if rhs == 0 {
		return Value{}, &ArithError{Msg: "Division by zero"}
	}
	return Dbl(a.ToFloat() / rhs), nil
}

// Mod implements "mod"/"%": both operands coerce to integer.
func Mod(a, b Value) (Value, error) {
	rhs := b.ToInt()
	if rhs == 0 {
		return Value{}, &ArithError{Msg: "Division by zero"}
	}
	return Int(a.ToInt() % rhs), nil
}

// Pow implements "^"/"pow(a,b)": both operands coerce to double.
func Pow(a, b Value) (Value, error) {
	return Dbl(math.Pow(a.ToFloat(), b.ToFloat())), nil
}

// Neg implements unary "-".
func Neg(a Value) (Value, error) {
	if a.Kind == Double {
		return Dbl(-a.F), nil
	}
	return Int(-a.ToInt()), nil
}

// Not implements unary "not".
func Not(a Value) Value { return Bool(!a.Truthy()) }

// compareOrder implements the "compare as doubles else stringified" rule
// used by the ordering comparisons below; returns -1, 0, or 1.
func compareOrder(a, b Value) int {
	if a.IsNumeric() && b.IsNumeric() {
		af, bf := a.ToFloat(), b.ToFloat()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.String(), b.String())
}

// Equal implements equality: structural for same-variant
// values, otherwise the ordering rule.
func Equal(a, b Value) Value {
	if a.Kind == b.Kind {
		switch a.Kind {
		case Record:
			return Bool(recordEqual(a, b))
		case DynArray, ByteArray, IntArray, DoubleArray:
			return Bool(arrayEqual(a, b))
		}
	}
	return Bool(compareOrder(a, b) == 0)
}

func recordEqual(a, b Value) bool {
	if a.TypeName != b.TypeName || len(a.Fields) != len(b.Fields) {
		return false
	}
	for k, av := range a.Fields {
		bv, ok := b.Fields[k]
		if !ok || !Equal(av, bv).B {
			return false
		}
	}
	return true
}

func arrayEqual(a, b Value) bool {
	switch a.Kind {
	case ByteArray:
		if len(a.Bytes) != len(b.Bytes) {
			return false
		}
		for i := range a.Bytes {
			if a.Bytes[i] != b.Bytes[i] {
				return false
			}
		}
		return true
	case IntArray:
		if len(a.Ints) != len(b.Ints) {
			return false
		}
		for i := range a.Ints {
			if a.Ints[i] != b.Ints[i] {
				return false
			}
		}
		return true
	case DoubleArray:
		if len(a.Doubles) != len(b.Doubles) {
			return false
		}
		for i := range a.Doubles {
			if a.Doubles[i] != b.Doubles[i] {
				return false
			}
		}
		return true
	default:
		if len(a.Sparse) != len(b.Sparse) {
			return false
		}
		keys := make([]string, 0, len(a.Sparse))
		for k := range a.Sparse {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			bv, ok := b.Sparse[k]
			if !ok || !Equal(a.Sparse[k], bv).B {
				return false
			}
		}
		return true
	}
}

// NotEqual implements "<>"/"!=".
func NotEqual(a, b Value) Value { return Bool(!Equal(a, b).B) }

// Less, LessEq, Greater, GreaterEq implement ordering comparisons.
func Less(a, b Value) Value      { return Bool(compareOrder(a, b) < 0) }
func LessEq(a, b Value) Value    { return Bool(compareOrder(a, b) <= 0) }
func Greater(a, b Value) Value   { return Bool(compareOrder(a, b) > 0) }
func GreaterEq(a, b Value) Value { return Bool(compareOrder(a, b) >= 0) }
