package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddIntegerIsIntegerIffBothIntegers(t *testing.T) {
	v, err := Add(Int(2), Int(3))
	require.NoError(t, err)
	assert.Equal(t, Integer, v.Kind)
	assert.Equal(t, int64(5), v.I)

	v, err = Add(Int(2), Dbl(3.5))
	require.NoError(t, err)
	assert.Equal(t, Double, v.Kind)
	assert.InDelta(t, 5.5, v.F, 1e-9)
}

func TestAddStringConcatWinsOverNumericAdd(t *testing.T) {
	v, err := Add(Str("x="), Int(3))
	require.NoError(t, err)
	assert.Equal(t, String, v.Kind)
	assert.Equal(t, "x=3", v.S)
}

func TestAddVectorComponentWise(t *testing.T) {
	v, err := Add(NewVec(3, 1, 2, 3), NewVec(3, 4, 5, 6))
	require.NoError(t, err)
	assert.Equal(t, Vector3, v.Kind)
	assert.Equal(t, []float64{5, 7, 9}, v.Components)
}

func TestMulVectorByScalarBothOrders(t *testing.T) {
	a, err := Mul(NewVec(2, 1, 2), Dbl(2))
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, a.Components)

	b, err := Mul(Dbl(2), NewVec(2, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, b.Components)
}

func TestDivAlwaysPromotesToDouble(t *testing.T) {
	v, err := Div(Int(6), Int(4))
	require.NoError(t, err)
	assert.Equal(t, Double, v.Kind)
	assert.InDelta(t, 1.5, v.F, 1e-9)
}

func TestDivByZeroIsError(t *testing.T) {
	_, err := Div(Int(1), Int(0))
	require.Error(t, err)
}

func TestModByZeroIsError(t *testing.T) {
	_, err := Mod(Int(1), Int(0))
	require.Error(t, err)
}

func TestModCoercesToInteger(t *testing.T) {
	v, err := Mod(Dbl(7.9), Dbl(2.9))
	require.NoError(t, err)
	assert.Equal(t, Integer, v.Kind)
	assert.Equal(t, int64(1), v.I)
}

func TestTruthiness(t *testing.T) {
	assert.True(t, Bool(true).Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.True(t, Int(1).Truthy())
	assert.False(t, Int(0).Truthy())
	assert.True(t, Str("x").Truthy())
	assert.False(t, Str("").Truthy())
	assert.False(t, NullPtr().Truthy())
}

func TestCompareNumericAsDoubleElseStringified(t *testing.T) {
	assert.True(t, Less(Int(1), Dbl(1.5)).B)
	assert.True(t, Less(Str("a"), Str("b")).B)
}

func TestEqualStructuralForRecords(t *testing.T) {
	a := NewRecord("Point")
	a.Fields["x"] = Int(1)
	b := NewRecord("Point")
	b.Fields["x"] = Int(1)
	assert.True(t, Equal(a, b).B)

	b.Fields["x"] = Int(2)
	assert.False(t, Equal(a, b).B)
}

func TestStringFormRendering(t *testing.T) {
	assert.Equal(t, "42", Int(42).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "", NullPtr().String())
	assert.Equal(t, "(1, 2, 3)", NewVec(3, 1, 2, 3).String())
}

func TestParseNumericIntegerVsDouble(t *testing.T) {
	f, err := ParseNumeric("42")
	require.NoError(t, err)
	assert.Equal(t, 42.0, f)

	f, err = ParseNumeric("3.14")
	require.NoError(t, err)
	assert.InDelta(t, 3.14, f, 1e-9)
}

func TestCoerceStringToNumericFailureYieldsZero(t *testing.T) {
	assert.Equal(t, 0.0, Str("not-a-number").ToFloat())
}

func TestSparseArrayRejectsNestedArrays(t *testing.T) {
	arr := NewDynArray([]int{4})
	err := arr.SetSparse([]int64{0}, NewDynArray([]int{2}))
	require.Error(t, err)
}

func TestSparseArrayUnsetIndexIsNullPointer(t *testing.T) {
	arr := NewDynArray([]int{4})
	v := arr.GetSparse([]int64{1})
	assert.Equal(t, NullPointer, v.Kind)
}

func TestPowAndNegNaNBehaviour(t *testing.T) {
	v, _ := Pow(Dbl(-1), Dbl(0.5))
	assert.True(t, math.IsNaN(v.F))

	n, _ := Neg(v)
	assert.True(t, math.IsNaN(n.F))
}
