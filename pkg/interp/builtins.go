package interp

import (
	"math"

	"github.com/rbscript-lang/rbscript/pkg/token"
	"github.com/rbscript-lang/rbscript/pkg/value"
)

// singleArgMath is the call-dispatch tier of single-argument numeric
// built-ins. log/log10/ln fail on non-positive input; sqrt on a negative
// input yields not-a-number rather than an error.
var singleArgMath = map[string]func(value.Value, token.Position) (value.Value, error){
	"sqr":  func(a value.Value, pos token.Position) (value.Value, error) { x := a.ToFloat(); return value.Dbl(x * x), nil },
	"sqrt": func(a value.Value, pos token.Position) (value.Value, error) { return value.Dbl(math.Sqrt(a.ToFloat())), nil },
	"abs": func(a value.Value, pos token.Position) (value.Value, error) {
		if a.Kind == value.Double {
			return value.Dbl(math.Abs(a.F)), nil
		}
		return value.Int(int64(math.Abs(float64(a.ToInt())))), nil
	},
	"sin":  func(a value.Value, pos token.Position) (value.Value, error) { return value.Dbl(math.Sin(a.ToFloat())), nil },
	"cos":  func(a value.Value, pos token.Position) (value.Value, error) { return value.Dbl(math.Cos(a.ToFloat())), nil },
	"tan":  func(a value.Value, pos token.Position) (value.Value, error) { return value.Dbl(math.Tan(a.ToFloat())), nil },
	"asin": func(a value.Value, pos token.Position) (value.Value, error) { return value.Dbl(math.Asin(a.ToFloat())), nil },
	"acos": func(a value.Value, pos token.Position) (value.Value, error) { return value.Dbl(math.Acos(a.ToFloat())), nil },
	"atan": func(a value.Value, pos token.Position) (value.Value, error) { return value.Dbl(math.Atan(a.ToFloat())), nil },
	"log": func(a value.Value, pos token.Position) (value.Value, error) {
		x := a.ToFloat()
		if x <= 0 {
			return value.Value{}, runtimeErr(pos, "log of non-positive value %g", x)
		}
		return value.Dbl(math.Log(x)), nil
	},
	"ln": func(a value.Value, pos token.Position) (value.Value, error) {
		x := a.ToFloat()
		if x <= 0 {
			return value.Value{}, runtimeErr(pos, "ln of non-positive value %g", x)
		}
		return value.Dbl(math.Log(x)), nil
	},
	"log10": func(a value.Value, pos token.Position) (value.Value, error) {
		x := a.ToFloat()
		if x <= 0 {
			return value.Value{}, runtimeErr(pos, "log10 of non-positive value %g", x)
		}
		return value.Dbl(math.Log10(x)), nil
	},
	"exp":   func(a value.Value, pos token.Position) (value.Value, error) { return value.Dbl(math.Exp(a.ToFloat())), nil },
	"floor": func(a value.Value, pos token.Position) (value.Value, error) { return value.Int(int64(math.Floor(a.ToFloat()))), nil },
	"ceil":  func(a value.Value, pos token.Position) (value.Value, error) { return value.Int(int64(math.Ceil(a.ToFloat()))), nil },
	"round": func(a value.Value, pos token.Position) (value.Value, error) { return value.Int(int64(math.Round(a.ToFloat()))), nil },
	"int":   func(a value.Value, pos token.Position) (value.Value, error) { return value.Int(a.ToInt()), nil },
}

// twoArgMath is the call-dispatch tier of two-argument numeric built-ins.
var twoArgMath = map[string]func(value.Value, value.Value, token.Position) (value.Value, error){
	"pow": func(a, b value.Value, pos token.Position) (value.Value, error) {
		v, err := value.Pow(a, b)
		return v, wrapArith(err, pos)
	},
	"atan2": func(a, b value.Value, pos token.Position) (value.Value, error) {
		return value.Dbl(math.Atan2(a.ToFloat(), b.ToFloat())), nil
	},
	"mod": func(a, b value.Value, pos token.Position) (value.Value, error) {
		v, err := value.Mod(a, b)
		return v, wrapArith(err, pos)
	},
}

func wrapArith(err error, pos token.Position) error {
	if err == nil {
		return nil
	}
	return runtimeErr(pos, "%v", err)
}

// glmHelpers is the call-dispatch tier of GLM-style vector helpers.
var glmHelpers = map[string]func([]value.Value, token.Position) (value.Value, error){
	"length": func(args []value.Value, pos token.Position) (value.Value, error) {
		if len(args) != 1 || !isVecKind(args[0].Kind) {
			return value.Value{}, runtimeErr(pos, "length expects one vector argument")
		}
		return value.Dbl(math.Sqrt(sumSquares(args[0].Components))), nil
	},
	"normalize": func(args []value.Value, pos token.Position) (value.Value, error) {
		if len(args) != 1 || !isVecKind(args[0].Kind) {
			return value.Value{}, runtimeErr(pos, "normalize expects one vector argument")
		}
		v := args[0]
		l := math.Sqrt(sumSquares(v.Components))
		if l == 0 {
			return value.Value{}, runtimeErr(pos, "cannot normalize a zero-length vector")
		}
		out := make([]float64, len(v.Components))
		for i, c := range v.Components {
			out[i] = c / l
		}
		return value.Value{Kind: v.Kind, Components: out}, nil
	},
	"dot": func(args []value.Value, pos token.Position) (value.Value, error) {
		if len(args) != 2 || !isVecKind(args[0].Kind) || args[0].Kind != args[1].Kind {
			return value.Value{}, runtimeErr(pos, "dot expects two matching vectors")
		}
		sum := 0.0
		for i := range args[0].Components {
			sum += args[0].Components[i] * args[1].Components[i]
		}
		return value.Dbl(sum), nil
	},
	"cross": func(args []value.Value, pos token.Position) (value.Value, error) {
		if len(args) != 2 || args[0].Kind != value.Vector3 || args[1].Kind != value.Vector3 {
			return value.Value{}, runtimeErr(pos, "cross expects two vec3 arguments")
		}
		a, b := args[0].Components, args[1].Components
		return value.NewVec(3,
			a[1]*b[2]-a[2]*b[1],
			a[2]*b[0]-a[0]*b[2],
			a[0]*b[1]-a[1]*b[0],
		), nil
	},
}

func isVecKind(k value.Kind) bool {
	return k == value.Vector2 || k == value.Vector3 || k == value.Vector4
}

func sumSquares(comps []float64) float64 {
	sum := 0.0
	for _, c := range comps {
		sum += c * c
	}
	return sum
}
