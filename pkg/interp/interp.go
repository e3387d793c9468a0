// Package interp implements the rbscript tree-walking interpreter: an
// AST-visitor over the ast package's tagged variants, threading a stack of
// lexical scopes, the process-wide function/struct/FFI tables, and the
// external collaborators (I/O sink, FFI loader).
//
// Early return is not implemented with panic/recover but with an explicit
// execResult carrying a returning flag, mirrored back to a normal value
// at the calling function's frame boundary.
package interp

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rbscript-lang/rbscript/pkg/ast"
	"github.com/rbscript-lang/rbscript/pkg/ffi"
	"github.com/rbscript-lang/rbscript/pkg/iosink"
	"github.com/rbscript-lang/rbscript/pkg/sqlstore"
	"github.com/rbscript-lang/rbscript/pkg/token"
	"github.com/rbscript-lang/rbscript/pkg/value"
)

// RuntimeError is a runtime-time error, tagged with the interpreter's
// current source position at the point of failure.
type RuntimeError struct {
	Pos token.Position
	Msg string
}

func (e *RuntimeError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("Runtime error: %s at %s:%d", e.Msg, e.Pos.File, e.Pos.Line)
	}
	return fmt.Sprintf("Runtime error: %s", e.Msg)
}

func runtimeErr(pos token.Position, format string, args ...any) error {
	return &RuntimeError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// execResult is the statement visitor's result: either normal completion
// or an early return carrying a value.
type execResult struct {
	returning bool
	value     value.Value
}

var normalResult = execResult{}

// Interp holds everything a single interpretation run needs as an explicit
// context value, threaded through calls rather than kept in package
// globals.
type Interp struct {
	scopes *env

	functions map[string]*ast.FunctionDecl
	structs   map[string]*ast.StructDecl
	ffiSigs   map[string]ffi.Signature

	sink   iosink.Sink
	loader ffi.Loader
	rng    *rand.Rand
	db     sqlstore.DB

	pos token.Position
}

// New constructs an interpreter over the given I/O sink and FFI loader. If
// seed is zero, the random source is seeded from the current wall-clock
// second.
func New(sink iosink.Sink, loader ffi.Loader, seed int64) *Interp {
	if seed == 0 {
		seed = time.Now().Unix()
	}
	return &Interp{
		scopes:    newEnv(),
		functions: make(map[string]*ast.FunctionDecl),
		structs:   make(map[string]*ast.StructDecl),
		ffiSigs:   make(map[string]ffi.Signature),
		sink:      sink,
		loader:    loader,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Run executes a program's top-level statements in order. Function, struct,
// and FFI declarations take effect only after they are visited at top
// level — there is no hoisting pre-pass.
func (in *Interp) Run(prog *ast.Program) error {
	for _, stmt := range prog.Statements {
		res, err := in.execStatement(stmt)
		if err != nil {
			return err
		}
		if res.returning {
			return runtimeErr(stmt.Pos(), "return outside of a function")
		}
	}
	return nil
}

func (in *Interp) execBlock(stmts []ast.Statement) (execResult, error) {
	for _, stmt := range stmts {
		res, err := in.execStatement(stmt)
		if err != nil {
			return execResult{}, err
		}
		if res.returning {
			return res, nil
		}
	}
	return normalResult, nil
}

func (in *Interp) execStatement(stmt ast.Statement) (execResult, error) {
	in.pos = stmt.Pos()

	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		_, err := in.eval(s.Expr)
		return normalResult, err

	case *ast.VarAssign:
		v, err := in.eval(s.Value)
		if err != nil {
			return execResult{}, err
		}
		if err := in.assignTo(s.Name, s.Indices, s.Member, v, s.Position); err != nil {
			return execResult{}, err
		}
		return normalResult, nil

	case *ast.Print:
		for i, arg := range s.Args {
			v, err := in.eval(arg)
			if err != nil {
				return execResult{}, err
			}
			if i > 0 {
				in.sink.Print(" ")
			}
			in.sink.Print(v.String())
		}
		in.sink.Newline()
		return normalResult, nil

	case *ast.Input:
		var (
			line string
			err  error
		)
		if s.Prompt != nil {
			pv, perr := in.eval(s.Prompt)
			if perr != nil {
				return execResult{}, perr
			}
			line, err = in.sink.InputPrompt(pv.String())
		} else {
			line, err = in.sink.Input()
		}
		if err != nil {
			return execResult{}, runtimeErr(s.Position, "input failed: %v", err)
		}
		in.scopes.set(s.Target, value.Str(line))
		return normalResult, nil

	case *ast.If:
		cond, err := in.eval(s.Condition)
		if err != nil {
			return execResult{}, err
		}
		if cond.Truthy() {
			return in.execBlock(s.Then)
		}
		return in.execBlock(s.Else)

	case *ast.CountedFor:
		init, err := in.eval(s.Init)
		if err != nil {
			return execResult{}, err
		}
		in.scopes.set(s.Name, init)
		for {
			cond, err := in.eval(s.Condition)
			if err != nil {
				return execResult{}, err
			}
			if !cond.Truthy() {
				break
			}
			res, err := in.execBlock(s.Body)
			if err != nil {
				return execResult{}, err
			}
			if res.returning {
				return res, nil
			}
			if _, err := in.eval(s.Increment); err != nil {
				return execResult{}, err
			}
		}
		return normalResult, nil

	case *ast.While:
		for {
			cond, err := in.eval(s.Condition)
			if err != nil {
				return execResult{}, err
			}
			if !cond.Truthy() {
				break
			}
			res, err := in.execBlock(s.Body)
			if err != nil {
				return execResult{}, err
			}
			if res.returning {
				return res, nil
			}
		}
		return normalResult, nil

	case *ast.Return:
		if s.Value == nil {
			return execResult{returning: true, value: value.Int(0)}, nil
		}
		v, err := in.eval(s.Value)
		if err != nil {
			return execResult{}, err
		}
		return execResult{returning: true, value: v}, nil

	case *ast.FunctionDecl:
		in.functions[s.Name] = s
		return normalResult, nil

	case *ast.StructDecl:
		in.structs[s.Name] = s
		return normalResult, nil

	case *ast.Dim:
		v, err := in.evalDim(s)
		if err != nil {
			return execResult{}, err
		}
		in.scopes.declare(s.Name, v)
		return normalResult, nil

	case *ast.FFIFunctionDecl:
		in.ffiSigs[s.Name] = ffiSignature(s)
		if in.loader != nil {
			if err := in.loader.Declare(s.Name, ffiSignature(s)); err != nil {
				return execResult{}, runtimeErr(s.Position, "ffi declare failed: %v", err)
			}
		}
		return normalResult, nil

	case *ast.Import:
		// Imports are inlined by pkg/imports before lexing; by the time the
		// interpreter sees the program, nothing remains to do here.
		return normalResult, nil

	default:
		return execResult{}, runtimeErr(stmt.Pos(), "unhandled statement %T", stmt)
	}
}

func ffiSignature(decl *ast.FFIFunctionDecl) ffi.Signature {
	params := make([]ffi.Param, len(decl.Params))
	for i, p := range decl.Params {
		params[i] = ffi.Param{Name: p.Name, Type: p.Type}
	}
	return ffi.Signature{Library: decl.Library, ReturnType: decl.ReturnType, Params: params}
}

// evalDim builds the default value for a `dim` declaration: typed default
// initialisation for scalars, or a shaped array/record when dimensions or
// a struct type tag are present. The transpiler's emitted code mirrors
// these same defaults.
func (in *Interp) evalDim(d *ast.Dim) (value.Value, error) {
	if len(d.Dimensions) > 0 {
		shape := make([]int, len(d.Dimensions))
		for i, dim := range d.Dimensions {
			v, err := in.eval(dim)
			if err != nil {
				return value.Value{}, err
			}
			shape[i] = int(v.ToInt())
		}
		switch d.Type {
		case "byte":
			return value.NewByteArray(shape), nil
		case "integer":
			return value.NewIntArray(shape), nil
		case "double":
			return value.NewDoubleArray(shape), nil
		default:
			return value.NewDynArray(shape), nil
		}
	}

	switch d.Type {
	case "", "integer":
		return value.Int(0), nil
	case "double":
		return value.Dbl(0), nil
	case "string":
		return value.Str(""), nil
	case "boolean":
		return value.Bool(false), nil
	default:
		if decl, ok := in.structs[d.Type]; ok {
			rec := value.NewRecord(decl.Name)
			for _, f := range decl.Fields {
				rec.Fields[f] = value.Int(0)
			}
			return rec, nil
		}
		return value.NullPtr(), nil
	}
}

// assignTo writes v into name, optionally through array indices or a
// record member.
func (in *Interp) assignTo(name string, indices []ast.Expression, member string, v value.Value, pos token.Position) error {
	if len(indices) == 0 && member == "" {
		in.scopes.set(name, v)
		return nil
	}

	base, ok := in.scopes.get(name)
	if !ok {
		return runtimeErr(pos, "unknown variable %q", name)
	}

	if member != "" {
		if base.Kind != value.Record {
			return runtimeErr(pos, "%q is not a record", name)
		}
		if base.Fields == nil {
			base.Fields = make(map[string]value.Value)
		}
		base.Fields[member] = v
		in.scopes.set(name, base)
		return nil
	}

	idx, err := in.evalIndices(indices)
	if err != nil {
		return err
	}
	if err := setArrayElement(&base, idx, v); err != nil {
		return runtimeErr(pos, "%v", err)
	}
	in.scopes.set(name, base)
	return nil
}

func (in *Interp) evalIndices(exprs []ast.Expression) ([]int64, error) {
	out := make([]int64, len(exprs))
	for i, e := range exprs {
		v, err := in.eval(e)
		if err != nil {
			return nil, err
		}
		out[i] = v.ToInt()
	}
	return out, nil
}

// flatIndex computes the row-major offset of indices into shape, used for
// the dense typed arrays: arrays with declared dimensions stay dense.
func flatIndex(shape []int, indices []int64) (int, error) {
	if len(indices) != len(shape) {
		return 0, fmt.Errorf("expected %d indices, got %d", len(shape), len(indices))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || int(idx) >= shape[i] {
			return 0, fmt.Errorf("array index %d out of range for dimension of size %d", idx, shape[i])
		}
		offset = offset*shape[i] + int(idx)
	}
	return offset, nil
}

func setArrayElement(base *value.Value, indices []int64, v value.Value) error {
	switch base.Kind {
	case value.DynArray:
		return base.SetSparse(indices, v)
	case value.ByteArray:
		off, err := flatIndex(base.Shape, indices)
		if err != nil {
			return err
		}
		base.Bytes[off] = byte(v.ToInt())
		return nil
	case value.IntArray:
		off, err := flatIndex(base.Shape, indices)
		if err != nil {
			return err
		}
		base.Ints[off] = v.ToInt()
		return nil
	case value.DoubleArray:
		off, err := flatIndex(base.Shape, indices)
		if err != nil {
			return err
		}
		base.Doubles[off] = v.ToFloat()
		return nil
	default:
		return fmt.Errorf("cannot index a value of this kind")
	}
}

func getArrayElement(base value.Value, indices []int64) (value.Value, error) {
	switch base.Kind {
	case value.DynArray:
		return base.GetSparse(indices), nil
	case value.ByteArray:
		off, err := flatIndex(base.Shape, indices)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(int64(base.Bytes[off])), nil
	case value.IntArray:
		off, err := flatIndex(base.Shape, indices)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(base.Ints[off]), nil
	case value.DoubleArray:
		off, err := flatIndex(base.Shape, indices)
		if err != nil {
			return value.Value{}, err
		}
		return value.Dbl(base.Doubles[off]), nil
	default:
		return value.Value{}, fmt.Errorf("cannot index a value of this kind")
	}
}

// eval is the expression visitor.
func (in *Interp) eval(expr ast.Expression) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return literalValue(e.Value), nil

	case *ast.Variable:
		base, ok := in.scopes.get(e.Name)
		if !ok {
			return value.Value{}, runtimeErr(e.Position, "unknown variable %q", e.Name)
		}
		if len(e.Indices) > 0 {
			idx, err := in.evalIndices(e.Indices)
			if err != nil {
				return value.Value{}, err
			}
			v, err := getArrayElement(base, idx)
			if err != nil {
				return value.Value{}, runtimeErr(e.Position, "%v", err)
			}
			return v, nil
		}
		if e.Member != "" {
			if base.Kind != value.Record {
				return value.Value{}, runtimeErr(e.Position, "%q is not a record", e.Name)
			}
			return base.Fields[e.Member], nil
		}
		return base, nil

	case *ast.ComponentAccess:
		obj, err := in.eval(e.Object)
		if err != nil {
			return value.Value{}, err
		}
		return componentOf(obj, e.Component, e.Position)

	case *ast.Binary:
		return in.evalBinary(e)

	case *ast.Unary:
		v, err := in.eval(e.Operand)
		if err != nil {
			return value.Value{}, err
		}
		switch e.Operator {
		case token.MINUS:
			r, err := value.Neg(v)
			if err != nil {
				return value.Value{}, runtimeErr(e.Position, "%v", err)
			}
			return r, nil
		case token.NOT:
			return value.Not(v), nil
		default:
			return value.Value{}, runtimeErr(e.Position, "unknown unary operator %s", e.Operator)
		}

	case *ast.Assign:
		v, err := in.eval(e.Value)
		if err != nil {
			return value.Value{}, err
		}
		if err := in.assignTo(e.Name, e.Indices, "", v, e.Position); err != nil {
			return value.Value{}, err
		}
		return v, nil

	case *ast.ComponentAssign:
		v, err := in.eval(e.Value)
		if err != nil {
			return value.Value{}, err
		}
		objVar, ok := e.Object.(*ast.Variable)
		if !ok {
			return value.Value{}, runtimeErr(e.Position, "invalid assignment target")
		}
		base, ok := in.scopes.get(objVar.Name)
		if !ok {
			return value.Value{}, runtimeErr(e.Position, "unknown variable %q", objVar.Name)
		}
		if err := setComponent(&base, e.Component, v, e.Position); err != nil {
			return value.Value{}, err
		}
		in.scopes.set(objVar.Name, base)
		return v, nil

	case *ast.StructLiteral:
		decl, ok := in.structs[e.TypeName]
		if !ok {
			return value.Value{}, runtimeErr(e.Position, "unknown struct type %q", e.TypeName)
		}
		rec := value.NewRecord(decl.Name)
		for i, f := range decl.Fields {
			if i < len(e.Values) {
				v, err := in.eval(e.Values[i])
				if err != nil {
					return value.Value{}, err
				}
				rec.Fields[f] = v
			} else {
				rec.Fields[f] = value.Int(0)
			}
		}
		return rec, nil

	case *ast.VectorConstructor:
		args := make([]value.Value, len(e.Arguments))
		for i, a := range e.Arguments {
			v, err := in.eval(a)
			if err != nil {
				return value.Value{}, err
			}
			args[i] = v
		}
		return buildVector(e.Kind, args, e.Position)

	case *ast.Call:
		return in.evalCall(e)

	default:
		return value.Value{}, runtimeErr(expr.Pos(), "unhandled expression %T", expr)
	}
}

func literalValue(v any) value.Value {
	switch t := v.(type) {
	case int64:
		return value.Int(t)
	case float64:
		return value.Dbl(t)
	case string:
		return value.Str(t)
	case bool:
		return value.Bool(t)
	case nil:
		return value.NullPtr()
	default:
		return value.NullPtr()
	}
}

func componentOf(obj value.Value, name string, pos token.Position) (value.Value, error) {
	if obj.Kind == value.Record {
		return obj.Fields[name], nil
	}
	idx, ok := componentIndex(name)
	if !ok || idx >= len(obj.Components) {
		return value.Value{}, runtimeErr(pos, "no component %q on this value", name)
	}
	return value.Dbl(obj.Components[idx]), nil
}

func setComponent(base *value.Value, name string, v value.Value, pos token.Position) error {
	if base.Kind == value.Record {
		if base.Fields == nil {
			base.Fields = make(map[string]value.Value)
		}
		base.Fields[name] = v
		return nil
	}
	idx, ok := componentIndex(name)
	if !ok || idx >= len(base.Components) {
		return runtimeErr(pos, "no component %q on this value", name)
	}
	base.Components[idx] = v.ToFloat()
	return nil
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

func buildVector(kind token.Kind, args []value.Value, pos token.Position) (value.Value, error) {
	comps := make([]float64, len(args))
	for i, a := range args {
		comps[i] = a.ToFloat()
	}
	switch kind {
	case token.VEC2:
		return value.NewVec(2, comps...), nil
	case token.VEC3:
		return value.NewVec(3, comps...), nil
	case token.VEC4:
		return value.NewVec(4, comps...), nil
	case token.MAT3:
		return value.NewMat3(comps), nil
	case token.MAT4:
		return value.NewMat4(comps), nil
	case token.QUAT:
		if len(comps) < 4 {
			return value.Value{}, runtimeErr(pos, "quat() requires 4 arguments")
		}
		return value.NewQuat(comps[0], comps[1], comps[2], comps[3]), nil
	default:
		return value.Value{}, runtimeErr(pos, "unknown vector constructor")
	}
}

func (in *Interp) evalBinary(e *ast.Binary) (value.Value, error) {
	// "and"/"or" short-circuit and never promote operands through the
	// arithmetic helpers: they sit in their own precedence tier, distinct
	// from comparisons and arithmetic.
	if e.Operator == token.AND || e.Operator == token.OR {
		l, err := in.eval(e.Left)
		if err != nil {
			return value.Value{}, err
		}
		if e.Operator == token.AND && !l.Truthy() {
			return value.Bool(false), nil
		}
		if e.Operator == token.OR && l.Truthy() {
			return value.Bool(true), nil
		}
		r, err := in.eval(e.Right)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(r.Truthy()), nil
	}

	l, err := in.eval(e.Left)
	if err != nil {
		return value.Value{}, err
	}
	r, err := in.eval(e.Right)
	if err != nil {
		return value.Value{}, err
	}

	var (
		result value.Value
		opErr  error
	)
	switch e.Operator {
	case token.PLUS:
		result, opErr = value.Add(l, r)
	case token.MINUS:
		result, opErr = value.Sub(l, r)
	case token.STAR:
		result, opErr = value.Mul(l, r)
	case token.SLASH:
		result, opErr = value.Div(l, r)
	case token.PERCENT, token.MOD:
		result, opErr = value.Mod(l, r)
	case token.CARET:
		result, opErr = value.Pow(l, r)
	case token.EQ:
		result = value.Equal(l, r)
	case token.NEQ:
		result = value.NotEqual(l, r)
	case token.LT:
		result = value.Less(l, r)
	case token.LTE:
		result = value.LessEq(l, r)
	case token.GT:
		result = value.Greater(l, r)
	case token.GTE:
		result = value.GreaterEq(l, r)
	default:
		return value.Value{}, runtimeErr(e.Position, "unknown binary operator %s", e.Operator)
	}
	if opErr != nil {
		return value.Value{}, runtimeErr(e.Position, "%v", opErr)
	}
	return result, nil
}

// evalCall implements the language's call dispatch order.
func (in *Interp) evalCall(call *ast.Call) (value.Value, error) {
	args := make([]value.Value, len(call.Arguments))
	for i, a := range call.Arguments {
		v, err := in.eval(a)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}

	if fn, ok := singleArgMath[call.Name]; ok {
		if len(args) != 1 {
			return value.Value{}, runtimeErr(call.Position, "%s expects 1 argument, got %d", call.Name, len(args))
		}
		return fn(args[0], call.Position)
	}

	if fn, ok := twoArgMath[call.Name]; ok {
		if len(args) != 2 {
			return value.Value{}, runtimeErr(call.Position, "%s expects 2 arguments, got %d", call.Name, len(args))
		}
		return fn(args[0], args[1], call.Position)
	}

	switch call.Name {
	case "rnd", "random":
		if len(args) != 0 {
			return value.Value{}, runtimeErr(call.Position, "%s expects 0 arguments", call.Name)
		}
		return value.Dbl(in.rng.Float64()), nil
	case "pi":
		if len(args) != 0 {
			return value.Value{}, runtimeErr(call.Position, "pi expects 0 arguments")
		}
		return value.Dbl(math.Pi), nil
	}

	switch call.Name {
	case "print":
		for i, a := range args {
			if i > 0 {
				in.sink.Print(" ")
			}
			in.sink.Print(a.String())
		}
		in.sink.Newline()
		return value.Int(0), nil
	case "input":
		var (
			line string
			err  error
		)
		if len(args) > 0 {
			line, err = in.sink.InputPrompt(args[0].String())
		} else {
			line, err = in.sink.Input()
		}
		if err != nil {
			return value.Value{}, runtimeErr(call.Position, "input failed: %v", err)
		}
		return value.Str(line), nil
	}

	if v, handled, err := in.evalSinkCall(call, args); handled {
		return v, err
	}
	if v, handled, err := in.evalDBCall(call, args); handled {
		return v, err
	}

	if fn, ok := glmHelpers[call.Name]; ok {
		return fn(args, call.Position)
	}

	if sig, ok := in.ffiSigs[call.Name]; ok {
		coerced, err := coerceFFIArgs(sig, args, call.Position)
		if err != nil {
			return value.Value{}, err
		}
		if in.loader == nil {
			return value.Value{}, runtimeErr(call.Position, "no FFI loader configured")
		}
		v, err := in.loader.Call(call.Name, coerced)
		if err != nil {
			return value.Value{}, runtimeErr(call.Position, "ffi call to %q failed: %v", call.Name, err)
		}
		return v, nil
	}

	fn, ok := in.functions[call.Name]
	if !ok {
		return value.Value{}, runtimeErr(call.Position, "unknown function %q", call.Name)
	}
	return in.callUser(fn, args, call.Position)
}

func coerceFFIArgs(sig ffi.Signature, args []value.Value, pos token.Position) ([]value.Value, error) {
	if len(args) != len(sig.Params) {
		return nil, runtimeErr(pos, "expects %d arguments, got %d", len(sig.Params), len(args))
	}
	out := make([]value.Value, len(args))
	for i, p := range sig.Params {
		out[i] = coerceToTag(args[i], p.Type)
	}
	return out, nil
}

func coerceToTag(v value.Value, tag string) value.Value {
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

// callUser evaluates arguments in the caller's scope (already done by the
// time this is reached), pushes a fresh frame, binds parameters by
// position, executes the body, and pops the frame, mirroring `returning`
// back into a normal value at the boundary.
func (in *Interp) callUser(fn *ast.FunctionDecl, args []value.Value, pos token.Position) (value.Value, error) {
	if len(args) != len(fn.Params) {
		return value.Value{}, runtimeErr(pos, "%s expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}

	in.scopes.push()
	defer in.scopes.pop()

	for i, p := range fn.Params {
		in.scopes.declare(p.Name, args[i])
	}

	res, err := in.execBlock(fn.Body)
	if err != nil {
		return value.Value{}, err
	}
	if res.returning {
		return res.value, nil
	}
	return value.Int(0), nil
}
