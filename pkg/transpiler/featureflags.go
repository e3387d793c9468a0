package transpiler

import (
	"github.com/rbscript-lang/rbscript/pkg/ast"
	"github.com/rbscript-lang/rbscript/pkg/interp"
)

// scanFeatureFlags walks every statement a lowered program could execute
// (including function bodies and nested blocks) looking for GLM vector
// construction/helpers, graphics-sink calls, or database calls, so
// writeHeader can choose the program's initialisation call and linked
// runtime module before any code is emitted. Mirrors the interpreter's
// dispatch-tier call names (pkg/interp.GraphicsCallNames/DatabaseCallNames)
// so both engines agree on what counts as "using" a collaborator.
func (t *Transpiler) scanFeatureFlags(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		t.scanStmt(stmt)
	}
	for _, fn := range t.functions {
		for _, s := range fn.Body {
			t.scanStmt(s)
		}
	}
}

func (t *Transpiler) scanStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		t.scanExpr(s.Expr)
	case *ast.VarAssign:
		t.scanExpr(s.Value)
		for _, idx := range s.Indices {
			t.scanExpr(idx)
		}
	case *ast.Print:
		for _, a := range s.Args {
			t.scanExpr(a)
		}
	case *ast.Input:
		if s.Prompt != nil {
			t.scanExpr(s.Prompt)
		}
	case *ast.If:
		t.scanExpr(s.Condition)
		for _, st := range s.Then {
			t.scanStmt(st)
		}
		for _, st := range s.Else {
			t.scanStmt(st)
		}
	case *ast.CountedFor:
		t.scanExpr(s.Init)
		t.scanExpr(s.Condition)
		t.scanExpr(s.Increment)
		for _, st := range s.Body {
			t.scanStmt(st)
		}
	case *ast.While:
		t.scanExpr(s.Condition)
		for _, st := range s.Body {
			t.scanStmt(st)
		}
	case *ast.Return:
		if s.Value != nil {
			t.scanExpr(s.Value)
		}
	case *ast.Dim:
		for _, dim := range s.Dimensions {
			t.scanExpr(dim)
		}
	}
}

func (t *Transpiler) scanExpr(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Variable:
		for _, idx := range e.Indices {
			t.scanExpr(idx)
		}
	case *ast.Binary:
		t.scanExpr(e.Left)
		t.scanExpr(e.Right)
	case *ast.Unary:
		t.scanExpr(e.Operand)
	case *ast.Assign:
		t.scanExpr(e.Value)
		for _, idx := range e.Indices {
			t.scanExpr(idx)
		}
	case *ast.ComponentAssign:
		t.scanExpr(e.Object)
		t.scanExpr(e.Value)
	case *ast.ComponentAccess:
		t.scanExpr(e.Object)
	case *ast.StructLiteral:
		for _, v := range e.Values {
			t.scanExpr(v)
		}
	case *ast.VectorConstructor:
		t.usesGraphics = true
		for _, a := range e.Arguments {
			t.scanExpr(a)
		}
	case *ast.Call:
		t.scanCall(e)
		for _, a := range e.Arguments {
			t.scanExpr(a)
		}
	}
}

func (t *Transpiler) scanCall(call *ast.Call) {
	if _, ok := glmNames[call.Name]; ok {
		t.usesGraphics = true
		return
	}
	if interp.GraphicsCallNames[call.Name] {
		t.usesGraphics = true
		return
	}
	if interp.DatabaseCallNames[call.Name] {
		t.usesDatabase = true
	}
}
