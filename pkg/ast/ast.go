// Package ast defines the rbscript abstract syntax tree: the Expression
// and Statement variant families.
//
// rbscript's grammar has no Go counterpart to reuse, so each variant is its
// own struct implementing a small marker interface: tagged variants,
// pattern-matched by the interpreter and transpiler, in place of a
// virtual-dispatch visitor hierarchy. Every node embeds its source
// token.Position for diagnostics and source-map emission.
package ast

import "github.com/rbscript-lang/rbscript/pkg/token"

// Expression is implemented by every expression AST node.
type Expression interface {
	exprNode()
	Pos() token.Position
}

// Statement is implemented by every statement AST node.
type Statement interface {
	stmtNode()
	Pos() token.Position
}

// Program is an ordered list of top-level statements.
type Program struct {
	Statements []Statement
}

// ---- Expressions --------------------------------------------------------

// Literal is a number, string, boolean-by-identifier, or null literal.
type Literal struct {
	Value any // int64, float64, string, bool, or nil
	Position token.Position
}

func (*Literal) exprNode()            {}
func (l *Literal) Pos() token.Position { return l.Position }

// Variable reads a variable, optionally indexed and/or with a member access.
type Variable struct {
	Name     string
	Indices  []Expression // optional
	Member   string       // optional, "" if absent
	Position token.Position
}

func (*Variable) exprNode()            {}
func (v *Variable) Pos() token.Position { return v.Position }

// Binary is a binary operator expression.
type Binary struct {
	Left     Expression
	Operator token.Kind
	Right    Expression
	Position token.Position
}

func (*Binary) exprNode()            {}
func (b *Binary) Pos() token.Position { return b.Position }

// Unary is a prefix operator expression ("-" or "not").
type Unary struct {
	Operator token.Kind
	Operand  Expression
	Position token.Position
}

func (*Unary) exprNode()            {}
func (u *Unary) Pos() token.Position { return u.Position }

// Assign writes a (possibly indexed) variable.
type Assign struct {
	Name     string
	Indices  []Expression // optional
	Value    Expression
	Position token.Position
}

func (*Assign) exprNode()            {}
func (a *Assign) Pos() token.Position { return a.Position }

// ComponentAssign writes a record field or vector component.
type ComponentAssign struct {
	Object    Expression
	Component string
	Value     Expression
	Position  token.Position
}

func (*ComponentAssign) exprNode()            {}
func (c *ComponentAssign) Pos() token.Position { return c.Position }

// Call invokes a named function (built-in, user-defined, or FFI).
type Call struct {
	Name      string
	Arguments []Expression
	Position  token.Position
}

func (*Call) exprNode()            {}
func (c *Call) Pos() token.Position { return c.Position }

// StructLiteral constructs a record value of the given type.
type StructLiteral struct {
	TypeName string
	Values   []Expression
	Position token.Position
}

func (*StructLiteral) exprNode()            {}
func (s *StructLiteral) Pos() token.Position { return s.Position }

// VectorConstructor builds a vec2/vec3/vec4/mat3/mat4/quat value.
type VectorConstructor struct {
	Kind      token.Kind
	Arguments []Expression
	Position  token.Position
}

func (*VectorConstructor) exprNode()            {}
func (v *VectorConstructor) Pos() token.Position { return v.Position }

// ComponentAccess reads a record field or vector component (x/y/z/w).
type ComponentAccess struct {
	Object    Expression
	Component string
	Position  token.Position
}

func (*ComponentAccess) exprNode()            {}
func (c *ComponentAccess) Pos() token.Position { return c.Position }

// ---- Statements -----------------------------------------------------------

// ExpressionStatement evaluates an expression for its side effects.
type ExpressionStatement struct {
	Expr     Expression
	Position token.Position
}

func (*ExpressionStatement) stmtNode()            {}
func (e *ExpressionStatement) Pos() token.Position { return e.Position }

// VarAssign is a `var`-declared assignment, or a write to an existing
// variable/index/member target.
type VarAssign struct {
	Name     string
	Indices  []Expression // optional
	Member   string       // optional
	Value    Expression
	Position token.Position
}

func (*VarAssign) stmtNode()            {}
func (v *VarAssign) Pos() token.Position { return v.Position }

// Print prints a comma-separated list of expressions.
type Print struct {
	Args     []Expression
	Position token.Position
}

func (*Print) stmtNode()            {}
func (p *Print) Pos() token.Position { return p.Position }

// Input reads a line of input into a target variable.
type Input struct {
	Target   string
	Prompt   Expression // optional
	Position token.Position
}

func (*Input) stmtNode()            {}
func (i *Input) Pos() token.Position { return i.Position }

// If is a conditional statement.
type If struct {
	Condition Expression
	Then      []Statement
	Else      []Statement // optional; may itself contain a single nested If
	Position  token.Position
}

func (*If) stmtNode()            {}
func (i *If) Pos() token.Position { return i.Position }

// CountedFor is a C-style counted loop.
type CountedFor struct {
	Name        string
	Init        Expression
	Condition   Expression
	Increment   Expression
	Body        []Statement
	Position    token.Position
}

func (*CountedFor) stmtNode()            {}
func (c *CountedFor) Pos() token.Position { return c.Position }

// While is a pre-tested loop.
type While struct {
	Condition Expression
	Body      []Statement
	Position  token.Position
}

func (*While) stmtNode()            {}
func (w *While) Pos() token.Position { return w.Position }

// Return exits the current function with an optional value.
type Return struct {
	Value    Expression // optional
	Position token.Position
}

func (*Return) stmtNode()            {}
func (r *Return) Pos() token.Position { return r.Position }

// Param is a function/FFI parameter declaration.
type Param struct {
	Name string
	Type string // type tag: integer, double, string, boolean, pointer, <struct>, or "<type>*"
}

// FunctionDecl declares a user function.
type FunctionDecl struct {
	Name       string
	Params     []Param
	ReturnType string // optional, "" if absent
	Body       []Statement
	Position   token.Position
}

func (*FunctionDecl) stmtNode()            {}
func (f *FunctionDecl) Pos() token.Position { return f.Position }

// StructDecl declares a record type.
type StructDecl struct {
	Name     string
	Fields   []string
	Position token.Position
}

func (*StructDecl) stmtNode()            {}
func (s *StructDecl) Pos() token.Position { return s.Position }

// Dim declares a default-initialised variable, optionally an array.
type Dim struct {
	Name       string
	Type       string // "" if absent, else integer/double/string/boolean/<struct>
	Dimensions []Expression // optional array shape
	Position   token.Position
}

func (*Dim) stmtNode()            {}
func (d *Dim) Pos() token.Position { return d.Position }

// FFIFunctionDecl declares an external native-library routine.
type FFIFunctionDecl struct {
	Name       string
	Library    string
	ReturnType string
	Params     []Param
	Position   token.Position
}

func (*FFIFunctionDecl) stmtNode()            {}
func (f *FFIFunctionDecl) Pos() token.Position { return f.Position }

// Import inlines another source file at resolve time.
type Import struct {
	Path     string
	Position token.Position
}

func (*Import) stmtNode()            {}
func (i *Import) Pos() token.Position { return i.Position }
