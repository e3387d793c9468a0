// Package parser implements rbscript's precedence-climbing recursive-descent
// parser. The parser is reentrant per call and holds no global state,
// consuming a token vector and producing an AST, or recording
// *syntax-error*s and synchronising at the next statement boundary so
// multiple errors can be reported per run.
package parser

import (
	"fmt"

	"github.com/rbscript-lang/rbscript/pkg/ast"
	"github.com/rbscript-lang/rbscript/pkg/token"
)

// Error is a *syntax-error* recorded during parsing.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Syntax error: %s at %s", e.Msg, e.Pos)
}

// parsePanic is the internal control-flow value thrown to unwind to the
// nearest statement boundary on a syntax error.
type parsePanic struct{ err *Error }

// Parser consumes a token slice and builds the rbscript AST.
type Parser struct {
	toks   []token.Token
	pos    int
	errors []error
}

// New creates a Parser over a token slice already terminated by an EOF
// token (as produced by lexer.Tokenize).
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse runs the parser to completion, returning the Program AST and any
// syntax errors recorded along the way. A non-empty error slice does not
// necessarily mean the Program is nil — recovered statements before/after
// an error are still present.
func Parse(toks []token.Token) (*ast.Program, []error) {
	p := New(toks)
	return p.ParseProgram(), p.errors
}

func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.check(token.EOF) {
		if stmt := p.parseStatementRecovering(); stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
	}
	return prog
}

// ---- token stream helpers ------------------------------------------------

func (p *Parser) peek() token.Token  { return p.toks[p.pos] }
func (p *Parser) previous() token.Token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func (p *Parser) check(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.peek()
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(k token.Kind, msg string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	p.fail(msg)
	return token.Token{}
}

func (p *Parser) fail(msg string) {
	panic(parsePanic{&Error{Pos: p.peek().Pos, Msg: msg}})
}

// synchronize advances tokens until the next semicolon or the next
// statement-introducing keyword.
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if p.previous().Kind == token.SEMICOLON {
			return
		}
		switch p.peek().Kind {
		case token.VAR, token.IF, token.FOR, token.WHILE, token.FUNCTION,
			token.STRUCT, token.DIM, token.DECLARE, token.FFI, token.IMPORT,
			token.RETURN, token.PRINT, token.INPUT:
			return
		}
		p.advance()
	}
}

func (p *Parser) parseStatementRecovering() (stmt ast.Statement) {
	defer func() {
		if r := recover(); r != nil {
			pp, ok := r.(parsePanic)
			if !ok {
				panic(r)
			}
			p.errors = append(p.errors, pp.err)
			p.synchronize()
			stmt = nil
		}
	}()
	return p.parseStatement()
}

// ---- statements -----------------------------------------------------------

func (p *Parser) parseStatement() ast.Statement {
	switch p.peek().Kind {
	case token.VAR:
		return p.parseVarDecl()
	case token.IF:
		return p.parseIf()
	case token.FOR:
		return p.parseFor()
	case token.WHILE:
		return p.parseWhile()
	case token.RETURN:
		return p.parseReturn()
	case token.FUNCTION:
		return p.parseFunctionDecl()
	case token.STRUCT:
		return p.parseStructDecl()
	case token.DIM:
		return p.parseDim()
	case token.DECLARE:
		return p.parseDeclare()
	case token.FFI:
		return p.parseFFI()
	case token.IMPORT:
		return p.parseImport()
	case token.PRINT:
		return p.parsePrint()
	case token.INPUT:
		return p.parseInput()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseBlock() []ast.Statement {
	p.expect(token.LBRACE, "expected '{'")
	var stmts []ast.Statement
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		if stmt := p.parseStatementRecovering(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.expect(token.RBRACE, "expected '}'")
	return stmts
}

func (p *Parser) parseVarDecl() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'var'
	name := p.expect(token.IDENT, "expected identifier after 'var'").Lexeme

	var indices []ast.Expression
	if p.match(token.LBRACKET) {
		indices = append(indices, p.parseExpression())
		for p.match(token.COMMA) {
			indices = append(indices, p.parseExpression())
		}
		p.expect(token.RBRACKET, "expected ']'")
	}

	member := ""
	if p.match(token.DOT) {
		member = p.expect(token.IDENT, "expected field name after '.'").Lexeme
	}

	p.expect(token.ASSIGN, "expected '=' in var declaration")
	value := p.parseExpression()
	p.expect(token.SEMICOLON, "expected ';'")

	return &ast.VarAssign{Name: name, Indices: indices, Member: member, Value: value, Position: pos}
}

func (p *Parser) parseIf() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'if'
	p.expect(token.LPAREN, "expected '(' after 'if'")
	cond := p.parseExpression()
	p.expect(token.RPAREN, "expected ')'")
	thenBlock := p.parseBlock()

	var elseBlock []ast.Statement
	if p.match(token.ELSE) {
		if p.check(token.IF) {
			elseBlock = []ast.Statement{p.parseIf()}
		} else {
			elseBlock = p.parseBlock()
		}
	}
	return &ast.If{Condition: cond, Then: thenBlock, Else: elseBlock, Position: pos}
}

func (p *Parser) parseFor() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'for'
	p.expect(token.LPAREN, "expected '(' after 'for'")
	p.match(token.VAR)
	name := p.expect(token.IDENT, "expected loop variable name").Lexeme
	p.expect(token.ASSIGN, "expected '=' in for initialiser")
	init := p.parseExpression()
	p.expect(token.SEMICOLON, "expected ';' after for initialiser")
	cond := p.parseExpression()
	p.expect(token.SEMICOLON, "expected ';' after for condition")
	incr := p.parseExpression()
	p.expect(token.RPAREN, "expected ')' after for clauses")
	body := p.parseBlock()
	return &ast.CountedFor{Name: name, Init: init, Condition: cond, Increment: incr, Body: body, Position: pos}
}

func (p *Parser) parseWhile() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'while'
	p.expect(token.LPAREN, "expected '(' after 'while'")
	cond := p.parseExpression()
	p.expect(token.RPAREN, "expected ')'")
	body := p.parseBlock()
	return &ast.While{Condition: cond, Body: body, Position: pos}
}

func (p *Parser) parseReturn() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'return'
	var val ast.Expression
	if !p.check(token.SEMICOLON) {
		val = p.parseExpression()
	}
	p.expect(token.SEMICOLON, "expected ';' after return")
	return &ast.Return{Value: val, Position: pos}
}

func (p *Parser) parseTypeTag() string {
	if p.check(token.IDENT) || isTypeKeyword(p.peek().Kind) {
		name := p.peek().Lexeme
		if name == "" {
			name = p.peek().Kind.String()
		}
		p.advance()
		if p.match(token.STAR) {
			name += "*"
		}
		return name
	}
	p.fail("expected type tag")
	return ""
}

func isTypeKeyword(k token.Kind) bool {
	switch k {
	case token.POINTER, token.VEC2, token.VEC3, token.VEC4, token.MAT3, token.MAT4, token.QUAT:
		return true
	}
	return false
}

func (p *Parser) parseFunctionDecl() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'function'
	name := p.expect(token.IDENT, "expected function name").Lexeme
	p.expect(token.LPAREN, "expected '('")
	var params []ast.Param
	if !p.check(token.RPAREN) {
		params = append(params, p.parseParam())
		for p.match(token.COMMA) {
			params = append(params, p.parseParam())
		}
	}
	p.expect(token.RPAREN, "expected ')'")

	retType := ""
	if p.match(token.AS) {
		retType = p.parseTypeTag()
	}
	body := p.parseBlock()
	return &ast.FunctionDecl{Name: name, Params: params, ReturnType: retType, Body: body, Position: pos}
}

func (p *Parser) parseParam() ast.Param {
	name := p.expect(token.IDENT, "expected parameter name").Lexeme
	typ := ""
	if p.match(token.AS) {
		typ = p.parseTypeTag()
	}
	return ast.Param{Name: name, Type: typ}
}

func (p *Parser) parseStructDecl() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'struct'
	name := p.expect(token.IDENT, "expected struct name").Lexeme
	p.expect(token.LBRACE, "expected '{'")
	var fields []string
	fields = append(fields, p.expect(token.IDENT, "expected field name").Lexeme)
	for p.match(token.COMMA) {
		fields = append(fields, p.expect(token.IDENT, "expected field name").Lexeme)
	}
	p.expect(token.RBRACE, "expected '}'")
	p.expect(token.SEMICOLON, "expected ';' after struct declaration")
	return &ast.StructDecl{Name: name, Fields: fields, Position: pos}
}

func (p *Parser) parseDim() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'dim'
	name := p.expect(token.IDENT, "expected variable name after 'dim'").Lexeme

	var dims []ast.Expression
	if p.match(token.LPAREN) {
		dims = append(dims, p.parseExpression())
		for p.match(token.COMMA) {
			dims = append(dims, p.parseExpression())
		}
		p.expect(token.RPAREN, "expected ')'")
	}

	typ := ""
	if p.match(token.AS) {
		typ = p.parseTypeTag()
	}
	p.expect(token.SEMICOLON, "expected ';' after dim")
	return &ast.Dim{Name: name, Type: typ, Dimensions: dims, Position: pos}
}

func (p *Parser) parseDeclare() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'declare'
	p.match(token.FFI)
	p.expect(token.FUNCTION, "expected 'function' after 'declare'")
	name := p.expect(token.IDENT, "expected function name").Lexeme
	if !p.match(token.FROM) && !p.match(token.LIB) {
		p.fail("expected 'from' or 'lib'")
	}
	lib := p.expect(token.STRING, "expected library path string").Lexeme

	var params []ast.Param
	if p.match(token.LPAREN) {
		if !p.check(token.RPAREN) {
			params = append(params, p.parseFFIParam())
			for p.match(token.COMMA) {
				params = append(params, p.parseFFIParam())
			}
		}
		p.expect(token.RPAREN, "expected ')'")
	}
	p.expect(token.AS, "expected 'as' before return type")
	retType := p.parseTypeTag()
	p.expect(token.SEMICOLON, "expected ';'")
	return &ast.FFIFunctionDecl{Name: name, Library: lib, ReturnType: retType, Params: params, Position: pos}
}

func (p *Parser) parseFFI() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'ffi'
	retType := p.parseTypeTag()
	name := p.expect(token.IDENT, "expected function name").Lexeme
	p.expect(token.LPAREN, "expected '('")
	var params []ast.Param
	if !p.check(token.RPAREN) {
		params = append(params, p.parseFFIParam())
		for p.match(token.COMMA) {
			params = append(params, p.parseFFIParam())
		}
	}
	p.expect(token.RPAREN, "expected ')'")
	p.expect(token.FROM, "expected 'from'")
	lib := p.expect(token.STRING, "expected library path string").Lexeme
	p.expect(token.SEMICOLON, "expected ';'")
	return &ast.FFIFunctionDecl{Name: name, Library: lib, ReturnType: retType, Params: params, Position: pos}
}

func (p *Parser) parseFFIParam() ast.Param {
	name := p.expect(token.IDENT, "expected parameter name").Lexeme
	p.expect(token.AS, "expected 'as' in ffi parameter")
	typ := p.parseTypeTag()
	return ast.Param{Name: name, Type: typ}
}

func (p *Parser) parseImport() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'import'
	path := p.expect(token.STRING, "expected import path string").Lexeme
	p.expect(token.SEMICOLON, "expected ';' after import")
	return &ast.Import{Path: path, Position: pos}
}

func (p *Parser) parsePrint() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'print'
	var args []ast.Expression
	if !p.check(token.SEMICOLON) {
		args = append(args, p.parseExpression())
		for p.match(token.COMMA) {
			args = append(args, p.parseExpression())
		}
	}
	p.expect(token.SEMICOLON, "expected ';' after print")
	return &ast.Print{Args: args, Position: pos}
}

func (p *Parser) parseInput() ast.Statement {
	pos := p.peek().Pos
	p.advance() // 'input'
	var prompt ast.Expression
	if p.check(token.STRING) {
		prompt = p.parsePrimary()
	}
	name := p.expect(token.IDENT, "expected target variable for input").Lexeme
	p.expect(token.SEMICOLON, "expected ';' after input")
	return &ast.Input{Target: name, Prompt: prompt, Position: pos}
}

func (p *Parser) parseExprStatement() ast.Statement {
	pos := p.peek().Pos
	expr := p.parseExpression()
	p.expect(token.SEMICOLON, "expected ';' after expression")
	return &ast.ExpressionStatement{Expr: expr, Position: pos}
}

// ---- expressions ------------------------------------------------------

func (p *Parser) parseExpression() ast.Expression { return p.parseAssignment() }

func (p *Parser) parseAssignment() ast.Expression {
	left := p.parseOr()
	if p.match(token.ASSIGN) {
		pos := p.previous().Pos
		value := p.parseAssignment() // right-associative
		switch t := left.(type) {
		case *ast.Variable:
			return &ast.Assign{Name: t.Name, Indices: t.Indices, Value: value, Position: pos}
		case *ast.ComponentAccess:
			return &ast.ComponentAssign{Object: t.Object, Component: t.Component, Value: value, Position: pos}
		default:
			p.errors = append(p.errors, &Error{Pos: pos, Msg: "invalid assignment target"})
			return left
		}
	}
	return left
}

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for p.check(token.OR) {
		pos := p.peek().Pos
		p.advance()
		right := p.parseAnd()
		left = &ast.Binary{Left: left, Operator: token.OR, Right: right, Position: pos}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseEquality()
	for p.check(token.AND) {
		pos := p.peek().Pos
		p.advance()
		right := p.parseEquality()
		left = &ast.Binary{Left: left, Operator: token.AND, Right: right, Position: pos}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expression {
	left := p.parseComparison()
	for p.check(token.EQ) || p.check(token.NEQ) {
		op := p.peek().Kind
		pos := p.peek().Pos
		p.advance()
		right := p.parseComparison()
		left = &ast.Binary{Left: left, Operator: op, Right: right, Position: pos}
	}
	return left
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseAdditive()
	for p.check(token.LT) || p.check(token.LTE) || p.check(token.GT) || p.check(token.GTE) {
		op := p.peek().Kind
		pos := p.peek().Pos
		p.advance()
		right := p.parseAdditive()
		left = &ast.Binary{Left: left, Operator: op, Right: right, Position: pos}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.peek().Kind
		pos := p.peek().Pos
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.Binary{Left: left, Operator: op, Right: right, Position: pos}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	for p.check(token.STAR) || p.check(token.SLASH) || p.check(token.PERCENT) || p.check(token.MOD) {
		op := p.peek().Kind
		pos := p.peek().Pos
		p.advance()
		right := p.parseUnary()
		left = &ast.Binary{Left: left, Operator: op, Right: right, Position: pos}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	if p.check(token.MINUS) || p.check(token.NOT) {
		op := p.peek().Kind
		pos := p.peek().Pos
		p.advance()
		operand := p.parseUnary()
		return &ast.Unary{Operator: op, Operand: operand, Position: pos}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for {
		switch {
		case p.check(token.LPAREN):
			pos := p.peek().Pos
			p.advance()
			args := p.parseArgs(token.RPAREN)
			p.expect(token.RPAREN, "expected ')'")
			if v, ok := expr.(*ast.Variable); ok && v.Indices == nil && v.Member == "" {
				expr = &ast.Call{Name: v.Name, Arguments: args, Position: pos}
			} else {
				p.errors = append(p.errors, &Error{Pos: pos, Msg: "call target must be a name"})
			}
		case p.check(token.LBRACE):
			pos := p.peek().Pos
			p.advance()
			args := p.parseArgs(token.RBRACE)
			p.expect(token.RBRACE, "expected '}'")
			if v, ok := expr.(*ast.Variable); ok {
				expr = &ast.StructLiteral{TypeName: v.Name, Values: args, Position: pos}
			} else {
				p.errors = append(p.errors, &Error{Pos: pos, Msg: "struct literal target must be a type name"})
			}
		case p.check(token.LBRACKET):
			pos := p.peek().Pos
			p.advance()
			var idx []ast.Expression
			idx = append(idx, p.parseExpression())
			for p.match(token.COMMA) {
				idx = append(idx, p.parseExpression())
			}
			p.expect(token.RBRACKET, "expected ']'")
			if v, ok := expr.(*ast.Variable); ok {
				v.Indices = append(v.Indices, idx...)
			} else {
				expr = &ast.Variable{Indices: idx, Position: pos}
			}
		case p.check(token.DOT):
			p.advance()
			name := p.expect(token.IDENT, "expected name after '.'").Lexeme
			pos := p.previous().Pos
			if isComponentName(name) {
				expr = &ast.ComponentAccess{Object: expr, Component: name, Position: pos}
			} else if v, ok := expr.(*ast.Variable); ok && v.Indices == nil && v.Member == "" {
				v.Member = name
			} else {
				expr = &ast.ComponentAccess{Object: expr, Component: name, Position: pos}
			}
		default:
			return expr
		}
	}
}

func isComponentName(name string) bool {
	switch name {
	case "x", "y", "z", "w":
		return true
	}
	return false
}

func (p *Parser) parseArgs(end token.Kind) []ast.Expression {
	var args []ast.Expression
	if p.check(end) {
		return args
	}
	args = append(args, p.parseExpression())
	for p.match(token.COMMA) {
		args = append(args, p.parseExpression())
	}
	return args
}

func (p *Parser) parsePrimary() ast.Expression {
	t := p.peek()
	switch t.Kind {
	case token.NUMBER:
		p.advance()
		return &ast.Literal{Value: numericLiteral(t.Lexeme), Position: t.Pos}
	case token.STRING:
		p.advance()
		return &ast.Literal{Value: t.Lexeme, Position: t.Pos}
	case token.NULL:
		p.advance()
		return &ast.Literal{Value: nil, Position: t.Pos}
	case token.TRUE:
		p.advance()
		return &ast.Literal{Value: true, Position: t.Pos}
	case token.FALSE:
		p.advance()
		return &ast.Literal{Value: false, Position: t.Pos}
	case token.VEC2, token.VEC3, token.VEC4, token.MAT3, token.MAT4, token.QUAT:
		p.advance()
		p.expect(token.LPAREN, "expected '(' after vector constructor")
		args := p.parseArgs(token.RPAREN)
		p.expect(token.RPAREN, "expected ')'")
		return &ast.VectorConstructor{Kind: t.Kind, Arguments: args, Position: t.Pos}
	case token.IDENT:
		p.advance()
		return &ast.Variable{Name: t.Lexeme, Position: t.Pos}
	case token.LPAREN:
		p.advance()
		expr := p.parseExpression()
		p.expect(token.RPAREN, "expected ')'")
		return expr
	default:
		p.fail(fmt.Sprintf("unexpected token %s", t.Kind))
		return nil
	}
}

// numericLiteral returns int64 when the lexeme has no dot, else float64.
func numericLiteral(lexeme string) any {
	hasDot := false
	for _, r := range lexeme {
		if r == '.' {
			hasDot = true
			break
		}
	}
	if !hasDot {
		var i int64
		for _, r := range lexeme {
			i = i*10 + int64(r-'0')
		}
		return i
	}
	var f float64
	fmt.Sscanf(lexeme, "%g", &f)
	return f
}
