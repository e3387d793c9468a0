// Package lexer converts rbscript source text into a token stream.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rbscript-lang/rbscript/pkg/token"
)

// Error is a *syntax-error* raised by the lexer: it only fires on a string
// literal that runs past end-of-file. Unknown characters are instead
// emitted as INVALID tokens for the parser to reject.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Syntax error: %s at %s", e.Msg, e.Pos)
}

// Lexer scans a source buffer into tokens.
type Lexer struct {
	file   string
	src    string
	pos    int // byte offset of the rune about to be read
	line   int
	column int
}

// New creates a Lexer over src, attributing positions to file.
func New(file, src string) *Lexer {
	return &Lexer{file: file, src: src, pos: 0, line: 1, column: 1}
}

// Tokenize scans the entire source and returns a token slice terminated by
// an EOF token, whether or not the input ends in a newline. The only
// failure is a string literal that runs past end-of-file, which returns
// an *Error and no tokens.
func Tokenize(file, src string) ([]token.Token, error) {
	l := New(file, src)
	var toks []token.Token
	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) curPos() token.Position {
	return token.Position{File: l.file, Line: l.line, Column: l.column, Offset: l.pos}
}

func (l *Lexer) peekRune() (rune, int) {
	if l.pos >= len(l.src) {
		return 0, 0
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	return r, size
}

func (l *Lexer) advance() rune {
	r, size := l.peekRune()
	if size == 0 {
		return 0
	}
	l.pos += size
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

// Next scans and returns the next token.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespaceAndComments()

	startPos := l.curPos()
	r, size := l.peekRune()
	if size == 0 {
		return token.Token{Kind: token.EOF, Pos: startPos}, nil
	}

	switch {
	case r == '"':
		return l.scanString(startPos)
	case unicode.IsDigit(r):
		return l.scanNumber(startPos), nil
	case isIdentStart(r):
		return l.scanIdent(startPos), nil
	default:
		return l.scanOperator(startPos)
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		r, size := l.peekRune()
		if size == 0 {
			return
		}
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.advance()
		case r == '/' && l.peekAt(1) == '/':
			for {
				r, size := l.peekRune()
				if size == 0 || r == '\n' {
					break
				}
				l.advance()
			}
		case r == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			for {
				r, size := l.peekRune()
				if size == 0 {
					return
				}
				if r == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *Lexer) scanIdent(startPos token.Position) token.Token {
	start := l.pos
	for {
		r, size := l.peekRune()
		if size == 0 || !isIdentPart(r) {
			break
		}
		l.advance()
	}
	lexeme := l.src[start:l.pos]
	if kind, ok := token.Keywords[strings.ToLower(lexeme)]; ok {
		return token.Token{Kind: kind, Lexeme: lexeme, Pos: startPos}
	}
	return token.Token{Kind: token.IDENT, Lexeme: lexeme, Pos: startPos}
}

func (l *Lexer) scanNumber(startPos token.Position) token.Token {
	start := l.pos
	seenDot := false
	for {
		r, size := l.peekRune()
		if size == 0 {
			break
		}
		if unicode.IsDigit(r) {
			l.advance()
			continue
		}
		if r == '.' && !seenDot && unicode.IsDigit(runeAt(l.src, l.pos+1)) {
			seenDot = true
			l.advance()
			continue
		}
		break
	}
	return token.Token{Kind: token.NUMBER, Lexeme: l.src[start:l.pos], Pos: startPos}
}

func runeAt(s string, idx int) rune {
	if idx < 0 || idx >= len(s) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s[idx:])
	return r
}

func (l *Lexer) scanString(startPos token.Position) (token.Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		r, size := l.peekRune()
		if size == 0 {
			return token.Token{}, &Error{Pos: startPos, Msg: "unterminated string literal"}
		}
		if r == '"' {
			l.advance()
			return token.Token{Kind: token.STRING, Lexeme: sb.String(), Pos: startPos}, nil
		}
		if r == '\\' {
			l.advance()
			esc, size := l.peekRune()
			if size == 0 {
				return token.Token{}, &Error{Pos: startPos, Msg: "unterminated string literal"}
			}
			l.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(r)
		l.advance()
	}
}

// two-character operators, checked before their one-character prefixes.
var twoCharOps = map[string]token.Kind{
	"==": token.EQ,
	"<=": token.LTE,
	">=": token.GTE,
	"<>": token.NEQ,
	"!=": token.NEQ,
}

var oneCharOps = map[byte]token.Kind{
	'+': token.PLUS, '-': token.MINUS, '*': token.STAR, '/': token.SLASH,
	'%': token.PERCENT, '^': token.CARET, '=': token.ASSIGN,
	'<': token.LT, '>': token.GT,
	'(': token.LPAREN, ')': token.RPAREN,
	'[': token.LBRACKET, ']': token.RBRACKET,
	'{': token.LBRACE, '}': token.RBRACE,
	',': token.COMMA, ';': token.SEMICOLON, ':': token.COLON, '.': token.DOT,
}

func (l *Lexer) scanOperator(startPos token.Position) (token.Token, error) {
	if l.pos+1 < len(l.src) {
		two := l.src[l.pos : l.pos+2]
		if kind, ok := twoCharOps[two]; ok {
			l.advance()
			l.advance()
			return token.Token{Kind: kind, Lexeme: two, Pos: startPos}, nil
		}
	}
	b := l.src[l.pos]
	if kind, ok := oneCharOps[b]; ok {
		l.advance()
		return token.Token{Kind: kind, Lexeme: string(b), Pos: startPos}, nil
	}
	r := l.advance()
	return token.Token{Kind: token.INVALID, Lexeme: string(r), Pos: startPos}, nil
}
