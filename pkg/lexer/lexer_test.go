package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbscript-lang/rbscript/pkg/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeEndsInEOF(t *testing.T) {
	toks, err := Tokenize("t.rb", "var x = 1;\n")
	require.NoError(t, err)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.EOF, toks[len(toks)-1].Kind)
}

func TestTokenizeKeywordsCaseInsensitive(t *testing.T) {
	toks, err := Tokenize("t.rb", "VAR If WHILE\n")
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{token.VAR, token.IF, token.WHILE, token.EOF}, kinds(toks))
}

func TestTokenizeIdentPreservesCasing(t *testing.T) {
	toks, err := Tokenize("t.rb", "MyVar\n")
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, token.IDENT, toks[0].Kind)
	assert.Equal(t, "MyVar", toks[0].Lexeme)
}

func TestTokenizeNumbers(t *testing.T) {
	toks, err := Tokenize("t.rb", "42 3.14\n")
	require.NoError(t, err)
	assert.Equal(t, token.NUMBER, toks[0].Kind)
	assert.Equal(t, "42", toks[0].Lexeme)
	assert.Equal(t, token.NUMBER, toks[1].Kind)
	assert.Equal(t, "3.14", toks[1].Lexeme)
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := Tokenize("t.rb", `"a\nb\tc\\d\"e"` + "\n")
	require.NoError(t, err)
	require.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, "a\nb\tc\\d\"e", toks[0].Lexeme)
}

func TestTokenizeUnterminatedStringIsError(t *testing.T) {
	_, err := Tokenize("t.rb", `"unterminated`)
	require.Error(t, err)
}

func TestTokenizeMultiCharOperators(t *testing.T) {
	toks, err := Tokenize("t.rb", "== <= >= <> !=\n")
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{token.EQ, token.LTE, token.GTE, token.NEQ, token.NEQ, token.EOF}, kinds(toks))
}

func TestTokenizeComments(t *testing.T) {
	toks, err := Tokenize("t.rb", "var x = 1; // trailing comment\n/* block\ncomment */ var y = 2;\n")
	require.NoError(t, err)
	// Comments contribute no tokens; two full var statements remain.
	var varCount int
	for _, tk := range toks {
		if tk.Kind == token.VAR {
			varCount++
		}
	}
	assert.Equal(t, 2, varCount)
}

func TestTokenizePositionsAreMonotone(t *testing.T) {
	toks, err := Tokenize("t.rb", "var x = 1;\nvar y = 2;\n")
	require.NoError(t, err)
	for i := 1; i < len(toks); i++ {
		prev, cur := toks[i-1].Pos, toks[i].Pos
		if cur.Line == prev.Line {
			assert.GreaterOrEqual(t, cur.Column, prev.Column)
		} else {
			assert.Greater(t, cur.Line, prev.Line)
		}
	}
}

func TestTokenizeInvalidCharacterEmitsInvalidToken(t *testing.T) {
	toks, err := Tokenize("t.rb", "@\n")
	require.NoError(t, err)
	assert.Equal(t, token.INVALID, toks[0].Kind)
}
