package lexer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jscore/pkg/errors"
)

func TestNextToken(t *testing.T) {
	input := `var five = 5;
const ten = 10.5;

function add(x, y) {
  return x + y;
}

let result = add(five, ten);
!~-5 % 2;
5 < 10 >= 5;

if (5 << 10) {
	return true;
} else {
	return null;
}

10 === 10;
10 != 9;
"foobar"
'foo bar'
// This is a comment
yield this;`

	tests := []struct {
		expectedType    TokenType
		expectedOp      Op
		expectedLiteral string
		expectedLine    int
	}{
		{VAR, OpDefVar, "var", 1},
		{NAME, OpName, "five", 1},
		{ASSIGN, OpNop, "=", 1},
		{NUMBER, OpNumber, "5", 1},
		{SEMI, OpNop, ";", 1},
		{VAR, OpDefConst, "const", 2},
		{NAME, OpName, "ten", 2},
		{ASSIGN, OpNop, "=", 2},
		{NUMBER, OpNumber, "10.5", 2},
		{SEMI, OpNop, ";", 2},
		{FUNCTION, OpNop, "function", 4},
		{NAME, OpName, "add", 4},
		{LP, OpNop, "(", 4},
		{NAME, OpName, "x", 4},
		{COMMA, OpNop, ",", 4},
		{NAME, OpName, "y", 4},
		{RP, OpNop, ")", 4},
		{LC, OpNop, "{", 4},
		{RETURN, OpNop, "return", 5},
		{NAME, OpName, "x", 5},
		{PLUS, OpAdd, "+", 5},
		{NAME, OpName, "y", 5},
		{SEMI, OpNop, ";", 5},
		{RC, OpNop, "}", 6},
		{LET, OpNop, "let", 8},
		{NAME, OpName, "result", 8},
		{ASSIGN, OpNop, "=", 8},
		{NAME, OpName, "add", 8},
		{LP, OpNop, "(", 8},
		{NAME, OpName, "five", 8},
		{COMMA, OpNop, ",", 8},
		{NAME, OpName, "ten", 8},
		{RP, OpNop, ")", 8},
		{SEMI, OpNop, ";", 8},
		{UNARYOP, OpNot, "!", 9},
		{UNARYOP, OpBitNot, "~", 9},
		{MINUS, OpSub, "-", 9},
		{NUMBER, OpNumber, "5", 9},
		{DIVOP, OpMod, "%", 9},
		{NUMBER, OpNumber, "2", 9},
		{SEMI, OpNop, ";", 9},
		{NUMBER, OpNumber, "5", 10},
		{RELOP, OpLt, "<", 10},
		{NUMBER, OpNumber, "10", 10},
		{RELOP, OpGe, ">=", 10},
		{NUMBER, OpNumber, "5", 10},
		{SEMI, OpNop, ";", 10},
		{IF, OpNop, "if", 12},
		{LP, OpNop, "(", 12},
		{NUMBER, OpNumber, "5", 12},
		{SHOP, OpLsh, "<<", 12},
		{NUMBER, OpNumber, "10", 12},
		{RP, OpNop, ")", 12},
		{LC, OpNop, "{", 12},
		{RETURN, OpNop, "return", 13},
		{PRIMARY, OpTrue, "true", 13},
		{SEMI, OpNop, ";", 13},
		{RC, OpNop, "}", 14},
		{ELSE, OpNop, "else", 14},
		{LC, OpNop, "{", 14},
		{RETURN, OpNop, "return", 15},
		{PRIMARY, OpNull, "null", 15},
		{SEMI, OpNop, ";", 15},
		{RC, OpNop, "}", 16},
		{NUMBER, OpNumber, "10", 18},
		{EQOP, OpStrictEq, "===", 18},
		{NUMBER, OpNumber, "10", 18},
		{SEMI, OpNop, ";", 18},
		{NUMBER, OpNumber, "10", 19},
		{EQOP, OpNe, "!=", 19},
		{NUMBER, OpNumber, "9", 19},
		{SEMI, OpNop, ";", 19},
		{STRING, OpString, `"foobar"`, 20},
		{STRING, OpString, `'foo bar'`, 21},
		// Comment on line 22 is skipped
		{YIELD, OpNop, "yield", 23},
		{PRIMARY, OpThis, "this", 23},
		{SEMI, OpNop, ";", 23},
		{EOF, OpNop, "", 23},
	}

	l := NewLexer(input)

	for i, tt := range tests {
		tok := l.NextToken(false)

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal: %q, line: %d)",
				i, tt.expectedType, tok.Type, tok.Literal, tok.Line)
		}
		if tok.Op != tt.expectedOp {
			t.Fatalf("tests[%d] - op wrong. expected=%s, got=%s (literal: %q)",
				i, tt.expectedOp, tok.Op, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q (type: %q, line: %d)",
				i, tt.expectedLiteral, tok.Literal, tok.Type, tok.Line)
		}
		if tok.Line != tt.expectedLine {
			t.Fatalf("tests[%d] - line wrong. expected=%d, got=%d (literal: %q)",
				i, tt.expectedLine, tok.Line, tok.Literal)
		}
	}
}

func TestCompoundOperators(t *testing.T) {
	input := `* *= > >= >> >>= >>> >>>= & &= | |= || && ^ ^= ? : <= << <<= ++ -- += -= /= %=`

	tests := []struct {
		expectedType TokenType
		expectedOp   Op
	}{
		{STAR, OpMul},
		{ASSIGN, OpMul},
		{RELOP, OpGt},
		{RELOP, OpGe},
		{SHOP, OpRsh},
		{ASSIGN, OpRsh},
		{SHOP, OpUrsh},
		{ASSIGN, OpUrsh},
		{BITAND, OpBitAnd},
		{ASSIGN, OpBitAnd},
		{BITOR, OpBitOr},
		{ASSIGN, OpBitOr},
		{OR, OpOr},
		{AND, OpAnd},
		{BITXOR, OpBitXor},
		{ASSIGN, OpBitXor},
		{HOOK, OpNop},
		{COLON, OpNop},
		{RELOP, OpLe},
		{SHOP, OpLsh},
		{ASSIGN, OpLsh},
		{INC, OpNop},
		{DEC, OpNop},
		{ASSIGN, OpAdd},
		{ASSIGN, OpSub},
		{ASSIGN, OpDiv},
		{ASSIGN, OpMod},
		{EOF, OpNop},
	}

	l := NewLexer(input)
	for i, tt := range tests {
		tok := l.NextToken(false)
		assert.Equal(t, tt.expectedType, tok.Type, "tests[%d] literal %q", i, tok.Literal)
		assert.Equal(t, tt.expectedOp, tok.Op, "tests[%d] literal %q", i, tok.Literal)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"0", 0},
		{"42", 42},
		{"3.25", 3.25},
		{".5", 0.5},
		{"1e3", 1000},
		{"2.5E-1", 0.25},
		{"0x1F", 31},
		{"0XfF", 255},
		{"017", 15},
		{"019", 19},
		{"1e400", math.Inf(1)},
	}

	for _, tt := range tests {
		tok := NewLexer(tt.input).NextToken(false)
		require.Equal(t, NUMBER, tok.Type, "input %q", tt.input)
		assert.Equal(t, tt.expected, tok.Number, "input %q", tt.input)
	}
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"a\nb"`, "a\nb"},
		{`'it\'s'`, "it's"},
		{`"\x41B"`, "AB"},
		{`"\uD83D\uDE00"`, "\U0001F600"},
		{`"\u0041"`, "A"},
		{`"\0"`, "\x00"},
		{`"\101"`, "A"},
		{"\"line\\\ncontinued\"", "linecontinued"},
		{`"\q"`, "q"},
		{`"héllo"`, "héllo"},
	}

	for _, tt := range tests {
		tok := NewLexer(tt.input).NextToken(false)
		require.Equal(t, STRING, tok.Type, "input %q", tt.input)
		assert.Equal(t, tt.expected, tok.Value, "input %q", tt.input)
	}
}

func TestScannerErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected errors.ErrorNumber
	}{
		{`"abc`, errors.ErrUnterminatedString},
		{"'abc\ndef'", errors.ErrUnterminatedString},
		{"/* never closed", errors.ErrUnterminatedComment},
		{"0x", errors.ErrMissingHexDigits},
		{"1e+", errors.ErrMissingExponent},
		{"3in", errors.ErrIdentifierAfterNumber},
		{"#", errors.ErrIllegalCharacter},
	}

	for _, tt := range tests {
		tok := NewLexer(tt.input).NextToken(false)
		require.Equal(t, ERROR, tok.Type, "input %q", tt.input)
		assert.Equal(t, tt.expected, tok.Err, "input %q", tt.input)
	}
}

func TestNewlineBefore(t *testing.T) {
	l := NewLexer("a\nb /* x\ny */ c /* z */ d")

	a := l.NextToken(false)
	b := l.NextToken(false)
	c := l.NextToken(false)
	d := l.NextToken(false)

	assert.False(t, a.NewlineBefore)
	assert.True(t, b.NewlineBefore)
	assert.True(t, c.NewlineBefore, "a block comment spanning lines counts as a line break")
	assert.False(t, d.NewlineBefore)
	assert.Equal(t, 3, c.Line)
}

func TestUnicodeColumns(t *testing.T) {
	l := NewLexer("é = ñandú")

	first := l.NextToken(false)
	assign := l.NextToken(false)
	second := l.NextToken(false)

	assert.Equal(t, NAME, first.Type)
	assert.Equal(t, "é", first.Value)
	assert.Equal(t, 3, assign.Column)
	assert.Equal(t, "ñandú", second.Value)
	assert.Equal(t, 5, second.Column)
	assert.Equal(t, 10, second.EndColumn)
}
