package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jscore/pkg/errors"
	"jscore/pkg/source"
)

func TestRegexLiterals(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		pattern string
		flags   string
	}{
		{"Simple regex", "/hello/", "hello", ""},
		{"Regex with flags", "/world/gi", "world", "gi"},
		{"Class containing slash", "/[/]+/m", "[/]+", "m"},
		{"Escaped slash", `/a\/b/`, `a\/b`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewLexer(tt.input).NextToken(true)
			require.Equal(t, OBJECT, tok.Type)
			assert.Equal(t, OpRegExp, tok.Op)
			assert.Equal(t, tt.pattern, tok.Value)
			assert.Equal(t, tt.flags, tok.Flags)
			assert.Equal(t, tt.input, tok.Literal)
		})
	}
}

func TestRegexErrors(t *testing.T) {
	tok := NewLexer("/abc\n/").NextToken(true)
	assert.Equal(t, ERROR, tok.Type)
	assert.Equal(t, errors.ErrUnterminatedRegExp, tok.Err)

	tok = NewLexer("/abc/q").NextToken(true)
	assert.Equal(t, ERROR, tok.Type)
	assert.Equal(t, errors.ErrBadRegExpFlag, tok.Err)
}

func TestDivisionIsNotRegex(t *testing.T) {
	l := NewLexer("5 / 2 /= 1")
	assert.Equal(t, NUMBER, l.NextToken(false).Type)
	tok := l.NextToken(false)
	assert.Equal(t, DIVOP, tok.Type)
	assert.Equal(t, OpDiv, tok.Op)
	assert.Equal(t, NUMBER, l.NextToken(false).Type)
	tok = l.NextToken(false)
	assert.Equal(t, ASSIGN, tok.Type)
	assert.Equal(t, OpDiv, tok.Op)
}

func TestStreamRescansLookaheadAsOperand(t *testing.T) {
	ts := NewTokenStream(source.NewEvalSource("/x/g"))

	// Peeked in operator position, the slash is a division...
	assert.Equal(t, DIVOP, ts.PeekToken())

	// ...but fetched as an operand it becomes a regexp.
	ts.Operand = true
	require.Equal(t, OBJECT, ts.GetToken())
	ts.Operand = false
	assert.Equal(t, "x", ts.Current().Value)
	assert.Equal(t, "g", ts.Current().Flags)
	assert.Equal(t, EOF, ts.GetToken())
}
