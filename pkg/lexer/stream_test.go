package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jscore/pkg/source"
)

func newStream(src string) *TokenStream {
	return NewTokenStream(source.NewEvalSource(src))
}

func TestStreamLookahead(t *testing.T) {
	ts := newStream("a b c")

	assert.Equal(t, NAME, ts.PeekToken())
	require.Equal(t, NAME, ts.GetToken())
	assert.Equal(t, "a", ts.Current().Value)

	require.Equal(t, NAME, ts.GetToken())
	require.Equal(t, NAME, ts.GetToken())
	assert.Equal(t, "c", ts.Current().Value)

	// Two tokens can be pushed back.
	ts.UngetToken()
	ts.UngetToken()
	assert.Equal(t, "a", ts.Current().Value)
	require.Equal(t, NAME, ts.GetToken())
	assert.Equal(t, "b", ts.Current().Value)
	require.Equal(t, NAME, ts.GetToken())
	assert.Equal(t, "c", ts.Current().Value)
	assert.Equal(t, EOF, ts.GetToken())
}

func TestStreamTooManyPushbacksPanics(t *testing.T) {
	ts := newStream("a b c")
	ts.GetToken()
	ts.GetToken()
	ts.GetToken()
	ts.UngetToken()
	ts.UngetToken()
	assert.Panics(t, func() { ts.UngetToken() })
}

func TestMatchToken(t *testing.T) {
	ts := newStream("( x")

	assert.False(t, ts.MatchToken(RP))
	assert.True(t, ts.MatchToken(LP))
	assert.True(t, ts.MatchToken(NAME))
	assert.True(t, ts.MatchToken(EOF))
}

func TestPeekTokenSameLine(t *testing.T) {
	ts := newStream("return\nx; y")

	require.Equal(t, RETURN, ts.GetToken())
	assert.Equal(t, EOL, ts.PeekTokenSameLine())
	assert.Equal(t, NAME, ts.PeekToken())
	ts.GetToken()
	assert.Equal(t, SEMI, ts.PeekTokenSameLine())
}

func TestKeywordIsName(t *testing.T) {
	ts := newStream("o.default")

	ts.GetToken()
	ts.GetToken()
	ts.KeywordIsName = true
	require.Equal(t, NAME, ts.GetToken())
	ts.KeywordIsName = false
	assert.Equal(t, "default", ts.Current().Value)
}

func TestStreamPosition(t *testing.T) {
	src := source.NewSourceFile("x.js", "x.js", "a +\n  bee")
	ts := NewTokenStream(src)
	ts.GetToken()
	ts.GetToken()
	ts.GetToken()

	pos := ts.Position(ts.Current())
	assert.Equal(t, 2, pos.Line)
	assert.Equal(t, 3, pos.Column)
	assert.Equal(t, 6, pos.EndColumn)
	assert.Equal(t, "x.js:2:3", pos.String())
}
