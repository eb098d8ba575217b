package lexer

import (
	"jscore/pkg/errors"
	"jscore/pkg/source"
)

const (
	maxLookahead = 2
	ntokens      = 4 // power of two, > maxLookahead
	ntokensMask  = ntokens - 1
)

// TokenStream is the parser's view of the scanner: a cursor over tokens
// with up to two tokens of lookahead.
type TokenStream struct {
	lx     *Lexer
	Source *source.SourceFile

	tokens    [ntokens]Token // ring of recent and pushed-back tokens
	cursor    int            // index of the current token
	lookahead int            // number of pushed-back tokens after cursor

	// Operand makes a '/' scan as a regular expression. The parser sets it
	// around GetToken calls made where an operand is expected.
	Operand bool
	// KeywordIsName reports reserved words as NAME tokens, for property
	// names after '.' and in object literals.
	KeywordIsName bool
}

// NewTokenStream creates a stream over the content of src.
func NewTokenStream(src *source.SourceFile) *TokenStream {
	return &TokenStream{lx: NewLexer(src.Content), Source: src}
}

// Current returns the token most recently returned by GetToken.
func (ts *TokenStream) Current() Token { return ts.tokens[ts.cursor] }

// GetToken consumes and returns the type of the next token.
func (ts *TokenStream) GetToken() TokenType {
	next := (ts.cursor + 1) & ntokensMask
	if ts.lookahead > 0 {
		ts.lookahead--
		if ts.Operand && isDivision(ts.tokens[next]) {
			// Scanned as division during lookahead; rescan as an operand.
			// Anything looked at beyond it is rescanned too.
			ts.lookahead = 0
			ts.lx.Reset(ts.tokens[next])
			ts.tokens[next] = ts.lx.NextToken(true)
		}
	} else {
		ts.tokens[next] = ts.lx.NextToken(ts.Operand)
	}
	ts.cursor = next
	tok := &ts.tokens[next]
	if ts.KeywordIsName && tok.IsKeyword() {
		tok.Type = NAME
		tok.Op = OpName
	}
	return tok.Type
}

func isDivision(tok Token) bool {
	return tok.Op == OpDiv && (tok.Type == DIVOP || tok.Type == ASSIGN)
}

// UngetToken pushes the current token back so the next GetToken returns
// it again.
func (ts *TokenStream) UngetToken() {
	if ts.lookahead >= maxLookahead {
		panic("lexer: too many tokens pushed back")
	}
	ts.lookahead++
	ts.cursor = (ts.cursor - 1) & ntokensMask
}

// PeekToken returns the type of the next token without consuming it.
func (ts *TokenStream) PeekToken() TokenType {
	tt := ts.GetToken()
	ts.UngetToken()
	return tt
}

// PeekTokenSameLine is PeekToken, except that it returns EOL when a line
// terminator precedes the next token.
func (ts *TokenStream) PeekTokenSameLine() TokenType {
	tt := ts.PeekToken()
	if ts.tokens[(ts.cursor+1)&ntokensMask].NewlineBefore {
		return EOL
	}
	return tt
}

// PeekTokenValue returns the next token without consuming it.
func (ts *TokenStream) PeekTokenValue() Token {
	ts.PeekToken()
	return ts.tokens[(ts.cursor+1)&ntokensMask]
}

// MatchToken consumes the next token if it has type tt.
func (ts *TokenStream) MatchToken(tt TokenType) bool {
	if ts.GetToken() == tt {
		return true
	}
	ts.UngetToken()
	return false
}

// MustMatch is MatchToken for a token the grammar requires.
func (ts *TokenStream) MustMatch(tt TokenType) bool {
	return ts.GetToken() == tt
}

// Position converts a token's span to a diagnostic position.
func (ts *TokenStream) Position(tok Token) errors.Position {
	return errors.Position{
		Line:      tok.Line,
		Column:    tok.Column,
		EndLine:   tok.EndLine,
		EndColumn: tok.EndColumn,
		StartPos:  tok.StartPos,
		EndPos:    tok.EndPos,
		Source:    ts.Source,
	}
}
