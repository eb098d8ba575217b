package parser

import (
	"fmt"

	"jscore/pkg/ast"
	"jscore/pkg/errors"
	"jscore/pkg/lexer"
	"jscore/pkg/source"
)

// --- Debug Flag ---
const debugParser = false

func debugPrint(format string, args ...interface{}) {
	if debugParser {
		fmt.Printf("[Parser Debug] "+format+"\n", args...)
	}
}

// --- End Debug Flag ---

// Version selects version-gated grammar.
type Version int

const (
	Version17 Version = 170
	Version18 Version = 180
)

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", int(v)/100, int(v)%100/10)
}

// Options control a single parse.
type Options struct {
	Version Version
	// Strict turns on the advisory warnings.
	Strict bool
	// RequireLiteralKeyPaths rejects destructuring declarations whose
	// literal initializer lacks a property or element for a bound name.
	RequireLiteralKeyPaths bool

	// Object-pattern lookups against a literal right-hand side switch from
	// a linear scan to a hash table once a scan took StepHashThreshold
	// steps, the pattern binds at least BigDestructuring names and the
	// literal has at least BigObjectInit properties.
	StepHashThreshold int
	BigDestructuring  int
	BigObjectInit     int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Version:                Version18,
		RequireLiteralKeyPaths: true,
		StepHashThreshold:      10,
		BigDestructuring:       5,
		BigObjectInit:          20,
	}
}

// Parser turns a token stream into a parse tree. A Parser is used for one
// compilation unit; it stops at the first syntax error.
type Parser struct {
	ts     *lexer.TokenStream
	source *source.SourceFile
	arena  *ast.Arena
	opts   Options

	tc *treeContext

	err         *errors.SyntaxError
	diagnostics []errors.Diagnostic

	hashTables int // destructuring lookup tables built so far
}

// NewParser creates a parser over src.
func NewParser(src *source.SourceFile, opts Options) *Parser {
	return &Parser{
		ts:     lexer.NewTokenStream(src),
		source: src,
		arena:  ast.NewArena(),
		opts:   opts,
		tc:     newTreeContext(nil, ""),
	}
}

// Arena returns the arena that owns the parser's nodes. The folder
// recycles into the same arena.
func (p *Parser) Arena() *ast.Arena { return p.arena }

// Metrics returns the node counters of this compilation.
func (p *Parser) Metrics() ast.Metrics { return p.arena.Metrics() }

// HashTablesBuilt reports how many destructuring lookups escalated to a
// hash table.
func (p *Parser) HashTablesBuilt() int { return p.hashTables }

// Diagnostics returns the warnings and, if parsing failed, the error.
func (p *Parser) Diagnostics() []errors.Diagnostic { return p.diagnostics }

// ParseProgram parses a whole script. The result is an LC list, or nil if
// a syntax error was reported.
func (p *Parser) ParseProgram() (*ast.Node, []errors.Diagnostic) {
	debugPrint("ParseProgram: %s", p.source.DisplayPath())
	pn := p.statements()
	if pn != nil && !p.ts.MatchToken(lexer.EOF) {
		p.fail(nil, errors.ErrSyntax)
		pn = nil
	}
	if p.err != nil {
		return nil, p.diagnostics
	}
	return pn, p.diagnostics
}

// --- Error Handling ---

// fail records a syntax error at pn, or at the current token when pn is
// nil, and returns nil so callers can propagate failure directly. Only the
// first error is kept.
func (p *Parser) fail(pn *ast.Node, num errors.ErrorNumber, args ...interface{}) *ast.Node {
	if p.err != nil {
		return nil
	}
	var pos errors.Position
	cur := p.ts.Current()
	if cur.Type == lexer.ERROR {
		// A scanner error explains whatever the grammar tripped over.
		num, args = cur.Err, nil
		pos = p.ts.Position(cur)
	} else if pn != nil {
		pos = p.nodePosition(pn)
	} else {
		pos = p.ts.Position(cur)
	}
	debugPrint("error %s at %d:%d", num, pos.Line, pos.Column)
	p.err = errors.NewSyntaxError(pos, num, args...)
	p.diagnostics = append(p.diagnostics, p.err)
	return nil
}

// warn reports a strict advisory. It is a no-op unless Options.Strict.
func (p *Parser) warn(pn *ast.Node, num errors.ErrorNumber, args ...interface{}) {
	if !p.opts.Strict {
		return
	}
	pos := p.ts.Position(p.ts.Current())
	if pn != nil {
		pos = p.nodePosition(pn)
	}
	p.diagnostics = append(p.diagnostics, errors.NewWarning(pos, num, args...))
}

func (p *Parser) nodePosition(pn *ast.Node) errors.Position {
	return errors.Position{
		Line:      pn.Pos.Begin.Line,
		Column:    pn.Pos.Begin.Column,
		EndLine:   pn.Pos.End.Line,
		EndColumn: pn.Pos.End.Column,
		StartPos:  pn.Pos.Begin.Offset,
		EndPos:    pn.Pos.End.Offset,
		Source:    p.source,
	}
}

// mustMatch consumes a required token, reporting num when it is missing.
func (p *Parser) mustMatch(tt lexer.TokenType, num errors.ErrorNumber) bool {
	if p.ts.MustMatch(tt) {
		return true
	}
	p.fail(nil, num)
	return false
}

// getOperand reads a token in operand position, where '/' starts a
// regular expression.
func (p *Parser) getOperand() lexer.TokenType {
	p.ts.Operand = true
	tt := p.ts.GetToken()
	p.ts.Operand = false
	return tt
}

func (p *Parser) peekOperand() lexer.TokenType {
	p.ts.Operand = true
	tt := p.ts.PeekToken()
	p.ts.Operand = false
	return tt
}

func (p *Parser) peekOperandSameLine() lexer.TokenType {
	p.ts.Operand = true
	tt := p.ts.PeekTokenSameLine()
	p.ts.Operand = false
	return tt
}

func (p *Parser) matchOperand(tt lexer.TokenType) bool {
	p.ts.Operand = true
	ok := p.ts.MatchToken(tt)
	p.ts.Operand = false
	return ok
}

// getName reads a token with reserved words reported as names.
func (p *Parser) getName() lexer.TokenType {
	p.ts.KeywordIsName = true
	tt := p.ts.GetToken()
	p.ts.KeywordIsName = false
	return tt
}

func (p *Parser) tokSpan() ast.Span { return ast.SpanOf(p.ts.Current()) }

func (p *Parser) tokEnd() ast.Pos { return ast.SpanOf(p.ts.Current()).End }

// onCurrentLine reports whether pn ends on the line of the current token.
func (p *Parser) onCurrentLine(pn *ast.Node) bool {
	return pn.Pos.End.Line == p.ts.Current().EndLine
}
