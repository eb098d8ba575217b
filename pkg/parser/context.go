package parser

import (
	"jscore/pkg/ast"
	"jscore/pkg/errors"
	"jscore/pkg/lexer"
)

// stmtType classifies the statements open around the parse position.
// The order matters: see maybeScope, linksScope and isLoop.
type stmtType uint8

const (
	stmtLabel stmtType = iota
	stmtIf
	stmtElse
	stmtSeq
	stmtBlock
	stmtSwitch
	stmtWith
	stmtCatch
	stmtTry
	stmtFinally
	stmtSubroutine
	stmtDoLoop
	stmtForLoop
	stmtForInLoop
	stmtWhileLoop
)

// maybeScope reports whether a let declaration may turn the statement into
// a lexical scope.
func (t stmtType) maybeScope() bool {
	return t != stmtWith && t >= stmtBlock && t <= stmtSubroutine
}

func (t stmtType) isLoop() bool { return t >= stmtDoLoop }

type stmtFlags uint8

const (
	sifScope     stmtFlags = 1 << iota // statement has let bindings
	sifBodyBlock                       // function body block
	sifForBlock                        // implicit block of for (let ...)
)

type stmtInfo struct {
	typ   stmtType
	flags stmtFlags
	label string

	lets map[string]bool // names bound by let, when sifScope is set

	down      *stmtInfo // enclosing statement
	downScope *stmtInfo // enclosing scope statement
}

func (s *stmtInfo) linksScope() bool {
	return (s.typ >= stmtWith && s.typ <= stmtCatch) || s.flags&sifScope != 0
}

type localKind uint8

const (
	localNone localKind = iota
	localArg
	localVar
	localConst
)

// treeContext tracks the function (or script) being parsed.
type treeContext struct {
	flags ast.TreeFlags

	topStmt      *stmtInfo
	topScopeStmt *stmtInfo

	// blockNode is the list that statements are being appended to. A let
	// declaration directly inside it wraps it in a LEXICALSCOPE node.
	blockNode *ast.Node

	decls  map[string]lexer.Op // DefVar, DefConst or DefFun
	locals map[string]localKind
	nargs  int

	funName string
	parent  *treeContext
}

func newTreeContext(parent *treeContext, funName string) *treeContext {
	return &treeContext{
		decls:   make(map[string]lexer.Op),
		locals:  make(map[string]localKind),
		funName: funName,
		parent:  parent,
	}
}

func (tc *treeContext) inFunction() bool { return tc.flags&ast.InFunction != 0 }

// atTopLevel reports whether no statement other than the function body is
// open.
func (tc *treeContext) atTopLevel() bool {
	return tc.topStmt == nil || tc.topStmt.flags&sifBodyBlock != 0
}

func (tc *treeContext) pushStatement(stmt *stmtInfo, typ stmtType) {
	stmt.typ = typ
	stmt.down = tc.topStmt
	tc.topStmt = stmt
	if stmt.linksScope() {
		stmt.downScope = tc.topScopeStmt
		tc.topScopeStmt = stmt
	} else {
		stmt.downScope = nil
	}
}

// pushBlockScope opens a statement that is a lexical scope from the start.
func (tc *treeContext) pushBlockScope(stmt *stmtInfo) {
	stmt.flags |= sifScope
	stmt.lets = make(map[string]bool)
	tc.pushStatement(stmt, stmtBlock)
}

func (tc *treeContext) popStatement() {
	stmt := tc.topStmt
	tc.topStmt = stmt.down
	if stmt.linksScope() {
		tc.topScopeStmt = stmt.downScope
	}
}

// blockScope returns the innermost statement holding let bindings.
func (tc *treeContext) blockScope() *stmtInfo {
	for s := tc.topScopeStmt; s != nil; s = s.downScope {
		if s.flags&sifScope != 0 {
			return s
		}
	}
	return nil
}

// lexicalLookup reports whether name is let-bound in an enclosing scope,
// not looking past a with statement.
func (tc *treeContext) lexicalLookup(name string) bool {
	for s := tc.topScopeStmt; s != nil; s = s.downScope {
		if s.typ == stmtWith {
			return false
		}
		if s.flags&sifScope != 0 && s.lets[name] {
			return true
		}
	}
	return false
}

// pushLexicalScope opens a scope statement and returns its LEXICALSCOPE
// node; the caller fills in the node's expression.
func (p *Parser) pushLexicalScope(stmt *stmtInfo) *ast.Node {
	pn := p.arena.New(lexer.LEXICALSCOPE, lexer.OpLeaveBlock, ast.Name, p.tokSpan())
	p.tc.pushBlockScope(stmt)
	return pn
}

// --- Binders ---

// bindData pairs a binder with the declaration it serves.
type bindData struct {
	pn     *ast.Node // error position, when known
	op     lexer.Op  // DefVar, DefConst, or Nop for let
	binder func(p *Parser, data *bindData, name string) bool
}

func declKindName(op lexer.Op) string {
	switch op {
	case lexer.OpDefFun:
		return "function"
	case lexer.OpDefConst:
		return "const"
	}
	return "var"
}

func bindLet(p *Parser, data *bindData, name string) bool {
	tc := p.tc
	scope := tc.blockScope()
	if scope == nil {
		p.fail(data.pn, errors.ErrSyntax)
		return false
	}
	prev, declared := tc.decls[name]
	if scope.lets[name] || (declared && prev == lexer.OpDefConst) {
		kind := "variable"
		if declared && prev == lexer.OpDefConst {
			kind = "const"
		}
		p.fail(data.pn, errors.ErrRedeclaredVar, kind, name)
		return false
	}
	scope.lets[name] = true
	return true
}

func bindVarOrConst(p *Parser, data *bindData, name string) bool {
	tc := p.tc
	op := data.op
	prevop, declared := tc.decls[name]
	if declared || tc.lexicalLookup(name) {
		if !declared {
			prevop = lexer.OpDefVar
		}
		conflict := op == lexer.OpDefConst || prevop == lexer.OpDefConst
		if p.opts.Strict {
			conflict = op != lexer.OpDefVar || prevop != lexer.OpDefVar
		}
		if conflict {
			if op != lexer.OpDefConst && prevop != lexer.OpDefConst {
				p.warn(data.pn, errors.ErrRedeclaredVar, declKindName(prevop), name)
			} else {
				p.fail(data.pn, errors.ErrRedeclaredVar, declKindName(prevop), name)
				return false
			}
		}
	}
	tc.decls[name] = op

	if !tc.inFunction() {
		return true
	}
	switch tc.locals[name] {
	case localNone:
		if name != "arguments" {
			if op == lexer.OpDefConst {
				tc.locals[name] = localConst
			} else {
				tc.locals[name] = localVar
			}
		}
	case localArg:
		if op == lexer.OpDefConst {
			p.fail(data.pn, errors.ErrRedeclaredParam, name)
			return false
		}
		p.warn(data.pn, errors.ErrVarHidesArg, name)
	}
	return true
}

func (p *Parser) bindArg(name string) {
	tc := p.tc
	if tc.locals[name] != localNone {
		p.warn(nil, errors.ErrDuplicateFormal, name)
	}
	tc.locals[name] = localArg
	tc.nargs++
}

func bindDestructuringArg(p *Parser, data *bindData, name string) bool {
	tc := p.tc
	if _, ok := tc.decls[name]; !ok {
		tc.decls[name] = data.op
	}
	if tc.locals[name] != localNone {
		p.warn(data.pn, errors.ErrDuplicateFormal, name)
	} else if name != "arguments" {
		tc.locals[name] = localVar
	}
	return true
}

// bindDestructuringVar binds a name found in a declaration pattern.
func (p *Parser) bindDestructuringVar(data *bindData, pn *ast.Node) bool {
	data.pn = pn
	if !data.binder(p, data, pn.Atom()) {
		return false
	}
	data.pn = nil
	if data.op == lexer.OpDefConst {
		pn.Op = lexer.OpSetConst
		pn.SetConst(true)
	} else {
		pn.Op = lexer.OpSetName
		pn.SetConst(false)
	}
	return true
}

// bindDestructuringLHS checks a target of a destructuring assignment.
func (p *Parser) bindDestructuringLHS(pn *ast.Node) bool {
	for pn.Type == lexer.RP {
		pn = pn.Kid()
	}
	switch pn.Type {
	case lexer.NAME:
		pn.Op = lexer.OpSetName
	case lexer.DOT:
		pn.Op = lexer.OpSetProp
	case lexer.LB:
		pn.Op = lexer.OpSetElem
	case lexer.LP:
		return p.makeSetCall(pn, errors.ErrBadLeftsideOfAss)
	default:
		p.fail(pn, errors.ErrBadLeftsideOfAss)
		return false
	}
	return true
}

// makeSetCall marks a call used as an assignment target. A generator
// expression can never be one.
func (p *Parser) makeSetCall(pn *ast.Node, num errors.ErrorNumber) bool {
	head := pn.Head()
	if head.Type == lexer.FUNCTION && head.Flags()&ast.GenexpLambda != 0 {
		p.fail(pn, num)
		return false
	}
	pn.Op = lexer.OpSetCall
	return true
}
