package parser

import (
	"jscore/pkg/ast"
	"jscore/pkg/errors"
	"jscore/pkg/lexer"
)

// statements parses statements up to a closing brace or the end of input
// into an LC list. The caller matches the braces. When a let declaration
// turned the block into a scope, the LEXICALSCOPE wrapping the list is
// returned instead.
func (p *Parser) statements() *ast.Node {
	pn := p.arena.NewList(lexer.LC, lexer.OpNop, p.tokSpan())
	saveBlock := p.tc.blockNode
	p.tc.blockNode = pn

	for {
		tt := p.peekOperand()
		if tt == lexer.ERROR {
			return p.scanError()
		}
		if tt == lexer.EOF || tt == lexer.RC {
			break
		}
		pn2 := p.statement()
		if pn2 == nil {
			return nil
		}
		if pn2.Type == lexer.FUNCTION {
			if p.tc.atTopLevel() {
				pn.AddExtra(ast.FuncDefs)
			} else {
				p.tc.flags |= ast.HasFunctionStmt
			}
		}
		pn.Append(pn2)
	}

	block := p.tc.blockNode
	p.tc.blockNode = saveBlock
	block.Pos.End = p.tokEnd()
	return block
}

// scanError consumes a peeked ERROR token so that its message is the one
// reported.
func (p *Parser) scanError() *ast.Node {
	p.ts.GetToken()
	return p.fail(nil, errors.ErrSyntax)
}

// bindsTighterThanEq reports whether a node of type tt is an operand that
// binds more tightly than ==.
func bindsTighterThanEq(tt lexer.TokenType) bool {
	switch tt {
	case lexer.SEMI, lexer.COMMA, lexer.ASSIGN, lexer.HOOK, lexer.COLON,
		lexer.OR, lexer.AND, lexer.BITOR, lexer.BITXOR, lexer.BITAND, lexer.EQOP:
		return false
	}
	return true
}

// condition parses a parenthesized if or loop condition.
func (p *Parser) condition() *ast.Node {
	if !p.mustMatch(lexer.LP, errors.ErrParenBeforeCond) {
		return nil
	}
	pn := p.parenExpr(nil)
	if pn == nil {
		return nil
	}
	if !p.mustMatch(lexer.RP, errors.ErrParenAfterCond) {
		return nil
	}
	if pn.Type == lexer.ASSIGN && pn.Op == lexer.OpNop && bindsTighterThanEq(pn.Right().Type) {
		p.warn(pn, errors.ErrEqualAsAssign, "")
	}
	return pn
}

// matchLabel reads the optional label of break or continue into pn.
func (p *Parser) matchLabel(pn *ast.Node) bool {
	switch p.ts.PeekTokenSameLine() {
	case lexer.ERROR:
		p.scanError()
		return false
	case lexer.NAME:
		p.ts.GetToken()
		pn.SetAtom(p.ts.Current().Value)
	}
	return true
}

func (p *Parser) statement() *ast.Node {
	var pn *ast.Node

	tt := p.getOperand()
	switch tt {
	case lexer.FUNCTION:
		return p.functionDef(false, ast.FunDeclaration)

	case lexer.IF:
		return p.ifStatement()

	case lexer.SWITCH:
		return p.switchStatement()

	case lexer.WHILE:
		span := p.tokSpan()
		var stmt stmtInfo
		p.tc.pushStatement(&stmt, stmtWhileLoop)
		cond := p.condition()
		if cond == nil {
			return nil
		}
		body := p.statement()
		if body == nil {
			return nil
		}
		p.tc.popStatement()
		pn = p.arena.NewBinaryNode(lexer.WHILE, lexer.OpNop, cond, body)
		pn.Pos.Begin = span.Begin
		return pn

	case lexer.DO:
		span := p.tokSpan()
		var stmt stmtInfo
		p.tc.pushStatement(&stmt, stmtDoLoop)
		body := p.statement()
		if body == nil {
			return nil
		}
		if !p.mustMatch(lexer.WHILE, errors.ErrWhileAfterDo) {
			return nil
		}
		cond := p.condition()
		if cond == nil {
			return nil
		}
		p.tc.popStatement()
		pn = p.arena.NewBinaryNode(lexer.DO, lexer.OpNop, body, cond)
		pn.Pos.Begin = span.Begin
		// do-while always gets a semicolon inserted.
		p.ts.MatchToken(lexer.SEMI)
		return pn

	case lexer.FOR:
		return p.forStatement()

	case lexer.TRY:
		return p.tryStatement()

	case lexer.THROW:
		span := p.tokSpan()
		switch p.peekOperandSameLine() {
		case lexer.ERROR:
			return p.scanError()
		case lexer.EOF, lexer.EOL, lexer.SEMI, lexer.RC:
			return p.fail(nil, errors.ErrSyntax)
		}
		kid := p.expr()
		if kid == nil {
			return nil
		}
		pn = p.arena.NewUnary(lexer.THROW, lexer.OpNop, span, kid)

	case lexer.CATCH:
		return p.fail(nil, errors.ErrCatchWithoutTry)

	case lexer.FINALLY:
		return p.fail(nil, errors.ErrFinallyWithoutTry)

	case lexer.BREAK:
		pn = p.breakStatement()
		if pn == nil {
			return nil
		}

	case lexer.CONTINUE:
		pn = p.continueStatement()
		if pn == nil {
			return nil
		}

	case lexer.WITH:
		span := p.tokSpan()
		if !p.mustMatch(lexer.LP, errors.ErrParenBeforeWith) {
			return nil
		}
		obj := p.parenExpr(nil)
		if obj == nil {
			return nil
		}
		if !p.mustMatch(lexer.RP, errors.ErrParenAfterWith) {
			return nil
		}
		var stmt stmtInfo
		p.tc.pushStatement(&stmt, stmtWith)
		body := p.statement()
		if body == nil {
			return nil
		}
		p.tc.popStatement()
		pn = p.arena.NewBinaryNode(lexer.WITH, lexer.OpNop, obj, body)
		pn.Pos.Begin = span.Begin
		return pn

	case lexer.VAR:
		pn = p.variables(false)
		if pn == nil {
			return nil
		}
		pn.AddExtra(ast.PopVar)

	case lexer.LET:
		var done bool
		pn, done = p.letStatement()
		if pn == nil || done {
			return pn
		}

	case lexer.RETURN:
		pn = p.returnOrYield(p.expr)
		if pn == nil {
			return nil
		}

	case lexer.LC:
		oldflags := p.tc.flags
		p.tc.flags = oldflags &^ ast.HasFunctionStmt
		var stmt stmtInfo
		p.tc.pushStatement(&stmt, stmtBlock)
		pn = p.statements()
		if pn == nil {
			return nil
		}
		if !p.mustMatch(lexer.RC, errors.ErrCurlyInCompound) {
			return nil
		}
		p.tc.popStatement()

		// A block holding a function statement keeps its braces.
		if p.tc.flags&ast.HasFunctionStmt != 0 &&
			(p.tc.topStmt == nil || p.tc.topStmt.typ == stmtBlock) {
			list := pn
			if list.Type == lexer.LEXICALSCOPE {
				list = list.Expr()
			}
			list.AddExtra(ast.NeedBraces)
		}
		p.tc.flags = oldflags | (p.tc.flags & (funFlags | ast.ReturnFlags))
		return pn

	case lexer.SEMI:
		return p.arena.NewUnary(lexer.SEMI, lexer.OpNop, p.tokSpan(), nil)

	case lexer.DEBUGGER:
		pn = p.arena.NewNullary(lexer.DEBUGGER, lexer.OpNop, p.ts.Current())

	case lexer.ERROR:
		return p.fail(nil, errors.ErrSyntax)

	default:
		p.ts.UngetToken()
		e := p.expr()
		if e == nil {
			return nil
		}
		if p.ts.PeekToken() == lexer.COLON {
			return p.labeledStatement(e)
		}
		switch e.Type {
		case lexer.NUMBER, lexer.STRING, lexer.PRIMARY:
			p.warn(e, errors.ErrUselessExpr)
		}
		pn = p.arena.NewUnary(lexer.SEMI, lexer.OpNop, e.Pos, e)
	}

	// A simple statement must end before anything else on its line.
	if p.onCurrentLine(pn) {
		switch p.peekOperandSameLine() {
		case lexer.ERROR:
			return p.scanError()
		case lexer.EOF, lexer.EOL, lexer.SEMI, lexer.RC:
		default:
			return p.fail(nil, errors.ErrSemiBeforeStmnt)
		}
	}
	p.ts.MatchToken(lexer.SEMI)
	return pn
}

func (p *Parser) ifStatement() *ast.Node {
	span := p.tokSpan()
	cond := p.condition()
	if cond == nil {
		return nil
	}

	var stmt stmtInfo
	p.tc.pushStatement(&stmt, stmtIf)
	thenPart := p.statement()
	if thenPart == nil {
		return nil
	}
	span.End = thenPart.Pos.End

	var elsePart *ast.Node
	if p.matchOperand(lexer.ELSE) {
		stmt.typ = stmtElse
		elsePart = p.statement()
		if elsePart == nil {
			return nil
		}
		span.End = elsePart.Pos.End
	}
	p.tc.popStatement()
	return p.arena.NewTernary(lexer.IF, lexer.OpNop, span, cond, thenPart, elsePart)
}

func (p *Parser) switchStatement() *ast.Node {
	span := p.tokSpan()
	if !p.mustMatch(lexer.LP, errors.ErrParenBeforeSwitch) {
		return nil
	}
	disc := p.parenExpr(nil)
	if disc == nil {
		return nil
	}
	if !p.mustMatch(lexer.RP, errors.ErrParenAfterSwitch) ||
		!p.mustMatch(lexer.LC, errors.ErrCurlyBeforeSwitch) {
		return nil
	}

	// Case nodes are binary: the case expression, nil for default, and
	// the LC list of statements.
	cases := p.arena.NewList(lexer.LC, lexer.OpNop, p.tokSpan())
	saveBlock := p.tc.blockNode
	p.tc.blockNode = cases

	var stmt stmtInfo
	p.tc.pushStatement(&stmt, stmtSwitch)

	seenDefault := false
	for {
		tt := p.ts.GetToken()
		if tt == lexer.RC {
			break
		}

		var caseNode *ast.Node
		switch tt {
		case lexer.DEFAULT:
			if seenDefault {
				return p.fail(nil, errors.ErrTooManyDefaults)
			}
			seenDefault = true
			caseNode = p.arena.New(lexer.DEFAULT, lexer.OpNop, ast.Binary, p.tokSpan())
		case lexer.CASE:
			caseNode = p.arena.New(lexer.CASE, lexer.OpNop, ast.Binary, p.tokSpan())
			e := p.expr()
			if e == nil {
				return nil
			}
			caseNode.SetLeft(e)
		case lexer.ERROR:
			return p.fail(nil, errors.ErrSyntax)
		default:
			return p.fail(nil, errors.ErrBadSwitch)
		}
		cases.Append(caseNode)
		if !p.mustMatch(lexer.COLON, errors.ErrColonAfterCase) {
			return nil
		}

		body := p.arena.NewList(lexer.LC, lexer.OpNop, p.tokSpan())
		for {
			tt = p.peekOperand()
			if tt == lexer.RC || tt == lexer.CASE || tt == lexer.DEFAULT {
				break
			}
			if tt == lexer.ERROR {
				return p.scanError()
			}
			s := p.statement()
			if s == nil {
				return nil
			}
			body.Pos.End = s.Pos.End
			body.Append(s)
		}
		if head := body.Head(); head != nil {
			body.Pos.Begin = head.Pos.Begin
		}
		caseNode.Pos.End = body.Pos.End
		caseNode.SetRight(body)
	}

	block := p.tc.blockNode
	p.tc.blockNode = saveBlock
	p.tc.popStatement()

	block.Pos.End = p.tokEnd()
	pn := p.arena.NewBinaryNode(lexer.SWITCH, lexer.OpNop, disc, block)
	pn.Pos = ast.Span{Begin: span.Begin, End: p.tokEnd()}
	return pn
}

// validForInTarget checks the left side of 'in' in a for-in head. decl
// reports whether it is a var, const or let list.
func (p *Parser) validForInTarget(pn1 *ast.Node, decl bool, iflags ast.IterFlags) bool {
	// JS1.7 destructures [key, value] pairs unless iterating with for each.
	pairs := p.opts.Version == Version17 && iflags&ast.IterForEach == 0

	if decl {
		if pn1.Count() > 1 || pn1.Op == lexer.OpDefConst {
			return false
		}
		if pairs {
			switch head := pn1.Head(); head.Type {
			case lexer.RC:
				return false
			case lexer.RB:
				return head.Count() == 2
			case lexer.ASSIGN:
				return head.Left().Type == lexer.RB && head.Left().Count() == 2
			}
		}
		return true
	}

	switch pn1.Type {
	case lexer.NAME, lexer.DOT, lexer.LB, lexer.LP:
		return true
	case lexer.RB:
		return !pairs || pn1.Count() == 2
	case lexer.RC:
		return !pairs
	}
	return false
}

func (p *Parser) forStatement() *ast.Node {
	span := p.tokSpan()
	forNode := p.arena.New(lexer.FOR, lexer.OpIter, ast.Binary, span)

	var stmt stmtInfo
	p.tc.pushStatement(&stmt, stmtForLoop)

	var iflags ast.IterFlags
	if p.ts.MatchToken(lexer.NAME) {
		if p.ts.Current().Value == "each" {
			iflags = ast.IterForEach
		} else {
			p.ts.UngetToken()
		}
	}
	if !p.mustMatch(lexer.LP, errors.ErrParenAfterFor) {
		return nil
	}

	var (
		pn1, pnseq, pnlet *ast.Node
		blockInfo         stmtInfo
		decl              bool
		declType          lexer.TokenType
	)
	tt := p.peekOperand()
	if tt == lexer.SEMI {
		if iflags&ast.IterForEach != 0 {
			return p.fail(forNode, errors.ErrBadForEachLoop)
		}
	} else {
		// 'in' is not an operator at the top level of the init clause.
		p.tc.flags |= ast.InForInit
		switch tt {
		case lexer.VAR:
			p.ts.GetToken()
			pn1 = p.variables(false)
			decl, declType = true, lexer.VAR
		case lexer.LET:
			p.ts.GetToken()
			if p.ts.PeekToken() == lexer.LP {
				pn1 = p.letBlock(false)
			} else {
				pnlet = p.pushLexicalScope(&blockInfo)
				blockInfo.flags |= sifForBlock
				pn1 = p.variables(true)
				decl, declType = true, lexer.LET
			}
		default:
			pn1 = p.expr()
			for pn1 != nil && pn1.Type == lexer.RP {
				pn1 = pn1.Kid()
			}
		}
		p.tc.flags &^= ast.InForInit
		if pn1 == nil {
			return nil
		}
	}

	if pn1 != nil && p.ts.MatchToken(lexer.IN) {
		iflags |= ast.IterEnumerate
		stmt.typ = stmtForInLoop

		if !p.validForInTarget(pn1, decl, iflags) {
			return p.fail(pn1, errors.ErrBadForLeftside)
		}

		// pn2 is the name or pattern on the left of 'in'.
		var pn2 *ast.Node
		if decl {
			pn1.AddExtra(ast.ForInVar)

			// for (<decl> x = i in o) hoists the initializer, or for var
			// and const the whole declaration, out of the loop head.
			pn2 = pn1.Head()
			if (pn2.Type == lexer.NAME && pn2.Expr() != nil) || pn2.Type == lexer.ASSIGN {
				pnseq = p.arena.NewList(lexer.SEQ, lexer.OpNop, ast.Span{Begin: span.Begin})
				if declType == lexer.LET {
					var init *ast.Node
					if pn2.Type == lexer.ASSIGN {
						init = pn2.Right()
						pn2 = pn2.Left()
						pn1.SetElements([]*ast.Node{pn2})
					} else {
						init = pn2.Expr()
						pn2.SetExpr(nil)
					}
					pnseq.Append(p.arena.NewUnary(lexer.SEMI, lexer.OpNop, init.Pos, init))
				} else {
					pn1.SetExtra(pn1.Extra()&^ast.ForInVar | ast.PopVar)
					pnseq.Append(pn1)
					if pn2.Type == lexer.ASSIGN {
						pn1 = p.cloneTree(pn2.Left())
					} else {
						name := p.arena.NewName(pn2.Atom(), pn2.Pos)
						name.SetConst(pn2.IsConst())
						pn1 = name
					}
					pn2 = pn1
				}
			}
		}

		if pn2 == nil {
			pn2 = pn1
			if pn2.Type == lexer.LP && !p.makeSetCall(pn2, errors.ErrBadLeftsideOfAss) {
				return nil
			}
		}

		switch pn2.Type {
		case lexer.NAME:
			if pn2.Atom() == "arguments" {
				p.tc.flags |= ast.FunUsesArguments
			}
		case lexer.ASSIGN:
			pn2 = pn2.Left()
			fallthrough
		case lexer.RB, lexer.RC:
			if pn1 == pn2 && !p.checkDestructuring(nil, pn2, nil) {
				return nil
			}
			if p.opts.Version == Version17 && iflags&ast.IterForEach == 0 {
				iflags |= ast.IterForEach | ast.IterKeyValue
			}
		}

		head := p.newBinary(lexer.IN, lexer.OpNop, pn1, p.expr())
		if head == nil {
			return nil
		}
		forNode.SetLeft(head)
	} else {
		if iflags&ast.IterForEach != 0 {
			return p.fail(forNode, errors.ErrBadForEachLoop)
		}
		forNode.Op = lexer.OpNop

		if !p.mustMatch(lexer.SEMI, errors.ErrSemiAfterForInit) {
			return nil
		}
		var cond, update *ast.Node
		if p.peekOperand() != lexer.SEMI {
			if cond = p.expr(); cond == nil {
				return nil
			}
		}
		if !p.mustMatch(lexer.SEMI, errors.ErrSemiAfterForCond) {
			return nil
		}
		if p.peekOperand() != lexer.RP {
			if update = p.expr(); update == nil {
				return nil
			}
		}
		forNode.SetLeft(p.arena.NewTernary(lexer.FORHEAD, lexer.OpNop, span, pn1, cond, update))
	}

	if !p.mustMatch(lexer.RP, errors.ErrParenAfterForCtrl) {
		return nil
	}
	body := p.statement()
	if body == nil {
		return nil
	}
	forNode.SetRight(body)
	forNode.SetIterFlags(iflags)
	forNode.Pos.End = body.Pos.End

	pn := forNode
	if pnlet != nil {
		p.tc.popStatement()
		pnlet.SetExpr(pn)
		pnlet.Pos.End = pn.Pos.End
		pn = pnlet
	}
	if pnseq != nil {
		pnseq.Pos.End = pn.Pos.End
		pnseq.Append(pn)
		pn = pnseq
	}
	p.tc.popStatement()
	return pn
}

// tryStatement builds a TRY ternary: the try block, a RESERVED list of
// catch scopes or nil, and the finally block or nil. Each catch scope is a
// LEXICALSCOPE around a CATCH ternary of target, guard and body.
func (p *Parser) tryStatement() *ast.Node {
	span := p.tokSpan()
	if !p.mustMatch(lexer.LC, errors.ErrCurlyBeforeTry) {
		return nil
	}
	var stmt stmtInfo
	p.tc.pushStatement(&stmt, stmtTry)
	block := p.statements()
	if block == nil {
		return nil
	}
	if !p.mustMatch(lexer.RC, errors.ErrCurlyAfterTry) {
		return nil
	}
	p.tc.popStatement()
	span.End = p.tokEnd()

	var catchList *ast.Node
	tt := p.ts.GetToken()
	if tt == lexer.CATCH {
		catchList = p.arena.NewList(lexer.RESERVED, lexer.OpNop, p.tokSpan())
		var lastCatch *ast.Node
		for {
			if lastCatch != nil && lastCatch.Kid2() == nil {
				return p.fail(nil, errors.ErrCatchAfterGeneral)
			}
			clause := p.catchClause()
			if clause == nil {
				return nil
			}
			catchList.Append(clause)
			catchList.Pos.End = clause.Pos.End
			span.End = clause.Pos.End
			lastCatch = clause.Expr()

			if tt = p.getOperand(); tt != lexer.CATCH {
				break
			}
		}
	}

	var finally *ast.Node
	if tt == lexer.FINALLY {
		if !p.mustMatch(lexer.LC, errors.ErrCurlyBeforeFinally) {
			return nil
		}
		var fstmt stmtInfo
		p.tc.pushStatement(&fstmt, stmtFinally)
		if finally = p.statements(); finally == nil {
			return nil
		}
		if !p.mustMatch(lexer.RC, errors.ErrCurlyAfterFinally) {
			return nil
		}
		p.tc.popStatement()
		span.End = p.tokEnd()
	} else {
		p.ts.UngetToken()
	}
	if catchList == nil && finally == nil {
		return p.fail(nil, errors.ErrCatchOrFinally)
	}
	return p.arena.NewTernary(lexer.TRY, lexer.OpNop, span, block, catchList, finally)
}

// catchClause parses `(target [if guard]) { ... }` after catch. The catch
// variable is lexically scoped to the clause.
func (p *Parser) catchClause() *ast.Node {
	var stmt stmtInfo
	pnblock := p.pushLexicalScope(&stmt)
	stmt.typ = stmtCatch

	clause := p.arena.NewTernary(lexer.CATCH, lexer.OpNop, p.tokSpan(), nil, nil, nil)
	pnblock.SetExpr(clause)
	if !p.mustMatch(lexer.LP, errors.ErrParenBeforeCatch) {
		return nil
	}

	data := &bindData{op: lexer.OpNop, binder: bindLet}
	var target *ast.Node
	switch tt := p.ts.GetToken(); tt {
	case lexer.LB, lexer.LC:
		if target = p.destructuringExpr(data, tt); target == nil {
			return nil
		}
	case lexer.NAME:
		name := p.ts.Current().Value
		if !data.binder(p, data, name) {
			return nil
		}
		target = p.arena.NewName(name, p.tokSpan())
	default:
		return p.fail(nil, errors.ErrCatchIdentifier)
	}
	clause.SetKid1(target)

	if p.ts.MatchToken(lexer.IF) {
		guard := p.expr()
		if guard == nil {
			return nil
		}
		clause.SetKid2(guard)
	}
	if !p.mustMatch(lexer.RP, errors.ErrParenAfterCatch) ||
		!p.mustMatch(lexer.LC, errors.ErrCurlyBeforeCatch) {
		return nil
	}
	body := p.statements()
	if body == nil {
		return nil
	}
	clause.SetKid3(body)
	if !p.mustMatch(lexer.RC, errors.ErrCurlyAfterCatch) {
		return nil
	}
	p.tc.popStatement()

	clause.Pos.End = p.tokEnd()
	pnblock.Pos.End = p.tokEnd()
	return pnblock
}

func (p *Parser) breakStatement() *ast.Node {
	pn := p.arena.NewNullary(lexer.BREAK, lexer.OpNop, p.ts.Current())
	if !p.matchLabel(pn) {
		return nil
	}
	label := pn.Atom()
	for stmt := p.tc.topStmt; ; stmt = stmt.down {
		if stmt == nil {
			if label != "" {
				return p.fail(nil, errors.ErrLabelNotFound)
			}
			return p.fail(nil, errors.ErrToughBreak)
		}
		if label != "" {
			if stmt.typ == stmtLabel && stmt.label == label {
				break
			}
		} else if stmt.typ.isLoop() || stmt.typ == stmtSwitch {
			break
		}
	}
	if label != "" {
		pn.Pos.End = p.tokEnd()
	}
	return pn
}

func (p *Parser) continueStatement() *ast.Node {
	pn := p.arena.NewNullary(lexer.CONTINUE, lexer.OpNop, p.ts.Current())
	if !p.matchLabel(pn) {
		return nil
	}
	label := pn.Atom()
	if label == "" {
		for stmt := p.tc.topStmt; ; stmt = stmt.down {
			if stmt == nil {
				return p.fail(nil, errors.ErrBadContinue)
			}
			if stmt.typ.isLoop() {
				return pn
			}
		}
	}

	// The label must name a loop.
	var inner *stmtInfo
	for stmt := p.tc.topStmt; ; stmt = stmt.down {
		if stmt == nil {
			return p.fail(nil, errors.ErrLabelNotFound)
		}
		if stmt.typ != stmtLabel {
			inner = stmt
			continue
		}
		if stmt.label == label {
			if inner == nil || !inner.typ.isLoop() {
				return p.fail(nil, errors.ErrBadContinue)
			}
			break
		}
	}
	pn.Pos.End = p.tokEnd()
	return pn
}

// labeledStatement finishes `label: statement` once the expression e has
// been read. The result is e retyped to COLON with the statement as its
// expression.
func (p *Parser) labeledStatement(e *ast.Node) *ast.Node {
	if e.Type != lexer.NAME {
		return p.fail(nil, errors.ErrBadLabel)
	}
	label := e.Atom()
	for stmt := p.tc.topStmt; stmt != nil; stmt = stmt.down {
		if stmt.typ == stmtLabel && stmt.label == label {
			return p.fail(nil, errors.ErrDuplicateLabel)
		}
	}
	p.ts.GetToken()

	var stmt stmtInfo
	p.tc.pushStatement(&stmt, stmtLabel)
	stmt.label = label
	pn := p.statement()
	if pn == nil {
		return nil
	}
	// An empty labeled statement becomes an empty block.
	if pn.Type == lexer.SEMI && pn.Kid() == nil {
		pn.Type = lexer.LC
		pn.InitList()
	}
	p.tc.popStatement()

	e.Type = lexer.COLON
	e.Pos.End = pn.Pos.End
	e.SetExpr(pn)
	return e
}

// letStatement parses what follows let at statement level. done reports
// that pn is a complete let block statement needing no terminator.
func (p *Parser) letStatement() (pn *ast.Node, done bool) {
	if p.ts.PeekToken() == lexer.LP {
		pn = p.letBlock(true)
		return pn, pn != nil && pn.Op == lexer.OpLeaveBlock
	}

	// A let declaration must be directly within a block, and not in the
	// implicit block of for (let ...).
	stmt := p.tc.topStmt
	if stmt != nil && (!stmt.typ.maybeScope() || stmt.flags&sifForBlock != 0) {
		return p.fail(nil, errors.ErrLetDeclNotInBlock), false
	}

	if stmt == nil || stmt.flags&sifScope == 0 {
		if stmt == nil || stmt.flags&sifBodyBlock != 0 {
			// At top level and in a function body let is var.
			pn = p.variables(false)
			if pn != nil {
				pn.AddExtra(ast.PopVar)
			}
			return pn, false
		}

		// Turn the enclosing block into a scope.
		stmt.flags |= sifScope
		stmt.lets = make(map[string]bool)
		stmt.downScope = p.tc.topScopeStmt
		p.tc.topScopeStmt = stmt

		block := p.tc.blockNode
		scope := p.arena.New(lexer.LEXICALSCOPE, lexer.OpLeaveBlock, ast.Name, block.Pos)
		scope.SetExpr(block)
		p.tc.blockNode = scope
	}

	pn = p.variables(true)
	if pn != nil {
		pn.SetExtra(ast.PopVar)
	}
	return pn, false
}

// letBlock parses `let (bindings) { statements }` when statement is set,
// or the expression form `let (bindings) expr`. The current token is let.
func (p *Parser) letBlock(statement bool) *ast.Node {
	span := p.tokSpan()
	letNode := p.arena.New(lexer.LET, lexer.OpNop, ast.Binary, span)
	if !p.mustMatch(lexer.LP, errors.ErrParenBeforeLet) {
		return nil
	}

	var stmt stmtInfo
	pnblock := p.pushLexicalScope(&stmt)
	pnblock.Pos.Begin = span.Begin
	pnblock.SetExpr(letNode)
	pn := pnblock

	vars := p.variables(true)
	if vars == nil {
		return nil
	}
	vars.SetExtra(ast.PopVar)
	letNode.SetLeft(vars)
	if !p.mustMatch(lexer.RP, errors.ErrParenAfterLet) {
		return nil
	}

	if statement && !p.matchOperand(lexer.LC) {
		// A let expression in statement position: pop its value.
		pn = p.arena.NewUnary(lexer.SEMI, lexer.OpNop, span, pnblock)
		statement = false
	}

	if statement {
		body := p.statements()
		if body == nil {
			return nil
		}
		letNode.SetRight(body)
		if !p.mustMatch(lexer.RC, errors.ErrCurlyAfterLet) {
			return nil
		}
		letNode.Pos.End = p.tokEnd()
	} else {
		pnblock.Op = lexer.OpLeaveBlockExpr
		e := p.assignExpr()
		if e == nil {
			return nil
		}
		letNode.SetRight(e)
		letNode.Pos.End = e.Pos.End
	}
	pnblock.Pos.End = letNode.Pos.End
	pn.Pos.End = letNode.Pos.End

	p.tc.popStatement()
	return pn
}

// variables parses the declarations after var, const or let, or inside
// the head of a let block. A let at top level is parsed as var.
func (p *Parser) variables(let bool) *ast.Node {
	tok := p.ts.Current()
	data := &bindData{op: lexer.OpNop, binder: bindLet}
	tt := lexer.LET
	if !let {
		tt = lexer.VAR
		data.op = lexer.OpDefVar
		if tok.Type == lexer.VAR {
			data.op = tok.Op
		}
		data.binder = bindVarOrConst
	}

	pn := p.arena.NewList(tt, data.op, ast.SpanOf(tok))
	for {
		if !p.variable(pn, data, let) {
			return nil
		}
		if !p.ts.MatchToken(lexer.COMMA) {
			break
		}
	}
	pn.Pos.End = pn.Last().Pos.End
	return pn
}

func (p *Parser) variable(list *ast.Node, data *bindData, let bool) bool {
	tt := p.ts.GetToken()
	if tt == lexer.LB || tt == lexer.LC {
		pattern := p.primaryExpr(tt, false)
		if pattern == nil {
			return false
		}

		// for (var [k, v] in o) has no initializer.
		if p.tc.flags&ast.InForInit != 0 && p.ts.PeekToken() == lexer.IN {
			if !p.checkDestructuring(data, pattern, nil) {
				return false
			}
			list.Append(pattern)
			return true
		}

		if !p.mustMatch(lexer.ASSIGN, errors.ErrBadDestructDecl) {
			return false
		}
		if p.ts.Current().Op != lexer.OpNop {
			p.fail(nil, errors.ErrBadVarInit)
			return false
		}
		init := p.assignExpr()
		if init == nil {
			return false
		}
		assign := p.newBinary(lexer.ASSIGN, lexer.OpNop, pattern, init)
		if !p.checkDestructuring(data, pattern, init) {
			return false
		}
		list.Append(assign)
		return true
	}

	if tt != lexer.NAME {
		p.fail(nil, errors.ErrNoVariableName)
		return false
	}
	name := p.ts.Current().Value
	if !data.binder(p, data, name) {
		return false
	}
	pn := p.arena.NewName(name, p.tokSpan())
	if !let {
		pn.SetConst(data.op == lexer.OpDefConst)
	}
	list.Append(pn)

	if p.ts.MatchToken(lexer.ASSIGN) {
		if p.ts.Current().Op != lexer.OpNop {
			p.fail(nil, errors.ErrBadVarInit)
			return false
		}
		init := p.assignExpr()
		if init == nil {
			return false
		}
		pn.SetExpr(init)
		if !let && data.op == lexer.OpDefConst {
			pn.Op = lexer.OpSetConst
		} else {
			pn.Op = lexer.OpSetName
		}
	}
	return true
}

// cloneTree copies opn and everything below it into fresh nodes.
func (p *Parser) cloneTree(opn *ast.Node) *ast.Node {
	if opn == nil {
		return nil
	}
	pn := p.arena.New(opn.Type, opn.Op, opn.Arity, opn.Pos)
	switch opn.Arity {
	case ast.Func:
		pn.SetFun(opn.Fun())
		pn.SetBody(p.cloneTree(opn.Body()))
		pn.SetFlags(opn.Flags())
	case ast.List:
		for _, k := range opn.Elements() {
			pn.Append(p.cloneTree(k))
		}
		pn.SetExtra(opn.Extra())
	case ast.Ternary:
		pn.SetKid1(p.cloneTree(opn.Kid1()))
		pn.SetKid2(p.cloneTree(opn.Kid2()))
		pn.SetKid3(p.cloneTree(opn.Kid3()))
	case ast.Binary:
		left := p.cloneTree(opn.Left())
		pn.SetLeft(left)
		if opn.Right() == opn.Left() {
			pn.SetRight(left)
		} else {
			pn.SetRight(p.cloneTree(opn.Right()))
		}
		pn.SetIterFlags(opn.IterFlags())
	case ast.Unary:
		pn.SetKid(p.cloneTree(opn.Kid()))
		pn.SetHidden(opn.Hidden())
	case ast.Name:
		pn.SetAtom(opn.Atom())
		pn.SetConst(opn.IsConst())
		pn.SetExpr(p.cloneTree(opn.Expr()))
	case ast.Nullary:
		pn.SetAtom(opn.Atom())
		pn.SetAtom2(opn.Atom2())
		pn.SetNumber(opn.Number())
		pn.SetRegExpFlags(opn.RegExpFlags())
	}
	return pn
}
