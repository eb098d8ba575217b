package parser

import (
	"jscore/pkg/ast"
	"jscore/pkg/errors"
	"jscore/pkg/lexer"
)

// comprehensionTail parses the for and if clauses after the first for of
// an array comprehension or generator expression. Each for becomes a FOR
// node nested in the one before it and an if wraps what follows it. The
// innermost node is a unary of type tt and op applied to kid: an array
// push for comprehensions and a yield statement for generator expressions.
// The clause variables are let-bound in a scope around the whole tail,
// which is returned as a LEXICALSCOPE node.
func (p *Parser) comprehensionTail(tt lexer.TokenType, op lexer.Op, kid *ast.Node) *ast.Node {
	var stmt stmtInfo
	pn := p.pushLexicalScope(&stmt)
	data := &bindData{op: lexer.OpNop, binder: bindLet}

	// setTail hangs the next clause under the previous one.
	setTail := pn.SetExpr

	for {
		forNode := p.arena.New(lexer.FOR, lexer.OpIter, ast.Binary, p.tokSpan())
		iflags := ast.IterEnumerate
		if p.ts.MatchToken(lexer.NAME) {
			if p.ts.Current().Value == "each" {
				iflags |= ast.IterForEach
			} else {
				p.ts.UngetToken()
			}
		}
		if !p.mustMatch(lexer.LP, errors.ErrParenAfterFor) {
			return nil
		}

		var target *ast.Node
		switch t := p.ts.GetToken(); t {
		case lexer.LB, lexer.LC:
			if target = p.destructuringExpr(data, t); target == nil {
				return nil
			}
			if target.Type != lexer.RB || target.Count() != 2 {
				return p.fail(target, errors.ErrBadForLeftside)
			}
			if p.opts.Version == Version17 && iflags&ast.IterForEach == 0 {
				iflags |= ast.IterForEach | ast.IterKeyValue
			}
		case lexer.NAME:
			name := p.ts.Current().Value
			data.pn = nil
			if !data.binder(p, data, name) {
				return nil
			}
			target = p.arena.NewName(name, p.tokSpan())
		default:
			return p.fail(nil, errors.ErrNoVariableName)
		}

		if !p.mustMatch(lexer.IN, errors.ErrInAfterForName) {
			return nil
		}
		head := p.newBinary(lexer.IN, lexer.OpNop, target, p.expr())
		if head == nil {
			return nil
		}
		if !p.mustMatch(lexer.RP, errors.ErrParenAfterForCtrl) {
			return nil
		}
		forNode.SetLeft(head)
		forNode.SetIterFlags(iflags)
		forNode.Pos.End = p.tokEnd()

		setTail(forNode)
		setTail = forNode.SetRight

		if !p.ts.MatchToken(lexer.FOR) {
			break
		}
	}

	if p.ts.MatchToken(lexer.IF) {
		span := p.tokSpan()
		cond := p.condition()
		if cond == nil {
			return nil
		}
		ifNode := p.arena.NewTernary(lexer.IF, lexer.OpNop, span, cond, nil, nil)
		setTail(ifNode)
		setTail = ifNode.SetKid2
	}

	setTail(p.arena.NewUnary(tt, op, kid.Pos, kid))
	pn.Pos.End = p.tokEnd()
	p.tc.popStatement()
	return pn
}

// generatorExpr turns kid followed by for clauses into a call of an
// anonymous generator lambda whose body yields kid from the comprehension
// tail. oldflags are the tree flags from before kid was parsed, so that
// flags kid set move to the lambda.
func (p *Parser) generatorExpr(oldflags ast.TreeFlags, kid *ast.Node) *ast.Node {
	if kid.Type == lexer.YIELD {
		return p.fail(kid, errors.ErrBadGenexpBody, "yield")
	}
	yield := p.arena.NewUnary(lexer.YIELD, lexer.OpYield, kid.Pos, kid)
	yield.SetHidden(true)

	body := p.comprehensionTail(lexer.SEMI, lexer.OpNop, yield)
	if body == nil {
		return nil
	}
	body.Pos.Begin = kid.Pos.Begin

	fun := &ast.FunctionBox{
		Kind:  ast.FunExpression,
		Flags: ast.InFunction | ast.FunIsGenerator | ast.GenexpLambda | ((oldflags ^ p.tc.flags) & funFlags),
	}
	lambda := p.arena.NewFunc(lexer.OpAnonFunObj, body.Pos, fun, body)

	call := p.arena.NewList(lexer.LP, lexer.OpCall, body.Pos)
	call.Append(lambda)

	p.tc.flags = oldflags
	return call
}
