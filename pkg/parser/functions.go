package parser

import (
	"fmt"

	"jscore/pkg/ast"
	"jscore/pkg/errors"
	"jscore/pkg/lexer"
)

// functionDef parses a function after the function keyword, or after the
// property name of a getter or setter. lambda is set when the function is
// an expression.
//
// A destructuring formal becomes a hidden positional parameter named
// %argN, destructured into the pattern's names by a statement prepended
// to the body.
func (p *Parser) functionDef(lambda bool, kind ast.FunctionKind) *ast.Node {
	span := p.tokSpan()

	name := ""
	if p.getName() == lexer.NAME {
		name = p.ts.Current().Value
	} else {
		if !lambda {
			p.warn(nil, errors.ErrUnnamedFunctionStmt)
		}
		p.ts.UngetToken()
	}

	tc := p.tc
	if !lambda && name != "" {
		if prevop, ok := tc.decls[name]; ok {
			if prevop == lexer.OpDefConst {
				return p.fail(nil, errors.ErrRedeclaredVar, declKindName(prevop), name)
			}
			p.warn(nil, errors.ErrRedeclaredVar, declKindName(prevop), name)
		}
		tc.decls[name] = lexer.OpDefFun

		// A function statement in a function body is a local variable of
		// that function, even when it shadows an argument.
		if tc.atTopLevel() && tc.inFunction() {
			if k := tc.locals[name]; k == localNone || k == localArg {
				tc.locals[name] = localVar
			}
		}
	}

	fun := &ast.FunctionBox{Name: name, Kind: kind}
	funtc := newTreeContext(tc, name)
	funtc.flags |= ast.InFunction

	p.tc = funtc
	body := p.functionInner(fun, lambda)
	p.tc = tc
	if body == nil {
		return nil
	}
	span.End = p.tokEnd()
	fun.Flags = funtc.flags & (ast.InFunction | funFlags)

	var op lexer.Op
	wrap := false
	switch {
	case lambda && name != "":
		op = lexer.OpNamedFunObj
	case lambda:
		op = lexer.OpAnonFunObj
	case name == "":
		// An anonymous function in statement position is an expression
		// statement.
		op = lexer.OpAnonFunObj
		wrap = true
	case !tc.atTopLevel():
		// Binds only when control reaches it.
		op = lexer.OpDefFun
	default:
		op = lexer.OpNop
	}

	pn := p.arena.NewFunc(op, span, fun, body)
	if wrap {
		return p.arena.NewUnary(lexer.SEMI, lexer.OpNop, span, pn)
	}
	return pn
}

// functionInner parses the formals and body of fun with p.tc set to the
// function's own tree context.
func (p *Parser) functionInner(fun *ast.FunctionBox, lambda bool) *ast.Node {
	if !p.mustMatch(lexer.LP, errors.ErrParenBeforeFormal) {
		return nil
	}

	// Assignments from hidden parameters into destructuring formals.
	var destructs *ast.Node

	if !p.ts.MatchToken(lexer.RP) {
		for {
			switch tt := p.ts.GetToken(); tt {
			case lexer.LB, lexer.LC:
				data := &bindData{op: lexer.OpDefVar, binder: bindDestructuringArg}
				lhs := p.destructuringExpr(data, tt)
				if lhs == nil {
					return nil
				}
				hidden := fmt.Sprintf("%%arg%d", p.tc.nargs)
				p.tc.locals[hidden] = localArg
				p.tc.nargs++
				fun.Params = append(fun.Params, p.arena.NewName(hidden, lhs.Pos))

				rhs := p.arena.NewName(hidden, lhs.Pos)
				item := p.newBinary(lexer.ASSIGN, lexer.OpNop, lhs, rhs)
				if destructs == nil {
					destructs = p.arena.NewList(lexer.COMMA, lexer.OpNop, lhs.Pos)
				}
				destructs.Append(item)
				destructs.Pos.End = item.Pos.End

			case lexer.NAME:
				name := p.ts.Current().Value
				p.bindArg(name)
				fun.Params = append(fun.Params, p.arena.NewName(name, p.tokSpan()))

			default:
				return p.fail(nil, errors.ErrMissingFormal)
			}
			if !p.ts.MatchToken(lexer.COMMA) {
				break
			}
		}
		if !p.mustMatch(lexer.RP, errors.ErrParenAfterFormal) {
			return nil
		}
	}

	// function (x) expr is an expression closure.
	if p.getOperand() != lexer.LC {
		p.ts.UngetToken()
		fun.ExprClosure = true
	}

	body := p.functionBody(fun.ExprClosure)
	if body == nil {
		return nil
	}
	if !fun.ExprClosure {
		if !p.mustMatch(lexer.RC, errors.ErrCurlyAfterBody) {
			return nil
		}
	} else if !lambda {
		p.ts.MatchToken(lexer.SEMI)
	}

	if destructs != nil {
		if body.Arity != ast.List {
			block := p.arena.NewList(lexer.SEQ, lexer.OpNop, body.Pos)
			block.Append(body)
			body = block
		}
		at := ast.Span{Begin: body.Pos.Begin, End: body.Pos.Begin}
		body.Prepend(p.arena.NewUnary(lexer.SEMI, lexer.OpNop, at, destructs))
	}
	return body
}

// functionBody parses the statements of a function body, or the single
// expression of an expression closure as a RETURN node.
func (p *Parser) functionBody(exprClosure bool) *ast.Node {
	tc := p.tc
	var stmt stmtInfo
	tc.pushStatement(&stmt, stmtBlock)
	stmt.flags = sifBodyBlock

	oldflags := tc.flags
	tc.flags &^= ast.ReturnFlags

	var pn *ast.Node
	if !exprClosure {
		pn = p.statements()
	} else if kid := p.assignExpr(); kid != nil {
		if tc.flags&ast.FunIsGenerator != 0 {
			p.reportBadReturn(true, errors.ErrBadGeneratorReturn, errors.ErrBadAnonGeneratorReturn)
		} else {
			pn = p.arena.NewUnary(lexer.RETURN, lexer.OpNop, kid.Pos, kid)
		}
	}

	if pn != nil {
		tc.popStatement()
		// Falling off the end of a function that returns a value.
		if p.opts.Strict && tc.flags&ast.ReturnExpr != 0 && HasFinalReturn(pn) != EndsInReturn {
			p.reportBadReturn(false, errors.ErrNoReturnValue, errors.ErrAnonNoReturnValue)
		}
	}

	tc.flags = oldflags | (tc.flags & funFlags)
	return pn
}

// reportBadReturn reports num naming the current function, or anonNum for
// an anonymous one, as an error or a strict warning.
func (p *Parser) reportBadReturn(isError bool, num, anonNum errors.ErrorNumber) {
	var args []interface{}
	if name := p.tc.funName; name != "" {
		args = append(args, name)
	} else {
		num = anonNum
	}
	if isError {
		p.fail(nil, num, args...)
	} else {
		p.warn(nil, num, args...)
	}
}

// returnOrYield parses return or yield, the current token, and its
// optional operand.
func (p *Parser) returnOrYield(operand func() *ast.Node) *ast.Node {
	tc := p.tc
	tt := p.ts.Current().Type
	if !tc.inFunction() {
		word := "return"
		if tt == lexer.YIELD {
			word = "yield"
		}
		return p.fail(nil, errors.ErrBadReturnOrYield, word)
	}

	pn := p.arena.NewUnary(tt, lexer.OpNop, p.tokSpan(), nil)
	if tt == lexer.YIELD {
		pn.Op = lexer.OpYield
		tc.flags |= ast.FunIsGenerator
	}

	// No semicolon is needed before the end of the line. A bare yield may
	// also close a bracket or precede a comma, colon or another yield.
	tt2 := p.peekOperandSameLine()
	if tt2 == lexer.ERROR {
		return p.scanError()
	}
	hasOperand := tt2 != lexer.EOF && tt2 != lexer.EOL && tt2 != lexer.SEMI && tt2 != lexer.RC
	if tt == lexer.YIELD {
		switch tt2 {
		case lexer.YIELD, lexer.RB, lexer.RP, lexer.COLON, lexer.COMMA:
			hasOperand = false
		}
	}

	if hasOperand {
		kid := operand()
		if kid == nil {
			return nil
		}
		if tt == lexer.RETURN {
			tc.flags |= ast.ReturnExpr
		}
		pn.SetKid(kid)
		pn.Pos.End = kid.Pos.End
	} else if tt == lexer.RETURN {
		tc.flags |= ast.ReturnVoid
	}

	// Generators may not return a value.
	if tc.flags&(ast.ReturnExpr|ast.FunIsGenerator) == ast.ReturnExpr|ast.FunIsGenerator {
		p.reportBadReturn(true, errors.ErrBadGeneratorReturn, errors.ErrBadAnonGeneratorReturn)
		return nil
	}
	if tc.flags&ast.ReturnFlags == ast.ReturnFlags {
		p.reportBadReturn(false, errors.ErrNoReturnValue, errors.ErrAnonNoReturnValue)
	}
	return pn
}

// Results of HasFinalReturn. They combine with &: a statement ends in a
// return only if every path through it does.
const (
	EndsInOther  = 0
	EndsInReturn = 1
	EndsInBreak  = 2
)

// HasFinalReturn reports how control leaves the statement pn.
func HasFinalReturn(pn *ast.Node) int {
	switch pn.Type {
	case lexer.LC:
		if pn.Arity != ast.List || pn.Head() == nil {
			return EndsInOther
		}
		return HasFinalReturn(pn.Last())

	case lexer.IF:
		if pn.Kid3() == nil {
			return EndsInOther
		}
		return HasFinalReturn(pn.Kid2()) & HasFinalReturn(pn.Kid3())

	case lexer.WHILE:
		cond := pn.Left()
		if cond.IsPrimary(lexer.OpTrue) || (cond.Type == lexer.NUMBER && cond.Number() != 0) {
			return EndsInReturn
		}
		return EndsInOther

	case lexer.DO:
		cond := pn.Right()
		switch {
		case cond.IsPrimary(lexer.OpFalse), cond.Type == lexer.NUMBER && cond.Number() == 0:
			return HasFinalReturn(pn.Left())
		case cond.IsPrimary(lexer.OpTrue), cond.Type == lexer.NUMBER:
			return EndsInReturn
		}
		return EndsInOther

	case lexer.FOR:
		head := pn.Left()
		if head.Arity == ast.Ternary && head.Kid2() == nil {
			return EndsInReturn
		}
		return EndsInOther

	case lexer.SWITCH:
		rv := EndsInReturn
		hasDefault := EndsInOther
		cases := pn.Right()
		if cases.Type == lexer.LEXICALSCOPE {
			cases = cases.Expr()
		}
		for c := cases.Head(); rv != 0 && c != nil; c = c.Next() {
			if c.Type == lexer.DEFAULT {
				hasDefault = EndsInReturn
			}
			body := c.Right()
			if body.Head() == nil {
				continue
			}
			// Falling through into the next case defers to it.
			if rv2 := HasFinalReturn(body.Last()); rv2 != EndsInOther || c.Next() == nil {
				rv &= rv2
			}
		}
		// A switch without default may fall out.
		return rv & hasDefault

	case lexer.BREAK:
		return EndsInBreak

	case lexer.WITH:
		return HasFinalReturn(pn.Right())

	case lexer.RETURN, lexer.THROW:
		return EndsInReturn

	case lexer.COLON, lexer.LEXICALSCOPE:
		return HasFinalReturn(pn.Expr())

	case lexer.TRY:
		if pn.Kid3() != nil {
			if rv := HasFinalReturn(pn.Kid3()); rv == EndsInReturn {
				return rv
			}
		}
		rv := HasFinalReturn(pn.Kid1())
		if catches := pn.Kid2(); catches != nil {
			for c := catches.Head(); c != nil; c = c.Next() {
				rv &= HasFinalReturn(c)
			}
		}
		return rv

	case lexer.CATCH:
		return HasFinalReturn(pn.Kid3())

	case lexer.LET:
		// A let declaration is a list, a let block is binary.
		if pn.Arity != ast.Binary {
			return EndsInOther
		}
		return HasFinalReturn(pn.Right())
	}
	return EndsInOther
}
