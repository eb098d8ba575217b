package parser

import (
	"strconv"

	"jscore/pkg/ast"
	"jscore/pkg/errors"
	"jscore/pkg/fold"
	"jscore/pkg/lexer"
)

// funFlags are the tree flags that flow out of nested expressions into the
// enclosing function.
const funFlags = ast.FunIsGenerator | ast.FunUsesArguments

// isLeftAssoc reports whether chains of op may be flattened into one list.
func isLeftAssoc(tt lexer.TokenType, op lexer.Op) bool {
	if tt == lexer.ASSIGN {
		return false
	}
	switch op {
	case lexer.OpOr, lexer.OpAnd, lexer.OpBitOr, lexer.OpBitXor, lexer.OpBitAnd,
		lexer.OpEq, lexer.OpNe, lexer.OpStrictEq, lexer.OpStrictNe,
		lexer.OpLt, lexer.OpLe, lexer.OpGt, lexer.OpGe, lexer.OpIn, lexer.OpInstanceof,
		lexer.OpLsh, lexer.OpRsh, lexer.OpUrsh,
		lexer.OpAdd, lexer.OpSub, lexer.OpMul, lexer.OpDiv, lexer.OpMod:
		return true
	}
	return false
}

// plusExtra classifies one term of a PLUS list.
func plusExtra(pn *ast.Node) ast.ListExtra {
	switch pn.Type {
	case lexer.STRING:
		return ast.StrCat
	case lexer.NUMBER:
		return 0
	}
	return ast.CantFold
}

// NewBinary builds a binary node of the given type and op. A left operand
// that is already a chain of the same left-associative operator absorbs
// right as a further list element, and two numbers joined by + are summed
// on the spot. It returns nil when either operand is nil.
func NewBinary(a *ast.Arena, tt lexer.TokenType, op lexer.Op, left, right *ast.Node) *ast.Node {
	if left == nil || right == nil {
		return nil
	}

	if left.Type == tt && left.Op == op && isLeftAssoc(tt, op) {
		if left.Arity != ast.List {
			pn1, pn2 := left.Left(), left.Right()
			left.SetLeft(nil)
			left.SetRight(nil)
			left.InitList1(pn1)
			left.Append(pn2)
			if tt == lexer.PLUS {
				left.AddExtra(plusExtra(pn1) | plusExtra(pn2))
			}
		}
		left.Append(right)
		left.Pos.End = right.Pos.End
		if tt == lexer.PLUS {
			left.AddExtra(plusExtra(right))
		}
		return left
	}

	if tt == lexer.PLUS && left.Type == lexer.NUMBER && right.Type == lexer.NUMBER {
		left.SetNumber(left.Number() + right.Number())
		left.Pos.End = right.Pos.End
		a.Recycle(right)
		return left
	}

	return a.NewBinaryNode(tt, op, left, right)
}

func (p *Parser) newBinary(tt lexer.TokenType, op lexer.Op, left, right *ast.Node) *ast.Node {
	return NewBinary(p.arena, tt, op, left, right)
}

// --- Expressions ---

func (p *Parser) expr() *ast.Node {
	pn := p.assignExpr()
	if pn == nil || !p.ts.MatchToken(lexer.COMMA) {
		return pn
	}
	list := p.arena.NewList(lexer.COMMA, lexer.OpNop, pn.Pos)
	list.Append(pn)
	for {
		if last := list.Last(); last.Type == lexer.YIELD {
			return p.fail(last, errors.ErrBadGeneratorSyntax, "yield")
		}
		pn2 := p.assignExpr()
		if pn2 == nil {
			return nil
		}
		list.Append(pn2)
		if !p.ts.MatchToken(lexer.COMMA) {
			break
		}
	}
	list.Pos.End = list.Last().Pos.End
	return list
}

func (p *Parser) assignExpr() *ast.Node {
	if p.matchOperand(lexer.YIELD) {
		return p.returnOrYield(p.assignExpr)
	}

	pn := p.condExpr()
	if pn == nil {
		return nil
	}
	if p.ts.GetToken() != lexer.ASSIGN {
		p.ts.UngetToken()
		return pn
	}
	op := p.ts.Current().Op

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
	case lexer.RB, lexer.RC:
		if op != lexer.OpNop {
			return p.fail(nil, errors.ErrBadDestructAss)
		}
		rhs := p.assignExpr()
		if rhs == nil || !p.checkDestructuring(nil, pn, rhs) {
			return nil
		}
		return p.newBinary(lexer.ASSIGN, op, pn, rhs)
	case lexer.LP:
		if !p.makeSetCall(pn, errors.ErrBadLeftsideOfAss) {
			return nil
		}
	default:
		return p.fail(nil, errors.ErrBadLeftsideOfAss)
	}

	return p.newBinary(lexer.ASSIGN, op, pn, p.assignExpr())
}

func (p *Parser) condExpr() *ast.Node {
	pn := p.orExpr()
	if pn == nil || !p.ts.MatchToken(lexer.HOOK) {
		return pn
	}

	// 'in' is allowed in the middle operand even in a for-init.
	oldflags := p.tc.flags
	p.tc.flags &^= ast.InForInit
	pn2 := p.assignExpr()
	p.tc.flags = oldflags | (p.tc.flags & funFlags)
	if pn2 == nil {
		return nil
	}
	if !p.mustMatch(lexer.COLON, errors.ErrColonInCond) {
		return nil
	}
	pn3 := p.assignExpr()
	if pn3 == nil {
		return nil
	}
	return p.arena.NewTernary(lexer.HOOK, lexer.OpNop,
		ast.Span{Begin: pn.Pos.Begin, End: pn3.Pos.End}, pn, pn2, pn3)
}

func (p *Parser) orExpr() *ast.Node {
	pn := p.andExpr()
	for pn != nil && p.ts.MatchToken(lexer.OR) {
		pn = p.newBinary(lexer.OR, lexer.OpOr, pn, p.andExpr())
	}
	return pn
}

func (p *Parser) andExpr() *ast.Node {
	pn := p.bitOrExpr()
	for pn != nil && p.ts.MatchToken(lexer.AND) {
		pn = p.newBinary(lexer.AND, lexer.OpAnd, pn, p.bitOrExpr())
	}
	return pn
}

func (p *Parser) bitOrExpr() *ast.Node {
	pn := p.bitXorExpr()
	for pn != nil && p.ts.MatchToken(lexer.BITOR) {
		pn = p.newBinary(lexer.BITOR, lexer.OpBitOr, pn, p.bitXorExpr())
	}
	return pn
}

func (p *Parser) bitXorExpr() *ast.Node {
	pn := p.bitAndExpr()
	for pn != nil && p.ts.MatchToken(lexer.BITXOR) {
		pn = p.newBinary(lexer.BITXOR, lexer.OpBitXor, pn, p.bitAndExpr())
	}
	return pn
}

func (p *Parser) bitAndExpr() *ast.Node {
	pn := p.eqExpr()
	for pn != nil && p.ts.MatchToken(lexer.BITAND) {
		pn = p.newBinary(lexer.BITAND, lexer.OpBitAnd, pn, p.eqExpr())
	}
	return pn
}

func (p *Parser) eqExpr() *ast.Node {
	pn := p.relExpr()
	for pn != nil && p.ts.MatchToken(lexer.EQOP) {
		op := p.ts.Current().Op
		pn = p.newBinary(lexer.EQOP, op, pn, p.relExpr())
	}
	return pn
}

func (p *Parser) relExpr() *ast.Node {
	// Nested expressions may use 'in' again, only the outermost for-init
	// level excludes it.
	inForInit := p.tc.flags & ast.InForInit
	p.tc.flags &^= ast.InForInit

	pn := p.shiftExpr()
	for pn != nil {
		tt := p.ts.GetToken()
		if tt == lexer.RELOP || (tt == lexer.IN && inForInit == 0) || tt == lexer.INSTANCEOF {
			op := p.ts.Current().Op
			pn = p.newBinary(tt, op, pn, p.shiftExpr())
			continue
		}
		p.ts.UngetToken()
		break
	}

	p.tc.flags |= inForInit
	return pn
}

func (p *Parser) shiftExpr() *ast.Node {
	pn := p.addExpr()
	for pn != nil && p.ts.MatchToken(lexer.SHOP) {
		op := p.ts.Current().Op
		pn = p.newBinary(lexer.SHOP, op, pn, p.addExpr())
	}
	return pn
}

func (p *Parser) addExpr() *ast.Node {
	pn := p.mulExpr()
	for pn != nil {
		tt := p.ts.GetToken()
		if tt != lexer.PLUS && tt != lexer.MINUS {
			p.ts.UngetToken()
			break
		}
		op := p.ts.Current().Op
		pn = p.newBinary(tt, op, pn, p.mulExpr())
	}
	return pn
}

func (p *Parser) mulExpr() *ast.Node {
	pn := p.unaryExpr()
	for pn != nil {
		tt := p.ts.GetToken()
		if tt != lexer.STAR && tt != lexer.DIVOP {
			p.ts.UngetToken()
			break
		}
		op := p.ts.Current().Op
		pn = p.newBinary(tt, op, pn, p.unaryExpr())
	}
	return pn
}

// setIncOpKid checks the operand of ++ or -- and picks the node's op.
func (p *Parser) setIncOpKid(pn, kid *ast.Node, tt lexer.TokenType, preorder bool) bool {
	for kid.Type == lexer.RP {
		kid = kid.Kid()
	}
	switch kid.Type {
	case lexer.NAME, lexer.DOT, lexer.LB:
	case lexer.LP:
		if kid.Op != lexer.OpCall && kid.Op != lexer.OpEval && kid.Op != lexer.OpApply {
			p.fail(kid, errors.ErrBadIncopOperand)
			return false
		}
		if !p.makeSetCall(kid, errors.ErrBadIncopOperand) {
			return false
		}
	default:
		p.fail(kid, errors.ErrBadIncopOperand)
		return false
	}
	pn.SetKid(kid)

	switch {
	case tt == lexer.INC && preorder:
		pn.Op = lexer.OpPreInc
	case tt == lexer.INC:
		pn.Op = lexer.OpPostInc
	case preorder:
		pn.Op = lexer.OpPreDec
	default:
		pn.Op = lexer.OpPostDec
	}
	return true
}

func (p *Parser) unaryExpr() *ast.Node {
	tt := p.getOperand()
	switch tt {
	case lexer.UNARYOP, lexer.PLUS, lexer.MINUS:
		op := p.ts.Current().Op
		switch tt {
		case lexer.PLUS:
			op = lexer.OpPos
		case lexer.MINUS:
			op = lexer.OpNeg
		}
		span := p.tokSpan()
		kid := p.unaryExpr()
		if kid == nil {
			return nil
		}
		return p.arena.NewUnary(lexer.UNARYOP, op, span, kid)

	case lexer.INC, lexer.DEC:
		span := p.tokSpan()
		kid := p.memberExpr(true)
		if kid == nil {
			return nil
		}
		pn := p.arena.NewUnary(tt, lexer.OpNop, span, nil)
		if !p.setIncOpKid(pn, kid, tt, true) {
			return nil
		}
		pn.Pos.End = kid.Pos.End
		return pn

	case lexer.DELETE:
		span := p.tokSpan()
		kid := p.unaryExpr()
		if kid == nil {
			return nil
		}
		pn := p.arena.NewUnary(lexer.DELETE, lexer.OpDelete, span, kid)
		for kid.Type == lexer.RP {
			kid = kid.Kid()
		}
		// Folding first lets `delete (1 + 2)` see a constant.
		if err := fold.Constants(p.arena, kid, false); err != nil {
			return p.fail(kid, errors.ErrOverRecursed)
		}
		if kid.Type == lexer.LP && kid.Op != lexer.OpSetCall &&
			!p.makeSetCall(kid, errors.ErrBadDeleteOperand) {
			return nil
		}
		pn.SetKid(kid)
		return pn

	case lexer.ERROR:
		return p.fail(nil, errors.ErrSyntax)
	}

	p.ts.UngetToken()
	pn := p.memberExpr(true)
	if pn == nil {
		return nil
	}

	// Postfix operators must be on the operand's line.
	if p.onCurrentLine(pn) {
		tt = p.ts.PeekTokenSameLine()
		if tt == lexer.INC || tt == lexer.DEC {
			p.ts.GetToken()
			pn2 := p.arena.NewUnary(tt, lexer.OpNop, p.tokSpan(), nil)
			if !p.setIncOpKid(pn2, pn, tt, false) {
				return nil
			}
			pn2.Pos.Begin = pn.Pos.Begin
			pn = pn2
		}
	}
	return pn
}

// arrayIndex reports whether s is the canonical form of an array index.
func arrayIndex(s string) (uint32, bool) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == 1<<32-1 || strconv.FormatUint(v, 10) != s {
		return 0, false
	}
	return uint32(v), true
}

func (p *Parser) memberExpr(allowCall bool) *ast.Node {
	var pn *ast.Node

	tt := p.getOperand()
	if tt == lexer.NEW {
		span := p.tokSpan()
		ctor := p.memberExpr(false)
		if ctor == nil {
			return nil
		}
		pn = p.arena.NewList(lexer.NEW, lexer.OpNew, span)
		pn.Append(ctor)
		pn.Pos.End = ctor.Pos.End
		if p.ts.MatchToken(lexer.LP) {
			if !p.argumentList(pn) {
				return nil
			}
			pn.Pos.End = p.tokEnd()
		}
	} else {
		pn = p.primaryExpr(tt, false)
		if pn == nil {
			return nil
		}
	}

	for {
		var pn2 *ast.Node
		tt = p.ts.GetToken()
		switch {
		case tt == lexer.DOT:
			if p.getName() != lexer.NAME {
				return p.fail(nil, errors.ErrNameAfterDot)
			}
			pn2 = p.arena.New(lexer.DOT, lexer.OpGetProp, ast.Name,
				ast.Span{Begin: pn.Pos.Begin, End: p.tokEnd()})
			pn2.SetAtom(p.ts.Current().Value)
			pn2.SetExpr(pn)

		case tt == lexer.LB:
			index := p.expr()
			if index == nil {
				return nil
			}
			if !p.mustMatch(lexer.RB, errors.ErrBracketInIndex) {
				return nil
			}
			span := ast.Span{Begin: pn.Pos.Begin, End: p.tokEnd()}

			// o["p"] is o.p, and o["3"] is o[3].
			if index.Type == lexer.STRING {
				if i, ok := arrayIndex(index.Atom()); ok {
					index.MakeNullary(lexer.NUMBER, lexer.OpNumber)
					index.SetNumber(float64(i))
				} else {
					pn2 = p.arena.New(lexer.DOT, lexer.OpGetProp, ast.Name, span)
					pn2.SetAtom(index.Atom())
					pn2.SetExpr(pn)
					p.arena.Recycle(index)
					break
				}
			}
			pn2 = p.arena.NewBinaryNode(lexer.LB, lexer.OpGetElem, pn, index)
			pn2.Pos = span

		case tt == lexer.LP && allowCall:
			pn2 = p.arena.NewList(lexer.LP, lexer.OpCall, ast.Span{Begin: pn.Pos.Begin})
			switch {
			case pn.Op == lexer.OpName && pn.Atom() == "eval":
				pn2.Op = lexer.OpEval
			case pn.Op == lexer.OpGetProp && (pn.Atom() == "apply" || pn.Atom() == "call"):
				pn2.Op = lexer.OpApply
			}
			pn2.Append(pn)
			if !p.argumentList(pn2) {
				return nil
			}
			pn2.Pos.End = p.tokEnd()

		case tt == lexer.ERROR:
			return p.fail(nil, errors.ErrSyntax)

		default:
			p.ts.UngetToken()
			return pn
		}
		pn = pn2
	}
}

// argumentList parses call arguments after '(' into list.
func (p *Parser) argumentList(list *ast.Node) bool {
	if p.matchOperand(lexer.RP) {
		return true
	}

	for {
		oldflags := p.tc.flags
		arg := p.assignExpr()
		if arg == nil {
			return false
		}
		if arg.Type == lexer.YIELD && p.ts.PeekToken() == lexer.COMMA {
			p.fail(arg, errors.ErrBadGeneratorSyntax, "yield")
			return false
		}
		if p.ts.MatchToken(lexer.FOR) {
			arg = p.generatorExpr(oldflags, arg)
			if arg == nil {
				return false
			}
			if list.Count() > 1 || p.ts.PeekToken() == lexer.COMMA {
				p.fail(arg, errors.ErrBadGeneratorSyntax, "generator")
				return false
			}
		}
		list.Append(arg)
		if !p.ts.MatchToken(lexer.COMMA) {
			break
		}
	}

	if p.ts.GetToken() != lexer.RP {
		p.fail(nil, errors.ErrParenAfterArgs)
		return false
	}
	return true
}

// bracketedExpr parses an expression in which 'in' is always an operator.
func (p *Parser) bracketedExpr() *ast.Node {
	oldflags := p.tc.flags
	p.tc.flags &^= ast.InForInit
	pn := p.expr()
	p.tc.flags = oldflags | (p.tc.flags & funFlags)
	return pn
}

// parenExpr parses the inside of parentheses. When genexp is not nil it
// reports whether the contents were a generator expression, in which case
// the closing parenthesis has been consumed.
func (p *Parser) parenExpr(genexp *bool) *ast.Node {
	oldflags := p.tc.flags
	begin := p.ts.Current()
	if genexp != nil {
		*genexp = false
	}

	pn := p.bracketedExpr()
	if pn == nil || !p.ts.MatchToken(lexer.FOR) {
		return pn
	}

	if pn.Type == lexer.YIELD {
		return p.fail(pn, errors.ErrBadGeneratorSyntax, "yield")
	}
	if pn.Type == lexer.COMMA && pn.Arity == ast.List {
		return p.fail(pn.Last(), errors.ErrBadGeneratorSyntax, "generator")
	}
	pn = p.generatorExpr(oldflags, pn)
	if pn == nil {
		return nil
	}
	pn.Pos.Begin = ast.SpanOf(begin).Begin
	if genexp != nil {
		if p.ts.GetToken() != lexer.RP {
			return p.fail(nil, errors.ErrBadGeneratorSyntax, "generator")
		}
		pn.Pos.End = p.tokEnd()
		*genexp = true
	}
	return pn
}

// keepsParens reports whether a parenthesized expression needs its RP node.
// Member and primary expressions do not.
func keepsParens(pn *ast.Node, afterDot bool) bool {
	if pn.Type == lexer.RP {
		return false
	}
	if afterDot {
		return true
	}
	switch pn.Op {
	case lexer.OpGetProp, lexer.OpGetElem, lexer.OpCall, lexer.OpEval, lexer.OpApply,
		lexer.OpName, lexer.OpNumber, lexer.OpString, lexer.OpRegExp,
		lexer.OpTrue, lexer.OpFalse, lexer.OpNull, lexer.OpThis:
		return false
	}
	return true
}

func (p *Parser) primaryExpr(tt lexer.TokenType, afterDot bool) *ast.Node {
	tok := p.ts.Current()
	switch tt {
	case lexer.FUNCTION:
		return p.functionDef(true, ast.FunExpression)

	case lexer.LB:
		return p.arrayLiteral()

	case lexer.LC:
		return p.objectLiteral()

	case lexer.LET:
		return p.letBlock(false)

	case lexer.LP:
		span := p.tokSpan()
		genexp := false
		pn := p.parenExpr(&genexp)
		if pn == nil {
			return nil
		}
		if genexp {
			return pn
		}
		if !p.mustMatch(lexer.RP, errors.ErrParenInParen) {
			return nil
		}
		if !keepsParens(pn, afterDot) {
			pn.Pos.End = p.tokEnd()
			return pn
		}
		rp := p.arena.NewUnary(lexer.RP, lexer.OpNop, span, pn)
		rp.Pos.End = p.tokEnd()
		return rp

	case lexer.STRING:
		return p.arena.NewString(tok.Value, ast.SpanOf(tok))

	case lexer.NAME:
		if tok.Value == "arguments" {
			p.tc.flags |= ast.FunUsesArguments
		}
		return p.arena.NewName(tok.Value, ast.SpanOf(tok))

	case lexer.OBJECT:
		pn := p.arena.NewNullary(lexer.OBJECT, lexer.OpRegExp, tok)
		pn.SetAtom(tok.Value)
		pn.SetRegExpFlags(tok.Flags)
		return pn

	case lexer.NUMBER:
		if text := p.source.Content[tok.StartPos:tok.EndPos]; isBadOctal(text) {
			p.warn(nil, errors.ErrBadOctal, text)
		}
		return p.arena.NewNumber(tok.Number, ast.SpanOf(tok))

	case lexer.PRIMARY:
		return p.arena.NewNullary(lexer.PRIMARY, tok.Op, tok)
	}
	return p.fail(nil, errors.ErrSyntax)
}

func (p *Parser) arrayLiteral() *ast.Node {
	pn := p.arena.NewList(lexer.RB, lexer.OpNewInit, p.tokSpan())
	if p.matchOperand(lexer.RB) {
		pn.Pos.End = p.tokEnd()
		return pn
	}

	index := 0
	for ; ; index++ {
		tt := p.peekOperand()
		if tt == lexer.RB {
			pn.AddExtra(ast.EndComma)
			break
		}
		var elem *ast.Node
		if tt == lexer.COMMA {
			p.ts.GetToken()
			elem = p.arena.NewNullary(lexer.COMMA, lexer.OpNop, p.ts.Current())
		} else {
			elem = p.assignExpr()
			if elem == nil {
				return nil
			}
		}
		pn.Append(elem)
		if tt != lexer.COMMA && !p.ts.MatchToken(lexer.COMMA) {
			break
		}
	}

	// [expr for (...)] is an array comprehension.
	if index == 0 && pn.Count() == 1 && p.ts.MatchToken(lexer.FOR) {
		pn.Type = lexer.ARRAYCOMP
		exp := pn.Head()
		pn.SetElements(nil)
		tail := p.comprehensionTail(lexer.ARRAYPUSH, lexer.OpArrayPush, exp)
		if tail == nil {
			return nil
		}
		pn.Append(tail)
	}

	if !p.mustMatch(lexer.RB, errors.ErrBracketAfterList) {
		return nil
	}
	pn.Pos.End = p.tokEnd()
	return pn
}

func (p *Parser) objectLiteral() *ast.Node {
	pn := p.arena.NewList(lexer.RC, lexer.OpNewInit, p.tokSpan())
	afterComma := false
	for {
		tt := p.getName()
		tok := p.ts.Current()
		var key *ast.Node
		switch tt {
		case lexer.NUMBER:
			key = p.arena.NewNumber(tok.Number, ast.SpanOf(tok))
		case lexer.STRING:
			key = p.arena.NewString(tok.Value, ast.SpanOf(tok))
		case lexer.NAME:
			if tok.Value == "get" || tok.Value == "set" {
				if accessor := p.accessorProperty(tok.Value == "get"); accessor != nil {
					pn.Append(accessor)
					goto next
				} else if p.err != nil {
					return nil
				}
			}
			key = p.arena.NewName(tok.Value, ast.SpanOf(tok))
		case lexer.RC:
			if afterComma {
				p.warn(nil, errors.ErrTrailingComma)
			}
			pn.Pos.End = p.tokEnd()
			return pn
		default:
			return p.fail(nil, errors.ErrBadPropID)
		}

		if p.ts.GetToken() != lexer.COLON {
			tt = p.ts.Current().Type
			if tt != lexer.COMMA && tt != lexer.RC {
				return p.fail(nil, errors.ErrColonAfterID)
			}
			// {x, y} is shorthand for {x: x, y: y}.
			p.ts.UngetToken()
			pn.AddExtra(ast.Shorthand)
			pn.Append(p.newBinary(lexer.COLON, lexer.OpNop, key, key))
		} else {
			value := p.assignExpr()
			if value == nil {
				return nil
			}
			pn.Append(p.newBinary(lexer.COLON, lexer.OpNop, key, value))
		}

	next:
		tt = p.ts.GetToken()
		if tt == lexer.RC {
			pn.Pos.End = p.tokEnd()
			return pn
		}
		if tt != lexer.COMMA {
			return p.fail(nil, errors.ErrCurlyAfterList)
		}
		afterComma = true
	}
}

// accessorProperty parses `get name() {...}` or `set name(v) {...}` after
// the get or set. It returns nil with no error reported when the word is
// an ordinary property name.
func (p *Parser) accessorProperty(getter bool) *ast.Node {
	if p.getName() != lexer.NAME {
		p.ts.UngetToken()
		return nil
	}
	tok := p.ts.Current()
	key := p.arena.NewName(tok.Value, ast.SpanOf(tok))

	op, kind := lexer.OpSetter, ast.FunSetter
	if getter {
		op, kind = lexer.OpGetter, ast.FunGetter
	}
	fn := p.functionDef(true, kind)
	if fn == nil {
		return nil
	}
	return p.newBinary(lexer.COLON, op, key, fn)
}

// isBadOctal reports a literal with a leading zero that the scanner read
// as decimal because it has an 8 or 9 in it.
func isBadOctal(text string) bool {
	if len(text) < 2 || text[0] != '0' {
		return false
	}
	bad := false
	for i := 1; i < len(text); i++ {
		switch c := text[i]; {
		case c == '8' || c == '9':
			bad = true
		case c < '0' || c > '9':
			return false
		}
	}
	return bad
}
