package fold

import (
	"jscore/pkg/ast"
	"jscore/pkg/jsnum"
	"jscore/pkg/lexer"
)

// Boolish classifies the truth value of pn: 1 for true, 0 for false and
// -1 when it is not known before run time.
func Boolish(pn *ast.Node) int {
	switch pn.Op {
	case lexer.OpNumber:
		if pn.Arity != ast.Nullary {
			return -1
		}
		if jsnum.Truthy(pn.Number()) {
			return 1
		}
		return 0

	case lexer.OpString:
		if pn.Arity != ast.Nullary {
			return -1
		}
		if pn.Atom() != "" {
			return 1
		}
		return 0

	case lexer.OpCall:
		// A generator expression evaluates to an object and has no other
		// effect.
		if pn.Arity != ast.List || pn.Count() != 1 {
			return -1
		}
		head := pn.Head()
		if head.Type != lexer.FUNCTION || head.Arity != ast.Func || head.Flags()&ast.GenexpLambda == 0 {
			return -1
		}
		return 1

	case lexer.OpDefFun, lexer.OpNamedFunObj, lexer.OpAnonFunObj, lexer.OpThis, lexer.OpTrue:
		return 1

	case lexer.OpNull, lexer.OpFalse:
		return 0
	}
	return -1
}

// StartsWith reports whether the source text of pn begins with a token of
// type tt.
func StartsWith(pn *ast.Node, tt lexer.TokenType) bool {
	for pn != nil {
		if pn.Type == tt {
			return true
		}
		switch pn.Arity {
		case ast.Func:
			return tt == lexer.FUNCTION
		case ast.List:
			pn = pn.Head()
		case ast.Ternary:
			pn = pn.Kid1()
		case ast.Binary:
			pn = pn.Left()
		case ast.Unary:
			if pn.Type == lexer.RP {
				return tt == lexer.LP
			}
			pn = pn.Kid()
		case ast.Name:
			if pn.Type != lexer.DOT {
				return false
			}
			pn = pn.Expr()
		default:
			return false
		}
	}
	return false
}

// containsStmt returns the first node of type tt within the statement pn,
// without descending into expressions.
func containsStmt(pn *ast.Node, tt lexer.TokenType) *ast.Node {
	if pn == nil {
		return nil
	}
	if pn.Type == tt {
		return pn
	}
	switch pn.Arity {
	case ast.List:
		for k := pn.Head(); k != nil; k = k.Next() {
			if found := containsStmt(k, tt); found != nil {
				return found
			}
		}
	case ast.Ternary:
		if found := containsStmt(pn.Kid1(), tt); found != nil {
			return found
		}
		if found := containsStmt(pn.Kid2(), tt); found != nil {
			return found
		}
		return containsStmt(pn.Kid3(), tt)
	case ast.Binary:
		// Binary operators are expressions.
		if pn.Op != lexer.OpNop {
			return nil
		}
		if found := containsStmt(pn.Left(), tt); found != nil {
			return found
		}
		if pn.Right() == pn.Left() {
			return nil
		}
		return containsStmt(pn.Right(), tt)
	case ast.Unary:
		if pn.Op != lexer.OpNop {
			return nil
		}
		return containsStmt(pn.Kid(), tt)
	case ast.Name:
		return containsStmt(pn.Expr(), tt)
	}
	return nil
}

// FoldType converts a number literal to a string literal or the reverse.
// Other nodes are left alone.
func FoldType(pn *ast.Node, tt lexer.TokenType) {
	if pn.Type == tt {
		return
	}
	switch tt {
	case lexer.NUMBER:
		if pn.Type == lexer.STRING {
			d := jsnum.Parse(pn.Atom())
			pn.MakeNullary(lexer.NUMBER, lexer.OpNumber)
			pn.SetNumber(d)
		}
	case lexer.STRING:
		if pn.Type == lexer.NUMBER {
			s := jsnum.ToString(pn.Number())
			pn.MakeNullary(lexer.STRING, lexer.OpString)
			pn.SetAtom(s)
		}
	}
}

var arithOps = map[lexer.Op]jsnum.ArithOp{
	lexer.OpAdd:    jsnum.Add,
	lexer.OpSub:    jsnum.Sub,
	lexer.OpMul:    jsnum.Mul,
	lexer.OpDiv:    jsnum.Div,
	lexer.OpMod:    jsnum.Mod,
	lexer.OpLsh:    jsnum.Lsh,
	lexer.OpRsh:    jsnum.Rsh,
	lexer.OpUrsh:   jsnum.Ursh,
	lexer.OpBitOr:  jsnum.BitOr,
	lexer.OpBitXor: jsnum.BitXor,
	lexer.OpBitAnd: jsnum.BitAnd,
}

// FoldBinaryNumeric applies op to the number literals pn1 and pn2 and
// turns pn into the result. pn1 or pn2 may be pn itself; operands that
// are not are recycled. Non-arithmetic ops leave all three alone.
func FoldBinaryNumeric(a *ast.Arena, op lexer.Op, pn1, pn2, pn *ast.Node) {
	aop, ok := arithOps[op]
	if !ok {
		return
	}
	d := jsnum.Arith(aop, pn1.Number(), pn2.Number())
	if pn1 != pn {
		a.Recycle(pn1)
	}
	if pn2 != pn {
		a.Recycle(pn2)
	}
	pn.MakeNullary(lexer.NUMBER, lexer.OpNumber)
	pn.SetNumber(d)
}
