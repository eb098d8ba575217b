// Package fold rewrites constant subexpressions of a parse tree in place.
//
// Folding runs after parsing, bottom-up. Literal arithmetic and string
// concatenation collapse to a single literal, if and ?: with a literal
// condition collapse to the branch taken, and expressions evaluated only
// for their truth value collapse to true or false where that is known.
// Nodes removed from the tree go back to the arena's free list.
package fold

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"jscore/pkg/ast"
	"jscore/pkg/jsnum"
	"jscore/pkg/lexer"
)

// maxDepth bounds the recursion of a single fold.
const maxDepth = 10000

// ErrTooDeep is returned when the tree nests deeper than the folder recurses.
var ErrTooDeep = errors.New("fold: tree nested too deeply")

type folder struct {
	arena *ast.Arena
	flags ast.TreeFlags // flags of the innermost enclosing function
	depth int
}

// Constants folds the tree rooted at pn. inCond is set when pn is
// evaluated only for its truth value, as the condition of an if or a
// loop. Folding is always optional: a subtree that cannot be folded is
// left alone, and the only error is ErrTooDeep.
func Constants(a *ast.Arena, pn *ast.Node, inCond bool) error {
	f := &folder{arena: a}
	return f.fold(pn, inCond)
}

func (f *folder) fold(pn *ast.Node, inCond bool) error {
	f.depth++
	defer func() { f.depth-- }()
	if f.depth > maxDepth {
		return ErrTooDeep
	}

	if err := f.foldKids(pn, inCond); err != nil {
		return err
	}

	switch pn.Type {
	case lexer.IF:
		if containsStmt(pn.Kid2(), lexer.VAR) != nil || containsStmt(pn.Kid3(), lexer.VAR) != nil {
			break
		}
		fallthrough
	case lexer.HOOK:
		if !f.foldBranch(pn) {
			return nil
		}

	case lexer.OR, lexer.AND:
		if inCond {
			if pn.Arity == ast.List {
				f.pruneLogicalList(pn)
			} else {
				f.pruneLogical(pn)
			}
		}

	case lexer.ASSIGN:
		// Compound assignments fold like their operator, in case the right
		// side is constant.
		switch pn.Op {
		case lexer.OpNop:
		case lexer.OpAdd:
			if !f.foldPlus(pn) {
				return nil
			}
		default:
			f.foldNumeric(pn)
		}

	case lexer.PLUS:
		if !f.foldPlus(pn) {
			return nil
		}

	case lexer.STAR, lexer.SHOP, lexer.MINUS, lexer.DIVOP:
		f.foldNumeric(pn)

	case lexer.UNARYOP:
		if !f.foldUnary(pn) {
			return nil
		}

	case lexer.XMLELEM, lexer.XMLLIST, lexer.XMLPTAGC, lexer.XMLSTAGO, lexer.XMLETAGO, lexer.XMLNAME:
		if pn.Arity == ast.List {
			FoldXMLConstants(f.arena, pn)
		}
	}

	if inCond {
		if cond := Boolish(pn); cond >= 0 {
			if pn.Arity == ast.List {
				for k := pn.Head(); k != nil; {
					k = f.arena.Recycle(k)
				}
			}
			op := lexer.OpFalse
			if cond == 1 {
				op = lexer.OpTrue
			}
			pn.MakeNullary(lexer.PRIMARY, op)
		}
	}
	return nil
}

// foldKids folds the children of pn, deciding which of them are
// evaluated only for their truth value.
func (f *folder) foldKids(pn *ast.Node, inCond bool) error {
	switch pn.Arity {
	case ast.Func:
		if pn.Body() == nil {
			return nil
		}
		oldflags := f.flags
		f.flags = pn.Flags()
		err := f.fold(pn.Body(), false)
		f.flags = oldflags
		return err

	case ast.List:
		cond := inCond && (pn.Type == lexer.OR || pn.Type == lexer.AND)
		for k := pn.Head(); k != nil; k = k.Next() {
			if err := f.fold(k, cond); err != nil {
				return err
			}
		}

	case ast.Ternary:
		// Any kid may be missing, as in for (;;).
		if k := pn.Kid1(); k != nil {
			if err := f.fold(k, pn.Type == lexer.IF); err != nil {
				return err
			}
		}
		if k := pn.Kid2(); k != nil {
			if err := f.fold(k, pn.Type == lexer.FORHEAD); err != nil {
				return err
			}
			// for (; true; ) needs no test.
			if pn.Type == lexer.FORHEAD && k.IsPrimary(lexer.OpTrue) {
				f.arena.Recycle(k)
				pn.SetKid2(nil)
			}
		}
		if k := pn.Kid3(); k != nil {
			return f.fold(k, false)
		}

	case ast.Binary:
		if pn.Type == lexer.OR || pn.Type == lexer.AND {
			if err := f.fold(pn.Left(), inCond); err != nil {
				return err
			}
			return f.fold(pn.Right(), inCond)
		}
		// The left kid is missing for the default case of a switch.
		if k := pn.Left(); k != nil {
			if err := f.fold(k, pn.Type == lexer.WHILE); err != nil {
				return err
			}
		}
		if k := pn.Right(); k != nil {
			return f.fold(k, pn.Type == lexer.DO)
		}

	case ast.Unary:
		// return; has no kid.
		if k := pn.Kid(); k != nil {
			return f.fold(k, (inCond && pn.Type == lexer.RP) || pn.Op == lexer.OpNot)
		}

	case ast.Name:
		// Only the object left of the first dot in a member chain can hold
		// a constant.
		k := pn.Expr()
		for k != nil && k.Arity == ast.Name {
			k = k.Expr()
		}
		if k != nil {
			return f.fold(k, false)
		}
	}
	return nil
}

// foldBranch replaces an if statement or ?: expression whose condition is
// a literal with the branch it selects. It returns false when the
// condition is not a literal.
func (f *folder) foldBranch(pn *ast.Node) bool {
	cond, then, els := pn.Kid1(), pn.Kid2(), pn.Kid3()
	lit := cond
	for lit.Type == lexer.RP {
		lit = lit.Kid()
	}

	taken := then
	switch lit.Type {
	case lexer.NUMBER, lexer.STRING:
		if Boolish(lit) == 0 {
			taken = els
		}
	case lexer.PRIMARY:
		switch lit.Op {
		case lexer.OpTrue:
		case lexer.OpFalse, lexer.OpNull:
			taken = els
		default:
			return false
		}
	default:
		return false
	}

	// A trailing if (0) stays in a generator expression.
	if taken == nil && f.flags&ast.GenexpLambda != 0 {
		return true
	}

	dropped := els
	if taken == els {
		dropped = then
	}
	f.arena.Recycle(cond)
	if dropped != nil {
		f.arena.Recycle(dropped)
	}

	if taken != nil {
		// An object literal at the start of a statement would read as a
		// block, so a ?: yielding one keeps its parentheses.
		if pn.Type == lexer.HOOK && StartsWith(taken, lexer.RC) {
			pn.Type = lexer.RP
			pn.Op = lexer.OpNop
			pn.Arity = ast.Unary
			pn.SetKid(taken)
			return true
		}
		ast.MoveNode(pn, taken)
		f.arena.Recycle(taken)
	}

	// A false condition with no else, or an empty statement moved up,
	// leaves an empty block.
	if taken == nil || (pn.Type == lexer.SEMI && pn.Arity == ast.Unary && pn.Kid() == nil) {
		pn.Type = lexer.LC
		pn.Op = lexer.OpNop
		pn.InitList()
	}
	return true
}

// pruneLogicalList drops the operands of a || or && list in a condition
// whose truth value is known and cannot decide the result, and cuts the
// list after an operand that decides it.
func (f *folder) pruneLogicalList(pn *ast.Node) {
	decides := 0
	if pn.Type == lexer.OR {
		decides = 1
	}

	kids := pn.Elements()
	keep := make([]*ast.Node, 0, len(kids))
	for i, k := range kids {
		cond := Boolish(k)
		if cond == decides {
			keep = append(keep, k)
			for _, rest := range kids[i+1:] {
				f.arena.Recycle(rest)
			}
			break
		}
		if cond != -1 && len(keep)+len(kids)-i > 1 {
			f.arena.Recycle(k)
			continue
		}
		keep = append(keep, k)
	}
	pn.SetElements(keep)

	switch len(keep) {
	case 2:
		keep[0].SetNext(nil)
		pn.MakeBinary(pn.Type, pn.Op, keep[0], keep[1])
	case 1:
		ast.MoveNode(pn, keep[0])
		f.arena.Recycle(keep[0])
	}
}

func (f *folder) pruneLogical(pn *ast.Node) {
	decides := 0
	if pn.Type == lexer.OR {
		decides = 1
	}
	left, right := pn.Left(), pn.Right()
	switch cond := Boolish(left); {
	case cond == decides:
		f.arena.Recycle(right)
		ast.MoveNode(pn, left)
		f.arena.Recycle(left)
	case cond != -1:
		f.arena.Recycle(left)
		ast.MoveNode(pn, right)
		f.arena.Recycle(right)
	}
}

// foldPlus folds a + chain or a += assignment. Any string operand makes
// it a concatenation. It returns false when an operand is not a literal.
func (f *folder) foldPlus(pn *ast.Node) bool {
	if pn.Arity == ast.List {
		if pn.HasExtra(ast.CantFold) {
			return false
		}
		if pn.Extra() != ast.StrCat {
			f.foldNumeric(pn)
			return true
		}

		n := 0
		for k := pn.Head(); k != nil; k = k.Next() {
			FoldType(k, lexer.STRING)
			if k.Type != lexer.STRING {
				return false
			}
			n += len(k.Atom())
		}
		var sb strings.Builder
		sb.Grow(n)
		for k := pn.Head(); k != nil; {
			sb.WriteString(k.Atom())
			k = f.arena.Recycle(k)
		}
		pn.MakeNullary(lexer.STRING, lexer.OpString)
		pn.SetAtom(sb.String())
		return true
	}

	left, right := pn.Left(), pn.Right()
	if left.Type == lexer.STRING || right.Type == lexer.STRING {
		if left.Type != lexer.STRING {
			FoldType(left, lexer.STRING)
		} else {
			FoldType(right, lexer.STRING)
		}
		if left.Type != lexer.STRING || right.Type != lexer.STRING {
			return false
		}
		s := left.Atom() + right.Atom()
		f.arena.Recycle(left)
		f.arena.Recycle(right)
		pn.MakeNullary(lexer.STRING, lexer.OpString)
		pn.SetAtom(s)
		return true
	}

	f.foldNumeric(pn)
	return true
}

// foldNumeric converts string literal operands to numbers and, when every
// operand is then a number, folds the operation left to right.
func (f *folder) foldNumeric(pn *ast.Node) {
	op := pn.Op
	if pn.Arity == ast.Binary {
		left, right := pn.Left(), pn.Right()
		FoldType(left, lexer.NUMBER)
		FoldType(right, lexer.NUMBER)
		if left.Type == lexer.NUMBER && right.Type == lexer.NUMBER {
			FoldBinaryNumeric(f.arena, op, left, right, pn)
		}
		return
	}

	for k := pn.Head(); k != nil; k = k.Next() {
		FoldType(k, lexer.NUMBER)
	}
	for k := pn.Head(); k != nil; k = k.Next() {
		if k.Type != lexer.NUMBER {
			return
		}
	}
	pn1 := pn.Head()
	pn2 := pn1.Next()
	pn3 := pn2.Next()
	FoldBinaryNumeric(f.arena, op, pn1, pn2, pn)
	for pn2 = pn3; pn2 != nil; pn2 = pn3 {
		pn3 = pn2.Next()
		FoldBinaryNumeric(f.arena, op, pn, pn2, pn)
	}
}

// foldUnary folds a unary operator applied to a literal. It returns false
// when nothing was folded and pn keeps its truth value unknown.
func (f *folder) foldUnary(pn *ast.Node) bool {
	outer := pn.Kid()
	if outer == nil {
		return true
	}
	kid := outer
	for kid.Type == lexer.RP {
		kid = kid.Kid()
	}

	switch kid.Type {
	case lexer.NUMBER:
		d := kid.Number()
		switch pn.Op {
		case lexer.OpBitNot:
			d = float64(^jsnum.ToInt32(d))
		case lexer.OpNeg:
			d = -d
		case lexer.OpPos:
		case lexer.OpNot:
			op := lexer.OpFalse
			if d == 0 || math.IsNaN(d) {
				op = lexer.OpTrue
			}
			f.arena.Recycle(outer)
			pn.MakeNullary(lexer.PRIMARY, op)
			return false
		default:
			return false
		}
		f.arena.Recycle(outer)
		pn.MakeNullary(lexer.NUMBER, lexer.OpNumber)
		pn.SetNumber(d)

	case lexer.PRIMARY:
		if pn.Op == lexer.OpNot && (kid.Op == lexer.OpTrue || kid.Op == lexer.OpFalse) {
			ast.MoveNode(pn, kid)
			if pn.Op == lexer.OpTrue {
				pn.Op = lexer.OpFalse
			} else {
				pn.Op = lexer.OpTrue
			}
			// The parenthesis chain ends in kid, which moving cleared.
			f.arena.Recycle(outer)
		}
	}
	return true
}
