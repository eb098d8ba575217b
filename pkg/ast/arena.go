package ast

import "jscore/pkg/lexer"

const chunkSize = 256

// Metrics counts node traffic for one compilation.
type Metrics struct {
	Parsenodes    int // nodes handed out, fresh or recycled
	Recyclednodes int // nodes returned to the free list
	Maxparsenodes int // high-water mark of live nodes
}

// Live is the number of nodes currently in use.
func (m Metrics) Live() int { return m.Parsenodes - m.Recyclednodes }

// Arena allocates nodes for a single compilation. Nodes live in fixed-size
// chunks, so a *Node stays valid for the arena's lifetime. Recycled nodes
// go on a free list and are handed out again before new chunk space is
// used. An Arena is not safe for concurrent use.
type Arena struct {
	chunks [][]Node
	used   int   // nodes used in the last chunk
	free   *Node // free list, linked through next
	m      Metrics
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Metrics returns a snapshot of the arena's counters.
func (a *Arena) Metrics() Metrics { return a.m }

// FreeLen returns the length of the free list.
func (a *Arena) FreeLen() int {
	n := 0
	for pn := a.free; pn != nil; pn = pn.next {
		n++
	}
	return n
}

// New returns a zeroed node of the given shape, reusing a recycled node
// when one is available. Reusing a node reclaims its immediate kids onto
// the free list; deeper descendants are reclaimed when those kids are
// reused in turn.
func (a *Arena) New(tt lexer.TokenType, op lexer.Op, arity Arity, pos Span) *Node {
	pn := a.free
	if pn == nil {
		pn = a.alloc()
	} else {
		a.free = pn.next
		a.reclaimKids(pn)
		*pn = Node{}
	}
	pn.Type = tt
	pn.Op = op
	pn.Arity = arity
	pn.Pos = pos
	if arity == List {
		pn.InitList()
	}

	a.m.Parsenodes++
	if live := a.m.Live(); live > a.m.Maxparsenodes {
		a.m.Maxparsenodes = live
	}
	return pn
}

func (a *Arena) alloc() *Node {
	if len(a.chunks) == 0 || a.used == chunkSize {
		a.chunks = append(a.chunks, make([]Node, chunkSize))
		a.used = 0
	}
	pn := &a.chunks[len(a.chunks)-1][a.used]
	a.used++
	return pn
}

func (a *Arena) reclaimKids(pn *Node) {
	switch pn.Arity {
	case Func:
		a.Recycle(pn.body)
	case List:
		if pn.head != nil {
			// Splice the whole chain onto the free list.
			pn.tail.next = a.free
			a.free = pn.head
			a.m.Recyclednodes += pn.count
		}
	case Ternary:
		a.Recycle(pn.kid1)
		a.Recycle(pn.kid2)
		a.Recycle(pn.kid3)
	case Binary:
		// Shorthand object patterns share one node on both sides.
		if pn.left != pn.right {
			a.Recycle(pn.left)
		}
		a.Recycle(pn.right)
	case Unary:
		a.Recycle(pn.kid)
	case Name:
		a.Recycle(pn.expr)
	}
}

// Recycle pushes pn onto the free list and returns the node that followed
// it in its list. pn's kids stay attached until pn is reused.
func (a *Arena) Recycle(pn *Node) *Node {
	if pn == nil {
		return nil
	}
	if pn == a.free {
		panic("ast: node recycled twice")
	}
	next := pn.next
	pn.next = a.free
	a.free = pn
	a.m.Recyclednodes++
	return next
}

// NewNullary is New for a literal or primary taken from tok.
func (a *Arena) NewNullary(tt lexer.TokenType, op lexer.Op, tok lexer.Token) *Node {
	return a.New(tt, op, Nullary, SpanOf(tok))
}

// NewNumber returns a NUMBER node for v.
func (a *Arena) NewNumber(v float64, pos Span) *Node {
	pn := a.New(lexer.NUMBER, lexer.OpNumber, Nullary, pos)
	pn.number = v
	return pn
}

// NewString returns a STRING node for s.
func (a *Arena) NewString(s string, pos Span) *Node {
	pn := a.New(lexer.STRING, lexer.OpString, Nullary, pos)
	pn.atom = s
	return pn
}

// NewName returns a NAME node for ident.
func (a *Arena) NewName(ident string, pos Span) *Node {
	pn := a.New(lexer.NAME, lexer.OpName, Name, pos)
	pn.atom = ident
	return pn
}

// NewUnary returns a unary node whose span covers kid when kid is given.
func (a *Arena) NewUnary(tt lexer.TokenType, op lexer.Op, pos Span, kid *Node) *Node {
	pn := a.New(tt, op, Unary, pos)
	pn.kid = kid
	if kid != nil && kid.Pos.End.Offset > pos.End.Offset {
		pn.Pos.End = kid.Pos.End
	}
	return pn
}

// NewBinaryNode returns a binary node spanning left and right. The parser's
// list-flattening constructor is built on top of this.
func (a *Arena) NewBinaryNode(tt lexer.TokenType, op lexer.Op, left, right *Node) *Node {
	pos := Span{}
	if left != nil {
		pos.Begin = left.Pos.Begin
		pos.End = left.Pos.End
	}
	if right != nil {
		if left == nil {
			pos.Begin = right.Pos.Begin
		}
		pos.End = right.Pos.End
	}
	pn := a.New(tt, op, Binary, pos)
	pn.left, pn.right = left, right
	return pn
}

// NewTernary returns a ternary node.
func (a *Arena) NewTernary(tt lexer.TokenType, op lexer.Op, pos Span, kid1, kid2, kid3 *Node) *Node {
	pn := a.New(tt, op, Ternary, pos)
	pn.kid1, pn.kid2, pn.kid3 = kid1, kid2, kid3
	return pn
}

// NewList returns an empty list node.
func (a *Arena) NewList(tt lexer.TokenType, op lexer.Op, pos Span) *Node {
	return a.New(tt, op, List, pos)
}

// NewFunc returns a function node.
func (a *Arena) NewFunc(op lexer.Op, pos Span, fun *FunctionBox, body *Node) *Node {
	pn := a.New(lexer.FUNCTION, op, Func, pos)
	pn.fun = fun
	pn.body = body
	if fun != nil {
		pn.tflag = fun.Flags
	}
	return pn
}
