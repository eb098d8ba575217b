// Package ast defines the parse tree shared by the parser, the constant
// folder and the evaluator.
//
// A Node is labelled by token type, with an operation hint when the type
// alone is ambiguous. Its Arity selects which group of fields is valid;
// the accessors for each group panic when used on a node of another arity,
// so reading the wrong arm is caught at the point of access.
//
// Left-associated binary chains of the same type and operator are kept as
// flat lists (see parser.NewBinary). || and && chains are lists as well.
package ast

import (
	"fmt"

	"jscore/pkg/lexer"
)

// Arity is the shape discriminant of a Node.
type Arity int8

const (
	Nullary Arity = iota // literal or primary; Atom, Number
	Unary                // Kid
	Binary               // Left, Right
	Ternary              // Kid1, Kid2, Kid3
	List                 // Head, Count, Extra
	Name                 // Atom, Expr
	Func                 // Fun, Body, Flags
)

func (a Arity) String() string {
	switch a {
	case Nullary:
		return "nullary"
	case Unary:
		return "unary"
	case Binary:
		return "binary"
	case Ternary:
		return "ternary"
	case List:
		return "list"
	case Name:
		return "name"
	case Func:
		return "func"
	}
	return fmt.Sprintf("Arity(%d)", int8(a))
}

// Pos is a point in the source.
type Pos struct {
	Line   int // 1-based
	Column int // 1-based, in runes
	Offset int // 0-based byte offset
}

// Span is the source extent of a node.
type Span struct {
	Begin Pos
	End   Pos
}

// SpanOf returns the extent of a token.
func SpanOf(tok lexer.Token) Span {
	return Span{
		Begin: Pos{Line: tok.Line, Column: tok.Column, Offset: tok.StartPos},
		End:   Pos{Line: tok.EndLine, Column: tok.EndColumn, Offset: tok.EndPos},
	}
}

// ListExtra are flags kept on list nodes.
type ListExtra uint16

const (
	StrCat     ListExtra = 1 << iota // PLUS list has a string term
	CantFold                         // PLUS list has an unfoldable term
	PopVar                           // VAR last result needs popping
	ForInVar                         // VAR is the left kid of IN under FOR
	EndComma                         // array literal has a comma at the end
	XMLRoot                          // top-most node in an XML literal tree
	GroupInit                        // var [a, b] = [c, d]; unit list
	NeedBraces                       // braces necessary due to closure
	FuncDefs                         // contains top-level function statements
	Shorthand                        // object destructuring shorthand ({x, y})
)

// TreeFlags describe a function body, collected while parsing it.
type TreeFlags uint16

const (
	InFunction       TreeFlags = 1 << iota // parsing inside function body
	ReturnExpr                             // function has 'return expr;'
	ReturnVoid                             // function has 'return;'
	InForInit                              // parsing init expr of for; exclude 'in'
	FunIsGenerator                         // parsed yield in function
	HasFunctionStmt                        // block contains a function statement
	GenexpLambda                           // lambda from a generator expression
	FunUsesArguments                       // body mentions 'arguments'

	ReturnFlags = ReturnExpr | ReturnVoid
)

// IterFlags select for-in semantics; kept on FOR binary nodes and on
// runtime iterators.
type IterFlags uint8

const (
	IterEnumerate IterFlags = 1 << iota // for-in style enumeration
	IterForEach                         // produce values rather than keys
	IterKeyValue                        // produce [key, value] pairs
)

// FunctionBox carries what the evaluator needs to build a function object.
type FunctionBox struct {
	Name   string  // "" for anonymous functions
	Params []*Node // NAME nodes, or RB/RC patterns for destructuring formals
	Flags  TreeFlags
	Kind   FunctionKind
	// ExprClosure marks `function (x) expr`; the body is a RETURN statement.
	ExprClosure bool
}

// FunctionKind tells declarations apart from expressions.
type FunctionKind uint8

const (
	FunDeclaration FunctionKind = iota
	FunExpression
	FunGetter
	FunSetter
)

// IsGenerator reports whether the body contains yield.
func (f *FunctionBox) IsGenerator() bool { return f.Flags&FunIsGenerator != 0 }

// Node is a parse tree node. Nodes are allocated from an Arena.
type Node struct {
	Type  lexer.TokenType
	Op    lexer.Op
	Arity Arity
	Pos   Span

	next *Node // link in a list, or in the arena free list

	// Valid when Arity is Nullary or Name.
	atom string

	// Nullary
	atom2  string
	number float64
	flags  string // regexp flags

	// Unary
	kid    *Node
	hidden bool

	// Binary
	left, right *Node
	iflags      IterFlags

	// Ternary
	kid1, kid2, kid3 *Node

	// List
	head, tail *Node
	count      int
	extra      ListExtra

	// Name
	expr    *Node
	isConst bool

	// Func
	fun   *FunctionBox
	body  *Node
	tflag TreeFlags
}

func (n *Node) check(arities ...Arity) {
	for _, a := range arities {
		if n.Arity == a {
			return
		}
	}
	panic(fmt.Sprintf("ast: %s node of type %s accessed as %v", n.Arity, n.Type, arities))
}

// Next returns the following node in the enclosing list.
func (n *Node) Next() *Node { return n.next }

// SetNext relinks n in its list. Callers keep the list's tail and count
// consistent.
func (n *Node) SetNext(next *Node) { n.next = next }

// --- Nullary and Name ---

// Atom is the name, string value, label or property name of the node.
func (n *Node) Atom() string {
	n.check(Nullary, Name)
	return n.atom
}

func (n *Node) SetAtom(s string) {
	n.check(Nullary, Name)
	n.atom = s
}

// --- Nullary ---

// Number is the value of a NUMBER node.
func (n *Node) Number() float64 {
	n.check(Nullary)
	return n.number
}

func (n *Node) SetNumber(v float64) {
	n.check(Nullary)
	n.number = v
}

// Atom2 is the second string of a pair, e.g. XML processing instruction data.
func (n *Node) Atom2() string {
	n.check(Nullary)
	return n.atom2
}

func (n *Node) SetAtom2(s string) {
	n.check(Nullary)
	n.atom2 = s
}

// RegExpFlags returns the flags of a regular expression literal.
func (n *Node) RegExpFlags() string {
	n.check(Nullary)
	return n.flags
}

func (n *Node) SetRegExpFlags(s string) {
	n.check(Nullary)
	n.flags = s
}

// --- Unary ---

func (n *Node) Kid() *Node {
	n.check(Unary)
	return n.kid
}

func (n *Node) SetKid(k *Node) {
	n.check(Unary)
	n.kid = k
}

// Hidden marks the YIELD synthesized for a generator expression.
func (n *Node) Hidden() bool {
	n.check(Unary)
	return n.hidden
}

func (n *Node) SetHidden(h bool) {
	n.check(Unary)
	n.hidden = h
}

// --- Binary ---

func (n *Node) Left() *Node {
	n.check(Binary)
	return n.left
}

func (n *Node) Right() *Node {
	n.check(Binary)
	return n.right
}

func (n *Node) SetLeft(k *Node) {
	n.check(Binary)
	n.left = k
}

func (n *Node) SetRight(k *Node) {
	n.check(Binary)
	n.right = k
}

// IterFlags are the for-in flags of a FOR node.
func (n *Node) IterFlags() IterFlags {
	n.check(Binary)
	return n.iflags
}

func (n *Node) SetIterFlags(f IterFlags) {
	n.check(Binary)
	n.iflags = f
}

// --- Ternary ---

func (n *Node) Kid1() *Node {
	n.check(Ternary)
	return n.kid1
}

func (n *Node) Kid2() *Node {
	n.check(Ternary)
	return n.kid2
}

func (n *Node) Kid3() *Node {
	n.check(Ternary)
	return n.kid3
}

func (n *Node) SetKid1(k *Node) {
	n.check(Ternary)
	n.kid1 = k
}

func (n *Node) SetKid2(k *Node) {
	n.check(Ternary)
	n.kid2 = k
}

func (n *Node) SetKid3(k *Node) {
	n.check(Ternary)
	n.kid3 = k
}

// --- List ---

// Head is the first node of the list, or nil.
func (n *Node) Head() *Node {
	n.check(List)
	return n.head
}

// Count is the number of nodes in the list.
func (n *Node) Count() int {
	n.check(List)
	return n.count
}

// Last returns the final node of a non-empty list.
func (n *Node) Last() *Node {
	n.check(List)
	return n.tail
}

func (n *Node) Extra() ListExtra {
	n.check(List)
	return n.extra
}

func (n *Node) SetExtra(x ListExtra) {
	n.check(List)
	n.extra = x
}

// AddExtra sets flags in addition to those already present.
func (n *Node) AddExtra(x ListExtra) {
	n.check(List)
	n.extra |= x
}

// HasExtra reports whether all of x are set.
func (n *Node) HasExtra(x ListExtra) bool {
	n.check(List)
	return n.extra&x == x
}

// InitList makes n an empty list.
func (n *Node) InitList() {
	n.Arity = List
	n.head, n.tail = nil, nil
	n.count = 0
	n.extra = 0
}

// InitList1 makes n a list holding k alone.
func (n *Node) InitList1(k *Node) {
	n.Arity = List
	k.next = nil
	n.head, n.tail = k, k
	n.count = 1
	n.extra = 0
}

// Append adds k at the end of the list.
func (n *Node) Append(k *Node) {
	n.check(List)
	k.next = nil
	if n.tail == nil {
		n.head = k
	} else {
		n.tail.next = k
	}
	n.tail = k
	n.count++
}

// Prepend adds k at the start of the list.
func (n *Node) Prepend(k *Node) {
	n.check(List)
	k.next = n.head
	n.head = k
	if n.tail == nil {
		n.tail = k
	}
	n.count++
}

// Elements returns the list's nodes in order.
func (n *Node) Elements() []*Node {
	n.check(List)
	out := make([]*Node, 0, n.count)
	for k := n.head; k != nil; k = k.next {
		out = append(out, k)
	}
	return out
}

// SetElements replaces the list's nodes, relinking them in order. Extra
// flags are kept.
func (n *Node) SetElements(kids []*Node) {
	n.check(List)
	n.head, n.tail = nil, nil
	n.count = 0
	for _, k := range kids {
		n.Append(k)
	}
}

// --- Name ---

// Expr is the initializer of a declared name, the object of a DOT access,
// the statement of a label, or the body of a LEXICALSCOPE.
func (n *Node) Expr() *Node {
	n.check(Name)
	return n.expr
}

func (n *Node) SetExpr(k *Node) {
	n.check(Name)
	n.expr = k
}

// IsConst marks names bound by const.
func (n *Node) IsConst() bool {
	n.check(Name)
	return n.isConst
}

func (n *Node) SetConst(c bool) {
	n.check(Name)
	n.isConst = c
}

// --- Func ---

func (n *Node) Fun() *FunctionBox {
	n.check(Func)
	return n.fun
}

func (n *Node) SetFun(f *FunctionBox) {
	n.check(Func)
	n.fun = f
}

// Body is the LC list of the function's statements.
func (n *Node) Body() *Node {
	n.check(Func)
	return n.body
}

func (n *Node) SetBody(b *Node) {
	n.check(Func)
	n.body = b
}

// Flags are the tree flags of the function body.
func (n *Node) Flags() TreeFlags {
	n.check(Func)
	return n.tflag
}

func (n *Node) SetFlags(f TreeFlags) {
	n.check(Func)
	n.tflag = f
}

// --- Whole-node operations ---

// MoveNode moves src's contents into dst, keeping dst's position and list
// link, and clears src so that recycling it does not touch the kids that
// now belong to dst.
func MoveNode(dst, src *Node) {
	next, pos := dst.next, dst.Pos
	*dst = *src
	dst.next, dst.Pos = next, pos
	ClearNode(src)
}

// ClearNode turns n into an inert nullary node.
func ClearNode(n *Node) {
	n.Type = lexer.EOF
	n.Op = lexer.OpNop
	n.Arity = Nullary
}

// MakeNullary turns n into a nullary node in place, dropping any kids.
func (n *Node) MakeNullary(tt lexer.TokenType, op lexer.Op) {
	*n = Node{Type: tt, Op: op, Arity: Nullary, Pos: n.Pos, next: n.next}
}

// MakeBinary turns n into a binary node in place.
func (n *Node) MakeBinary(tt lexer.TokenType, op lexer.Op, left, right *Node) {
	n.Type = tt
	n.Op = op
	n.Arity = Binary
	n.left, n.right = left, right
	n.iflags = 0
}

// IsConstant reports whether n is a literal: a number, a string, or a
// primary other than this.
func (n *Node) IsConstant() bool {
	return n.Type == lexer.NUMBER || n.Type == lexer.STRING ||
		(n.Type == lexer.PRIMARY && n.Op != lexer.OpThis)
}

// IsPrimary reports whether n is the primary literal op.
func (n *Node) IsPrimary(op lexer.Op) bool {
	return n.Type == lexer.PRIMARY && n.Op == op
}

// IsName reports whether n is a plain identifier reference.
func (n *Node) IsName() bool {
	return n.Type == lexer.NAME && n.Arity == Name
}

// IsElision reports whether n is an array hole.
func (n *Node) IsElision() bool {
	return n.Type == lexer.COMMA && n.Arity == Nullary
}
