package ast

import (
	"math"
	"strconv"
	"strings"

	"jscore/pkg/lexer"
)

// Dump renders n as an S-expression, one node per parenthesized group.
// Literals and plain names print bare:
//
//	1 + x * "s"   =>   (+ 1 (* x "s"))
func Dump(n *Node) string {
	var sb strings.Builder
	dump(&sb, n)
	return sb.String()
}

// DumpIndent renders n like Dump, but puts each statement of a block on
// its own line. Used for human-facing output.
func DumpIndent(n *Node) string {
	var sb strings.Builder
	dumpIndent(&sb, n, 0)
	return sb.String()
}

func dumpIndent(sb *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n != nil && n.Arity == List && n.Type == lexer.LC {
		sb.WriteString(indent)
		sb.WriteString("({\n")
		for k := n.head; k != nil; k = k.next {
			dumpIndent(sb, k, depth+1)
		}
		sb.WriteString(indent)
		sb.WriteString(")\n")
		return
	}
	sb.WriteString(indent)
	dump(sb, n)
	sb.WriteByte('\n')
}

// FormatNumber formats a numeric literal the way scripts print numbers.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		if math.Signbit(v) {
			return "-0"
		}
		return "0"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func dump(sb *strings.Builder, n *Node) {
	if n == nil {
		sb.WriteString("nil")
		return
	}

	switch n.Arity {
	case Nullary:
		switch n.Type {
		case lexer.NUMBER:
			sb.WriteString(FormatNumber(n.number))
		case lexer.STRING:
			sb.WriteString(strconv.Quote(n.atom))
		case lexer.PRIMARY:
			sb.WriteString(n.Op.String())
		case lexer.OBJECT:
			sb.WriteString("/" + n.atom + "/" + n.flags)
		case lexer.COMMA:
			sb.WriteString("<hole>")
		case lexer.EOF:
			sb.WriteString("<cleared>")
		default:
			head(sb, n)
			if n.atom != "" {
				sb.WriteByte(' ')
				sb.WriteString(strconv.Quote(n.atom))
			}
			if n.atom2 != "" {
				sb.WriteByte(' ')
				sb.WriteString(strconv.Quote(n.atom2))
			}
			sb.WriteByte(')')
		}
		return

	case Name:
		if n.Type == lexer.NAME && n.expr == nil && (n.Op == lexer.OpName || n.Op == lexer.OpNop) {
			sb.WriteString(n.atom)
			return
		}
		head(sb, n)
		if n.atom != "" {
			sb.WriteByte(' ')
			sb.WriteString(n.atom)
		}
		if n.expr != nil {
			sb.WriteByte(' ')
			dump(sb, n.expr)
		}
		sb.WriteByte(')')
		return
	}

	head(sb, n)
	switch n.Arity {
	case Unary:
		if n.kid != nil {
			sb.WriteByte(' ')
			dump(sb, n.kid)
		}
	case Binary:
		sb.WriteByte(' ')
		dump(sb, n.left)
		sb.WriteByte(' ')
		dump(sb, n.right)
	case Ternary:
		for _, k := range []*Node{n.kid1, n.kid2, n.kid3} {
			sb.WriteByte(' ')
			dump(sb, k)
		}
	case List:
		for k := n.head; k != nil; k = k.next {
			sb.WriteByte(' ')
			dump(sb, k)
		}
	case Func:
		if n.fun != nil {
			if n.fun.Name != "" {
				sb.WriteByte(' ')
				sb.WriteString(n.fun.Name)
			}
			sb.WriteString(" [")
			for i, p := range n.fun.Params {
				if i > 0 {
					sb.WriteByte(' ')
				}
				dump(sb, p)
			}
			sb.WriteByte(']')
		}
		sb.WriteByte(' ')
		dump(sb, n.body)
	}
	sb.WriteByte(')')
}

func head(sb *strings.Builder, n *Node) {
	sb.WriteByte('(')
	sb.WriteString(string(n.Type))
	if showOp(n) {
		sb.WriteByte(':')
		sb.WriteString(n.Op.String())
	}
	if n.Arity == List && n.extra != 0 {
		sb.WriteString(extraString(n.extra))
	}
}

// showOp hides hints that are implied by the node type.
func showOp(n *Node) bool {
	switch n.Op {
	case lexer.OpNop:
		return false
	case lexer.OpAdd:
		return n.Type != lexer.PLUS
	case lexer.OpSub:
		return n.Type != lexer.MINUS
	case lexer.OpMul:
		return n.Type != lexer.STAR
	case lexer.OpOr:
		return n.Type != lexer.OR
	case lexer.OpAnd:
		return n.Type != lexer.AND
	case lexer.OpBitOr:
		return n.Type != lexer.BITOR
	case lexer.OpBitXor:
		return n.Type != lexer.BITXOR
	case lexer.OpBitAnd:
		return n.Type != lexer.BITAND
	case lexer.OpIn:
		return n.Type != lexer.IN
	case lexer.OpInstanceof:
		return n.Type != lexer.INSTANCEOF
	}
	return true
}

var extraNames = []struct {
	flag ListExtra
	name string
}{
	{StrCat, "strcat"},
	{CantFold, "cantfold"},
	{PopVar, "popvar"},
	{ForInVar, "forinvar"},
	{EndComma, "endcomma"},
	{XMLRoot, "xmlroot"},
	{GroupInit, "groupinit"},
	{NeedBraces, "needbraces"},
	{FuncDefs, "funcdefs"},
	{Shorthand, "shorthand"},
}

func extraString(x ListExtra) string {
	var parts []string
	for _, e := range extraNames {
		if x&e.flag != 0 {
			parts = append(parts, e.name)
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}
