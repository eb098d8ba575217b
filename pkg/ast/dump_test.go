package ast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"jscore/pkg/lexer"
)

func TestDumpShapes(t *testing.T) {
	a := NewArena()

	str := a.NewString("pt", Span{})
	plus := a.NewList(lexer.PLUS, lexer.OpAdd, Span{})
	plus.Append(str)
	plus.Append(a.NewName("x", Span{}))
	plus.AddExtra(StrCat | CantFold)

	assert.Equal(t, `(+[strcat,cantfold] "pt" x)`, Dump(plus))

	eq := a.NewBinaryNode(lexer.EQOP, lexer.OpStrictEq, a.NewName("a", Span{}), a.NewNumber(0.5, Span{}))
	assert.Equal(t, "(EQOP:stricteq a 0.5)", Dump(eq))

	tru := a.New(lexer.PRIMARY, lexer.OpTrue, Nullary, Span{})
	hook := a.NewTernary(lexer.HOOK, lexer.OpNop, Span{}, tru, a.NewNumber(1, Span{}), nil)
	assert.Equal(t, "(? true 1 nil)", Dump(hook))

	decl := a.NewName("v", Span{})
	decl.Op = lexer.OpSetName
	decl.SetExpr(a.NewNumber(3, Span{}))
	assert.Equal(t, "(NAME:setname v 3)", Dump(decl))

	body := a.NewList(lexer.LC, lexer.OpNop, Span{})
	fn := a.NewFunc(lexer.OpLambda, Span{}, &FunctionBox{Name: "f", Params: []*Node{a.NewName("p", Span{})}}, body)
	assert.Equal(t, "(FUNCTION:lambda f [p] ({))", Dump(fn))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "3", FormatNumber(3))
	assert.Equal(t, "-0", FormatNumber(math.Copysign(0, -1)))
	assert.Equal(t, "NaN", FormatNumber(math.NaN()))
	assert.Equal(t, "Infinity", FormatNumber(math.Inf(1)))
	assert.Equal(t, "0.1", FormatNumber(0.1))
	assert.Equal(t, "1e+21", FormatNumber(1e21))
	assert.Equal(t, "123456789", FormatNumber(123456789))
}

func TestDumpIndent(t *testing.T) {
	a := NewArena()
	body := a.NewList(lexer.LC, lexer.OpNop, Span{})
	body.Append(a.NewUnary(lexer.SEMI, lexer.OpNop, Span{}, a.NewNumber(1, Span{})))
	assert.Equal(t, "({\n  (; 1)\n)\n", DumpIndent(body))
}
