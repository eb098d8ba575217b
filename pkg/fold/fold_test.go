package fold_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jscore/pkg/ast"
	"jscore/pkg/fold"
	"jscore/pkg/lexer"
	"jscore/pkg/parser"
	"jscore/pkg/source"
)

func parse(t *testing.T, src string) (*parser.Parser, *ast.Node) {
	t.Helper()
	p := parser.NewParser(source.NewEvalSource(src), parser.DefaultOptions())
	pn, diags := p.ParseProgram()
	require.NotNil(t, pn, "parse %q: %v", src, diags)
	return p, pn
}

func folded(t *testing.T, src string) (*parser.Parser, *ast.Node) {
	t.Helper()
	p, pn := parse(t, src)
	require.NoError(t, fold.Constants(p.Arena(), pn, false))
	return p, pn
}

// foldedExpr folds src and returns the expression of its first statement.
func foldedExpr(t *testing.T, src string) *ast.Node {
	t.Helper()
	_, pn := folded(t, src)
	stmt := pn.Head()
	require.Equal(t, lexer.SEMI, stmt.Type)
	return stmt.Kid()
}

// firstStmt dumps the first statement of src, unfolded.
func firstStmt(t *testing.T, src string) string {
	t.Helper()
	_, pn := parse(t, src)
	return ast.Dump(pn.Head())
}

func TestChainsFoldLeftToRight(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1+2+3+4", "10"},
		{"2*3*4", "24"},
		{"100-10-1", "89"},
		{"2*3-1", "5"},
		{"64/4/2", "8"},
		{"1<<3", "8"},
		{"-1>>>28", "15"},
		{"-16>>2", "-4"},
		{"7%3", "1"},
		{"7/0", "Infinity"},
		{"-7/0", "-Infinity"},
		{"0/0", "NaN"},
		{"5%0", "NaN"},
		{`"6"*"7"`, "42"},
		{`1+"2"*3`, "7"},
		{"a*2*3", "(* a 2 3)"},
		{"2*3*a", "(* 2 3 a)"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, ast.Dump(foldedExpr(t, tt.src)))
		})
	}
}

func TestStringFoldingKeepsOrder(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`1 + 2 + "pt"`, `"3pt"`},
		{`"pt" + 1 + 2`, `"pt12"`},
		{`"a" + "b" + "c"`, `"abc"`},
		{`"n" + 1.5`, `"n1.5"`},
		{`"z" + -0`, `"z0"`},
		{`"big" + 1e21`, `"big1e+21"`},
		{`"a" + x + "b"`, `(+[strcat,cantfold] "a" x "b")`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, ast.Dump(foldedExpr(t, tt.src)))
		})
	}
}

func TestConcatenationRecyclesOperands(t *testing.T) {
	p, pn := parse(t, `"a" + "b" + "c";`)
	before, free := p.Metrics(), p.Arena().FreeLen()
	require.NoError(t, fold.Constants(p.Arena(), pn, false))
	after := p.Metrics()
	assert.Equal(t, before.Recyclednodes+3, after.Recyclednodes)
	assert.Equal(t, free+3, p.Arena().FreeLen())
	assert.Equal(t, before.Live()-3, after.Live())
}

func TestCompoundAssignment(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x *= 2 * 3", "(=:mul (NAME:setname x) 6)"},
		{`x -= "3"`, "(=:sub (NAME:setname x) 3)"},
		{`x += 1 + "a"`, `(=:add (NAME:setname x) "1a")`},
		{"x = 1 + 2", "(= (NAME:setname x) 3)"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, ast.Dump(foldedExpr(t, tt.src)))
		})
	}
}

func TestUnaryFolding(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"~5", "-6"},
		{"-(2*3)", "-6"},
		{"+4", "4"},
		{"!0", "true"},
		{"!1", "false"},
		{"!true", "false"},
		{"!!null", "false"},
		{`!""`, "true"},
		{"typeof 1", "(UNARYOP:typeof 1)"},
		{"void 0", "(UNARYOP:void 0)"},
		{"-x", "(UNARYOP:neg x)"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, ast.Dump(foldedExpr(t, tt.src)))
		})
	}
}

func TestFoldingIsIdempotent(t *testing.T) {
	sources := []string{
		`var s = "pt" + 1 + 2, n = 1 + 2 + 3 * 4;`,
		`if (0) { a(); } else { b(); }`,
		`if (x) { y = 2 * 3; }`,
		`while (1 && x && 0) { x--; }`,
		`for (; true; ) { if (!0) break; }`,
		`z = 1 ? {p: 2} : 3;`,
		`function f(a) { return a ? -(1 << 4) : "q" + 1; }`,
		`g = (v for (v in o) if (0));`,
		`do { n++; } while (0 || n < 3);`,
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			p, pn := folded(t, src)
			once := ast.Dump(pn)
			recycled := p.Metrics().Recyclednodes

			require.NoError(t, fold.Constants(p.Arena(), pn, false))
			assert.Equal(t, once, ast.Dump(pn))
			assert.Equal(t, recycled, p.Metrics().Recyclednodes)
		})
	}
}

func TestDeadBranchElimination(t *testing.T) {
	tests := []struct {
		src  string
		want string // source whose first statement is the expected result
	}{
		{"if (0) { a(); } else { b(); }", "{ b(); }"},
		{"if (1) { a(); } else { b(); }", "{ a(); }"},
		{`if ("") a(); else b();`, "b();"},
		{`if ("s") a(); else b();`, "a();"},
		{"if (null) a(); else { b(); c(); }", "{ b(); c(); }"},
		{"if ((true)) a();", "a();"},
		{"if (0 || 1) a();", "a();"},
		{"if (!0) a();", "a();"},
		{"if (x for (x in o)) a();", "a();"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, pn := folded(t, tt.src)
			assert.Equal(t, firstStmt(t, tt.want), ast.Dump(pn.Head()))
			assert.Equal(t, 1, pn.Count())
		})
	}
}

func TestFalseBranchWithoutElseBecomesEmptyBlock(t *testing.T) {
	for _, src := range []string{"if (0) a();", "if (false) { a(); }", "if (1) ;", "if (null) {}"} {
		_, pn := folded(t, src)
		head := pn.Head()
		assert.Equal(t, lexer.LC, head.Type, src)
		assert.Equal(t, ast.List, head.Arity, src)
		assert.Equal(t, 0, head.Count(), src)
	}
}

func TestIfWithVarIsKept(t *testing.T) {
	for _, src := range []string{
		"if (0) { var v = 1; } else { w(); }",
		"if (1) { w(); } else { var v = 1; }",
	} {
		_, pn := folded(t, src)
		assert.Equal(t, lexer.IF, pn.Head().Type, src)
	}

	_, pn := folded(t, "if (0) { w(); } else { x(); }")
	assert.NotEqual(t, lexer.IF, pn.Head().Type)
}

func TestHookSelectsBranch(t *testing.T) {
	assert.Equal(t, "2", ast.Dump(foldedExpr(t, "1 ? 2 : 3")))
	assert.Equal(t, "b", ast.Dump(foldedExpr(t, `"" ? a : b`)))
	assert.Equal(t, "b", ast.Dump(foldedExpr(t, "null ? a : b")))
	assert.Equal(t, "(? x 1 2)", ast.Dump(foldedExpr(t, "x ? 1 : 2")))

	// An object literal must not end up at the start of a statement.
	e := foldedExpr(t, "true ? {p: 1} : 3")
	require.Equal(t, lexer.RP, e.Type)
	require.Equal(t, ast.Unary, e.Arity)
	assert.Equal(t, lexer.RC, e.Kid().Type)
}

func TestLogicalConditionsArePruned(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"while (1) {}", "true"},
		{"while (0 || x) {}", "x"},
		{"while (x || 0) {}", "(|| x false)"},
		{"while (1 && x && 0) {}", "(&& x false)"},
		{"while (x || 1 || y) {}", "(|| x true)"},
		{"while (x || y || z) {}", "(|| x y z)"},
		{"while (0 && x) {}", "false"},
		{`while ("" || "" || x) {}`, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, pn := folded(t, tt.src)
			loop := pn.Head()
			require.Equal(t, lexer.WHILE, loop.Type)
			assert.Equal(t, tt.want, ast.Dump(loop.Left()))
		})
	}
}

func TestLogicalOutsideConditionIsKept(t *testing.T) {
	assert.Equal(t, "(|| 0 x)", ast.Dump(foldedExpr(t, "0 || x")))
}

func TestDoWhileConditionFolds(t *testing.T) {
	_, pn := folded(t, "do { x(); } while (0);")
	loop := pn.Head()
	require.Equal(t, lexer.DO, loop.Type)
	assert.Equal(t, "false", ast.Dump(loop.Right()))
}

func TestForHeadDropsTrueCondition(t *testing.T) {
	for _, src := range []string{"for (;true;) {}", "for (i = 0; 1; i++) {}", "for (;;) {}"} {
		_, pn := folded(t, src)
		head := pn.Head().Left()
		require.Equal(t, lexer.FORHEAD, head.Type, src)
		assert.Nil(t, head.Kid2(), src)
	}

	_, pn := folded(t, "for (; i < 2 * 5; ) {}")
	assert.Equal(t, "(RELOP:lt i 10)", ast.Dump(pn.Head().Left().Kid2()))
}

func TestGeneratorExpressionKeepsTrailingIfZero(t *testing.T) {
	e := foldedExpr(t, "(x for (x in o) if (0))")
	require.Equal(t, lexer.LP, e.Type)
	lambda := e.Head()
	require.Equal(t, lexer.FUNCTION, lambda.Type)

	scope := lambda.Body()
	require.Equal(t, lexer.LEXICALSCOPE, scope.Type)
	loop := scope.Expr()
	require.Equal(t, lexer.FOR, loop.Type)
	guard := loop.Right()
	require.Equal(t, lexer.IF, guard.Type)
	assert.Equal(t, "false", ast.Dump(guard.Kid1()))

	// The same guard in an ordinary generator is dead code.
	_, pn := folded(t, "function g() { for (x in o) if (0) yield x; }")
	body := pn.Head().Body()
	loop = body.Head()
	require.Equal(t, lexer.FOR, loop.Type)
	assert.Equal(t, lexer.LC, loop.Right().Type)
	assert.Equal(t, 0, loop.Right().Count())
}

func TestFoldsInsideFunctionsAndMembers(t *testing.T) {
	_, pn := folded(t, "function f() { return 2 * 21; }")
	ret := pn.Head().Body().Head()
	require.Equal(t, lexer.RETURN, ret.Type)
	assert.Equal(t, "42", ast.Dump(ret.Kid()))

	e := foldedExpr(t, "(1 + 2 * 3).toString")
	require.Equal(t, lexer.DOT, e.Type)
	assert.Equal(t, "7", ast.Dump(stripRP(e.Expr())))
}

func stripRP(pn *ast.Node) *ast.Node {
	for pn.Type == lexer.RP {
		pn = pn.Kid()
	}
	return pn
}

func TestBoolish(t *testing.T) {
	a := ast.NewArena()
	var at ast.Span
	prim := func(op lexer.Op) *ast.Node { return a.New(lexer.PRIMARY, op, ast.Nullary, at) }

	assert.Equal(t, 1, fold.Boolish(a.NewNumber(3, at)))
	assert.Equal(t, 0, fold.Boolish(a.NewNumber(0, at)))
	assert.Equal(t, 0, fold.Boolish(a.NewNumber(math.NaN(), at)))
	assert.Equal(t, 1, fold.Boolish(a.NewString("x", at)))
	assert.Equal(t, 0, fold.Boolish(a.NewString("", at)))
	assert.Equal(t, 1, fold.Boolish(prim(lexer.OpTrue)))
	assert.Equal(t, 1, fold.Boolish(prim(lexer.OpThis)))
	assert.Equal(t, 0, fold.Boolish(prim(lexer.OpFalse)))
	assert.Equal(t, 0, fold.Boolish(prim(lexer.OpNull)))
	assert.Equal(t, -1, fold.Boolish(a.NewName("x", at)))

	fn := a.NewFunc(lexer.OpAnonFunObj, at, &ast.FunctionBox{}, a.NewList(lexer.LC, lexer.OpNop, at))
	assert.Equal(t, 1, fold.Boolish(fn))

	genexp := foldedExpr(t, "(x for (x in o))")
	assert.Equal(t, 1, fold.Boolish(genexp))
	call := foldedExpr(t, "f(function () {})")
	assert.Equal(t, -1, fold.Boolish(call))
}

func TestStartsWith(t *testing.T) {
	a := ast.NewArena()
	var at ast.Span

	obj := a.NewList(lexer.RC, lexer.OpNewInit, at)
	dot := a.New(lexer.DOT, lexer.OpGetProp, ast.Name, at)
	dot.SetAtom("p")
	dot.SetExpr(obj)
	call := a.NewList(lexer.LP, lexer.OpCall, at)
	call.Append(dot)
	assert.True(t, fold.StartsWith(call, lexer.RC))
	assert.False(t, fold.StartsWith(call, lexer.FUNCTION))

	rp := a.NewUnary(lexer.RP, lexer.OpNop, at, a.NewList(lexer.RC, lexer.OpNewInit, at))
	assert.True(t, fold.StartsWith(rp, lexer.LP))
	assert.False(t, fold.StartsWith(rp, lexer.RC))

	fn := a.NewFunc(lexer.OpAnonFunObj, at, &ast.FunctionBox{}, a.NewList(lexer.LC, lexer.OpNop, at))
	bin := a.NewBinaryNode(lexer.STAR, lexer.OpMul, fn, a.NewNumber(1, at))
	assert.True(t, fold.StartsWith(bin, lexer.FUNCTION))
	assert.False(t, fold.StartsWith(bin, lexer.RC))
}

func TestFoldType(t *testing.T) {
	a := ast.NewArena()
	var at ast.Span

	tests := []struct {
		in   string
		want float64
	}{
		{"12", 12},
		{" 0x1F ", 31},
		{"", 0},
		{"-Infinity", math.Inf(-1)},
		{"1e3", 1000},
	}
	for _, tt := range tests {
		pn := a.NewString(tt.in, at)
		fold.FoldType(pn, lexer.NUMBER)
		require.Equal(t, lexer.NUMBER, pn.Type, tt.in)
		assert.Equal(t, lexer.OpNumber, pn.Op)
		assert.Equal(t, tt.want, pn.Number(), tt.in)
	}

	junk := a.NewString("12abc", at)
	fold.FoldType(junk, lexer.NUMBER)
	assert.True(t, math.IsNaN(junk.Number()))

	for v, want := range map[float64]string{
		math.Copysign(0, -1): "0",
		1e21:                 "1e+21",
		1.5e-7:               "1.5e-7",
		0.000001:             "0.000001",
		-42.5:                "-42.5",
	} {
		pn := a.NewNumber(v, at)
		fold.FoldType(pn, lexer.STRING)
		require.Equal(t, lexer.STRING, pn.Type)
		assert.Equal(t, want, pn.Atom())
	}

	name := a.NewName("x", at)
	fold.FoldType(name, lexer.NUMBER)
	assert.Equal(t, lexer.NAME, name.Type)
}

func TestFoldBinaryNumeric(t *testing.T) {
	a := ast.NewArena()
	var at ast.Span

	pn := a.NewBinaryNode(lexer.SHOP, lexer.OpLsh, a.NewNumber(1, at), a.NewNumber(33, at))
	fold.FoldBinaryNumeric(a, pn.Op, pn.Left(), pn.Right(), pn)
	assert.Equal(t, "2", ast.Dump(pn))
	assert.Equal(t, 2, a.Metrics().Recyclednodes)

	neg := a.NewBinaryNode(lexer.DIVOP, lexer.OpDiv, a.NewNumber(1, at), a.NewNumber(math.Copysign(0, -1), at))
	fold.FoldBinaryNumeric(a, neg.Op, neg.Left(), neg.Right(), neg)
	assert.True(t, math.IsInf(neg.Number(), -1))
}

func TestXMLRunsJoin(t *testing.T) {
	a := ast.NewArena()
	var at ast.Span
	text := func(tt lexer.TokenType, s string) *ast.Node {
		pn := a.New(tt, lexer.OpString, ast.Nullary, at)
		pn.SetAtom(s)
		return pn
	}

	tag := a.NewList(lexer.XMLSTAGO, lexer.OpNop, at)
	tag.Append(text(lexer.XMLNAME, "a"))
	tag.Append(text(lexer.XMLNAME, "id"))
	tag.Append(text(lexer.XMLATTR, `x"y`))
	require.NoError(t, fold.Constants(a, tag, false))
	assert.Equal(t, lexer.XMLTEXT, tag.Type)
	assert.Equal(t, `<a id="x&quot;y">`, tag.Atom())

	root := a.NewList(lexer.XMLPTAGC, lexer.OpNop, at)
	root.AddExtra(ast.XMLRoot)
	root.Append(text(lexer.XMLNAME, "br"))
	require.NoError(t, fold.Constants(a, root, false))
	assert.Equal(t, lexer.XMLELEM, root.Type)
	require.Equal(t, 1, root.Count())
	assert.Equal(t, "<br/>", root.Head().Atom())

	list := a.NewList(lexer.XMLLIST, lexer.OpNop, at)
	list.Append(text(lexer.XMLTEXT, "a"))
	list.Append(text(lexer.XMLCDATA, "b"))
	list.Append(a.NewName("x", at))
	pi := text(lexer.XMLPI, "php")
	pi.SetAtom2("echo")
	list.Append(pi)
	require.NoError(t, fold.Constants(a, list, false))
	kids := list.Elements()
	require.Len(t, kids, 3)
	assert.Equal(t, "a<![CDATA[b]]>", kids[0].Atom())
	assert.Equal(t, "x", ast.Dump(kids[1]))
	assert.Equal(t, "<?php echo?>", kids[2].Atom())
}
