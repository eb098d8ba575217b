package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jscore/pkg/ast"
	"jscore/pkg/errors"
	"jscore/pkg/lexer"
	"jscore/pkg/source"
)

func parseWith(src string, opts Options) (*Parser, *ast.Node, []errors.Diagnostic) {
	p := NewParser(source.NewEvalSource(src), opts)
	pn, diags := p.ParseProgram()
	return p, pn, diags
}

func mustParse(t *testing.T, src string) (*Parser, *ast.Node) {
	t.Helper()
	p, pn, diags := parseWith(src, DefaultOptions())
	require.NotNil(t, pn, "parse %q: %v", src, diags)
	return p, pn
}

// firstExpr returns the expression of the first expression statement.
func firstExpr(t *testing.T, src string) *ast.Node {
	t.Helper()
	_, pn := mustParse(t, src)
	stmt := pn.Head()
	require.NotNil(t, stmt)
	require.Equal(t, lexer.SEMI, stmt.Type)
	return stmt.Kid()
}

func syntaxError(t *testing.T, diags []errors.Diagnostic) *errors.SyntaxError {
	t.Helper()
	for _, d := range diags {
		if se, ok := d.(*errors.SyntaxError); ok {
			return se
		}
	}
	require.Fail(t, "no syntax error reported")
	return nil
}

func warningNumbers(diags []errors.Diagnostic) []errors.ErrorNumber {
	var nums []errors.ErrorNumber
	for _, d := range diags {
		if w, ok := d.(*errors.Warning); ok {
			nums = append(nums, w.Number)
		}
	}
	return nums
}

func strictOptions() Options {
	opts := DefaultOptions()
	opts.Strict = true
	return opts
}

func TestLeftAssociativeChainsFlatten(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a+b+c+d", "(+[cantfold] a b c d)"},
		{"a*b*c", "(* a b c)"},
		{"a-b-c", "(- a b c)"},
		{"a||b||c", "(|| a b c)"},
		{"a<b<c", "(RELOP:lt a b c)"},
		{"a+b-c", "(- (+ a b) c)"},
		{"a=b=c", "(= (NAME:setname a) (= (NAME:setname b) c))"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, ast.Dump(firstExpr(t, tt.src)))
		})
	}

	// A parenthesized operand stays a separate node.
	pn := firstExpr(t, "a+(b+c)")
	require.Equal(t, ast.Binary, pn.Arity)
	assert.Equal(t, lexer.RP, pn.Right().Type)
}

func TestPlusFoldsNumbersEagerly(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`1 + 2 + "pt"`, `(+ 3 "pt")`},
		{`"pt" + 1 + 2`, `(+[strcat] "pt" 1 2)`},
		{"1 + 2 + 3", "6"},
		{"x + 1 + 2", "(+[cantfold] x 1 2)"},
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{`"a" + "b" + x`, `(+[strcat,cantfold] "a" "b" x)`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, ast.Dump(firstExpr(t, tt.src)))
		})
	}
}

func TestPlusFoldRecyclesRightOperand(t *testing.T) {
	p, _ := mustParse(t, "1 + 2 + 3;")
	m := p.Metrics()
	assert.Equal(t, 2, m.Recyclednodes)
	// The block, the folded number and the statement.
	assert.Equal(t, 3, m.Live())
	assert.Equal(t, 0, p.Arena().FreeLen())
}

func TestMemberAccessNormalization(t *testing.T) {
	assert.Equal(t, "(.:getprop p o)", ast.Dump(firstExpr(t, `o["p"]`)))
	assert.Equal(t, "([:getelem o 3)", ast.Dump(firstExpr(t, `o["3"]`)))
	assert.Equal(t, "(.:getprop 03 o)", ast.Dump(firstExpr(t, `o["03"]`)))
	assert.Equal(t, "([:getelem o k)", ast.Dump(firstExpr(t, "o[k]")))

	call := firstExpr(t, "eval(s)")
	assert.Equal(t, lexer.OpEval, call.Op)
	apply := firstExpr(t, "f.apply(null, a)")
	assert.Equal(t, lexer.OpApply, apply.Op)
}

func TestDestructuringDeclarationBindsNames(t *testing.T) {
	p, pn := mustParse(t, "var [a, , c] = [1, 2, 3]; var {p: d, q: [e]} = {p: 4, q: [5]};")
	for _, name := range []string{"a", "c", "d", "e"} {
		assert.Equal(t, lexer.OpDefVar, p.tc.decls[name], name)
	}
	_, declared := p.tc.decls["p"]
	assert.False(t, declared)

	assign := pn.Head().Head()
	require.Equal(t, lexer.ASSIGN, assign.Type)
	elems := assign.Left().Elements()
	require.Len(t, elems, 3)
	assert.Equal(t, lexer.OpSetName, elems[0].Op)
	assert.True(t, elems[1].IsElision())
	assert.Equal(t, lexer.OpSetName, elems[2].Op)
}

func TestConstDestructuringMarksConst(t *testing.T) {
	_, pn := mustParse(t, "const [a] = [1];")
	target := pn.Head().Head().Left().Head()
	assert.Equal(t, lexer.OpSetConst, target.Op)
	assert.True(t, target.IsConst())
}

func TestDestructuringMissingKey(t *testing.T) {
	tests := []struct {
		src  string
		name string
	}{
		{"var {a: x, q: y} = {a: 1};", "y"},
		{"var [a, b] = [1];", "b"},
		{"var [a, , c] = [1, 2, , 4];", "c"},
		{"var {a: {b: z}} = {a: {}};", "z"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, pn, diags := parseWith(tt.src, DefaultOptions())
			assert.Nil(t, pn)
			se := syntaxError(t, diags)
			assert.Equal(t, errors.ErrMissingDestructKey, se.Number)
			assert.Contains(t, se.Msg, tt.name)
		})
	}

	t.Run("disabled", func(t *testing.T) {
		opts := DefaultOptions()
		opts.RequireLiteralKeyPaths = false
		_, pn, diags := parseWith("var {a: x, q: y} = {a: 1};", opts)
		assert.NotNil(t, pn, "%v", diags)
	})

	t.Run("assignment is not checked", func(t *testing.T) {
		mustParse(t, "({a: x, q: y} = {a: 1});")
	})

	t.Run("non-literal initializer", func(t *testing.T) {
		mustParse(t, "var {a: x, q: y} = f();")
	})
}

func objectSource(props int) string {
	parts := make([]string, props)
	for i := range parts {
		parts[i] = fmt.Sprintf("k%d: %d", i, i)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func patternSource(vars int) string {
	parts := make([]string, vars)
	for i := range parts {
		parts[i] = fmt.Sprintf("k%d: v%d", i, i)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func TestDestructuringLookupEscalatesToHashTable(t *testing.T) {
	tests := []struct {
		vars, props int
		want        int
	}{
		{5, 20, 1},
		{8, 40, 1},
		{4, 20, 0},
		{5, 19, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dvars_%dprops", tt.vars, tt.props), func(t *testing.T) {
			src := "var " + patternSource(tt.vars) + " = " + objectSource(tt.props) + ";"
			p, _ := mustParse(t, src)
			assert.Equal(t, tt.want, p.HashTablesBuilt())
			for i := 0; i < tt.vars; i++ {
				assert.Equal(t, lexer.OpDefVar, p.tc.decls[fmt.Sprintf("v%d", i)])
			}
		})
	}
}

func TestFindPropertyValueLastKeyWins(t *testing.T) {
	p, pn := mustParse(t, "x = {a: 1, b: 2, a: 3};")
	lit := pn.Head().Kid().Right()
	key := p.arena.NewName("a", ast.Span{})
	got := p.findPropertyValue(lit, key, &findPropValData{numvars: 1})
	require.NotNil(t, got)
	assert.Equal(t, float64(3), got.Number())

	num := p.arena.NewNumber(7, ast.Span{})
	assert.Nil(t, p.findPropertyValue(lit, num, &findPropValData{numvars: 1}))
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		src  string
		want errors.ErrorNumber
	}{
		{"return 1;", errors.ErrBadReturnOrYield},
		{"yield 1;", errors.ErrBadReturnOrYield},
		{"function f() { yield 1; return 2; }", errors.ErrBadGeneratorReturn},
		{"(function () { yield 1; return 2; })", errors.ErrBadAnonGeneratorReturn},
		{"var [a] += 1;", errors.ErrBadVarInit},
		{"var [a];", errors.ErrBadDestructDecl},
		{"[a] += b;", errors.ErrBadDestructAss},
		{"1 = 2;", errors.ErrBadLeftsideOfAss},
		{"const x = 1; var x;", errors.ErrRedeclaredVar},
		{"var [x for (x in y)] = 1;", errors.ErrArrayCompLeftside},
		{"var {a: x} = {a, b};", errors.ErrBadObjectInit},
		{"function g() { f(yield 1, 2); }", errors.ErrBadGeneratorSyntax},
		{"function g() { (yield x for (x in y)); }", errors.ErrBadGeneratorSyntax},
		{"function g() { f(yield x for (x in y)); }", errors.ErrBadGenexpBody},
		{"(a, x for (x in y));", errors.ErrBadGeneratorSyntax},
		{"f(x for (x in y), 1);", errors.ErrBadGeneratorSyntax},
		{"[k for ([k] in o)];", errors.ErrBadForLeftside},
		{"for each (var i = 0; i < 3; i++);", errors.ErrBadForEachLoop},
		{"function f(1) {}", errors.ErrMissingFormal},
		{"function f(a {}", errors.ErrParenAfterFormal},
		{"x = 1 y = 2;", errors.ErrSemiBeforeStmnt},
		{"break;", errors.ErrToughBreak},
		{"while (x) break foo;", errors.ErrLabelNotFound},
		{"continue;", errors.ErrBadContinue},
		{"a: a: x;", errors.ErrDuplicateLabel},
		{"switch (x) { default: ; default: ; }", errors.ErrTooManyDefaults},
		{"if (x) let y = 1;", errors.ErrLetDeclNotInBlock},
		{"o.+x;", errors.ErrNameAfterDot},
		{"1++;", errors.ErrBadIncopOperand},
		{"x = 'abc", errors.ErrUnterminatedString},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, pn, diags := parseWith(tt.src, DefaultOptions())
			assert.Nil(t, pn)
			se := syntaxError(t, diags)
			assert.Equal(t, tt.want, se.Number, se.Msg)
		})
	}
}

func TestOnlyFirstErrorIsReported(t *testing.T) {
	_, _, diags := parseWith("1 = 2; 3 = 4;", DefaultOptions())
	require.Len(t, diags, 1)
	assert.True(t, errors.HasErrors(diags))
}

func TestStrictWarnings(t *testing.T) {
	tests := []struct {
		src  string
		want errors.ErrorNumber
	}{
		{"if (a = b) c;", errors.ErrEqualAsAssign},
		{"function f(a, a) {}", errors.ErrDuplicateFormal},
		{"function f() { if (x) return 1; }", errors.ErrNoReturnValue},
		{"(function () { if (x) return 1; })", errors.ErrAnonNoReturnValue},
		{"var x = 08;", errors.ErrBadOctal},
		{"1;", errors.ErrUselessExpr},
		{"x = {a: 1,};", errors.ErrTrailingComma},
		{"function f(a) { var a; }", errors.ErrVarHidesArg},
		{"function f() {} var f;", errors.ErrRedeclaredVar},
		{"function () {}", errors.ErrUnnamedFunctionStmt},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, pn, diags := parseWith(tt.src, strictOptions())
			require.NotNil(t, pn, "%v", diags)
			assert.Contains(t, warningNumbers(diags), tt.want)
			assert.False(t, errors.HasErrors(diags))

			_, pn, diags = parseWith(tt.src, DefaultOptions())
			require.NotNil(t, pn)
			assert.Empty(t, diags)
		})
	}
}

func TestArrayComprehensionShape(t *testing.T) {
	pn := firstExpr(t, "[x * 2 for (x in o) if (x)]")
	require.Equal(t, lexer.ARRAYCOMP, pn.Type)
	require.Equal(t, 1, pn.Count())

	scope := pn.Head()
	require.Equal(t, lexer.LEXICALSCOPE, scope.Type)
	loop := scope.Expr()
	require.Equal(t, lexer.FOR, loop.Type)
	assert.Equal(t, lexer.OpIter, loop.Op)
	assert.Equal(t, ast.IterEnumerate, loop.IterFlags())
	assert.Equal(t, "(IN x o)", ast.Dump(loop.Left()))

	cond := loop.Right()
	require.Equal(t, lexer.IF, cond.Type)
	push := cond.Kid2()
	require.Equal(t, lexer.ARRAYPUSH, push.Type)
	assert.Equal(t, lexer.OpArrayPush, push.Op)
	assert.Equal(t, "(* x 2)", ast.Dump(push.Kid()))
}

func TestComprehensionNestsForClauses(t *testing.T) {
	pn := firstExpr(t, "[[a, b] for each (a in x) for (b in y)]")
	outer := pn.Head().Expr()
	assert.Equal(t, ast.IterEnumerate|ast.IterForEach, outer.IterFlags())
	inner := outer.Right()
	require.Equal(t, lexer.FOR, inner.Type)
	assert.Equal(t, ast.IterEnumerate, inner.IterFlags())
	assert.Equal(t, lexer.ARRAYPUSH, inner.Right().Type)
}

func TestComprehensionKeyValuePairs(t *testing.T) {
	opts := DefaultOptions()
	opts.Version = Version17
	_, pn, diags := parseWith("[k for ([k, v] in o)];", opts)
	require.NotNil(t, pn, "%v", diags)
	loop := pn.Head().Kid().Head().Expr()
	assert.Equal(t, ast.IterEnumerate|ast.IterForEach|ast.IterKeyValue, loop.IterFlags())

	loop = firstExpr(t, "[k for ([k, v] in o)]").Head().Expr()
	assert.Equal(t, ast.IterEnumerate, loop.IterFlags())
}

func TestGeneratorExpressionShape(t *testing.T) {
	p, pn := mustParse(t, "g = (x + 1 for (x in o));")
	assert.Zero(t, p.tc.flags&ast.FunIsGenerator)

	assign := pn.Head().Kid()
	call := assign.Right()
	require.Equal(t, lexer.LP, call.Type)
	assert.Equal(t, lexer.OpCall, call.Op)
	require.Equal(t, 1, call.Count())

	lambda := call.Head()
	require.Equal(t, lexer.FUNCTION, lambda.Type)
	assert.Equal(t, lexer.OpAnonFunObj, lambda.Op)
	fun := lambda.Fun()
	assert.True(t, fun.IsGenerator())
	assert.NotZero(t, fun.Flags&ast.GenexpLambda)
	assert.Zero(t, fun.Flags&ast.FunUsesArguments)

	body := lambda.Body()
	require.Equal(t, lexer.LEXICALSCOPE, body.Type)
	stmt := body.Expr().Right()
	require.Equal(t, lexer.SEMI, stmt.Type)
	yield := stmt.Kid()
	require.Equal(t, lexer.YIELD, yield.Type)
	assert.True(t, yield.Hidden())
	assert.Equal(t, "(+ x 1)", ast.Dump(yield.Kid()))
}

func TestGeneratorExpressionTakesArgumentsFlag(t *testing.T) {
	_, pn := mustParse(t, "function f() { return (arguments[i] for (i in o)); }")
	outer := pn.Head()
	assert.Zero(t, outer.Fun().Flags&ast.FunUsesArguments)

	ret := outer.Body().Head()
	lambda := ret.Kid().Head()
	assert.NotZero(t, lambda.Fun().Flags&ast.FunUsesArguments)
}

func TestGeneratorExpressionAsSoleArgument(t *testing.T) {
	call := firstExpr(t, "f(x for (x in o))")
	require.Equal(t, 2, call.Count())
	arg := call.Elements()[1]
	assert.Equal(t, lexer.LP, arg.Type)
	assert.Equal(t, lexer.FUNCTION, arg.Head().Type)
}

func TestFunctionOps(t *testing.T) {
	_, pn := mustParse(t, "function f() {} if (x) { function g() {} } h = function k() {}; h = function () {};")
	stmts := pn.Elements()
	assert.Equal(t, lexer.OpNop, stmts[0].Op)

	block := stmts[1].Kid2()
	assert.Equal(t, lexer.OpDefFun, block.Head().Op)

	assert.Equal(t, lexer.OpNamedFunObj, stmts[2].Kid().Right().Op)
	assert.Equal(t, lexer.OpAnonFunObj, stmts[3].Kid().Right().Op)
}

func TestDestructuringFormals(t *testing.T) {
	p, pn := mustParse(t, "function f({a, b: [c]}, d) { return a + c + d; }")
	fn := pn.Head()
	fun := fn.Fun()
	require.Len(t, fun.Params, 2)
	assert.Equal(t, "%arg0", fun.Params[0].Atom())
	assert.Equal(t, "d", fun.Params[1].Atom())

	body := fn.Body()
	prologue := body.Head()
	require.Equal(t, lexer.SEMI, prologue.Type)
	list := prologue.Kid()
	require.Equal(t, lexer.COMMA, list.Type)
	assign := list.Head()
	assert.Equal(t, lexer.ASSIGN, assign.Type)
	assert.Equal(t, lexer.RC, assign.Left().Type)
	assert.Equal(t, "%arg0", assign.Right().Atom())
	assert.Equal(t, lexer.RETURN, body.Last().Type)

	assert.Zero(t, p.hashTables)
}

func TestExpressionClosure(t *testing.T) {
	_, pn := mustParse(t, "var f = function (x) x * 2;")
	fn := pn.Head().Head().Expr()
	require.Equal(t, lexer.FUNCTION, fn.Type)
	assert.True(t, fn.Fun().ExprClosure)
	assert.Equal(t, "(RETURN (* x 2))", ast.Dump(fn.Body()))
}

func TestGeneratorFunctionFlags(t *testing.T) {
	_, pn := mustParse(t, "function g() { var x = yield; yield x; }")
	assert.True(t, pn.Head().Fun().IsGenerator())
}

func TestHasFinalReturn(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{"return 1;", EndsInReturn},
		{"if (x) return 1; else return 2;", EndsInReturn},
		{"if (x) return 1;", EndsInOther},
		{"while (true) {}", EndsInReturn},
		{"do {} while (0);", EndsInOther},
		{"for (;;) {}", EndsInReturn},
		{"switch (x) { case 1: return 1; default: return 2; }", EndsInReturn},
		{"switch (x) { case 1: return 1; }", EndsInOther},
		{"switch (x) { case 1: case 2: return 1; default: throw 0; }", EndsInReturn},
		{"try { return 1; } finally { }", EndsInReturn},
		{"try { x(); } finally { return 1; }", EndsInReturn},
		{"try { return 1; } catch (e) { }", EndsInOther},
		{"l: { return 1; }", EndsInReturn},
		{"throw 1;", EndsInReturn},
		{"x();", EndsInOther},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			_, pn := mustParse(t, "function f() { "+tt.body+" }")
			assert.Equal(t, tt.want, HasFinalReturn(pn.Head().Body()))
		})
	}
}

func TestLetBlockForms(t *testing.T) {
	_, pn := mustParse(t, "let (x = 1) { x; }")
	scope := pn.Head()
	require.Equal(t, lexer.LEXICALSCOPE, scope.Type)
	assert.Equal(t, lexer.OpLeaveBlock, scope.Op)
	assert.Equal(t, lexer.LET, scope.Expr().Type)

	e := firstExpr(t, "let (x = 1) x + 1;")
	require.Equal(t, lexer.LEXICALSCOPE, e.Type)
	assert.Equal(t, lexer.OpLeaveBlockExpr, e.Op)

	_, pn = mustParse(t, "let y = 2;")
	decl := pn.Head()
	assert.Equal(t, lexer.VAR, decl.Type)
	assert.True(t, decl.HasExtra(ast.PopVar))
}

func TestLetInBlockMakesScope(t *testing.T) {
	_, pn := mustParse(t, "if (c) { let y = 2; y; }")
	then := pn.Head().Kid2()
	require.Equal(t, lexer.LEXICALSCOPE, then.Type)
	block := then.Expr()
	require.Equal(t, lexer.LC, block.Type)
	assert.Equal(t, lexer.LET, block.Head().Type)
}

func TestLabeledStatement(t *testing.T) {
	_, pn := mustParse(t, "outer: for (;;) { continue outer; }")
	lab := pn.Head()
	require.Equal(t, lexer.COLON, lab.Type)
	assert.Equal(t, "outer", lab.Atom())
	assert.Equal(t, lexer.FOR, lab.Expr().Type)
}

func TestDeleteFoldsOperand(t *testing.T) {
	e := firstExpr(t, "delete (1 + 2 * 3)")
	require.Equal(t, lexer.DELETE, e.Type)
	assert.Equal(t, "7", ast.Dump(e.Kid()))
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "1.7", Version17.String())
	assert.Equal(t, "1.8", Version18.String())
}
