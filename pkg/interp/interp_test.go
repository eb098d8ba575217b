package interp

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jserrors "jscore/pkg/errors"
	"jscore/pkg/parser"
	"jscore/pkg/source"
)

type result struct {
	in    *Interpreter
	value Value
	out   string
	err   error
}

func runWith(t *testing.T, src string, popts parser.Options, iopts Options) result {
	t.Helper()
	p := parser.NewParser(source.NewEvalSource(src), popts)
	prog, diags := p.ParseProgram()
	require.False(t, jserrors.HasErrors(diags), "parse %q: %v", src, diags)
	require.NotNil(t, prog)

	var out bytes.Buffer
	iopts.Out = &out
	in := New(iopts)
	v, err := in.Run(context.Background(), prog)
	return result{in: in, value: v, out: out.String(), err: err}
}

func run(t *testing.T, src string) result {
	t.Helper()
	return runWith(t, src, parser.DefaultOptions(), Options{})
}

// eval runs src and returns its completion value as a string.
func eval(t *testing.T, src string) string {
	t.Helper()
	r := run(t, src)
	require.NoError(t, r.err, src)
	return r.value.String()
}

func TestEvaluatesExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3;", "7"},
		{"'a' + 1 + 2;", "a12"},
		{"1 + 2 + 'a';", "3a"},
		{"var x = 5; x -= 2; x;", "3"},
		{"var i = 0; i++; i++;", "1"},
		{"typeof undeclared;", "undefined"},
		{"typeof function () {};", "function"},
		{"null == undefined;", "true"},
		{"'1' == 1;", "true"},
		{"'1' === 1;", "false"},
		{"'b' > 'a';", "true"},
		{"1 < NaN || NaN <= 1;", "false"},
		{"'x' in {x: 1};", "true"},
		{"[1, 2, 3].length;", "3"},
		{"'abc'.charAt(1) + 'abc'[2] + 'abc'.length;", "bc3"},
		{"var o = {get x() { return 7; }}; o.x;", "7"},
		{"-5 >>> 28;", "15"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, eval(t, tt.src))
		})
	}
}

func TestFunctionsAndClosures(t *testing.T) {
	src := `
		function counter() {
			var n = 0;
			return function () { return ++n; };
		}
		var c = counter();
		c(); c();
		c();`
	assert.Equal(t, "3", eval(t, src))

	src = `
		function P(x) { this.x = x; }
		P.prototype.get = function () { return this.x; };
		var p = new P(4);
		p.get() + (p instanceof P ? 1 : 0);`
	assert.Equal(t, "5", eval(t, src))

	assert.Equal(t, "2", eval(t, "function f() { return arguments.length; } f(1, 2);"))
	assert.Equal(t, "6", eval(t, "hoisted(); function hoisted() { return 6; } hoisted();"))
}

func TestReturnValueWinsOverStatementValues(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"var s; function f(k) { s = k; return 5; } f(1);", "5"},
		{"function f() { var i = 0; while (true) { i++; return 'ret'; } } f();", "ret"},
		{"function f() { 1; return; } typeof f();", "undefined"},
		{"function f(a) { if (a) { a; return 'x'; } } f(1);", "x"},
		{"function f() { 'stmt'; } typeof f();", "undefined"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, eval(t, tt.src))
		})
	}

	src := `
		var seen;
		var o = {
			__iterator__: function (k) {
				seen = k;
				var i = 0;
				return { next: function () { if (i >= 2) throw StopIteration; return i++; } };
			}
		};
		var r = [];
		for (var v in o) r.push(v);
		r.join(",");`
	assert.Equal(t, "0,1", eval(t, src))
}

func TestPrint(t *testing.T) {
	r := run(t, `print("a", 1, [2, 3]);`)
	require.NoError(t, r.err)
	assert.Equal(t, "a 1 2,3\n", r.out)
}

func TestForInSkipsShadowedAndDeletedKeys(t *testing.T) {
	src := `
		function P() {}
		P.prototype.a = 1;
		P.prototype.b = 2;
		var o = new P();
		o.a = 10;
		o.c = 3;
		var keys = [];
		for (var k in o) keys.push(k);
		keys.join(",");`
	assert.Equal(t, "a,c,b", eval(t, src))

	src = `
		var o = {x: 1, y: 2, z: 3};
		var seen = [];
		for (var k in o) { delete o.y; seen.push(k); }
		seen.join(",");`
	assert.Equal(t, "x,z", eval(t, src))

	assert.Equal(t, "0", eval(t, "var n = 0; for (var k in null) n++; n;"))
}

func TestForEachAndKeyValue(t *testing.T) {
	assert.Equal(t, "3", eval(t, "var s = 0; for each (var v in {a: 1, b: 2}) s += v; s;"))

	opts := parser.DefaultOptions()
	opts.Version = parser.Version17
	r := runWith(t, "var r = []; for (var [k, v] in {a: 1, b: 2}) r.push(k + '=' + v); r.join(',');", opts, Options{})
	require.NoError(t, r.err)
	assert.Equal(t, "a=1,b=2", r.value.String())
}

func TestIteratorBuiltin(t *testing.T) {
	assert.Equal(t, "a,1", eval(t, "Iterator({a: 1}).next().join(',');"))
	assert.Equal(t, "a", eval(t, "Iterator({a: 1}, true).next();"))
	assert.Equal(t, "number", eval(t, "typeof new Iterator([5, 6]).next()[0];"))

	src := `
		var it = Iterator({a: 1});
		it.next();
		var done;
		try { it.next(); } catch (e) { done = e instanceof StopIteration; }
		done;`
	assert.Equal(t, "true", eval(t, src))
}

func TestIteratorHook(t *testing.T) {
	src := `
		var o = {
			__iterator__: function (keysOnly) {
				var i = 0;
				return { next: function () { if (i >= 2) throw StopIteration; return i++; } };
			}
		};
		var r = [];
		for (var v in o) r.push(v);
		r.join(",");`
	assert.Equal(t, "0,1", eval(t, src))

	src = `
		var o = { __iterator__: function () { return 1; } };
		var ok;
		try { for (var v in o); } catch (e) { ok = e instanceof TypeError; }
		ok;`
	assert.Equal(t, "true", eval(t, src))
}

func TestGeneratorSendSequence(t *testing.T) {
	src := `
		function g() {
			var x = yield 1;
			var y = yield x + 1;
			yield y * 2;
		}
		var it = g();
		var r = [it.next(), it.send(5), it.send(10)];
		var stopped;
		try { it.next(); } catch (e) { stopped = e instanceof StopIteration; }
		r.join(",") + ":" + stopped;`
	assert.Equal(t, "1,6,20:true", eval(t, src))
}

func TestGeneratorThrow(t *testing.T) {
	src := `
		function g() {
			try { yield 1; } catch (e) { yield e + 1; }
		}
		var it = g();
		it.next();
		it.throw(41);`
	assert.Equal(t, "42", eval(t, src))
}

func TestGeneratorCloseRunsFinallyOnce(t *testing.T) {
	src := `
		var log = [];
		function g() {
			try { yield 1; yield 2; } finally { log.push("f"); }
		}
		var it = g();
		it.next();
		it.close();
		it.close();
		log.join(",");`
	assert.Equal(t, "f", eval(t, src))

	src = `
		var log = [];
		function g() {
			try { yield 1; yield 2; } finally { log.push("f"); }
		}
		for (var v in g()) { log.push(v); break; }
		log.join(",");`
	assert.Equal(t, "1,f", eval(t, src))
}

func TestGeneratorReentryIsTypeError(t *testing.T) {
	src := `
		var it;
		function g() { yield it.next(); }
		it = g();
		var msg;
		try { it.next(); } catch (e) { msg = (e instanceof TypeError) + ":" + e.message; }
		msg;`
	assert.Equal(t, "true:already executing generator g", eval(t, src))
}

func TestNewbornAndClosedGenerators(t *testing.T) {
	src := `
		function g() { yield 1; }
		var it = g(), msg;
		try { it.send(3); } catch (e) { msg = e.message; }
		msg;`
	assert.Equal(t, "attempt to send 3 to newborn generator", eval(t, src))

	src = `
		var ran = false;
		function g() { ran = true; yield 1; }
		var it = g();
		it.close();
		var stopped;
		try { it.next(); } catch (e) { stopped = e instanceof StopIteration; }
		ran + ":" + stopped;`
	assert.Equal(t, "false:true", eval(t, src))

	src = `
		function g() { yield 1; }
		var it = g(), caught;
		it.close();
		try { it.throw("boom"); } catch (e) { caught = e; }
		caught;`
	assert.Equal(t, "boom", eval(t, src))
}

func TestYieldWhileClosing(t *testing.T) {
	src := `
		function g() { try { yield 1; } finally { yield 2; } }
		var it = g(), msg;
		it.next();
		try { it.close(); } catch (e) { msg = e.message; }
		msg;`
	assert.Equal(t, "yield from closing generator g", eval(t, src))
}

func TestShutdownClosesSuspendedGenerators(t *testing.T) {
	r := run(t, `
		function g() { try { yield 1; } finally { print("cleanup"); } }
		var it = g();
		it.next();`)
	require.NoError(t, r.err)
	assert.Empty(t, r.out)

	require.NoError(t, r.in.Shutdown())
	assert.Equal(t, "cleanup\n", outputAfter(r))
}

func TestUnreachableGeneratorsAreClosed(t *testing.T) {
	const n = 4
	r := run(t, `
		function g() { try { yield 1; } finally { print("f"); } }
		function spin() { var it = g(); it.next(); }
		for (var i = 0; i < 4; i++) spin();`)
	require.NoError(t, r.err)
	assert.Empty(t, r.out)

	live := func() int {
		r.in.mu.Lock()
		defer r.in.mu.Unlock()
		return len(r.in.gens)
	}
	require.Equal(t, n, live())

	assert.Eventually(t, func() bool {
		runtime.GC()
		r.in.closeCollected()
		return live() < n
	}, 5*time.Second, 10*time.Millisecond)

	closed := n - live()
	assert.Equal(t, closed, strings.Count(outputAfter(r), "f\n"))
	require.NoError(t, r.in.Shutdown())
	assert.Equal(t, n, strings.Count(outputAfter(r), "f\n"))
}

func TestResumeChecksDepthBeforeStarting(t *testing.T) {
	r := run(t, "function g() { yield 1; } var it = g();")
	require.NoError(t, r.err)
	v, ok := r.in.Global().GetOwnProperty("it")
	require.True(t, ok)
	g := v.AsObject().gen
	require.NotNil(t, g)

	r.in.depth = r.in.maxDepth
	_, err := g.Resume(Message{Kind: MsgNext})
	ex := asException(err)
	require.NotNil(t, ex)
	assert.Equal(t, jserrors.ErrOverRecursed, ex.Number)
	assert.Equal(t, GenNewborn, g.State())
	assert.Nil(t, g.toGen)
	assert.Empty(t, r.in.gens)

	r.in.depth = 0
	res, err := g.Resume(Message{Kind: MsgNext})
	require.NoError(t, err)
	assert.Equal(t, Yielded, res.Kind)
	assert.Equal(t, "1", res.Value.String())
	require.NoError(t, r.in.Shutdown())
}

// outputAfter returns what the interpreter has printed so far.
func outputAfter(r result) string {
	return r.in.out.(*bytes.Buffer).String()
}

func TestComprehensions(t *testing.T) {
	assert.Equal(t, "4,9", eval(t, "[x * x for each (x in [1, 2, 3]) if (x > 1)].join();"))
	assert.Equal(t, "a,b", eval(t, "[k for (k in {a: 1, b: 2})].join();"))
	assert.Equal(t, "1a,1b,2a,2b", eval(t, "[i + j for each (i in [1, 2]) for each (j in ['a', 'b'])].join();"))

	src := `
		var gen = (x * 2 for each (x in [1, 2, 3]));
		var r = [];
		for (var v in gen) r.push(v);
		r.join();`
	assert.Equal(t, "2,4,6", eval(t, src))
}

func TestDestructuring(t *testing.T) {
	src := `
		var [a, , b] = [1, 2, 3];
		var {x: c, y: [d]} = {x: 4, y: [5]};
		[a, b, c, d].join();`
	assert.Equal(t, "1,3,4,5", eval(t, src))

	assert.Equal(t, "2,1", eval(t, "var a = 1, b = 2; [a, b] = [b, a]; [a, b].join();"))
	assert.Equal(t, "3", eval(t, "function f([x, y]) { return x + y; } f([1, 2]);"))
}

func TestTryCatchGuards(t *testing.T) {
	src := `
		var r;
		try { throw 3; }
		catch (e if e == 2) { r = "two"; }
		catch (e) { r = "other:" + e; }
		r;`
	assert.Equal(t, "other:3", eval(t, src))

	src = `
		var r = [];
		function f() {
			try { return "t"; } finally { r.push("f"); }
		}
		f() + r.join();`
	assert.Equal(t, "tf", eval(t, src))
}

func TestLetScopes(t *testing.T) {
	assert.Equal(t, "3", eval(t, "var x = 1, r; let (x = 2) { r = x; } r + x;"))
	assert.Equal(t, "12", eval(t, "var x = 1; let (y = x + 1) { x = '' + x + y; } x;"))
	assert.Equal(t, "1", eval(t, "var x = 1; { let x = 2; } x;"))
}

func TestRegExp(t *testing.T) {
	assert.Equal(t, "abb,bb:1", eval(t, "var m = /a(b+)/.exec('xabb'); m.join() + ':' + m.index;"))
	assert.Equal(t, "true", eval(t, "/^AB/i.test('abc');"))
	assert.Equal(t, "true", eval(t, "/^b$/m.test('a\\nb');"))
	assert.Equal(t, "false", eval(t, "/^b$/.test('a\\nb');"))
	assert.Equal(t, "false", eval(t, "/\\d/.test('\\u0661');"))
}

func TestUncaughtErrors(t *testing.T) {
	r := run(t, "missing;")
	ex := asException(r.err)
	require.NotNil(t, ex)
	assert.Equal(t, jserrors.ErrNotDefined, ex.Number)
	assert.Equal(t, "ReferenceError: missing is not defined", ex.Value.String())
	assert.Equal(t, 1, ErrorPosition(ex).Line)

	r = run(t, "var o = {}; o.f();")
	ex = asException(r.err)
	require.NotNil(t, ex)
	assert.Equal(t, jserrors.ErrNotFunction, ex.Number)
}

func TestRecursionLimit(t *testing.T) {
	r := runWith(t, "function f() { return f(); } f();", parser.DefaultOptions(), Options{MaxCallDepth: 50})
	ex := asException(r.err)
	require.NotNil(t, ex)
	assert.Equal(t, jserrors.ErrOverRecursed, ex.Number)
}

func TestRunStopsWhenContextIsDone(t *testing.T) {
	p := parser.NewParser(source.NewEvalSource("while (true) {}"), parser.DefaultOptions())
	prog, _ := p.ParseProgram()
	require.NotNil(t, prog)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{}).Run(ctx, prog)
	assert.Equal(t, context.Canceled, err)
}
