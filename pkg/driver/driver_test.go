package driver

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jscore/pkg/config"
	jserrors "jscore/pkg/errors"
	"jscore/pkg/interp"
	"jscore/pkg/source"
)

func newTestEngine(t *testing.T, cfg *config.Config) (*Engine, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	e, err := NewEngine(Options{Config: cfg, Out: &out})
	require.NoError(t, err)
	return e, &out
}

func TestCompileFoldsAndCaches(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	src := source.NewEvalSource("var x = 2 * 3; x;")

	s, diags := e.Compile(src)
	require.NotNil(t, s)
	assert.Empty(t, diags)
	assert.True(t, s.Folded)
	assert.Greater(t, s.Metrics.Parsenodes, 0)

	again, _ := e.Compile(source.NewEvalSource("var x = 2 * 3; x;"))
	assert.Same(t, s, again)

	st := e.Stats()
	assert.Equal(t, int64(1), st.Compiles)
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, 1, st.Cached)
}

func TestCacheKeyDependsOnOptions(t *testing.T) {
	c, err := newScriptCache(4)
	require.NoError(t, err)

	a := config.Default()
	b := config.Default()
	b.Strict = true
	assert.Equal(t, c.key("x;", a), c.key("x;", config.Default()))
	assert.NotEqual(t, c.key("x;", a), c.key("x;", b))
	assert.NotEqual(t, c.key("x;", a), c.key("y;", a))
}

func TestDisabledCache(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Size = 0
	e, _ := newTestEngine(t, cfg)

	first, _ := e.Compile(source.NewEvalSource("1;"))
	second, _ := e.Compile(source.NewEvalSource("1;"))
	require.NotNil(t, first)
	assert.NotSame(t, first, second)
	assert.Equal(t, int64(2), e.Stats().Compiles)
	assert.Equal(t, 0, e.Stats().Cached)
}

func TestCompileReportsSyntaxErrors(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	s, diags := e.Compile(source.NewEvalSource("var = 1;"))
	assert.Nil(t, s)
	require.True(t, jserrors.HasErrors(diags))
}

func TestStrictWarningsSurviveCompile(t *testing.T) {
	cfg := config.Default()
	cfg.Strict = true
	e, _ := newTestEngine(t, cfg)

	s, diags := e.Compile(source.NewEvalSource("if (a = b) c();"))
	require.NotNil(t, s)
	require.NotEmpty(t, diags)
	assert.True(t, jserrors.IsWarning(diags[0]))
	assert.Equal(t, diags, s.Warnings)
}

func TestRunSessionKeepsGlobals(t *testing.T) {
	e, out := newTestEngine(t, nil)
	ctx := context.Background()

	_, diags, err := e.RunSource(ctx, source.NewEvalSource("var total = 40;"))
	require.NoError(t, err)
	require.Empty(t, diags)

	v, _, err := e.RunSource(ctx, source.NewEvalSource("print('hi'); total + 2;"))
	require.NoError(t, err)
	assert.Equal(t, "42", v.String())
	assert.Equal(t, "hi\n", out.String())
}

func TestRunWrapsUncaughtExceptions(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	src := source.NewEvalSource("\n\nnope();")
	_, _, err := e.RunSource(context.Background(), src)
	require.Error(t, err)

	re, ok := err.(*jserrors.RuntimeError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, "uncaught exception: ReferenceError: nope is not defined", re.Msg)
	assert.Equal(t, 3, re.Line)
	assert.Equal(t, src, re.Source)

	_, ok = re.Cause.(*interp.Exception)
	assert.True(t, ok)
}

func TestCloseRunsPendingFinally(t *testing.T) {
	e, out := newTestEngine(t, nil)
	_, _, err := e.RunSource(context.Background(), source.NewEvalSource(`
		function g() { try { yield 1; } finally { print("done"); } }
		var it = g();
		it.next();`))
	require.NoError(t, err)
	assert.Empty(t, out.String())

	require.NoError(t, e.Close())
	assert.Equal(t, "done\n", out.String())
}

func TestRunFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "jscore-driver")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "a.js")
	require.NoError(t, ioutil.WriteFile(path, []byte("[1, 2].join('-');"), 0644))

	e, _ := newTestEngine(t, nil)
	v, diags, err := e.RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, "1-2", v.String())

	_, _, err = e.RunFile(context.Background(), filepath.Join(dir, "missing.js"))
	assert.Error(t, err)
}

func TestCheckFiles(t *testing.T) {
	dir, err := ioutil.TempDir("", "jscore-check")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	files := map[string]string{
		"good.js": "function f(a) { return a + 1; }",
		"bad.js":  "var x = ;",
		"gen.js":  "function g() { yield 1; } [x for each (x in g())];",
	}
	var paths []string
	for _, name := range []string{"good.js", "bad.js", "gen.js"} {
		p := filepath.Join(dir, name)
		require.NoError(t, ioutil.WriteFile(p, []byte(files[name]), 0644))
		paths = append(paths, p)
	}
	paths = append(paths, filepath.Join(dir, "missing.js"))

	cfg := config.Default()
	cfg.Workers = 2
	e, _ := newTestEngine(t, cfg)
	results, stats := e.CheckFiles(context.Background(), paths)

	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
	}
	assert.True(t, results[0].OK())
	assert.Greater(t, results[0].Nodes, 0)
	assert.False(t, results[1].OK())
	assert.True(t, jserrors.HasErrors(results[1].Diagnostics))
	assert.True(t, results[2].OK())
	assert.Error(t, results[3].Err)

	assert.Equal(t, 2, stats.WorkerCount)
	assert.Equal(t, 4, stats.TotalJobs)
	assert.Equal(t, 2, stats.CompletedJobs)
	assert.Equal(t, 2, stats.FailedJobs)
}

func TestCheckFilesCancelled(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, _ := e.CheckFiles(ctx, []string{"a.js", "b.js"})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Error(t, r.Err)
	}
}

func TestFoldDiff(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	diff, diags := e.FoldDiff(source.NewEvalSource("x = 2 * 3;\nif (0) a(); else b();"))
	require.Empty(t, diags)

	var removed, added []string
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch line[0] {
		case '-':
			removed = append(removed, line)
		case '+':
			added = append(added, line)
		}
	}
	require.NotEmpty(t, removed)
	require.NotEmpty(t, added)
	assert.Contains(t, strings.Join(removed, "\n"), "(* 2 3)")
	assert.NotContains(t, strings.Join(added, "\n"), "(* 2 3)")

	unchanged, _ := e.FoldDiff(source.NewEvalSource("f(x);"))
	assert.NotContains(t, unchanged, "\n-")
	assert.True(t, strings.HasPrefix(unchanged, " "))
}

func TestDump(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	raw, diags := e.Dump(source.NewEvalSource("y = 2 * 3;"), false)
	require.Empty(t, diags)
	folded, _ := e.Dump(source.NewEvalSource("y = 2 * 3;"), true)
	assert.Contains(t, raw, "(* 2 3)")
	assert.Contains(t, folded, " 6)")
}

func TestWorkerPoolLifecycleErrors(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	wp := newWorkerPool(e, 1)
	assert.EqualError(t, wp.Submit(checkJob{path: "a.js"}), "worker pool not started")

	require.NoError(t, wp.Start(context.Background(), 1))
	assert.EqualError(t, wp.Start(context.Background(), 1), "worker pool already started")

	wp.Shutdown()
	assert.EqualError(t, wp.Submit(checkJob{path: "a.js"}), "worker pool stopped")
}
