// Package driver ties the front end and the evaluator together: it reads
// sources, parses and folds them into scripts, caches the result, and runs
// scripts in an interpreter session.
package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"jscore/pkg/ast"
	"jscore/pkg/config"
	jserrors "jscore/pkg/errors"
	"jscore/pkg/fold"
	"jscore/pkg/interp"
	"jscore/pkg/parser"
	"jscore/pkg/source"
)

const debugDriver = false

func debugPrintf(format string, args ...interface{}) {
	if debugDriver {
		fmt.Printf(format, args...)
	}
}

// Script is a parsed and folded compilation unit. Its tree is not
// modified after compilation, so one script may be run many times.
type Script struct {
	Source *source.SourceFile
	Tree   *ast.Node
	// Warnings are the strict advisories reported while parsing.
	Warnings []jserrors.Diagnostic
	Metrics  ast.Metrics
	// HashTables counts destructuring lookups that escalated to a hash
	// table.
	HashTables int
	Folded     bool
}

// Options configure an Engine.
type Options struct {
	Config *config.Config
	Logger *zap.Logger
	// Out receives print output. Defaults to os.Stdout.
	Out io.Writer
}

// Engine is an interpreter session. Globals defined by one run are seen
// by the next. Compile and CheckFiles may be called from several
// goroutines; Run may not.
type Engine struct {
	cfg   *config.Config
	log   *zap.Logger
	out   io.Writer
	cache *scriptCache
	in    *interp.Interpreter

	compiles int64 // atomic
}

// NewEngine creates a session. A nil config means config.Default().
func NewEngine(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	e := &Engine{cfg: cfg, log: opts.Logger, out: opts.Out}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	cache, err := newScriptCache(cfg.Cache.Size)
	if err != nil {
		return nil, err
	}
	e.cache = cache
	e.in = interp.New(interp.Options{
		Out:          e.out,
		Logger:       e.log.Named("interp"),
		MaxCallDepth: cfg.MaxCallDepth,
	})
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Interpreter returns the session's interpreter.
func (e *Engine) Interpreter() *interp.Interpreter { return e.in }

// Compile parses and, unless folding is switched off, folds src. On
// failure the script is nil and the diagnostics hold the syntax error.
// Warnings are returned either way.
func (e *Engine) Compile(src *source.SourceFile) (*Script, []jserrors.Diagnostic) {
	key := e.cache.key(src.Content, e.cfg)
	if s, ok := e.cache.get(key); ok {
		e.log.Debug("compile cache hit", zap.String("file", src.DisplayPath()))
		return s, s.Warnings
	}

	atomic.AddInt64(&e.compiles, 1)
	s, diags := compile(src, e.cfg.ParserOptions(), e.cfg.Fold)
	if s == nil {
		e.log.Debug("compile failed",
			zap.String("file", src.DisplayPath()),
			zap.Int("diagnostics", len(diags)))
		return nil, diags
	}
	e.log.Debug("compiled",
		zap.String("file", src.DisplayPath()),
		zap.Int("nodes", s.Metrics.Parsenodes),
		zap.Int("recycled", s.Metrics.Recyclednodes),
		zap.Int("hashTables", s.HashTables))
	e.cache.add(key, s)
	return s, diags
}

func compile(src *source.SourceFile, opts parser.Options, doFold bool) (*Script, []jserrors.Diagnostic) {
	p := parser.NewParser(src, opts)
	tree, diags := p.ParseProgram()
	if tree == nil || jserrors.HasErrors(diags) {
		return nil, diags
	}
	debugPrintf("// [driver] parsed %s: %s\n", src.DisplayPath(), ast.Dump(tree))

	s := &Script{Source: src, Tree: tree, Warnings: diags}
	if doFold {
		if err := fold.Constants(p.Arena(), tree, false); err != nil {
			num := jserrors.NewSyntaxError(jserrors.Position{Line: 1, Column: 1, Source: src}, jserrors.ErrOverRecursed)
			return nil, append(diags, num.CausedBy(err))
		}
		s.Folded = true
	}
	s.Metrics = p.Metrics()
	s.HashTables = p.HashTablesBuilt()
	return s, diags
}

// CompileFile reads and compiles path.
func (e *Engine) CompileFile(path string) (*Script, []jserrors.Diagnostic, error) {
	src, err := source.FromFile(path)
	if err != nil {
		return nil, nil, err
	}
	s, diags := e.Compile(src)
	return s, diags, nil
}

// Run executes a compiled script and returns the value of its last
// expression statement. An uncaught script exception is returned as a
// *jserrors.RuntimeError wrapping the *interp.Exception.
func (e *Engine) Run(ctx context.Context, s *Script) (interp.Value, error) {
	v, err := e.in.Run(ctx, s.Tree)
	if err != nil {
		return interp.Undefined, e.runtimeError(s, err)
	}
	return v, nil
}

// RunSource compiles and runs src. Compile failures come back as
// diagnostics with a nil error.
func (e *Engine) RunSource(ctx context.Context, src *source.SourceFile) (interp.Value, []jserrors.Diagnostic, error) {
	s, diags := e.Compile(src)
	if s == nil {
		return interp.Undefined, diags, nil
	}
	v, err := e.Run(ctx, s)
	return v, diags, err
}

// RunFile reads, compiles and runs path.
func (e *Engine) RunFile(ctx context.Context, path string) (interp.Value, []jserrors.Diagnostic, error) {
	src, err := source.FromFile(path)
	if err != nil {
		return interp.Undefined, nil, err
	}
	return e.RunSource(ctx, src)
}

// Close ends the session, closing generators that are still suspended.
func (e *Engine) Close() error {
	err := e.in.Shutdown()
	if err != nil {
		return e.runtimeError(nil, err)
	}
	return nil
}

// Stats reports compile cache activity.
type Stats struct {
	Compiles int64
	Hits     int64
	Misses   int64
	Cached   int
}

// Stats returns cache counters.
func (e *Engine) Stats() Stats {
	hits, misses, n := e.cache.stats()
	return Stats{
		Compiles: atomic.LoadInt64(&e.compiles),
		Hits:     hits,
		Misses:   misses,
		Cached:   n,
	}
}

// runtimeError turns a script exception into a diagnostic. Other errors,
// such as a cancelled context, are returned unchanged.
func (e *Engine) runtimeError(s *Script, err error) error {
	ex, ok := err.(*interp.Exception)
	if !ok {
		return err
	}
	pos := interp.ErrorPosition(ex)
	if s != nil {
		pos.Source = s.Source
	}
	msg, serr := e.in.ToDisplayString(ex.Value)
	if serr != nil {
		msg = ex.Value.String()
	}
	e.log.Info("uncaught exception", zap.String("message", msg), zap.Int("line", pos.Line))
	re := &jserrors.RuntimeError{Position: pos, Msg: "uncaught exception: " + msg}
	return re.CausedBy(ex)
}
