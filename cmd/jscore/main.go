package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"

	arg "github.com/alexflint/go-arg"
	"github.com/kr/pretty"

	"jscore/pkg/config"
	"jscore/pkg/driver"
	jserrors "jscore/pkg/errors"
	"jscore/pkg/source"
)

const (
	exitOK       = 0
	exitUsage    = 64 // command line usage error
	exitSyntax   = 65 // script failed to parse
	exitSoftware = 70 // uncaught exception or internal error
)

type runCmd struct {
	Expr  string   `arg:"-e" help:"run the given expression and print its value"`
	Files []string `arg:"positional" help:"scripts to run; stdin when none are given"`
}

type checkCmd struct {
	Files []string `arg:"positional,required" help:"scripts to parse and fold"`
}

type dumpCmd struct {
	File string `arg:"positional,required" help:"script to dump"`
	Raw  bool   `help:"print the tree before constant folding"`
	Diff bool   `help:"print a line diff of the tree before and after folding"`
}

type args struct {
	Run   *runCmd   `arg:"subcommand:run" help:"run scripts (default)"`
	Check *checkCmd `arg:"subcommand:check" help:"report syntax errors and warnings"`
	Dump  *dumpCmd  `arg:"subcommand:dump" help:"print the parse tree"`

	Config     string `help:"YAML configuration file"`
	Strict     bool   `help:"report strict warnings"`
	Lang       string `help:"language version, 1.7 or 1.8"`
	ShowConfig bool   `arg:"--show-config" help:"print the effective configuration and exit"`
	Verbose    bool   `arg:"-v" help:"development logging at debug level"`
}

func (args) Description() string {
	return "jscore parses, folds and runs JavaScript 1.8 scripts"
}

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(argv []string) int {
	var a args
	p, err := arg.NewParser(arg.Config{Program: "jscore"}, &a)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitSoftware
	}
	switch err := p.Parse(argv); err {
	case nil:
	case arg.ErrHelp:
		p.WriteHelp(os.Stdout)
		return exitOK
	default:
		p.WriteUsage(os.Stderr)
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitUsage
	}

	cfg, err := loadConfig(&a)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitUsage
	}
	if a.ShowConfig {
		fmt.Printf("%# v\n", pretty.Formatter(cfg))
		return exitOK
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitSoftware
	}
	defer logger.Sync()

	e, err := driver.NewEngine(driver.Options{Config: cfg, Logger: logger})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitSoftware
	}

	ctx, stop := signalContext()
	defer stop()

	switch {
	case a.Check != nil:
		return check(ctx, e, a.Check.Files)
	case a.Dump != nil:
		return dump(e, a.Dump)
	case a.Run != nil:
		return runScripts(ctx, e, a.Run)
	}
	return runScripts(ctx, e, &runCmd{})
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(a *args) (*config.Config, error) {
	cfg := config.Default()
	if a.Config != "" {
		var err error
		if cfg, err = config.Load(a.Config); err != nil {
			return nil, err
		}
	}
	if a.Strict {
		cfg.Strict = true
	}
	if a.Lang != "" {
		cfg.Version = a.Lang
	}
	if a.Verbose {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sig)
		cancel()
	}
}

func runScripts(ctx context.Context, e *driver.Engine, cmd *runCmd) (code int) {
	defer func() {
		if err := e.Close(); err != nil && code == exitOK {
			code = reportRuntime(err)
		}
	}()

	var sources []*source.SourceFile
	switch {
	case cmd.Expr != "":
		sources = append(sources, source.NewEvalSource(cmd.Expr))
	case len(cmd.Files) == 0:
		raw, err := ioutil.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error reading stdin:", err)
			return exitSoftware
		}
		text, err := source.Decode(raw)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitSoftware
		}
		sources = append(sources, source.NewStdinSource(text))
	}
	for _, path := range cmd.Files {
		src, err := source.FromFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitSoftware
		}
		sources = append(sources, src)
	}

	for _, src := range sources {
		v, diags, err := e.RunSource(ctx, src)
		jserrors.DisplayErrors(src.Content, diags)
		if jserrors.HasErrors(diags) {
			return exitSyntax
		}
		if err != nil {
			return reportRuntime(err)
		}
		if cmd.Expr != "" && !v.IsUndefined() {
			fmt.Println(v.Inspect())
		}
	}
	return exitOK
}

func reportRuntime(err error) int {
	if re, ok := err.(*jserrors.RuntimeError); ok {
		jserrors.DisplayErrors("", []jserrors.Diagnostic{re})
		return exitSoftware
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return exitSoftware
}

func check(ctx context.Context, e *driver.Engine, paths []string) int {
	results, stats := e.CheckFiles(ctx, paths)
	code := exitOK
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Path, r.Err)
			code = exitSoftware
			continue
		}
		jserrors.DisplayErrors("", r.Diagnostics)
		if !r.OK() && code == exitOK {
			code = exitSyntax
		}
	}
	fmt.Fprintf(os.Stderr, "%d files, %d with errors\n", len(results), stats.FailedJobs)
	return code
}

func dump(e *driver.Engine, cmd *dumpCmd) int {
	src, err := source.FromFile(cmd.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitSoftware
	}
	var out string
	var diags []jserrors.Diagnostic
	if cmd.Diff {
		out, diags = e.FoldDiff(src)
	} else {
		out, diags = e.Dump(src, !cmd.Raw)
	}
	jserrors.DisplayErrors(src.Content, diags)
	if jserrors.HasErrors(diags) {
		return exitSyntax
	}
	fmt.Print(out)
	return exitOK
}
