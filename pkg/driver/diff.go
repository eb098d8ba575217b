package driver

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"jscore/pkg/ast"
	jserrors "jscore/pkg/errors"
	"jscore/pkg/fold"
	"jscore/pkg/parser"
	"jscore/pkg/source"
)

// Dump parses src and renders its tree, folded when fold is set. The
// compile cache is bypassed.
func (e *Engine) Dump(src *source.SourceFile, doFold bool) (string, []jserrors.Diagnostic) {
	s, diags := compile(src, e.cfg.ParserOptions(), doFold)
	if s == nil {
		return "", diags
	}
	return ast.DumpIndent(s.Tree), diags
}

// FoldDiff parses src and returns a line diff of its tree before and
// after constant folding. Removed lines start with "-", added lines with
// "+" and unchanged lines with a space.
func (e *Engine) FoldDiff(src *source.SourceFile) (string, []jserrors.Diagnostic) {
	p := parser.NewParser(src, e.cfg.ParserOptions())
	tree, diags := p.ParseProgram()
	if tree == nil || jserrors.HasErrors(diags) {
		return "", diags
	}
	before := ast.DumpIndent(tree)
	if err := fold.Constants(p.Arena(), tree, false); err != nil {
		num := jserrors.NewSyntaxError(jserrors.Position{Line: 1, Column: 1, Source: src}, jserrors.ErrOverRecursed)
		return "", append(diags, num.CausedBy(err))
	}
	return lineDiff(before, ast.DumpIndent(tree)), diags
}

func lineDiff(a, b string) string {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		mark := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			mark = "-"
		case diffmatchpatch.DiffInsert:
			mark = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(mark)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}
