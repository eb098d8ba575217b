package driver

import (
	"bufio"
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"jscore/pkg/ast"
	"jscore/pkg/source"
)

const scriptsDebug = false

// Expectation is the outcome a script declares in its header comment.
type Expectation struct {
	ResultType string // "value", "runtime_error", "compile_error"
	Value      string // Expected value or error message substring
}

var expectRegex = regexp.MustCompile(`^//\s*(expect(?:_runtime_error|_compile_error)?):\s*(.*)`)

// parseExpectation finds the first line of the form
//
//	// expect: value
//	// expect_runtime_error: message
//	// expect_compile_error: message
func parseExpectation(content string) (*Expectation, error) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		matches := expectRegex.FindStringSubmatch(scanner.Text())
		if len(matches) != 3 {
			continue
		}
		exp := &Expectation{Value: strings.TrimSpace(matches[2])}
		switch matches[1] {
		case "expect":
			exp.ResultType = "value"
		case "expect_runtime_error":
			exp.ResultType = "runtime_error"
		case "expect_compile_error":
			exp.ResultType = "compile_error"
		}
		return exp, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading script")
	}
	return nil, fmt.Errorf("no expectation comment found (e.g., // expect: value)")
}

func TestScripts(t *testing.T) {
	scriptDir := "testdata"
	files, err := ioutil.ReadDir(scriptDir)
	if err != nil {
		t.Fatalf("Failed to read script directory %q: %v", scriptDir, err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".js") {
			continue
		}
		scriptPath := filepath.Join(scriptDir, file.Name())
		t.Run(file.Name(), func(t *testing.T) {
			src, err := source.FromFile(scriptPath)
			if err != nil {
				t.Fatalf("Failed to read script file %q: %v", scriptPath, err)
			}
			expectation, err := parseExpectation(src.Content)
			if err != nil {
				t.Skipf("Failed to parse expectation in %q: %v", scriptPath, err)
			}

			e, _ := newTestEngine(t, nil)
			defer e.Close()

			script, diags := e.Compile(src)
			if script == nil {
				if expectation.ResultType != "compile_error" {
					t.Fatalf("Unexpected compile errors:\n%v", diags)
				}
				var all strings.Builder
				found := false
				for _, d := range diags {
					all.WriteString(d.Error() + "\n")
					if strings.Contains(d.Error(), expectation.Value) {
						found = true
					}
				}
				if !found {
					t.Errorf("Expected compile error containing %q, but got errors:\n%s", expectation.Value, all.String())
				}
				return
			}
			if expectation.ResultType == "compile_error" {
				t.Fatalf("Expected compile error containing %q, but compilation succeeded.", expectation.Value)
			}

			if scriptsDebug {
				t.Logf("--- Tree [%s] ---\n%s", file.Name(), ast.DumpIndent(script.Tree))
			}

			v, err := e.Run(context.Background(), script)
			switch expectation.ResultType {
			case "value":
				if err != nil {
					t.Errorf("Expected value %q, but got runtime error: %v", expectation.Value, err)
				} else if got := v.Inspect(); got != expectation.Value {
					t.Errorf("Expected output %q, but got %q", expectation.Value, got)
				}
			case "runtime_error":
				if err == nil {
					t.Errorf("Expected runtime error containing %q, but got no error. Final value: %s", expectation.Value, v.Inspect())
				} else if !strings.Contains(err.Error(), expectation.Value) {
					t.Errorf("Expected runtime error containing %q, but got: %v", expectation.Value, err)
				}
			}
		})
	}
}
