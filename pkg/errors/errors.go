package errors

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Diagnostic is the interface implemented by all jscore errors and warnings.
type Diagnostic interface {
	error // Embed the standard error interface
	Pos() Position
	Kind() string // e.g., "Syntax", "Warning", "Type", "Runtime"
	// Message returns the specific error message without position info.
	Message() string
	Unwrap() error // For error wrapping support (errors.Is/As)
}

// --- Concrete Error Types ---

// SyntaxError is a hard, numbered compile-time error. Parsing of the
// current unit stops at the first one.
type SyntaxError struct {
	Position
	Number ErrorNumber
	Msg    string
	Cause  error // Underlying cause, if any
}

// NewSyntaxError formats the message registered for num.
func NewSyntaxError(pos Position, num ErrorNumber, args ...interface{}) *SyntaxError {
	return &SyntaxError{Position: pos, Number: num, Msg: Format(num, args...)}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Syntax Error at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *SyntaxError) Pos() Position   { return e.Position }
func (e *SyntaxError) Kind() string    { return "Syntax" }
func (e *SyntaxError) Message() string { return e.Msg }
func (e *SyntaxError) Unwrap() error   { return e.Cause }
func (e *SyntaxError) CausedBy(cause error) *SyntaxError {
	e.Cause = cause
	return e
}

// Warning is a strict-mode advisory. It never aborts a parse.
type Warning struct {
	Position
	Number ErrorNumber
	Msg    string
}

// NewWarning formats the message registered for num.
func NewWarning(pos Position, num ErrorNumber, args ...interface{}) *Warning {
	return &Warning{Position: pos, Number: num, Msg: Format(num, args...)}
}

func (e *Warning) Error() string {
	return fmt.Sprintf("Warning at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *Warning) Pos() Position   { return e.Position }
func (e *Warning) Kind() string    { return "Warning" }
func (e *Warning) Message() string { return e.Msg }
func (e *Warning) Unwrap() error   { return nil }

// TypeError reports an iterator or generator contract violation that
// escaped to the host.
type TypeError struct {
	Position
	Number ErrorNumber
	Msg    string
	Cause  error // Underlying cause, if any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("Type Error at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *TypeError) Pos() Position   { return e.Position }
func (e *TypeError) Kind() string    { return "Type" }
func (e *TypeError) Message() string { return e.Msg }
func (e *TypeError) Unwrap() error   { return e.Cause }
func (e *TypeError) CausedBy(cause error) *TypeError {
	e.Cause = cause
	return e
}

// RuntimeError represents an uncaught exception or an evaluator failure.
type RuntimeError struct {
	// Position points at the statement that was executing, which may be
	// coarser than the failing operation.
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *RuntimeError) Error() string {
	if !e.IsValid() {
		return fmt.Sprintf("Runtime Error: %s", e.Msg)
	}
	return fmt.Sprintf("Runtime Error at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *RuntimeError) Pos() Position   { return e.Position }
func (e *RuntimeError) Kind() string    { return "Runtime" }
func (e *RuntimeError) Message() string { return e.Msg }
func (e *RuntimeError) Unwrap() error   { return e.Cause }
func (e *RuntimeError) CausedBy(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// IsWarning reports whether d is a strict advisory rather than an error.
func IsWarning(d Diagnostic) bool {
	_, ok := d.(*Warning)
	return ok
}

// HasErrors reports whether any diagnostic in ds is not a warning.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if !IsWarning(d) {
			return true
		}
	}
	return false
}

// --- Error Reporting ---

// DisplayErrors prints diagnostics to stderr in a user-friendly format,
// including the source line and position marker. source is used when a
// diagnostic carries no source file of its own.
func DisplayErrors(source string, errs []Diagnostic) {
	Fprint(os.Stderr, source, errs)
}

// Fprint is DisplayErrors with an explicit destination.
func Fprint(w io.Writer, source string, errs []Diagnostic) {
	if len(errs) == 0 {
		return
	}

	fallback := strings.Split(source, "\n")

	for _, err := range errs {
		pos := err.Pos()
		kind := err.Kind()
		msg := err.Message()

		var sourceLine string
		lineOK := false
		if pos.Source != nil {
			lines := pos.Source.Lines()
			if pos.Line >= 1 && pos.Line <= len(lines) {
				sourceLine, lineOK = pos.Source.Line(pos.Line), true
			}
		} else if pos.Line >= 1 && pos.Line <= len(fallback) {
			sourceLine, lineOK = fallback[pos.Line-1], true
		}

		label := kind + " Error"
		if kind == "Warning" {
			label = "Warning"
		}

		if !lineOK {
			fmt.Fprintf(w, "%s: %s\n", label, msg)
			continue
		}

		// Format: <file>:<Line>:<Column>: <Kind> Error: <Message>
		fmt.Fprintf(w, "%s: %s: %s\n", pos.String(), label, msg)

		trimmedLine := strings.TrimRight(sourceLine, "\r\n\t ")
		fmt.Fprintf(w, "  %s\n", trimmedLine)

		col := pos.Column - 1
		if col < 0 {
			col = 0
		}
		marker := strings.Repeat(" ", col) + "^"
		if pos.EndLine == pos.Line && pos.EndColumn > pos.Column+1 {
			marker += strings.Repeat("~", pos.EndColumn-pos.Column-1)
		}
		fmt.Fprintf(w, "  %s\n", marker)
		fmt.Fprintln(w)
	}
}
