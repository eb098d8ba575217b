package errors

import (
	"fmt"

	"jscore/pkg/source"
)

// Position represents a specific location in the source code.
// It includes line and column numbers (1-based) for human-readability,
// and byte offsets (0-based) for tooling.
type Position struct {
	Line      int                // 1-based line number
	Column    int                // 1-based column number
	EndLine   int                // line of the last character of the span
	EndColumn int                // column just past the span
	StartPos  int                // 0-based byte offset of the start of the span
	EndPos    int                // 0-based byte offset of the end of the span (exclusive)
	Source    *source.SourceFile // Reference to the source file
}

// IsValid reports whether the position points at a real line.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	name := "<unknown>"
	if p.Source != nil {
		name = p.Source.DisplayPath()
	}
	if !p.IsValid() {
		return name
	}
	return fmt.Sprintf("%s:%d:%d", name, p.Line, p.Column)
}
