// Package source defines the position and span types shared by every
// stage of the pipeline (builder, ast, semantic, bytecode, vm) so that a
// diagnostic produced anywhere can point back at the original script text.
package source

import "fmt"

// Position is a single point in a source section.
type Position struct {
	Section string // section/file name as registered with the script builder
	Line    int    // 1-based
	Column  int    // 1-based
	Offset  int    // 0-based byte offset into the section's text
}

func (p Position) String() string {
	if p.Section == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Section, p.Line, p.Column)
}

// IsValid reports whether the position carries real line/column info.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Span is a half-open range [Start, End) in a single section.
type Span struct {
	Start Position
	End   Position
}

func (s Span) String() string {
	return s.Start.String()
}
