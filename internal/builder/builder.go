// Package builder implements the Script Builder (spec §5.1): a
// preprocessing pass over one or more source sections that resolves
// `#include`, evaluates `#if`/`#elif`/`#else`/`#endif` conditional
// blocks, extracts metadata brackets, and dispatches `#pragma`
// directives to a host callback — all before the language lexer ever
// sees the text.
//
// The conditional-compilation state machine is grounded on the
// teacher's internal/lexer/directives.go, which tracks Pascal
// `{$IFDEF}`/`{$IF}` nesting with a conditionalFrame stack and an
// isSkippingTokens/parentActive pair; this package keeps that frame
// stack shape and generalizes it from Pascal's `{$...}` directive
// syntax to AngelScript's C-preprocessor-like `#...` syntax.
package builder

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/source"
)

// PragmaHandler receives a `#pragma name "value"` directive's payload.
// Returning an error surfaces as a Pragma CompileError at that
// directive's position.
type PragmaHandler func(name, value string) error

// Metadata is one `[bracket-enclosed]` annotation immediately preceding
// a declaration, captured with the section/line it was found on so the
// semantic analyzer can re-associate it with the declaration that
// follows once parsing assigns that declaration a position (spec §5.1
// "metadata brackets... bound to the following declaration").
type Metadata struct {
	Text string
	Pos  source.Position
}

// SourceSection is one named unit of input text, e.g. a file, handed to
// AddSection in inclusion order starting from the entry section.
type SourceSection struct {
	Name string
	Code string
}

// Builder accumulates sections, resolving includes and directives into
// one flattened logical source per spec §5.1, ready for the lexer.
type Builder struct {
	pragma PragmaHandler

	resolved map[string]bool // normalized path -> seen, for include cycle/dedupe detection
}

// New creates an empty Builder. The pragma handler is supplied per call
// to Process, not here, since a single Builder may be reused across
// independent builds with different host callbacks.
func New() *Builder {
	return &Builder{
		resolved: make(map[string]bool),
	}
}

func normalizePath(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// conditionalFrame is one level of `#if`/`#elif`/`#else` nesting.
// Grounded on the teacher's conditionalFrame: parentActive records
// whether the enclosing frame is itself emitting text, so a false
// outer condition suppresses every nested branch regardless of its own
// condition.
type conditionalFrame struct {
	branchTaken  bool // some branch in this frame has already been active
	branchActive bool // the current branch is active
	parentActive bool
}

func (f conditionalFrame) emitting() bool {
	return f.parentActive && f.branchActive
}

// Process resolves name's text (already loaded by the caller, so
// Process itself has no filesystem dependency — include resolution
// calls back into load to fetch an included section's text) into the
// flattened output, evaluating directives with the symbol environment
// of defs (name -> defined, per spec §5.1 `#define`/`#ifdef`).
func (b *Builder) Process(section SourceSection, defs map[string]bool, load func(includePath string) (SourceSection, error), pragma PragmaHandler) (string, []*Metadata, error) {
	b.pragma = pragma
	b.resolved = make(map[string]bool)
	var out strings.Builder
	var metas []*Metadata
	err := b.process(section, defs, load, &out, &metas, nil)
	return out.String(), metas, err
}

func (b *Builder) process(section SourceSection, defs map[string]bool, load func(string) (SourceSection, error), out *strings.Builder, metas *[]*Metadata, stack []conditionalFrame) error {
	norm := normalizePath(section.Name)
	if b.resolved[norm] {
		// spec §8.4 scenario 6: re-entering an already-included section is
		// a silent no-op, not a diagnostic — the second include is simply
		// skipped.
		return nil
	}
	b.resolved[norm] = true

	lines := strings.Split(section.Code, "\n")
	// spec §5.1: a leading shebang line (`#!...`) is stripped silently,
	// it is not a directive.
	if len(lines) > 0 && strings.HasPrefix(lines[0], "#!") {
		lines[0] = ""
	}

	for i, line := range lines {
		pos := source.Position{Section: section.Name, Line: i + 1, Column: 1}
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") {
			directive, arg := splitDirective(trimmed)
			switch directive {
			case "include":
				if !emitting(stack) {
					out.WriteString("\n")
					continue
				}
				incPath, perr := parseIncludePath(arg)
				if perr != nil {
					return &errors.CompileError{Kind: errors.InvalidPath, Span: source.Span{Start: pos, End: pos}, Message: perr.Error()}
				}
				incSection, lerr := load(incPath)
				if lerr != nil {
					return &errors.CompileError{Kind: errors.InvalidPath, Span: source.Span{Start: pos, End: pos}, Message: lerr.Error()}
				}
				if err := b.process(incSection, defs, load, out, metas, stack); err != nil {
					return err
				}
				out.WriteString("\n")
				continue

			case "if", "ifdef", "ifndef":
				// parentActive reflects the enclosing frame, captured
				// before this frame is pushed.
				parentActive := emitting(stack)
				cond := evalCondition(directive, arg, defs)
				stack = append(stack, conditionalFrame{
					branchTaken:  cond,
					branchActive: cond,
					parentActive: parentActive,
				})
				out.WriteString("\n")
				continue

			case "elif":
				if len(stack) == 0 {
					return &errors.CompileError{Kind: errors.ParseError, Span: source.Span{Start: pos, End: pos}, Message: "#elif without matching #if"}
				}
				top := &stack[len(stack)-1]
				if top.branchTaken {
					top.branchActive = false
				} else {
					cond := evalCondition("if", arg, defs)
					top.branchActive = cond
					top.branchTaken = cond
				}
				out.WriteString("\n")
				continue

			case "else":
				if len(stack) == 0 {
					return &errors.CompileError{Kind: errors.ParseError, Span: source.Span{Start: pos, End: pos}, Message: "#else without matching #if"}
				}
				top := &stack[len(stack)-1]
				top.branchActive = !top.branchTaken
				top.branchTaken = true
				out.WriteString("\n")
				continue

			case "endif":
				if len(stack) == 0 {
					return &errors.CompileError{Kind: errors.ParseError, Span: source.Span{Start: pos, End: pos}, Message: "#endif without matching #if"}
				}
				stack = stack[:len(stack)-1]
				out.WriteString("\n")
				continue

			case "pragma":
				if emitting(stack) {
					name, val := splitDirective(arg)
					if b.pragma != nil {
						if err := b.pragma(name, val); err != nil {
							return &errors.CompileError{Kind: errors.Pragma, Span: source.Span{Start: pos, End: pos}, Message: err.Error()}
						}
					}
				}
				out.WriteString("\n")
				continue

			default:
				// Unrecognized leading-# line: pass through unchanged
				// (e.g. conditional expressions containing '#' deeper in
				// a line never reach here since trimmed must start with '#').
			}
		}

		if emitting(stack) {
			if meta, rest, ok := extractMetadata(line); ok {
				*metas = append(*metas, &Metadata{Text: meta, Pos: pos})
				out.WriteString(rest)
			} else {
				out.WriteString(line)
			}
		}
		out.WriteString("\n")
	}

	if len(stack) != 0 {
		return &errors.CompileError{Kind: errors.ParseError, Message: fmt.Sprintf("unterminated #if in %q", section.Name)}
	}
	return nil
}

func emitting(stack []conditionalFrame) bool {
	for _, f := range stack {
		if !f.emitting() {
			return false
		}
	}
	return true
}

func splitDirective(s string) (name, rest string) {
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimSpace(s)
	idx := strings.IndexAny(s, " \t")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx+1:])
}

func evalCondition(kind, arg string, defs map[string]bool) bool {
	switch kind {
	case "ifdef":
		return defs[strings.TrimSpace(arg)]
	case "ifndef":
		return !defs[strings.TrimSpace(arg)]
	default: // "if": supports `defined(NAME)`, `!defined(NAME)`, bare NAME, and int literals
		arg = strings.TrimSpace(arg)
		negate := strings.HasPrefix(arg, "!")
		if negate {
			arg = strings.TrimSpace(arg[1:])
		}
		var v bool
		switch {
		case strings.HasPrefix(arg, "defined(") && strings.HasSuffix(arg, ")"):
			name := strings.TrimSpace(arg[len("defined(") : len(arg)-1])
			v = defs[name]
		case arg == "0" || arg == "":
			v = false
		default:
			if n, err := strconv.Atoi(arg); err == nil {
				v = n != 0
			} else {
				v = defs[arg]
			}
		}
		if negate {
			v = !v
		}
		return v
	}
}

func parseIncludePath(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if len(arg) >= 2 && arg[0] == '"' && arg[len(arg)-1] == '"' {
		return arg[1 : len(arg)-1], nil
	}
	if len(arg) >= 2 && arg[0] == '\'' && arg[len(arg)-1] == '\'' {
		return arg[1 : len(arg)-1], nil
	}
	return "", fmt.Errorf("expected a quoted path, got %q", arg)
}

// extractMetadata pulls a leading `[...]` annotation off a declaration
// line, returning the bracket contents and the line with the bracket
// removed (spec §5.1). Only a single bracket group at the start of the
// (trimmed) line is recognized; brackets elsewhere (e.g. array type
// syntax `array<int>`) are left untouched since those never begin a
// line.
func extractMetadata(line string) (meta string, rest string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "[") {
		return "", line, false
	}
	end := strings.Index(trimmed, "]")
	if end < 0 {
		return "", line, false
	}
	indent := line[:len(line)-len(trimmed)]
	return trimmed[1:end], indent + strings.TrimLeft(trimmed[end+1:], " \t"), true
}
