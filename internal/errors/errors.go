// Package errors defines the compile-time and runtime error taxonomy of
// the engine (spec §7) and formats diagnostics with source context and a
// caret, in the style the teacher repository uses for its compiler errors.
package errors

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-angelscript/internal/source"
)

// CompileErrorKind enumerates every compile-time error kind (spec §7).
type CompileErrorKind int

const (
	ParseError CompileErrorKind = iota
	IncludeCycle
	InvalidPath
	Pragma
	UndefinedVariable
	UndefinedType
	UndefinedFunction
	UndefinedField
	UndefinedMethod
	TypeMismatch
	InvalidOperation
	InvalidLValue
	WrongArgumentCount
	NoMatchingOverload
	Ambiguous
	NotATemplate
	WrongTemplateArgCount
	DuplicateDeclaration
	BreakOutsideLoop
	ContinueOutsideLoop
	UnsupportedOperation
	InternalError
)

var compileKindNames = [...]string{
	ParseError:            "ParseError",
	IncludeCycle:          "IncludeCycle",
	InvalidPath:           "InvalidPath",
	Pragma:                "Pragma",
	UndefinedVariable:     "UndefinedVariable",
	UndefinedType:         "UndefinedType",
	UndefinedFunction:     "UndefinedFunction",
	UndefinedField:        "UndefinedField",
	UndefinedMethod:       "UndefinedMethod",
	TypeMismatch:          "TypeMismatch",
	InvalidOperation:      "InvalidOperation",
	InvalidLValue:         "InvalidLValue",
	WrongArgumentCount:    "WrongArgumentCount",
	NoMatchingOverload:    "NoMatchingOverload",
	Ambiguous:             "Ambiguous",
	NotATemplate:          "NotATemplate",
	WrongTemplateArgCount: "WrongTemplateArgCount",
	DuplicateDeclaration:  "DuplicateDeclaration",
	BreakOutsideLoop:      "BreakOutsideLoop",
	ContinueOutsideLoop:   "ContinueOutsideLoop",
	UnsupportedOperation:  "UnsupportedOperation",
	InternalError:         "InternalError",
}

func (k CompileErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(compileKindNames) {
		return compileKindNames[k]
	}
	return "UnknownError"
}

// CompileError is a single compilation diagnostic with position and
// source context, carrying one of the kinds above.
type CompileError struct {
	Kind    CompileErrorKind
	Span    source.Span
	Message string
	Source  string // full section text, for caret rendering
}

func NewCompileError(kind CompileErrorKind, span source.Span, message, src string) *CompileError {
	return &CompileError{Kind: kind, Span: span, Message: message, Source: src}
}

func (e *CompileError) Error() string {
	return e.Format(false)
}

// Format renders "kind: section:line:col", the offending source line,
// and a caret under the column. If color is true ANSI codes are added.
func (e *CompileError) Format(color bool) string {
	var sb strings.Builder
	pos := e.Span.Start

	sb.WriteString(fmt.Sprintf("%s: %s\n", e.Kind, pos))

	if line := sourceLine(e.Source, pos.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

func sourceLine(src string, line int) string {
	if src == "" || line < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// FormatAll renders a full diagnostic list the way build() returns it.
func FormatAll(errs []*CompileError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "build failed with %d error(s):\n\n", len(errs))
	for i, e := range errs {
		fmt.Fprintf(&sb, "[%d/%d] ", i+1, len(errs))
		sb.WriteString(e.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// RuntimeErrorKind enumerates every runtime failure mode (spec §7).
type RuntimeErrorKind int

const (
	NullReference RuntimeErrorKind = iota
	DivisionByZero
	ModuloByZero
	InvalidCast
	InvalidObjectReference
	StackOverflow
	OutOfMemory
	UserException
	Aborted
)

var runtimeKindNames = [...]string{
	NullReference:          "NullReference",
	DivisionByZero:         "DivisionByZero",
	ModuloByZero:           "ModuloByZero",
	InvalidCast:            "InvalidCast",
	InvalidObjectReference: "InvalidObjectReference",
	StackOverflow:          "StackOverflow",
	OutOfMemory:            "OutOfMemory",
	UserException:          "UserException",
	Aborted:                "Aborted",
}

func (k RuntimeErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(runtimeKindNames) {
		return runtimeKindNames[k]
	}
	return "UnknownRuntimeError"
}

// RuntimeError is the single error a Context can carry at a time (§7).
// The call stack is captured at the moment the error was raised so the
// host can inspect it via the call-stack introspection API (§6.1) even
// after all frames have been unwound.
type RuntimeError struct {
	Kind      RuntimeErrorKind
	Message   string
	CallStack []Frame
}

// Frame is one entry of a captured call stack, named by function and the
// source position active in that frame when the error was raised.
type Frame struct {
	FunctionName string
	Pos          source.Position
}

func NewRuntimeError(kind RuntimeErrorKind, message string, stack []Frame) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: message, CallStack: stack}
}

func (e *RuntimeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Kind, e.Message)
	for _, f := range e.CallStack {
		fmt.Fprintf(&sb, "\n  at %s (%s)", f.FunctionName, f.Pos)
	}
	return sb.String()
}
