package errors

import (
	"strings"
	"testing"

	"github.com/cwbudde/go-angelscript/internal/source"
)

func TestCompileErrorFormat(t *testing.T) {
	src := "int x = ;\n"
	pos := source.Position{Section: "main.as", Line: 1, Column: 9}
	err := NewCompileError(ParseError, source.Span{Start: pos}, "unexpected ';'", src)

	out := err.Format(false)
	if !strings.Contains(out, "ParseError") {
		t.Errorf("expected kind in output, got %q", out)
	}
	if !strings.Contains(out, "main.as:1:9") {
		t.Errorf("expected position in output, got %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("expected caret in output, got %q", out)
	}
}

func TestFormatAllSingleVsMultiple(t *testing.T) {
	e1 := NewCompileError(UndefinedVariable, source.Span{Start: source.Position{Line: 1, Column: 1}}, "undefined: x", "")
	single := FormatAll([]*CompileError{e1}, false)
	if strings.Contains(single, "build failed") {
		t.Errorf("single error should not carry the summary header, got %q", single)
	}

	e2 := NewCompileError(TypeMismatch, source.Span{Start: source.Position{Line: 2, Column: 1}}, "cannot convert", "")
	multi := FormatAll([]*CompileError{e1, e2}, false)
	if !strings.Contains(multi, "build failed with 2 error(s)") {
		t.Errorf("expected summary header, got %q", multi)
	}
}

func TestRuntimeErrorCallStack(t *testing.T) {
	err := NewRuntimeError(NullReference, "object handle is null", []Frame{
		{FunctionName: "bump", Pos: source.Position{Section: "m", Line: 3, Column: 5}},
		{FunctionName: "main", Pos: source.Position{Section: "m", Line: 10, Column: 1}},
	})
	out := err.Error()
	if !strings.Contains(out, "NullReference: object handle is null") {
		t.Errorf("unexpected message: %q", out)
	}
	if !strings.Contains(out, "at bump") || !strings.Contains(out, "at main") {
		t.Errorf("expected both frames in output: %q", out)
	}
}

func TestCompileErrorKindString(t *testing.T) {
	if got := Ambiguous.String(); got != "Ambiguous" {
		t.Errorf("expected Ambiguous, got %s", got)
	}
	if got := CompileErrorKind(999).String(); got != "UnknownError" {
		t.Errorf("expected fallback name, got %s", got)
	}
}
