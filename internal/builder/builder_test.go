package builder

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cwbudde/go-angelscript/internal/errors"
)

func noInclude(string) (SourceSection, error) {
	panic("no includes expected")
}

func TestIfDefTakesDefinedBranch(t *testing.T) {
	b := New()
	src := SourceSection{Name: "main.as", Code: "#ifdef DEBUG\nint x = 1;\n#else\nint x = 2;\n#endif\n"}
	out, _, err := b.Process(src, map[string]bool{"DEBUG": true}, noInclude, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "int x = 1;") || strings.Contains(out, "int x = 2;") {
		t.Fatalf("expected only the DEBUG branch, got %q", out)
	}
}

func TestIfUndefinedTakesElseBranch(t *testing.T) {
	b := New()
	src := SourceSection{Name: "main.as", Code: "#ifdef DEBUG\nint x = 1;\n#else\nint x = 2;\n#endif\n"}
	out, _, err := b.Process(src, map[string]bool{}, noInclude, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "int x = 1;") || !strings.Contains(out, "int x = 2;") {
		t.Fatalf("expected only the else branch, got %q", out)
	}
}

func TestNestedConditionalsRespectParent(t *testing.T) {
	b := New()
	src := SourceSection{Name: "main.as", Code: "#ifdef OUTER\n#ifdef INNER\nint x = 1;\n#endif\n#endif\n"}
	// OUTER is false, so INNER's own truth must not matter.
	out, _, err := b.Process(src, map[string]bool{"INNER": true}, noInclude, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "int x = 1;") {
		t.Fatalf("expected inner block suppressed by false outer condition, got %q", out)
	}
}

func TestElifChainsTakeFirstTrueBranch(t *testing.T) {
	b := New()
	src := SourceSection{Name: "main.as", Code: "#if defined(A)\nuse_a();\n#elif defined(B)\nuse_b();\n#else\nuse_c();\n#endif\n"}
	out, _, err := b.Process(src, map[string]bool{"B": true}, noInclude, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "use_b();") || strings.Contains(out, "use_a();") || strings.Contains(out, "use_c();") {
		t.Fatalf("expected only use_b(), got %q", out)
	}
}

func TestUnterminatedIfIsParseError(t *testing.T) {
	b := New()
	src := SourceSection{Name: "main.as", Code: "#if defined(A)\nfoo();\n"}
	_, _, err := b.Process(src, map[string]bool{}, noInclude, nil)
	ce, ok := err.(*errors.CompileError)
	if !ok || ce.Kind != errors.ParseError {
		t.Fatalf("expected ParseError for unterminated #if, got %v", err)
	}
}

func TestIncludeCycleSkippedSilently(t *testing.T) {
	b := New()
	load := func(p string) (SourceSection, error) {
		if p == "b.as" {
			return SourceSection{Name: "b.as", Code: "#include \"a.as\"\n"}, nil
		}
		return SourceSection{}, nil
	}
	src := SourceSection{Name: "a.as", Code: "#include \"b.as\"\n"}
	_, _, err := b.Process(src, map[string]bool{}, load, nil)
	if err != nil {
		t.Fatalf("expected the re-entrant include to be silently skipped, got error: %v", err)
	}
}

func TestIncludeSingleQuotedPathAccepted(t *testing.T) {
	b := New()
	load := func(p string) (SourceSection, error) {
		if p == "helper.as" {
			return SourceSection{Name: "helper.as", Code: "int y = 2;\n"}, nil
		}
		return SourceSection{}, fmt.Errorf("unexpected include %q", p)
	}
	src := SourceSection{Name: "main.as", Code: "#include 'helper.as'\nint x = 1;\n"}
	out, _, err := b.Process(src, map[string]bool{}, load, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "int y = 2;") || !strings.Contains(out, "int x = 1;") {
		t.Fatalf("expected both the included and including text, got %q", out)
	}
}

func TestMetadataExtractedAndBoundToNextLine(t *testing.T) {
	b := New()
	src := SourceSection{Name: "main.as", Code: "[hint]\nvoid f() {}\n"}
	out, metas, err := b.Process(src, map[string]bool{}, noInclude, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metas) != 1 || metas[0].Text != "hint" {
		t.Fatalf("expected one metadata entry \"hint\", got %v", metas)
	}
	if strings.Contains(out, "[hint]") {
		t.Fatalf("expected metadata bracket stripped from output, got %q", out)
	}
}

func TestPragmaInvokesHandler(t *testing.T) {
	b := New()
	var gotName, gotVal string
	handler := func(name, value string) error {
		gotName, gotVal = name, value
		return nil
	}
	src := SourceSection{Name: "main.as", Code: "#pragma optimize \"on\"\n"}
	_, _, err := b.Process(src, map[string]bool{}, noInclude, handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotName != "optimize" || gotVal != "\"on\"" {
		t.Fatalf("expected pragma handler called with optimize/\"on\", got %q/%q", gotName, gotVal)
	}
}

func TestShebangStripped(t *testing.T) {
	b := New()
	src := SourceSection{Name: "main.as", Code: "#!/usr/bin/env ascript\nvoid main() {}\n"}
	out, _, err := b.Process(src, map[string]bool{}, noInclude, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "#!") {
		t.Fatalf("expected shebang stripped, got %q", out)
	}
}
