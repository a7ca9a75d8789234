package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/go-angelscript/internal/ast"
	"github.com/cwbudde/go-angelscript/internal/bytecode"
	"github.com/cwbudde/go-angelscript/internal/registry"
	"github.com/cwbudde/go-angelscript/internal/semantic"
)

// writeModuleFile compiles a tiny program and writes its serialized
// bytecode to a temp .asbc file, standing in for a module a host
// application built and shipped (this CLI never parses source text).
func writeModuleFile(t *testing.T) string {
	t.Helper()
	fn := &ast.FunctionDecl{
		Name:       "answer",
		ReturnType: &ast.TypeExpr{Name: "int"},
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.Literal{Kind: ast.LitInt32, Value: int64(42)}},
		},
	}
	reg := registry.New()
	a := semantic.New(reg, "")
	prog := &ast.Program{Decls: []ast.Node{fn}}
	if diags := a.Analyze(prog); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	c := bytecode.NewCompiler(reg)
	mod, err := c.Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	data, err := bytecode.Serialize(mod)
	if err != nil {
		t.Fatalf("serialize error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "answer.asbc")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write error: %v", err)
	}
	return path
}

func TestRunModule_ExecutesNamedEntryPoint(t *testing.T) {
	path := writeModuleFile(t)
	runEntry = "answer"
	defer func() { runEntry = "main" }()

	if err := runModule(nil, []string{path}); err != nil {
		t.Fatalf("runModule: %v", err)
	}
}

func TestRunModule_UnknownEntryPointFails(t *testing.T) {
	path := writeModuleFile(t)
	runEntry = "doesNotExist"
	defer func() { runEntry = "main" }()

	if err := runModule(nil, []string{path}); err == nil {
		t.Fatal("expected an error for a missing entry point")
	}
}

func TestRunModule_MissingFileFails(t *testing.T) {
	if err := runModule(nil, []string{filepath.Join(t.TempDir(), "missing.asbc")}); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
