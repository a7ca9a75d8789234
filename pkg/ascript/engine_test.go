package ascript

import (
	"testing"

	"github.com/cwbudde/go-angelscript/internal/ast"
	"github.com/cwbudde/go-angelscript/internal/registry"
)

func buildModule(t *testing.T, e *Engine, prog *ast.Program) *Module {
	t.Helper()
	m := e.NewModule("test")
	m.SetProgram(prog)
	if err := m.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestEngine_RunsScriptFunctionReturningLiteral(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "answer",
		ReturnType: &ast.TypeExpr{Name: "int"},
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.Literal{Kind: ast.LitInt32, Value: int64(42)}},
		},
	}
	e := NewEngine()
	m := buildModule(t, e, &ast.Program{Decls: []ast.Node{fn}})

	id, ok := m.GetFunctionByName("answer")
	if !ok {
		t.Fatal("GetFunctionByName: not found")
	}

	ctx, err := m.CreateContext()
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	if err := ctx.Prepare(id); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	state, err := ctx.Execute()
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if state != StateFinished {
		t.Errorf("state = %v, want Finished", state)
	}
	if got := ctx.GetReturnValue().I; got != 42 {
		t.Errorf("return value = %d, want 42", got)
	}
}

func TestEngine_RegisterGlobalFunctionIsCallableFromScript(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "useDouble",
		ReturnType: &ast.TypeExpr{Name: "int"},
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.CallExpr{
				Callee: &ast.Identifier{Name: "double"},
				Args:   []ast.Expression{&ast.Literal{Kind: ast.LitInt32, Value: int64(21)}},
			}},
		},
	}
	e := NewEngine()
	if err := e.RegisterGlobalFunction("double", func(x int64) int64 { return x * 2 }); err != nil {
		t.Fatalf("RegisterGlobalFunction: %v", err)
	}
	m := buildModule(t, e, &ast.Program{Decls: []ast.Node{fn}})

	id, ok := m.GetFunctionByName("useDouble")
	if !ok {
		t.Fatal("GetFunctionByName: not found")
	}
	ctx, err := m.CreateContext()
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	if err := ctx.Prepare(id); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := ctx.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := ctx.GetReturnValue().I; got != 42 {
		t.Errorf("return value = %d, want 42", got)
	}
}

func TestEngine_RegisterGlobalFunctionRejectsNonFunc(t *testing.T) {
	e := NewEngine()
	if err := e.RegisterGlobalFunction("notAFunc", 5); err == nil {
		t.Fatal("expected an error registering a non-function value")
	}
}

func TestEngine_RegisterObjectTypeAndProperty(t *testing.T) {
	e := NewEngine()
	typeID, err := e.RegisterObjectType("Point", false)
	if err != nil {
		t.Fatalf("RegisterObjectType: %v", err)
	}
	e.RegisterObjectProperty(typeID, "x", registry.TypeInt32)

	m := e.NewModule("test")
	td, ok := m.GetTypeInfoByName("Point")
	if !ok {
		t.Fatal("GetTypeInfoByName: not found")
	}
	if len(td.Properties) != 1 || td.Properties[0].Name != "x" {
		t.Errorf("Properties = %+v, want one property named x", td.Properties)
	}
}

func TestModule_BuildWithoutProgramFails(t *testing.T) {
	e := NewEngine()
	m := e.NewModule("empty")
	if err := m.Build(); err == nil {
		t.Fatal("expected Build to fail without a program attached")
	}
}

func TestModule_CreateContextBeforeBuildFails(t *testing.T) {
	e := NewEngine()
	m := e.NewModule("empty")
	if _, err := m.CreateContext(); err == nil {
		t.Fatal("expected CreateContext to fail before Build")
	}
}
