package bytecode

import (
	"testing"

	"github.com/cwbudde/go-angelscript/internal/ast"
	"github.com/cwbudde/go-angelscript/internal/registry"
	"github.com/cwbudde/go-angelscript/internal/semantic"
)

func compileSource(t *testing.T, prog *ast.Program) (*registry.Registry, *BytecodeModule) {
	t.Helper()
	reg := registry.New()
	a := semantic.New(reg, "")
	if diags := a.Analyze(prog); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	c := NewCompiler(reg)
	mod, err := c.Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return reg, mod
}

func TestCompileReturnLiteral(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "answer",
		ReturnType: &ast.TypeExpr{Name: "int"},
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.Literal{Kind: ast.LitInt32, Value: int64(42)}},
		},
	}
	_, mod := compileSource(t, &ast.Program{Decls: []ast.Node{fn}})
	obj := mod.Functions[0]

	if obj.Code[0].Op != OpLoadConst || obj.Code[1].Op != OpReturn {
		t.Fatalf("expected LOAD_CONST then RETURN, got %v", obj.Code)
	}
	if mod.Constants[obj.Code[0].A].I != 42 {
		t.Errorf("expected constant 42, got %+v", mod.Constants[obj.Code[0].A])
	}
}

func TestCompileIfElseEmitsBothBranches(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "pick",
		Body: []ast.Statement{
			&ast.IfStmt{
				Cond: &ast.Literal{Kind: ast.LitBool, Value: true},
				Then: &ast.BlockStmt{Stmts: []ast.Statement{&ast.ReturnStmt{Value: &ast.Literal{Kind: ast.LitInt32, Value: int64(1)}}}},
				Else: &ast.BlockStmt{Stmts: []ast.Statement{&ast.ReturnStmt{Value: &ast.Literal{Kind: ast.LitInt32, Value: int64(2)}}}},
			},
		},
	}
	_, mod := compileSource(t, &ast.Program{Decls: []ast.Node{fn}})
	obj := mod.Functions[0]

	var jumpCount int
	for _, ins := range obj.Code {
		if ins.Op == OpJump || ins.Op == OpJumpIfFalse {
			jumpCount++
		}
	}
	if jumpCount != 2 {
		t.Errorf("expected one JUMP_IF_FALSE and one JUMP, got %d jump instructions in %v", jumpCount, obj.Code)
	}
}

func TestCompileWhileLoopBreakTargetsLoopEnd(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "loop",
		Body: []ast.Statement{
			&ast.WhileStmt{
				Cond: &ast.Literal{Kind: ast.LitBool, Value: true},
				Body: &ast.BlockStmt{Stmts: []ast.Statement{&ast.BreakStmt{}}},
			},
		},
	}
	_, mod := compileSource(t, &ast.Program{Decls: []ast.Node{fn}})
	obj := mod.Functions[0]

	var breakJump Instruction
	found := false
	for _, ins := range obj.Code {
		if ins.Op == OpJump && !found {
			// first unconditional jump inside the body is the break
			breakJump = ins
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a break JUMP instruction, got %v", obj.Code)
	}
	if int(breakJump.A) != len(obj.Code)-1 {
		t.Errorf("expected break to jump to the RETURN_VOID epilogue at %d, got target %d", len(obj.Code)-1, breakJump.A)
	}
}

func TestCompileLocalStoreUsesAllocatedSlot(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "f",
		Body: []ast.Statement{
			&ast.VarDeclStmt{Decl: &ast.VarDecl{Name: "x", Type: &ast.TypeExpr{Name: "int"}, Init: &ast.Literal{Kind: ast.LitInt32, Value: int64(7)}}},
		},
	}
	_, mod := compileSource(t, &ast.Program{Decls: []ast.Node{fn}})
	obj := mod.Functions[0]
	if obj.Code[1].Op != OpStoreLocal || obj.Code[1].A != 0 {
		t.Fatalf("expected STORE_LOCAL slot 0, got %v", obj.Code[1])
	}
}
