package vm

import (
	"testing"

	"github.com/cwbudde/go-angelscript/internal/ast"
	"github.com/cwbudde/go-angelscript/internal/bytecode"
	"github.com/cwbudde/go-angelscript/internal/heap"
	"github.com/cwbudde/go-angelscript/internal/registry"
	"github.com/cwbudde/go-angelscript/internal/semantic"
)

func compile(t *testing.T, prog *ast.Program) (*registry.Registry, *bytecode.BytecodeModule) {
	t.Helper()
	reg := registry.New()
	a := semantic.New(reg, "")
	if diags := a.Analyze(prog); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	c := bytecode.NewCompiler(reg)
	mod, err := c.Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return reg, mod
}

func entryPoint(mod *bytecode.BytecodeModule, name string) *bytecode.FunctionObject {
	for _, fn := range mod.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

func TestCall_ReturnsLiteral(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "answer",
		ReturnType: &ast.TypeExpr{Name: "int"},
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.Literal{Kind: ast.LitInt32, Value: int64(42)}},
		},
	}
	_, mod := compile(t, &ast.Program{Decls: []ast.Node{fn}})

	ctx := NewContext(mod, heap.New())
	result, err := ctx.Call(entryPoint(mod, "answer").ID, nil)
	if err != nil {
		t.Fatalf("Call returned an error: %v", err)
	}
	if result.I != 42 {
		t.Errorf("result.I = %d, want 42", result.I)
	}
	if ctx.State() != StateFinished {
		t.Errorf("State() = %v, want Finished", ctx.State())
	}
}

func TestCall_ArithmeticOnParams(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "add",
		Params: []*ast.Param{
			{Name: "a", Type: &ast.TypeExpr{Name: "int"}},
			{Name: "b", Type: &ast.TypeExpr{Name: "int"}},
		},
		ReturnType: &ast.TypeExpr{Name: "int"},
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{
				Op:    ast.OpAdd,
				Left:  &ast.Identifier{Name: "a"},
				Right: &ast.Identifier{Name: "b"},
			}},
		},
	}
	_, mod := compile(t, &ast.Program{Decls: []ast.Node{fn}})

	ctx := NewContext(mod, heap.New())
	args := []bytecode.Value{
		{Kind: bytecode.VKInt64, I: 4},
		{Kind: bytecode.VKInt64, I: 5},
	}
	result, err := ctx.Call(entryPoint(mod, "add").ID, args)
	if err != nil {
		t.Fatalf("Call returned an error: %v", err)
	}
	if result.I != 9 {
		t.Errorf("result.I = %d, want 9", result.I)
	}
}

func TestCall_DivisionByZeroReportsRuntimeError(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "boom",
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{
				Op:    ast.OpDiv,
				Left:  &ast.Literal{Kind: ast.LitInt32, Value: int64(1)},
				Right: &ast.Literal{Kind: ast.LitInt32, Value: int64(0)},
			}},
		},
	}
	_, mod := compile(t, &ast.Program{Decls: []ast.Node{fn}})

	ctx := NewContext(mod, heap.New())
	_, err := ctx.Call(entryPoint(mod, "boom").ID, nil)
	if err == nil {
		t.Fatal("expected a division-by-zero runtime error")
	}
	if ctx.State() != StateException {
		t.Errorf("State() = %v, want Exception", ctx.State())
	}
	if ctx.LastError() == nil || ctx.LastError().Kind != 1 { // errors.DivisionByZero
		t.Errorf("LastError() = %v, want DivisionByZero", ctx.LastError())
	}
}

func TestCall_WhileLoopBreakReturnsExpected(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "countdown",
		Params: []*ast.Param{
			{Name: "n", Type: &ast.TypeExpr{Name: "int"}},
		},
		ReturnType: &ast.TypeExpr{Name: "int"},
		Body: []ast.Statement{
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: ast.OpGt, Left: &ast.Identifier{Name: "n"}, Right: &ast.Literal{Kind: ast.LitInt32, Value: int64(0)}},
				Body: &ast.BlockStmt{Stmts: []ast.Statement{
					&ast.ExprStmt{X: &ast.UnaryExpr{Op: ast.OpDec, Operand: &ast.Identifier{Name: "n"}}},
				}},
			},
			&ast.ReturnStmt{Value: &ast.Identifier{Name: "n"}},
		},
	}
	_, mod := compile(t, &ast.Program{Decls: []ast.Node{fn}})

	ctx := NewContext(mod, heap.New())
	result, err := ctx.Call(entryPoint(mod, "countdown").ID, []bytecode.Value{{Kind: bytecode.VKInt64, I: 3}})
	if err != nil {
		t.Fatalf("Call returned an error: %v", err)
	}
	if result.I != 0 {
		t.Errorf("result.I = %d, want 0", result.I)
	}
}

func TestCall_NativeFunctionDispatch(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "useNative",
		ReturnType: &ast.TypeExpr{Name: "int"},
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.CallExpr{Callee: &ast.Identifier{Name: "double"}, Args: []ast.Expression{
				&ast.Literal{Kind: ast.LitInt32, Value: int64(21)},
			}}},
		},
	}
	reg := registry.New()
	doubleID := reg.RegisterFunction(&registry.FunctionInfo{
		Name:          "double",
		QualifiedName: "double",
		Params:        []registry.ParamInfo{{Name: "x", TypeID: registry.TypeInt32}},
		ReturnType:    registry.TypeInt32,
		Kind:          registry.KindSystem,
		Impl:          registry.Implementation{IsNative: true},
	})
	_ = doubleID

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

	ctx := NewContext(mod, heap.New())
	ctx.RegisterNative("double", func(c *Context, args []bytecode.Value) (bytecode.Value, error) {
		return bytecode.Value{Kind: bytecode.VKInt64, I: args[0].I * 2}, nil
	})

	result, err := ctx.Call(entryPoint(mod, "useNative").ID, nil)
	if err != nil {
		t.Fatalf("Call returned an error: %v", err)
	}
	if result.I != 42 {
		t.Errorf("result.I = %d, want 42", result.I)
	}
}
