package semantic

import (
	"testing"

	"github.com/cwbudde/go-angelscript/internal/ast"
	"github.com/cwbudde/go-angelscript/internal/registry"
	"github.com/cwbudde/go-angelscript/internal/source"
)

func intType() *ast.TypeExpr { return &ast.TypeExpr{Name: "int"} }

func TestDiscoverGlobalAndResolveInFunctionBody(t *testing.T) {
	reg := registry.New()
	global := &ast.VarDecl{Name: "counter", Type: intType()}
	fn := &ast.FunctionDecl{
		Name: "bump",
		Body: []ast.Statement{
			&ast.ExprStmt{X: &ast.AssignExpr{Lhs: &ast.Identifier{Name: "counter"}, Rhs: &ast.Literal{Kind: ast.LitInt32, Value: int64(1)}}},
		},
	}
	prog := &ast.Program{Decls: []ast.Node{global, fn}}

	a := New(reg, "")
	diags := a.Analyze(prog)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	assign := fn.Body[0].(*ast.ExprStmt).X.(*ast.AssignExpr)
	lhsCtx := assign.Lhs.Context()
	if lhsCtx == nil || lhsCtx.Kind != ast.CtxGlobalVar {
		t.Fatalf("expected counter to resolve as a global var, got %+v", lhsCtx)
	}
}

func TestUndefinedIdentifierReported(t *testing.T) {
	reg := registry.New()
	fn := &ast.FunctionDecl{
		Name: "f",
		Body: []ast.Statement{
			&ast.ExprStmt{X: &ast.Identifier{Name: "nope"}},
		},
	}
	prog := &ast.Program{Decls: []ast.Node{fn}}
	a := New(reg, "")
	diags := a.Analyze(prog)
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %v", len(diags), diags)
	}
}

func TestLocalVarShadowsOuterScope(t *testing.T) {
	reg := registry.New()
	fn := &ast.FunctionDecl{
		Name: "f",
		Params: []*ast.Param{
			{Name: "x", Type: intType()},
		},
		Body: []ast.Statement{
			&ast.BlockStmt{Stmts: []ast.Statement{
				&ast.VarDeclStmt{Decl: &ast.VarDecl{Name: "x", Type: intType()}},
				&ast.ExprStmt{X: &ast.Identifier{Name: "x"}},
			}},
		},
	}
	prog := &ast.Program{Decls: []ast.Node{fn}}
	a := New(reg, "")
	diags := a.Analyze(prog)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	inner := fn.Body[0].(*ast.BlockStmt).Stmts[1].(*ast.ExprStmt).X.(*ast.Identifier)
	if inner.Context().LocalSlot != 1 {
		t.Errorf("expected shadowed x to resolve to the inner slot 1, got %d", inner.Context().LocalSlot)
	}
	if fn.Locals != 2 {
		t.Errorf("expected 2 slots allocated (param + shadow), got %d", fn.Locals)
	}
}

func TestBreakOutsideLoopReported(t *testing.T) {
	reg := registry.New()
	fn := &ast.FunctionDecl{Name: "f", Body: []ast.Statement{&ast.BreakStmt{}}}
	prog := &ast.Program{Decls: []ast.Node{fn}}
	a := New(reg, "")
	diags := a.Analyze(prog)
	if len(diags) != 1 || diags[0].Kind.String() != "BreakOutsideLoop" {
		t.Fatalf("expected BreakOutsideLoop, got %v", diags)
	}
}

func TestBreakInsideLoopIsFine(t *testing.T) {
	reg := registry.New()
	fn := &ast.FunctionDecl{
		Name: "f",
		Body: []ast.Statement{
			&ast.WhileStmt{Cond: &ast.Literal{Kind: ast.LitBool, Value: true}, Body: &ast.BlockStmt{Stmts: []ast.Statement{&ast.BreakStmt{}}}},
		},
	}
	prog := &ast.Program{Decls: []ast.Node{fn}}
	a := New(reg, "")
	diags := a.Analyze(prog)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestOverloadResolutionPicksExactMatch(t *testing.T) {
	reg := registry.New()
	reg.RegisterFunction(&registry.FunctionInfo{Name: "max", Params: []registry.ParamInfo{{TypeID: registry.TypeInt32}, {TypeID: registry.TypeInt32}}, ReturnType: registry.TypeInt32})
	reg.RegisterFunction(&registry.FunctionInfo{Name: "max", Params: []registry.ParamInfo{{TypeID: registry.TypeDouble}, {TypeID: registry.TypeDouble}}, ReturnType: registry.TypeDouble})

	call := &ast.CallExpr{
		Callee: &ast.Identifier{Name: "max"},
		Args: []ast.Expression{
			&ast.Literal{Kind: ast.LitInt32, Value: int64(1)},
			&ast.Literal{Kind: ast.LitInt32, Value: int64(2)},
		},
	}
	fn := &ast.FunctionDecl{Name: "f", Body: []ast.Statement{&ast.ExprStmt{X: call}}}
	prog := &ast.Program{Decls: []ast.Node{fn}}
	a := New(reg, "")
	diags := a.Analyze(prog)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if call.Context().Type != int(registry.TypeInt32) {
		t.Errorf("expected the int overload to win, got return type %d", call.Context().Type)
	}
}

func TestClassFieldAccessResolvesProperty(t *testing.T) {
	reg := registry.New()
	cd := &ast.ClassDecl{
		Name:   "Point",
		Fields: []*ast.FieldDecl{{Name: "x", Type: intType()}},
	}
	prog := &ast.Program{Decls: []ast.Node{cd}}
	a := New(reg, "")
	diags := a.Analyze(prog)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	pointID, ok := a.classByName["Point"]
	if !ok {
		t.Fatalf("expected Point to be registered")
	}
	member := &ast.MemberExpr{Receiver: &ast.Identifier{Name: "p"}, Name: "x"}
	s := newScope(nil)
	s.declare("p", pointID, 0, false)
	fc := &funcCtx{owner: registry.TypeVoid, slots: &slotAllocator{}}
	ty := a.analyzeMember(member, s, fc)
	if ty != registry.TypeInt32 {
		t.Errorf("expected field x to resolve to int, got %d", ty)
	}
	if member.Context().Kind != ast.CtxPropertyAccess {
		t.Errorf("expected CtxPropertyAccess, got %v", member.Context().Kind)
	}
}

func TestSpanAtHelper(t *testing.T) {
	pos := source.Position{Line: 3, Column: 4}
	span := spanAt(pos)
	if span.Start != pos || span.End != pos {
		t.Errorf("expected spanAt to produce a zero-width span at pos")
	}
}
