package ast

import (
	"testing"

	"github.com/cwbudde/go-angelscript/internal/source"
)

func TestExprContextRoundTrip(t *testing.T) {
	id := &Identifier{NamePos: source.Position{Line: 1, Column: 1}, Name: "x"}
	if id.Context() != nil {
		t.Fatalf("expected nil context before analysis")
	}
	ctx := &ExprContext{Kind: CtxLocalVar, LocalSlot: 3}
	id.SetContext(ctx)
	if id.Context() != ctx {
		t.Fatalf("SetContext/Context did not round-trip")
	}
}

func TestFunctionDeclTraits(t *testing.T) {
	fn := &FunctionDecl{Name: "f", Traits: []FunctionTrait{TraitVirtual, TraitOverride}}
	if !fn.HasTrait(TraitOverride) {
		t.Errorf("expected HasTrait(TraitOverride) to be true")
	}
	if fn.HasTrait(TraitFinal) {
		t.Errorf("expected HasTrait(TraitFinal) to be false")
	}
}

func TestProgramPosUsesFirstDecl(t *testing.T) {
	fn := &FunctionDecl{DeclPos: source.Position{Line: 5, Column: 1}, Name: "main"}
	p := &Program{Decls: []Node{fn}}
	if p.Pos().Line != 5 {
		t.Errorf("expected program position to track first decl, got line %d", p.Pos().Line)
	}
}
