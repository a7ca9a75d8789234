package bytecode

import (
	"strings"
	"testing"

	"github.com/cwbudde/go-angelscript/internal/ast"
	"github.com/cwbudde/go-angelscript/internal/registry"
)

func TestDisassembleShowsConstantValue(t *testing.T) {
	_, mod := compileSource(t, &ast.Program{Decls: []ast.Node{
		&ast.FunctionDecl{Name: "answer", Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.Literal{Kind: ast.LitInt32, Value: int64(42)}},
		}},
	}})
	out := Disassemble(mod, mod.Functions[0])
	if !strings.Contains(out, "LOAD_CONST") || !strings.Contains(out, "; 42") {
		t.Fatalf("expected disassembly to show the constant, got:\n%s", out)
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	_, mod := compileSource(t, &ast.Program{Decls: []ast.Node{
		&ast.FunctionDecl{Name: "answer", Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.Literal{Kind: ast.LitInt32, Value: int64(42)}},
		}},
	}})
	data, err := Serialize(mod)
	if err != nil {
		t.Fatalf("serialize error: %v", err)
	}
	reg := registry.New()
	back, err := Deserialize(data, reg)
	if err != nil {
		t.Fatalf("deserialize error: %v", err)
	}
	if len(back.Functions) != 1 || back.Functions[0].Name != "answer" {
		t.Fatalf("expected one function named answer, got %+v", back.Functions)
	}
	if len(back.Functions[0].Code) != len(mod.Functions[0].Code) {
		t.Fatalf("expected %d instructions, got %d", len(mod.Functions[0].Code), len(back.Functions[0].Code))
	}
	if back.Constants[0].I != 42 {
		t.Errorf("expected constant 42 to survive round trip, got %+v", back.Constants[0])
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	reg := registry.New()
	_, err := Deserialize([]byte{0, 0, 0, 0, 1, 0, 0, 0}, reg)
	if err == nil {
		t.Fatalf("expected an error for bad magic")
	}
}

func TestOptimizeFoldsConstantArithmetic(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "sum",
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{
				Op:    ast.OpAdd,
				Left:  &ast.Literal{Kind: ast.LitInt32, Value: int64(2)},
				Right: &ast.Literal{Kind: ast.LitInt32, Value: int64(3)},
			}},
		},
	}
	_, mod := compileSource(t, &ast.Program{Decls: []ast.Node{fn}})
	before := len(mod.Functions[0].Code)
	Optimize(mod)
	after := mod.Functions[0].Code
	if len(after) >= before {
		t.Fatalf("expected folding to shrink the instruction count, got %d -> %d", before, len(after))
	}
	if after[0].Op != OpLoadConst {
		t.Fatalf("expected a single LOAD_CONST after folding, got %v", after)
	}
	foldedVal := mod.Constants[after[0].A]
	if foldedVal.I != 5 {
		t.Errorf("expected folded constant 2+3=5, got %+v", foldedVal)
	}
}

func TestOptimizeLeavesNonConstantArithmeticAlone(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:   "addParam",
		Params: []*ast.Param{{Name: "x", Type: &ast.TypeExpr{Name: "int"}}},
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{
				Op:    ast.OpAdd,
				Left:  &ast.Identifier{Name: "x"},
				Right: &ast.Literal{Kind: ast.LitInt32, Value: int64(3)},
			}},
		},
	}
	_, mod := compileSource(t, &ast.Program{Decls: []ast.Node{fn}})
	before := len(mod.Functions[0].Code)
	Optimize(mod)
	if len(mod.Functions[0].Code) != before {
		t.Errorf("expected no folding when an operand is not a constant, got %d -> %d", before, len(mod.Functions[0].Code))
	}
}
