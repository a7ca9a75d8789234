package bytecode

import (
	"os"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/cwbudde/go-angelscript/internal/ast"
)

// TestMain lets go-snaps prune snapshot entries that no longer
// correspond to a Test* in this package (spec §10/§11: the teacher's
// own bytecode golden tests use this exact harness).
func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func TestDisassembleLoopGoldenOutput(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "countdown",
		Params: []*ast.Param{
			{Name: "n", Type: &ast.TypeExpr{Name: "int"}},
		},
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
	_, mod := compileSource(t, &ast.Program{Decls: []ast.Node{fn}})
	snaps.MatchSnapshot(t, Disassemble(mod, mod.Functions[0]))
}
