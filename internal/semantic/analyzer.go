// Package semantic implements the two-pass Semantic Analyzer of spec
// §4.2/§4.3: pass one discovers every type, function, and global into
// the Type Registry; pass two walks each function body, resolving
// names, allocating local slots, running overload resolution, and
// tagging every expression with the ExprContext the code generator
// needs.
//
// Grounded on the teacher's internal/semantic package's overall
// two-pass shape (a discovery walk before body analysis) and its
// error-kind vocabulary; the per-construct typing rules themselves are
// new, since DWScript's variant-coercing type system has no equivalent
// in AngelScript's stricter model (see DESIGN.md).
package semantic

import (
	"fmt"

	"github.com/cwbudde/go-angelscript/internal/ast"
	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/registry"
	"github.com/cwbudde/go-angelscript/internal/source"
)

// Analyzer runs both passes over a single Program against one shared
// Registry (spec §4.1 notes the registry is shared across a module's
// independently-compiled units).
type Analyzer struct {
	reg   *registry.Registry
	diags []*errors.CompileError
	src   string // full section text, for CompileError.Source caret rendering

	// classByName records the TypeId for each class name as soon as
	// discovery registers it, since methods reference the owning class
	// before the whole Program has finished pass one.
	classByName map[string]registry.TypeId

	loopDepth   int // for BreakOutsideLoop/ContinueOutsideLoop
	switchDepth int // break is also valid directly inside a switch
}

// New creates an Analyzer writing into reg. src is the full program
// text, used only to render caret diagnostics.
func New(reg *registry.Registry, src string) *Analyzer {
	return &Analyzer{reg: reg, src: src, classByName: make(map[string]registry.TypeId)}
}

func (a *Analyzer) errorf(span source.Span, kind errors.CompileErrorKind, format string, args ...interface{}) {
	a.diags = append(a.diags, &errors.CompileError{
		Kind: kind, Span: span, Message: fmt.Sprintf(format, args...), Source: a.src,
	})
}

// Diagnostics returns every error accumulated across both passes, in
// the order they were raised.
func (a *Analyzer) Diagnostics() []*errors.CompileError { return a.diags }

// Analyze runs discovery then body analysis over prog. It always
// returns whatever diagnostics were collected (possibly none); the
// caller decides whether any diagnostic is fatal to the build.
func (a *Analyzer) Analyze(prog *ast.Program) []*errors.CompileError {
	a.discover(prog.Decls)
	if err := a.reg.ValidateNoConflicts(); err != nil {
		if ce, ok := err.(*errors.CompileError); ok {
			a.diags = append(a.diags, ce)
		}
	}
	a.analyzeBodies(prog.Decls)
	return a.diags
}

func spanAt(pos source.Position) source.Span { return source.Span{Start: pos, End: pos} }
