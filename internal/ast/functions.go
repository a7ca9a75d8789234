package ast

import "github.com/cwbudde/go-angelscript/internal/source"

// FunctionTrait is one of the modifiers a function/method declaration
// may carry (spec §3.3 FunctionInfo.traits).
type FunctionTrait int

const (
	TraitVirtual FunctionTrait = iota
	TraitAbstract
	TraitShared
	TraitExternal
	TraitFinal
	TraitOverride
)

// FunctionDecl is a global function or a class/interface method
// declaration. Methods are listed under their ClassDecl/InterfaceDecl;
// the node itself carries no receiver.
type FunctionDecl struct {
	DeclPos    source.Position
	Name       string
	Params     []*Param
	ReturnType *TypeExpr // nil means void
	Body       []Statement // nil for an abstract/interface declaration
	IsConst    bool        // const method
	Visibility Visibility
	Traits     []FunctionTrait
	Locals     int // high-water-mark slot count, filled in by the analyzer
}

func (f *FunctionDecl) Pos() source.Position { return f.DeclPos }
func (f *FunctionDecl) String() string       { return "<func " + f.Name + ">" }
func (f *FunctionDecl) stmtNode()            {}

func (f *FunctionDecl) HasTrait(t FunctionTrait) bool {
	for _, ft := range f.Traits {
		if ft == t {
			return true
		}
	}
	return false
}
