package ast

import "github.com/cwbudde/go-angelscript/internal/source"

// Visibility mirrors the class-member visibility modifiers of §6.2.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

// ParamFlag is a parameter passing mode (spec §3.3 FunctionInfo).
type ParamFlag int

const (
	ParamIn ParamFlag = iota
	ParamOut
	ParamInOut
)

// Param is one formal parameter of a function/method/funcdef.
type Param struct {
	NamePos    source.Position
	Name       string // may be empty for funcdef parameters
	Type       *TypeExpr
	Flag       ParamFlag
	IsConst    bool
	Default    Expression // nil if no default
}

// VarDecl declares a local or global variable, optionally with an
// initializer. As a top-level declaration (no enclosing function) it is
// a global variable (spec §3.1 GlobalId); inside a function body it is a
// local (allocated a slot by `allocate_local`, spec §4.3).
type VarDecl struct {
	DeclPos source.Position
	Name    string
	Type    *TypeExpr // nil if the type must be inferred from Init
	Init    Expression
	IsConst bool

	// Slot is the local slot index the analyzer allocated for this
	// declaration. Meaningless (left at zero) for a global VarDecl; the
	// code generator only reads it inside a function body.
	Slot int
}

func (v *VarDecl) Pos() source.Position { return v.DeclPos }
func (v *VarDecl) String() string       { return "<var " + v.Name + ">" }
func (v *VarDecl) stmtNode()            {}

// NamespaceDecl introduces a (possibly nested) namespace scope around
// the declarations in Body.
type NamespaceDecl struct {
	DeclPos source.Position
	Path    []string
	Body    []Node
}

func (n *NamespaceDecl) Pos() source.Position { return n.DeclPos }
func (n *NamespaceDecl) String() string       { return "<namespace>" }
func (n *NamespaceDecl) stmtNode()            {}

// EnumDecl declares a named enumeration (spec §3.2 TypeDef/Enum).
type EnumDecl struct {
	DeclPos source.Position
	Name    string
	Members []EnumMember
}

// EnumMember is one `(ident, integer)` pair; Value is nil when the
// integer is implicit (previous value + 1, or 0 for the first member).
type EnumMember struct {
	NamePos source.Position
	Name    string
	Value   Expression
}

func (e *EnumDecl) Pos() source.Position { return e.DeclPos }
func (e *EnumDecl) String() string       { return "<enum " + e.Name + ">" }
func (e *EnumDecl) stmtNode()            {}

// FuncdefDecl declares a named function-pointer type (spec GLOSSARY
// "Funcdef"), usable as a first-class type for delegates/callbacks.
type FuncdefDecl struct {
	DeclPos    source.Position
	Name       string
	ReturnType *TypeExpr
	Params     []*Param
}

func (f *FuncdefDecl) Pos() source.Position { return f.DeclPos }
func (f *FuncdefDecl) String() string       { return "<funcdef " + f.Name + ">" }
func (f *FuncdefDecl) stmtNode()            {}
