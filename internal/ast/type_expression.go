package ast

import "github.com/cwbudde/go-angelscript/internal/source"

// TypeExpr is a syntactic type reference as written in source: a bare
// name ("int", "MyClass"), a qualified name ("ns::MyClass"), or a
// template instantiation ("array<int>", "dictionary<string, MyClass@>").
// The analyzer resolves it to a concrete TypeId.
type TypeExpr struct {
	TypePos   source.Position
	Namespace []string // nested namespace path, empty for unqualified
	Name      string
	Args      []*TypeExpr // template sub-type arguments, nil if not a template
	IsHandle  bool        // trailing '@' — object handle rather than value
	IsConst   bool
}

func (t *TypeExpr) Pos() source.Position { return t.TypePos }
func (t *TypeExpr) String() string       { return t.Name }
