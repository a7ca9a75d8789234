package ast

import "github.com/cwbudde/go-angelscript/internal/source"

// ClassDecl declares a script class: single base, multiple interfaces
// (spec §6.2), ordinary fields, methods, and virtual properties.
type ClassDecl struct {
	DeclPos    source.Position
	Name       string
	Base       string   // empty if no base class
	Interfaces []string // implemented interface names

	Fields     []*FieldDecl
	Methods    []*FunctionDecl
	Properties []*PropertyDecl

	IsFinal    bool
	IsAbstract bool
}

func (c *ClassDecl) Pos() source.Position { return c.DeclPos }
func (c *ClassDecl) String() string       { return "<class " + c.Name + ">" }
func (c *ClassDecl) stmtNode()            {}

// FieldDecl is an ordinary stored member variable of a class (spec §3.2
// Property with no getter/setter).
type FieldDecl struct {
	DeclPos    source.Position
	Name       string
	Type       *TypeExpr
	Visibility Visibility
	Init       Expression // nil uses the type's default value
}

// PropertyDecl is a virtual property: a getter and/or setter function
// pair standing in for a field (spec §3.2 Property, GLOSSARY "Virtual
// property"). Get/Set are nil when that accessor is absent.
type PropertyDecl struct {
	DeclPos    source.Position
	Name       string
	Type       *TypeExpr
	Visibility Visibility
	Get        *FunctionDecl // synthesized as get_<name>
	Set        *FunctionDecl // synthesized as set_<name>
}

// InterfaceDecl declares an interface: a name plus required method
// signatures (spec §3.2 TypeDef/Interface).
type InterfaceDecl struct {
	DeclPos    source.Position
	Name       string
	Bases      []string // interfaces may extend other interfaces
	Methods    []*FunctionDecl
	Properties []*PropertyDecl
}

func (i *InterfaceDecl) Pos() source.Position { return i.DeclPos }
func (i *InterfaceDecl) String() string       { return "<interface " + i.Name + ">" }
func (i *InterfaceDecl) stmtNode()            {}
