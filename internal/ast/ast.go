// Package ast defines the Abstract Syntax Tree node contract the rest of
// the pipeline (semantic analyzer, code generator) consumes. The lexer
// and parser that produce this tree are out of scope for this module
// (spec §1); this package exists only to give the core a concrete input
// shape to walk, in the same tagged-node style the teacher's own AST
// package uses.
package ast

import (
	"github.com/cwbudde/go-angelscript/internal/source"
)

// Node is the base interface every AST node implements.
type Node interface {
	Pos() source.Position
	String() string
}

// Expression is any node that produces a value. ExprContext is filled in
// by the semantic analyzer (spec §4.3) and consumed by the code
// generator (spec §4.4); it starts nil and must be non-nil by the time
// codegen runs.
type Expression interface {
	Node
	exprNode()
	Context() *ExprContext
	SetContext(*ExprContext)
}

// Statement is any node that performs an action without itself producing
// a value.
type Statement interface {
	Node
	stmtNode()
}

// ExprContext mirrors spec §4.3: one concrete lowering recipe per
// expression, attached by the analyzer before codegen runs. Exactly one
// field matching Kind is meaningful.
type ExprContext struct {
	Kind ExprContextKind
	Type int // TypeId, resolved by the analyzer

	LocalSlot    int
	GlobalIndex  int
	FunctionID   int // FunctionCall / MethodCall winning overload
	PropertyName string
	GetterID     int // VirtualProperty: 0 means absent
	SetterID     int
	IsConst      bool // receiver-is-const, for const-method filtering
}

type ExprContextKind int

const (
	CtxLiteral ExprContextKind = iota
	CtxLocalVar
	CtxGlobalVar
	CtxFunctionCall
	CtxMethodCall
	CtxPropertyAccess
	CtxVirtualProperty
	CtxTemporary
	CtxHandle
	CtxReference
)

// baseExpr is embedded by every concrete expression node to satisfy the
// Context()/SetContext() half of the Expression interface once.
type baseExpr struct {
	ctx *ExprContext
}

func (b *baseExpr) Context() *ExprContext     { return b.ctx }
func (b *baseExpr) SetContext(c *ExprContext) { b.ctx = c }

// Program is the root of a compiled unit: a flat list of top-level
// declarations and statements, in source order.
type Program struct {
	Decls []Node
}

func (p *Program) Pos() source.Position {
	if len(p.Decls) == 0 {
		return source.Position{Line: 1, Column: 1}
	}
	return p.Decls[0].Pos()
}
func (p *Program) String() string { return "<program>" }

// Identifier is a bare name reference (variable, function, type, enum
// member — disambiguated by the analyzer, not by the parser).
type Identifier struct {
	baseExpr
	NamePos source.Position
	Name    string
}

func (i *Identifier) exprNode()             {}
func (i *Identifier) Pos() source.Position  { return i.NamePos }
func (i *Identifier) String() string        { return i.Name }

// Literal kinds (spec §3.6, §6.2).
type LiteralKind int

const (
	LitBool LiteralKind = iota
	LitInt8
	LitInt16
	LitInt32
	LitInt64
	LitUint8
	LitUint16
	LitUint32
	LitUint64
	LitFloat
	LitDouble
	LitString
	LitNull
)

// Literal is any of the primitive literal forms in §3.6/§6.2. Value
// holds the parsed Go representation (bool, int64, uint64, float64,
// string, or nil for LitNull); the analyzer narrows int64 to the
// concrete width from Kind.
type Literal struct {
	baseExpr
	LitPos source.Position
	Kind   LiteralKind
	Value  interface{}
}

func (l *Literal) exprNode()            {}
func (l *Literal) Pos() source.Position { return l.LitPos }
func (l *Literal) String() string       { return "<literal>" }

// InitListExpr is a brace-enclosed initializer list consumed by a type's
// ListConstruct/ListFactory behaviour (§4.4 "Init-lists", GLOSSARY).
// Elements may themselves be InitListExpr for nested lists.
type InitListExpr struct {
	baseExpr
	StartPos source.Position
	Elements []Expression
}

func (e *InitListExpr) exprNode()            {}
func (e *InitListExpr) Pos() source.Position { return e.StartPos }
func (e *InitListExpr) String() string       { return "<init-list>" }

// BinaryExpr is any two-operand operator expression, including the
// short-circuit `&&`/`||` forms (§4.4).
type BinaryExpr struct {
	baseExpr
	OpPos source.Position
	Op    BinaryOp
	Left  Expression
	Right Expression
}

func (b *BinaryExpr) exprNode()            {}
func (b *BinaryExpr) Pos() source.Position { return b.OpPos }
func (b *BinaryExpr) String() string       { return "<binary>" }

type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShrLogical
	OpShrArith
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpLogicalAnd
	OpLogicalOr
)

// UnaryExpr covers prefix/postfix negation, logical not, bitwise not and
// ++/-- (compiled as INC/DEC, §4.5).
type UnaryExpr struct {
	baseExpr
	OpPos   source.Position
	Op      UnaryOp
	Operand Expression
	Postfix bool
}

func (u *UnaryExpr) exprNode()            {}
func (u *UnaryExpr) Pos() source.Position { return u.OpPos }
func (u *UnaryExpr) String() string       { return "<unary>" }

type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
	OpBitNot
	OpInc
	OpDec
)

// AssignExpr is `lhs = rhs` or a compound `lhs op= rhs` (§4.4 "Compound
// assignment").
type AssignExpr struct {
	baseExpr
	OpPos    source.Position
	Lhs      Expression
	Rhs      Expression
	Compound BinaryOp // meaningful only when IsCompound
	IsCompound bool
}

func (a *AssignExpr) exprNode()            {}
func (a *AssignExpr) Pos() source.Position { return a.OpPos }
func (a *AssignExpr) String() string       { return "<assign>" }

// TernaryExpr is `cond ? then : else`.
type TernaryExpr struct {
	baseExpr
	QPos source.Position
	Cond Expression
	Then Expression
	Else Expression
}

func (t *TernaryExpr) exprNode()            {}
func (t *TernaryExpr) Pos() source.Position { return t.QPos }
func (t *TernaryExpr) String() string       { return "<ternary>" }

// CallExpr is a function/method/funcdef-pointer invocation, or a
// construction expression (`new T(args)`) before the analyzer decides
// which (§4.3 overload resolution picks FunctionId).
type CallExpr struct {
	baseExpr
	CallPos source.Position
	Callee  Expression // Identifier or MemberExpr; for `new T(...)` an Identifier naming T
	Args    []Expression
	IsNew   bool
}

func (c *CallExpr) exprNode()            {}
func (c *CallExpr) Pos() source.Position { return c.CallPos }
func (c *CallExpr) String() string       { return "<call>" }

// MemberExpr is `receiver.name`, resolved by the analyzer into
// PropertyAccess, VirtualProperty, MethodCall (when immediately called),
// or an enum-member reference.
type MemberExpr struct {
	baseExpr
	DotPos   source.Position
	Receiver Expression
	Name     string
}

func (m *MemberExpr) exprNode()            {}
func (m *MemberExpr) Pos() source.Position { return m.DotPos }
func (m *MemberExpr) String() string       { return "<member>" }

// IndexExpr is `receiver[index]`, resolved against the receiver type's
// `opIndex` behaviour (§3.7 invariant 6).
type IndexExpr struct {
	baseExpr
	BracketPos source.Position
	Receiver   Expression
	Index      Expression
}

func (ix *IndexExpr) exprNode()            {}
func (ix *IndexExpr) Pos() source.Position { return ix.BracketPos }
func (ix *IndexExpr) String() string       { return "<index>" }

// CastExpr is an explicit `T(expr)` or `cast<T>(expr)` conversion.
type CastExpr struct {
	baseExpr
	CastPos  source.Position
	TargetTy *TypeExpr
	Operand  Expression
}

func (c *CastExpr) exprNode()            {}
func (c *CastExpr) Pos() source.Position { return c.CastPos }
func (c *CastExpr) String() string       { return "<cast>" }

// ThisExpr is the implicit receiver inside a method body.
type ThisExpr struct {
	baseExpr
	ThisPos source.Position
}

func (t *ThisExpr) exprNode()            {}
func (t *ThisExpr) Pos() source.Position { return t.ThisPos }
func (t *ThisExpr) String() string       { return "this" }
