package ast

import "github.com/cwbudde/go-angelscript/internal/source"

// LambdaExpr is an anonymous function literal. The code generator
// compiles it as a synthetic free function named `$lambda_N` and
// evaluates the expression itself to a function-pointer value (spec
// §4.4 "Lambdas").
type LambdaExpr struct {
	baseExpr
	StartPos   source.Position
	Params     []*Param
	ReturnType *TypeExpr // nil to infer from the body
	Body       []Statement
}

func (l *LambdaExpr) exprNode()            {}
func (l *LambdaExpr) Pos() source.Position { return l.StartPos }
func (l *LambdaExpr) String() string       { return "<lambda>" }
