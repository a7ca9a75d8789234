package semantic

import (
	"github.com/cwbudde/go-angelscript/internal/ast"
	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/registry"
)

// analyzeExpr resolves e's meaning and tags it with an ExprContext
// (spec §4.3): which lowering recipe codegen should use, and the
// resolved TypeId flowing out of it.
func (a *Analyzer) analyzeExpr(e ast.Expression, s *scope, fc *funcCtx) registry.TypeId {
	switch n := e.(type) {
	case *ast.Literal:
		return a.analyzeLiteral(n)
	case *ast.Identifier:
		return a.analyzeIdentifier(n, s, fc)
	case *ast.ThisExpr:
		if fc.owner == registry.TypeVoid {
			a.errorf(spanAt(n.Pos()), errors.InvalidOperation, "'this' used outside a method")
			return registry.TypeVoid
		}
		n.SetContext(&ast.ExprContext{Kind: ast.CtxHandle, Type: int(fc.owner)})
		return fc.owner
	case *ast.InitListExpr:
		for _, el := range n.Elements {
			a.analyzeExpr(el, s, fc)
		}
		n.SetContext(&ast.ExprContext{Kind: ast.CtxTemporary})
		return registry.TypeVoid
	case *ast.BinaryExpr:
		return a.analyzeBinary(n, s, fc)
	case *ast.UnaryExpr:
		ty := a.analyzeExpr(n.Operand, s, fc)
		n.SetContext(&ast.ExprContext{Kind: ast.CtxTemporary, Type: int(ty)})
		return ty
	case *ast.AssignExpr:
		return a.analyzeAssign(n, s, fc)
	case *ast.TernaryExpr:
		a.analyzeExpr(n.Cond, s, fc)
		tThen := a.analyzeExpr(n.Then, s, fc)
		a.analyzeExpr(n.Else, s, fc)
		n.SetContext(&ast.ExprContext{Kind: ast.CtxTemporary, Type: int(tThen)})
		return tThen
	case *ast.CallExpr:
		return a.analyzeCall(n, s, fc)
	case *ast.MemberExpr:
		return a.analyzeMember(n, s, fc)
	case *ast.IndexExpr:
		recvTy := a.analyzeExpr(n.Receiver, s, fc)
		a.analyzeExpr(n.Index, s, fc)
		n.SetContext(&ast.ExprContext{Kind: ast.CtxTemporary, Type: int(recvTy)})
		return recvTy
	case *ast.CastExpr:
		a.analyzeExpr(n.Operand, s, fc)
		tid := a.resolveTypeOrVoid(n.TargetTy)
		n.SetContext(&ast.ExprContext{Kind: ast.CtxTemporary, Type: int(tid)})
		return tid
	case *ast.LambdaExpr:
		return a.analyzeLambda(n, s, fc)
	default:
		return registry.TypeVoid
	}
}

func (a *Analyzer) analyzeLiteral(lit *ast.Literal) registry.TypeId {
	var tid registry.TypeId
	switch lit.Kind {
	case ast.LitBool:
		tid = registry.TypeBool
	case ast.LitInt8:
		tid = registry.TypeInt8
	case ast.LitInt16:
		tid = registry.TypeInt16
	case ast.LitInt32:
		tid = registry.TypeInt32
	case ast.LitInt64:
		tid = registry.TypeInt64
	case ast.LitUint8:
		tid = registry.TypeUint8
	case ast.LitUint16:
		tid = registry.TypeUint16
	case ast.LitUint32:
		tid = registry.TypeUint32
	case ast.LitUint64:
		tid = registry.TypeUint64
	case ast.LitFloat:
		tid = registry.TypeFloat
	case ast.LitDouble:
		tid = registry.TypeDouble
	case ast.LitString:
		tid = registry.TypeString
	case ast.LitNull:
		tid = registry.TypeVoid
	}
	lit.SetContext(&ast.ExprContext{Kind: ast.CtxLiteral, Type: int(tid)})
	return tid
}

func (a *Analyzer) analyzeIdentifier(id *ast.Identifier, s *scope, fc *funcCtx) registry.TypeId {
	if lv, ok := s.lookup(id.Name); ok {
		id.SetContext(&ast.ExprContext{Kind: ast.CtxLocalVar, Type: int(lv.typeID), LocalSlot: lv.slot, IsConst: lv.isConst})
		return lv.typeID
	}
	if fc.owner != registry.TypeVoid {
		if owner := a.reg.Type(fc.owner); owner != nil {
			for _, prop := range owner.Properties {
				if prop.Name == id.Name {
					if prop.HasGetter() || prop.HasSetter() {
						id.SetContext(&ast.ExprContext{Kind: ast.CtxVirtualProperty, Type: int(prop.TypeID),
							PropertyName: prop.Name, GetterID: int(prop.Getter), SetterID: int(prop.Setter)})
					} else {
						id.SetContext(&ast.ExprContext{Kind: ast.CtxPropertyAccess, Type: int(prop.TypeID), PropertyName: prop.Name})
					}
					return prop.TypeID
				}
			}
		}
	}
	if gid, ok := a.reg.LookupGlobal(id.Name); ok {
		g := a.reg.Global(gid)
		id.SetContext(&ast.ExprContext{Kind: ast.CtxGlobalVar, Type: int(g.TypeID), GlobalIndex: int(gid)})
		return g.TypeID
	}
	a.errorf(spanAt(id.Pos()), errors.UndefinedVariable, "undefined identifier %q", id.Name)
	return registry.TypeVoid
}

func (a *Analyzer) analyzeBinary(n *ast.BinaryExpr, s *scope, fc *funcCtx) registry.TypeId {
	lt := a.analyzeExpr(n.Left, s, fc)
	a.analyzeExpr(n.Right, s, fc)
	resTy := lt
	switch n.Op {
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte, ast.OpLogicalAnd, ast.OpLogicalOr:
		resTy = registry.TypeBool
	}
	n.SetContext(&ast.ExprContext{Kind: ast.CtxTemporary, Type: int(resTy)})
	return resTy
}

func (a *Analyzer) analyzeAssign(n *ast.AssignExpr, s *scope, fc *funcCtx) registry.TypeId {
	lt := a.analyzeExpr(n.Lhs, s, fc)
	a.analyzeExpr(n.Rhs, s, fc)
	if lctx := n.Lhs.Context(); lctx != nil && lctx.IsConst {
		a.errorf(spanAt(n.Pos()), errors.InvalidLValue, "cannot assign to a const value")
	}
	n.SetContext(&ast.ExprContext{Kind: ast.CtxTemporary, Type: int(lt)})
	return lt
}

func (a *Analyzer) analyzeCall(n *ast.CallExpr, s *scope, fc *funcCtx) registry.TypeId {
	for _, arg := range n.Args {
		a.analyzeExpr(arg, s, fc)
	}
	argTypes := make([]registry.TypeId, len(n.Args))
	for i, arg := range n.Args {
		if ctx := arg.Context(); ctx != nil {
			argTypes[i] = registry.TypeId(ctx.Type)
		}
	}

	if member, ok := n.Callee.(*ast.MemberExpr); ok {
		return a.analyzeMethodCall(n, member, argTypes, s, fc)
	}

	callee, ok := n.Callee.(*ast.Identifier)
	if !ok {
		a.analyzeExpr(n.Callee, s, fc)
		n.SetContext(&ast.ExprContext{Kind: ast.CtxTemporary})
		return registry.TypeVoid
	}

	if n.IsNew {
		tid, err := a.reg.LookupType(callee.Name)
		if err != nil {
			a.errorf(spanAt(n.Pos()), errors.UndefinedType, "undefined type %q", callee.Name)
			return registry.TypeVoid
		}
		n.SetContext(&ast.ExprContext{Kind: ast.CtxHandle, Type: int(tid)})
		return tid
	}

	candidates := a.reg.FindFunction(nil, callee.Name)
	if len(candidates) == 0 {
		a.errorf(spanAt(n.Pos()), errors.UndefinedFunction, "undefined function %q", callee.Name)
		return registry.TypeVoid
	}
	winner, rankErr := a.resolveOverload(candidates, argTypes)
	if rankErr != nil {
		if ce, ok := rankErr.(*errors.CompileError); ok {
			ce.Span = spanAt(n.Pos())
			ce.Source = a.src
			a.diags = append(a.diags, ce)
		}
		return registry.TypeVoid
	}
	fn := a.reg.Function(winner)
	callee.SetContext(&ast.ExprContext{Kind: ast.CtxFunctionCall, FunctionID: int(winner)})
	n.SetContext(&ast.ExprContext{Kind: ast.CtxFunctionCall, Type: int(fn.ReturnType), FunctionID: int(winner)})
	return fn.ReturnType
}

// analyzeMethodCall resolves `receiver.method(args)` to the winning
// overload on the receiver's type, the same ranking analyzeCall's
// free-function path uses (spec §4.3 "For calls, perform overload
// resolution... Attach MethodCall{function_id, return_type}").
func (a *Analyzer) analyzeMethodCall(n *ast.CallExpr, member *ast.MemberExpr, argTypes []registry.TypeId, s *scope, fc *funcCtx) registry.TypeId {
	recvTy := a.analyzeExpr(member.Receiver, s, fc)
	owner := a.reg.Type(recvTy)
	if owner == nil {
		a.errorf(spanAt(n.Pos()), errors.UndefinedField, "cannot access member %q", member.Name)
		return registry.TypeVoid
	}

	var candidates []registry.FunctionId
	for _, mid := range owner.Methods {
		if fn := a.reg.Function(mid); fn != nil && fn.Name == member.Name {
			candidates = append(candidates, mid)
		}
	}
	if len(candidates) == 0 {
		a.errorf(spanAt(n.Pos()), errors.UndefinedField, "type %q has no method %q", owner.Name, member.Name)
		return registry.TypeVoid
	}
	winner, rankErr := a.resolveOverload(candidates, argTypes)
	if rankErr != nil {
		if ce, ok := rankErr.(*errors.CompileError); ok {
			ce.Span = spanAt(n.Pos())
			ce.Source = a.src
			a.diags = append(a.diags, ce)
		}
		return registry.TypeVoid
	}
	fn := a.reg.Function(winner)
	member.SetContext(&ast.ExprContext{Kind: ast.CtxMethodCall, Type: int(fn.ReturnType), FunctionID: int(winner)})
	n.SetContext(&ast.ExprContext{Kind: ast.CtxMethodCall, Type: int(fn.ReturnType), FunctionID: int(winner)})
	return fn.ReturnType
}

func (a *Analyzer) analyzeMember(n *ast.MemberExpr, s *scope, fc *funcCtx) registry.TypeId {
	recvTy := a.analyzeExpr(n.Receiver, s, fc)
	owner := a.reg.Type(recvTy)
	if owner == nil {
		a.errorf(spanAt(n.Pos()), errors.UndefinedField, "cannot access member %q", n.Name)
		return registry.TypeVoid
	}
	for _, prop := range owner.Properties {
		if prop.Name == n.Name {
			if prop.HasGetter() || prop.HasSetter() {
				n.SetContext(&ast.ExprContext{Kind: ast.CtxVirtualProperty, Type: int(prop.TypeID),
					PropertyName: prop.Name, GetterID: int(prop.Getter), SetterID: int(prop.Setter)})
			} else {
				n.SetContext(&ast.ExprContext{Kind: ast.CtxPropertyAccess, Type: int(prop.TypeID), PropertyName: prop.Name})
			}
			return prop.TypeID
		}
	}
	for _, em := range owner.EnumMembers {
		if em.Name == n.Name {
			n.SetContext(&ast.ExprContext{Kind: ast.CtxLiteral, Type: int(recvTy)})
			return recvTy
		}
	}
	for _, mid := range owner.Methods {
		fn := a.reg.Function(mid)
		if fn != nil && fn.Name == n.Name {
			n.SetContext(&ast.ExprContext{Kind: ast.CtxMethodCall, Type: int(fn.ReturnType), FunctionID: int(mid)})
			return fn.ReturnType
		}
	}
	a.errorf(spanAt(n.Pos()), errors.UndefinedField, "type %q has no member %q", owner.Name, n.Name)
	return registry.TypeVoid
}

func (a *Analyzer) analyzeLambda(n *ast.LambdaExpr, s *scope, fc *funcCtx) registry.TypeId {
	inner := newScope(s)
	innerSlots := &slotAllocator{}
	for _, p := range n.Params {
		inner.declare(p.Name, a.resolveTypeOrVoid(p.Type), innerSlots.alloc(), p.IsConst)
	}
	lambdaFc := &funcCtx{owner: fc.owner, slots: innerSlots, retTy: a.resolveTypeOrVoid(n.ReturnType)}
	for _, stmt := range n.Body {
		a.analyzeStmt(stmt, inner, lambdaFc)
	}
	n.SetContext(&ast.ExprContext{Kind: ast.CtxTemporary})
	return registry.TypeVoid
}
