package semantic

import (
	"github.com/cwbudde/go-angelscript/internal/ast"
	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/registry"
)

// funcCtx carries the per-function state pass two threads through
// statement/expression analysis: the slot allocator, the owning class
// (for `this`/field lookups), the declared return type, and the
// declaration itself. Loop and switch nesting depth live on Analyzer.
type funcCtx struct {
	owner  registry.TypeId
	slots  *slotAllocator
	retTy  registry.TypeId
	fnDecl *ast.FunctionDecl
}

// analyzeBodies is pass two (spec §4.2): every function/method/property
// accessor body is walked with its own scope chain and slot allocator.
func (a *Analyzer) analyzeBodies(decls []ast.Node) {
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.FunctionDecl:
			a.analyzeFunction(n, registry.TypeVoid)
		case *ast.ClassDecl:
			owner := a.classByName[n.Name]
			for _, m := range n.Methods {
				a.analyzeFunction(m, owner)
			}
			for _, p := range n.Properties {
				if p.Get != nil {
					a.analyzeFunction(p.Get, owner)
				}
				if p.Set != nil {
					a.analyzeFunction(p.Set, owner)
				}
			}
		case *ast.NamespaceDecl:
			a.analyzeBodies(n.Body)
		}
	}
}

func (a *Analyzer) analyzeFunction(fn *ast.FunctionDecl, owner registry.TypeId) {
	if fn.Body == nil {
		return // abstract/interface/native declaration, nothing to walk
	}
	fc := &funcCtx{owner: owner, slots: &slotAllocator{}, retTy: a.resolveTypeOrVoid(fn.ReturnType), fnDecl: fn}
	s := newScope(nil)
	if owner != registry.TypeVoid {
		fc.slots.alloc() // slot 0 holds the `this` receiver
	}
	for _, p := range fn.Params {
		s.declare(p.Name, a.resolveTypeOrVoid(p.Type), fc.slots.alloc(), p.IsConst)
	}
	for _, stmt := range fn.Body {
		a.analyzeStmt(stmt, s, fc)
	}
	fn.Locals = fc.slots.count()
}

func (a *Analyzer) analyzeStmt(stmt ast.Statement, s *scope, fc *funcCtx) {
	switch n := stmt.(type) {
	case *ast.BlockStmt:
		inner := newScope(s)
		for _, st := range n.Stmts {
			a.analyzeStmt(st, inner, fc)
		}
	case *ast.VarDeclStmt:
		a.analyzeLocalDecl(n.Decl, s, fc)
	case *ast.ExprStmt:
		a.analyzeExpr(n.X, s, fc)
	case *ast.ReturnStmt:
		if n.Value != nil {
			a.analyzeExpr(n.Value, s, fc)
		}
	case *ast.IfStmt:
		a.analyzeExpr(n.Cond, s, fc)
		a.analyzeStmt(n.Then, s, fc)
		if n.Else != nil {
			a.analyzeStmt(n.Else, s, fc)
		}
	case *ast.WhileStmt:
		a.analyzeExpr(n.Cond, s, fc)
		a.loopDepth++
		a.analyzeStmt(n.Body, s, fc)
		a.loopDepth--
	case *ast.DoWhileStmt:
		a.loopDepth++
		a.analyzeStmt(n.Body, s, fc)
		a.loopDepth--
		a.analyzeExpr(n.Cond, s, fc)
	case *ast.ForStmt:
		inner := newScope(s)
		if n.Init != nil {
			a.analyzeStmt(n.Init, inner, fc)
		}
		if n.Cond != nil {
			a.analyzeExpr(n.Cond, inner, fc)
		}
		if n.Post != nil {
			a.analyzeExpr(n.Post, inner, fc)
		}
		a.loopDepth++
		a.analyzeStmt(n.Body, inner, fc)
		a.loopDepth--
	case *ast.ForEachStmt:
		iterTy := a.analyzeExpr(n.Iterable, s, fc)
		if owner := a.reg.Type(iterTy); owner != nil {
			n.BeginFunc = int(owner.Behaviours[registry.OpForBegin])
			n.EndFunc = int(owner.Behaviours[registry.OpForEnd])
			n.ValueFunc = int(owner.Behaviours[registry.OpForValue])
			n.NextFunc = int(owner.Behaviours[registry.OpForNext])
		}
		varTy := a.resolveTypeOrVoid(n.VarType)
		if n.VarType == nil && n.ValueFunc != 0 {
			if fn := a.reg.Function(registry.FunctionId(n.ValueFunc)); fn != nil {
				varTy = fn.ReturnType
			}
		}
		n.ContainerSlot = fc.slots.alloc()
		n.IterSlot = fc.slots.alloc()
		inner := newScope(s)
		n.Slot = fc.slots.alloc()
		inner.declare(n.VarName, varTy, n.Slot, false)
		a.loopDepth++
		a.analyzeStmt(n.Body, inner, fc)
		a.loopDepth--
	case *ast.BreakStmt:
		if a.loopDepth == 0 && a.switchDepth == 0 {
			a.errorf(spanAt(n.Pos()), errors.BreakOutsideLoop, "break outside loop")
		}
	case *ast.ContinueStmt:
		if a.loopDepth == 0 {
			a.errorf(spanAt(n.Pos()), errors.ContinueOutsideLoop, "continue outside loop")
		}
	case *ast.SwitchStmt:
		a.analyzeExpr(n.Discr, s, fc)
		n.DiscrSlot = fc.slots.alloc()
		a.switchDepth++
		for _, c := range n.Cases {
			if c.Value != nil {
				a.analyzeExpr(c.Value, s, fc)
			}
			inner := newScope(s)
			for _, st := range c.Body {
				a.analyzeStmt(st, inner, fc)
			}
		}
		a.switchDepth--
	case *ast.TryStmt:
		a.analyzeStmt(n.Body, s, fc)
		for _, c := range n.Catches {
			inner := newScope(s)
			if c.VarName != "" {
				c.Slot = fc.slots.alloc()
				inner.declare(c.VarName, a.resolveTypeOrVoid(c.VarType), c.Slot, false)
			}
			for _, st := range c.Body.Stmts {
				a.analyzeStmt(st, inner, fc)
			}
		}
		if n.Finally != nil {
			a.analyzeStmt(n.Finally, s, fc)
		}
	case *ast.ThrowStmt:
		a.analyzeExpr(n.Value, s, fc)
	}
}

func (a *Analyzer) analyzeLocalDecl(vd *ast.VarDecl, s *scope, fc *funcCtx) {
	var tid registry.TypeId
	if vd.Init != nil {
		a.analyzeExpr(vd.Init, s, fc)
		if vd.Type != nil {
			tid = a.resolveTypeOrVoid(vd.Type)
		} else if ctx := vd.Init.Context(); ctx != nil {
			tid = registry.TypeId(ctx.Type)
		}
	} else {
		tid = a.resolveTypeOrVoid(vd.Type)
	}
	slot := fc.slots.alloc()
	vd.Slot = slot
	s.declare(vd.Name, tid, slot, vd.IsConst)
}
