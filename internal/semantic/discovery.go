package semantic

import (
	"github.com/cwbudde/go-angelscript/internal/ast"
	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/registry"
)

// discover is pass one (spec §4.2): every type name, function
// signature, and global becomes a registry entry before any body is
// inspected, so forward references (a function calling one declared
// later in the same unit) resolve correctly.
func (a *Analyzer) discover(decls []ast.Node) {
	// Classes and interfaces are pre-registered by name only first, so
	// a field/base-class reference to a not-yet-fully-discovered class
	// still resolves to a TypeId (spec §3.7 invariant: class references
	// may be mutually recursive via handles).
	for _, d := range decls {
		if cd, ok := d.(*ast.ClassDecl); ok {
			a.preRegisterClass(cd)
		}
		if id, ok := d.(*ast.InterfaceDecl); ok {
			a.preRegisterInterface(id)
		}
	}

	for _, d := range decls {
		switch n := d.(type) {
		case *ast.EnumDecl:
			a.discoverEnum(n)
		case *ast.FuncdefDecl:
			a.discoverFuncdef(n)
		case *ast.ClassDecl:
			a.discoverClassBody(n)
		case *ast.InterfaceDecl:
			a.discoverInterfaceBody(n)
		case *ast.FunctionDecl:
			a.discoverFunction(n, registry.TypeVoid)
		case *ast.VarDecl:
			a.discoverGlobal(n)
		case *ast.NamespaceDecl:
			a.discover(n.Body)
		}
	}
}

func (a *Analyzer) preRegisterClass(cd *ast.ClassDecl) {
	if _, exists := a.classByName[cd.Name]; exists {
		a.errorf(spanAt(cd.Pos()), errors.DuplicateDeclaration, "class %q already declared", cd.Name)
		return
	}
	id, err := a.reg.RegisterType(&registry.TypeDef{Kind: registry.KindClass, Name: cd.Name})
	if err != nil {
		if ce, ok := err.(*errors.CompileError); ok {
			ce.Span = spanAt(cd.Pos())
			a.diags = append(a.diags, ce)
		}
		return
	}
	a.classByName[cd.Name] = id
}

func (a *Analyzer) preRegisterInterface(id *ast.InterfaceDecl) {
	if _, exists := a.classByName[id.Name]; exists {
		a.errorf(spanAt(id.Pos()), errors.DuplicateDeclaration, "interface %q already declared", id.Name)
		return
	}
	tid, err := a.reg.RegisterType(&registry.TypeDef{Kind: registry.KindInterface, Name: id.Name})
	if err != nil {
		if ce, ok := err.(*errors.CompileError); ok {
			ce.Span = spanAt(id.Pos())
			a.diags = append(a.diags, ce)
		}
		return
	}
	a.classByName[id.Name] = tid
}

func (a *Analyzer) discoverEnum(ed *ast.EnumDecl) {
	td := &registry.TypeDef{Kind: registry.KindEnum, Name: ed.Name}
	next := int64(0)
	for _, m := range ed.Members {
		val := next
		if m.Value != nil {
			if lit, ok := m.Value.(*ast.Literal); ok {
				if iv, ok := lit.Value.(int64); ok {
					val = iv
				}
			}
		}
		td.EnumMembers = append(td.EnumMembers, registry.EnumMember{Name: m.Name, Value: val})
		next = val + 1
	}
	if _, err := a.reg.RegisterType(td); err != nil {
		if ce, ok := err.(*errors.CompileError); ok {
			ce.Span = spanAt(ed.Pos())
			a.diags = append(a.diags, ce)
		}
	}
}

func (a *Analyzer) discoverFuncdef(fd *ast.FuncdefDecl) {
	ret := a.resolveTypeOrVoid(fd.ReturnType)
	params := a.resolveParams(fd.Params)
	td := &registry.TypeDef{Kind: registry.KindFuncdef, Name: fd.Name, FuncdefReturn: ret, FuncdefParams: params}
	if _, err := a.reg.RegisterType(td); err != nil {
		if ce, ok := err.(*errors.CompileError); ok {
			ce.Span = spanAt(fd.Pos())
			a.diags = append(a.diags, ce)
		}
	}
}

func (a *Analyzer) discoverClassBody(cd *ast.ClassDecl) {
	id, ok := a.classByName[cd.Name]
	if !ok {
		return
	}
	td := a.reg.Type(id)

	if cd.Base != "" {
		if baseID, ok := a.classByName[cd.Base]; ok {
			td.BaseClass = baseID
		} else {
			a.errorf(spanAt(cd.Pos()), errors.UndefinedType, "undefined base class %q", cd.Base)
		}
	}
	for _, ifaceName := range cd.Interfaces {
		if ifaceID, ok := a.classByName[ifaceName]; ok {
			td.Interfaces = append(td.Interfaces, ifaceID)
		} else {
			a.errorf(spanAt(cd.Pos()), errors.UndefinedType, "undefined interface %q", ifaceName)
		}
	}
	if cd.IsFinal {
		// Final classes may still be value or reference types; finality
		// only forbids further inheritance, tracked at analysis time via
		// BaseClass lookups rather than a ClassFlags bit.
	}

	for _, f := range cd.Fields {
		fid := a.resolveTypeOrVoid(f.Type)
		td.Properties = append(td.Properties, registry.Property{Name: f.Name, TypeID: fid})
	}
	for _, p := range cd.Properties {
		prop := registry.Property{Name: p.Name, TypeID: a.resolveTypeOrVoid(p.Type)}
		if p.Get != nil {
			prop.Getter = a.discoverFunction(p.Get, id)
		}
		if p.Set != nil {
			prop.Setter = a.discoverFunction(p.Set, id)
		}
		td.Properties = append(td.Properties, prop)
	}
	for _, m := range cd.Methods {
		mid := a.discoverFunction(m, id)
		td.Methods = append(td.Methods, mid)
		if kind, ok := behaviourMethodNames[m.Name]; ok {
			if td.Behaviours == nil {
				td.Behaviours = make(map[registry.BehaviourKind]registry.FunctionId)
			}
			td.Behaviours[kind] = mid
		}
	}
}

// behaviourMethodNames maps the special operator-method names spec §3.2
// recognizes to the behaviour slot they fill on the owning TypeDef (spec
// §4.3 invariant 6: "opIndex/opCall/opFor* must resolve to a method
// registered on the operand's TypeId at analysis time").
var behaviourMethodNames = map[string]registry.BehaviourKind{
	"opAssign":   registry.OpAssign,
	"opIndex":    registry.OpIndex,
	"opCall":     registry.OpCall,
	"opForBegin": registry.OpForBegin,
	"opForEnd":   registry.OpForEnd,
	"opForValue": registry.OpForValue,
	"opForNext":  registry.OpForNext,
}

func (a *Analyzer) discoverInterfaceBody(id *ast.InterfaceDecl) {
	tid, ok := a.classByName[id.Name]
	if !ok {
		return
	}
	td := a.reg.Type(tid)
	for _, base := range id.Bases {
		if baseID, ok := a.classByName[base]; ok {
			td.Interfaces = append(td.Interfaces, baseID)
		} else {
			a.errorf(spanAt(id.Pos()), errors.UndefinedType, "undefined base interface %q", base)
		}
	}
	for _, m := range id.Methods {
		mid := a.discoverFunction(m, tid)
		td.RequiredMethods = append(td.RequiredMethods, mid)
	}
}

// discoverFunction registers fn's signature and returns its FunctionId.
// owner is TypeVoid for a free function.
func (a *Analyzer) discoverFunction(fn *ast.FunctionDecl, owner registry.TypeId) registry.FunctionId {
	ret := a.resolveTypeOrVoid(fn.ReturnType)
	params := a.resolveParams(fn.Params)

	kind := registry.KindGlobalFunc
	if owner != registry.TypeVoid {
		kind = registry.KindMethod
	}

	var traits registry.FunctionTraits
	for _, t := range fn.Traits {
		switch t {
		case ast.TraitVirtual:
			traits |= registry.TraitVirtual
		case ast.TraitAbstract:
			traits |= registry.TraitAbstract
		case ast.TraitShared:
			traits |= registry.TraitShared
		case ast.TraitExternal:
			traits |= registry.TraitExternal
		case ast.TraitFinal:
			traits |= registry.TraitFinal
		case ast.TraitOverride:
			traits |= registry.TraitOverride
		}
	}

	info := &registry.FunctionInfo{
		Name:          fn.Name,
		Params:        params,
		ReturnType:    ret,
		Kind:          kind,
		IsConstMethod: fn.IsConst,
		Traits:        traits,
		OwnerType:     owner,
	}
	info.Impl.IsNative = fn.Body == nil
	return a.reg.RegisterFunction(info)
}

func (a *Analyzer) discoverGlobal(vd *ast.VarDecl) {
	tid := a.resolveTypeOrVoid(vd.Type)
	if _, err := a.reg.RegisterGlobal(&registry.GlobalInfo{Name: vd.Name, TypeID: tid}); err != nil {
		if ce, ok := err.(*errors.CompileError); ok {
			ce.Span = spanAt(vd.Pos())
			a.diags = append(a.diags, ce)
		}
	}
}

func (a *Analyzer) resolveParams(params []*ast.Param) []registry.ParamInfo {
	out := make([]registry.ParamInfo, 0, len(params))
	for _, p := range params {
		flag := registry.ParamIn
		switch p.Flag {
		case ast.ParamOut:
			flag = registry.ParamOut
		case ast.ParamInOut:
			flag = registry.ParamInOut
		}
		out = append(out, registry.ParamInfo{
			Name:       p.Name,
			TypeID:     a.resolveTypeOrVoid(p.Type),
			Flag:       flag,
			IsConst:    p.IsConst,
			HasDefault: p.Default != nil,
			Default:    p.Default,
		})
	}
	return out
}

// resolveTypeOrVoid resolves te, recording an UndefinedType diagnostic
// and returning TypeVoid on failure rather than aborting discovery: one
// bad type reference should not suppress every other diagnostic in the
// unit.
func (a *Analyzer) resolveTypeOrVoid(te *ast.TypeExpr) registry.TypeId {
	if te == nil {
		return registry.TypeVoid
	}
	id, err := a.resolveType(te)
	if err != nil {
		if ce, ok := err.(*errors.CompileError); ok {
			ce.Span = spanAt(te.Pos())
			a.diags = append(a.diags, ce)
		}
		return registry.TypeVoid
	}
	return id
}

// resolveType resolves a syntactic type reference to a TypeId,
// instantiating templates on demand (spec §3.7 invariant 4).
func (a *Analyzer) resolveType(te *ast.TypeExpr) (registry.TypeId, error) {
	if name, ok := a.classByName[te.Name]; ok && len(te.Args) == 0 {
		return name, nil
	}
	base, err := a.reg.LookupType(te.Name)
	if err != nil {
		return registry.TypeVoid, err
	}
	if len(te.Args) == 0 {
		return base, nil
	}
	args := make([]registry.TypeId, 0, len(te.Args))
	for _, argExpr := range te.Args {
		argID, err := a.resolveType(argExpr)
		if err != nil {
			return registry.TypeVoid, err
		}
		args = append(args, argID)
	}
	if err := a.reg.CheckTemplateArgCount(base, args); err != nil {
		return registry.TypeVoid, err
	}
	return a.reg.InstantiateTemplate(base, args, func() (*registry.TypeDef, error) {
		baseDef := a.reg.Type(base)
		return &registry.TypeDef{Name: baseDef.Name + "<...>"}, nil
	})
}
