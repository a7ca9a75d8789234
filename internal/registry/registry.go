package registry

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/source"
)

// Registry is the Type Registry of spec §4.1: the single source of
// truth for every TypeDef, FunctionInfo, and GlobalInfo the pipeline
// touches after symbol discovery.
//
// Grounded on the teacher's internal/interp/types.FunctionRegistry
// (normalized-name overload buckets, qualified-name lookup) and
// ClassRegistry (class table keyed by name with base/interface links),
// generalized to the id-indexed model and widened to cover every
// TypeKind spec §3.2 names, not just classes.
//
// mu guards every table below. Registration happens single-threaded
// during symbol discovery (spec §4.2 pass 1); once discovery completes,
// lookups from a concurrently-running VM and a still-analyzing
// secondary module are legal, hence RWMutex rather than a bare mutex.
type Registry struct {
	mu sync.RWMutex

	types     []*TypeDef
	byName    map[string]TypeId // qualified name -> id
	typesByNS map[string][]TypeId

	funcs      []*FunctionInfo
	funcsByName map[string][]FunctionId // unqualified name -> overload set
	funcsByQual map[string][]FunctionId // "Namespace::name" -> overload set

	globals    []*GlobalInfo
	globalByName map[string]GlobalId

	templateInstances map[TemplateInstanceKey]TypeId
	instantiateGroup  singleflight.Group
}

// New builds a Registry pre-populated with the reserved primitive
// TypeIds of spec §4.1. Index 0 of each table is reserved as a sentinel
// ("no type" / "no function" / "no global") so the zero value of TypeId,
// FunctionId, and GlobalId is always invalid-by-construction.
func New() *Registry {
	r := &Registry{
		byName:            make(map[string]TypeId),
		typesByNS:         make(map[string][]TypeId),
		funcsByName:       make(map[string][]FunctionId),
		funcsByQual:       make(map[string][]FunctionId),
		globalByName:      make(map[string]GlobalId),
		templateInstances: make(map[TemplateInstanceKey]TypeId),
	}

	prims := []struct {
		id     TypeId
		name   string
		width  int
		signed bool
	}{
		{TypeVoid, "void", 0, false},
		{TypeBool, "bool", 1, false},
		{TypeInt8, "int8", 8, true},
		{TypeInt16, "int16", 16, true},
		{TypeInt32, "int", 32, true},
		{TypeInt64, "int64", 64, true},
		{TypeUint8, "uint8", 8, false},
		{TypeUint16, "uint16", 16, false},
		{TypeUint32, "uint", 32, false},
		{TypeUint64, "uint64", 64, false},
		{TypeFloat, "float", 32, false},
		{TypeDouble, "double", 64, false},
		{TypeString, "string", 0, false},
	}
	for _, p := range prims {
		td := &TypeDef{ID: p.id, Kind: KindPrimitive, Name: p.name, QualifiedName: p.name,
			PrimitiveWidth: p.width, PrimitiveSigned: p.signed}
		r.types = append(r.types, td)
		r.byName[p.name] = p.id
	}
	r.types = append(r.types, &TypeDef{ID: TypeArrayTemplate, Kind: KindTemplate, Name: "array", QualifiedName: "array", TemplateArity: 1})
	r.byName["array"] = TypeArrayTemplate
	r.types = append(r.types, &TypeDef{ID: TypeDictionaryTemplate, Kind: KindTemplate, Name: "dictionary", QualifiedName: "dictionary", TemplateArity: 2})
	r.byName["dictionary"] = TypeDictionaryTemplate

	// Index 0 sentinels for functions/globals (type index 0 is TypeVoid,
	// which already serves as the type sentinel).
	r.funcs = append(r.funcs, nil)
	r.globals = append(r.globals, nil)

	return r
}

func qualify(namespace []string, name string) string {
	if len(namespace) == 0 {
		return name
	}
	return strings.Join(namespace, "::") + "::" + name
}

// RegisterType assigns td a fresh TypeId and indexes it by qualified
// name. Returns DuplicateDeclaration if the qualified name collides.
func (r *Registry) RegisterType(td *TypeDef) (TypeId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	qn := td.QualifiedName
	if qn == "" {
		qn = qualify(td.Namespace, td.Name)
		td.QualifiedName = qn
	}
	if _, exists := r.byName[qn]; exists {
		return TypeVoid, &errors.CompileError{Kind: errors.DuplicateDeclaration, Message: fmt.Sprintf("type %q already declared", qn)}
	}
	id := TypeId(len(r.types))
	td.ID = id
	r.types = append(r.types, td)
	r.byName[qn] = id
	nsKey := strings.Join(td.Namespace, "::")
	r.typesByNS[nsKey] = append(r.typesByNS[nsKey], id)
	return id, nil
}

// RegisterFunction assigns fn a fresh FunctionId and adds it to the
// unqualified and qualified overload buckets. Unlike types, functions
// do not error on same-name registration — overloads are legal; full
// signature-collision checking happens in ValidateNoConflicts.
func (r *Registry) RegisterFunction(fn *FunctionInfo) FunctionId {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := FunctionId(len(r.funcs))
	fn.ID = id
	r.funcs = append(r.funcs, fn)
	r.funcsByName[fn.Name] = append(r.funcsByName[fn.Name], id)
	qn := fn.QualifiedName
	if qn == "" {
		qn = qualify(fn.Namespace, fn.Name)
		fn.QualifiedName = qn
	}
	r.funcsByQual[qn] = append(r.funcsByQual[qn], id)
	return id
}

// RegisterGlobal assigns gi a fresh GlobalId. Returns
// DuplicateDeclaration if the name is already bound in the same
// namespace-free global table (spec §3.4 disallows shadowing globals at
// file scope).
func (r *Registry) RegisterGlobal(gi *GlobalInfo) (GlobalId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.globalByName[gi.Name]; exists {
		return 0, &errors.CompileError{Kind: errors.DuplicateDeclaration, Message: fmt.Sprintf("global %q already declared", gi.Name)}
	}
	id := GlobalId(len(r.globals))
	gi.ID = id
	r.globals = append(r.globals, gi)
	r.globalByName[gi.Name] = id
	return id, nil
}

// UpdateFunctionAddress patches in the bytecode address once codegen
// has assigned one (spec §3.3: FunctionInfo is created during symbol
// discovery, before an address exists).
func (r *Registry) UpdateFunctionAddress(id FunctionId, address, locals int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn := r.funcs[id]
	fn.Impl.BytecodeAddress = address
	fn.Impl.HasAddress = true
	fn.Impl.LocalCount = locals
}

// Type looks up a TypeDef by id. Panics on an out-of-range id, which
// indicates an internal-error bug upstream (ids are only ever minted by
// this registry).
func (r *Registry) Type(id TypeId) *TypeDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[id]
}

func (r *Registry) Function(id FunctionId) *FunctionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.funcs[id]
}

// Types returns every registered TypeDef, in registration order. Used
// by the embedding layer to wire each class's heap behaviours once,
// at Context-creation time (spec §6.1 "RegisterObjectType" /
// ClassFlags.FlagGCEligible).
func (r *Registry) Types() []*TypeDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*TypeDef, len(r.types))
	copy(out, r.types)
	return out
}

func (r *Registry) Global(id GlobalId) *GlobalInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.globals[id]
}

// LookupGlobal resolves a global variable by name, mirroring LookupType
// but over the global table (used by the analyzer's identifier
// resolution fallback, after locals and instance members have both
// missed).
func (r *Registry) LookupGlobal(name string) (GlobalId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.globalByName[name]
	return id, ok
}

// LookupType resolves an unqualified or `Namespace::Name` type
// reference. Returns UndefinedType if not found.
func (r *Registry) LookupType(name string) (TypeId, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byName[name]; ok {
		return id, nil
	}
	return TypeVoid, &errors.CompileError{Kind: errors.UndefinedType, Message: fmt.Sprintf("undefined type %q", name)}
}

// FindFunction returns every overload candidate visible under name,
// preferring the qualified bucket when namespace is non-empty. Overload
// resolution over the returned candidates happens in internal/semantic
// (spec §9 "Overload resolution as ranking").
func (r *Registry) FindFunction(namespace []string, name string) []FunctionId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(namespace) > 0 {
		return append([]FunctionId(nil), r.funcsByQual[qualify(namespace, name)]...)
	}
	return append([]FunctionId(nil), r.funcsByName[name]...)
}

// ValidateNoConflicts checks every same-name overload bucket for two
// functions with identical parameter-type signatures, which AngelScript
// rejects at declaration time rather than deferring to call-site
// ambiguity (spec §4.2 pass 1, DuplicateDeclaration).
func (r *Registry) ValidateNoConflicts() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, ids := range r.funcsByName {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if sameSignature(r.funcs[ids[i]], r.funcs[ids[j]]) {
					return &errors.CompileError{Kind: errors.DuplicateDeclaration,
						Message: fmt.Sprintf("function %q redeclared with identical signature", name)}
				}
			}
		}
	}
	return nil
}

func sameSignature(a, b *FunctionInfo) bool {
	if a.OwnerType != b.OwnerType || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].TypeID != b.Params[i].TypeID {
			return false
		}
	}
	return true
}

// instantiateKey renders a TemplateInstanceKey's Args string from a
// slice of sub-type ids: joined in order, so `array<array<int>>` and
// `array<int>` never collide.
func instantiateKey(args []TypeId) string {
	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", a)
	}
	return b.String()
}

// InstantiateTemplate returns the canonical TypeId for
// template<args...>, creating it on first request and memoizing it for
// every later request with the same (template, args) pair (spec §3.7
// invariant 4). build runs only on an actual miss; singleflight also
// collapses concurrent misses for the same key into one build call,
// which matters once multiple units are analyzed concurrently (spec
// §5 "independently compilable").
func (r *Registry) InstantiateTemplate(template TypeId, args []TypeId, build func() (*TypeDef, error)) (TypeId, error) {
	key := TemplateInstanceKey{Template: template, Args: instantiateKey(args)}

	r.mu.RLock()
	if id, ok := r.templateInstances[key]; ok {
		r.mu.RUnlock()
		return id, nil
	}
	r.mu.RUnlock()

	sfKey := fmt.Sprintf("%d/%s", key.Template, key.Args)
	v, err, _ := r.instantiateGroup.Do(sfKey, func() (interface{}, error) {
		r.mu.RLock()
		if id, ok := r.templateInstances[key]; ok {
			r.mu.RUnlock()
			return id, nil
		}
		r.mu.RUnlock()

		td, buildErr := build()
		if buildErr != nil {
			return TypeVoid, buildErr
		}
		td.Kind = KindTemplateInstance
		td.TemplateBase = template
		td.TemplateArgs = append([]TypeId(nil), args...)

		id, regErr := r.RegisterType(td)
		if regErr != nil {
			return TypeVoid, regErr
		}

		r.mu.Lock()
		r.templateInstances[key] = id
		r.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return TypeVoid, err
	}
	return v.(TypeId), nil
}

// templateArity reports how many template parameters tmpl expects, or
// an error if tmpl is not a template at all (NotATemplate).
func (r *Registry) templateArity(tmpl TypeId) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	td := r.types[tmpl]
	if td.Kind != KindTemplate {
		return 0, &errors.CompileError{Kind: errors.NotATemplate, Message: fmt.Sprintf("%q is not a template", td.Name)}
	}
	return td.TemplateArity, nil
}

// CheckTemplateArgCount validates args against tmpl's declared arity
// before a build callback ever runs, surfacing WrongTemplateArgCount
// instead of an opaque downstream failure.
func (r *Registry) CheckTemplateArgCount(tmpl TypeId, args []TypeId) error {
	arity, err := r.templateArity(tmpl)
	if err != nil {
		return err
	}
	if len(args) != arity {
		return &errors.CompileError{Kind: errors.WrongTemplateArgCount,
			Message: fmt.Sprintf("template expects %d argument(s), got %d", arity, len(args))}
	}
	return nil
}

// withSpan is a small helper the analyzer uses to attach a source span
// to an otherwise span-less CompileError returned from a registry
// lookup, without the registry itself depending on source spans for
// every error (most registry errors are raised well before any AST
// node's position is in scope, e.g. during built-in bootstrapping).
func withSpan(err error, span source.Span) error {
	ce, ok := err.(*errors.CompileError)
	if !ok {
		return err
	}
	ce.Span = span
	return ce
}
