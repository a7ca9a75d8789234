// Package registry implements the Type Registry (spec §4.1): the single
// source of truth for types, functions, globals, and behaviours, handing
// out the stable integer ids the rest of the pipeline references.
//
// Grounded on the teacher's internal/interp/types package (ClassRegistry,
// FunctionRegistry, TypeSystem), generalized from AST-pointer-keyed
// lookup tables to the id-indexed model spec §3.1 requires.
package registry

// TypeId is a stable index into the type table (spec §3.1).
type TypeId int

// FunctionId is a stable index into the function table.
type FunctionId int

// GlobalId is a stable index into the global-variable table.
type GlobalId int

// Reserved primitive/built-in TypeIds, assigned before any user
// registration so primitive name resolution is branch-free (spec §4.1).
const (
	TypeVoid TypeId = iota
	TypeBool
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat
	TypeDouble
	TypeString
	TypeArrayTemplate
	TypeDictionaryTemplate

	firstUserTypeId
)

// TypeKind tags the TypeDef variant (spec §3.2).
type TypeKind int

const (
	KindPrimitive TypeKind = iota
	KindClass
	KindInterface
	KindEnum
	KindTemplate
	KindTemplateInstance
	KindFuncdef
)

// Registration distinguishes compiler-generated (script) types from
// host-registered (application) types (spec §3.2 Class.registration).
type Registration int

const (
	RegistrationScript Registration = iota
	RegistrationApplication
)

// ClassFlags are the per-class boolean traits of spec §3.2.
type ClassFlags uint8

const (
	FlagValueType ClassFlags = 1 << iota
	FlagReferenceType
	FlagGCEligible
	FlagNoCount
)

func (f ClassFlags) Has(bit ClassFlags) bool { return f&bit != 0 }

// BehaviourKind is one of the recognized behaviour roles (spec §3.2).
type BehaviourKind int

const (
	Construct BehaviourKind = iota
	ListConstruct
	Destruct
	Factory
	ListFactory
	AddRef
	Release
	GetWeakRefFlag
	TemplateCallback
	GetRefCount
	SetGcFlag
	GetGcFlag
	EnumRefs
	ReleaseRefs
	OpAssign
	OpIndex
	OpCall
	OpForBegin
	OpForEnd
	OpForValue
	OpForNext
)

// Property is a class member: a stored field and/or a virtual
// getter/setter pair (spec §3.2).
type Property struct {
	Name   string
	TypeID TypeId
	Getter FunctionId // 0 if absent (FunctionId 0 is reserved, see registry.go)
	Setter FunctionId
}

func (p Property) HasGetter() bool { return p.Getter != 0 }
func (p Property) HasSetter() bool { return p.Setter != 0 }

// TemplateInstanceKey memoizes TemplateInstance types by (template, args)
// so repeated instantiation returns one canonical TypeId (spec §3.7
// invariant 4, §8.1, §8.2).
type TemplateInstanceKey struct {
	Template TypeId
	Args     string // joined sub-type ids, see registry.go instantiateKey
}

// TypeDef is the tagged-variant type descriptor of spec §3.2.
type TypeDef struct {
	ID   TypeId
	Kind TypeKind

	// Primitive
	PrimitiveWidth int  // bits; set for float (32) and double (64) as well
	PrimitiveSigned bool

	// Class
	Name            string
	QualifiedName   string
	Namespace       []string
	Properties      []Property
	Methods         []FunctionId
	BaseClass       TypeId // 0 (TypeVoid) means no base
	Interfaces      []TypeId
	Behaviours      map[BehaviourKind]FunctionId
	Registration    Registration
	Flags           ClassFlags

	// Interface
	RequiredMethods []FunctionId

	// Enum
	EnumMembers []EnumMember

	// Template
	TemplateArity int

	// TemplateInstance
	TemplateBase TypeId
	TemplateArgs []TypeId

	// Funcdef
	FuncdefReturn TypeId
	FuncdefParams []ParamInfo
}

// EnumMember is one `(ident, integer)` pair of an Enum TypeDef.
type EnumMember struct {
	Name  string
	Value int64
}

func (t *TypeDef) Behaviour(kind BehaviourKind) (FunctionId, bool) {
	if t.Behaviours == nil {
		return 0, false
	}
	fid, ok := t.Behaviours[kind]
	return fid, ok
}

// ParamFlag mirrors ast.ParamFlag without importing the ast package
// (the registry must not depend on the AST — it is consumed by codegen
// and the VM too, which do not otherwise need AST types).
type ParamFlag int

const (
	ParamIn ParamFlag = iota
	ParamOut
	ParamInOut
)

// ParamInfo is one formal parameter as recorded in the registry (spec
// §3.3).
type ParamInfo struct {
	Name       string
	TypeID     TypeId
	Flag       ParamFlag
	IsConst    bool
	HasDefault bool
	Default    interface{} // ast.Expression when HasDefault, opaque here (registry must not depend on the AST)
}

// FunctionKind distinguishes the call-dispatch shape of a function
// (spec §3.3 FunctionInfo.kind).
type FunctionKind int

const (
	KindGlobalFunc FunctionKind = iota
	KindMethod
	KindConstructor
	KindDestructor
	KindFuncdefType
	KindDelegate
	KindImported
	KindVirtual
	KindInterfaceMethod
	KindSystem
)

// Implementation is the Script{bytecode_address, locals} / Native{system
// id} variant of spec §3.3.
type Implementation struct {
	IsNative bool

	// Script
	BytecodeAddress int
	HasAddress      bool
	LocalCount      int

	// Native
	SystemID int
}

// FunctionInfo is the full function descriptor of spec §3.3.
type FunctionInfo struct {
	ID            FunctionId
	Name          string
	QualifiedName string
	Namespace     []string
	Params        []ParamInfo
	ReturnType    TypeId
	ReturnIsRef   bool
	Kind          FunctionKind
	IsConstMethod bool
	Traits        FunctionTraits
	OwnerType     TypeId // 0 (TypeVoid) if free function
	VTableIndex   int
	HasVTableIdx  bool
	Impl          Implementation
	Doc           string
}

// FunctionTraits are the modifier bits of spec §3.3.
type FunctionTraits uint8

const (
	TraitVirtual FunctionTraits = 1 << iota
	TraitAbstract
	TraitShared
	TraitExternal
	TraitFinal
	TraitOverride
)

func (t FunctionTraits) Has(bit FunctionTraits) bool { return t&bit != 0 }

// GlobalInfo is one entry of the GlobalId table (spec §3.1, §3.4
// global_layout).
type GlobalInfo struct {
	ID      GlobalId
	Name    string
	TypeID  TypeId
	Default interface{} // zero value representation, or an init expression handled by codegen
}
