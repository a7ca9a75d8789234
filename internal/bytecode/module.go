package bytecode

import "github.com/cwbudde/go-angelscript/internal/registry"

// ValueKind tags the Value union (spec §3.6).
type ValueKind uint8

const (
	VKVoid ValueKind = iota
	VKBool
	VKInt64  // int8/16/32/64 all normalize to int64 storage, narrowed on store
	VKUint64 // uint8/16/32/64 likewise
	VKFloat32
	VKFloat64
	VKString
	VKHandle // object handle: an index into the heap's table, spec §3.6
	// VKInitList: I is an index into the running Context's init-list
	// table (spec §4.4 init-lists), not a direct slice field on Value —
	// Value must stay comparable with == for InternConstant's dedupe
	// check, which a slice-valued field would break.
	VKInitList
)

// Value is the constant-pool / immediate representation. Grounded on
// the teacher's bytecode.Value tagged union, widened from DWScript's
// variant-heavy value set to the fixed primitive/handle set AngelScript
// exposes (spec §3.6, GLOSSARY "Handle").
type Value struct {
	Kind ValueKind
	I    int64
	U    uint64
	F32  float32
	F64  float64
	Str  string
}

// FunctionObject is one compiled script function's code body: its
// instruction stream plus the frame-size metadata codegen computed
// (spec §3.4 "Function layout"). Grounded on the teacher's
// bytecode.FunctionObject.
type FunctionObject struct {
	ID         registry.FunctionId
	Name       string
	Locals     int // slot count, including parameters
	Code       []Instruction
	LineTable  []int32 // parallel to Code, for disassembly/back-traces
}

// CatchEntry is one row of a function's exception-handler table: the
// [TryStart,TryEnd) instruction range, the handled type (0 = catch
// anything), and the handler's entry address.
type CatchEntry struct {
	TryStart, TryEnd int
	ExceptionType    registry.TypeId
	HandlerAddress   int
}

// BytecodeModule is the code-generator's full output for one build:
// every compiled function plus the constant pool codegen interned
// literals into (spec §4.4 "BytecodeModule").
type BytecodeModule struct {
	Functions []*FunctionObject
	Constants []Value
	// PropertyNames is the deduplicated field/property-name table
	// codegen draws PropertyNameId operands from (spec §3.4/§3.5
	// "property_names"), so two classes with differently-typed
	// same-named fields never alias each other's heap storage the way a
	// hashed placeholder offset could.
	PropertyNames []string
	Catches       map[registry.FunctionId][]CatchEntry
	Registry      *registry.Registry
}

func NewModule(reg *registry.Registry) *BytecodeModule {
	return &BytecodeModule{Catches: make(map[registry.FunctionId][]CatchEntry), Registry: reg}
}

// InternConstant deduplicates v into the constant pool, returning its
// index (spec §4.4 "constant pool is deduplicated").
func (m *BytecodeModule) InternConstant(v Value) int32 {
	for i, c := range m.Constants {
		if c == v {
			return int32(i)
		}
	}
	m.Constants = append(m.Constants, v)
	return int32(len(m.Constants) - 1)
}

// InternPropertyName deduplicates name into the property-name table,
// returning its PropertyNameId (spec §3.4 "property_names is
// deduplicated").
func (m *BytecodeModule) InternPropertyName(name string) int32 {
	for i, n := range m.PropertyNames {
		if n == name {
			return int32(i)
		}
	}
	m.PropertyNames = append(m.PropertyNames, name)
	return int32(len(m.PropertyNames) - 1)
}

func (m *BytecodeModule) AddFunction(fn *FunctionObject) {
	m.Functions = append(m.Functions, fn)
}

func (m *BytecodeModule) FunctionByID(id registry.FunctionId) *FunctionObject {
	for _, fn := range m.Functions {
		if fn.ID == id {
			return fn
		}
	}
	return nil
}
