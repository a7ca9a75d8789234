// Package ascript is the public embedding surface (spec §6.1-§6.4): an
// Engine that owns a Type Registry, Modules that compile an AST into a
// BytecodeModule, Contexts that execute a module's functions, and
// ScriptObject handles into a running Context's heap.
//
// Grounded on pkg/dwscript's test-only API shape (compile_mode_test.go,
// basic_ffi_test.go): a functional-options `New(...)` constructor,
// `engine.RegisterFunction`, `engine.SetOutput`, a `Result.Success`
// field — the only surviving trace of that package's implementation in
// the retrieval pack, since its non-test files were not captured.
// Adapted to AngelScript's Engine/Module/Context/ScriptObject
// terminology (spec §6.1) instead of DWScript's single-Engine-Eval
// shape.
package ascript

import (
	"io"
	"reflect"

	"github.com/cwbudde/go-angelscript/internal/bytecode"
	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/heap"
	"github.com/cwbudde/go-angelscript/internal/registry"
)

// MessageCallback receives compiler diagnostics as they are produced
// (spec §6.1 "SetMessageCallback").
type MessageCallback func(section string, msg *errors.CompileError)

// EngineProperty is one of the tunable engine-wide knobs spec §6.1's
// "SetEngineProperty" exposes.
type EngineProperty int

const (
	PropAllowUnsafeReferences EngineProperty = iota
	PropMaxCallDepth
)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithOutput sets the writer every Context created from this engine's
// modules prints to, grounded on the teacher's engine.SetOutput.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.output = w }
}

// WithMessageCallback installs the diagnostic sink spec §6.1 names.
func WithMessageCallback(cb MessageCallback) Option {
	return func(e *Engine) { e.messageCB = cb }
}

// Engine owns one Type Registry and every Module built against it
// (spec §6.1 "Engine"). Registry/module/context lifetimes nest:
// modules outlive no Engine, contexts outlive no Module.
type Engine struct {
	reg       *registry.Registry
	output    io.Writer
	messageCB MessageCallback
	natives   map[string]reflect.Value
	props     map[EngineProperty]int
}

// NewEngine creates an Engine with its own Type Registry, already
// carrying the built-in primitive types and array/dictionary templates
// (registry.New's pre-registration, spec §3.1).
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		reg:     registry.New(),
		natives: make(map[string]reflect.Value),
		props:   make(map[EngineProperty]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetEngineProperty stores a tunable (spec §6.1). The stored values are
// not read anywhere: the VM's call-depth limit is a fixed constant.
func (e *Engine) SetEngineProperty(prop EngineProperty, value int) {
	e.props[prop] = value
}

// RegisterGlobalFunction binds a Go function under name, reachable
// from script code as a CALLSYS target (spec §6.1
// "RegisterGlobalFunction"). Grounded on the teacher's
// engine.RegisterFunction(name, goFunc) reflection-based FFI shape
// (basic_ffi_test.go): fn's signature drives the argument/return
// marshalling `vm.NativeFunc` performs at call time.
func (e *Engine) RegisterGlobalFunction(name string, fn interface{}) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return errors.NewRuntimeError(errors.InvalidObjectReference, "RegisterGlobalFunction: not a function", nil)
	}
	e.natives[name] = v

	t := v.Type()
	params := make([]registry.ParamInfo, t.NumIn())
	for i := 0; i < t.NumIn(); i++ {
		params[i] = registry.ParamInfo{Name: "", TypeID: goKindToTypeID(t.In(i).Kind())}
	}
	retType := registry.TypeVoid
	if t.NumOut() > 0 {
		retType = goKindToTypeID(t.Out(0).Kind())
	}
	e.reg.RegisterFunction(&registry.FunctionInfo{
		Name:          name,
		QualifiedName: name,
		Params:        params,
		ReturnType:    retType,
		Kind:          registry.KindSystem,
		Impl:          registry.Implementation{IsNative: true},
	})
	return nil
}

// RegisterObjectType declares a class reachable from script code under
// name (spec §6.1 "RegisterObjectType"). gcEligible mirrors
// ClassFlags.FlagGCEligible; the returned TypeId is what
// RegisterObjectProperty attaches fields to.
func (e *Engine) RegisterObjectType(name string, gcEligible bool) (registry.TypeId, error) {
	flags := registry.ClassFlags(0)
	if gcEligible {
		flags = registry.FlagGCEligible
	}
	return e.reg.RegisterType(&registry.TypeDef{
		Kind:          registry.KindClass,
		Name:          name,
		QualifiedName: name,
		Flags:         flags,
	})
}

// RegisterObjectProperty attaches a stored field to an
// already-registered object type (spec §6.1).
func (e *Engine) RegisterObjectProperty(typeID registry.TypeId, propName string, propType registry.TypeId) {
	t := e.reg.Type(typeID)
	if t == nil {
		return
	}
	t.Properties = append(t.Properties, registry.Property{Name: propName, TypeID: propType})
}

// RegisterGlobalProperty declares a host-visible global variable (spec
// §6.1 "RegisterGlobalProperty").
func (e *Engine) RegisterGlobalProperty(name string, typeID registry.TypeId) (registry.GlobalId, error) {
	return e.reg.RegisterGlobal(&registry.GlobalInfo{Name: name, TypeID: typeID})
}

// NewModule creates an empty Module bound to this Engine's registry
// (spec §6.1/§6.2 "Module").
func (e *Engine) NewModule(name string) *Module {
	return &Module{engine: e, name: name}
}

// CollectGarbage runs one mark/sweep pass over h (spec §6.1
// "CollectGarbage"). Exposed on Engine because spec's embedding API
// puts garbage collection under host control, not automatic; the heap
// itself lives on the Context that owns it.
func (e *Engine) CollectGarbage(h *heap.Heap, roots []heap.Handle) {
	h.Collect(roots)
}

func (e *Engine) report(section string, diag *errors.CompileError) {
	if e.messageCB != nil {
		e.messageCB(section, diag)
	}
}

func goKindToTypeID(k reflect.Kind) registry.TypeId {
	switch k {
	case reflect.Bool:
		return registry.TypeBool
	case reflect.Int8:
		return registry.TypeInt8
	case reflect.Int16:
		return registry.TypeInt16
	case reflect.Int32:
		return registry.TypeInt32
	case reflect.Int, reflect.Int64:
		return registry.TypeInt64
	case reflect.Uint8:
		return registry.TypeUint8
	case reflect.Uint16:
		return registry.TypeUint16
	case reflect.Uint32:
		return registry.TypeUint32
	case reflect.Uint, reflect.Uint64:
		return registry.TypeUint64
	case reflect.Float32:
		return registry.TypeFloat
	case reflect.Float64:
		return registry.TypeDouble
	case reflect.String:
		return registry.TypeString
	default:
		return registry.TypeVoid
	}
}

// valueToGo converts a bytecode.Value into the reflect.Value a native
// function's parameter type expects.
func valueToGo(v bytecode.Value, want reflect.Type) reflect.Value {
	switch want.Kind() {
	case reflect.Bool:
		return reflect.ValueOf(v.I != 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(v.I).Convert(want)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(v.U).Convert(want)
	case reflect.Float32:
		return reflect.ValueOf(v.F32).Convert(want)
	case reflect.Float64:
		return reflect.ValueOf(v.F64).Convert(want)
	case reflect.String:
		return reflect.ValueOf(v.Str)
	default:
		return reflect.Zero(want)
	}
}

// goToValue converts a native function's return value back into a
// bytecode.Value the VM stack expects.
func goToValue(rv reflect.Value) bytecode.Value {
	switch rv.Kind() {
	case reflect.Bool:
		i := int64(0)
		if rv.Bool() {
			i = 1
		}
		return bytecode.Value{Kind: bytecode.VKBool, I: i}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return bytecode.Value{Kind: bytecode.VKInt64, I: rv.Int()}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return bytecode.Value{Kind: bytecode.VKUint64, U: rv.Uint()}
	case reflect.Float32:
		return bytecode.Value{Kind: bytecode.VKFloat32, F32: float32(rv.Float())}
	case reflect.Float64:
		return bytecode.Value{Kind: bytecode.VKFloat64, F64: rv.Float()}
	case reflect.String:
		return bytecode.Value{Kind: bytecode.VKString, Str: rv.String()}
	default:
		return bytecode.Value{}
	}
}
