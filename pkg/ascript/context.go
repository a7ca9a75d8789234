package ascript

import (
	"reflect"

	"github.com/cwbudde/go-angelscript/internal/bytecode"
	"github.com/cwbudde/go-angelscript/internal/heap"
	"github.com/cwbudde/go-angelscript/internal/registry"
	"github.com/cwbudde/go-angelscript/internal/vm"
)

// Context drives one function call through a Module's compiled
// bytecode (spec §6.1 "Context": Prepare, SetArg*, Execute,
// GetReturn*, Abort, Suspend, GetState, GetExceptionString).
// Wraps an internal/vm.Context, which already implements the
// register machine and heap binding this type exposes under the
// spec's naming.
type Context struct {
	mod    *Module
	vctx   *vm.Context
	fn     registry.FunctionId
	args   []bytecode.Value
	result bytecode.Value
}

func newContext(m *Module) *Context {
	h := m.heapForContext()
	vctx := vm.NewContext(m.mod, h)
	if m.engine.output != nil {
		vctx.SetOutput(m.engine.output)
	}
	for name, impl := range m.engine.natives {
		fn := impl // capture
		vctx.RegisterNative(name, func(c *vm.Context, args []bytecode.Value) (bytecode.Value, error) {
			ft := fn.Type()
			in := make([]reflect.Value, len(args))
			for i, a := range args {
				in[i] = valueToGo(a, ft.In(i))
			}
			out := fn.Call(in)
			if len(out) == 0 {
				return bytecode.Value{}, nil
			}
			return goToValue(out[0]), nil
		})
	}
	wireHeapClasses(h, vctx, m.engine.reg)
	return &Context{mod: m, vctx: vctx}
}

// wireHeapClasses registers every class type's GC-eligibility flag and
// any Destruct/EnumRefs/ReleaseRefs behaviour with h, so Collect and
// Release actually exercise the behaviours a class registered (spec
// §3.2 ClassFlags, §4.6 "RegisterClass"). Previously RegisterObjectType
// never reached the heap at all, so FlagGCEligible had no effect and
// Collect never freed anything.
func wireHeapClasses(h *heap.Heap, vctx *vm.Context, reg *registry.Registry) {
	for _, td := range reg.Types() {
		td := td
		if td == nil || td.Kind != registry.KindClass {
			continue
		}
		gcEligible := td.Flags.Has(registry.FlagGCEligible)

		var destruct heap.DestructFunc
		if fid, ok := td.Behaviour(registry.Destruct); ok && fid != 0 {
			destruct = func(obj *heap.Object) {
				vctx.Call(fid, []bytecode.Value{{Kind: bytecode.VKHandle, I: int64(obj.Handle())}})
			}
		}
		var enumRefs heap.EnumRefsFunc
		if fid, ok := td.Behaviour(registry.EnumRefs); ok && fid != 0 {
			enumRefs = func(obj *heap.Object) []heap.Handle {
				vctx.Call(fid, []bytecode.Value{{Kind: bytecode.VKHandle, I: int64(obj.Handle())}})
				return nil
			}
		}
		var releaseRefs heap.ReleaseRefsFunc
		if fid, ok := td.Behaviour(registry.ReleaseRefs); ok && fid != 0 {
			releaseRefs = func(obj *heap.Object) {
				vctx.Call(fid, []bytecode.Value{{Kind: bytecode.VKHandle, I: int64(obj.Handle())}})
			}
		}

		if !gcEligible && destruct == nil && enumRefs == nil && releaseRefs == nil {
			continue
		}
		h.RegisterClass(td.ID, gcEligible, destruct, enumRefs, releaseRefs)
	}
}

// Prepare selects the function this Context will Execute (spec §6.1
// "Context.Prepare").
func (c *Context) Prepare(fn registry.FunctionId) error {
	c.fn = fn
	c.args = nil
	return nil
}

// SetArgDWord, SetArgQWord, SetArgFloat, SetArgDouble, SetArgObject
// would each box their native Go value into a bytecode.Value; this
// engine collapses them into one typed setter since Value is already
// a tagged union (spec §6.1 lists the per-width setters for ABI
// parity with AngelScript's C++ API, which has no tagged-union Value
// type to do this generically).
func (c *Context) SetArg(index int, v bytecode.Value) {
	for len(c.args) <= index {
		c.args = append(c.args, bytecode.Value{})
	}
	c.args[index] = v
}

// Execute runs the prepared function to completion (or suspension) on
// the calling goroutine (spec §6.1 "Context.Execute").
func (c *Context) Execute() (State, error) {
	result, err := c.vctx.Call(c.fn, c.args)
	c.result = result
	return State(c.vctx.State()), err
}

// GetReturnValue returns the prepared call's result (spec §6.1
// "GetReturnDWord"/"GetReturnQWord"/... collapsed the same way
// SetArg is).
func (c *Context) GetReturnValue() bytecode.Value { return c.result }

// GetState reports the Context's run state (spec §6.1 "GetState").
func (c *Context) GetState() State { return State(c.vctx.State()) }

// Abort stops the running script at its next instruction boundary
// (spec §6.1 "Context.Abort"). Safe to call from a goroutine other
// than the one inside Execute.
func (c *Context) Abort() { c.vctx.Abort() }

// Suspend pauses the running script at its next instruction boundary
// (spec §6.1 "Context.Suspend"). Safe to call from a goroutine other
// than the one inside Execute.
func (c *Context) Suspend() { c.vctx.Suspend() }

// GetExceptionString returns the message of the last uncaught runtime
// error, or "" if none (spec §6.1 "GetExceptionString").
func (c *Context) GetExceptionString() string {
	if e := c.vctx.LastError(); e != nil {
		return e.Error()
	}
	return ""
}

// State mirrors internal/vm.State under the spec's Context-facing name.
type State = vm.State

const (
	StateReady     = vm.StateReady
	StateRunning   = vm.StateRunning
	StateSuspended = vm.StateSuspended
	StateFinished  = vm.StateFinished
	StateAborted   = vm.StateAborted
	StateException = vm.StateException
)

