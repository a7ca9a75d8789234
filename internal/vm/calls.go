package vm

import (
	"github.com/cwbudde/go-angelscript/internal/bytecode"
	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/heap"
	"github.com/cwbudde/go-angelscript/internal/registry"
)

// popArgs pops argCount values off the stack, left-to-right, matching
// codegen's left-to-right argument push order (grounded on the
// teacher's vm_calls.go popArgs).
func (c *Context) popArgs(argCount int) ([]bytecode.Value, error) {
	if argCount == 0 {
		return nil, nil
	}
	if len(c.stack) < argCount {
		return nil, c.runtimeError(errors.StackOverflow, "stack underflow collecting %d call arguments", argCount)
	}
	args := make([]bytecode.Value, argCount)
	copy(args, c.stack[len(c.stack)-argCount:])
	c.stack = c.stack[:len(c.stack)-argCount]
	return args, nil
}

// callScript runs a script function to completion inline (a nested
// Go-level call to run, which pushes and pops the callee's frame on
// c.frames itself rather than handing it to the caller's dispatch
// loop), then pushes its result.
func (c *Context) callScript(id registry.FunctionId, argCount int) error {
	args, err := c.popArgs(argCount)
	if err != nil {
		return err
	}
	fn := c.module.FunctionByID(id)
	if fn == nil {
		return c.runtimeError(errors.InvalidObjectReference, "no compiled function for id %d", id)
	}
	result, err := c.run(fn, args)
	if err != nil {
		return err
	}
	c.push(result)
	return nil
}

// callNative dispatches a CALLSYS to a host-registered function (spec
// §6.1 "RegisterFunction"), looked up by the FunctionInfo's qualified
// name the registry already carries for id.
func (c *Context) callNative(id registry.FunctionId, argCount int) error {
	args, err := c.popArgs(argCount)
	if err != nil {
		return err
	}
	info := c.module.Registry.Function(id)
	if info == nil {
		return c.runtimeError(errors.InvalidObjectReference, "no registered function for id %d", id)
	}
	fn, ok := c.natives[info.QualifiedName]
	if !ok {
		return c.runtimeError(errors.InvalidObjectReference, "no native implementation bound for %q", info.QualifiedName)
	}
	result, err := fn(c, args)
	if err != nil {
		return c.runtimeError(errors.UserException, "%v", err)
	}
	c.push(result)
	return nil
}

// construct allocates a new instance of typeID and runs its registered
// Construct behaviour (spec §4.6 "construction... prologue"), passing
// args after the implicit receiver. A type with no registered
// Construct behaviour is left default-initialized (every field at its
// zero Value) — the prior implementation never invoked Construct at
// all and silently dropped the constructor-call arguments NEW_OBJECT's
// operand counted, which this replaces.
func (c *Context) construct(typeID registry.TypeId, args []bytecode.Value) (heap.Handle, error) {
	handle := c.heap.Alloc(typeID)
	typeDef := c.module.Registry.Type(typeID)
	if typeDef == nil {
		return handle, nil
	}
	fid, ok := typeDef.Behaviour(registry.Construct)
	if !ok || fid == 0 {
		return handle, nil
	}
	fn := c.module.FunctionByID(fid)
	if fn == nil {
		return handle, nil
	}
	callArgs := make([]bytecode.Value, 0, len(args)+1)
	callArgs = append(callArgs, bytecode.Value{Kind: bytecode.VKHandle, I: int64(handle)})
	callArgs = append(callArgs, args...)
	if _, err := c.run(fn, callArgs); err != nil {
		return handle, err
	}
	return handle, nil
}

// callVirtual dispatches through an object's vtable slot (spec §4.5
// "CALL_VIRT"): the receiver is the first popped argument, its handle
// resolves to an Object whose TypeId re-resolves the same vtable slot
// to this class's actual override.
func (c *Context) callVirtual(vtableSlot int, argCount int) error {
	args, err := c.popArgs(argCount)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return c.runtimeError(errors.NullReference, "CALL_VIRT with no receiver argument")
	}
	receiver := args[0]
	if receiver.Kind != bytecode.VKHandle || receiver.I == 0 {
		return c.runtimeError(errors.NullReference, "virtual call on a null handle")
	}
	obj := c.heap.Get(handleOf(receiver))
	if obj == nil {
		return c.runtimeError(errors.InvalidObjectReference, "virtual call on a dangling handle")
	}
	typeDef := c.module.Registry.Type(obj.TypeID)
	if typeDef == nil {
		return c.runtimeError(errors.InvalidObjectReference, "unknown type %d for virtual call", obj.TypeID)
	}
	var fn *bytecode.FunctionObject
	for _, mid := range typeDef.Methods {
		info := c.module.Registry.Function(mid)
		if info != nil && info.HasVTableIdx && info.VTableIndex == vtableSlot {
			fn = c.module.FunctionByID(mid)
			break
		}
	}
	if fn == nil {
		return c.runtimeError(errors.InvalidObjectReference, "vtable slot %d has no compiled override on type %d", vtableSlot, obj.TypeID)
	}
	result, err := c.run(fn, args)
	if err != nil {
		return err
	}
	c.push(result)
	return nil
}
