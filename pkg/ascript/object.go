package ascript

import (
	"github.com/cwbudde/go-angelscript/internal/heap"
	"github.com/cwbudde/go-angelscript/internal/registry"
)

// ScriptObject is a host-facing handle into a Context's heap (spec
// §6.1 "ScriptObject": GetTypeId, GetProperty/SetProperty, AddRef,
// Release). It never outlives the Context whose heap allocated it.
type ScriptObject struct {
	h      *heap.Heap
	handle heap.Handle
}

// GetTypeID reports the object's class, or 0 for a null/dangling
// handle.
func (o *ScriptObject) GetTypeID() registry.TypeId {
	obj := o.h.Get(o.handle)
	if obj == nil {
		return 0
	}
	return obj.TypeID
}

// IsNull reports whether this handle refers to no object (spec
// GLOSSARY "Handle": a null handle is a valid value).
func (o *ScriptObject) IsNull() bool { return o.h.Get(o.handle) == nil }

// GetProperty reads field offset's raw value (spec §6.1
// "GetAddressOfProperty", collapsed to a value getter since this
// engine's fields are Go interface{} slots rather than raw memory the
// host can take the address of).
func (o *ScriptObject) GetProperty(offset int) interface{} {
	obj := o.h.Get(o.handle)
	if obj == nil {
		return nil
	}
	return obj.GetField(offset)
}

// SetProperty writes field offset's raw value.
func (o *ScriptObject) SetProperty(offset int, v interface{}) {
	if obj := o.h.Get(o.handle); obj != nil {
		obj.SetField(offset, v)
	}
}

// AddRef takes an owning reference on the underlying object (spec
// §3.6 "add_ref"/§6.1 "ScriptObject::AddRef").
func (o *ScriptObject) AddRef() { o.h.AddRef(o.handle) }

// Release drops an owning reference, destructing the object at zero
// (spec §3.6 "release"/§6.1 "ScriptObject::Release").
func (o *ScriptObject) Release() { o.h.Release(o.handle) }

// NewScriptObject wraps an already-allocated handle for host use; the
// caller is responsible for the reference count it represents (spec
// §6.1's ScriptObject wrappers never allocate on their own — allocation
// happens through NEW_OBJECT in script code or an engine-side factory).
func NewScriptObject(h *heap.Heap, handle heap.Handle) *ScriptObject {
	return &ScriptObject{h: h, handle: handle}
}
