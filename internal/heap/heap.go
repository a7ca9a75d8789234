// Package heap implements the Object Heap (spec §3.6): a handle-indexed
// table of reference-counted objects, plus a tri-colour mark/sweep
// collector for the subset of classes flagged GC-eligible (spec §3.2
// ClassFlags, GLOSSARY "Handle").
//
// Grounded on the teacher's internal/interp/runtime/refcount.go
// (RefCountManager interface: IncrementRef/DecrementRef plus a
// destructor callback) for the refcounting half, and object.go/pool.go
// for the handle-table/object-pool shape. The teacher has no cycle
// collector — DWScript's value-type-heavy model never needs one — so
// the mark/sweep pass below is new code grounded directly on spec
// §3.6's own description rather than on any example repo.
package heap

import "github.com/cwbudde/go-angelscript/internal/registry"

// Handle is a stable index into the heap's object table. The zero
// Handle is the null handle (spec GLOSSARY "Handle": "a null handle is
// a valid value meaning no object").
type Handle uint32

const NullHandle Handle = 0

// EnumRefsFunc/ReleaseRefsFunc implement a class's EnumRefs/ReleaseRefs
// behaviours (spec §3.2 BehaviourKind): EnumRefs reports every handle
// field the cycle collector must trace into; ReleaseRefs clears them
// during a collection sweep, breaking a cycle before the object itself
// is freed.
type EnumRefsFunc func(obj *Object) []Handle
type ReleaseRefsFunc func(obj *Object)
type DestructFunc func(obj *Object)

// Object is one heap-resident instance: its class, its refcount, and
// a field store keyed by the property-name index codegen interns for
// each field access (BytecodeModule.InternPropertyName, spec §3.6).
type Object struct {
	handle   Handle
	TypeID   registry.TypeId
	refCount int32
	marked   bool // cycle-collector mark bit
	gcEligible bool
	fields   map[int]interface{}
}

func (o *Object) Handle() Handle { return o.handle }
func (o *Object) RefCount() int32 { return o.refCount }

func (o *Object) GetField(offset int) interface{} { return o.fields[offset] }
func (o *Object) SetField(offset int, v interface{}) {
	if o.fields == nil {
		o.fields = make(map[int]interface{})
	}
	o.fields[offset] = v
}

// classHooks is the per-TypeId behaviour table the heap consults for
// destruction and cycle tracing; the Type Registry owns the
// TypeDef.Behaviours FunctionId mapping (spec §3.2), but resolving a
// FunctionId to an actual Go callback is the embedder's job (spec
// §6.1), so the heap is handed concrete closures instead of FunctionIds
// to keep this package independent of the VM's call mechanism.
type classHooks struct {
	destruct    DestructFunc
	enumRefs    EnumRefsFunc
	releaseRefs ReleaseRefsFunc
	gcEligible  bool
}

// Heap owns every live Object and the handle table indexing them.
// Single-threaded: spec §4.5 binds each Context (and therefore each
// heap) to one goroutine, so no internal locking is needed.
type Heap struct {
	objects []*Object // index 0 unused, matches Handle's null-at-zero convention
	free    []Handle  // recycled slots, LIFO reuse
	hooks   map[registry.TypeId]*classHooks
}

func New() *Heap {
	return &Heap{objects: make([]*Object, 1), hooks: make(map[registry.TypeId]*classHooks)}
}

// RegisterClass installs the destructor/EnumRefs/ReleaseRefs hooks for
// typeID. gcEligible mirrors TypeDef.Flags.FlagGCEligible (spec §3.2):
// only GC-eligible classes are ever visited by Collect.
func (h *Heap) RegisterClass(typeID registry.TypeId, gcEligible bool, destruct DestructFunc, enumRefs EnumRefsFunc, releaseRefs ReleaseRefsFunc) {
	h.hooks[typeID] = &classHooks{destruct: destruct, enumRefs: enumRefs, releaseRefs: releaseRefs, gcEligible: gcEligible}
}

// Alloc creates a new Object of typeID with refcount 1 (the caller's
// owning reference, spec §3.6 invariant "a freshly constructed object
// has refcount 1").
func (h *Heap) Alloc(typeID registry.TypeId) Handle {
	obj := &Object{TypeID: typeID, refCount: 1}
	if hooks, ok := h.hooks[typeID]; ok {
		obj.gcEligible = hooks.gcEligible
	}

	var handle Handle
	if n := len(h.free); n > 0 {
		handle = h.free[n-1]
		h.free = h.free[:n-1]
		obj.handle = handle
		h.objects[handle] = obj
	} else {
		handle = Handle(len(h.objects))
		obj.handle = handle
		h.objects = append(h.objects, obj)
	}
	return handle
}

func (h *Heap) Get(handle Handle) *Object {
	if handle == NullHandle || int(handle) >= len(h.objects) {
		return nil
	}
	return h.objects[handle]
}

// AddRef increments handle's refcount (spec §3.6 "add_ref"). A no-op on
// the null handle, matching handle-assignment semantics where
// assigning null never touches the heap.
func (h *Heap) AddRef(handle Handle) {
	obj := h.Get(handle)
	if obj == nil {
		return
	}
	obj.refCount++
}

// Release decrements handle's refcount, destructing and freeing the
// slot at zero (spec §3.6 "release"). Destruction runs the class's
// registered ReleaseRefs and Destruct hooks, if any; the heap does not
// itself release the handles stored in the object's fields, so a
// release cascades to other objects only through those hooks.
func (h *Heap) Release(handle Handle) {
	obj := h.Get(handle)
	if obj == nil {
		return
	}
	obj.refCount--
	if obj.refCount > 0 {
		return
	}
	h.destroy(obj)
}

func (h *Heap) destroy(obj *Object) {
	hooks := h.hooks[obj.TypeID]
	if hooks != nil {
		if hooks.releaseRefs != nil {
			hooks.releaseRefs(obj)
		}
		if hooks.destruct != nil {
			hooks.destruct(obj)
		}
	}
	h.objects[obj.handle] = nil
	h.free = append(h.free, obj.handle)
}

// Collect runs one tri-colour mark/sweep pass over every GC-eligible
// object reachable from roots, freeing any GC-eligible object not
// reached — the only way a reference cycle among GC-eligible objects
// is ever reclaimed, since plain refcounting can never drop a cycle's
// count to zero on its own (spec §3.6).
func (h *Heap) Collect(roots []Handle) {
	for _, obj := range h.objects {
		if obj != nil {
			obj.marked = false
		}
	}

	var gray []Handle
	for _, r := range roots {
		gray = append(gray, r)
	}
	for len(gray) > 0 {
		cur := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		obj := h.Get(cur)
		if obj == nil || obj.marked {
			continue
		}
		obj.marked = true
		if hooks := h.hooks[obj.TypeID]; hooks != nil && hooks.enumRefs != nil {
			gray = append(gray, hooks.enumRefs(obj)...)
		}
	}

	for _, obj := range h.objects {
		if obj == nil || !obj.gcEligible || obj.marked {
			continue
		}
		h.destroy(obj)
	}
}

// LiveCount reports the number of non-nil object slots, for tests and
// host-side diagnostics.
func (h *Heap) LiveCount() int {
	n := 0
	for _, obj := range h.objects {
		if obj != nil {
			n++
		}
	}
	return n
}
