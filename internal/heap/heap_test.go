package heap

import (
	"testing"

	"github.com/cwbudde/go-angelscript/internal/registry"
)

func Test_AddRef_Nil(t *testing.T) {
	h := New()
	h.AddRef(NullHandle) // should not panic
}

func Test_Alloc_StartsAtRefCountOne(t *testing.T) {
	h := New()
	handle := h.Alloc(registry.TypeId(100))

	obj := h.Get(handle)
	if obj == nil {
		t.Fatal("Get returned nil for freshly allocated handle")
	}
	if obj.RefCount() != 1 {
		t.Errorf("RefCount() = %d, want 1", obj.RefCount())
	}
}

func Test_AddRef_Increments(t *testing.T) {
	h := New()
	handle := h.Alloc(registry.TypeId(100))

	h.AddRef(handle)
	h.AddRef(handle)

	if got := h.Get(handle).RefCount(); got != 3 {
		t.Errorf("RefCount() = %d, want 3", got)
	}
}

func Test_Release_ToZero_CallsDestruct(t *testing.T) {
	h := New()
	destructed := false
	h.RegisterClass(registry.TypeId(100), false, func(o *Object) { destructed = true }, nil, nil)

	handle := h.Alloc(registry.TypeId(100))
	h.Release(handle)

	if !destructed {
		t.Error("destructor was not called on release to zero")
	}
	if h.Get(handle) != nil {
		t.Error("Get should return nil for a freed handle")
	}
}

func Test_Release_AboveZero_NoDestruct(t *testing.T) {
	h := New()
	destructed := false
	h.RegisterClass(registry.TypeId(100), false, func(o *Object) { destructed = true }, nil, nil)

	handle := h.Alloc(registry.TypeId(100))
	h.AddRef(handle)
	h.Release(handle)

	if destructed {
		t.Error("destructor should not fire while refcount remains positive")
	}
	if got := h.Get(handle).RefCount(); got != 1 {
		t.Errorf("RefCount() = %d, want 1", got)
	}
}

func Test_Release_Nil(t *testing.T) {
	h := New()
	h.Release(NullHandle) // should not panic
}

func Test_FreedSlotIsReused(t *testing.T) {
	h := New()
	a := h.Alloc(registry.TypeId(100))
	h.Release(a)
	b := h.Alloc(registry.TypeId(100))

	if a != b {
		t.Errorf("expected freed slot %d to be reused, got new handle %d", a, b)
	}
}

func Test_Collect_FreesUnreachableCycle(t *testing.T) {
	h := New()
	var destructedA, destructedB bool

	// class whose single field is another handle of the same class
	h.RegisterClass(registry.TypeId(200), true,
		func(o *Object) {
			if o.handle == 1 {
				destructedA = true
			} else {
				destructedB = true
			}
		},
		func(o *Object) []Handle {
			if h, ok := o.GetField(0).(Handle); ok {
				return []Handle{h}
			}
			return nil
		},
		func(o *Object) { o.SetField(0, NullHandle) },
	)

	a := h.Alloc(registry.TypeId(200))
	b := h.Alloc(registry.TypeId(200))
	h.Get(a).SetField(0, b)
	h.Get(b).SetField(0, a)
	h.AddRef(b) // a references b
	h.AddRef(a) // b references a

	// drop the roots' own ownership; only the cycle's mutual refs remain
	h.Release(a)
	h.Release(b)

	if h.LiveCount() != 2 {
		t.Fatalf("expected the cycle to survive refcounting alone, LiveCount() = %d", h.LiveCount())
	}

	h.Collect(nil) // no roots reach the cycle

	if !destructedA || !destructedB {
		t.Error("expected Collect to destroy both cycle members")
	}
	if h.LiveCount() != 0 {
		t.Errorf("LiveCount() = %d, want 0 after collecting an unreachable cycle", h.LiveCount())
	}
}

func Test_Collect_KeepsReachableObject(t *testing.T) {
	h := New()
	destructed := false
	h.RegisterClass(registry.TypeId(300), true, func(o *Object) { destructed = true }, nil, nil)

	handle := h.Alloc(registry.TypeId(300))
	h.Collect([]Handle{handle})

	if destructed {
		t.Error("Collect should not destroy an object reachable from a root")
	}
}

func Test_Collect_IgnoresNonGCEligibleClasses(t *testing.T) {
	h := New()
	destructed := false
	h.RegisterClass(registry.TypeId(400), false, func(o *Object) { destructed = true }, nil, nil)

	h.Alloc(registry.TypeId(400))
	h.Collect(nil)

	if destructed {
		t.Error("Collect must never touch a class that isn't GC-eligible")
	}
}
