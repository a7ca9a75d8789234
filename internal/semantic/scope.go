package semantic

import "github.com/cwbudde/go-angelscript/internal/registry"

// localVar is one name bound within a function body.
type localVar struct {
	name    string
	typeID  registry.TypeId
	slot    int
	isConst bool
}

// scope is one lexical block of local declarations. Blocks nest;
// resolution walks outward from the innermost scope to the function's
// parameter scope, matching spec §4.3's block-scoping rule (an inner
// declaration may shadow an outer one, never conflict with it).
type scope struct {
	parent *scope
	vars   []localVar
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent}
}

func (s *scope) declare(name string, typeID registry.TypeId, slot int, isConst bool) {
	s.vars = append(s.vars, localVar{name: name, typeID: typeID, slot: slot, isConst: isConst})
}

func (s *scope) lookup(name string) (localVar, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		for i := len(cur.vars) - 1; i >= 0; i-- {
			if cur.vars[i].name == name {
				return cur.vars[i], true
			}
		}
	}
	return localVar{}, false
}

// slotAllocator hands out monotonically increasing local-variable slots
// for one function. Slots are never reused once a block exits — see
// SPEC_FULL.md's Open Question resolution on free_temp.
type slotAllocator struct {
	next int
}

func (a *slotAllocator) alloc() int {
	s := a.next
	a.next++
	return s
}

func (a *slotAllocator) count() int { return a.next }
