package registry

import (
	"sync"
	"testing"

	"github.com/cwbudde/go-angelscript/internal/errors"
)

func TestPrimitivesPreregistered(t *testing.T) {
	r := New()
	id, err := r.LookupType("int")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != TypeInt32 {
		t.Errorf("expected int to resolve to TypeInt32, got %d", id)
	}
	if r.Type(TypeString).Name != "string" {
		t.Errorf("expected TypeString name to be string")
	}
}

func TestLookupUndefinedType(t *testing.T) {
	r := New()
	_, err := r.LookupType("Sprocket")
	ce, ok := err.(*errors.CompileError)
	if !ok {
		t.Fatalf("expected *errors.CompileError, got %T", err)
	}
	if ce.Kind != errors.UndefinedType {
		t.Errorf("expected UndefinedType, got %v", ce.Kind)
	}
}

func TestRegisterTypeDuplicate(t *testing.T) {
	r := New()
	_, err := r.RegisterType(&TypeDef{Kind: KindClass, Name: "Foo"})
	if err != nil {
		t.Fatalf("unexpected error on first registration: %v", err)
	}
	_, err = r.RegisterType(&TypeDef{Kind: KindClass, Name: "Foo"})
	ce, ok := err.(*errors.CompileError)
	if !ok || ce.Kind != errors.DuplicateDeclaration {
		t.Fatalf("expected DuplicateDeclaration, got %v", err)
	}
}

func TestRegisterFunctionOverloadsAccumulate(t *testing.T) {
	r := New()
	f1 := r.RegisterFunction(&FunctionInfo{Name: "max", Params: []ParamInfo{{TypeID: TypeInt32}, {TypeID: TypeInt32}}})
	f2 := r.RegisterFunction(&FunctionInfo{Name: "max", Params: []ParamInfo{{TypeID: TypeFloat}, {TypeID: TypeFloat}}})
	cands := r.FindFunction(nil, "max")
	if len(cands) != 2 || cands[0] != f1 || cands[1] != f2 {
		t.Fatalf("expected both overloads, got %v", cands)
	}
}

func TestValidateNoConflictsDetectsIdenticalSignature(t *testing.T) {
	r := New()
	r.RegisterFunction(&FunctionInfo{Name: "f", Params: []ParamInfo{{TypeID: TypeInt32}}})
	r.RegisterFunction(&FunctionInfo{Name: "f", Params: []ParamInfo{{TypeID: TypeInt32}}})
	if err := r.ValidateNoConflicts(); err == nil {
		t.Fatalf("expected conflict error")
	}
}

func TestInstantiateTemplateMemoizes(t *testing.T) {
	r := New()
	builds := 0
	build := func() (*TypeDef, error) {
		builds++
		return &TypeDef{Name: "array<int>"}, nil
	}
	id1, err := r.InstantiateTemplate(TypeArrayTemplate, []TypeId{TypeInt32}, build)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := r.InstantiateTemplate(TypeArrayTemplate, []TypeId{TypeInt32}, build)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected same TypeId for repeated instantiation, got %d and %d", id1, id2)
	}
	if builds != 1 {
		t.Errorf("expected exactly one build call, got %d", builds)
	}

	id3, err := r.InstantiateTemplate(TypeArrayTemplate, []TypeId{TypeString}, build)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id3 == id1 {
		t.Errorf("expected distinct TypeId for array<string> vs array<int>")
	}
}

func TestInstantiateTemplateConcurrentMissesCollapse(t *testing.T) {
	r := New()
	var builds int
	var mu sync.Mutex
	build := func() (*TypeDef, error) {
		mu.Lock()
		builds++
		mu.Unlock()
		return &TypeDef{Name: "array<double>"}, nil
	}

	var wg sync.WaitGroup
	ids := make([]TypeId, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := r.InstantiateTemplate(TypeArrayTemplate, []TypeId{TypeDouble}, build)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("expected identical TypeId across concurrent instantiations")
		}
	}
	if builds != 1 {
		t.Errorf("expected singleflight to collapse concurrent misses into one build, got %d", builds)
	}
}

func TestCheckTemplateArgCountWrongArity(t *testing.T) {
	r := New()
	err := r.CheckTemplateArgCount(TypeArrayTemplate, []TypeId{TypeInt32, TypeString})
	ce, ok := err.(*errors.CompileError)
	if !ok || ce.Kind != errors.WrongTemplateArgCount {
		t.Fatalf("expected WrongTemplateArgCount, got %v", err)
	}
}

func TestCheckTemplateArgCountNotATemplate(t *testing.T) {
	r := New()
	err := r.CheckTemplateArgCount(TypeInt32, []TypeId{TypeInt32})
	ce, ok := err.(*errors.CompileError)
	if !ok || ce.Kind != errors.NotATemplate {
		t.Fatalf("expected NotATemplate, got %v", err)
	}
}

func TestRegisterGlobalDuplicate(t *testing.T) {
	r := New()
	if _, err := r.RegisterGlobal(&GlobalInfo{Name: "g", TypeID: TypeInt32}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := r.RegisterGlobal(&GlobalInfo{Name: "g", TypeID: TypeInt32})
	ce, ok := err.(*errors.CompileError)
	if !ok || ce.Kind != errors.DuplicateDeclaration {
		t.Fatalf("expected DuplicateDeclaration, got %v", err)
	}
}
