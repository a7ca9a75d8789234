package ascript

import (
	"github.com/cwbudde/go-angelscript/internal/ast"
	"github.com/cwbudde/go-angelscript/internal/builder"
	"github.com/cwbudde/go-angelscript/internal/bytecode"
	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/heap"
	"github.com/cwbudde/go-angelscript/internal/registry"
	"github.com/cwbudde/go-angelscript/internal/semantic"
)

// section is one named source unit added via AddScriptSection, mirroring
// AngelScript's asIScriptModule::AddScriptSection (spec §6.1/§6.2).
type section struct {
	name string
	code string
}

// Module accumulates script sections and the parsed program they
// represent, then compiles them into one BytecodeModule (spec §6.1
// "Module": AddScriptSection, Build, Discard, GetFunctionByName,
// GetGlobalVar*, GetTypeInfo*, SetDefaultNamespace).
//
// Lexing/parsing source text into an ast.Program is a non-goal of this
// engine (spec §1/§9): AddScriptSection still runs every section
// through internal/builder's #if/#include preprocessor (exercising the
// Script Builder component spec §4.2 names and surfacing its
// metadata), but turning the processed text into an ast.Program is the
// host's job — SetProgram attaches the AST that preprocessed text
// logically represents. A from-scratch module build therefore calls
// AddScriptSection for metadata/diagnostics and SetProgram for the
// actual compilation input.
type Module struct {
	engine    *Engine
	name      string
	namespace []string
	sections  []section
	prog      *ast.Program
	mod       *bytecode.BytecodeModule
	built     bool
}

// AddScriptSection registers one named unit of source text, running it
// through the conditional-compilation preprocessor and recording any
// metadata strings it carries (spec §6.1/§5.2).
func (m *Module) AddScriptSection(name, code string) ([]*builder.Metadata, error) {
	b := builder.New()
	_, meta, err := b.Process(builder.SourceSection{Name: name, Code: code}, nil, nil, nil)
	if err != nil {
		if ce, ok := err.(*errors.CompileError); ok {
			m.engine.report(name, ce)
		}
		return nil, err
	}
	m.sections = append(m.sections, section{name: name, code: code})
	return meta, nil
}

// SetProgram attaches the parsed AST this module compiles (see the
// type doc: a stand-in for the lexer/parser step this engine omits).
func (m *Module) SetProgram(prog *ast.Program) { m.prog = prog }

// SetDefaultNamespace records ns on the module (spec §6.1). Build does
// not read it, so it has no effect on how declarations are registered
// or resolved.
func (m *Module) SetDefaultNamespace(ns ...string) { m.namespace = ns }

// Build runs the Semantic Analyzer then the Code Generator over the
// module's attached program, producing the BytecodeModule every
// Context built from this Module executes (spec §4.2-§4.5).
func (m *Module) Build() error {
	if m.prog == nil {
		return errors.NewRuntimeError(errors.InvalidObjectReference, "Build: no program attached (call SetProgram first)", nil)
	}
	a := semantic.New(m.engine.reg, m.name)
	if diags := a.Analyze(m.prog); len(diags) != 0 {
		for _, d := range diags {
			m.engine.report(m.name, d)
		}
		return diags[0]
	}
	c := bytecode.NewCompiler(m.engine.reg)
	mod, err := c.Compile(m.prog)
	if err != nil {
		return err
	}
	bytecode.Optimize(mod)
	m.mod = mod
	m.built = true
	return nil
}

// Discard releases this module's compiled bytecode (spec §6.1
// "Discard"); the Engine's registry (and any other module sharing it)
// is unaffected.
func (m *Module) Discard() {
	m.mod = nil
	m.built = false
}

// GetFunctionByName looks up a compiled function's id by name (spec
// §6.1 "GetFunctionByName").
func (m *Module) GetFunctionByName(name string) (registry.FunctionId, bool) {
	if m.mod == nil {
		return 0, false
	}
	for _, fn := range m.mod.Functions {
		if fn.Name == name {
			return fn.ID, true
		}
	}
	return 0, false
}

// GetGlobalVarByName resolves a global variable's id (spec §6.1
// "GetGlobalVarByIndex"/by-name variant).
func (m *Module) GetGlobalVarByName(name string) (registry.GlobalId, bool) {
	return m.engine.reg.LookupGlobal(name)
}

// GetTypeInfoByName resolves a type's TypeDef by name (spec §6.1
// "GetTypeInfoByName").
func (m *Module) GetTypeInfoByName(name string) (*registry.TypeDef, bool) {
	id, err := m.engine.reg.LookupType(name)
	if err != nil {
		return nil, false
	}
	return m.engine.reg.Type(id), true
}

// CreateContext creates a fresh execution Context bound to this
// module's bytecode and a brand-new heap (spec §6.1
// "CreateContext"). The Context holds its own reference to the compiled
// bytecode, so a later Discard does not stop it from running.
func (m *Module) CreateContext() (*Context, error) {
	if !m.built || m.mod == nil {
		return nil, errors.NewRuntimeError(errors.InvalidObjectReference, "CreateContext: module has not been Built", nil)
	}
	return newContext(m), nil
}

func (m *Module) heapForContext() *heap.Heap { return heap.New() }
