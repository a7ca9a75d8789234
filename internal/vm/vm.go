// Package vm implements the Virtual Machine (spec §4.5): a
// single-threaded, cooperative register/stack execution engine that
// runs a bytecode.BytecodeModule's compiled functions against an
// internal/heap.Heap for object lifetime, with CALLSYS dispatch into
// host-registered native functions and structured exception unwinding.
//
// Grounded on the teacher's internal/bytecode/vm_core.go dispatch loop
// (switch-per-opcode over a flat Code slice, a callFrame stack, a
// value stack, globals slice, and a BuiltinFunction map) — generalized
// from DWScript's pure-stack model to AngelScript's call-frame-local
// register file (spec §4.5: "locals and temporaries live in
// per-frame registers, not stack slots").
package vm

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/cwbudde/go-angelscript/internal/bytecode"
	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/heap"
	"github.com/cwbudde/go-angelscript/internal/registry"
)

const (
	defaultStackCapacity = 256
	defaultFrameCapacity = 16
	defaultMaxCallDepth  = 1024
)

// State is the Context's run state (spec §4.5 / §6.1 "Suspended,
// Finished, Aborted, Exception").
type State int

const (
	StateReady State = iota
	StateRunning
	StateSuspended
	StateFinished
	StateAborted
	StateException
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateSuspended:
		return "Suspended"
	case StateFinished:
		return "Finished"
	case StateAborted:
		return "Aborted"
	case StateException:
		return "Exception"
	default:
		return "Unknown"
	}
}

// NativeFunc is a host-implemented system function reachable through
// CALLSYS (spec §6.1 "RegisterFunction"). It receives its arguments
// already popped off the value stack in left-to-right order.
type NativeFunc func(c *Context, args []bytecode.Value) (bytecode.Value, error)

// callFrame is one active script-function activation: its register
// file (locals+temps, sized by FunctionObject.Locals) and instruction
// pointer. Grounded on the teacher's callFrame in vm_core.go, renamed
// "locals" -> "regs" to match AngelScript's unified register file
// (spec §4.5 draws no distinction between a local variable slot and a
// compiler temporary; both are just registers).
type callFrame struct {
	fn   *bytecode.FunctionObject
	ip   int
	regs []bytecode.Value
}

// tryFrame is one active exception-handler scope, pushed by
// ENTER_TRY and popped by LEAVE_TRY (spec §4.5 "exception unwind").
type tryFrame struct {
	frameDepth int // len(frames) at the moment of ENTER_TRY
	catch      bytecode.CatchEntry
}

// Context is one execution context over a module: the spec's VM
// "Context" object (spec §4.5/§6.1), bound to exactly one goroutine.
type Context struct {
	module  *bytecode.BytecodeModule
	heap    *heap.Heap
	natives map[string]NativeFunc
	output  io.Writer

	stack   []bytecode.Value
	frames  []callFrame
	globals []bytecode.Value
	tries   []tryFrame

	// initBuild is the stack of init-lists currently being assembled
	// (nested BEGIN_INIT_LIST before the matching END_INIT_LIST);
	// initLists holds every completed list, indexed by the I field of a
	// VKInitList Value — a side-table rather than a slice field on
	// Value itself, see bytecode.VKInitList.
	initBuild [][]bytecode.Value
	initLists [][]bytecode.Value

	state   State
	lastErr *errors.RuntimeError

	// abortRequested/suspendRequested are set by Abort/Suspend, which
	// the host is expected to call from a goroutine other than the one
	// running Call (spec §6.1 "Context.Abort"/"Context.Suspend" exist
	// precisely so a watchdog on another goroutine can stop a
	// long-running script); run() polls them once per instruction.
	abortRequested   int32
	suspendRequested int32
}

// NewContext creates a Context bound to module and heap, both owned by
// the caller for the Context's lifetime (spec §6.1: "a Context never
// outlives the Module it was built from").
func NewContext(module *bytecode.BytecodeModule, h *heap.Heap) *Context {
	return &Context{
		module:  module,
		heap:    h,
		natives: make(map[string]NativeFunc),
		stack:   make([]bytecode.Value, 0, defaultStackCapacity),
		frames:  make([]callFrame, 0, defaultFrameCapacity),
		globals: make([]bytecode.Value, 0),
		state:   StateReady,
	}
}

func (c *Context) SetOutput(w io.Writer) { c.output = w }

// RegisterNative binds a host function to the qualified name codegen
// emitted a CALLSYS for (spec §6.1 "RegisterFunction").
func (c *Context) RegisterNative(name string, fn NativeFunc) {
	c.natives[name] = fn
}

func (c *Context) State() State                   { return c.state }
func (c *Context) LastError() *errors.RuntimeError { return c.lastErr }
func (c *Context) Heap() *heap.Heap                { return c.heap }

// InitList returns the completed init-list a VKInitList Value indexes
// into. Returns nil if v is not a VKInitList or its index is stale.
func (c *Context) InitList(v bytecode.Value) []bytecode.Value {
	if v.Kind != bytecode.VKInitList || v.I < 0 || int(v.I) >= len(c.initLists) {
		return nil
	}
	return c.initLists[v.I]
}

// Abort requests that the running script stop at the next instruction
// boundary, leaving State as Aborted (spec §6.1 "Context.Abort"). Safe
// to call from any goroutine.
func (c *Context) Abort() {
	atomic.StoreInt32(&c.abortRequested, 1)
}

// Suspend requests that the running script pause at the next
// instruction boundary, leaving State as Suspended (spec §6.1
// "Context.Suspend"). Safe to call from any goroutine. This engine has
// no resume-after-suspend scheduling: a suspended Context has simply
// stopped running, it cannot be re-entered where it left off.
func (c *Context) Suspend() {
	atomic.StoreInt32(&c.suspendRequested, 1)
}

func (c *Context) push(v bytecode.Value) { c.stack = append(c.stack, v) }

func (c *Context) pop() (bytecode.Value, error) {
	n := len(c.stack)
	if n == 0 {
		return bytecode.Value{}, c.runtimeError(errors.StackOverflow, "pop from empty stack")
	}
	v := c.stack[n-1]
	c.stack = c.stack[:n-1]
	return v, nil
}

func (c *Context) runtimeError(kind errors.RuntimeErrorKind, format string, args ...interface{}) error {
	stack := make([]errors.Frame, 0, len(c.frames))
	for i := len(c.frames) - 1; i >= 0; i-- {
		stack = append(stack, errors.Frame{FunctionName: c.frames[i].fn.Name})
	}
	rerr := errors.NewRuntimeError(kind, fmt.Sprintf(format, args...), stack)
	c.lastErr = rerr
	return rerr
}

// Call invokes fn by FunctionId with args already evaluated by the
// host (spec §6.1 "Context.Prepare"/"Context.Execute" collapsed into
// one call since this engine has no suspend-for-later-resume
// scheduling beyond the cooperative yield §4.5 describes for
// long-running scripts — Suspended is reachable only via an explicit
// host Suspend request, not an automatic time-slice cut).
func (c *Context) Call(id registry.FunctionId, args []bytecode.Value) (bytecode.Value, error) {
	fn := c.module.FunctionByID(id)
	if fn == nil {
		return bytecode.Value{}, c.runtimeError(errors.InvalidObjectReference, "no compiled function for id %d", id)
	}
	return c.run(fn, args)
}

func (c *Context) run(fn *bytecode.FunctionObject, args []bytecode.Value) (bytecode.Value, error) {
	c.state = StateRunning
	baseFrames := len(c.frames)

	regs := make([]bytecode.Value, fn.Locals)
	copy(regs, args)
	c.frames = append(c.frames, callFrame{fn: fn, ip: 0, regs: regs})

	for len(c.frames) > baseFrames {
		if len(c.frames) > defaultMaxCallDepth {
			c.state = StateAborted
			return bytecode.Value{}, c.runtimeError(errors.StackOverflow, "call depth exceeded %d", defaultMaxCallDepth)
		}
		if atomic.CompareAndSwapInt32(&c.abortRequested, 1, 0) {
			c.state = StateAborted
			return bytecode.Value{}, nil
		}
		if atomic.CompareAndSwapInt32(&c.suspendRequested, 1, 0) {
			c.state = StateSuspended
			return bytecode.Value{}, nil
		}

		frame := &c.frames[len(c.frames)-1]
		if frame.ip >= len(frame.fn.Code) {
			c.frames = c.frames[:len(c.frames)-1]
			if len(c.frames) == baseFrames {
				c.state = StateFinished
				return bytecode.Value{}, nil
			}
			continue
		}

		inst := frame.fn.Code[frame.ip]
		frame.ip++

		result, done, err := c.exec(frame, inst)
		if err != nil {
			if c.unwind(err) {
				continue // a handler caught it, resume at its address
			}
			c.state = StateException
			return bytecode.Value{}, err
		}
		if done {
			c.frames = c.frames[:len(c.frames)-1]
			if len(c.frames) == baseFrames {
				c.state = StateFinished
				return result, nil
			}
			c.push(result)
		}
	}

	c.state = StateFinished
	return bytecode.Value{}, nil
}

// unwind searches the active try table for a handler covering the
// current instruction and, if found, truncates the frame/value stacks
// to that handler's scope and jumps execution there (spec §4.5
// "THROW searches outward through ENTER_TRY/LEAVE_TRY ranges").
func (c *Context) unwind(err error) bool {
	rerr, ok := err.(*errors.RuntimeError)
	if !ok {
		return false
	}
	for i := len(c.tries) - 1; i >= 0; i-- {
		t := c.tries[i]
		if t.catch.ExceptionType != 0 && rerr.Kind != errors.UserException {
			continue
		}
		c.tries = c.tries[:i]
		c.frames = c.frames[:t.frameDepth+1]
		frame := &c.frames[len(c.frames)-1]
		frame.ip = t.catch.HandlerAddress
		return true
	}
	return false
}
