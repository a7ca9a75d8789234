package vm

import (
	"github.com/cwbudde/go-angelscript/internal/bytecode"
	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/heap"
	"github.com/cwbudde/go-angelscript/internal/registry"
)

// exec runs a single instruction against frame. It returns (result,
// true, nil) when the instruction ended the frame (a RETURN/
// RETURN_VOID), letting run() pop the frame and push result for the
// caller — mirroring the teacher's vm_core.go dispatch loop structure,
// generalized to a per-frame register file instead of stack-only
// locals (spec §4.5).
func (c *Context) exec(frame *callFrame, inst bytecode.Instruction) (bytecode.Value, bool, error) {
	switch inst.Op {
	case bytecode.OpNop:
		// no-op

	case bytecode.OpLoadConst:
		if int(inst.A) < 0 || int(inst.A) >= len(c.module.Constants) {
			return bytecode.Value{}, false, c.runtimeError(errors.InvalidObjectReference, "constant index %d out of range", inst.A)
		}
		c.push(c.module.Constants[inst.A])

	case bytecode.OpLoadLocal:
		if int(inst.A) < 0 || int(inst.A) >= len(frame.regs) {
			return bytecode.Value{}, false, c.runtimeError(errors.InvalidObjectReference, "LOAD_LOCAL index %d out of range", inst.A)
		}
		c.push(frame.regs[inst.A])

	case bytecode.OpStoreLocal:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		if int(inst.A) < 0 || int(inst.A) >= len(frame.regs) {
			return bytecode.Value{}, false, c.runtimeError(errors.InvalidObjectReference, "STORE_LOCAL index %d out of range", inst.A)
		}
		frame.regs[inst.A] = v

	case bytecode.OpLoadGlobal:
		if int(inst.A) >= len(c.globals) {
			c.push(bytecode.Value{})
		} else {
			c.push(c.globals[inst.A])
		}

	case bytecode.OpStoreGlobal:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		for int(inst.A) >= len(c.globals) {
			c.globals = append(c.globals, bytecode.Value{})
		}
		c.globals[inst.A] = v

	case bytecode.OpLoadField:
		obj, err := c.popObject()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		c.push(fieldToValue(obj.GetField(int(inst.A))))

	case bytecode.OpStoreField:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		obj, err := c.popObject()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		obj.SetField(int(inst.A), v)

	case bytecode.OpPush:
		c.push(bytecode.Value{})

	case bytecode.OpPop:
		if _, err := c.pop(); err != nil {
			return bytecode.Value{}, false, err
		}

	case bytecode.OpDup:
		if len(c.stack) == 0 {
			return bytecode.Value{}, false, c.runtimeError(errors.StackOverflow, "DUP on empty stack")
		}
		c.push(c.stack[len(c.stack)-1])

	case bytecode.OpSwap:
		if len(c.stack) < 2 {
			return bytecode.Value{}, false, c.runtimeError(errors.StackOverflow, "SWAP on fewer than two stack values")
		}
		n := len(c.stack)
		c.stack[n-1], c.stack[n-2] = c.stack[n-2], c.stack[n-1]

	case bytecode.OpAddI32, bytecode.OpSubI32, bytecode.OpMulI32, bytecode.OpDivI32, bytecode.OpModI32,
		bytecode.OpAddI64, bytecode.OpSubI64, bytecode.OpMulI64, bytecode.OpDivI64, bytecode.OpModI64,
		bytecode.OpDivU32, bytecode.OpModU32, bytecode.OpDivU64, bytecode.OpModU64:
		if err := c.binaryIntOp(inst.Op); err != nil {
			return bytecode.Value{}, false, err
		}

	case bytecode.OpAddF32, bytecode.OpSubF32, bytecode.OpMulF32, bytecode.OpDivF32,
		bytecode.OpAddF64, bytecode.OpSubF64, bytecode.OpMulF64, bytecode.OpDivF64:
		if err := c.binaryFloatOp(inst.Op); err != nil {
			return bytecode.Value{}, false, err
		}

	case bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor, bytecode.OpShl, bytecode.OpShrArith, bytecode.OpShrLogicalU:
		if err := c.bitwiseOp(inst.Op); err != nil {
			return bytecode.Value{}, false, err
		}

	case bytecode.OpBitNot:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		c.push(bytecode.Value{Kind: v.Kind, I: ^v.I})

	case bytecode.OpCmpEqI32, bytecode.OpCmpNeqI32, bytecode.OpCmpLtI32, bytecode.OpCmpLtU32,
		bytecode.OpCmpLteI32, bytecode.OpCmpGtI32, bytecode.OpCmpGtU32, bytecode.OpCmpGteI32,
		bytecode.OpCmpEqF64, bytecode.OpCmpLtF64, bytecode.OpCmpGtF64:
		if err := c.compareOp(inst.Op); err != nil {
			return bytecode.Value{}, false, err
		}

	case bytecode.OpNegI32:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		c.push(bytecode.Value{Kind: bytecode.VKInt64, I: -v.I})

	case bytecode.OpNegF64:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		c.push(bytecode.Value{Kind: bytecode.VKFloat64, F64: -v.F64})

	case bytecode.OpNot:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		c.push(bytecode.Value{Kind: bytecode.VKBool, I: boolToInt(v.I == 0)})

	case bytecode.OpIncI32:
		if int(inst.A) < 0 || int(inst.A) >= len(frame.regs) {
			return bytecode.Value{}, false, c.runtimeError(errors.InvalidObjectReference, "INC_I32 slot %d out of range", inst.A)
		}
		frame.regs[inst.A].I++

	case bytecode.OpDecI32:
		if int(inst.A) < 0 || int(inst.A) >= len(frame.regs) {
			return bytecode.Value{}, false, c.runtimeError(errors.InvalidObjectReference, "DEC_I32 slot %d out of range", inst.A)
		}
		frame.regs[inst.A].I--

	case bytecode.OpJump:
		frame.ip = int(inst.A)

	case bytecode.OpJumpIfFalse:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		if v.I == 0 {
			frame.ip = int(inst.A)
		}

	case bytecode.OpJumpIfTrue:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		if v.I != 0 {
			frame.ip = int(inst.A)
		}

	case bytecode.OpCall:
		return bytecode.Value{}, false, c.callScript(registry.FunctionId(inst.A), int(inst.B))

	case bytecode.OpCallSys:
		return bytecode.Value{}, false, c.callNative(registry.FunctionId(inst.A), int(inst.B))

	case bytecode.OpCallVirt:
		return bytecode.Value{}, false, c.callVirtual(int(inst.A), int(inst.B))

	case bytecode.OpReturn:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		return v, true, nil

	case bytecode.OpReturnVoid:
		return bytecode.Value{}, true, nil

	case bytecode.OpNewObject:
		args, err := c.popArgs(int(inst.B))
		if err != nil {
			return bytecode.Value{}, false, err
		}
		handle, err := c.construct(registry.TypeId(inst.A), args)
		if err != nil {
			return bytecode.Value{}, false, err
		}
		c.push(bytecode.Value{Kind: bytecode.VKHandle, I: int64(handle)})

	case bytecode.OpBeginInitList:
		c.initBuild = append(c.initBuild, nil)

	case bytecode.OpAddToInitList:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		if len(c.initBuild) == 0 {
			return bytecode.Value{}, false, c.runtimeError(errors.InvalidObjectReference, "ADD_TO_INIT_LIST with no open init-list")
		}
		top := len(c.initBuild) - 1
		c.initBuild[top] = append(c.initBuild[top], v)

	case bytecode.OpEndInitList:
		if len(c.initBuild) == 0 {
			return bytecode.Value{}, false, c.runtimeError(errors.InvalidObjectReference, "END_INIT_LIST with no open init-list")
		}
		top := len(c.initBuild) - 1
		list := c.initBuild[top]
		c.initBuild = c.initBuild[:top]
		idx := len(c.initLists)
		c.initLists = append(c.initLists, list)
		c.push(bytecode.Value{Kind: bytecode.VKInitList, I: int64(idx)})

	case bytecode.OpAddRef:
		obj, err := c.popObject()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		c.heap.AddRef(obj.Handle())

	case bytecode.OpRelease:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		if v.Kind == bytecode.VKHandle {
			c.heap.Release(handleOf(v))
		}

	case bytecode.OpCastHandle:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		obj := c.heap.Get(handleOf(v))
		if obj == nil || obj.TypeID != registry.TypeId(inst.A) {
			return bytecode.Value{}, false, c.runtimeError(errors.InvalidCast, "cannot cast handle to type %d", inst.A)
		}
		c.push(v)

	case bytecode.OpThrow:
		v, err := c.pop()
		if err != nil {
			return bytecode.Value{}, false, err
		}
		return bytecode.Value{}, false, c.runtimeError(errors.UserException, "%v", v)

	case bytecode.OpEnterTry:
		entries := c.module.Catches[frame.fn.ID]
		if int(inst.A) < 0 || int(inst.A) >= len(entries) {
			return bytecode.Value{}, false, c.runtimeError(errors.InvalidObjectReference, "ENTER_TRY index %d out of range", inst.A)
		}
		c.tries = append(c.tries, tryFrame{frameDepth: len(c.frames) - 1, catch: entries[inst.A]})

	case bytecode.OpLeaveTry:
		if len(c.tries) > 0 {
			c.tries = c.tries[:len(c.tries)-1]
		}

	case bytecode.OpHalt:
		return bytecode.Value{}, true, nil

	default:
		return bytecode.Value{}, false, c.runtimeError(errors.InvalidObjectReference, "unhandled opcode %s", inst.Op)
	}
	return bytecode.Value{}, false, nil
}

func handleOf(v bytecode.Value) heap.Handle { return heap.Handle(v.I) }

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func fieldToValue(f interface{}) bytecode.Value {
	if v, ok := f.(bytecode.Value); ok {
		return v
	}
	return bytecode.Value{}
}
