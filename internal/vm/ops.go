package vm

import (
	"github.com/cwbudde/go-angelscript/internal/bytecode"
	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/heap"
)

// popObject pops a handle Value off the stack and resolves it against
// the heap, reporting NullReference for a null or dangling handle
// (spec §7 "dereferencing a null handle raises NullReference").
func (c *Context) popObject() (*heap.Object, error) {
	v, err := c.pop()
	if err != nil {
		return nil, err
	}
	if v.Kind != bytecode.VKHandle || v.I == int64(heap.NullHandle) {
		return nil, c.runtimeError(errors.NullReference, "dereference of a null handle")
	}
	obj := c.heap.Get(handleOf(v))
	if obj == nil {
		return nil, c.runtimeError(errors.InvalidObjectReference, "handle %d does not refer to a live object", v.I)
	}
	return obj, nil
}

func (c *Context) binaryIntOp(op bytecode.OpCode) error {
	b, err := c.pop()
	if err != nil {
		return err
	}
	a, err := c.pop()
	if err != nil {
		return err
	}
	switch op {
	case bytecode.OpAddI32, bytecode.OpAddI64:
		c.push(bytecode.Value{Kind: a.Kind, I: a.I + b.I})
	case bytecode.OpSubI32, bytecode.OpSubI64:
		c.push(bytecode.Value{Kind: a.Kind, I: a.I - b.I})
	case bytecode.OpMulI32, bytecode.OpMulI64:
		c.push(bytecode.Value{Kind: a.Kind, I: a.I * b.I})
	case bytecode.OpDivI32, bytecode.OpDivI64:
		if b.I == 0 {
			return c.runtimeError(errors.DivisionByZero, "integer division by zero")
		}
		c.push(bytecode.Value{Kind: a.Kind, I: a.I / b.I})
	case bytecode.OpModI32, bytecode.OpModI64:
		if b.I == 0 {
			return c.runtimeError(errors.ModuloByZero, "integer modulo by zero")
		}
		c.push(bytecode.Value{Kind: a.Kind, I: a.I % b.I})
	case bytecode.OpDivU32, bytecode.OpDivU64:
		if b.U == 0 {
			return c.runtimeError(errors.DivisionByZero, "unsigned division by zero")
		}
		c.push(bytecode.Value{Kind: bytecode.VKUint64, U: a.U / b.U})
	case bytecode.OpModU32, bytecode.OpModU64:
		if b.U == 0 {
			return c.runtimeError(errors.ModuloByZero, "unsigned modulo by zero")
		}
		c.push(bytecode.Value{Kind: bytecode.VKUint64, U: a.U % b.U})
	}
	return nil
}

func (c *Context) binaryFloatOp(op bytecode.OpCode) error {
	b, err := c.pop()
	if err != nil {
		return err
	}
	a, err := c.pop()
	if err != nil {
		return err
	}
	is32 := op == bytecode.OpAddF32 || op == bytecode.OpSubF32 || op == bytecode.OpMulF32 || op == bytecode.OpDivF32
	af, bf := a.F64, b.F64
	if is32 {
		af, bf = float64(a.F32), float64(b.F32)
	}
	var r float64
	switch op {
	case bytecode.OpAddF32, bytecode.OpAddF64:
		r = af + bf
	case bytecode.OpSubF32, bytecode.OpSubF64:
		r = af - bf
	case bytecode.OpMulF32, bytecode.OpMulF64:
		r = af * bf
	case bytecode.OpDivF32, bytecode.OpDivF64:
		r = af / bf
	}
	if is32 {
		c.push(bytecode.Value{Kind: bytecode.VKFloat32, F32: float32(r)})
	} else {
		c.push(bytecode.Value{Kind: bytecode.VKFloat64, F64: r})
	}
	return nil
}

func (c *Context) bitwiseOp(op bytecode.OpCode) error {
	b, err := c.pop()
	if err != nil {
		return err
	}
	a, err := c.pop()
	if err != nil {
		return err
	}
	switch op {
	case bytecode.OpBitAnd:
		c.push(bytecode.Value{Kind: a.Kind, I: a.I & b.I})
	case bytecode.OpBitOr:
		c.push(bytecode.Value{Kind: a.Kind, I: a.I | b.I})
	case bytecode.OpBitXor:
		c.push(bytecode.Value{Kind: a.Kind, I: a.I ^ b.I})
	case bytecode.OpShl:
		c.push(bytecode.Value{Kind: a.Kind, I: a.I << uint(b.I)})
	case bytecode.OpShrArith:
		c.push(bytecode.Value{Kind: a.Kind, I: a.I >> uint(b.I)})
	case bytecode.OpShrLogicalU:
		c.push(bytecode.Value{Kind: bytecode.VKUint64, U: a.U >> uint(b.I)})
	}
	return nil
}

func (c *Context) compareOp(op bytecode.OpCode) error {
	b, err := c.pop()
	if err != nil {
		return err
	}
	a, err := c.pop()
	if err != nil {
		return err
	}
	var result bool
	switch op {
	case bytecode.OpCmpEqI32:
		result = a.I == b.I
	case bytecode.OpCmpNeqI32:
		result = a.I != b.I
	case bytecode.OpCmpLtI32:
		result = a.I < b.I
	case bytecode.OpCmpLtU32:
		result = a.U < b.U
	case bytecode.OpCmpLteI32:
		result = a.I <= b.I
	case bytecode.OpCmpGtI32:
		result = a.I > b.I
	case bytecode.OpCmpGtU32:
		result = a.U > b.U
	case bytecode.OpCmpGteI32:
		result = a.I >= b.I
	case bytecode.OpCmpEqF64:
		result = a.F64 == b.F64
	case bytecode.OpCmpLtF64:
		result = a.F64 < b.F64
	case bytecode.OpCmpGtF64:
		result = a.F64 > b.F64
	}
	c.push(bytecode.Value{Kind: bytecode.VKBool, I: boolToInt(result)})
	return nil
}
