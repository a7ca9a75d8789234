package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders fn's instruction stream in a human-readable form,
// one instruction per line: address, mnemonic, operands, and — for
// LOAD_CONST — the literal constant value. Grounded on the teacher's
// disasm.go (spec §12 supplemented feature; the distilled spec omits a
// disassembler, but every realistic embeddable VM ships one for
// debugging compiled scripts).
func Disassemble(m *BytecodeModule, fn *FunctionObject) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "function %s (locals=%d)\n", fn.Name, fn.Locals)
	for i, ins := range fn.Code {
		fmt.Fprintf(&sb, "%4d  %-14s", i, ins.Op)
		switch ins.Op {
		case OpLoadConst:
			fmt.Fprintf(&sb, " %d", ins.A)
			if int(ins.A) < len(m.Constants) {
				fmt.Fprintf(&sb, "  ; %s", formatConst(m.Constants[ins.A]))
			}
		case OpJump, OpJumpIfFalse, OpJumpIfTrue:
			fmt.Fprintf(&sb, " -> %d", ins.A)
		case OpLoadLocal, OpStoreLocal:
			fmt.Fprintf(&sb, " slot=%d", ins.A)
		case OpLoadGlobal, OpStoreGlobal:
			fmt.Fprintf(&sb, " global=%d", ins.A)
		case OpCall, OpCallSys, OpCallVirt:
			fmt.Fprintf(&sb, " fn=%d argc=%d", ins.A, ins.B)
		case OpNewObject:
			fmt.Fprintf(&sb, " type=%d argc=%d", ins.A, ins.B)
		case OpLoadField, OpStoreField:
			fmt.Fprintf(&sb, " field=%d", ins.A)
		case OpEndInitList:
			fmt.Fprintf(&sb, " count=%d", ins.A)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatConst(v Value) string {
	switch v.Kind {
	case VKBool:
		return fmt.Sprintf("%v", v.I != 0)
	case VKInt64:
		return fmt.Sprintf("%d", v.I)
	case VKUint64:
		return fmt.Sprintf("%d", v.U)
	case VKFloat32:
		return fmt.Sprintf("%g", v.F32)
	case VKFloat64:
		return fmt.Sprintf("%g", v.F64)
	case VKString:
		return fmt.Sprintf("%q", v.Str)
	case VKHandle:
		return "null"
	default:
		return "void"
	}
}

// DisassembleModule renders every function in m, in declaration order.
func DisassembleModule(m *BytecodeModule) string {
	var sb strings.Builder
	for i, fn := range m.Functions {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(Disassemble(m, fn))
	}
	return sb.String()
}
