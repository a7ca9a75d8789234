package bytecode

// Optimize runs a constant-folding peephole pass over every function in
// m: a LOAD_CONST/LOAD_CONST/<binary-op> triple where both operands are
// integer constants collapses to a single LOAD_CONST of the computed
// result (spec §12 supplemented feature, grounded on the teacher's
// optimizer.go constant-folding pass — distilled out of spec.md but a
// natural complement to a from-scratch code generator that never folds
// at emission time).
func Optimize(m *BytecodeModule) {
	for _, fn := range m.Functions {
		fn.Code = foldConstants(m, fn.Code)
	}
}

var foldableI32 = map[OpCode]func(a, b int64) (int64, bool){
	OpAddI32: func(a, b int64) (int64, bool) { return a + b, true },
	OpSubI32: func(a, b int64) (int64, bool) { return a - b, true },
	OpMulI32: func(a, b int64) (int64, bool) { return a * b, true },
	OpDivI32: func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	},
	OpModI32: func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a % b, true
	},
}

func foldConstants(m *BytecodeModule, code []Instruction) []Instruction {
	out := make([]Instruction, 0, len(code))
	i := 0
	for i < len(code) {
		if i+2 < len(code) &&
			code[i].Op == OpLoadConst && code[i+1].Op == OpLoadConst {
			fold, ok := foldableI32[code[i+2].Op]
			if ok {
				ca, okA := intConst(m, code[i].A)
				cb, okB := intConst(m, code[i+1].A)
				if okA && okB {
					if result, folded := fold(ca, cb); folded {
						idx := m.InternConstant(Value{Kind: VKInt64, I: result})
						out = append(out, Instruction{Op: OpLoadConst, A: idx, Line: code[i].Line})
						i += 3
						continue
					}
				}
			}
		}
		out = append(out, code[i])
		i++
	}
	return retarget(code, out)
}

func intConst(m *BytecodeModule, idx int32) (int64, bool) {
	if int(idx) < 0 || int(idx) >= len(m.Constants) {
		return 0, false
	}
	c := m.Constants[idx]
	if c.Kind != VKInt64 {
		return 0, false
	}
	return c.I, true
}

// retarget fixes up jump targets after folding has changed instruction
// addresses. Building an old-index -> new-index map first keeps this a
// single linear pass regardless of how many triples were folded.
func retarget(oldCode, newCode []Instruction) []Instruction {
	if len(oldCode) == len(newCode) {
		return newCode // nothing folded, no addresses moved
	}
	mapping := make([]int32, len(oldCode)+1)
	oldIdx, newIdx := 0, 0
	for oldIdx < len(oldCode) {
		mapping[oldIdx] = int32(newIdx)
		if oldIdx+2 < len(oldCode) &&
			oldCode[oldIdx].Op == OpLoadConst && oldCode[oldIdx+1].Op == OpLoadConst {
			if _, ok := foldableI32[oldCode[oldIdx+2].Op]; ok {
				mapping[oldIdx+1] = int32(newIdx)
				mapping[oldIdx+2] = int32(newIdx)
				oldIdx += 3
				newIdx++
				continue
			}
		}
		oldIdx++
		newIdx++
	}
	mapping[len(oldCode)] = int32(newIdx)

	for i := range newCode {
		switch newCode[i].Op {
		case OpJump, OpJumpIfFalse, OpJumpIfTrue:
			if int(newCode[i].A) >= 0 && int(newCode[i].A) < len(mapping) {
				newCode[i].A = mapping[newCode[i].A]
			}
		}
	}
	return newCode
}
