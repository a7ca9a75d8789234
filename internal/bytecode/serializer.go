package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cwbudde/go-angelscript/internal/registry"
)

// magic/version identify a serialized module so Deserialize can refuse
// a file produced by an incompatible build rather than misreading it
// as valid bytecode (spec §12 supplemented feature, grounded on the
// teacher's serializer.go framing).
const (
	magic         = uint32(0x41534243) // "ASBC"
	formatVersion = uint32(1)
)

// Serialize encodes m into a byte stream: a small header, the constant
// pool, then each function's instruction stream. The module's
// PropertyNames and Catches tables and each function's LineTable are
// not written, so they are empty after a round trip. The Registry is not serialized — a deserialized module is only
// meaningful when reloaded against the Registry that compiled it,
// since FunctionId/TypeId values are only valid within that registry's
// lifetime (spec §3.1).
func Serialize(m *BytecodeModule) ([]byte, error) {
	var buf bytes.Buffer
	w := func(v interface{}) error { return binary.Write(&buf, binary.LittleEndian, v) }

	if err := w(magic); err != nil {
		return nil, err
	}
	if err := w(formatVersion); err != nil {
		return nil, err
	}

	if err := w(uint32(len(m.Constants))); err != nil {
		return nil, err
	}
	for _, c := range m.Constants {
		if err := writeConst(&buf, c); err != nil {
			return nil, err
		}
	}

	if err := w(uint32(len(m.Functions))); err != nil {
		return nil, err
	}
	for _, fn := range m.Functions {
		if err := writeFunction(&buf, fn); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeConst(buf *bytes.Buffer, v Value) error {
	if err := binary.Write(buf, binary.LittleEndian, v.Kind); err != nil {
		return err
	}
	switch v.Kind {
	case VKBool, VKInt64:
		return binary.Write(buf, binary.LittleEndian, v.I)
	case VKUint64:
		return binary.Write(buf, binary.LittleEndian, v.U)
	case VKFloat32:
		return binary.Write(buf, binary.LittleEndian, v.F32)
	case VKFloat64:
		return binary.Write(buf, binary.LittleEndian, v.F64)
	case VKString:
		return writeString(buf, v.Str)
	default:
		return nil
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := buf.WriteString(s)
	return err
}

func writeFunction(buf *bytes.Buffer, fn *FunctionObject) error {
	if err := writeString(buf, fn.Name); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(fn.ID)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(fn.Locals)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(fn.Code))); err != nil {
		return err
	}
	for _, ins := range fn.Code {
		if err := binary.Write(buf, binary.LittleEndian, ins); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize decodes a byte stream produced by Serialize back into a
// BytecodeModule, bound to reg for any later FunctionId lookups.
func Deserialize(data []byte, reg *registry.Registry) (*BytecodeModule, error) {
	r := bytes.NewReader(data)
	read := func(v interface{}) error { return binary.Read(r, binary.LittleEndian, v) }

	var gotMagic, gotVersion uint32
	if err := read(&gotMagic); err != nil {
		return nil, err
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("not an AngelScript bytecode module (bad magic %#x)", gotMagic)
	}
	if err := read(&gotVersion); err != nil {
		return nil, err
	}
	if gotVersion != formatVersion {
		return nil, fmt.Errorf("unsupported bytecode format version %d (expected %d)", gotVersion, formatVersion)
	}

	m := NewModule(reg)

	var constCount uint32
	if err := read(&constCount); err != nil {
		return nil, err
	}
	for i := uint32(0); i < constCount; i++ {
		v, err := readConst(r)
		if err != nil {
			return nil, err
		}
		m.Constants = append(m.Constants, v)
	}

	var fnCount uint32
	if err := read(&fnCount); err != nil {
		return nil, err
	}
	for i := uint32(0); i < fnCount; i++ {
		fn, err := readFunction(r)
		if err != nil {
			return nil, err
		}
		m.AddFunction(fn)
	}
	return m, nil
}

func readConst(r *bytes.Reader) (Value, error) {
	var v Value
	if err := binary.Read(r, binary.LittleEndian, &v.Kind); err != nil {
		return v, err
	}
	switch v.Kind {
	case VKBool, VKInt64:
		return v, binary.Read(r, binary.LittleEndian, &v.I)
	case VKUint64:
		return v, binary.Read(r, binary.LittleEndian, &v.U)
	case VKFloat32:
		return v, binary.Read(r, binary.LittleEndian, &v.F32)
	case VKFloat64:
		return v, binary.Read(r, binary.LittleEndian, &v.F64)
	case VKString:
		s, err := readString(r)
		v.Str = s
		return v, err
	default:
		return v, nil
	}
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", err
	}
	return string(b), nil
}

func readFunction(r *bytes.Reader) (*FunctionObject, error) {
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	var id, locals, codeLen uint32
	if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &locals); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &codeLen); err != nil {
		return nil, err
	}
	fn := &FunctionObject{Name: name, ID: registry.FunctionId(id), Locals: int(locals)}
	for i := uint32(0); i < codeLen; i++ {
		var ins Instruction
		if err := binary.Read(r, binary.LittleEndian, &ins); err != nil {
			return nil, err
		}
		fn.Code = append(fn.Code, ins)
	}
	return fn, nil
}
