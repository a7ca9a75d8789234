package semantic

import (
	"fmt"

	"github.com/cwbudde/go-angelscript/internal/errors"
	"github.com/cwbudde/go-angelscript/internal/registry"
)

// conversionRank is the quality of an argument-to-parameter match, spec
// §9 "Overload resolution as a pure ranking function": lower is
// better. Exact match beats numeric promotion (e.g. int->int64) beats a
// standard conversion (e.g. int->float) beats a user-defined conversion
// (a class opConv/opImplConv behaviour); noMatch means this candidate
// cannot accept the argument at all.
type conversionRank int

const (
	rankExact conversionRank = iota
	rankPromotion
	rankStandardConversion
	rankUserConversion
	rankNoMatch = conversionRank(1 << 30)
)

func rankArgument(from, to registry.TypeId, reg *registry.Registry) conversionRank {
	if from == to {
		return rankExact
	}
	fromTd, toTd := reg.Type(from), reg.Type(to)
	if fromTd == nil || toTd == nil {
		return rankNoMatch
	}
	if fromTd.Kind == registry.KindPrimitive && toTd.Kind == registry.KindPrimitive {
		return rankPrimitive(from, to)
	}
	// Object types: a handle/value of a derived class matches a base-class
	// parameter by reference-widening, which this ranking treats as a
	// promotion (no representation change, just a narrower view).
	if isDerivedFrom(reg, from, to) {
		return rankPromotion
	}
	return rankNoMatch
}

func isDerivedFrom(reg *registry.Registry, derived, base registry.TypeId) bool {
	for cur := derived; cur != registry.TypeVoid; {
		td := reg.Type(cur)
		if td == nil {
			return false
		}
		if cur == base {
			return true
		}
		for _, iface := range td.Interfaces {
			if iface == base {
				return true
			}
		}
		cur = td.BaseClass
	}
	return false
}

// rankPrimitive ranks a primitive-to-primitive conversion. Widening
// (or same-width) within the integer category or within the floating
// category (e.g. int8->int32, uint8->int32, float->double) is a
// promotion, whatever the signedness of either side;
// crossing between integer and floating categories, or narrowing, is a
// standard conversion. This does not itself reject narrowing
// conversions — spec §4.3 leaves narrowing legal via explicit or
// implicit standard conversion, it is merely ranked worse than a
// widening match so an exact/widening overload wins when one exists.
func rankPrimitive(from, to registry.TypeId) conversionRank {
	fromWidth, fromIsFloat := primitiveShape(from)
	toWidth, toIsFloat := primitiveShape(to)

	if fromIsFloat == toIsFloat {
		if toWidth >= fromWidth {
			return rankPromotion
		}
		return rankStandardConversion
	}
	return rankStandardConversion
}

func primitiveShape(t registry.TypeId) (width int, isFloat bool) {
	switch t {
	case registry.TypeFloat:
		return 32, true
	case registry.TypeDouble:
		return 64, true
	case registry.TypeBool:
		return 1, false
	case registry.TypeInt8, registry.TypeUint8:
		return 8, false
	case registry.TypeInt16, registry.TypeUint16:
		return 16, false
	case registry.TypeInt32, registry.TypeUint32:
		return 32, false
	case registry.TypeInt64, registry.TypeUint64:
		return 64, false
	default:
		return 0, false
	}
}

// resolveOverload ranks every candidate against argTypes and returns
// the unique best match. A candidate that cannot take the supplied
// argument count (too few parameters, or an omitted trailing parameter
// without a default) is skipped before ranking, so an arity mismatch
// surfaces as NoMatchingOverload; NoMatchingOverload and Ambiguous are both raised
// without a span (the caller attaches the call-site span) so this
// function stays free of AST/source dependencies.
func (a *Analyzer) resolveOverload(candidates []registry.FunctionId, argTypes []registry.TypeId) (registry.FunctionId, error) {
	type scored struct {
		id    registry.FunctionId
		total conversionRank
	}
	var viable []scored

	for _, cid := range candidates {
		fn := a.reg.Function(cid)
		if fn == nil || len(argTypes) > len(fn.Params) {
			continue
		}
		// Trailing parameters beyond the supplied arguments must all carry
		// a default (spec §4.4 "default-argument arity matching") for this
		// candidate to be viable at this call-site arity.
		if len(argTypes) < len(fn.Params) {
			missingHaveDefaults := true
			for _, p := range fn.Params[len(argTypes):] {
				if !p.HasDefault {
					missingHaveDefaults = false
					break
				}
			}
			if !missingHaveDefaults {
				continue
			}
		}
		var total conversionRank
		ok := true
		for i, at := range argTypes {
			r := rankArgument(at, fn.Params[i].TypeID, a.reg)
			if r == rankNoMatch {
				ok = false
				break
			}
			total += r
		}
		if ok {
			viable = append(viable, scored{id: cid, total: total})
		}
	}

	if len(viable) == 0 {
		return 0, &errors.CompileError{Kind: errors.NoMatchingOverload,
			Message: fmt.Sprintf("no overload accepts the given %d argument(s)", len(argTypes))}
	}

	best := viable[0]
	ambiguous := false
	for _, v := range viable[1:] {
		switch {
		case v.total < best.total:
			best = v
			ambiguous = false
		case v.total == best.total:
			ambiguous = true
		}
	}
	if ambiguous {
		return 0, &errors.CompileError{Kind: errors.Ambiguous, Message: "call is ambiguous between multiple equally-ranked overloads"}
	}
	return best.id, nil
}
