package vm

import (
	"fmt"
	"math"
	"strings"
)

// Apply evaluates op over already-evaluated operands. b is ignored for
// unary operators.
func Apply(op Operator, a, b Value) (Value, error) {
	switch op {
	case OpCopy:
		return a, nil
	case OpNot:
		return BoolValue(!a.AsBool()), nil
	case OpNeg:
		switch v := a.(type) {
		case IntValue:
			return -v, nil
		case FloatValue:
			return -v, nil
		}
		return nil, fmt.Errorf("%w: can't negate %s", ErrType, TypeName(a))
	case OpLen:
		return builtinLen(a)
	case OpStr:
		return builtinStr(a), nil
	case OpAdd:
		return add(a, b)
	case OpSub, OpMul, OpDiv, OpFloorDiv, OpMod, OpPow:
		return numericOp(op, a, b)
	case OpEq:
		return BoolValue(Equal(a, b)), nil
	case OpNeq:
		return BoolValue(!Equal(a, b)), nil
	case OpLt, OpLte, OpGt, OpGte:
		return compare(op, a, b)
	case OpAnd:
		if !a.AsBool() {
			return a, nil
		}
		return b, nil
	case OpOr:
		if a.AsBool() {
			return a, nil
		}
		return b, nil
	case OpIn:
		return contains(b, a)
	case OpIndex:
		return GetIndex(a, b)
	case OpAppend:
		return builtinAppend(a, b)
	case OpRange:
		return builtinRange(a, b)
	}
	return nil, fmt.Errorf("unhandled operator %s", op)
}

func add(a, b Value) (Value, error) {
	switch av := a.(type) {
	case IntValue, FloatValue:
		return numericOp(OpAdd, a, b)
	case StrValue:
		if bv, ok := b.(StrValue); ok {
			return av + bv, nil
		}
	case ArrayValue:
		if bv, ok := b.(ArrayValue); ok {
			out := make(ArrayValue, 0, len(av)+len(bv))
			out = append(out, av...)
			return append(out, bv...), nil
		}
	}
	return nil, fmt.Errorf("%w: trying to add two disparate types: %s + %s", ErrType, TypeName(a), TypeName(b))
}

func numericOp(op Operator, a, b Value) (Value, error) {
	if av, ok := a.(FloatValue); ok {
		if bv, ok := b.(FloatValue); ok {
			return floatOp(op, float64(av), float64(bv)), nil
		} else if bv, ok := b.(IntValue); ok {
			return floatOp(op, float64(av), float64(bv)), nil
		}
	}
	if av, ok := a.(IntValue); ok {
		if bv, ok := b.(FloatValue); ok {
			return floatOp(op, float64(av), float64(bv)), nil
		} else if bv, ok := b.(IntValue); ok {
			return intOp(op, int(av), int(bv))
		}
	}
	return nil, fmt.Errorf("%w: numeric operation %s between %s and %s", ErrType, op, TypeName(a), TypeName(b))
}

func floatOp(op Operator, a, b float64) Value {
	switch op {
	case OpAdd:
		return FloatValue(a + b)
	case OpSub:
		return FloatValue(a - b)
	case OpMul:
		return FloatValue(a * b)
	case OpDiv:
		return FloatValue(a / b)
	case OpMod:
		return FloatValue(math.Mod(a, b))
	case OpFloorDiv:
		return FloatValue(math.Floor(a / b))
	case OpPow:
		return FloatValue(math.Pow(a, b))
	}
	panic("Unhandled floatOp operator")
}

func intOp(op Operator, a, b int) (Value, error) {
	switch op {
	case OpAdd:
		return IntValue(a + b), nil
	case OpSub:
		return IntValue(a - b), nil
	case OpMul:
		return IntValue(a * b), nil
	case OpDiv:
		if b == 0 {
			return nil, ErrDivisionByZero
		}
		return FloatValue(float64(a) / float64(b)), nil
	case OpFloorDiv:
		if b == 0 {
			return nil, ErrDivisionByZero
		}
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return IntValue(q), nil
	case OpMod:
		if b == 0 {
			return nil, ErrDivisionByZero
		}
		m := a % b
		if m != 0 && ((m < 0) != (b < 0)) {
			m += b
		}
		return IntValue(m), nil
	case OpPow:
		if b < 0 {
			return FloatValue(math.Pow(float64(a), float64(b))), nil
		}
		return IntValue(intPow(a, b)), nil
	}
	panic("Unhandled intOp operator")
}

func intPow(base, exp int) int {
	out := 1
	for exp > 0 {
		if exp&1 == 1 {
			out *= base
		}
		base *= base
		exp >>= 1
	}
	return out
}

func compare(op Operator, a, b Value) (Value, error) {
	c, ok := a.Cmp(b)
	if !ok {
		return nil, fmt.Errorf("%w: can't compare %s to %s", ErrType, TypeName(a), TypeName(b))
	}
	switch op {
	case OpLt:
		return BoolValue(c < 0), nil
	case OpLte:
		return BoolValue(c <= 0), nil
	case OpGt:
		return BoolValue(c > 0), nil
	default:
		return BoolValue(c >= 0), nil
	}
}

func contains(collection, item Value) (Value, error) {
	switch coll := collection.(type) {
	case ArrayValue:
		for _, elem := range coll {
			if Equal(item, elem) {
				return BoolTrue, nil
			}
		}
		return BoolFalse, nil
	case StrValue:
		itemStr, ok := item.(StrValue)
		if !ok {
			return nil, fmt.Errorf("%w: 'in <string>' requires string as left operand, got %s", ErrType, TypeName(item))
		}
		return BoolValue(strings.Contains(string(coll), string(itemStr))), nil
	case StructValue:
		itemStr, ok := item.(StrValue)
		if !ok {
			return nil, fmt.Errorf("%w: dict keys are strings, got %s", ErrType, TypeName(item))
		}
		_, exists := coll[string(itemStr)]
		return BoolValue(exists), nil
	}
	return nil, fmt.Errorf("%w: 'in' unsupported for %s", ErrType, TypeName(collection))
}

// GetIndex reads obj[key] for lists (integer keys, negative from the end),
// strings and dicts.
func GetIndex(obj, key Value) (Value, error) {
	switch o := obj.(type) {
	case StructValue:
		k, ok := key.(StrValue)
		if !ok {
			return nil, fmt.Errorf("%w: dict keys are strings, got %s", ErrType, TypeName(key))
		}
		if val, ok := o[string(k)]; ok {
			return val, nil
		}
		return nil, fmt.Errorf("key %s not found in dict", k)
	case ArrayValue:
		i, err := index(key, len(o))
		if err != nil {
			return nil, err
		}
		return o[i], nil
	case StrValue:
		i, err := index(key, len(o))
		if err != nil {
			return nil, err
		}
		return o[i : i+1], nil
	}
	return nil, fmt.Errorf("%w: can't index %s", ErrType, TypeName(obj))
}

// SetItem returns obj with obj[key] = val. Lists and dicts are copied
// before the write.
func SetItem(obj, key, val Value) (Value, error) {
	switch o := obj.(type) {
	case StructValue:
		k, ok := key.(StrValue)
		if !ok {
			return nil, fmt.Errorf("%w: dict keys are strings, got %s", ErrType, TypeName(key))
		}
		out := make(StructValue, len(o)+1)
		for name, v := range o {
			out[name] = v
		}
		out[string(k)] = val
		return out, nil
	case ArrayValue:
		i, err := index(key, len(o))
		if err != nil {
			return nil, err
		}
		out := make(ArrayValue, len(o))
		copy(out, o)
		out[i] = val
		return out, nil
	}
	return nil, fmt.Errorf("%w: can't assign index on %s", ErrType, TypeName(obj))
}

func index(key Value, n int) (int, error) {
	idx, ok := key.(IntValue)
	if !ok {
		return 0, fmt.Errorf("%w: index must be an integer, got %s", ErrType, TypeName(key))
	}
	i := int(idx)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %d out of bounds for length %d", int(idx), n)
	}
	return i, nil
}
