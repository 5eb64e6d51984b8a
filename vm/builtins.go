package vm

import (
	"fmt"
)

// Intrinsic describes a builtin call that lowers to a single operator
// instead of a Call instruction.
type Intrinsic struct {
	Op      Operator
	MinArgs int
	MaxArgs int
}

// Intrinsics maps builtin function names to the operators implementing them.
var Intrinsics = map[string]Intrinsic{
	"len":   {Op: OpLen, MinArgs: 1, MaxArgs: 1},
	"range": {Op: OpRange, MinArgs: 1, MaxArgs: 2},
	"str":   {Op: OpStr, MinArgs: 1, MaxArgs: 1},
}

// builtinRange implements the Python-like range() over [start, stop).
func builtinRange(startVal, stopVal Value) (Value, error) {
	start, ok := startVal.(IntValue)
	if !ok {
		return nil, fmt.Errorf("%w: range() start must be an integer, got %s", ErrType, TypeName(startVal))
	}
	stop, ok := stopVal.(IntValue)
	if !ok {
		return nil, fmt.Errorf("%w: range() stop must be an integer, got %s", ErrType, TypeName(stopVal))
	}
	result := ArrayValue{}
	for i := start; i < stop; i++ {
		result = append(result, i)
	}
	return result, nil
}

// builtinLen returns the length of arrays, strings, or dicts
func builtinLen(v Value) (Value, error) {
	switch val := v.(type) {
	case ArrayValue:
		return IntValue(len(val)), nil
	case StrValue:
		return IntValue(len(val)), nil
	case StructValue:
		return IntValue(len(val)), nil
	default:
		return nil, fmt.Errorf("%w: len() argument must be list, string, or dict, got %s", ErrType, TypeName(v))
	}
}

// builtinAppend returns a new array with the element appended. The receiver
// is never mutated, so values held by other bindings stay intact.
func builtinAppend(receiver, elem Value) (Value, error) {
	arr, ok := receiver.(ArrayValue)
	if !ok {
		return nil, fmt.Errorf("%w: append called on non-list: %s", ErrType, TypeName(receiver))
	}
	out := make(ArrayValue, len(arr), len(arr)+1)
	copy(out, arr)
	return append(out, elem), nil
}

func builtinStr(v Value) Value {
	if s, ok := v.(StrValue); ok {
		return s
	}
	return StrValue(v.String())
}
