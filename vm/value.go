package vm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Value interface {
	isValue()
	AsBool() bool
	Clone() Value
	// Cmp orders two values. ok is false when they are not comparable.
	Cmp(Value) (c int, ok bool)
	String() string
}

type NoneValue struct{}

var None = NoneValue{}

func (NoneValue) isValue()       {}
func (NoneValue) AsBool() bool   { return false }
func (NoneValue) Clone() Value   { return None }
func (NoneValue) String() string { return "None" }

func (NoneValue) Cmp(other Value) (int, bool) {
	if _, ok := other.(NoneValue); ok {
		return 0, true
	}
	return 0, false
}

type BoolValue bool

var (
	BoolTrue  = BoolValue(true)
	BoolFalse = BoolValue(false)
)

func (BoolValue) isValue()       {}
func (b BoolValue) AsBool() bool { return bool(b) }
func (b BoolValue) Clone() Value { return b }

func (b BoolValue) String() string {
	if b {
		return "True"
	}
	return "False"
}

func (b BoolValue) Cmp(other Value) (int, bool) {
	o, ok := other.(BoolValue)
	if !ok {
		return 0, false
	}
	switch {
	case b == o:
		return 0, true
	case !bool(b):
		return -1, true
	default:
		return 1, true
	}
}

type IntValue int

func (IntValue) isValue()         {}
func (i IntValue) AsBool() bool   { return i != 0 }
func (i IntValue) Clone() Value   { return i }
func (i IntValue) String() string { return strconv.Itoa(int(i)) }

func (i IntValue) Cmp(other Value) (int, bool) {
	switch o := other.(type) {
	case IntValue:
		return cmpOrdered(int(i), int(o)), true
	case FloatValue:
		return cmpOrdered(float64(i), float64(o)), true
	}
	return 0, false
}

type FloatValue float64

func (FloatValue) isValue()         {}
func (f FloatValue) AsBool() bool   { return f != 0 }
func (f FloatValue) Clone() Value   { return f }
func (f FloatValue) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

func (f FloatValue) Cmp(other Value) (int, bool) {
	switch o := other.(type) {
	case FloatValue:
		return cmpOrdered(float64(f), float64(o)), true
	case IntValue:
		return cmpOrdered(float64(f), float64(o)), true
	}
	return 0, false
}

type StrValue string

func (StrValue) isValue()         {}
func (s StrValue) AsBool() bool   { return s != "" }
func (s StrValue) Clone() Value   { return s }
func (s StrValue) String() string { return strconv.Quote(string(s)) }

func (s StrValue) Cmp(other Value) (int, bool) {
	o, ok := other.(StrValue)
	if !ok {
		return 0, false
	}
	return strings.Compare(string(s), string(o)), true
}

type ArrayValue []Value

func (ArrayValue) isValue()       {}
func (a ArrayValue) AsBool() bool { return len(a) != 0 }

func (a ArrayValue) Clone() Value {
	out := make(ArrayValue, len(a))
	for i, v := range a {
		out[i] = v.Clone()
	}
	return out
}

func (a ArrayValue) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Cmp compares arrays lexicographically.
func (a ArrayValue) Cmp(other Value) (int, bool) {
	o, ok := other.(ArrayValue)
	if !ok {
		return 0, false
	}
	for i := 0; i < len(a) && i < len(o); i++ {
		c, ok := a[i].Cmp(o[i])
		if !ok {
			return 0, false
		}
		if c != 0 {
			return c, true
		}
	}
	return cmpOrdered(len(a), len(o)), true
}

type StructValue map[string]Value

func (StructValue) isValue()       {}
func (s StructValue) AsBool() bool { return len(s) != 0 }

func (s StructValue) Clone() Value {
	out := make(StructValue, len(s))
	for k, v := range s {
		out[k] = v.Clone()
	}
	return out
}

func (s StructValue) String() string {
	keys := s.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%q: %s", k, s[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Cmp only reports equality; structs have no ordering.
func (s StructValue) Cmp(other Value) (int, bool) {
	o, ok := other.(StructValue)
	if !ok || len(s) != len(o) {
		return 0, false
	}
	for k, v := range s {
		ov, ok := o[k]
		if !ok {
			return 0, false
		}
		if c, ok := v.Cmp(ov); !ok || c != 0 {
			return 0, false
		}
	}
	return 0, true
}

// Keys returns the struct's keys in sorted order.
func (s StructValue) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether a and b compare equal. Incomparable values are unequal.
func Equal(a, b Value) bool {
	c, ok := a.Cmp(b)
	return ok && c == 0
}

func cmpOrdered[T int | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// TypeName returns the user-facing type name of a value.
func TypeName(v Value) string {
	switch v.(type) {
	case ArrayValue:
		return "list"
	case StructValue:
		return "dict"
	case IntValue:
		return "int"
	case FloatValue:
		return "float"
	case StrValue:
		return "string"
	case BoolValue:
		return "bool"
	case NoneValue:
		return "none"
	default:
		return "unknown"
	}
}
