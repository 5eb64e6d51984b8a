package vm

import "fmt"

type wireTag uint8

const (
	wireNone wireTag = iota
	wireBool
	wireInt
	wireFloat
	wireStr
	wireArray
	wireStruct
)

// WireValue is the serializable form of a Value.
type WireValue struct {
	Tag    wireTag
	Bool   bool
	Int    int64
	Float  float64
	Str    string
	List   []WireValue
	Fields []WireField // sorted by key so encodings are stable
}

type WireField struct {
	Key   string
	Value WireValue
}

func ToWire(v Value) WireValue {
	switch val := v.(type) {
	case BoolValue:
		return WireValue{Tag: wireBool, Bool: bool(val)}
	case IntValue:
		return WireValue{Tag: wireInt, Int: int64(val)}
	case FloatValue:
		return WireValue{Tag: wireFloat, Float: float64(val)}
	case StrValue:
		return WireValue{Tag: wireStr, Str: string(val)}
	case ArrayValue:
		list := make([]WireValue, len(val))
		for i, x := range val {
			list[i] = ToWire(x)
		}
		return WireValue{Tag: wireArray, List: list}
	case StructValue:
		fields := make([]WireField, 0, len(val))
		for _, k := range val.Keys() {
			fields = append(fields, WireField{Key: k, Value: ToWire(val[k])})
		}
		return WireValue{Tag: wireStruct, Fields: fields}
	}
	return WireValue{Tag: wireNone}
}

func FromWire(w WireValue) (Value, error) {
	switch w.Tag {
	case wireNone:
		return None, nil
	case wireBool:
		return BoolValue(w.Bool), nil
	case wireInt:
		return IntValue(w.Int), nil
	case wireFloat:
		return FloatValue(w.Float), nil
	case wireStr:
		return StrValue(w.Str), nil
	case wireArray:
		out := make(ArrayValue, len(w.List))
		for i, x := range w.List {
			v, err := FromWire(x)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case wireStruct:
		out := make(StructValue, len(w.Fields))
		for _, f := range w.Fields {
			v, err := FromWire(f.Value)
			if err != nil {
				return nil, err
			}
			out[f.Key] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown wire tag %d", w.Tag)
}
