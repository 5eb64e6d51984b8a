package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWireValues(t *testing.T) {
	values := []Value{
		None,
		BoolValue(true),
		IntValue(-3),
		FloatValue(2.25),
		StrValue("hi"),
		ArrayValue{IntValue(1), ArrayValue{}, None},
		StructValue{"b": IntValue(2), "a": StructValue{"x": StrValue("y")}},
	}
	for _, v := range values {
		got, err := FromWire(ToWire(v))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestWireFieldsSorted(t *testing.T) {
	w := ToWire(StructValue{"c": None, "a": None, "b": None})
	keys := make([]string, len(w.Fields))
	for i, f := range w.Fields {
		keys[i] = f.Key
	}
	require.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestWireUnknownTag(t *testing.T) {
	_, err := FromWire(WireValue{Tag: 99})
	require.Error(t, err)
}
