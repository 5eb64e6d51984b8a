package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstructionString(t *testing.T) {
	f := &FunctionInfo{Name: "f", Location: 7, Arity: 2, Params: []string{"a", "b"}}
	tests := []struct {
		inst Instruction
		want string
	}{
		{Instruction{Kind: PushParameter, Param: "n", X: Const(IntValue(5))}, "PushParameter n = 5"},
		{Instruction{Kind: Call, Function: f, Argc: 2, Left: "x"}, "x = Call f, 2"},
		{Instruction{Kind: Call, Function: f, Argc: 2}, "Call f, 2"},
		{Instruction{Kind: Return}, "Return"},
		{Instruction{Kind: Return, X: Name("r")}, "Return r"},
		{Instruction{Kind: Simple, Left: "y", Op: OpAdd, X: Name("a"), Y: Const(IntValue(1))}, "y = a + 1"},
		{Instruction{Kind: Simple, Left: "s", Op: OpCopy, X: Const(StrValue("hi"))}, `s = "hi"`},
		{Instruction{Kind: Simple, Left: "n", Op: OpLen, X: Name("xs")}, "n = len(xs)"},
		{Instruction{Kind: Simple, Left: "v", Op: OpIndex, X: Name("xs"), Y: Const(IntValue(0))}, "v = xs[0]"},
		{Instruction{Kind: Goto, Target: 3}, "Goto 3"},
		{Instruction{Kind: IfNotGoto, X: Expr(OpLt, Name("i"), Const(IntValue(3))), Target: 9}, "IfNot (i < 3) Goto 9"},
		{Instruction{Kind: SetIndex, Left: "d", X: Const(StrValue("k")), Y: Name("v")}, `d["k"] = v`},
		{Instruction{Kind: Print, X: Name("x")}, "Print x"},
		{Instruction{Kind: Halt}, "End"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.inst.String())
	}
}

func TestJump(t *testing.T) {
	f := &FunctionInfo{Name: "f", Location: 7}
	tests := []struct {
		inst   Instruction
		target int
		ok     bool
	}{
		{Instruction{Kind: Call, Function: f}, 7, true},
		{Instruction{Kind: Call}, 0, false},
		{Instruction{Kind: Goto, Target: 3}, 3, true},
		{Instruction{Kind: IfNotGoto, Target: 0}, 0, true},
		{Instruction{Kind: Return}, 0, false},
		{Instruction{Kind: PushParameter, Param: "n"}, 0, false},
		{Instruction{Kind: Simple, Left: "x"}, 0, false},
	}
	for _, tt := range tests {
		target, ok := tt.inst.Jump()
		assert.Equal(t, tt.ok, ok, "%s", tt.inst.Kind)
		assert.Equal(t, tt.target, target, "%s", tt.inst.Kind)
	}
}

type mapScope map[string]Value

func (m mapScope) Lookup(name string) (Value, bool) {
	v, ok := m[name]
	return v, ok
}

func TestOperandGet(t *testing.T) {
	s := mapScope{"x": IntValue(4), "xs": ArrayValue{IntValue(1), IntValue(2)}}

	v, err := Expr(OpMul, Name("x"), Expr(OpAdd, Const(IntValue(1)), Const(IntValue(2)))).Get(s)
	assert.NoError(t, err)
	assert.Equal(t, IntValue(12), v)

	v, err = Expr(OpLen, Name("xs"), Operand{}).Get(s)
	assert.NoError(t, err)
	assert.Equal(t, IntValue(2), v)

	_, err = Name("nope").Get(s)
	assert.ErrorIs(t, err, ErrUnboundName)

	_, err = Operand{}.Get(s)
	assert.ErrorIs(t, err, ErrLoweringContract)

	// Constants are cloned so callers can't alias program data.
	c := Const(ArrayValue{IntValue(1)})
	v, err = c.Get(s)
	assert.NoError(t, err)
	v.(ArrayValue)[0] = IntValue(9)
	assert.Equal(t, ArrayValue{IntValue(1)}, c.Const)
}
