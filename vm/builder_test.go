package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderResolvesLabels(t *testing.T) {
	b := NewBuilder()
	top := b.NewLabel()
	end := b.NewLabel()
	b.Copy("i", Const(IntValue(0)))
	b.MarkLabel(top)
	b.IfNotGoto(Expr(OpLt, Name("i"), Const(IntValue(3))), end)
	b.Assign("i", OpAdd, Name("i"), Const(IntValue(1)))
	b.Goto(top)
	b.MarkLabel(end)
	b.Halt()
	p, err := b.Build()
	require.NoError(t, err)

	require.Equal(t, 4, p.Instructions[1].Target)
	require.Equal(t, 1, p.Instructions[3].Target)
	for _, inst := range p.Instructions {
		require.Empty(t, inst.Label)
	}
}

func TestBuilderNumbersInstructions(t *testing.T) {
	b := NewBuilder()
	b.SetLine(4)
	b.Copy("a", Const(IntValue(1)))
	b.SetLine(5)
	b.Print(Name("a"))
	p, err := b.Build()
	require.NoError(t, err)
	for i, inst := range p.Instructions {
		require.Equal(t, i, inst.Number)
	}
	require.Equal(t, 4, p.Instructions[0].Line)
	require.Equal(t, 5, p.Instructions[1].Line)
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder()
	b.Goto(b.NewLabel())
	_, err := b.Build()
	require.ErrorContains(t, err, "unresolved label")

	b = NewBuilder()
	_, err = b.Declare("f", nil)
	require.NoError(t, err)
	_, err = b.Declare("f", nil)
	require.ErrorContains(t, err, "declared twice")
	b.Halt()
	_, err = b.Build()
	require.ErrorContains(t, err, "without a body")
}

func TestTemps(t *testing.T) {
	b := NewBuilder()
	a, c := b.NewTemp(), b.NewTemp()
	require.NotEqual(t, a, c)
	require.True(t, IsTemp(a))
	require.False(t, IsTemp("a"))
}

func TestVerify(t *testing.T) {
	f := &FunctionInfo{Name: "f", Location: 1, Arity: 1, Params: []string{"n"}}
	tests := []struct {
		name string
		prog *Program
	}{
		{
			name: "argc differs from arity",
			prog: &Program{
				Instructions: []Instruction{
					{Number: 0, Kind: Call, Function: f, Argc: 2},
					{Number: 1, Kind: Return},
				},
				Functions: map[string]*FunctionInfo{"f": f},
			},
		},
		{
			name: "entry outside program",
			prog: &Program{
				Instructions: []Instruction{{Number: 0, Kind: Halt}},
				Functions:    map[string]*FunctionInfo{"f": f},
			},
		},
		{
			name: "call to unregistered function",
			prog: &Program{
				Instructions: []Instruction{
					{Number: 0, Kind: Call, Function: &FunctionInfo{Name: "g", Location: 1}},
					{Number: 1, Kind: Return},
				},
			},
		},
		{
			name: "jump outside program",
			prog: &Program{
				Instructions: []Instruction{{Number: 0, Kind: Goto, Target: 5}},
			},
		},
		{
			name: "misnumbered",
			prog: &Program{
				Instructions: []Instruction{{Number: 3, Kind: Halt}},
			},
		},
		{
			name: "unknown kind",
			prog: &Program{
				Instructions: []Instruction{{Number: 0, Kind: KindMax}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.prog.Verify(), ErrLoweringContract)
		})
	}

	ok := &Program{
		Instructions: []Instruction{
			{Number: 0, Kind: PushParameter, Param: "n", X: Const(IntValue(1))},
			{Number: 1, Kind: Call, Function: f, Argc: 1},
		},
		Functions: map[string]*FunctionInfo{"f": f},
	}
	require.NoError(t, ok.Verify())
}
