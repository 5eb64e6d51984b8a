package interp

import (
	"errors"
	"testing"

	"github.com/FoxTes/hydrascript/vm"
	"github.com/stretchr/testify/require"
)

// buildDouble lays out a caller followed by padding so that f starts at 5.
func buildDouble(t *testing.T, left string) *vm.Program {
	b := vm.NewBuilder()
	f, err := b.Declare("f", []string{"n"})
	require.NoError(t, err)
	b.PushParameter("n", vm.Const(vm.IntValue(5)))
	b.Call(f, 1, left)
	b.Halt()
	b.Halt()
	b.Halt()
	b.BeginFunction(f)
	b.Return(vm.Expr(vm.OpMul, vm.Name("n"), vm.Const(vm.IntValue(2))))
	prog, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, 5, f.Location)
	return prog
}

func TestPushParameterFallsThrough(t *testing.T) {
	prog := buildDouble(t, "r")
	m := New(prog)
	require.NoError(t, m.Step())
	require.Equal(t, 1, m.PC)
	require.Len(t, m.Arguments, 1)
	require.Equal(t, Arg{Name: "n", Value: vm.IntValue(5)}, m.Arguments[0])
	require.Empty(t, m.Frames)
}

func TestCallEntersFunction(t *testing.T) {
	prog := buildDouble(t, "r")
	m := New(prog)
	require.NoError(t, m.Step())
	frames, calls := len(m.Frames), len(m.CallStack)

	require.NoError(t, m.Step())
	require.Equal(t, 5, m.PC)
	require.Len(t, m.Frames, frames+1)
	require.Len(t, m.CallStack, calls+1)
	require.Empty(t, m.Arguments)

	top := m.Top()
	require.Equal(t, map[string]vm.Value{"n": vm.IntValue(5)}, top.Variables)
	require.Equal(t, 2, top.Number)
	require.Equal(t, m.Root, top.Enclosing)

	rec := m.CallStack[len(m.CallStack)-1]
	require.Equal(t, "r", rec.Left)
	require.Equal(t, 1, rec.Number)
	require.Equal(t, "f", rec.Function.Name)
	require.Equal(t, []Arg{{Name: "n", Value: vm.IntValue(5)}}, rec.Args)
}

func TestCallBindsEveryArgument(t *testing.T) {
	b := vm.NewBuilder()
	g, err := b.Declare("g", []string{"a", "b"})
	require.NoError(t, err)
	b.PushParameter("a", vm.Const(vm.IntValue(1)))
	b.PushParameter("b", vm.Const(vm.IntValue(2)))
	b.Call(g, 2, "")
	b.Halt()
	b.BeginFunction(g)
	b.Return(vm.Operand{})
	prog, err := b.Build()
	require.NoError(t, err)

	m := New(prog)
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Step())
	}
	require.Empty(t, m.Arguments)
	require.Equal(t, map[string]vm.Value{
		"a": vm.IntValue(1),
		"b": vm.IntValue(2),
	}, m.Top().Variables)
}

func TestArgumentOrderIsIrrelevant(t *testing.T) {
	b := vm.NewBuilder()
	g, err := b.Declare("g", []string{"a", "b"})
	require.NoError(t, err)
	b.PushParameter("b", vm.Const(vm.IntValue(2)))
	b.PushParameter("a", vm.Const(vm.IntValue(1)))
	b.Call(g, 2, "d")
	b.Halt()
	b.BeginFunction(g)
	b.Return(vm.Expr(vm.OpSub, vm.Name("a"), vm.Name("b")))
	prog, err := b.Build()
	require.NoError(t, err)

	m := New(prog)
	require.NoError(t, m.Run())
	require.Equal(t, vm.IntValue(-1), m.Globals()["d"])
}

func TestReturnPropagatesValue(t *testing.T) {
	m := New(buildDouble(t, "r"))
	require.NoError(t, m.Run())
	require.Equal(t, Halted, m.State())
	require.Equal(t, map[string]vm.Value{"r": vm.IntValue(10)}, m.Globals())
	require.Empty(t, m.Frames)
	require.Empty(t, m.CallStack)
	require.Equal(t, 1, m.Arena.Len())
}

func TestReturnWithoutTargetLeavesCaller(t *testing.T) {
	m := New(buildDouble(t, ""))
	require.NoError(t, m.Run())
	require.Empty(t, m.Globals())
}

func TestReturnResumesAfterCall(t *testing.T) {
	m := New(buildDouble(t, "r"))
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Step())
	}
	require.Equal(t, 2, m.PC)
	require.Equal(t, Running, m.State())
}

func rawProgram(f *vm.FunctionInfo, insts ...vm.Instruction) *vm.Program {
	for i := range insts {
		insts[i].Number = i
	}
	return &vm.Program{
		Instructions: insts,
		Functions:    map[string]*vm.FunctionInfo{f.Name: f},
	}
}

func TestCallFaults(t *testing.T) {
	f := &vm.FunctionInfo{Name: "f", Location: 3, Arity: 1, Params: []string{"n"}}
	one := vm.Const(vm.IntValue(1))
	tests := []struct {
		name  string
		start int
		insts []vm.Instruction
	}{
		{
			name: "arity mismatch",
			insts: []vm.Instruction{
				{Kind: vm.PushParameter, Param: "n", X: one},
				{Kind: vm.PushParameter, Param: "m", X: one},
				{Kind: vm.Call, Function: f, Argc: 2},
				{Kind: vm.Return},
			},
		},
		{
			name:  "pending underflow",
			start: 2,
			insts: []vm.Instruction{
				{Kind: vm.Halt},
				{Kind: vm.Halt},
				{Kind: vm.Call, Function: f, Argc: 1},
				{Kind: vm.Return},
			},
		},
		{
			name: "leaked arguments",
			insts: []vm.Instruction{
				{Kind: vm.PushParameter, Param: "n", X: one},
				{Kind: vm.PushParameter, Param: "n", X: one},
				{Kind: vm.Call, Function: f, Argc: 1},
				{Kind: vm.Return},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := rawProgram(f, tt.insts...)
			m := New(prog)
			m.PC = tt.start
			err := m.Run()
			require.Error(t, err)
			require.True(t, errors.Is(err, vm.ErrLoweringContract), "got %v", err)
			var fault *Fault
			require.ErrorAs(t, err, &fault)
			require.Equal(t, 2, fault.Number)
			require.Equal(t, Faulted, m.State())
			require.Empty(t, m.Frames)
			require.Empty(t, m.CallStack)
		})
	}
}

func TestDuplicateStagedArgumentFaults(t *testing.T) {
	f := &vm.FunctionInfo{Name: "g", Location: 3, Arity: 2, Params: []string{"a", "b"}}
	one := vm.Const(vm.IntValue(1))
	prog := rawProgram(f,
		vm.Instruction{Kind: vm.PushParameter, Param: "a", X: one},
		vm.Instruction{Kind: vm.PushParameter, Param: "a", X: one},
		vm.Instruction{Kind: vm.Call, Function: f, Argc: 2},
		vm.Instruction{Kind: vm.Return},
	)
	m := New(prog)
	err := m.Run()
	require.ErrorIs(t, err, vm.ErrLoweringContract)
	require.Len(t, m.Arguments, 2)
}

func TestReturnDesyncFaults(t *testing.T) {
	f := &vm.FunctionInfo{Name: "f", Location: 2, Arity: 0}
	prog := rawProgram(f,
		vm.Instruction{Kind: vm.Call, Function: f},
		vm.Instruction{Kind: vm.Halt},
		vm.Instruction{Kind: vm.Return},
	)
	m := New(prog)
	require.NoError(t, m.Step())
	m.CallStack[0].Number = 7
	err := m.Step()
	require.ErrorIs(t, err, vm.ErrLoweringContract)
	require.Len(t, m.Frames, 1)
	require.Len(t, m.CallStack, 1)
}

func TestReturnWithoutFramesUnderflows(t *testing.T) {
	f := &vm.FunctionInfo{Name: "f", Location: 2, Arity: 0}
	prog := rawProgram(f,
		vm.Instruction{Kind: vm.Call, Function: f},
		vm.Instruction{Kind: vm.Halt},
		vm.Instruction{Kind: vm.Return},
	)
	m := New(prog)
	require.NoError(t, m.Step())
	m.Frames = nil
	err := m.Step()
	require.ErrorIs(t, err, vm.ErrStackUnderflow)
}
