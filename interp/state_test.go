package interp

import (
	"bytes"
	"testing"

	"github.com/FoxTes/hydrascript/vm"
	"github.com/stretchr/testify/require"
)

func TestSnapshotMidCall(t *testing.T) {
	prog := compile(t, fibCode)
	m := New(prog)
	for len(m.Frames) < 4 {
		require.NoError(t, m.Step())
	}

	var buf bytes.Buffer
	require.NoError(t, m.Snapshot().Serialize(&buf))
	encoded := bytes.Clone(buf.Bytes())
	snap := &Snapshot{}
	require.NoError(t, snap.Deserialize(&buf))
	var again bytes.Buffer
	require.NoError(t, snap.Serialize(&again))
	require.Equal(t, encoded, again.Bytes())

	restored, err := Restore(prog, snap)
	require.NoError(t, err)
	require.Equal(t, m.PC, restored.PC)
	require.Equal(t, len(m.Frames), len(restored.Frames))
	require.Equal(t, m.Backtrace(), restored.Backtrace())

	require.NoError(t, m.Run())
	require.NoError(t, restored.Run())
	require.Equal(t, m.Globals(), restored.Globals())
	require.Equal(t, m.Steps(), restored.Steps())
}

func TestSnapshotEncodingIsStable(t *testing.T) {
	code := `
d = {"b": 2, "a": 1, "c": [1, 2.5, "x", None, True]}
x = 3
`
	a := New(compile(t, code))
	require.NoError(t, a.Run())
	b := New(compile(t, code))
	require.NoError(t, b.Run())

	var bufA, bufB bytes.Buffer
	require.NoError(t, a.Fingerprint().Serialize(&bufA))
	require.NoError(t, b.Fingerprint().Serialize(&bufB))
	require.Equal(t, bufA.Bytes(), bufB.Bytes())
}

func TestRestoreRejectsFault(t *testing.T) {
	prog := compile(t, "y = missing\n")
	m := New(prog)
	require.Error(t, m.Run())
	_, err := Restore(prog, m.Snapshot())
	require.Error(t, err)
}

func TestRestoreUnknownFunction(t *testing.T) {
	m := New(compile(t, fibCode))
	for len(m.Frames) < 1 {
		require.NoError(t, m.Step())
	}
	other := compile(t, "def g():\n\treturn 1\n")
	_, err := Restore(other, m.Snapshot())
	require.ErrorContains(t, err, "fib")
}

func TestRestoreWithPendingArguments(t *testing.T) {
	b := vm.NewBuilder()
	f, err := b.Declare("f", []string{"a", "b"})
	require.NoError(t, err)
	b.PushParameter("a", vm.Const(vm.StrValue("x")))
	b.PushParameter("b", vm.Const(vm.FloatValue(1.5)))
	b.Call(f, 2, "r")
	b.Halt()
	b.BeginFunction(f)
	b.Return(vm.Name("a"))
	prog, err := b.Build()
	require.NoError(t, err)

	m := New(prog)
	require.NoError(t, m.Step())
	require.NoError(t, m.Step())
	restored, err := Restore(prog, m.Snapshot())
	require.NoError(t, err)
	require.Equal(t, m.Arguments, restored.Arguments)
	require.NoError(t, restored.Run())
	require.Equal(t, vm.StrValue("x"), restored.Globals()["r"])
}

func TestRestoreRejectsDeadFrames(t *testing.T) {
	prog := compile(t, fibCode)
	m := New(prog)
	for len(m.Frames) < 2 {
		require.NoError(t, m.Step())
	}

	snap := m.Snapshot()
	snap.Active[0] = 7
	_, err := Restore(prog, snap)
	require.ErrorIs(t, err, vm.ErrStackUnderflow)

	snap = m.Snapshot()
	snap.Active[1] = snap.Root
	_, err = Restore(prog, snap)
	require.ErrorIs(t, err, vm.ErrStackUnderflow)

	snap = m.Snapshot()
	snap.Frames[1].Enclosing = 5
	_, err = Restore(prog, snap)
	require.ErrorIs(t, err, vm.ErrStackUnderflow)

	_, err = Restore(prog, m.Snapshot())
	require.NoError(t, err)
}
