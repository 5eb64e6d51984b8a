package model

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/FoxTes/hydrascript/interp"
	"github.com/FoxTes/hydrascript/vm"
	"github.com/gookit/color"
	"github.com/stretchr/testify/require"
)

func TestFormatFault(t *testing.T) {
	prog, err := vm.CompileLiteral("def f(x):\n    return x + y\n\nz = f(1)\n")
	require.NoError(t, err)
	m := interp.New(prog)
	runErr := m.Run()
	require.Error(t, runErr)
	var fault *interp.Fault
	require.True(t, errors.As(runErr, &fault))

	s := color.ClearCode(FormatFault(fault, prog, m.Backtrace()))
	require.Contains(t, s, "FAULT")
	require.Contains(t, s, "unbound name")
	require.Contains(t, s, "(line 2)")
	require.Contains(t, s, "→ ")
	require.Contains(t, s, "f(x=1) called at")
	require.Contains(t, s, "  f:\n")
}

func TestFormatFaultOutsideProgram(t *testing.T) {
	f := &interp.Fault{Number: 99, Err: vm.ErrEndOfCode}
	s := color.ClearCode(FormatFault(f, &vm.Program{}, nil))
	require.Contains(t, s, "runtime error")
	require.Contains(t, s, "(top level)")
	require.NotContains(t, s, "Code:")
}

func TestFormatGlobals(t *testing.T) {
	s := color.ClearCode(FormatGlobals(map[string]vm.Value{
		"b": vm.StrValue("x"),
		"a": vm.ArrayValue{vm.IntValue(1)},
	}))
	require.Less(t, strings.Index(s, "a = [1]"), strings.Index(s, `b = "x"`))
	require.Contains(t, color.ClearCode(FormatGlobals(nil)), "(none)")
}

func TestFormatStatistics(t *testing.T) {
	s := color.ClearCode(FormatStatistics(&Result{
		State:    interp.Halted,
		Steps:    12,
		MaxDepth: 2,
		Value:    vm.IntValue(3),
	}))
	require.Contains(t, s, "Final state: Halted")
	require.Contains(t, s, "Instructions executed: 12")
	require.Contains(t, s, "Result: 3")
	require.NotContains(t, s, "Loop states")
}

func TestWriteDisassembly(t *testing.T) {
	prog, err := vm.CompileLiteral("def g():\n    return 1\n\nx = g()\n")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteDisassembly(&buf, "prog", prog))
	lines := strings.Split(strings.TrimRight(color.ClearCode(buf.String()), "\n"), "\n")
	require.Contains(t, lines[0], "prog")
	for _, l := range lines[1:] {
		require.True(t, strings.HasPrefix(l, "  "), "line %q is not indented", l)
	}
	require.Contains(t, buf.String(), "x = Call g, 0")
}
