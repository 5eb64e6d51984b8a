package model

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FoxTes/hydrascript/vm"
	"github.com/stretchr/testify/require"
)

func TestParseSpecInTestdata(t *testing.T) {
	filepath.WalkDir("../testdata", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".toml") {
			return nil
		}
		name := filepath.Base(path)
		t.Run(name, testParseSpec(path))
		return nil
	})
}

func testParseSpec(path string) func(t *testing.T) {
	return func(t *testing.T) {
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		s, err := ParseSpec(f)
		require.NoError(t, err)
		_, err = s.GlobalValues()
		require.NoError(t, err)
		t.Logf("%#v\n", s)
	}
}

func TestLoadSpecDefaultsProgram(t *testing.T) {
	s, err := LoadSpecFromFile("../testdata/fib.toml")
	require.NoError(t, err)
	require.Equal(t, filepath.Clean("../testdata/fib.star"), s.Program.File)
	require.Equal(t, 1000000, s.Run.MaxSteps)
	require.False(t, s.Run.DetectLoops)
}

func TestLoadSpecExplicitProgram(t *testing.T) {
	s, err := LoadSpecFromFile("../testdata/inventory.toml")
	require.NoError(t, err)
	require.Equal(t, filepath.Clean("../testdata/inventory.star"), s.Program.File)

	globals, err := s.GlobalValues()
	require.NoError(t, err)
	require.Equal(t, vm.ArrayValue{vm.StrValue("bolts"), vm.StrValue("nuts")}, globals["keys"])
	require.Equal(t, vm.StructValue{"bolts": vm.IntValue(10), "nuts": vm.IntValue(3)}, globals["stock"])
	require.Equal(t, vm.StructValue{"low": vm.FloatValue(1.5), "enabled": vm.BoolTrue}, globals["limits"])
}

func TestParseSpecRejectsUnknownKeys(t *testing.T) {
	_, err := ParseSpec(strings.NewReader("[run]\nmax_step = 3\n"))
	require.ErrorContains(t, err, "run.max_step")
}

func TestParseSpecNestedGlobals(t *testing.T) {
	s, err := ParseSpec(strings.NewReader(`
[globals]
limits = { low = 1.5, enabled = true }

[globals.stock]
bolts = 10
`))
	require.NoError(t, err)
	globals, err := s.GlobalValues()
	require.NoError(t, err)
	require.Equal(t, vm.StructValue{"low": vm.FloatValue(1.5), "enabled": vm.BoolValue(true)}, globals["limits"])
	require.Equal(t, vm.StructValue{"bolts": vm.IntValue(10)}, globals["stock"])

	_, err = ParseSpec(strings.NewReader("[program]\nfile = \"a.star\"\nentry = \"main\"\n"))
	require.ErrorContains(t, err, "program.entry")
	_, err = ParseSpec(strings.NewReader("[extra]\nx = 1\n[globals.t]\ny = 2\n"))
	require.ErrorContains(t, err, "extra.x")
	require.NotContains(t, err.Error(), "globals")
}

func TestParseSpecArrayOfTables(t *testing.T) {
	s, err := ParseSpec(strings.NewReader(`
[[globals.jobs]]
name = "a"
cost = 1

[[globals.jobs]]
name = "b"
cost = 2
`))
	require.NoError(t, err)
	globals, err := s.GlobalValues()
	require.NoError(t, err)
	require.Equal(t, vm.ArrayValue{
		vm.StructValue{"name": vm.StrValue("a"), "cost": vm.IntValue(1)},
		vm.StructValue{"name": vm.StrValue("b"), "cost": vm.IntValue(2)},
	}, globals["jobs"])
}

func TestLoadSpecMissing(t *testing.T) {
	_, err := LoadSpecFromFile("../testdata/nope.toml")
	require.Error(t, err)
}

func TestOverrideGlobals(t *testing.T) {
	s, err := LoadSpecFromFile("../testdata/fib.toml")
	require.NoError(t, err)
	require.NoError(t, s.Override([]string{"n = 12", `label = "x"`}))
	g, err := s.GlobalValues()
	require.NoError(t, err)
	require.Equal(t, vm.IntValue(12), g["n"])
	require.Equal(t, vm.StrValue("x"), g["label"])

	require.Error(t, s.Override([]string{"n ="}))
}
