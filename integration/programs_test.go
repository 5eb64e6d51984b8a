package integration

import (
	"path/filepath"
	"testing"

	"github.com/FoxTes/hydrascript/interp"
	"github.com/FoxTes/hydrascript/vm"
	"github.com/stretchr/testify/require"
)

func runSource(t *testing.T, code string) map[string]vm.Value {
	t.Helper()
	prog, err := vm.CompileLiteral(code)
	if err != nil {
		t.Fatalf("Compilation failed: %v", err)
	}
	m := interp.New(prog)
	if err := m.Run(); err != nil {
		t.Fatalf("Execution failed: %v", err)
	}
	if m.State() != interp.Halted {
		t.Fatalf("Expected Halted, got %s", m.State())
	}
	if len(m.Frames) != 0 || len(m.CallStack) != 0 || len(m.Arguments) != 0 {
		t.Fatalf("Machine finished with live state: %d frames, %d calls, %d pending",
			len(m.Frames), len(m.CallStack), len(m.Arguments))
	}
	return m.Globals()
}

func ints(xs ...int) vm.ArrayValue {
	out := make(vm.ArrayValue, len(xs))
	for i, x := range xs {
		out[i] = vm.IntValue(x)
	}
	return out
}

func TestSmallPrograms(t *testing.T) {
	tests := []struct {
		file     string
		expected map[string]vm.Value
	}{
		{
			file: "arith.star",
			expected: map[string]vm.Value{
				"a": vm.IntValue(7),
				"b": vm.IntValue(2),
				"q": vm.FloatValue(3.5),
				"f": vm.IntValue(3),
				"m": vm.IntValue(1),
				"s": vm.StrValue("x7"),
				"l": vm.IntValue(3),
				"c": vm.BoolValue(true),
			},
		},
		{
			file: "calls.star",
			expected: map[string]vm.Value{
				"r": vm.IntValue(8),
			},
		},
		{
			file: "collections.star",
			expected: map[string]vm.Value{
				"d": vm.StructValue{
					"a": vm.IntValue(1),
					"b": ints(1, 2),
					"c": vm.IntValue(2),
				},
				"xs":      ints(1, 20, 3),
				"has":     vm.BoolValue(true),
				"missing": vm.BoolValue(true),
				"first":   vm.IntValue(1),
				"last":    vm.IntValue(3),
			},
		},
		{
			file: "loops.star",
			expected: map[string]vm.Value{
				"evens": ints(0, 2, 4, 6),
				"i":     vm.IntValue(8),
				"n":     vm.IntValue(5),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			prog, err := vm.CompilePath(filepath.Join("..", "testdata", "small", tt.file))
			require.NoError(t, err)
			m := interp.New(prog)
			require.NoError(t, m.Run())
			require.Equal(t, tt.expected, m.Globals())
		})
	}
}

func TestRecursion(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected vm.Value
	}{
		{
			name: "factorial",
			code: `
def fact(n):
    if n <= 1:
        return 1
    return n * fact(n - 1)

result = fact(10)
`,
			expected: vm.IntValue(3628800),
		},
		{
			name: "mutual recursion",
			code: `
def is_even(n):
    if n == 0:
        return True
    return is_odd(n - 1)

def is_odd(n):
    if n == 0:
        return False
    return is_even(n - 1)

result = is_even(17)
`,
			expected: vm.BoolValue(false),
		},
		{
			name: "accumulator through parameters",
			code: `
def sum_to(n, acc):
    if n == 0:
        return acc
    return sum_to(n - 1, acc + n)

result = sum_to(100, 0)
`,
			expected: vm.IntValue(5050),
		},
		{
			name: "call in argument position",
			code: `
def sq(x):
    return x * x

def hyp(a, b):
    return sq(a) + sq(b)

result = hyp(sq(1) + 2, 4)
`,
			expected: vm.IntValue(25),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := runSource(t, tt.code)
			if !vm.Equal(g["result"], tt.expected) {
				t.Fatalf("Expected result = %s, got %v", tt.expected, g["result"])
			}
		})
	}
}

func TestKeywordArguments(t *testing.T) {
	g := runSource(t, `
def sub(a, b):
    return a - b

x = sub(b=1, a=10)
y = sub(10, b=4)
`)
	require.Equal(t, vm.IntValue(9), g["x"])
	require.Equal(t, vm.IntValue(6), g["y"])
}

func TestLocalsDoNotLeak(t *testing.T) {
	g := runSource(t, `
def f(p):
    local = p + 1
    return local

out = f(1)
`)
	require.Equal(t, map[string]vm.Value{"out": vm.IntValue(2)}, g)
}

func TestCalleeSeesGlobals(t *testing.T) {
	g := runSource(t, `
scale = 3

def f(v):
    return v * scale

out = f(5)
`)
	require.Equal(t, vm.IntValue(15), g["out"])
}

func TestFunctionWithoutReturn(t *testing.T) {
	g := runSource(t, `
def nothing(v):
    if v:
        pass

out = nothing(True)
`)
	require.Equal(t, vm.None, g["out"])
}

func TestModuloFollowsFloorDivision(t *testing.T) {
	g := runSource(t, `
a = -7 % 3
b = 7 % -3
c = -7 // 2
`)
	require.Equal(t, vm.IntValue(2), g["a"])
	require.Equal(t, vm.IntValue(-2), g["b"])
	require.Equal(t, vm.IntValue(-4), g["c"])
}

func TestControlFlowAcrossCalls(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected map[string]vm.Value
	}{
		{
			name: "break inside a function",
			code: `
def first_over(xs, limit):
    found = -1
    for x in xs:
        if x > limit:
            found = x
            break
    return found

r = first_over([1, 5, 9, 12], 6)
`,
			expected: map[string]vm.Value{"r": vm.IntValue(9)},
		},
		{
			name: "return from both branches",
			code: `
def sign(v):
    if v < 0:
        return -1
    else:
        return 1

a = sign(-3)
b = sign(4)
`,
			expected: map[string]vm.Value{"a": vm.IntValue(-1), "b": vm.IntValue(1)},
		},
		{
			name: "call result feeds the same call",
			code: `
def inc(v):
    return v + 1

x = 1
x = inc(inc(x))
`,
			expected: map[string]vm.Value{"x": vm.IntValue(3)},
		},
		{
			name: "short circuit guards division",
			code: `
x = 0
ok = x != 0 and 10 // x > 1
`,
			expected: map[string]vm.Value{"ok": vm.BoolValue(false)},
		},
		{
			name: "call in loop condition",
			code: `
def below(v, n):
    return v < n

i = 0
while below(i, 4):
    i += 1
`,
			expected: map[string]vm.Value{"i": vm.IntValue(4)},
		},
		{
			name: "augmented indexed assignment",
			code: `
a = [1, 2]
a[1] += 5
`,
			expected: map[string]vm.Value{"a": ints(1, 7)},
		},
		{
			name: "append in callee leaves caller list",
			code: `
def add_one(xs):
    xs.append(1)
    return len(xs)

base = [0]
n = add_one(base)
`,
			expected: map[string]vm.Value{"base": ints(0), "n": vm.IntValue(2)},
		},
		{
			name: "continue and break in nested loops",
			code: `
total = 0
for i in range(4):
    for j in range(4):
        if j == i:
            continue
        if j > 2:
            break
        total += 1
`,
			expected: map[string]vm.Value{"total": vm.IntValue(9)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := runSource(t, tt.code)
			for name, want := range tt.expected {
				require.Equal(t, want, g[name], "global %s", name)
			}
		})
	}
}
