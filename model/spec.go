package model

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/FoxTes/hydrascript/vm"
)

// ImageExt marks a compiled program image rather than source.
const ImageExt = ".hsi"

type Spec struct {
	Program ProgramSpec    `toml:"program"`
	Run     RunSpec        `toml:"run"`
	Globals map[string]any `toml:"globals"`
}

type ProgramSpec struct {
	File string `toml:"file"`
}

type RunSpec struct {
	MaxSteps    int  `toml:"max_steps"`
	DetectLoops bool `toml:"detect_loops"`
}

func ParseSpec(f io.Reader) (*Spec, error) {
	var out Spec
	md, err := toml.NewDecoder(f).Decode(&out)
	if err != nil {
		return nil, err
	}
	var unknown []string
	for _, k := range md.Undecoded() {
		// Tables under [globals] are decoded into maps, which the
		// decoder still reports as undecoded.
		if len(k) > 0 && k[0] == "globals" {
			continue
		}
		unknown = append(unknown, k.String())
	}
	if len(unknown) != 0 {
		return nil, fmt.Errorf("unknown keys in spec: %s", strings.Join(unknown, ", "))
	}
	return &out, nil
}

// LoadSpecFromFile reads a spec. A missing program file defaults to the
// spec's own name with a .star extension; relative paths are resolved
// against the spec's directory.
func LoadSpecFromFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	s, err := ParseSpec(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Program.File == "" {
		parts := strings.Split(fi.Name(), ".")
		parts = parts[:len(parts)-1]
		parts = append(parts, "star")
		s.Program.File = strings.Join(parts, ".")
	}
	filedir := filepath.Dir(path)
	s.Program.File = filepath.Clean(filepath.Join(filedir, s.Program.File))
	return s, nil
}

// GlobalValues converts the [globals] table to engine values.
func (s *Spec) GlobalValues() (map[string]vm.Value, error) {
	out := make(map[string]vm.Value, len(s.Globals))
	for k, v := range s.Globals {
		val, err := tomlToValue(v)
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

func tomlToValue(v any) (vm.Value, error) {
	switch t := v.(type) {
	case bool:
		return vm.BoolValue(t), nil
	case int64:
		return vm.IntValue(int(t)), nil
	case float64:
		return vm.FloatValue(t), nil
	case string:
		return vm.StrValue(t), nil
	case []any:
		out := make(vm.ArrayValue, len(t))
		for i, x := range t {
			val, err := tomlToValue(x)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case []map[string]any:
		out := make(vm.ArrayValue, len(t))
		for i, x := range t {
			val, err := tomlToValue(x)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case map[string]any:
		out := make(vm.StructValue, len(t))
		for k, x := range t {
			val, err := tomlToValue(x)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = val
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported TOML value %T", v)
}

// LoadProgram compiles a source file or decodes an image, by extension.
func LoadProgram(path string) (*vm.Program, error) {
	if filepath.Ext(path) != ImageExt {
		return vm.CompilePath(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return vm.DecodeProgram(f)
}

func (s *Spec) BuildExecutor() (*Executor, error) {
	p, err := LoadProgram(s.Program.File)
	if err != nil {
		return nil, err
	}
	globals, err := s.GlobalValues()
	if err != nil {
		return nil, err
	}
	return &Executor{
		Program:     p,
		Spec:        s,
		Globals:     globals,
		MaxSteps:    s.Run.MaxSteps,
		DetectLoops: s.Run.DetectLoops,
	}, nil
}

// Override merges `name = value` assignments, written as TOML, over the
// spec's globals.
func (s *Spec) Override(assignments []string) error {
	if len(assignments) == 0 {
		return nil
	}
	extra, err := ParseSpec(strings.NewReader("[globals]\n" + strings.Join(assignments, "\n")))
	if err != nil {
		return fmt.Errorf("parsing overrides: %w", err)
	}
	if s.Globals == nil {
		s.Globals = make(map[string]any, len(extra.Globals))
	}
	for k, v := range extra.Globals {
		s.Globals[k] = v
	}
	return nil
}
