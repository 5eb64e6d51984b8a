package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// FunctionInfo is the static descriptor of a callable.
type FunctionInfo struct {
	Name     string
	Location int // index of the function's first instruction
	Arity    int
	Params   []string
}

func (f *FunctionInfo) String() string {
	if f == nil {
		return "<nil>"
	}
	return f.Name
}

type Program struct {
	Instructions []Instruction
	Functions    map[string]*FunctionInfo
}

func (p *Program) GetInstruction(pc int) (*Instruction, error) {
	if pc < 0 {
		return nil, fmt.Errorf("%w: negative program counter %d", ErrLoweringContract, pc)
	}
	if pc >= len(p.Instructions) {
		return nil, ErrEndOfCode
	}
	return &p.Instructions[pc], nil
}

func (p *Program) Resolve(name string) (*FunctionInfo, bool) {
	f, ok := p.Functions[name]
	return f, ok
}

// FunctionAt returns the function whose entry is pc, if any.
func (p *Program) FunctionAt(pc int) (*FunctionInfo, bool) {
	for _, f := range p.Functions {
		if f.Location == pc {
			return f, true
		}
	}
	return nil, false
}

// SortedFunctions returns the function table ordered by entry location.
func (p *Program) SortedFunctions() []*FunctionInfo {
	out := make([]*FunctionInfo, 0, len(p.Functions))
	for _, f := range p.Functions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location == out[j].Location {
			return out[i].Name < out[j].Name
		}
		return out[i].Location < out[j].Location
	})
	return out
}

// Verify checks the static invariants the engine relies on. All
// violations are reported together.
func (p *Program) Verify() error {
	var errs []error
	n := len(p.Instructions)
	for name, f := range p.Functions {
		if f == nil {
			errs = append(errs, fmt.Errorf("%w: function %s has no descriptor", ErrLoweringContract, name))
			continue
		}
		if f.Location < 0 || f.Location >= n {
			errs = append(errs, fmt.Errorf("%w: function %s entry %d outside program of %d instructions", ErrLoweringContract, name, f.Location, n))
		}
		if len(f.Params) != 0 && len(f.Params) != f.Arity {
			errs = append(errs, fmt.Errorf("%w: function %s declares arity %d with %d parameters", ErrLoweringContract, name, f.Arity, len(f.Params)))
		}
	}
	for i := range p.Instructions {
		inst := &p.Instructions[i]
		if inst.Number != i {
			errs = append(errs, fmt.Errorf("%w: instruction at index %d is numbered %d", ErrLoweringContract, i, inst.Number))
		}
		if inst.Kind >= KindMax {
			errs = append(errs, fmt.Errorf("%w: instruction %d has unknown kind %d", ErrLoweringContract, i, inst.Kind))
			continue
		}
		if inst.Label != "" {
			errs = append(errs, fmt.Errorf("%w: instruction %d has unresolved label %s", ErrLoweringContract, i, inst.Label))
		}
		if inst.Kind == Call {
			if inst.Function == nil {
				errs = append(errs, fmt.Errorf("%w: call at %d has no target", ErrLoweringContract, i))
				continue
			}
			if f, ok := p.Functions[inst.Function.Name]; !ok || f != inst.Function {
				errs = append(errs, fmt.Errorf("%w: call at %d targets unknown function %s", ErrLoweringContract, i, inst.Function.Name))
			}
			if inst.Argc != inst.Function.Arity {
				errs = append(errs, fmt.Errorf("%w: call at %d passes %d arguments to %s which takes %d", ErrLoweringContract, i, inst.Argc, inst.Function.Name, inst.Function.Arity))
			}
		}
		if target, ok := inst.Jump(); ok && (target < 0 || target > n) {
			errs = append(errs, fmt.Errorf("%w: instruction %d jumps to %d outside program", ErrLoweringContract, i, target))
		}
	}
	return errors.Join(errs...)
}

// Disassemble writes one line per instruction, marking function entries
// and jump targets.
func (p *Program) Disassemble(w io.Writer) error {
	entries := make(map[int][]string)
	for _, f := range p.SortedFunctions() {
		entries[f.Location] = append(entries[f.Location], fmt.Sprintf("%s/%d", f.Name, f.Arity))
	}
	targets := make(map[int]bool)
	for i := range p.Instructions {
		if t, ok := p.Instructions[i].Jump(); ok && p.Instructions[i].Kind != Call {
			targets[t] = true
		}
	}
	for i := range p.Instructions {
		for _, name := range entries[i] {
			if _, err := fmt.Fprintf(w, "%s:\n", name); err != nil {
				return err
			}
		}
		mark := " "
		if targets[i] {
			mark = ">"
		}
		if _, err := fmt.Fprintf(w, "%s%04d: %s\n", mark, i, p.Instructions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) DebugPrint() error {
	return p.Disassemble(os.Stdout)
}
