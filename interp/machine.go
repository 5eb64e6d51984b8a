package interp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/FoxTes/hydrascript/vm"
	"github.com/rs/zerolog/log"
)

// StepHook is called before each instruction executes.
type StepHook func(m *Machine, inst *vm.Instruction)

type Option func(*Machine)

func WithOutput(w io.Writer) Option {
	return func(m *Machine) {
		m.out = w
	}
}

// WithMaxSteps bounds the number of instructions Run executes. Zero means
// no bound.
func WithMaxSteps(n int) Option {
	return func(m *Machine) {
		m.maxSteps = n
	}
}

// WithGlobals seeds the root frame.
func WithGlobals(globals map[string]vm.Value) Option {
	return func(m *Machine) {
		root := m.Arena.Get(m.Root)
		for k, v := range globals {
			root.StoreVar(k, v.Clone())
		}
	}
}

func WithStepHook(h StepHook) Option {
	return func(m *Machine) {
		m.hook = h
	}
}

// Machine executes a Program. The root frame holds top-level bindings;
// Frames and CallStack grow and shrink together, one entry per active
// call.
type Machine struct {
	Program   *vm.Program
	PC        int
	Arena     *Arena
	Root      FrameID
	Frames    []FrameID
	CallStack []CallRecord
	Arguments []Arg
	Result    vm.Value

	state    State
	fault    *Fault
	out      io.Writer
	maxSteps int
	steps    int
	hook     StepHook
}

func New(prog *vm.Program, opts ...Option) *Machine {
	m := &Machine{
		Program: prog,
		Arena:   &Arena{},
		Result:  vm.None,
		out:     os.Stdout,
	}
	m.Root = m.Arena.Alloc(0, NoFrame)
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Machine) State() State {
	return m.state
}

// Fault returns the error that stopped the machine, or nil.
func (m *Machine) Fault() *Fault {
	return m.fault
}

func (m *Machine) Steps() int {
	return m.steps
}

// SetMaxSteps changes the step budget, allowing a machine stopped by
// ErrMaxStepsExceeded to continue.
func (m *Machine) SetMaxSteps(n int) {
	m.maxSteps = n
}

// Run steps until the machine halts or faults.
func (m *Machine) Run() error {
	for m.state == Running {
		if err := m.Step(); err != nil {
			return err
		}
	}
	if m.fault != nil {
		return m.fault
	}
	return nil
}

// Step executes a single instruction.
func (m *Machine) Step() error {
	switch m.state {
	case Halted:
		return nil
	case Faulted:
		return m.fault
	}
	if m.maxSteps > 0 && m.steps >= m.maxSteps {
		return fmt.Errorf("%w: %d", ErrMaxStepsExceeded, m.maxSteps)
	}

	inst, err := m.Program.GetInstruction(m.PC)
	if errors.Is(err, vm.ErrEndOfCode) {
		log.Trace().Int("pc", m.PC).Msg("end of code")
		m.state = Halted
		return nil
	}
	if err != nil {
		return m.raise(nil, err)
	}
	if m.hook != nil {
		m.hook(m, inst)
	}
	log.Trace().
		Int("pc", m.PC).
		Stringer("inst", inst).
		Int("frames", len(m.Frames)).
		Int("pending", len(m.Arguments)).
		Msg("step")

	next, err := m.execute(inst)
	if err != nil {
		return m.raise(inst, err)
	}
	m.steps++
	if len(m.Frames) != len(m.CallStack) {
		return m.raise(inst, fmt.Errorf("%w: %d frames for %d call records", vm.ErrLoweringContract, len(m.Frames), len(m.CallStack)))
	}
	m.PC = next
	return nil
}

func (m *Machine) raise(inst *vm.Instruction, err error) error {
	f := &Fault{Number: m.PC, Err: err}
	if inst != nil {
		f.Number = inst.Number
		f.Instruction = inst.String()
		f.Line = inst.Line
	}
	m.state = Faulted
	m.fault = f
	log.Debug().Err(err).Int("pc", f.Number).Msg("machine faulted")
	return f
}

// top returns the frame that the current instruction runs in.
func (m *Machine) top() FrameID {
	if len(m.Frames) == 0 {
		return m.Root
	}
	return m.Frames[len(m.Frames)-1]
}

func (m *Machine) scope() vm.Scope {
	return m.Arena.Scope(m.top())
}

// Top returns the currently executing frame.
func (m *Machine) Top() *Frame {
	return m.Arena.Get(m.top())
}

// Lookup resolves name from the current frame outward.
func (m *Machine) Lookup(name string) (vm.Value, bool) {
	return m.Arena.Lookup(m.top(), name)
}

// Globals returns the root frame's user-visible bindings.
func (m *Machine) Globals() map[string]vm.Value {
	out := make(map[string]vm.Value)
	for k, v := range m.Arena.Get(m.Root).Variables {
		if vm.IsTemp(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Backtrace renders the active calls, innermost first.
func (m *Machine) Backtrace() []string {
	var out []string
	for _, rec := range slices.Backward(m.CallStack) {
		var args []string
		for _, a := range rec.Args {
			args = append(args, a.Name+"="+a.Value.String())
		}
		out = append(out, fmt.Sprintf("%s(%s) called at %04d", rec.Function.Name, strings.Join(args, ", "), rec.Number))
	}
	return out
}
