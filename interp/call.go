package interp

import (
	"fmt"
	"slices"

	"github.com/FoxTes/hydrascript/vm"
	"github.com/rs/zerolog/log"
)

// pushParameter stages one argument for the next Call. The value is
// computed in the caller's frame, before the callee frame exists.
func (m *Machine) pushParameter(inst *vm.Instruction) (int, error) {
	v, err := inst.X.Get(m.scope())
	if err != nil {
		return 0, err
	}
	m.Arguments = append(m.Arguments, Arg{Name: inst.Param, Value: v})
	return inst.Number + 1, nil
}

// call consumes the staged arguments and enters the callee. Nothing is
// modified unless every check passes.
func (m *Machine) call(inst *vm.Instruction) (int, error) {
	f := inst.Function
	if f == nil {
		return 0, fmt.Errorf("%w: call without a target function", vm.ErrLoweringContract)
	}
	if inst.Argc != f.Arity {
		return 0, fmt.Errorf("%w: call to %s passes %d arguments, arity is %d", vm.ErrLoweringContract, f.Name, inst.Argc, f.Arity)
	}
	if len(m.Arguments) < inst.Argc {
		return 0, fmt.Errorf("%w: call to %s needs %d pending arguments, have %d", vm.ErrLoweringContract, f.Name, inst.Argc, len(m.Arguments))
	}
	if len(m.Arguments) > inst.Argc {
		return 0, fmt.Errorf("%w: %d pending arguments left over before call to %s", vm.ErrLoweringContract, len(m.Arguments)-inst.Argc, f.Name)
	}
	if f.Location < 0 || f.Location >= len(m.Program.Instructions) {
		return 0, fmt.Errorf("%w: function %s has no body (location %d)", vm.ErrLoweringContract, f.Name, f.Location)
	}
	base := len(m.Arguments) - inst.Argc
	args := slices.Clone(m.Arguments[base:])
	seen := make(map[string]bool, len(args))
	for _, a := range args {
		if seen[a.Name] {
			return 0, fmt.Errorf("%w: argument %s staged twice for %s", vm.ErrLoweringContract, a.Name, f.Name)
		}
		seen[a.Name] = true
	}

	m.Arguments = m.Arguments[:base]
	id := m.Arena.Alloc(inst.Number+1, m.top())
	frame := m.Arena.Get(id)
	for _, a := range args {
		frame.StoreVar(a.Name, a.Value)
	}
	m.CallStack = append(m.CallStack, CallRecord{
		Number:   inst.Number,
		Function: f,
		Args:     args,
		Left:     inst.Left,
	})
	m.Frames = append(m.Frames, id)
	log.Trace().Str("function", f.Name).Int("site", inst.Number).Int("depth", len(m.Frames)).Msg("call")
	return f.Location, nil
}

// ret leaves the current function. With no active call it ends the
// program and records the returned value as the result.
func (m *Machine) ret(inst *vm.Instruction) (int, error) {
	var v vm.Value = vm.None
	if !inst.X.IsZero() {
		var err error
		v, err = inst.X.Get(m.scope())
		if err != nil {
			return 0, err
		}
	}
	if len(m.CallStack) == 0 {
		m.Result = v
		m.state = Halted
		log.Trace().Str("result", v.String()).Msg("top-level return")
		return inst.Number + 1, nil
	}
	if len(m.Frames) == 0 {
		return 0, fmt.Errorf("%w: return with %d call records and no frames", vm.ErrStackUnderflow, len(m.CallStack))
	}

	rec := m.CallStack[len(m.CallStack)-1]
	id := m.Frames[len(m.Frames)-1]
	frame := m.Arena.Get(id)
	if frame == nil {
		return 0, fmt.Errorf("%w: frame %d is not live", vm.ErrStackUnderflow, id)
	}
	if frame.Number != rec.Number+1 {
		return 0, fmt.Errorf("%w: frame resumes at %d but call record was made at %d", vm.ErrLoweringContract, frame.Number, rec.Number)
	}
	next := frame.Number
	if err := m.Arena.Release(id); err != nil {
		return 0, err
	}
	m.CallStack = m.CallStack[:len(m.CallStack)-1]
	m.Frames = m.Frames[:len(m.Frames)-1]
	if rec.Left != "" {
		m.Arena.Get(m.top()).StoreVar(rec.Left, v)
	}
	log.Trace().Str("function", rec.Function.Name).Str("value", v.String()).Int("resume", next).Msg("return")
	return next, nil
}
