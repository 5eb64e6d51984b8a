package interp

import (
	"fmt"

	"github.com/FoxTes/hydrascript/vm"
	"github.com/rs/zerolog/log"
)

// execute runs one instruction and returns the next program counter.
func (m *Machine) execute(inst *vm.Instruction) (int, error) {
	switch inst.Kind {
	case vm.Simple:
		v, err := inst.Value().Get(m.scope())
		if err != nil {
			return 0, err
		}
		if inst.Left != "" {
			m.Top().StoreVar(inst.Left, v)
		}
		return inst.Number + 1, nil
	case vm.PushParameter:
		return m.pushParameter(inst)
	case vm.Call:
		return m.call(inst)
	case vm.Return:
		return m.ret(inst)
	case vm.Goto:
		return inst.Target, nil
	case vm.IfNotGoto:
		cond, err := inst.X.Get(m.scope())
		if err != nil {
			return 0, err
		}
		if !cond.AsBool() {
			return inst.Target, nil
		}
		return inst.Number + 1, nil
	case vm.SetIndex:
		return m.setIndex(inst)
	case vm.Print:
		v, err := inst.X.Get(m.scope())
		if err != nil {
			return 0, err
		}
		if err := m.print(v); err != nil {
			return 0, err
		}
		return inst.Number + 1, nil
	case vm.Halt:
		log.Trace().Int("pc", inst.Number).Msg("halt")
		m.state = Halted
		return inst.Number + 1, nil
	}
	return 0, fmt.Errorf("%w: unknown instruction kind %s", vm.ErrLoweringContract, inst.Kind)
}

// setIndex replaces one element of the container named by Left. The
// updated container is bound in the current frame.
func (m *Machine) setIndex(inst *vm.Instruction) (int, error) {
	s := m.scope()
	obj, err := vm.Name(inst.Left).Get(s)
	if err != nil {
		return 0, err
	}
	key, err := inst.X.Get(s)
	if err != nil {
		return 0, err
	}
	val, err := inst.Y.Get(s)
	if err != nil {
		return 0, err
	}
	updated, err := vm.SetItem(obj, key, val)
	if err != nil {
		return 0, err
	}
	m.Top().StoreVar(inst.Left, updated)
	return inst.Number + 1, nil
}

func (m *Machine) print(v vm.Value) error {
	var err error
	if s, ok := v.(vm.StrValue); ok {
		_, err = fmt.Fprintln(m.out, string(s))
	} else {
		_, err = fmt.Fprintln(m.out, v.String())
	}
	return err
}
