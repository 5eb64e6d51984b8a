package interp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/FoxTes/hydrascript/vm"
	"github.com/shamaton/msgpack/v2"
)

// Snapshot is the complete machine state at an instruction boundary.
// Bindings are kept sorted so equal states encode to equal bytes.
type Snapshot struct {
	PC        int
	Steps     int
	State     State
	Root      FrameID
	Frames    []FrameSnapshot // arena order
	Active    []FrameID
	CallStack []CallSnapshot
	Arguments []ArgSnapshot
	Result    vm.WireValue
}

type FrameSnapshot struct {
	Number    int
	Enclosing FrameID
	Variables []ArgSnapshot
}

type CallSnapshot struct {
	Number   int
	Function string
	Args     []ArgSnapshot
	Left     string
}

type ArgSnapshot struct {
	Name  string
	Value vm.WireValue
}

func (s *Snapshot) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, s)
}

func (s *Snapshot) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, s)
}

func snapshotArgs(args []Arg) []ArgSnapshot {
	out := make([]ArgSnapshot, len(args))
	for i, a := range args {
		out[i] = ArgSnapshot{Name: a.Name, Value: vm.ToWire(a.Value)}
	}
	return out
}

func restoreArgs(in []ArgSnapshot) ([]Arg, error) {
	out := make([]Arg, len(in))
	for i, a := range in {
		v, err := vm.FromWire(a.Value)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		out[i] = Arg{Name: a.Name, Value: v}
	}
	return out, nil
}

func (f *Frame) snapshot() FrameSnapshot {
	keys := make([]string, 0, len(f.Variables))
	for k := range f.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vars := make([]ArgSnapshot, len(keys))
	for i, k := range keys {
		vars[i] = ArgSnapshot{Name: k, Value: vm.ToWire(f.Variables[k])}
	}
	return FrameSnapshot{Number: f.Number, Enclosing: f.Enclosing, Variables: vars}
}

// Snapshot captures the machine. The step counter is included so a
// restored machine keeps its budget; use Fingerprint for comparisons
// that should ignore it.
func (m *Machine) Snapshot() *Snapshot {
	s := &Snapshot{
		PC:        m.PC,
		Steps:     m.steps,
		State:     m.state,
		Root:      m.Root,
		Active:    append([]FrameID(nil), m.Frames...),
		Arguments: snapshotArgs(m.Arguments),
		Result:    vm.ToWire(m.Result),
	}
	for i := 0; i < m.Arena.Len(); i++ {
		s.Frames = append(s.Frames, m.Arena.Get(FrameID(i)).snapshot())
	}
	for _, rec := range m.CallStack {
		s.CallStack = append(s.CallStack, CallSnapshot{
			Number:   rec.Number,
			Function: rec.Function.Name,
			Args:     snapshotArgs(rec.Args),
			Left:     rec.Left,
		})
	}
	return s
}

// Fingerprint is the snapshot without bookkeeping that does not affect
// future execution.
func (m *Machine) Fingerprint() *Snapshot {
	s := m.Snapshot()
	s.Steps = 0
	return s
}

// Restore builds a machine for prog from a snapshot. A faulted machine
// cannot be restored.
func Restore(prog *vm.Program, s *Snapshot, opts ...Option) (*Machine, error) {
	if s.State == Faulted {
		return nil, errors.New("cannot restore a faulted machine")
	}
	m := &Machine{
		Program: prog,
		Arena:   &Arena{},
		PC:      s.PC,
		Root:    s.Root,
		Frames:  append([]FrameID(nil), s.Active...),
		state:   s.State,
		steps:   s.Steps,
		out:     os.Stdout,
	}
	for i, fs := range s.Frames {
		if fs.Enclosing != NoFrame && (fs.Enclosing < 0 || int(fs.Enclosing) >= i) {
			return nil, fmt.Errorf("%w: frame %d is enclosed by frame %d which is not live", vm.ErrStackUnderflow, i, fs.Enclosing)
		}
		id := m.Arena.Alloc(fs.Number, fs.Enclosing)
		if int(id) != i {
			return nil, fmt.Errorf("frame %d restored as %d", i, id)
		}
		vars, err := restoreArgs(fs.Variables)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		f := m.Arena.Get(id)
		for _, v := range vars {
			f.StoreVar(v.Name, v.Value)
		}
	}
	if m.Arena.Get(m.Root) == nil {
		return nil, fmt.Errorf("%w: snapshot has no root frame", vm.ErrStackUnderflow)
	}
	for _, id := range m.Frames {
		if id == m.Root || m.Arena.Get(id) == nil {
			return nil, fmt.Errorf("%w: active frame %d is not a live call frame", vm.ErrStackUnderflow, id)
		}
	}
	for _, cs := range s.CallStack {
		f, ok := prog.Resolve(cs.Function)
		if !ok {
			return nil, fmt.Errorf("snapshot calls unknown function %s", cs.Function)
		}
		args, err := restoreArgs(cs.Args)
		if err != nil {
			return nil, err
		}
		m.CallStack = append(m.CallStack, CallRecord{Number: cs.Number, Function: f, Args: args, Left: cs.Left})
	}
	if len(m.Frames) != len(m.CallStack) {
		return nil, fmt.Errorf("%w: snapshot has %d frames for %d call records", vm.ErrLoweringContract, len(m.Frames), len(m.CallStack))
	}
	var err error
	if m.Arguments, err = restoreArgs(s.Arguments); err != nil {
		return nil, err
	}
	if m.Result, err = vm.FromWire(s.Result); err != nil {
		return nil, err
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}
