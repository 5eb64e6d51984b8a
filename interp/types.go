package interp

import (
	"fmt"

	"github.com/FoxTes/hydrascript/vm"
)

// FrameID is a handle into an Arena.
type FrameID int

const NoFrame FrameID = -1

// Frame is one binding environment. Enclosing names the frame consulted
// when a lookup misses locally.
type Frame struct {
	Number    int // program counter at which the frame resumes its caller
	Enclosing FrameID
	Variables map[string]vm.Value
}

func (f *Frame) StoreVar(name string, v vm.Value) {
	if f.Variables == nil {
		f.Variables = make(map[string]vm.Value)
	}
	f.Variables[name] = v
}

// Arena owns every live frame. Frames are allocated and released in
// strict LIFO order, so a handle stays valid while its frame is live.
type Arena struct {
	frames []*Frame
}

func (a *Arena) Alloc(number int, enclosing FrameID) FrameID {
	a.frames = append(a.frames, &Frame{
		Number:    number,
		Enclosing: enclosing,
		Variables: make(map[string]vm.Value),
	})
	return FrameID(len(a.frames) - 1)
}

// Release frees id, which must be the most recently allocated frame.
func (a *Arena) Release(id FrameID) error {
	if len(a.frames) == 0 {
		return fmt.Errorf("%w: releasing frame %d from an empty arena", vm.ErrStackUnderflow, id)
	}
	if int(id) != len(a.frames)-1 {
		return fmt.Errorf("%w: releasing frame %d out of order, top is %d", vm.ErrStackUnderflow, id, len(a.frames)-1)
	}
	a.frames[id] = nil
	a.frames = a.frames[:id]
	return nil
}

func (a *Arena) Get(id FrameID) *Frame {
	if id < 0 || int(id) >= len(a.frames) {
		return nil
	}
	return a.frames[id]
}

func (a *Arena) Len() int {
	return len(a.frames)
}

// Lookup resolves name starting at id and walking the enclosing chain.
func (a *Arena) Lookup(id FrameID, name string) (vm.Value, bool) {
	for id != NoFrame {
		f := a.Get(id)
		if f == nil {
			return nil, false
		}
		if v, ok := f.Variables[name]; ok {
			return v, true
		}
		id = f.Enclosing
	}
	return nil, false
}

// Scope returns a read-only view of the chain rooted at id.
func (a *Arena) Scope(id FrameID) vm.Scope {
	return frameScope{arena: a, id: id}
}

type frameScope struct {
	arena *Arena
	id    FrameID
}

func (s frameScope) Lookup(name string) (vm.Value, bool) {
	return s.arena.Lookup(s.id, name)
}

// Arg is one pending or bound argument.
type Arg struct {
	Name  string
	Value vm.Value
}

// CallRecord describes one in-flight invocation.
type CallRecord struct {
	Number   int // the Call instruction
	Function *vm.FunctionInfo
	Args     []Arg
	Left     string // caller variable receiving the result, empty to discard
}

type State int

const (
	Running State = iota
	Halted
	Faulted
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Halted:
		return "Halted"
	case Faulted:
		return "Faulted"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}
