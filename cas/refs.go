package cas

import (
	"io"

	"github.com/FoxTes/hydrascript/interp"
	"github.com/FoxTes/hydrascript/vm"
	"github.com/shamaton/msgpack/v2"
)

// SnapshotRef is the stored form of interp.Snapshot. Frames are stored
// separately so that frames shared between snapshots, the root frame in
// particular, are kept once.
type SnapshotRef struct {
	PC          int
	Steps       int
	State       interp.State
	Root        interp.FrameID
	FrameHashes []Hash
	Active      []interp.FrameID
	CallStack   []interp.CallSnapshot
	Arguments   []interp.ArgSnapshot
	Result      vm.WireValue
}

func (s *SnapshotRef) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, s)
}

func (s *SnapshotRef) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, s)
}

// FrameRef is the stored form of one frame. Names are sorted and
// parallel to ValueHashes.
type FrameRef struct {
	Number      int
	Enclosing   interp.FrameID
	Names       []string
	ValueHashes []Hash
}

func (f *FrameRef) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, f)
}

func (f *FrameRef) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, f)
}

// ValueEntry holds one bound value.
type ValueEntry struct {
	Value vm.WireValue
}

func (v *ValueEntry) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, v)
}

func (v *ValueEntry) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, v)
}
