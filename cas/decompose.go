package cas

import (
	"bytes"
	"fmt"

	"github.com/FoxTes/hydrascript/interp"
	"github.com/dgryski/go-farm"
)

// decomposeSnapshot stores each frame and bound value as its own entry
// and returns the hash of the SnapshotRef tying them together.
func decomposeSnapshot(c *MemoryCAS, s *interp.Snapshot) (Hash, error) {
	if s == nil {
		return 0, fmt.Errorf("cannot decompose nil Snapshot")
	}
	ref := &SnapshotRef{
		PC:        s.PC,
		Steps:     s.Steps,
		State:     s.State,
		Root:      s.Root,
		Active:    s.Active,
		CallStack: s.CallStack,
		Arguments: s.Arguments,
		Result:    s.Result,
	}
	for i, f := range s.Frames {
		h, err := decomposeFrame(c, f)
		if err != nil {
			return 0, fmt.Errorf("decomposing frame %d: %w", i, err)
		}
		ref.FrameHashes = append(ref.FrameHashes, h)
	}
	return putDirect(c, ref)
}

func decomposeFrame(c *MemoryCAS, f interp.FrameSnapshot) (Hash, error) {
	ref := &FrameRef{
		Number:      f.Number,
		Enclosing:   f.Enclosing,
		Names:       make([]string, len(f.Variables)),
		ValueHashes: make([]Hash, len(f.Variables)),
	}
	for i, v := range f.Variables {
		h, err := putDirect(c, &ValueEntry{Value: v.Value})
		if err != nil {
			return 0, fmt.Errorf("decomposing variable %s: %w", v.Name, err)
		}
		ref.Names[i] = v.Name
		ref.ValueHashes[i] = h
	}
	return putDirect(c, ref)
}

// putDirect stores item under the hash of its own encoding. The caller
// holds the write lock.
func putDirect(c *MemoryCAS, item Hashable) (Hash, error) {
	var buf bytes.Buffer
	err := item.Serialize(&buf)
	if err != nil {
		return 0, fmt.Errorf("serializing item: %w", err)
	}
	data := buf.Bytes()
	h := Hash(farm.Hash64(data))
	if _, ok := c.data[h]; ok {
		return h, nil
	}

	entry := &TypedEntry{
		TypeTag: getTypeTag(item),
		Data:    data,
	}
	var entryBuf bytes.Buffer
	err = entry.Serialize(&entryBuf)
	if err != nil {
		return 0, fmt.Errorf("serializing typed entry: %w", err)
	}
	c.store(h, entryBuf.Bytes())
	return h, nil
}
