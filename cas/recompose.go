package cas

import (
	"bytes"
	"fmt"

	"github.com/FoxTes/hydrascript/interp"
)

func recomposeSnapshot(c directStore, hash Hash) (*interp.Snapshot, error) {
	ref, err := getDirect[*SnapshotRef](c, hash)
	if err != nil {
		return nil, fmt.Errorf("retrieving SnapshotRef: %w", err)
	}
	s := &interp.Snapshot{
		PC:        ref.PC,
		Steps:     ref.Steps,
		State:     ref.State,
		Root:      ref.Root,
		Active:    ref.Active,
		CallStack: ref.CallStack,
		Arguments: ref.Arguments,
		Result:    ref.Result,
	}
	for i, h := range ref.FrameHashes {
		f, err := recomposeFrame(c, h)
		if err != nil {
			return nil, fmt.Errorf("recomposing frame %d: %w", i, err)
		}
		s.Frames = append(s.Frames, f)
	}
	return s, nil
}

func recomposeFrame(c directStore, hash Hash) (interp.FrameSnapshot, error) {
	ref, err := getDirect[*FrameRef](c, hash)
	if err != nil {
		return interp.FrameSnapshot{}, fmt.Errorf("retrieving FrameRef: %w", err)
	}
	if len(ref.Names) != len(ref.ValueHashes) {
		return interp.FrameSnapshot{}, fmt.Errorf("frame has %d names for %d values", len(ref.Names), len(ref.ValueHashes))
	}
	f := interp.FrameSnapshot{
		Number:    ref.Number,
		Enclosing: ref.Enclosing,
		Variables: make([]interp.ArgSnapshot, len(ref.Names)),
	}
	for i, name := range ref.Names {
		v, err := getDirect[*ValueEntry](c, ref.ValueHashes[i])
		if err != nil {
			return interp.FrameSnapshot{}, fmt.Errorf("recomposing variable %s: %w", name, err)
		}
		f.Variables[i] = interp.ArgSnapshot{Name: name, Value: v.Value}
	}
	return f, nil
}

func getDirect[T Hashable](c directStore, hash Hash) (T, error) {
	var zero T
	ok, entryBytes, err := c.getValue(hash)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, fmt.Errorf("hash not found in CAS: %s", hash)
	}

	typedEntry := &TypedEntry{}
	err = typedEntry.Deserialize(bytes.NewReader(entryBytes))
	if err != nil {
		return zero, fmt.Errorf("deserializing TypedEntry: %w", err)
	}
	instance, err := createInstance(typedEntry.TypeTag)
	if err != nil {
		return zero, fmt.Errorf("creating instance: %w", err)
	}
	err = instance.Deserialize(bytes.NewReader(typedEntry.Data))
	if err != nil {
		return zero, fmt.Errorf("deserializing: %w", err)
	}
	result, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("type mismatch: expected %T, got %T", zero, instance)
	}
	return result, nil
}
