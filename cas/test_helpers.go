package cas

import (
	"github.com/FoxTes/hydrascript/interp"
	"github.com/FoxTes/hydrascript/vm"
)

// Test helper functions to expose internal decompose/recompose functions

func DecomposeSnapshotForTest(c *MemoryCAS, s *interp.Snapshot) (Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return decomposeSnapshot(c, s)
}

func RecomposeSnapshotForTest(c *MemoryCAS, hash Hash) (*interp.Snapshot, error) {
	return recomposeSnapshot(c, hash)
}

func DecomposeValueForTest(c *MemoryCAS, v vm.Value) (Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return putDirect(c, &ValueEntry{Value: vm.ToWire(v)})
}

func RecomposeValueForTest(c *MemoryCAS, hash Hash) (vm.Value, error) {
	v, err := getDirect[*ValueEntry](c, hash)
	if err != nil {
		return nil, err
	}
	return vm.FromWire(v.Value)
}
