package cas

import (
	"bytes"
	"sync"

	"github.com/FoxTes/hydrascript/interp"
)

type MemoryCAS struct {
	mu   sync.RWMutex
	data map[Hash][]byte
}

func NewMemoryCAS() *MemoryCAS {
	return &MemoryCAS{
		data: make(map[Hash][]byte),
	}
}

func (m *MemoryCAS) getValue(h Hash) (bool, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[h]
	if !ok {
		return false, nil, nil
	}
	return true, v, nil
}

func (m *MemoryCAS) Has(hash Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[hash]
	return ok
}

// Len reports the number of stored entries, including the frames and
// values of decomposed snapshots.
func (m *MemoryCAS) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryCAS) Put(item Hashable) (Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if snap, ok := item.(*interp.Snapshot); ok {
		return decomposeSnapshot(m, snap)
	}
	return putDirect(m, item)
}

// store writes an encoded entry. The caller holds the write lock.
func (m *MemoryCAS) store(h Hash, data []byte) {
	if _, ok := m.data[h]; ok {
		return
	}
	m.data[h] = bytes.Clone(data)
}
