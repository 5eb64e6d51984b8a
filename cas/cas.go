package cas

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/FoxTes/hydrascript/interp"
)

// CAS is a content-addressed store. Equal items always hash equal, so
// Has doubles as a "seen before" test.
type CAS interface {
	Put(item Hashable) (Hash, error)
	Has(hash Hash) bool
	Len() int
}

type Serde interface {
	Serialize(w io.Writer) error
	Deserialize(r io.Reader) error
}

type Hashable interface {
	Serde
}

type directStore interface {
	getValue(h Hash) (bool, []byte, error)
}

type Hash uint64

func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

func Retrieve[T Hashable](c CAS, hash Hash) (T, error) {
	var t T
	v, ok := c.(directStore)
	if !ok {
		return t, errors.New("CAS does not support direct retrieval")
	}

	// Snapshots are stored decomposed and must be reassembled
	if reflect.TypeOf(t) == reflect.TypeOf((*interp.Snapshot)(nil)) {
		snap, err := recomposeSnapshot(v, hash)
		if err != nil {
			return t, fmt.Errorf("recomposing Snapshot: %w", err)
		}
		return any(snap).(T), nil
	}

	has, data, err := v.getValue(hash)
	if err != nil {
		return t, err
	}
	if !has {
		return t, fmt.Errorf("hash not found in CAS: %s", hash)
	}

	typedEntry := &TypedEntry{}
	err = typedEntry.Deserialize(bytes.NewReader(data))
	if err != nil {
		return t, fmt.Errorf("deserializing TypedEntry: %w", err)
	}
	instance, err := createInstance(typedEntry.TypeTag)
	if err != nil {
		return t, fmt.Errorf("creating instance: %w", err)
	}
	err = instance.Deserialize(bytes.NewReader(typedEntry.Data))
	if err != nil {
		return t, fmt.Errorf("deserializing data: %w", err)
	}
	result, ok := instance.(T)
	if !ok {
		return t, fmt.Errorf("type mismatch: expected %T, got %T", t, instance)
	}
	return result, nil
}
