package cas

import (
	"fmt"
	"io"
	"reflect"

	"github.com/shamaton/msgpack/v2"
)

// TypedEntry wraps a Hashable with a type tag for deserialization
type TypedEntry struct {
	TypeTag string
	Data    []byte
}

func (t *TypedEntry) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, t)
}

func (t *TypedEntry) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, t)
}

var typeRegistry = make(map[string]reflect.Type)

func registerType(tag string, example Hashable) {
	typeRegistry[tag] = reflect.TypeOf(example)
}

func init() {
	registerType("SnapshotRef", &SnapshotRef{})
	registerType("FrameRef", &FrameRef{})
	registerType("ValueEntry", &ValueEntry{})
}

func getTypeTag(item Hashable) string {
	t := reflect.TypeOf(item)
	for tag, regType := range typeRegistry {
		if t == regType {
			return tag
		}
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func createInstance(tag string) (Hashable, error) {
	regType, ok := typeRegistry[tag]
	if !ok {
		return nil, fmt.Errorf("unknown type tag: %s", tag)
	}
	if regType.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("type %s is not registered by pointer", tag)
	}
	return reflect.New(regType.Elem()).Interface().(Hashable), nil
}
