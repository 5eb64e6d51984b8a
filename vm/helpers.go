package vm

import (
	"io"
)

func LoadFile(name string, r io.Reader) (*Program, error) {
	f, err := fileOptions.Parse(name, r, 0)
	if err != nil {
		return nil, err
	}
	return Compile(f)
}
