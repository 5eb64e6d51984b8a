package main

import (
	"path/filepath"

	"github.com/FoxTes/hydrascript/model"
)

// loadSpec accepts either a TOML run spec or a program file. A program
// given directly runs with an empty spec.
func loadSpec(filename string) (*model.Spec, error) {
	if filepath.Ext(filename) == ".toml" {
		return model.LoadSpecFromFile(filename)
	}
	s := &model.Spec{}
	s.Program.File = filename
	return s, nil
}
