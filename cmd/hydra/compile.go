package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/FoxTes/hydrascript/model"
	"github.com/FoxTes/hydrascript/vm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var outputFlag string

var compileCmd = &cobra.Command{
	Use:   "compile SOURCE",
	Short: "Compile a source file to an image",
	Args:  cobra.ExactArgs(1),
	Run:   compileCommand,
}

func init() {
	compileCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Image path (defaults to the source name with "+model.ImageExt+")")
}

func compileCommand(cmd *cobra.Command, args []string) {
	src := args[0]
	prog, err := vm.CompilePath(src)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't compile")
	}
	out := outputFlag
	if out == "" {
		out = strings.TrimSuffix(src, filepath.Ext(src)) + model.ImageExt
	}
	f, err := os.Create(out)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't create image")
	}
	if err := vm.EncodeProgram(f, prog); err != nil {
		f.Close()
		log.Fatal().Err(err).Msg("Couldn't write image")
	}
	if err := f.Close(); err != nil {
		log.Fatal().Err(err).Msg("Couldn't write image")
	}
	log.Info().Str("image", out).Int("instructions", len(prog.Instructions)).Msg("compiled")
}
