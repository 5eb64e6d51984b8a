package main

import (
	"os"

	"github.com/FoxTes/hydrascript/model"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm FILE",
	Short: "Print the three-address code for a source file or image",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		prog, err := model.LoadProgram(args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load program")
		}
		if err := model.WriteDisassembly(os.Stdout, args[0], prog); err != nil {
			log.Fatal().Err(err).Msg("Couldn't write listing")
		}
	},
}
