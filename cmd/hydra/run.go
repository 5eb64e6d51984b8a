package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/FoxTes/hydrascript/interp"
	"github.com/FoxTes/hydrascript/model"
	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	debugFlag       bool
	statsFlag       bool
	globalsFlag     bool
	detectLoopsFlag bool
	maxStepsFlag    int
	setFlags        []string
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a spec (.toml), a source file (.star) or an image (.hsi)",
	Args:  cobra.ExactArgs(1),
	Run:   runCommand,
}

func init() {
	runCmd.Flags().BoolVar(&debugFlag, "debug", false, "Print the program and executor notes before running")
	runCmd.Flags().BoolVar(&statsFlag, "stats", false, "Print run statistics")
	runCmd.Flags().BoolVar(&globalsFlag, "globals", false, "Print the final top-level bindings")
	runCmd.Flags().BoolVar(&detectLoopsFlag, "detect-loops", false, "Stop with an error when the machine repeats a state")
	runCmd.Flags().IntVar(&maxStepsFlag, "max-steps", 0, "Stop after this many instructions (0 for the spec's limit or none)")
	runCmd.Flags().StringArrayVar(&setFlags, "set", nil, "Override a global, as a TOML assignment (name = value)")
}

func runCommand(cmd *cobra.Command, args []string) {
	spec, err := loadSpec(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load spec")
	}
	if err := spec.Override(setFlags); err != nil {
		log.Fatal().Err(err).Msg("Bad --set value")
	}
	exec, err := spec.BuildExecutor()
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't build executor for spec")
	}
	if maxStepsFlag > 0 {
		exec.MaxSteps = maxStepsFlag
	}
	if detectLoopsFlag {
		exec.DetectLoops = true
	}
	if debugFlag {
		if err := exec.Program.DebugPrint(); err != nil {
			log.Fatal().Err(err).Msg("Couldn't print program")
		}
		exec.Reporter = &model.ColorReporter{Writer: os.Stderr}
	}
	if err := exec.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("Couldn't init executor")
	}

	result, runErr := exec.Run()
	if result == nil {
		log.Fatal().Err(runErr).Msg("Run failed to produce a result")
	}
	if result.Fault != nil {
		fmt.Fprint(os.Stderr, model.FormatFault(result.Fault, exec.Program, exec.Machine.Backtrace()))
	}
	if globalsFlag {
		fmt.Fprint(os.Stderr, model.FormatGlobals(result.Globals))
	}
	if statsFlag {
		fmt.Fprint(os.Stderr, model.FormatStatistics(result))
	}

	switch {
	case runErr == nil:
		return
	case errors.Is(runErr, model.ErrNonTermination):
		fmt.Fprintln(os.Stderr, color.Yellow.Sprintf("✗ %s", runErr))
	case errors.Is(runErr, interp.ErrMaxStepsExceeded):
		fmt.Fprintln(os.Stderr, color.Yellow.Sprintf("✗ %s", runErr))
	case result.Fault == nil:
		fmt.Fprintln(os.Stderr, color.Red.Sprintf("✗ %s", runErr))
	}
	os.Exit(1)
}
