package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/FoxTes/hydrascript/interp"
	"github.com/FoxTes/hydrascript/vm"
	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	traceVarsFlag  bool
	traceStepsFlag int
)

var traceCmd = &cobra.Command{
	Use:   "trace FILE",
	Short: "Run a program, printing each instruction as it executes",
	Args:  cobra.ExactArgs(1),
	Run:   traceCommand,
}

func init() {
	traceCmd.Flags().BoolVar(&traceVarsFlag, "vars", false, "Print the innermost frame's variables at each step")
	traceCmd.Flags().IntVar(&traceStepsFlag, "max-steps", 10000, "Stop after this many instructions")
}

func traceCommand(cmd *cobra.Command, args []string) {
	spec, err := loadSpec(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load spec")
	}
	exec, err := spec.BuildExecutor()
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't build executor for spec")
	}
	m := interp.New(exec.Program,
		interp.WithGlobals(exec.Globals),
		interp.WithMaxSteps(traceStepsFlag),
		interp.WithStepHook(tracer(os.Stderr, traceVarsFlag)),
	)
	if err := m.Run(); err != nil {
		log.Fatal().Err(err).Strs("backtrace", m.Backtrace()).Msg("Trace stopped")
	}
	fmt.Fprintln(os.Stderr, color.Green.Sprintf("Finished after %d steps", m.Steps()))
}

// tracer prints one line per instruction, indented by call depth.
func tracer(w io.Writer, vars bool) interp.StepHook {
	return func(m *interp.Machine, inst *vm.Instruction) {
		indent := strings.Repeat("  ", len(m.Frames))
		fmt.Fprintf(w, "%s%s %s", indent, color.Gray.Sprintf("%04d", inst.Number), inst)
		if len(m.Arguments) > 0 {
			fmt.Fprint(w, color.Gray.Sprintf("  pending=%d", len(m.Arguments)))
		}
		fmt.Fprintln(w)
		if !vars {
			return
		}
		top := m.Top()
		names := make([]string, 0, len(top.Variables))
		for k := range top.Variables {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(w, "%s     %s = %s\n", indent, color.Yellow.Sprint(k), top.Variables[k])
		}
	}
}
