package model

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/FoxTes/hydrascript/cas"
	"github.com/FoxTes/hydrascript/interp"
	"github.com/FoxTes/hydrascript/vm"
	"github.com/rs/zerolog/log"
)

// ErrNonTermination reports that the machine came back to a state it
// had already been in, so it would repeat forever.
var ErrNonTermination = errors.New("program does not terminate")

// An Executor is the context and entrypoint for running a program
type Executor struct {
	Program     *vm.Program
	Spec        *Spec
	Globals     map[string]vm.Value
	MaxSteps    int
	DetectLoops bool
	CAS         cas.CAS
	Output      io.Writer
	Reporter    Reporter

	Machine       *interp.Machine
	VisitedStates map[cas.Hash]int // fingerprint to the step it was first seen at
	maxDepth      int
}

// Result summarizes a finished run.
type Result struct {
	State        interp.State
	Value        vm.Value
	Globals      map[string]vm.Value
	Steps        int
	MaxDepth     int
	UniqueStates int
	Fault        *interp.Fault
	Duration     time.Duration
}

// Initialize builds a fresh machine for the program.
func (e *Executor) Initialize() error {
	if e.Program == nil {
		return errors.New("executor has no program")
	}
	e.defaults()
	e.VisitedStates = make(map[cas.Hash]int)
	e.maxDepth = 0
	e.Machine = interp.New(e.Program, e.options()...)
	log.Debug().Int("instructions", len(e.Program.Instructions)).Int("globals", len(e.Globals)).Msg("executor initialized")
	return nil
}

func (e *Executor) defaults() {
	if e.CAS == nil {
		e.CAS = cas.NewLRUCache(cas.NewMemoryCAS(), 0)
	}
	if e.Output == nil {
		e.Output = os.Stdout
	}
	if e.Reporter == nil {
		e.Reporter = &SilentReporter{}
	}
	if e.VisitedStates == nil {
		e.VisitedStates = make(map[cas.Hash]int)
	}
}

func (e *Executor) options() []interp.Option {
	return []interp.Option{
		interp.WithOutput(e.Output),
		interp.WithMaxSteps(e.MaxSteps),
		interp.WithGlobals(e.Globals),
		interp.WithStepHook(e.observe),
	}
}

func (e *Executor) observe(m *interp.Machine, _ *vm.Instruction) {
	e.maxDepth = max(e.maxDepth, len(m.Frames))
}

// Run executes until the program halts. A fault is reported in the
// Result as well as returned.
func (e *Executor) Run() (*Result, error) {
	if e.Machine == nil {
		if err := e.Initialize(); err != nil {
			return nil, err
		}
	}
	start := time.Now()
	m := e.Machine
	var runErr error
	for m.State() == interp.Running {
		pc := m.PC
		inst, _ := e.Program.GetInstruction(pc)
		if err := m.Step(); err != nil {
			runErr = err
			break
		}
		if e.DetectLoops && inst != nil && backwardJump(inst, m.PC) {
			if err := e.checkLoop(); err != nil {
				runErr = err
				break
			}
		}
	}
	res := &Result{
		State:        m.State(),
		Value:        m.Result,
		Globals:      m.Globals(),
		Steps:        m.Steps(),
		MaxDepth:     e.maxDepth,
		UniqueStates: len(e.VisitedStates),
		Fault:        m.Fault(),
		Duration:     time.Since(start),
	}
	log.Debug().Stringer("state", res.State).Int("steps", res.Steps).Dur("duration", res.Duration).Msg("run finished")
	return res, runErr
}

// backwardJump reports whether inst just transferred control to an
// earlier or equal instruction, which is the only way a loop repeats.
func backwardJump(inst *vm.Instruction, next int) bool {
	if inst.Kind != vm.Goto && inst.Kind != vm.IfNotGoto {
		return false
	}
	return next <= inst.Number
}

func (e *Executor) checkLoop() error {
	h, err := e.CAS.Put(e.Machine.Fingerprint())
	if err != nil {
		return fmt.Errorf("storing state: %w", err)
	}
	steps := e.Machine.Steps()
	if first, ok := e.VisitedStates[h]; ok {
		e.Reporter.Printf("state %s repeated at step %d (first seen at step %d)\n", h, steps, first)
		return fmt.Errorf("%w: state at pc %04d first seen at step %d repeats at step %d", ErrNonTermination, e.Machine.PC, first, steps)
	}
	e.VisitedStates[h] = steps
	return nil
}

// Checkpoint stores the current machine in the CAS.
func (e *Executor) Checkpoint() (cas.Hash, error) {
	if e.Machine == nil {
		return 0, errors.New("executor is not initialized")
	}
	h, err := e.CAS.Put(e.Machine.Snapshot())
	if err != nil {
		return 0, err
	}
	e.Reporter.Printf("checkpoint %s at step %d\n", h, e.Machine.Steps())
	return h, nil
}

// Resume replaces the machine with one restored from a checkpoint.
func (e *Executor) Resume(h cas.Hash) error {
	e.defaults()
	snap, err := cas.Retrieve[*interp.Snapshot](e.CAS, h)
	if err != nil {
		return fmt.Errorf("loading checkpoint %s: %w", h, err)
	}
	m, err := interp.Restore(e.Program, snap,
		interp.WithOutput(e.Output),
		interp.WithMaxSteps(e.MaxSteps),
		interp.WithStepHook(e.observe),
	)
	if err != nil {
		return err
	}
	e.Machine = m
	log.Debug().Stringer("checkpoint", h).Int("pc", m.PC).Msg("resumed")
	return nil
}
