package vm

import "errors"

var (
	// ErrLoweringContract marks a program that breaks an invariant the
	// lowering pass is supposed to guarantee: arity mismatches, pending
	// argument underflow, or frame/call-stack desynchronization.
	ErrLoweringContract = errors.New("lowering contract violation")
	ErrUnboundName      = errors.New("unbound name")
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrType             = errors.New("type error")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrEndOfCode        = errors.New("End of code block")
)
