package interp

import (
	"errors"
	"fmt"
)

// ErrMaxStepsExceeded is returned when the step budget runs out. The
// machine stays Running and may be resumed with a larger budget.
var ErrMaxStepsExceeded = errors.New("maximum step count exceeded")

// Fault is the terminal error of a faulted machine.
type Fault struct {
	Number      int
	Instruction string
	Line        int
	Err         error
}

func (f *Fault) Error() string {
	if f.Instruction == "" {
		return fmt.Sprintf("fault at %04d: %v", f.Number, f.Err)
	}
	if f.Line > 0 {
		return fmt.Sprintf("fault at %04d `%s` (line %d): %v", f.Number, f.Instruction, f.Line, f.Err)
	}
	return fmt.Sprintf("fault at %04d `%s`: %v", f.Number, f.Instruction, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
