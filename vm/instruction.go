package vm

import "fmt"

// Kind discriminates the instruction variant.
type Kind uint8

const (
	Simple        Kind = iota // Left = X Op Y
	PushParameter             // stage (Param, X) for the next Call
	Call                      // Left = Call Function, Argc
	Return                    // Return X
	Goto                      // jump to Target
	IfNotGoto                 // jump to Target when X is falsy
	SetIndex                  // Left[X] = Y
	Print                     // write X to the output
	Halt                      // stop the machine

	KindMax
)

func (k Kind) String() string {
	switch k {
	case Simple:
		return "Simple"
	case PushParameter:
		return "PushParameter"
	case Call:
		return "Call"
	case Return:
		return "Return"
	case Goto:
		return "Goto"
	case IfNotGoto:
		return "IfNotGoto"
	case SetIndex:
		return "SetIndex"
	case Print:
		return "Print"
	case Halt:
		return "Halt"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Instruction is one unit of the three-address program. Which fields are
// meaningful depends on Kind; Number is the instruction's program counter
// index and never changes after the program is built.
type Instruction struct {
	Number int
	Kind   Kind

	// Left is the assignment target. Empty means the result is discarded.
	Left string
	Op   Operator
	X, Y Operand

	// PushParameter
	Param string

	// Call
	Function *FunctionInfo
	Argc     int

	// Goto, IfNotGoto
	Target int
	Label  string // unresolved target, cleared by the builder

	Line int // source line, 0 when unknown
}

// Value returns the right-hand side of a Simple instruction as an operand.
func (i *Instruction) Value() Operand {
	if i.Op == OpCopy {
		return i.X
	}
	return Expr(i.Op, i.X, i.Y)
}

// Jump reports the static control-transfer target of the instruction, if
// it has one. Execution never consults it.
func (i *Instruction) Jump() (int, bool) {
	switch i.Kind {
	case Call:
		if i.Function == nil {
			return 0, false
		}
		return i.Function.Location, true
	case Goto, IfNotGoto:
		return i.Target, true
	}
	return 0, false
}

func (i Instruction) String() string {
	switch i.Kind {
	case Simple:
		rhs := i.Op.format(i.X.String(), i.Y.String())
		if i.Left == "" {
			return rhs
		}
		return fmt.Sprintf("%s = %s", i.Left, rhs)
	case PushParameter:
		return fmt.Sprintf("PushParameter %s = %s", i.Param, i.X)
	case Call:
		if i.Left == "" {
			return fmt.Sprintf("Call %s, %d", i.Function, i.Argc)
		}
		return fmt.Sprintf("%s = Call %s, %d", i.Left, i.Function, i.Argc)
	case Return:
		if i.X.IsZero() {
			return "Return"
		}
		return fmt.Sprintf("Return %s", i.X)
	case Goto:
		return fmt.Sprintf("Goto %s", i.target())
	case IfNotGoto:
		return fmt.Sprintf("IfNot %s Goto %s", i.X, i.target())
	case SetIndex:
		return fmt.Sprintf("%s[%s] = %s", i.Left, i.X, i.Y)
	case Print:
		return fmt.Sprintf("Print %s", i.X)
	case Halt:
		return "End"
	}
	return fmt.Sprintf("<%s>", i.Kind)
}

func (i Instruction) target() string {
	if i.Label != "" {
		return i.Label
	}
	return fmt.Sprint(i.Target)
}
