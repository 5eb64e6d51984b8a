package vm

import "fmt"

// Operator is the operation tag of a three-address instruction or an
// expression operand.
type Operator uint8

const (
	OpCopy Operator = iota // x = a

	OpAdd      // a + b
	OpSub      // a - b
	OpMul      // a * b
	OpDiv      // a / b
	OpFloorDiv // a // b
	OpMod      // a % b
	OpPow      // a ** b

	OpEq  // a == b
	OpNeq // a != b
	OpLt  // a < b
	OpLte // a <= b
	OpGt  // a > b
	OpGte // a >= b

	OpAnd // a and b, both already evaluated
	OpOr  // a or b, both already evaluated
	OpNot // not a
	OpNeg // -a
	OpIn  // a in b

	OpIndex  // a[b]
	OpLen    // len(a)
	OpAppend // a with b appended
	OpRange  // [a, a+1, ..., b-1]
	OpStr    // str(a)

	OperatorMax
)

var operatorSymbols = [...]string{
	OpCopy:     "",
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpDiv:      "/",
	OpFloorDiv: "//",
	OpMod:      "%",
	OpPow:      "**",
	OpEq:       "==",
	OpNeq:      "!=",
	OpLt:       "<",
	OpLte:      "<=",
	OpGt:       ">",
	OpGte:      ">=",
	OpAnd:      "and",
	OpOr:       "or",
	OpNot:      "not",
	OpNeg:      "-",
	OpIn:       "in",
	OpIndex:    "[]",
	OpLen:      "len",
	OpAppend:   "append",
	OpRange:    "range",
	OpStr:      "str",
}

func (o Operator) String() string {
	if o >= OperatorMax {
		return fmt.Sprintf("Operator(%d)", o)
	}
	return operatorSymbols[o]
}

// Unary reports whether the operator takes a single operand.
func (o Operator) Unary() bool {
	switch o {
	case OpCopy, OpNot, OpNeg, OpLen, OpStr:
		return true
	}
	return false
}

// format renders the operator applied to already-rendered operands.
func (o Operator) format(x, y string) string {
	switch o {
	case OpCopy:
		return x
	case OpNot:
		return "not " + x
	case OpNeg:
		return "-" + x
	case OpLen, OpStr:
		return fmt.Sprintf("%s(%s)", o, x)
	case OpIndex:
		return fmt.Sprintf("%s[%s]", x, y)
	case OpAppend, OpRange:
		return fmt.Sprintf("%s(%s, %s)", o, x, y)
	}
	return fmt.Sprintf("%s %s %s", x, o, y)
}
