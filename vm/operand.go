package vm

import (
	"fmt"
)

// Scope resolves variable names for operand evaluation.
type Scope interface {
	Lookup(name string) (Value, bool)
}

type OperandKind uint8

const (
	NoOperand OperandKind = iota
	ConstOperand
	NameOperand
	ExprOperand
)

// Operand is the value abstraction of the IR: a literal, a variable
// reference, or a nested expression over other operands.
type Operand struct {
	Kind  OperandKind
	Const Value
	Name  string
	Op    Operator
	X, Y  *Operand
}

func Const(v Value) Operand {
	return Operand{Kind: ConstOperand, Const: v}
}

func Name(name string) Operand {
	return Operand{Kind: NameOperand, Name: name}
}

// Expr builds a computed operand. y is ignored for unary operators.
func Expr(op Operator, x, y Operand) Operand {
	o := Operand{Kind: ExprOperand, Op: op, X: &x}
	if !op.Unary() {
		o.Y = &y
	}
	return o
}

func (o Operand) IsZero() bool {
	return o.Kind == NoOperand
}

// Get evaluates the operand against s. It never writes to s.
func (o Operand) Get(s Scope) (Value, error) {
	switch o.Kind {
	case ConstOperand:
		return o.Const.Clone(), nil
	case NameOperand:
		v, ok := s.Lookup(o.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnboundName, o.Name)
		}
		return v, nil
	case ExprOperand:
		return evaluate(o.Op, o.X, o.Y, s)
	}
	return nil, fmt.Errorf("%w: evaluating an empty operand", ErrLoweringContract)
}

func evaluate(op Operator, x, y *Operand, s Scope) (Value, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: operator %q without operand", ErrLoweringContract, op)
	}
	a, err := x.Get(s)
	if err != nil {
		return nil, err
	}
	var b Value
	if !op.Unary() {
		if y == nil {
			return nil, fmt.Errorf("%w: binary operator %q with one operand", ErrLoweringContract, op)
		}
		b, err = y.Get(s)
		if err != nil {
			return nil, err
		}
	}
	return Apply(op, a, b)
}

func (o Operand) String() string {
	switch o.Kind {
	case ConstOperand:
		return o.Const.String()
	case NameOperand:
		return o.Name
	case ExprOperand:
		x, y := "?", "?"
		if o.X != nil {
			x = o.X.String()
		}
		if o.Y != nil {
			y = o.Y.String()
		}
		if o.Op == OpCopy {
			return x
		}
		return "(" + o.Op.format(x, y) + ")"
	}
	return "<none>"
}
