package vm

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const TempPrefix = "$"

// IsTemp reports whether name was allocated by NewTemp.
func IsTemp(name string) bool {
	return strings.HasPrefix(name, TempPrefix)
}

// Builder assembles a Program. Jumps are emitted against symbolic labels
// and resolved to instruction numbers by Build.
type Builder struct {
	ops       []Instruction
	labels    map[string]int
	functions map[string]*FunctionInfo
	temps     int
	line      int
}

func NewBuilder() *Builder {
	return &Builder{
		labels:    make(map[string]int),
		functions: make(map[string]*FunctionInfo),
	}
}

// SetLine sets the source line recorded on subsequently emitted instructions.
func (b *Builder) SetLine(line int) {
	b.line = line
}

func (b *Builder) Len() int {
	return len(b.ops)
}

// Last returns the most recently emitted instruction, or nil.
func (b *Builder) Last() *Instruction {
	if len(b.ops) == 0 {
		return nil
	}
	return &b.ops[len(b.ops)-1]
}

// Emit appends inst, numbering it with its position.
func (b *Builder) Emit(inst Instruction) int {
	inst.Number = len(b.ops)
	if inst.Line == 0 {
		inst.Line = b.line
	}
	b.ops = append(b.ops, inst)
	return inst.Number
}

func (b *Builder) Assign(left string, op Operator, x, y Operand) int {
	return b.Emit(Instruction{Kind: Simple, Left: left, Op: op, X: x, Y: y})
}

func (b *Builder) Copy(left string, x Operand) int {
	return b.Emit(Instruction{Kind: Simple, Left: left, Op: OpCopy, X: x})
}

func (b *Builder) PushParameter(name string, x Operand) int {
	return b.Emit(Instruction{Kind: PushParameter, Param: name, X: x})
}

func (b *Builder) Call(f *FunctionInfo, argc int, left string) int {
	return b.Emit(Instruction{Kind: Call, Function: f, Argc: argc, Left: left})
}

// Return emits a return. A zero operand returns nothing.
func (b *Builder) Return(x Operand) int {
	return b.Emit(Instruction{Kind: Return, X: x})
}

func (b *Builder) Goto(label string) int {
	return b.Emit(Instruction{Kind: Goto, Label: label})
}

func (b *Builder) IfNotGoto(cond Operand, label string) int {
	return b.Emit(Instruction{Kind: IfNotGoto, X: cond, Label: label})
}

func (b *Builder) SetIndex(target string, key, val Operand) int {
	return b.Emit(Instruction{Kind: SetIndex, Left: target, X: key, Y: val})
}

func (b *Builder) Print(x Operand) int {
	return b.Emit(Instruction{Kind: Print, X: x})
}

func (b *Builder) Halt() int {
	return b.Emit(Instruction{Kind: Halt})
}

func (b *Builder) NewLabel() string {
	return uuid.NewString()
}

// Labeled reports whether some label is bound to pc.
func (b *Builder) Labeled(pc int) bool {
	for _, at := range b.labels {
		if at == pc {
			return true
		}
	}
	return false
}

// MarkLabel binds label to the next emitted instruction.
func (b *Builder) MarkLabel(label string) {
	b.labels[label] = len(b.ops)
}

// NewTemp allocates a fresh temporary name. The TempPrefix can't start a
// source identifier.
func (b *Builder) NewTemp() string {
	name := fmt.Sprintf("%st%d", TempPrefix, b.temps)
	b.temps++
	return name
}

// Declare registers a function so calls can be emitted before its body.
func (b *Builder) Declare(name string, params []string) (*FunctionInfo, error) {
	if _, ok := b.functions[name]; ok {
		return nil, fmt.Errorf("function %s declared twice", name)
	}
	f := &FunctionInfo{
		Name:     name,
		Location: -1,
		Arity:    len(params),
		Params:   params,
	}
	b.functions[name] = f
	return f, nil
}

func (b *Builder) Function(name string) (*FunctionInfo, bool) {
	f, ok := b.functions[name]
	return f, ok
}

// BeginFunction places f's entry point at the next emitted instruction.
func (b *Builder) BeginFunction(f *FunctionInfo) {
	f.Location = len(b.ops)
}

// Build resolves labels and verifies the result. The builder must not be
// reused afterwards.
func (b *Builder) Build() (*Program, error) {
	for i := range b.ops {
		op := &b.ops[i]
		if op.Label == "" {
			continue
		}
		target, ok := b.labels[op.Label]
		if !ok {
			return nil, fmt.Errorf("instruction %d: unresolved label %s", i, op.Label)
		}
		op.Target = target
		op.Label = ""
	}
	for name, f := range b.functions {
		if f.Location < 0 {
			return nil, fmt.Errorf("function %s declared without a body", name)
		}
	}
	p := &Program{
		Instructions: b.ops,
		Functions:    b.functions,
	}
	if err := p.Verify(); err != nil {
		return nil, err
	}
	return p, nil
}
