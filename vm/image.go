package vm

import (
	"fmt"
	"io"

	"github.com/shamaton/msgpack/v2"
)

const imageVersion = 1

type programImage struct {
	Version      int
	Functions    []functionImage
	Instructions []instructionImage
}

type functionImage struct {
	Name     string
	Location int
	Arity    int
	Params   []string
}

type instructionImage struct {
	Kind     Kind
	Left     string
	Op       Operator
	X        *operandImage
	Y        *operandImage
	Param    string
	Function string
	Argc     int
	Target   int
	Line     int
}

type operandImage struct {
	Kind  OperandKind
	Const WireValue
	Name  string
	Op    Operator
	X     *operandImage
	Y     *operandImage
}

// EncodeProgram writes p as a msgpack image.
func EncodeProgram(w io.Writer, p *Program) error {
	img := programImage{Version: imageVersion}
	for _, f := range p.SortedFunctions() {
		img.Functions = append(img.Functions, functionImage{
			Name:     f.Name,
			Location: f.Location,
			Arity:    f.Arity,
			Params:   f.Params,
		})
	}
	for i := range p.Instructions {
		inst := &p.Instructions[i]
		ii := instructionImage{
			Kind:   inst.Kind,
			Left:   inst.Left,
			Op:     inst.Op,
			X:      operandToImage(inst.X),
			Y:      operandToImage(inst.Y),
			Param:  inst.Param,
			Argc:   inst.Argc,
			Target: inst.Target,
			Line:   inst.Line,
		}
		if inst.Function != nil {
			ii.Function = inst.Function.Name
		}
		img.Instructions = append(img.Instructions, ii)
	}
	return msgpack.MarshalWrite(w, img)
}

// DecodeProgram reads an image written by EncodeProgram, relinks call
// targets and verifies the result.
func DecodeProgram(r io.Reader) (*Program, error) {
	var img programImage
	if err := msgpack.UnmarshalRead(r, &img); err != nil {
		return nil, fmt.Errorf("decoding program image: %w", err)
	}
	if img.Version != imageVersion {
		return nil, fmt.Errorf("unsupported program image version %d", img.Version)
	}
	p := &Program{
		Functions:    make(map[string]*FunctionInfo, len(img.Functions)),
		Instructions: make([]Instruction, len(img.Instructions)),
	}
	for _, f := range img.Functions {
		p.Functions[f.Name] = &FunctionInfo{
			Name:     f.Name,
			Location: f.Location,
			Arity:    f.Arity,
			Params:   f.Params,
		}
	}
	for i, ii := range img.Instructions {
		x, err := operandFromImage(ii.X)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		y, err := operandFromImage(ii.Y)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		inst := Instruction{
			Number: i,
			Kind:   ii.Kind,
			Left:   ii.Left,
			Op:     ii.Op,
			X:      x,
			Y:      y,
			Param:  ii.Param,
			Argc:   ii.Argc,
			Target: ii.Target,
			Line:   ii.Line,
		}
		if ii.Function != "" {
			f, ok := p.Functions[ii.Function]
			if !ok {
				return nil, fmt.Errorf("instruction %d: call to unknown function %s", i, ii.Function)
			}
			inst.Function = f
		}
		p.Instructions[i] = inst
	}
	if err := p.Verify(); err != nil {
		return nil, err
	}
	return p, nil
}

func operandToImage(o Operand) *operandImage {
	if o.IsZero() {
		return nil
	}
	img := &operandImage{Kind: o.Kind, Name: o.Name, Op: o.Op}
	if o.Kind == ConstOperand {
		img.Const = ToWire(o.Const)
	}
	if o.X != nil {
		img.X = operandToImage(*o.X)
	}
	if o.Y != nil {
		img.Y = operandToImage(*o.Y)
	}
	return img
}

func operandFromImage(img *operandImage) (Operand, error) {
	if img == nil {
		return Operand{}, nil
	}
	o := Operand{Kind: img.Kind, Name: img.Name, Op: img.Op}
	if img.Kind == ConstOperand {
		v, err := FromWire(img.Const)
		if err != nil {
			return Operand{}, err
		}
		o.Const = v
	}
	if img.X != nil {
		x, err := operandFromImage(img.X)
		if err != nil {
			return Operand{}, err
		}
		o.X = &x
	}
	if img.Y != nil {
		y, err := operandFromImage(img.Y)
		if err != nil {
			return Operand{}, err
		}
		o.Y = &y
	}
	return o, nil
}
