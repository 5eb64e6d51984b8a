package vm

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"go.starlark.net/syntax"
)

type loopLabels struct {
	cont string
	brk  string
}

type compileContext struct {
	b        *Builder
	topLevel bool
	fn       *FunctionInfo
	loops    []loopLabels
}

func newCompileContext(b *Builder) *compileContext {
	return &compileContext{b: b}
}

var fileOptions = syntax.FileOptions{
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

func CompilePath(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFile(path, f)
}

// CompileLiteral compiles source code held in a string.
func CompileLiteral(code string) (*Program, error) {
	return LoadFile("literal.star", strings.NewReader(code))
}

// Compile lowers a parsed file. Top-level statements run first and end
// with a Halt; function bodies follow in declaration order.
func Compile(file *syntax.File) (*Program, error) {
	b := NewBuilder()
	cc := newCompileContext(b)
	cc.topLevel = true

	var defs []*syntax.DefStmt
	var main []syntax.Stmt
	for _, s := range file.Stmts {
		def, ok := s.(*syntax.DefStmt)
		if !ok {
			main = append(main, s)
			continue
		}
		params, err := getFunctionParams(def.Params)
		if err != nil {
			return nil, fmt.Errorf("def %s: %w", def.Name.Name, err)
		}
		if _, err := b.Declare(def.Name.Name, params); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	if err := cc.buildFromStatements(main); err != nil {
		return nil, err
	}
	b.Halt()

	for _, def := range defs {
		if err := cc.function(def); err != nil {
			return nil, fmt.Errorf("def %s: %w", def.Name.Name, err)
		}
	}
	return b.Build()
}

func (cc *compileContext) function(def *syntax.DefStmt) error {
	f, _ := cc.b.Function(def.Name.Name)
	sub := newCompileContext(cc.b)
	sub.fn = f
	sub.setLine(def)
	cc.b.BeginFunction(f)
	if err := sub.buildFromStatements(def.Body); err != nil {
		return err
	}
	// A label bound past the last instruction needs something to land on.
	last := cc.b.Last()
	if cc.b.Len() == f.Location || last.Kind != Return || cc.b.Labeled(cc.b.Len()) {
		cc.b.Return(Operand{})
	}
	return nil
}

func (cc *compileContext) buildFromStatements(stmts []syntax.Stmt) error {
	for _, s := range stmts {
		err := cc.statement(s)
		if err != nil {
			return err
		}
	}
	return nil
}

func (cc *compileContext) setLine(n syntax.Node) {
	start, _ := n.Span()
	cc.b.SetLine(int(start.Line))
}

func (cc *compileContext) pushLoop(cont, brk string) {
	cc.loops = append(cc.loops, loopLabels{cont: cont, brk: brk})
}

func (cc *compileContext) popLoop() {
	cc.loops = cc.loops[:len(cc.loops)-1]
}

func (cc *compileContext) currentLoop() (loopLabels, error) {
	if len(cc.loops) == 0 {
		return loopLabels{}, errors.New("break or continue outside of a loop")
	}
	return cc.loops[len(cc.loops)-1], nil
}

// store assigns o to target, flattening nested expressions into
// temporaries so the emitted instruction has at most two atomic operands.
func (cc *compileContext) store(target string, o Operand) {
	if o.Kind != ExprOperand {
		cc.b.Copy(target, o)
		return
	}
	x := cc.flatten(*o.X)
	var y Operand
	if o.Y != nil {
		y = cc.flatten(*o.Y)
	}
	cc.b.Assign(target, o.Op, x, y)
}

func (cc *compileContext) flatten(o Operand) Operand {
	if o.Kind != ExprOperand {
		return o
	}
	t := cc.b.NewTemp()
	cc.store(t, o)
	return Name(t)
}

func (cc *compileContext) atom(e syntax.Expr) (Operand, error) {
	o, err := cc.expr(e)
	if err != nil {
		return Operand{}, err
	}
	return cc.flatten(o), nil
}

func getFunctionParams(e []syntax.Expr) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, x := range e {
		switch v := x.(type) {
		case *syntax.Ident:
			if seen[v.Name] {
				return nil, fmt.Errorf("duplicate parameter %s", v.Name)
			}
			seen[v.Name] = true
			out = append(out, v.Name)
		default:
			return nil, fmt.Errorf("Unhandled function param expr type %T", x)
		}
	}
	return out, nil
}

func unparen(e syntax.Expr) syntax.Expr {
	if p, ok := e.(*syntax.ParenExpr); ok {
		return unparen(p.X)
	}
	return e
}

func litToValue(l any) (Value, error) {
	switch t := l.(type) {
	case int64:
		return IntValue(int(t)), nil
	case *big.Int:
		if !t.IsInt64() {
			return nil, fmt.Errorf("integer literal %s out of range", t)
		}
		return IntValue(int(t.Int64())), nil
	case string:
		return StrValue(t), nil
	case float64:
		return FloatValue(t), nil
	}
	return nil, fmt.Errorf("litToValue: Unsupported literal value type %T", l)
}
