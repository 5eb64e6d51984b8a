package vm

import (
	"fmt"
	"slices"

	"go.starlark.net/syntax"
)

type Special string

const (
	PrintSpecial Special = "print"
	HaltSpecial  Special = "halt"
)

var allSpecials = []Special{
	PrintSpecial,
	HaltSpecial,
}

func isSpecial(name string) bool {
	return slices.Contains(allSpecials, Special(name))
}

// specialCall lowers calls that map to dedicated instructions rather than
// to a Call.
func (cc *compileContext) specialCall(call *syntax.CallExpr) (bool, error) {
	fn, ok := call.Fn.(*syntax.Ident)
	if !ok || !isSpecial(fn.Name) {
		return false, nil
	}
	switch Special(fn.Name) {
	case PrintSpecial:
		if len(call.Args) == 0 {
			cc.b.Print(Const(StrValue("")))
			return true, nil
		}
		// print(a, b) prints str(a) + " " + str(b)
		var line Operand
		for i, a := range call.Args {
			o, err := cc.expr(a)
			if err != nil {
				return true, err
			}
			o = Expr(OpStr, o, Operand{})
			if i == 0 {
				line = o
				continue
			}
			line = Expr(OpAdd, Expr(OpAdd, line, Const(StrValue(" "))), o)
		}
		cc.b.Print(line)
	case HaltSpecial:
		if len(call.Args) != 0 {
			return true, fmt.Errorf("%s() takes no arguments", fn.Name)
		}
		cc.b.Halt()
	default:
		return true, fmt.Errorf("Unhandled special: %s", fn.Name)
	}
	return true, nil
}

// methodCall lowers list.append(x) on a variable into an in-place
// reassignment of that variable.
func (cc *compileContext) methodCall(call *syntax.CallExpr) (bool, error) {
	dot, ok := call.Fn.(*syntax.DotExpr)
	if !ok {
		return false, nil
	}
	recv, ok := dot.X.(*syntax.Ident)
	if !ok {
		return true, fmt.Errorf("method %s called on an expression; only variables are supported", dot.Name.Name)
	}
	switch dot.Name.Name {
	case "append":
		if len(call.Args) != 1 {
			return true, fmt.Errorf("append expects 1 argument, got %d", len(call.Args))
		}
		arg, err := cc.atom(call.Args[0])
		if err != nil {
			return true, err
		}
		cc.b.Assign(recv.Name, OpAppend, Name(recv.Name), arg)
		return true, nil
	}
	return true, fmt.Errorf("unknown method %s", dot.Name.Name)
}

func intrinsicCall(call *syntax.CallExpr) (Intrinsic, bool) {
	fn, ok := call.Fn.(*syntax.Ident)
	if !ok {
		return Intrinsic{}, false
	}
	i, ok := Intrinsics[fn.Name]
	return i, ok
}

func (cc *compileContext) intrinsic(call *syntax.CallExpr, i Intrinsic) (Operand, error) {
	name := call.Fn.(*syntax.Ident).Name
	if len(call.Args) < i.MinArgs || len(call.Args) > i.MaxArgs {
		return Operand{}, fmt.Errorf("%s() takes %d to %d arguments, got %d", name, i.MinArgs, i.MaxArgs, len(call.Args))
	}
	args := make([]Operand, len(call.Args))
	for n, a := range call.Args {
		o, err := cc.expr(a)
		if err != nil {
			return Operand{}, err
		}
		args[n] = o
	}
	if i.Op.Unary() {
		return Expr(i.Op, args[0], Operand{}), nil
	}
	if len(args) == 1 {
		// range(n) is range(0, n)
		return Expr(i.Op, Const(IntValue(0)), args[0]), nil
	}
	return Expr(i.Op, args[0], args[1]), nil
}

func userFunction(cc *compileContext, call *syntax.CallExpr) (*FunctionInfo, bool) {
	fn, ok := call.Fn.(*syntax.Ident)
	if !ok {
		return nil, false
	}
	return cc.b.Function(fn.Name)
}

// call lowers a call to a user function: every argument is evaluated
// first, then staged with PushParameter, then the Call consumes them.
// Staging happens only after evaluation so a nested call never
// interleaves its parameters with ours.
func (cc *compileContext) call(call *syntax.CallExpr, left string) error {
	fnIdent, ok := call.Fn.(*syntax.Ident)
	if !ok {
		return fmt.Errorf("Unsupported callee %T", call.Fn)
	}
	f, ok := cc.b.Function(fnIdent.Name)
	if !ok {
		return fmt.Errorf("call to undefined function %s", fnIdent.Name)
	}

	type staged struct {
		name string
		val  Operand
	}
	var args []staged
	bound := make(map[string]bool)
	keywords := false
	for i, a := range call.Args {
		var name string
		var valExpr syntax.Expr
		if kw, ok := a.(*syntax.BinaryExpr); ok && kw.Op == syntax.EQ {
			id, ok := kw.X.(*syntax.Ident)
			if !ok {
				return fmt.Errorf("call to %s: keyword must be an identifier", f.Name)
			}
			if !slices.Contains(f.Params, id.Name) {
				return fmt.Errorf("call to %s: unexpected keyword argument %s", f.Name, id.Name)
			}
			name, valExpr = id.Name, kw.Y
			keywords = true
		} else {
			if keywords {
				return fmt.Errorf("call to %s: positional argument follows keyword argument", f.Name)
			}
			if i >= len(f.Params) {
				return fmt.Errorf("call to %s: takes %d arguments, got %d", f.Name, f.Arity, len(call.Args))
			}
			name, valExpr = f.Params[i], a
		}
		if bound[name] {
			return fmt.Errorf("call to %s: argument %s given twice", f.Name, name)
		}
		bound[name] = true
		o, err := cc.expr(valExpr)
		if err != nil {
			return err
		}
		args = append(args, staged{name: name, val: o})
	}
	if len(args) != f.Arity {
		return fmt.Errorf("call to %s: takes %d arguments, got %d", f.Name, f.Arity, len(args))
	}
	for _, a := range args {
		cc.b.PushParameter(a.name, a.val)
	}
	cc.b.Call(f, len(args), left)
	return nil
}
