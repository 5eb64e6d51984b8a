package vm

import (
	"errors"
	"fmt"

	"go.starlark.net/syntax"
)

func (cc *compileContext) statement(s syntax.Stmt) error {
	// Record source line for this statement
	cc.setLine(s)

	switch v := s.(type) {
	case *syntax.AssignStmt:
		return cc.assign(v.Op, v.LHS, v.RHS)
	case *syntax.BranchStmt:
		switch v.Token {
		case syntax.PASS:
			return nil
		case syntax.BREAK:
			loop, err := cc.currentLoop()
			if err != nil {
				return err
			}
			cc.b.Goto(loop.brk)
		case syntax.CONTINUE:
			loop, err := cc.currentLoop()
			if err != nil {
				return err
			}
			cc.b.Goto(loop.cont)
		}
	case *syntax.DefStmt:
		return errors.New("Nested defs are unsupported")
	case *syntax.ExprStmt:
		x := unparen(v.X)
		if call, ok := x.(*syntax.CallExpr); ok {
			if handled, err := cc.methodCall(call); handled {
				return err
			}
			if handled, err := cc.specialCall(call); handled {
				return err
			}
			if _, ok := userFunction(cc, call); ok {
				// Result discarded: Call without an assignment target.
				return cc.call(call, "")
			}
		}
		if _, ok := x.(*syntax.Literal); ok {
			// Opt: don't compile literals only to discard them.
			return nil
		}
		o, err := cc.expr(x)
		if err != nil {
			return err
		}
		// Evaluate for effect; a fault still surfaces.
		if o.Kind == ExprOperand {
			cc.b.Assign("", o.Op, cc.flatten(*o.X), flattenOptional(cc, o.Y))
		} else if o.Kind == NameOperand {
			cc.b.Copy("", o)
		}
	case *syntax.ForStmt:
		vars, ok := v.Vars.(*syntax.Ident)
		if !ok {
			return errors.New("Unsupported for variables")
		}
		// for x in seq:
		//   body
		// Compiles to:
		//     $seq = seq
		//     $i = 0
		//   start_label:
		//     IfNot $i < len($seq) Goto end_label
		//     x = $seq[$i]
		//     $i = $i + 1
		//     <body>
		//     Goto start_label
		//   end_label:
		seq, err := cc.expr(v.X)
		if err != nil {
			return err
		}
		seqName := cc.b.NewTemp()
		cc.store(seqName, seq)
		idx := cc.b.NewTemp()
		cc.b.Copy(idx, Const(IntValue(0)))
		startLabel := cc.b.NewLabel()
		endLabel := cc.b.NewLabel()
		cc.b.MarkLabel(startLabel)
		cc.b.IfNotGoto(Expr(OpLt, Name(idx), Expr(OpLen, Name(seqName), Operand{})), endLabel)
		cc.b.Assign(vars.Name, OpIndex, Name(seqName), Name(idx))
		cc.b.Assign(idx, OpAdd, Name(idx), Const(IntValue(1)))
		cc.pushLoop(startLabel, endLabel)
		err = cc.buildFromStatements(v.Body)
		cc.popLoop()
		if err != nil {
			return err
		}
		cc.b.Goto(startLabel)
		cc.b.MarkLabel(endLabel)
	case *syntax.WhileStmt:
		// while condition:
		//   body
		// Compiles to:
		//   start_label:
		//     IfNot <condition> Goto end_label
		//     <body>
		//     Goto start_label
		//   end_label:
		startLabel := cc.b.NewLabel()
		endLabel := cc.b.NewLabel()
		cc.b.MarkLabel(startLabel)
		cond, err := cc.expr(v.Cond)
		if err != nil {
			return err
		}
		cc.b.IfNotGoto(cond, endLabel)
		cc.pushLoop(startLabel, endLabel)
		err = cc.buildFromStatements(v.Body)
		cc.popLoop()
		if err != nil {
			return err
		}
		cc.b.Goto(startLabel)
		cc.b.MarkLabel(endLabel)
	case *syntax.IfStmt:
		cond, err := cc.expr(v.Cond)
		if err != nil {
			return err
		}
		label := cc.b.NewLabel()
		cc.b.IfNotGoto(cond, label)
		if err := cc.buildFromStatements(v.True); err != nil {
			return err
		}
		if len(v.False) == 0 {
			cc.b.MarkLabel(label)
			return nil
		}
		endLabel := cc.b.NewLabel()
		cc.b.Goto(endLabel)
		cc.b.MarkLabel(label)
		if err := cc.buildFromStatements(v.False); err != nil {
			return err
		}
		cc.b.MarkLabel(endLabel)
	case *syntax.LoadStmt:
		return errors.New("LoadStmt is unimplemented")
	case *syntax.ReturnStmt:
		if v.Result == nil {
			cc.b.Return(Operand{})
			return nil
		}
		o, err := cc.expr(v.Result)
		if err != nil {
			return err
		}
		cc.b.Return(o)
	default:
		return fmt.Errorf("Unhandled statment type %T", s)
	}
	return nil
}

func flattenOptional(cc *compileContext, o *Operand) Operand {
	if o == nil {
		return Operand{}
	}
	return cc.flatten(*o)
}

func (cc *compileContext) expr(e syntax.Expr) (Operand, error) {
	switch v := e.(type) {
	case *syntax.BinaryExpr:
		// Handle short-circuit operators (AND, OR) specially
		if v.Op == syntax.AND || v.Op == syntax.OR {
			return cc.shortCircuitBinOp(v)
		}
		x, err := cc.expr(v.X)
		if err != nil {
			return Operand{}, err
		}
		y, err := cc.expr(v.Y)
		if err != nil {
			return Operand{}, err
		}
		return binOp(v.Op, x, y)
	case *syntax.CallExpr:
		if i, ok := intrinsicCall(v); ok {
			return cc.intrinsic(v, i)
		}
		if _, ok := v.Fn.(*syntax.DotExpr); ok {
			return Operand{}, errors.New("method calls are only supported as statements")
		}
		if fn, ok := v.Fn.(*syntax.Ident); ok && isSpecial(fn.Name) {
			return Operand{}, fmt.Errorf("%s() can't be used as a value", fn.Name)
		}
		t := cc.b.NewTemp()
		if err := cc.call(v, t); err != nil {
			return Operand{}, err
		}
		return Name(t), nil
	case *syntax.Comprehension:
		return Operand{}, errors.New("Comprehensions are as yet unsupported")
	case *syntax.CondExpr:
		cond, err := cc.expr(v.Cond)
		if err != nil {
			return Operand{}, err
		}
		t := cc.b.NewTemp()
		label := cc.b.NewLabel()
		cc.b.IfNotGoto(cond, label)
		tv, err := cc.expr(v.True)
		if err != nil {
			return Operand{}, err
		}
		cc.store(t, tv)
		endLabel := cc.b.NewLabel()
		cc.b.Goto(endLabel)
		cc.b.MarkLabel(label)
		fv, err := cc.expr(v.False)
		if err != nil {
			return Operand{}, err
		}
		cc.store(t, fv)
		cc.b.MarkLabel(endLabel)
		return Name(t), nil
	case *syntax.DictExpr:
		t := cc.b.NewTemp()
		cc.b.Copy(t, Const(StructValue{}))
		for _, item := range v.List {
			entry, ok := item.(*syntax.DictEntry)
			if !ok {
				return Operand{}, fmt.Errorf("Unhandled dict item %T", item)
			}
			key, err := cc.atom(entry.Key)
			if err != nil {
				return Operand{}, err
			}
			val, err := cc.atom(entry.Value)
			if err != nil {
				return Operand{}, err
			}
			cc.b.SetIndex(t, key, val)
		}
		return Name(t), nil
	case *syntax.DotExpr:
		x, err := cc.expr(v.X)
		if err != nil {
			return Operand{}, err
		}
		return Expr(OpIndex, x, Const(StrValue(v.Name.Name))), nil
	case *syntax.Ident:
		switch v.Name {
		case "True":
			return Const(BoolTrue), nil
		case "False":
			return Const(BoolFalse), nil
		case "None":
			return Const(None), nil
		}
		return Name(v.Name), nil
	case *syntax.IndexExpr:
		x, err := cc.expr(v.X)
		if err != nil {
			return Operand{}, err
		}
		y, err := cc.expr(v.Y)
		if err != nil {
			return Operand{}, err
		}
		return Expr(OpIndex, x, y), nil
	case *syntax.LambdaExpr:
		return Operand{}, errors.New("Lambda expressions are unsupported")
	case *syntax.ListExpr:
		return cc.list(v.List)
	case *syntax.TupleExpr:
		return cc.list(v.List)
	case *syntax.Literal:
		val, err := litToValue(v.Value)
		if err != nil {
			return Operand{}, err
		}
		return Const(val), nil
	case *syntax.ParenExpr:
		return cc.expr(unparen(v))
	case *syntax.SliceExpr:
		return Operand{}, errors.New("Slice expressions are unsupported")
	case *syntax.UnaryExpr:
		x, err := cc.expr(v.X)
		if err != nil {
			return Operand{}, err
		}
		switch v.Op {
		case syntax.MINUS:
			return Expr(OpNeg, x, Operand{}), nil
		case syntax.PLUS:
			return x, nil
		case syntax.NOT:
			return Expr(OpNot, x, Operand{}), nil
		}
		return Operand{}, fmt.Errorf("Unhandled unary operation %s", v.Op)
	}
	return Operand{}, fmt.Errorf("Unhandled expr type %T", e)
}

// list lowers a list literal. All-constant lists become a single constant.
func (cc *compileContext) list(items []syntax.Expr) (Operand, error) {
	ops := make([]Operand, 0, len(items))
	constant := true
	for _, item := range items {
		o, err := cc.atom(item)
		if err != nil {
			return Operand{}, err
		}
		if o.Kind != ConstOperand {
			constant = false
		}
		ops = append(ops, o)
	}
	if constant {
		arr := make(ArrayValue, len(ops))
		for i, o := range ops {
			arr[i] = o.Const
		}
		return Const(arr), nil
	}
	t := cc.b.NewTemp()
	cc.b.Copy(t, Const(ArrayValue{}))
	for _, o := range ops {
		cc.b.Assign(t, OpAppend, Name(t), o)
	}
	return Name(t), nil
}

// shortCircuitBinOp handles AND and OR operators with short-circuit evaluation
func (cc *compileContext) shortCircuitBinOp(e *syntax.BinaryExpr) (Operand, error) {
	// and:                          or:
	//   t = left                      t = left
	//   IfNot t Goto end              IfNot (not t) Goto end
	//   t = right                     t = right
	// end:                          end:
	x, err := cc.expr(e.X)
	if err != nil {
		return Operand{}, err
	}
	t := cc.b.NewTemp()
	cc.store(t, x)
	endLabel := cc.b.NewLabel()
	if e.Op == syntax.AND {
		cc.b.IfNotGoto(Name(t), endLabel)
	} else {
		cc.b.IfNotGoto(Expr(OpNot, Name(t), Operand{}), endLabel)
	}
	y, err := cc.expr(e.Y)
	if err != nil {
		return Operand{}, err
	}
	cc.store(t, y)
	cc.b.MarkLabel(endLabel)
	return Name(t), nil
}

var binOps = map[syntax.Token]Operator{
	syntax.PLUS:       OpAdd,
	syntax.MINUS:      OpSub,
	syntax.STAR:       OpMul,
	syntax.SLASH:      OpDiv,
	syntax.SLASHSLASH: OpFloorDiv,
	syntax.PERCENT:    OpMod,
	syntax.LT:         OpLt,
	syntax.GT:         OpGt,
	syntax.GE:         OpGte,
	syntax.LE:         OpLte,
	syntax.EQL:        OpEq,
	syntax.NEQ:        OpNeq,
	syntax.IN:         OpIn,
}

var augmentedOps = map[syntax.Token]syntax.Token{
	syntax.PLUS_EQ:       syntax.PLUS,
	syntax.MINUS_EQ:      syntax.MINUS,
	syntax.STAR_EQ:       syntax.STAR,
	syntax.SLASH_EQ:      syntax.SLASH,
	syntax.SLASHSLASH_EQ: syntax.SLASHSLASH,
	syntax.PERCENT_EQ:    syntax.PERCENT,
}

func binOp(op syntax.Token, x, y Operand) (Operand, error) {
	if op == syntax.NOT_IN {
		return Expr(OpNot, Expr(OpIn, x, y), Operand{}), nil
	}
	o, ok := binOps[op]
	if !ok {
		return Operand{}, fmt.Errorf("compileContext: Unhandled binary operation %s", op)
	}
	return Expr(o, x, y), nil
}

func (cc *compileContext) assign(op syntax.Token, lhs syntax.Expr, rhs syntax.Expr) error {
	val, err := cc.expr(rhs)
	if err != nil {
		return err
	}
	if op != syntax.EQ {
		bop, ok := augmentedOps[op]
		if !ok {
			return fmt.Errorf("Unhandled assignment operator %s", op)
		}
		cur, err := cc.expr(lhs)
		if err != nil {
			return err
		}
		val, err = binOp(bop, cur, val)
		if err != nil {
			return err
		}
	}
	switch v := unparen(lhs).(type) {
	case *syntax.Ident:
		// Retarget a call's result straight at the variable instead of
		// copying it out of a temporary.
		if _, isCall := unparen(rhs).(*syntax.CallExpr); isCall && op == syntax.EQ {
			last := cc.b.Last()
			if last != nil && last.Kind == Call && val.Kind == NameOperand && last.Left == val.Name {
				last.Left = v.Name
				return nil
			}
		}
		cc.store(v.Name, val)
	case *syntax.IndexExpr:
		target, ok := unparen(v.X).(*syntax.Ident)
		if !ok {
			return errors.New("assign: only indexing a variable is supported")
		}
		key, err := cc.atom(v.Y)
		if err != nil {
			return err
		}
		cc.b.SetIndex(target.Name, key, cc.flatten(val))
	case *syntax.DotExpr:
		target, ok := unparen(v.X).(*syntax.Ident)
		if !ok {
			return errors.New("assign: only fields of a variable are supported")
		}
		cc.b.SetIndex(target.Name, Const(StrValue(v.Name.Name)), cc.flatten(val))
	default:
		return fmt.Errorf("assign: Unhandled LHS expr type %T", lhs)
	}
	return nil
}
