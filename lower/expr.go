package lower

import (
	"math/big"

	"solis/ast"
	"solis/cfg"
	"solis/report"
	"solis/typing"
)

var binOps = map[int]int{
	ast.OpAdd:        cfg.BinAdd,
	ast.OpSub:        cfg.BinSub,
	ast.OpMul:        cfg.BinMul,
	ast.OpDiv:        cfg.BinDiv,
	ast.OpMod:        cfg.BinMod,
	ast.OpPow:        cfg.BinPow,
	ast.OpBitAnd:     cfg.BinBitAnd,
	ast.OpBitOr:      cfg.BinBitOr,
	ast.OpBitXor:     cfg.BinBitXor,
	ast.OpShiftLeft:  cfg.BinShiftLeft,
	ast.OpShiftRight: cfg.BinShiftRight,
	ast.OpEq:         cfg.BinEq,
	ast.OpNotEq:      cfg.BinNotEq,
	ast.OpLess:       cfg.BinLess,
	ast.OpLessEq:     cfg.BinLessEq,
	ast.OpGreater:    cfg.BinGreater,
	ast.OpGreaterEq:  cfg.BinGreaterEq,
}

var unOps = map[int]int{
	ast.OpNot:        cfg.UnNot,
	ast.OpComplement: cfg.UnComplement,
	ast.OpNegate:     cfg.UnNegate,
}

// lowerExpr lowers an expression to a side-effect free operand, emitting
// instructions for any side effects on the way.
func (l *Lowerer) lowerExpr(expr ast.ASTExpr, placeholder *cfg.Call) cfg.Expression {
	switch e := expr.(type) {
	case *ast.BoolLit:
		return &cfg.BoolLiteral{Value: e.Value}
	case *ast.NumberLit:
		return &cfg.NumberLiteral{Type: e.Type(), Value: e.Value}
	case *ast.BytesLit:
		return &cfg.BytesLiteral{Type: e.Type(), Value: e.Value}
	case *ast.VarRef:
		return &cfg.Variable{Type: e.Type(), Slot: l.slot(e.Var)}
	case *ast.StorageVarRef:
		// a state variable reference is its storage key
		return &cfg.NumberLiteral{Type: e.Type(), Value: new(big.Int).SetUint64(e.Var.Slot)}
	case *ast.StorageLoad:
		return &cfg.StorageLoad{Type: e.Type(), Storage: l.lowerExpr(e.Ref, placeholder)}
	case *ast.Load:
		return &cfg.Load{Type: e.Type(), Ref: l.lowerExpr(e.Ref, placeholder)}
	case *ast.Binary:
		if e.Op == ast.OpLogicalOr || e.Op == ast.OpLogicalAnd {
			return l.lowerShortCircuit(e, placeholder)
		}

		return &cfg.Binary{
			Type: e.Type(),
			Op:   binOps[e.Op],
			Lhs:  l.lowerExpr(e.Lhs, placeholder),
			Rhs:  l.lowerExpr(e.Rhs, placeholder),
		}
	case *ast.Unary:
		return &cfg.Unary{
			Type:    e.Type(),
			Op:      unOps[e.Op],
			Operand: l.lowerExpr(e.Operand, placeholder),
		}
	case *ast.Ternary:
		return l.lowerTernary(e, placeholder)
	case *ast.Cast:
		return l.castTo(l.lowerExpr(e.Src, placeholder), e.Type())
	case *ast.Assign:
		return l.lowerAssign(e, placeholder)
	case *ast.InternalCall:
		return l.singleValue(l.lowerInternalCall(e, placeholder))
	case *ast.ExternalCall:
		return l.singleValue(l.lowerExternalCall(e, -1, nil, placeholder))
	case *ast.AllocDynamic:
		return &cfg.AllocDynamic{
			Type:        e.Type(),
			Size:        l.castTo(l.lowerExpr(e.Size, placeholder), typing.Uint32),
			Initializer: e.Initializer,
		}
	case *ast.ArrayLength:
		// read the cached length temporary instead of requerying when the
		// operand is an array we allocated ourselves
		if vr, ok := e.Array.(*ast.VarRef); ok {
			if temp, cached := l.arrayLen[l.slot(vr.Var)]; cached {
				return &cfg.Variable{Type: typing.Uint32, Slot: temp}
			}
		}

		return &cfg.ArrayLength{Array: l.lowerExpr(e.Array, placeholder)}
	case *ast.Index:
		return &cfg.Subscript{
			Type:  e.Type(),
			Array: l.lowerExpr(e.Array, placeholder),
			Index: l.lowerExpr(e.Idx, placeholder),
		}
	default:
		report.ReportICE("lowering unknown expression %T", expr)
		return nil
	}
}

// singleValue reads a call's results as one value.
func (l *Lowerer) singleValue(slots []int) cfg.Expression {
	if len(slots) != 1 {
		report.ReportICE("call returning %d values used as a single value", len(slots))
	}

	slot := slots[0]
	return &cfg.Variable{Type: l.vars.Get(slot).Type, Slot: slot}
}

// -----------------------------------------------------------------------------

// castTo wraps an operand in a cast unless it already has the target type.
func (l *Lowerer) castTo(expr cfg.Expression, to typing.Type) cfg.Expression {
	if typing.Equals(expr.Ty(), to) {
		return expr
	}

	return &cfg.Cast{Type: to, Expr: expr}
}

// loadAndCast reads an operand through a storage or memory reference when the
// target type wants the value rather than the reference, then casts.
func (l *Lowerer) loadAndCast(expr cfg.Expression, to typing.Type) cfg.Expression {
	switch ty := expr.Ty().(type) {
	case *typing.StorageRefType:
		if !typing.Equals(expr.Ty(), to) {
			expr = &cfg.StorageLoad{Type: ty.Elem, Storage: expr}
		}
	case *typing.RefType:
		if !typing.Equals(expr.Ty(), to) {
			expr = &cfg.Load{Type: ty.Elem, Ref: expr}
		}
	}

	return l.castTo(expr, to)
}

// valueType strips one level of reference off a type.
func valueType(t typing.Type) typing.Type {
	switch ty := t.(type) {
	case *typing.StorageRefType:
		return ty.Elem
	case *typing.RefType:
		return ty.Elem
	default:
		return t
	}
}

// -----------------------------------------------------------------------------

// lowerShortCircuit lowers a logical or/and, evaluating the right operand
// conditionally through a temporary whose single slot is reconciled at the
// join.
func (l *Lowerer) lowerShortCircuit(e *ast.Binary, placeholder *cfg.Call) cfg.Expression {
	lhs := l.castTo(l.lowerExpr(e.Lhs, placeholder), typing.Bool)

	var pos int
	var rightSide, end int

	if e.Op == ast.OpLogicalOr {
		pos = l.vars.Temp("or", typing.Bool)
		rightSide = l.graph.NewBlock("or_right_side")
		end = l.graph.NewBlock("or_end")

		l.graph.Add(&cfg.Set{InstrBase: cfg.At(e.Span()), Res: pos, Expr: &cfg.BoolLiteral{Value: true}})
		l.graph.Add(&cfg.BranchCond{
			InstrBase: cfg.At(e.Span()),
			Cond:      lhs,
			TrueBlock: end, FalseBlock: rightSide,
		})
	} else {
		pos = l.vars.Temp("and", typing.Bool)
		rightSide = l.graph.NewBlock("and_right_side")
		end = l.graph.NewBlock("and_end")

		l.graph.Add(&cfg.Set{InstrBase: cfg.At(e.Span()), Res: pos, Expr: &cfg.BoolLiteral{Value: false}})
		l.graph.Add(&cfg.BranchCond{
			InstrBase: cfg.At(e.Span()),
			Cond:      lhs,
			TrueBlock: rightSide, FalseBlock: end,
		})
	}

	l.graph.SetBlock(rightSide)

	rhs := l.castTo(l.lowerExpr(e.Rhs, placeholder), typing.Bool)
	l.graph.Add(&cfg.Set{InstrBase: cfg.At(e.Rhs.Span()), Res: pos, Expr: rhs})

	phis := make(cfg.SlotSet)
	phis.Add(pos)
	l.graph.SetPhis(end, phis)

	l.graph.Add(&cfg.Branch{Block: end})
	l.graph.SetBlock(end)

	return &cfg.Variable{Type: typing.Bool, Slot: pos}
}

// lowerTernary lowers a conditional expression in value position into a
// temporary assigned on both arms.
func (l *Lowerer) lowerTernary(e *ast.Ternary, placeholder *cfg.Call) cfg.Expression {
	cond := l.castTo(l.lowerExpr(e.Cond, placeholder), typing.Bool)

	pos := l.vars.Temp("ternary", e.Type())

	left := l.graph.NewBlock("left")
	right := l.graph.NewBlock("right")
	done := l.graph.NewBlock("done")

	l.graph.Add(&cfg.BranchCond{
		InstrBase: cfg.At(e.Cond.Span()),
		Cond:      cond,
		TrueBlock: left, FalseBlock: right,
	})

	l.vars.NewDirtyTracker()

	l.graph.SetBlock(left)
	l.graph.Add(&cfg.Set{
		InstrBase: cfg.At(e.TrueExpr.Span()),
		Res:       pos,
		Expr:      l.loadAndCast(l.lowerExpr(e.TrueExpr, placeholder), e.Type()),
	})
	l.graph.Add(&cfg.Branch{Block: done})

	l.graph.SetBlock(right)
	l.graph.Add(&cfg.Set{
		InstrBase: cfg.At(e.FalseExpr.Span()),
		Res:       pos,
		Expr:      l.loadAndCast(l.lowerExpr(e.FalseExpr, placeholder), e.Type()),
	})
	l.graph.Add(&cfg.Branch{Block: done})

	l.graph.SetPhis(done, l.vars.PopDirtyTracker())
	l.graph.SetBlock(done)

	return &cfg.Variable{Type: e.Type(), Slot: pos}
}

// -----------------------------------------------------------------------------

// lowerAssign lowers an assignment in expression position, yielding the
// assigned value.
func (l *Lowerer) lowerAssign(e *ast.Assign, placeholder *cfg.Call) cfg.Expression {
	var to typing.Type
	if vr, ok := e.Lhs.(*ast.VarRef); ok {
		to = vr.Var.Type
	} else {
		to = valueType(e.Lhs.Type())
	}

	value := l.loadAndCast(l.lowerExpr(e.Rhs, placeholder), to)
	l.assignTo(e.Lhs, value, e.Span(), placeholder)

	return value
}

// assignTo writes a value through an assignable expression: directly for a
// variable, through the reference for storage and memory targets.
func (l *Lowerer) assignTo(lhs ast.ASTExpr, value cfg.Expression, span *report.TextSpan, placeholder *cfg.Call) {
	switch target := lhs.(type) {
	case *ast.VarRef:
		slot := l.slot(target.Var)

		// a reassigned array no longer matches its cached length
		delete(l.arrayLen, slot)

		l.graph.Add(&cfg.Set{InstrBase: cfg.At(span), Res: slot, Expr: value})
	case *ast.StorageVarRef:
		l.graph.Add(&cfg.SetStorage{
			InstrBase: cfg.At(span),
			Storage:   l.lowerExpr(target, placeholder),
			Value:     value,
		})
	default:
		dest := l.lowerExpr(lhs, placeholder)

		switch dest.Ty().(type) {
		case *typing.StorageRefType:
			l.graph.Add(&cfg.SetStorage{InstrBase: cfg.At(span), Storage: dest, Value: value})
		case *typing.RefType:
			l.graph.Add(&cfg.Store{InstrBase: cfg.At(span), Dest: dest, Data: value})
		default:
			report.ReportICE("assignment to non-assignable expression %T", lhs)
		}
	}
}

// -----------------------------------------------------------------------------

// lowerInternalCall emits a call to another function of the unit, capturing
// its results in fresh temporaries.
func (l *Lowerer) lowerInternalCall(call *ast.InternalCall, placeholder *cfg.Call) []int {
	callee := l.contract.Functions[call.FuncNo]

	args := make([]cfg.Expression, len(call.Args))
	for i, arg := range call.Args {
		args[i] = l.loadAndCast(l.lowerExpr(arg, placeholder), callee.Params[i].Type)
	}

	res := make([]int, len(call.Returns))
	for i, ty := range call.Returns {
		res[i] = l.vars.Temp("ret", ty)
	}

	l.graph.Add(&cfg.Call{
		InstrBase: cfg.At(call.Span()),
		Res:       res,
		FuncNo:    call.FuncNo,
		Args:      args,
	})

	return res
}

// lowerExternalCall emits a call into another contract.  When success is a
// valid slot the caller handles failure itself; otherwise the runtime
// reverts on failure.  When res is nil fresh temporaries capture the
// returns.
func (l *Lowerer) lowerExternalCall(call *ast.ExternalCall, success int, res []int, placeholder *cfg.Call) []int {
	address := l.lowerExpr(call.Address, placeholder)

	args := make([]cfg.Expression, len(call.Args))
	for i, arg := range call.Args {
		args[i] = l.loadAndCast(l.lowerExpr(arg, placeholder), call.Signature.Params[i])
	}

	var value cfg.Expression
	if call.Value != nil {
		value = l.lowerExpr(call.Value, placeholder)
	}

	if res == nil {
		res = make([]int, len(call.Signature.Returns))
		for i, ty := range call.Signature.Returns {
			res[i] = l.vars.Temp("ret", ty)
		}
	}

	l.graph.Add(&cfg.ExternalCall{
		InstrBase: cfg.At(call.Span()),
		Success:   success,
		Address:   address,
		Selector:  call.FuncName,
		Args:      args,
		Value:     value,
		Returns:   res,
	})

	return res
}
