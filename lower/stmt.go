package lower

import (
	"solis/ast"
	"solis/cfg"
	"solis/report"
	"solis/typing"
)

// lowerBlock lowers a statement sequence, returning whether control can fall
// out of its end.  Once a statement is unreachable every following statement
// stays unreachable: the rest of the run is still lowered, into dangling
// blocks with no incoming edge, and warned about once.
func (l *Lowerer) lowerBlock(block *ast.Block, placeholder *cfg.Call) bool {
	reachable := true
	warned := false

	for _, stmt := range block.Stmts {
		if reachable {
			reachable = l.lowerStmt(stmt, placeholder)
			continue
		}

		if !warned {
			l.warnUnreachable(stmt.Span())
			warned = true

			dangling := l.graph.NewBlock("unreachable")
			l.graph.SetBlock(dangling)
		} else if l.graph.Block(l.graph.CurrentBlock()).Terminated() {
			dangling := l.graph.NewBlock("unreachable")
			l.graph.SetBlock(dangling)
		}

		l.lowerStmt(stmt, placeholder)
	}

	return reachable
}

// lowerStmt lowers one statement, returning whether control can reach the
// statement after it.
func (l *Lowerer) lowerStmt(stmt ast.ASTNode, placeholder *cfg.Call) bool {
	switch s := stmt.(type) {
	case *ast.Block:
		return l.lowerBlock(s, placeholder)
	case *ast.VarDeclStmt:
		return l.lowerVarDecl(s, placeholder)
	case *ast.ExprStmt:
		return l.lowerExprStmt(s, placeholder)
	case *ast.IfStmt:
		return l.lowerIf(s, placeholder)
	case *ast.WhileLoop:
		return l.lowerWhile(s, placeholder)
	case *ast.DoWhileLoop:
		return l.lowerDoWhile(s, placeholder)
	case *ast.ForLoop:
		if s.Cond == nil {
			return l.lowerForNoCond(s, placeholder)
		}
		return l.lowerFor(s, placeholder)
	case *ast.ReturnStmt:
		return l.lowerReturn(s, placeholder)
	case *ast.BreakStmt:
		l.graph.Add(&cfg.Branch{InstrBase: cfg.At(s.Span()), Block: l.loops.DoBreak()})
		return false
	case *ast.ContinueStmt:
		l.graph.Add(&cfg.Branch{InstrBase: cfg.At(s.Span()), Block: l.loops.DoContinue()})
		return false
	case *ast.DestructureStmt:
		return l.lowerDestructure(s, placeholder)
	case *ast.TryCatchStmt:
		return l.lowerTryCatch(s, placeholder)
	case *ast.PlaceholderStmt:
		return l.lowerPlaceholder(s, placeholder)
	case *ast.EmitStmt:
		return l.lowerEmit(s, placeholder)
	case *ast.RevertStmt:
		var encoded cfg.Expression
		if s.Data != nil {
			encoded = l.lowerExpr(s.Data, placeholder)
		}

		l.graph.Add(&cfg.AssertFailure{InstrBase: cfg.At(s.Span()), Encoded: encoded})
		return false
	case *ast.DeleteStmt:
		l.graph.Add(&cfg.ClearStorage{
			InstrBase: cfg.At(s.Span()),
			Storage:   l.lowerExpr(s.Target, placeholder),
		})
		return true
	case *ast.AsmBlock:
		return l.lowerAsm(s)
	default:
		report.ReportICE("lowering unknown statement %T", stmt)
		return false
	}
}

// -----------------------------------------------------------------------------

func (l *Lowerer) lowerVarDecl(decl *ast.VarDeclStmt, placeholder *cfg.Call) bool {
	slot := l.slot(decl.Var)
	l.vars.AddVariable(slot, decl.Var)

	if decl.Init == nil {
		// integral variables start at zero; reference values stay unbound
		// until assigned
		if zero := typing.DefaultValue(decl.Var.Type); zero != nil {
			l.graph.Add(&cfg.Set{
				InstrBase: cfg.At(decl.Span()),
				Res:       slot,
				Expr:      &cfg.NumberLiteral{Type: decl.Var.Type, Value: zero},
			})
		}

		return true
	}

	switch init := decl.Init.(type) {
	case *ast.AllocDynamic:
		// Evaluate the size once into a temporary and allocate from that, so
		// later length queries reuse the temporary instead of re-running the
		// size expression.
		size := l.castTo(l.lowerExpr(init.Size, placeholder), typing.Uint32)
		temp := l.vars.Temp(decl.Var.Name+"_length", typing.Uint32)
		l.graph.Add(&cfg.Set{InstrBase: cfg.At(init.Size.Span()), Res: temp, Expr: size})

		l.graph.Add(&cfg.Set{
			InstrBase: cfg.At(decl.Span()),
			Res:       slot,
			Expr: &cfg.AllocDynamic{
				Type:        init.Type(),
				Size:        &cfg.Variable{Type: typing.Uint32, Slot: temp},
				Initializer: init.Initializer,
			},
		})
		l.arrayLen[slot] = temp
	case *ast.VarRef:
		expr := l.loadAndCast(l.lowerExpr(init, placeholder), decl.Var.Type)
		l.graph.Add(&cfg.Set{InstrBase: cfg.At(decl.Span()), Res: slot, Expr: expr})

		// an alias of an array with a cached length shares the temporary
		if temp, ok := l.arrayLen[l.slot(init.Var)]; ok {
			l.arrayLen[slot] = temp
		}
	default:
		expr := l.loadAndCast(l.lowerExpr(decl.Init, placeholder), decl.Var.Type)
		l.graph.Add(&cfg.Set{InstrBase: cfg.At(decl.Span()), Res: slot, Expr: expr})
	}

	return true
}

func (l *Lowerer) lowerExprStmt(stmt *ast.ExprStmt, placeholder *cfg.Call) bool {
	switch e := stmt.Expr.(type) {
	case *ast.InternalCall:
		l.lowerInternalCall(e, placeholder)
	case *ast.ExternalCall:
		l.lowerExternalCall(e, -1, nil, placeholder)
	default:
		// side effects are emitted while lowering; the value is discarded
		l.lowerExpr(stmt.Expr, placeholder)
	}

	if typing.IsNoReturn(stmt.Expr.Type()) {
		l.graph.Add(&cfg.Unreachable{InstrBase: cfg.At(stmt.Span())})
		return false
	}

	return true
}

// -----------------------------------------------------------------------------

func (l *Lowerer) lowerIf(stmt *ast.IfStmt, placeholder *cfg.Call) bool {
	cond := l.castTo(l.lowerExpr(stmt.Cond, placeholder), typing.Bool)

	if stmt.Else == nil {
		then := l.graph.NewBlock("then")
		endif := l.graph.NewBlock("endif")

		l.graph.Add(&cfg.BranchCond{
			InstrBase: cfg.At(stmt.Cond.Span()),
			Cond:      cond,
			TrueBlock: then, FalseBlock: endif,
		})

		l.graph.SetBlock(then)
		l.vars.NewDirtyTracker()

		reachable := l.lowerBlock(stmt.Then, placeholder)
		if reachable {
			l.graph.Add(&cfg.Branch{Block: endif})
		}

		l.graph.SetPhis(endif, l.vars.PopDirtyTracker())
		l.graph.SetBlock(endif)

		// the empty implicit else arm always falls through
		return true
	}

	then := l.graph.NewBlock("then")
	els := l.graph.NewBlock("else")
	endif := l.graph.NewBlock("endif")

	l.graph.Add(&cfg.BranchCond{
		InstrBase: cfg.At(stmt.Cond.Span()),
		Cond:      cond,
		TrueBlock: then, FalseBlock: els,
	})

	l.vars.NewDirtyTracker()

	l.graph.SetBlock(then)
	thenReachable := l.lowerBlock(stmt.Then, placeholder)
	if thenReachable {
		l.graph.Add(&cfg.Branch{Block: endif})
	}

	l.graph.SetBlock(els)
	elseReachable := l.lowerBlock(stmt.Else, placeholder)
	if elseReachable {
		l.graph.Add(&cfg.Branch{Block: endif})
	}

	l.graph.SetPhis(endif, l.vars.PopDirtyTracker())
	l.graph.SetBlock(endif)

	return thenReachable || elseReachable
}

// -----------------------------------------------------------------------------

func (l *Lowerer) lowerWhile(stmt *ast.WhileLoop, placeholder *cfg.Call) bool {
	cond := l.graph.NewBlock("cond")
	body := l.graph.NewBlock("body")
	end := l.graph.NewBlock("endwhile")

	l.graph.Add(&cfg.Branch{Block: cond})
	l.graph.SetBlock(cond)

	condExpr := l.castTo(l.lowerExpr(stmt.Cond, placeholder), typing.Bool)
	l.graph.Add(&cfg.BranchCond{
		InstrBase: cfg.At(stmt.Cond.Span()),
		Cond:      condExpr,
		TrueBlock: body, FalseBlock: end,
	})

	l.graph.SetBlock(body)
	l.vars.NewDirtyTracker()
	l.loops.Enter(end, cond)

	bodyReachable := l.lowerBlock(stmt.Body, placeholder)
	if bodyReachable {
		l.graph.Add(&cfg.Branch{Block: cond})
	}

	l.loops.Leave()

	// the back edge re-enters cond, so cond and end both need the body's
	// writes reconciled
	set := l.vars.PopDirtyTracker()
	l.graph.SetPhis(end, set.Clone())
	l.graph.SetPhis(cond, set)

	l.graph.SetBlock(end)

	// the condition can be false on the first check
	return true
}

func (l *Lowerer) lowerDoWhile(stmt *ast.DoWhileLoop, placeholder *cfg.Call) bool {
	body := l.graph.NewBlock("body")
	cond := l.graph.NewBlock("cond")
	end := l.graph.NewBlock("enddowhile")

	l.graph.Add(&cfg.Branch{Block: body})
	l.graph.SetBlock(body)

	l.vars.NewDirtyTracker()
	l.loops.Enter(end, cond)

	bodyReachable := l.lowerBlock(stmt.Body, placeholder)
	if bodyReachable {
		l.graph.Add(&cfg.Branch{Block: cond})
	}

	noBreaks, noContinues := l.loops.Leave()
	if noContinues > 0 {
		bodyReachable = true
	}

	if bodyReachable {
		l.graph.SetBlock(cond)

		condExpr := l.castTo(l.lowerExpr(stmt.Cond, placeholder), typing.Bool)
		l.graph.Add(&cfg.BranchCond{
			InstrBase: cfg.At(stmt.Cond.Span()),
			Cond:      condExpr,
			TrueBlock: body, FalseBlock: end,
		})
	}

	set := l.vars.PopDirtyTracker()
	l.graph.SetPhis(end, set.Clone())
	l.graph.SetPhis(body, set.Clone())
	l.graph.SetPhis(cond, set)

	l.graph.SetBlock(end)

	return bodyReachable || noBreaks > 0
}

// lowerForNoCond lowers a for loop without a condition clause: the body
// repeats unconditionally and only break leaves the loop.
func (l *Lowerer) lowerForNoCond(stmt *ast.ForLoop, placeholder *cfg.Call) bool {
	body := l.graph.NewBlock("body")

	next := -1
	if stmt.Next != nil {
		next = l.graph.NewBlock("next")
	}

	end := l.graph.NewBlock("endfor")

	for _, init := range stmt.Init {
		l.lowerStmt(init, placeholder)
	}

	l.graph.Add(&cfg.Branch{Block: body})
	l.graph.SetBlock(body)

	continueTo := body
	if stmt.Next != nil {
		continueTo = next
	}

	l.loops.Enter(end, continueTo)
	l.vars.NewDirtyTracker()

	bodyReachable := l.lowerBlock(stmt.Body, placeholder)
	if bodyReachable {
		l.graph.Add(&cfg.Branch{Block: continueTo})
	}

	noBreaks, noContinues := l.loops.Leave()
	if noContinues > 0 {
		bodyReachable = true
	}

	if bodyReachable && stmt.Next != nil {
		l.graph.SetBlock(next)

		nextExpr := l.lowerExpr(stmt.Next, placeholder)
		bodyReachable = !typing.IsNoReturn(nextExpr.Ty())

		if bodyReachable {
			l.graph.Add(&cfg.Branch{Block: body})
		}
	}

	set := l.vars.PopDirtyTracker()
	if noContinues > 0 && next >= 0 {
		l.graph.SetPhis(next, set.Clone())
	}
	l.graph.SetPhis(body, set.Clone())
	l.graph.SetPhis(end, set)

	l.graph.SetBlock(end)

	return noBreaks > 0
}

func (l *Lowerer) lowerFor(stmt *ast.ForLoop, placeholder *cfg.Call) bool {
	body := l.graph.NewBlock("body")
	cond := l.graph.NewBlock("cond")

	next := -1
	if stmt.Next != nil {
		next = l.graph.NewBlock("next")
	}

	end := l.graph.NewBlock("endfor")

	for _, init := range stmt.Init {
		l.lowerStmt(init, placeholder)
	}

	l.graph.Add(&cfg.Branch{Block: cond})
	l.graph.SetBlock(cond)

	condExpr := l.castTo(l.lowerExpr(stmt.Cond, placeholder), typing.Bool)
	l.graph.Add(&cfg.BranchCond{
		InstrBase: cfg.At(stmt.Cond.Span()),
		Cond:      condExpr,
		TrueBlock: body, FalseBlock: end,
	})

	l.graph.SetBlock(body)

	continueTo := cond
	if stmt.Next != nil {
		continueTo = next
	}

	l.loops.Enter(end, continueTo)
	l.vars.NewDirtyTracker()

	bodyReachable := l.lowerBlock(stmt.Body, placeholder)
	if bodyReachable {
		l.graph.Add(&cfg.Branch{Block: continueTo})
	}

	noBreaks, noContinues := l.loops.Leave()
	if noContinues > 0 {
		bodyReachable = true
	}

	if bodyReachable && stmt.Next != nil {
		l.graph.SetBlock(next)

		// the next clause's own type decides whether the back edge exists
		nextExpr := l.lowerExpr(stmt.Next, placeholder)
		bodyReachable = !typing.IsNoReturn(nextExpr.Ty())

		if bodyReachable {
			l.graph.Add(&cfg.Branch{Block: cond})
		}
	}

	set := l.vars.PopDirtyTracker()
	if noContinues > 0 && next >= 0 {
		l.graph.SetPhis(next, set.Clone())
	}
	if noBreaks > 0 {
		l.graph.SetPhis(end, set.Clone())
	}
	l.graph.SetPhis(cond, set)

	l.graph.SetBlock(end)

	return true
}

// -----------------------------------------------------------------------------

func (l *Lowerer) lowerReturn(stmt *ast.ReturnStmt, placeholder *cfg.Call) bool {
	if stmt.Expr == nil {
		l.emitReturn(stmt.Span())
		return false
	}

	l.lowerReturnExpr(stmt.Expr, stmt.Span(), placeholder)
	return false
}

// lowerReturnExpr lowers `return <expr>`.  A conditional expression is not
// evaluated as a value: `return c ? a : b` becomes `c ? return a : return b`,
// each arm returning independently with no merge block.
func (l *Lowerer) lowerReturnExpr(expr ast.ASTExpr, span *report.TextSpan, placeholder *cfg.Call) {
	switch e := expr.(type) {
	case *ast.Ternary:
		cond := l.castTo(l.lowerExpr(e.Cond, placeholder), typing.Bool)

		left := l.graph.NewBlock("left")
		right := l.graph.NewBlock("right")

		l.graph.Add(&cfg.BranchCond{
			InstrBase: cfg.At(span),
			Cond:      cond,
			TrueBlock: left, FalseBlock: right,
		})

		l.graph.SetBlock(left)
		l.lowerReturnExpr(e.TrueExpr, span, placeholder)

		l.graph.SetBlock(right)
		l.lowerReturnExpr(e.FalseExpr, span, placeholder)
	case *ast.InternalCall:
		l.returnSlots(l.lowerInternalCall(e, placeholder), span)
	case *ast.ExternalCall:
		l.returnSlots(l.lowerExternalCall(e, -1, nil, placeholder), span)
	case *ast.ExprList:
		values := make([]cfg.Expression, len(e.Exprs))
		for i, sub := range e.Exprs {
			values[i] = l.loadAndCast(l.lowerExpr(sub, placeholder), l.fn.Returns[i].Type)
		}

		l.graph.Add(&cfg.Return{InstrBase: cfg.At(span), Values: values})
	default:
		value := l.loadAndCast(l.lowerExpr(expr, placeholder), l.fn.Returns[0].Type)
		l.graph.Add(&cfg.Return{InstrBase: cfg.At(span), Values: []cfg.Expression{value}})
	}
}

// returnSlots returns captured call results, cast element-wise into the
// function's declared return types.
func (l *Lowerer) returnSlots(slots []int, span *report.TextSpan) {
	values := make([]cfg.Expression, len(slots))
	for i, slot := range slots {
		value := &cfg.Variable{Type: l.vars.Get(slot).Type, Slot: slot}
		values[i] = l.loadAndCast(value, l.fn.Returns[i].Type)
	}

	l.graph.Add(&cfg.Return{InstrBase: cfg.At(span), Values: values})
}

// -----------------------------------------------------------------------------

func (l *Lowerer) lowerDestructure(stmt *ast.DestructureStmt, placeholder *cfg.Call) bool {
	l.destructure(stmt, stmt.Rhs, placeholder)
	return true
}

// destructure distributes a multi-valued right-hand side over the fields.  A
// conditional right-hand side fans out like a conditional return, except the
// arms rejoin in a shared done block carrying the union of their writes.
func (l *Lowerer) destructure(stmt *ast.DestructureStmt, rhs ast.ASTExpr, placeholder *cfg.Call) {
	if tern, ok := rhs.(*ast.Ternary); ok {
		cond := l.castTo(l.lowerExpr(tern.Cond, placeholder), typing.Bool)

		left := l.graph.NewBlock("left")
		right := l.graph.NewBlock("right")
		done := l.graph.NewBlock("done")

		l.graph.Add(&cfg.BranchCond{
			InstrBase: cfg.At(tern.Cond.Span()),
			Cond:      cond,
			TrueBlock: left, FalseBlock: right,
		})

		l.vars.NewDirtyTracker()

		l.graph.SetBlock(left)
		l.destructure(stmt, tern.TrueExpr, placeholder)
		l.graph.Add(&cfg.Branch{Block: done})

		l.graph.SetBlock(right)
		l.destructure(stmt, tern.FalseExpr, placeholder)
		l.graph.Add(&cfg.Branch{Block: done})

		l.graph.SetPhis(done, l.vars.PopDirtyTracker())
		l.graph.SetBlock(done)
		return
	}

	var values []cfg.Expression

	switch e := rhs.(type) {
	case *ast.ExprList:
		// evaluate every value into a temporary before assigning any field,
		// so no write is observable by a later value expression
		for _, sub := range e.Exprs {
			expr := l.lowerExpr(sub, placeholder)
			temp := l.vars.Temp("destructure", expr.Ty())
			l.graph.Add(&cfg.Set{InstrBase: cfg.At(sub.Span()), Res: temp, Expr: expr})

			values = append(values, &cfg.Variable{Type: expr.Ty(), Slot: temp})
		}
	case *ast.InternalCall:
		for _, slot := range l.lowerInternalCall(e, placeholder) {
			values = append(values, &cfg.Variable{Type: l.vars.Get(slot).Type, Slot: slot})
		}
	case *ast.ExternalCall:
		for _, slot := range l.lowerExternalCall(e, -1, nil, placeholder) {
			values = append(values, &cfg.Variable{Type: l.vars.Get(slot).Type, Slot: slot})
		}
	default:
		report.ReportICE("destructure from non-list expression %T", rhs)
	}

	for i, field := range stmt.Fields {
		value := values[i]

		switch {
		case field.Var != nil:
			slot := l.slot(field.Var)
			l.vars.AddVariable(slot, field.Var)

			l.graph.Add(&cfg.Set{
				InstrBase: cfg.At(field.Var.DefSpan),
				Res:       slot,
				Expr:      l.loadAndCast(value, field.Var.Type),
			})
		case field.Expr != nil:
			l.assignTo(field.Expr, l.loadAndCast(value, valueType(field.Expr.Type())), field.Expr.Span(), placeholder)
		}
	}
}

// -----------------------------------------------------------------------------

func (l *Lowerer) lowerTryCatch(stmt *ast.TryCatchStmt, placeholder *cfg.Call) bool {
	call, isExternal := stmt.Call.(*ast.ExternalCall)
	if !isExternal {
		report.ReportICE("try statement over non-external call %T", stmt.Call)
	}

	success := l.vars.Temp("success", typing.Bool)

	successBlock := l.graph.NewBlock("success")
	catchBlock := l.graph.NewBlock("catch")
	finallyBlock := l.graph.NewBlock("finally")

	res := make([]int, len(stmt.Returns))
	for i, ret := range stmt.Returns {
		slot := l.slot(ret)
		l.vars.AddVariable(slot, ret)
		res[i] = slot
	}

	l.lowerExternalCall(call, success, res, placeholder)

	l.graph.Add(&cfg.BranchCond{
		InstrBase: cfg.At(stmt.Call.Span()),
		Cond:      &cfg.Variable{Type: typing.Bool, Slot: success},
		TrueBlock: successBlock, FalseBlock: catchBlock,
	})

	l.vars.NewDirtyTracker()

	l.graph.SetBlock(successBlock)
	okReachable := l.lowerBlock(stmt.OkBody, placeholder)
	if okReachable {
		l.graph.Add(&cfg.Branch{Block: finallyBlock})
	}

	l.graph.SetBlock(catchBlock)

	catchSlot := -1
	if stmt.CatchParam != nil {
		catchSlot = l.slot(stmt.CatchParam)
		l.vars.AddVariable(catchSlot, stmt.CatchParam)
		l.graph.Add(&cfg.Set{Res: catchSlot, Expr: &cfg.ReturnData{}})
	}

	catchReachable := true
	if stmt.CatchBody != nil {
		catchReachable = l.lowerBlock(stmt.CatchBody, placeholder)
	}
	if catchReachable {
		l.graph.Add(&cfg.Branch{Block: finallyBlock})
	}

	// the catch parameter is scoped to its arm and never needs reconciling
	set := l.vars.PopDirtyTracker()
	if catchSlot >= 0 {
		delete(set, catchSlot)
	}

	l.graph.SetPhis(finallyBlock, set)
	l.graph.SetBlock(finallyBlock)

	return okReachable || catchReachable
}

// -----------------------------------------------------------------------------

// lowerPlaceholder replays the captured continuation call of the modifier
// chain, marking its result slots dirty so they are reconciled at the point
// the modifier resumes.
func (l *Lowerer) lowerPlaceholder(stmt *ast.PlaceholderStmt, placeholder *cfg.Call) bool {
	if placeholder == nil {
		report.ReportICE("placeholder statement without a modifier context")
	}

	l.graph.Add(&cfg.Call{
		InstrBase: cfg.At(stmt.Span()),
		Res:       placeholder.Res,
		FuncNo:    placeholder.FuncNo,
		Args:      placeholder.Args,
	})

	return true
}

func (l *Lowerer) lowerEmit(stmt *ast.EmitStmt, placeholder *cfg.Call) bool {
	event := l.contract.Events[stmt.EventNo]

	args := make([]cfg.Expression, len(stmt.Args))
	for i, arg := range stmt.Args {
		args[i] = l.loadAndCast(l.lowerExpr(arg, placeholder), event.Fields[i].Type)
	}

	l.graph.Add(&cfg.EmitEvent{
		InstrBase: cfg.At(stmt.Span()),
		EventNo:   stmt.EventNo,
		Args:      args,
	})

	return true
}

// lowerAsm maps an embedded assembly block's locals into fresh slots and
// records the block as a single opaque instruction.
func (l *Lowerer) lowerAsm(stmt *ast.AsmBlock) bool {
	locals := make([]int, len(stmt.Locals))
	for i, local := range stmt.Locals {
		locals[i] = l.vars.Temp(local.Name, local.Type)
	}

	l.graph.Add(&cfg.AssemblyBlock{
		InstrBase: cfg.At(stmt.Span()),
		Locals:    locals,
		Body:      stmt.Body,
	})

	return true
}
