// Package lower translates resolved contract functions into control flow
// graphs.  Lowering walks each function's statement tree once, threading a
// reachability flag, and attaches phi sets at merge blocks using the variable
// table's dirty trackers.  The finished graphs are consumed independently by
// the generate package.
package lower

import (
	"fmt"

	"solis/cfg"
	"solis/common"
	"solis/report"
	"solis/sem"
	"solis/typing"
)

// Unit is the lowered form of one contract: one graph per function, plus the
// extra graphs minted for modifier chains.  Call instructions index into
// Graphs by function number.
type Unit struct {
	// The contract the unit was lowered from.
	Contract *sem.Contract

	// The lowered graphs.  Graphs[i] for i below len(Contract.Functions) is
	// function i's entry graph; chain graphs follow.  Entries are nil for
	// functions without bodies.
	Graphs []*cfg.Graph
}

// LowerContract lowers every function of a contract.
func LowerContract(contract *sem.Contract) *Unit {
	unit := &Unit{
		Contract: contract,
		Graphs:   make([]*cfg.Graph, len(contract.Functions)),
	}

	for i, fn := range contract.Functions {
		if fn.Body == nil || fn.IsModifier {
			continue
		}

		unit.Graphs[i] = lowerFunction(unit, contract, fn)
	}

	return unit
}

// -----------------------------------------------------------------------------

// Lowerer holds the state of lowering one graph.  All of it is discarded once
// the graph is finished; only the graph itself survives.
type Lowerer struct {
	contract *sem.Contract
	fn       *sem.Function

	graph *cfg.Graph
	vars  *cfg.Vartable
	loops cfg.LoopScopes

	// The offset applied to variable IDs of the function currently being
	// walked.  Zero for a function's own body; modifier bodies are re-based
	// past the modified function's IDs.
	varBase int

	// Maps an array-typed slot to the temporary caching its length, so that
	// querying the length never re-evaluates the size expression.
	arrayLen map[int]int
}

// lowerFunction lowers one function, including its modifier chain.  The
// returned graph is the function's entry graph.
func lowerFunction(unit *Unit, contract *sem.Contract, fn *sem.Function) *cfg.Graph {
	qual := fmt.Sprintf("%s::%s", contract.Name, fn.Name)

	if len(fn.Modifiers) == 0 {
		return lowerBody(contract, fn, qual, nil)
	}

	// The function's own body becomes a chain graph; each modifier wraps the
	// next link, innermost last, and the outermost wrapper becomes the
	// function's entry graph.
	next := len(unit.Graphs)
	unit.Graphs = append(unit.Graphs, lowerBody(contract, fn, qual+"::body", nil))

	for i := len(fn.Modifiers) - 1; i >= 1; i-- {
		mod := fn.Modifiers[i]
		modFn := contract.Functions[mod.FuncNo]

		no := len(unit.Graphs)
		unit.Graphs = append(unit.Graphs, lowerWrapper(
			contract, fn, modFn, mod,
			fmt.Sprintf("%s::modifier%d", qual, i),
			next,
		))
		next = no
	}

	outer := fn.Modifiers[0]
	return lowerWrapper(contract, fn, contract.Functions[outer.FuncNo], outer, qual, next)
}

// newLowerer sets up a graph over a fresh variable table seeded with the
// function's parameters and returns.
func newLowerer(contract *sem.Contract, fn *sem.Function, name string, firstTemp int) *Lowerer {
	vars := cfg.NewVartable(firstTemp)

	for _, param := range fn.Params {
		vars.AddVariable(param.ID, param)
	}
	for _, ret := range fn.Returns {
		vars.AddVariable(ret.ID, ret)
	}

	graph := cfg.New(name, vars)
	graph.Params = fn.Params
	graph.Returns = fn.Returns

	return &Lowerer{
		contract: contract,
		fn:       fn,
		graph:    graph,
		vars:     vars,
		arrayLen: make(map[int]int),
	}
}

// lowerBody lowers a function body into a fresh graph.  The placeholder is
// nil for ordinary bodies; modifier bodies carry the captured continuation
// call to replay at each placeholder statement.
func lowerBody(contract *sem.Contract, fn *sem.Function, name string, placeholder *cfg.Call) *cfg.Graph {
	l := newLowerer(contract, fn, name, fn.NextVarID)
	l.initReturns()

	reachable := l.lowerBlock(fn.Body, placeholder)
	if reachable {
		l.checkReturn(fn.Body.Span())
	}

	return l.graph
}

// lowerWrapper lowers one modifier application around the chain link nextNo.
// The wrapper's parameters are the modified function's; the modifier's own
// variables are re-based past them.
func lowerWrapper(contract *sem.Contract, fn *sem.Function, modFn *sem.Function, mod sem.ModifierInvocation, name string, nextNo int) *cfg.Graph {
	base := fn.NextVarID

	l := newLowerer(contract, fn, name, base+modFn.NextVarID)
	l.initReturns()

	// Bind the modifier's parameters from the invocation arguments.  The
	// arguments were resolved in the modified function's scope, so they
	// lower at base zero.
	for i, param := range modFn.Params {
		l.vars.AddVariable(base+param.ID, param)

		arg := l.castTo(l.lowerExpr(mod.Args[i], nil), param.Type)
		l.graph.Add(&cfg.Set{InstrBase: cfg.At(param.DefSpan), Res: base + param.ID, Expr: arg})
	}

	// The captured continuation the modifier's placeholder replays: calling
	// the next chain link with the function's own parameters, results
	// landing in its return slots.
	args := make([]cfg.Expression, len(fn.Params))
	for i, param := range fn.Params {
		args[i] = &cfg.Variable{Type: param.Type, Slot: param.ID}
	}

	res := make([]int, len(fn.Returns))
	for i, ret := range fn.Returns {
		res[i] = ret.ID
	}

	placeholder := &cfg.Call{Res: res, FuncNo: nextNo, Args: args}

	l.varBase = base
	reachable := l.lowerBlock(modFn.Body, placeholder)
	l.varBase = 0

	if reachable {
		l.emitReturn(modFn.Body.Span())
	}

	return l.graph
}

// -----------------------------------------------------------------------------

// slot resolves a variable reference to its table slot under the current
// re-basing.
func (l *Lowerer) slot(v *common.Variable) int {
	return l.varBase + v.ID
}

// initReturns zero-initializes the function's return variables so that a
// bare return is well-defined on every path.
func (l *Lowerer) initReturns() {
	for _, ret := range l.fn.Returns {
		if zero := typing.DefaultValue(ret.Type); zero != nil {
			l.graph.Add(&cfg.Set{
				Res:  ret.ID,
				Expr: &cfg.NumberLiteral{Type: ret.Type, Value: zero},
			})
		}
	}
}

// emitReturn returns the current values of the function's return variables.
func (l *Lowerer) emitReturn(span *report.TextSpan) {
	values := make([]cfg.Expression, len(l.fn.Returns))
	for i, ret := range l.fn.Returns {
		values[i] = &cfg.Variable{Type: ret.Type, Slot: ret.ID}
	}

	l.graph.Add(&cfg.Return{InstrBase: cfg.At(span), Values: values})
}

// checkReturn handles control falling off the end of a function body.  A
// function whose returns are all named (or that returns nothing) gets a
// synthesized return; otherwise the fallthrough is an error.
func (l *Lowerer) checkReturn(span *report.TextSpan) {
	for _, ret := range l.fn.Returns {
		if ret.Name == "" {
			report.ReportCompileError(
				l.contract.AbsPath, l.contract.ReprPath, span,
				"missing return statement in function %s", l.fn.Name,
			)
			return
		}
	}

	l.emitReturn(span)
}

// warnUnreachable records the single warning for a maximal unreachable run.
func (l *Lowerer) warnUnreachable(span *report.TextSpan) {
	report.ReportCompileWarning(l.contract.ReprPath, span, "unreachable statement")
}
