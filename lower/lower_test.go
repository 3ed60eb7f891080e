package lower

import (
	"math/big"
	"os"
	"testing"

	"solis/ast"
	"solis/cfg"
	"solis/common"
	"solis/report"
	"solis/sem"
	"solis/typing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	report.InitReporter(report.LogLevelError)
	os.Exit(m.Run())
}

// -----------------------------------------------------------------------------
// fixture helpers

func uintVar(name string, id int) *common.Variable {
	return &common.Variable{Name: name, ID: id, Type: typing.Uint256}
}

func boolVar(name string, id int) *common.Variable {
	return &common.Variable{Name: name, ID: id, Type: typing.Bool}
}

func numLit(val int64) *ast.NumberLit {
	return &ast.NumberLit{ExprBase: ast.NewExprBase(typing.Uint256, nil), Value: big.NewInt(val)}
}

func varRef(v *common.Variable) *ast.VarRef {
	return &ast.VarRef{ExprBase: ast.NewExprBase(v.Type, nil), Var: v}
}

func assignStmt(v *common.Variable, rhs ast.ASTExpr) ast.ASTNode {
	return &ast.ExprStmt{
		Expr: &ast.Assign{ExprBase: ast.NewExprBase(v.Type, nil), Lhs: varRef(v), Rhs: rhs},
	}
}

func declStmt(v *common.Variable, init ast.ASTExpr) ast.ASTNode {
	return &ast.VarDeclStmt{Var: v, Init: init}
}

func binary(op int, ty typing.Type, lhs, rhs ast.ASTExpr) *ast.Binary {
	return &ast.Binary{ExprBase: ast.NewExprBase(ty, nil), Op: op, Lhs: lhs, Rhs: rhs}
}

func body(stmts ...ast.ASTNode) *ast.Block {
	return &ast.Block{Stmts: stmts}
}

func lowerFn(t *testing.T, fn *sem.Function) *cfg.Graph {
	t.Helper()

	contract := &sem.Contract{
		Name:      "Test",
		Functions: []*sem.Function{fn},
		AbsPath:   "/src/test.sol",
		ReprPath:  "test.sol",
	}

	unit := LowerContract(contract)
	require.NotNil(t, unit.Graphs[0])
	return unit.Graphs[0]
}

func terminator(t *testing.T, g *cfg.Graph, block int) cfg.Instr {
	t.Helper()

	bb := g.Block(block)
	require.NotEmpty(t, bb.Instrs)
	return bb.Instrs[len(bb.Instrs)-1]
}

func blockNames(g *cfg.Graph) []string {
	names := make([]string, len(g.Blocks))
	for i, bb := range g.Blocks {
		names[i] = bb.Name
	}

	return names
}

// -----------------------------------------------------------------------------

// A variable written on both arms of an if/else must be reconciled exactly
// once, at the merge block.
func TestIfElseMerge(t *testing.T) {
	p := boolVar("p", 0)
	ret := &common.Variable{Name: "", ID: 1, Type: typing.Uint256}
	x := uintVar("x", 2)

	fn := &sem.Function{
		Name:      "pick",
		Params:    []*common.Variable{p},
		Returns:   []*common.Variable{ret},
		NextVarID: 3,
		Body: body(
			declStmt(x, numLit(0)),
			&ast.IfStmt{
				Cond: varRef(p),
				Then: body(assignStmt(x, numLit(1))),
				Else: body(assignStmt(x, numLit(2))),
			},
			&ast.ReturnStmt{Expr: varRef(x)},
		),
	}

	g := lowerFn(t, fn)

	require.Equal(t, []string{"entry", "then", "else", "endif"}, blockNames(g))

	// only the merge block carries a phi set, and it holds exactly x
	assert.Nil(t, g.Block(0).Phis)
	assert.Nil(t, g.Block(1).Phis)
	assert.Nil(t, g.Block(2).Phis)
	assert.Equal(t, []int{2}, g.Block(3).Phis.Sorted())

	assert.IsType(t, &cfg.BranchCond{}, terminator(t, g, 0))
	assert.IsType(t, &cfg.Return{}, terminator(t, g, 3))
}

// A variable untouched by either arm never enters the merge block's phi set.
func TestIfElsePhiSetSoundness(t *testing.T) {
	p := boolVar("p", 0)
	x := uintVar("x", 1)
	y := uintVar("y", 2)

	fn := &sem.Function{
		Name:      "touch",
		Params:    []*common.Variable{p},
		NextVarID: 3,
		Body: body(
			declStmt(x, numLit(0)),
			declStmt(y, numLit(0)),
			&ast.IfStmt{
				Cond: varRef(p),
				Then: body(assignStmt(x, numLit(1))),
				Else: body(assignStmt(x, numLit(2))),
			},
		),
	}

	g := lowerFn(t, fn)

	endif := g.Block(3)
	assert.True(t, endif.Phis.Contains(1))
	assert.False(t, endif.Phis.Contains(2))
}

func TestIfWithoutElseFallsThrough(t *testing.T) {
	p := boolVar("p", 0)
	x := uintVar("x", 1)

	fn := &sem.Function{
		Name:      "maybe",
		Params:    []*common.Variable{p},
		NextVarID: 2,
		Body: body(
			declStmt(x, numLit(0)),
			&ast.IfStmt{
				Cond: varRef(p),
				Then: body(&ast.ReturnStmt{}),
			},
			assignStmt(x, numLit(1)),
		),
	}

	g := lowerFn(t, fn)

	require.Equal(t, []string{"entry", "then", "endif"}, blockNames(g))

	// the then arm returns, so endif has a single live edge but the code
	// after the if stays reachable through the implicit else
	assert.IsType(t, &cfg.Return{}, terminator(t, g, 1))
	assert.IsType(t, &cfg.Return{}, terminator(t, g, 2))
}

// -----------------------------------------------------------------------------

func TestWhileLoopHeader(t *testing.T) {
	i := uintVar("i", 0)

	fn := &sem.Function{
		Name:      "count",
		Params:    []*common.Variable{i},
		NextVarID: 1,
		Body: body(
			&ast.WhileLoop{
				Cond: binary(ast.OpLess, typing.Bool, varRef(i), numLit(10)),
				Body: body(assignStmt(i, binary(ast.OpAdd, typing.Uint256, varRef(i), numLit(1)))),
			},
		),
	}

	g := lowerFn(t, fn)

	require.Equal(t, []string{"entry", "cond", "body", "endwhile"}, blockNames(g))

	// the loop header is entered from the preceding block and from the last
	// block of the body, and from nowhere else
	assert.Equal(t, []int{0, 2}, g.Predecessors(1))

	// the body's write to i is reconciled both re-entering the header and
	// leaving the loop
	assert.Equal(t, []int{0}, g.Block(1).Phis.Sorted())
	assert.Equal(t, []int{0}, g.Block(3).Phis.Sorted())
}

func TestDoWhileLoop(t *testing.T) {
	p := boolVar("p", 0)
	x := uintVar("x", 1)

	fn := &sem.Function{
		Name:      "once",
		Params:    []*common.Variable{p},
		NextVarID: 2,
		Body: body(
			declStmt(x, numLit(0)),
			&ast.DoWhileLoop{
				Body: body(assignStmt(x, binary(ast.OpAdd, typing.Uint256, varRef(x), numLit(1)))),
				Cond: varRef(p),
			},
		),
	}

	g := lowerFn(t, fn)

	require.Equal(t, []string{"entry", "body", "cond", "enddowhile"}, blockNames(g))

	// the body is both the loop entry and the back edge target
	assert.Equal(t, []int{1}, g.Block(1).Phis.Sorted())
	assert.Equal(t, []int{1}, g.Block(2).Phis.Sorted())
	assert.Equal(t, []int{1}, g.Block(3).Phis.Sorted())

	assert.Equal(t, []int{0, 2}, g.Predecessors(1))
}

// A for loop without a condition has no header check at all: the body
// repeats unconditionally and only break reaches the end block.
func TestUnconditionalForLoop(t *testing.T) {
	p := boolVar("p", 0)

	fn := &sem.Function{
		Name:      "spin",
		Params:    []*common.Variable{p},
		NextVarID: 1,
		Body: body(
			&ast.ForLoop{
				Body: body(&ast.IfStmt{
					Cond: varRef(p),
					Then: body(&ast.BreakStmt{}),
				}),
			},
		),
	}

	g := lowerFn(t, fn)

	assert.NotContains(t, blockNames(g), "cond")
	assert.NotContains(t, blockNames(g), "next")

	// body=1, endfor=2, then=3, endif=4: the body's final block loops back
	// into the body, never into the end block
	require.Equal(t, []string{"entry", "body", "endfor", "then", "endif"}, blockNames(g))

	back := terminator(t, g, 4)
	require.IsType(t, &cfg.Branch{}, back)
	assert.Equal(t, 1, back.(*cfg.Branch).Block)

	// only break edges reach the end block
	assert.Equal(t, []int{3}, g.Predecessors(2))
}

func TestForLoopWithConditionAndNext(t *testing.T) {
	p := boolVar("p", 0)
	i := uintVar("i", 1)

	fn := &sem.Function{
		Name:      "scan",
		Params:    []*common.Variable{p},
		NextVarID: 2,
		Body: body(
			&ast.ForLoop{
				Init: []ast.ASTNode{declStmt(i, numLit(0))},
				Cond: binary(ast.OpLess, typing.Bool, varRef(i), numLit(3)),
				Next: &ast.Assign{
					ExprBase: ast.NewExprBase(typing.Uint256, nil),
					Lhs:      varRef(i),
					Rhs:      binary(ast.OpAdd, typing.Uint256, varRef(i), numLit(1)),
				},
				Body: body(&ast.IfStmt{
					Cond: varRef(p),
					Then: body(&ast.BreakStmt{}),
				}),
			},
		),
	}

	g := lowerFn(t, fn)

	// body is created before the condition block
	require.Equal(t, []string{"entry", "body", "cond", "next", "endfor", "then", "endif"}, blockNames(g))

	// i is written by the next clause: the header needs it reconciled, and
	// so does the end block since break can leave mid-iteration
	assert.Equal(t, []int{1}, g.Block(2).Phis.Sorted())
	assert.Equal(t, []int{1}, g.Block(4).Phis.Sorted())

	// no continue was lowered, so the next block needs no phi set
	assert.Nil(t, g.Block(3).Phis)
}

func TestContinueTargetsNextBlock(t *testing.T) {
	p := boolVar("p", 0)
	i := uintVar("i", 1)

	fn := &sem.Function{
		Name:      "skip",
		Params:    []*common.Variable{p},
		NextVarID: 2,
		Body: body(
			&ast.ForLoop{
				Init: []ast.ASTNode{declStmt(i, numLit(0))},
				Cond: binary(ast.OpLess, typing.Bool, varRef(i), numLit(3)),
				Next: &ast.Assign{
					ExprBase: ast.NewExprBase(typing.Uint256, nil),
					Lhs:      varRef(i),
					Rhs:      binary(ast.OpAdd, typing.Uint256, varRef(i), numLit(1)),
				},
				Body: body(&ast.IfStmt{
					Cond: varRef(p),
					Then: body(&ast.ContinueStmt{}),
				}),
			},
		),
	}

	g := lowerFn(t, fn)

	// then=5 holds the continue branch, targeting the next block (3)
	branch := terminator(t, g, 5)
	require.IsType(t, &cfg.Branch{}, branch)
	assert.Equal(t, 3, branch.(*cfg.Branch).Block)

	// a taken continue means the next block needs the body's writes
	// reconciled as well
	assert.Equal(t, []int{1}, g.Block(3).Phis.Sorted())
}

// -----------------------------------------------------------------------------

// `return c ? a : b` fans out into two independently returning paths with no
// merge block between them.
func TestConditionalReturnFanOut(t *testing.T) {
	p := boolVar("p", 0)
	a := uintVar("a", 1)
	b := uintVar("b", 2)
	ret := &common.Variable{Name: "", ID: 3, Type: typing.Uint256}

	fn := &sem.Function{
		Name:      "choose",
		Params:    []*common.Variable{p, a, b},
		Returns:   []*common.Variable{ret},
		NextVarID: 4,
		Body: body(
			&ast.ReturnStmt{Expr: &ast.Ternary{
				ExprBase:  ast.NewExprBase(typing.Uint256, nil),
				Cond:      varRef(p),
				TrueExpr:  varRef(a),
				FalseExpr: varRef(b),
			}},
		),
	}

	g := lowerFn(t, fn)

	require.Equal(t, []string{"entry", "left", "right"}, blockNames(g))

	assert.IsType(t, &cfg.Return{}, terminator(t, g, 1))
	assert.IsType(t, &cfg.Return{}, terminator(t, g, 2))

	for i := range g.Blocks {
		assert.Nil(t, g.Block(i).Phis)
	}
}

// In value position the same conditional needs a temporary and a merge.
func TestTernaryValue(t *testing.T) {
	p := boolVar("p", 0)
	x := uintVar("x", 1)

	fn := &sem.Function{
		Name:      "sel",
		Params:    []*common.Variable{p},
		NextVarID: 2,
		Body: body(
			declStmt(x, &ast.Ternary{
				ExprBase:  ast.NewExprBase(typing.Uint256, nil),
				Cond:      varRef(p),
				TrueExpr:  numLit(1),
				FalseExpr: numLit(2),
			}),
		),
	}

	g := lowerFn(t, fn)

	require.Equal(t, []string{"entry", "left", "right", "done"}, blockNames(g))

	done := g.Block(3)
	require.Len(t, done.Phis, 1)

	slot := done.Phis.Sorted()[0]
	assert.Equal(t, "%ternary.2", g.Vars.Get(slot).Name)
}

func TestShortCircuitOr(t *testing.T) {
	p := boolVar("p", 0)
	q := boolVar("q", 1)
	y := boolVar("y", 2)

	fn := &sem.Function{
		Name:      "either",
		Params:    []*common.Variable{p, q},
		NextVarID: 3,
		Body: body(
			declStmt(y, binary(ast.OpLogicalOr, typing.Bool, varRef(p), varRef(q))),
		),
	}

	g := lowerFn(t, fn)

	require.Equal(t, []string{"entry", "or_right_side", "or_end"}, blockNames(g))

	// when the left side is true the right side is skipped entirely
	cond := terminator(t, g, 0)
	require.IsType(t, &cfg.BranchCond{}, cond)
	assert.Equal(t, 2, cond.(*cfg.BranchCond).TrueBlock)
	assert.Equal(t, 1, cond.(*cfg.BranchCond).FalseBlock)

	end := g.Block(2)
	require.Len(t, end.Phis, 1)
	assert.Equal(t, "%or.3", g.Vars.Get(end.Phis.Sorted()[0]).Name)
}

func TestShortCircuitAnd(t *testing.T) {
	p := boolVar("p", 0)
	q := boolVar("q", 1)
	y := boolVar("y", 2)

	fn := &sem.Function{
		Name:      "both",
		Params:    []*common.Variable{p, q},
		NextVarID: 3,
		Body: body(
			declStmt(y, binary(ast.OpLogicalAnd, typing.Bool, varRef(p), varRef(q))),
		),
	}

	g := lowerFn(t, fn)

	require.Equal(t, []string{"entry", "and_right_side", "and_end"}, blockNames(g))

	cond := terminator(t, g, 0)
	require.IsType(t, &cfg.BranchCond{}, cond)
	assert.Equal(t, 1, cond.(*cfg.BranchCond).TrueBlock)
	assert.Equal(t, 2, cond.(*cfg.BranchCond).FalseBlock)
}

// -----------------------------------------------------------------------------

// Statements after a terminating statement stay unreachable for the rest of
// the sequence and draw exactly one warning.
func TestUnreachableRunWarnsOnce(t *testing.T) {
	x := uintVar("x", 0)

	fn := &sem.Function{
		Name:      "dead",
		NextVarID: 1,
		Body: body(
			&ast.ReturnStmt{},
			declStmt(x, numLit(1)),
			assignStmt(x, numLit(2)),
			assignStmt(x, numLit(3)),
		),
	}

	g := lowerFn(t, fn)

	warnings := report.FlushWarnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "unreachable statement", warnings[0].Message)

	// the dead run is still lowered, into a block no edge reaches
	require.Equal(t, []string{"entry", "unreachable"}, blockNames(g))
	assert.Empty(t, g.Predecessors(1))
}

func TestUnreachableAfterBothArmsReturn(t *testing.T) {
	p := boolVar("p", 0)

	fn := &sem.Function{
		Name:      "split",
		Params:    []*common.Variable{p},
		NextVarID: 1,
		Body: body(
			&ast.IfStmt{
				Cond: varRef(p),
				Then: body(&ast.ReturnStmt{}),
				Else: body(&ast.ReturnStmt{}),
			},
			&ast.ReturnStmt{},
		),
	}

	lowerFn(t, fn)

	warnings := report.FlushWarnings()
	require.Len(t, warnings, 1)
}

func TestMissingReturnReported(t *testing.T) {
	ret := &common.Variable{Name: "", ID: 0, Type: typing.Uint256}

	fn := &sem.Function{
		Name:      "incomplete",
		Returns:   []*common.Variable{ret},
		NextVarID: 1,
		Body:      body(),
	}

	lowerFn(t, fn)
	assert.True(t, report.AnyErrors())
}

func TestNamedReturnsSynthesized(t *testing.T) {
	ret := &common.Variable{Name: "r", ID: 0, Type: typing.Uint256}

	fn := &sem.Function{
		Name:      "implied",
		Returns:   []*common.Variable{ret},
		NextVarID: 1,
		Body:      body(assignStmt(ret, numLit(4))),
	}

	g := lowerFn(t, fn)

	term := terminator(t, g, 0)
	require.IsType(t, &cfg.Return{}, term)
	require.Len(t, term.(*cfg.Return).Values, 1)
}

// -----------------------------------------------------------------------------

func TestModifierChain(t *testing.T) {
	ret := &common.Variable{Name: "r", ID: 0, Type: typing.Uint256}

	fn := &sem.Function{
		Name:      "guarded",
		Returns:   []*common.Variable{ret},
		Modifiers: []sem.ModifierInvocation{{FuncNo: 1}},
		NextVarID: 1,
		Body:      body(&ast.ReturnStmt{Expr: numLit(7)}),
	}

	modifier := &sem.Function{
		Name:       "only",
		IsModifier: true,
		Body:       body(&ast.PlaceholderStmt{}),
	}

	contract := &sem.Contract{
		Name:      "Test",
		Functions: []*sem.Function{fn, modifier},
		AbsPath:   "/src/test.sol",
		ReprPath:  "test.sol",
	}

	unit := LowerContract(contract)

	// the modifier itself is never lowered standalone; the chain appends the
	// wrapped body after the per-function graphs
	require.Len(t, unit.Graphs, 3)
	require.NotNil(t, unit.Graphs[0])
	assert.Nil(t, unit.Graphs[1])
	require.NotNil(t, unit.Graphs[2])

	assert.Equal(t, "Test::guarded", unit.Graphs[0].Name)
	assert.Equal(t, "Test::guarded::body", unit.Graphs[2].Name)

	// the wrapper's placeholder replays a call to the chained body, landing
	// results in the function's return slots
	var call *cfg.Call
	for _, instr := range unit.Graphs[0].Block(cfg.Entry).Instrs {
		if c, ok := instr.(*cfg.Call); ok {
			call = c
		}
	}

	require.NotNil(t, call)
	assert.Equal(t, 2, call.FuncNo)
	assert.Equal(t, []int{0}, call.Res)
}

// -----------------------------------------------------------------------------

func TestTryCatch(t *testing.T) {
	x := uintVar("x", 0)
	v := uintVar("v", 1)
	caught := &common.Variable{Name: "err", ID: 2, Type: typing.DynamicBytesType{}}

	extCall := &ast.ExternalCall{
		ExprBase: ast.NewExprBase(typing.Uint256, nil),
		Address:  &ast.NumberLit{ExprBase: ast.NewExprBase(typing.AddressType{}, nil), Value: big.NewInt(0x42)},
		FuncName: "price()",
		Signature: &typing.FuncType{
			Returns:  []typing.Type{typing.Uint256},
			External: true,
		},
	}

	fn := &sem.Function{
		Name:      "attempt",
		NextVarID: 3,
		Body: body(
			declStmt(x, numLit(0)),
			&ast.TryCatchStmt{
				Call:       extCall,
				Returns:    []*common.Variable{v},
				OkBody:     body(assignStmt(x, numLit(1))),
				CatchParam: caught,
				CatchBody:  body(assignStmt(x, numLit(2))),
			},
		),
	}

	g := lowerFn(t, fn)

	require.Equal(t, []string{"entry", "success", "catch", "finally"}, blockNames(g))

	// the attempted call lands in the entry block with an explicit success
	// flag driving the branch
	var ext *cfg.ExternalCall
	for _, instr := range g.Block(0).Instrs {
		if e, ok := instr.(*cfg.ExternalCall); ok {
			ext = e
		}
	}

	require.NotNil(t, ext)
	assert.GreaterOrEqual(t, ext.Success, 0)
	assert.Equal(t, []int{1}, ext.Returns)
	assert.Equal(t, "price()", ext.Selector)

	// x diverges across the arms; the catch parameter is scoped to its arm
	// and stays out of the phi set
	finally := g.Block(3)
	assert.True(t, finally.Phis.Contains(0))
	assert.False(t, finally.Phis.Contains(2))
}

func TestDestructureFromList(t *testing.T) {
	a := uintVar("a", 0)
	b := uintVar("b", 1)

	fn := &sem.Function{
		Name:      "swap",
		NextVarID: 2,
		Body: body(
			declStmt(a, numLit(1)),
			declStmt(b, numLit(2)),
			&ast.DestructureStmt{
				Fields: []ast.DestructureField{
					{Expr: varRef(a)},
					{Expr: varRef(b)},
				},
				Rhs: &ast.ExprList{Exprs: []ast.ASTExpr{varRef(b), varRef(a)}},
			},
		),
	}

	g := lowerFn(t, fn)

	// both values are read into temporaries before either field is written
	var sets []*cfg.Set
	for _, instr := range g.Block(0).Instrs {
		if s, ok := instr.(*cfg.Set); ok {
			sets = append(sets, s)
		}
	}

	// two decls, two temporary captures, two field writes
	require.Len(t, sets, 6)
	assert.Equal(t, "%destructure.2", g.Vars.Get(sets[2].Res).Name)
	assert.Equal(t, "%destructure.3", g.Vars.Get(sets[3].Res).Name)

	// the field writes read from the temporaries, not from each other
	assert.Equal(t, 0, sets[4].Res)
	assert.Equal(t, 2, sets[4].Expr.(*cfg.Variable).Slot)
	assert.Equal(t, 1, sets[5].Res)
	assert.Equal(t, 3, sets[5].Expr.(*cfg.Variable).Slot)
}

func TestDestructureConditionalFanOut(t *testing.T) {
	p := boolVar("p", 0)
	a := uintVar("a", 1)
	b := uintVar("b", 2)

	fn := &sem.Function{
		Name:      "pickpair",
		Params:    []*common.Variable{p},
		NextVarID: 3,
		Body: body(
			declStmt(a, numLit(0)),
			declStmt(b, numLit(0)),
			&ast.DestructureStmt{
				Fields: []ast.DestructureField{
					{Expr: varRef(a)},
					{Expr: varRef(b)},
				},
				Rhs: &ast.Ternary{
					ExprBase:  ast.NewExprBase(typing.Uint256, nil),
					Cond:      varRef(p),
					TrueExpr:  &ast.ExprList{Exprs: []ast.ASTExpr{numLit(1), numLit(2)}},
					FalseExpr: &ast.ExprList{Exprs: []ast.ASTExpr{numLit(3), numLit(4)}},
				},
			},
		),
	}

	g := lowerFn(t, fn)

	require.Equal(t, []string{"entry", "left", "right", "done"}, blockNames(g))

	done := g.Block(3)
	assert.True(t, done.Phis.Contains(1))
	assert.True(t, done.Phis.Contains(2))
}

// -----------------------------------------------------------------------------

func TestEmitEvent(t *testing.T) {
	x := uintVar("x", 0)

	fn := &sem.Function{
		Name:      "announce",
		Params:    []*common.Variable{x},
		NextVarID: 1,
		Body: body(
			&ast.EmitStmt{EventNo: 0, Args: []ast.ASTExpr{varRef(x)}},
		),
	}

	contract := &sem.Contract{
		Name:      "Test",
		Functions: []*sem.Function{fn},
		Events: []*sem.Event{
			{Name: "Changed", Fields: []sem.EventField{{Name: "value", Type: typing.Uint256}}},
		},
		AbsPath:  "/src/test.sol",
		ReprPath: "test.sol",
	}

	unit := LowerContract(contract)
	g := unit.Graphs[0]

	var emit *cfg.EmitEvent
	for _, instr := range g.Block(0).Instrs {
		if e, ok := instr.(*cfg.EmitEvent); ok {
			emit = e
		}
	}

	require.NotNil(t, emit)
	assert.Equal(t, 0, emit.EventNo)
	require.Len(t, emit.Args, 1)
}

func TestDeleteLowersToClearStorage(t *testing.T) {
	sv := &common.StorageVariable{Name: "total", Type: typing.Uint256, Slot: 3}

	fn := &sem.Function{
		Name: "reset",
		Body: body(
			&ast.DeleteStmt{
				Target: &ast.StorageVarRef{
					ExprBase: ast.NewExprBase(&typing.StorageRefType{Elem: typing.Uint256}, nil),
					Var:      sv,
				},
			},
		),
	}

	g := lowerFn(t, fn)

	var clear *cfg.ClearStorage
	for _, instr := range g.Block(0).Instrs {
		if c, ok := instr.(*cfg.ClearStorage); ok {
			clear = c
		}
	}

	require.NotNil(t, clear)
	assert.Equal(t, big.NewInt(3), clear.Storage.(*cfg.NumberLiteral).Value)
}

// A revert ends its block, so nothing inside its arm reaches the merge.
func TestRevertTerminatesBlock(t *testing.T) {
	p := boolVar("p", 0)
	ret := &common.Variable{Name: "", ID: 1, Type: typing.Uint256}

	fn := &sem.Function{
		Name:      "guard",
		Params:    []*common.Variable{p},
		Returns:   []*common.Variable{ret},
		NextVarID: 2,
		Body: body(
			&ast.IfStmt{
				Cond: varRef(p),
				Then: body(&ast.RevertStmt{}),
			},
			&ast.ReturnStmt{Expr: numLit(9)},
		),
	}

	g := lowerFn(t, fn)

	require.Equal(t, []string{"entry", "then", "endif"}, blockNames(g))

	fail, ok := terminator(t, g, 1).(*cfg.AssertFailure)
	require.True(t, ok, "revert did not end its block")
	assert.Nil(t, fail.Encoded)

	// only the fall-through edge reaches the merge block
	assert.Equal(t, []int{0}, g.Predecessors(2))
	assert.Contains(t, g.Dump(), "assert-failure")
}

func TestArrayLengthUsesCachedTemp(t *testing.T) {
	n := uintVar("n", 0)
	arr := &common.Variable{Name: "arr", ID: 1, Type: &typing.ArrayType{Elem: typing.Uint256}}
	length := &common.Variable{Name: "len", ID: 2, Type: typing.Uint32}

	fn := &sem.Function{
		Name:      "measure",
		Params:    []*common.Variable{n},
		NextVarID: 3,
		Body: body(
			declStmt(arr, &ast.AllocDynamic{
				ExprBase: ast.NewExprBase(arr.Type, nil),
				Size:     varRef(n),
			}),
			declStmt(length, &ast.ArrayLength{
				ExprBase: ast.NewExprBase(typing.Uint32, nil),
				Array:    varRef(arr),
			}),
		),
	}

	g := lowerFn(t, fn)

	// the length query reads the size temporary captured at allocation
	var sets []*cfg.Set
	for _, instr := range g.Block(0).Instrs {
		if s, ok := instr.(*cfg.Set); ok {
			sets = append(sets, s)
		}
	}

	require.Len(t, sets, 3)
	assert.Equal(t, "%arr_length.3", g.Vars.Get(sets[0].Res).Name)

	read, ok := sets[2].Expr.(*cfg.Variable)
	require.True(t, ok)
	assert.Equal(t, sets[0].Res, read.Slot)
}

func TestNoReturnCallEndsBlock(t *testing.T) {
	fn := &sem.Function{
		Name: "halt",
		Body: body(
			&ast.ExprStmt{Expr: &ast.InternalCall{
				ExprBase: ast.NewExprBase(typing.NoReturnType{}, nil),
				FuncNo:   1,
				Returns:  []typing.Type{typing.NoReturnType{}},
			}},
		),
	}

	revert := &sem.Function{
		Name:      "fail",
		Returns:   []*common.Variable{},
		NextVarID: 0,
	}

	contract := &sem.Contract{
		Name:      "Test",
		Functions: []*sem.Function{fn, revert},
		AbsPath:   "/src/test.sol",
		ReprPath:  "test.sol",
	}

	unit := LowerContract(contract)
	g := unit.Graphs[0]

	assert.IsType(t, &cfg.Unreachable{}, terminator(t, g, 0))
}
