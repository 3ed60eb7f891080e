package cfg

import (
	"math/big"
	"strings"
	"testing"

	"solis/common"
	"solis/typing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph() *Graph {
	vt := NewVartable(1)
	vt.AddVariable(0, &common.Variable{Name: "x", ID: 0, Type: typing.Uint256})
	return New("Test::f", vt)
}

// testGraphTwoVars mints the table past both user slots, the way lowering
// mints it past the resolver's last variable ID.
func testGraphTwoVars(second *common.Variable) *Graph {
	vt := NewVartable(2)
	vt.AddVariable(0, &common.Variable{Name: "x", ID: 0, Type: typing.Uint256})
	vt.AddVariable(1, second)
	return New("Test::f", vt)
}

func TestNewGraphHasEntryBlock(t *testing.T) {
	g := testGraph()

	require.Len(t, g.Blocks, 1)
	assert.Equal(t, "entry", g.Block(Entry).Name)
	assert.Equal(t, Entry, g.CurrentBlock())
}

func TestNewBlockDoesNotSelect(t *testing.T) {
	g := testGraph()

	body := g.NewBlock("body")
	assert.Equal(t, 1, body)
	assert.Equal(t, Entry, g.CurrentBlock())

	g.SetBlock(body)
	assert.Equal(t, body, g.CurrentBlock())
}

func TestSetBlockOutOfRangePanics(t *testing.T) {
	g := testGraph()

	require.Panics(t, func() { g.SetBlock(4) })
}

func TestAddMarksSetResultsDirty(t *testing.T) {
	g := testGraph()
	g.Vars.NewDirtyTracker()

	g.Add(&Set{Res: 0, Expr: &BoolLiteral{Value: true}})

	assert.True(t, g.Vars.PopDirtyTracker().Contains(0))
}

func TestAddMarksCallResultsDirty(t *testing.T) {
	g := testGraphTwoVars(&common.Variable{Name: "y", ID: 1, Type: typing.Bool})
	g.Vars.NewDirtyTracker()

	g.Add(&Call{Res: []int{0, 1}, FuncNo: 2})

	set := g.Vars.PopDirtyTracker()
	assert.Equal(t, []int{0, 1}, set.Sorted())
}

func TestAddMarksExternalCallResultsDirty(t *testing.T) {
	g := testGraphTwoVars(&common.Variable{Name: "ok", ID: 1, Type: typing.Bool})
	g.Vars.NewDirtyTracker()

	g.Add(&ExternalCall{Success: 1, Returns: []int{0}})

	set := g.Vars.PopDirtyTracker()
	assert.Equal(t, []int{0, 1}, set.Sorted())
}

func TestTerminated(t *testing.T) {
	g := testGraph()

	assert.False(t, g.Block(Entry).Terminated())

	g.Add(&Set{Res: 0, Expr: &BoolLiteral{}})
	assert.False(t, g.Block(Entry).Terminated())

	g.Add(&Return{})
	assert.True(t, g.Block(Entry).Terminated())
}

func TestSuccessorsAndPredecessors(t *testing.T) {
	g := testGraph()
	then := g.NewBlock("then")
	endif := g.NewBlock("endif")

	g.Add(&BranchCond{Cond: &BoolLiteral{Value: true}, TrueBlock: then, FalseBlock: endif})

	g.SetBlock(then)
	g.Add(&Branch{Block: endif})

	assert.Equal(t, []int{then, endif}, g.Successors(Entry))
	assert.Equal(t, []int{endif}, g.Successors(then))
	assert.Nil(t, g.Successors(endif))

	assert.Equal(t, []int{Entry}, g.Predecessors(then))
	assert.Equal(t, []int{Entry, then}, g.Predecessors(endif))
}

func TestSetPhisIgnoresEmptySets(t *testing.T) {
	g := testGraph()
	end := g.NewBlock("end")

	g.SetPhis(end, make(SlotSet))
	assert.Nil(t, g.Block(end).Phis)

	set := make(SlotSet)
	set.Add(0)
	g.SetPhis(end, set)
	assert.True(t, g.Block(end).Phis.Contains(0))
}

func TestDump(t *testing.T) {
	g := testGraph()
	end := g.NewBlock("end")

	g.Add(&Set{Res: 0, Expr: &NumberLiteral{Type: typing.Uint256, Value: big.NewInt(7)}})
	g.Add(&Branch{Block: end})

	phis := make(SlotSet)
	phis.Add(0)
	g.SetPhis(end, phis)

	g.SetBlock(end)
	g.Add(&Return{Values: []Expression{&Variable{Type: typing.Uint256, Slot: 0}}})

	dump := g.Dump()
	assert.True(t, strings.HasPrefix(dump, "cfg Test::f\n"))
	assert.Contains(t, dump, "block0: # entry")
	assert.Contains(t, dump, "x = uint256 7")
	assert.Contains(t, dump, "branch block1")
	assert.Contains(t, dump, "# phis: x")
	assert.Contains(t, dump, "return x")
}
