// Package cfg defines the control flow graph produced by lowering: an
// append-only list of basic blocks holding typed instructions, together with
// the per-function variable table and the scoped bookkeeping used to place
// phi sets at merge points.
package cfg

import (
	"sort"

	"solis/common"
	"solis/report"
)

// Entry is the block index every function graph starts in.
const Entry = 0

// BasicBlock is a straight-line instruction sequence ending in a single
// terminator.  Blocks are identified by their index in the graph's block
// list; index order is creation order, not control order.
type BasicBlock struct {
	// The name hint of the block, eg. "then", "body", "endif".
	Name string

	// The ordered instructions of the block.
	Instrs []Instr

	// The slots requiring reconciliation at block entry, or nil if the block
	// is not a merge point.
	Phis SlotSet
}

// Terminated returns whether the block has been sealed with a terminator.
func (bb *BasicBlock) Terminated() bool {
	return len(bb.Instrs) > 0 && bb.Instrs[len(bb.Instrs)-1].Terminates()
}

// -----------------------------------------------------------------------------

// Graph is the control flow graph of one function.
type Graph struct {
	// The qualified name of the lowered function, eg. "Token::transfer".
	Name string

	// The parameters of the function.  Their slots are bound on entry.
	Params []*common.Variable

	// The declared return values of the function.
	Returns []*common.Variable

	// The variable table of the function.
	Vars *Vartable

	// The blocks of the graph.  Block 0 is the entry block.
	Blocks []*BasicBlock

	current int
}

// New creates a graph with an empty entry block selected.
func New(name string, vars *Vartable) *Graph {
	return &Graph{
		Name:   name,
		Vars:   vars,
		Blocks: []*BasicBlock{{Name: "entry"}},
	}
}

// NewBlock appends an empty block with the given name hint and returns its
// index.  The new block is not selected.
func (g *Graph) NewBlock(name string) int {
	g.Blocks = append(g.Blocks, &BasicBlock{Name: name})
	return len(g.Blocks) - 1
}

// SetBlock selects the block that subsequent Add calls append to.
func (g *Graph) SetBlock(block int) {
	if block < 0 || block >= len(g.Blocks) {
		report.ReportICE("selecting undefined block %d", block)
	}

	g.current = block
}

// CurrentBlock returns the index of the selected block.
func (g *Graph) CurrentBlock() int {
	return g.current
}

// Block returns the block at the given index.
func (g *Graph) Block(block int) *BasicBlock {
	if block < 0 || block >= len(g.Blocks) {
		report.ReportICE("reference to undefined block %d", block)
	}

	return g.Blocks[block]
}

// SetPhis attaches a phi set to a block.  An empty set leaves the block
// without one.
func (g *Graph) SetPhis(block int, phis SlotSet) {
	if len(phis) > 0 {
		g.Block(block).Phis = phis
	}
}

// Add appends an instruction to the selected block, recording the destination
// slots of assigning instructions in every open dirty tracker.
func (g *Graph) Add(instr Instr) {
	switch in := instr.(type) {
	case *Set:
		g.Vars.SetDirty(in.Res)
	case *Call:
		for _, res := range in.Res {
			g.Vars.SetDirty(res)
		}
	case *ExternalCall:
		if in.Success >= 0 {
			g.Vars.SetDirty(in.Success)
		}
		for _, res := range in.Returns {
			g.Vars.SetDirty(res)
		}
	}

	g.Blocks[g.current].Instrs = append(g.Blocks[g.current].Instrs, instr)
}

// -----------------------------------------------------------------------------

// Successors returns the blocks the given block branches to, in terminator
// order.
func (g *Graph) Successors(block int) []int {
	bb := g.Block(block)
	if len(bb.Instrs) == 0 {
		return nil
	}

	switch term := bb.Instrs[len(bb.Instrs)-1].(type) {
	case *Branch:
		return []int{term.Block}
	case *BranchCond:
		return []int{term.TrueBlock, term.FalseBlock}
	default:
		return nil
	}
}

// Predecessors returns the blocks with an edge into the given block, in
// increasing index order.
func (g *Graph) Predecessors(block int) []int {
	var preds []int
	for i := range g.Blocks {
		for _, succ := range g.Successors(i) {
			if succ == block {
				preds = append(preds, i)
				break
			}
		}
	}

	sort.Ints(preds)
	return preds
}
