package generate

import (
	"fmt"

	"solis/cfg"
	"solis/report"
	"solis/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genGraph materializes one function graph into its declared LLVM function.
func (g *Generator) genGraph(graph *cfg.Graph, fn *ir.Func, retStruct *types.StructType) {
	g.graph = graph
	g.fn = fn
	g.blocks = make(map[int]*genBlock)
	g.cells = make(map[int]value.Value)
	g.work = nil

	env := make(map[int]value.Value)
	entry := g.createBlock(cfg.Entry)
	g.block = entry.bb

	// Every slot enters the function holding its type's zero value, so an
	// edge that skips a slot's first write still carries something for the
	// merge node.  Reference-typed slots live in stack cells hoisted to the
	// entry block so that every block sees the same backing store without
	// merge nodes.
	for _, slot := range graph.Vars.Slots() {
		info := graph.Vars.Get(slot)
		if usesCell(info.Type) {
			cell := entry.bb.NewAlloca(g.convType(info.Type))
			entry.bb.NewStore(g.defaultValue(info.Type), cell)
			g.cells[slot] = cell
		} else {
			env[slot] = g.defaultValue(info.Type)
		}
	}

	for i, param := range graph.Params {
		if cell, ok := g.cells[param.ID]; ok {
			entry.bb.NewStore(fn.Params[i], cell)
		} else {
			env[param.ID] = fn.Params[i]
		}
	}

	g.work = append(g.work, workItem{block: cfg.Entry, vars: env})

	for len(g.work) > 0 {
		item := g.work[0]
		g.work = g.work[1:]

		gb := g.blocks[item.block]
		g.block = gb.bb
		env := item.vars

		// merge nodes supersede whatever value the first-arriving edge
		// carried for their slots
		for _, slot := range sortedPhiSlots(gb) {
			env[slot] = gb.phis[slot]
		}

		for _, instr := range graph.Block(item.block).Instrs {
			g.genInstr(env, instr, retStruct)
		}
	}
}

// createBlock instantiates the LLVM block for an abstract block index,
// creating one phi node per phi-set slot whose type needs a merge node.
func (g *Generator) createBlock(block int) *genBlock {
	bb := g.fn.NewBlock(fmt.Sprintf("block%d.%s", block, g.graph.Block(block).Name))

	gb := &genBlock{bb: bb, phis: make(map[int]*ir.InstPhi)}
	for _, slot := range g.graph.Block(block).Phis.Sorted() {
		info := g.graph.Vars.Get(slot)
		if usesCell(info.Type) {
			continue
		}

		// built without incoming edges: predecessors patch them in as they
		// are processed, which is what lets back edges resolve
		phi := &ir.InstPhi{Typ: g.convType(info.Type)}
		bb.Insts = append(bb.Insts, phi)
		gb.phis[slot] = phi
	}

	g.blocks[block] = gb
	return gb
}

// retrieveBlock returns the LLVM block for an abstract block index,
// instantiating and enqueueing it on first reference, and records an
// incoming edge from the current block on every one of its phi nodes.
func (g *Generator) retrieveBlock(block int, env map[int]value.Value) *ir.Block {
	gb, ok := g.blocks[block]
	if !ok {
		gb = g.createBlock(block)
		g.work = append(g.work, workItem{block: block, vars: cloneEnv(env)})
	}

	for _, slot := range sortedPhiSlots(gb) {
		val, ok := env[slot]
		if !ok {
			report.ReportICE("phi slot %d has no value on edge from %s", slot, g.block.Name())
		}

		gb.phis[slot].Incs = append(gb.phis[slot].Incs, ir.NewIncoming(val, g.block))
	}

	return gb.bb
}

func sortedPhiSlots(gb *genBlock) []int {
	set := make(cfg.SlotSet, len(gb.phis))
	for slot := range gb.phis {
		set.Add(slot)
	}

	return set.Sorted()
}

func cloneEnv(env map[int]value.Value) map[int]value.Value {
	clone := make(map[int]value.Value, len(env))
	for slot, val := range env {
		clone[slot] = val
	}

	return clone
}

// -----------------------------------------------------------------------------

// genInstr generates one abstract instruction into the current block.
func (g *Generator) genInstr(env map[int]value.Value, instr cfg.Instr, retStruct *types.StructType) {
	switch in := instr.(type) {
	case *cfg.Set:
		g.bind(env, in.Res, g.genExpr(env, in.Expr))
	case *cfg.Store:
		dest := g.genExpr(env, in.Dest)
		g.block.NewStore(g.genExpr(env, in.Data), dest)
	case *cfg.SetStorage:
		slot := g.toWord(g.genExpr(env, in.Storage), in.Storage.Ty())
		if isDynamicType(in.Value.Ty()) {
			g.callRuntime("solis_storage_store_bytes", slot, g.genExpr(env, in.Value))
		} else {
			g.callRuntime("solis_storage_store", slot, g.toWord(g.genExpr(env, in.Value), in.Value.Ty()))
		}
	case *cfg.ClearStorage:
		g.callRuntime("solis_storage_clear", g.toWord(g.genExpr(env, in.Storage), in.Storage.Ty()))
	case *cfg.Call:
		g.genCall(env, in)
	case *cfg.ExternalCall:
		g.genExternalCall(env, in)
	case *cfg.EmitEvent:
		g.genEmitEvent(env, in)
	case *cfg.AssemblyBlock:
		g.genAssembly(env, in)
	case *cfg.Branch:
		target := g.retrieveBlock(in.Block, env)
		g.block.NewBr(target)
	case *cfg.BranchCond:
		cond := g.genExpr(env, in.Cond)
		trueBlock := g.retrieveBlock(in.TrueBlock, env)
		falseBlock := g.retrieveBlock(in.FalseBlock, env)
		g.block.NewCondBr(cond, trueBlock, falseBlock)
	case *cfg.Return:
		g.genReturn(env, in, retStruct)
	case *cfg.AssertFailure:
		if in.Encoded != nil {
			g.callRuntime("solis_revert", g.genExpr(env, in.Encoded))
		} else {
			g.callRuntime("solis_revert", constant.NewNull(g.vectorPtrType))
		}
		g.block.NewUnreachable()
	case *cfg.Unreachable:
		g.block.NewUnreachable()
	default:
		report.ReportICE("cannot generate instruction of type %T", instr)
	}
}

// bind records a value for a slot, either into its stack cell or into the
// environment.
func (g *Generator) bind(env map[int]value.Value, slot int, val value.Value) {
	if cell, ok := g.cells[slot]; ok {
		g.block.NewStore(val, cell)
	} else {
		env[slot] = val
	}
}

func (g *Generator) genCall(env map[int]value.Value, call *cfg.Call) {
	callee := g.funcs[call.FuncNo]
	if callee == nil {
		report.ReportICE("call to function %d which has no body", call.FuncNo)
	}

	args := make([]value.Value, len(call.Args))
	for i, arg := range call.Args {
		args[i] = g.genExpr(env, arg)
	}

	result := g.block.NewCall(callee, args...)

	switch len(call.Res) {
	case 0:
	case 1:
		g.bind(env, call.Res[0], result)
	default:
		for i, res := range call.Res {
			g.bind(env, res, g.block.NewExtractValue(result, uint64(i)))
		}
	}
}

func (g *Generator) genExternalCall(env map[int]value.Value, call *cfg.ExternalCall) {
	selector := g.internGlobal([]byte(call.Selector))

	var sent value.Value = constant.NewInt(g.wordType, 0)
	if call.Value != nil {
		sent = g.toWord(g.genExpr(env, call.Value), call.Value.Ty())
	}

	args := []value.Value{
		g.toWord(g.genExpr(env, call.Address), call.Address.Ty()),
		selector,
		sent,
		constant.NewInt(types.I32, int64(len(call.Args))),
	}
	for _, arg := range call.Args {
		args = append(args, g.toWord(g.genExpr(env, arg), arg.Ty()))
	}

	success := g.callRuntime("solis_external_call", args...)

	if call.Success >= 0 {
		g.bind(env, call.Success, success)
	} else {
		// no success slot means failure reverts in the caller
		g.callRuntime("solis_require", success)
	}

	for i, res := range call.Returns {
		info := g.graph.Vars.Get(res)
		index := constant.NewInt(types.I32, int64(i))
		if isDynamicType(info.Type) {
			raw := g.callRuntime("solis_call_return_bytes", index)
			g.bind(env, res, g.block.NewBitCast(raw, g.convType(info.Type)))
		} else {
			raw := g.callRuntime("solis_call_return", index)
			g.bind(env, res, g.fromWord(raw, info.Type))
		}
	}
}

func (g *Generator) genEmitEvent(env map[int]value.Value, emit *cfg.EmitEvent) {
	args := []value.Value{
		constant.NewInt(types.I32, int64(emit.EventNo)),
		constant.NewInt(types.I32, int64(len(emit.Args))),
	}
	for _, arg := range emit.Args {
		args = append(args, g.toWord(g.genExpr(env, arg), arg.Ty()))
	}

	g.callRuntime("solis_emit_event", args...)
}

// genAssembly hands an embedded assembly block to the runtime, exchanging
// its local slots through word-sized cells the block may read and write.
func (g *Generator) genAssembly(env map[int]value.Value, asm *cfg.AssemblyBlock) {
	body := g.internGlobal([]byte(asm.Body))

	args := []value.Value{
		body,
		constant.NewInt(types.I32, int64(len(asm.Body))),
		constant.NewInt(types.I32, int64(len(asm.Locals))),
	}

	slots := make([]value.Value, len(asm.Locals))
	for i := range asm.Locals {
		cell := g.block.NewAlloca(g.wordType)
		g.block.NewStore(constant.NewInt(g.wordType, 0), cell)
		slots[i] = cell
		args = append(args, cell)
	}

	g.callRuntime("solis_asm", args...)

	for i, local := range asm.Locals {
		word := g.block.NewLoad(g.wordType, slots[i])
		g.bind(env, local, g.fromWord(word, g.graph.Vars.Get(local).Type))
	}
}

func (g *Generator) genReturn(env map[int]value.Value, ret *cfg.Return, retStruct *types.StructType) {
	switch len(ret.Values) {
	case 0:
		g.block.NewRet(nil)
	case 1:
		g.block.NewRet(g.genExpr(env, ret.Values[0]))
	default:
		var agg value.Value = constant.NewZeroInitializer(retStruct)
		for i, val := range ret.Values {
			agg = g.block.NewInsertValue(agg, g.genExpr(env, val), uint64(i))
		}
		g.block.NewRet(agg)
	}
}

// isDynamicType returns whether values of the type carry a vector header.
func isDynamicType(t typing.Type) bool {
	switch v := t.(type) {
	case typing.StringType, typing.DynamicBytesType:
		return true
	case *typing.ArrayType:
		return v.Len == nil
	default:
		return false
	}
}
