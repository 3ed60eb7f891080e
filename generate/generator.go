// Package generate materializes lowered function graphs into LLVM IR.  Each
// contract unit becomes one LLVM module.  Blocks are instantiated lazily off
// a work list; phi-set slots become real phi instructions whose incoming
// edges are patched in as each predecessor is processed.
package generate

import (
	"strings"

	"solis/cfg"
	"solis/lower"
	"solis/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Generator is responsible for converting a lowered contract unit into LLVM
// IR.  A generator may be run any number of times over the same unit; each
// run produces an independent module.
type Generator struct {
	// unit is the lowered contract being converted.
	unit *lower.Unit

	// mod is the LLVM module being generated.
	mod *ir.Module

	// vectorType is the header layout shared by all dynamically sized
	// values: {length, capacity, data...}.
	vectorType *types.StructType

	// vectorPtrType is a pointer to vectorType, the representation of every
	// string, dynamic bytes, and dynamic array value.
	vectorPtrType *types.PointerType

	// wordType is the native machine word: a 256-bit integer.
	wordType *types.IntType

	// funcs maps function numbers to their LLVM declarations, parallel to
	// the unit's graph list.  Entries are nil for functions without bodies.
	funcs []*ir.Func

	// retTypes caches each function's aggregate return type, non-nil only
	// for functions returning more than one value.
	retTypes []*types.StructType

	// runtime holds the declared runtime externals by name.
	runtime map[string]*ir.Func

	// globalCounter is a counter used to name anonymous globals such as
	// interned byte literals.
	globalCounter int

	// ---------------------------------------------------------------------
	// Per-function state, reset by genGraph.

	// graph is the function graph being materialized.
	graph *cfg.Graph

	// fn is the LLVM function being filled in.
	fn *ir.Func

	// block is the LLVM block instructions are appended to.  It doubles as
	// the predecessor recorded on phi incoming edges while terminators are
	// generated.
	block *ir.Block

	// blocks maps abstract block indices to their instantiated LLVM blocks.
	blocks map[int]*genBlock

	// cells maps reference-typed slots to their entry-block stack cells.
	// Slots with a cell never appear in the value environment and never
	// receive phi nodes.
	cells map[int]value.Value

	// work is the queue of blocks awaiting materialization.  Each block is
	// enqueued exactly once, when first referenced.
	work []workItem
}

// genBlock is the materialized form of one abstract block.
type genBlock struct {
	bb *ir.Block

	// phis maps phi-set slots to their merge nodes, created when the block
	// is instantiated so that back edges find them in place.
	phis map[int]*ir.InstPhi
}

// workItem pairs a block index with the variable environment of the edge
// that first reached it.
type workItem struct {
	block int
	vars  map[int]value.Value
}

// NewGenerator creates a generator for the given unit.
func NewGenerator(unit *lower.Unit) *Generator {
	return &Generator{unit: unit}
}

// Generate materializes every graph of the unit into a fresh LLVM module.
func (g *Generator) Generate() *ir.Module {
	g.mod = ir.NewModule()
	g.mod.SourceFilename = g.unit.Contract.ReprPath
	g.globalCounter = 0

	g.wordType = types.NewInt(256)
	g.vectorType = types.NewStruct(types.I32, types.I32, types.NewArray(0, types.I8))
	g.mod.NewTypeDef("vector", g.vectorType)
	g.vectorPtrType = types.NewPointer(g.vectorType)

	g.declareRuntime()

	// declare every function before generating any body so that call
	// instructions can reference functions later in the unit
	g.funcs = make([]*ir.Func, len(g.unit.Graphs))
	g.retTypes = make([]*types.StructType, len(g.unit.Graphs))
	for i, graph := range g.unit.Graphs {
		if graph != nil {
			g.funcs[i], g.retTypes[i] = g.declareFunc(graph)
		}
	}

	for i, graph := range g.unit.Graphs {
		if graph != nil {
			g.genGraph(graph, g.funcs[i], g.retTypes[i])
		}
	}

	return g.mod
}

// declareFunc declares the LLVM function for a graph.  Functions returning
// more than one value return an aggregate; the aggregate type is returned
// alongside the function so calls and returns agree on it.
func (g *Generator) declareFunc(graph *cfg.Graph) (*ir.Func, *types.StructType) {
	params := make([]*ir.Param, len(graph.Params))
	for i, param := range graph.Params {
		params[i] = ir.NewParam(param.Name, g.convType(param.Type))
	}

	var retType types.Type
	var retStruct *types.StructType
	switch len(graph.Returns) {
	case 0:
		retType = types.Void
	case 1:
		retType = g.convType(graph.Returns[0].Type)
	default:
		fields := make([]types.Type, len(graph.Returns))
		for i, ret := range graph.Returns {
			fields[i] = g.convType(ret.Type)
		}
		retStruct = types.NewStruct(fields...)
		retType = retStruct
	}

	return g.mod.NewFunc(symbolName(graph.Name), retType, params...), retStruct
}

// symbolName converts a qualified graph name into an LLVM symbol name.
func symbolName(name string) string {
	return strings.ReplaceAll(name, "::", ".")
}

// -----------------------------------------------------------------------------

// declareRuntime declares the external runtime functions the generated code
// calls for storage, dynamic values, cross-contract calls, and events.
func (g *Generator) declareRuntime() {
	g.runtime = make(map[string]*ir.Func)

	word := g.wordType
	vec := g.vectorPtrType

	g.declare("solis_storage_store", types.Void, word, word)
	g.declare("solis_storage_store_bytes", types.Void, word, vec)
	g.declare("solis_storage_load", word, word)
	g.declare("solis_storage_load_bytes", vec, word)
	g.declare("solis_storage_clear", types.Void, word)

	g.declare("solis_vector_new", vec, types.I32, types.I32, types.I8Ptr)
	g.declare("solis_vector_len", types.I32, vec)
	g.declare("solis_vector_index", types.I8Ptr, vec, types.I32, types.I32)

	// solis_external_call(address, selector, value, argc, args...) where
	// every variadic argument is widened to a machine word
	external := g.declare("solis_external_call", types.I1, word, types.I8Ptr, word, types.I32)
	external.Sig.Variadic = true

	g.declare("solis_call_return", word, types.I32)
	g.declare("solis_call_return_bytes", vec, types.I32)
	g.declare("solis_return_data", vec)

	emit := g.declare("solis_emit_event", types.Void, types.I32, types.I32)
	emit.Sig.Variadic = true

	g.declare("solis_require", types.Void, types.I1)
	g.declare("solis_revert", types.Void, vec)
	g.declare("solis_pow", word, word, word)

	// solis_asm(body, bodyLen, argc, slots...) where every variadic
	// argument is a pointer to a machine word the block may read or write
	asm := g.declare("solis_asm", types.Void, types.I8Ptr, types.I32, types.I32)
	asm.Sig.Variadic = true
}

func (g *Generator) declare(name string, ret types.Type, params ...types.Type) *ir.Func {
	irParams := make([]*ir.Param, len(params))
	for i, param := range params {
		irParams[i] = ir.NewParam("", param)
	}

	fn := g.mod.NewFunc(name, ret, irParams...)
	g.runtime[name] = fn
	return fn
}

// callRuntime calls a declared runtime external.
func (g *Generator) callRuntime(name string, args ...value.Value) value.Value {
	return g.block.NewCall(g.runtime[name], args...)
}

// -----------------------------------------------------------------------------

// usesCell returns whether slots of the given type are backed by an
// entry-block stack cell instead of flowing through the value environment.
// Storage references are plain key words and flow through the environment
// like any other value.
func usesCell(t typing.Type) bool {
	if _, ok := t.(*typing.StorageRefType); ok {
		return false
	}

	return typing.IsReferenceType(t)
}
