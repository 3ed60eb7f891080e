package generate

import (
	"fmt"
	"math/big"

	"solis/cfg"
	"solis/report"
	"solis/typing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genExpr generates an expression into the current block.
func (g *Generator) genExpr(env map[int]value.Value, expr cfg.Expression) value.Value {
	switch e := expr.(type) {
	case *cfg.BoolLiteral:
		return constant.NewBool(e.Value)
	case *cfg.NumberLiteral:
		return g.genIntConst(e.Ty(), e.Value)
	case *cfg.BytesLiteral:
		return g.genBytesLiteral(e)
	case *cfg.Variable:
		if cell, ok := g.cells[e.Slot]; ok {
			return g.block.NewLoad(g.convType(e.Type), cell)
		}

		val, ok := env[e.Slot]
		if !ok {
			report.ReportICE("slot %d (%s) read before any value reaches it", e.Slot, g.graph.Vars.Get(e.Slot).Name)
		}
		return val
	case *cfg.Binary:
		return g.genBinary(env, e)
	case *cfg.Unary:
		return g.genUnary(env, e)
	case *cfg.Cast:
		return g.genCast(g.genExpr(env, e.Expr), e.Expr.Ty(), e.Type)
	case *cfg.StorageLoad:
		slot := g.toWord(g.genExpr(env, e.Storage), e.Storage.Ty())
		if isDynamicType(e.Type) {
			return g.castPtr(g.callRuntime("solis_storage_load_bytes", slot), g.convType(e.Type))
		}
		return g.fromWord(g.callRuntime("solis_storage_load", slot), e.Type)
	case *cfg.Load:
		return g.block.NewLoad(g.convType(e.Type), g.genExpr(env, e.Ref))
	case *cfg.AllocDynamic:
		return g.genAllocDynamic(env, e)
	case *cfg.ArrayLength:
		return g.genArrayLength(env, e)
	case *cfg.ReturnData:
		return g.callRuntime("solis_return_data")
	case *cfg.Subscript:
		return g.genSubscript(env, e)
	}

	report.ReportICE("cannot generate expression of type %T", expr)
	return nil
}

// genIntConst generates an arbitrary precision integer constant of an
// integral type.
func (g *Generator) genIntConst(ty typing.Type, val *big.Int) value.Value {
	intType, ok := g.convType(ty).(*types.IntType)
	if !ok {
		report.ReportICE("integer constant of non-integral type %s", ty.Repr())
	}

	c, err := constant.NewIntFromString(intType, val.String())
	if err != nil {
		report.ReportICE("malformed integer constant %s: %s", val, err.Error())
	}

	return c
}

func (g *Generator) genBytesLiteral(lit *cfg.BytesLiteral) value.Value {
	// fixed-size byte sequences are big-endian integers
	if _, ok := lit.Type.(typing.BytesType); ok {
		return g.genIntConst(lit.Type, new(big.Int).SetBytes(lit.Value))
	}

	// dynamic byte sequences are interned as vector-shaped globals
	structType := types.NewStruct(types.I32, types.I32, types.NewArray(uint64(len(lit.Value)), types.I8))
	init := constant.NewStruct(structType,
		constant.NewInt(types.I32, int64(len(lit.Value))),
		constant.NewInt(types.I32, int64(len(lit.Value))),
		constant.NewCharArray(lit.Value),
	)

	global := g.mod.NewGlobalDef(fmt.Sprintf("__bytes.%d", g.globalCounter), init)
	g.globalCounter++

	return g.block.NewBitCast(global, g.convType(lit.Type))
}

// defaultValue returns the LLVM zero value of a frontend type: zero for
// integral values and a null pointer for reference values.
func (g *Generator) defaultValue(t typing.Type) value.Value {
	switch ll := g.convType(t).(type) {
	case *types.IntType:
		return constant.NewInt(ll, 0)
	case *types.PointerType:
		return constant.NewNull(ll)
	default:
		return constant.NewZeroInitializer(ll)
	}
}

// internGlobal interns a byte string as an anonymous global and returns a
// byte pointer to it.
func (g *Generator) internGlobal(data []byte) value.Value {
	global := g.mod.NewGlobalDef(fmt.Sprintf("__bytes.%d", g.globalCounter), constant.NewCharArray(data))
	g.globalCounter++

	return g.block.NewBitCast(global, types.I8Ptr)
}

// -----------------------------------------------------------------------------

func (g *Generator) genBinary(env map[int]value.Value, e *cfg.Binary) value.Value {
	lhs := g.genExpr(env, e.Lhs)
	rhs := g.genExpr(env, e.Rhs)
	signed := typing.IsSigned(e.Lhs.Ty())

	switch e.Op {
	case cfg.BinAdd:
		return g.block.NewAdd(lhs, rhs)
	case cfg.BinSub:
		return g.block.NewSub(lhs, rhs)
	case cfg.BinMul:
		return g.block.NewMul(lhs, rhs)
	case cfg.BinDiv:
		if signed {
			return g.block.NewSDiv(lhs, rhs)
		}
		return g.block.NewUDiv(lhs, rhs)
	case cfg.BinMod:
		if signed {
			return g.block.NewSRem(lhs, rhs)
		}
		return g.block.NewURem(lhs, rhs)
	case cfg.BinPow:
		raised := g.callRuntime("solis_pow", g.toWord(lhs, e.Lhs.Ty()), g.toWord(rhs, e.Rhs.Ty()))
		return g.fromWord(raised, e.Type)
	case cfg.BinBitAnd:
		return g.block.NewAnd(lhs, rhs)
	case cfg.BinBitOr:
		return g.block.NewOr(lhs, rhs)
	case cfg.BinBitXor:
		return g.block.NewXor(lhs, rhs)
	case cfg.BinShiftLeft:
		return g.block.NewShl(lhs, rhs)
	case cfg.BinShiftRight:
		if signed {
			return g.block.NewAShr(lhs, rhs)
		}
		return g.block.NewLShr(lhs, rhs)
	case cfg.BinEq:
		return g.block.NewICmp(enum.IPredEQ, lhs, rhs)
	case cfg.BinNotEq:
		return g.block.NewICmp(enum.IPredNE, lhs, rhs)
	case cfg.BinLess:
		return g.block.NewICmp(cmpPred(enum.IPredULT, enum.IPredSLT, signed), lhs, rhs)
	case cfg.BinLessEq:
		return g.block.NewICmp(cmpPred(enum.IPredULE, enum.IPredSLE, signed), lhs, rhs)
	case cfg.BinGreater:
		return g.block.NewICmp(cmpPred(enum.IPredUGT, enum.IPredSGT, signed), lhs, rhs)
	case cfg.BinGreaterEq:
		return g.block.NewICmp(cmpPred(enum.IPredUGE, enum.IPredSGE, signed), lhs, rhs)
	}

	report.ReportICE("cannot generate binary operator %d", e.Op)
	return nil
}

func cmpPred(unsigned, signed enum.IPred, isSigned bool) enum.IPred {
	if isSigned {
		return signed
	}

	return unsigned
}

func (g *Generator) genUnary(env map[int]value.Value, e *cfg.Unary) value.Value {
	operand := g.genExpr(env, e.Operand)

	switch e.Op {
	case cfg.UnNot:
		return g.block.NewXor(operand, constant.NewBool(true))
	case cfg.UnComplement:
		return g.block.NewXor(operand, constant.NewInt(g.convType(e.Type).(*types.IntType), -1))
	case cfg.UnNegate:
		return g.block.NewSub(constant.NewInt(g.convType(e.Type).(*types.IntType), 0), operand)
	}

	report.ReportICE("cannot generate unary operator %d", e.Op)
	return nil
}

// -----------------------------------------------------------------------------

// genCast converts a value between two frontend types.  Integral widths
// decide truncation versus extension; the source signedness decides the
// extension kind.
func (g *Generator) genCast(val value.Value, from, to typing.Type) value.Value {
	if typing.Equals(from, to) {
		return val
	}

	fromBits, fromSigned, fromInt := intBits(from)
	toBits, _, toInt := intBits(to)

	if fromInt && toInt {
		switch {
		case fromBits == toBits:
			return val
		case toBits == 1:
			zero := constant.NewInt(val.Type().(*types.IntType), 0)
			return g.block.NewICmp(enum.IPredNE, val, zero)
		case toBits < fromBits:
			return g.block.NewTrunc(val, g.convType(to))
		case fromSigned:
			return g.block.NewSExt(val, g.convType(to))
		default:
			return g.block.NewZExt(val, g.convType(to))
		}
	}

	if _, ok := val.Type().(*types.PointerType); ok {
		if target, ok := g.convType(to).(*types.PointerType); ok {
			return g.castPtr(val, target)
		}
	}

	report.ReportICE("cannot cast %s to %s", from.Repr(), to.Repr())
	return nil
}

// intBits returns the bit width and signedness of an integral type.
func intBits(t typing.Type) (int, bool, bool) {
	switch v := t.(type) {
	case typing.BoolType:
		return 1, false, true
	case typing.IntType:
		return int(v.Bits), v.Signed, true
	case typing.AddressType:
		return 160, false, true
	case typing.BytesType:
		return 8 * int(v.Len), false, true
	case *typing.EnumType:
		return int(v.Under.Bits), v.Under.Signed, true
	case *typing.StorageRefType:
		return 256, false, true
	default:
		return 0, false, false
	}
}

// toWord widens an integral or pointer value to the machine word.
func (g *Generator) toWord(val value.Value, from typing.Type) value.Value {
	if _, ok := val.Type().(*types.PointerType); ok {
		return g.block.NewPtrToInt(val, g.wordType)
	}

	bits, signed, ok := intBits(from)
	if !ok {
		report.ReportICE("cannot widen %s to a machine word", from.Repr())
	}

	switch {
	case bits == 256:
		return val
	case signed:
		return g.block.NewSExt(val, g.wordType)
	default:
		return g.block.NewZExt(val, g.wordType)
	}
}

// fromWord narrows a machine word back down to an integral or pointer type.
func (g *Generator) fromWord(val value.Value, to typing.Type) value.Value {
	if target, ok := g.convType(to).(*types.PointerType); ok {
		return g.block.NewIntToPtr(val, target)
	}

	bits, _, ok := intBits(to)
	if !ok {
		report.ReportICE("cannot narrow a machine word to %s", to.Repr())
	}

	if bits == 256 {
		return val
	}

	return g.block.NewTrunc(val, g.convType(to))
}

// castPtr bitcasts a pointer value unless it already has the target type.
func (g *Generator) castPtr(val value.Value, to types.Type) value.Value {
	if val.Type().Equal(to) {
		return val
	}

	return g.block.NewBitCast(val, to)
}

// -----------------------------------------------------------------------------

func (g *Generator) genAllocDynamic(env map[int]value.Value, e *cfg.AllocDynamic) value.Value {
	size := g.genCast(g.genExpr(env, e.Size), e.Size.Ty(), typing.Uint32)

	var init value.Value = constant.NewNull(types.NewPointer(types.I8))
	if e.Initializer != nil {
		init = g.internGlobal(e.Initializer)
	}

	vec := g.callRuntime("solis_vector_new", size, constant.NewInt(types.I32, elemByteSize(e.Type)), init)
	return g.castPtr(vec, g.convType(e.Type))
}

func (g *Generator) genArrayLength(env map[int]value.Value, e *cfg.ArrayLength) value.Value {
	if at, ok := e.Array.Ty().(*typing.ArrayType); ok && at.Len != nil {
		return constant.NewInt(types.I32, at.Len.Int64())
	}

	return g.callRuntime("solis_vector_len", g.castPtr(g.genExpr(env, e.Array), g.vectorPtrType))
}

func (g *Generator) genSubscript(env map[int]value.Value, e *cfg.Subscript) value.Value {
	arr := g.genExpr(env, e.Array)
	idx := g.genCast(g.genExpr(env, e.Index), e.Index.Ty(), typing.Uint32)

	elemType := e.Type
	if rt, ok := elemType.(*typing.RefType); ok {
		elemType = rt.Elem
	}
	llElem := g.convType(elemType)

	var ptr value.Value
	if at, ok := e.Array.Ty().(*typing.ArrayType); ok && at.Len != nil {
		arrType := types.NewArray(at.Len.Uint64(), llElem)
		ptr = g.block.NewGetElementPtr(arrType, arr, constant.NewInt(types.I32, 0), idx)
	} else {
		raw := g.callRuntime("solis_vector_index",
			g.castPtr(arr, g.vectorPtrType), idx, constant.NewInt(types.I32, elemByteSize(e.Array.Ty())))
		ptr = g.castPtr(raw, types.NewPointer(llElem))
	}

	// subscripts typed as references are used as assignment targets and
	// stay pointers; all others read the element
	if _, ok := e.Type.(*typing.RefType); ok {
		return ptr
	}

	return g.block.NewLoad(llElem, ptr)
}

// elemByteSize returns the byte stride of one element behind a dynamic
// value.  Values without a smaller representation occupy a full word.
func elemByteSize(t typing.Type) int64 {
	switch v := t.(type) {
	case typing.StringType, typing.DynamicBytesType:
		return 1
	case *typing.ArrayType:
		if bits, _, ok := intBits(v.Elem); ok {
			return int64((bits + 7) / 8)
		}
		return 32
	default:
		return 32
	}
}
