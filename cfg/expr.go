package cfg

import (
	"math/big"

	"solis/typing"
)

// Expression is a side-effect free operand tree appearing inside an
// instruction.  Lowering evaluates all side effects into instructions before
// building these, so materialization may evaluate an Expression any number of
// times within its block.
type Expression interface {
	// Ty is the resolved type of the expression.
	Ty() typing.Type
}

// -----------------------------------------------------------------------------

// Enumeration of binary operator kinds.  The logical operators are absent:
// lowering expands them into conditional control flow.
const (
	BinAdd = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinPow

	BinBitAnd
	BinBitOr
	BinBitXor
	BinShiftLeft
	BinShiftRight

	BinEq
	BinNotEq
	BinLess
	BinLessEq
	BinGreater
	BinGreaterEq
)

// Enumeration of unary operator kinds.
const (
	UnNot = iota
	UnComplement
	UnNegate
)

// -----------------------------------------------------------------------------

// BoolLiteral is a boolean constant.
type BoolLiteral struct {
	Value bool
}

func (bl *BoolLiteral) Ty() typing.Type { return typing.Bool }

// NumberLiteral is an integer constant of arbitrary precision.
type NumberLiteral struct {
	Type  typing.Type
	Value *big.Int
}

func (nl *NumberLiteral) Ty() typing.Type { return nl.Type }

// BytesLiteral is a fixed or dynamic bytes constant.
type BytesLiteral struct {
	Type  typing.Type
	Value []byte
}

func (bl *BytesLiteral) Ty() typing.Type { return bl.Type }

// Variable reads the current value of a variable table slot.
type Variable struct {
	Type typing.Type
	Slot int
}

func (v *Variable) Ty() typing.Type { return v.Type }

// -----------------------------------------------------------------------------

// Binary is a binary operator application.  Signedness of division, modulo,
// shifts, and comparisons follows the operand types.
type Binary struct {
	Type     typing.Type
	Op       int
	Lhs, Rhs Expression
}

func (b *Binary) Ty() typing.Type { return b.Type }

// Unary is a unary operator application.
type Unary struct {
	Type    typing.Type
	Op      int
	Operand Expression
}

func (u *Unary) Ty() typing.Type { return u.Type }

// Cast converts a value to another type.  Whether this truncates, extends,
// or reinterprets is decided by the source and destination types during
// materialization.
type Cast struct {
	Type typing.Type
	Expr Expression
}

func (c *Cast) Ty() typing.Type { return c.Type }

// -----------------------------------------------------------------------------

// StorageLoad reads the value behind a persistent storage reference.
type StorageLoad struct {
	Type    typing.Type
	Storage Expression
}

func (sl *StorageLoad) Ty() typing.Type { return sl.Type }

// Load reads the value behind an in-memory reference.
type Load struct {
	Type typing.Type
	Ref  Expression
}

func (l *Load) Ty() typing.Type { return l.Type }

// AllocDynamic allocates a dynamically-sized array, bytes, or string value.
// The size operand is always a variable or literal: lowering hoists computed
// sizes into temporaries so the length can be requeried without re-running
// the size expression.
type AllocDynamic struct {
	Type        typing.Type
	Size        Expression
	Initializer []byte
}

func (ad *AllocDynamic) Ty() typing.Type { return ad.Type }

// ArrayLength queries the length of an array, bytes, or string value.
type ArrayLength struct {
	Array Expression
}

func (al *ArrayLength) Ty() typing.Type { return typing.Uint32 }

// ReturnData reads the raw return data of the most recent external call in
// the block.  Only the catch arm of a try statement produces one.
type ReturnData struct{}

func (rd *ReturnData) Ty() typing.Type { return typing.DynamicBytesType{} }

// Subscript indexes into an array or bytes value.
type Subscript struct {
	Type  typing.Type
	Array Expression
	Index Expression
}

func (s *Subscript) Ty() typing.Type { return s.Type }
