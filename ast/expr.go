package ast

import (
	"math/big"

	"solis/common"
	"solis/report"
	"solis/typing"
)

// ASTExpr represents an expression node.  Every expression node produced by
// the resolver already carries its resolved type: expressions here are never
// re-inferred.
type ASTExpr interface {
	ASTNode

	// Type is the yielded type of the expression.
	Type() typing.Type
}

// ExprBase is the base struct for all expressions.
type ExprBase struct {
	typ  typing.Type
	span *report.TextSpan
}

// NewExprBase creates a new expression base with the given type and span.
func NewExprBase(typ typing.Type, span *report.TextSpan) ExprBase {
	return ExprBase{typ: typ, span: span}
}

func (eb *ExprBase) Type() typing.Type {
	return eb.typ
}

func (eb *ExprBase) Span() *report.TextSpan {
	return eb.span
}

// -----------------------------------------------------------------------------

// Enumeration of binary operator kinds.
const (
	OpAdd = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow

	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftLeft
	OpShiftRight

	OpEq
	OpNotEq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq

	// The logical operators short circuit: their right operand is evaluated
	// conditionally during lowering.
	OpLogicalAnd
	OpLogicalOr
)

// Enumeration of unary operator kinds.
const (
	OpNot = iota
	OpComplement
	OpNegate
)

// -----------------------------------------------------------------------------

// BoolLit represents a boolean literal.
type BoolLit struct {
	ExprBase

	Value bool
}

// NumberLit represents an integer or enum literal of arbitrary precision.
type NumberLit struct {
	ExprBase

	Value *big.Int
}

// BytesLit represents a fixed or dynamic bytes literal, including string
// literals.
type BytesLit struct {
	ExprBase

	Value []byte
}

// -----------------------------------------------------------------------------

// VarRef represents a reference to a resolved local variable.
type VarRef struct {
	ExprBase

	// The referenced variable.  Its ID doubles as the variable table slot.
	Var *common.Variable
}

// StorageVarRef represents a reference to a contract state variable.  Its
// type is always a storage reference; reading the value requires an explicit
// StorageLoad.
type StorageVarRef struct {
	ExprBase

	Var *common.StorageVariable
}

// StorageLoad represents reading a value through a storage reference.
type StorageLoad struct {
	ExprBase

	Ref ASTExpr
}

// Load represents reading a value through an in-memory reference.
type Load struct {
	ExprBase

	Ref ASTExpr
}

// -----------------------------------------------------------------------------

// Binary represents a binary operator application.  Logical and/or are
// included here: lowering expands them into conditional evaluation.
type Binary struct {
	ExprBase

	Op       int
	Lhs, Rhs ASTExpr
}

// Unary represents a unary operator application.
type Unary struct {
	ExprBase

	Op      int
	Operand ASTExpr
}

// Ternary represents a conditional expression `cond ? a : b`.
type Ternary struct {
	ExprBase

	Cond      ASTExpr
	TrueExpr  ASTExpr
	FalseExpr ASTExpr
}

// Cast represents a type conversion.  The destination type is stored in the
// ExprBase.
type Cast struct {
	ExprBase

	Src ASTExpr
}

// Assign represents an assignment used in expression position.  The left-hand
// side is a variable reference, storage reference, or index expression.
type Assign struct {
	ExprBase

	Lhs ASTExpr
	Rhs ASTExpr
}

// -----------------------------------------------------------------------------

// InternalCall represents a call to a function of the same contract, referred
// to by its function number within the enclosing unit.
type InternalCall struct {
	ExprBase

	// The index of the called function in the unit's function list.
	FuncNo int

	Args []ASTExpr

	// The return types of the called function.  A call with more than one
	// return type only appears in destructuring or return position.
	Returns []typing.Type
}

// ExternalCall represents a call into another contract.  External calls can
// fail: lowering inserts a success check and a bail path after each one.
type ExternalCall struct {
	ExprBase

	// The address of the callee contract.
	Address ASTExpr

	// The selector name of the called function, eg. "transfer(address,uint256)".
	FuncName string

	// The resolved signature of the called function.
	Signature *typing.FuncType

	Args []ASTExpr

	// The optional native token value sent along with the call.
	Value ASTExpr
}

// -----------------------------------------------------------------------------

// AllocDynamic represents allocation of a dynamically-sized array, bytes, or
// string value of a given length.  The result type is stored in the ExprBase.
type AllocDynamic struct {
	ExprBase

	// The element count or byte length of the allocation.
	Size ASTExpr

	// The optional literal initializer of the allocation.
	Initializer []byte
}

// ArrayLength represents querying the length of an array, bytes, or string
// value.
type ArrayLength struct {
	ExprBase

	Array ASTExpr
}

// Index represents an array or bytes subscript.
type Index struct {
	ExprBase

	Array ASTExpr
	Idx   ASTExpr
}

// ExprList represents a parenthesized list of expressions appearing on the
// right-hand side of a destructuring assignment.
type ExprList struct {
	ExprBase

	Exprs []ASTExpr
}
