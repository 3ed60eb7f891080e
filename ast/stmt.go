package ast

import "solis/common"

// VarDeclStmt represents a local variable declaration.
type VarDeclStmt struct {
	ASTBase

	// The declared variable.
	Var *common.Variable

	// The (optional) initializer.
	Init ASTExpr
}

// ExprStmt represents an expression used in statement position.
type ExprStmt struct {
	ASTBase

	Expr ASTExpr
}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	ASTBase

	// The (optional) returned expression.  Functions returning multiple
	// values return an ExprList or a call with matching arity.
	Expr ASTExpr
}

// BreakStmt represents a break statement.
type BreakStmt struct {
	ASTBase
}

// ContinueStmt represents a continue statement.
type ContinueStmt struct {
	ASTBase
}

// -----------------------------------------------------------------------------

// DestructureStmt represents a destructuring assignment: a parenthesized
// field list assigned from a multi-valued right-hand side.
type DestructureStmt struct {
	ASTBase

	// The destructuring targets, in order.
	Fields []DestructureField

	// The right-hand side: an expression list, a multi-return call, or a
	// conditional expression over either.
	Rhs ASTExpr
}

// DestructureField is a single target of a destructuring assignment.  When
// both members are nil the corresponding value is discarded.
type DestructureField struct {
	// An existing assignable expression receiving the value, or nil.
	Expr ASTExpr

	// A freshly declared variable receiving the value, or nil.
	Var *common.Variable
}

// -----------------------------------------------------------------------------

// TryCatchStmt represents an external call or constructor invocation with a
// recovery block.
type TryCatchStmt struct {
	ASTBase

	// The attempted call.
	Call ASTExpr

	// The variables bound to the call's return values on success.
	Returns []*common.Variable

	// The body executed when the call succeeds.
	OkBody *Block

	// The (optional) variable bound to the raw return data on failure.
	CatchParam *common.Variable

	// The body executed when the call fails.
	CatchBody *Block
}

// PlaceholderStmt represents the inherited-body marker inside a modifier:
// the point at which the modified function's body (or the next modifier in
// the chain) is substituted.
type PlaceholderStmt struct {
	ASTBase
}

// EmitStmt represents an event emission.
type EmitStmt struct {
	ASTBase

	// The index of the emitted event in the unit's event list.
	EventNo int

	Args []ASTExpr
}

// RevertStmt represents an explicit revert: execution aborts and state
// changes roll back.
type RevertStmt struct {
	ASTBase

	// The (optional) encoded revert data handed back to the caller.
	Data ASTExpr
}

// DeleteStmt represents clearing a value in persistent storage.
type DeleteStmt struct {
	ASTBase

	// The storage reference being cleared.
	Target ASTExpr
}

// AsmBlock represents an embedded assembly block.  The block's contents are
// resolved by a separate dialect resolver and consumed opaquely here: only
// its declared locals interact with the surrounding function.
type AsmBlock struct {
	ASTBase

	// The local variables the block declares.  Lowering maps each into a
	// fresh slot of the enclosing function's variable table.
	Locals []*common.Variable

	// The resolved body of the block, opaque to the lowering phase.
	Body string
}
