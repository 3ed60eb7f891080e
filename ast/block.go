package ast

// Block represents a list of AST statements.
type Block struct {
	ASTBase

	// The statements of the block.
	Stmts []ASTNode
}

// -----------------------------------------------------------------------------

// IfStmt represents an if or if/else statement.
type IfStmt struct {
	ASTBase

	// The branch condition.
	Cond ASTExpr

	// The body executed when the condition holds.
	Then *Block

	// The (optional) else body.
	Else *Block
}

// WhileLoop represents a while loop.
type WhileLoop struct {
	ASTBase

	// The loop condition.
	Cond ASTExpr

	// The body of the loop.
	Body *Block
}

// DoWhileLoop represents a do-while loop.
type DoWhileLoop struct {
	ASTBase

	// The body of the loop.
	Body *Block

	// The loop condition, checked after each iteration.
	Cond ASTExpr
}

// ForLoop represents a C-style for loop.  Both the condition and the next
// clause may be absent; a for loop without a condition repeats
// unconditionally.
type ForLoop struct {
	ASTBase

	// The initializer statements, run once before the loop.
	Init []ASTNode

	// The (optional) loop condition.
	Cond ASTExpr

	// The (optional) next clause, run after each iteration.
	Next ASTExpr

	// The body of the loop.
	Body *Block
}
