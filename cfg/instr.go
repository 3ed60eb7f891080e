package cfg

import "solis/report"

// Instr is one instruction of a basic block.  The instruction set is closed:
// materialization switches exhaustively over it.
type Instr interface {
	// Span is the source location the instruction was lowered from, used for
	// diagnostics.  May be nil for synthesized instructions.
	Span() *report.TextSpan

	// Terminates returns whether the instruction ends its block.
	Terminates() bool
}

// InstrBase is the base struct for all instructions.
type InstrBase struct {
	span *report.TextSpan
}

// At creates an instruction base carrying the given source location.
func At(span *report.TextSpan) InstrBase {
	return InstrBase{span: span}
}

func (ib InstrBase) Span() *report.TextSpan { return ib.span }

func (ib InstrBase) Terminates() bool { return false }

// -----------------------------------------------------------------------------

// Set assigns the result of an expression to a slot.
type Set struct {
	InstrBase

	Res  int
	Expr Expression
}

// Store writes a value through an in-memory reference.
type Store struct {
	InstrBase

	Dest Expression
	Data Expression
}

// SetStorage writes a value through a persistent storage reference.
type SetStorage struct {
	InstrBase

	Storage Expression
	Value   Expression
}

// ClearStorage zeroes the value behind a persistent storage reference.
type ClearStorage struct {
	InstrBase

	Storage Expression
}

// -----------------------------------------------------------------------------

// Call invokes a function of the same unit, binding its return values to the
// Res slots.
type Call struct {
	InstrBase

	Res    []int
	FuncNo int
	Args   []Expression
}

// ExternalCall invokes a function of another contract.  When Success is a
// valid slot it receives whether the call completed; when it is negative the
// caller did not request a success flag and lowering has already branched to
// a bail path on failure.
type ExternalCall struct {
	InstrBase

	// The slot receiving the success flag, or -1.
	Success int

	Address  Expression
	Selector string
	Args     []Expression

	// The optional native token value sent with the call.
	Value Expression

	// The slots receiving the decoded return values.
	Returns []int
}

// EmitEvent emits an event with the given arguments.
type EmitEvent struct {
	InstrBase

	EventNo int
	Args    []Expression
}

// AssemblyBlock runs an embedded assembly block resolved by the dialect
// resolver.  Only its local slots interact with the surrounding graph.
type AssemblyBlock struct {
	InstrBase

	Locals []int
	Body   string
}

// -----------------------------------------------------------------------------

// Branch transfers control to another block unconditionally.
type Branch struct {
	InstrBase

	Block int
}

func (br *Branch) Terminates() bool { return true }

// BranchCond transfers control to one of two blocks depending on a boolean
// condition.
type BranchCond struct {
	InstrBase

	Cond       Expression
	TrueBlock  int
	FalseBlock int
}

func (bc *BranchCond) Terminates() bool { return true }

// Return leaves the function with zero or more values.
type Return struct {
	InstrBase

	Values []Expression
}

func (ret *Return) Terminates() bool { return true }

// AssertFailure reverts execution, optionally carrying encoded revert data.
type AssertFailure struct {
	InstrBase

	Encoded Expression
}

func (af *AssertFailure) Terminates() bool { return true }

// Unreachable seals a block control can never fall out of, eg. after a call
// typed as never returning.
type Unreachable struct {
	InstrBase
}

func (un *Unreachable) Terminates() bool { return true }
