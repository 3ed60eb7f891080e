// Package sem defines the resolved program representation handed to the
// lowering phase: contracts, their functions, events, and state variables,
// with every expression typed and every variable reference bound.
package sem

import (
	"strings"

	"solis/ast"
	"solis/common"
	"solis/report"
	"solis/typing"
)

// Function represents a resolved contract function or modifier.
type Function struct {
	// The declared name of the function.
	Name string

	// The parameters of the function, in order.  Parameter IDs occupy the
	// first slots of the function's variable table.
	Params []*common.Variable

	// The declared return values.  Unnamed returns still carry a variable so
	// that lowering can zero-initialize them.
	Returns []*common.Variable

	// The modifiers applied to the function, outermost first.
	Modifiers []ModifierInvocation

	// The resolved body.  Nil for functions declared without a body.
	Body *ast.Block

	// Whether this function is a modifier.  Modifier bodies contain a
	// placeholder statement where the modified function is substituted.
	IsModifier bool

	// Whether the function is callable from outside the contract.
	External bool

	// The number of variable IDs the resolver assigned within this function.
	// Lowering mints temporaries starting from this value.
	NextVarID int

	// Where the function was defined.
	DefSpan *report.TextSpan
}

// ModifierInvocation represents the application of one modifier to a
// function.
type ModifierInvocation struct {
	// The index of the modifier in the contract's function list.
	FuncNo int

	// The arguments passed to the modifier.
	Args []ast.ASTExpr
}

// Selector returns the external selector string of the function, eg.
// "transfer(address,uint256)".
func (fn *Function) Selector() string {
	sb := strings.Builder{}

	sb.WriteString(fn.Name)
	sb.WriteRune('(')
	for i, param := range fn.Params {
		if i > 0 {
			sb.WriteRune(',')
		}
		sb.WriteString(param.Type.Repr())
	}
	sb.WriteRune(')')

	return sb.String()
}

// Signature returns the function's type.
func (fn *Function) Signature() *typing.FuncType {
	params := make([]typing.Type, len(fn.Params))
	for i, param := range fn.Params {
		params[i] = param.Type
	}

	returns := make([]typing.Type, len(fn.Returns))
	for i, ret := range fn.Returns {
		returns[i] = ret.Type
	}

	return &typing.FuncType{Params: params, Returns: returns, External: fn.External}
}

// -----------------------------------------------------------------------------

// EventField is a single field of an event declaration.
type EventField struct {
	Name    string
	Type    typing.Type
	Indexed bool
}

// Event represents a resolved event declaration.
type Event struct {
	// The declared name of the event.
	Name string

	// The fields of the event, in declaration order.
	Fields []EventField
}

// -----------------------------------------------------------------------------

// Contract represents a fully resolved contract.
type Contract struct {
	// The declared name of the contract.
	Name string

	// The state variables of the contract.
	Variables []*common.StorageVariable

	// The functions and modifiers of the contract.  Function numbers used by
	// call expressions and modifier invocations index into this list.
	Functions []*Function

	// The events declared by the contract.
	Events []*Event

	// The absolute path to the file declaring the contract.  Diagnostics open
	// this path to show the offending source text.
	AbsPath string

	// The representative path of the file declaring the contract, used for
	// diagnostics.
	ReprPath string
}
