package common

import (
	"solis/report"
	"solis/typing"
)

// Variable represents a resolved local variable: a parameter, a declared
// local, or a named return value.  Resolution assigns each variable of a
// function a stable integer ID which the lowering phase reuses as its variable
// table slot.
type Variable struct {
	// The declared name of the variable.
	Name string

	// The stable ID of the variable within its function.  IDs are dense and
	// assigned in declaration order, parameters first.
	ID int

	// The type of the value stored in the variable.
	Type typing.Type

	// Where the variable was defined.
	DefSpan *report.TextSpan

	// Whether the variable is a compile-time constant.
	Constant bool
}

// StorageVariable represents a contract state variable resident in persistent
// storage.
type StorageVariable struct {
	// The declared name of the state variable.
	Name string

	// The type of the stored value.
	Type typing.Type

	// The storage key the variable lives at.
	Slot uint64

	// Whether the state variable is declared constant.  Constant state
	// variables never occupy a storage slot.
	Constant bool
}
