package typing

import (
	"fmt"
	"math/big"
	"strings"
)

// Type is the parent interface for all Solis types.  Every expression node the
// lowering phase consumes already carries its resolved Type: this package does
// no inference, it only describes and compares types.
type Type interface {
	// Repr returns a representative string of the type for purposes of error
	// reporting and CFG dumps.
	Repr() string

	// equals is the internal, type-specific implementation of Equals.  It
	// should never be called directly except by Equals.
	equals(Type) bool
}

// -----------------------------------------------------------------------------

// BoolType represents the `bool` type.
type BoolType struct{}

func (bt BoolType) Repr() string { return "bool" }

func (bt BoolType) equals(other Type) bool {
	_, ok := other.(BoolType)
	return ok
}

// IntType represents a sized integer type: `intN` or `uintN`.
type IntType struct {
	// The bit width of the integer.  Always a multiple of 8, at most 256.
	Bits uint16

	// Whether the integer is signed.
	Signed bool
}

func (it IntType) Repr() string {
	if it.Signed {
		return fmt.Sprintf("int%d", it.Bits)
	}

	return fmt.Sprintf("uint%d", it.Bits)
}

func (it IntType) equals(other Type) bool {
	if oit, ok := other.(IntType); ok {
		return it == oit
	}

	return false
}

// AddressType represents the `address` type: a 160-bit account identifier.
type AddressType struct{}

func (at AddressType) Repr() string { return "address" }

func (at AddressType) equals(other Type) bool {
	_, ok := other.(AddressType)
	return ok
}

// BytesType represents a fixed-size byte sequence type: `bytesN`.
type BytesType struct {
	// The number of bytes.  Between 1 and 32.
	Len uint8
}

func (bt BytesType) Repr() string { return fmt.Sprintf("bytes%d", bt.Len) }

func (bt BytesType) equals(other Type) bool {
	if obt, ok := other.(BytesType); ok {
		return bt == obt
	}

	return false
}

// StringType represents the dynamically-sized `string` type.
type StringType struct{}

func (st StringType) Repr() string { return "string" }

func (st StringType) equals(other Type) bool {
	_, ok := other.(StringType)
	return ok
}

// DynamicBytesType represents the dynamically-sized `bytes` type.
type DynamicBytesType struct{}

func (dt DynamicBytesType) Repr() string { return "bytes" }

func (dt DynamicBytesType) equals(other Type) bool {
	_, ok := other.(DynamicBytesType)
	return ok
}

// NoReturnType is the bottom type: the type of expressions that never produce
// a value, such as a call to a function that always reverts.  Statement
// lowering uses it to decide that the following statement is unreachable.
type NoReturnType struct{}

func (nt NoReturnType) Repr() string { return "noreturn" }

func (nt NoReturnType) equals(other Type) bool {
	_, ok := other.(NoReturnType)
	return ok
}

// -----------------------------------------------------------------------------

// ArrayType represents a fixed or dynamically-sized array type.
type ArrayType struct {
	// The element type.
	Elem Type

	// The fixed length of the array, or nil if the array is dynamically
	// sized.
	Len *big.Int
}

func (at *ArrayType) Repr() string {
	if at.Len == nil {
		return at.Elem.Repr() + "[]"
	}

	return fmt.Sprintf("%s[%s]", at.Elem.Repr(), at.Len)
}

func (at *ArrayType) equals(other Type) bool {
	if oat, ok := other.(*ArrayType); ok {
		if at.Len == nil || oat.Len == nil {
			return at.Len == oat.Len && Equals(at.Elem, oat.Elem)
		}

		return at.Len.Cmp(oat.Len) == 0 && Equals(at.Elem, oat.Elem)
	}

	return false
}

// EnumType represents a user-declared enumeration backed by an integer type.
type EnumType struct {
	// The declared name of the enum.
	Name string

	// The underlying integer representation.
	Under IntType
}

func (et *EnumType) Repr() string { return "enum " + et.Name }

func (et *EnumType) equals(other Type) bool {
	if oet, ok := other.(*EnumType); ok {
		return et.Name == oet.Name
	}

	return false
}

// StructType represents a user-declared struct.
type StructType struct {
	// The declared name of the struct.
	Name string

	// The field types in declaration order.
	Fields []Type
}

func (st *StructType) Repr() string { return "struct " + st.Name }

func (st *StructType) equals(other Type) bool {
	if ost, ok := other.(*StructType); ok {
		return st.Name == ost.Name
	}

	return false
}

// -----------------------------------------------------------------------------

// StorageRefType represents a reference to a slot in persistent contract
// storage.  The reference itself is an integer storage key; reading through it
// requires an explicit storage load instruction.
type StorageRefType struct {
	// The type of the value stored at the referenced key.
	Elem Type
}

func (st *StorageRefType) Repr() string { return st.Elem.Repr() + " storage" }

func (st *StorageRefType) equals(other Type) bool {
	if ost, ok := other.(*StorageRefType); ok {
		return Equals(st.Elem, ost.Elem)
	}

	return false
}

// RefType represents an in-memory reference to a value of another type.
type RefType struct {
	// The type of the value referenced.
	Elem Type
}

func (rt *RefType) Repr() string { return "ref " + rt.Elem.Repr() }

func (rt *RefType) equals(other Type) bool {
	if ort, ok := other.(*RefType); ok {
		return Equals(rt.Elem, ort.Elem)
	}

	return false
}

// FuncType represents the type of an internal or external function value.
type FuncType struct {
	Params  []Type
	Returns []Type

	// Whether the function lives in another contract and is reached through
	// an external call.
	External bool
}

func (ft *FuncType) Repr() string {
	sb := strings.Builder{}

	sb.WriteString("function(")
	for i, p := range ft.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Repr())
	}
	sb.WriteRune(')')

	if len(ft.Returns) > 0 {
		sb.WriteString(" returns (")
		for i, r := range ft.Returns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(r.Repr())
		}
		sb.WriteRune(')')
	}

	return sb.String()
}

func (ft *FuncType) equals(other Type) bool {
	oft, ok := other.(*FuncType)
	if !ok || len(ft.Params) != len(oft.Params) || len(ft.Returns) != len(oft.Returns) {
		return false
	}

	for i, p := range ft.Params {
		if !Equals(p, oft.Params[i]) {
			return false
		}
	}

	for i, r := range ft.Returns {
		if !Equals(r, oft.Returns[i]) {
			return false
		}
	}

	return ft.External == oft.External
}
