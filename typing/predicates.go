package typing

import "math/big"

// Equals returns whether two types are identical.
func Equals(a, b Type) bool {
	return a.equals(b)
}

// IsReferenceType returns whether a value of the given type is passed around
// by reference.  Reference-typed variables are backed by a stack cell in the
// entry block and never need merge nodes at control flow joins.
func IsReferenceType(t Type) bool {
	switch t.(type) {
	case StringType, DynamicBytesType, *ArrayType, *StructType, *RefType, *StorageRefType:
		return true
	default:
		return false
	}
}

// IsNoReturn returns whether the given type is the bottom type.
func IsNoReturn(t Type) bool {
	_, ok := t.(NoReturnType)
	return ok
}

// IsSigned returns whether the given type is a signed integer type.
func IsSigned(t Type) bool {
	if it, ok := t.(IntType); ok {
		return it.Signed
	}

	return false
}

// Bool is the shared instance of the `bool` type.
var Bool = BoolType{}

// Uint32 is the shared instance of the `uint32` type, used for array lengths
// and temporaries minted during lowering.
var Uint32 = IntType{Bits: 32, Signed: false}

// Uint256 is the shared instance of the `uint256` type, the native word of
// the target machine.
var Uint256 = IntType{Bits: 256, Signed: false}

// DefaultValue returns the zero value literal for the given type as an
// arbitrary precision integer, or nil if the type has no integral zero value.
// Enum and integer variables declared without an initializer start at zero.
func DefaultValue(t Type) *big.Int {
	switch t.(type) {
	case BoolType, IntType, AddressType, BytesType, *EnumType:
		return big.NewInt(0)
	default:
		return nil
	}
}
