package generate

import (
	"solis/report"
	"solis/typing"

	"github.com/llir/llvm/ir/types"
)

// convType converts a frontend type to its LLVM representation.  All
// dynamically sized values share the vector header layout; structs and fixed
// arrays are passed by pointer.
func (g *Generator) convType(typ typing.Type) types.Type {
	switch v := typ.(type) {
	case typing.BoolType:
		return types.I1
	case typing.IntType:
		return types.NewInt(uint64(v.Bits))
	case typing.AddressType:
		return types.NewInt(160)
	case typing.BytesType:
		return types.NewInt(8 * uint64(v.Len))
	case typing.StringType, typing.DynamicBytesType:
		return g.vectorPtrType
	case *typing.ArrayType:
		if v.Len == nil {
			return g.vectorPtrType
		}
		return types.NewPointer(types.NewArray(v.Len.Uint64(), g.convType(v.Elem)))
	case *typing.EnumType:
		return g.convType(v.Under)
	case *typing.StructType:
		fields := make([]types.Type, len(v.Fields))
		for i, field := range v.Fields {
			fields[i] = g.convType(field)
		}
		return types.NewPointer(types.NewStruct(fields...))
	case *typing.StorageRefType:
		// a storage reference is the key word, not the value behind it
		return g.wordType
	case *typing.RefType:
		return types.NewPointer(g.convType(v.Elem))
	}

	report.ReportICE("type %s has no LLVM representation", typ.Repr())
	return nil
}
