package cfg

import (
	"fmt"
	"strings"
)

// Dump renders the graph as text for debugging and the `--emit cfg` option.
func (g *Graph) Dump() string {
	sb := strings.Builder{}

	fmt.Fprintf(&sb, "cfg %s\n", g.Name)

	for i, bb := range g.Blocks {
		fmt.Fprintf(&sb, "block%d: # %s\n", i, bb.Name)

		if len(bb.Phis) > 0 {
			sb.WriteString("\t# phis:")
			for _, slot := range bb.Phis.Sorted() {
				fmt.Fprintf(&sb, " %s", g.Vars.Get(slot).Name)
			}
			sb.WriteRune('\n')
		}

		for _, instr := range bb.Instrs {
			fmt.Fprintf(&sb, "\t%s\n", g.dumpInstr(instr))
		}
	}

	return sb.String()
}

func (g *Graph) dumpInstr(instr Instr) string {
	switch in := instr.(type) {
	case *Set:
		return fmt.Sprintf("%s = %s", g.Vars.Get(in.Res).Name, g.dumpExpr(in.Expr))
	case *Store:
		return fmt.Sprintf("store %s, %s", g.dumpExpr(in.Dest), g.dumpExpr(in.Data))
	case *SetStorage:
		return fmt.Sprintf("set storage %s = %s", g.dumpExpr(in.Storage), g.dumpExpr(in.Value))
	case *ClearStorage:
		return fmt.Sprintf("clear storage %s", g.dumpExpr(in.Storage))
	case *Call:
		return fmt.Sprintf("%s = call func#%d(%s)", g.dumpSlots(in.Res), in.FuncNo, g.dumpExprs(in.Args))
	case *ExternalCall:
		prefix := ""
		if in.Success >= 0 {
			prefix = g.Vars.Get(in.Success).Name + ", "
		}
		return fmt.Sprintf(
			"%s%s = external call %s.%s(%s)",
			prefix, g.dumpSlots(in.Returns), g.dumpExpr(in.Address), in.Selector, g.dumpExprs(in.Args),
		)
	case *EmitEvent:
		return fmt.Sprintf("emit event#%d(%s)", in.EventNo, g.dumpExprs(in.Args))
	case *AssemblyBlock:
		return fmt.Sprintf("assembly (%s) { ... }", g.dumpSlots(in.Locals))
	case *Branch:
		return fmt.Sprintf("branch block%d", in.Block)
	case *BranchCond:
		return fmt.Sprintf(
			"branchcond %s, block%d, block%d",
			g.dumpExpr(in.Cond), in.TrueBlock, in.FalseBlock,
		)
	case *Return:
		if len(in.Values) == 0 {
			return "return"
		}
		return "return " + g.dumpExprs(in.Values)
	case *AssertFailure:
		if in.Encoded == nil {
			return "assert-failure"
		}
		return "assert-failure " + g.dumpExpr(in.Encoded)
	case *Unreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("<instr %T>", instr)
	}
}

func (g *Graph) dumpExpr(expr Expression) string {
	switch e := expr.(type) {
	case *BoolLiteral:
		return fmt.Sprintf("%t", e.Value)
	case *NumberLiteral:
		return fmt.Sprintf("%s %s", e.Type.Repr(), e.Value)
	case *BytesLiteral:
		return fmt.Sprintf("%s hex\"%x\"", e.Type.Repr(), e.Value)
	case *Variable:
		return g.Vars.Get(e.Slot).Name
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", g.dumpExpr(e.Lhs), binOpNames[e.Op], g.dumpExpr(e.Rhs))
	case *Unary:
		return fmt.Sprintf("(%s%s)", unOpNames[e.Op], g.dumpExpr(e.Operand))
	case *Cast:
		return fmt.Sprintf("%s(%s)", e.Type.Repr(), g.dumpExpr(e.Expr))
	case *StorageLoad:
		return fmt.Sprintf("load storage %s", g.dumpExpr(e.Storage))
	case *Load:
		return fmt.Sprintf("load %s", g.dumpExpr(e.Ref))
	case *AllocDynamic:
		if len(e.Initializer) > 0 {
			return fmt.Sprintf("alloc %s len %s hex\"%x\"", e.Type.Repr(), g.dumpExpr(e.Size), e.Initializer)
		}
		return fmt.Sprintf("alloc %s len %s", e.Type.Repr(), g.dumpExpr(e.Size))
	case *ArrayLength:
		return fmt.Sprintf("length %s", g.dumpExpr(e.Array))
	case *ReturnData:
		return "returndata"
	case *Subscript:
		return fmt.Sprintf("%s[%s]", g.dumpExpr(e.Array), g.dumpExpr(e.Index))
	default:
		return fmt.Sprintf("<expr %T>", expr)
	}
}

func (g *Graph) dumpExprs(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, expr := range exprs {
		parts[i] = g.dumpExpr(expr)
	}

	return strings.Join(parts, ", ")
}

func (g *Graph) dumpSlots(slots []int) string {
	parts := make([]string, len(slots))
	for i, slot := range slots {
		parts[i] = g.Vars.Get(slot).Name
	}

	return strings.Join(parts, ", ")
}

var binOpNames = map[int]string{
	BinAdd:        "+",
	BinSub:        "-",
	BinMul:        "*",
	BinDiv:        "/",
	BinMod:        "%",
	BinPow:        "**",
	BinBitAnd:     "&",
	BinBitOr:      "|",
	BinBitXor:     "^",
	BinShiftLeft:  "<<",
	BinShiftRight: ">>",
	BinEq:         "==",
	BinNotEq:      "!=",
	BinLess:       "<",
	BinLessEq:     "<=",
	BinGreater:    ">",
	BinGreaterEq:  ">=",
}

var unOpNames = map[int]string{
	UnNot:        "!",
	UnComplement: "~",
	UnNegate:     "-",
}
