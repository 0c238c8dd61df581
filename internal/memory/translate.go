package memory

import "github.com/xgill-go/sixgill/internal/ir"

// ArgMapping renames a callee-local variable's Exp reference to the
// caller-side expression it corresponds to at a given call site, the
// substitution translate_exp/translate_bit apply when lifting
// expressions and bits across a call edge (spec.md §4.8 step 5).
type ArgMapping map[*ir.Variable]*ir.Exp

// BuildCallMapping maps a callee's VarArgument variables to the actual
// argument expressions of call edge e, and its VarReturn variable (if
// given) to e.RetAssign.
func BuildCallMapping(calleeArgs []*ir.Variable, e *ir.PEdge, calleeReturn *ir.Variable) ArgMapping {
	m := make(ArgMapping, len(calleeArgs)+1)
	for _, v := range calleeArgs {
		if v.Kind != ir.VarArgument {
			continue
		}
		if v.ArgIndex >= 0 && v.ArgIndex < len(e.Args) {
			m[v] = e.Args[v.ArgIndex]
		}
	}
	if calleeReturn != nil && e.RetAssign != nil {
		m[calleeReturn] = e.RetAssign
	}
	return m
}

// TranslateExp rewrites every Var leaf of e found in mapping to its
// mapped expression, rebuilding through exps so the result stays
// interned (translate_exp, spec.md §4.8 step 5).
func TranslateExp(exps *ir.ExpTable, e *ir.Exp, mapping ArgMapping) *ir.Exp {
	if e == nil {
		return nil
	}
	if e.Kind == ir.ExpVar {
		if repl, ok := mapping[e.Var]; ok {
			return repl
		}
		return e
	}
	switch e.Kind {
	case ir.ExpDeref:
		return exps.Deref(TranslateExp(exps, e.Target, mapping))
	case ir.ExpFld:
		return exps.Field(TranslateExp(exps, e.Target, mapping), e.Fld)
	case ir.ExpIndex:
		return exps.Index(TranslateExp(exps, e.Target, mapping), TranslateExp(exps, e.Index, mapping))
	case ir.ExpUnop:
		return exps.Unop(e.Unop, TranslateExp(exps, e.Left, mapping))
	case ir.ExpBinop:
		return exps.Binop(e.Binop, TranslateExp(exps, e.Left, mapping), TranslateExp(exps, e.Right, mapping))
	case ir.ExpTerminate:
		return exps.Terminate(TranslateExp(exps, e.Target, mapping))
	case ir.ExpVPtr:
		return exps.VPtr(TranslateExp(exps, e.Target, mapping), e.Fld)
	case ir.ExpLoopEntry:
		return exps.LoopEntry(TranslateExp(exps, e.Target, mapping))
	default:
		return e // Int/Float/String/Bound: no Var leaves to substitute
	}
}

// TranslateBit rewrites every Exp leaf of b via TranslateExp, reusing
// ir.Bit's own structural rebuild (translate_bit, spec.md §4.8 step 5).
func TranslateBit(exps *ir.ExpTable, bits *ir.BitTable, b *ir.Bit, mapping ArgMapping) *ir.Bit {
	return bits.Map(b, func(e *ir.Exp) *ir.Exp { return TranslateExp(exps, e, mapping) })
}
