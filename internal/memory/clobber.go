package memory

import "github.com/xgill-go/sixgill/internal/ir"

// WriteKind distinguishes a full overwrite from a partial (e.g.
// pointed-through) write, used by modset entries (spec.md §4.8).
type WriteKind int

const (
	WriteScalar WriteKind = iota
	WriteIndirect
)

// ModsetEntry is one (lval, kind, guard) triple in a function's modset,
// spec.md §4.8 ("Modset entries carry (lval, kind-of-write, guard)").
type ModsetEntry struct {
	Lval  *ir.Exp
	Kind  WriteKind
	Guard *ir.Bit
}

// TranslateClobber lifts a callee's modset entries into the caller's
// lvalue space across call edge e, renaming callee locals to actual
// arguments via mapping and conjoining the call site's own guard onto
// each entry — spec.md §4.8 step 4 ("translate callee modset entries
// into caller's lvalue space and return them as assign-like tuples").
func TranslateClobber(exps *ir.ExpTable, bits *ir.BitTable, callerGuard *ir.Bit, calleeModset []ModsetEntry, mapping ArgMapping) []ModsetEntry {
	out := make([]ModsetEntry, 0, len(calleeModset))
	for _, m := range calleeModset {
		out = append(out, ModsetEntry{
			Lval:  TranslateExp(exps, m.Lval, mapping),
			Kind:  m.Kind,
			Guard: bits.And(callerGuard, TranslateBit(exps, bits, m.Guard, mapping)),
		})
	}
	return out
}

// UnionIndirectClobber unions TranslateClobber across every known
// target of an indirect call (spec.md §4.8 step 4, "Indirect calls
// union over all known targets (optional)").
func UnionIndirectClobber(exps *ir.ExpTable, bits *ir.BitTable, callerGuard *ir.Bit, targets map[string][]ModsetEntry, mapping ArgMapping) []ModsetEntry {
	var out []ModsetEntry
	for _, modset := range targets {
		out = append(out, TranslateClobber(exps, bits, callerGuard, modset, mapping)...)
	}
	return out
}
