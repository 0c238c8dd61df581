package memory

import "github.com/xgill-go/sixgill/internal/ir"

// BlockModset computes the in-block modset fixpoint named in spec.md
// §4.8: own scalar writes plus clobber entries lifted from callee
// modsets read out of a cache. On a loop-free CFG this converges in a
// single forward pass (no in-block cycles remain after cfgx.SplitLoops);
// the cross-function fixpoint — "on callee modset change, the modset
// dependency hash schedules dependent callers" — is driven by
// internal/sched via internal/store.UpdateDependency, one layer above
// this package.
type BlockModset struct {
	mem     *BlockMemory
	exps    *ir.ExpTable
	bits    *ir.BitTable
	entries []ModsetEntry
}

// CalleeModsetLookup resolves a callee's modset by function name,
// reporting ok=false if unknown (not yet analyzed, or indirect with no
// resolved target).
type CalleeModsetLookup func(funcName string) (modset []ModsetEntry, ok bool)

// NewBlockModset seeds a BlockModset from mem's own scalar assigns.
func NewBlockModset(mem *BlockMemory, exps *ir.ExpTable, bits *ir.BitTable) *BlockModset {
	bm := &BlockModset{mem: mem, exps: exps, bits: bits}
	for _, a := range mem.Assigns {
		bm.entries = append(bm.entries, ModsetEntry{Lval: a.Lhs, Kind: WriteScalar, Guard: a.Guard})
	}
	return bm
}

// ApplyCallClobber folds in the clobber set of every Call edge in the
// underlying CFG, resolved via lookup, unioning over all known targets
// for indirect sites named in indirectTargets.
func (bm *BlockModset) ApplyCallClobber(lookup CalleeModsetLookup, calleeArgsOf func(funcName string) ([]*ir.Variable, *ir.Variable), indirectTargets map[int][]string) {
	for _, e := range bm.mem.CFG.Edges {
		if e.Kind != ir.EdgeCall {
			continue
		}
		guard := bm.mem.Guards[e.Source]
		names := resolvedNames(e, indirectTargets)
		for _, name := range names {
			modset, ok := lookup(name)
			if !ok {
				continue
			}
			args, ret := calleeArgsOf(name)
			mapping := BuildCallMapping(args, e, ret)
			bm.entries = append(bm.entries, TranslateClobber(bm.exps, bm.bits, guard, modset, mapping)...)
		}
	}
}

func resolvedNames(e *ir.PEdge, indirectTargets map[int][]string) []string {
	if e.Callee != nil && e.Callee.Kind == ir.ExpVar && e.Callee.Var != nil && e.Callee.Var.Kind == ir.VarFunction {
		return []string{e.Callee.Var.Name}
	}
	return indirectTargets[e.Source]
}

// Entries returns the accumulated modset.
func (bm *BlockModset) Entries() []ModsetEntry { return bm.entries }
